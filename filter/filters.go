// Copyright (C) 2025 adrianbrink
//
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Lesser General Public License as
// published by the Free Software Foundation, either version 3 of the
// License, or (at your option) any later version.
//
// This program is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE. See the
// GNU Lesser General Public License for more details.
//
// You should have received a copy of the GNU Lesser General Public License
// along with this program. If not, see <https://www.gnu.org/licenses/>.

// SPDX-License-Identifier: LGPL-3.0-or-later

package filter

import (
	"time"

	"github.com/adrianbrink/routing/xorname"
)

// Default TTLs, per §4.2/§4.3/§4.9.
const (
	SignedMessageTTL = 20 * time.Minute
	ConnectionTTL    = 20 * time.Second
	GroupMsgTTL      = 20 * time.Minute

	defaultCleanupInterval = 30 * time.Second
)

// SignedMessageFilter deduplicates SignedMessages by content hash,
// dropping replays within SignedMessageTTL.
type SignedMessageFilter struct {
	*TTLSet[xorname.Name]
}

// NewSignedMessageFilter builds a SignedMessageFilter with the default TTL.
func NewSignedMessageFilter() *SignedMessageFilter {
	return &SignedMessageFilter{TTLSet: NewTTLSet[xorname.Name](SignedMessageTTL, defaultCleanupInterval)}
}

// ConnectionFilter rate-limits repeat connection attempts to the same
// target name within ConnectionTTL.
type ConnectionFilter struct {
	*TTLSet[xorname.Name]
}

// NewConnectionFilter builds a ConnectionFilter with the default TTL.
func NewConnectionFilter() *ConnectionFilter {
	return &ConnectionFilter{TTLSet: NewTTLSet[xorname.Name](ConnectionTTL, 5*time.Second)}
}

// GroupMsgFilter deduplicates group (NaeManager/NodeManager) messages
// by content hash within GroupMsgTTL.
type GroupMsgFilter struct {
	*TTLSet[xorname.Name]
}

// NewGroupMsgFilter builds a GroupMsgFilter with the default TTL.
func NewGroupMsgFilter() *GroupMsgFilter {
	return &GroupMsgFilter{TTLSet: NewTTLSet[xorname.Name](GroupMsgTTL, defaultCleanupInterval)}
}
