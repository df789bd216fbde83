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

package cache

import (
	"time"

	"github.com/adrianbrink/routing/identity"
	"github.com/adrianbrink/routing/xorname"
)

// DefaultTTL is the 10-minute lifetime shared by the identity and data
// caches (§3/§4.7).
const DefaultTTL = 10 * time.Minute

// IdentityCache holds PublicIds learned from ExpectCloseNode requests
// and GetCloseGroup responses, keyed by routing name.
type IdentityCache = TTLCache[xorname.Name, identity.PublicId]

// NewIdentityCache builds an IdentityCache with the default TTL.
func NewIdentityCache() *IdentityCache {
	return NewTTLCache[xorname.Name, identity.PublicId](DefaultTTL, time.Minute)
}

// DataCache holds opaque immutable-data blobs keyed by their content
// name, populated from Put requests and GetSuccess responses and
// consulted on Get (§4.7 steps 5–6).
type DataCache = TTLCache[xorname.Name, []byte]

// NewDataCache builds a DataCache with the default TTL.
func NewDataCache() *DataCache {
	return NewTTLCache[xorname.Name, []byte](DefaultTTL, time.Minute)
}
