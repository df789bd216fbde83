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
	"encoding/hex"
	"sync"
	"time"

	"github.com/adrianbrink/routing/xorname"
)

// entry tracks the distinct signers seen so far for one message hash.
type entry struct {
	signers map[string]struct{}
	quorum  int
	created time.Time
}

// Accumulator tracks, per distinct message, how many distinct signing
// keys have vouched for it, and reports once a caller-supplied quorum
// is reached. Keyed by message content hash rather than the message
// itself, so callers hash their own RoutingMessage encoding before
// calling Add — this keeps filter free of any dependency on the
// message package.
//
// GetCloseGroup responses bypass the accumulator entirely (§4.3/§4.9,
// R3); that exemption is enforced by message.SecurityCheck
// (message/message.go) simply never calling Add for that content kind,
// not by anything in here.
type Accumulator struct {
	mu      sync.Mutex
	entries map[xorname.Name]*entry
	ttl     time.Duration
}

// NewAccumulator builds an Accumulator whose entries expire after ttl
// if quorum is never reached (default: SignedMessageTTL).
func NewAccumulator(ttl time.Duration) *Accumulator {
	if ttl <= 0 {
		ttl = SignedMessageTTL
	}
	return &Accumulator{entries: make(map[xorname.Name]*entry), ttl: ttl}
}

// Add records that signerPub vouched for msgHash, updating quorum to
// the supplied value (the original's defensive "quorum may grow mid-
// handshake" behaviour — see bootstrap.go's handleBootstrapIdentify).
// It reports ready=true when a new distinct signer brings the number of
// signers to exactly the current quorum; a repeat signer never does, and
// a later call with a larger quorum can report ready again.
func (a *Accumulator) Add(msgHash xorname.Name, signerPub []byte, quorum int) (ready bool) {
	a.mu.Lock()
	defer a.mu.Unlock()

	e, ok := a.entries[msgHash]
	if !ok {
		e = &entry{signers: make(map[string]struct{}), created: time.Now()}
		a.entries[msgHash] = e
	}
	e.quorum = quorum

	key := hex.EncodeToString(signerPub)
	_, already := e.signers[key]
	e.signers[key] = struct{}{}

	if already {
		return false
	}
	if len(e.signers) == e.quorum {
		return true
	}
	return false
}

// SignerCount returns the number of distinct signers recorded for msgHash.
func (a *Accumulator) SignerCount(msgHash xorname.Name) int {
	a.mu.Lock()
	defer a.mu.Unlock()
	e, ok := a.entries[msgHash]
	if !ok {
		return 0
	}
	return len(e.signers)
}

// Sweep removes entries older than the accumulator's ttl. Intended to
// be called periodically by the routing engine's TTL-sweep goroutine
// alongside the TTLSet instances.
func (a *Accumulator) Sweep() {
	a.mu.Lock()
	defer a.mu.Unlock()
	now := time.Now()
	for k, e := range a.entries {
		if now.Sub(e.created) > a.ttl {
			delete(a.entries, k)
		}
	}
}
