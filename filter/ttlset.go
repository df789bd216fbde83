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

// Package filter holds the TTL-bounded dedup/quorum machinery the
// routing engine uses to drop replayed messages, rate-limit repeat
// connection attempts, and decide when enough distinct signers have
// vouched for a group message.
package filter

import (
	"sync"
	"time"
)

// TTLSet is a generic TTL-bounded set of comparable keys. Entries
// inserted via Insert are considered present until ttl elapses, after
// which a lookup (or the background sweep) evicts them.
type TTLSet[K comparable] struct {
	mu              sync.RWMutex
	ttl             time.Duration
	seen            map[K]time.Time
	cleanupInterval time.Duration
	stop            chan struct{}
	stopOnce        sync.Once
}

// NewTTLSet creates a TTLSet and starts its background cleanup sweep.
// Callers must call Close when the set is no longer needed to stop the
// sweep goroutine.
func NewTTLSet[K comparable](ttl, cleanupInterval time.Duration) *TTLSet[K] {
	s := &TTLSet[K]{
		ttl:             ttl,
		seen:            make(map[K]time.Time),
		cleanupInterval: cleanupInterval,
		stop:            make(chan struct{}),
	}
	go s.cleanupLoop()
	return s
}

// Contains reports whether key was inserted less than ttl ago.
func (s *TTLSet[K]) Contains(key K) bool {
	s.mu.RLock()
	ts, ok := s.seen[key]
	s.mu.RUnlock()
	if !ok {
		return false
	}
	if time.Since(ts) > s.ttl {
		s.mu.Lock()
		delete(s.seen, key)
		s.mu.Unlock()
		return false
	}
	return true
}

// Insert records key as seen now and reports whether it was already
// present (and unexpired) beforehand — the insert-returns-previous-
// presence shape used by the message/connection/group filters to
// decide "drop as duplicate" in one call.
func (s *TTLSet[K]) Insert(key K) (alreadyPresent bool) {
	alreadyPresent = s.Contains(key)
	s.mu.Lock()
	s.seen[key] = time.Now()
	s.mu.Unlock()
	return alreadyPresent
}

// Len returns the number of tracked (possibly expired-but-not-yet-
// swept) entries.
func (s *TTLSet[K]) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.seen)
}

// Close stops the background cleanup sweep. Safe to call more than once.
func (s *TTLSet[K]) Close() {
	s.stopOnce.Do(func() { close(s.stop) })
}

func (s *TTLSet[K]) cleanupLoop() {
	ticker := time.NewTicker(s.cleanupInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			s.sweep()
		case <-s.stop:
			return
		}
	}
}

func (s *TTLSet[K]) sweep() {
	s.mu.Lock()
	defer s.mu.Unlock()
	now := time.Now()
	for k, ts := range s.seen {
		if now.Sub(ts) > s.ttl {
			delete(s.seen, k)
		}
	}
}
