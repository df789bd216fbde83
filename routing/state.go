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

// Package routing is the single-owner cooperative engine that drives a
// participant through Disconnected -> Bootstrapping -> Client -> Node,
// relocates joining nodes onto network-chosen names, and forwards
// signed, authority-tagged messages hop by hop with close-group swarm
// semantics. All mutable state lives behind one goroutine (Engine.Run);
// nothing in this package takes a lock over routing state.
package routing

import (
	"github.com/adrianbrink/routing/internal/logger"
	"github.com/adrianbrink/routing/internal/metrics"
)

// State is a participant's position in the lifecycle state machine (§4.6).
type State int

const (
	Disconnected State = iota
	Bootstrapping
	Client
	Node
)

func (s State) String() string {
	switch s {
	case Disconnected:
		return "disconnected"
	case Bootstrapping:
		return "bootstrapping"
	case Client:
		return "client"
	case Node:
		return "node"
	default:
		return "unknown"
	}
}

// transitionTable enumerates every state change the engine may make.
// transitionTo refuses any attempt not present here: it logs a warning
// and returns false, leaving the state unchanged.
var transitionTable = map[State]map[State]bool{
	Disconnected: {Bootstrapping: true, Node: true},
	Bootstrapping: {Client: true, Disconnected: true, Node: true},
	Client:       {Node: true, Disconnected: true},
	Node:         {Disconnected: true},
}

// canTransition reports whether from->to is a legal move in the state
// machine of §4.6.
func canTransition(from, to State) bool {
	return transitionTable[from][to]
}

// transitionTo moves the engine's state, recording the transition for
// observability. Illegal transitions are refused (the caller keeps the
// prior state) rather than panicking, since a misrouted event should
// degrade gracefully, not crash the single dispatcher goroutine.
func (n *Engine) transitionTo(to State) bool {
	from := n.state
	if !canTransition(from, to) {
		n.log.Warn("rejected illegal state transition", logger.String("from", from.String()), logger.String("to", to.String()))
		return false
	}
	n.state = to
	metrics.StateTransitions.WithLabelValues(from.String(), to.String()).Inc()
	n.log.Info("state transition", logger.String("from", from.String()), logger.String("to", to.String()))
	return true
}
