package routing

import "errors"

// Errors returned by Engine's user-facing and internal operations (§7).
var (
	ErrNotConnected      = errors.New("routing: not connected to a proxy")
	ErrNoRoute           = errors.New("routing: no route to destination")
	ErrRoutingTableEmpty = errors.New("routing: routing table is empty")
	ErrBadAuthority      = errors.New("routing: no handler for this (content, src, dst) triple")
	ErrRejectedPublicId  = errors.New("routing: a relocated identity is already cached for this name")
	ErrAsymmetricDecryptionFailure = errors.New("routing: endpoint decryption failed")
	ErrDirectionCheckFailed        = errors.New("routing: message did not travel closer to its destination")
	ErrUnknownHopSigner            = errors.New("routing: no known public key for this hop's sender")
)
