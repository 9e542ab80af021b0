package sentinel

import "errors"

// Sentinel errors for infrastructure facts. Stores and infrastructure layers return
// these (optionally wrapped) so services can translate them into user-facing outcomes.
//
// These represent factual states about resources, not validation failures:
// - ErrNotFound: entity does not exist in store (token already consumed, no directive)
// - ErrUnavailable: backing store or collaborator temporarily unreachable
// - ErrNoSignal: an external signal source produced no usable answer
var (
	ErrNotFound    = errors.New("not found")
	ErrUnavailable = errors.New("unavailable")
	ErrNoSignal    = errors.New("no signal")
)
