package iplist

import "context"

// Store persists address directives. Upsert replaces any prior directive for
// the address; no directive history is kept here (the audit trail lives with
// the audit collaborator).
type Store interface {
	Upsert(ctx context.Context, d Directive) error

	// Find returns the active directive for the canonical address, or
	// sentinel.ErrNotFound when none exists.
	Find(ctx context.Context, address string) (Directive, error)
}
