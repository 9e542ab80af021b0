package record

import "context"

// Store is the append-only verification history.
type Store interface {
	Append(ctx context.Context, r Record) error

	// ListByAddressExcluding returns records for the address whose principal
	// differs from excludePrincipalID, most recent first, capped at limit
	// (limit <= 0 means no cap).
	ListByAddressExcluding(ctx context.Context, address string, excludePrincipalID int64, limit int) ([]Record, error)

	// ListByAddress returns records for the address, most recent first,
	// capped at limit. Used by the admin lookup surface.
	ListByAddress(ctx context.Context, address string, limit int) ([]Record, error)
}
