package iplist

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"gatekeeper/pkg/platform/sentinel"
)

// PostgresStore persists address directives in PostgreSQL.
type PostgresStore struct {
	db *sql.DB
}

// NewPostgres constructs a PostgreSQL-backed directive store.
func NewPostgres(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

func (s *PostgresStore) Upsert(ctx context.Context, d Directive) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO address_directives (address, disposition, reason, added_by, added_at)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (address) DO UPDATE SET
			disposition = EXCLUDED.disposition,
			reason      = EXCLUDED.reason,
			added_by    = EXCLUDED.added_by,
			added_at    = EXCLUDED.added_at`,
		d.Address, string(d.Disposition), d.Reason, d.AddedBy, d.AddedAt,
	)
	if err != nil {
		return fmt.Errorf("upsert directive: %w", err)
	}
	return nil
}

func (s *PostgresStore) Find(ctx context.Context, address string) (Directive, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT address, disposition, reason, added_by, added_at
		FROM address_directives
		WHERE address = $1`,
		address,
	)

	var d Directive
	var disposition string
	if err := row.Scan(&d.Address, &disposition, &d.Reason, &d.AddedBy, &d.AddedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Directive{}, sentinel.ErrNotFound
		}
		return Directive{}, fmt.Errorf("find directive: %w", err)
	}
	d.Disposition = Disposition(disposition)
	return d, nil
}
