package record

import (
	"context"
	"database/sql"
	"fmt"
	"time"
)

// PostgresStore persists verification history in PostgreSQL.
type PostgresStore struct {
	db *sql.DB
}

// NewPostgres constructs a PostgreSQL-backed record store.
func NewPostgres(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

func (s *PostgresStore) Append(ctx context.Context, r Record) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO verification_records
			(principal_id, community_id, address, account_created_at, anonymizer_flag, status, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		r.PrincipalID, nullInt64(r.CommunityID), r.Address,
		nullTime(r.AccountCreatedAt), r.AnonymizerFlag, string(r.Status), r.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("append verification record: %w", err)
	}
	return nil
}

func (s *PostgresStore) ListByAddressExcluding(ctx context.Context, address string, excludePrincipalID int64, limit int) ([]Record, error) {
	return s.list(ctx, `
		SELECT id, principal_id, community_id, address, account_created_at, anonymizer_flag, status, created_at
		FROM verification_records
		WHERE address = $1 AND principal_id <> $2
		ORDER BY created_at DESC
		LIMIT $3`,
		address, excludePrincipalID, capOrAll(limit))
}

func (s *PostgresStore) ListByAddress(ctx context.Context, address string, limit int) ([]Record, error) {
	return s.list(ctx, `
		SELECT id, principal_id, community_id, address, account_created_at, anonymizer_flag, status, created_at
		FROM verification_records
		WHERE address = $1
		ORDER BY created_at DESC
		LIMIT $2`,
		address, capOrAll(limit))
}

func (s *PostgresStore) list(ctx context.Context, query string, args ...any) ([]Record, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list verification records: %w", err)
	}
	defer rows.Close()

	var out []Record
	for rows.Next() {
		var r Record
		var communityID sql.NullInt64
		var accountCreatedAt sql.NullTime
		var status string
		if err := rows.Scan(&r.ID, &r.PrincipalID, &communityID, &r.Address,
			&accountCreatedAt, &r.AnonymizerFlag, &status, &r.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan verification record: %w", err)
		}
		if communityID.Valid {
			r.CommunityID = communityID.Int64
		}
		if accountCreatedAt.Valid {
			r.AccountCreatedAt = accountCreatedAt.Time
		}
		r.Status = Status(status)
		out = append(out, r)
	}
	return out, rows.Err()
}

func capOrAll(limit int) int64 {
	if limit <= 0 {
		// Effectively uncapped; keeps the query shape stable.
		return 1 << 31
	}
	return int64(limit)
}

func nullInt64(v int64) sql.NullInt64 {
	if v == 0 {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: v, Valid: true}
}

func nullTime(t time.Time) sql.NullTime {
	if t.IsZero() {
		return sql.NullTime{}
	}
	return sql.NullTime{Time: t, Valid: true}
}
