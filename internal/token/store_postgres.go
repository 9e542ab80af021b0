package token

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"gatekeeper/pkg/platform/sentinel"
)

// PostgresStore persists pending tokens in PostgreSQL. This is the reference
// durable store: tokens outlive process restarts.
type PostgresStore struct {
	db *sql.DB
}

// NewPostgres constructs a PostgreSQL-backed token store.
func NewPostgres(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

func (s *PostgresStore) Save(ctx context.Context, t Token) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO verification_tokens (token, principal_id, community_id, created_at)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (token) DO NOTHING`,
		t.Token, t.PrincipalID, nullInt64(t.CommunityID), t.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("save token: %w", err)
	}
	return nil
}

// ResolveAndInvalidate deletes the row and returns it in a single statement.
// DELETE ... RETURNING makes the race safe: concurrent callers on the same
// token contend on the row lock and only one delete returns it.
func (s *PostgresStore) ResolveAndInvalidate(ctx context.Context, token string) (Token, error) {
	row := s.db.QueryRowContext(ctx, `
		DELETE FROM verification_tokens
		WHERE token = $1
		RETURNING token, principal_id, community_id, created_at`,
		token,
	)

	var t Token
	var communityID sql.NullInt64
	if err := row.Scan(&t.Token, &t.PrincipalID, &communityID, &t.CreatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Token{}, sentinel.ErrNotFound
		}
		return Token{}, fmt.Errorf("resolve token: %w", err)
	}
	if communityID.Valid {
		t.CommunityID = communityID.Int64
	}
	return t, nil
}

func nullInt64(v int64) sql.NullInt64 {
	if v == 0 {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: v, Valid: true}
}
