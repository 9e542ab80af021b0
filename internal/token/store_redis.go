package token

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"gatekeeper/pkg/platform/sentinel"
)

const (
	// Redis key prefix for pending verification tokens.
	pendingTokenKeyPrefix = "vt:pending:"
)

// RedisStore is a Redis-backed token store for deployments that share pending
// tokens across instances. GETDEL gives the same one-winner guarantee the
// PostgreSQL store gets from DELETE ... RETURNING.
type RedisStore struct {
	client *redis.Client
	ttl    time.Duration
}

// RedisStoreOption configures a RedisStore.
type RedisStoreOption func(*RedisStore)

// WithTTL bounds how long an unconsumed token stays resolvable. Zero keeps
// tokens until consumed.
func WithTTL(ttl time.Duration) RedisStoreOption {
	return func(s *RedisStore) {
		s.ttl = ttl
	}
}

// NewRedis constructs a Redis-backed token store.
func NewRedis(client *redis.Client, opts ...RedisStoreOption) *RedisStore {
	s := &RedisStore{client: client}
	for _, opt := range opts {
		if opt != nil {
			opt(s)
		}
	}
	return s
}

type redisToken struct {
	PrincipalID int64     `json:"principal_id"`
	CommunityID int64     `json:"community_id,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
}

func (s *RedisStore) Save(ctx context.Context, t Token) error {
	payload, err := json.Marshal(redisToken{
		PrincipalID: t.PrincipalID,
		CommunityID: t.CommunityID,
		CreatedAt:   t.CreatedAt,
	})
	if err != nil {
		return fmt.Errorf("marshal token: %w", err)
	}
	if err := s.client.Set(ctx, pendingTokenKeyPrefix+t.Token, payload, s.ttl).Err(); err != nil {
		return fmt.Errorf("save token: %w", err)
	}
	return nil
}

func (s *RedisStore) ResolveAndInvalidate(ctx context.Context, token string) (Token, error) {
	raw, err := s.client.GetDel(ctx, pendingTokenKeyPrefix+token).Result()
	if errors.Is(err, redis.Nil) {
		return Token{}, sentinel.ErrNotFound
	}
	if err != nil {
		return Token{}, fmt.Errorf("resolve token: %w", err)
	}

	var rt redisToken
	if err := json.Unmarshal([]byte(raw), &rt); err != nil {
		return Token{}, fmt.Errorf("unmarshal token: %w", err)
	}
	return Token{
		Token:       token,
		PrincipalID: rt.PrincipalID,
		CommunityID: rt.CommunityID,
		CreatedAt:   rt.CreatedAt,
	}, nil
}
