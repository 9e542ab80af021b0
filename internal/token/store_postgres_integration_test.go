//go:build integration

package token_test

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"gatekeeper/internal/token"
	"gatekeeper/pkg/platform/sentinel"
	"gatekeeper/pkg/testutil/containers"
)

type PostgresStoreSuite struct {
	suite.Suite
	postgres *containers.PostgresContainer
	store    *token.PostgresStore
}

func TestPostgresStoreSuite(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	suite.Run(t, new(PostgresStoreSuite))
}

func (s *PostgresStoreSuite) SetupSuite() {
	s.postgres = containers.NewPostgresContainer(s.T())
	s.store = token.NewPostgres(s.postgres.DB)
}

func (s *PostgresStoreSuite) SetupTest() {
	s.Require().NoError(s.postgres.TruncateTables(context.Background(), "verification_tokens"))
}

func (s *PostgresStoreSuite) TestRoundtrip() {
	ctx := context.Background()

	saved := token.Token{
		Token:       "tok-roundtrip",
		PrincipalID: 42,
		CommunityID: 7,
		CreatedAt:   time.Now().UTC().Truncate(time.Microsecond),
	}
	s.Require().NoError(s.store.Save(ctx, saved))

	got, err := s.store.ResolveAndInvalidate(ctx, "tok-roundtrip")
	s.Require().NoError(err)
	s.Equal(saved.PrincipalID, got.PrincipalID)
	s.Equal(saved.CommunityID, got.CommunityID)

	_, err = s.store.ResolveAndInvalidate(ctx, "tok-roundtrip")
	s.ErrorIs(err, sentinel.ErrNotFound)
}

// TestConcurrentResolve verifies the single-use property against a real
// database: DELETE ... RETURNING lets exactly one of N racing resolvers win.
func (s *PostgresStoreSuite) TestConcurrentResolve() {
	ctx := context.Background()
	const resolvers = 32

	s.Require().NoError(s.store.Save(ctx, token.Token{
		Token:       "tok-race",
		PrincipalID: 42,
		CreatedAt:   time.Now().UTC(),
	}))

	var wg sync.WaitGroup
	var wins, misses atomic.Int32
	for i := 0; i < resolvers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := s.store.ResolveAndInvalidate(ctx, "tok-race")
			switch {
			case err == nil:
				wins.Add(1)
			case errors.Is(err, sentinel.ErrNotFound):
				misses.Add(1)
			}
		}()
	}
	wg.Wait()

	s.Equal(int32(1), wins.Load())
	s.Equal(int32(resolvers-1), misses.Load())
}

func (s *PostgresStoreSuite) TestZeroCommunityStoredAsNull() {
	ctx := context.Background()

	s.Require().NoError(s.store.Save(ctx, token.Token{
		Token:       "tok-nocommunity",
		PrincipalID: 42,
		CreatedAt:   time.Now().UTC(),
	}))

	got, err := s.store.ResolveAndInvalidate(ctx, "tok-nocommunity")
	s.Require().NoError(err)
	s.Zero(got.CommunityID)
}
