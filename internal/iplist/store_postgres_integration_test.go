//go:build integration

package iplist_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"gatekeeper/internal/iplist"
	"gatekeeper/pkg/platform/sentinel"
	"gatekeeper/pkg/testutil/containers"
)

type PostgresStoreSuite struct {
	suite.Suite
	postgres *containers.PostgresContainer
	store    *iplist.PostgresStore
}

func TestPostgresStoreSuite(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	suite.Run(t, new(PostgresStoreSuite))
}

func (s *PostgresStoreSuite) SetupSuite() {
	s.postgres = containers.NewPostgresContainer(s.T())
	s.store = iplist.NewPostgres(s.postgres.DB)
}

func (s *PostgresStoreSuite) SetupTest() {
	s.Require().NoError(s.postgres.TruncateTables(context.Background(), "address_directives"))
}

func (s *PostgresStoreSuite) TestUpsertReplacesPriorDirective() {
	ctx := context.Background()

	s.Require().NoError(s.store.Upsert(ctx, iplist.Directive{
		Address:     "203.0.113.9",
		Disposition: iplist.DispositionDeny,
		Reason:      "ban evasion",
		AddedBy:     9001,
		AddedAt:     time.Now().UTC(),
	}))
	s.Require().NoError(s.store.Upsert(ctx, iplist.Directive{
		Address:     "203.0.113.9",
		Disposition: iplist.DispositionAllow,
		Reason:      "appeal accepted",
		AddedBy:     9002,
		AddedAt:     time.Now().UTC(),
	}))

	got, err := s.store.Find(ctx, "203.0.113.9")
	s.Require().NoError(err)
	s.Equal(iplist.DispositionAllow, got.Disposition)
	s.Equal("appeal accepted", got.Reason)
	s.Equal(int64(9002), got.AddedBy)

	var count int
	s.Require().NoError(s.postgres.DB.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM address_directives WHERE address = $1", "203.0.113.9").Scan(&count))
	s.Equal(1, count, "exactly one directive row per address")
}

func (s *PostgresStoreSuite) TestFindUnknownAddress() {
	_, err := s.store.Find(context.Background(), "198.51.100.1")
	s.ErrorIs(err, sentinel.ErrNotFound)
}
