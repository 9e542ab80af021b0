package decision_test

import (
	"context"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"gatekeeper/internal/altaccount"
	"gatekeeper/internal/anonymizer"
	"gatekeeper/internal/audit"
	"gatekeeper/internal/decision"
	"gatekeeper/internal/decision/ports"
	"gatekeeper/internal/iplist"
	"gatekeeper/internal/record"
	"gatekeeper/internal/token"
	"gatekeeper/pkg/requestcontext"
	"gatekeeper/pkg/testutil"
)

type staticDirectory struct {
	createdAt time.Time
}

func (d staticDirectory) FindMember(_ context.Context, principalID, communityID int64) (ports.Member, error) {
	return ports.Member{
		PrincipalID:      principalID,
		CommunityID:      communityID,
		DisplayName:      "marin",
		AccountCreatedAt: d.createdAt,
	}, nil
}

type countingRoles struct{ grants int }

func (r *countingRoles) GrantVerifiedRole(context.Context, int64, int64) error {
	r.grants++
	return nil
}

type quietDetector struct{}

func (quietDetector) Evaluate(context.Context, string) (bool, anonymizer.Evidence) {
	return false, anonymizer.Evidence{ReverseDNS: "mail.example.org"}
}

// TestVerificationFlow runs the whole engine over real services and stores,
// with only the platform collaborators stubbed out.
func TestVerificationFlow(t *testing.T) {
	logger := slog.New(slog.DiscardHandler)
	now := time.Date(2026, 7, 1, 9, 0, 0, 0, time.UTC)
	ctx := requestcontext.WithTime(context.Background(), now)

	tokens, err := token.NewService(token.NewInMemoryStore())
	require.NoError(t, err)
	directives, err := iplist.NewService(iplist.NewInMemoryStore())
	require.NoError(t, err)
	records := record.NewInMemoryStore()
	alts, err := altaccount.NewService(records, 1)
	require.NoError(t, err)
	audits := audit.NewInMemoryStore()
	auditor, err := audit.NewPublisher(audits, logger)
	require.NoError(t, err)
	roles := &countingRoles{}

	engine, err := decision.NewService(tokens, directives, quietDetector{}, alts, records,
		staticDirectory{createdAt: now.AddDate(0, 0, -400)}, roles, logger,
		decision.WithAuditor(auditor))
	require.NoError(t, err)

	var issued token.Token

	testutil.Given(t, "a token issued for principal 42 in community 7", func(t *testing.T) {
		issued, err = tokens.Issue(ctx, 42, 7)
		require.NoError(t, err)
		require.NotEmpty(t, issued.Token)
	})

	testutil.When(t, "the token is presented from an unremarkable address", func(t *testing.T) {
		result, err := engine.Verify(ctx, issued.Token, "203.0.113.5")
		require.NoError(t, err)
		assert.Equal(t, decision.OutcomeVerified, result.Outcome)
	})

	testutil.Then(t, "the attempt is recorded and the role granted once", func(t *testing.T) {
		history, err := records.ListByAddress(ctx, "203.0.113.5", 0)
		require.NoError(t, err)
		require.Len(t, history, 1)
		assert.Equal(t, record.StatusVerified, history[0].Status)
		assert.Equal(t, 1, roles.grants)
		assert.Empty(t, audits.Events())
	})

	testutil.Then(t, "replaying the same token fails closed", func(t *testing.T) {
		result, err := engine.Verify(ctx, issued.Token, "203.0.113.5")
		require.NoError(t, err)
		assert.Equal(t, decision.RejectInvalidToken, result.RejectKind)
		assert.Equal(t, 1, roles.grants, "no second grant")
	})

	testutil.Then(t, "a different principal on the same address is rejected as an alt", func(t *testing.T) {
		second, err := tokens.Issue(ctx, 43, 7)
		require.NoError(t, err)

		result, err := engine.Verify(ctx, second.Token, "203.0.113.5")
		require.NoError(t, err)
		assert.Equal(t, decision.RejectAltAccount, result.RejectKind)

		events := audits.Events()
		require.Len(t, events, 1)
		assert.Equal(t, "alt_account", events[0].Reason)
		assert.Equal(t, int64(43), events[0].PrincipalID)
	})
}
