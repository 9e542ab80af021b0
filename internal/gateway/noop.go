package gateway

import (
	"context"
	"fmt"
	"log/slog"

	"gatekeeper/internal/decision/ports"
)

// LoggingGateway is a stand-in collaborator for local development and tests:
// members always exist with a fixed creation date, grants and reports only
// log. Never wire it in production.
type LoggingGateway struct {
	logger *slog.Logger
	member ports.Member
}

func NewLoggingGateway(logger *slog.Logger, member ports.Member) *LoggingGateway {
	return &LoggingGateway{logger: logger, member: member}
}

func (g *LoggingGateway) FindMember(_ context.Context, principalID, communityID int64) (ports.Member, error) {
	m := g.member
	m.PrincipalID = principalID
	m.CommunityID = communityID
	return m, nil
}

func (g *LoggingGateway) GrantVerifiedRole(ctx context.Context, principalID, communityID int64) error {
	g.logger.InfoContext(ctx, "role grant requested",
		"principal_id", principalID, "community_id", communityID)
	return nil
}

func (g *LoggingGateway) ReportReuse(ctx context.Context, report ports.ReuseReport) error {
	g.logger.InfoContext(ctx, "reuse report filed",
		"principal_id", report.PrincipalID, "address", report.Address)
	return nil
}

func (g *LoggingGateway) ResolveProfile(_ context.Context, principalID int64) (ports.Profile, error) {
	return ports.Profile{DisplayName: fmt.Sprintf("member-%d", principalID)}, nil
}
