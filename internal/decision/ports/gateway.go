// Package ports defines the outbound collaborator boundaries of the decision
// engine. The chat platform owns identity and role truth; the engine only
// requests effects through these interfaces.
package ports

import (
	"context"
	"time"
)

// Member is the platform's view of a principal inside a community.
type Member struct {
	PrincipalID      int64
	CommunityID      int64
	DisplayName      string
	AccountCreatedAt time.Time
}

// MemberDirectory resolves current community membership. Returns
// sentinel.ErrNotFound when the principal is no longer a member.
type MemberDirectory interface {
	FindMember(ctx context.Context, principalID, communityID int64) (Member, error)
}

// RoleGranter asks the platform to grant the verified role. The grant is
// idempotent on the platform side; callers may safely retry.
type RoleGranter interface {
	GrantVerifiedRole(ctx context.Context, principalID, communityID int64) error
}

// ReuseReport is what moderation receives when an address trips the
// alt-account threshold.
type ReuseReport struct {
	PrincipalID       int64
	CommunityID       int64
	Address           string
	Message           string
	MatchedPrincipals []int64
}

// Moderator notifies moderation of address reuse and optionally removes the
// newly joining principal. Best-effort: failures are logged, never escalated.
type Moderator interface {
	ReportReuse(ctx context.Context, report ReuseReport) error
}

// Profile is the display identity used to personalize result pages.
type Profile struct {
	DisplayName string
	AvatarURL   string
}

// ProfileResolver fetches a principal's display profile. Failure degrades to
// a placeholder and never blocks a decision.
type ProfileResolver interface {
	ResolveProfile(ctx context.Context, principalID int64) (Profile, error)
}
