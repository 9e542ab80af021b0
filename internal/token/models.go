package token

import "time"

// Token is a single-use verification token tying an opaque secret to the
// principal (and optionally the community) it was issued for. CommunityID of
// zero means the token was minted outside any community context.
type Token struct {
	Token       string
	PrincipalID int64
	CommunityID int64
	CreatedAt   time.Time
}
