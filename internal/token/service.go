package token

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"fmt"

	"gatekeeper/pkg/requestcontext"
)

// tokenBytes of entropy per token. 24 bytes is 192 bits, comfortably above the
// 128-bit floor, and base64url-encodes without padding.
const tokenBytes = 24

// Service issues and consumes verification tokens on top of a Store.
type Service struct {
	store Store
}

func NewService(store Store) (*Service, error) {
	if store == nil {
		return nil, fmt.Errorf("token store is required")
	}
	return &Service{store: store}, nil
}

// Issue mints a cryptographically random, URL-safe token for the principal and
// persists it as pending.
func (s *Service) Issue(ctx context.Context, principalID, communityID int64) (Token, error) {
	buf := make([]byte, tokenBytes)
	if _, err := rand.Read(buf); err != nil {
		return Token{}, fmt.Errorf("generate token: %w", err)
	}

	t := Token{
		Token:       base64.RawURLEncoding.EncodeToString(buf),
		PrincipalID: principalID,
		CommunityID: communityID,
		CreatedAt:   requestcontext.Now(ctx).UTC(),
	}
	if err := s.store.Save(ctx, t); err != nil {
		return Token{}, err
	}
	return t, nil
}

// ResolveAndInvalidate consumes the token. Unknown, already-consumed and
// never-issued tokens are indistinguishable: all surface sentinel.ErrNotFound.
func (s *Service) ResolveAndInvalidate(ctx context.Context, token string) (Token, error) {
	return s.store.ResolveAndInvalidate(ctx, token)
}
