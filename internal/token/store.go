package token

import "context"

// Store persists pending verification tokens. Implementations must make
// ResolveAndInvalidate atomic: when N callers race on the same token, exactly
// one observes the token and the rest get sentinel.ErrNotFound.
type Store interface {
	Save(ctx context.Context, t Token) error

	// ResolveAndInvalidate looks up and deletes the token as one logical
	// operation so no token ever resolves twice.
	ResolveAndInvalidate(ctx context.Context, token string) (Token, error)
}
