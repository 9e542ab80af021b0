package iplist

import (
	"context"
	"errors"
	"fmt"
	"net/netip"

	"gatekeeper/pkg/platform/sentinel"
	"gatekeeper/pkg/requestcontext"
)

// Service answers disposition lookups and applies administrative overrides.
// Addresses are normalized to a canonical string before any comparison so
// "203.0.113.005" and "203.0.113.5" hit the same directive.
type Service struct {
	store Store
}

func NewService(store Store) (*Service, error) {
	if store == nil {
		return nil, fmt.Errorf("directive store is required")
	}
	return &Service{store: store}, nil
}

// Canonicalize parses an IPv4/IPv6 literal and renders its canonical form.
func Canonicalize(address string) (string, error) {
	addr, err := netip.ParseAddr(address)
	if err != nil {
		return "", fmt.Errorf("parse address %q: %w", address, err)
	}
	// 4-in-6 addresses compare equal to their IPv4 form.
	return addr.Unmap().String(), nil
}

// Disposition returns the active override for the address, or DispositionNone.
func (s *Service) Disposition(ctx context.Context, address string) (Disposition, error) {
	canonical, err := Canonicalize(address)
	if err != nil {
		return DispositionNone, err
	}
	d, err := s.store.Find(ctx, canonical)
	if errors.Is(err, sentinel.ErrNotFound) {
		return DispositionNone, nil
	}
	if err != nil {
		return DispositionNone, err
	}
	return d.Disposition, nil
}

// SetDisposition upserts the directive for the address, replacing any prior
// one. The latest write wins.
func (s *Service) SetDisposition(ctx context.Context, address string, disposition Disposition, reason string, addedBy int64) (Directive, error) {
	if disposition != DispositionAllow && disposition != DispositionDeny {
		return Directive{}, fmt.Errorf("disposition must be allow or deny, got %q", disposition)
	}
	canonical, err := Canonicalize(address)
	if err != nil {
		return Directive{}, err
	}

	d := Directive{
		Address:     canonical,
		Disposition: disposition,
		Reason:      reason,
		AddedBy:     addedBy,
		AddedAt:     requestcontext.Now(ctx).UTC(),
	}
	if err := s.store.Upsert(ctx, d); err != nil {
		return Directive{}, err
	}
	return d, nil
}

// Lookup returns the full directive for admin inspection, or ErrNotFound.
func (s *Service) Lookup(ctx context.Context, address string) (Directive, error) {
	canonical, err := Canonicalize(address)
	if err != nil {
		return Directive{}, err
	}
	return s.store.Find(ctx, canonical)
}
