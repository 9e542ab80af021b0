// Package altaccount correlates verification history by network address to
// surface second accounts verifying from an address already tied to a
// different principal.
package altaccount

import (
	"context"
	"fmt"

	"gatekeeper/internal/record"
)

// evidenceCap bounds how many matching records a reuse report carries.
const evidenceCap = 5

// Service applies the reuse-count threshold over the verification history.
type Service struct {
	records   record.Store
	threshold int
}

// NewService builds a correlator. threshold is the number of distinct verified
// principals on an address that trips reuse detection; 1 means zero tolerance.
func NewService(records record.Store, threshold int) (*Service, error) {
	if records == nil {
		return nil, fmt.Errorf("record store is required")
	}
	if threshold < 1 {
		return nil, fmt.Errorf("threshold must be at least 1, got %d", threshold)
	}
	return &Service{records: records, threshold: threshold}, nil
}

// Result is the correlator verdict plus the evidence backing it.
type Result struct {
	Reused  bool
	Message string
	// Matches holds up to the 5 most recent records from other principals.
	Matches []record.Record
}

// FindReuse reports whether the address is already associated with enough
// distinct verified principals (other than the requesting one) to trip the
// threshold. Only status=verified rows count toward the threshold.
func (s *Service) FindReuse(ctx context.Context, address string, excludingPrincipalID int64) (Result, error) {
	others, err := s.records.ListByAddressExcluding(ctx, address, excludingPrincipalID, 0)
	if err != nil {
		return Result{}, fmt.Errorf("query verification history: %w", err)
	}

	distinct := make(map[int64]struct{})
	var matches []record.Record
	for _, r := range others {
		if r.Status != record.StatusVerified {
			continue
		}
		distinct[r.PrincipalID] = struct{}{}
		if len(matches) < evidenceCap {
			matches = append(matches, r)
		}
	}

	if len(distinct) < s.threshold {
		return Result{}, nil
	}
	return Result{
		Reused:  true,
		Message: fmt.Sprintf("address already verified by %d other account(s)", len(distinct)),
		Matches: matches,
	}, nil
}
