// Package anonymizer decides whether a network address looks like an
// anonymization service egress: exit relay, VPN, proxy or hosting box.
//
// Signals are evaluated in a fixed order and the first positive one wins.
// Every sub-check failure degrades to "no signal" and evaluation continues;
// detector failure is never mistaken for a verdict.
package anonymizer

import (
	"context"
	"log/slog"
	"strings"
	"time"
)

// ExitRelaySource answers exit-relay membership for an address.
type ExitRelaySource interface {
	Contains(ctx context.Context, address string) (bool, error)
}

// ReverseResolver resolves an address to its host names. *net.Resolver
// satisfies this.
type ReverseResolver interface {
	LookupAddr(ctx context.Context, addr string) ([]string, error)
}

// OrgResolver resolves an address to its owning network organization.
type OrgResolver interface {
	Org(address string) (ASNInfo, error)
}

// ReputationSource queries a third-party reputation verdict.
type ReputationSource interface {
	Check(ctx context.Context, address string) (Reputation, error)
}

// Detector combines the four signal sources into one boolean-plus-evidence
// verdict. Optional sources (org, reputation) are nil when unconfigured and
// simply skipped.
type Detector struct {
	relays     ExitRelaySource
	resolver   ReverseResolver
	org        OrgResolver
	reputation ReputationSource
	logger     *slog.Logger
}

// DetectorOption configures optional detector signal sources.
type DetectorOption func(*Detector)

// WithOrgResolver enables the network-owner reputation signal.
func WithOrgResolver(org OrgResolver) DetectorOption {
	return func(d *Detector) {
		d.org = org
	}
}

// WithReputation enables the third-party reputation signal.
func WithReputation(rep ReputationSource) DetectorOption {
	return func(d *Detector) {
		d.reputation = rep
	}
}

// NewDetector builds a detector over the mandatory relay and reverse-DNS
// sources.
func NewDetector(relays ExitRelaySource, resolver ReverseResolver, logger *slog.Logger, opts ...DetectorOption) *Detector {
	d := &Detector{
		relays:   relays,
		resolver: resolver,
		logger:   logger,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(d)
		}
	}
	return d
}

// Evaluate runs the signal chain for the address. The returned evidence is
// empty exactly when nothing was observed; a false verdict with empty
// evidence also covers the all-signals-errored case (fail-open).
func (d *Detector) Evaluate(ctx context.Context, address string) (bool, Evidence) {
	start := time.Now()
	defer func() {
		evaluateDuration.Observe(time.Since(start).Seconds())
	}()

	var ev Evidence
	attempted, failed := 0, 0

	// 1. Exit-relay membership.
	attempted++
	if hit, err := d.relays.Contains(ctx, address); err != nil {
		failed++
		signalErrors.WithLabelValues("exit_relay").Inc()
		d.logger.DebugContext(ctx, "exit relay check unavailable", "address", address, "error", err)
	} else if hit {
		signalHits.WithLabelValues("exit_relay").Inc()
		ev.Checks = append(ev.Checks, "exit_relay")
		return true, ev
	}

	// 2. Reverse-name heuristic.
	attempted++
	if names, err := d.resolver.LookupAddr(ctx, address); err != nil {
		failed++
		signalErrors.WithLabelValues("rdns").Inc()
		d.logger.DebugContext(ctx, "reverse lookup unavailable", "address", address, "error", err)
	} else if len(names) > 0 {
		host := strings.ToLower(strings.TrimSuffix(names[0], "."))
		ev.ReverseDNS = host
		if kw := matchKeyword(host); kw != "" {
			signalHits.WithLabelValues("rdns").Inc()
			ev.Checks = append(ev.Checks, "rdns_match:"+kw)
			return true, ev
		}
	}

	// 3. Network-owner reputation, when a local database is available.
	if d.org != nil {
		attempted++
		if info, err := d.org.Org(address); err != nil {
			failed++
			signalErrors.WithLabelValues("asn_org").Inc()
			d.logger.DebugContext(ctx, "asn lookup unavailable", "address", address, "error", err)
		} else {
			ev.ASN = info.Number
			ev.ASNOrg = info.Organization
			if kw := matchKeyword(strings.ToLower(info.Organization)); kw != "" {
				signalHits.WithLabelValues("asn_org").Inc()
				ev.Checks = append(ev.Checks, "asn_org_match:"+kw)
				return true, ev
			}
		}
	}

	// 4. Third-party reputation API, when a credential is configured.
	if d.reputation != nil {
		attempted++
		if rep, err := d.reputation.Check(ctx, address); err != nil {
			failed++
			signalErrors.WithLabelValues("reputation").Inc()
			d.logger.WarnContext(ctx, "reputation api unavailable", "address", address, "error", err)
		} else {
			ev.Reputation = rep.Raw
			switch rep.Block {
			case BlockDefinite:
				signalHits.WithLabelValues("reputation").Inc()
				ev.Checks = append(ev.Checks, "reputation_block")
				return true, ev
			case BlockProbable:
				signalHits.WithLabelValues("reputation").Inc()
				ev.Checks = append(ev.Checks, "reputation_warn")
				return true, ev
			}
		}
	}

	if attempted > 0 && failed == attempted {
		d.logger.WarnContext(ctx, "all anonymizer signals unavailable, failing open", "address", address)
		return false, Evidence{}
	}
	return false, ev
}
