// Package decision orchestrates the verification check sequence: token
// resolution, list overrides, anonymizer detection, alt-account correlation
// and the account-age policy, in that order, short-circuiting on the first
// terminal condition.
package decision

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"

	"gatekeeper/internal/altaccount"
	"gatekeeper/internal/anonymizer"
	"gatekeeper/internal/audit"
	"gatekeeper/internal/decision/metrics"
	"gatekeeper/internal/decision/ports"
	"gatekeeper/internal/iplist"
	"gatekeeper/internal/record"
	"gatekeeper/internal/token"
	"gatekeeper/pkg/platform/sentinel"
	"gatekeeper/pkg/requestcontext"
)

var tracer = otel.Tracer("gatekeeper/internal/decision")

// TokenResolver consumes a single-use verification token.
type TokenResolver interface {
	ResolveAndInvalidate(ctx context.Context, tok string) (token.Token, error)
}

// DirectiveSource answers allow/deny lookups for an address.
type DirectiveSource interface {
	Disposition(ctx context.Context, address string) (iplist.Disposition, error)
}

// AnonymizerDetector produces the proxy/VPN verdict for an address.
type AnonymizerDetector interface {
	Evaluate(ctx context.Context, address string) (bool, anonymizer.Evidence)
}

// ReuseFinder checks the address against prior verifications by other
// principals.
type ReuseFinder interface {
	FindReuse(ctx context.Context, address string, excludingPrincipalID int64) (altaccount.Result, error)
}

// Service runs the verification state machine. Each call is an independent
// unit of work; all steps are read-only until the final record commit.
type Service struct {
	tokens     TokenResolver
	directives DirectiveSource
	detector   AnonymizerDetector
	alts       ReuseFinder
	records    record.Store
	directory  ports.MemberDirectory
	roles      ports.RoleGranter

	moderator ports.Moderator
	auditor   ports.AuditPort
	metrics   *metrics.Metrics

	minAccountAgeDays int
	logger            *slog.Logger
}

type Option func(*Service)

// WithModerator enables the best-effort alt-account moderation side effect.
func WithModerator(m ports.Moderator) Option {
	return func(s *Service) { s.moderator = m }
}

// WithAuditor enables audit emission for rejected outcomes.
func WithAuditor(a ports.AuditPort) Option {
	return func(s *Service) { s.auditor = a }
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Service) { s.metrics = m }
}

// WithMinAccountAge overrides the default 180-day minimum account age.
func WithMinAccountAge(days int) Option {
	return func(s *Service) { s.minAccountAgeDays = days }
}

func NewService(
	tokens TokenResolver,
	directives DirectiveSource,
	detector AnonymizerDetector,
	alts ReuseFinder,
	records record.Store,
	directory ports.MemberDirectory,
	roles ports.RoleGranter,
	logger *slog.Logger,
	opts ...Option,
) (*Service, error) {
	if tokens == nil {
		return nil, fmt.Errorf("token resolver is required")
	}
	if directives == nil {
		return nil, fmt.Errorf("directive source is required")
	}
	if detector == nil {
		return nil, fmt.Errorf("anonymizer detector is required")
	}
	if alts == nil {
		return nil, fmt.Errorf("reuse finder is required")
	}
	if records == nil {
		return nil, fmt.Errorf("record store is required")
	}
	if directory == nil {
		return nil, fmt.Errorf("member directory is required")
	}
	if roles == nil {
		return nil, fmt.Errorf("role granter is required")
	}
	if logger == nil {
		return nil, fmt.Errorf("logger is required")
	}

	s := &Service{
		tokens:            tokens,
		directives:        directives,
		detector:          detector,
		alts:              alts,
		records:           records,
		directory:         directory,
		roles:             roles,
		minAccountAgeDays: 180,
		logger:            logger,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// Verify runs the full check sequence for a token presented from address.
// Policy rejections come back as a Result; only storage failures on the token
// or record tables return an error.
func (s *Service) Verify(ctx context.Context, rawToken, address string) (*Result, error) {
	ctx, span := tracer.Start(ctx, "decision.Verify")
	defer span.End()

	started := time.Now()
	result, err := s.verify(ctx, rawToken, address)
	s.metrics.ObserveEvaluateLatency(time.Since(started))
	if err != nil {
		return nil, err
	}

	s.metrics.IncrementOutcome(string(result.Outcome), string(result.RejectKind))
	span.SetAttributes(
		attribute.String("outcome", string(result.Outcome)),
		attribute.String("reject_kind", string(result.RejectKind)),
	)
	s.logger.InfoContext(ctx, "verification decided",
		"outcome", result.Outcome,
		"reject_kind", result.RejectKind,
		"principal_id", result.PrincipalID,
		"request_id", requestcontext.RequestID(ctx))
	return result, nil
}

func (s *Service) verify(ctx context.Context, rawToken, address string) (*Result, error) {
	tok, err := s.tokens.ResolveAndInvalidate(ctx, rawToken)
	if errors.Is(err, sentinel.ErrNotFound) {
		return rejected(RejectInvalidToken, StateReceived), nil
	}
	if err != nil {
		return nil, fmt.Errorf("resolving token: %w", err)
	}

	member, err := s.directory.FindMember(ctx, tok.PrincipalID, tok.CommunityID)
	if errors.Is(err, sentinel.ErrNotFound) {
		r := rejected(RejectMemberNotFound, StateTokenResolved)
		r.PrincipalID = tok.PrincipalID
		r.CommunityID = tok.CommunityID
		return r, nil
	}
	if err != nil {
		return nil, fmt.Errorf("resolving member: %w", err)
	}

	result := &Result{
		PrincipalID: member.PrincipalID,
		CommunityID: member.CommunityID,
		Address:     address,
		State:       StateTokenResolved,
	}

	disposition, err := s.directives.Disposition(ctx, address)
	if err != nil {
		return nil, fmt.Errorf("looking up address directive: %w", err)
	}
	result.State = StateListChecked
	if disposition == iplist.DispositionDeny {
		result.Outcome = OutcomeRejected
		result.RejectKind = RejectDenylisted
		return result, nil
	}

	var flagged bool
	var evidence anonymizer.Evidence
	if disposition != iplist.DispositionAllow {
		flagged, evidence = s.detector.Evaluate(ctx, address)
		result.State = StateAnonymizerChecked
		if flagged {
			result.Outcome = OutcomeRejected
			result.RejectKind = RejectAnonymizerDetected
			result.Detail = evidence.String()
			s.recordRejection(ctx, tok, member, address, flagged, RejectAnonymizerDetected, evidence.String())
			return result, nil
		}
	}

	reuse, err := s.alts.FindReuse(ctx, address, member.PrincipalID)
	if err != nil {
		return nil, fmt.Errorf("correlating verification history: %w", err)
	}
	result.State = StateAltChecked
	if reuse.Reused {
		result.Outcome = OutcomeRejected
		result.RejectKind = RejectAltAccount
		result.Detail = reuse.Message
		s.recordRejection(ctx, tok, member, address, flagged, RejectAltAccount,
			encodeEvidence(reuseEvidence{
				Message:           reuse.Message,
				MatchedPrincipals: matchedPrincipals(reuse.Matches),
			}))
		s.requestModeration(ctx, member, address, reuse)
		return result, nil
	}

	age := AccountAgeDays(member.AccountCreatedAt, requestcontext.Now(ctx))
	result.State = StateAgeChecked
	if !MeetsMinimumAge(age, s.minAccountAgeDays) {
		result.Outcome = OutcomeRejected
		result.RejectKind = RejectAccountTooYoung
		result.Detail = fmt.Sprintf("account is %d day(s) old, minimum is %d", age, s.minAccountAgeDays)
		s.recordRejection(ctx, tok, member, address, flagged, RejectAccountTooYoung,
			encodeEvidence(ageEvidence{AgeDays: age, MinDays: s.minAccountAgeDays}))
		return result, nil
	}

	if err := s.records.Append(ctx, record.Record{
		PrincipalID:      member.PrincipalID,
		CommunityID:      member.CommunityID,
		Address:          address,
		AccountCreatedAt: member.AccountCreatedAt,
		AnonymizerFlag:   flagged,
		Status:           record.StatusVerified,
		CreatedAt:        requestcontext.Now(ctx).UTC(),
	}); err != nil {
		return nil, fmt.Errorf("appending verification record: %w", err)
	}
	result.State = StateTerminal

	// The record is committed; the grant must be attempted even if the
	// caller has already disconnected.
	if err := s.roles.GrantVerifiedRole(context.WithoutCancel(ctx), member.PrincipalID, member.CommunityID); err != nil {
		s.logger.WarnContext(ctx, "role grant failed after record commit",
			"principal_id", member.PrincipalID,
			"community_id", member.CommunityID,
			"error", err.Error())
		result.Outcome = OutcomePartialSuccess
		return result, nil
	}

	result.Outcome = OutcomeVerified
	return result, nil
}

// recordRejection appends the rejected attempt to the history and emits the
// audit entry. Both are side effects of an already-made decision: failures
// are logged, never escalated, and both run to completion on disconnect.
func (s *Service) recordRejection(ctx context.Context, tok token.Token, member ports.Member, address string, flagged bool, kind RejectKind, evidence string) {
	ctx = context.WithoutCancel(ctx)

	if err := s.records.Append(ctx, record.Record{
		PrincipalID:      member.PrincipalID,
		CommunityID:      member.CommunityID,
		Address:          address,
		AccountCreatedAt: member.AccountCreatedAt,
		AnonymizerFlag:   flagged,
		Status:           record.StatusRejected,
		CreatedAt:        requestcontext.Now(ctx).UTC(),
	}); err != nil {
		s.logger.WarnContext(ctx, "recording rejected attempt failed",
			"principal_id", member.PrincipalID,
			"error", err.Error())
	}

	if s.auditor == nil {
		return
	}
	if err := s.auditor.Emit(ctx, audit.Event{
		Reason:      string(kind),
		PrincipalID: member.PrincipalID,
		CommunityID: member.CommunityID,
		Address:     address,
		UserAgent:   requestcontext.UserAgent(ctx),
		Token:       tok.Token,
		Outcome:     string(OutcomeRejected),
		Evidence:    evidence,
	}); err != nil {
		s.logger.WarnContext(ctx, "audit emit failed",
			"reason", string(kind),
			"error", err.Error())
	}
}

func (s *Service) requestModeration(ctx context.Context, member ports.Member, address string, reuse altaccount.Result) {
	if s.moderator == nil {
		return
	}

	report := ports.ReuseReport{
		PrincipalID:       member.PrincipalID,
		CommunityID:       member.CommunityID,
		Address:           address,
		Message:           reuse.Message,
		MatchedPrincipals: matchedPrincipals(reuse.Matches),
	}
	if err := s.moderator.ReportReuse(context.WithoutCancel(ctx), report); err != nil {
		s.logger.WarnContext(ctx, "moderation request failed",
			"principal_id", member.PrincipalID,
			"error", err.Error())
	}
}

// Audit evidence payloads. audit_events.evidence is a jsonb column, so every
// evidence string handed to the auditor must be valid JSON.
type reuseEvidence struct {
	Message           string  `json:"message"`
	MatchedPrincipals []int64 `json:"matched_principals,omitempty"`
}

type ageEvidence struct {
	AgeDays int `json:"age_days"`
	MinDays int `json:"min_days"`
}

func encodeEvidence(v any) string {
	out, err := json.Marshal(v)
	if err != nil {
		return "{}"
	}
	return string(out)
}

func matchedPrincipals(matches []record.Record) []int64 {
	out := make([]int64, 0, len(matches))
	for _, m := range matches {
		out = append(out, m.PrincipalID)
	}
	return out
}
