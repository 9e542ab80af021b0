package decision

// State tracks how far along the check sequence a verification got. Mostly
// useful in logs and audit entries when reading back why a request stopped.
type State string

const (
	StateReceived          State = "received"
	StateTokenResolved     State = "token_resolved"
	StateListChecked       State = "list_checked"
	StateAnonymizerChecked State = "anonymizer_checked"
	StateAltChecked        State = "alt_checked"
	StateAgeChecked        State = "age_checked"
	StateTerminal          State = "terminal"
)

// Outcome is the terminal classification of a verification attempt.
type Outcome string

const (
	OutcomeVerified Outcome = "verified"
	// OutcomePartialSuccess means the verification record committed but the
	// role grant failed. Never reported as full success or full failure.
	OutcomePartialSuccess Outcome = "partial_success"
	OutcomeRejected       Outcome = "rejected"
)

// RejectKind says which check terminated a rejected attempt.
type RejectKind string

const (
	RejectInvalidToken       RejectKind = "invalid_token"
	RejectMemberNotFound     RejectKind = "member_not_found"
	RejectDenylisted         RejectKind = "denylisted"
	RejectAnonymizerDetected RejectKind = "anonymizer_detected"
	RejectAltAccount         RejectKind = "alt_account"
	RejectAccountTooYoung    RejectKind = "account_too_young"
)

// Result is what the engine hands back to the transport layer.
type Result struct {
	Outcome    Outcome
	RejectKind RejectKind // set only when Outcome is OutcomeRejected
	State      State

	PrincipalID int64
	CommunityID int64
	Address     string

	// Detail is a human-readable note about the outcome, e.g. the reuse
	// summary on alt-account rejections.
	Detail string
}

// Rejected reports whether the attempt ended in any rejection.
func (r Result) Rejected() bool {
	return r.Outcome == OutcomeRejected
}

func rejected(kind RejectKind, state State) *Result {
	return &Result{Outcome: OutcomeRejected, RejectKind: kind, State: state}
}
