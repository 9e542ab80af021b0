package record

import "time"

// Status is the terminal state a verification attempt reached.
type Status string

const (
	StatusVerified Status = "verified"
	StatusPending  Status = "pending"
	StatusRejected Status = "rejected"
)

// Record is one completed verification attempt. Rows are append-only and never
// mutated after insert; together they form the history the alt-account
// correlator queries.
type Record struct {
	ID               int64
	PrincipalID      int64
	CommunityID      int64
	Address          string
	AccountCreatedAt time.Time
	AnonymizerFlag   bool
	Status           Status
	CreatedAt        time.Time
}
