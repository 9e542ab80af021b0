package iplist

import "time"

// Disposition classifies a network address override.
type Disposition string

const (
	// DispositionNone means no directive exists for the address.
	DispositionNone Disposition = ""
	// DispositionAllow skips the anonymizer detector for the address.
	DispositionAllow Disposition = "allow"
	// DispositionDeny rejects the address before any other check runs.
	DispositionDeny Disposition = "deny"
)

// Directive is an explicit per-address override set by an administrator.
// At most one directive is active per address; the latest write wins.
type Directive struct {
	Address     string
	Disposition Disposition
	Reason      string
	AddedBy     int64
	AddedAt     time.Time
}
