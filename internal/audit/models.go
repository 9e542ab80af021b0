package audit

import (
	"time"

	"github.com/google/uuid"
)

// Event is emitted from the decision engine to capture why a verification
// ended the way it did. Keep it transport-agnostic so stores and sinks can
// fan out.
type Event struct {
	ID          uuid.UUID `json:"id"`
	Timestamp   time.Time `json:"timestamp"`
	Reason      string    `json:"reason"`
	PrincipalID int64     `json:"principal_id"`
	CommunityID int64     `json:"community_id,omitempty"`
	Address     string    `json:"address,omitempty"`
	UserAgent   string    `json:"user_agent,omitempty"`
	Token       string    `json:"token,omitempty"`
	Outcome     string    `json:"outcome,omitempty"`
	// Evidence carries the structured detector or correlator observations,
	// already serialized.
	Evidence string `json:"evidence,omitempty"`
}
