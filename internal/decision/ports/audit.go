package ports

import (
	"context"

	"gatekeeper/internal/audit"
)

// AuditPort emits audit events. It matches audit.Publisher but is defined
// here to keep the decision engine decoupled from the audit wiring.
type AuditPort interface {
	Emit(ctx context.Context, event audit.Event) error
}
