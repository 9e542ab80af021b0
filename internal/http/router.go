// Package httpapi assembles the public router. It stays a thin wiring layer:
// handlers own their routes via Register, middleware owns request metadata.
package httpapi

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	adminhandler "gatekeeper/internal/admin/handler"
	decisionhandler "gatekeeper/internal/decision/handler"
	adminmw "gatekeeper/pkg/platform/middleware/admin"
	"gatekeeper/pkg/platform/middleware/metadata"
	"gatekeeper/pkg/platform/middleware/requestid"
)

// Deps carries everything the router mounts.
type Deps struct {
	Verify *decisionhandler.Handler
	Admin  *adminhandler.Handler

	AdminSigningKey []byte
	Logger          *slog.Logger
}

// NewRouter wires all public endpoints: the verification page, the
// capability-gated admin surface, and the operational endpoints.
func NewRouter(deps Deps) http.Handler {
	r := chi.NewRouter()
	r.Use(requestid.RequestID)
	r.Use(metadata.ClientMetadata)

	deps.Verify.Register(r)

	r.Group(func(r chi.Router) {
		r.Use(adminmw.RequireAdministrator(deps.AdminSigningKey, deps.Logger))
		deps.Admin.Register(r)
	})

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	r.Handle("/metrics", promhttp.Handler())

	return r
}
