package admin

import (
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/golang-jwt/jwt/v5"

	"gatekeeper/pkg/requestcontext"
)

// CapabilityAdministrator is the capability claim the chat collaborator mints
// for operators allowed to manage directives and mint tokens.
const CapabilityAdministrator = "administrator"

type claims struct {
	Capability string `json:"capability"`
	jwt.RegisteredClaims
}

// RequireAdministrator validates the HS256 service token minted by the chat
// collaborator and rejects requests lacking the administrator capability. The
// collaborator owns the capability decision; this middleware only verifies the
// signed assertion it issued.
func RequireAdministrator(signingKey []byte, logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()

			// No configured key means no valid token can exist.
			if len(signingKey) == 0 {
				unauthorized(w)
				return
			}

			raw := strings.TrimPrefix(r.Header.Get("Authorization"), "Bearer ")
			if raw == "" || raw == r.Header.Get("Authorization") {
				unauthorized(w)
				return
			}

			var c claims
			token, err := jwt.ParseWithClaims(raw, &c, func(t *jwt.Token) (any, error) {
				if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
					return nil, fmt.Errorf("unexpected signing method %q", t.Method.Alg())
				}
				return signingKey, nil
			})
			if err != nil || !token.Valid {
				logger.WarnContext(ctx, "admin token rejected",
					"request_id", requestcontext.RequestID(ctx),
					"error", err,
				)
				unauthorized(w)
				return
			}
			if c.Capability != CapabilityAdministrator {
				logger.WarnContext(ctx, "admin capability missing",
					"request_id", requestcontext.RequestID(ctx),
					"capability", c.Capability,
				)
				forbidden(w)
				return
			}

			if actor, err := strconv.ParseInt(c.Subject, 10, 64); err == nil {
				ctx = requestcontext.WithActor(ctx, actor)
			}
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func unauthorized(w http.ResponseWriter) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusUnauthorized)
	_, _ = w.Write([]byte(`{"error":"unauthorized","error_description":"administrator token required"}`))
}

func forbidden(w http.ResponseWriter) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusForbidden)
	_, _ = w.Write([]byte(`{"error":"forbidden","error_description":"administrator capability required"}`))
}
