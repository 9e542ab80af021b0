// Package handler serves the public verification page. It is the only
// HTML-speaking surface; everything admin-facing is JSON.
package handler

import (
	"context"
	"embed"
	"html/template"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"gatekeeper/internal/decision"
	"gatekeeper/internal/decision/ports"
	"gatekeeper/internal/iplist"
	"gatekeeper/pkg/requestcontext"
)

//go:embed templates/*.html.tmpl
var templateFS embed.FS

// placeholderName is shown when the profile lookup degrades.
const placeholderName = "there"

// Service runs a verification attempt to a terminal outcome.
type Service interface {
	Verify(ctx context.Context, rawToken, address string) (*decision.Result, error)
}

// Handler renders the spinner-then-result verification page.
type Handler struct {
	service   Service
	profiles  ports.ProfileResolver
	logger    *slog.Logger
	templates *template.Template
}

func New(service Service, profiles ports.ProfileResolver, logger *slog.Logger) (*Handler, error) {
	templates, err := template.ParseFS(templateFS, "templates/*.html.tmpl")
	if err != nil {
		return nil, err
	}
	return &Handler{
		service:   service,
		profiles:  profiles,
		logger:    logger,
		templates: templates,
	}, nil
}

// Register mounts the verification endpoint on the router.
func (h *Handler) Register(r chi.Router) {
	r.Get("/verify", h.HandleVerify)
}

type page struct {
	Title       string
	Heading     string
	Message     string
	DisplayName string
	AvatarURL   string
	Succeeded   bool
}

// HandleVerify handles GET /verify?token=... requests.
func (h *Handler) HandleVerify(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	rawToken := r.URL.Query().Get("token")
	if rawToken == "" {
		h.render(ctx, w, http.StatusBadRequest, page{
			Title:   "Verification",
			Heading: "Missing token",
			Message: "This link is incomplete. Request a fresh verification link and try again.",
		})
		return
	}

	address, err := iplist.Canonicalize(requestcontext.ClientIP(ctx))
	if err != nil {
		h.logger.WarnContext(ctx, "unparseable client address",
			"request_id", requestcontext.RequestID(ctx),
			"error", err.Error())
		h.render(ctx, w, http.StatusBadRequest, page{
			Title:   "Verification",
			Heading: "Something looks off",
			Message: "We could not read your connection details. Try again from a regular browser.",
		})
		return
	}

	result, err := h.service.Verify(ctx, rawToken, address)
	if err != nil {
		h.logger.ErrorContext(ctx, "verification failed",
			"request_id", requestcontext.RequestID(ctx),
			"error", err.Error())
		h.render(ctx, w, http.StatusInternalServerError, page{
			Title:   "Verification",
			Heading: "Temporary problem",
			Message: "We could not complete your verification right now. Please try again in a few minutes.",
		})
		return
	}

	h.render(ctx, w, statusFor(result), h.pageFor(ctx, result))
}

func statusFor(result *decision.Result) int {
	switch result.Outcome {
	case decision.OutcomeVerified, decision.OutcomePartialSuccess:
		return http.StatusOK
	}
	if result.RejectKind == decision.RejectInvalidToken {
		return http.StatusNotFound
	}
	return http.StatusForbidden
}

func (h *Handler) pageFor(ctx context.Context, result *decision.Result) page {
	switch result.Outcome {
	case decision.OutcomeVerified:
		p := page{
			Title:     "Verified",
			Heading:   "You are verified",
			Message:   "Your access role has been granted. Welcome aboard!",
			Succeeded: true,
		}
		h.personalize(ctx, &p, result.PrincipalID)
		return p
	case decision.OutcomePartialSuccess:
		p := page{
			Title:     "Almost there",
			Heading:   "Verified, role pending",
			Message:   "Your verification succeeded, but granting your role hit a snag. A moderator will finish the last step shortly.",
			Succeeded: true,
		}
		h.personalize(ctx, &p, result.PrincipalID)
		return p
	}

	switch result.RejectKind {
	case decision.RejectInvalidToken:
		return page{
			Title:   "Link expired",
			Heading: "This link is no longer valid",
			Message: "Verification links work exactly once. Request a fresh one and try again.",
		}
	case decision.RejectMemberNotFound:
		return page{
			Title:   "Not a member",
			Heading: "We could not find your membership",
			Message: "It looks like you left the community after requesting this link. Rejoin and request a new one.",
		}
	case decision.RejectDenylisted, decision.RejectAnonymizerDetected:
		return page{
			Title:   "Verification declined",
			Heading: "Connection not accepted",
			Message: "Your network connection cannot be used for verification. Disable any VPN or proxy and try again from your usual connection.",
		}
	case decision.RejectAltAccount:
		return page{
			Title:   "Verification declined",
			Heading: "Address already in use",
			Message: "This connection is already tied to another verified account. Contact the moderators if you believe this is a mistake.",
		}
	case decision.RejectAccountTooYoung:
		return page{
			Title:   "Verification declined",
			Heading: "Account too new",
			Message: "Your account does not meet the minimum age requirement yet. Come back once it has matured.",
		}
	}
	return page{
		Title:   "Verification declined",
		Heading: "Verification declined",
		Message: "Your verification could not be completed.",
	}
}

func (h *Handler) personalize(ctx context.Context, p *page, principalID int64) {
	p.DisplayName = placeholderName
	if h.profiles == nil {
		return
	}
	profile, err := h.profiles.ResolveProfile(ctx, principalID)
	if err != nil {
		h.logger.WarnContext(ctx, "profile lookup degraded to placeholder",
			"principal_id", principalID,
			"error", err.Error())
		return
	}
	if profile.DisplayName != "" {
		p.DisplayName = profile.DisplayName
	}
	p.AvatarURL = profile.AvatarURL
}

func (h *Handler) render(ctx context.Context, w http.ResponseWriter, status int, p page) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	if err := h.templates.ExecuteTemplate(w, "result.html.tmpl", p); err != nil {
		h.logger.ErrorContext(ctx, "rendering verification page failed", "error", err.Error())
	}
}
