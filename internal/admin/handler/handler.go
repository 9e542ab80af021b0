// Package handler exposes the administrative JSON surface: directive upserts,
// address lookups and token minting on behalf of a member. Every route sits
// behind the administrator capability middleware.
package handler

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"gatekeeper/internal/iplist"
	"gatekeeper/internal/record"
	"gatekeeper/internal/token"
	"gatekeeper/pkg/platform/httputil"
	"gatekeeper/pkg/platform/sentinel"
	"gatekeeper/pkg/requestcontext"
)

// lookupHistoryCap bounds how many records an address lookup returns.
const lookupHistoryCap = 10

// DirectiveService manages allow/deny overrides.
type DirectiveService interface {
	SetDisposition(ctx context.Context, address string, disposition iplist.Disposition, reason string, addedBy int64) (iplist.Directive, error)
	Lookup(ctx context.Context, address string) (iplist.Directive, error)
}

// TokenIssuer mints verification tokens on behalf of a member.
type TokenIssuer interface {
	Issue(ctx context.Context, principalID, communityID int64) (token.Token, error)
}

// RecordReader exposes verification history for address lookups.
type RecordReader interface {
	ListByAddress(ctx context.Context, address string, limit int) ([]record.Record, error)
}

// Handler wires admin endpoints to the directive, token and record services.
type Handler struct {
	directives DirectiveService
	tokens     TokenIssuer
	records    RecordReader
	baseURL    string
	logger     *slog.Logger
}

func New(directives DirectiveService, tokens TokenIssuer, records RecordReader, baseURL string, logger *slog.Logger) *Handler {
	return &Handler{
		directives: directives,
		tokens:     tokens,
		records:    records,
		baseURL:    baseURL,
		logger:     logger,
	}
}

// Register mounts admin endpoints on the router. Callers are expected to have
// wrapped the router in the administrator capability middleware.
func (h *Handler) Register(r chi.Router) {
	r.Put("/admin/directives", h.HandleSetDirective)
	r.Get("/admin/addresses/{address}", h.HandleLookupAddress)
	r.Post("/admin/tokens", h.HandleIssueToken)
}

// HandleSetDirective handles PUT /admin/directives requests.
func (h *Handler) HandleSetDirective(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	req, ok := httputil.Decode[setDirectiveRequest](w, r)
	if !ok {
		return
	}
	if err := req.validate(); err != nil {
		httputil.WriteError(w, err)
		return
	}

	directive, err := h.directives.SetDisposition(ctx, req.Address,
		iplist.Disposition(req.Disposition), req.Reason, requestcontext.Actor(ctx))
	if err != nil {
		h.logger.ErrorContext(ctx, "directive upsert failed",
			"request_id", requestcontext.RequestID(ctx),
			"address", req.Address,
			"error", err.Error())
		httputil.WriteError(w, err)
		return
	}

	h.logger.InfoContext(ctx, "directive set",
		"request_id", requestcontext.RequestID(ctx),
		"address", directive.Address,
		"disposition", directive.Disposition,
		"added_by", directive.AddedBy)
	httputil.WriteJSON(w, http.StatusOK, newDirectiveResponse(directive))
}

// HandleLookupAddress handles GET /admin/addresses/{address} requests.
func (h *Handler) HandleLookupAddress(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	address := chi.URLParam(r, "address")

	canonical, err := iplist.Canonicalize(address)
	if err != nil {
		httputil.WriteError(w, httputil.NewError(http.StatusBadRequest, "invalid_address", "address must be an IPv4 or IPv6 literal"))
		return
	}

	resp := lookupResponse{Address: canonical, Disposition: "none"}
	directive, err := h.directives.Lookup(ctx, canonical)
	switch {
	case err == nil:
		resp.Disposition = string(directive.Disposition)
		resp.Reason = directive.Reason
		resp.AddedBy = directive.AddedBy
	case !errors.Is(err, sentinel.ErrNotFound):
		h.logger.ErrorContext(ctx, "directive lookup failed",
			"request_id", requestcontext.RequestID(ctx),
			"address", canonical,
			"error", err.Error())
		httputil.WriteError(w, err)
		return
	}

	history, err := h.records.ListByAddress(ctx, canonical, lookupHistoryCap)
	if err != nil {
		h.logger.ErrorContext(ctx, "history lookup failed",
			"request_id", requestcontext.RequestID(ctx),
			"address", canonical,
			"error", err.Error())
		httputil.WriteError(w, err)
		return
	}
	resp.Records = newRecordResponses(history)

	httputil.WriteJSON(w, http.StatusOK, resp)
}

// HandleIssueToken handles POST /admin/tokens requests.
func (h *Handler) HandleIssueToken(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	req, ok := httputil.Decode[issueTokenRequest](w, r)
	if !ok {
		return
	}
	if req.PrincipalID == 0 {
		httputil.WriteError(w, httputil.NewError(http.StatusBadRequest, "invalid_request", "principal_id is required"))
		return
	}

	minted, err := h.tokens.Issue(ctx, req.PrincipalID, req.CommunityID)
	if err != nil {
		h.logger.ErrorContext(ctx, "token issue failed",
			"request_id", requestcontext.RequestID(ctx),
			"principal_id", req.PrincipalID,
			"error", err.Error())
		httputil.WriteError(w, err)
		return
	}

	h.logger.InfoContext(ctx, "token issued",
		"request_id", requestcontext.RequestID(ctx),
		"principal_id", req.PrincipalID,
		"community_id", req.CommunityID,
		"issued_by", requestcontext.Actor(ctx))
	httputil.WriteJSON(w, http.StatusCreated, issueTokenResponse{
		Token: minted.Token,
		Link:  h.baseURL + "/verify?token=" + minted.Token,
	})
}
