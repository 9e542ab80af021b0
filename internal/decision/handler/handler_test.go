package handler

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"gatekeeper/internal/decision"
	"gatekeeper/internal/decision/ports"
	"gatekeeper/pkg/platform/middleware/metadata"
)

type fakeService struct {
	result  *decision.Result
	err     error
	token   string
	address string
}

func (f *fakeService) Verify(_ context.Context, rawToken, address string) (*decision.Result, error) {
	f.token, f.address = rawToken, address
	return f.result, f.err
}

type fakeProfiles struct {
	profile ports.Profile
	err     error
}

func (f *fakeProfiles) ResolveProfile(context.Context, int64) (ports.Profile, error) {
	return f.profile, f.err
}

func serve(t *testing.T, svc Service, profiles ports.ProfileResolver, target, remoteAddr string) *httptest.ResponseRecorder {
	t.Helper()
	h, err := New(svc, profiles, slog.New(slog.DiscardHandler))
	require.NoError(t, err)

	r := chi.NewRouter()
	r.Use(metadata.ClientMetadata)
	h.Register(r)

	req := httptest.NewRequest(http.MethodGet, target, nil)
	req.RemoteAddr = remoteAddr
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	return rec
}

func TestHandleVerify(t *testing.T) {
	t.Run("missing token renders 400", func(t *testing.T) {
		svc := &fakeService{}
		rec := serve(t, svc, nil, "/verify", "203.0.113.5:4123")

		assert.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Contains(t, rec.Body.String(), "Missing token")
		assert.Empty(t, svc.token, "engine is not consulted without a token")
	})

	t.Run("verified renders 200 with profile name", func(t *testing.T) {
		svc := &fakeService{result: &decision.Result{Outcome: decision.OutcomeVerified, PrincipalID: 42}}
		profiles := &fakeProfiles{profile: ports.Profile{DisplayName: "marin", AvatarURL: "https://cdn.example.org/a.png"}}
		rec := serve(t, svc, profiles, "/verify?token=tok-abc", "203.0.113.5:4123")

		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Contains(t, rec.Body.String(), "You are verified")
		assert.Contains(t, rec.Body.String(), "marin")
		assert.Contains(t, rec.Body.String(), "cdn.example.org")
		assert.Equal(t, "tok-abc", svc.token)
		assert.Equal(t, "203.0.113.5", svc.address, "port stripped, address canonical")
	})

	t.Run("profile failure degrades to placeholder", func(t *testing.T) {
		svc := &fakeService{result: &decision.Result{Outcome: decision.OutcomeVerified, PrincipalID: 42}}
		profiles := &fakeProfiles{err: errors.New("gateway down")}
		rec := serve(t, svc, profiles, "/verify?token=tok-abc", "203.0.113.5:4123")

		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Contains(t, rec.Body.String(), "Hi there,")
	})

	t.Run("partial success still renders a success page", func(t *testing.T) {
		svc := &fakeService{result: &decision.Result{Outcome: decision.OutcomePartialSuccess, PrincipalID: 42}}
		rec := serve(t, svc, nil, "/verify?token=tok-abc", "203.0.113.5:4123")

		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Contains(t, rec.Body.String(), "role pending")
	})

	t.Run("invalid token renders 404", func(t *testing.T) {
		svc := &fakeService{result: &decision.Result{
			Outcome:    decision.OutcomeRejected,
			RejectKind: decision.RejectInvalidToken,
		}}
		rec := serve(t, svc, nil, "/verify?token=used", "203.0.113.5:4123")

		assert.Equal(t, http.StatusNotFound, rec.Code)
		assert.Contains(t, rec.Body.String(), "no longer valid")
	})

	t.Run("policy rejections render 403", func(t *testing.T) {
		for _, kind := range []decision.RejectKind{
			decision.RejectMemberNotFound,
			decision.RejectDenylisted,
			decision.RejectAnonymizerDetected,
			decision.RejectAltAccount,
			decision.RejectAccountTooYoung,
		} {
			svc := &fakeService{result: &decision.Result{
				Outcome:    decision.OutcomeRejected,
				RejectKind: kind,
			}}
			rec := serve(t, svc, nil, "/verify?token=tok-abc", "203.0.113.5:4123")
			assert.Equal(t, http.StatusForbidden, rec.Code, "kind %s", kind)
		}
	})

	t.Run("engine error renders 500", func(t *testing.T) {
		svc := &fakeService{err: errors.New("postgres down")}
		rec := serve(t, svc, nil, "/verify?token=tok-abc", "203.0.113.5:4123")

		assert.Equal(t, http.StatusInternalServerError, rec.Code)
		assert.Contains(t, rec.Body.String(), "Temporary problem")
	})

	t.Run("forwarded client address reaches the engine", func(t *testing.T) {
		svc := &fakeService{result: &decision.Result{Outcome: decision.OutcomeVerified}}
		h, err := New(svc, nil, slog.New(slog.DiscardHandler))
		require.NoError(t, err)

		r := chi.NewRouter()
		r.Use(metadata.ClientMetadata)
		h.Register(r)

		req := httptest.NewRequest(http.MethodGet, "/verify?token=tok-abc", nil)
		req.RemoteAddr = "10.0.0.1:9999"
		req.Header.Set("X-Forwarded-For", "198.51.100.7, 10.0.0.1")
		rec := httptest.NewRecorder()
		r.ServeHTTP(rec, req)

		assert.Equal(t, "198.51.100.7", svc.address)
	})
}
