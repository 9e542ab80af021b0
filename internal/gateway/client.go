// Package gateway adapts the chat-platform collaborator service to the
// decision engine's outbound ports. The platform owns identity and role
// truth; this package only speaks its webhook API.
package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"gatekeeper/internal/decision/ports"
	"gatekeeper/pkg/platform/sentinel"
)

const requestTimeout = 10 * time.Second

// Client implements the decision engine's gateway ports over the
// collaborator's HTTP API. All calls carry a bearer service token.
type Client struct {
	baseURL    string
	token      string
	httpClient *http.Client
}

type Option func(*Client)

// WithHTTPClient overrides the default client, mainly for tests.
func WithHTTPClient(c *http.Client) Option {
	return func(g *Client) { g.httpClient = c }
}

func NewClient(baseURL, token string, opts ...Option) (*Client, error) {
	if baseURL == "" {
		return nil, fmt.Errorf("base URL is required")
	}
	c := &Client{
		baseURL:    baseURL,
		token:      token,
		httpClient: &http.Client{Timeout: requestTimeout},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

type memberResponse struct {
	PrincipalID      int64     `json:"principal_id"`
	CommunityID      int64     `json:"community_id"`
	DisplayName      string    `json:"display_name"`
	AccountCreatedAt time.Time `json:"account_created_at"`
}

// FindMember resolves current membership. 404 from the platform means the
// principal left between token issue and resolve.
func (c *Client) FindMember(ctx context.Context, principalID, communityID int64) (ports.Member, error) {
	url := fmt.Sprintf("%s/communities/%d/members/%d", c.baseURL, communityID, principalID)

	var body memberResponse
	if err := c.do(ctx, http.MethodGet, url, nil, &body); err != nil {
		return ports.Member{}, err
	}
	return ports.Member{
		PrincipalID:      body.PrincipalID,
		CommunityID:      body.CommunityID,
		DisplayName:      body.DisplayName,
		AccountCreatedAt: body.AccountCreatedAt,
	}, nil
}

// GrantVerifiedRole asks the platform for the role grant. The platform side
// is idempotent, so retried grants are safe.
func (c *Client) GrantVerifiedRole(ctx context.Context, principalID, communityID int64) error {
	url := fmt.Sprintf("%s/communities/%d/members/%d/roles/verified", c.baseURL, communityID, principalID)
	return c.do(ctx, http.MethodPut, url, nil, nil)
}

type reuseReportRequest struct {
	PrincipalID       int64   `json:"principal_id"`
	CommunityID       int64   `json:"community_id"`
	Address           string  `json:"address"`
	Message           string  `json:"message"`
	MatchedPrincipals []int64 `json:"matched_principals"`
}

// ReportReuse files an alt-account moderation report.
func (c *Client) ReportReuse(ctx context.Context, report ports.ReuseReport) error {
	url := c.baseURL + "/moderation/reuse-reports"
	return c.do(ctx, http.MethodPost, url, reuseReportRequest{
		PrincipalID:       report.PrincipalID,
		CommunityID:       report.CommunityID,
		Address:           report.Address,
		Message:           report.Message,
		MatchedPrincipals: report.MatchedPrincipals,
	}, nil)
}

type profileResponse struct {
	DisplayName string `json:"display_name"`
	AvatarURL   string `json:"avatar_url"`
}

// ResolveProfile fetches the display identity used on result pages.
func (c *Client) ResolveProfile(ctx context.Context, principalID int64) (ports.Profile, error) {
	url := fmt.Sprintf("%s/principals/%d/profile", c.baseURL, principalID)

	var body profileResponse
	if err := c.do(ctx, http.MethodGet, url, nil, &body); err != nil {
		return ports.Profile{}, err
	}
	return ports.Profile{DisplayName: body.DisplayName, AvatarURL: body.AvatarURL}, nil
}

func (c *Client) do(ctx context.Context, method, url string, payload, out any) error {
	var body io.Reader
	if payload != nil {
		encoded, err := json.Marshal(payload)
		if err != nil {
			return fmt.Errorf("encoding gateway request: %w", err)
		}
		body = bytes.NewReader(encoded)
	}

	req, err := http.NewRequestWithContext(ctx, method, url, body)
	if err != nil {
		return fmt.Errorf("building gateway request: %w", err)
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("calling gateway: %w", err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return sentinel.ErrNotFound
	case resp.StatusCode >= 300:
		return fmt.Errorf("gateway returned status %d: %w", resp.StatusCode, sentinel.ErrUnavailable)
	}

	if out == nil {
		return nil
	}
	if err := json.NewDecoder(io.LimitReader(resp.Body, 1<<16)).Decode(out); err != nil {
		return fmt.Errorf("decoding gateway response: %w", err)
	}
	return nil
}
