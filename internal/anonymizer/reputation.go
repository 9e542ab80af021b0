package anonymizer

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

// Reputation block classifications returned by the third-party API.
const (
	BlockResidential = 0
	BlockDefinite    = 1
	BlockProbable    = 2
)

// Reputation is the third-party verdict for an address plus the raw response
// kept as evidence.
type Reputation struct {
	Block int
	Raw   json.RawMessage
}

// ReputationClient wraps the IPHub-style reputation API. A nil client on the
// detector disables this signal entirely.
type ReputationClient struct {
	baseURL string
	key     string
	client  *http.Client
}

// NewReputationClient builds a client for the API at baseURL authenticated
// with key.
func NewReputationClient(baseURL, key string) *ReputationClient {
	return &ReputationClient{
		baseURL: baseURL,
		key:     key,
		client:  &http.Client{Timeout: 10 * time.Second},
	}
}

// Check queries the reputation of an address.
func (c *ReputationClient) Check(ctx context.Context, address string) (Reputation, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/"+address, nil)
	if err != nil {
		return Reputation{}, fmt.Errorf("build reputation request: %w", err)
	}
	req.Header.Set("X-Key", c.key)

	resp, err := c.client.Do(req)
	if err != nil {
		return Reputation{}, fmt.Errorf("query reputation api: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return Reputation{}, fmt.Errorf("reputation api status %d", resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<16))
	if err != nil {
		return Reputation{}, fmt.Errorf("read reputation response: %w", err)
	}

	var payload struct {
		Block int `json:"block"`
	}
	if err := json.Unmarshal(body, &payload); err != nil {
		return Reputation{}, fmt.Errorf("decode reputation response: %w", err)
	}
	return Reputation{Block: payload.Block, Raw: body}, nil
}
