package anonymizer

import (
	"bufio"
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"
)

// ExitRelayCache holds the set of known anonymizing-network egress addresses,
// refreshed lazily from the public relay list. Reads are served from the
// in-process set; a stale set triggers a refresh that never runs more than
// once at a time (singleflight) and never fails the caller: on fetch failure
// the stale set keeps serving.
type ExitRelayCache struct {
	url    string
	ttl    time.Duration
	client *http.Client
	logger *slog.Logger

	sf singleflight.Group

	mu        sync.RWMutex
	addrs     map[string]struct{}
	fetchedAt time.Time
}

// ExitRelayOption configures an ExitRelayCache.
type ExitRelayOption func(*ExitRelayCache)

// WithHTTPClient swaps the HTTP client, mainly for tests.
func WithHTTPClient(client *http.Client) ExitRelayOption {
	return func(c *ExitRelayCache) {
		c.client = client
	}
}

// NewExitRelayCache builds a cache over the relay list at url with the given
// staleness ttl.
func NewExitRelayCache(url string, ttl time.Duration, logger *slog.Logger, opts ...ExitRelayOption) *ExitRelayCache {
	c := &ExitRelayCache{
		url:    url,
		ttl:    ttl,
		client: &http.Client{Timeout: 10 * time.Second},
		logger: logger,
		addrs:  make(map[string]struct{}),
	}
	for _, opt := range opts {
		if opt != nil {
			opt(c)
		}
	}
	return c
}

// Contains reports whether the address is a known exit relay. A stale cache
// kicks off a refresh; callers that already have data are served the stale set
// immediately, only a cold cache blocks on the first fill.
func (c *ExitRelayCache) Contains(ctx context.Context, address string) (bool, error) {
	c.mu.RLock()
	stale := time.Since(c.fetchedAt) > c.ttl
	empty := len(c.addrs) == 0 && c.fetchedAt.IsZero()
	c.mu.RUnlock()

	if stale {
		// Detached from the caller: one slow request must not abort the
		// refresh every other caller is waiting on.
		ch := c.sf.DoChan("refresh", func() (any, error) {
			return nil, c.refresh(context.WithoutCancel(ctx))
		})
		if empty {
			select {
			case res := <-ch:
				if res.Err != nil {
					return false, fmt.Errorf("exit relay list unavailable: %w", res.Err)
				}
			case <-ctx.Done():
				return false, ctx.Err()
			}
		}
		// Stale-read during refresh is acceptable; fall through.
	}

	c.mu.RLock()
	defer c.mu.RUnlock()
	_, ok := c.addrs[address]
	return ok, nil
}

// refresh fetches and swaps in the current relay set. On failure the previous
// set stays in place and the failure is logged, never propagated to requests
// that already have data to serve.
func (c *ExitRelayCache) refresh(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.url, nil)
	if err != nil {
		return fmt.Errorf("build relay list request: %w", err)
	}
	resp, err := c.client.Do(req)
	if err != nil {
		c.logger.Warn("exit relay refresh failed, serving stale set", "error", err)
		return fmt.Errorf("fetch relay list: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		c.logger.Warn("exit relay refresh failed, serving stale set", "status", resp.StatusCode)
		return fmt.Errorf("fetch relay list: unexpected status %d", resp.StatusCode)
	}

	addrs := make(map[string]struct{})
	scanner := bufio.NewScanner(resp.Body)
	for scanner.Scan() {
		// Relay list format: "ExitAddress <ip> <timestamp>" lines among
		// other per-relay metadata.
		line := scanner.Text()
		if !strings.HasPrefix(line, "ExitAddress") {
			continue
		}
		fields := strings.Fields(line)
		if len(fields) >= 2 {
			addrs[fields[1]] = struct{}{}
		}
	}
	if err := scanner.Err(); err != nil {
		c.logger.Warn("exit relay refresh failed, serving stale set", "error", err)
		return fmt.Errorf("read relay list: %w", err)
	}

	c.mu.Lock()
	c.addrs = addrs
	c.fetchedAt = time.Now()
	c.mu.Unlock()

	c.logger.Info("exit relay set refreshed", "relays", len(addrs))
	return nil
}
