package anonymizer

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

const relayListBody = `ExitNode ABCD
Published 2026-08-01 00:00:00
ExitAddress 198.51.100.1 2026-08-01 00:05:00
ExitNode EF01
ExitAddress 198.51.100.2 2026-08-01 00:06:00
`

func TestExitRelayCache_Membership(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(relayListBody))
	}))
	defer srv.Close()

	cache := NewExitRelayCache(srv.URL, time.Hour, discard())

	hit, err := cache.Contains(context.Background(), "198.51.100.1")
	require.NoError(t, err)
	require.True(t, hit)

	hit, err = cache.Contains(context.Background(), "203.0.113.5")
	require.NoError(t, err)
	require.False(t, hit)
}

func TestExitRelayCache_ServesStaleOnRefreshFailure(t *testing.T) {
	var failing atomic.Bool
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		if failing.Load() {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		_, _ = w.Write([]byte(relayListBody))
	}))
	defer srv.Close()

	// TTL of zero: every read sees a stale cache and attempts a refresh.
	cache := NewExitRelayCache(srv.URL, 0, discard())

	hit, err := cache.Contains(context.Background(), "198.51.100.1")
	require.NoError(t, err)
	require.True(t, hit, "initial fill")

	failing.Store(true)
	// Give the failed singleflight round time to settle so the next call
	// issues its own refresh attempt rather than piggybacking.
	time.Sleep(50 * time.Millisecond)

	hit, err = cache.Contains(context.Background(), "198.51.100.1")
	require.NoError(t, err, "refresh failure must not fail the read")
	require.True(t, hit, "stale set keeps serving")
}

func TestExitRelayCache_ColdCacheFailureIsAnError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	cache := NewExitRelayCache(srv.URL, time.Hour, discard())

	_, err := cache.Contains(context.Background(), "198.51.100.1")
	require.Error(t, err, "nothing to serve and refresh failed")
}

func TestExitRelayCache_RefreshDoesNotOverlap(t *testing.T) {
	var fetches atomic.Int64
	release := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		fetches.Add(1)
		<-release
		_, _ = w.Write([]byte(relayListBody))
	}))
	defer srv.Close()

	cache := NewExitRelayCache(srv.URL, time.Hour, discard())

	const readers = 8
	var wg sync.WaitGroup
	for i := 0; i < readers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, _ = cache.Contains(context.Background(), "198.51.100.1")
		}()
	}

	// Let all readers pile onto the cold cache before releasing the fetch.
	time.Sleep(100 * time.Millisecond)
	close(release)
	wg.Wait()

	require.EqualValues(t, 1, fetches.Load(), "concurrent refreshes must collapse into one fetch")
}
