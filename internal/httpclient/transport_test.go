package httpclient

import (
	"bytes"
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/nagyyasser2/eshop-client-sub000/internal/domain"
	"github.com/nagyyasser2/eshop-client-sub000/internal/events"
	"github.com/nagyyasser2/eshop-client-sub000/internal/storage"
	"github.com/nagyyasser2/eshop-client-sub000/internal/token"
)

func signToken(t *testing.T, expIn time.Duration) string {
	t.Helper()
	tok := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub": "u1",
		"exp": time.Now().Add(expIn).Unix(),
	})
	signed, err := tok.SignedString([]byte("test-secret"))
	require.NoError(t, err)
	return signed
}

// gateRefresher serves a fixed pair, optionally holding the exchange open
// until released so tests can widen the concurrency window
// deterministically.
type gateRefresher struct {
	calls atomic.Int64
	pair  domain.TokenPair
	gate  chan struct{}
}

func (g *gateRefresher) Refresh(ctx context.Context, pair domain.TokenPair) (domain.TokenPair, error) {
	g.calls.Add(1)
	if g.gate != nil {
		<-g.gate
	}
	return g.pair, nil
}

func setup(t *testing.T, refresher token.Refresher) (*token.Manager, *events.Bus, *http.Client) {
	t.Helper()
	store := storage.NewMemStore()
	bus := events.NewBus()
	tokens := token.NewManager(store, bus, refresher, zap.NewNop())
	client := &http.Client{Transport: NewTransport(nil, tokens, bus, zap.NewNop())}
	return tokens, bus, client
}

func TestConcurrent401sShareOneRefresh(t *testing.T) {
	const requests = 16

	oldAccess := signToken(t, 10*time.Minute)
	newAccess := signToken(t, time.Hour)

	var unauthorized atomic.Int64
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "Bearer "+newAccess {
			unauthorized.Add(1)
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	refresher := &gateRefresher{
		pair: domain.TokenPair{AccessToken: newAccess, RefreshToken: "new-r"},
		gate: make(chan struct{}),
	}
	tokens, _, client := setup(t, refresher)
	tokens.SetPair(domain.TokenPair{AccessToken: oldAccess, RefreshToken: "old-r"})

	// Hold the refresh open until every request has been rejected once,
	// so all of them land on the same in-flight refresh.
	go func() {
		for unauthorized.Load() < requests {
			time.Sleep(time.Millisecond)
		}
		// Let the last rejected callers join the in-flight refresh.
		time.Sleep(100 * time.Millisecond)
		close(refresher.gate)
	}()

	var wg sync.WaitGroup
	statuses := make([]int, requests)
	errs := make([]error, requests)
	for i := 0; i < requests; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			resp, err := client.Get(server.URL + "/data")
			if err != nil {
				errs[i] = err
				return
			}
			defer resp.Body.Close()
			statuses[i] = resp.StatusCode
		}(i)
	}
	wg.Wait()

	assert.Equal(t, int64(1), refresher.calls.Load(), "exactly one refresh round trip system-wide")
	for i := 0; i < requests; i++ {
		require.NoError(t, errs[i])
		assert.Equal(t, http.StatusOK, statuses[i], "request %d should succeed with the refreshed token", i)
	}
}

func TestRetryHappensExactlyOnce(t *testing.T) {
	// A backend that keeps rejecting even the fresh token must not cause
	// a refresh loop: the second 401 comes back to the caller.
	var hits atomic.Int64
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer server.Close()

	refresher := &gateRefresher{pair: domain.TokenPair{
		AccessToken:  signToken(t, time.Hour),
		RefreshToken: "new-r",
	}}
	tokens, _, client := setup(t, refresher)
	tokens.SetPair(domain.TokenPair{AccessToken: signToken(t, 10*time.Minute), RefreshToken: "old-r"})

	resp, err := client.Get(server.URL + "/data")
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	assert.Equal(t, int64(1), refresher.calls.Load())
	assert.Equal(t, int64(2), hits.Load(), "original request plus one retry")
}

func TestProactiveRefreshBeforeExpiry(t *testing.T) {
	newAccess := signToken(t, time.Hour)

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer "+newAccess, r.Header.Get("Authorization"),
			"near-expiry token should be refreshed before the request goes out")
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	refresher := &gateRefresher{pair: domain.TokenPair{AccessToken: newAccess, RefreshToken: "new-r"}}
	tokens, _, client := setup(t, refresher)
	// 100s out: not expired (30s buffer) but inside the 2m window.
	tokens.SetPair(domain.TokenPair{AccessToken: signToken(t, 100*time.Second), RefreshToken: "old-r"})

	resp, err := client.Get(server.URL + "/data")
	require.NoError(t, err)
	resp.Body.Close()

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, int64(1), refresher.calls.Load())
}

func TestNoTokenSendsUnauthenticated(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Empty(t, r.Header.Get("Authorization"))
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	refresher := &gateRefresher{}
	_, _, client := setup(t, refresher)

	resp, err := client.Get(server.URL + "/public")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Zero(t, refresher.calls.Load())
}

func TestRefreshFailurePropagatesAndSignals(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer server.Close()

	store := storage.NewMemStore()
	bus := events.NewBus()
	tokens := token.NewManager(store, bus, failingRefresher{}, zap.NewNop())
	tokens.SetPair(domain.TokenPair{AccessToken: signToken(t, 10*time.Minute), RefreshToken: "old-r"})
	client := &http.Client{Transport: NewTransport(nil, tokens, bus, zap.NewNop())}

	expired := make(chan struct{}, 1)
	defer bus.Subscribe(events.SessionExpired, func() { expired <- struct{}{} })()

	_, err := client.Get(server.URL + "/data")
	require.Error(t, err)
	assert.False(t, tokens.Pair().Complete())

	select {
	case <-expired:
	default:
		t.Fatal("expected session expired signal")
	}
}

type failingRefresher struct{}

func (failingRefresher) Refresh(ctx context.Context, pair domain.TokenPair) (domain.TokenPair, error) {
	return domain.TokenPair{}, assert.AnError
}

func TestTransportFailurePublishesAPIDown(t *testing.T) {
	// A server that is immediately closed yields connection errors: no
	// response at all, which must surface as the api-down signal and must
	// not enter the refresh path.
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	url := server.URL
	server.Close()

	refresher := &gateRefresher{}
	_, bus, client := setup(t, refresher)

	down := make(chan struct{}, 1)
	defer bus.Subscribe(events.APIDown, func() { down <- struct{}{} })()

	_, err := client.Get(url + "/data")
	require.Error(t, err)
	assert.Zero(t, refresher.calls.Load())

	select {
	case <-down:
	default:
		t.Fatal("expected api down signal")
	}
}

func TestRetryReplaysRequestBody(t *testing.T) {
	newAccess := signToken(t, time.Hour)

	var bodies []string
	var mu sync.Mutex
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		data, _ := io.ReadAll(r.Body)
		mu.Lock()
		bodies = append(bodies, string(data))
		mu.Unlock()
		if r.Header.Get("Authorization") != "Bearer "+newAccess {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		w.WriteHeader(http.StatusCreated)
	}))
	defer server.Close()

	refresher := &gateRefresher{pair: domain.TokenPair{AccessToken: newAccess, RefreshToken: "new-r"}}
	tokens, _, client := setup(t, refresher)
	tokens.SetPair(domain.TokenPair{AccessToken: signToken(t, 10*time.Minute), RefreshToken: "old-r"})

	resp, err := client.Post(server.URL+"/orders", "application/json",
		bytes.NewReader([]byte(`{"productId":7}`)))
	require.NoError(t, err)
	resp.Body.Close()

	assert.Equal(t, http.StatusCreated, resp.StatusCode)
	mu.Lock()
	defer mu.Unlock()
	require.Len(t, bodies, 2)
	assert.Equal(t, bodies[0], bodies[1], "retried request must carry the original body")
	assert.True(t, strings.Contains(bodies[1], "productId"))
}
