// Package httpclient provides the authenticating HTTP transport: it injects
// bearer credentials, refreshes near-expiry tokens before requests go out,
// and recovers from 401 responses with a single coordinated refresh and one
// retry of the original request.
package httpclient

import (
	"context"
	"io"
	"net/http"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/metric"
	"go.uber.org/zap"

	"github.com/nagyyasser2/eshop-client-sub000/internal/events"
	"github.com/nagyyasser2/eshop-client-sub000/internal/token"
)

type ctxKey int

// retriedKey marks a logical request that has already been retried once
// after a 401, preventing refresh loops: a second 401 after a successful
// refresh is a hard failure.
const retriedKey ctxKey = iota

func markRetried(ctx context.Context) context.Context {
	return context.WithValue(ctx, retriedKey, true)
}

func wasRetried(ctx context.Context) bool {
	v, _ := ctx.Value(retriedKey).(bool)
	return v
}

// Transport implements http.RoundTripper around a base transport.
type Transport struct {
	base   http.RoundTripper
	tokens *token.Manager
	bus    *events.Bus
	logger *zap.Logger

	requests       metric.Int64Counter
	retries        metric.Int64Counter
	transportFails metric.Int64Counter
}

var _ http.RoundTripper = (*Transport)(nil)

// NewTransport creates an authenticating transport. A nil base falls back
// to http.DefaultTransport.
func NewTransport(base http.RoundTripper, tokens *token.Manager, bus *events.Bus, logger *zap.Logger) *Transport {
	if base == nil {
		base = http.DefaultTransport
	}

	meter := otel.Meter("eshop-client/httpclient")
	requests, err := meter.Int64Counter("http_client_requests_total",
		metric.WithDescription("Outbound API requests"))
	if err != nil {
		logger.Warn("failed to create request counter", zap.Error(err))
	}
	retries, err := meter.Int64Counter("http_client_auth_retries_total",
		metric.WithDescription("Requests retried after a 401 and refresh"))
	if err != nil {
		logger.Warn("failed to create retry counter", zap.Error(err))
	}
	transportFails, err := meter.Int64Counter("http_client_transport_failures_total",
		metric.WithDescription("Requests that produced no response at all"))
	if err != nil {
		logger.Warn("failed to create transport failure counter", zap.Error(err))
	}

	return &Transport{
		base:           base,
		tokens:         tokens,
		bus:            bus,
		logger:         logger,
		requests:       requests,
		retries:        retries,
		transportFails: transportFails,
	}
}

// RoundTrip implements the two interception points around every request.
func (t *Transport) RoundTrip(req *http.Request) (*http.Response, error) {
	ctx := req.Context()
	t.count(ctx, t.requests)

	out := req.Clone(ctx)

	access := t.tokens.AccessToken()
	if access != "" && !t.tokens.IsExpired(access) {
		if t.tokens.NeedsRefresh(access) {
			// Proactive path. Failure must not block the request: keep
			// the current token and let the reactive path sort it out.
			if fresh, err := t.tokens.Refresh(ctx); err == nil {
				access = fresh
			} else {
				t.logger.Debug("proactive refresh failed, sending with current token",
					zap.Error(err))
			}
		}
		if access != "" {
			out.Header.Set("Authorization", "Bearer "+access)
		}
	}

	resp, err := t.base.RoundTrip(out)
	if err != nil {
		// No response at all: a transport failure, not an auth problem.
		t.count(ctx, t.transportFails)
		t.bus.Publish(events.APIDown)
		return nil, err
	}

	if resp.StatusCode != http.StatusUnauthorized || wasRetried(ctx) {
		return resp, nil
	}

	return t.recover(out, resp)
}

// recover handles the reactive 401 path: one coordinated refresh, then a
// single retry of the original request with the fresh bearer token.
// Concurrent 401s all land on the manager's single in-flight refresh and
// share its outcome.
func (t *Transport) recover(req *http.Request, unauthorized *http.Response) (*http.Response, error) {
	ctx := req.Context()

	fresh, err := t.tokens.Refresh(ctx)
	if err != nil {
		// Manager already cleared tokens and published SessionExpired.
		drain(unauthorized)
		return nil, err
	}

	retry := req.Clone(markRetried(ctx))
	if req.GetBody != nil {
		body, err := req.GetBody()
		if err != nil {
			t.logger.Warn("cannot replay request body after refresh", zap.Error(err))
			return unauthorized, nil
		}
		retry.Body = body
	} else if req.Body != nil {
		// Body already consumed and not replayable. Hand back the 401.
		return unauthorized, nil
	}
	drain(unauthorized)

	retry.Header.Set("Authorization", "Bearer "+fresh)
	t.count(ctx, t.retries)
	t.logger.Debug("retrying request with refreshed token",
		zap.String("method", retry.Method),
		zap.String("path", retry.URL.Path),
	)

	resp, err := t.base.RoundTrip(retry)
	if err != nil {
		t.count(ctx, t.transportFails)
		t.bus.Publish(events.APIDown)
		return nil, err
	}
	return resp, nil
}

func (t *Transport) count(ctx context.Context, c metric.Int64Counter) {
	if c != nil {
		c.Add(ctx, 1)
	}
}

// drain releases a response we are not returning so the underlying
// connection can be reused.
func drain(resp *http.Response) {
	_, _ = io.Copy(io.Discard, resp.Body)
	_ = resp.Body.Close()
}
