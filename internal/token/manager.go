// Package token owns the access/refresh token lifecycle: storage, claim
// inspection, expiry predicates and the coordinated refresh operation.
package token

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"

	"github.com/nagyyasser2/eshop-client-sub000/internal/domain"
	"github.com/nagyyasser2/eshop-client-sub000/internal/events"
	"github.com/nagyyasser2/eshop-client-sub000/internal/storage"
)

const (
	// DefaultExpiryBuffer is the safety margin before the exp claim at
	// which a token is already treated as expired.
	DefaultExpiryBuffer = 30 * time.Second

	// DefaultRefreshWindow is the look-ahead for proactive refresh.
	DefaultRefreshWindow = 2 * time.Minute
)

// ErrNoSession is returned when a refresh is attempted without a complete
// stored token pair.
var ErrNoSession = errors.New("no stored session")

// Refresher exchanges the current token pair for a fresh one. Implemented
// by the API client over POST /auth/refresh-token, on a bare HTTP client so
// the exchange never recurses through the authenticating transport.
type Refresher interface {
	Refresh(ctx context.Context, pair domain.TokenPair) (domain.TokenPair, error)
}

// Manager manages the stored token pair.
//
// Refresh is coordinated: at most one refresh round trip is in flight
// process-wide, and every concurrent caller shares its outcome.
type Manager struct {
	store     storage.Store
	bus       *events.Bus
	refresher Refresher
	logger    *zap.Logger

	expiryBuffer  time.Duration
	refreshWindow time.Duration
	now           func() time.Time

	parser *jwt.Parser
	group  singleflight.Group
}

// Option customizes a Manager.
type Option func(*Manager)

// WithBuffers overrides the expiry buffer and proactive refresh window.
func WithBuffers(expiryBuffer, refreshWindow time.Duration) Option {
	return func(m *Manager) {
		m.expiryBuffer = expiryBuffer
		m.refreshWindow = refreshWindow
	}
}

// WithClock overrides the time source, for tests.
func WithClock(now func() time.Time) Option {
	return func(m *Manager) {
		m.now = now
	}
}

// NewManager creates a token manager.
func NewManager(store storage.Store, bus *events.Bus, refresher Refresher, logger *zap.Logger, opts ...Option) *Manager {
	m := &Manager{
		store:         store,
		bus:           bus,
		refresher:     refresher,
		logger:        logger,
		expiryBuffer:  DefaultExpiryBuffer,
		refreshWindow: DefaultRefreshWindow,
		now:           time.Now,
		parser:        jwt.NewParser(),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Pair returns the stored token pair, zero-valued if absent or corrupt.
func (m *Manager) Pair() domain.TokenPair {
	var pair domain.TokenPair
	m.store.Load(storage.DomainAuthTokens, &pair)
	return pair
}

// AccessToken returns the stored access token, empty if absent.
func (m *Manager) AccessToken() string {
	return m.Pair().AccessToken
}

// RefreshToken returns the stored refresh token, empty if absent.
func (m *Manager) RefreshToken() string {
	return m.Pair().RefreshToken
}

// SetPair atomically stores both tokens.
func (m *Manager) SetPair(pair domain.TokenPair) {
	m.store.Save(storage.DomainAuthTokens, pair)
}

// Clear atomically removes both tokens.
func (m *Manager) Clear() {
	m.store.Clear(storage.DomainAuthTokens)
}

// expiresAt decodes the token's claims segment and returns the exp claim.
// The segment is base64url JSON; it is parsed without signature
// verification since the client holds no signing key.
func (m *Manager) expiresAt(token string) (time.Time, error) {
	claims := jwt.MapClaims{}
	if _, _, err := m.parser.ParseUnverified(token, claims); err != nil {
		return time.Time{}, fmt.Errorf("failed to decode token: %w", err)
	}

	exp, err := claims.GetExpirationTime()
	if err != nil {
		return time.Time{}, fmt.Errorf("failed to read exp claim: %w", err)
	}
	if exp == nil {
		return time.Time{}, errors.New("token has no exp claim")
	}
	return exp.Time, nil
}

// IsExpired reports whether the token is expired or expires within the
// safety buffer. Any decode failure counts as expired.
func (m *Manager) IsExpired(token string) bool {
	exp, err := m.expiresAt(token)
	if err != nil {
		return true
	}
	return exp.Before(m.now().Add(m.expiryBuffer))
}

// NeedsRefresh reports whether the token expires within the proactive
// refresh window. Decode failures count as needing refresh.
func (m *Manager) NeedsRefresh(token string) bool {
	exp, err := m.expiresAt(token)
	if err != nil {
		return true
	}
	return exp.Before(m.now().Add(m.refreshWindow))
}

// Identity decodes the user identity from the token's claims segment.
// Returns nil on any decode problem: a malformed token means no identity,
// never an error.
func (m *Manager) Identity(token string) *domain.Identity {
	claims := jwt.MapClaims{}
	if _, _, err := m.parser.ParseUnverified(token, claims); err != nil {
		return nil
	}

	sub, _ := claims.GetSubject()
	if sub == "" {
		if v, ok := claims["nameid"].(string); ok {
			sub = v
		}
	}
	if sub == "" {
		return nil
	}

	id := &domain.Identity{
		SubjectID:         sub,
		Email:             stringClaim(claims, "email"),
		FirstName:         stringClaim(claims, "firstName", "given_name"),
		LastName:          stringClaim(claims, "lastName", "family_name"),
		Roles:             rolesClaim(claims),
		DateOfBirth:       stringClaim(claims, "dateOfBirth"),
		ProfilePictureURL: stringClaim(claims, "profilePictureUrl", "picture"),
		Street:            stringClaim(claims, "street"),
		City:              stringClaim(claims, "city"),
		Country:           stringClaim(claims, "country"),
		PostalCode:        stringClaim(claims, "postalCode"),
	}
	return id
}

func stringClaim(claims jwt.MapClaims, names ...string) string {
	for _, name := range names {
		if v, ok := claims[name].(string); ok && v != "" {
			return v
		}
	}
	return ""
}

// rolesClaim tolerates the role claim arriving as a single string or as a
// list, both of which the backend emits depending on role count.
func rolesClaim(claims jwt.MapClaims) []string {
	for _, name := range []string{"roles", "role"} {
		switch v := claims[name].(type) {
		case string:
			return []string{v}
		case []any:
			roles := make([]string, 0, len(v))
			for _, r := range v {
				if s, ok := r.(string); ok {
					roles = append(roles, s)
				}
			}
			return roles
		}
	}
	return nil
}

// Refresh exchanges the stored pair for a fresh one and returns the new
// access token.
//
// All concurrent callers share a single round trip to the refresh endpoint;
// the callers blocked inside the flight group are the queued continuations
// that get resolved or rejected together when it settles. On failure both
// tokens are cleared and SessionExpired is published before the error is
// returned to every waiter.
func (m *Manager) Refresh(ctx context.Context) (string, error) {
	v, err, shared := m.group.Do("refresh", func() (any, error) {
		pair := m.Pair()
		if !pair.Complete() {
			return "", ErrNoSession
		}

		fresh, err := m.refresher.Refresh(ctx, pair)
		if err != nil {
			m.logger.Warn("token refresh failed, clearing session", zap.Error(err))
			m.Clear()
			m.bus.Publish(events.SessionExpired)
			return "", fmt.Errorf("failed to refresh tokens: %w", err)
		}

		m.SetPair(fresh)
		m.logger.Debug("token pair refreshed")
		return fresh.AccessToken, nil
	})
	if err != nil {
		return "", err
	}
	if shared {
		m.logger.Debug("refresh result shared with concurrent caller")
	}
	return v.(string), nil
}
