// Package session owns the authenticated-user state machine: restoring a
// session from stored tokens at startup, holding the current identity, and
// reacting to process-wide session expiry.
package session

import (
	"context"
	"sync"

	"go.uber.org/zap"

	"github.com/nagyyasser2/eshop-client-sub000/internal/domain"
	"github.com/nagyyasser2/eshop-client-sub000/internal/events"
	"github.com/nagyyasser2/eshop-client-sub000/internal/token"
)

// State is the session lifecycle state.
type State int

const (
	// StateRestoring is the initial state, before Restore has settled.
	// Callers must treat it as a loading condition.
	StateRestoring State = iota
	StateAuthenticated
	StateUnauthenticated
)

func (s State) String() string {
	switch s {
	case StateRestoring:
		return "restoring"
	case StateAuthenticated:
		return "authenticated"
	case StateUnauthenticated:
		return "unauthenticated"
	default:
		return "unknown"
	}
}

const expiredMessage = "session expired, please log in again"

// Manager is the session state machine.
type Manager struct {
	tokens *token.Manager
	logger *zap.Logger

	mu       sync.Mutex
	state    State
	identity *domain.Identity
	errMsg   string

	restoreOnce sync.Once
	unsubscribe func()
}

// NewManager creates a session manager in the restoring state and
// subscribes it to the session-expired signal for its lifetime.
func NewManager(tokens *token.Manager, bus *events.Bus, logger *zap.Logger) *Manager {
	m := &Manager{
		tokens: tokens,
		logger: logger,
		state:  StateRestoring,
	}
	m.unsubscribe = bus.Subscribe(events.SessionExpired, m.onExpired)
	return m
}

// onExpired forces the unauthenticated state regardless of where the
// machine currently is. Tokens were already cleared by the publisher.
func (m *Manager) onExpired() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.state = StateUnauthenticated
	m.identity = nil
	m.errMsg = expiredMessage
	m.logger.Info("session expired signal received")
}

// Restore rebuilds the session from stored tokens. It runs its work
// exactly once per process; subsequent calls are no-ops.
//
// The mutex is never held across the refresh call: a refresh failure
// publishes the expiry signal, whose handler takes the same lock.
func (m *Manager) Restore(ctx context.Context) {
	m.restoreOnce.Do(func() {
		pair := m.tokens.Pair()
		if !pair.Complete() {
			m.become(StateUnauthenticated, nil, "")
			return
		}

		access := pair.AccessToken
		if m.tokens.IsExpired(access) {
			fresh, err := m.tokens.Refresh(ctx)
			if err != nil {
				// Tokens are gone and onExpired already moved the state;
				// make the error message deterministic regardless of
				// handler ordering.
				m.become(StateUnauthenticated, nil, expiredMessage)
				m.logger.Info("session restore failed, refresh rejected", zap.Error(err))
				return
			}
			access = fresh
		}

		identity := m.tokens.Identity(access)
		if identity == nil {
			m.tokens.Clear()
			m.become(StateUnauthenticated, nil, "stored session is invalid")
			m.logger.Warn("session restore failed, token carries no usable identity")
			return
		}

		m.become(StateAuthenticated, identity, "")
		m.logger.Info("session restored",
			zap.String("subject", identity.SubjectID),
			zap.String("email", identity.Email),
		)
	})
}

// SetCredentials installs a fresh token pair and identity after a
// successful login, registration or OAuth exchange.
func (m *Manager) SetCredentials(pair domain.TokenPair, identity *domain.Identity) {
	m.tokens.SetPair(pair)
	m.become(StateAuthenticated, identity, "")
}

// Logout clears tokens and moves to unauthenticated. Any remote logout
// notification is a best-effort side effect of the caller, not this layer.
func (m *Manager) Logout() {
	m.tokens.Clear()
	m.become(StateUnauthenticated, nil, "")
}

// Close unsubscribes from the expiry signal.
func (m *Manager) Close() {
	if m.unsubscribe != nil {
		m.unsubscribe()
	}
}

// State returns the current lifecycle state.
func (m *Manager) State() State {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state
}

// Identity returns the authenticated identity, nil otherwise.
func (m *Manager) Identity() *domain.Identity {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.identity
}

// ErrMessage returns the user-facing error from the last transition.
func (m *Manager) ErrMessage() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.errMsg
}

func (m *Manager) become(state State, identity *domain.Identity, errMsg string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.state = state
	m.identity = identity
	m.errMsg = errMsg
}
