package app

import (
	"context"
	"fmt"
	"net/http"

	"go.uber.org/zap"

	"github.com/nagyyasser2/eshop-client-sub000/internal/api"
	"github.com/nagyyasser2/eshop-client-sub000/internal/cart"
	"github.com/nagyyasser2/eshop-client-sub000/internal/checkout"
	"github.com/nagyyasser2/eshop-client-sub000/internal/config"
	"github.com/nagyyasser2/eshop-client-sub000/internal/domain"
	"github.com/nagyyasser2/eshop-client-sub000/internal/dto"
	"github.com/nagyyasser2/eshop-client-sub000/internal/events"
	"github.com/nagyyasser2/eshop-client-sub000/internal/httpclient"
	"github.com/nagyyasser2/eshop-client-sub000/internal/session"
	"github.com/nagyyasser2/eshop-client-sub000/internal/token"
)

// App wires the client components together: event bus, token manager,
// authenticating transport, API client, and the session, cart and checkout
// state machines.
type App struct {
	infra  Infrastructure
	config *config.Config

	Bus     *events.Bus
	Tokens  *token.Manager
	API     *api.Client
	Session *session.Manager
	Cart    *cart.Cart
	Drafts  *checkout.Drafts

	unsubscribeDown func()
}

// NewApp assembles the client from infrastructure and configuration.
func NewApp(infra Infrastructure, cfg *config.Config) *App {
	logger := infra.Logger()
	store := infra.Store()

	bus := events.NewBus()

	refresher := api.NewTokenRefresher(cfg.API.BaseURL, logger)
	tokens := token.NewManager(store, bus, refresher, logger,
		token.WithBuffers(cfg.Token.ExpiryBuffer.Duration, cfg.Token.RefreshWindow.Duration),
	)

	transport := httpclient.NewTransport(nil, tokens, bus, logger)
	client := api.New(cfg.API.BaseURL, &http.Client{Transport: transport}, logger)

	a := &App{
		infra:   infra,
		config:  cfg,
		Bus:     bus,
		Tokens:  tokens,
		API:     client,
		Session: session.NewManager(tokens, bus, logger),
		Cart:    cart.New(store, client, logger),
		Drafts:  checkout.New(store, cfg.Checkout.DraftTTL.Duration, logger),
	}

	a.unsubscribeDown = bus.Subscribe(events.APIDown, func() {
		logger.Warn("backend unreachable", zap.String("base_url", cfg.API.BaseURL))
	})

	return a
}

// Restore rebuilds the session from stored tokens. Runs once; safe to call
// before any command that needs authentication state.
func (a *App) Restore(ctx context.Context) {
	a.Session.Restore(ctx)
}

// Login signs in with email and password and installs the session.
func (a *App) Login(ctx context.Context, email, password string) (*domain.Identity, error) {
	data, err := a.API.Login(ctx, dto.LoginRequest{Email: email, Password: password})
	if err != nil {
		return nil, err
	}
	return a.installSession(data)
}

// Register creates an account; the backend signs the new user in.
func (a *App) Register(ctx context.Context, req dto.RegisterRequest) (*domain.Identity, error) {
	data, err := a.API.Register(ctx, req)
	if err != nil {
		return nil, err
	}
	return a.installSession(data)
}

// LoginWithGoogle exchanges a Google sign-in credential for a session.
func (a *App) LoginWithGoogle(ctx context.Context, credential string) (*domain.Identity, error) {
	data, err := a.API.GoogleJWT(ctx, credential)
	if err != nil {
		return nil, err
	}
	return a.installSession(data)
}

// installSession converts the auth payload to the canonical pair, derives
// the identity and transitions the session machine.
func (a *App) installSession(data *dto.AuthData) (*domain.Identity, error) {
	pair := data.ToPair()
	if !pair.Complete() {
		return nil, fmt.Errorf("backend returned an incomplete token pair")
	}

	identity := a.Tokens.Identity(pair.AccessToken)
	if identity == nil {
		// Token claims unusable; fall back to the response's user block so
		// a quirky token still yields a signed-in session.
		identity = &domain.Identity{
			SubjectID: data.User.ID,
			Email:     data.User.Email,
			FirstName: data.User.FirstName,
			LastName:  data.User.LastName,
		}
		if identity.SubjectID == "" {
			return nil, fmt.Errorf("backend response carries no usable identity")
		}
	}

	a.Session.SetCredentials(pair, identity)
	return identity, nil
}

// Logout ends the session. The remote notification is best-effort: a
// failure is logged and otherwise ignored.
func (a *App) Logout(ctx context.Context) {
	if err := a.API.Logout(ctx); err != nil {
		a.infra.Logger().Debug("remote logout failed", zap.Error(err))
	}
	a.Session.Logout()
}

// Close releases subscriptions held by the app.
func (a *App) Close() {
	a.Session.Close()
	if a.unsubscribeDown != nil {
		a.unsubscribeDown()
	}
}
