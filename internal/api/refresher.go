package api

import (
	"context"
	"errors"
	"net/http"

	"go.uber.org/zap"

	"github.com/nagyyasser2/eshop-client-sub000/internal/domain"
	"github.com/nagyyasser2/eshop-client-sub000/internal/dto"
)

// TokenRefresher exchanges token pairs against POST /auth/refresh-token.
//
// It rides a bare HTTP client, never the authenticating transport: the
// refresh call must not inject bearer headers or trigger further refreshes.
type TokenRefresher struct {
	baseURL string
	http    *http.Client
	logger  *zap.Logger
}

// NewTokenRefresher creates a refresher for the given backend.
func NewTokenRefresher(baseURL string, logger *zap.Logger) *TokenRefresher {
	return &TokenRefresher{
		baseURL: baseURL,
		http:    &http.Client{},
		logger:  logger,
	}
}

// Refresh implements token.Refresher.
func (r *TokenRefresher) Refresh(ctx context.Context, pair domain.TokenPair) (domain.TokenPair, error) {
	r.logger.Debug("exchanging token pair")
	data, err := call[dto.AuthData](ctx, r.http, r.baseURL, http.MethodPost, "/auth/refresh-token",
		dto.RefreshRequest{
			AccessToken:  pair.AccessToken,
			RefreshToken: pair.RefreshToken,
		})
	if err != nil {
		return domain.TokenPair{}, err
	}

	fresh := data.ToPair()
	if !fresh.Complete() {
		return domain.TokenPair{}, errors.New("refresh endpoint returned an incomplete token pair")
	}
	return fresh, nil
}
