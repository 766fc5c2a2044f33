package dto

import (
	"github.com/shopspring/decimal"

	"github.com/nagyyasser2/eshop-client-sub000/internal/domain"
)

// Envelope is the backend's uniform response wrapper.
type Envelope struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}

// AuthData is the payload of login, registration, Google sign-in and
// refresh responses. Token naming varies across backend versions; ToPair
// converts to the canonical domain.TokenPair exactly once, at this boundary.
type AuthData struct {
	Token        string   `json:"token"`
	RefreshToken string   `json:"refreshToken"`
	User         UserInfo `json:"user"`
}

// ToPair returns the canonical token pair for this response.
func (d AuthData) ToPair() domain.TokenPair {
	return domain.TokenPair{
		AccessToken:  d.Token,
		RefreshToken: d.RefreshToken,
	}
}

// UserInfo represents user information in auth responses.
type UserInfo struct {
	ID        string `json:"id"`
	Email     string `json:"email"`
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
}

// ProfileResponse represents the authenticated user's profile.
type ProfileResponse struct {
	ID          string `json:"id"`
	Email       string `json:"email"`
	FirstName   string `json:"firstName"`
	LastName    string `json:"lastName"`
	DateOfBirth string `json:"dateOfBirth,omitempty"`
	Street      string `json:"street,omitempty"`
	City        string `json:"city,omitempty"`
	Country     string `json:"country,omitempty"`
	PostalCode  string `json:"postalCode,omitempty"`
	CreatedAt   string `json:"createdAt"`
}

// OrderResponse represents a created or listed order.
type OrderResponse struct {
	ID          int             `json:"id"`
	Status      string          `json:"status"`
	SubTotal    decimal.Decimal `json:"subTotal"`
	TaxAmount   decimal.Decimal `json:"taxAmount"`
	TotalAmount decimal.Decimal `json:"totalAmount"`
	CreatedAt   string          `json:"createdAt"`
	Items       []OrderItem     `json:"items,omitempty"`
}

// CheckoutSessionResponse carries the hosted payment session handle.
type CheckoutSessionResponse struct {
	SessionID string `json:"sessionId"`
	URL       string `json:"url"`
}

// HealthResponse represents the backend health probe payload.
type HealthResponse struct {
	Status string `json:"status"`
}
