package dto

import "github.com/shopspring/decimal"

// LoginRequest represents a login request.
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// RegisterRequest represents a registration request.
type RegisterRequest struct {
	FirstName       string `json:"firstName"`
	LastName        string `json:"lastName"`
	Email           string `json:"email"`
	Password        string `json:"password"`
	ConfirmPassword string `json:"confirmPassword"`
	DateOfBirth     string `json:"dateOfBirth"`
}

// GoogleJWTRequest carries the credential produced by the Google sign-in
// redirect.
type GoogleJWTRequest struct {
	Credential string `json:"credential"`
}

// RefreshRequest posts the current token pair to the refresh endpoint.
type RefreshRequest struct {
	AccessToken  string `json:"accessToken"`
	RefreshToken string `json:"refreshToken"`
}

// UpdateProfileRequest updates the authenticated user's profile.
type UpdateProfileRequest struct {
	FirstName   string `json:"firstName,omitempty"`
	LastName    string `json:"lastName,omitempty"`
	DateOfBirth string `json:"dateOfBirth,omitempty"`
	Street      string `json:"street,omitempty"`
	City        string `json:"city,omitempty"`
	Country     string `json:"country,omitempty"`
	PostalCode  string `json:"postalCode,omitempty"`
}

// OrderItem is one cart line mapped into an order submission.
type OrderItem struct {
	ProductID   int             `json:"productId"`
	ProductName string          `json:"productName"`
	UnitPrice   decimal.Decimal `json:"unitPrice"`
	Quantity    int             `json:"quantity"`
	SKU         string          `json:"sku"`
}

// ShippingInfo is the delivery address for an order.
type ShippingInfo struct {
	FirstName  string `json:"firstName"`
	LastName   string `json:"lastName"`
	Street     string `json:"street"`
	City       string `json:"city"`
	Country    string `json:"country"`
	PostalCode string `json:"postalCode"`
	Phone      string `json:"phone,omitempty"`
	Email      string `json:"email,omitempty"`
}

// PaymentInfo selects the payment method and carries the per-order
// overrides used when computing totals.
type PaymentInfo struct {
	Method         string          `json:"method"`
	ShippingAmount decimal.Decimal `json:"shippingAmount"`
	DiscountAmount decimal.Decimal `json:"discountAmount"`
	TaxRate        decimal.Decimal `json:"taxRate"`
}

// CreateOrderRequest represents an order submission.
type CreateOrderRequest struct {
	ClientReference string          `json:"clientReference"`
	Items           []OrderItem     `json:"items"`
	Shipping        ShippingInfo    `json:"shipping"`
	Payment         PaymentInfo     `json:"payment"`
	Notes           string          `json:"notes,omitempty"`
	SubTotal        decimal.Decimal `json:"subTotal"`
	TaxAmount       decimal.Decimal `json:"taxAmount"`
	ShippingAmount  decimal.Decimal `json:"shippingAmount"`
	DiscountAmount  decimal.Decimal `json:"discountAmount"`
	TotalAmount     decimal.Decimal `json:"totalAmount"`
}

// CheckoutSessionRequest asks the backend for a hosted payment session.
type CheckoutSessionRequest struct {
	OrderID int `json:"orderId"`
}
