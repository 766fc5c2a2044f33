package domain

import "github.com/shopspring/decimal"

// CartLine represents a single product entry in the cart. ProductID is the
// unique key within a cart: adding an already-present product accumulates
// quantity instead of appending a duplicate line.
type CartLine struct {
	ProductID    int             `json:"productId"`
	ProductName  string          `json:"productName"`
	UnitPrice    decimal.Decimal `json:"unitPrice"`
	Quantity     int             `json:"quantity"`
	SKU          string          `json:"sku"`
	ImagePath    string          `json:"imagePath,omitempty"`
	CategoryName string          `json:"categoryName,omitempty"`
}

// LineTotal returns unit price times quantity.
func (l CartLine) LineTotal() decimal.Decimal {
	return l.UnitPrice.Mul(decimal.NewFromInt(int64(l.Quantity)))
}

// OrderTotals holds the derived money breakdown for the current cart.
// Each amount is rounded to 2 decimal places. Never persisted.
type OrderTotals struct {
	SubTotal       decimal.Decimal `json:"subTotal"`
	TaxAmount      decimal.Decimal `json:"taxAmount"`
	ShippingAmount decimal.Decimal `json:"shippingAmount"`
	DiscountAmount decimal.Decimal `json:"discountAmount"`
	TotalAmount    decimal.Decimal `json:"totalAmount"`
}
