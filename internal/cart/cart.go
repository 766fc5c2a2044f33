// Package cart owns the in-memory and persisted list of cart lines:
// mutation operations, total computation and order submission.
package cart

import (
	"context"
	"errors"
	"sync"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/nagyyasser2/eshop-client-sub000/internal/domain"
	"github.com/nagyyasser2/eshop-client-sub000/internal/dto"
	"github.com/nagyyasser2/eshop-client-sub000/internal/storage"
)

// ErrEmptyCart guards order creation: an order needs at least one line.
var ErrEmptyCart = errors.New("cannot create an order from an empty cart")

// OrderPlacer submits an assembled order to the backend. Satisfied by
// api.Client.
type OrderPlacer interface {
	CreateOrder(ctx context.Context, req dto.CreateOrderRequest) (*dto.OrderResponse, error)
}

// Cart is the cart state machine. The persisted copy is loaded once at
// construction and rewritten after every mutation. Mutations are
// last-write-wins; cart flows are user-serial so no finer coordination is
// needed beyond the mutex.
type Cart struct {
	store  storage.Store
	orders OrderPlacer
	logger *zap.Logger

	mu    sync.Mutex
	lines []domain.CartLine
}

// New loads the persisted cart (empty on missing or corrupt data) and
// returns the state machine over it.
func New(store storage.Store, orders OrderPlacer, logger *zap.Logger) *Cart {
	c := &Cart{
		store:  store,
		orders: orders,
		logger: logger,
	}
	if !store.Load(storage.DomainCart, &c.lines) {
		c.lines = nil
	}
	c.logger.Debug("cart loaded", zap.Int("lines", len(c.lines)))
	return c
}

// Lines returns a snapshot of the current cart lines in order.
func (c *Cart) Lines() []domain.CartLine {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.snapshot()
}

// snapshot copies the line slice; callers must hold the mutex.
func (c *Cart) snapshot() []domain.CartLine {
	out := make([]domain.CartLine, len(c.lines))
	copy(out, c.lines)
	return out
}

// Add inserts a line, or accumulates quantity when the product is already
// present. The existing line's other fields are preserved; only quantity
// grows. Incoming quantities below 1 count as 1.
func (c *Cart) Add(line domain.CartLine) {
	if line.Quantity < 1 {
		line.Quantity = 1
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	found := false
	for i := range c.lines {
		if c.lines[i].ProductID == line.ProductID {
			c.lines[i].Quantity += line.Quantity
			found = true
			break
		}
	}
	if !found {
		c.lines = append(c.lines, line)
	}
	c.persist()
}

// Remove drops the line for the given product, if present.
func (c *Cart) Remove(productID int) {
	c.mu.Lock()
	defer c.mu.Unlock()

	kept := c.lines[:0]
	for _, l := range c.lines {
		if l.ProductID != productID {
			kept = append(kept, l)
		}
	}
	c.lines = kept
	c.persist()
}

// UpdateQuantity sets the quantity for the given product, floored at 1.
// Setting zero or a negative value never removes the line.
func (c *Cart) UpdateQuantity(productID, quantity int) {
	if quantity < 1 {
		quantity = 1
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	for i := range c.lines {
		if c.lines[i].ProductID == productID {
			c.lines[i].Quantity = quantity
			break
		}
	}
	c.persist()
}

// Clear empties the cart and purges the persisted copy.
func (c *Cart) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.lines = nil
	c.store.Clear(storage.DomainCart)
}

// Len returns the number of distinct lines.
func (c *Cart) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.lines)
}

// Totals computes the money breakdown over the current lines. Pure with
// respect to cart state: nothing is mutated or persisted.
func (c *Cart) Totals(shipping, discount, taxRate decimal.Decimal) domain.OrderTotals {
	return totalsFor(c.Lines(), shipping, discount, taxRate)
}

func totalsFor(lines []domain.CartLine, shipping, discount, taxRate decimal.Decimal) domain.OrderTotals {
	subTotal := decimal.Zero
	for _, l := range lines {
		subTotal = subTotal.Add(l.LineTotal())
	}
	subTotal = subTotal.Round(2)
	tax := subTotal.Mul(taxRate).Round(2)
	shipping = shipping.Round(2)
	discount = discount.Round(2)

	return domain.OrderTotals{
		SubTotal:       subTotal,
		TaxAmount:      tax,
		ShippingAmount: shipping,
		DiscountAmount: discount,
		TotalAmount:    subTotal.Add(tax).Add(shipping).Sub(discount).Round(2),
	}
}

// CreateOrder submits the cart as an order. The submitted content is a
// snapshot taken at call time; mutations racing with the in-flight
// submission are neither blocked nor rolled back. The cart is NOT cleared
// on success; that is the caller's decision.
func (c *Cart) CreateOrder(ctx context.Context, shipping dto.ShippingInfo, payment dto.PaymentInfo, notes string) (*dto.OrderResponse, error) {
	lines := c.Lines()
	if len(lines) == 0 {
		return nil, ErrEmptyCart
	}

	totals := totalsFor(lines, payment.ShippingAmount, payment.DiscountAmount, payment.TaxRate)

	items := make([]dto.OrderItem, 0, len(lines))
	for _, l := range lines {
		items = append(items, dto.OrderItem{
			ProductID:   l.ProductID,
			ProductName: l.ProductName,
			UnitPrice:   l.UnitPrice,
			Quantity:    l.Quantity,
			SKU:         l.SKU,
		})
	}

	req := dto.CreateOrderRequest{
		ClientReference: uuid.New().String(),
		Items:           items,
		Shipping:        shipping,
		Payment:         payment,
		Notes:           notes,
		SubTotal:        totals.SubTotal,
		TaxAmount:       totals.TaxAmount,
		ShippingAmount:  totals.ShippingAmount,
		DiscountAmount:  totals.DiscountAmount,
		TotalAmount:     totals.TotalAmount,
	}

	resp, err := c.orders.CreateOrder(ctx, req)
	if err != nil {
		return nil, err
	}

	c.logger.Info("order created",
		zap.Int("order_id", resp.ID),
		zap.Int("items", len(items)),
		zap.String("total", totals.TotalAmount.String()),
	)
	return resp, nil
}

// persist writes the current lines; callers must hold the mutex.
func (c *Cart) persist() {
	c.store.Save(storage.DomainCart, c.lines)
}
