package cart

import (
	"context"
	"errors"
	"fmt"
	"math"
	"sync"
	"time"

	"github.com/Skotchmaster/storefront/internal/domain"
	"github.com/Skotchmaster/storefront/internal/logging"
	"github.com/Skotchmaster/storefront/internal/models"
)

const maxQuantity = math.MaxInt32

type Submitter interface {
	SubmitOrder(ctx context.Context, authHeader string, order models.OrderRequest) (string, error)
}

type Credentials interface {
	AuthHeader() (string, bool)
}

type Snapshot struct {
	Items     []models.LineItem `json:"items"`
	ItemCount int               `json:"item_count"`
	Total     int64             `json:"total"`
}

// Manager keeps the customer's line items in insertion order, one row per item id.
type Manager struct {
	submitter Submitter
	creds     Credentials
	now       func() time.Time

	mu          sync.Mutex
	items       []models.LineItem
	checkingOut bool
}

func NewManager(submitter Submitter, creds Credentials) *Manager {
	return &Manager{
		submitter: submitter,
		creds:     creds,
		now:       time.Now,
	}
}

func (m *Manager) Add(itemID int64, name string, unitPrice int64) (models.LineItem, error) {
	if itemID <= 0 {
		return models.LineItem{}, fmt.Errorf("item id must be positive: %w", domain.ErrValidation)
	}
	if unitPrice < 0 {
		return models.LineItem{}, fmt.Errorf("price must be >= 0: %w", domain.ErrValidation)
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if i := m.indexOf(itemID); i >= 0 {
		if err := m.fits(itemID, m.items[i].UnitPrice, m.items[i].Quantity+1); err != nil {
			return models.LineItem{}, err
		}
		m.items[i].Quantity++
		return m.items[i], nil
	}
	if err := m.fits(itemID, unitPrice, 1); err != nil {
		return models.LineItem{}, err
	}

	item := models.LineItem{
		ItemID:    itemID,
		Name:      name,
		UnitPrice: unitPrice,
		Quantity:  1,
	}
	m.items = append(m.items, item)
	return item, nil
}

// SetQuantity sets the quantity exactly. A quantity of zero or less removes
// the row and returns nil.
func (m *Manager) SetQuantity(itemID int64, quantity int) (*models.LineItem, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	i := m.indexOf(itemID)
	if quantity <= 0 {
		if i >= 0 {
			m.removeAt(i)
		}
		return nil, nil
	}
	if i < 0 {
		return nil, fmt.Errorf("item %d not in cart: %w", itemID, domain.ErrNotFound)
	}
	if err := m.fits(itemID, m.items[i].UnitPrice, quantity); err != nil {
		return nil, err
	}

	m.items[i].Quantity = quantity
	item := m.items[i]
	return &item, nil
}

func (m *Manager) Remove(itemID int64) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if i := m.indexOf(itemID); i >= 0 {
		m.removeAt(i)
	}
}

func (m *Manager) Clear() {
	m.mu.Lock()
	m.items = nil
	m.mu.Unlock()
}

func (m *Manager) Items() []models.LineItem {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.copyItems()
}

func (m *Manager) ItemCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.itemCount()
}

func (m *Manager) Total() int64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.total()
}

func (m *Manager) Snapshot() Snapshot {
	m.mu.Lock()
	defer m.mu.Unlock()
	return Snapshot{
		Items:     m.copyItems(),
		ItemCount: m.itemCount(),
		Total:     m.total(),
	}
}

func (m *Manager) CheckoutInFlight() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.checkingOut
}

// Checkout submits the current lines and removes them only after the
// submitter confirms. One checkout at a time; a concurrent call gets ErrConflict.
func (m *Manager) Checkout(ctx context.Context) (models.OrderReceipt, error) {
	l := logging.FromContext(ctx).With("svc", "cart.checkout")

	authHeader, ok := m.creds.AuthHeader()
	if !ok {
		return models.OrderReceipt{}, fmt.Errorf("checkout: %w", domain.ErrAuthenticationRequired)
	}

	m.mu.Lock()
	if m.checkingOut {
		m.mu.Unlock()
		return models.OrderReceipt{}, fmt.Errorf("checkout already in progress: %w", domain.ErrConflict)
	}
	if len(m.items) == 0 {
		m.mu.Unlock()
		return models.OrderReceipt{}, fmt.Errorf("no items in cart: %w", domain.ErrValidation)
	}
	m.checkingOut = true
	order := models.OrderRequest{
		Items: m.copyItems(),
		Total: m.total(),
	}
	m.mu.Unlock()

	orderID, err := m.submitter.SubmitOrder(ctx, authHeader, order)
	if err == nil && orderID == "" {
		err = errors.New("empty order id in response")
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	m.checkingOut = false

	if err != nil {
		l.Warn("checkout_failed", "items", len(order.Items), "total", order.Total, "error", err)
		if errors.Is(err, domain.ErrRemoteFailure) {
			return models.OrderReceipt{}, fmt.Errorf("checkout: %w", err)
		}
		return models.OrderReceipt{}, fmt.Errorf("checkout: %w: %w", domain.ErrRemoteFailure, err)
	}

	m.removeSubmitted(order.Items)
	l.Info("checkout_success", "order_id", orderID, "total", order.Total)

	return models.OrderReceipt{
		OrderID:     orderID,
		Items:       order.Items,
		Total:       order.Total,
		SubmittedAt: m.now().UTC(),
	}, nil
}

// QuantityFromNumber accepts only whole numbers; fractional input is rejected, never floored.
func QuantityFromNumber(v float64) (int, error) {
	if math.IsNaN(v) || math.IsInf(v, 0) || v != math.Trunc(v) {
		return 0, fmt.Errorf("quantity must be a whole number: %w", domain.ErrValidation)
	}
	if v > maxQuantity || v < math.MinInt32 {
		return 0, fmt.Errorf("quantity out of range: %w", domain.ErrValidation)
	}
	return int(v), nil
}

// removeSubmitted subtracts what was ordered; lines changed while the
// order was in flight keep the difference.
func (m *Manager) removeSubmitted(submitted []models.LineItem) {
	for _, s := range submitted {
		i := m.indexOf(s.ItemID)
		if i < 0 {
			continue
		}
		m.items[i].Quantity -= s.Quantity
		if m.items[i].Quantity <= 0 {
			m.removeAt(i)
		}
	}
}

// fits reports whether the row for itemID can hold qty units at price
// without the line subtotal or the cart total leaving int64.
func (m *Manager) fits(itemID, price int64, qty int) error {
	if qty > maxQuantity {
		return fmt.Errorf("quantity out of range: %w", domain.ErrValidation)
	}
	sub, ok := lineTotal(price, qty)
	if !ok {
		return fmt.Errorf("line total out of range: %w", domain.ErrValidation)
	}
	var rest int64
	for _, it := range m.items {
		if it.ItemID == itemID {
			continue
		}
		rest += it.Subtotal()
	}
	if sub > math.MaxInt64-rest {
		return fmt.Errorf("cart total out of range: %w", domain.ErrValidation)
	}
	return nil
}

func lineTotal(price int64, qty int) (int64, bool) {
	if qty <= 0 || price == 0 {
		return 0, true
	}
	if price > math.MaxInt64/int64(qty) {
		return 0, false
	}
	return price * int64(qty), true
}

func (m *Manager) indexOf(itemID int64) int {
	for i := range m.items {
		if m.items[i].ItemID == itemID {
			return i
		}
	}
	return -1
}

func (m *Manager) removeAt(i int) {
	m.items = append(m.items[:i], m.items[i+1:]...)
	if len(m.items) == 0 {
		m.items = nil
	}
}

func (m *Manager) copyItems() []models.LineItem {
	out := make([]models.LineItem, len(m.items))
	copy(out, m.items)
	return out
}

func (m *Manager) itemCount() int {
	n := 0
	for _, it := range m.items {
		n += it.Quantity
	}
	return n
}

func (m *Manager) total() int64 {
	var total int64
	for _, it := range m.items {
		total += it.Subtotal()
	}
	return total
}
