// Package book maintains the set of open orders, partitioned by side,
// with quantity-filled tracking. Buy and sell sides are B-trees ordered
// by price-time priority; a secondary index supports O(log n) removal
// by order ID.
package book

import (
	"sync"
	"time"

	"github.com/google/btree"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/gridmesh/energymarket/internal/domain"
)

// RegistrationChecker is the read-only ledger capability the book
// needs to validate order owners.
type RegistrationChecker interface {
	IsRegistered(addr string) bool
}

// entry is one resting order. Ordering fields are copied out of the
// order at admission so tree comparisons never chase the pointer.
type entry struct {
	Price     decimal.Decimal
	CreatedAt time.Time
	OrderID   string
	Order     *domain.Order
}

// buyLess orders the buy side: price descending, then created_at
// ascending, then order_id ascending. Min() is the best buy.
func buyLess(a, b entry) bool {
	if c := a.Price.Cmp(b.Price); c != 0 {
		return c > 0
	}
	if !a.CreatedAt.Equal(b.CreatedAt) {
		return a.CreatedAt.Before(b.CreatedAt)
	}
	return a.OrderID < b.OrderID
}

// sellLess orders the sell side: price ascending, same tie-break.
func sellLess(a, b entry) bool {
	if c := a.Price.Cmp(b.Price); c != 0 {
		return c < 0
	}
	if !a.CreatedAt.Equal(b.CreatedAt) {
		return a.CreatedAt.Before(b.CreatedAt)
	}
	return a.OrderID < b.OrderID
}

// PriceLevel is an aggregated price level for the market book view.
type PriceLevel struct {
	Price      decimal.Decimal
	TotalKwh   decimal.Decimal
	OrderCount int
}

// Book holds active orders for the single energy market.
type Book struct {
	mu       sync.RWMutex
	buys     *btree.BTreeG[entry]
	sells    *btree.BTreeG[entry]
	orders   map[string]*domain.Order // all orders ever admitted, by ID
	index    map[string]entry         // active orders only
	registry RegistrationChecker
}

// New creates an empty Book validating owners against registry.
func New(registry RegistrationChecker) *Book {
	const degree = 32
	return &Book{
		buys:     btree.NewG[entry](degree, buyLess),
		sells:    btree.NewG[entry](degree, sellLess),
		orders:   make(map[string]*domain.Order),
		index:    make(map[string]entry),
		registry: registry,
	}
}

// Admit validates the order and stores it as active. The book assigns
// OrderID and CreatedAt and zeroes the fill state. Fails with a
// ValidationError for out-of-bounds quantity or price and with
// ErrNotRegistered for an unknown owner.
func (b *Book) Admit(o *domain.Order) error {
	if o.Side != domain.OrderSideBuy && o.Side != domain.OrderSideSell {
		return &domain.ValidationError{Message: "side must be 'buy' or 'sell'"}
	}
	if err := domain.ValidateOrderAmount(o.RequestedKwh); err != nil {
		return err
	}
	if err := domain.ValidatePrice(o.PricePerKwh); err != nil {
		return err
	}
	if !b.registry.IsRegistered(o.Owner) {
		return domain.ErrNotRegistered
	}

	o.OrderID = uuid.New().String()
	o.CreatedAt = time.Now()
	o.FilledKwh = decimal.Zero
	o.Status = domain.OrderStatusActive

	e := entry{
		Price:     o.PricePerKwh,
		CreatedAt: o.CreatedAt,
		OrderID:   o.OrderID,
		Order:     o,
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	b.orders[o.OrderID] = o
	b.index[o.OrderID] = e
	if o.Side == domain.OrderSideBuy {
		b.buys.ReplaceOrInsert(e)
	} else {
		b.sells.ReplaceOrInsert(e)
	}
	return nil
}

// Get returns an order by ID (active or terminal).
func (b *Book) Get(orderID string) (*domain.Order, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	o, ok := b.orders[orderID]
	if !ok {
		return nil, domain.ErrOrderNotFound
	}
	return o, nil
}

// Snapshot returns consistent value copies of the active buy and sell
// orders, each side in priority order. The copies are the matching
// engine's working set; mutating them never touches the book.
func (b *Book) Snapshot() (buys, sells []domain.Order) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	b.buys.Ascend(func(e entry) bool {
		buys = append(buys, *e.Order)
		return true
	})
	b.sells.Ascend(func(e entry) bool {
		sells = append(sells, *e.Order)
		return true
	})
	return buys, sells
}

// WalkBuys iterates active buy orders in priority order. The callback
// returns true to continue. The walk is restartable: each call starts
// from the best order.
func (b *Book) WalkBuys(fn func(o *domain.Order) bool) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	b.buys.Ascend(func(e entry) bool {
		return fn(e.Order)
	})
}

// WalkSells iterates active sell orders in priority order.
func (b *Book) WalkSells(fn func(o *domain.Order) bool) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	b.sells.Ascend(func(e entry) bool {
		return fn(e.Order)
	})
}

// ApplyFill increases an order's filled quantity and transitions it to
// filled when fully filled. Fails with ErrOrderNotFound for unknown or
// terminal orders and ErrOverFill when the fill would exceed the
// requested quantity.
func (b *Book) ApplyFill(orderID string, additionalKwh decimal.Decimal) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	return b.applyFillLocked(orderID, additionalKwh)
}

func (b *Book) applyFillLocked(orderID string, additionalKwh decimal.Decimal) error {
	e, ok := b.index[orderID]
	if !ok {
		return domain.ErrOrderNotFound
	}
	o := e.Order
	if additionalKwh.Cmp(o.RemainingKwh()) > 0 {
		return domain.ErrOverFill
	}

	o.FilledKwh = o.FilledKwh.Add(additionalKwh)
	if o.FilledKwh.Equal(o.RequestedKwh) {
		o.Status = domain.OrderStatusFilled
		b.removeLocked(orderID)
	}
	return nil
}

// SettleMatch atomically verifies remaining quantities, invokes commit
// with the clamped quantity, and applies the fills to both orders. The
// book lock is held across the whole step so a concurrent pass or a
// cancellation cannot interleave between verification and application.
//
// The quantity is clamped to the current remaining quantities; if
// nothing remains on either side, commit is not invoked and the
// returned quantity is zero.
func (b *Book) SettleMatch(buyOrderID, sellOrderID string, qty decimal.Decimal, commit func(qty decimal.Decimal) error) (decimal.Decimal, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	buyEntry, buyOK := b.index[buyOrderID]
	sellEntry, sellOK := b.index[sellOrderID]
	if !buyOK || !sellOK {
		return decimal.Zero, nil
	}

	if r := buyEntry.Order.RemainingKwh(); r.Cmp(qty) < 0 {
		qty = r
	}
	if r := sellEntry.Order.RemainingKwh(); r.Cmp(qty) < 0 {
		qty = r
	}
	if qty.Sign() <= 0 {
		return decimal.Zero, nil
	}

	if err := commit(qty); err != nil {
		return qty, err
	}

	// Both fills are within the just-verified remaining quantities.
	_ = b.applyFillLocked(buyOrderID, qty)
	_ = b.applyFillLocked(sellOrderID, qty)
	return qty, nil
}

// Cancel transitions an active order to cancelled. Only the owner may
// cancel. Cancelling an already filled or cancelled order is a no-op.
func (b *Book) Cancel(orderID, callerID string) (*domain.Order, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	o, ok := b.orders[orderID]
	if !ok {
		return nil, domain.ErrOrderNotFound
	}
	if callerID != o.Owner {
		return nil, domain.ErrAuthorization
	}
	if o.Status != domain.OrderStatusActive {
		return o, nil
	}

	now := time.Now()
	o.Status = domain.OrderStatusCancelled
	o.CancelledAt = &now
	b.removeLocked(orderID)
	return o, nil
}

func (b *Book) removeLocked(orderID string) {
	e, ok := b.index[orderID]
	if !ok {
		return
	}
	delete(b.index, orderID)
	if e.Order.Side == domain.OrderSideBuy {
		b.buys.Delete(e)
	} else {
		b.sells.Delete(e)
	}
}

// ActiveCounts returns the number of active orders per side.
func (b *Book) ActiveCounts() (buys, sells int) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	return b.buys.Len(), b.sells.Len()
}

// TopBuys returns up to n aggregated buy price levels, best first.
func (b *Book) TopBuys(n int) []PriceLevel {
	b.mu.RLock()
	defer b.mu.RUnlock()

	return topLevels(b.buys, n)
}

// TopSells returns up to n aggregated sell price levels, best first.
func (b *Book) TopSells(n int) []PriceLevel {
	b.mu.RLock()
	defer b.mu.RUnlock()

	return topLevels(b.sells, n)
}

func topLevels(tree *btree.BTreeG[entry], n int) []PriceLevel {
	if n <= 0 {
		return nil
	}
	levels := make([]PriceLevel, 0, n)
	tree.Ascend(func(e entry) bool {
		rem := e.Order.RemainingKwh()
		if len(levels) > 0 && levels[len(levels)-1].Price.Equal(e.Price) {
			levels[len(levels)-1].TotalKwh = levels[len(levels)-1].TotalKwh.Add(rem)
			levels[len(levels)-1].OrderCount++
			return true
		}
		if len(levels) >= n {
			return false
		}
		levels = append(levels, PriceLevel{
			Price:      e.Price,
			TotalKwh:   rem,
			OrderCount: 1,
		})
		return true
	})
	return levels
}
