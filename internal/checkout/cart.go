package checkout

import (
	"github.com/shopspring/decimal"

	"github.com/yungbote/checkout-backend/internal/domain"
)

// Ledger is the in-instance cart: item_id → CartItem. Pure data and mutation
// rules, no I/O. An item with quantity zero never exists in the ledger;
// removal deletes the entry.
type Ledger struct {
	items map[string]*domain.CartItem
}

func NewLedger() *Ledger {
	return &Ledger{items: make(map[string]*domain.CartItem)}
}

// AddItem inserts the item or increments the quantity of an existing entry.
// Returns the updated quantity for that item.
func (l *Ledger) AddItem(it domain.CartItem) (int, error) {
	if it.ItemID == "" {
		return 0, domain.NewPurchaseError(domain.CodeInvalidInput, "", "item_id is required")
	}
	if it.Quantity < 1 {
		return 0, domain.NewPurchaseError(domain.CodeInvalidInput, "", "cantidad must be >= 1 (got %d)", it.Quantity)
	}
	if it.UnitPrice.IsNegative() {
		return 0, domain.NewPurchaseError(domain.CodeInvalidInput, "", "precio must be >= 0 (got %s)", it.UnitPrice)
	}
	if existing, ok := l.items[it.ItemID]; ok {
		existing.Quantity += it.Quantity
		return existing.Quantity, nil
	}
	copied := it
	l.items[it.ItemID] = &copied
	return copied.Quantity, nil
}

// RemoveItem deletes the entry if present. Removing an absent item is a
// no-op, not an error.
func (l *Ledger) RemoveItem(itemID string) {
	delete(l.items, itemID)
}

func (l *Ledger) Quantity(itemID string) int {
	if it, ok := l.items[itemID]; ok {
		return it.Quantity
	}
	return 0
}

func (l *Ledger) Len() int {
	return len(l.items)
}

// Total is always recomputed from the items, never stored.
func (l *Ledger) Total() decimal.Decimal {
	total := decimal.Zero
	for _, it := range l.items {
		total = total.Add(it.Subtotal())
	}
	return total
}

// Items returns an immutable per-item view keyed by item_id.
func (l *Ledger) Items() map[string]domain.CartItemView {
	out := make(map[string]domain.CartItemView, len(l.items))
	for id, it := range l.items {
		out[id] = domain.CartItemView{
			Name:      it.Name,
			UnitPrice: it.UnitPrice,
			Quantity:  it.Quantity,
			Subtotal:  it.Subtotal(),
		}
	}
	return out
}

// Snapshot returns the read-only cart view in the given lifecycle state.
func (l *Ledger) Snapshot(state domain.PurchaseState, termsAccepted bool) domain.CartSnapshot {
	return domain.CartSnapshot{
		Items:         l.Items(),
		Total:         l.Total(),
		TermsAccepted: termsAccepted,
		State:         state,
	}
}
