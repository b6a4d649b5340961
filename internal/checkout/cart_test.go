package checkout

import (
	"testing"

	"github.com/shopspring/decimal"

	"github.com/yungbote/checkout-backend/internal/domain"
)

func item(id, name string, price string, qty int) domain.CartItem {
	return domain.CartItem{
		ItemID:    id,
		Name:      name,
		UnitPrice: decimal.RequireFromString(price),
		Quantity:  qty,
	}
}

func TestLedgerAddItemInsertsAndIncrements(t *testing.T) {
	l := NewLedger()

	qty, err := l.AddItem(item("item-1", "Laptop", "1200.50", 1))
	if err != nil {
		t.Fatalf("AddItem: %v", err)
	}
	if qty != 1 {
		t.Fatalf("quantity after insert: want=1 got=%d", qty)
	}

	qty, err = l.AddItem(item("item-1", "Laptop", "1200.50", 2))
	if err != nil {
		t.Fatalf("AddItem increment: %v", err)
	}
	if qty != 3 {
		t.Fatalf("quantity after increment: want=3 got=%d", qty)
	}
	if l.Len() != 1 {
		t.Fatalf("ledger length: want=1 got=%d", l.Len())
	}
}

func TestLedgerAddItemValidation(t *testing.T) {
	l := NewLedger()

	cases := []struct {
		name string
		it   domain.CartItem
	}{
		{"missing id", item("", "Laptop", "10", 1)},
		{"zero quantity", item("item-1", "Laptop", "10", 0)},
		{"negative quantity", item("item-1", "Laptop", "10", -2)},
		{"negative price", item("item-1", "Laptop", "-1", 1)},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := l.AddItem(tc.it); domain.CodeOf(err) != domain.CodeInvalidInput {
				t.Fatalf("error code: want=%s got=%v", domain.CodeInvalidInput, err)
			}
		})
	}
	if l.Len() != 0 {
		t.Fatalf("rejected adds must not mutate the ledger, len=%d", l.Len())
	}
}

func TestLedgerTotalRecomputedFromItems(t *testing.T) {
	l := NewLedger()
	if _, err := l.AddItem(item("item-1", "Laptop", "1200.50", 1)); err != nil {
		t.Fatalf("AddItem: %v", err)
	}
	if _, err := l.AddItem(item("item-2", "Mouse", "25.99", 2)); err != nil {
		t.Fatalf("AddItem: %v", err)
	}

	want := decimal.RequireFromString("1252.48")
	if got := l.Total(); !got.Equal(want) {
		t.Fatalf("total: want=%s got=%s", want, got)
	}

	l.RemoveItem("item-2")
	want = decimal.RequireFromString("1200.50")
	if got := l.Total(); !got.Equal(want) {
		t.Fatalf("total after remove: want=%s got=%s", want, got)
	}
}

func TestLedgerRemoveAbsentItemIsNoop(t *testing.T) {
	l := NewLedger()
	if _, err := l.AddItem(item("item-1", "Laptop", "10", 1)); err != nil {
		t.Fatalf("AddItem: %v", err)
	}
	l.RemoveItem("no-such-item")
	if l.Len() != 1 {
		t.Fatalf("ledger length: want=1 got=%d", l.Len())
	}
}

func TestLedgerSnapshotCarriesSubtotals(t *testing.T) {
	l := NewLedger()
	if _, err := l.AddItem(item("item-2", "Mouse", "25.99", 2)); err != nil {
		t.Fatalf("AddItem: %v", err)
	}

	snap := l.Snapshot(domain.StateAcceptingItems, false)
	if snap.State != domain.StateAcceptingItems {
		t.Fatalf("snapshot state: want=%s got=%s", domain.StateAcceptingItems, snap.State)
	}
	view, ok := snap.Items["item-2"]
	if !ok {
		t.Fatalf("snapshot missing item-2")
	}
	if want := decimal.RequireFromString("51.98"); !view.Subtotal.Equal(want) {
		t.Fatalf("subtotal: want=%s got=%s", want, view.Subtotal)
	}
	if !snap.Total.Equal(view.Subtotal) {
		t.Fatalf("total: want=%s got=%s", view.Subtotal, snap.Total)
	}
}

func TestLedgerItemsViewIsDetached(t *testing.T) {
	l := NewLedger()
	if _, err := l.AddItem(item("item-1", "Laptop", "10", 1)); err != nil {
		t.Fatalf("AddItem: %v", err)
	}
	view := l.Items()
	v := view["item-1"]
	v.Quantity = 99
	view["item-1"] = v

	if got := l.Quantity("item-1"); got != 1 {
		t.Fatalf("ledger mutated through view: want=1 got=%d", got)
	}
}
