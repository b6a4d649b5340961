package archive

import (
	"context"
	"fmt"
	"testing"

	"github.com/shopspring/decimal"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/yungbote/checkout-backend/internal/pkg/logger"
)

func newTestRepo(t *testing.T) Repo {
	t.Helper()
	log, err := logger.New("test")
	if err != nil {
		t.Fatalf("logger.New: %v", err)
	}
	db, err := gorm.Open(sqlite.Open("file::memory:?cache=shared"), &gorm.Config{})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	if err := db.AutoMigrate(&PurchaseRecord{}); err != nil {
		t.Fatalf("automigrate: %v", err)
	}
	t.Cleanup(func() {
		db.Exec("DELETE FROM purchase_archive")
	})
	return NewRepo(db, log)
}

func TestRepoCreateAndListByOwner(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	rec := &PurchaseRecord{
		OwnerID:       "user-1",
		WorkflowID:    "terminos-workflow-user-1",
		CartID:        "carrito-user-1",
		State:         "DELIVERED",
		Outcome:       "COMPLETADO_ENTREGADO",
		TermsAccepted: true,
		Total:         decimal.RequireFromString("1252.48"),
		Items:         []byte(`{"item-1":{"nombre":"Laptop","cantidad":1}}`),
		TrackingID:    "TRK-1",
	}
	if err := repo.Create(ctx, rec); err != nil {
		t.Fatalf("Create: %v", err)
	}
	if rec.ID.String() == "00000000-0000-0000-0000-000000000000" {
		t.Fatalf("Create must assign an id")
	}

	rows, err := repo.ListByOwner(ctx, "user-1", 10)
	if err != nil {
		t.Fatalf("ListByOwner: %v", err)
	}
	if len(rows) != 1 {
		t.Fatalf("rows: want=1 got=%d", len(rows))
	}
	if rows[0].Outcome != "COMPLETADO_ENTREGADO" || rows[0].TrackingID != "TRK-1" {
		t.Fatalf("row fields: %+v", rows[0])
	}
}

func TestRepoListByOwnerScopesAndClamps(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		err := repo.Create(ctx, &PurchaseRecord{
			OwnerID: "user-a",
			Outcome: fmt.Sprintf("OUTCOME_%d", i),
			Total:   decimal.Zero,
			Items:   []byte(`{}`),
		})
		if err != nil {
			t.Fatalf("Create: %v", err)
		}
	}
	if err := repo.Create(ctx, &PurchaseRecord{OwnerID: "user-b", Total: decimal.Zero, Items: []byte(`{}`)}); err != nil {
		t.Fatalf("Create: %v", err)
	}

	rows, err := repo.ListByOwner(ctx, "user-a", 0)
	if err != nil {
		t.Fatalf("ListByOwner: %v", err)
	}
	if len(rows) != 3 {
		t.Fatalf("rows: want=3 got=%d", len(rows))
	}
	for _, row := range rows {
		if row.OwnerID != "user-a" {
			t.Fatalf("foreign owner leaked: %+v", row)
		}
	}

	if err := repo.Create(ctx, nil); err == nil {
		t.Fatalf("nil record must be rejected")
	}
}
