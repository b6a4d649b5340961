package checkout

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"

	"github.com/shopspring/decimal"
	"go.temporal.io/sdk/activity"
	"go.temporal.io/sdk/temporal"
	"go.temporal.io/sdk/testsuite"

	"github.com/yungbote/checkout-backend/internal/clients/shipping"
	"github.com/yungbote/checkout-backend/internal/data/archive"
	"github.com/yungbote/checkout-backend/internal/domain"
	"github.com/yungbote/checkout-backend/internal/pkg/logger"
)

type fakeArchive struct {
	mu      sync.Mutex
	records []*archive.PurchaseRecord
	err     error
}

func (f *fakeArchive) Create(ctx context.Context, rec *archive.PurchaseRecord) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	f.records = append(f.records, rec)
	return nil
}

func (f *fakeArchive) ListByOwner(ctx context.Context, ownerID string, limit int) ([]*archive.PurchaseRecord, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.records, nil
}

func newActivityEnv(t *testing.T, acts *Activities) *testsuite.TestActivityEnvironment {
	t.Helper()
	suite := &testsuite.WorkflowTestSuite{}
	env := suite.NewTestActivityEnvironment()
	env.RegisterActivityWithOptions(acts.CheckStock, activity.RegisterOptions{Name: ActivityCheckStock})
	env.RegisterActivityWithOptions(acts.DispatchShipment, activity.RegisterOptions{Name: ActivityDispatchShipment})
	env.RegisterActivityWithOptions(acts.ArchivePurchase, activity.RegisterOptions{Name: ActivityArchivePurchase})
	return env
}

func testLogger(t *testing.T) *logger.Logger {
	t.Helper()
	log, err := logger.New("test")
	if err != nil {
		t.Fatalf("logger.New: %v", err)
	}
	return log
}

func TestCheckStockDelegatesToChecker(t *testing.T) {
	stk := &fakeStock{limit: 5}
	env := newActivityEnv(t, &Activities{Log: testLogger(t), Stock: stk})

	val, err := env.ExecuteActivity(ActivityCheckStock, StockCheckRequest{ItemID: "item-1", Quantity: 3})
	if err != nil {
		t.Fatalf("ExecuteActivity: %v", err)
	}
	var res StockCheckResult
	if err := val.Get(&res); err != nil {
		t.Fatalf("decode result: %v", err)
	}
	if !res.Sufficient {
		t.Fatalf("quantity within limit must be sufficient")
	}
	if res.Available != 5 {
		t.Fatalf("available: want=5 got=%d", res.Available)
	}
}

func TestCheckStockWithoutCheckerFails(t *testing.T) {
	env := newActivityEnv(t, &Activities{Log: testLogger(t)})
	if _, err := env.ExecuteActivity(ActivityCheckStock, StockCheckRequest{ItemID: "item-1", Quantity: 1}); err == nil {
		t.Fatalf("expected error without a stock checker")
	}
}

func TestDispatchShipmentClientErrorIsNonRetryable(t *testing.T) {
	disp := &fakeDispatcher{
		failuresBeforeAck: 99,
		failWith:          &shipping.StatusError{Code: 422, Body: "rechazado"},
	}
	env := newActivityEnv(t, &Activities{Log: testLogger(t), Shipping: disp})

	_, err := env.ExecuteActivity(ActivityDispatchShipment, DispatchRequest{
		CarrierRequestID: "key-1",
		OwnerID:          "user-1",
		Total:            decimal.Zero,
	})
	if err == nil {
		t.Fatalf("expected dispatch error")
	}
	var appErr *temporal.ApplicationError
	if !errors.As(err, &appErr) {
		t.Fatalf("not an application error: %v", err)
	}
	if appErr.Type() != domain.CodeDispatchRejected {
		t.Fatalf("error type: want=%s got=%s", domain.CodeDispatchRejected, appErr.Type())
	}
	if !appErr.NonRetryable() {
		t.Fatalf("client error must be non-retryable")
	}
}

func TestDispatchShipmentServerErrorStaysRetryable(t *testing.T) {
	disp := &fakeDispatcher{
		failuresBeforeAck: 99,
		failWith:          &shipping.StatusError{Code: 503, Body: "no disponible"},
	}
	env := newActivityEnv(t, &Activities{Log: testLogger(t), Shipping: disp})

	_, err := env.ExecuteActivity(ActivityDispatchShipment, DispatchRequest{
		CarrierRequestID: "key-1",
		OwnerID:          "user-1",
		Total:            decimal.Zero,
	})
	if err == nil {
		t.Fatalf("expected dispatch error")
	}
	var appErr *temporal.ApplicationError
	if errors.As(err, &appErr) && appErr.NonRetryable() {
		t.Fatalf("server error must remain retryable: %v", err)
	}
}

func TestDispatchShipmentSuccessReportsAttempt(t *testing.T) {
	disp := &fakeDispatcher{}
	env := newActivityEnv(t, &Activities{Log: testLogger(t), Shipping: disp})

	val, err := env.ExecuteActivity(ActivityDispatchShipment, DispatchRequest{
		CarrierRequestID: "key-1",
		OwnerID:          "user-1",
		Total:            decimal.RequireFromString("10"),
	})
	if err != nil {
		t.Fatalf("ExecuteActivity: %v", err)
	}
	var res DispatchResult
	if err := val.Get(&res); err != nil {
		t.Fatalf("decode result: %v", err)
	}
	if res.TrackingID != "TRK-test" {
		t.Fatalf("tracking id: want=TRK-test got=%s", res.TrackingID)
	}
	if res.Attempt != 1 {
		t.Fatalf("attempt: want=1 got=%d", res.Attempt)
	}
}

func TestArchivePurchasePersistsRecord(t *testing.T) {
	arch := &fakeArchive{}
	env := newActivityEnv(t, &Activities{Log: testLogger(t), Archive: arch})

	res := &domain.PurchaseResult{
		CartID:        "carrito-user-1-wf",
		OwnerID:       "user-1",
		TermsAccepted: true,
		Items: map[string]domain.CartItemView{
			"item-1": {Name: "Laptop", UnitPrice: decimal.RequireFromString("1200.50"), Quantity: 1, Subtotal: decimal.RequireFromString("1200.50")},
		},
		Total: decimal.RequireFromString("1200.50"),
		Shipment: &domain.ShipmentAttempt{
			CarrierRequestID: "key-1",
			Status:           domain.ShipmentAcked,
			AttemptCount:     2,
			TrackingID:       "TRK-9",
		},
		State:   domain.StateDelivered,
		Outcome: domain.OutcomeDelivered,
	}
	if _, err := env.ExecuteActivity(ActivityArchivePurchase, res); err != nil {
		t.Fatalf("ExecuteActivity: %v", err)
	}

	if len(arch.records) != 1 {
		t.Fatalf("records: want=1 got=%d", len(arch.records))
	}
	rec := arch.records[0]
	if rec.OwnerID != "user-1" || rec.Outcome != domain.OutcomeDelivered {
		t.Fatalf("record fields: %+v", rec)
	}
	if rec.TrackingID != "TRK-9" || rec.DispatchAttempts != 2 {
		t.Fatalf("shipment fields: %+v", rec)
	}
	var items map[string]domain.CartItemView
	if err := json.Unmarshal(rec.Items, &items); err != nil {
		t.Fatalf("decode archived items: %v", err)
	}
	if len(items) != 1 {
		t.Fatalf("archived items: want=1 got=%d", len(items))
	}
}

func TestArchivePurchaseWithoutRepoIsNoop(t *testing.T) {
	env := newActivityEnv(t, &Activities{Log: testLogger(t)})
	if _, err := env.ExecuteActivity(ActivityArchivePurchase, &domain.PurchaseResult{OwnerID: "user-1"}); err != nil {
		t.Fatalf("missing archive must be a no-op, got %v", err)
	}
}
