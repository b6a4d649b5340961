package checkout

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"go.temporal.io/sdk/activity"
	"go.temporal.io/sdk/temporal"

	"github.com/yungbote/checkout-backend/internal/clients/redisbus"
	"github.com/yungbote/checkout-backend/internal/clients/shipping"
	"github.com/yungbote/checkout-backend/internal/clients/stock"
	"github.com/yungbote/checkout-backend/internal/data/archive"
	"github.com/yungbote/checkout-backend/internal/domain"
	"github.com/yungbote/checkout-backend/internal/pkg/httpx"
	"github.com/yungbote/checkout-backend/internal/pkg/logger"
)

// Dispatcher is the carrier call surface the dispatch activity needs.
type Dispatcher interface {
	Dispatch(ctx context.Context, req shipping.Request) (*shipping.Ack, error)
}

// Activities hosts the workflow's side-effecting calls. Bus and Archive are
// optional; a missing collaborator degrades to a logged no-op.
type Activities struct {
	Log      *logger.Logger
	Stock    stock.Checker
	Shipping Dispatcher
	Bus      redisbus.Publisher
	Archive  archive.Repo
}

// CheckStock consults the inventory source for the prospective quantity.
// Read-only: the ledger is never touched from here.
func (a *Activities) CheckStock(ctx context.Context, req StockCheckRequest) (StockCheckResult, error) {
	if a == nil || a.Stock == nil {
		return StockCheckResult{}, fmt.Errorf("checkout: stock checker not configured")
	}
	res, err := a.Stock.Check(ctx, req.ItemID, req.Quantity)
	if err != nil {
		return StockCheckResult{}, err
	}
	return StockCheckResult{Sufficient: res.Sufficient, Available: res.Available}, nil
}

// DispatchShipment calls the external carrier. The call is at-least-once:
// Temporal may re-run it, and the idempotency key in the request makes the
// carrier collapse duplicates. Client errors (4xx) are terminal; everything
// else is left retryable for the workflow's retry policy.
func (a *Activities) DispatchShipment(ctx context.Context, req DispatchRequest) (DispatchResult, error) {
	if a == nil || a.Shipping == nil {
		return DispatchResult{}, fmt.Errorf("checkout: shipping dispatcher not configured")
	}
	attempt := int(activity.GetInfo(ctx).Attempt)
	if a.Log != nil {
		a.Log.Info("Dispatching shipment", "usuario_id", req.OwnerID, "carrier_request_id", req.CarrierRequestID, "attempt", attempt)
	}

	ack, err := a.Shipping.Dispatch(ctx, shipping.Request{
		CarrierRequestID: req.CarrierRequestID,
		OwnerID:          req.OwnerID,
		Items:            req.Items,
		Total:            req.Total,
		Address:          req.Address,
	})
	if err != nil {
		var sc httpx.HTTPStatusCoder
		if errors.As(err, &sc) && !httpx.IsRetryableError(err) {
			if a.Log != nil {
				a.Log.Error("Carrier rejected dispatch", "usuario_id", req.OwnerID, "status", sc.HTTPStatusCode())
			}
			return DispatchResult{}, temporal.NewNonRetryableApplicationError(err.Error(), domain.CodeDispatchRejected, err)
		}
		if a.Log != nil {
			a.Log.Warn("Carrier call failed; will retry", "usuario_id", req.OwnerID, "attempt", attempt, "error", err)
		}
		return DispatchResult{}, err
	}

	return DispatchResult{Status: ack.Status, TrackingID: ack.TrackingID, Attempt: attempt}, nil
}

// PublishTransition pushes a state change onto the observability bus.
func (a *Activities) PublishTransition(ctx context.Context, evt TransitionEvent) error {
	if a == nil || a.Bus == nil {
		return nil
	}
	if err := a.Bus.Publish(ctx, evt); err != nil {
		if a.Log != nil {
			a.Log.Warn("Transition publish failed", "usuario_id", evt.OwnerID, "hasta", evt.To, "error", err)
		}
		return err
	}
	return nil
}

// ArchivePurchase persists the terminal outcome for later inspection.
func (a *Activities) ArchivePurchase(ctx context.Context, res *domain.PurchaseResult) error {
	if a == nil || a.Archive == nil {
		if a != nil && a.Log != nil {
			a.Log.Debug("Purchase archive not configured; skipping", "usuario_id", resOwner(res))
		}
		return nil
	}
	if res == nil {
		return fmt.Errorf("checkout: nil purchase result")
	}
	items, err := json.Marshal(res.Items)
	if err != nil {
		return fmt.Errorf("marshal archived items: %w", err)
	}
	rec := &archive.PurchaseRecord{
		OwnerID:       res.OwnerID,
		WorkflowID:    activity.GetInfo(ctx).WorkflowExecution.ID,
		CartID:        res.CartID,
		State:         string(res.State),
		Outcome:       res.Outcome,
		TermsAccepted: res.TermsAccepted,
		Total:         res.Total,
		Items:         items,
	}
	if res.Shipment != nil {
		rec.CarrierRequestID = res.Shipment.CarrierRequestID
		rec.TrackingID = res.Shipment.TrackingID
		rec.DispatchAttempts = res.Shipment.AttemptCount
	}
	return a.Archive.Create(ctx, rec)
}

func resOwner(res *domain.PurchaseResult) string {
	if res == nil {
		return ""
	}
	return res.OwnerID
}
