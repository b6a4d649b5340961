package checkout

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/yungbote/checkout-backend/internal/domain"
)

// WorkflowInput carries the owner plus every runtime tunable the workflow
// needs. Tunables travel in the input rather than being read from the
// environment inside workflow code, so replay stays deterministic.
type WorkflowInput struct {
	OwnerID string `json:"usuario_id"`

	// CartTTL bounds the pre-payment phase; expiry abandons the purchase.
	CartTTL time.Duration `json:"cart_ttl,omitempty"`
	// DeliveryTimeout bounds the wait for the delivery confirmation.
	// Zero means wait indefinitely.
	DeliveryTimeout time.Duration `json:"delivery_timeout,omitempty"`
	// MaxDispatchAttempts caps shipment dispatch retries. Zero means
	// retry without bound.
	MaxDispatchAttempts int `json:"max_dispatch_attempts,omitempty"`
}

const defaultCartTTL = 30 * time.Minute

func (in *WorkflowInput) applyDefaults() {
	if in.CartTTL <= 0 {
		in.CartTTL = defaultCartTTL
	}
	if in.MaxDispatchAttempts < 0 {
		in.MaxDispatchAttempts = 0
	}
}

// StockCheckRequest asks the inventory source whether the prospective
// resulting quantity of an item can be satisfied.
type StockCheckRequest struct {
	ItemID   string `json:"item_id"`
	Quantity int    `json:"cantidad"`
}

type StockCheckResult struct {
	Sufficient bool `json:"suficiente"`
	Available  int  `json:"disponible,omitempty"`
}

// DispatchRequest is the carrier call payload. CarrierRequestID is the
// idempotency key; it never changes across retries of the same dispatch.
type DispatchRequest struct {
	CarrierRequestID string                         `json:"carrier_request_id"`
	OwnerID          string                         `json:"usuario_id"`
	Items            map[string]domain.CartItemView `json:"items"`
	Total            decimal.Decimal                `json:"total"`
	Address          string                         `json:"direccion"`
}

type DispatchResult struct {
	Status     string `json:"status"`
	TrackingID string `json:"tracking_id"`
	Attempt    int    `json:"intento"`
}

// TransitionEvent is published to the observability bus on state changes.
type TransitionEvent struct {
	OwnerID    string               `json:"usuario_id"`
	WorkflowID string               `json:"workflow_id"`
	From       domain.PurchaseState `json:"desde"`
	To         domain.PurchaseState `json:"hasta"`
	Total      decimal.Decimal      `json:"total"`
}
