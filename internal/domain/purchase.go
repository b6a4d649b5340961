package domain

import (
	"github.com/shopspring/decimal"
)

// PurchaseState is the single source of truth for which commands are
// currently legal on a purchase instance.
type PurchaseState string

const (
	StateAcceptingItems     PurchaseState = "ACCEPTING_ITEMS"
	StateTermsPending       PurchaseState = "TERMS_PENDING"
	StateTermsAccepted      PurchaseState = "TERMS_ACCEPTED"
	StatePaymentCompleted   PurchaseState = "PAYMENT_COMPLETED"
	StateShipmentDispatched PurchaseState = "SHIPMENT_DISPATCHED"
	StateDelivered          PurchaseState = "DELIVERED"

	// Failure / escape-hatch terminal states.
	StateCancelled       PurchaseState = "CANCELLED"
	StateAbandoned       PurchaseState = "ABANDONED"
	StateDispatchFailed  PurchaseState = "DISPATCH_FAILED"
	StateDeliveryTimeout PurchaseState = "DELIVERY_TIMED_OUT"
)

// CartMutable reports whether AddItem/RemoveItem are legal in this state.
// The cart freezes once payment starts.
func (s PurchaseState) CartMutable() bool {
	switch s {
	case StateAcceptingItems, StateTermsPending, StateTermsAccepted:
		return true
	}
	return false
}

// Open reports whether the instance is still in the pre-payment phase.
func (s PurchaseState) Open() bool {
	return s.CartMutable()
}

func (s PurchaseState) Terminal() bool {
	switch s {
	case StateDelivered, StateCancelled, StateAbandoned, StateDispatchFailed, StateDeliveryTimeout:
		return true
	}
	return false
}

// CartItem is the add-item payload and the unit the ledger stores.
// Wire field names follow the external contract.
type CartItem struct {
	ItemID    string          `json:"item_id"`
	Name      string          `json:"nombre"`
	UnitPrice decimal.Decimal `json:"precio"`
	Quantity  int             `json:"cantidad"`
}

// Subtotal derives unit_price × quantity; never stored.
func (i CartItem) Subtotal() decimal.Decimal {
	return i.UnitPrice.Mul(decimal.NewFromInt(int64(i.Quantity)))
}

// CartItemView is the immutable per-item view inside snapshots.
type CartItemView struct {
	Name      string          `json:"nombre"`
	UnitPrice decimal.Decimal `json:"precio"`
	Quantity  int             `json:"cantidad"`
	Subtotal  decimal.Decimal `json:"subtotal"`
}

// CartSnapshot is the read-only view served by queries and returned from
// validated updates. Total is always re-derived from the items.
type CartSnapshot struct {
	Items         map[string]CartItemView `json:"items"`
	Total         decimal.Decimal         `json:"total"`
	TermsAccepted bool                    `json:"terminos_aceptados"`
	State         PurchaseState           `json:"estado"`
}

// AddItemResult is the synchronous result of the validated AddItem update.
type AddItemResult struct {
	ItemID   string       `json:"item_id"`
	Quantity int          `json:"cantidad"`
	Cart     CartSnapshot `json:"carrito"`
}

type ShipmentStatus string

const (
	ShipmentPending ShipmentStatus = "PENDING"
	ShipmentAcked   ShipmentStatus = "ACKED"
	ShipmentFailed  ShipmentStatus = "FAILED"
)

// ShipmentAttempt is owned exclusively by the dispatch path. The carrier
// request id is stable across retries of the same logical dispatch.
type ShipmentAttempt struct {
	CarrierRequestID string         `json:"carrier_request_id"`
	Status           ShipmentStatus `json:"status"`
	AttemptCount     int            `json:"attempt_count"`
	TrackingID       string         `json:"tracking_id,omitempty"`
	Error            string         `json:"error,omitempty"`
}

// Workflow outcome labels, carried in the final result.
const (
	OutcomeDelivered       = "COMPLETADO_ENTREGADO"
	OutcomeAbandoned       = "ABANDONADO_TIMEOUT"
	OutcomeCancelled       = "CANCELADO_POR_USUARIO"
	OutcomeDispatchFailed  = "ENVIO_FALLIDO"
	OutcomeDeliveryExpired = "ENTREGA_EXPIRADA"
)

// PurchaseResult is the workflow's final return value.
type PurchaseResult struct {
	CartID        string                  `json:"carrito_id"`
	OwnerID       string                  `json:"usuario_id"`
	TermsAccepted bool                    `json:"terminos_aceptados"`
	Items         map[string]CartItemView `json:"items_carrito"`
	Total         decimal.Decimal         `json:"total_carrito"`
	Shipment      *ShipmentAttempt        `json:"detalles_envio,omitempty"`
	State         PurchaseState           `json:"estado_carrito"`
	Outcome       string                  `json:"resultado_workflow"`
}

// InstanceHealth is the read-only per-instance snapshot exposed to the
// control plane.
type InstanceHealth struct {
	OwnerID    string          `json:"usuario_id"`
	WorkflowID string          `json:"workflow_id"`
	State      PurchaseState   `json:"estado"`
	Total      decimal.Decimal `json:"total"`
}
