package checkout

import (
	"time"

	"github.com/google/uuid"
	"go.temporal.io/sdk/temporal"
	"go.temporal.io/sdk/workflow"

	"github.com/yungbote/checkout-backend/internal/domain"
)

// Namespace for deriving carrier request ids. The key is a pure function of
// (owner, workflow execution), so it survives retries and replay unchanged.
var shipmentKeyNamespace = uuid.MustParse("9e2e4ab6-12db-4a83-9a45-6a2f3f6c5d01")

const defaultShippingAddress = "Dirección por defecto"

type machine struct {
	ownerID string
	cartID  string

	state    domain.PurchaseState
	terms    bool
	ledger   *Ledger
	shipment *domain.ShipmentAttempt
}

func (m *machine) snapshot() domain.CartSnapshot {
	return m.ledger.Snapshot(m.state, m.terms)
}

func (m *machine) result(outcome string) *domain.PurchaseResult {
	return &domain.PurchaseResult{
		CartID:        m.cartID,
		OwnerID:       m.ownerID,
		TermsAccepted: m.terms,
		Items:         m.ledger.Items(),
		Total:         m.ledger.Total(),
		Shipment:      m.shipment,
		State:         m.state,
		Outcome:       outcome,
	}
}

// Workflow is the purchase lifecycle state machine: one instance per owner,
// commands applied one at a time, state persisted and replayed by Temporal.
func Workflow(ctx workflow.Context, input WorkflowInput) (*domain.PurchaseResult, error) {
	input.applyDefaults()
	if input.OwnerID == "" {
		return nil, temporal.NewNonRetryableApplicationError("missing usuario_id", domain.CodeInvalidInput, nil)
	}

	log := workflow.GetLogger(ctx)
	wfID := workflow.GetInfo(ctx).WorkflowExecution.ID

	m := &machine{
		ownerID: input.OwnerID,
		cartID:  "carrito-" + input.OwnerID + "-" + wfID,
		state:   domain.StateAcceptingItems,
		ledger:  NewLedger(),
	}
	carrierRequestID := uuid.NewSHA1(shipmentKeyNamespace, []byte(input.OwnerID+"/"+wfID+"/dispatch")).String()

	log.Info("Purchase lifecycle started", "usuario_id", input.OwnerID, "carrito_id", m.cartID)

	if err := workflow.SetQueryHandler(ctx, QueryState, func() (domain.CartSnapshot, error) {
		return m.snapshot(), nil
	}); err != nil {
		return nil, err
	}
	if err := registerAddItem(ctx, m); err != nil {
		return nil, err
	}
	if err := registerCompletePurchase(ctx, m); err != nil {
		return nil, err
	}
	runSignalPump(ctx, m)

	// Purchase phase: wait until paid or cancelled; an idle cart expires.
	paid, err := workflow.AwaitWithTimeout(ctx, input.CartTTL, func() bool {
		return m.state == domain.StatePaymentCompleted || m.state == domain.StateCancelled
	})
	if err != nil {
		return nil, err
	}
	if !paid {
		m.state = domain.StateAbandoned
		log.Info("Purchase abandoned: no payment within TTL", "usuario_id", m.ownerID, "ttl", input.CartTTL)
		res := m.result(domain.OutcomeAbandoned)
		finishInstance(ctx, m, wfID, res)
		return res, nil
	}
	if m.state == domain.StateCancelled {
		log.Info("Purchase cancelled by user", "usuario_id", m.ownerID)
		res := m.result(domain.OutcomeCancelled)
		finishInstance(ctx, m, wfID, res)
		return res, nil
	}

	notifyTransition(ctx, m, wfID, domain.StateTermsAccepted, domain.StatePaymentCompleted)

	// Shipment phase. The attempt record is PENDING while the retry loop
	// runs and only reaches FAILED once no further attempt is in flight.
	m.shipment = &domain.ShipmentAttempt{
		CarrierRequestID: carrierRequestID,
		Status:           domain.ShipmentPending,
	}
	dispatchCtx := workflow.WithActivityOptions(ctx, workflow.ActivityOptions{
		StartToCloseTimeout: 30 * time.Second,
		RetryPolicy: &temporal.RetryPolicy{
			InitialInterval:        2 * time.Second,
			BackoffCoefficient:     2.0,
			MaximumInterval:        10 * time.Second,
			MaximumAttempts:        int32(input.MaxDispatchAttempts),
			NonRetryableErrorTypes: []string{domain.CodeDispatchRejected},
		},
	})
	var ack DispatchResult
	err = workflow.ExecuteActivity(dispatchCtx, ActivityDispatchShipment, DispatchRequest{
		CarrierRequestID: carrierRequestID,
		OwnerID:          m.ownerID,
		Items:            m.ledger.Items(),
		Total:            m.ledger.Total(),
		Address:          defaultShippingAddress,
	}).Get(ctx, &ack)
	if err != nil {
		m.shipment.Status = domain.ShipmentFailed
		m.shipment.Error = err.Error()
		from := m.state
		m.state = domain.StateDispatchFailed
		log.Error("Shipment dispatch failed after all retries", "usuario_id", m.ownerID, "error", err)
		notifyTransition(ctx, m, wfID, from, m.state)
		res := m.result(domain.OutcomeDispatchFailed)
		finishInstance(ctx, m, wfID, res)
		return res, nil
	}
	m.shipment.Status = domain.ShipmentAcked
	m.shipment.TrackingID = ack.TrackingID
	m.shipment.AttemptCount = ack.Attempt
	from := m.state
	m.state = domain.StateShipmentDispatched
	log.Info("Shipment dispatched", "usuario_id", m.ownerID, "tracking_id", ack.TrackingID, "attempts", ack.Attempt)
	notifyTransition(ctx, m, wfID, from, m.state)

	// Delivery phase: suspend until the external confirmation arrives, or
	// until the optional escape-hatch timeout fires.
	if input.DeliveryTimeout > 0 {
		delivered, werr := workflow.AwaitWithTimeout(ctx, input.DeliveryTimeout, func() bool {
			return m.state == domain.StateDelivered
		})
		if werr != nil {
			return nil, werr
		}
		if !delivered {
			m.state = domain.StateDeliveryTimeout
			log.Warn("Delivery confirmation never arrived", "usuario_id", m.ownerID, "timeout", input.DeliveryTimeout)
			res := m.result(domain.OutcomeDeliveryExpired)
			finishInstance(ctx, m, wfID, res)
			return res, nil
		}
	} else {
		if werr := workflow.Await(ctx, func() bool { return m.state == domain.StateDelivered }); werr != nil {
			return nil, werr
		}
	}

	log.Info("Delivery confirmed; purchase complete", "usuario_id", m.ownerID)
	res := m.result(domain.OutcomeDelivered)
	finishInstance(ctx, m, wfID, res)
	return res, nil
}

func registerAddItem(ctx workflow.Context, m *machine) error {
	return workflow.SetUpdateHandlerWithOptions(ctx, UpdateAddItem,
		func(ctx workflow.Context, item domain.CartItem) (domain.AddItemResult, error) {
			// Validate-then-commit: nothing touches the ledger until the
			// stock source answers OK.
			prospective := m.ledger.Quantity(item.ItemID) + item.Quantity
			checkCtx := workflow.WithActivityOptions(ctx, workflow.ActivityOptions{
				StartToCloseTimeout: 10 * time.Second,
				RetryPolicy:         &temporal.RetryPolicy{MaximumAttempts: 3},
			})
			var check StockCheckResult
			if err := workflow.ExecuteActivity(checkCtx, ActivityCheckStock, StockCheckRequest{
				ItemID:   item.ItemID,
				Quantity: prospective,
			}).Get(ctx, &check); err != nil {
				return domain.AddItemResult{}, err
			}
			if !check.Sufficient {
				return domain.AddItemResult{}, temporal.NewApplicationError(
					"stock insuficiente para "+item.ItemID, domain.CodeStockUnavailable, string(m.state))
			}
			// The instance may have moved on while we awaited the check.
			if !m.state.CartMutable() {
				return domain.AddItemResult{}, invalidTransition(m.state, "agregar item")
			}
			qty, err := m.ledger.AddItem(item)
			if err != nil {
				return domain.AddItemResult{}, asApplicationError(err, m.state)
			}
			return domain.AddItemResult{ItemID: item.ItemID, Quantity: qty, Cart: m.snapshot()}, nil
		},
		workflow.UpdateHandlerOptions{
			Validator: func(item domain.CartItem) error {
				if !m.state.CartMutable() {
					return invalidTransition(m.state, "agregar item")
				}
				if item.ItemID == "" {
					return temporal.NewApplicationError("item_id is required", domain.CodeInvalidInput, string(m.state))
				}
				if item.Quantity < 1 {
					return temporal.NewApplicationError("cantidad must be >= 1", domain.CodeInvalidInput, string(m.state))
				}
				if item.UnitPrice.IsNegative() {
					return temporal.NewApplicationError("precio must be >= 0", domain.CodeInvalidInput, string(m.state))
				}
				return nil
			},
		})
}

func registerCompletePurchase(ctx workflow.Context, m *machine) error {
	return workflow.SetUpdateHandler(ctx, UpdateCompletePurchase,
		func(ctx workflow.Context) (domain.CartSnapshot, error) {
			if !m.state.Open() {
				return domain.CartSnapshot{}, invalidTransition(m.state, "completar compra")
			}
			if !m.terms {
				return domain.CartSnapshot{}, temporal.NewApplicationError(
					"los términos y condiciones no han sido aceptados", domain.CodeTermsNotAccepted, string(m.state))
			}
			m.state = domain.StatePaymentCompleted
			// The frozen snapshot is the synchronous reply; dispatch
			// continues asynchronously in the main loop.
			return m.snapshot(), nil
		})
}

// runSignalPump drains the fire-and-forget command channels for the lifetime
// of the instance, preserving one-at-a-time ordering.
func runSignalPump(ctx workflow.Context, m *machine) {
	removeCh := workflow.GetSignalChannel(ctx, SignalRemoveItem)
	acceptCh := workflow.GetSignalChannel(ctx, SignalAcceptTerms)
	deliverCh := workflow.GetSignalChannel(ctx, SignalConfirmDelivery)
	cancelCh := workflow.GetSignalChannel(ctx, SignalCancel)

	workflow.Go(ctx, func(ctx workflow.Context) {
		log := workflow.GetLogger(ctx)
		for {
			sel := workflow.NewSelector(ctx)
			sel.AddReceive(removeCh, func(c workflow.ReceiveChannel, more bool) {
				var itemID string
				c.Receive(ctx, &itemID)
				if !m.state.CartMutable() {
					log.Warn("Remove item ignored: cart frozen", "estado", m.state, "item_id", itemID)
					return
				}
				m.ledger.RemoveItem(itemID)
			})
			sel.AddReceive(acceptCh, func(c workflow.ReceiveChannel, more bool) {
				c.Receive(ctx, nil)
				if m.terms {
					return // re-acceptance is a no-op
				}
				if !m.state.Open() {
					log.Warn("Accept terms ignored", "estado", m.state)
					return
				}
				m.terms = true
				if m.state == domain.StateAcceptingItems || m.state == domain.StateTermsPending {
					m.state = domain.StateTermsAccepted
				}
			})
			sel.AddReceive(deliverCh, func(c workflow.ReceiveChannel, more bool) {
				c.Receive(ctx, nil)
				if m.state != domain.StateShipmentDispatched {
					log.Warn("Delivery confirmation ignored: not dispatched", "estado", m.state)
					return
				}
				m.state = domain.StateDelivered
			})
			sel.AddReceive(cancelCh, func(c workflow.ReceiveChannel, more bool) {
				c.Receive(ctx, nil)
				if !m.state.Open() {
					log.Warn("Cancel ignored", "estado", m.state)
					return
				}
				m.state = domain.StateCancelled
			})
			sel.Select(ctx)
		}
	})
}

// notifyTransition publishes a state change to the observability bus.
// Best effort: a down bus never blocks the lifecycle.
func notifyTransition(ctx workflow.Context, m *machine, wfID string, from, to domain.PurchaseState) {
	actx := workflow.WithActivityOptions(ctx, workflow.ActivityOptions{
		StartToCloseTimeout: 5 * time.Second,
		RetryPolicy:         &temporal.RetryPolicy{MaximumAttempts: 1},
	})
	if err := workflow.ExecuteActivity(actx, ActivityPublishTransition, TransitionEvent{
		OwnerID:    m.ownerID,
		WorkflowID: wfID,
		From:       from,
		To:         to,
		Total:      m.ledger.Total(),
	}).Get(ctx, nil); err != nil {
		workflow.GetLogger(ctx).Warn("Transition publish failed", "error", err)
	}
}

// finishInstance archives the terminal outcome and emits the final event.
func finishInstance(ctx workflow.Context, m *machine, wfID string, res *domain.PurchaseResult) {
	notifyTransition(ctx, m, wfID, m.state, m.state)
	actx := workflow.WithActivityOptions(ctx, workflow.ActivityOptions{
		StartToCloseTimeout: 10 * time.Second,
		RetryPolicy:         &temporal.RetryPolicy{MaximumAttempts: 3},
	})
	if err := workflow.ExecuteActivity(actx, ActivityArchivePurchase, res).Get(ctx, nil); err != nil {
		workflow.GetLogger(ctx).Warn("Purchase archive failed", "usuario_id", m.ownerID, "error", err)
	}
}

func invalidTransition(state domain.PurchaseState, action string) error {
	return temporal.NewApplicationError(
		"operación ilegal en el estado actual: "+action, domain.CodeInvalidTransition, string(state))
}

func asApplicationError(err error, state domain.PurchaseState) error {
	if pe, ok := err.(*domain.PurchaseError); ok {
		return temporal.NewApplicationError(pe.Message, pe.Code, string(state))
	}
	return err
}
