package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	enumspb "go.temporal.io/api/enums/v1"
	"go.temporal.io/api/serviceerror"
	temporalsdkclient "go.temporal.io/sdk/client"
	"go.temporal.io/sdk/temporal"

	"github.com/yungbote/checkout-backend/internal/checkout"
	"github.com/yungbote/checkout-backend/internal/domain"
	"github.com/yungbote/checkout-backend/internal/pkg/logger"
	"github.com/yungbote/checkout-backend/internal/temporalx"
	"github.com/yungbote/checkout-backend/internal/utils"
)

// PurchaseService is the gateway-side surface of the purchase lifecycle. All
// state lives in the workflow instance; this layer only routes commands and
// translates failures.
type PurchaseService interface {
	StartPurchase(ctx context.Context, ownerID string) (workflowID string, alreadyRunning bool, err error)
	AddItem(ctx context.Context, ownerID string, item domain.CartItem) (*domain.AddItemResult, error)
	RemoveItem(ctx context.Context, ownerID, itemID string) error
	AcceptTerms(ctx context.Context, ownerID string) error
	CompletePurchase(ctx context.Context, ownerID string) (*domain.CartSnapshot, error)
	ConfirmDelivery(ctx context.Context, ownerID string) error
	Cancel(ctx context.Context, ownerID string) error
	GetCartState(ctx context.Context, ownerID string) (*domain.CartSnapshot, error)
	ResultOf(ctx context.Context, ownerID string) (*domain.PurchaseResult, error)
}

type purchaseService struct {
	log *logger.Logger
	tc  temporalsdkclient.Client

	taskQueue       string
	cartTTL         time.Duration
	deliveryTimeout time.Duration
	maxDispatch     int
}

func NewPurchaseService(log *logger.Logger, tc temporalsdkclient.Client) (PurchaseService, error) {
	if tc == nil {
		return nil, fmt.Errorf("temporal client is not configured")
	}
	svcLog := log.With("service", "PurchaseService")

	cartTTLMinutes := utils.GetEnvAsInt("CHECKOUT_CART_TTL_MINUTES", 30, log)
	if cartTTLMinutes < 1 {
		cartTTLMinutes = 30
	}
	deliveryTimeoutHours := utils.GetEnvAsInt("CHECKOUT_DELIVERY_TIMEOUT_HOURS", 0, log)
	if deliveryTimeoutHours < 0 {
		deliveryTimeoutHours = 0
	}
	maxDispatch := utils.GetEnvAsInt("CHECKOUT_DISPATCH_MAX_ATTEMPTS", 3, log)
	if maxDispatch < 0 {
		maxDispatch = 0
	}

	return &purchaseService{
		log:             svcLog,
		tc:              tc,
		taskQueue:       temporalx.LoadConfig().TaskQueue,
		cartTTL:         time.Duration(cartTTLMinutes) * time.Minute,
		deliveryTimeout: time.Duration(deliveryTimeoutHours) * time.Hour,
		maxDispatch:     maxDispatch,
	}, nil
}

func (s *purchaseService) StartPurchase(ctx context.Context, ownerID string) (string, bool, error) {
	if ownerID == "" {
		return "", false, domain.NewPurchaseError(domain.CodeInvalidInput, "", "usuario_id is required")
	}
	wfID := checkout.WorkflowID(ownerID)

	run, err := s.tc.ExecuteWorkflow(ctx, temporalsdkclient.StartWorkflowOptions{
		ID:                    wfID,
		TaskQueue:             s.taskQueue,
		WorkflowIDReusePolicy: enumspb.WORKFLOW_ID_REUSE_POLICY_REJECT_DUPLICATE,
	}, checkout.WorkflowName, checkout.WorkflowInput{
		OwnerID:             ownerID,
		CartTTL:             s.cartTTL,
		DeliveryTimeout:     s.deliveryTimeout,
		MaxDispatchAttempts: s.maxDispatch,
	})
	if err != nil {
		var already *serviceerror.WorkflowExecutionAlreadyStarted
		if errors.As(err, &already) {
			s.log.Info("Purchase instance already running", "usuario_id", ownerID, "workflow_id", wfID)
			return wfID, true, nil
		}
		return "", false, fmt.Errorf("start purchase workflow: %w", err)
	}

	s.log.Info("Purchase instance started", "usuario_id", ownerID, "workflow_id", wfID, "run_id", run.GetRunID())
	return wfID, false, nil
}

func (s *purchaseService) AddItem(ctx context.Context, ownerID string, item domain.CartItem) (*domain.AddItemResult, error) {
	handle, err := s.tc.UpdateWorkflow(ctx, temporalsdkclient.UpdateWorkflowOptions{
		WorkflowID:   checkout.WorkflowID(ownerID),
		UpdateName:   checkout.UpdateAddItem,
		Args:         []interface{}{item},
		WaitForStage: temporalsdkclient.WorkflowUpdateStageCompleted,
	})
	if err != nil {
		return nil, s.translate(ownerID, err)
	}
	var res domain.AddItemResult
	if err := handle.Get(ctx, &res); err != nil {
		return nil, s.translate(ownerID, err)
	}
	return &res, nil
}

func (s *purchaseService) RemoveItem(ctx context.Context, ownerID, itemID string) error {
	if itemID == "" {
		return domain.NewPurchaseError(domain.CodeInvalidInput, "", "item_id is required")
	}
	err := s.tc.SignalWorkflow(ctx, checkout.WorkflowID(ownerID), "", checkout.SignalRemoveItem, itemID)
	return s.translate(ownerID, err)
}

func (s *purchaseService) AcceptTerms(ctx context.Context, ownerID string) error {
	err := s.tc.SignalWorkflow(ctx, checkout.WorkflowID(ownerID), "", checkout.SignalAcceptTerms, nil)
	return s.translate(ownerID, err)
}

func (s *purchaseService) CompletePurchase(ctx context.Context, ownerID string) (*domain.CartSnapshot, error) {
	handle, err := s.tc.UpdateWorkflow(ctx, temporalsdkclient.UpdateWorkflowOptions{
		WorkflowID:   checkout.WorkflowID(ownerID),
		UpdateName:   checkout.UpdateCompletePurchase,
		WaitForStage: temporalsdkclient.WorkflowUpdateStageCompleted,
	})
	if err != nil {
		return nil, s.translate(ownerID, err)
	}
	var snap domain.CartSnapshot
	if err := handle.Get(ctx, &snap); err != nil {
		return nil, s.translate(ownerID, err)
	}
	return &snap, nil
}

// ConfirmDelivery pre-checks the instance state before signalling. The signal
// itself is fire-and-forget, so this is the only place a caller confirming out
// of order can learn about it.
func (s *purchaseService) ConfirmDelivery(ctx context.Context, ownerID string) error {
	snap, err := s.GetCartState(ctx, ownerID)
	if err != nil {
		return err
	}
	if snap.State != domain.StateShipmentDispatched {
		return domain.NewPurchaseError(domain.CodeInvalidTransition, snap.State,
			"la recepción solo puede confirmarse con un envío despachado")
	}
	err = s.tc.SignalWorkflow(ctx, checkout.WorkflowID(ownerID), "", checkout.SignalConfirmDelivery, nil)
	return s.translate(ownerID, err)
}

func (s *purchaseService) Cancel(ctx context.Context, ownerID string) error {
	err := s.tc.SignalWorkflow(ctx, checkout.WorkflowID(ownerID), "", checkout.SignalCancel, nil)
	return s.translate(ownerID, err)
}

func (s *purchaseService) GetCartState(ctx context.Context, ownerID string) (*domain.CartSnapshot, error) {
	val, err := s.tc.QueryWorkflow(ctx, checkout.WorkflowID(ownerID), "", checkout.QueryState)
	if err != nil {
		return nil, s.translate(ownerID, err)
	}
	var snap domain.CartSnapshot
	if err := val.Get(&snap); err != nil {
		return nil, fmt.Errorf("decode cart snapshot: %w", err)
	}
	return &snap, nil
}

// ResultOf blocks until the instance reaches a terminal state and returns the
// final outcome. Callers should bound ctx themselves.
func (s *purchaseService) ResultOf(ctx context.Context, ownerID string) (*domain.PurchaseResult, error) {
	run := s.tc.GetWorkflow(ctx, checkout.WorkflowID(ownerID), "")
	var res domain.PurchaseResult
	if err := run.Get(ctx, &res); err != nil {
		return nil, s.translate(ownerID, err)
	}
	return &res, nil
}

// translate maps Temporal-level failures onto the purchase error taxonomy.
func (s *purchaseService) translate(ownerID string, err error) error {
	if err == nil {
		return nil
	}

	var notFound *serviceerror.NotFound
	if errors.As(err, &notFound) {
		return domain.NewPurchaseError(domain.CodeNotFound, "",
			"no hay una compra activa para el usuario %s", ownerID)
	}

	var appErr *temporal.ApplicationError
	if errors.As(err, &appErr) {
		state := domain.PurchaseState("")
		var detail string
		if appErr.HasDetails() {
			if derr := appErr.Details(&detail); derr == nil {
				state = domain.PurchaseState(detail)
			}
		}
		switch appErr.Type() {
		case domain.CodeInvalidInput, domain.CodeInvalidTransition,
			domain.CodeStockUnavailable, domain.CodeTermsNotAccepted,
			domain.CodeDispatchRejected:
			return domain.NewPurchaseError(appErr.Type(), state, "%s", appErr.Message())
		}
	}

	var queryFailed *serviceerror.QueryFailed
	if errors.As(err, &queryFailed) {
		return domain.NewPurchaseError(domain.CodeNotFound, "",
			"no se pudo consultar la compra del usuario %s", ownerID)
	}

	return err
}
