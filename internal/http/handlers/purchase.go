package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"

	"github.com/yungbote/checkout-backend/internal/domain"
	"github.com/yungbote/checkout-backend/internal/http/response"
	"github.com/yungbote/checkout-backend/internal/services"
)

// confirmResultWait bounds how long the delivery-confirmation endpoint waits
// for the instance to finish and hand back its final result.
const confirmResultWait = 30 * time.Second

type PurchaseHandler struct {
	purchases services.PurchaseService
}

func NewPurchaseHandler(purchases services.PurchaseService) *PurchaseHandler {
	return &PurchaseHandler{purchases: purchases}
}

type ownerRequest struct {
	OwnerID string `json:"usuario_id" binding:"required"`
}

type addItemRequest struct {
	OwnerID   string          `json:"usuario_id" binding:"required"`
	ItemID    string          `json:"item_id" binding:"required"`
	Name      string          `json:"nombre"`
	UnitPrice decimal.Decimal `json:"precio"`
	Quantity  int             `json:"cantidad"`
}

type removeItemRequest struct {
	OwnerID string `json:"usuario_id" binding:"required"`
	ItemID  string `json:"item_id" binding:"required"`
}

// POST /iniciar-workflow/terminos
func (h *PurchaseHandler) StartPurchase(c *gin.Context) {
	var req ownerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.RespondError(c, http.StatusBadRequest, domain.CodeInvalidInput, err)
		return
	}
	wfID, alreadyRunning, err := h.purchases.StartPurchase(c.Request.Context(), req.OwnerID)
	if err != nil {
		response.RespondPurchaseError(c, err)
		return
	}
	mensaje := "workflow iniciado"
	if alreadyRunning {
		mensaje = "workflow ya estaba en ejecución"
	}
	response.RespondOK(c, gin.H{
		"mensaje":     mensaje,
		"workflow_id": wfID,
		"usuario_id":  req.OwnerID,
	})
}

// POST /carrito/agregar-item
func (h *PurchaseHandler) AddItem(c *gin.Context) {
	var req addItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.RespondError(c, http.StatusBadRequest, domain.CodeInvalidInput, err)
		return
	}
	res, err := h.purchases.AddItem(c.Request.Context(), req.OwnerID, domain.CartItem{
		ItemID:    req.ItemID,
		Name:      req.Name,
		UnitPrice: req.UnitPrice,
		Quantity:  req.Quantity,
	})
	if err != nil {
		response.RespondPurchaseError(c, err)
		return
	}
	response.RespondOK(c, gin.H{
		"mensaje":  "item agregado",
		"item_id":  res.ItemID,
		"cantidad": res.Quantity,
		"carrito":  res.Cart,
	})
}

// POST /carrito/remover-item
func (h *PurchaseHandler) RemoveItem(c *gin.Context) {
	var req removeItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.RespondError(c, http.StatusBadRequest, domain.CodeInvalidInput, err)
		return
	}
	if err := h.purchases.RemoveItem(c.Request.Context(), req.OwnerID, req.ItemID); err != nil {
		response.RespondPurchaseError(c, err)
		return
	}
	response.RespondOK(c, gin.H{"mensaje": "item removido", "item_id": req.ItemID})
}

// GET /carrito/:usuario_id
func (h *PurchaseHandler) GetCart(c *gin.Context) {
	ownerID := c.Param("usuario_id")
	snap, err := h.purchases.GetCartState(c.Request.Context(), ownerID)
	if err != nil {
		response.RespondPurchaseError(c, err)
		return
	}
	response.RespondOK(c, snap)
}

// POST /terminos/aceptar
func (h *PurchaseHandler) AcceptTerms(c *gin.Context) {
	var req ownerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.RespondError(c, http.StatusBadRequest, domain.CodeInvalidInput, err)
		return
	}
	if err := h.purchases.AcceptTerms(c.Request.Context(), req.OwnerID); err != nil {
		response.RespondPurchaseError(c, err)
		return
	}
	response.RespondOK(c, gin.H{"mensaje": "términos aceptados", "usuario_id": req.OwnerID})
}

// POST /compra/completar
func (h *PurchaseHandler) CompletePurchase(c *gin.Context) {
	var req ownerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.RespondError(c, http.StatusBadRequest, domain.CodeInvalidInput, err)
		return
	}
	snap, err := h.purchases.CompletePurchase(c.Request.Context(), req.OwnerID)
	if err != nil {
		response.RespondPurchaseError(c, err)
		return
	}
	response.RespondOK(c, gin.H{"mensaje": "compra completada", "carrito": snap})
}

// POST /compra/cancelar
func (h *PurchaseHandler) Cancel(c *gin.Context) {
	var req ownerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.RespondError(c, http.StatusBadRequest, domain.CodeInvalidInput, err)
		return
	}
	if err := h.purchases.Cancel(c.Request.Context(), req.OwnerID); err != nil {
		response.RespondPurchaseError(c, err)
		return
	}
	response.RespondOK(c, gin.H{"mensaje": "compra cancelada", "usuario_id": req.OwnerID})
}

// POST /envio/confirmar-recepcion
//
// After the signal lands the instance runs to completion, so this endpoint
// waits for the final result and returns it in the same response.
func (h *PurchaseHandler) ConfirmDelivery(c *gin.Context) {
	var req ownerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.RespondError(c, http.StatusBadRequest, domain.CodeInvalidInput, err)
		return
	}
	if err := h.purchases.ConfirmDelivery(c.Request.Context(), req.OwnerID); err != nil {
		response.RespondPurchaseError(c, err)
		return
	}

	ctx, cancel := contextWithTimeout(c, confirmResultWait)
	defer cancel()
	res, err := h.purchases.ResultOf(ctx, req.OwnerID)
	if err != nil {
		response.RespondPurchaseError(c, err)
		return
	}
	response.RespondOK(c, gin.H{"mensaje": "recepción confirmada", "resultado": res})
}
