package handlers

import (
	"fmt"
	"net/http"
	"sync"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"

	"github.com/yungbote/checkout-backend/internal/http/response"
	"github.com/yungbote/checkout-backend/internal/pkg/logger"
)

const simMaxQuantityPerItem = 10

// ShippingSimHandler is a stand-in carrier for local runs and demos. The first
// dispatch for each idempotency key fails with 503 so retry behavior is
// observable end to end; any item over the per-item cap is rejected with 400.
type ShippingSimHandler struct {
	log *logger.Logger

	mu   sync.Mutex
	seen map[string]int
}

func NewShippingSimHandler(log *logger.Logger) *ShippingSimHandler {
	return &ShippingSimHandler{
		log:  log.With("handler", "ShippingSim"),
		seen: make(map[string]int),
	}
}

type simDispatchItem struct {
	Name      string          `json:"nombre"`
	UnitPrice decimal.Decimal `json:"precio"`
	Quantity  int             `json:"cantidad"`
}

type simDispatchRequest struct {
	OwnerID string                     `json:"usuario_id"`
	Items   map[string]simDispatchItem `json:"items"`
	Total   decimal.Decimal            `json:"total"`
	Address string                     `json:"direccion"`
}

// POST /envio/despachar
func (h *ShippingSimHandler) Dispatch(c *gin.Context) {
	var req simDispatchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_dispatch", err)
		return
	}

	for itemID, it := range req.Items {
		if it.Quantity > simMaxQuantityPerItem {
			h.log.Warn("Dispatch rejected: item over carrier cap", "usuario_id", req.OwnerID, "item_id", itemID, "cantidad", it.Quantity)
			response.RespondError(c, http.StatusBadRequest, "cantidad_excedida",
				fmt.Errorf("el item %s excede el máximo de %d unidades", itemID, simMaxQuantityPerItem))
			return
		}
	}

	key := c.GetHeader("Idempotency-Key")
	if key == "" {
		key = req.OwnerID
	}

	h.mu.Lock()
	h.seen[key]++
	attempt := h.seen[key]
	h.mu.Unlock()

	// Transient failure injection: the first attempt for each key bounces.
	if attempt == 1 {
		h.log.Warn("Simulating carrier outage", "usuario_id", req.OwnerID, "attempt", attempt)
		response.RespondError(c, http.StatusServiceUnavailable, "carrier_unavailable",
			fmt.Errorf("transportista no disponible, reintente"))
		return
	}

	trackingID := fmt.Sprintf("TRK-%s-%d", req.OwnerID, attempt)
	h.log.Info("Dispatch acknowledged", "usuario_id", req.OwnerID, "tracking_id", trackingID, "attempt", attempt)
	response.RespondOK(c, gin.H{
		"status":            "despachado",
		"tracking_id":       trackingID,
		"items_despachados": len(req.Items),
	})
}
