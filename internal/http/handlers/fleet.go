package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/yungbote/checkout-backend/internal/data/archive"
	"github.com/yungbote/checkout-backend/internal/http/response"
	"github.com/yungbote/checkout-backend/internal/services"
)

// FleetHandler serves the control-plane views: running instances and the
// archive of finished purchases. Archive may be nil when Postgres is not
// wired; the endpoint then answers 503.
type FleetHandler struct {
	fleet   services.FleetService
	archive archive.Repo
}

func NewFleetHandler(fleet services.FleetService, arch archive.Repo) *FleetHandler {
	return &FleetHandler{fleet: fleet, archive: arch}
}

// GET /control/instancias
func (h *FleetHandler) ListInstances(c *gin.Context) {
	instances, err := h.fleet.ListInstances(c.Request.Context())
	if err != nil {
		response.RespondError(c, http.StatusBadGateway, "list_instances_failed", err)
		return
	}
	response.RespondOK(c, gin.H{"total": len(instances), "instancias": instances})
}

// GET /control/archivo/:usuario_id
func (h *FleetHandler) ListArchive(c *gin.Context) {
	if h.archive == nil {
		response.RespondError(c, http.StatusServiceUnavailable, "archive_unavailable", nil)
		return
	}
	ownerID := c.Param("usuario_id")
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "20"))
	rows, err := h.archive.ListByOwner(c.Request.Context(), ownerID, limit)
	if err != nil {
		response.RespondError(c, http.StatusInternalServerError, "archive_list_failed", err)
		return
	}
	response.RespondOK(c, gin.H{"usuario_id": ownerID, "compras": rows})
}
