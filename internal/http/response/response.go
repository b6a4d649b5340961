package response

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/yungbote/checkout-backend/internal/domain"
)

type APIError struct {
	Message string               `json:"message"`
	Code    string               `json:"code,omitempty"`
	State   domain.PurchaseState `json:"estado,omitempty"`
}

type ErrorEnvelope struct {
	Error APIError `json:"error"`
}

func RespondError(c *gin.Context, status int, code string, err error) {
	msg := "unknown error"
	if err != nil {
		msg = err.Error()
	}
	c.JSON(status, ErrorEnvelope{
		Error: APIError{
			Message: msg,
			Code:    code,
		},
	})
}

func RespondOK(c *gin.Context, payload any) {
	c.JSON(http.StatusOK, payload)
}

// StatusOfCode maps the purchase error taxonomy onto HTTP statuses.
func StatusOfCode(code string) int {
	switch code {
	case domain.CodeInvalidInput:
		return http.StatusBadRequest
	case domain.CodeInvalidTransition:
		return http.StatusConflict
	case domain.CodeStockUnavailable:
		return http.StatusUnprocessableEntity
	case domain.CodeTermsNotAccepted:
		return http.StatusPreconditionFailed
	case domain.CodeDispatchRejected:
		return http.StatusBadGateway
	case domain.CodeNotFound:
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}

// RespondPurchaseError writes a classified purchase failure, falling back to
// 500 for anything outside the taxonomy.
func RespondPurchaseError(c *gin.Context, err error) {
	var pe *domain.PurchaseError
	if errors.As(err, &pe) {
		c.JSON(StatusOfCode(pe.Code), ErrorEnvelope{
			Error: APIError{
				Message: pe.Message,
				Code:    pe.Code,
				State:   pe.State,
			},
		})
		return
	}
	RespondError(c, http.StatusInternalServerError, "Internal", err)
}
