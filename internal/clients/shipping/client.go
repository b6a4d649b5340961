package shipping

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/yungbote/checkout-backend/internal/domain"
	"github.com/yungbote/checkout-backend/internal/pkg/logger"
	"github.com/yungbote/checkout-backend/internal/utils"
)

const headerIdempotencyKey = "Idempotency-Key"

// Request is the carrier dispatch payload. The carrier request id doubles as
// the idempotency key so a retried call is recognized as the same shipment.
type Request struct {
	CarrierRequestID string                         `json:"carrier_request_id"`
	OwnerID          string                         `json:"usuario_id"`
	Items            map[string]domain.CartItemView `json:"items"`
	Total            decimal.Decimal                `json:"total"`
	Address          string                         `json:"direccion"`
}

// Ack is the carrier's acknowledgement.
type Ack struct {
	Status          string `json:"status"`
	TrackingID      string `json:"tracking_id"`
	ItemsDispatched int    `json:"items_despachados"`
}

// StatusError is a non-2xx carrier response. Satisfies httpx.HTTPStatusCoder
// so callers can classify retryability.
type StatusError struct {
	Code int
	Body string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("shipping API status %d: %s", e.Code, strings.TrimSpace(e.Body))
}

func (e *StatusError) HTTPStatusCode() int { return e.Code }

type Client struct {
	log    *logger.Logger
	apiURL string
	http   *http.Client
}

func NewClient(log *logger.Logger) *Client {
	apiURL := utils.GetEnv("ENVIO_API_URL", "http://localhost:8000/envio/despachar", log)
	return &Client{
		log:    log.With("service", "ShippingClient"),
		apiURL: apiURL,
		http:   &http.Client{Timeout: 5 * time.Second},
	}
}

// Dispatch posts the shipment request to the external carrier. The caller
// owns retries; this client only classifies the outcome.
func (c *Client) Dispatch(ctx context.Context, req Request) (*Ack, error) {
	body, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("marshal dispatch request: %w", err)
	}
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.apiURL, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("build dispatch request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set(headerIdempotencyKey, req.CarrierRequestID)

	resp, err := c.http.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("call shipping API: %w", err)
	}
	defer resp.Body.Close()

	raw, _ := io.ReadAll(io.LimitReader(resp.Body, 1<<16))
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &StatusError{Code: resp.StatusCode, Body: string(raw)}
	}

	var ack Ack
	if err := json.Unmarshal(raw, &ack); err != nil {
		return nil, fmt.Errorf("decode shipping ack: %w", err)
	}
	c.log.Info("Shipping API accepted dispatch", "usuario_id", req.OwnerID, "tracking_id", ack.TrackingID)
	return &ack, nil
}
