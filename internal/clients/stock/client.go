package stock

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/yungbote/checkout-backend/internal/pkg/logger"
	"github.com/yungbote/checkout-backend/internal/utils"
)

// Result is the inventory source's answer for a prospective quantity.
type Result struct {
	Sufficient bool `json:"suficiente"`
	Available  int  `json:"disponible"`
}

// Checker is the synchronous stock predicate consulted before any cart
// mutation is committed.
type Checker interface {
	Check(ctx context.Context, itemID string, quantity int) (Result, error)
}

type Client struct {
	log         *logger.Logger
	apiURL      string
	staticLimit int
	http        *http.Client
}

// NewClient builds the inventory client. Without STOCK_API_URL it falls back
// to a static per-item availability limit, which keeps local setups working
// with no inventory service running.
func NewClient(log *logger.Logger) *Client {
	return &Client{
		log:         log.With("service", "StockClient"),
		apiURL:      utils.GetEnv("STOCK_API_URL", "", log),
		staticLimit: utils.GetEnvAsInt("STOCK_STATIC_LIMIT", 5, log),
		http:        &http.Client{Timeout: 3 * time.Second},
	}
}

func (c *Client) Check(ctx context.Context, itemID string, quantity int) (Result, error) {
	if c.apiURL == "" {
		return Result{Sufficient: quantity <= c.staticLimit, Available: c.staticLimit}, nil
	}

	q := url.Values{}
	q.Set("item_id", itemID)
	q.Set("cantidad", strconv.Itoa(quantity))
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.apiURL+"?"+q.Encode(), nil)
	if err != nil {
		return Result{}, fmt.Errorf("build stock request: %w", err)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return Result{}, fmt.Errorf("call stock API: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return Result{}, fmt.Errorf("stock API status %d", resp.StatusCode)
	}

	var out Result
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return Result{}, fmt.Errorf("decode stock response: %w", err)
	}
	return out, nil
}
