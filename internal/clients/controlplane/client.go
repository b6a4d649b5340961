package controlplane

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"github.com/yungbote/checkout-backend/internal/pkg/logger"
	"github.com/yungbote/checkout-backend/internal/utils"
)

// Heartbeat is the worker liveness report the control plane aggregates.
type Heartbeat struct {
	TaskQueue string `json:"task_queue"`
	WorkerID  string `json:"worker_id"`
	Version   string `json:"version,omitempty"`
}

type Client struct {
	log     *logger.Logger
	baseURL string
	http    *http.Client
}

// NewClient returns nil when CONTROL_PLANE_URL is unset; heartbeating is
// strictly optional.
func NewClient(log *logger.Logger) *Client {
	baseURL := strings.TrimSpace(utils.GetEnv("CONTROL_PLANE_URL", "", log))
	if baseURL == "" {
		return nil
	}
	return &Client{
		log:     log.With("service", "ControlPlaneClient"),
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: 2 * time.Second},
	}
}

func (c *Client) Send(ctx context.Context, hb Heartbeat) error {
	body, err := json.Marshal(hb)
	if err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/workers/heartbeat", bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	_ = resp.Body.Close()
	return nil
}

// Run posts heartbeats until ctx is cancelled. Failures are logged and
// swallowed; a dead control plane must not take the worker down with it.
func (c *Client) Run(ctx context.Context, hb Heartbeat, interval time.Duration) {
	if c == nil {
		return
	}
	if interval <= 0 {
		interval = 5 * time.Second
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := c.Send(ctx, hb); err != nil {
				c.log.Debug("Control plane heartbeat failed", "error", err)
			}
		}
	}
}
