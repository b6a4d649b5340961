package stock

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/yungbote/checkout-backend/internal/pkg/logger"
)

func testClient(t *testing.T, url string, limit int) *Client {
	t.Helper()
	log, err := logger.New("test")
	if err != nil {
		t.Fatalf("logger.New: %v", err)
	}
	return &Client{
		log:         log,
		apiURL:      url,
		staticLimit: limit,
		http:        &http.Client{Timeout: time.Second},
	}
}

func TestCheckStaticFallback(t *testing.T) {
	c := testClient(t, "", 5)

	res, err := c.Check(context.Background(), "item-1", 5)
	if err != nil {
		t.Fatalf("Check: %v", err)
	}
	if !res.Sufficient {
		t.Fatalf("quantity at the limit must be sufficient")
	}

	res, err = c.Check(context.Background(), "item-1", 6)
	if err != nil {
		t.Fatalf("Check: %v", err)
	}
	if res.Sufficient {
		t.Fatalf("quantity over the limit must be insufficient")
	}
	if res.Available != 5 {
		t.Fatalf("available: want=5 got=%d", res.Available)
	}
}

func TestCheckQueriesInventoryAPI(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.URL.Query().Get("item_id"); got != "item-2" {
			t.Errorf("item_id: want=item-2 got=%s", got)
		}
		if got := r.URL.Query().Get("cantidad"); got != "3" {
			t.Errorf("cantidad: want=3 got=%s", got)
		}
		json.NewEncoder(w).Encode(Result{Sufficient: true, Available: 7})
	}))
	defer srv.Close()

	c := testClient(t, srv.URL, 5)
	res, err := c.Check(context.Background(), "item-2", 3)
	if err != nil {
		t.Fatalf("Check: %v", err)
	}
	if !res.Sufficient || res.Available != 7 {
		t.Fatalf("result: %+v", res)
	}
}

func TestCheckAPIErrorPropagates(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusInternalServerError)
	}))
	defer srv.Close()

	c := testClient(t, srv.URL, 5)
	if _, err := c.Check(context.Background(), "item-1", 1); err == nil {
		t.Fatalf("expected error from 500 response")
	}
}
