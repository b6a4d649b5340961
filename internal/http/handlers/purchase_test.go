package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"

	"github.com/yungbote/checkout-backend/internal/domain"
)

type fakePurchaseService struct {
	addItemResult *domain.AddItemResult
	snapshot      *domain.CartSnapshot
	result        *domain.PurchaseResult
	err           error

	lastOwner string
	lastItem  domain.CartItem
	cancelled bool
	confirmed bool
}

func (f *fakePurchaseService) StartPurchase(ctx context.Context, ownerID string) (string, bool, error) {
	f.lastOwner = ownerID
	return "terminos-workflow-" + ownerID, false, f.err
}

func (f *fakePurchaseService) AddItem(ctx context.Context, ownerID string, item domain.CartItem) (*domain.AddItemResult, error) {
	f.lastOwner = ownerID
	f.lastItem = item
	return f.addItemResult, f.err
}

func (f *fakePurchaseService) RemoveItem(ctx context.Context, ownerID, itemID string) error {
	f.lastOwner = ownerID
	return f.err
}

func (f *fakePurchaseService) AcceptTerms(ctx context.Context, ownerID string) error {
	f.lastOwner = ownerID
	return f.err
}

func (f *fakePurchaseService) CompletePurchase(ctx context.Context, ownerID string) (*domain.CartSnapshot, error) {
	f.lastOwner = ownerID
	return f.snapshot, f.err
}

func (f *fakePurchaseService) ConfirmDelivery(ctx context.Context, ownerID string) error {
	f.lastOwner = ownerID
	f.confirmed = true
	return f.err
}

func (f *fakePurchaseService) Cancel(ctx context.Context, ownerID string) error {
	f.lastOwner = ownerID
	f.cancelled = true
	return f.err
}

func (f *fakePurchaseService) GetCartState(ctx context.Context, ownerID string) (*domain.CartSnapshot, error) {
	f.lastOwner = ownerID
	return f.snapshot, f.err
}

func (f *fakePurchaseService) ResultOf(ctx context.Context, ownerID string) (*domain.PurchaseResult, error) {
	return f.result, f.err
}

func newPurchaseRouter(svc *fakePurchaseService) *gin.Engine {
	gin.SetMode(gin.TestMode)
	h := NewPurchaseHandler(svc)
	r := gin.New()
	r.POST("/iniciar-workflow/terminos", h.StartPurchase)
	r.POST("/carrito/agregar-item", h.AddItem)
	r.POST("/carrito/remover-item", h.RemoveItem)
	r.GET("/carrito/:usuario_id", h.GetCart)
	r.POST("/terminos/aceptar", h.AcceptTerms)
	r.POST("/compra/completar", h.CompletePurchase)
	r.POST("/compra/cancelar", h.Cancel)
	r.POST("/envio/confirmar-recepcion", h.ConfirmDelivery)
	return r
}

func doJSON(t *testing.T, r *gin.Engine, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("encode body: %v", err)
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestStartPurchaseRequiresOwner(t *testing.T) {
	r := newPurchaseRouter(&fakePurchaseService{})
	w := doJSON(t, r, http.MethodPost, "/iniciar-workflow/terminos", map[string]any{})
	if w.Code != http.StatusBadRequest {
		t.Fatalf("status: want=400 got=%d", w.Code)
	}
}

func TestStartPurchaseOK(t *testing.T) {
	svc := &fakePurchaseService{}
	r := newPurchaseRouter(svc)
	w := doJSON(t, r, http.MethodPost, "/iniciar-workflow/terminos", map[string]any{"usuario_id": "user-1"})
	if w.Code != http.StatusOK {
		t.Fatalf("status: want=200 got=%d body=%s", w.Code, w.Body.String())
	}
	if svc.lastOwner != "user-1" {
		t.Fatalf("owner: want=user-1 got=%s", svc.lastOwner)
	}
	var body map[string]any
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode body: %v", err)
	}
	if body["workflow_id"] != "terminos-workflow-user-1" {
		t.Fatalf("workflow_id: got=%v", body["workflow_id"])
	}
}

func TestAddItemForwardsPayload(t *testing.T) {
	svc := &fakePurchaseService{
		addItemResult: &domain.AddItemResult{ItemID: "item-1", Quantity: 2},
	}
	r := newPurchaseRouter(svc)
	w := doJSON(t, r, http.MethodPost, "/carrito/agregar-item", map[string]any{
		"usuario_id": "user-1",
		"item_id":    "item-1",
		"nombre":     "Laptop",
		"precio":     "1200.50",
		"cantidad":   2,
	})
	if w.Code != http.StatusOK {
		t.Fatalf("status: want=200 got=%d body=%s", w.Code, w.Body.String())
	}
	if svc.lastItem.ItemID != "item-1" || svc.lastItem.Quantity != 2 {
		t.Fatalf("forwarded item: %+v", svc.lastItem)
	}
	if !svc.lastItem.UnitPrice.Equal(decimal.RequireFromString("1200.50")) {
		t.Fatalf("forwarded price: %s", svc.lastItem.UnitPrice)
	}
}

func TestPurchaseErrorMapping(t *testing.T) {
	cases := []struct {
		code string
		want int
	}{
		{domain.CodeInvalidInput, http.StatusBadRequest},
		{domain.CodeInvalidTransition, http.StatusConflict},
		{domain.CodeStockUnavailable, http.StatusUnprocessableEntity},
		{domain.CodeTermsNotAccepted, http.StatusPreconditionFailed},
		{domain.CodeDispatchRejected, http.StatusBadGateway},
		{domain.CodeNotFound, http.StatusNotFound},
	}
	for _, tc := range cases {
		t.Run(tc.code, func(t *testing.T) {
			svc := &fakePurchaseService{
				err: domain.NewPurchaseError(tc.code, domain.StateAcceptingItems, "rechazado"),
			}
			r := newPurchaseRouter(svc)
			w := doJSON(t, r, http.MethodPost, "/compra/completar", map[string]any{"usuario_id": "user-1"})
			if w.Code != tc.want {
				t.Fatalf("status for %s: want=%d got=%d", tc.code, tc.want, w.Code)
			}
			var envelope struct {
				Error struct {
					Code  string `json:"code"`
					State string `json:"estado"`
				} `json:"error"`
			}
			if err := json.Unmarshal(w.Body.Bytes(), &envelope); err != nil {
				t.Fatalf("decode body: %v", err)
			}
			if envelope.Error.Code != tc.code {
				t.Fatalf("error code: want=%s got=%s", tc.code, envelope.Error.Code)
			}
			if envelope.Error.State != string(domain.StateAcceptingItems) {
				t.Fatalf("error state: want=%s got=%s", domain.StateAcceptingItems, envelope.Error.State)
			}
		})
	}
}

func TestGetCartReturnsSnapshot(t *testing.T) {
	svc := &fakePurchaseService{
		snapshot: &domain.CartSnapshot{
			Items: map[string]domain.CartItemView{
				"item-1": {Name: "Laptop", UnitPrice: decimal.RequireFromString("1200.50"), Quantity: 1, Subtotal: decimal.RequireFromString("1200.50")},
			},
			Total: decimal.RequireFromString("1200.50"),
			State: domain.StateAcceptingItems,
		},
	}
	r := newPurchaseRouter(svc)
	w := doJSON(t, r, http.MethodGet, "/carrito/user-1", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("status: want=200 got=%d", w.Code)
	}
	if svc.lastOwner != "user-1" {
		t.Fatalf("owner: want=user-1 got=%s", svc.lastOwner)
	}
	var snap domain.CartSnapshot
	if err := json.Unmarshal(w.Body.Bytes(), &snap); err != nil {
		t.Fatalf("decode snapshot: %v", err)
	}
	if snap.State != domain.StateAcceptingItems || len(snap.Items) != 1 {
		t.Fatalf("snapshot: %+v", snap)
	}
}

func TestConfirmDeliveryReturnsFinalResult(t *testing.T) {
	svc := &fakePurchaseService{
		result: &domain.PurchaseResult{
			OwnerID: "user-1",
			State:   domain.StateDelivered,
			Outcome: domain.OutcomeDelivered,
			Total:   decimal.RequireFromString("1252.48"),
		},
	}
	r := newPurchaseRouter(svc)
	w := doJSON(t, r, http.MethodPost, "/envio/confirmar-recepcion", map[string]any{"usuario_id": "user-1"})
	if w.Code != http.StatusOK {
		t.Fatalf("status: want=200 got=%d body=%s", w.Code, w.Body.String())
	}
	if !svc.confirmed {
		t.Fatalf("service confirm not called")
	}
	var body struct {
		Resultado domain.PurchaseResult `json:"resultado"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode body: %v", err)
	}
	if body.Resultado.Outcome != domain.OutcomeDelivered {
		t.Fatalf("outcome: want=%s got=%s", domain.OutcomeDelivered, body.Resultado.Outcome)
	}
}

func TestCancelDelegates(t *testing.T) {
	svc := &fakePurchaseService{}
	r := newPurchaseRouter(svc)
	w := doJSON(t, r, http.MethodPost, "/compra/cancelar", map[string]any{"usuario_id": "user-1"})
	if w.Code != http.StatusOK {
		t.Fatalf("status: want=200 got=%d", w.Code)
	}
	if !svc.cancelled {
		t.Fatalf("service cancel not called")
	}
}
