package controllers

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/leadcollect/cart-recovery/internal/events"
)

type testOrderRouter struct {
	orders []*events.Order
}

func (r *testOrderRouter) OnOrderPlaced(_ context.Context, order *events.Order) {
	r.orders = append(r.orders, order)
}

func TestOrderPlacedAccepted(t *testing.T) {
	router := &testOrderRouter{}
	body := `{"orderId":"ord-1","orderNumber":"10001","customerId":"cust-1","totalPrice":42.5,"currency":"EUR"}`

	req := httptest.NewRequest(http.MethodPost, "/api/leadcollect/events/order-placed", strings.NewReader(body))
	resp := httptest.NewRecorder()
	OrderPlaced(router, testLogger())(resp, req)

	if resp.Code != http.StatusAccepted {
		t.Fatalf("unexpected status %d", resp.Code)
	}
	if len(router.orders) != 1 || router.orders[0].OrderID != "ord-1" {
		t.Fatalf("orders = %+v", router.orders)
	}
}

func TestOrderPlacedMissingOrderID(t *testing.T) {
	router := &testOrderRouter{}
	req := httptest.NewRequest(http.MethodPost, "/api/leadcollect/events/order-placed", strings.NewReader(`{"customerId":"cust-1"}`))
	resp := httptest.NewRecorder()
	OrderPlaced(router, testLogger())(resp, req)

	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 got %d", resp.Code)
	}
	if len(router.orders) != 0 {
		t.Error("invalid notifications must not be routed")
	}
}

func TestOrderPlacedMalformedBody(t *testing.T) {
	req := httptest.NewRequest(http.MethodPost, "/api/leadcollect/events/order-placed", strings.NewReader("{"))
	resp := httptest.NewRecorder()
	OrderPlaced(&testOrderRouter{}, testLogger())(resp, req)
	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 got %d", resp.Code)
	}
}

func TestOrderPlacedTolerantOfExtraFields(t *testing.T) {
	router := &testOrderRouter{}
	body := `{"orderId":"ord-2","someEngineField":{"nested":true}}`
	req := httptest.NewRequest(http.MethodPost, "/api/leadcollect/events/order-placed", strings.NewReader(body))
	resp := httptest.NewRecorder()
	OrderPlaced(router, testLogger())(resp, req)

	if resp.Code != http.StatusAccepted {
		t.Fatalf("engine payloads grow fields over time, got %d", resp.Code)
	}
}
