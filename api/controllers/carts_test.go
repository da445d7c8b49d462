package controllers

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/leadcollect/cart-recovery/pkg/logger"
	"github.com/leadcollect/cart-recovery/pkg/types"
)

func testLogger() *logger.Logger {
	return logger.New(logger.Options{ServiceName: "test", Output: io.Discard})
}

type testCartLister struct {
	listFn func(ctx context.Context, minAge time.Duration, limit int) ([]types.CanonicalCart, error)
}

func (s *testCartLister) ListRecoverable(ctx context.Context, minAge time.Duration, limit int) ([]types.CanonicalCart, error) {
	if s.listFn != nil {
		return s.listFn(ctx, minAge, limit)
	}
	return nil, nil
}

func TestListCartsDefaults(t *testing.T) {
	var gotMinAge time.Duration
	var gotLimit int
	svc := &testCartLister{listFn: func(_ context.Context, minAge time.Duration, limit int) ([]types.CanonicalCart, error) {
		gotMinAge = minAge
		gotLimit = limit
		return []types.CanonicalCart{{CartToken: "tok-1"}}, nil
	}}

	req := httptest.NewRequest(http.MethodGet, "/api/leadcollect/carts", nil)
	resp := httptest.NewRecorder()
	ListCarts(svc, testLogger())(resp, req)

	if resp.Code != http.StatusOK {
		t.Fatalf("unexpected status %d", resp.Code)
	}
	if gotMinAge != time.Hour {
		t.Errorf("min age = %s", gotMinAge)
	}
	if gotLimit != 100 {
		t.Errorf("limit = %d", gotLimit)
	}

	var body struct {
		Success       bool              `json:"success"`
		Count         int               `json:"count"`
		Carts         []json.RawMessage `json:"carts"`
		QueriedAt     string            `json:"queriedAt"`
		MinAgeSeconds int               `json:"minAgeSeconds"`
	}
	if err := json.Unmarshal(resp.Body.Bytes(), &body); err != nil {
		t.Fatalf("unmarshal response: %v", err)
	}
	if !body.Success || body.Count != 1 || len(body.Carts) != 1 {
		t.Errorf("body = %+v", body)
	}
	if body.MinAgeSeconds != 3600 {
		t.Errorf("minAgeSeconds = %d", body.MinAgeSeconds)
	}
	if body.QueriedAt == "" {
		t.Error("queriedAt missing")
	}
}

func TestListCartsCustomWindow(t *testing.T) {
	var gotMinAge time.Duration
	var gotLimit int
	svc := &testCartLister{listFn: func(_ context.Context, minAge time.Duration, limit int) ([]types.CanonicalCart, error) {
		gotMinAge = minAge
		gotLimit = limit
		return nil, nil
	}}

	req := httptest.NewRequest(http.MethodGet, "/api/leadcollect/carts?min_age=7200&limit=25", nil)
	resp := httptest.NewRecorder()
	ListCarts(svc, testLogger())(resp, req)

	if resp.Code != http.StatusOK {
		t.Fatalf("unexpected status %d", resp.Code)
	}
	if gotMinAge != 2*time.Hour || gotLimit != 25 {
		t.Errorf("minAge = %s limit = %d", gotMinAge, gotLimit)
	}

	var body struct {
		Count int               `json:"count"`
		Carts []json.RawMessage `json:"carts"`
	}
	if err := json.Unmarshal(resp.Body.Bytes(), &body); err != nil {
		t.Fatalf("unmarshal response: %v", err)
	}
	if body.Carts == nil {
		t.Error("empty result must serialize as [], not null")
	}
}

func TestListCartsRejectsOversizedLimit(t *testing.T) {
	called := false
	svc := &testCartLister{listFn: func(context.Context, time.Duration, int) ([]types.CanonicalCart, error) {
		called = true
		return nil, nil
	}}

	req := httptest.NewRequest(http.MethodGet, "/api/leadcollect/carts?limit=9999", nil)
	resp := httptest.NewRecorder()
	ListCarts(svc, testLogger())(resp, req)

	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 got %d", resp.Code)
	}
	if called {
		t.Error("service must not be called on invalid input")
	}
}

func TestListCartsRejectsNonNumericMinAge(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/api/leadcollect/carts?min_age=soon", nil)
	resp := httptest.NewRecorder()
	ListCarts(&testCartLister{}, testLogger())(resp, req)
	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 got %d", resp.Code)
	}
}

func TestListCartsServiceError(t *testing.T) {
	svc := &testCartLister{listFn: func(context.Context, time.Duration, int) ([]types.CanonicalCart, error) {
		return nil, errors.New("db down")
	}}
	req := httptest.NewRequest(http.MethodGet, "/api/leadcollect/carts", nil)
	resp := httptest.NewRecorder()
	ListCarts(svc, testLogger())(resp, req)
	if resp.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500 got %d", resp.Code)
	}
}
