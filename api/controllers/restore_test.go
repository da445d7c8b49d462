package controllers

import (
	"context"
	"net/http"
	"net/http/httptest"
	"reflect"
	"strings"
	"testing"
)

const cartPage = "https://shop.example/checkout/cart"

type testRestorer struct {
	tokens     []string
	skus       [][]string
	quantities [][]int
	coupons    []string
}

func (s *testRestorer) RestoreByToken(_ context.Context, token, couponCode string) string {
	s.tokens = append(s.tokens, token)
	s.coupons = append(s.coupons, couponCode)
	return cartPage
}

func (s *testRestorer) RestoreBySKUs(_ context.Context, skus []string, quantities []int, couponCode string) string {
	s.skus = append(s.skus, skus)
	s.quantities = append(s.quantities, quantities)
	s.coupons = append(s.coupons, couponCode)
	return cartPage
}

func (s *testRestorer) CartPageURL() string {
	return cartPage
}

func TestRestoreByTokenRedirects(t *testing.T) {
	svc := &testRestorer{}
	req := httptest.NewRequest(http.MethodGet, "/leadcollect-restore?token=tok-1&coupon=COMEBACK-AB12CD", nil)
	resp := httptest.NewRecorder()
	RestoreByToken(svc, testLogger())(resp, req)

	if resp.Code != http.StatusFound {
		t.Fatalf("unexpected status %d", resp.Code)
	}
	if loc := resp.Header().Get("Location"); loc != cartPage {
		t.Errorf("location = %q", loc)
	}
	if len(svc.tokens) != 1 || svc.tokens[0] != "tok-1" {
		t.Errorf("tokens = %v", svc.tokens)
	}
	if svc.coupons[0] != "COMEBACK-AB12CD" {
		t.Errorf("coupon = %q", svc.coupons[0])
	}
}

func TestRestoreByTokenWithoutTokenStillRedirects(t *testing.T) {
	svc := &testRestorer{}
	req := httptest.NewRequest(http.MethodGet, "/leadcollect-restore", nil)
	resp := httptest.NewRecorder()
	RestoreByToken(svc, testLogger())(resp, req)

	if resp.Code != http.StatusFound {
		t.Fatalf("unexpected status %d", resp.Code)
	}
	if loc := resp.Header().Get("Location"); loc != cartPage {
		t.Errorf("location = %q", loc)
	}
	if len(svc.tokens) != 0 {
		t.Error("restore must not run without a token")
	}
}

func TestRestoreBySKUsParsesLists(t *testing.T) {
	svc := &testRestorer{}
	req := httptest.NewRequest(http.MethodGet, "/leadcollect/restore?sku=SKU-1,SKU-2,%20SKU-3&q=2,x&c=COMEBACK-ZZ99YY", nil)
	resp := httptest.NewRecorder()
	RestoreBySKUs(svc, testLogger())(resp, req)

	if resp.Code != http.StatusFound {
		t.Fatalf("unexpected status %d", resp.Code)
	}
	if len(svc.skus) != 1 || !reflect.DeepEqual(svc.skus[0], []string{"SKU-1", "SKU-2", "SKU-3"}) {
		t.Errorf("skus = %v", svc.skus)
	}
	if !reflect.DeepEqual(svc.quantities[0], []int{2, 0}) {
		t.Errorf("quantities = %v", svc.quantities)
	}
	if svc.coupons[0] != "COMEBACK-ZZ99YY" {
		t.Errorf("coupon = %q", svc.coupons[0])
	}
}

func TestRestoreBySKUsKeepsPairingWithEmptyEntries(t *testing.T) {
	svc := &testRestorer{}
	req := httptest.NewRequest(http.MethodGet, "/leadcollect/restore?sku=SKU-1,,SKU-3&q=1,2,3", nil)
	resp := httptest.NewRecorder()
	RestoreBySKUs(svc, testLogger())(resp, req)

	if resp.Code != http.StatusFound {
		t.Fatalf("unexpected status %d", resp.Code)
	}
	// An empty entry must not shift later SKUs onto the wrong quantity.
	if !reflect.DeepEqual(svc.skus[0], []string{"SKU-1", "", "SKU-3"}) {
		t.Errorf("skus = %v", svc.skus[0])
	}
	if !reflect.DeepEqual(svc.quantities[0], []int{1, 2, 3}) {
		t.Errorf("quantities = %v", svc.quantities[0])
	}
}

func TestRestoreBySKUsWithoutSKUsStillRedirects(t *testing.T) {
	svc := &testRestorer{}
	req := httptest.NewRequest(http.MethodGet, "/leadcollect/restore?c=COMEBACK-AB12CD", nil)
	resp := httptest.NewRecorder()
	RestoreBySKUs(svc, testLogger())(resp, req)

	if resp.Code != http.StatusFound {
		t.Fatalf("unexpected status %d", resp.Code)
	}
	if len(svc.skus) != 0 {
		t.Error("restore must not run without skus")
	}
}

func TestHealthShape(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/api/leadcollect/health", nil)
	resp := httptest.NewRecorder()
	Health()(resp, req)

	if resp.Code != http.StatusOK {
		t.Fatalf("unexpected status %d", resp.Code)
	}
	body := resp.Body.String()
	for _, want := range []string{`"status":"ok"`, `"plugin":"LeadCollect-CartRecovery"`, `"version":"1.0.0"`, `"timestamp"`} {
		if !strings.Contains(body, want) {
			t.Errorf("health body missing %s: %s", want, body)
		}
	}
}
