package middleware

import (
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/leadcollect/cart-recovery/pkg/config"
	"github.com/leadcollect/cart-recovery/pkg/logger"
)

func testLogger() *logger.Logger {
	return logger.New(logger.Options{ServiceName: "test", Output: io.Discard})
}

func secretHandler(t *testing.T, secret string) (http.Handler, *bool) {
	t.Helper()
	reached := false
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		reached = true
		w.WriteHeader(http.StatusOK)
	})
	return SharedSecret(config.APIConfig{Secret: secret}, testLogger())(next), &reached
}

func TestSharedSecretQueryParam(t *testing.T) {
	handler, reached := secretHandler(t, "s3cret")
	req := httptest.NewRequest(http.MethodGet, "/api/leadcollect/carts?secret=s3cret", nil)
	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, req)

	if resp.Code != http.StatusOK || !*reached {
		t.Fatalf("status = %d reached = %v", resp.Code, *reached)
	}
}

func TestSharedSecretHeader(t *testing.T) {
	handler, reached := secretHandler(t, "s3cret")
	req := httptest.NewRequest(http.MethodGet, "/api/leadcollect/carts", nil)
	req.Header.Set("X-LeadCollect-Secret", "s3cret")
	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, req)

	if resp.Code != http.StatusOK || !*reached {
		t.Fatalf("status = %d reached = %v", resp.Code, *reached)
	}
}

func TestSharedSecretMismatch(t *testing.T) {
	handler, reached := secretHandler(t, "s3cret")
	req := httptest.NewRequest(http.MethodGet, "/api/leadcollect/carts?secret=wrong", nil)
	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, req)

	if resp.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 got %d", resp.Code)
	}
	if *reached {
		t.Error("handler must not run on a bad secret")
	}
}

func TestSharedSecretMissing(t *testing.T) {
	handler, reached := secretHandler(t, "s3cret")
	req := httptest.NewRequest(http.MethodGet, "/api/leadcollect/carts", nil)
	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, req)

	if resp.Code != http.StatusUnauthorized || *reached {
		t.Fatalf("status = %d reached = %v", resp.Code, *reached)
	}
}

func TestSharedSecretUnconfigured(t *testing.T) {
	handler, reached := secretHandler(t, "")
	req := httptest.NewRequest(http.MethodGet, "/api/leadcollect/carts?secret=", nil)
	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, req)

	if resp.Code != http.StatusUnauthorized || *reached {
		t.Fatalf("an empty configured secret must never authenticate, status = %d", resp.Code)
	}
}
