package controllers

import (
	"context"
	"net/http"
	"strings"

	"github.com/leadcollect/cart-recovery/api/validators"
	"github.com/leadcollect/cart-recovery/pkg/logger"
)

// Restorer rebuilds carts from snapshots or SKU lists and always hands back
// the storefront cart URL.
type Restorer interface {
	RestoreByToken(ctx context.Context, token, couponCode string) string
	RestoreBySKUs(ctx context.Context, skus []string, quantities []int, couponCode string) string
	CartPageURL() string
}

// RestoreByToken handles the email restore link. Whatever happens, the
// shopper lands on the cart page.
func RestoreByToken(svc Restorer, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		token := strings.TrimSpace(r.URL.Query().Get("token"))
		coupon := strings.TrimSpace(r.URL.Query().Get("coupon"))

		target := svc.CartPageURL()
		if token != "" {
			target = svc.RestoreByToken(r.Context(), token, coupon)
		} else if logg != nil {
			logg.Warn(r.Context(), "restore link without token")
		}

		http.Redirect(w, r, target, http.StatusFound)
	}
}

// RestoreBySKUs handles the QR/postcard restore link carrying a SKU list.
func RestoreBySKUs(svc Restorer, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		skus := validators.ParseCSV(r, "sku")
		quantities := validators.ParseCSVInts(r, "q")
		coupon := strings.TrimSpace(r.URL.Query().Get("c"))

		target := svc.CartPageURL()
		if len(skus) > 0 {
			target = svc.RestoreBySKUs(r.Context(), skus, quantities, coupon)
		} else if logg != nil {
			logg.Warn(r.Context(), "restore link without skus")
		}

		http.Redirect(w, r, target, http.StatusFound)
	}
}
