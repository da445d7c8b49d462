// Package restore rebuilds a shopper's live cart from an abandoned-cart
// snapshot or from a SKU list carried by a QR/postcard link. Restore always
// ends in a redirect to the storefront cart page, whatever went wrong on the
// way there.
package restore

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/leadcollect/cart-recovery/internal/commerce"
	"github.com/leadcollect/cart-recovery/internal/coupons"
	"github.com/leadcollect/cart-recovery/pkg/logger"
	"github.com/leadcollect/cart-recovery/pkg/types"
)

// CartSource reads and touches stored snapshots.
type CartSource interface {
	FindByToken(ctx context.Context, token string) (*types.CanonicalCart, error)
	TouchByToken(ctx context.Context, token string) error
}

// EngineOps is the slice of the commerce client restore needs.
type EngineOps interface {
	FindProductBySKU(ctx context.Context, sku string) (*commerce.Product, error)
	AddCartItems(ctx context.Context, token string, items []commerce.CartItem) error
	ApplyPromotionCode(ctx context.Context, token, code string) error
}

// MarkerStore provides the durable once-only restore marker.
type MarkerStore interface {
	SetNX(ctx context.Context, key string, value any, ttl time.Duration) (bool, error)
	RestoreMarkerKey(code string) string
}

type Service struct {
	carts       CartSource
	engine      EngineOps
	markers     MarkerStore
	cartPageURL string
	markerTTL   time.Duration
	logg        *logger.Logger
	newToken    func() string
}

func NewService(carts CartSource, engine EngineOps, markers MarkerStore, cartPageURL string, markerTTL time.Duration, logg *logger.Logger) *Service {
	if markerTTL <= 0 {
		markerTTL = 30 * 24 * time.Hour
	}
	return &Service{
		carts:       carts,
		engine:      engine,
		markers:     markers,
		cartPageURL: cartPageURL,
		markerTTL:   markerTTL,
		logg:        logg,
		newToken:    uuid.NewString,
	}
}

// CartPageURL is where every restore redirect lands.
func (s *Service) CartPageURL() string {
	return s.cartPageURL
}

// RestoreByToken rebuilds the live cart from a snapshot. Repeat clicks on
// the same link restore once; the shopper is redirected either way.
func (s *Service) RestoreByToken(ctx context.Context, token, couponCode string) string {
	ctx = s.logg.WithCartToken(ctx, token)

	if !s.markFresh(ctx, "token:"+token) {
		return s.cartPageURL
	}

	cart, err := s.carts.FindByToken(ctx, token)
	if err != nil {
		s.logg.Warn(ctx, "restore link for unknown cart")
		return s.cartPageURL
	}

	items := make([]commerce.CartItem, 0, len(cart.LineItems))
	for _, item := range cart.LineItems {
		items = append(items, commerce.CartItem{ProductID: item.ProductID, Quantity: item.Quantity})
	}
	if err := s.engine.AddCartItems(ctx, token, items); err != nil {
		s.logg.Error(ctx, "restoring cart items failed", err)
		return s.cartPageURL
	}

	s.applyCoupon(ctx, token, couponCode)

	if err := s.carts.TouchByToken(ctx, token); err != nil {
		s.logg.Warn(ctx, "restore touch failed")
	}
	s.logg.Info(s.logg.WithField(ctx, "items", len(items)), "cart restored from snapshot")
	return s.cartPageURL
}

// RestoreBySKUs rebuilds a fresh cart from a SKU list. Quantities pair with
// SKUs by position and coerce to at least 1; unresolvable SKUs are skipped.
// The once-only marker is keyed on the coupon code so a postcard scanned on
// two devices restores once.
func (s *Service) RestoreBySKUs(ctx context.Context, skus []string, quantities []int, couponCode string) string {
	if couponCode != "" && !s.markFresh(ctx, "code:"+couponCode) {
		return s.cartPageURL
	}

	token := s.newToken()
	ctx = s.logg.WithCartToken(ctx, token)

	items := make([]commerce.CartItem, 0, len(skus))
	for i, sku := range skus {
		if sku == "" {
			continue
		}
		product, err := s.engine.FindProductBySKU(ctx, sku)
		if err != nil {
			s.logg.Warn(s.logg.WithField(ctx, "sku", sku), "sku not resolved, skipping")
			continue
		}
		quantity := 1
		if i < len(quantities) && quantities[i] > 0 {
			quantity = quantities[i]
		}
		items = append(items, commerce.CartItem{ProductID: product.ID, Quantity: quantity})
	}

	if len(items) == 0 {
		s.logg.Warn(ctx, "no restorable items in link")
		return s.cartPageURL
	}
	if err := s.engine.AddCartItems(ctx, token, items); err != nil {
		s.logg.Error(ctx, "building cart from link failed", err)
		return s.cartPageURL
	}

	s.applyCoupon(ctx, token, couponCode)

	s.logg.Info(s.logg.WithField(ctx, "items", len(items)), "cart built from restore link")
	return s.cartPageURL
}

func (s *Service) applyCoupon(ctx context.Context, token, couponCode string) {
	if couponCode == "" || !coupons.IsRecoveryCode(couponCode) {
		return
	}
	if err := s.engine.ApplyPromotionCode(ctx, token, couponCode); err != nil {
		s.logg.Warn(s.logg.WithField(ctx, "code", couponCode), "coupon not applied during restore")
	}
}

// markFresh sets the once-only marker. A marker-store outage fails open so
// a flaky Redis never blocks a customer from restoring.
func (s *Service) markFresh(ctx context.Context, id string) bool {
	key := s.markers.RestoreMarkerKey(id)
	fresh, err := s.markers.SetNX(ctx, key, time.Now().UTC().Format(time.RFC3339), s.markerTTL)
	if err != nil {
		s.logg.Warn(s.logg.WithField(ctx, "error", err.Error()), "restore marker unavailable, restoring anyway")
		return true
	}
	if !fresh {
		s.logg.Info(ctx, "repeat restore suppressed")
	}
	return fresh
}
