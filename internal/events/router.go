// Package events orchestrates the side effects of cart and order lifecycle
// events. Each side effect is isolated: one failing never aborts the others.
package events

import (
	"context"
	"time"

	"github.com/leadcollect/cart-recovery/internal/commerce"
	"github.com/leadcollect/cart-recovery/internal/coupons"
	"github.com/leadcollect/cart-recovery/internal/settings"
	"github.com/leadcollect/cart-recovery/internal/webhook"
	"github.com/leadcollect/cart-recovery/pkg/enums"
	"github.com/leadcollect/cart-recovery/pkg/logger"
	"github.com/leadcollect/cart-recovery/pkg/types"
)

// Deliverer sends one webhook event to a resolved endpoint.
type Deliverer interface {
	DeliverTo(ctx context.Context, event webhook.Event, endpoint webhook.Endpoint) (webhook.Result, error)
}

// EndpointSource resolves the delivery endpoint for a sales channel, falling
// back to the global scope.
type EndpointSource interface {
	ResolveWebhook(ctx context.Context, salesChannelID string) settings.WebhookSettings
}

// CouponIssuer is the slice of the coupon gateway the router consumes.
type CouponIssuer interface {
	Issue(ctx context.Context, customerID, cartToken, salesChannelID string) (*coupons.Grant, error)
	MarkRedeemed(ctx context.Context, code string) error
}

// CartStore clears stale snapshots after an order lands.
type CartStore interface {
	DeleteByCustomer(ctx context.Context, customerID string) error
}

// PromotionLookup resolves a promotion when an order line carries only the
// promotion id.
type PromotionLookup interface {
	GetPromotion(ctx context.Context, promotionID string) (*commerce.Promotion, error)
}

// Guard provides the durable at-most-once marker per (event, identifier).
type Guard interface {
	SetNX(ctx context.Context, key string, value any, ttl time.Duration) (bool, error)
	IdempotencyKey(scope, id string) string
}

type Router struct {
	deliverer  Deliverer
	endpoints  EndpointSource
	coupons    CouponIssuer
	carts      CartStore
	promotions PromotionLookup
	guard      Guard
	guardTTL   time.Duration
	logg       *logger.Logger
}

func NewRouter(deliverer Deliverer, endpoints EndpointSource, couponGateway CouponIssuer, cartStore CartStore, promotions PromotionLookup, guard Guard, guardTTL time.Duration, logg *logger.Logger) *Router {
	if guardTTL <= 0 {
		guardTTL = 30 * 24 * time.Hour
	}
	return &Router{
		deliverer:  deliverer,
		endpoints:  endpoints,
		coupons:    couponGateway,
		carts:      cartStore,
		promotions: promotions,
		guard:      guard,
		guardTTL:   guardTTL,
		logg:       logg,
	}
}

// deliver resolves the endpoint for the event's sales channel before posting,
// so per-channel webhook overrides apply without a restart.
func (r *Router) deliver(ctx context.Context, salesChannelID string, event webhook.Event) error {
	resolved := r.endpoints.ResolveWebhook(ctx, salesChannelID)
	_, err := r.deliverer.DeliverTo(ctx, event, webhook.Endpoint{
		URL:     resolved.URL,
		Secret:  resolved.Secret,
		Enabled: resolved.Enabled,
	})
	return err
}

// OnCartAbandoned issues a coupon and dispatches the cart_abandoned webhook.
// Coupon issuance always completes, success or failure, before the payload
// is built so the payload reflects final coupon state.
func (r *Router) OnCartAbandoned(ctx context.Context, cart *types.CanonicalCart) {
	ctx = r.logg.WithCartToken(ctx, cart.CartToken)
	ctx = r.logg.WithEventType(ctx, string(enums.EventCartAbandoned))

	if !r.markOnce(ctx, enums.EventCartAbandoned, cart.CartToken) {
		return
	}

	var grant *coupons.Grant
	issued, err := r.coupons.Issue(ctx, cart.CustomerID, cart.CartToken, cart.SalesChannelID)
	if err != nil {
		r.logg.Error(ctx, "coupon issuance failed, continuing without coupon", err)
	} else {
		grant = issued
	}

	payload := map[string]any{
		"cartToken":  cart.CartToken,
		"customerId": cart.CustomerID,
		"cartTotal":  cart.TotalPrice,
		"currency":   cart.Currency,
		"lineItems":  cart.LineItems,
		"timestamp":  time.Now().UTC().Format(time.RFC3339),
	}
	if cart.SalesChannelID != "" {
		payload["salesChannelId"] = cart.SalesChannelID
	}
	if cart.Customer != nil {
		payload["customer"] = cart.Customer
	}
	if grant != nil {
		payload["coupon"] = grant
	}

	if err := r.deliver(ctx, cart.SalesChannelID, webhook.NewEvent(enums.EventCartAbandoned, payload)); err != nil {
		r.logg.Warn(r.logg.WithField(ctx, "error", err.Error()), "cart_abandoned webhook not delivered")
	}
}

// OnAbandonedCartUpdated is intentionally a no-op: incremental cart edits
// must not produce webhook spam.
func (r *Router) OnAbandonedCartUpdated(ctx context.Context, cart *types.CanonicalCart) {
	ctx = r.logg.WithCartToken(ctx, cart.CartToken)
	r.logg.Debug(ctx, "abandoned cart updated, no event routed")
}

// OnOrderPlaced emits order_placed (and coupon_redeemed when a recovery code
// was used) and clears the customer's stale snapshot. Guest orders are
// skipped entirely.
func (r *Router) OnOrderPlaced(ctx context.Context, order *Order) {
	if order.IsGuest() {
		r.logg.Debug(ctx, "guest order skipped, no customer to track")
		return
	}

	ctx = r.logg.WithCustomerID(ctx, order.CustomerID)
	ctx = r.logg.WithEventType(ctx, string(enums.EventOrderPlaced))

	if !r.markOnce(ctx, enums.EventOrderPlaced, order.OrderID) {
		return
	}

	code := r.extractRecoveryCode(ctx, order)

	payload := map[string]any{
		"orderId":     order.OrderID,
		"orderNumber": order.OrderNumber,
		"customerId":  order.CustomerID,
		"totalPrice":  order.TotalPrice,
		"currency":    order.Currency,
		"timestamp":   time.Now().UTC().Format(time.RFC3339),
	}
	if order.SalesChannelID != "" {
		payload["salesChannelId"] = order.SalesChannelID
	}
	if code != "" {
		payload["couponCode"] = code
	}

	if err := r.deliver(ctx, order.SalesChannelID, webhook.NewEvent(enums.EventOrderPlaced, payload)); err != nil {
		r.logg.Warn(r.logg.WithField(ctx, "error", err.Error()), "order_placed webhook not delivered")
	}

	if code != "" {
		r.emitCouponRedeemed(ctx, order, code)
	}

	// Cleanup runs regardless of webhook outcomes.
	if err := r.carts.DeleteByCustomer(ctx, order.CustomerID); err != nil {
		r.logg.Error(ctx, "stale cart cleanup failed", err)
	}
}

func (r *Router) emitCouponRedeemed(ctx context.Context, order *Order, code string) {
	if err := r.coupons.MarkRedeemed(ctx, code); err != nil {
		r.logg.Warn(r.logg.WithField(ctx, "code", code), "coupon redemption not recorded")
	}
	payload := map[string]any{
		"couponCode": code,
		"orderId":    order.OrderID,
		"orderValue": order.TotalPrice,
		"customerId": order.CustomerID,
		"timestamp":  time.Now().UTC().Format(time.RFC3339),
	}
	if err := r.deliver(ctx, order.SalesChannelID, webhook.NewEvent(enums.EventCouponRedeemed, payload)); err != nil {
		r.logg.Warn(r.logg.WithField(ctx, "error", err.Error()), "coupon_redeemed webhook not delivered")
	}
}

// extractRecoveryCode scans promotion line items for a COMEBACK code, either
// embedded directly or resolved through a promotion-id lookup. Lookup
// failures mean the code is treated as absent, never fatal.
func (r *Router) extractRecoveryCode(ctx context.Context, order *Order) string {
	for _, item := range order.LineItems {
		if enums.ClassifyLineItemType(item.Type) != enums.LineItemPromotion {
			continue
		}
		if coupons.IsRecoveryCode(item.Code) {
			return item.Code
		}
		if coupons.IsRecoveryCode(item.ReferencedID) {
			return item.ReferencedID
		}
		promotionID := item.PromotionID
		if promotionID == "" {
			promotionID = item.ReferencedID
		}
		if promotionID == "" {
			continue
		}
		promotion, err := r.promotions.GetPromotion(ctx, promotionID)
		if err != nil {
			r.logg.Warn(r.logg.WithField(ctx, "promotionId", promotionID), "promotion lookup failed, treating code as absent")
			continue
		}
		if coupons.IsRecoveryCode(promotion.Code) {
			return promotion.Code
		}
	}
	return ""
}

// markOnce sets the durable idempotency marker. A duplicate is a logged
// no-op; a guard backend failure lets the event through, preferring a
// possible duplicate webhook over a silently dropped one.
func (r *Router) markOnce(ctx context.Context, eventType enums.WebhookEventType, id string) bool {
	key := r.guard.IdempotencyKey("evt:"+string(eventType), id)
	fresh, err := r.guard.SetNX(ctx, key, time.Now().UTC().Format(time.RFC3339), r.guardTTL)
	if err != nil {
		r.logg.Warn(r.logg.WithField(ctx, "error", err.Error()), "idempotency guard unavailable, processing anyway")
		return true
	}
	if !fresh {
		r.logg.Info(ctx, "duplicate event suppressed")
		return false
	}
	return true
}
