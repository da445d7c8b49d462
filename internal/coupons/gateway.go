// Package coupons issues recovery coupon codes through the commerce
// engine's promotion subsystem and records grants locally.
package coupons

import (
	"context"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/leadcollect/cart-recovery/internal/commerce"
	"github.com/leadcollect/cart-recovery/internal/settings"
	"github.com/leadcollect/cart-recovery/pkg/db/models"
	"github.com/leadcollect/cart-recovery/pkg/logger"
)

// Grant is the issued coupon handed back to the event router.
type Grant struct {
	Code       string    `json:"code"`
	Type       string    `json:"type"`
	Value      float64   `json:"value"`
	ValidUntil time.Time `json:"validUntil"`
}

// PromotionEngine is the slice of the commerce client the gateway needs.
type PromotionEngine interface {
	EnsurePromotion(ctx context.Context, spec commerce.PromotionSpec) (*commerce.Promotion, error)
	CreateIndividualCode(ctx context.Context, promotionID, code string) (string, error)
}

// SettingsSource resolves per-channel issuance parameters.
type SettingsSource interface {
	ResolveCoupon(ctx context.Context, salesChannelID string) settings.CouponSettings
}

// Gateway issues coupons at most once per abandonment event. Callers do not
// retry a failed issuance.
type Gateway struct {
	engine       PromotionEngine
	grants       GrantRepo
	settings     SettingsSource
	logg         *logger.Logger
	now          func() time.Time
	generateCode func() (string, error)
}

func NewGateway(engine PromotionEngine, grants GrantRepo, settingsSource SettingsSource, logg *logger.Logger) *Gateway {
	return &Gateway{
		engine:       engine,
		grants:       grants,
		settings:     settingsSource,
		logg:         logg,
		now:          time.Now,
		generateCode: GenerateCode,
	}
}

// Issue creates one individual code under the channel's base promotion and
// records the grant. The code is not bound to the customer; the ids are
// stored for attribution only.
func (g *Gateway) Issue(ctx context.Context, customerID, cartToken, salesChannelID string) (*Grant, error) {
	params := g.settings.ResolveCoupon(ctx, salesChannelID)

	promotion, err := g.engine.EnsurePromotion(ctx, commerce.PromotionSpec{
		Name:                  "LeadCollect Comeback",
		Type:                  string(params.Type),
		Value:                 params.Value,
		IndividualCodePattern: CodePrefix + "%s",
		SalesChannelID:        salesChannelID,
	})
	if err != nil {
		return nil, fmt.Errorf("ensuring base promotion: %w", err)
	}

	code, err := g.generateCode()
	if err != nil {
		return nil, fmt.Errorf("generating code: %w", err)
	}

	codeID, err := g.engine.CreateIndividualCode(ctx, promotion.ID, code)
	if err != nil {
		return nil, fmt.Errorf("creating individual code: %w", err)
	}

	validUntil := g.now().Add(time.Duration(params.ValidDays) * 24 * time.Hour)
	grant := &models.CouponGrant{
		Code:        code,
		PromotionID: promotion.ID,
		CodeID:      codeID,
		Type:        params.Type,
		Value:       decimal.NewFromFloat(params.Value),
		ValidUntil:  validUntil,
		CustomerID:  customerID,
		CartToken:   cartToken,
	}
	if salesChannelID != "" {
		grant.SalesChannelID = &salesChannelID
	}
	if err := g.grants.Create(ctx, grant); err != nil {
		// The engine-side code exists; losing the local audit row must not
		// fail the issuance the customer already got.
		g.logg.Error(g.logg.WithCartToken(ctx, cartToken), "coupon grant not recorded", err)
	}

	ctx = g.logg.WithFields(ctx, map[string]any{"code": code, "promotionId": promotion.ID})
	g.logg.Info(ctx, "recovery coupon issued")

	return &Grant{
		Code:       code,
		Type:       string(params.Type),
		Value:      params.Value,
		ValidUntil: validUntil,
	}, nil
}

// LookupByCode resolves a previously issued grant, used by restore and
// redemption checks.
func (g *Gateway) LookupByCode(ctx context.Context, code string) (*models.CouponGrant, error) {
	return g.grants.FindByCode(ctx, code)
}

// MarkRedeemed stamps a grant when its code shows up on a placed order.
func (g *Gateway) MarkRedeemed(ctx context.Context, code string) error {
	return g.grants.MarkRedeemed(ctx, code, g.now())
}
