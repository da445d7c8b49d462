// Package settings resolves per-sales-channel configuration with a global
// fallback. Env defaults seed the global scope at startup, so the resolution
// order is channel row, global row, env value.
package settings

import (
	"context"
	"strconv"

	"github.com/leadcollect/cart-recovery/pkg/config"
	"github.com/leadcollect/cart-recovery/pkg/enums"
	apperrors "github.com/leadcollect/cart-recovery/pkg/errors"
	"github.com/leadcollect/cart-recovery/pkg/logger"
)

const (
	KeyWebhookURL     = "webhook.url"
	KeyWebhookSecret  = "webhook.secret"
	KeyWebhookEnabled = "webhook.enabled"
	KeyCouponType     = "coupon.type"
	KeyCouponValue    = "coupon.value"
	KeyCouponDays     = "coupon.validDays"
	KeyCouponMinOrder = "coupon.minOrder"
)

// CouponSettings are the resolved issuance parameters for one channel.
type CouponSettings struct {
	Type      enums.CouponType
	Value     float64
	ValidDays int
	MinOrder  float64
}

// WebhookSettings are the resolved delivery parameters for one channel.
type WebhookSettings struct {
	URL     string
	Secret  string
	Enabled bool
}

type Service struct {
	repo Repo
	logg *logger.Logger
}

func NewService(repo Repo, logg *logger.Logger) *Service {
	return &Service{repo: repo, logg: logg}
}

// SeedDefaults writes env-derived values into the global scope so operators
// can inspect and override the effective configuration in one place.
func (s *Service) SeedDefaults(ctx context.Context, webhook config.WebhookConfig, coupon config.CouponConfig) error {
	defaults := map[string]string{
		KeyWebhookURL:     webhook.URL,
		KeyWebhookSecret:  webhook.Secret,
		KeyWebhookEnabled: strconv.FormatBool(webhook.Enabled),
		KeyCouponType:     coupon.Type,
		KeyCouponValue:    strconv.FormatFloat(coupon.Value, 'f', -1, 64),
		KeyCouponDays:     strconv.Itoa(coupon.ValidDays),
		KeyCouponMinOrder: strconv.FormatFloat(coupon.MinOrder, 'f', -1, 64),
	}
	for key, value := range defaults {
		if _, err := s.repo.Get(ctx, nil, key); err == nil {
			continue
		} else if !apperrors.HasCode(err, apperrors.CodeNotFound) {
			return err
		}
		if err := s.repo.Upsert(ctx, nil, key, value); err != nil {
			return err
		}
	}
	return nil
}

// Set stores one value; empty salesChannelID targets the global scope.
func (s *Service) Set(ctx context.Context, salesChannelID, key, value string) error {
	return s.repo.Upsert(ctx, scope(salesChannelID), key, value)
}

// Resolve returns the value for key, falling back from channel to global
// scope. Missing everywhere resolves to NOT_FOUND.
func (s *Service) Resolve(ctx context.Context, salesChannelID, key string) (string, error) {
	if salesChannelID != "" {
		value, err := s.repo.Get(ctx, &salesChannelID, key)
		if err == nil {
			return value, nil
		}
		if !apperrors.HasCode(err, apperrors.CodeNotFound) {
			return "", err
		}
	}
	return s.repo.Get(ctx, nil, key)
}

// ResolveCoupon assembles issuance parameters for a channel. Unparseable or
// missing values fall back to the source defaults.
func (s *Service) ResolveCoupon(ctx context.Context, salesChannelID string) CouponSettings {
	resolved := CouponSettings{
		Type:      enums.CouponPercentage,
		Value:     10,
		ValidDays: 30,
	}
	if raw, err := s.Resolve(ctx, salesChannelID, KeyCouponType); err == nil {
		if parsed, err := enums.ParseCouponType(raw); err == nil {
			resolved.Type = parsed
		}
	}
	if raw, err := s.Resolve(ctx, salesChannelID, KeyCouponValue); err == nil {
		if value, err := strconv.ParseFloat(raw, 64); err == nil && value > 0 {
			resolved.Value = value
		}
	}
	if raw, err := s.Resolve(ctx, salesChannelID, KeyCouponDays); err == nil {
		if days, err := strconv.Atoi(raw); err == nil && days > 0 {
			resolved.ValidDays = days
		}
	}
	if raw, err := s.Resolve(ctx, salesChannelID, KeyCouponMinOrder); err == nil {
		if min, err := strconv.ParseFloat(raw, 64); err == nil && min >= 0 {
			resolved.MinOrder = min
		}
	}
	return resolved
}

// ResolveWebhook assembles delivery parameters for a channel.
func (s *Service) ResolveWebhook(ctx context.Context, salesChannelID string) WebhookSettings {
	var resolved WebhookSettings
	if raw, err := s.Resolve(ctx, salesChannelID, KeyWebhookURL); err == nil {
		resolved.URL = raw
	}
	if raw, err := s.Resolve(ctx, salesChannelID, KeyWebhookSecret); err == nil {
		resolved.Secret = raw
	}
	if raw, err := s.Resolve(ctx, salesChannelID, KeyWebhookEnabled); err == nil {
		resolved.Enabled = raw == "true" || raw == "1"
	}
	return resolved
}

func scope(salesChannelID string) *string {
	if salesChannelID == "" {
		return nil
	}
	return &salesChannelID
}
