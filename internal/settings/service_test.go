package settings

import (
	"bytes"
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/leadcollect/cart-recovery/pkg/config"
	"github.com/leadcollect/cart-recovery/pkg/enums"
	apperrors "github.com/leadcollect/cart-recovery/pkg/errors"
	"github.com/leadcollect/cart-recovery/pkg/logger"
)

func setupSettingsTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open("file::memory:"), &gorm.Config{})
	require.NoError(t, err)

	schema := `
CREATE TABLE IF NOT EXISTS channel_settings (
  id TEXT PRIMARY KEY,
  sales_channel_id TEXT,
  key TEXT NOT NULL,
  value TEXT NOT NULL,
  created_at DATETIME,
  updated_at DATETIME,
  UNIQUE (sales_channel_id, key)
);`
	require.NoError(t, db.Exec(schema).Error)
	return db
}

func newTestService(t *testing.T) *Service {
	t.Helper()
	logg := logger.New(logger.Options{ServiceName: "test", Level: logger.ParseLevel("error"), Output: bytes.NewBuffer(nil)})
	return NewService(NewRepo(setupSettingsTestDB(t)), logg)
}

func TestResolveFallsBackToGlobalScope(t *testing.T) {
	ctx := context.Background()
	svc := newTestService(t)

	require.NoError(t, svc.Set(ctx, "", KeyCouponValue, "10"))
	require.NoError(t, svc.Set(ctx, "channel-a", KeyCouponValue, "15"))

	value, err := svc.Resolve(ctx, "channel-a", KeyCouponValue)
	require.NoError(t, err)
	assert.Equal(t, "15", value)

	value, err = svc.Resolve(ctx, "channel-b", KeyCouponValue)
	require.NoError(t, err)
	assert.Equal(t, "10", value, "unknown channel falls back to global")

	_, err = svc.Resolve(ctx, "channel-a", "missing.key")
	assert.True(t, apperrors.HasCode(err, apperrors.CodeNotFound))
}

func TestSetOverwritesExistingValue(t *testing.T) {
	ctx := context.Background()
	svc := newTestService(t)

	require.NoError(t, svc.Set(ctx, "channel-a", KeyWebhookEnabled, "true"))
	require.NoError(t, svc.Set(ctx, "channel-a", KeyWebhookEnabled, "false"))

	value, err := svc.Resolve(ctx, "channel-a", KeyWebhookEnabled)
	require.NoError(t, err)
	assert.Equal(t, "false", value)
}

func TestSeedDefaultsDoesNotClobberOperatorOverrides(t *testing.T) {
	ctx := context.Background()
	svc := newTestService(t)

	require.NoError(t, svc.Set(ctx, "", KeyCouponValue, "25"))

	webhook := config.WebhookConfig{URL: "https://hooks.example", Secret: "s", Enabled: true}
	coupon := config.CouponConfig{Type: "percentage", Value: 10, ValidDays: 30}
	require.NoError(t, svc.SeedDefaults(ctx, webhook, coupon))

	value, err := svc.Resolve(ctx, "", KeyCouponValue)
	require.NoError(t, err)
	assert.Equal(t, "25", value, "seeding must not overwrite an existing value")

	url, err := svc.Resolve(ctx, "", KeyWebhookURL)
	require.NoError(t, err)
	assert.Equal(t, "https://hooks.example", url)
}

func TestResolveCouponDefaults(t *testing.T) {
	ctx := context.Background()
	svc := newTestService(t)

	resolved := svc.ResolveCoupon(ctx, "channel-a")
	assert.Equal(t, enums.CouponPercentage, resolved.Type)
	assert.Equal(t, float64(10), resolved.Value)
	assert.Equal(t, 30, resolved.ValidDays)
}

func TestResolveCouponPerChannel(t *testing.T) {
	ctx := context.Background()
	svc := newTestService(t)

	require.NoError(t, svc.Set(ctx, "", KeyCouponType, "fixed"))
	require.NoError(t, svc.Set(ctx, "", KeyCouponValue, "5"))
	require.NoError(t, svc.Set(ctx, "channel-a", KeyCouponValue, "7.5"))
	require.NoError(t, svc.Set(ctx, "channel-a", KeyCouponDays, "14"))

	resolved := svc.ResolveCoupon(ctx, "channel-a")
	assert.Equal(t, enums.CouponFixed, resolved.Type)
	assert.Equal(t, 7.5, resolved.Value)
	assert.Equal(t, 14, resolved.ValidDays)

	global := svc.ResolveCoupon(ctx, "")
	assert.Equal(t, float64(5), global.Value)
	assert.Equal(t, 30, global.ValidDays)
}

func TestResolveCouponIgnoresGarbageValues(t *testing.T) {
	ctx := context.Background()
	svc := newTestService(t)

	require.NoError(t, svc.Set(ctx, "", KeyCouponType, "raffle"))
	require.NoError(t, svc.Set(ctx, "", KeyCouponValue, "many"))
	require.NoError(t, svc.Set(ctx, "", KeyCouponDays, "-3"))

	resolved := svc.ResolveCoupon(ctx, "")
	assert.Equal(t, enums.CouponPercentage, resolved.Type)
	assert.Equal(t, float64(10), resolved.Value)
	assert.Equal(t, 30, resolved.ValidDays)
}

func TestResolveWebhook(t *testing.T) {
	ctx := context.Background()
	svc := newTestService(t)

	require.NoError(t, svc.Set(ctx, "", KeyWebhookURL, "https://hooks.example"))
	require.NoError(t, svc.Set(ctx, "", KeyWebhookSecret, "s3cret"))
	require.NoError(t, svc.Set(ctx, "", KeyWebhookEnabled, "true"))
	require.NoError(t, svc.Set(ctx, "channel-a", KeyWebhookEnabled, "false"))

	global := svc.ResolveWebhook(ctx, "")
	assert.Equal(t, "https://hooks.example", global.URL)
	assert.True(t, global.Enabled)

	channel := svc.ResolveWebhook(ctx, "channel-a")
	assert.Equal(t, "https://hooks.example", channel.URL)
	assert.False(t, channel.Enabled)
}
