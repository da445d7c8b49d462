package coupons

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/leadcollect/cart-recovery/internal/commerce"
	"github.com/leadcollect/cart-recovery/internal/settings"
	"github.com/leadcollect/cart-recovery/pkg/enums"
	apperrors "github.com/leadcollect/cart-recovery/pkg/errors"
	"github.com/leadcollect/cart-recovery/pkg/logger"
)

func TestGenerateCodeShape(t *testing.T) {
	seen := map[string]bool{}
	for i := 0; i < 200; i++ {
		code, err := GenerateCode()
		require.NoError(t, err)
		require.True(t, strings.HasPrefix(code, "COMEBACK-"), code)
		suffix := strings.TrimPrefix(code, "COMEBACK-")
		require.Len(t, suffix, 6)
		for _, r := range suffix {
			assert.NotContains(t, "0O1I", string(r), "ambiguous character in %s", code)
			assert.Contains(t, codeAlphabet, string(r))
		}
		seen[code] = true
	}
	assert.Greater(t, len(seen), 190, "codes should be effectively unique")
}

func TestIsRecoveryCode(t *testing.T) {
	assert.True(t, IsRecoveryCode("COMEBACK-AB12CD"))
	assert.True(t, IsRecoveryCode("  comeback-ab12cd  "))
	assert.False(t, IsRecoveryCode("SUMMER-SALE"))
	assert.False(t, IsRecoveryCode(""))
}

type fakeEngine struct {
	promotion       *commerce.Promotion
	ensureErr       error
	createErr       error
	createdCodes    []string
	ensuredPatterns []string
}

func (f *fakeEngine) EnsurePromotion(_ context.Context, spec commerce.PromotionSpec) (*commerce.Promotion, error) {
	f.ensuredPatterns = append(f.ensuredPatterns, spec.IndividualCodePattern)
	if f.ensureErr != nil {
		return nil, f.ensureErr
	}
	return f.promotion, nil
}

func (f *fakeEngine) CreateIndividualCode(_ context.Context, promotionID, code string) (string, error) {
	if f.createErr != nil {
		return "", f.createErr
	}
	f.createdCodes = append(f.createdCodes, code)
	return "code-" + promotionID, nil
}

type fakeSettings struct {
	coupon settings.CouponSettings
}

func (f *fakeSettings) ResolveCoupon(context.Context, string) settings.CouponSettings {
	return f.coupon
}

func setupGrantsTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open("file::memory:"), &gorm.Config{})
	require.NoError(t, err)

	schema := `
CREATE TABLE IF NOT EXISTS coupon_grants (
  id TEXT PRIMARY KEY,
  code TEXT NOT NULL UNIQUE,
  promotion_id TEXT NOT NULL,
  code_id TEXT NOT NULL,
  type TEXT NOT NULL DEFAULT 'percentage',
  value NUMERIC NOT NULL,
  valid_until DATETIME NOT NULL,
  customer_id TEXT NOT NULL,
  cart_token TEXT NOT NULL,
  sales_channel_id TEXT,
  redeemed_at DATETIME,
  created_at DATETIME
);`
	require.NoError(t, db.Exec(schema).Error)
	return db
}

func newTestGateway(t *testing.T, engine *fakeEngine, couponSettings settings.CouponSettings) *Gateway {
	t.Helper()
	logg := logger.New(logger.Options{ServiceName: "test", Level: logger.ParseLevel("error"), Output: bytes.NewBuffer(nil)})
	return NewGateway(engine, NewGrantRepo(setupGrantsTestDB(t)), &fakeSettings{coupon: couponSettings}, logg)
}

func TestIssueCreatesGrant(t *testing.T) {
	ctx := context.Background()
	engine := &fakeEngine{promotion: &commerce.Promotion{ID: "promo-1"}}
	gw := newTestGateway(t, engine, settings.CouponSettings{
		Type: enums.CouponPercentage, Value: 10, ValidDays: 30,
	})
	issuedAt := time.Date(2026, 2, 1, 12, 0, 0, 0, time.UTC)
	gw.now = func() time.Time { return issuedAt }

	grant, err := gw.Issue(ctx, "cust-1", "tok-1", "channel-a")
	require.NoError(t, err)

	assert.True(t, IsRecoveryCode(grant.Code))
	assert.Equal(t, "percentage", grant.Type)
	assert.Equal(t, float64(10), grant.Value)
	assert.Equal(t, issuedAt.Add(30*24*time.Hour), grant.ValidUntil)

	require.Len(t, engine.ensuredPatterns, 1)
	assert.Equal(t, "COMEBACK-%s", engine.ensuredPatterns[0])
	require.Len(t, engine.createdCodes, 1)
	assert.Equal(t, grant.Code, engine.createdCodes[0])

	stored, err := gw.LookupByCode(ctx, grant.Code)
	require.NoError(t, err)
	assert.Equal(t, "cust-1", stored.CustomerID)
	assert.Equal(t, "tok-1", stored.CartToken)
	assert.Equal(t, "promo-1", stored.PromotionID)
	require.NotNil(t, stored.SalesChannelID)
	assert.Equal(t, "channel-a", *stored.SalesChannelID)
	assert.Nil(t, stored.RedeemedAt)
}

func TestIssueFailsWhenEngineFails(t *testing.T) {
	ctx := context.Background()

	gw := newTestGateway(t, &fakeEngine{ensureErr: errors.New("engine down")}, settings.CouponSettings{})
	_, err := gw.Issue(ctx, "cust-1", "tok-1", "")
	require.Error(t, err)

	engine := &fakeEngine{promotion: &commerce.Promotion{ID: "promo-1"}, createErr: errors.New("codes endpoint down")}
	gw = newTestGateway(t, engine, settings.CouponSettings{})
	_, err = gw.Issue(ctx, "cust-1", "tok-1", "")
	require.Error(t, err)
}

func TestMarkRedeemedIsOneShot(t *testing.T) {
	ctx := context.Background()
	engine := &fakeEngine{promotion: &commerce.Promotion{ID: "promo-1"}}
	gw := newTestGateway(t, engine, settings.CouponSettings{Type: enums.CouponPercentage, Value: 10, ValidDays: 30})

	grant, err := gw.Issue(ctx, "cust-1", "tok-1", "")
	require.NoError(t, err)

	require.NoError(t, gw.MarkRedeemed(ctx, grant.Code))

	stored, err := gw.LookupByCode(ctx, grant.Code)
	require.NoError(t, err)
	require.NotNil(t, stored.RedeemedAt)

	err = gw.MarkRedeemed(ctx, grant.Code)
	assert.True(t, apperrors.HasCode(err, apperrors.CodeNotFound), "second redemption must not restamp")
}

func TestLookupByCodeMissing(t *testing.T) {
	gw := newTestGateway(t, &fakeEngine{promotion: &commerce.Promotion{ID: "p"}}, settings.CouponSettings{})
	_, err := gw.LookupByCode(context.Background(), "COMEBACK-ZZZZZZ")
	assert.True(t, apperrors.HasCode(err, apperrors.CodeNotFound))
}
