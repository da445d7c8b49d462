package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/leadcollect/cart-recovery/pkg/enums"
)

// CouponGrant records one recovery code issued for an abandonment event.
// Codes are not customer-bound; the customer/cart columns exist for
// attribution only.
type CouponGrant struct {
	ID             uuid.UUID        `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	Code           string           `gorm:"column:code;not null;uniqueIndex:ux_coupon_grants_code"`
	PromotionID    string           `gorm:"column:promotion_id;not null"`
	CodeID         string           `gorm:"column:code_id;not null"`
	Type           enums.CouponType `gorm:"column:type;not null;default:'percentage'"`
	Value          decimal.Decimal  `gorm:"column:value;type:numeric(12,2);not null"`
	ValidUntil     time.Time        `gorm:"column:valid_until;not null"`
	CustomerID     string           `gorm:"column:customer_id;not null"`
	CartToken      string           `gorm:"column:cart_token;not null;index"`
	SalesChannelID *string          `gorm:"column:sales_channel_id"`
	RedeemedAt     *time.Time       `gorm:"column:redeemed_at"`
	CreatedAt      time.Time        `gorm:"column:created_at;autoCreateTime"`
}

func (CouponGrant) TableName() string {
	return "coupon_grants"
}
