package models

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// AbandonedCart is one customer cart judged abandoned, snapshotted from the
// commerce engine. Created on the first sweep that qualifies the cart,
// updated on later passes and restore touches, deleted once an order is
// placed for the same customer.
type AbandonedCart struct {
	ID             uuid.UUID       `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	CartToken      string          `gorm:"column:cart_token;not null;uniqueIndex:ux_abandoned_carts_cart_token"`
	CustomerID     string          `gorm:"column:customer_id;not null;index"`
	SalesChannelID *string         `gorm:"column:sales_channel_id"`
	TotalPrice     decimal.Decimal `gorm:"column:total_price;type:numeric(12,2);not null"`
	Currency       string          `gorm:"column:currency;not null;default:'EUR'"`
	LineItems      json.RawMessage `gorm:"column:line_items;type:jsonb;not null"`
	Customer       json.RawMessage `gorm:"column:customer;type:jsonb"`
	LineItemCount  int             `gorm:"column:line_item_count;not null;default:0"`
	CreatedAt      time.Time       `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt      time.Time       `gorm:"column:updated_at;autoUpdateTime"`
}

func (AbandonedCart) TableName() string {
	return "abandoned_carts"
}
