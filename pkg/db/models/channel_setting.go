package models

import (
	"time"

	"github.com/google/uuid"
)

// ChannelSetting is one configuration value, optionally scoped to a sales
// channel. A NULL sales_channel_id row is the global fallback.
type ChannelSetting struct {
	ID             uuid.UUID `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	SalesChannelID *string   `gorm:"column:sales_channel_id;uniqueIndex:ux_channel_settings_scope_key"`
	Key            string    `gorm:"column:key;not null;uniqueIndex:ux_channel_settings_scope_key"`
	Value          string    `gorm:"column:value;not null"`
	CreatedAt      time.Time `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt      time.Time `gorm:"column:updated_at;autoUpdateTime"`
}

func (ChannelSetting) TableName() string {
	return "channel_settings"
}
