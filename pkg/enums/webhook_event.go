package enums

import "fmt"

// WebhookEventType enumerates the outbound LeadCollect notifications.
type WebhookEventType string

const (
	EventCartAbandoned  WebhookEventType = "cart_abandoned"
	EventCouponRedeemed WebhookEventType = "coupon_redeemed"
	EventOrderPlaced    WebhookEventType = "order_placed"
)

var validWebhookEventTypes = []WebhookEventType{
	EventCartAbandoned,
	EventCouponRedeemed,
	EventOrderPlaced,
}

// IsValid reports whether the value is a known outbound event type.
func (e WebhookEventType) IsValid() bool {
	for _, candidate := range validWebhookEventTypes {
		if candidate == e {
			return true
		}
	}
	return false
}

// ParseWebhookEventType converts raw input into WebhookEventType.
func ParseWebhookEventType(value string) (WebhookEventType, error) {
	for _, candidate := range validWebhookEventTypes {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid webhook event type %q", value)
}
