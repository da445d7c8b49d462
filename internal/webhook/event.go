package webhook

import (
	"github.com/leadcollect/cart-recovery/pkg/enums"
)

// Event is one unit of outbound delivery. It is constructed by the event
// router, handed to the deliverer, and discarded after a terminal outcome.
type Event struct {
	Type    enums.WebhookEventType
	Payload map[string]any
}

// NewEvent builds an event with the standard envelope fields set.
func NewEvent(eventType enums.WebhookEventType, payload map[string]any) Event {
	if payload == nil {
		payload = map[string]any{}
	}
	payload["eventType"] = string(eventType)
	return Event{Type: eventType, Payload: payload}
}
