package enums

// DeliveryStatus tracks one webhook delivery through its lifecycle.
// Pending -> Sending -> {Delivered | Failed}; a failed attempt with retries
// remaining moves back to Pending after backoff.
type DeliveryStatus string

const (
	DeliveryPending   DeliveryStatus = "pending"
	DeliverySending   DeliveryStatus = "sending"
	DeliveryDelivered DeliveryStatus = "delivered"
	DeliveryFailed    DeliveryStatus = "failed"
)

// Terminal reports whether no further attempts may follow this status.
func (d DeliveryStatus) Terminal() bool {
	return d == DeliveryDelivered || d == DeliveryFailed
}
