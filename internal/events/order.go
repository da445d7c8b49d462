package events

// Order is the inbound order-placed notification from the commerce engine.
type Order struct {
	OrderID        string          `json:"orderId" validate:"required"`
	OrderNumber    string          `json:"orderNumber"`
	CustomerID     string          `json:"customerId"`
	SalesChannelID string          `json:"salesChannelId"`
	TotalPrice     float64         `json:"totalPrice"`
	Currency       string          `json:"currency"`
	LineItems      []OrderLineItem `json:"lineItems"`
}

// OrderLineItem carries just enough of the engine's order line to spot a
// redeemed recovery code.
type OrderLineItem struct {
	Type         string `json:"type"`
	Label        string `json:"label"`
	ReferencedID string `json:"referencedId"`
	// Code is the promotion code when the engine embeds it directly.
	Code string `json:"code"`
	// PromotionID allows an indirect lookup when the code is absent.
	PromotionID string `json:"promotionId"`
}

// IsGuest reports whether the order has no identifiable customer.
func (o *Order) IsGuest() bool {
	return o.CustomerID == ""
}
