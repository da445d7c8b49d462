package types

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/leadcollect/cart-recovery/pkg/enums"
)

// GuestCustomerID is the sentinel used when a cart has no identifiable
// customer.
const GuestCustomerID = "guest"

// CanonicalCart is the normalized, format-independent representation of one
// abandoned cart. Callers never need to know which storage layout or payload
// encoding it was decoded from.
type CanonicalCart struct {
	CartToken      string              `json:"cartToken"`
	CustomerID     string              `json:"customerId"`
	SalesChannelID string              `json:"salesChannelId,omitempty"`
	TotalPrice     decimal.Decimal     `json:"totalPrice"`
	Currency       string              `json:"currency"`
	LineItems      []CanonicalLineItem `json:"lineItems"`
	Customer       *CartCustomer       `json:"customer,omitempty"`
	Format         enums.PayloadFormat `json:"-"`
	CreatedAt      time.Time           `json:"createdAt"`
	UpdatedAt      time.Time           `json:"updatedAt"`
}

// CanonicalLineItem is one product entry. Non-product items never survive
// normalization.
type CanonicalLineItem struct {
	ProductID string          `json:"productId"`
	SKU       string          `json:"sku,omitempty"`
	Name      string          `json:"name"`
	Quantity  int             `json:"quantity"`
	UnitPrice decimal.Decimal `json:"price"`
	ImageURL  *string         `json:"imageUrl,omitempty"`
}

// CartCustomer is an embedded snapshot taken at abandonment time, not a live
// identity.
type CartCustomer struct {
	FirstName string      `json:"firstName"`
	LastName  string      `json:"lastName"`
	Email     string      `json:"email,omitempty"`
	Address   CartAddress `json:"address"`
}

type CartAddress struct {
	Street     string `json:"street"`
	Zipcode    string `json:"zipcode"`
	City       string `json:"city"`
	CountryISO string `json:"country"`
}

// IsGuest reports whether the cart lacks an identifiable customer.
func (c *CanonicalCart) IsGuest() bool {
	return c.CustomerID == "" || c.CustomerID == GuestCustomerID
}

// Recoverable reports whether the cart qualifies for recovery outreach: it
// must contain at least one product item and a deliverable street address.
func (c *CanonicalCart) Recoverable() bool {
	if len(c.LineItems) == 0 {
		return false
	}
	return c.Customer != nil && c.Customer.Address.Street != ""
}
