package normalizer

import (
	"strconv"
	"time"

	"github.com/shopspring/decimal"

	"github.com/leadcollect/cart-recovery/pkg/enums"
	"github.com/leadcollect/cart-recovery/pkg/types"
)

const (
	defaultCurrency   = "EUR"
	defaultItemName   = "Produkt"
	defaultFirstName  = "Kunde"
	defaultCountryISO = "DE"
)

func extractCart(doc map[string]any, variant enums.SchemaVariant) *types.CanonicalCart {
	cart := &types.CanonicalCart{
		CartToken:      firstString(doc, "token", "cartToken", "cart_token"),
		CustomerID:     firstString(doc, "customerId", "customer_id"),
		SalesChannelID: firstString(doc, "salesChannelId", "sales_channel_id"),
		Currency:       defaultCurrency,
		TotalPrice:     extractTotal(doc),
		LineItems:      extractLineItems(doc),
		Customer:       extractCustomer(doc, variant),
	}
	if currency := firstString(doc, "currency"); currency != "" {
		cart.Currency = currency
	}
	if created := parseTime(doc["createdAt"]); !created.IsZero() {
		cart.CreatedAt = created
	}
	if updated := parseTime(doc["updatedAt"]); !updated.IsZero() {
		cart.UpdatedAt = updated
	}
	return cart
}

// extractTotal resolves the cart total from a nested price structure or a
// flat numeric column.
func extractTotal(doc map[string]any) decimal.Decimal {
	if price, ok := doc["price"].(map[string]any); ok {
		if total, ok := asFloat(price["totalPrice"]); ok {
			return decimal.NewFromFloat(total)
		}
	}
	for _, key := range []string{"totalPrice", "total_price", "cart_total"} {
		if total, ok := asFloat(doc[key]); ok {
			return decimal.NewFromFloat(total)
		}
	}
	return decimal.Zero
}

// extractLineItems keeps product items only. Items with no resolvable
// product reference are dropped, never fatal.
func extractLineItems(doc map[string]any) []types.CanonicalLineItem {
	rawItems, ok := doc["lineItems"].([]any)
	if !ok {
		rawItems, _ = doc["line_items"].([]any)
	}
	items := make([]types.CanonicalLineItem, 0, len(rawItems))
	for _, raw := range rawItems {
		entry, ok := raw.(map[string]any)
		if !ok {
			continue
		}
		if enums.ClassifyLineItemType(firstString(entry, "type")) != enums.LineItemProduct {
			continue
		}
		productID := firstString(entry, "referencedId", "id", "productId")
		if productID == "" {
			continue
		}
		item := types.CanonicalLineItem{
			ProductID: productID,
			SKU:       extractSKU(entry),
			Name:      defaultItemName,
			Quantity:  extractQuantity(entry),
			UnitPrice: extractUnitPrice(entry),
		}
		if name := firstString(entry, "label", "name"); name != "" {
			item.Name = name
		}
		if image := extractImageURL(entry); image != "" {
			item.ImageURL = &image
		}
		items = append(items, item)
	}
	return items
}

func extractSKU(entry map[string]any) string {
	if payload, ok := entry["payload"].(map[string]any); ok {
		if sku := firstString(payload, "productNumber"); sku != "" {
			return sku
		}
	}
	return firstString(entry, "referencedId")
}

func extractQuantity(entry map[string]any) int {
	qty, ok := asFloat(entry["quantity"])
	if !ok || qty < 1 {
		return 1
	}
	return int(qty)
}

func extractUnitPrice(entry map[string]any) decimal.Decimal {
	if price, ok := entry["price"].(map[string]any); ok {
		if unit, ok := asFloat(price["unitPrice"]); ok {
			return decimal.NewFromFloat(unit)
		}
		if total, ok := asFloat(price["totalPrice"]); ok {
			return decimal.NewFromFloat(total)
		}
		return decimal.Zero
	}
	if unit, ok := asFloat(entry["price"]); ok {
		return decimal.NewFromFloat(unit)
	}
	return decimal.Zero
}

func extractImageURL(entry map[string]any) string {
	cover, ok := entry["cover"].(map[string]any)
	if !ok {
		return ""
	}
	if url := firstString(cover, "url"); url != "" {
		return url
	}
	if media, ok := cover["media"].(map[string]any); ok {
		return firstString(media, "url")
	}
	return ""
}

// extractCustomer reads either the legacy flat row shape or the embedded
// customer object, preferring activeBillingAddress over the default one.
func extractCustomer(doc map[string]any, variant enums.SchemaVariant) *types.CartCustomer {
	if variant == enums.SchemaLegacy {
		if customer := extractLegacyCustomer(doc); customer != nil {
			return customer
		}
	}

	embedded, ok := doc["customer"].(map[string]any)
	if !ok {
		if variant != enums.SchemaLegacy {
			if customer := extractLegacyCustomer(doc); customer != nil {
				return customer
			}
		}
		return nil
	}

	customer := &types.CartCustomer{
		FirstName: defaultFirstName,
		LastName:  firstString(embedded, "lastName"),
		Email:     firstString(embedded, "email"),
		Address:   types.CartAddress{CountryISO: defaultCountryISO},
	}
	if first := firstString(embedded, "firstName"); first != "" {
		customer.FirstName = first
	}

	address, ok := embedded["activeBillingAddress"].(map[string]any)
	if !ok {
		address, _ = embedded["defaultBillingAddress"].(map[string]any)
	}
	if address != nil {
		customer.Address.Street = firstString(address, "street")
		customer.Address.Zipcode = firstString(address, "zipcode")
		customer.Address.City = firstString(address, "city")
		if iso := extractCountryISO(address); iso != "" {
			customer.Address.CountryISO = iso
		}
	}
	return customer
}

func extractLegacyCustomer(doc map[string]any) *types.CartCustomer {
	last := firstString(doc, "customer_last_name")
	email := firstString(doc, "customer_email")
	street := firstString(doc, "billing_street")
	if last == "" && email == "" && street == "" {
		return nil
	}
	customer := &types.CartCustomer{
		FirstName: defaultFirstName,
		LastName:  last,
		Email:     email,
		Address: types.CartAddress{
			Street:     street,
			Zipcode:    firstString(doc, "billing_zipcode"),
			City:       firstString(doc, "billing_city"),
			CountryISO: defaultCountryISO,
		},
	}
	if first := firstString(doc, "customer_first_name"); first != "" {
		customer.FirstName = first
	}
	if iso := firstString(doc, "billing_country_iso"); iso != "" {
		customer.Address.CountryISO = iso
	}
	return customer
}

func extractCountryISO(address map[string]any) string {
	if iso := firstString(address, "countryIso"); iso != "" {
		return iso
	}
	if country, ok := address["country"].(map[string]any); ok {
		return firstString(country, "iso")
	}
	return ""
}

func firstString(doc map[string]any, keys ...string) string {
	for _, key := range keys {
		if value, ok := doc[key].(string); ok && value != "" {
			return value
		}
	}
	return ""
}

func asFloat(value any) (float64, bool) {
	switch v := value.(type) {
	case float64:
		return v, true
	case float32:
		return float64(v), true
	case int:
		return float64(v), true
	case int64:
		return float64(v), true
	case string:
		parsed, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return 0, false
		}
		return parsed, true
	default:
		return 0, false
	}
}

func parseTime(value any) time.Time {
	raw, ok := value.(string)
	if !ok || raw == "" {
		return time.Time{}
	}
	for _, layout := range []string{time.RFC3339, "2006-01-02 15:04:05"} {
		if parsed, err := time.Parse(layout, raw); err == nil {
			return parsed
		}
	}
	return time.Time{}
}
