package enums

// LineItemType classifies cart line items. Only product items survive
// normalization for downstream consumers.
type LineItemType string

const (
	LineItemProduct   LineItemType = "product"
	LineItemPromotion LineItemType = "promotion"
	LineItemOther     LineItemType = "other"
)

// ClassifyLineItemType buckets a raw type string into the canonical set.
func ClassifyLineItemType(value string) LineItemType {
	switch value {
	case string(LineItemProduct):
		return LineItemProduct
	case string(LineItemPromotion):
		return LineItemPromotion
	default:
		return LineItemOther
	}
}
