// Package normalizer converts heterogeneous raw cart payloads into the
// canonical cart representation the rest of the service consumes.
package normalizer

import (
	"context"

	"github.com/leadcollect/cart-recovery/pkg/enums"
	"github.com/leadcollect/cart-recovery/pkg/logger"
	"github.com/leadcollect/cart-recovery/pkg/types"
)

// Normalizer decodes raw cart blobs. The schema variant is resolved once at
// startup and never re-probed per call.
type Normalizer struct {
	variant enums.SchemaVariant
	logg    *logger.Logger
}

func New(variant enums.SchemaVariant, logg *logger.Logger) *Normalizer {
	if !variant.IsValid() {
		variant = enums.SchemaModern
	}
	return &Normalizer{variant: variant, logg: logg}
}

// Variant returns the schema variant the normalizer was resolved with.
func (n *Normalizer) Variant() enums.SchemaVariant {
	return n.variant
}

// Normalize decodes one raw payload into a canonical cart. Undecodable
// payloads fail with DECODE_ERROR and are skipped by callers, never retried.
func (n *Normalizer) Normalize(ctx context.Context, raw []byte) (*types.CanonicalCart, error) {
	doc, format, err := decode(raw)
	if err != nil {
		n.logg.Warn(n.logg.WithField(ctx, "error", err.Error()), "cart payload decode failed")
		return nil, err
	}

	cart := extractCart(doc, n.variant)
	cart.Format = format

	ctx = n.logg.WithCartToken(ctx, cart.CartToken)
	ctx = n.logg.WithFields(ctx, map[string]any{"format": string(format), "lineItems": len(cart.LineItems)})
	n.logg.Debug(ctx, "normalized cart payload")
	return cart, nil
}
