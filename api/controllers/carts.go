package controllers

import (
	"context"
	"net/http"
	"time"

	"github.com/leadcollect/cart-recovery/api/responses"
	"github.com/leadcollect/cart-recovery/api/validators"
	"github.com/leadcollect/cart-recovery/internal/carts"
	pkgerrors "github.com/leadcollect/cart-recovery/pkg/errors"
	"github.com/leadcollect/cart-recovery/pkg/logger"
	"github.com/leadcollect/cart-recovery/pkg/types"
)

const defaultMinAgeSeconds = 3600

// CartLister is the slice of the cart service the polling endpoint needs.
type CartLister interface {
	ListRecoverable(ctx context.Context, minAge time.Duration, limit int) ([]types.CanonicalCart, error)
}

// ListCarts serves the polling API. External recovery services fetch
// abandoned carts older than min_age seconds, newest-capped by limit.
func ListCarts(svc CartLister, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "cart service unavailable"))
			return
		}

		minAgeSeconds, err := validators.ParseQueryInt(r, "min_age", defaultMinAgeSeconds, 0, 86400*365)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		limit, err := validators.ParseQueryInt(r, "limit", carts.DefaultListLimit, 1, carts.MaxListLimit)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		list, err := svc.ListRecoverable(r.Context(), time.Duration(minAgeSeconds)*time.Second, limit)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		if list == nil {
			list = []types.CanonicalCart{}
		}

		responses.WriteJSON(w, http.StatusOK, map[string]any{
			"success":       true,
			"count":         len(list),
			"carts":         list,
			"queriedAt":     time.Now().UTC().Format(time.RFC3339),
			"minAgeSeconds": minAgeSeconds,
		})
	}
}
