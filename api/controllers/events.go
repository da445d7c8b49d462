package controllers

import (
	"context"
	"net/http"

	"github.com/leadcollect/cart-recovery/api/responses"
	"github.com/leadcollect/cart-recovery/api/validators"
	"github.com/leadcollect/cart-recovery/internal/events"
	pkgerrors "github.com/leadcollect/cart-recovery/pkg/errors"
	"github.com/leadcollect/cart-recovery/pkg/logger"
)

// OrderRouter receives accepted order notifications.
type OrderRouter interface {
	OnOrderPlaced(ctx context.Context, order *events.Order)
}

// OrderPlaced accepts the engine's order-placed notification. Once the body
// validates, the response is always 2xx: routing side effects must never
// bubble back into the engine's checkout transaction.
func OrderPlaced(router OrderRouter, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if router == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "event router unavailable"))
			return
		}

		var order events.Order
		if err := validators.DecodeJSONBody(r, &order); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		router.OnOrderPlaced(r.Context(), &order)

		responses.WriteSuccessStatus(w, http.StatusAccepted, map[string]any{
			"accepted": true,
			"orderId":  order.OrderID,
		})
	}
}
