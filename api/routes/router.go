package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/leadcollect/cart-recovery/api/controllers"
	"github.com/leadcollect/cart-recovery/api/middleware"
	"github.com/leadcollect/cart-recovery/pkg/config"
	"github.com/leadcollect/cart-recovery/pkg/logger"
)

func NewRouter(
	cfg *config.Config,
	logg *logger.Logger,
	cartService controllers.CartLister,
	orderRouter controllers.OrderRouter,
	restoreService controllers.Restorer,
) http.Handler {
	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.Logging(logg),
	)

	r.Handle("/metrics", promhttp.Handler())

	// Restore links land in shoppers' inboxes and on postcards; they carry
	// no credentials beyond their own token or code.
	r.Get("/leadcollect-restore", controllers.RestoreByToken(restoreService, logg))
	r.Get("/leadcollect/restore", controllers.RestoreBySKUs(restoreService, logg))

	r.Route("/api/leadcollect", func(r chi.Router) {
		// Liveness probes run without the shared secret.
		r.Get("/health", controllers.Health())

		r.Group(func(r chi.Router) {
			r.Use(middleware.SharedSecret(cfg.API, logg))
			r.Get("/carts", controllers.ListCarts(cartService, logg))
			r.Post("/events/order-placed", controllers.OrderPlaced(orderRouter, logg))
		})
	})

	return r
}
