package controllers

import (
	"net/http"
	"time"

	"github.com/leadcollect/cart-recovery/api/responses"
	"github.com/leadcollect/cart-recovery/pkg/config"
)

// Health reports plugin identity and liveness to the polling service.
func Health() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		responses.WriteJSON(w, http.StatusOK, map[string]any{
			"status":    "ok",
			"plugin":    config.PluginName,
			"version":   config.PluginVersion,
			"timestamp": time.Now().UTC().Format(time.RFC3339),
		})
	}
}
