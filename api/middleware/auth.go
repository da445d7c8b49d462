package middleware

import (
	"crypto/subtle"
	"net/http"
	"strings"

	"github.com/leadcollect/cart-recovery/api/responses"
	"github.com/leadcollect/cart-recovery/pkg/config"
	pkgerrors "github.com/leadcollect/cart-recovery/pkg/errors"
	"github.com/leadcollect/cart-recovery/pkg/logger"
)

const secretHeader = "X-LeadCollect-Secret"

// SharedSecret guards the polling and event endpoints. External recovery
// services authenticate with the configured secret, sent either as the
// `secret` query parameter or in the X-LeadCollect-Secret header.
func SharedSecret(cfg config.APIConfig, logg *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if cfg.Secret == "" {
				responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeUnauthorized, "api secret not configured"))
				return
			}

			presented := strings.TrimSpace(r.URL.Query().Get("secret"))
			if presented == "" {
				presented = strings.TrimSpace(r.Header.Get(secretHeader))
			}
			if presented == "" {
				responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeUnauthorized, "missing credentials"))
				return
			}

			if subtle.ConstantTimeCompare([]byte(presented), []byte(cfg.Secret)) != 1 {
				responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeUnauthorized, "invalid secret"))
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}
