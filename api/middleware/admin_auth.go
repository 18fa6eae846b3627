package middleware

import (
	"net/http"
	"strings"

	"github.com/andikurnia/fotoprint-backend/api/responses"
	"github.com/andikurnia/fotoprint-backend/pkg/config"
	pkgerrors "github.com/andikurnia/fotoprint-backend/pkg/errors"
	"github.com/andikurnia/fotoprint-backend/pkg/logger"
	"github.com/andikurnia/fotoprint-backend/pkg/security"
)

// AdminAuth verifies the operator bearer token against the configured
// argon2id hash. The kiosk never carries this credential.
func AdminAuth(cfg config.AdminConfig, logg *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			raw := strings.TrimSpace(r.Header.Get("Authorization"))
			if raw == "" {
				responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeUnauthorized, "missing credentials"))
				return
			}

			token := raw
			if strings.HasPrefix(strings.ToLower(token), "bearer ") {
				token = strings.TrimSpace(token[7:])
			}
			if token == "" {
				responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeUnauthorized, "missing credentials"))
				return
			}

			if cfg.PasswordHash == "" {
				responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeUnauthorized, "admin access disabled"))
				return
			}

			ok, err := security.VerifyPassword(token, cfg.PasswordHash)
			if err != nil || !ok {
				responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeUnauthorized, "invalid credentials"))
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}
