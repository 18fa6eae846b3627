package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/andikurnia/fotoprint-backend/pkg/config"
	"github.com/andikurnia/fotoprint-backend/pkg/security"
)

func adminTestConfig(t *testing.T, password string) config.AdminConfig {
	t.Helper()
	hash, err := security.HashPassword(password, config.PasswordConfig{
		ArgonMemoryKB:    1024,
		ArgonTime:        1,
		ArgonParallelism: 1,
		ArgonSaltLen:     16,
		ArgonKeyLen:      32,
	})
	require.NoError(t, err)
	return config.AdminConfig{PasswordHash: hash}
}

func adminProtected(cfg config.AdminConfig) http.Handler {
	return AdminAuth(cfg, nil)(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	}))
}

func TestAdminAuthAcceptsValidToken(t *testing.T) {
	handler := adminProtected(adminTestConfig(t, "s3cret-operator"))

	req := httptest.NewRequest(http.MethodGet, "/admin/orders", nil)
	req.Header.Set("Authorization", "Bearer s3cret-operator")
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, req)

	assert.Equal(t, http.StatusNoContent, w.Code)
}

func TestAdminAuthRejectsBadToken(t *testing.T) {
	handler := adminProtected(adminTestConfig(t, "s3cret-operator"))

	req := httptest.NewRequest(http.MethodGet, "/admin/orders", nil)
	req.Header.Set("Authorization", "Bearer wrong-password")
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, req)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestAdminAuthRejectsMissingHeader(t *testing.T) {
	handler := adminProtected(adminTestConfig(t, "s3cret-operator"))

	req := httptest.NewRequest(http.MethodGet, "/admin/orders", nil)
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, req)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestAdminAuthRejectsWhenHashUnset(t *testing.T) {
	handler := adminProtected(config.AdminConfig{})

	req := httptest.NewRequest(http.MethodGet, "/admin/orders", nil)
	req.Header.Set("Authorization", "Bearer anything")
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, req)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
}
