package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"pawmart/globals"

	"github.com/golang-jwt/jwt/v5"
	"github.com/julienschmidt/httprouter"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func signToken(t *testing.T, claims Claims) string {
	t.Helper()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(globals.JwtSecret)
	require.NoError(t, err)
	return signed
}

func TestAuthenticateSetsContext(t *testing.T) {
	claims := Claims{
		Username: "poppy",
		UserID:   "u123",
		Role:     []string{"user"},
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
	}

	var gotUserID string
	var gotRoles []string
	handler := Authenticate(func(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
		gotUserID, _ = r.Context().Value(globals.UserIDKey).(string)
		gotRoles, _ = r.Context().Value(globals.RoleKey).([]string)
		w.WriteHeader(http.StatusOK)
	})

	req := httptest.NewRequest(http.MethodGet, "/api/cart", nil)
	req.Header.Set("Authorization", "Bearer "+signToken(t, claims))
	rec := httptest.NewRecorder()
	handler(rec, req, nil)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "u123", gotUserID)
	assert.Equal(t, []string{"user"}, gotRoles)
}

func TestAuthenticateRejectsMissingToken(t *testing.T) {
	handler := Authenticate(func(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
		t.Fatal("handler should not run")
	})

	req := httptest.NewRequest(http.MethodGet, "/api/cart", nil)
	rec := httptest.NewRecorder()
	handler(rec, req, nil)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

// Upgrade headers are not a token; a request dressed up as a WebSocket
// handshake still needs to authenticate.
func TestAuthenticateRejectsUpgradeHeadersWithoutToken(t *testing.T) {
	handler := Authenticate(func(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
		t.Fatal("handler should not run")
	})

	req := httptest.NewRequest(http.MethodPost, "/api/cart", nil)
	req.Header.Set("Connection", "Upgrade")
	req.Header.Set("Upgrade", "websocket")
	rec := httptest.NewRecorder()
	handler(rec, req, nil)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestAuthenticateRejectsExpiredToken(t *testing.T) {
	claims := Claims{
		UserID: "u123",
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(-time.Hour)),
		},
	}

	handler := Authenticate(func(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
		t.Fatal("handler should not run")
	})

	req := httptest.NewRequest(http.MethodGet, "/api/cart", nil)
	req.Header.Set("Authorization", "Bearer "+signToken(t, claims))
	rec := httptest.NewRecorder()
	handler(rec, req, nil)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestRequireRole(t *testing.T) {
	inner := func(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
		w.WriteHeader(http.StatusOK)
	}

	adminClaims := Claims{
		UserID: "admin1",
		Role:   []string{"admin"},
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
	}
	userClaims := Claims{
		UserID: "u1",
		Role:   []string{"user"},
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
	}

	handler := Authenticate(RequireRole(inner, "admin"))

	req := httptest.NewRequest(http.MethodPut, "/api/orders/ORD1/status", nil)
	req.Header.Set("Authorization", "Bearer "+signToken(t, adminClaims))
	rec := httptest.NewRecorder()
	handler(rec, req, nil)
	assert.Equal(t, http.StatusOK, rec.Code)

	req = httptest.NewRequest(http.MethodPut, "/api/orders/ORD1/status", nil)
	req.Header.Set("Authorization", "Bearer "+signToken(t, userClaims))
	rec = httptest.NewRecorder()
	handler(rec, req, nil)
	assert.Equal(t, http.StatusForbidden, rec.Code)
}
