package auth

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRegisterRejectsBadInput(t *testing.T) {
	h := NewHandler(nil)

	cases := []struct {
		name string
		body string
	}{
		{"malformed json", "{"},
		{"missing username", `{"email":"a@b.c","password":"longenough"}`},
		{"missing email", `{"username":"poppy","password":"longenough"}`},
		{"short password", `{"username":"poppy","email":"a@b.c","password":"short"}`},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPost, "/api/auth/register", strings.NewReader(tc.body))
			rec := httptest.NewRecorder()
			h.Register(rec, req, nil)

			assert.Equal(t, http.StatusBadRequest, rec.Code)
		})
	}
}

func TestLoginRejectsBadInput(t *testing.T) {
	h := NewHandler(nil)

	req := httptest.NewRequest(http.MethodPost, "/api/auth/login", strings.NewReader(`{"username":"poppy"}`))
	rec := httptest.NewRecorder()
	h.Login(rec, req, nil)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestHashTokenIsStable(t *testing.T) {
	a := hashToken("tok")
	b := hashToken("tok")
	assert.Equal(t, a, b)
	assert.Len(t, a, 64)
	assert.NotEqual(t, a, hashToken("tok2"))
}

func TestGenerateRefreshToken(t *testing.T) {
	a, err := generateRefreshToken()
	assert.NoError(t, err)
	b, err := generateRefreshToken()
	assert.NoError(t, err)
	assert.Len(t, a, 64)
	assert.NotEqual(t, a, b)
}
