package auth

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/senyabanana/loadboard-service/internal/models"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTokenManager_RoundTrip(t *testing.T) {
	m := NewTokenManager("secret", time.Hour)
	actor := models.Actor{ID: "trucker-1", Role: models.TruckerRole}

	token, err := m.GenerateToken(actor)
	require.NoError(t, err)

	got, err := m.ParseToken(token)
	require.NoError(t, err)
	assert.Equal(t, actor, got)
}

func TestTokenManager_Rejects(t *testing.T) {
	m := NewTokenManager("secret", time.Hour)

	expired, err := NewTokenManager("secret", -time.Minute).GenerateToken(models.Actor{ID: "s", Role: models.ShipperRole})
	require.NoError(t, err)
	foreign, err := NewTokenManager("other", time.Hour).GenerateToken(models.Actor{ID: "s", Role: models.ShipperRole})
	require.NoError(t, err)
	badRole, err := jwt.NewWithClaims(jwt.SigningMethodHS256, &Claims{
		Role:             "root",
		RegisteredClaims: jwt.RegisteredClaims{Subject: "s"},
	}).SignedString([]byte("secret"))
	require.NoError(t, err)

	tests := map[string]string{
		"expired":       expired,
		"wrong secret":  foreign,
		"unknown role":  badRole,
		"garbage":       "not.a.token",
		"empty subject": mustSign(t, &Claims{Role: models.AdminRole}),
	}
	for name, token := range tests {
		t.Run(name, func(t *testing.T) {
			_, err := m.ParseToken(token)
			assert.ErrorIs(t, err, ErrInvalidToken)
		})
	}
}

func mustSign(t *testing.T, claims *Claims) string {
	t.Helper()
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte("secret"))
	require.NoError(t, err)
	return token
}

func TestAuthenticateAndAuthorize(t *testing.T) {
	m := NewTokenManager("secret", time.Hour)
	handler := m.Authenticate(Authorize(models.ShipperRole)(func(w http.ResponseWriter, r *http.Request) {
		actor, ok := ActorFromContext(r.Context())
		require.True(t, ok)
		_, _ = w.Write([]byte(actor.ID))
	}))

	shipperToken, err := m.GenerateToken(models.Actor{ID: "shipper-1", Role: models.ShipperRole})
	require.NoError(t, err)
	truckerToken, err := m.GenerateToken(models.Actor{ID: "trucker-1", Role: models.TruckerRole})
	require.NoError(t, err)

	tests := []struct {
		name     string
		header   string
		query    string
		wantCode int
		wantBody string
	}{
		{name: "no token", wantCode: http.StatusUnauthorized},
		{name: "not bearer", header: "Basic abc", wantCode: http.StatusUnauthorized},
		{name: "bad token", header: "Bearer abc", wantCode: http.StatusUnauthorized},
		{name: "wrong role", header: "Bearer " + truckerToken, wantCode: http.StatusForbidden},
		{name: "ok", header: "Bearer " + shipperToken, wantCode: http.StatusOK, wantBody: "shipper-1"},
		{name: "query token", query: "?token=" + shipperToken, wantCode: http.StatusOK, wantBody: "shipper-1"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/api/loads"+tt.query, nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			rec := httptest.NewRecorder()
			handler.ServeHTTP(rec, req)

			assert.Equal(t, tt.wantCode, rec.Code)
			if tt.wantBody != "" {
				assert.Equal(t, tt.wantBody, rec.Body.String())
			}
		})
	}
}
