package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/golang-jwt/jwt/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/72mo2c/pero-system-sub002/internal/requestctx"
)

func Test_NewOperatorTokenManager(t *testing.T) {
	_, err := NewOperatorTokenManager("short")
	assert.EqualError(t, err, "operator token secret is required to have at least 12 characters")

	m, err := NewOperatorTokenManager("a-long-enough-secret")
	require.NoError(t, err)
	assert.NotNil(t, m)
}

func Test_OperatorTokenManager_roundTrip(t *testing.T) {
	m, err := NewOperatorTokenManager("a-long-enough-secret")
	require.NoError(t, err)

	token, err := m.GenerateToken("jane", time.Hour)
	require.NoError(t, err)

	operatorID, err := m.ParseOperatorID(token)
	require.NoError(t, err)
	assert.Equal(t, "jane", operatorID)

	t.Run("expired token", func(t *testing.T) {
		expired, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{
			Subject:   "jane",
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(-time.Minute)),
		}).SignedString([]byte("a-long-enough-secret"))
		require.NoError(t, err)

		_, err = m.ParseOperatorID(expired)
		assert.ErrorContains(t, err, "parsing operator token")
	})

	t.Run("token signed with another secret", func(t *testing.T) {
		other, err := NewOperatorTokenManager("another-long-secret")
		require.NoError(t, err)
		foreign, err := other.GenerateToken("mallory", time.Hour)
		require.NoError(t, err)

		_, err = m.ParseOperatorID(foreign)
		assert.ErrorContains(t, err, "parsing operator token")
	})

	t.Run("token without subject", func(t *testing.T) {
		anonymous, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Minute)),
		}).SignedString([]byte("a-long-enough-secret"))
		require.NoError(t, err)

		_, err = m.ParseOperatorID(anonymous)
		assert.ErrorIs(t, err, ErrInvalidOperatorToken)
	})
}

func Test_OperatorIdentityMiddleware(t *testing.T) {
	tokenManager, err := NewOperatorTokenManager("a-long-enough-secret")
	require.NoError(t, err)

	newRouter := func(tm *OperatorTokenManager) *chi.Mux {
		r := chi.NewRouter()
		r.Use(BasicAuthMiddleware("admin", "secret"))
		r.Use(OperatorIdentityMiddleware(tm))
		r.Get("/", func(w http.ResponseWriter, r *http.Request) {
			_, err := w.Write([]byte(requestctx.MustGetOperatorIDFromContext(r.Context())))
			require.NoError(t, err)
		})
		return r
	}

	newRequest := func(operatorToken string) *http.Request {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.SetBasicAuth("admin", "secret")
		if operatorToken != "" {
			req.Header.Set(OperatorTokenHeader, operatorToken)
		}
		return req
	}

	t.Run("falls back to the admin account", func(t *testing.T) {
		rr := httptest.NewRecorder()
		newRouter(tokenManager).ServeHTTP(rr, newRequest(""))
		assert.Equal(t, http.StatusOK, rr.Code)
		assert.Equal(t, "admin", rr.Body.String())
	})

	t.Run("🎉 uses the token subject", func(t *testing.T) {
		token, err := tokenManager.GenerateToken("jane", time.Hour)
		require.NoError(t, err)

		rr := httptest.NewRecorder()
		newRouter(tokenManager).ServeHTTP(rr, newRequest("Bearer "+token))
		assert.Equal(t, http.StatusOK, rr.Code)
		assert.Equal(t, "jane", rr.Body.String())
	})

	t.Run("rejects an invalid token", func(t *testing.T) {
		rr := httptest.NewRecorder()
		newRouter(tokenManager).ServeHTTP(rr, newRequest("not-a-jwt"))
		assert.Equal(t, http.StatusUnauthorized, rr.Code)
		assert.JSONEq(t, `{"error":"Invalid operator token."}`, rr.Body.String())
	})

	t.Run("ignores tokens when disabled", func(t *testing.T) {
		rr := httptest.NewRecorder()
		newRouter(nil).ServeHTTP(rr, newRequest("not-a-jwt"))
		assert.Equal(t, http.StatusOK, rr.Code)
		assert.Equal(t, "admin", rr.Body.String())
	})
}
