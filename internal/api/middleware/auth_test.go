package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "test-secret-key-that-is-long-enough-for-hs256"

func signToken(t *testing.T, secret string, claims jwt.RegisteredClaims) string {
	t.Helper()

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte(secret))
	require.NoError(t, err)
	return signed
}

func protectedHandler(t *testing.T, wantSubject string) http.Handler {
	t.Helper()

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		subject, ok := GetSubject(r)
		assert.True(t, ok)
		assert.Equal(t, wantSubject, subject)
		w.WriteHeader(http.StatusOK)
	})
}

func TestAuthenticate(t *testing.T) {
	t.Parallel()

	mw := NewAuthMiddleware(testSecret)

	t.Run("valid token passes with subject in context", func(t *testing.T) {
		t.Parallel()

		token := signToken(t, testSecret, jwt.RegisteredClaims{
			Subject:   "ops-admin",
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		})

		req := httptest.NewRequest(http.MethodPost, "/admin/cleanup", nil)
		req.Header.Set("Authorization", "Bearer "+token)
		rec := httptest.NewRecorder()

		mw.Authenticate(protectedHandler(t, "ops-admin")).ServeHTTP(rec, req)
		assert.Equal(t, http.StatusOK, rec.Code)
	})

	t.Run("missing header returns 401", func(t *testing.T) {
		t.Parallel()

		req := httptest.NewRequest(http.MethodPost, "/admin/cleanup", nil)
		rec := httptest.NewRecorder()

		mw.Authenticate(failHandler(t)).ServeHTTP(rec, req)
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})

	t.Run("malformed header returns 401", func(t *testing.T) {
		t.Parallel()

		req := httptest.NewRequest(http.MethodPost, "/admin/cleanup", nil)
		req.Header.Set("Authorization", "NotBearer token")
		rec := httptest.NewRecorder()

		mw.Authenticate(failHandler(t)).ServeHTTP(rec, req)
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})

	t.Run("expired token returns 401", func(t *testing.T) {
		t.Parallel()

		token := signToken(t, testSecret, jwt.RegisteredClaims{
			Subject:   "ops-admin",
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(-time.Hour)),
		})

		req := httptest.NewRequest(http.MethodPost, "/admin/cleanup", nil)
		req.Header.Set("Authorization", "Bearer "+token)
		rec := httptest.NewRecorder()

		mw.Authenticate(failHandler(t)).ServeHTTP(rec, req)
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
		assert.Contains(t, rec.Body.String(), "Token expired")
	})

	t.Run("token signed with wrong secret returns 401", func(t *testing.T) {
		t.Parallel()

		token := signToken(t, "a-completely-different-secret-value-here", jwt.RegisteredClaims{
			Subject:   "ops-admin",
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		})

		req := httptest.NewRequest(http.MethodPost, "/admin/cleanup", nil)
		req.Header.Set("Authorization", "Bearer "+token)
		rec := httptest.NewRecorder()

		mw.Authenticate(failHandler(t)).ServeHTTP(rec, req)
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})

	t.Run("token with disallowed algorithm returns 401", func(t *testing.T) {
		t.Parallel()

		// alg=none style tokens must be rejected by the allowed-methods list.
		token := jwt.NewWithClaims(jwt.SigningMethodNone, jwt.RegisteredClaims{
			Subject: "ops-admin",
		})
		signed, err := token.SignedString(jwt.UnsafeAllowNoneSignatureType)
		require.NoError(t, err)

		req := httptest.NewRequest(http.MethodPost, "/admin/cleanup", nil)
		req.Header.Set("Authorization", "Bearer "+signed)
		rec := httptest.NewRecorder()

		mw.Authenticate(failHandler(t)).ServeHTTP(rec, req)
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})
}

// failHandler fails the test if the middleware lets the request through.
func failHandler(t *testing.T) http.Handler {
	t.Helper()

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Error("request passed authentication but should have been rejected")
	})
}
