package auth

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gfmartins/deliveryflow/internal/domain"
)

func TestTokens_RoundTrip(t *testing.T) {
	tokens := NewTokens([]byte("test-secret"), time.Hour)
	restaurantID := uuid.New()
	user := domain.User{
		ID:           uuid.New(),
		Role:         domain.RoleEmployee,
		RestaurantID: &restaurantID,
	}

	token, err := tokens.Issue(user)
	require.NoError(t, err)

	claims, err := tokens.Parse(token)
	require.NoError(t, err)
	assert.Equal(t, user.ID, claims.UserID)
	assert.Equal(t, domain.RoleEmployee, claims.Role)
	require.NotNil(t, claims.RestaurantID)
	assert.Equal(t, restaurantID, *claims.RestaurantID)
}

func TestTokens_Parse_Invalid(t *testing.T) {
	tokens := NewTokens([]byte("test-secret"), time.Hour)

	t.Run("wrong secret", func(t *testing.T) {
		other := NewTokens([]byte("other-secret"), time.Hour)
		token, err := other.Issue(domain.User{ID: uuid.New(), Role: domain.RoleClient})
		require.NoError(t, err)

		_, err = tokens.Parse(token)
		assert.ErrorIs(t, err, domain.ErrUnauthorized)
	})

	t.Run("expired", func(t *testing.T) {
		expired := NewTokens([]byte("test-secret"), -time.Minute)
		token, err := expired.Issue(domain.User{ID: uuid.New(), Role: domain.RoleClient})
		require.NoError(t, err)

		_, err = tokens.Parse(token)
		assert.ErrorIs(t, err, domain.ErrUnauthorized)
	})

	t.Run("garbage", func(t *testing.T) {
		_, err := tokens.Parse("not-a-token")
		assert.ErrorIs(t, err, domain.ErrUnauthorized)
	})
}

func TestPassword_HashAndCheck(t *testing.T) {
	hash, err := HashPassword("secret1")
	require.NoError(t, err)
	assert.NotEqual(t, "secret1", hash)

	assert.True(t, CheckPassword(hash, "secret1"))
	assert.False(t, CheckPassword(hash, "secret2"))
}

func TestMiddleware(t *testing.T) {
	tokens := NewTokens([]byte("test-secret"), time.Hour)
	user := domain.User{ID: uuid.New(), Role: domain.RoleClient}

	var got domain.Principal
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		p, err := PrincipalFrom(r)
		require.NoError(t, err)
		got = p
		w.WriteHeader(http.StatusOK)
	})
	handler := Middleware(tokens)(next)

	t.Run("valid token passes principal through", func(t *testing.T) {
		token, err := tokens.Issue(user)
		require.NoError(t, err)

		req := httptest.NewRequest(http.MethodGet, "/orders", nil)
		req.Header.Set("Authorization", "Bearer "+token)
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)

		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, user.ID, got.UserID)
		assert.Equal(t, domain.RoleClient, got.Role)
	})

	t.Run("missing header rejected", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/orders", nil)
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})

	t.Run("malformed header rejected", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/orders", nil)
		req.Header.Set("Authorization", "Token abc")
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})
}
