package access

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gfmartins/deliveryflow/internal/domain"
)

type fakeDirectory struct {
	byOwner map[uuid.UUID]uuid.UUID
	err     error
}

func (f *fakeDirectory) RestaurantIDByOwner(ctx context.Context, ownerID uuid.UUID) (uuid.UUID, error) {
	if f.err != nil {
		return uuid.Nil, f.err
	}
	id, ok := f.byOwner[ownerID]
	if !ok {
		return uuid.Nil, fmt.Errorf("restaurant: %w", domain.ErrNotFound)
	}
	return id, nil
}

func TestResolver_Scope(t *testing.T) {
	ownerID := uuid.New()
	restaurantID := uuid.New()
	dir := &fakeDirectory{byOwner: map[uuid.UUID]uuid.UUID{ownerID: restaurantID}}
	resolver := NewResolver(dir)

	t.Run("admin is unscoped", func(t *testing.T) {
		scope, err := resolver.Scope(context.Background(), domain.Principal{UserID: uuid.New(), Role: domain.RoleAdmin})
		require.NoError(t, err)
		assert.Equal(t, ScopeAll, scope.Kind)
	})

	t.Run("client scopes to self", func(t *testing.T) {
		id := uuid.New()
		scope, err := resolver.Scope(context.Background(), domain.Principal{UserID: id, Role: domain.RoleClient})
		require.NoError(t, err)
		assert.Equal(t, ScopeSelf, scope.Kind)
		assert.Equal(t, id, scope.UserID)
	})

	t.Run("restaurant owner resolves by lookup", func(t *testing.T) {
		scope, err := resolver.Scope(context.Background(), domain.Principal{UserID: ownerID, Role: domain.RoleRestaurant})
		require.NoError(t, err)
		assert.Equal(t, ScopeRestaurant, scope.Kind)
		assert.Equal(t, restaurantID, scope.RestaurantID)
	})

	t.Run("restaurant owner with denormalized id skips lookup", func(t *testing.T) {
		rid := uuid.New()
		scope, err := resolver.Scope(context.Background(), domain.Principal{UserID: uuid.New(), Role: domain.RoleRestaurant, RestaurantID: &rid})
		require.NoError(t, err)
		assert.Equal(t, rid, scope.RestaurantID)
	})

	t.Run("restaurant role with no restaurant fails closed", func(t *testing.T) {
		_, err := resolver.Scope(context.Background(), domain.Principal{UserID: uuid.New(), Role: domain.RoleRestaurant})
		assert.ErrorIs(t, err, domain.ErrForbidden)
	})

	t.Run("employee without association fails closed", func(t *testing.T) {
		_, err := resolver.Scope(context.Background(), domain.Principal{UserID: uuid.New(), Role: domain.RoleEmployee})
		assert.ErrorIs(t, err, domain.ErrForbidden)
	})

	t.Run("employee uses stored association", func(t *testing.T) {
		rid := uuid.New()
		scope, err := resolver.Scope(context.Background(), domain.Principal{UserID: uuid.New(), Role: domain.RoleEmployee, RestaurantID: &rid})
		require.NoError(t, err)
		assert.Equal(t, rid, scope.RestaurantID)
	})
}

func TestResolver_Authorize(t *testing.T) {
	resolver := NewResolver(&fakeDirectory{})

	t.Run("client may not update orders", func(t *testing.T) {
		_, err := resolver.Authorize(context.Background(), domain.Principal{UserID: uuid.New(), Role: domain.RoleClient}, ResourceOrder, ActionUpdate)
		assert.ErrorIs(t, err, domain.ErrForbidden)
	})

	t.Run("client may create orders", func(t *testing.T) {
		_, err := resolver.Authorize(context.Background(), domain.Principal{UserID: uuid.New(), Role: domain.RoleClient}, ResourceOrder, ActionCreate)
		assert.NoError(t, err)
	})

	t.Run("client may not touch products", func(t *testing.T) {
		_, err := resolver.Authorize(context.Background(), domain.Principal{UserID: uuid.New(), Role: domain.RoleClient}, ResourceProduct, ActionCreate)
		assert.ErrorIs(t, err, domain.ErrForbidden)
	})

	t.Run("unknown role denied", func(t *testing.T) {
		_, err := resolver.Authorize(context.Background(), domain.Principal{UserID: uuid.New(), Role: "courier"}, ResourceOrder, ActionRead)
		assert.ErrorIs(t, err, domain.ErrForbidden)
	})
}

func TestResolver_RestaurantScope(t *testing.T) {
	rid := uuid.New()
	resolver := NewResolver(&fakeDirectory{})

	t.Run("admin must designate a restaurant", func(t *testing.T) {
		_, err := resolver.RestaurantScope(context.Background(), domain.Principal{UserID: uuid.New(), Role: domain.RoleAdmin}, ResourceProduct, ActionCreate, uuid.Nil)
		var ve *domain.ValidationError
		assert.True(t, errors.As(err, &ve))
	})

	t.Run("admin acts as designated restaurant", func(t *testing.T) {
		got, err := resolver.RestaurantScope(context.Background(), domain.Principal{UserID: uuid.New(), Role: domain.RoleAdmin}, ResourceProduct, ActionCreate, rid)
		require.NoError(t, err)
		assert.Equal(t, rid, got)
	})

	t.Run("staff cannot designate a foreign restaurant", func(t *testing.T) {
		own := uuid.New()
		_, err := resolver.RestaurantScope(context.Background(), domain.Principal{UserID: uuid.New(), Role: domain.RoleEmployee, RestaurantID: &own}, ResourceProduct, ActionCreate, rid)
		assert.ErrorIs(t, err, domain.ErrForbidden)
	})

	t.Run("staff defaults to own restaurant", func(t *testing.T) {
		own := uuid.New()
		got, err := resolver.RestaurantScope(context.Background(), domain.Principal{UserID: uuid.New(), Role: domain.RoleEmployee, RestaurantID: &own}, ResourceProduct, ActionCreate, uuid.Nil)
		require.NoError(t, err)
		assert.Equal(t, own, got)
	})
}
