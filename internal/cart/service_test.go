package cart

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gfmartins/deliveryflow/internal/domain"
	"github.com/gfmartins/deliveryflow/internal/orders"
)

type memoryStore struct {
	carts map[uuid.UUID]*Cart
}

func newMemoryStore() *memoryStore {
	return &memoryStore{carts: map[uuid.UUID]*Cart{}}
}

func (m *memoryStore) Get(ctx context.Context, userID uuid.UUID) (*Cart, error) {
	if c, ok := m.carts[userID]; ok {
		copied := *c
		copied.Items = append([]Line(nil), c.Items...)
		return &copied, nil
	}
	return &Cart{}, nil
}

func (m *memoryStore) Save(ctx context.Context, userID uuid.UUID, c *Cart) error {
	m.carts[userID] = c
	return nil
}

func (m *memoryStore) Clear(ctx context.Context, userID uuid.UUID) error {
	delete(m.carts, userID)
	return nil
}

type stubCatalog struct {
	products    map[uuid.UUID]domain.Product
	restaurants map[uuid.UUID]domain.Restaurant
}

func (s *stubCatalog) ProductByID(ctx context.Context, id uuid.UUID) (*domain.Product, error) {
	if p, ok := s.products[id]; ok {
		return &p, nil
	}
	return nil, fmt.Errorf("product %s: %w", id, domain.ErrNotFound)
}

func (s *stubCatalog) GetRestaurant(ctx context.Context, id uuid.UUID) (*domain.Restaurant, error) {
	if r, ok := s.restaurants[id]; ok {
		return &r, nil
	}
	return nil, fmt.Errorf("restaurant %s: %w", id, domain.ErrNotFound)
}

type stubPlacer struct {
	input  orders.CreateOrderInput
	calls  int
	err    error
	placed *domain.Order
}

func (s *stubPlacer) Build(ctx context.Context, clientID uuid.UUID, in orders.CreateOrderInput) (*domain.Order, error) {
	s.calls++
	s.input = in
	if s.err != nil {
		return nil, s.err
	}
	s.placed = &domain.Order{ID: uuid.New(), ClientID: clientID, RestaurantID: in.RestaurantID, Status: domain.OrderStatusPending}
	return s.placed, nil
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func fixture() (*stubCatalog, uuid.UUID, uuid.UUID, uuid.UUID) {
	restaurantID := uuid.New()
	burgerID := uuid.New()
	otherRestaurant := uuid.New()
	foreignID := uuid.New()

	catalog := &stubCatalog{
		products: map[uuid.UUID]domain.Product{
			burgerID:  {ID: burgerID, RestaurantID: restaurantID, Name: "burger", Price: 10.0, IsAvailable: true},
			foreignID: {ID: foreignID, RestaurantID: otherRestaurant, Name: "sushi", Price: 25.0, IsAvailable: true},
		},
		restaurants: map[uuid.UUID]domain.Restaurant{
			restaurantID:    {ID: restaurantID, Name: "Burger Place"},
			otherRestaurant: {ID: otherRestaurant, Name: "Sushi Place"},
		},
	}
	return catalog, restaurantID, burgerID, foreignID
}

func TestService_Add(t *testing.T) {
	userID := uuid.New()

	t.Run("price comes from the catalog", func(t *testing.T) {
		catalog, restaurantID, burgerID, _ := fixture()
		store := newMemoryStore()
		svc := NewService(store, catalog, nil, discardLogger())

		view, err := svc.Add(context.Background(), userID, burgerID, 2)
		require.NoError(t, err)
		require.Len(t, view.Items, 1)
		assert.Equal(t, 10.0, view.Items[0].UnitPrice)
		assert.Equal(t, 20.0, view.Total)
		assert.Equal(t, restaurantID, view.RestaurantID)
		assert.Equal(t, "Burger Place", view.RestaurantName)
	})

	t.Run("cross restaurant add rejected and cart untouched", func(t *testing.T) {
		catalog, _, burgerID, foreignID := fixture()
		store := newMemoryStore()
		svc := NewService(store, catalog, nil, discardLogger())

		_, err := svc.Add(context.Background(), userID, burgerID, 1)
		require.NoError(t, err)

		_, err = svc.Add(context.Background(), userID, foreignID, 1)
		require.Error(t, err)
		assert.True(t, domain.IsValidation(err))

		view, err := svc.Get(context.Background(), userID)
		require.NoError(t, err)
		require.Len(t, view.Items, 1)
		assert.Equal(t, burgerID, view.Items[0].ProductID)
	})

	t.Run("unavailable product rejected", func(t *testing.T) {
		catalog, restaurantID, _, _ := fixture()
		offID := uuid.New()
		catalog.products[offID] = domain.Product{ID: offID, RestaurantID: restaurantID, Name: "off menu", Price: 5, IsAvailable: false}
		svc := NewService(newMemoryStore(), catalog, nil, discardLogger())

		_, err := svc.Add(context.Background(), userID, offID, 1)
		assert.True(t, domain.IsValidation(err))
	})

	t.Run("decrement to zero deletes the stored cart", func(t *testing.T) {
		catalog, _, burgerID, _ := fixture()
		store := newMemoryStore()
		svc := NewService(store, catalog, nil, discardLogger())

		_, err := svc.Add(context.Background(), userID, burgerID, 2)
		require.NoError(t, err)
		view, err := svc.Add(context.Background(), userID, burgerID, -2)
		require.NoError(t, err)

		assert.True(t, view.Cart.Empty())
		assert.NotContains(t, store.carts, userID)
	})

	t.Run("unknown product surfaces not found", func(t *testing.T) {
		catalog, _, _, _ := fixture()
		svc := NewService(newMemoryStore(), catalog, nil, discardLogger())

		_, err := svc.Add(context.Background(), userID, uuid.New(), 1)
		assert.ErrorIs(t, err, domain.ErrNotFound)
	})
}

func TestService_Checkout(t *testing.T) {
	userID := uuid.New()
	address := domain.Address{Street: "Main St", Number: "42", Neighborhood: "Center"}

	t.Run("places the order and clears the cart", func(t *testing.T) {
		catalog, restaurantID, burgerID, _ := fixture()
		store := newMemoryStore()
		placer := &stubPlacer{}
		svc := NewService(store, catalog, placer, discardLogger())

		_, err := svc.Add(context.Background(), userID, burgerID, 3)
		require.NoError(t, err)

		order, err := svc.Checkout(context.Background(), userID, CheckoutInput{
			PaymentMethod: "pix",
			Address:       address,
			DeliveryFee:   5,
		})
		require.NoError(t, err)
		assert.Equal(t, userID, order.ClientID)

		assert.Equal(t, restaurantID, placer.input.RestaurantID)
		require.Len(t, placer.input.Items, 1)
		assert.Equal(t, burgerID, placer.input.Items[0].ProductID)
		assert.Equal(t, 3, placer.input.Items[0].Quantity)

		view, err := svc.Get(context.Background(), userID)
		require.NoError(t, err)
		assert.True(t, view.Cart.Empty())
	})

	t.Run("empty cart cannot check out", func(t *testing.T) {
		catalog, _, _, _ := fixture()
		placer := &stubPlacer{}
		svc := NewService(newMemoryStore(), catalog, placer, discardLogger())

		_, err := svc.Checkout(context.Background(), userID, CheckoutInput{PaymentMethod: "pix", Address: address})
		assert.True(t, domain.IsValidation(err))
		assert.Zero(t, placer.calls)
	})

	t.Run("failed order keeps the cart", func(t *testing.T) {
		catalog, _, burgerID, _ := fixture()
		store := newMemoryStore()
		placer := &stubPlacer{err: fmt.Errorf("restaurant closed: %w", domain.ErrNotFound)}
		svc := NewService(store, catalog, placer, discardLogger())

		_, err := svc.Add(context.Background(), userID, burgerID, 1)
		require.NoError(t, err)

		_, err = svc.Checkout(context.Background(), userID, CheckoutInput{PaymentMethod: "card", Address: address})
		require.Error(t, err)

		view, err := svc.Get(context.Background(), userID)
		require.NoError(t, err)
		assert.False(t, view.Cart.Empty())
	})
}
