package cart

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"github.com/gfmartins/deliveryflow/internal/domain"
	"github.com/gfmartins/deliveryflow/internal/orders"
)

// Store is the cart persistence contract; the Redis store is the only
// production implementation.
type Store interface {
	Get(ctx context.Context, userID uuid.UUID) (*Cart, error)
	Save(ctx context.Context, userID uuid.UUID, c *Cart) error
	Clear(ctx context.Context, userID uuid.UUID) error
}

// Catalog supplies live product and restaurant data; cart lines always
// copy the current menu price, never what the client sends.
type Catalog interface {
	ProductByID(ctx context.Context, id uuid.UUID) (*domain.Product, error)
	GetRestaurant(ctx context.Context, id uuid.UUID) (*domain.Restaurant, error)
}

// OrderPlacer turns a checkout into a persisted order.
type OrderPlacer interface {
	Build(ctx context.Context, clientID uuid.UUID, in orders.CreateOrderInput) (*domain.Order, error)
}

type Service struct {
	store   Store
	catalog Catalog
	placer  OrderPlacer
	logger  *slog.Logger
}

func NewService(store Store, catalog Catalog, placer OrderPlacer, logger *slog.Logger) *Service {
	return &Service{store: store, catalog: catalog, placer: placer, logger: logger}
}

// View is the cart as returned to clients, with the running total.
type View struct {
	Cart
	Total float64 `json:"total"`
}

func (s *Service) Get(ctx context.Context, userID uuid.UUID) (*View, error) {
	c, err := s.store.Get(ctx, userID)
	if err != nil {
		return nil, err
	}
	return &View{Cart: *c, Total: c.Total()}, nil
}

// Add applies a quantity delta for a product. The price and restaurant
// binding are derived from the catalog at the moment of the add; a
// product from a different restaurant than the cart's is rejected.
func (s *Service) Add(ctx context.Context, userID, productID uuid.UUID, quantity int) (*View, error) {
	if quantity == 0 {
		return nil, domain.Validationf("quantity must not be zero")
	}

	product, err := s.catalog.ProductByID(ctx, productID)
	if err != nil {
		return nil, err
	}
	if quantity > 0 && !product.IsAvailable {
		return nil, domain.Validationf("product %q is not available", product.Name)
	}

	c, err := s.store.Get(ctx, userID)
	if err != nil {
		return nil, err
	}
	if !c.Empty() && c.RestaurantID != product.RestaurantID {
		return nil, ErrRestaurantMismatch
	}
	if c.Empty() {
		restaurant, err := s.catalog.GetRestaurant(ctx, product.RestaurantID)
		if err != nil {
			return nil, fmt.Errorf("resolve cart restaurant: %w", err)
		}
		c.SetRestaurant(restaurant.ID, restaurant.Name)
	}

	line := Line{ProductID: product.ID, Name: product.Name, UnitPrice: product.Price}
	if err := c.AddItem(line, quantity); err != nil {
		return nil, err
	}
	if err := s.persist(ctx, userID, c); err != nil {
		return nil, err
	}
	return &View{Cart: *c, Total: c.Total()}, nil
}

// Remove drops a product line entirely.
func (s *Service) Remove(ctx context.Context, userID, productID uuid.UUID) (*View, error) {
	c, err := s.store.Get(ctx, userID)
	if err != nil {
		return nil, err
	}
	c.RemoveItem(productID)
	if err := s.persist(ctx, userID, c); err != nil {
		return nil, err
	}
	return &View{Cart: *c, Total: c.Total()}, nil
}

func (s *Service) ClearAll(ctx context.Context, userID uuid.UUID) error {
	return s.store.Clear(ctx, userID)
}

type CheckoutInput struct {
	PaymentMethod string         `json:"payment_method"`
	Address       domain.Address `json:"shipping_address"`
	DeliveryFee   float64        `json:"delivery_fee"`
}

// Checkout converts the cart into an order and clears it. The order
// builder re-derives every price from the catalog, so a cart that went
// stale since its items were added is repriced, not trusted. The cart is
// only cleared once the order is persisted.
func (s *Service) Checkout(ctx context.Context, userID uuid.UUID, in CheckoutInput) (*domain.Order, error) {
	c, err := s.store.Get(ctx, userID)
	if err != nil {
		return nil, err
	}
	if c.Empty() {
		return nil, domain.Validationf("cart is empty")
	}

	input := orders.CreateOrderInput{
		RestaurantID:  c.RestaurantID,
		PaymentMethod: in.PaymentMethod,
		Address:       in.Address,
		DeliveryFee:   in.DeliveryFee,
	}
	for _, line := range c.Items {
		input.Items = append(input.Items, orders.ItemInput{ProductID: line.ProductID, Quantity: line.Quantity})
	}

	order, err := s.placer.Build(ctx, userID, input)
	if err != nil {
		return nil, err
	}

	if err := s.store.Clear(ctx, userID); err != nil {
		// the order exists either way; a lingering cart is recoverable
		s.logger.Warn("cart not cleared after checkout", "user_id", userID, "error", err)
	}
	return order, nil
}

// an emptied cart is deleted rather than stored empty, so Redis only
// holds carts with content
func (s *Service) persist(ctx context.Context, userID uuid.UUID, c *Cart) error {
	if c.Empty() {
		return s.store.Clear(ctx, userID)
	}
	return s.store.Save(ctx, userID, c)
}
