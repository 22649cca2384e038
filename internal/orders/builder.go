package orders

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/gfmartins/deliveryflow/internal/domain"
)

// Catalog is what the builder needs from the product side: restaurant
// existence and a batch product fetch scoped to that restaurant.
type Catalog interface {
	GetRestaurant(ctx context.Context, id uuid.UUID) (*domain.Restaurant, error)
	ProductsByIDs(ctx context.Context, restaurantID uuid.UUID, ids []uuid.UUID) (map[uuid.UUID]domain.Product, error)
}

type Store interface {
	Create(ctx context.Context, order *domain.Order) error
}

// Publisher emits order lifecycle events. Publishing is best effort: a dead
// broker never fails a checkout.
type Publisher interface {
	Publish(ctx context.Context, topic, key string, event any) error
}

type ItemInput struct {
	ProductID uuid.UUID `json:"product_id"`
	Quantity  int       `json:"quantity"`
}

type CreateOrderInput struct {
	RestaurantID  uuid.UUID      `json:"restaurant_id"`
	Items         []ItemInput    `json:"items"`
	PaymentMethod string         `json:"payment_method"`
	Address       domain.Address `json:"shipping_address"`
	DeliveryFee   float64        `json:"delivery_fee"`
}

// Builder materializes a submission into an immutable order. Prices and
// names are snapshotted from the catalog at this moment; whatever the client
// sent for either is ignored.
type Builder struct {
	catalog Catalog
	store   Store
	events  Publisher
	logger  *slog.Logger
}

func NewBuilder(catalog Catalog, store Store, events Publisher, logger *slog.Logger) *Builder {
	return &Builder{catalog: catalog, store: store, events: events, logger: logger}
}

func (b *Builder) Build(ctx context.Context, clientID uuid.UUID, in CreateOrderInput) (*domain.Order, error) {
	if err := b.validate(in); err != nil {
		return nil, err
	}
	payment, _ := domain.ParsePaymentMethod(in.PaymentMethod)

	if _, err := b.catalog.GetRestaurant(ctx, in.RestaurantID); err != nil {
		return nil, err
	}

	ids := make([]uuid.UUID, len(in.Items))
	for i, item := range in.Items {
		ids[i] = item.ProductID
	}

	products, err := b.catalog.ProductsByIDs(ctx, in.RestaurantID, ids)
	if err != nil {
		return nil, err
	}

	var itemsTotal float64
	lines := make([]domain.OrderItem, len(in.Items))
	for i, item := range in.Items {
		product, ok := products[item.ProductID]
		if !ok {
			return nil, domain.Validationf("product %s not found in this restaurant", item.ProductID)
		}

		subtotal := domain.RoundMoney(product.Price * float64(item.Quantity))
		itemsTotal += subtotal
		lines[i] = domain.OrderItem{
			ProductID: product.ID,
			Name:      product.Name,
			Quantity:  item.Quantity,
			UnitPrice: product.Price,
			Subtotal:  subtotal,
		}
	}

	order := &domain.Order{
		ClientID:      clientID,
		RestaurantID:  in.RestaurantID,
		Items:         lines,
		TotalPrice:    domain.RoundMoney(itemsTotal + in.DeliveryFee),
		DeliveryFee:   domain.RoundMoney(in.DeliveryFee),
		PaymentMethod: payment,
		Address:       in.Address,
		Status:        domain.OrderStatusPending,
	}

	if err := b.store.Create(ctx, order); err != nil {
		return nil, err
	}

	if b.events != nil {
		event := domain.OrderCreatedEvent{
			OrderID:      order.ID,
			ClientID:     order.ClientID,
			RestaurantID: order.RestaurantID,
			TotalPrice:   order.TotalPrice,
			Status:       order.Status,
			Timestamp:    time.Now().UTC(),
		}
		if err := b.events.Publish(ctx, domain.TopicOrderCreated, order.ID.String(), event); err != nil {
			b.logger.Error("failed to publish order created event", "error", err, "order_id", order.ID)
		}
	}

	b.logger.Info("order created", "order_id", order.ID, "restaurant_id", order.RestaurantID, "total", order.TotalPrice)
	return order, nil
}

func (b *Builder) validate(in CreateOrderInput) error {
	if in.RestaurantID == uuid.Nil {
		return domain.Validationf("restaurant id is required")
	}
	if len(in.Items) == 0 {
		return domain.Validationf("order must contain at least one item")
	}
	for _, item := range in.Items {
		if item.ProductID == uuid.Nil {
			return domain.Validationf("every item needs a product id")
		}
		if item.Quantity < 1 {
			return domain.Validationf("item quantity must be at least 1")
		}
	}
	if _, ok := domain.ParsePaymentMethod(in.PaymentMethod); !ok {
		return domain.Validationf("payment method must be one of card, pix, cash")
	}
	if !in.Address.Complete() {
		return domain.Validationf("delivery address needs street, number and neighborhood")
	}
	if in.DeliveryFee < 0 {
		return domain.Validationf("delivery fee cannot be negative")
	}
	return nil
}
