package analytics

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"github.com/gfmartins/deliveryflow/internal/domain"
)

// DailyStore is the aggregate sink the worker folds events into.
type DailyStore interface {
	AddOrder(ctx context.Context, restaurantID, clientID uuid.UUID, day string, revenue float64) error
	SubtractRevenue(ctx context.Context, restaurantID uuid.UUID, day string, revenue float64) error
}

// Aggregator folds order events into per-restaurant daily aggregates.
// Both folds are idempotent-adjacent rather than exactly-once: a replayed
// event double-counts, which the read path tolerates because dashboards
// are advisory and the SQL fallback stays authoritative.
type Aggregator struct {
	store  DailyStore
	logger *slog.Logger
}

func NewAggregator(store DailyStore, logger *slog.Logger) *Aggregator {
	return &Aggregator{store: store, logger: logger}
}

// Handle routes one consumed message by topic. Unknown topics are logged
// and skipped so a topic added later does not wedge the consumer group.
func (a *Aggregator) Handle(ctx context.Context, topic string, payload []byte) error {
	switch topic {
	case domain.TopicOrderCreated:
		return a.handleCreated(ctx, payload)
	case domain.TopicOrderStatusChanged:
		return a.handleStatusChanged(ctx, payload)
	default:
		a.logger.Warn("skipping message from unexpected topic", "topic", topic)
		return nil
	}
}

func (a *Aggregator) handleCreated(ctx context.Context, payload []byte) error {
	var event domain.OrderCreatedEvent
	if err := json.Unmarshal(payload, &event); err != nil {
		return fmt.Errorf("decode order created event: %w", err)
	}

	day := dayKey(event.Timestamp)
	if err := a.store.AddOrder(ctx, event.RestaurantID, event.ClientID, day, event.TotalPrice); err != nil {
		return err
	}

	a.logger.Info("order folded into daily aggregate",
		"order_id", event.OrderID,
		"restaurant_id", event.RestaurantID,
		"day", day,
	)
	return nil
}

func (a *Aggregator) handleStatusChanged(ctx context.Context, payload []byte) error {
	var event domain.OrderStatusChangedEvent
	if err := json.Unmarshal(payload, &event); err != nil {
		return fmt.Errorf("decode status changed event: %w", err)
	}

	// only cancellations move the aggregate: the revenue counted at
	// creation has to come back out
	if event.NewStatus != domain.OrderStatusCancelled {
		return nil
	}

	day := dayKey(event.Timestamp)
	if err := a.store.SubtractRevenue(ctx, event.RestaurantID, day, event.TotalPrice); err != nil {
		return err
	}

	a.logger.Info("cancelled order backed out of daily aggregate",
		"order_id", event.OrderID,
		"restaurant_id", event.RestaurantID,
		"day", day,
	)
	return nil
}
