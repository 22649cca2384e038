package analytics

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gfmartins/deliveryflow/internal/domain"
)

type recordingStore struct {
	added      []string
	subtracted []string
	revenue    map[string]float64
}

func newRecordingStore() *recordingStore {
	return &recordingStore{revenue: map[string]float64{}}
}

func (r *recordingStore) AddOrder(ctx context.Context, restaurantID, clientID uuid.UUID, day string, revenue float64) error {
	key := day + ":" + restaurantID.String()
	r.added = append(r.added, key)
	r.revenue[key] += revenue
	return nil
}

func (r *recordingStore) SubtractRevenue(ctx context.Context, restaurantID uuid.UUID, day string, revenue float64) error {
	key := day + ":" + restaurantID.String()
	r.subtracted = append(r.subtracted, key)
	r.revenue[key] -= revenue
	return nil
}

func testAggregator(store DailyStore) *Aggregator {
	return NewAggregator(store, slog.New(slog.NewTextHandler(io.Discard, nil)))
}

func TestAggregator_Handle(t *testing.T) {
	restaurantID := uuid.New()
	placedAt := time.Date(2026, 3, 14, 18, 30, 0, 0, time.UTC)

	created := func(total float64) []byte {
		payload, err := json.Marshal(domain.OrderCreatedEvent{
			OrderID:      uuid.New(),
			ClientID:     uuid.New(),
			RestaurantID: restaurantID,
			TotalPrice:   total,
			Status:       domain.OrderStatusPending,
			Timestamp:    placedAt,
		})
		require.NoError(t, err)
		return payload
	}

	statusChange := func(to domain.OrderStatus, total float64) []byte {
		payload, err := json.Marshal(domain.OrderStatusChangedEvent{
			OrderID:      uuid.New(),
			RestaurantID: restaurantID,
			OldStatus:    domain.OrderStatusPending,
			NewStatus:    to,
			TotalPrice:   total,
			Timestamp:    placedAt,
		})
		require.NoError(t, err)
		return payload
	}

	dayBucket := "2026-03-14:" + restaurantID.String()

	t.Run("created order folds into its day", func(t *testing.T) {
		store := newRecordingStore()
		agg := testAggregator(store)

		require.NoError(t, agg.Handle(context.Background(), domain.TopicOrderCreated, created(42.5)))
		require.Len(t, store.added, 1)
		assert.Equal(t, dayBucket, store.added[0])
		assert.Equal(t, 42.5, store.revenue[dayBucket])
	})

	t.Run("cancellation backs revenue out", func(t *testing.T) {
		store := newRecordingStore()
		agg := testAggregator(store)

		require.NoError(t, agg.Handle(context.Background(), domain.TopicOrderCreated, created(42.5)))
		require.NoError(t, agg.Handle(context.Background(), domain.TopicOrderStatusChanged, statusChange(domain.OrderStatusCancelled, 42.5)))

		assert.Equal(t, 0.0, store.revenue[dayBucket])
		assert.Equal(t, []string{dayBucket}, store.subtracted)
	})

	t.Run("forward transitions leave the aggregate alone", func(t *testing.T) {
		store := newRecordingStore()
		agg := testAggregator(store)

		for _, s := range []domain.OrderStatus{
			domain.OrderStatusAccepted,
			domain.OrderStatusOnTheWay,
			domain.OrderStatusDelivered,
		} {
			require.NoError(t, agg.Handle(context.Background(), domain.TopicOrderStatusChanged, statusChange(s, 42.5)))
		}
		assert.Empty(t, store.subtracted)
	})

	t.Run("unknown topic is skipped without error", func(t *testing.T) {
		store := newRecordingStore()
		agg := testAggregator(store)

		assert.NoError(t, agg.Handle(context.Background(), "order.archived", []byte(`{}`)))
		assert.Empty(t, store.added)
	})

	t.Run("malformed payload surfaces an error", func(t *testing.T) {
		store := newRecordingStore()
		agg := testAggregator(store)

		assert.Error(t, agg.Handle(context.Background(), domain.TopicOrderCreated, []byte(`not json`)))
	})
}
