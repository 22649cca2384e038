// Package analytics derives restaurant dashboards and the admin
// transaction report. Per-day restaurant aggregates are folded into Redis
// by the worker as order events arrive; readers prefer those and fall
// back to SQL when the aggregate is missing.
package analytics

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// aggregates are kept long enough to cover a monthly report plus slack
const aggregateTTL = 40 * 24 * time.Hour

func dayKey(ts time.Time) string {
	return ts.UTC().Format("2006-01-02")
}

func statsKey(day string, restaurantID uuid.UUID) string {
	return "analytics:daily:" + day + ":" + restaurantID.String()
}

func clientsKey(day string, restaurantID uuid.UUID) string {
	return "analytics:clients:" + day + ":" + restaurantID.String()
}

// RedisDaily maintains one hash per restaurant per day with the order
// count and the running revenue, plus a HyperLogLog of distinct clients.
type RedisDaily struct {
	client *redis.Client
}

func NewRedisDaily(client *redis.Client) *RedisDaily {
	return &RedisDaily{client: client}
}

func (r *RedisDaily) AddOrder(ctx context.Context, restaurantID, clientID uuid.UUID, day string, revenue float64) error {
	pipe := r.client.TxPipeline()
	stats := statsKey(day, restaurantID)
	clients := clientsKey(day, restaurantID)

	pipe.HIncrBy(ctx, stats, "orders", 1)
	pipe.HIncrByFloat(ctx, stats, "revenue", revenue)
	pipe.PFAdd(ctx, clients, clientID.String())
	pipe.Expire(ctx, stats, aggregateTTL)
	pipe.Expire(ctx, clients, aggregateTTL)

	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("fold order into %s: %w", stats, err)
	}
	return nil
}

// SubtractRevenue backs a cancelled order's total out of the day it was
// placed. The order count stays; a cancelled order still happened.
func (r *RedisDaily) SubtractRevenue(ctx context.Context, restaurantID uuid.UUID, day string, revenue float64) error {
	if err := r.client.HIncrByFloat(ctx, statsKey(day, restaurantID), "revenue", -revenue).Err(); err != nil {
		return fmt.Errorf("subtract cancelled revenue: %w", err)
	}
	return nil
}

// Summary reads the day's aggregate. ok is false when nothing was folded
// for that day, which tells the caller to compute from SQL instead.
func (r *RedisDaily) Summary(ctx context.Context, restaurantID uuid.UUID, day string) (RestaurantSummary, bool, error) {
	fields, err := r.client.HGetAll(ctx, statsKey(day, restaurantID)).Result()
	if err != nil {
		return RestaurantSummary{}, false, fmt.Errorf("read daily aggregate: %w", err)
	}
	if len(fields) == 0 {
		return RestaurantSummary{}, false, nil
	}

	summary := RestaurantSummary{Date: day}
	if v, ok := fields["orders"]; ok {
		summary.TotalOrders, _ = strconv.ParseInt(v, 10, 64)
	}
	if v, ok := fields["revenue"]; ok {
		summary.Revenue, _ = strconv.ParseFloat(v, 64)
	}

	clients, err := r.client.PFCount(ctx, clientsKey(day, restaurantID)).Result()
	if err != nil {
		return RestaurantSummary{}, false, fmt.Errorf("count distinct clients: %w", err)
	}
	summary.DistinctClients = clients

	return summary, true, nil
}
