package analytics

import (
	"context"
	"database/sql"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/gfmartins/deliveryflow/internal/domain"
)

// RestaurantSummary is one restaurant's dashboard for a single day.
type RestaurantSummary struct {
	Date            string  `json:"date"`
	TotalOrders     int64   `json:"total_orders"`
	Revenue         float64 `json:"revenue"`
	DistinctClients int64   `json:"distinct_clients"`
}

// DailyTransactions is one row of the admin report: settled volume per
// day across all restaurants.
type DailyTransactions struct {
	Date        string  `json:"date"`
	OrderCount  int64   `json:"order_count"`
	TotalAmount float64 `json:"total_amount"`
}

// SummaryReader is the Redis fast path; nil disables it entirely and
// every read computes from SQL.
type SummaryReader interface {
	Summary(ctx context.Context, restaurantID uuid.UUID, day string) (RestaurantSummary, bool, error)
}

type Service struct {
	db     *sql.DB
	cache  SummaryReader
	logger *slog.Logger
}

func NewService(db *sql.DB, cache SummaryReader, logger *slog.Logger) *Service {
	return &Service{db: db, cache: cache, logger: logger}
}

// RestaurantToday returns today's dashboard for one restaurant. The
// worker-maintained aggregate answers when present; otherwise the numbers
// are computed from the orders table, counting every order placed today
// but excluding cancelled ones from revenue.
func (s *Service) RestaurantToday(ctx context.Context, restaurantID uuid.UUID) (*RestaurantSummary, error) {
	day := dayKey(time.Now())

	if s.cache != nil {
		summary, ok, err := s.cache.Summary(ctx, restaurantID, day)
		if err != nil {
			s.logger.Warn("daily aggregate unavailable, computing from sql", "restaurant_id", restaurantID, "error", err)
		} else if ok {
			summary.Revenue = domain.RoundMoney(summary.Revenue)
			return &summary, nil
		}
	}

	summary := RestaurantSummary{Date: day}
	err := s.db.QueryRowContext(ctx, `
		SELECT
			COUNT(*),
			COALESCE(SUM(total_price) FILTER (WHERE status <> $2), 0),
			COUNT(DISTINCT client_id)
		FROM orders
		WHERE restaurant_id = $1
		  AND created_at >= date_trunc('day', now())
	`, restaurantID, domain.OrderStatusCancelled).Scan(&summary.TotalOrders, &summary.Revenue, &summary.DistinctClients)
	if err != nil {
		return nil, err
	}

	summary.Revenue = domain.RoundMoney(summary.Revenue)
	return &summary, nil
}

// DailyReport aggregates settled transactions per day over the trailing
// window. Pending and cancelled orders never count as transactions.
func (s *Service) DailyReport(ctx context.Context, days int) ([]DailyTransactions, error) {
	if days <= 0 {
		days = 7
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT
			created_at::date AS day,
			COUNT(*),
			COALESCE(SUM(total_price), 0)
		FROM orders
		WHERE status NOT IN ($1, $2)
		  AND created_at >= date_trunc('day', now()) - make_interval(days => $3)
		GROUP BY day
		ORDER BY day DESC
	`, domain.OrderStatusPending, domain.OrderStatusCancelled, days)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	report := []DailyTransactions{}
	for rows.Next() {
		var row DailyTransactions
		var day time.Time
		if err := rows.Scan(&day, &row.OrderCount, &row.TotalAmount); err != nil {
			return nil, err
		}
		row.Date = dayKey(day)
		row.TotalAmount = domain.RoundMoney(row.TotalAmount)
		report = append(report, row)
	}
	return report, rows.Err()
}
