package orders

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"github.com/gfmartins/deliveryflow/internal/domain"
)

type Repository struct {
	db *sql.DB
}

func NewRepository(db *sql.DB) *Repository {
	return &Repository{db: db}
}

const orderColumns = `id, client_id, restaurant_id, status, total_price, delivery_fee,
	payment_method, delivery_street, delivery_number, delivery_neighborhood, created_at, updated_at`

// Create persists the order and its frozen line items in one transaction.
// The order row never changes after this except status and updated_at.
func (r *Repository) Create(ctx context.Context, order *domain.Order) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	order.ID = uuid.New()
	now := time.Now().UTC()
	order.CreatedAt = now
	order.UpdatedAt = now

	_, err = tx.ExecContext(ctx, `
		INSERT INTO orders (id, client_id, restaurant_id, status, total_price, delivery_fee,
			payment_method, delivery_street, delivery_number, delivery_neighborhood, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $11)
	`, order.ID, order.ClientID, order.RestaurantID, order.Status, order.TotalPrice, order.DeliveryFee,
		order.PaymentMethod, order.Address.Street, order.Address.Number, order.Address.Neighborhood, now)
	if err != nil {
		return err
	}

	for _, item := range order.Items {
		_, err = tx.ExecContext(ctx, `
			INSERT INTO order_items (id, order_id, product_id, name, quantity, unit_price, subtotal)
			VALUES ($1, $2, $3, $4, $5, $6, $7)
		`, uuid.New(), order.ID, item.ProductID, item.Name, item.Quantity, item.UnitPrice, item.Subtotal)
		if err != nil {
			return err
		}
	}

	return tx.Commit()
}

// Get fetches one order, optionally filtered to a client or a restaurant.
// Scoped callers pass their resolved scope as a filter so an order outside it
// comes back as not found, never as someone else's record.
func (r *Repository) Get(ctx context.Context, id, clientID, restaurantID uuid.UUID) (*domain.Order, error) {
	query := `SELECT ` + orderColumns + ` FROM orders WHERE id = $1`
	args := []any{id}
	if clientID != uuid.Nil {
		args = append(args, clientID)
		query += fmt.Sprintf(` AND client_id = $%d`, len(args))
	}
	if restaurantID != uuid.Nil {
		args = append(args, restaurantID)
		query += fmt.Sprintf(` AND restaurant_id = $%d`, len(args))
	}

	order, err := scanOrder(r.db.QueryRowContext(ctx, query, args...))
	if err != nil {
		return nil, err
	}

	if err := r.loadItems(ctx, map[uuid.UUID]*domain.Order{order.ID: order}); err != nil {
		return nil, err
	}

	return order, nil
}

// ListByClient returns the caller's order history, newest first.
func (r *Repository) ListByClient(ctx context.Context, clientID uuid.UUID) ([]domain.Order, error) {
	return r.list(ctx, `
		SELECT `+orderColumns+`
		FROM orders
		WHERE client_id = $1
		ORDER BY created_at DESC
	`, clientID)
}

// ListByRestaurant returns restaurant orders, newest first. With no explicit
// statuses the terminal ones are excluded, which is what the kitchen board
// shows by default.
func (r *Repository) ListByRestaurant(ctx context.Context, restaurantID uuid.UUID, statuses []domain.OrderStatus) ([]domain.Order, error) {
	if len(statuses) == 0 {
		return r.list(ctx, `
			SELECT `+orderColumns+`
			FROM orders
			WHERE restaurant_id = $1 AND status NOT IN ($2, $3)
			ORDER BY created_at DESC
		`, restaurantID, domain.OrderStatusDelivered, domain.OrderStatusCancelled)
	}

	wanted := make([]string, len(statuses))
	for i, s := range statuses {
		wanted[i] = string(s)
	}
	return r.list(ctx, `
		SELECT `+orderColumns+`
		FROM orders
		WHERE restaurant_id = $1 AND status = ANY($2)
		ORDER BY created_at DESC
	`, restaurantID, pq.Array(wanted))
}

// UpdateStatus flips the status of an order belonging to the given
// restaurant. Concurrent updates are last-write-wins; there is no version
// check.
func (r *Repository) UpdateStatus(ctx context.Context, id, restaurantID uuid.UUID, status domain.OrderStatus) (*domain.Order, error) {
	query := `UPDATE orders SET status = $2, updated_at = NOW() WHERE id = $1`
	args := []any{id, status}
	if restaurantID != uuid.Nil {
		query += ` AND restaurant_id = $3`
		args = append(args, restaurantID)
	}

	result, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return nil, err
	}
	if affected == 0 {
		return nil, fmt.Errorf("order %s: %w", id, domain.ErrNotFound)
	}

	return r.Get(ctx, id, uuid.Nil, uuid.Nil)
}

func (r *Repository) list(ctx context.Context, query string, args ...any) ([]domain.Order, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	byID := make(map[uuid.UUID]*domain.Order)
	var ordered []uuid.UUID

	for rows.Next() {
		order, err := scanOrder(rows)
		if err != nil {
			return nil, err
		}
		byID[order.ID] = order
		ordered = append(ordered, order.ID)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	if len(ordered) == 0 {
		return []domain.Order{}, nil
	}

	if err := r.loadItems(ctx, byID); err != nil {
		return nil, err
	}

	orders := make([]domain.Order, 0, len(ordered))
	for _, id := range ordered {
		orders = append(orders, *byID[id])
	}

	return orders, nil
}

// loadItems attaches line items to the given orders in one batched query.
func (r *Repository) loadItems(ctx context.Context, byID map[uuid.UUID]*domain.Order) error {
	ids := make([]string, 0, len(byID))
	for id, order := range byID {
		order.Items = []domain.OrderItem{}
		ids = append(ids, id.String())
	}

	rows, err := r.db.QueryContext(ctx, `
		SELECT order_id, product_id, name, quantity, unit_price, subtotal
		FROM order_items
		WHERE order_id = ANY($1::uuid[])
	`, pq.Array(ids))
	if err != nil {
		return err
	}
	defer func() { _ = rows.Close() }()

	for rows.Next() {
		var orderID uuid.UUID
		var item domain.OrderItem
		if err := rows.Scan(&orderID, &item.ProductID, &item.Name, &item.Quantity, &item.UnitPrice, &item.Subtotal); err != nil {
			return err
		}
		order := byID[orderID]
		order.Items = append(order.Items, item)
	}

	return rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanOrder(row rowScanner) (*domain.Order, error) {
	order := &domain.Order{}
	err := row.Scan(&order.ID, &order.ClientID, &order.RestaurantID, &order.Status,
		&order.TotalPrice, &order.DeliveryFee, &order.PaymentMethod,
		&order.Address.Street, &order.Address.Number, &order.Address.Neighborhood,
		&order.CreatedAt, &order.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("order: %w", domain.ErrNotFound)
		}
		return nil, err
	}
	return order, nil
}
