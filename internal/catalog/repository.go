package catalog

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

// Repository is the relational backing for restaurants and products.
type Repository struct {
	db *sql.DB
}

func NewRepository(db *sql.DB) *Repository {
	return &Repository{db: db}
}

func (r *Repository) ListRestaurants(ctx context.Context) ([]domain.Restaurant, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, name, description, address, category, owner_id, is_open, rating, created_at
		FROM restaurants
		ORDER BY created_at DESC
	`)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	var restaurants []domain.Restaurant
	for rows.Next() {
		var rest domain.Restaurant
		if err := rows.Scan(&rest.ID, &rest.Name, &rest.Description, &rest.Address, &rest.Category,
			&rest.OwnerID, &rest.IsOpen, &rest.Rating, &rest.CreatedAt); err != nil {
			return nil, err
		}
		restaurants = append(restaurants, rest)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return restaurants, nil
}

func (r *Repository) GetRestaurant(ctx context.Context, id uuid.UUID) (*domain.Restaurant, error) {
	rest := &domain.Restaurant{}
	err := r.db.QueryRowContext(ctx, `
		SELECT id, name, description, address, category, owner_id, is_open, rating, created_at
		FROM restaurants
		WHERE id = $1
	`, id).Scan(&rest.ID, &rest.Name, &rest.Description, &rest.Address, &rest.Category,
		&rest.OwnerID, &rest.IsOpen, &rest.Rating, &rest.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("restaurant %s: %w", id, domain.ErrNotFound)
		}
		return nil, err
	}
	return rest, nil
}

// RestaurantIDByOwner backs the access scoping lookup for restaurant owners
// whose user record carries no denormalized restaurant id.
func (r *Repository) RestaurantIDByOwner(ctx context.Context, ownerID uuid.UUID) (uuid.UUID, error) {
	var id uuid.UUID
	err := r.db.QueryRowContext(ctx, `
		SELECT id FROM restaurants WHERE owner_id = $1
	`, ownerID).Scan(&id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return uuid.Nil, fmt.Errorf("restaurant for owner %s: %w", ownerID, domain.ErrNotFound)
		}
		return uuid.Nil, err
	}
	return id, nil
}

func (r *Repository) DeleteRestaurant(ctx context.Context, id uuid.UUID) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM restaurants WHERE id = $1`, id)
	if err != nil {
		return err
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return fmt.Errorf("restaurant %s: %w", id, domain.ErrNotFound)
	}

	return nil
}

func (r *Repository) CreateProduct(ctx context.Context, p *domain.Product) error {
	p.ID = uuid.New()
	p.CreatedAt = time.Now().UTC()

	_, err := r.db.ExecContext(ctx, `
		INSERT INTO products (id, restaurant_id, name, description, price, image_url, is_available, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`, p.ID, p.RestaurantID, p.Name, p.Description, p.Price, p.ImageURL, p.IsAvailable, p.CreatedAt)
	return err
}

func (r *Repository) ProductByID(ctx context.Context, id uuid.UUID) (*domain.Product, error) {
	p := &domain.Product{}
	err := r.db.QueryRowContext(ctx, `
		SELECT id, restaurant_id, name, description, price, image_url, is_available, created_at
		FROM products
		WHERE id = $1
	`, id).Scan(&p.ID, &p.RestaurantID, &p.Name, &p.Description, &p.Price, &p.ImageURL, &p.IsAvailable, &p.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("product %s: %w", id, domain.ErrNotFound)
		}
		return nil, err
	}
	return p, nil
}

func (r *Repository) ListProducts(ctx context.Context, restaurantID uuid.UUID) ([]domain.Product, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, restaurant_id, name, description, price, image_url, is_available, created_at
		FROM products
		WHERE restaurant_id = $1
		ORDER BY created_at DESC
	`, restaurantID)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	var products []domain.Product
	for rows.Next() {
		var p domain.Product
		if err := rows.Scan(&p.ID, &p.RestaurantID, &p.Name, &p.Description, &p.Price,
			&p.ImageURL, &p.IsAvailable, &p.CreatedAt); err != nil {
			return nil, err
		}
		products = append(products, p)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return products, nil
}

// ProductsByIDs batch-fetches the requested products scoped to one
// restaurant. Callers compare the result size against the request to detect
// deleted or cross-restaurant ids.
func (r *Repository) ProductsByIDs(ctx context.Context, restaurantID uuid.UUID, ids []uuid.UUID) (map[uuid.UUID]domain.Product, error) {
	wanted := make([]string, len(ids))
	for i, id := range ids {
		wanted[i] = id.String()
	}

	rows, err := r.db.QueryContext(ctx, `
		SELECT id, restaurant_id, name, description, price, image_url, is_available, created_at
		FROM products
		WHERE restaurant_id = $1 AND id = ANY($2::uuid[])
	`, restaurantID, pq.Array(wanted))
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	products := make(map[uuid.UUID]domain.Product, len(ids))
	for rows.Next() {
		var p domain.Product
		if err := rows.Scan(&p.ID, &p.RestaurantID, &p.Name, &p.Description, &p.Price,
			&p.ImageURL, &p.IsAvailable, &p.CreatedAt); err != nil {
			return nil, err
		}
		products[p.ID] = p
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return products, nil
}

// UpdateProduct rewrites the mutable fields. A non-nil restrict limits the
// update to products of that restaurant, so staff cannot reach across
// restaurants; uuid.Nil lifts the restriction for admins.
func (r *Repository) UpdateProduct(ctx context.Context, p *domain.Product, restrict uuid.UUID) error {
	query := `
		UPDATE products
		SET name = $2, description = $3, price = $4, image_url = $5, is_available = $6
		WHERE id = $1
	`
	args := []any{p.ID, p.Name, p.Description, p.Price, p.ImageURL, p.IsAvailable}
	if restrict != uuid.Nil {
		query += ` AND restaurant_id = $7`
		args = append(args, restrict)
	}

	result, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return err
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return fmt.Errorf("product %s: %w", p.ID, domain.ErrNotFound)
	}

	return nil
}

func (r *Repository) DeleteProduct(ctx context.Context, id, restrict uuid.UUID) error {
	query := `DELETE FROM products WHERE id = $1`
	args := []any{id}
	if restrict != uuid.Nil {
		query += ` AND restaurant_id = $2`
		args = append(args, restrict)
	}

	result, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return err
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return fmt.Errorf("product %s: %w", id, domain.ErrNotFound)
	}

	return nil
}
