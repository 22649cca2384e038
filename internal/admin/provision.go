// Package admin holds the back-office surface: user management and
// restaurant onboarding. Provisioning a restaurant creates the owner
// account, the restaurant, and the owner's restaurant link in a single
// transaction so a partial signup can never leave an ownerless
// restaurant or an owner with no restaurant.
package admin

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"github.com/gfmartins/deliveryflow/internal/domain"
)

const uniqueViolation = "23505"

type ProvisionInput struct {
	RestaurantName string `json:"restaurant_name"`
	Description    string `json:"description"`
	Address        string `json:"address"`
	Category       string `json:"category"`
	OwnerName      string `json:"owner_name"`
	OwnerEmail     string `json:"owner_email"`
	OwnerPassword  string `json:"owner_password"`
}

func (in ProvisionInput) validate() error {
	switch {
	case in.RestaurantName == "":
		return domain.Validationf("restaurant name is required")
	case in.OwnerName == "":
		return domain.Validationf("owner name is required")
	case in.OwnerEmail == "":
		return domain.Validationf("owner email is required")
	case len(in.OwnerPassword) < 6:
		return domain.Validationf("owner password must be at least 6 characters")
	}
	return nil
}

type Provisioned struct {
	Restaurant domain.Restaurant `json:"restaurant"`
	Owner      domain.User       `json:"owner"`
}

type Provisioner struct {
	db *sql.DB
}

func NewProvisioner(db *sql.DB) *Provisioner {
	return &Provisioner{db: db}
}

// CreateRestaurant onboards a restaurant with its owner atomically. The
// passwordHash is produced by the caller; this layer never sees the
// plaintext.
func (p *Provisioner) CreateRestaurant(ctx context.Context, in ProvisionInput, passwordHash string) (*Provisioned, error) {
	if err := in.validate(); err != nil {
		return nil, err
	}

	tx, err := p.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer func() { _ = tx.Rollback() }()

	now := time.Now().UTC()
	owner := domain.User{
		ID:           uuid.New(),
		Name:         in.OwnerName,
		Email:        in.OwnerEmail,
		PasswordHash: passwordHash,
		Role:         domain.RoleRestaurant,
		CreatedAt:    now,
	}
	restaurant := domain.Restaurant{
		ID:          uuid.New(),
		Name:        in.RestaurantName,
		Description: in.Description,
		Address:     in.Address,
		Category:    in.Category,
		OwnerID:     owner.ID,
		IsOpen:      true,
		CreatedAt:   now,
	}

	_, err = tx.ExecContext(ctx, `
		INSERT INTO users (id, name, email, password_hash, role, restaurant_id, created_at)
		VALUES ($1, $2, $3, $4, $5, NULL, $6)
	`, owner.ID, owner.Name, owner.Email, owner.PasswordHash, owner.Role, owner.CreatedAt)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == uniqueViolation {
			return nil, domain.Validationf("email already registered")
		}
		return nil, err
	}

	_, err = tx.ExecContext(ctx, `
		INSERT INTO restaurants (id, name, description, address, category, owner_id, is_open, rating, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, 0, $8)
	`, restaurant.ID, restaurant.Name, restaurant.Description, restaurant.Address,
		restaurant.Category, restaurant.OwnerID, restaurant.IsOpen, restaurant.CreatedAt)
	if err != nil {
		return nil, err
	}

	_, err = tx.ExecContext(ctx, `
		UPDATE users SET restaurant_id = $2 WHERE id = $1
	`, owner.ID, restaurant.ID)
	if err != nil {
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, err
	}

	owner.RestaurantID = &restaurant.ID
	return &Provisioned{Restaurant: restaurant, Owner: owner}, nil
}
