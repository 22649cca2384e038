package domain

import (
	"time"

	"github.com/google/uuid"
)

type Role string

const (
	RoleClient     Role = "client"
	RoleRestaurant Role = "restaurant"
	RoleEmployee   Role = "employee"
	RoleAdmin      Role = "admin"
)

func ParseRole(s string) (Role, bool) {
	switch Role(s) {
	case RoleClient, RoleRestaurant, RoleEmployee, RoleAdmin:
		return Role(s), true
	}
	return "", false
}

type User struct {
	ID           uuid.UUID  `json:"id"`
	Name         string     `json:"name"`
	Email        string     `json:"email"`
	PasswordHash string     `json:"-"`
	Role         Role       `json:"role"`
	RestaurantID *uuid.UUID `json:"restaurant_id,omitempty"`
	CreatedAt    time.Time  `json:"created_at"`
}

// Principal is the authenticated identity attached to a request. It carries
// only what access scoping needs, not the full user record.
type Principal struct {
	UserID       uuid.UUID
	Role         Role
	RestaurantID *uuid.UUID
}
