// Package access maps an authenticated principal to the scope it may act
// upon: everything for admins, one restaurant for restaurant owners and
// employees, the principal itself for clients. Every order and product
// handler resolves a scope here before touching the database; a principal
// whose scope cannot be resolved is denied, never widened.
package access

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/gfmartins/deliveryflow/internal/domain"
)

type Resource string

const (
	ResourceOrder      Resource = "order"
	ResourceProduct    Resource = "product"
	ResourceCart       Resource = "cart"
	ResourceAnalytics  Resource = "analytics"
	ResourceUser       Resource = "user"
	ResourceRestaurant Resource = "restaurant"
)

type Action string

const (
	ActionRead   Action = "read"
	ActionCreate Action = "create"
	ActionUpdate Action = "update"
	ActionDelete Action = "delete"
)

type ScopeKind int

const (
	// ScopeAll is unrestricted; admin only.
	ScopeAll ScopeKind = iota
	// ScopeRestaurant limits queries to one restaurant.
	ScopeRestaurant
	// ScopeSelf limits queries to records owned by the principal.
	ScopeSelf
)

type Scope struct {
	Kind         ScopeKind
	RestaurantID uuid.UUID
	UserID       uuid.UUID
}

// policy is the single allow table keyed by (role, resource, action).
// Anything absent is denied.
var policy = map[domain.Role]map[Resource][]Action{
	domain.RoleClient: {
		ResourceOrder: {ActionRead, ActionCreate},
		ResourceCart:  {ActionRead, ActionCreate, ActionUpdate, ActionDelete},
	},
	domain.RoleRestaurant: {
		ResourceOrder:     {ActionRead, ActionUpdate},
		ResourceProduct:   {ActionRead, ActionCreate, ActionUpdate, ActionDelete},
		ResourceAnalytics: {ActionRead},
	},
	domain.RoleEmployee: {
		ResourceOrder:     {ActionRead, ActionUpdate},
		ResourceProduct:   {ActionRead, ActionCreate, ActionUpdate, ActionDelete},
		ResourceAnalytics: {ActionRead},
	},
	domain.RoleAdmin: {
		ResourceOrder:      {ActionRead, ActionUpdate},
		ResourceProduct:    {ActionRead, ActionCreate, ActionUpdate, ActionDelete},
		ResourceAnalytics:  {ActionRead},
		ResourceUser:       {ActionRead, ActionCreate, ActionDelete},
		ResourceRestaurant: {ActionRead, ActionCreate, ActionUpdate, ActionDelete},
	},
}

func allowed(role domain.Role, resource Resource, action Action) bool {
	for _, a := range policy[role][resource] {
		if a == action {
			return true
		}
	}
	return false
}

// RestaurantDirectory resolves restaurant ownership when the restaurant id
// is not denormalized onto the user record.
type RestaurantDirectory interface {
	RestaurantIDByOwner(ctx context.Context, ownerID uuid.UUID) (uuid.UUID, error)
}

type Resolver struct {
	restaurants RestaurantDirectory
}

func NewResolver(restaurants RestaurantDirectory) *Resolver {
	return &Resolver{restaurants: restaurants}
}

// Authorize evaluates the policy table and, when allowed, resolves the
// principal's scope. Both the deny and the unresolvable-scope paths fail
// closed with ErrForbidden.
func (r *Resolver) Authorize(ctx context.Context, p domain.Principal, resource Resource, action Action) (Scope, error) {
	if !allowed(p.Role, resource, action) {
		return Scope{}, fmt.Errorf("%s may not %s %s: %w", p.Role, action, resource, domain.ErrForbidden)
	}
	return r.Scope(ctx, p)
}

// Scope resolves the restaurant (or self) the principal acts upon.
func (r *Resolver) Scope(ctx context.Context, p domain.Principal) (Scope, error) {
	switch p.Role {
	case domain.RoleAdmin:
		return Scope{Kind: ScopeAll, UserID: p.UserID}, nil

	case domain.RoleClient:
		return Scope{Kind: ScopeSelf, UserID: p.UserID}, nil

	case domain.RoleEmployee:
		if p.RestaurantID == nil {
			return Scope{}, fmt.Errorf("employee has no restaurant association: %w", domain.ErrForbidden)
		}
		return Scope{Kind: ScopeRestaurant, RestaurantID: *p.RestaurantID, UserID: p.UserID}, nil

	case domain.RoleRestaurant:
		if p.RestaurantID != nil {
			return Scope{Kind: ScopeRestaurant, RestaurantID: *p.RestaurantID, UserID: p.UserID}, nil
		}
		id, err := r.restaurants.RestaurantIDByOwner(ctx, p.UserID)
		if err != nil {
			if errors.Is(err, domain.ErrNotFound) {
				return Scope{}, fmt.Errorf("no restaurant owned by this user: %w", domain.ErrForbidden)
			}
			return Scope{}, err
		}
		return Scope{Kind: ScopeRestaurant, RestaurantID: id, UserID: p.UserID}, nil
	}

	return Scope{}, fmt.Errorf("unknown role %q: %w", p.Role, domain.ErrForbidden)
}

// RestaurantScope is Authorize narrowed to callers that must act on exactly
// one restaurant. Admins may designate any restaurant by passing explicit;
// restaurant staff must match their own scope, and explicit ids pointing
// elsewhere are rejected.
func (r *Resolver) RestaurantScope(ctx context.Context, p domain.Principal, resource Resource, action Action, explicit uuid.UUID) (uuid.UUID, error) {
	scope, err := r.Authorize(ctx, p, resource, action)
	if err != nil {
		return uuid.Nil, err
	}

	switch scope.Kind {
	case ScopeAll:
		if explicit == uuid.Nil {
			return uuid.Nil, domain.Validationf("admin must provide a restaurant id")
		}
		return explicit, nil
	case ScopeRestaurant:
		if explicit != uuid.Nil && explicit != scope.RestaurantID {
			return uuid.Nil, fmt.Errorf("restaurant mismatch: %w", domain.ErrForbidden)
		}
		return scope.RestaurantID, nil
	}

	return uuid.Nil, fmt.Errorf("restaurant scope required: %w", domain.ErrForbidden)
}
