package admin

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/google/uuid"

	"github.com/gfmartins/deliveryflow/internal/access"
	"github.com/gfmartins/deliveryflow/internal/auth"
	"github.com/gfmartins/deliveryflow/internal/domain"
	"github.com/gfmartins/deliveryflow/internal/web"
)

type UserStore interface {
	Create(ctx context.Context, user *domain.User) error
	List(ctx context.Context) ([]domain.User, error)
	Delete(ctx context.Context, id uuid.UUID) error
}

type RestaurantStore interface {
	ListRestaurants(ctx context.Context) ([]domain.Restaurant, error)
	DeleteRestaurant(ctx context.Context, id uuid.UUID) error
}

type RestaurantProvisioner interface {
	CreateRestaurant(ctx context.Context, in ProvisionInput, passwordHash string) (*Provisioned, error)
}

type Handler struct {
	users       UserStore
	restaurants RestaurantStore
	provisioner RestaurantProvisioner
	resolver    *access.Resolver
	logger      *slog.Logger
}

func NewHandler(users UserStore, restaurants RestaurantStore, provisioner RestaurantProvisioner, resolver *access.Resolver, logger *slog.Logger) *Handler {
	return &Handler{
		users:       users,
		restaurants: restaurants,
		provisioner: provisioner,
		resolver:    resolver,
		logger:      logger,
	}
}

func (h *Handler) HandleListUsers(w http.ResponseWriter, r *http.Request) {
	if _, ok := h.authorize(w, r, access.ResourceUser, access.ActionRead); !ok {
		return
	}
	users, err := h.users.List(r.Context())
	if err != nil {
		web.Error(w, h.logger, err)
		return
	}
	web.SuccessList(w, len(users), users)
}

// HandleCreateUser creates an account with any role, typically employees
// being attached to a restaurant. Employees must name their restaurant.
func (h *Handler) HandleCreateUser(w http.ResponseWriter, r *http.Request) {
	if _, ok := h.authorize(w, r, access.ResourceUser, access.ActionCreate); !ok {
		return
	}

	var req struct {
		Name         string     `json:"name"`
		Email        string     `json:"email"`
		Password     string     `json:"password"`
		Role         string     `json:"role"`
		RestaurantID *uuid.UUID `json:"restaurant_id"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		web.Fail(w, http.StatusBadRequest, "invalid request body")
		return
	}

	role, ok := domain.ParseRole(req.Role)
	if !ok {
		web.Fail(w, http.StatusBadRequest, "invalid role")
		return
	}
	if req.Name == "" || req.Email == "" {
		web.Fail(w, http.StatusBadRequest, "name and email are required")
		return
	}
	if len(req.Password) < 6 {
		web.Fail(w, http.StatusBadRequest, "password must be at least 6 characters")
		return
	}
	if role == domain.RoleEmployee && req.RestaurantID == nil {
		web.Fail(w, http.StatusBadRequest, "employees must be attached to a restaurant")
		return
	}

	hash, err := auth.HashPassword(req.Password)
	if err != nil {
		web.Error(w, h.logger, err)
		return
	}

	user := &domain.User{
		Name:         req.Name,
		Email:        req.Email,
		PasswordHash: hash,
		Role:         role,
		RestaurantID: req.RestaurantID,
	}
	if err := h.users.Create(r.Context(), user); err != nil {
		web.Error(w, h.logger, err)
		return
	}

	h.logger.Info("user created", "user_id", user.ID, "role", user.Role)
	web.Success(w, http.StatusCreated, user)
}

// HandleDeleteUser removes an account. An admin deleting their own
// account is refused; another admin has to do it.
func (h *Handler) HandleDeleteUser(w http.ResponseWriter, r *http.Request) {
	p, ok := h.authorize(w, r, access.ResourceUser, access.ActionDelete)
	if !ok {
		return
	}

	id, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		web.Fail(w, http.StatusBadRequest, "invalid user id")
		return
	}
	if id == p.UserID {
		web.Error(w, h.logger, fmt.Errorf("cannot delete own account: %w", domain.ErrForbidden))
		return
	}

	if err := h.users.Delete(r.Context(), id); err != nil {
		web.Error(w, h.logger, err)
		return
	}

	h.logger.Info("user deleted", "user_id", id, "deleted_by", p.UserID)
	web.SuccessMessage(w, http.StatusOK, "user deleted", nil)
}

func (h *Handler) HandleListRestaurants(w http.ResponseWriter, r *http.Request) {
	if _, ok := h.authorize(w, r, access.ResourceRestaurant, access.ActionRead); !ok {
		return
	}
	restaurants, err := h.restaurants.ListRestaurants(r.Context())
	if err != nil {
		web.Error(w, h.logger, err)
		return
	}
	web.SuccessList(w, len(restaurants), restaurants)
}

func (h *Handler) HandleCreateRestaurant(w http.ResponseWriter, r *http.Request) {
	p, ok := h.authorize(w, r, access.ResourceRestaurant, access.ActionCreate)
	if !ok {
		return
	}

	var req ProvisionInput
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		web.Fail(w, http.StatusBadRequest, "invalid request body")
		return
	}

	var hash string
	if req.OwnerPassword != "" {
		var err error
		hash, err = auth.HashPassword(req.OwnerPassword)
		if err != nil {
			web.Error(w, h.logger, err)
			return
		}
	}

	provisioned, err := h.provisioner.CreateRestaurant(r.Context(), req, hash)
	if err != nil {
		web.Error(w, h.logger, err)
		return
	}

	h.logger.Info("restaurant provisioned",
		"restaurant_id", provisioned.Restaurant.ID,
		"owner_id", provisioned.Owner.ID,
		"provisioned_by", p.UserID,
	)
	web.Success(w, http.StatusCreated, provisioned)
}

func (h *Handler) HandleDeleteRestaurant(w http.ResponseWriter, r *http.Request) {
	p, ok := h.authorize(w, r, access.ResourceRestaurant, access.ActionDelete)
	if !ok {
		return
	}

	id, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		web.Fail(w, http.StatusBadRequest, "invalid restaurant id")
		return
	}

	if err := h.restaurants.DeleteRestaurant(r.Context(), id); err != nil {
		web.Error(w, h.logger, err)
		return
	}

	h.logger.Info("restaurant deleted", "restaurant_id", id, "deleted_by", p.UserID)
	web.SuccessMessage(w, http.StatusOK, "restaurant deleted", nil)
}

func (h *Handler) authorize(w http.ResponseWriter, r *http.Request, resource access.Resource, action access.Action) (domain.Principal, bool) {
	p, err := auth.PrincipalFrom(r)
	if err != nil {
		web.Error(w, h.logger, err)
		return domain.Principal{}, false
	}
	if _, err := h.resolver.Authorize(r.Context(), p, resource, action); err != nil {
		web.Error(w, h.logger, err)
		return domain.Principal{}, false
	}
	return p, true
}
