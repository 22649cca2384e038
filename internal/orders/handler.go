package orders

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/gfmartins/deliveryflow/internal/access"
	"github.com/gfmartins/deliveryflow/internal/auth"
	"github.com/gfmartins/deliveryflow/internal/domain"
	"github.com/gfmartins/deliveryflow/internal/web"
)

// ReadStore covers the scoped reads and the status write of the repository.
type ReadStore interface {
	Get(ctx context.Context, id, clientID, restaurantID uuid.UUID) (*domain.Order, error)
	ListByClient(ctx context.Context, clientID uuid.UUID) ([]domain.Order, error)
	ListByRestaurant(ctx context.Context, restaurantID uuid.UUID, statuses []domain.OrderStatus) ([]domain.Order, error)
	UpdateStatus(ctx context.Context, id, restaurantID uuid.UUID, status domain.OrderStatus) (*domain.Order, error)
}

type Handler struct {
	builder     *Builder
	store       ReadStore
	resolver    *access.Resolver
	transitions Transitions
	events      Publisher
	logger      *slog.Logger
}

func NewHandler(builder *Builder, store ReadStore, resolver *access.Resolver, transitions Transitions, events Publisher, logger *slog.Logger) *Handler {
	return &Handler{
		builder:     builder,
		store:       store,
		resolver:    resolver,
		transitions: transitions,
		events:      events,
		logger:      logger,
	}
}

func (h *Handler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	principal, err := auth.PrincipalFrom(r)
	if err != nil {
		web.Error(w, h.logger, err)
		return
	}

	if _, err := h.resolver.Authorize(r.Context(), principal, access.ResourceOrder, access.ActionCreate); err != nil {
		web.Error(w, h.logger, err)
		return
	}

	var in CreateOrderInput
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		web.Fail(w, http.StatusBadRequest, "invalid request body")
		return
	}

	order, err := h.builder.Build(r.Context(), principal.UserID, in)
	if err != nil {
		web.Error(w, h.logger, err)
		return
	}

	web.SuccessMessage(w, http.StatusCreated, "order created, awaiting restaurant confirmation", order)
}

// HandleListClient is the caller's own order history, newest first.
func (h *Handler) HandleListClient(w http.ResponseWriter, r *http.Request) {
	principal, err := auth.PrincipalFrom(r)
	if err != nil {
		web.Error(w, h.logger, err)
		return
	}

	orders, err := h.store.ListByClient(r.Context(), principal.UserID)
	if err != nil {
		web.Error(w, h.logger, err)
		return
	}

	web.SuccessList(w, len(orders), orders)
}

// HandleListRestaurant is the kitchen board: active orders by default, any
// single status via the status query parameter.
func (h *Handler) HandleListRestaurant(w http.ResponseWriter, r *http.Request) {
	principal, err := auth.PrincipalFrom(r)
	if err != nil {
		web.Error(w, h.logger, err)
		return
	}

	explicit := uuid.Nil
	if v := r.URL.Query().Get("restaurant_id"); v != "" {
		id, err := uuid.Parse(v)
		if err != nil {
			web.Fail(w, http.StatusBadRequest, "invalid restaurant id")
			return
		}
		explicit = id
	}

	restaurantID, err := h.resolver.RestaurantScope(r.Context(), principal, access.ResourceOrder, access.ActionRead, explicit)
	if err != nil {
		web.Error(w, h.logger, err)
		return
	}

	var statuses []domain.OrderStatus
	if v := r.URL.Query().Get("status"); v != "" {
		status, ok := domain.ParseOrderStatus(v)
		if !ok {
			web.Fail(w, http.StatusBadRequest, "invalid status filter")
			return
		}
		statuses = append(statuses, status)
	}

	orders, err := h.store.ListByRestaurant(r.Context(), restaurantID, statuses)
	if err != nil {
		web.Error(w, h.logger, err)
		return
	}

	web.SuccessList(w, len(orders), orders)
}

func (h *Handler) HandleGet(w http.ResponseWriter, r *http.Request) {
	order, ok := h.scopedOrder(w, r)
	if !ok {
		return
	}
	web.Success(w, http.StatusOK, order)
}

// HandleGetStatus is the polling endpoint for order tracking; it returns the
// lifecycle fields without the full line-item detail.
func (h *Handler) HandleGetStatus(w http.ResponseWriter, r *http.Request) {
	order, ok := h.scopedOrder(w, r)
	if !ok {
		return
	}

	web.Success(w, http.StatusOK, map[string]any{
		"id":           order.ID,
		"status":       order.Status,
		"total_price":  order.TotalPrice,
		"delivery_fee": order.DeliveryFee,
		"created_at":   order.CreatedAt,
		"updated_at":   order.UpdatedAt,
	})
}

type updateStatusRequest struct {
	Status string `json:"status"`
}

func (h *Handler) HandleUpdateStatus(w http.ResponseWriter, r *http.Request) {
	principal, err := auth.PrincipalFrom(r)
	if err != nil {
		web.Error(w, h.logger, err)
		return
	}

	orderID, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		web.Fail(w, http.StatusBadRequest, "invalid order id")
		return
	}

	scope, err := h.resolver.Authorize(r.Context(), principal, access.ResourceOrder, access.ActionUpdate)
	if err != nil {
		web.Error(w, h.logger, err)
		return
	}

	restrict := uuid.Nil
	if scope.Kind == access.ScopeRestaurant {
		restrict = scope.RestaurantID
	}

	var req updateStatusRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		web.Fail(w, http.StatusBadRequest, "invalid request body")
		return
	}

	newStatus, ok := domain.ParseOrderStatus(req.Status)
	if !ok {
		web.Fail(w, http.StatusBadRequest, "invalid status value")
		return
	}

	order, err := h.store.Get(r.Context(), orderID, uuid.Nil, restrict)
	if err != nil {
		web.Error(w, h.logger, err)
		return
	}

	if err := h.transitions.Validate(order.Status, newStatus); err != nil {
		web.Error(w, h.logger, err)
		return
	}

	oldStatus := order.Status
	updated, err := h.store.UpdateStatus(r.Context(), orderID, restrict, newStatus)
	if err != nil {
		web.Error(w, h.logger, err)
		return
	}

	if h.events != nil {
		event := domain.OrderStatusChangedEvent{
			OrderID:      updated.ID,
			RestaurantID: updated.RestaurantID,
			OldStatus:    oldStatus,
			NewStatus:    updated.Status,
			TotalPrice:   updated.TotalPrice,
			Timestamp:    time.Now().UTC(),
		}
		if err := h.events.Publish(r.Context(), domain.TopicOrderStatusChanged, updated.ID.String(), event); err != nil {
			h.logger.Error("failed to publish status changed event", "error", err, "order_id", updated.ID)
		}
	}

	h.logger.Info("order status updated", "order_id", updated.ID, "from", oldStatus, "to", updated.Status)
	web.SuccessMessage(w, http.StatusOK, "order status updated", updated)
}

// scopedOrder resolves the caller's scope and fetches the order through it.
// An order outside the scope reads as not found.
func (h *Handler) scopedOrder(w http.ResponseWriter, r *http.Request) (*domain.Order, bool) {
	principal, err := auth.PrincipalFrom(r)
	if err != nil {
		web.Error(w, h.logger, err)
		return nil, false
	}

	orderID, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		web.Fail(w, http.StatusBadRequest, "invalid order id")
		return nil, false
	}

	scope, err := h.resolver.Authorize(r.Context(), principal, access.ResourceOrder, access.ActionRead)
	if err != nil {
		web.Error(w, h.logger, err)
		return nil, false
	}

	clientID, restaurantID := uuid.Nil, uuid.Nil
	switch scope.Kind {
	case access.ScopeSelf:
		clientID = scope.UserID
	case access.ScopeRestaurant:
		restaurantID = scope.RestaurantID
	}

	order, err := h.store.Get(r.Context(), orderID, clientID, restaurantID)
	if err != nil {
		web.Error(w, h.logger, err)
		return nil, false
	}

	return order, true
}
