package cart

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/google/uuid"

	"github.com/gfmartins/deliveryflow/internal/access"
	"github.com/gfmartins/deliveryflow/internal/auth"
	"github.com/gfmartins/deliveryflow/internal/domain"
	"github.com/gfmartins/deliveryflow/internal/web"
)

type Handler struct {
	service  *Service
	resolver *access.Resolver
	logger   *slog.Logger
}

func NewHandler(service *Service, resolver *access.Resolver, logger *slog.Logger) *Handler {
	return &Handler{service: service, resolver: resolver, logger: logger}
}

func (h *Handler) HandleGet(w http.ResponseWriter, r *http.Request) {
	p, ok := h.authorize(w, r, access.ActionRead)
	if !ok {
		return
	}
	view, err := h.service.Get(r.Context(), p.UserID)
	if err != nil {
		web.Error(w, h.logger, err)
		return
	}
	web.Success(w, http.StatusOK, view)
}

func (h *Handler) HandleAddItem(w http.ResponseWriter, r *http.Request) {
	p, ok := h.authorize(w, r, access.ActionUpdate)
	if !ok {
		return
	}

	var req struct {
		ProductID uuid.UUID `json:"product_id"`
		Quantity  int       `json:"quantity"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		web.Fail(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Quantity == 0 {
		req.Quantity = 1
	}

	view, err := h.service.Add(r.Context(), p.UserID, req.ProductID, req.Quantity)
	if err != nil {
		web.Error(w, h.logger, err)
		return
	}
	web.Success(w, http.StatusOK, view)
}

func (h *Handler) HandleRemoveItem(w http.ResponseWriter, r *http.Request) {
	p, ok := h.authorize(w, r, access.ActionUpdate)
	if !ok {
		return
	}

	productID, err := uuid.Parse(r.PathValue("productId"))
	if err != nil {
		web.Fail(w, http.StatusBadRequest, "invalid product id")
		return
	}

	view, err := h.service.Remove(r.Context(), p.UserID, productID)
	if err != nil {
		web.Error(w, h.logger, err)
		return
	}
	web.Success(w, http.StatusOK, view)
}

func (h *Handler) HandleClear(w http.ResponseWriter, r *http.Request) {
	p, ok := h.authorize(w, r, access.ActionDelete)
	if !ok {
		return
	}
	if err := h.service.ClearAll(r.Context(), p.UserID); err != nil {
		web.Error(w, h.logger, err)
		return
	}
	web.SuccessMessage(w, http.StatusOK, "cart cleared", nil)
}

func (h *Handler) HandleCheckout(w http.ResponseWriter, r *http.Request) {
	p, ok := h.authorize(w, r, access.ActionCreate)
	if !ok {
		return
	}

	var req CheckoutInput
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		web.Fail(w, http.StatusBadRequest, "invalid request body")
		return
	}

	order, err := h.service.Checkout(r.Context(), p.UserID, req)
	if err != nil {
		web.Error(w, h.logger, err)
		return
	}
	web.SuccessMessage(w, http.StatusCreated, "order placed", order)
}

func (h *Handler) authorize(w http.ResponseWriter, r *http.Request, action access.Action) (domain.Principal, bool) {
	p, err := auth.PrincipalFrom(r)
	if err != nil {
		web.Error(w, h.logger, err)
		return domain.Principal{}, false
	}
	if _, err := h.resolver.Authorize(r.Context(), p, access.ResourceCart, action); err != nil {
		web.Error(w, h.logger, err)
		return domain.Principal{}, false
	}
	return p, true
}
