package catalog

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/google/uuid"

	"github.com/gfmartins/deliveryflow/internal/access"
	"github.com/gfmartins/deliveryflow/internal/auth"
	"github.com/gfmartins/deliveryflow/internal/domain"
	"github.com/gfmartins/deliveryflow/internal/web"
)

// Store is the slice of the repository the catalog endpoints use.
type Store interface {
	ListRestaurants(ctx context.Context) ([]domain.Restaurant, error)
	ListProducts(ctx context.Context, restaurantID uuid.UUID) ([]domain.Product, error)
	CreateProduct(ctx context.Context, p *domain.Product) error
	UpdateProduct(ctx context.Context, p *domain.Product, restrict uuid.UUID) error
	DeleteProduct(ctx context.Context, id, restrict uuid.UUID) error
}

type Handler struct {
	store    Store
	resolver *access.Resolver
	logger   *slog.Logger
}

func NewHandler(store Store, resolver *access.Resolver, logger *slog.Logger) *Handler {
	return &Handler{store: store, resolver: resolver, logger: logger}
}

func (h *Handler) HandleListRestaurants(w http.ResponseWriter, r *http.Request) {
	restaurants, err := h.store.ListRestaurants(r.Context())
	if err != nil {
		web.Error(w, h.logger, err)
		return
	}
	if restaurants == nil {
		restaurants = []domain.Restaurant{}
	}
	web.SuccessList(w, len(restaurants), restaurants)
}

// HandleListRestaurantProducts is the public menu for one restaurant.
func (h *Handler) HandleListRestaurantProducts(w http.ResponseWriter, r *http.Request) {
	restaurantID, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		web.Fail(w, http.StatusBadRequest, "invalid restaurant id")
		return
	}

	products, err := h.store.ListProducts(r.Context(), restaurantID)
	if err != nil {
		web.Error(w, h.logger, err)
		return
	}
	if products == nil {
		products = []domain.Product{}
	}
	web.SuccessList(w, len(products), products)
}

type productRequest struct {
	RestaurantID uuid.UUID `json:"restaurant_id"`
	Name         string    `json:"name"`
	Description  string    `json:"description"`
	Price        float64   `json:"price"`
	ImageURL     string    `json:"image_url"`
	IsAvailable  *bool     `json:"is_available"`
}

func (h *Handler) HandleCreateProduct(w http.ResponseWriter, r *http.Request) {
	principal, err := auth.PrincipalFrom(r)
	if err != nil {
		web.Error(w, h.logger, err)
		return
	}

	var req productRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		web.Fail(w, http.StatusBadRequest, "invalid request body")
		return
	}

	restaurantID, err := h.resolver.RestaurantScope(r.Context(), principal, access.ResourceProduct, access.ActionCreate, req.RestaurantID)
	if err != nil {
		web.Error(w, h.logger, err)
		return
	}

	if req.Name == "" || req.Price <= 0 {
		web.Fail(w, http.StatusBadRequest, "product name and a positive price are required")
		return
	}

	available := true
	if req.IsAvailable != nil {
		available = *req.IsAvailable
	}

	product := &domain.Product{
		RestaurantID: restaurantID,
		Name:         req.Name,
		Description:  req.Description,
		Price:        domain.RoundMoney(req.Price),
		ImageURL:     req.ImageURL,
		IsAvailable:  available,
	}
	if err := h.store.CreateProduct(r.Context(), product); err != nil {
		web.Error(w, h.logger, err)
		return
	}

	h.logger.Info("product created", "product_id", product.ID, "restaurant_id", restaurantID)
	web.Success(w, http.StatusCreated, product)
}

// HandleMyProducts lists the acting restaurant's own catalog, including
// unavailable items the public menu also shows but the back office edits.
func (h *Handler) HandleMyProducts(w http.ResponseWriter, r *http.Request) {
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

	restaurantID, err := h.resolver.RestaurantScope(r.Context(), principal, access.ResourceProduct, access.ActionRead, explicit)
	if err != nil {
		web.Error(w, h.logger, err)
		return
	}

	products, err := h.store.ListProducts(r.Context(), restaurantID)
	if err != nil {
		web.Error(w, h.logger, err)
		return
	}
	if products == nil {
		products = []domain.Product{}
	}
	web.SuccessList(w, len(products), products)
}

func (h *Handler) HandleUpdateProduct(w http.ResponseWriter, r *http.Request) {
	principal, err := auth.PrincipalFrom(r)
	if err != nil {
		web.Error(w, h.logger, err)
		return
	}

	productID, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		web.Fail(w, http.StatusBadRequest, "invalid product id")
		return
	}

	var req productRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		web.Fail(w, http.StatusBadRequest, "invalid request body")
		return
	}

	scope, err := h.resolver.Authorize(r.Context(), principal, access.ResourceProduct, access.ActionUpdate)
	if err != nil {
		web.Error(w, h.logger, err)
		return
	}

	if req.Name == "" || req.Price <= 0 {
		web.Fail(w, http.StatusBadRequest, "product name and a positive price are required")
		return
	}

	restrict := uuid.Nil
	if scope.Kind == access.ScopeRestaurant {
		restrict = scope.RestaurantID
	}

	available := true
	if req.IsAvailable != nil {
		available = *req.IsAvailable
	}

	product := &domain.Product{
		ID:          productID,
		Name:        req.Name,
		Description: req.Description,
		Price:       domain.RoundMoney(req.Price),
		ImageURL:    req.ImageURL,
		IsAvailable: available,
	}
	if err := h.store.UpdateProduct(r.Context(), product, restrict); err != nil {
		web.Error(w, h.logger, err)
		return
	}

	h.logger.Info("product updated", "product_id", productID)
	web.Success(w, http.StatusOK, product)
}

func (h *Handler) HandleDeleteProduct(w http.ResponseWriter, r *http.Request) {
	principal, err := auth.PrincipalFrom(r)
	if err != nil {
		web.Error(w, h.logger, err)
		return
	}

	productID, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		web.Fail(w, http.StatusBadRequest, "invalid product id")
		return
	}

	scope, err := h.resolver.Authorize(r.Context(), principal, access.ResourceProduct, access.ActionDelete)
	if err != nil {
		web.Error(w, h.logger, err)
		return
	}

	restrict := uuid.Nil
	if scope.Kind == access.ScopeRestaurant {
		restrict = scope.RestaurantID
	}

	if err := h.store.DeleteProduct(r.Context(), productID, restrict); err != nil {
		web.Error(w, h.logger, err)
		return
	}

	h.logger.Info("product deleted", "product_id", productID)
	web.SuccessMessage(w, http.StatusOK, "product deleted", nil)
}
