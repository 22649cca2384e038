package analytics

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/google/uuid"

	"github.com/gfmartins/deliveryflow/internal/access"
	"github.com/gfmartins/deliveryflow/internal/auth"
	"github.com/gfmartins/deliveryflow/internal/domain"
	"github.com/gfmartins/deliveryflow/internal/web"
)

type Stats interface {
	RestaurantToday(ctx context.Context, restaurantID uuid.UUID) (*RestaurantSummary, error)
	DailyReport(ctx context.Context, days int) ([]DailyTransactions, error)
}

type Handler struct {
	stats    Stats
	resolver *access.Resolver
	logger   *slog.Logger
}

func NewHandler(stats Stats, resolver *access.Resolver, logger *slog.Logger) *Handler {
	return &Handler{stats: stats, resolver: resolver, logger: logger}
}

// HandleRestaurantToday serves the restaurant dashboard. Staff see their
// own restaurant; admins pick one with ?restaurant_id=.
func (h *Handler) HandleRestaurantToday(w http.ResponseWriter, r *http.Request) {
	p, err := auth.PrincipalFrom(r)
	if err != nil {
		web.Error(w, h.logger, err)
		return
	}

	var explicit uuid.UUID
	if raw := r.URL.Query().Get("restaurant_id"); raw != "" {
		explicit, err = uuid.Parse(raw)
		if err != nil {
			web.Fail(w, http.StatusBadRequest, "invalid restaurant id")
			return
		}
	}

	restaurantID, err := h.resolver.RestaurantScope(r.Context(), p, access.ResourceAnalytics, access.ActionRead, explicit)
	if err != nil {
		web.Error(w, h.logger, err)
		return
	}

	summary, err := h.stats.RestaurantToday(r.Context(), restaurantID)
	if err != nil {
		web.Error(w, h.logger, err)
		return
	}
	web.Success(w, http.StatusOK, summary)
}

// HandleDailyReport serves the platform-wide transaction report and is
// admin only.
func (h *Handler) HandleDailyReport(w http.ResponseWriter, r *http.Request) {
	p, err := auth.PrincipalFrom(r)
	if err != nil {
		web.Error(w, h.logger, err)
		return
	}

	scope, err := h.resolver.Authorize(r.Context(), p, access.ResourceAnalytics, access.ActionRead)
	if err != nil {
		web.Error(w, h.logger, err)
		return
	}
	if scope.Kind != access.ScopeAll {
		web.Error(w, h.logger, fmt.Errorf("platform report is admin only: %w", domain.ErrForbidden))
		return
	}

	days := 7
	if raw := r.URL.Query().Get("days"); raw != "" {
		days, err = strconv.Atoi(raw)
		if err != nil || days <= 0 || days > 90 {
			web.Fail(w, http.StatusBadRequest, "days must be between 1 and 90")
			return
		}
	}

	report, err := h.stats.DailyReport(r.Context(), days)
	if err != nil {
		web.Error(w, h.logger, err)
		return
	}
	web.SuccessList(w, len(report), report)
}
