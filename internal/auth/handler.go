package auth

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/google/uuid"

	"github.com/gfmartins/deliveryflow/internal/domain"
	"github.com/gfmartins/deliveryflow/internal/web"
)

// UserStore is the slice of the user repository the auth endpoints need.
type UserStore interface {
	Create(ctx context.Context, user *domain.User) error
	GetByEmail(ctx context.Context, email string) (*domain.User, error)
	GetByID(ctx context.Context, id uuid.UUID) (*domain.User, error)
}

type Handler struct {
	users  UserStore
	tokens *Tokens
	logger *slog.Logger
}

func NewHandler(users UserStore, tokens *Tokens, logger *slog.Logger) *Handler {
	return &Handler{users: users, tokens: tokens, logger: logger}
}

type registerRequest struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

// HandleRegister self-registers a client account. Restaurant and employee
// accounts are provisioned through the admin namespace.
func (h *Handler) HandleRegister(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		web.Fail(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if req.Name == "" || req.Email == "" || req.Password == "" {
		web.Fail(w, http.StatusBadRequest, "name, email and password are required")
		return
	}

	hash, err := HashPassword(req.Password)
	if err != nil {
		h.logger.Error("failed to hash password", "error", err)
		web.Fail(w, http.StatusInternalServerError, "internal server error")
		return
	}

	user := &domain.User{
		Name:         req.Name,
		Email:        req.Email,
		PasswordHash: hash,
		Role:         domain.RoleClient,
	}
	if err := h.users.Create(r.Context(), user); err != nil {
		web.Error(w, h.logger, err)
		return
	}

	token, err := h.tokens.Issue(*user)
	if err != nil {
		h.logger.Error("failed to issue token", "error", err, "user_id", user.ID)
		web.Fail(w, http.StatusInternalServerError, "internal server error")
		return
	}

	h.logger.Info("user registered", "user_id", user.ID)
	web.Success(w, http.StatusCreated, map[string]any{"token": token, "user": user})
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (h *Handler) HandleLogin(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		web.Fail(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if req.Email == "" || req.Password == "" {
		web.Fail(w, http.StatusBadRequest, "email and password are required")
		return
	}

	user, err := h.users.GetByEmail(r.Context(), req.Email)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			web.Fail(w, http.StatusUnauthorized, "invalid credentials")
			return
		}
		web.Error(w, h.logger, err)
		return
	}

	if !CheckPassword(user.PasswordHash, req.Password) {
		web.Fail(w, http.StatusUnauthorized, "invalid credentials")
		return
	}

	token, err := h.tokens.Issue(*user)
	if err != nil {
		h.logger.Error("failed to issue token", "error", err, "user_id", user.ID)
		web.Fail(w, http.StatusInternalServerError, "internal server error")
		return
	}

	h.logger.Info("user logged in", "user_id", user.ID, "role", user.Role)
	web.Success(w, http.StatusOK, map[string]any{"token": token, "user": user})
}

func (h *Handler) HandleMe(w http.ResponseWriter, r *http.Request) {
	principal, err := PrincipalFrom(r)
	if err != nil {
		web.Fail(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	user, err := h.users.GetByID(r.Context(), principal.UserID)
	if err != nil {
		web.Error(w, h.logger, err)
		return
	}

	web.Success(w, http.StatusOK, user)
}
