package admin

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gfmartins/deliveryflow/internal/access"
	"github.com/gfmartins/deliveryflow/internal/auth"
	"github.com/gfmartins/deliveryflow/internal/domain"
)

type fakeUserStore struct {
	users   map[uuid.UUID]domain.User
	created []domain.User
}

func newFakeUserStore() *fakeUserStore {
	return &fakeUserStore{users: map[uuid.UUID]domain.User{}}
}

func (f *fakeUserStore) Create(ctx context.Context, user *domain.User) error {
	user.ID = uuid.New()
	f.users[user.ID] = *user
	f.created = append(f.created, *user)
	return nil
}

func (f *fakeUserStore) List(ctx context.Context) ([]domain.User, error) {
	out := make([]domain.User, 0, len(f.users))
	for _, u := range f.users {
		out = append(out, u)
	}
	return out, nil
}

func (f *fakeUserStore) Delete(ctx context.Context, id uuid.UUID) error {
	if _, ok := f.users[id]; !ok {
		return fmt.Errorf("user %s: %w", id, domain.ErrNotFound)
	}
	delete(f.users, id)
	return nil
}

type fakeRestaurantStore struct {
	restaurants map[uuid.UUID]domain.Restaurant
}

func (f *fakeRestaurantStore) ListRestaurants(ctx context.Context) ([]domain.Restaurant, error) {
	out := make([]domain.Restaurant, 0, len(f.restaurants))
	for _, r := range f.restaurants {
		out = append(out, r)
	}
	return out, nil
}

func (f *fakeRestaurantStore) DeleteRestaurant(ctx context.Context, id uuid.UUID) error {
	if _, ok := f.restaurants[id]; !ok {
		return fmt.Errorf("restaurant %s: %w", id, domain.ErrNotFound)
	}
	delete(f.restaurants, id)
	return nil
}

type fakeProvisioner struct {
	calls int
	hash  string
}

func (f *fakeProvisioner) CreateRestaurant(ctx context.Context, in ProvisionInput, passwordHash string) (*Provisioned, error) {
	if err := in.validate(); err != nil {
		return nil, err
	}
	f.calls++
	f.hash = passwordHash
	restaurantID := uuid.New()
	ownerID := uuid.New()
	return &Provisioned{
		Restaurant: domain.Restaurant{ID: restaurantID, Name: in.RestaurantName, OwnerID: ownerID},
		Owner:      domain.User{ID: ownerID, Name: in.OwnerName, Email: in.OwnerEmail, Role: domain.RoleRestaurant, RestaurantID: &restaurantID},
	}, nil
}

type noDirectory struct{}

func (noDirectory) RestaurantIDByOwner(ctx context.Context, ownerID uuid.UUID) (uuid.UUID, error) {
	return uuid.Nil, fmt.Errorf("restaurant: %w", domain.ErrNotFound)
}

func newTestHandler(users *fakeUserStore, restaurants *fakeRestaurantStore, provisioner *fakeProvisioner) *Handler {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return NewHandler(users, restaurants, provisioner, access.NewResolver(noDirectory{}), logger)
}

func asPrincipal(r *http.Request, p domain.Principal) *http.Request {
	return r.WithContext(auth.WithPrincipal(r.Context(), p))
}

func TestHandler_DeleteUser(t *testing.T) {
	adminID := uuid.New()
	victimID := uuid.New()
	admin := domain.Principal{UserID: adminID, Role: domain.RoleAdmin}

	newHandler := func() (*Handler, *fakeUserStore) {
		users := newFakeUserStore()
		users.users[adminID] = domain.User{ID: adminID, Role: domain.RoleAdmin}
		users.users[victimID] = domain.User{ID: victimID, Role: domain.RoleClient}
		return newTestHandler(users, &fakeRestaurantStore{}, &fakeProvisioner{}), users
	}

	do := func(h *Handler, p domain.Principal, id string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodDelete, "/admin/users/"+id, nil)
		req.SetPathValue("id", id)
		rec := httptest.NewRecorder()
		h.HandleDeleteUser(rec, asPrincipal(req, p))
		return rec
	}

	t.Run("admin deletes another user", func(t *testing.T) {
		h, users := newHandler()
		rec := do(h, admin, victimID.String())
		assert.Equal(t, http.StatusOK, rec.Code)
		assert.NotContains(t, users.users, victimID)
	})

	t.Run("self deletion refused", func(t *testing.T) {
		h, users := newHandler()
		rec := do(h, admin, adminID.String())
		assert.Equal(t, http.StatusForbidden, rec.Code)
		assert.Contains(t, users.users, adminID)
	})

	t.Run("non-admin denied", func(t *testing.T) {
		h, _ := newHandler()
		rec := do(h, domain.Principal{UserID: uuid.New(), Role: domain.RoleClient}, victimID.String())
		assert.Equal(t, http.StatusForbidden, rec.Code)
	})

	t.Run("unknown user not found", func(t *testing.T) {
		h, _ := newHandler()
		rec := do(h, admin, uuid.NewString())
		assert.Equal(t, http.StatusNotFound, rec.Code)
	})
}

func TestHandler_CreateUser(t *testing.T) {
	admin := domain.Principal{UserID: uuid.New(), Role: domain.RoleAdmin}

	do := func(h *Handler, body string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodPost, "/admin/users", strings.NewReader(body))
		rec := httptest.NewRecorder()
		h.HandleCreateUser(rec, asPrincipal(req, admin))
		return rec
	}

	t.Run("employee requires a restaurant", func(t *testing.T) {
		h := newTestHandler(newFakeUserStore(), &fakeRestaurantStore{}, &fakeProvisioner{})
		rec := do(h, `{"name":"Ana","email":"ana@example.com","password":"secret1","role":"employee"}`)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("employee with restaurant created, password hashed", func(t *testing.T) {
		users := newFakeUserStore()
		h := newTestHandler(users, &fakeRestaurantStore{}, &fakeProvisioner{})
		body := fmt.Sprintf(`{"name":"Ana","email":"ana@example.com","password":"secret1","role":"employee","restaurant_id":%q}`, uuid.NewString())
		rec := do(h, body)
		require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
		require.Len(t, users.created, 1)
		assert.NotEqual(t, "secret1", users.created[0].PasswordHash)
		assert.NotEmpty(t, users.created[0].PasswordHash)
		assert.NotContains(t, rec.Body.String(), users.created[0].PasswordHash)
	})

	t.Run("invalid role rejected", func(t *testing.T) {
		h := newTestHandler(newFakeUserStore(), &fakeRestaurantStore{}, &fakeProvisioner{})
		rec := do(h, `{"name":"Ana","email":"ana@example.com","password":"secret1","role":"superuser"}`)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})
}

func TestHandler_CreateRestaurant(t *testing.T) {
	admin := domain.Principal{UserID: uuid.New(), Role: domain.RoleAdmin}

	do := func(h *Handler, p domain.Principal, body string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodPost, "/admin/restaurants", strings.NewReader(body))
		rec := httptest.NewRecorder()
		h.HandleCreateRestaurant(rec, asPrincipal(req, p))
		return rec
	}

	t.Run("provisions restaurant with owner", func(t *testing.T) {
		provisioner := &fakeProvisioner{}
		h := newTestHandler(newFakeUserStore(), &fakeRestaurantStore{}, provisioner)
		rec := do(h, admin, `{
			"restaurant_name": "Burger Place",
			"owner_name": "Bob",
			"owner_email": "bob@example.com",
			"owner_password": "secret1"
		}`)
		require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
		assert.Equal(t, 1, provisioner.calls)
		assert.NotEqual(t, "secret1", provisioner.hash)
	})

	t.Run("missing owner email rejected", func(t *testing.T) {
		provisioner := &fakeProvisioner{}
		h := newTestHandler(newFakeUserStore(), &fakeRestaurantStore{}, provisioner)
		rec := do(h, admin, `{"restaurant_name":"Burger Place","owner_name":"Bob","owner_password":"secret1"}`)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Zero(t, provisioner.calls)
	})

	t.Run("restaurant owner cannot provision", func(t *testing.T) {
		restaurantID := uuid.New()
		owner := domain.Principal{UserID: uuid.New(), Role: domain.RoleRestaurant, RestaurantID: &restaurantID}
		h := newTestHandler(newFakeUserStore(), &fakeRestaurantStore{}, &fakeProvisioner{})
		rec := do(h, owner, `{}`)
		assert.Equal(t, http.StatusForbidden, rec.Code)
	})
}
