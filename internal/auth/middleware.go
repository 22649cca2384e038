package auth

import (
	"context"
	"net/http"
	"strings"

	"github.com/gfmartins/deliveryflow/internal/domain"
	"github.com/gfmartins/deliveryflow/internal/web"
)

type contextKey struct{}

var principalKey contextKey

// Middleware authenticates the bearer token and stores the resulting
// Principal in the request context. Missing or invalid tokens end the
// request with 401.
func Middleware(tokens *Tokens) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			tokenStr, ok := bearerToken(r)
			if !ok {
				web.Fail(w, http.StatusUnauthorized, "missing bearer token")
				return
			}

			claims, err := tokens.Parse(tokenStr)
			if err != nil {
				web.Fail(w, http.StatusUnauthorized, "invalid or expired token")
				return
			}

			principal := domain.Principal{
				UserID:       claims.UserID,
				Role:         claims.Role,
				RestaurantID: claims.RestaurantID,
			}
			ctx := context.WithValue(r.Context(), principalKey, principal)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// PrincipalFrom returns the authenticated principal, or ErrUnauthorized when
// the request never went through Middleware.
func PrincipalFrom(r *http.Request) (domain.Principal, error) {
	p, ok := r.Context().Value(principalKey).(domain.Principal)
	if !ok {
		return domain.Principal{}, domain.ErrUnauthorized
	}
	return p, nil
}

// WithPrincipal is used by tests to build pre-authenticated requests.
func WithPrincipal(ctx context.Context, p domain.Principal) context.Context {
	return context.WithValue(ctx, principalKey, p)
}

func bearerToken(r *http.Request) (string, bool) {
	header := r.Header.Get("Authorization")
	if header == "" {
		return "", false
	}
	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "bearer") {
		return "", false
	}
	return parts[1], true
}
