// Package session resolves the caller of a request and gates routes by role.
package session

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"slices"

	"superfoods-store/services/store-api/internal/respond"
	"superfoods-store/services/store-api/internal/service"
	"superfoods-store/shared/pkg/auth"
	"superfoods-store/shared/pkg/models"

	"github.com/rs/zerolog"
)

const (
	MsgNoToken      = "not authorized, no token"
	MsgInvalidToken = "invalid or expired token"
)

type Authenticator interface {
	Authenticate(ctx context.Context, token string) (models.User, auth.Claims, error)
}

type ctxKey struct{}

func WithUser(ctx context.Context, u models.User) context.Context {
	return context.WithValue(ctx, ctxKey{}, u)
}

func UserFrom(ctx context.Context) (models.User, bool) {
	u, ok := ctx.Value(ctxKey{}).(models.User)
	return u, ok
}

// Protect rejects requests without a valid bearer or cookie token and
// stores the caller in the request context.
func Protect(a Authenticator, log zerolog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			tok := auth.TokenFromRequest(r)
			if tok == "" {
				respond.Error(w, http.StatusUnauthorized, MsgNoToken)
				return
			}
			u, _, err := a.Authenticate(r.Context(), tok)
			if errors.Is(err, service.ErrUnauthenticated) {
				respond.Error(w, http.StatusUnauthorized, MsgInvalidToken)
				return
			}
			if err != nil {
				log.Error().Err(err).Msg("authenticate failed")
				respond.Error(w, http.StatusInternalServerError, "server error")
				return
			}
			next.ServeHTTP(w, r.WithContext(WithUser(r.Context(), u)))
		})
	}
}

// Authorize must run after Protect.
func Authorize(roles ...models.Role) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			u, ok := UserFrom(r.Context())
			if !ok {
				respond.Error(w, http.StatusUnauthorized, MsgNoToken)
				return
			}
			if !slices.Contains(roles, u.Role) {
				respond.Error(w, http.StatusForbidden, fmt.Sprintf("role %s is not allowed", u.Role))
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
