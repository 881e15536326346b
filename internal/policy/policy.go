package policy

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/linemk/print-shop/internal/domain/models"
	"github.com/linemk/print-shop/internal/jwt-new/jwtmiddleware"
	"github.com/linemk/print-shop/internal/storage"
)

type contextKey string

const principalKey contextKey = "principal"

// Requirement - декларативное правило доступа к маршруту.
type Requirement struct {
	Name  string
	Allow func(u *models.User) bool
}

var (
	Authenticated = Requirement{
		Name:  "authenticated",
		Allow: func(u *models.User) bool { return true },
	}
	StudentOnly = Requirement{
		Name:  "student",
		Allow: func(u *models.User) bool { return u.Role == models.RoleStudent },
	}
	ApprovedVendorOnly = Requirement{
		Name:  "approved_vendor",
		Allow: func(u *models.User) bool { return u.IsApprovedVendor() },
	}
	SuperuserOnly = Requirement{
		Name:  "superuser",
		Allow: func(u *models.User) bool { return u.IsSuperuser },
	}
)

// Check возвращает true, если пользователь задан и удовлетворяет правилу
func (r Requirement) Check(u *models.User) bool {
	return u != nil && r.Allow(u)
}

type UserProvider interface {
	GetUserByID(ctx context.Context, id int64) (*models.User, error)
}

// Authenticate загружает пользователя из хранилища на каждый запрос:
// отозванное одобрение продавца действует сразу, без перевыпуска токена.
// Ставится после jwtmiddleware.
func Authenticate(log *slog.Logger, users UserProvider, loginPath string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			const op = "policy.Authenticate"

			userID, ok := jwtmiddleware.FromContext(r.Context())
			if !ok {
				http.Redirect(w, r, loginPath, http.StatusFound)
				return
			}

			user, err := users.GetUserByID(r.Context(), userID)
			if err != nil {
				if errors.Is(err, storage.ErrUserNotFound) {
					http.Redirect(w, r, loginPath, http.StatusFound)
					return
				}
				log.Error("failed to load principal", slog.String("op", op), slog.Int64("user_id", userID), slog.Any("error", err))
				http.Error(w, "internal server error", http.StatusInternalServerError)
				return
			}

			next.ServeHTTP(w, r.WithContext(WithPrincipal(r.Context(), user)))
		})
	}
}

// Require пропускает запрос дальше, только если принципал удовлетворяет правилу.
func Require(req Requirement) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			user, ok := PrincipalFromContext(r.Context())
			if !ok {
				http.Error(w, "unauthorized", http.StatusUnauthorized)
				return
			}
			if !req.Check(user) {
				http.Error(w, "forbidden", http.StatusForbidden)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func WithPrincipal(ctx context.Context, user *models.User) context.Context {
	return context.WithValue(ctx, principalKey, user)
}

func PrincipalFromContext(ctx context.Context) (*models.User, bool) {
	user, ok := ctx.Value(principalKey).(*models.User)
	return user, ok && user != nil
}
