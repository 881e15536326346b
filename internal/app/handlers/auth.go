package handlers

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/linemk/print-shop/internal/domain/models"
	"github.com/linemk/print-shop/internal/jwt-new/jwtmiddleware"
	"github.com/linemk/print-shop/internal/service"
)

// RegisterRequest представляет структуру запроса на регистрацию
type RegisterRequest struct {
	Username string      `json:"username" validate:"required"`
	Email    string      `json:"email" validate:"omitempty,email"`
	Password string      `json:"password" validate:"required"`
	Role     models.Role `json:"role" validate:"required,oneof=student vendor"`
}

// AuthRequest представляет структуру запроса для входа
type AuthRequest struct {
	Username string `json:"username" validate:"required"`
	Password string `json:"password" validate:"required"`
}

// RegisterHandler создаёт аккаунт; продавец после регистрации ждёт одобрения
func RegisterHandler(log *slog.Logger, authService service.AuthServiceInterface) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.RegisterHandler"
		logger := log.With(slog.String("op", op))

		var req RegisterRequest
		if !decodeJSON(w, r, logger, &req) {
			return
		}

		user, err := authService.Register(r.Context(), service.RegisterInput{
			Username: req.Username,
			Email:    req.Email,
			Password: req.Password,
			Role:     req.Role,
		})
		if err != nil {
			writeServiceError(w, logger, err)
			return
		}

		writeJSON(w, logger, http.StatusCreated, user)
	}
}

// AuthHandler – вход: токен возвращается в теле и в cookie сессии
func AuthHandler(log *slog.Logger, authService service.AuthServiceInterface) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.AuthHandler"
		logger := log.With(slog.String("op", op))

		var req AuthRequest
		if !decodeJSON(w, r, logger, &req) {
			return
		}

		res, err := authService.Login(r.Context(), req.Username, req.Password)
		if err != nil {
			if !errors.Is(err, service.ErrInvalidCredentials) && !errors.Is(err, service.ErrNotApproved) {
				logger.Error("login failed", slog.Any("error", err))
			}
			writeServiceError(w, logger, err)
			return
		}

		http.SetCookie(w, &http.Cookie{
			Name:     jwtmiddleware.CookieName,
			Value:    res.Token,
			Path:     "/",
			HttpOnly: true,
			SameSite: http.SameSiteLaxMode,
		})
		writeJSON(w, logger, http.StatusOK, res)
	}
}

// LogoutHandler удаляет cookie и отложенные данные сессии
func LogoutHandler(log *slog.Logger, authService service.AuthServiceInterface) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.LogoutHandler"
		logger := log.With(slog.String("op", op))

		sid, _ := jwtmiddleware.SessionFromContext(r.Context())
		if err := authService.Logout(r.Context(), sid); err != nil {
			// выход не должен застревать из-за кэша
			logger.Error("failed to discard session", slog.Any("error", err))
		}

		http.SetCookie(w, &http.Cookie{
			Name:     jwtmiddleware.CookieName,
			Value:    "",
			Path:     "/",
			MaxAge:   -1,
			HttpOnly: true,
		})
		writeJSON(w, logger, http.StatusOK, MessageResponse{Message: "logged out"})
	}
}

// LoginPageHandler - цель перенаправления для неаутентифицированных запросов
func LoginPageHandler(log *slog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		logger := log.With(slog.String("op", "handlers.LoginPageHandler"))
		writeJSON(w, logger, http.StatusOK, MessageResponse{Message: "login required: POST /login with username and password"})
	}
}

// HomeHandler показывает сообщение, переданное через редирект
func HomeHandler(log *slog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		logger := log.With(slog.String("op", "handlers.HomeHandler"))
		msg := r.URL.Query().Get("message")
		if msg == "" {
			msg = "campus print shop"
		}
		writeJSON(w, logger, http.StatusOK, MessageResponse{Message: msg})
	}
}

func HealthHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain")
	_, _ = w.Write([]byte("ok"))
}
