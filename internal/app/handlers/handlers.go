package handlers

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/linemk/print-shop/internal/domain/models"
	"github.com/linemk/print-shop/internal/policy"
	"github.com/linemk/print-shop/internal/service"
)

var validate = validator.New()

// MessageResponse - ответ без данных
type MessageResponse struct {
	Message string `json:"message"`
}

func writeJSON(w http.ResponseWriter, logger *slog.Logger, status int, resp any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(resp); err != nil {
		logger.Error("failed to encode response", slog.Any("error", err))
	}
}

// decodeJSON читает тело запроса и проверяет теги validate
func decodeJSON(w http.ResponseWriter, r *http.Request, logger *slog.Logger, dst any) bool {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		logger.Error("invalid request: decoding error", slog.Any("error", err))
		http.Error(w, "invalid request", http.StatusBadRequest)
		return false
	}
	if err := validate.Struct(dst); err != nil {
		logger.Error("invalid request: validation error", slog.Any("error", err))
		http.Error(w, "validation error", http.StatusBadRequest)
		return false
	}
	return true
}

// writeServiceError переводит доменные ошибки в статусы HTTP.
// Клиент видит только текст доменной ошибки, не всю цепочку.
func writeServiceError(w http.ResponseWriter, logger *slog.Logger, err error) {
	var vErr *service.ValidationError
	switch {
	case errors.As(err, &vErr):
		http.Error(w, vErr.Message, http.StatusBadRequest)
	case errors.Is(err, service.ErrEmptyCart):
		http.Error(w, service.ErrEmptyCart.Error(), http.StatusBadRequest)
	case errors.Is(err, service.ErrDeliveryRequired):
		http.Error(w, service.ErrDeliveryRequired.Error(), http.StatusBadRequest)
	case errors.Is(err, service.ErrInvalidCredentials):
		http.Error(w, service.ErrInvalidCredentials.Error(), http.StatusUnauthorized)
	case errors.Is(err, service.ErrNotApproved):
		http.Error(w, service.ErrNotApproved.Error(), http.StatusForbidden)
	case errors.Is(err, service.ErrForbidden):
		http.Error(w, "forbidden", http.StatusForbidden)
	case errors.Is(err, service.ErrNotFound):
		http.Error(w, "not found", http.StatusNotFound)
	case errors.Is(err, service.ErrUserExists):
		http.Error(w, service.ErrUserExists.Error(), http.StatusConflict)
	case errors.Is(err, service.ErrConflict):
		http.Error(w, "conflict", http.StatusConflict)
	case errors.Is(err, service.ErrPaymentProvider):
		logger.Error("payment provider failed", slog.Any("error", err))
		http.Error(w, "payment provider is unavailable", http.StatusBadGateway)
	default:
		logger.Error("request failed", slog.Any("error", err))
		http.Error(w, "internal server error", http.StatusInternalServerError)
	}
}

// principal - пользователь, загруженный policy.Authenticate
func principal(w http.ResponseWriter, r *http.Request, logger *slog.Logger) (*models.User, bool) {
	user, ok := policy.PrincipalFromContext(r.Context())
	if !ok {
		logger.Error("principal not found in context")
		http.Error(w, "unauthorized", http.StatusUnauthorized)
		return nil, false
	}
	return user, true
}

func idParam(w http.ResponseWriter, r *http.Request, logger *slog.Logger, name string) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, name), 10, 64)
	if err != nil || id < 1 {
		logger.Error("invalid id parameter", slog.String("param", name), slog.String("value", chi.URLParam(r, name)))
		http.Error(w, "invalid "+name, http.StatusBadRequest)
		return 0, false
	}
	return id, true
}
