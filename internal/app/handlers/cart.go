package handlers

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/linemk/print-shop/internal/domain/models"
	"github.com/linemk/print-shop/internal/jwt-new/jwtmiddleware"
	"github.com/linemk/print-shop/internal/service"
	"github.com/shopspring/decimal"
)

type AddToCartRequest struct {
	ItemID int64 `json:"item_id" validate:"required,gt=0"`
}

type CartLineResponse struct {
	models.CartLine
	LineTotal decimal.Decimal `json:"line_total"`
}

type CartResponse struct {
	Lines []CartLineResponse `json:"lines"`
	Total decimal.Decimal    `json:"total"`
}

// CheckoutResponse - ссылка на страницу оплаты
type CheckoutResponse struct {
	SessionID string `json:"session_id"`
	URL       string `json:"url"`
}

func AddToCartHandler(log *slog.Logger, svc service.CartService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.AddToCartHandler"
		logger := log.With(slog.String("op", op))

		user, ok := principal(w, r, logger)
		if !ok {
			return
		}
		var req AddToCartRequest
		if !decodeJSON(w, r, logger, &req) {
			return
		}

		line, err := svc.Add(r.Context(), user.ID, req.ItemID)
		if err != nil {
			writeServiceError(w, logger, err)
			return
		}
		writeJSON(w, logger, http.StatusOK, line)
	}
}

// ViewCartHandler - суммы считаются при каждом запросе
func ViewCartHandler(log *slog.Logger, svc service.CartService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.ViewCartHandler"
		logger := log.With(slog.String("op", op))

		user, ok := principal(w, r, logger)
		if !ok {
			return
		}
		cart, err := svc.View(r.Context(), user.ID)
		if err != nil {
			writeServiceError(w, logger, err)
			return
		}

		resp := CartResponse{Lines: make([]CartLineResponse, 0, len(cart.Lines)), Total: cart.TotalPrice()}
		for _, l := range cart.Lines {
			resp.Lines = append(resp.Lines, CartLineResponse{CartLine: l, LineTotal: l.TotalPrice()})
		}
		writeJSON(w, logger, http.StatusOK, resp)
	}
}

func RemoveFromCartHandler(log *slog.Logger, svc service.CartService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.RemoveFromCartHandler"
		logger := log.With(slog.String("op", op))

		user, ok := principal(w, r, logger)
		if !ok {
			return
		}
		id, ok := idParam(w, r, logger, "id")
		if !ok {
			return
		}
		if err := svc.Remove(r.Context(), user.ID, id); err != nil {
			writeServiceError(w, logger, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

// CheckoutCartHandler откладывает данные доставки и открывает оплату корзины
func CheckoutCartHandler(log *slog.Logger, carts service.CartService, checkout service.CheckoutService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.CheckoutCartHandler"
		logger := log.With(slog.String("op", op))

		user, ok := principal(w, r, logger)
		if !ok {
			return
		}
		sid, ok := jwtmiddleware.SessionFromContext(r.Context())
		if !ok {
			logger.Error("session id not found in context")
			http.Error(w, "session is missing, log in again", http.StatusUnauthorized)
			return
		}

		// поля проверяет сервис: пустая корзина сообщается раньше
		var details models.DeliveryDetails
		if err := json.NewDecoder(r.Body).Decode(&details); err != nil {
			logger.Error("invalid request: decoding error", slog.Any("error", err))
			http.Error(w, "invalid request", http.StatusBadRequest)
			return
		}

		if err := carts.CheckoutIntent(r.Context(), user.ID, sid, details); err != nil {
			writeServiceError(w, logger, err)
			return
		}
		session, err := checkout.CartSession(r.Context(), user.ID, sid)
		if err != nil {
			writeServiceError(w, logger, err)
			return
		}
		writeJSON(w, logger, http.StatusOK, CheckoutResponse{SessionID: session.ID, URL: session.URL})
	}
}
