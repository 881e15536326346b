package handlers

import (
	"errors"
	"log/slog"
	"net/http"
	"net/url"

	"github.com/linemk/print-shop/internal/jwt-new/jwtmiddleware"
	"github.com/linemk/print-shop/internal/service"
)

const PaymentCancelPath = "/payment-cancel"

// PaymentSuccessHandler сверяет сессию оплаты после возврата покупателя.
// Ошибки платёжной системы не показываются клиенту: только редирект с сообщением.
func PaymentSuccessHandler(log *slog.Logger, svc service.CheckoutService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.PaymentSuccessHandler"
		logger := log.With(slog.String("op", op))

		user, ok := principal(w, r, logger)
		if !ok {
			return
		}
		checkoutSessionID := r.URL.Query().Get("session_id")
		if checkoutSessionID == "" {
			http.Error(w, "session_id is required", http.StatusBadRequest)
			return
		}

		sid, _ := jwtmiddleware.SessionFromContext(r.Context())
		result, err := svc.Reconcile(r.Context(), user.ID, sid, checkoutSessionID)
		switch {
		case err == nil:
			writeJSON(w, logger, http.StatusOK, result)
		case errors.Is(err, service.ErrPaymentProvider):
			logger.Error("failed to verify payment", slog.Any("error", err))
			http.Redirect(w, r, "/?message="+url.QueryEscape("could not verify the payment, try again later"), http.StatusSeeOther)
		case errors.Is(err, service.ErrPaymentNotCompleted):
			http.Redirect(w, r, PaymentCancelPath+"?message="+url.QueryEscape(service.ErrPaymentNotCompleted.Error()), http.StatusSeeOther)
		default:
			writeServiceError(w, logger, err)
		}
	}
}

type PaymentCancelResponse struct {
	Message string `json:"message"`
	Detail  string `json:"detail,omitempty"`
}

func PaymentCancelHandler(log *slog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		logger := log.With(slog.String("op", "handlers.PaymentCancelHandler"))
		writeJSON(w, logger, http.StatusOK, PaymentCancelResponse{
			Message: "payment canceled",
			Detail:  r.URL.Query().Get("message"),
		})
	}
}
