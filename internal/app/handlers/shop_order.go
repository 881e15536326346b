package handlers

import (
	"log/slog"
	"net/http"

	"github.com/linemk/print-shop/internal/service"
)

// SellerOrdersPath - список заказов продавца, куда возвращает смена статуса
const SellerOrdersPath = "/seller/orders"

type DeliveryDetailsRequest struct {
	Details string `json:"delivery_details" validate:"required"`
}

type ShopStatusRequest struct {
	Status string `json:"status"`
}

func BuyerShopOrdersHandler(log *slog.Logger, svc service.ShopOrderService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.BuyerShopOrdersHandler"
		logger := log.With(slog.String("op", op))

		user, ok := principal(w, r, logger)
		if !ok {
			return
		}
		orders, err := svc.ListForBuyer(r.Context(), user.ID)
		if err != nil {
			writeServiceError(w, logger, err)
			return
		}
		writeJSON(w, logger, http.StatusOK, orders)
	}
}

func BuyerShopOrderHandler(log *slog.Logger, svc service.ShopOrderService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.BuyerShopOrderHandler"
		logger := log.With(slog.String("op", op))

		user, ok := principal(w, r, logger)
		if !ok {
			return
		}
		id, ok := idParam(w, r, logger, "id")
		if !ok {
			return
		}
		order, err := svc.GetForBuyer(r.Context(), user.ID, id)
		if err != nil {
			writeServiceError(w, logger, err)
			return
		}
		writeJSON(w, logger, http.StatusOK, order)
	}
}

func DeliveryDetailsHandler(log *slog.Logger, svc service.ShopOrderService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.DeliveryDetailsHandler"
		logger := log.With(slog.String("op", op))

		user, ok := principal(w, r, logger)
		if !ok {
			return
		}
		id, ok := idParam(w, r, logger, "id")
		if !ok {
			return
		}
		var req DeliveryDetailsRequest
		if !decodeJSON(w, r, logger, &req) {
			return
		}
		if err := svc.SetDeliveryDetails(r.Context(), user.ID, id, req.Details); err != nil {
			writeServiceError(w, logger, err)
			return
		}
		writeJSON(w, logger, http.StatusOK, MessageResponse{Message: "delivery details saved"})
	}
}

func CancelShopOrderHandler(log *slog.Logger, svc service.ShopOrderService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.CancelShopOrderHandler"
		logger := log.With(slog.String("op", op))

		user, ok := principal(w, r, logger)
		if !ok {
			return
		}
		id, ok := idParam(w, r, logger, "id")
		if !ok {
			return
		}
		if err := svc.Cancel(r.Context(), user.ID, id); err != nil {
			writeServiceError(w, logger, err)
			return
		}
		writeJSON(w, logger, http.StatusOK, MessageResponse{Message: "order canceled"})
	}
}

// PayShopOrderHandler открывает оплату одного заказа покупателя
func PayShopOrderHandler(log *slog.Logger, svc service.CheckoutService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.PayShopOrderHandler"
		logger := log.With(slog.String("op", op))

		user, ok := principal(w, r, logger)
		if !ok {
			return
		}
		id, ok := idParam(w, r, logger, "id")
		if !ok {
			return
		}
		session, err := svc.OrderSession(r.Context(), user.ID, id)
		if err != nil {
			writeServiceError(w, logger, err)
			return
		}
		writeJSON(w, logger, http.StatusOK, CheckoutResponse{SessionID: session.ID, URL: session.URL})
	}
}

// SellerShopOrdersHandler - заказы на товары текущего пользователя
func SellerShopOrdersHandler(log *slog.Logger, svc service.ShopOrderService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.SellerShopOrdersHandler"
		logger := log.With(slog.String("op", op))

		user, ok := principal(w, r, logger)
		if !ok {
			return
		}
		orders, err := svc.ListForSeller(r.Context(), user)
		if err != nil {
			writeServiceError(w, logger, err)
			return
		}
		writeJSON(w, logger, http.StatusOK, orders)
	}
}

func UpdateShopStatusHandler(log *slog.Logger, svc service.ShopOrderService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.UpdateShopStatusHandler"
		logger := log.With(slog.String("op", op))

		user, ok := principal(w, r, logger)
		if !ok {
			return
		}
		id, ok := idParam(w, r, logger, "id")
		if !ok {
			return
		}
		var req ShopStatusRequest
		if !decodeJSON(w, r, logger, &req) {
			return
		}
		if err := svc.UpdateStatus(r.Context(), user, id, req.Status); err != nil {
			writeServiceError(w, logger, err)
			return
		}
		http.Redirect(w, r, SellerOrdersPath, http.StatusSeeOther)
	}
}
