package handlers

import (
	"fmt"
	"log/slog"
	"net/http"

	"github.com/linemk/print-shop/internal/service"
	"github.com/shopspring/decimal"
)

type PeerItemRequest struct {
	CategoryID  *int64          `json:"category_id"`
	Name        string          `json:"name" validate:"required"`
	Description string          `json:"description"`
	Price       decimal.Decimal `json:"price"`
}

// OrderPeerItemRequest - количество по умолчанию одна штука
type OrderPeerItemRequest struct {
	Quantity int `json:"quantity"`
}

func CreatePeerItemHandler(log *slog.Logger, svc service.PeerItemService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.CreatePeerItemHandler"
		logger := log.With(slog.String("op", op))

		user, ok := principal(w, r, logger)
		if !ok {
			return
		}
		var req PeerItemRequest
		if !decodeJSON(w, r, logger, &req) {
			return
		}

		item, err := svc.Create(r.Context(), user.ID, service.PeerItemInput{
			CategoryID:  req.CategoryID,
			Name:        req.Name,
			Description: req.Description,
			Price:       req.Price,
		})
		if err != nil {
			writeServiceError(w, logger, err)
			return
		}
		writeJSON(w, logger, http.StatusCreated, item)
	}
}

// MyPeerItemsHandler - товары студента во всех статусах
func MyPeerItemsHandler(log *slog.Logger, svc service.PeerItemService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.MyPeerItemsHandler"
		logger := log.With(slog.String("op", op))

		user, ok := principal(w, r, logger)
		if !ok {
			return
		}
		items, err := svc.MyItems(r.Context(), user.ID)
		if err != nil {
			writeServiceError(w, logger, err)
			return
		}
		writeJSON(w, logger, http.StatusOK, items)
	}
}

func DeletePeerItemHandler(log *slog.Logger, svc service.PeerItemService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.DeletePeerItemHandler"
		logger := log.With(slog.String("op", op))

		user, ok := principal(w, r, logger)
		if !ok {
			return
		}
		id, ok := idParam(w, r, logger, "id")
		if !ok {
			return
		}
		if err := svc.Delete(r.Context(), user.ID, id); err != nil {
			writeServiceError(w, logger, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

// PeerListingHandler - студенту активные товары, продавцу очередь модерации
func PeerListingHandler(log *slog.Logger, svc service.PeerItemService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.PeerListingHandler"
		logger := log.With(slog.String("op", op))

		user, ok := principal(w, r, logger)
		if !ok {
			return
		}
		items, err := svc.Listing(r.Context(), user)
		if err != nil {
			writeServiceError(w, logger, err)
			return
		}
		writeJSON(w, logger, http.StatusOK, items)
	}
}

func ApprovePeerItemHandler(log *slog.Logger, svc service.PeerItemService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.ApprovePeerItemHandler"
		logger := log.With(slog.String("op", op))

		user, ok := principal(w, r, logger)
		if !ok {
			return
		}
		id, ok := idParam(w, r, logger, "id")
		if !ok {
			return
		}
		if err := svc.Approve(r.Context(), user.ID, id); err != nil {
			writeServiceError(w, logger, err)
			return
		}
		writeJSON(w, logger, http.StatusOK, MessageResponse{Message: "item approved"})
	}
}

// OrderPeerItemHandler создаёт заказ и указывает, куда отправить данные доставки
func OrderPeerItemHandler(log *slog.Logger, svc service.ShopOrderService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.OrderPeerItemHandler"
		logger := log.With(slog.String("op", op))

		user, ok := principal(w, r, logger)
		if !ok {
			return
		}
		id, ok := idParam(w, r, logger, "id")
		if !ok {
			return
		}
		req := OrderPeerItemRequest{Quantity: 1}
		if r.ContentLength != 0 && !decodeJSON(w, r, logger, &req) {
			return
		}

		order, err := svc.OrderPeerItem(r.Context(), user.ID, id, req.Quantity)
		if err != nil {
			writeServiceError(w, logger, err)
			return
		}
		w.Header().Set("Location", fmt.Sprintf("/shop-orders/%d/delivery", order.ID))
		writeJSON(w, logger, http.StatusCreated, order)
	}
}
