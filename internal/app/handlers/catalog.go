package handlers

import (
	"log/slog"
	"net/http"

	"github.com/linemk/print-shop/internal/domain/models"
	"github.com/linemk/print-shop/internal/service"
	"github.com/shopspring/decimal"
)

// VendorItemRequest - создание и редактирование товара продавца
type VendorItemRequest struct {
	CategoryID  *int64            `json:"category_id"`
	Name        string            `json:"name" validate:"required"`
	Description string            `json:"description"`
	Price       decimal.Decimal   `json:"price"`
	Status      models.ItemStatus `json:"status" validate:"omitempty,oneof=active inactive"`
}

func (req VendorItemRequest) input() service.VendorItemInput {
	return service.VendorItemInput{
		CategoryID:  req.CategoryID,
		Name:        req.Name,
		Description: req.Description,
		Price:       req.Price,
		Status:      req.Status,
	}
}

// ToggleResponse - новый статус товара
type ToggleResponse struct {
	Status models.ItemStatus `json:"status"`
}

func CreateVendorItemHandler(log *slog.Logger, svc service.CatalogService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.CreateVendorItemHandler"
		logger := log.With(slog.String("op", op))

		user, ok := principal(w, r, logger)
		if !ok {
			return
		}
		var req VendorItemRequest
		if !decodeJSON(w, r, logger, &req) {
			return
		}

		item, err := svc.CreateVendorItem(r.Context(), user.ID, req.input())
		if err != nil {
			writeServiceError(w, logger, err)
			return
		}
		writeJSON(w, logger, http.StatusCreated, item)
	}
}

func GetVendorItemHandler(log *slog.Logger, svc service.CatalogService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.GetVendorItemHandler"
		logger := log.With(slog.String("op", op))

		user, ok := principal(w, r, logger)
		if !ok {
			return
		}
		id, ok := idParam(w, r, logger, "id")
		if !ok {
			return
		}

		item, err := svc.GetVendorItem(r.Context(), user.ID, id)
		if err != nil {
			writeServiceError(w, logger, err)
			return
		}
		writeJSON(w, logger, http.StatusOK, item)
	}
}

func UpdateVendorItemHandler(log *slog.Logger, svc service.CatalogService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.UpdateVendorItemHandler"
		logger := log.With(slog.String("op", op))

		user, ok := principal(w, r, logger)
		if !ok {
			return
		}
		id, ok := idParam(w, r, logger, "id")
		if !ok {
			return
		}
		var req VendorItemRequest
		if !decodeJSON(w, r, logger, &req) {
			return
		}

		item, err := svc.UpdateVendorItem(r.Context(), user.ID, id, req.input())
		if err != nil {
			writeServiceError(w, logger, err)
			return
		}
		writeJSON(w, logger, http.StatusOK, item)
	}
}

func ToggleVendorItemHandler(log *slog.Logger, svc service.CatalogService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.ToggleVendorItemHandler"
		logger := log.With(slog.String("op", op))

		user, ok := principal(w, r, logger)
		if !ok {
			return
		}
		id, ok := idParam(w, r, logger, "id")
		if !ok {
			return
		}

		status, err := svc.ToggleVendorItem(r.Context(), user.ID, id)
		if err != nil {
			writeServiceError(w, logger, err)
			return
		}
		writeJSON(w, logger, http.StatusOK, ToggleResponse{Status: status})
	}
}

func DeleteVendorItemHandler(log *slog.Logger, svc service.CatalogService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.DeleteVendorItemHandler"
		logger := log.With(slog.String("op", op))

		user, ok := principal(w, r, logger)
		if !ok {
			return
		}
		id, ok := idParam(w, r, logger, "id")
		if !ok {
			return
		}

		if err := svc.DeleteVendorItem(r.Context(), user.ID, id); err != nil {
			writeServiceError(w, logger, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

// MyStoreHandler - товары текущего продавца во всех статусах
func MyStoreHandler(log *slog.Logger, svc service.CatalogService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.MyStoreHandler"
		logger := log.With(slog.String("op", op))

		user, ok := principal(w, r, logger)
		if !ok {
			return
		}
		items, err := svc.MyStore(r.Context(), user.ID)
		if err != nil {
			writeServiceError(w, logger, err)
			return
		}
		writeJSON(w, logger, http.StatusOK, items)
	}
}

// ShopHandler - витрина продавцов, сгруппированная по категориям
func ShopHandler(log *slog.Logger, svc service.CatalogService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.ShopHandler"
		logger := log.With(slog.String("op", op))

		groups, err := svc.Shop(r.Context())
		if err != nil {
			writeServiceError(w, logger, err)
			return
		}
		writeJSON(w, logger, http.StatusOK, groups)
	}
}

func ListCategoriesHandler(log *slog.Logger, svc service.CatalogService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.ListCategoriesHandler"
		logger := log.With(slog.String("op", op))

		categories, err := svc.ListCategories(r.Context())
		if err != nil {
			writeServiceError(w, logger, err)
			return
		}
		writeJSON(w, logger, http.StatusOK, categories)
	}
}
