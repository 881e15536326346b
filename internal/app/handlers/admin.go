package handlers

import (
	"log/slog"
	"net/http"

	"github.com/linemk/print-shop/internal/service"
)

type CategoryRequest struct {
	Name string `json:"name" validate:"required"`
}

func PendingVendorsHandler(log *slog.Logger, svc service.AdminService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.PendingVendorsHandler"
		logger := log.With(slog.String("op", op))

		vendors, err := svc.PendingVendors(r.Context())
		if err != nil {
			writeServiceError(w, logger, err)
			return
		}
		writeJSON(w, logger, http.StatusOK, vendors)
	}
}

func ApproveVendorHandler(log *slog.Logger, svc service.AdminService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.ApproveVendorHandler"
		logger := log.With(slog.String("op", op))

		id, ok := idParam(w, r, logger, "id")
		if !ok {
			return
		}
		if err := svc.ApproveVendor(r.Context(), id); err != nil {
			writeServiceError(w, logger, err)
			return
		}
		writeJSON(w, logger, http.StatusOK, MessageResponse{Message: "vendor approved"})
	}
}

func RejectVendorHandler(log *slog.Logger, svc service.AdminService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.RejectVendorHandler"
		logger := log.With(slog.String("op", op))

		id, ok := idParam(w, r, logger, "id")
		if !ok {
			return
		}
		if err := svc.RejectVendor(r.Context(), id); err != nil {
			writeServiceError(w, logger, err)
			return
		}
		writeJSON(w, logger, http.StatusOK, MessageResponse{Message: "vendor rejected"})
	}
}

func CreateCategoryHandler(log *slog.Logger, svc service.AdminService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.CreateCategoryHandler"
		logger := log.With(slog.String("op", op))

		var req CategoryRequest
		if !decodeJSON(w, r, logger, &req) {
			return
		}
		category, err := svc.CreateCategory(r.Context(), req.Name)
		if err != nil {
			writeServiceError(w, logger, err)
			return
		}
		writeJSON(w, logger, http.StatusCreated, category)
	}
}

func DeleteCategoryHandler(log *slog.Logger, svc service.AdminService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.DeleteCategoryHandler"
		logger := log.With(slog.String("op", op))

		id, ok := idParam(w, r, logger, "id")
		if !ok {
			return
		}
		if err := svc.DeleteCategory(r.Context(), id); err != nil {
			writeServiceError(w, logger, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}
