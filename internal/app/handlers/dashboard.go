package handlers

import (
	"log/slog"
	"net/http"

	"github.com/linemk/print-shop/internal/service"
)

func StudentDashboardHandler(log *slog.Logger, svc service.DashboardService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.StudentDashboardHandler"
		logger := log.With(slog.String("op", op))

		user, ok := principal(w, r, logger)
		if !ok {
			return
		}
		stats, err := svc.Student(r.Context(), user.ID)
		if err != nil {
			writeServiceError(w, logger, err)
			return
		}
		writeJSON(w, logger, http.StatusOK, stats)
	}
}

func VendorDashboardHandler(log *slog.Logger, svc service.DashboardService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.VendorDashboardHandler"
		logger := log.With(slog.String("op", op))

		user, ok := principal(w, r, logger)
		if !ok {
			return
		}
		stats, err := svc.Vendor(r.Context(), user.ID)
		if err != nil {
			writeServiceError(w, logger, err)
			return
		}
		writeJSON(w, logger, http.StatusOK, stats)
	}
}

// MyOrdersHandler - заказы на печать и покупки студента
func MyOrdersHandler(log *slog.Logger, svc service.DashboardService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.MyOrdersHandler"
		logger := log.With(slog.String("op", op))

		user, ok := principal(w, r, logger)
		if !ok {
			return
		}
		mine, err := svc.MyOrders(r.Context(), user.ID)
		if err != nil {
			writeServiceError(w, logger, err)
			return
		}
		writeJSON(w, logger, http.StatusOK, mine)
	}
}
