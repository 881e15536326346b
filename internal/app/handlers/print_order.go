package handlers

import (
	"errors"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/linemk/print-shop/internal/service"
)

// форма datetime-local браузера
const datetimeLocal = "2006-01-02T15:04"

// VendorPrintOrdersPath - список заказов продавца, куда возвращает смена статуса
const VendorPrintOrdersPath = "/vendor/print-orders"

// PrintStatusRequest - смена статуса; scheduled_time необязателен
type PrintStatusRequest struct {
	Status        string `json:"status"`
	ScheduledTime string `json:"scheduled_time"`
}

func parseScheduled(raw string) (*time.Time, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, nil
	}
	if t, err := time.Parse(time.RFC3339, raw); err == nil {
		return &t, nil
	}
	t, err := time.ParseInLocation(datetimeLocal, raw, time.Local)
	if err != nil {
		return nil, err
	}
	return &t, nil
}

// CreatePrintOrderHandler принимает multipart-форму: document, vendor_id, scheduled_time
func CreatePrintOrderHandler(log *slog.Logger, svc service.PrintOrderService, maxUploadBytes int64) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.CreatePrintOrderHandler"
		logger := log.With(slog.String("op", op))

		user, ok := principal(w, r, logger)
		if !ok {
			return
		}

		r.Body = http.MaxBytesReader(w, r.Body, maxUploadBytes)
		if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
			logger.Error("invalid multipart form", slog.Any("error", err))
			http.Error(w, "invalid upload", http.StatusBadRequest)
			return
		}

		file, header, err := r.FormFile("document")
		if err != nil {
			http.Error(w, "document is required", http.StatusBadRequest)
			return
		}
		defer file.Close()

		in := service.CreatePrintOrderInput{Filename: header.Filename, Document: file}
		if raw := r.FormValue("vendor_id"); raw != "" {
			id, err := strconv.ParseInt(raw, 10, 64)
			if err != nil {
				http.Error(w, "select a valid vendor", http.StatusBadRequest)
				return
			}
			in.VendorID = &id
		}
		if in.ScheduledTime, err = parseScheduled(r.FormValue("scheduled_time")); err != nil {
			http.Error(w, "invalid scheduled_time", http.StatusBadRequest)
			return
		}

		order, err := svc.Create(r.Context(), user.ID, in)
		if err != nil {
			writeServiceError(w, logger, err)
			return
		}
		writeJSON(w, logger, http.StatusCreated, order)
	}
}

func StudentPrintOrdersHandler(log *slog.Logger, svc service.PrintOrderService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.StudentPrintOrdersHandler"
		logger := log.With(slog.String("op", op))

		user, ok := principal(w, r, logger)
		if !ok {
			return
		}
		orders, err := svc.ListForStudent(r.Context(), user.ID)
		if err != nil {
			writeServiceError(w, logger, err)
			return
		}
		writeJSON(w, logger, http.StatusOK, orders)
	}
}

func VendorPrintOrdersHandler(log *slog.Logger, svc service.PrintOrderService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.VendorPrintOrdersHandler"
		logger := log.With(slog.String("op", op))

		user, ok := principal(w, r, logger)
		if !ok {
			return
		}
		orders, err := svc.ListForVendor(r.Context(), user.ID)
		if err != nil {
			writeServiceError(w, logger, err)
			return
		}
		writeJSON(w, logger, http.StatusOK, orders)
	}
}

// ViewPrintOrderHandler открывает заказ; свободный заказ закрепляется за продавцом
func ViewPrintOrderHandler(log *slog.Logger, svc service.PrintOrderService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.ViewPrintOrderHandler"
		logger := log.With(slog.String("op", op))

		user, ok := principal(w, r, logger)
		if !ok {
			return
		}
		id, ok := idParam(w, r, logger, "id")
		if !ok {
			return
		}
		order, err := svc.View(r.Context(), user.ID, id)
		if err != nil {
			writeServiceError(w, logger, err)
			return
		}
		writeJSON(w, logger, http.StatusOK, order)
	}
}

// UpdatePrintStatusHandler после смены статуса возвращает к списку заказов продавца
func UpdatePrintStatusHandler(log *slog.Logger, svc service.PrintOrderService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.UpdatePrintStatusHandler"
		logger := log.With(slog.String("op", op))

		user, ok := principal(w, r, logger)
		if !ok {
			return
		}
		id, ok := idParam(w, r, logger, "id")
		if !ok {
			return
		}
		var req PrintStatusRequest
		if !decodeJSON(w, r, logger, &req) {
			return
		}
		scheduled, err := parseScheduled(req.ScheduledTime)
		if err != nil {
			http.Error(w, "invalid scheduled_time", http.StatusBadRequest)
			return
		}

		if err := svc.UpdateStatus(r.Context(), user.ID, id, req.Status, scheduled); err != nil {
			writeServiceError(w, logger, err)
			return
		}
		http.Redirect(w, r, VendorPrintOrdersPath, http.StatusSeeOther)
	}
}

// DocumentOpener отдаёт сохранённый документ по относительному пути
type DocumentOpener interface {
	Open(rel string) (*os.File, error)
}

// DocumentHandler отдаёт документ заказа {id}; владелец заказа определяется сервисом
func DocumentHandler(log *slog.Logger, svc service.PrintOrderService, docs DocumentOpener) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.DocumentHandler"
		logger := log.With(slog.String("op", op))

		user, ok := principal(w, r, logger)
		if !ok {
			return
		}
		id, ok := idParam(w, r, logger, "id")
		if !ok {
			return
		}

		order, err := svc.Document(r.Context(), user, id)
		if err != nil {
			writeServiceError(w, logger, err)
			return
		}

		f, err := docs.Open(order.Document)
		if err != nil {
			if !errors.Is(err, os.ErrNotExist) {
				logger.Error("failed to open document", slog.String("path", order.Document), slog.Any("error", err))
			}
			http.Error(w, "not found", http.StatusNotFound)
			return
		}
		defer f.Close()

		info, err := f.Stat()
		if err != nil || info.IsDir() {
			http.Error(w, "not found", http.StatusNotFound)
			return
		}
		http.ServeContent(w, r, filepath.Base(order.Document), info.ModTime(), f)
	}
}
