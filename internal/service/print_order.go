package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/linemk/print-shop/internal/domain/models"
	"github.com/linemk/print-shop/internal/lib/metrics"
	"github.com/linemk/print-shop/internal/storage"
)

// каталог для документов заказов на печать
const documentFolder = "orders"

// DocumentStore сохраняет загруженный файл и возвращает ссылку на него.
type DocumentStore interface {
	Save(folder, filename string, r io.Reader) (string, error)
}

type PrintOrderService interface {
	Create(ctx context.Context, studentID int64, in CreatePrintOrderInput) (*models.PrintOrder, error)
	ListForStudent(ctx context.Context, studentID int64) ([]*models.PrintOrder, error)
	ListForVendor(ctx context.Context, vendorID int64) ([]*models.PrintOrder, error)
	// View открывает заказ для продавца; свободный заказ при этом закрепляется за ним.
	View(ctx context.Context, vendorID, id int64) (*models.PrintOrder, error)
	UpdateStatus(ctx context.Context, vendorID, id int64, status string, scheduled *time.Time) error
	// Document возвращает заказ, документ которого может открыть пользователь.
	Document(ctx context.Context, user *models.User, id int64) (*models.PrintOrder, error)
}

type CreatePrintOrderInput struct {
	Filename      string
	Document      io.Reader
	VendorID      *int64
	ScheduledTime *time.Time
}

type printOrderService struct {
	log       *slog.Logger
	orders    storage.PrintOrderStorage
	users     storage.UserStorage
	documents DocumentStore
	picker    Picker
}

func NewPrintOrderService(log *slog.Logger, orders storage.PrintOrderStorage, users storage.UserStorage, documents DocumentStore, picker Picker) PrintOrderService {
	return &printOrderService{
		log:       log,
		orders:    orders,
		users:     users,
		documents: documents,
		picker:    picker,
	}
}

func (s *printOrderService) Create(ctx context.Context, studentID int64, in CreatePrintOrderInput) (*models.PrintOrder, error) {
	const op = "service.PrintOrderService.Create"
	logger := s.log.With(slog.String("op", op), slog.Int64("studentID", studentID))

	if in.Document == nil || in.Filename == "" {
		return nil, invalid("document is required")
	}

	// выбранный продавец должен существовать и быть одобрен
	if in.VendorID != nil {
		vendor, err := s.users.GetUserByID(ctx, *in.VendorID)
		if err != nil && !errors.Is(err, storage.ErrUserNotFound) {
			logger.Error("failed to get vendor", slog.Any("error", err))
			return nil, fmt.Errorf("%s: failed to get vendor: %w", op, err)
		}
		if vendor == nil || !vendor.IsApprovedVendor() {
			logger.Warn("chosen vendor is not an approved vendor", slog.Int64("vendorID", *in.VendorID))
			return nil, invalid("select a valid vendor")
		}
	}

	path, err := s.documents.Save(documentFolder, in.Filename, in.Document)
	if err != nil {
		logger.Error("failed to store document", slog.Any("error", err))
		return nil, fmt.Errorf("%s: failed to store document: %w", op, err)
	}

	order, err := s.orders.CreatePrintOrder(ctx, &models.PrintOrder{
		StudentID:     studentID,
		VendorID:      in.VendorID,
		Document:      path,
		ScheduledTime: in.ScheduledTime,
	})
	if err != nil {
		logger.Error("failed to create print order", slog.Any("error", err))
		return nil, fmt.Errorf("%s: failed to create print order: %w", op, err)
	}
	metrics.OrdersCreated.WithLabelValues("print").Inc()

	if order.VendorID == nil {
		if err := s.assignRandomVendor(ctx, order); err != nil {
			logger.Error("failed to assign vendor", slog.Int64("orderID", order.ID), slog.Any("error", err))
			return nil, fmt.Errorf("%s: %w", op, err)
		}
	}

	logger.Info("print order created", slog.Int64("orderID", order.ID))
	return order, nil
}

// assignRandomVendor выбирает продавца среди одобренных; без продавцов заказ остаётся свободным
func (s *printOrderService) assignRandomVendor(ctx context.Context, order *models.PrintOrder) error {
	vendors, err := s.users.ListApprovedVendors(ctx)
	if err != nil {
		return fmt.Errorf("failed to list vendors: %w", err)
	}
	if len(vendors) == 0 {
		return nil
	}

	vendor := vendors[s.picker.Pick(len(vendors))]
	assigned, err := s.orders.AssignVendorIfUnset(ctx, order.ID, vendor.ID)
	if err != nil {
		return err
	}
	if assigned {
		order.VendorID = &vendor.ID
	}
	return nil
}

func (s *printOrderService) ListForStudent(ctx context.Context, studentID int64) ([]*models.PrintOrder, error) {
	const op = "service.PrintOrderService.ListForStudent"

	orders, err := s.orders.ListPrintOrdersByStudent(ctx, studentID)
	if err != nil {
		s.log.Error("failed to list print orders", slog.String("op", op), slog.Any("error", err))
		return nil, wrap(op, err)
	}
	return orders, nil
}

func (s *printOrderService) ListForVendor(ctx context.Context, vendorID int64) ([]*models.PrintOrder, error) {
	const op = "service.PrintOrderService.ListForVendor"

	orders, err := s.orders.ListPrintOrdersForVendor(ctx, vendorID)
	if err != nil {
		s.log.Error("failed to list print orders", slog.String("op", op), slog.Any("error", err))
		return nil, wrap(op, err)
	}
	return orders, nil
}

func (s *printOrderService) View(ctx context.Context, vendorID, id int64) (*models.PrintOrder, error) {
	const op = "service.PrintOrderService.View"
	logger := s.log.With(slog.String("op", op), slog.Int64("vendorID", vendorID), slog.Int64("orderID", id))

	order, err := s.orders.GetPrintOrder(ctx, id)
	if err != nil {
		return nil, wrap(op, err)
	}

	if order.Unassigned() {
		claimed, err := s.orders.ClaimPrintOrder(ctx, id, vendorID)
		if err != nil {
			logger.Error("failed to claim print order", slog.Any("error", err))
			return nil, wrap(op, err)
		}
		if claimed {
			logger.Info("print order claimed")
			order.VendorID = &vendorID
			return order, nil
		}
		// заказ успел забрать другой продавец
		if order, err = s.orders.GetPrintOrder(ctx, id); err != nil {
			return nil, wrap(op, err)
		}
	}

	if order.VendorID == nil || *order.VendorID != vendorID {
		return nil, fmt.Errorf("%s: %w", op, ErrNotFound)
	}
	return order, nil
}

// UpdateStatus меняет статус заказа; значение вне допустимого набора молча игнорируется
func (s *printOrderService) UpdateStatus(ctx context.Context, vendorID, id int64, status string, scheduled *time.Time) error {
	const op = "service.PrintOrderService.UpdateStatus"
	logger := s.log.With(slog.String("op", op), slog.Int64("vendorID", vendorID), slog.Int64("orderID", id))

	order, err := s.orders.GetPrintOrder(ctx, id)
	if err != nil {
		return wrap(op, err)
	}
	if order.VendorID == nil || *order.VendorID != vendorID {
		logger.Warn("vendor is not assigned to the order")
		return fmt.Errorf("%s: %w", op, ErrForbidden)
	}

	next := models.PrintStatus(status)
	if !next.Valid() {
		logger.Warn("ignoring unknown status", slog.String("status", status))
		return nil
	}

	if err := s.orders.UpdatePrintOrderStatus(ctx, id, vendorID, next, scheduled); err != nil {
		logger.Error("failed to update status", slog.Any("error", err))
		return wrap(op, err)
	}

	logger.Info("print order status updated", slog.String("status", status))
	return nil
}

// Document: студенту доступны свои заказы, продавцу назначенные ему и свободные.
// Заказ за продавцом при этом не закрепляется.
func (s *printOrderService) Document(ctx context.Context, user *models.User, id int64) (*models.PrintOrder, error) {
	const op = "service.PrintOrderService.Document"

	order, err := s.orders.GetPrintOrder(ctx, id)
	if err != nil {
		return nil, wrap(op, err)
	}

	switch {
	case user.Role == models.RoleStudent && order.StudentID == user.ID:
		return order, nil
	case user.IsApprovedVendor() && (order.Unassigned() || (order.VendorID != nil && *order.VendorID == user.ID)):
		return order, nil
	}

	s.log.Warn("document requested by a non-owner", slog.String("op", op), slog.Int64("userID", user.ID), slog.Int64("orderID", id))
	return nil, fmt.Errorf("%s: %w", op, ErrNotFound)
}
