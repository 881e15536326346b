package service

import (
	"context"
	"log/slog"
	"strings"

	"github.com/linemk/print-shop/internal/domain/models"
	"github.com/linemk/print-shop/internal/storage"
)

// AdminService - действия администратора платформы
type AdminService interface {
	PendingVendors(ctx context.Context) ([]*models.User, error)
	ApproveVendor(ctx context.Context, id int64) error
	// RejectVendor удаляет заявку продавца.
	RejectVendor(ctx context.Context, id int64) error
	CreateCategory(ctx context.Context, name string) (*models.Category, error)
	DeleteCategory(ctx context.Context, id int64) error
}

type adminService struct {
	log        *slog.Logger
	users      storage.UserStorage
	categories storage.CategoryStorage
}

func NewAdminService(log *slog.Logger, users storage.UserStorage, categories storage.CategoryStorage) AdminService {
	return &adminService{
		log:        log,
		users:      users,
		categories: categories,
	}
}

func (s *adminService) PendingVendors(ctx context.Context) ([]*models.User, error) {
	const op = "service.AdminService.PendingVendors"

	vendors, err := s.users.ListPendingVendors(ctx)
	if err != nil {
		s.log.Error("failed to list pending vendors", slog.String("op", op), slog.Any("error", err))
		return nil, wrap(op, err)
	}
	return vendors, nil
}

func (s *adminService) ApproveVendor(ctx context.Context, id int64) error {
	const op = "service.AdminService.ApproveVendor"

	if err := s.users.ApproveVendor(ctx, id); err != nil {
		return wrap(op, err)
	}
	s.log.Info("vendor approved", slog.String("op", op), slog.Int64("vendorID", id))
	return nil
}

func (s *adminService) RejectVendor(ctx context.Context, id int64) error {
	const op = "service.AdminService.RejectVendor"

	if err := s.users.DeletePendingVendor(ctx, id); err != nil {
		return wrap(op, err)
	}
	s.log.Info("vendor rejected", slog.String("op", op), slog.Int64("vendorID", id))
	return nil
}

func (s *adminService) CreateCategory(ctx context.Context, name string) (*models.Category, error) {
	const op = "service.AdminService.CreateCategory"

	name = strings.TrimSpace(name)
	if name == "" {
		return nil, invalid("category name is required")
	}

	category, err := s.categories.CreateCategory(ctx, name)
	if err != nil {
		return nil, wrap(op, err)
	}
	s.log.Info("category created", slog.String("op", op), slog.String("name", name))
	return category, nil
}

func (s *adminService) DeleteCategory(ctx context.Context, id int64) error {
	const op = "service.AdminService.DeleteCategory"

	if err := s.categories.DeleteCategory(ctx, id); err != nil {
		return wrap(op, err)
	}
	s.log.Info("category deleted", slog.String("op", op), slog.Int64("categoryID", id))
	return nil
}
