package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/linemk/print-shop/internal/domain/models"
	"github.com/linemk/print-shop/internal/storage"
	"github.com/shopspring/decimal"
)

type CatalogService interface {
	CreateVendorItem(ctx context.Context, vendorID int64, in VendorItemInput) (*models.VendorItem, error)
	GetVendorItem(ctx context.Context, vendorID, id int64) (*models.VendorItem, error)
	UpdateVendorItem(ctx context.Context, vendorID, id int64, in VendorItemInput) (*models.VendorItem, error)
	ToggleVendorItem(ctx context.Context, vendorID, id int64) (models.ItemStatus, error)
	DeleteVendorItem(ctx context.Context, vendorID, id int64) error
	MyStore(ctx context.Context, vendorID int64) ([]*models.VendorItem, error)
	Shop(ctx context.Context) ([]CategoryGroup, error)
	ListCategories(ctx context.Context) ([]*models.Category, error)
}

type VendorItemInput struct {
	CategoryID  *int64
	Name        string
	Description string
	Price       decimal.Decimal
	Status      models.ItemStatus
}

// CategoryGroup - товары одной категории; без категории Category пустая
type CategoryGroup struct {
	Category string               `json:"category"`
	Items    []*models.VendorItem `json:"items"`
}

type catalogService struct {
	log        *slog.Logger
	items      storage.VendorItemStorage
	categories storage.CategoryStorage
}

func NewCatalogService(log *slog.Logger, items storage.VendorItemStorage, categories storage.CategoryStorage) CatalogService {
	return &catalogService{
		log:        log,
		items:      items,
		categories: categories,
	}
}

func validateItem(name string, price decimal.Decimal) error {
	if strings.TrimSpace(name) == "" {
		return invalid("name is required")
	}
	if price.IsNegative() {
		return invalid("price must not be negative")
	}
	return nil
}

func (in *VendorItemInput) validate() error {
	if err := validateItem(in.Name, in.Price); err != nil {
		return err
	}
	if in.Status == "" {
		in.Status = models.ItemInactive
	}
	if !in.Status.Valid() {
		return invalid("unknown status %q", in.Status)
	}
	return nil
}

func (s *catalogService) CreateVendorItem(ctx context.Context, vendorID int64, in VendorItemInput) (*models.VendorItem, error) {
	const op = "service.CatalogService.CreateVendorItem"
	logger := s.log.With(slog.String("op", op), slog.Int64("vendorID", vendorID))

	if err := in.validate(); err != nil {
		return nil, err
	}

	item, err := s.items.CreateVendorItem(ctx, &models.VendorItem{
		VendorID:    vendorID,
		CategoryID:  in.CategoryID,
		Name:        strings.TrimSpace(in.Name),
		Description: in.Description,
		Price:       in.Price,
		Status:      in.Status,
	})
	if err != nil {
		if errors.Is(err, storage.ErrCategoryNotFound) {
			return nil, invalid("category does not exist")
		}
		logger.Error("failed to create item", slog.Any("error", err))
		return nil, wrap(op, err)
	}

	logger.Info("vendor item created", slog.Int64("itemID", item.ID))
	return item, nil
}

func (s *catalogService) GetVendorItem(ctx context.Context, vendorID, id int64) (*models.VendorItem, error) {
	const op = "service.CatalogService.GetVendorItem"

	item, err := s.items.GetOwnedVendorItem(ctx, id, vendorID)
	if err != nil {
		return nil, wrap(op, err)
	}
	return item, nil
}

func (s *catalogService) UpdateVendorItem(ctx context.Context, vendorID, id int64, in VendorItemInput) (*models.VendorItem, error) {
	const op = "service.CatalogService.UpdateVendorItem"
	logger := s.log.With(slog.String("op", op), slog.Int64("vendorID", vendorID), slog.Int64("itemID", id))

	if err := in.validate(); err != nil {
		return nil, err
	}

	item := &models.VendorItem{
		ID:          id,
		VendorID:    vendorID,
		CategoryID:  in.CategoryID,
		Name:        strings.TrimSpace(in.Name),
		Description: in.Description,
		Price:       in.Price,
		Status:      in.Status,
	}
	if err := s.items.UpdateVendorItem(ctx, item); err != nil {
		if errors.Is(err, storage.ErrCategoryNotFound) {
			return nil, invalid("category does not exist")
		}
		if !errors.Is(err, storage.ErrItemNotFound) {
			logger.Error("failed to update item", slog.Any("error", err))
		}
		return nil, wrap(op, err)
	}

	logger.Info("vendor item updated")
	return s.GetVendorItem(ctx, vendorID, id)
}

func (s *catalogService) ToggleVendorItem(ctx context.Context, vendorID, id int64) (models.ItemStatus, error) {
	const op = "service.CatalogService.ToggleVendorItem"

	status, err := s.items.ToggleVendorItemStatus(ctx, id, vendorID)
	if err != nil {
		return "", wrap(op, err)
	}
	s.log.Info("vendor item toggled", slog.String("op", op), slog.Int64("itemID", id), slog.String("status", string(status)))
	return status, nil
}

func (s *catalogService) DeleteVendorItem(ctx context.Context, vendorID, id int64) error {
	const op = "service.CatalogService.DeleteVendorItem"

	if err := s.items.DeleteVendorItem(ctx, id, vendorID); err != nil {
		return wrap(op, err)
	}
	s.log.Info("vendor item deleted", slog.String("op", op), slog.Int64("itemID", id))
	return nil
}

func (s *catalogService) MyStore(ctx context.Context, vendorID int64) ([]*models.VendorItem, error) {
	const op = "service.CatalogService.MyStore"

	items, err := s.items.ListVendorItemsByVendor(ctx, vendorID)
	if err != nil {
		s.log.Error("failed to list items", slog.String("op", op), slog.Any("error", err))
		return nil, wrap(op, err)
	}
	return items, nil
}

// Shop группирует все товары продавцов по категориям в порядке выдачи хранилища
func (s *catalogService) Shop(ctx context.Context) ([]CategoryGroup, error) {
	const op = "service.CatalogService.Shop"

	items, err := s.items.ListVendorItems(ctx)
	if err != nil {
		s.log.Error("failed to list items", slog.String("op", op), slog.Any("error", err))
		return nil, wrap(op, err)
	}

	groups := []CategoryGroup{}
	index := make(map[string]int)
	for _, item := range items {
		i, ok := index[item.CategoryName]
		if !ok {
			i = len(groups)
			index[item.CategoryName] = i
			groups = append(groups, CategoryGroup{Category: item.CategoryName})
		}
		groups[i].Items = append(groups[i].Items, item)
	}
	return groups, nil
}

func (s *catalogService) ListCategories(ctx context.Context) ([]*models.Category, error) {
	const op = "service.CatalogService.ListCategories"

	categories, err := s.categories.ListCategories(ctx)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return categories, nil
}
