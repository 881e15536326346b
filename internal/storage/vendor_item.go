package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/linemk/print-shop/internal/domain/models"
)

// VendorItemStorage описывает методы для работы с товарами продавцов.
// Все изменяющие методы фильтруют по владельцу: чужой товар неотличим от несуществующего.
type VendorItemStorage interface {
	CreateVendorItem(ctx context.Context, item *models.VendorItem) (*models.VendorItem, error)
	GetActiveVendorItem(ctx context.Context, id int64) (*models.VendorItem, error)
	GetOwnedVendorItem(ctx context.Context, id, vendorID int64) (*models.VendorItem, error)
	UpdateVendorItem(ctx context.Context, item *models.VendorItem) error
	ToggleVendorItemStatus(ctx context.Context, id, vendorID int64) (models.ItemStatus, error)
	DeleteVendorItem(ctx context.Context, id, vendorID int64) error
	ListVendorItems(ctx context.Context) ([]*models.VendorItem, error)
	ListVendorItemsByVendor(ctx context.Context, vendorID int64) ([]*models.VendorItem, error)
}

type vendorItemRepository struct {
	db *sql.DB
}

func NewVendorItemRepository(db *sql.DB) VendorItemStorage {
	return &vendorItemRepository{db: db}
}

const vendorItemSelect = `SELECT i.id, i.vendor_id, i.category_id, COALESCE(c.name, ''), i.name, i.description, i.price, i.status, i.created_at
	FROM vendor_items i
	LEFT JOIN categories c ON i.category_id = c.id`

func scanVendorItem(row rowScanner) (*models.VendorItem, error) {
	item := &models.VendorItem{}
	err := row.Scan(&item.ID, &item.VendorID, &item.CategoryID, &item.CategoryName, &item.Name,
		&item.Description, &item.Price, &item.Status, &item.CreatedAt)
	if err != nil {
		return nil, err
	}
	return item, nil
}

func (r *vendorItemRepository) CreateVendorItem(ctx context.Context, item *models.VendorItem) (*models.VendorItem, error) {
	query := `INSERT INTO vendor_items (vendor_id, category_id, name, description, price, status)
	          VALUES ($1, $2, $3, $4, $5, $6) RETURNING id, created_at`
	err := r.db.QueryRowContext(ctx, query, item.VendorID, item.CategoryID, item.Name, item.Description, item.Price, item.Status).
		Scan(&item.ID, &item.CreatedAt)
	if err != nil {
		if isForeignKeyViolation(err) {
			return nil, ErrCategoryNotFound
		}
		return nil, fmt.Errorf("failed to create vendor item: %w", err)
	}
	return item, nil
}

func (r *vendorItemRepository) getOne(ctx context.Context, query string, args ...any) (*models.VendorItem, error) {
	item, err := scanVendorItem(r.db.QueryRowContext(ctx, query, args...))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrItemNotFound
		}
		return nil, err
	}
	return item, nil
}

// GetActiveVendorItem возвращает только активный товар, доступный для покупки
func (r *vendorItemRepository) GetActiveVendorItem(ctx context.Context, id int64) (*models.VendorItem, error) {
	return r.getOne(ctx, vendorItemSelect+" WHERE i.id = $1 AND i.status = 'active'", id)
}

func (r *vendorItemRepository) GetOwnedVendorItem(ctx context.Context, id, vendorID int64) (*models.VendorItem, error) {
	return r.getOne(ctx, vendorItemSelect+" WHERE i.id = $1 AND i.vendor_id = $2", id, vendorID)
}

func (r *vendorItemRepository) UpdateVendorItem(ctx context.Context, item *models.VendorItem) error {
	query := `UPDATE vendor_items SET category_id = $1, name = $2, description = $3, price = $4, status = $5
	          WHERE id = $6 AND vendor_id = $7`
	res, err := r.db.ExecContext(ctx, query, item.CategoryID, item.Name, item.Description, item.Price, item.Status, item.ID, item.VendorID)
	if err != nil {
		if isForeignKeyViolation(err) {
			return ErrCategoryNotFound
		}
		return fmt.Errorf("failed to update vendor item: %w", err)
	}
	return expectOneRow(res, ErrItemNotFound)
}

// ToggleVendorItemStatus переключает active↔inactive одним запросом
func (r *vendorItemRepository) ToggleVendorItemStatus(ctx context.Context, id, vendorID int64) (models.ItemStatus, error) {
	query := `UPDATE vendor_items
	          SET status = CASE WHEN status = 'active' THEN 'inactive' ELSE 'active' END
	          WHERE id = $1 AND vendor_id = $2
	          RETURNING status`
	var status models.ItemStatus
	if err := r.db.QueryRowContext(ctx, query, id, vendorID).Scan(&status); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return "", ErrItemNotFound
		}
		return "", fmt.Errorf("failed to toggle vendor item: %w", err)
	}
	return status, nil
}

func (r *vendorItemRepository) DeleteVendorItem(ctx context.Context, id, vendorID int64) error {
	res, err := r.db.ExecContext(ctx, "DELETE FROM vendor_items WHERE id = $1 AND vendor_id = $2", id, vendorID)
	if err != nil {
		return fmt.Errorf("failed to delete vendor item: %w", err)
	}
	return expectOneRow(res, ErrItemNotFound)
}

// ListVendorItems возвращает все товары независимо от статуса
func (r *vendorItemRepository) ListVendorItems(ctx context.Context) ([]*models.VendorItem, error) {
	return r.list(ctx, vendorItemSelect+" ORDER BY COALESCE(c.name, ''), i.created_at DESC")
}

func (r *vendorItemRepository) ListVendorItemsByVendor(ctx context.Context, vendorID int64) ([]*models.VendorItem, error) {
	return r.list(ctx, vendorItemSelect+" WHERE i.vendor_id = $1 ORDER BY i.created_at DESC", vendorID)
}

func (r *vendorItemRepository) list(ctx context.Context, query string, args ...any) ([]*models.VendorItem, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query vendor items: %w", err)
	}
	defer rows.Close()

	var items []*models.VendorItem
	for rows.Next() {
		item, err := scanVendorItem(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan vendor item: %w", err)
		}
		items = append(items, item)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}
