package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/linemk/print-shop/internal/domain/models"
)

// PrintOrderStorage описывает методы для работы с заказами на печать.
type PrintOrderStorage interface {
	CreatePrintOrder(ctx context.Context, order *models.PrintOrder) (*models.PrintOrder, error)
	GetPrintOrder(ctx context.Context, id int64) (*models.PrintOrder, error)
	// AssignVendorIfUnset назначает продавца, только если заказ ещё никому не назначен.
	AssignVendorIfUnset(ctx context.Context, id, vendorID int64) (bool, error)
	// ClaimPrintOrder - то же, но только для заказов в статусе pending.
	ClaimPrintOrder(ctx context.Context, id, vendorID int64) (bool, error)
	UpdatePrintOrderStatus(ctx context.Context, id, vendorID int64, status models.PrintStatus, scheduled *time.Time) error
	ListPrintOrdersByStudent(ctx context.Context, studentID int64) ([]*models.PrintOrder, error)
	ListPrintOrdersForVendor(ctx context.Context, vendorID int64) ([]*models.PrintOrder, error)
	StatsByStudent(ctx context.Context, studentID int64) (*models.PrintOrderStats, error)
	StatsByVendor(ctx context.Context, vendorID int64) (*models.PrintOrderStats, error)
}

type printOrderRepository struct {
	db *sql.DB
}

func NewPrintOrderRepository(db *sql.DB) PrintOrderStorage {
	return &printOrderRepository{db: db}
}

const printOrderColumns = "id, student_id, vendor_id, document, status, scheduled_time, created_at"

func scanPrintOrder(row rowScanner) (*models.PrintOrder, error) {
	order := &models.PrintOrder{}
	if err := row.Scan(&order.ID, &order.StudentID, &order.VendorID, &order.Document, &order.Status, &order.ScheduledTime, &order.CreatedAt); err != nil {
		return nil, err
	}
	return order, nil
}

func (r *printOrderRepository) CreatePrintOrder(ctx context.Context, order *models.PrintOrder) (*models.PrintOrder, error) {
	query := `INSERT INTO print_orders (student_id, vendor_id, document, status, scheduled_time)
	          VALUES ($1, $2, $3, 'pending', $4) RETURNING id, status, created_at`
	err := r.db.QueryRowContext(ctx, query, order.StudentID, order.VendorID, order.Document, order.ScheduledTime).
		Scan(&order.ID, &order.Status, &order.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("failed to create print order: %w", err)
	}
	return order, nil
}

func (r *printOrderRepository) GetPrintOrder(ctx context.Context, id int64) (*models.PrintOrder, error) {
	order, err := scanPrintOrder(r.db.QueryRowContext(ctx, "SELECT "+printOrderColumns+" FROM print_orders WHERE id = $1", id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrOrderNotFound
		}
		return nil, err
	}
	return order, nil
}

func (r *printOrderRepository) AssignVendorIfUnset(ctx context.Context, id, vendorID int64) (bool, error) {
	return r.conditionalAssign(ctx, "UPDATE print_orders SET vendor_id = $1 WHERE id = $2 AND vendor_id IS NULL", vendorID, id)
}

func (r *printOrderRepository) ClaimPrintOrder(ctx context.Context, id, vendorID int64) (bool, error) {
	return r.conditionalAssign(ctx, "UPDATE print_orders SET vendor_id = $1 WHERE id = $2 AND vendor_id IS NULL AND status = 'pending'", vendorID, id)
}

func (r *printOrderRepository) conditionalAssign(ctx context.Context, query string, vendorID, id int64) (bool, error) {
	res, err := r.db.ExecContext(ctx, query, vendorID, id)
	if err != nil {
		return false, fmt.Errorf("failed to assign vendor: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return affected == 1, nil
}

// UpdatePrintOrderStatus меняет статус; scheduled == nil оставляет время без изменений
func (r *printOrderRepository) UpdatePrintOrderStatus(ctx context.Context, id, vendorID int64, status models.PrintStatus, scheduled *time.Time) error {
	query := `UPDATE print_orders SET status = $1, scheduled_time = COALESCE($2, scheduled_time)
	          WHERE id = $3 AND vendor_id = $4`
	res, err := r.db.ExecContext(ctx, query, status, scheduled, id, vendorID)
	if err != nil {
		return fmt.Errorf("failed to update print order status: %w", err)
	}
	return expectOneRow(res, ErrOrderNotFound)
}

func (r *printOrderRepository) ListPrintOrdersByStudent(ctx context.Context, studentID int64) ([]*models.PrintOrder, error) {
	return r.list(ctx, "SELECT "+printOrderColumns+" FROM print_orders WHERE student_id = $1 ORDER BY created_at DESC", studentID)
}

// ListPrintOrdersForVendor - назначенные продавцу заказы и все свободные заказы в ожидании
func (r *printOrderRepository) ListPrintOrdersForVendor(ctx context.Context, vendorID int64) ([]*models.PrintOrder, error) {
	query := "SELECT " + printOrderColumns + ` FROM print_orders
		WHERE vendor_id = $1 OR (vendor_id IS NULL AND status = 'pending')
		ORDER BY created_at DESC`
	return r.list(ctx, query, vendorID)
}

func (r *printOrderRepository) list(ctx context.Context, query string, args ...any) ([]*models.PrintOrder, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query print orders: %w", err)
	}
	defer rows.Close()

	var orders []*models.PrintOrder
	for rows.Next() {
		order, err := scanPrintOrder(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan print order: %w", err)
		}
		orders = append(orders, order)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return orders, nil
}

const statsSelect = `SELECT COUNT(*),
	COUNT(*) FILTER (WHERE status = 'in_progress'),
	COUNT(*) FILTER (WHERE status = 'done')
	FROM print_orders`

func (r *printOrderRepository) StatsByStudent(ctx context.Context, studentID int64) (*models.PrintOrderStats, error) {
	return r.stats(ctx, statsSelect+" WHERE student_id = $1", studentID)
}

func (r *printOrderRepository) StatsByVendor(ctx context.Context, vendorID int64) (*models.PrintOrderStats, error) {
	return r.stats(ctx, statsSelect+" WHERE vendor_id = $1", vendorID)
}

func (r *printOrderRepository) stats(ctx context.Context, query string, id int64) (*models.PrintOrderStats, error) {
	stats := &models.PrintOrderStats{}
	if err := r.db.QueryRowContext(ctx, query, id).Scan(&stats.Total, &stats.InProgress, &stats.Completed); err != nil {
		return nil, fmt.Errorf("failed to count print orders: %w", err)
	}
	return stats, nil
}
