package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/linemk/print-shop/internal/domain/models"
)

// PeerItemStorage описывает методы для работы с товарами, выставленными студентами.
type PeerItemStorage interface {
	CreatePeerItem(ctx context.Context, item *models.PeerItem) (*models.PeerItem, error)
	GetActivePeerItem(ctx context.Context, id int64) (*models.PeerItem, error)
	ListPeerItemsByStatus(ctx context.Context, status models.ItemStatus) ([]*models.PeerItem, error)
	ListPeerItemsByStudent(ctx context.Context, studentID int64) ([]*models.PeerItem, error)
	// ApprovePeerItem активирует неактивный товар и запоминает одобрившего продавца.
	ApprovePeerItem(ctx context.Context, id, vendorID int64) error
	DeletePeerItem(ctx context.Context, id, studentID int64) error
}

type peerItemRepository struct {
	db *sql.DB
}

func NewPeerItemRepository(db *sql.DB) PeerItemStorage {
	return &peerItemRepository{db: db}
}

const peerItemSelect = `SELECT i.id, i.student_id, i.approved_by, i.category_id, COALESCE(c.name, ''), i.name, i.description, i.price, i.status, i.created_at
	FROM peer_items i
	LEFT JOIN categories c ON i.category_id = c.id`

func scanPeerItem(row rowScanner) (*models.PeerItem, error) {
	item := &models.PeerItem{}
	err := row.Scan(&item.ID, &item.StudentID, &item.ApprovedBy, &item.CategoryID, &item.CategoryName, &item.Name,
		&item.Description, &item.Price, &item.Status, &item.CreatedAt)
	if err != nil {
		return nil, err
	}
	return item, nil
}

// CreatePeerItem всегда создаёт товар неактивным
func (r *peerItemRepository) CreatePeerItem(ctx context.Context, item *models.PeerItem) (*models.PeerItem, error) {
	query := `INSERT INTO peer_items (student_id, category_id, name, description, price, status)
	          VALUES ($1, $2, $3, $4, $5, 'inactive') RETURNING id, status, created_at`
	err := r.db.QueryRowContext(ctx, query, item.StudentID, item.CategoryID, item.Name, item.Description, item.Price).
		Scan(&item.ID, &item.Status, &item.CreatedAt)
	if err != nil {
		if isForeignKeyViolation(err) {
			return nil, ErrCategoryNotFound
		}
		return nil, fmt.Errorf("failed to create peer item: %w", err)
	}
	return item, nil
}

func (r *peerItemRepository) GetActivePeerItem(ctx context.Context, id int64) (*models.PeerItem, error) {
	item, err := scanPeerItem(r.db.QueryRowContext(ctx, peerItemSelect+" WHERE i.id = $1 AND i.status = 'active'", id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrItemNotFound
		}
		return nil, err
	}
	return item, nil
}

func (r *peerItemRepository) ListPeerItemsByStatus(ctx context.Context, status models.ItemStatus) ([]*models.PeerItem, error) {
	return r.list(ctx, peerItemSelect+" WHERE i.status = $1 ORDER BY i.created_at DESC", status)
}

func (r *peerItemRepository) ListPeerItemsByStudent(ctx context.Context, studentID int64) ([]*models.PeerItem, error) {
	return r.list(ctx, peerItemSelect+" WHERE i.student_id = $1 ORDER BY i.created_at DESC", studentID)
}

func (r *peerItemRepository) ApprovePeerItem(ctx context.Context, id, vendorID int64) error {
	res, err := r.db.ExecContext(ctx,
		"UPDATE peer_items SET status = 'active', approved_by = $2 WHERE id = $1 AND status = 'inactive'",
		id, vendorID,
	)
	if err != nil {
		return fmt.Errorf("failed to approve peer item: %w", err)
	}
	return expectOneRow(res, ErrItemNotFound)
}

func (r *peerItemRepository) DeletePeerItem(ctx context.Context, id, studentID int64) error {
	res, err := r.db.ExecContext(ctx, "DELETE FROM peer_items WHERE id = $1 AND student_id = $2", id, studentID)
	if err != nil {
		return fmt.Errorf("failed to delete peer item: %w", err)
	}
	return expectOneRow(res, ErrItemNotFound)
}

func (r *peerItemRepository) list(ctx context.Context, query string, args ...any) ([]*models.PeerItem, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query peer items: %w", err)
	}
	defer rows.Close()

	var items []*models.PeerItem
	for rows.Next() {
		item, err := scanPeerItem(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan peer item: %w", err)
		}
		items = append(items, item)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}
