package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/linemk/print-shop/internal/domain/models"
)

// ShopOrderStorage описывает методы для работы с заказами в магазине.
// Заказ ссылается либо на товар продавца, либо на товар студента (поле source).
type ShopOrderStorage interface {
	// CreateShopOrder вставляет заказ; tx может быть nil.
	CreateShopOrder(ctx context.Context, tx *sql.Tx, order *models.ShopOrder) (*models.ShopOrder, error)
	GetShopOrder(ctx context.Context, id int64) (*models.ShopOrder, error)
	GetBuyerShopOrder(ctx context.Context, id, buyerID int64) (*models.ShopOrder, error)
	ListShopOrdersByBuyer(ctx context.Context, buyerID int64) ([]*models.ShopOrder, error)
	ListShopOrdersBySeller(ctx context.Context, source models.ItemSource, sellerID int64) ([]*models.ShopOrder, error)
	UpdateShopOrderStatus(ctx context.Context, id int64, status models.OrderStatus) error
	// CancelBuyerShopOrder отменяет заказ покупателя, если он ещё не завершён.
	CancelBuyerShopOrder(ctx context.Context, id, buyerID int64) error
	SetDeliveryDetails(ctx context.Context, id, buyerID int64, details string) error
	SetSessionID(ctx context.Context, id, buyerID int64, sessionID string) error
	MarkPaid(ctx context.Context, id int64) error
	// RegisterCheckoutSession отмечает сессию оплаты как обработанную; false - сессия уже была.
	RegisterCheckoutSession(ctx context.Context, tx *sql.Tx, sessionID string, buyerID int64) (bool, error)
}

type shopOrderRepository struct {
	db *sql.DB
}

func NewShopOrderRepository(db *sql.DB) ShopOrderStorage {
	return &shopOrderRepository{db: db}
}

func (r *shopOrderRepository) conn(tx *sql.Tx) querier {
	if tx != nil {
		return tx
	}
	return r.db
}

const shopOrderSelect = `SELECT o.id, o.buyer_id, o.source, COALESCE(o.vendor_item_id, o.peer_item_id),
	COALESCE(vi.name, pi.name), COALESCE(vi.price, pi.price), COALESCE(vi.vendor_id, pi.student_id),
	o.quantity, o.status, o.payment_status, o.delivery_details, o.session_id, o.created_at
	FROM shop_orders o
	LEFT JOIN vendor_items vi ON o.vendor_item_id = vi.id
	LEFT JOIN peer_items pi ON o.peer_item_id = pi.id`

func scanShopOrder(row rowScanner) (*models.ShopOrder, error) {
	o := &models.ShopOrder{}
	err := row.Scan(&o.ID, &o.BuyerID, &o.Source, &o.ItemID, &o.ItemName, &o.UnitPrice, &o.SellerID,
		&o.Quantity, &o.Status, &o.PaymentStatus, &o.DeliveryDetails, &o.SessionID, &o.CreatedAt)
	if err != nil {
		return nil, err
	}
	return o, nil
}

func (r *shopOrderRepository) CreateShopOrder(ctx context.Context, tx *sql.Tx, order *models.ShopOrder) (*models.ShopOrder, error) {
	var vendorItemID, peerItemID *int64
	switch order.Source {
	case models.SourceVendor:
		vendorItemID = &order.ItemID
	case models.SourcePeer:
		peerItemID = &order.ItemID
	default:
		return nil, fmt.Errorf("unknown item source %q", order.Source)
	}

	query := `INSERT INTO shop_orders (buyer_id, source, vendor_item_id, peer_item_id, quantity, status, payment_status, delivery_details, session_id)
	          VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9) RETURNING id, created_at`
	err := r.conn(tx).QueryRowContext(ctx, query,
		order.BuyerID, order.Source, vendorItemID, peerItemID, order.Quantity,
		order.Status, order.PaymentStatus, order.DeliveryDetails, order.SessionID,
	).Scan(&order.ID, &order.CreatedAt)
	if err != nil {
		if isForeignKeyViolation(err) {
			return nil, ErrItemNotFound
		}
		return nil, fmt.Errorf("failed to create shop order: %w", err)
	}
	return order, nil
}

func (r *shopOrderRepository) getOne(ctx context.Context, query string, args ...any) (*models.ShopOrder, error) {
	order, err := scanShopOrder(r.db.QueryRowContext(ctx, query, args...))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrOrderNotFound
		}
		return nil, err
	}
	return order, nil
}

func (r *shopOrderRepository) GetShopOrder(ctx context.Context, id int64) (*models.ShopOrder, error) {
	return r.getOne(ctx, shopOrderSelect+" WHERE o.id = $1", id)
}

func (r *shopOrderRepository) GetBuyerShopOrder(ctx context.Context, id, buyerID int64) (*models.ShopOrder, error) {
	return r.getOne(ctx, shopOrderSelect+" WHERE o.id = $1 AND o.buyer_id = $2", id, buyerID)
}

func (r *shopOrderRepository) ListShopOrdersByBuyer(ctx context.Context, buyerID int64) ([]*models.ShopOrder, error) {
	return r.list(ctx, shopOrderSelect+" WHERE o.buyer_id = $1 ORDER BY o.created_at DESC", buyerID)
}

// ListShopOrdersBySeller - заказы на товары, которыми владеет продавец или студент
func (r *shopOrderRepository) ListShopOrdersBySeller(ctx context.Context, source models.ItemSource, sellerID int64) ([]*models.ShopOrder, error) {
	var query string
	switch source {
	case models.SourceVendor:
		query = shopOrderSelect + " WHERE o.source = 'vendor' AND vi.vendor_id = $1 ORDER BY o.created_at DESC"
	case models.SourcePeer:
		query = shopOrderSelect + " WHERE o.source = 'peer' AND pi.student_id = $1 ORDER BY o.created_at DESC"
	default:
		return nil, fmt.Errorf("unknown item source %q", source)
	}
	return r.list(ctx, query, sellerID)
}

func (r *shopOrderRepository) list(ctx context.Context, query string, args ...any) ([]*models.ShopOrder, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query shop orders: %w", err)
	}
	defer rows.Close()

	var orders []*models.ShopOrder
	for rows.Next() {
		order, err := scanShopOrder(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan shop order: %w", err)
		}
		orders = append(orders, order)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return orders, nil
}

func (r *shopOrderRepository) UpdateShopOrderStatus(ctx context.Context, id int64, status models.OrderStatus) error {
	res, err := r.db.ExecContext(ctx, "UPDATE shop_orders SET status = $1 WHERE id = $2", status, id)
	if err != nil {
		return fmt.Errorf("failed to update shop order status: %w", err)
	}
	return expectOneRow(res, ErrOrderNotFound)
}

func (r *shopOrderRepository) CancelBuyerShopOrder(ctx context.Context, id, buyerID int64) error {
	res, err := r.db.ExecContext(ctx,
		"UPDATE shop_orders SET status = 'canceled' WHERE id = $1 AND buyer_id = $2 AND status NOT IN ('done', 'canceled')",
		id, buyerID,
	)
	if err != nil {
		return fmt.Errorf("failed to cancel shop order: %w", err)
	}
	return expectOneRow(res, ErrOrderNotFound)
}

func (r *shopOrderRepository) SetDeliveryDetails(ctx context.Context, id, buyerID int64, details string) error {
	res, err := r.db.ExecContext(ctx, "UPDATE shop_orders SET delivery_details = $1 WHERE id = $2 AND buyer_id = $3", details, id, buyerID)
	if err != nil {
		return fmt.Errorf("failed to set delivery details: %w", err)
	}
	return expectOneRow(res, ErrOrderNotFound)
}

func (r *shopOrderRepository) SetSessionID(ctx context.Context, id, buyerID int64, sessionID string) error {
	res, err := r.db.ExecContext(ctx, "UPDATE shop_orders SET session_id = $1 WHERE id = $2 AND buyer_id = $3", sessionID, id, buyerID)
	if err != nil {
		return fmt.Errorf("failed to set session id: %w", err)
	}
	return expectOneRow(res, ErrOrderNotFound)
}

func (r *shopOrderRepository) MarkPaid(ctx context.Context, id int64) error {
	res, err := r.db.ExecContext(ctx, "UPDATE shop_orders SET payment_status = 'paid' WHERE id = $1", id)
	if err != nil {
		return fmt.Errorf("failed to mark order paid: %w", err)
	}
	return expectOneRow(res, ErrOrderNotFound)
}

func (r *shopOrderRepository) RegisterCheckoutSession(ctx context.Context, tx *sql.Tx, sessionID string, buyerID int64) (bool, error) {
	res, err := r.conn(tx).ExecContext(ctx,
		"INSERT INTO checkout_sessions (session_id, buyer_id) VALUES ($1, $2) ON CONFLICT (session_id) DO NOTHING",
		sessionID, buyerID,
	)
	if err != nil {
		return false, fmt.Errorf("failed to register checkout session: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return affected == 1, nil
}
