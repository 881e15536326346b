package storage

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/linemk/print-shop/internal/domain/models"
)

// CartStorage описывает методы для работы с корзиной студента.
type CartStorage interface {
	// GetOrCreateCart возвращает корзину пользователя вместе с позициями, создавая её при необходимости.
	GetOrCreateCart(ctx context.Context, userID int64) (*models.Cart, error)
	// AddItem создаёт позицию или атомарно увеличивает её количество на единицу.
	AddItem(ctx context.Context, userID, itemID int64) (*models.CartLine, error)
	RemoveLine(ctx context.Context, lineID, userID int64) error
	// LockCartLines читает позиции корзины внутри транзакции с блокировкой строк.
	LockCartLines(ctx context.Context, tx *sql.Tx, userID int64) ([]models.CartLine, error)
	// DeleteCart удаляет корзину вместе со всеми позициями.
	DeleteCart(ctx context.Context, tx *sql.Tx, userID int64) error
}

type cartRepository struct {
	db *sql.DB
}

func NewCartRepository(db *sql.DB) CartStorage {
	return &cartRepository{db: db}
}

const cartLinesSelect = `SELECT ci.id, ci.cart_id, ci.item_id, i.name, i.price, ci.quantity
	FROM cart_items ci
	JOIN carts c ON ci.cart_id = c.id
	JOIN vendor_items i ON ci.item_id = i.id
	WHERE c.user_id = $1
	ORDER BY ci.id`

func (r *cartRepository) GetOrCreateCart(ctx context.Context, userID int64) (*models.Cart, error) {
	cart := &models.Cart{UserID: userID}
	query := `INSERT INTO carts (user_id) VALUES ($1)
	          ON CONFLICT (user_id) DO UPDATE SET user_id = EXCLUDED.user_id
	          RETURNING id, created_at`
	if err := r.db.QueryRowContext(ctx, query, userID).Scan(&cart.ID, &cart.CreatedAt); err != nil {
		return nil, fmt.Errorf("failed to get or create cart: %w", err)
	}

	lines, err := r.lines(ctx, r.db, cartLinesSelect, userID)
	if err != nil {
		return nil, err
	}
	cart.Lines = lines
	return cart, nil
}

func (r *cartRepository) AddItem(ctx context.Context, userID, itemID int64) (*models.CartLine, error) {
	query := `WITH cart AS (
	              INSERT INTO carts (user_id) VALUES ($1)
	              ON CONFLICT (user_id) DO UPDATE SET user_id = EXCLUDED.user_id
	              RETURNING id
	          )
	          INSERT INTO cart_items (cart_id, item_id, quantity)
	          SELECT id, $2, 1 FROM cart
	          ON CONFLICT (cart_id, item_id) DO UPDATE SET quantity = cart_items.quantity + 1
	          RETURNING id, cart_id, item_id, quantity`
	line := &models.CartLine{}
	if err := r.db.QueryRowContext(ctx, query, userID, itemID).Scan(&line.ID, &line.CartID, &line.ItemID, &line.Quantity); err != nil {
		if isForeignKeyViolation(err) {
			return nil, ErrItemNotFound
		}
		return nil, fmt.Errorf("failed to add cart item: %w", err)
	}
	return line, nil
}

func (r *cartRepository) RemoveLine(ctx context.Context, lineID, userID int64) error {
	res, err := r.db.ExecContext(ctx,
		"DELETE FROM cart_items ci USING carts c WHERE ci.cart_id = c.id AND ci.id = $1 AND c.user_id = $2",
		lineID, userID,
	)
	if err != nil {
		return fmt.Errorf("failed to remove cart item: %w", err)
	}
	return expectOneRow(res, ErrCartLineNotFound)
}

func (r *cartRepository) LockCartLines(ctx context.Context, tx *sql.Tx, userID int64) ([]models.CartLine, error) {
	return r.lines(ctx, tx, cartLinesSelect+" FOR UPDATE OF ci", userID)
}

func (r *cartRepository) DeleteCart(ctx context.Context, tx *sql.Tx, userID int64) error {
	var q querier = r.db
	if tx != nil {
		q = tx
	}
	if _, err := q.ExecContext(ctx, "DELETE FROM carts WHERE user_id = $1", userID); err != nil {
		return fmt.Errorf("failed to delete cart: %w", err)
	}
	return nil
}

func (r *cartRepository) lines(ctx context.Context, q querier, query string, userID int64) ([]models.CartLine, error) {
	rows, err := q.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to query cart items: %w", err)
	}
	defer rows.Close()

	var lines []models.CartLine
	for rows.Next() {
		var l models.CartLine
		if err := rows.Scan(&l.ID, &l.CartID, &l.ItemID, &l.ItemName, &l.UnitPrice, &l.Quantity); err != nil {
			return nil, fmt.Errorf("failed to scan cart item: %w", err)
		}
		lines = append(lines, l)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return lines, nil
}
