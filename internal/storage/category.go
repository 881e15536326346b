package storage

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/linemk/print-shop/internal/domain/models"
)

// CategoryStorage описывает методы для работы с категориями.
type CategoryStorage interface {
	CreateCategory(ctx context.Context, name string) (*models.Category, error)
	ListCategories(ctx context.Context) ([]*models.Category, error)
	// DeleteCategory удаляет категорию; у товаров ссылка на неё обнуляется (ON DELETE SET NULL).
	DeleteCategory(ctx context.Context, id int64) error
}

type categoryRepository struct {
	db *sql.DB
}

func NewCategoryRepository(db *sql.DB) CategoryStorage {
	return &categoryRepository{db: db}
}

func (r *categoryRepository) CreateCategory(ctx context.Context, name string) (*models.Category, error) {
	category := &models.Category{Name: name}
	err := r.db.QueryRowContext(ctx, "INSERT INTO categories (name) VALUES ($1) RETURNING id", name).Scan(&category.ID)
	if err != nil {
		if isUniqueViolation(err) {
			return nil, fmt.Errorf("category %q: %w", name, ErrAlreadyExists)
		}
		return nil, fmt.Errorf("failed to create category: %w", err)
	}
	return category, nil
}

func (r *categoryRepository) ListCategories(ctx context.Context) ([]*models.Category, error) {
	rows, err := r.db.QueryContext(ctx, "SELECT id, name FROM categories ORDER BY name")
	if err != nil {
		return nil, fmt.Errorf("failed to query categories: %w", err)
	}
	defer rows.Close()

	var categories []*models.Category
	for rows.Next() {
		c := &models.Category{}
		if err := rows.Scan(&c.ID, &c.Name); err != nil {
			return nil, fmt.Errorf("failed to scan category: %w", err)
		}
		categories = append(categories, c)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return categories, nil
}

func (r *categoryRepository) DeleteCategory(ctx context.Context, id int64) error {
	res, err := r.db.ExecContext(ctx, "DELETE FROM categories WHERE id = $1", id)
	if err != nil {
		return fmt.Errorf("failed to delete category: %w", err)
	}
	return expectOneRow(res, ErrCategoryNotFound)
}
