package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/linemk/print-shop/internal/domain/models"
)

var ErrUserNotFound = errors.New("user not found")

type UserStorage interface {
	GetUserByUsername(ctx context.Context, username string) (*models.User, error)
	GetUserByID(ctx context.Context, id int64) (*models.User, error)
	CreateUser(ctx context.Context, user *models.User) (*models.User, error)
	ListApprovedVendors(ctx context.Context) ([]*models.User, error)
	ListPendingVendors(ctx context.Context) ([]*models.User, error)
	ApproveVendor(ctx context.Context, id int64) error
	DeletePendingVendor(ctx context.Context, id int64) error
}

type userRepository struct {
	db *sql.DB
}

func NewUserRepository(db *sql.DB) *userRepository {
	return &userRepository{db: db}
}

const userColumns = "id, username, email, pass_hash, role, is_approved, is_superuser"

type rowScanner interface {
	Scan(dest ...any) error
}

func scanUser(row rowScanner) (*models.User, error) {
	user := &models.User{}
	if err := row.Scan(&user.ID, &user.Username, &user.Email, &user.PassHash, &user.Role, &user.IsApproved, &user.IsSuperuser); err != nil {
		return nil, err
	}
	return user, nil
}

func (r *userRepository) GetUserByUsername(ctx context.Context, username string) (*models.User, error) {
	row := r.db.QueryRowContext(ctx, "SELECT "+userColumns+" FROM users WHERE username = $1", username)
	user, err := scanUser(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}
	return user, nil
}

func (r *userRepository) GetUserByID(ctx context.Context, id int64) (*models.User, error) {
	row := r.db.QueryRowContext(ctx, "SELECT "+userColumns+" FROM users WHERE id = $1", id)
	user, err := scanUser(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}
	return user, nil
}

func (r *userRepository) CreateUser(ctx context.Context, user *models.User) (*models.User, error) {
	var id int64
	err := r.db.QueryRowContext(ctx,
		"INSERT INTO users (username, email, pass_hash, role, is_approved, is_superuser) VALUES ($1, $2, $3, $4, $5, $6) RETURNING id",
		user.Username, user.Email, user.PassHash, user.Role, user.IsApproved, user.IsSuperuser,
	).Scan(&id)
	if err != nil {
		if isUniqueViolation(err) {
			return nil, fmt.Errorf("user %q: %w", user.Username, ErrAlreadyExists)
		}
		return nil, err
	}
	user.ID = id
	return user, nil
}

// ListApprovedVendors - кандидаты для автоматического назначения заказов
func (r *userRepository) ListApprovedVendors(ctx context.Context) ([]*models.User, error) {
	return r.listUsers(ctx, "SELECT "+userColumns+" FROM users WHERE role = 'vendor' AND is_approved = TRUE ORDER BY id")
}

// ListPendingVendors - очередь продавцов, ожидающих одобрения
func (r *userRepository) ListPendingVendors(ctx context.Context) ([]*models.User, error) {
	return r.listUsers(ctx, "SELECT "+userColumns+" FROM users WHERE role = 'vendor' AND is_approved = FALSE ORDER BY id")
}

func (r *userRepository) listUsers(ctx context.Context, query string, args ...any) ([]*models.User, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query users: %w", err)
	}
	defer rows.Close()

	var users []*models.User
	for rows.Next() {
		user, err := scanUser(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan user: %w", err)
		}
		users = append(users, user)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return users, nil
}

func (r *userRepository) ApproveVendor(ctx context.Context, id int64) error {
	res, err := r.db.ExecContext(ctx, "UPDATE users SET is_approved = TRUE WHERE id = $1 AND role = 'vendor'", id)
	if err != nil {
		return err
	}
	return expectOneRow(res, ErrUserNotFound)
}

// DeletePendingVendor удаляет заявку продавца, которую отклонил администратор
func (r *userRepository) DeletePendingVendor(ctx context.Context, id int64) error {
	res, err := r.db.ExecContext(ctx, "DELETE FROM users WHERE id = $1 AND role = 'vendor' AND is_approved = FALSE", id)
	if err != nil {
		return err
	}
	return expectOneRow(res, ErrUserNotFound)
}
