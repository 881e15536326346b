package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/linemk/print-shop/internal/domain/models"
	security "github.com/linemk/print-shop/internal/jwt-new"
	"github.com/linemk/print-shop/internal/storage"
	"golang.org/x/crypto/bcrypt"
)

// куда отправить пользователя после входа
const (
	RedirectAdmin        = "/admin/vendors"
	RedirectStudentBoard = "/student/dashboard"
	RedirectVendorBoard  = "/vendor/dashboard"
	minPasswordLength    = 8
)

type AuthService struct {
	log      *slog.Logger
	userRepo storage.UserStorage
	delivery storage.DeliveryStorage
	secret   string
	tokenTTL time.Duration
}

func NewAuthService(log *slog.Logger, userRepo storage.UserStorage, delivery storage.DeliveryStorage, secret string, tokenTTL time.Duration) *AuthService {
	return &AuthService{
		log:      log,
		userRepo: userRepo,
		delivery: delivery,
		secret:   secret,
		tokenTTL: tokenTTL,
	}
}

type AuthServiceInterface interface {
	Register(ctx context.Context, in RegisterInput) (*models.User, error)
	Login(ctx context.Context, username, password string) (*LoginResult, error)
	Logout(ctx context.Context, sessionID string) error
}

type RegisterInput struct {
	Username string
	Email    string
	Password string
	Role     models.Role
}

type LoginResult struct {
	Token     string       `json:"token"`
	SessionID string       `json:"-"`
	Redirect  string       `json:"redirect"`
	User      *models.User `json:"user"`
}

// Register создаёт аккаунт. Студенты одобрены сразу, продавцы ждут решения администратора.
func (a *AuthService) Register(ctx context.Context, in RegisterInput) (*models.User, error) {
	const op = "auth.Register"
	logger := a.log.With(
		slog.String("op", op),
		slog.String("username", in.Username),
	)

	in.Username = strings.TrimSpace(in.Username)
	if in.Username == "" {
		return nil, invalid("username is required")
	}
	if !in.Role.Valid() {
		return nil, invalid("unknown role %q", in.Role)
	}
	if len(in.Password) < minPasswordLength {
		return nil, invalid("password must be at least %d characters", minPasswordLength)
	}

	// bcrypt сам добавляет соль
	passHash, err := bcrypt.GenerateFromPassword([]byte(in.Password), bcrypt.DefaultCost)
	if err != nil {
		logger.Error("failed to hash password", slog.Any("error", err))
		return nil, fmt.Errorf("%s: failed to hash password: %w", op, err)
	}

	user, err := a.userRepo.CreateUser(ctx, &models.User{
		Username:   in.Username,
		Email:      in.Email,
		PassHash:   passHash,
		Role:       in.Role,
		IsApproved: in.Role == models.RoleStudent,
	})
	if err != nil {
		if errors.Is(err, storage.ErrAlreadyExists) {
			logger.Warn("username is taken")
			return nil, fmt.Errorf("%s: %w", op, ErrUserExists)
		}
		logger.Error("failed to create user", slog.Any("error", err))
		return nil, fmt.Errorf("%s: failed to create user: %w", op, err)
	}

	logger.Info("user registered", slog.Int64("userID", user.ID), slog.String("role", string(user.Role)))
	return user, nil
}

// Login проверяет пароль и одобрение продавца, затем выпускает токен с новой сессией.
func (a *AuthService) Login(ctx context.Context, username, password string) (*LoginResult, error) {
	const op = "auth.Login"
	logger := a.log.With(
		slog.String("op", op),
		slog.String("username", username),
	)
	logger.Info("checking user")

	user, err := a.userRepo.GetUserByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, storage.ErrUserNotFound) {
			logger.Warn("user not found")
			return nil, fmt.Errorf("%s: %w", op, ErrInvalidCredentials)
		}
		logger.Error("failed to get user", slog.Any("error", err))
		return nil, fmt.Errorf("%s: failed to get user: %w", op, err)
	}

	if err := bcrypt.CompareHashAndPassword(user.PassHash, []byte(password)); err != nil {
		logger.Warn("invalid password")
		return nil, fmt.Errorf("%s: %w", op, ErrInvalidCredentials)
	}

	if !user.CanLogin() {
		logger.Warn("vendor is not approved")
		return nil, fmt.Errorf("%s: %w", op, ErrNotApproved)
	}

	sessionID := uuid.NewString()
	token, err := security.NewToken(user, sessionID, a.secret, a.tokenTTL)
	if err != nil {
		logger.Error("failed to generate token", slog.Any("error", err))
		return nil, fmt.Errorf("%s: failed to generate token: %w", op, err)
	}

	logger.Info("user logged in successfully", slog.Int64("userID", user.ID))
	return &LoginResult{
		Token:     token,
		SessionID: sessionID,
		Redirect:  redirectFor(user),
		User:      user,
	}, nil
}

func redirectFor(user *models.User) string {
	switch {
	case user.IsSuperuser:
		return RedirectAdmin
	case user.Role == models.RoleVendor:
		return RedirectVendorBoard
	default:
		return RedirectStudentBoard
	}
}

// Logout удаляет отложенные данные доставки сессии
func (a *AuthService) Logout(ctx context.Context, sessionID string) error {
	const op = "auth.Logout"

	if sessionID == "" {
		return nil
	}
	if err := a.delivery.DeleteDelivery(ctx, sessionID); err != nil {
		a.log.Error("failed to discard session data", slog.String("op", op), slog.Any("error", err))
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}
