package service

import (
	"errors"
	"fmt"

	"github.com/linemk/print-shop/internal/storage"
)

var (
	ErrInvalidCredentials  = errors.New("invalid credentials")
	ErrNotApproved         = errors.New("your account is not approved yet")
	ErrUserExists          = errors.New("user already exists")
	ErrValidation          = errors.New("validation error")
	ErrNotFound            = errors.New("not found")
	ErrForbidden           = errors.New("forbidden")
	ErrConflict            = errors.New("conflict")
	ErrEmptyCart           = errors.New("your cart is empty")
	ErrDeliveryRequired    = errors.New("delivery details are required")
	ErrPaymentNotCompleted = errors.New("payment was not successful")
	ErrPaymentProvider     = errors.New("payment provider error")
)

// ValidationError несёт сообщение, которое можно показать клиенту.
type ValidationError struct {
	Message string
}

func (e *ValidationError) Error() string {
	return e.Message
}

func (e *ValidationError) Is(target error) bool {
	return target == ErrValidation
}

func invalid(format string, args ...any) error {
	return &ValidationError{Message: fmt.Sprintf(format, args...)}
}

// wrap добавляет op и переводит ошибки хранилища в доменные
func wrap(op string, err error) error {
	switch {
	case errors.Is(err, storage.ErrUserNotFound),
		errors.Is(err, storage.ErrItemNotFound),
		errors.Is(err, storage.ErrOrderNotFound),
		errors.Is(err, storage.ErrCartLineNotFound),
		errors.Is(err, storage.ErrCategoryNotFound):
		return fmt.Errorf("%s: %w: %w", op, ErrNotFound, err)
	case errors.Is(err, storage.ErrAlreadyExists):
		return fmt.Errorf("%s: %w: %w", op, ErrConflict, err)
	}
	return fmt.Errorf("%s: %w", op, err)
}
