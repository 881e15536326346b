package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/linemk/print-shop/internal/domain/models"
	"github.com/linemk/print-shop/internal/storage"
)

var validate = validator.New()

type CartService interface {
	Add(ctx context.Context, userID, itemID int64) (*models.CartLine, error)
	View(ctx context.Context, userID int64) (*models.Cart, error)
	Remove(ctx context.Context, userID, lineID int64) error
	// CheckoutIntent откладывает данные доставки до возврата с оплаты.
	CheckoutIntent(ctx context.Context, userID int64, sessionID string, details models.DeliveryDetails) error
}

type cartService struct {
	log         *slog.Logger
	carts       storage.CartStorage
	items       storage.VendorItemStorage
	delivery    storage.DeliveryStorage
	deliveryTTL time.Duration
}

func NewCartService(log *slog.Logger, carts storage.CartStorage, items storage.VendorItemStorage, delivery storage.DeliveryStorage, deliveryTTL time.Duration) CartService {
	return &cartService{
		log:         log,
		carts:       carts,
		items:       items,
		delivery:    delivery,
		deliveryTTL: deliveryTTL,
	}
}

// Add кладёт активный товар в корзину или увеличивает количество на единицу
func (s *cartService) Add(ctx context.Context, userID, itemID int64) (*models.CartLine, error) {
	const op = "service.CartService.Add"
	logger := s.log.With(slog.String("op", op), slog.Int64("userID", userID), slog.Int64("itemID", itemID))

	item, err := s.items.GetActiveVendorItem(ctx, itemID)
	if err != nil {
		if !errors.Is(err, storage.ErrItemNotFound) {
			logger.Error("failed to get item", slog.Any("error", err))
		}
		return nil, wrap(op, err)
	}

	line, err := s.carts.AddItem(ctx, userID, item.ID)
	if err != nil {
		logger.Error("failed to add item to cart", slog.Any("error", err))
		return nil, wrap(op, err)
	}
	line.ItemName = item.Name
	line.UnitPrice = item.Price

	logger.Info("item added to cart", slog.Int("quantity", line.Quantity))
	return line, nil
}

func (s *cartService) View(ctx context.Context, userID int64) (*models.Cart, error) {
	const op = "service.CartService.View"

	cart, err := s.carts.GetOrCreateCart(ctx, userID)
	if err != nil {
		s.log.Error("failed to get cart", slog.String("op", op), slog.Any("error", err))
		return nil, wrap(op, err)
	}
	return cart, nil
}

func (s *cartService) Remove(ctx context.Context, userID, lineID int64) error {
	const op = "service.CartService.Remove"

	if err := s.carts.RemoveLine(ctx, lineID, userID); err != nil {
		return wrap(op, err)
	}
	s.log.Info("cart line removed", slog.String("op", op), slog.Int64("lineID", lineID))
	return nil
}

func (s *cartService) CheckoutIntent(ctx context.Context, userID int64, sessionID string, details models.DeliveryDetails) error {
	const op = "service.CartService.CheckoutIntent"
	logger := s.log.With(slog.String("op", op), slog.Int64("userID", userID))

	cart, err := s.carts.GetOrCreateCart(ctx, userID)
	if err != nil {
		logger.Error("failed to get cart", slog.Any("error", err))
		return wrap(op, err)
	}
	if cart.IsEmpty() {
		return fmt.Errorf("%s: %w", op, ErrEmptyCart)
	}

	if err := validate.Struct(details); err != nil {
		logger.Warn("invalid delivery details", slog.Any("error", err))
		return invalid("name, phone and address are required")
	}
	if sessionID == "" {
		return fmt.Errorf("%s: session id is missing", op)
	}

	if err := s.delivery.SaveDelivery(ctx, sessionID, details, s.deliveryTTL); err != nil {
		logger.Error("failed to hold delivery details", slog.Any("error", err))
		return fmt.Errorf("%s: %w", op, err)
	}

	logger.Info("delivery details held", slog.Int("lines", len(cart.Lines)))
	return nil
}
