package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"strings"

	"github.com/linemk/print-shop/internal/domain/models"
	"github.com/linemk/print-shop/internal/lib/metrics"
	"github.com/linemk/print-shop/internal/payment"
	"github.com/linemk/print-shop/internal/storage"
	"github.com/shopspring/decimal"
)

// ключи metadata сессии оплаты
const (
	metaOrderID = "order_id"
	metaUserID  = "user_id"
)

type CheckoutService interface {
	// OrderSession открывает оплату одного неоплаченного заказа покупателя.
	OrderSession(ctx context.Context, buyerID, orderID int64) (*payment.Session, error)
	// CartSession открывает оплату всей корзины; нужны отложенные данные доставки.
	CartSession(ctx context.Context, userID int64, sessionID string) (*payment.Session, error)
	// Reconcile обрабатывает возврат с оплаты.
	Reconcile(ctx context.Context, userID int64, localSessionID, checkoutSessionID string) (*CheckoutResult, error)
}

type CheckoutResult struct {
	Message  string              `json:"message"`
	Orders   []*models.ShopOrder `json:"orders,omitempty"`
	Replayed bool                `json:"replayed,omitempty"`
}

type CheckoutConfig struct {
	BaseURL  string
	Currency string
}

type checkoutService struct {
	log       *slog.Logger
	db        *sql.DB
	orders    storage.ShopOrderStorage
	carts     storage.CartStorage
	delivery  storage.DeliveryStorage
	processor payment.Processor
	cfg       CheckoutConfig
}

func NewCheckoutService(log *slog.Logger, db *sql.DB, orders storage.ShopOrderStorage, carts storage.CartStorage, delivery storage.DeliveryStorage, processor payment.Processor, cfg CheckoutConfig) CheckoutService {
	cfg.BaseURL = strings.TrimRight(cfg.BaseURL, "/")
	return &checkoutService{
		log:       log,
		db:        db,
		orders:    orders,
		carts:     carts,
		delivery:  delivery,
		processor: processor,
		cfg:       cfg,
	}
}

// unitAmount переводит цену в минимальные единицы валюты
func unitAmount(price decimal.Decimal) int64 {
	return price.Shift(2).Round(0).IntPart()
}

func (s *checkoutService) request(items []payment.LineItem, metadata map[string]string, reference string) payment.SessionRequest {
	return payment.SessionRequest{
		LineItems:         items,
		Currency:          s.cfg.Currency,
		Metadata:          metadata,
		ClientReferenceID: reference,
		SuccessURL:        s.cfg.BaseURL + "/payment-success?session_id=" + payment.SessionIDPlaceholder,
		CancelURL:         s.cfg.BaseURL + "/payment-cancel",
	}
}

func (s *checkoutService) OrderSession(ctx context.Context, buyerID, orderID int64) (*payment.Session, error) {
	const op = "service.CheckoutService.OrderSession"
	logger := s.log.With(slog.String("op", op), slog.Int64("buyerID", buyerID), slog.Int64("orderID", orderID))

	order, err := s.orders.GetBuyerShopOrder(ctx, orderID, buyerID)
	if err != nil {
		return nil, wrap(op, err)
	}
	if order.PaymentStatus == models.PaymentPaid {
		return nil, fmt.Errorf("%s: order is already paid: %w", op, ErrConflict)
	}
	if order.Status.Terminal() {
		return nil, fmt.Errorf("%s: order is %s: %w", op, order.Status, ErrConflict)
	}
	if strings.TrimSpace(order.DeliveryDetails) == "" {
		return nil, fmt.Errorf("%s: %w", op, ErrDeliveryRequired)
	}

	id := strconv.FormatInt(order.ID, 10)
	session, err := s.processor.CreateSession(ctx, s.request(
		[]payment.LineItem{{Name: order.ItemName, UnitAmount: unitAmount(order.UnitPrice), Quantity: order.Quantity}},
		map[string]string{metaOrderID: id},
		id,
	))
	if err != nil {
		logger.Error("failed to create checkout session", slog.Any("error", err))
		return nil, fmt.Errorf("%s: %w: %w", op, ErrPaymentProvider, err)
	}

	if err := s.orders.SetSessionID(ctx, order.ID, buyerID, session.ID); err != nil {
		logger.Error("failed to store session id", slog.Any("error", err))
		return nil, wrap(op, err)
	}

	logger.Info("checkout session created", slog.String("session_id", session.ID))
	return session, nil
}

func (s *checkoutService) CartSession(ctx context.Context, userID int64, sessionID string) (*payment.Session, error) {
	const op = "service.CheckoutService.CartSession"
	logger := s.log.With(slog.String("op", op), slog.Int64("userID", userID))

	cart, err := s.carts.GetOrCreateCart(ctx, userID)
	if err != nil {
		logger.Error("failed to get cart", slog.Any("error", err))
		return nil, wrap(op, err)
	}
	if cart.IsEmpty() {
		return nil, fmt.Errorf("%s: %w", op, ErrEmptyCart)
	}

	if _, err := s.delivery.GetDelivery(ctx, sessionID); err != nil {
		if errors.Is(err, storage.ErrDeliveryNotFound) {
			return nil, fmt.Errorf("%s: %w", op, ErrDeliveryRequired)
		}
		logger.Error("failed to read delivery details", slog.Any("error", err))
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	items := make([]payment.LineItem, 0, len(cart.Lines))
	for _, line := range cart.Lines {
		items = append(items, payment.LineItem{
			Name:       line.ItemName,
			UnitAmount: unitAmount(line.UnitPrice),
			Quantity:   line.Quantity,
		})
	}

	// в metadata id покупателя, а не корзины: после оплаты корзина пересоздаётся
	session, err := s.processor.CreateSession(ctx, s.request(
		items,
		map[string]string{metaUserID: strconv.FormatInt(userID, 10)},
		"",
	))
	if err != nil {
		logger.Error("failed to create checkout session", slog.Any("error", err))
		return nil, fmt.Errorf("%s: %w: %w", op, ErrPaymentProvider, err)
	}

	logger.Info("cart checkout session created", slog.String("session_id", session.ID), slog.String("total", cart.TotalPrice().StringFixed(2)))
	return session, nil
}

func (s *checkoutService) Reconcile(ctx context.Context, userID int64, localSessionID, checkoutSessionID string) (*CheckoutResult, error) {
	const op = "service.CheckoutService.Reconcile"
	logger := s.log.With(slog.String("op", op), slog.Int64("userID", userID), slog.String("session_id", checkoutSessionID))

	if checkoutSessionID == "" {
		return nil, invalid("session_id is required")
	}

	session, err := s.processor.RetrieveSession(ctx, checkoutSessionID)
	if err != nil {
		metrics.CheckoutReconciliations.WithLabelValues("failed").Inc()
		logger.Error("failed to retrieve checkout session", slog.Any("error", err))
		return nil, fmt.Errorf("%s: %w: %w", op, ErrPaymentProvider, err)
	}
	if !session.Paid() {
		metrics.CheckoutReconciliations.WithLabelValues("unpaid").Inc()
		logger.Warn("payment is not completed", slog.String("payment_status", session.PaymentStatus))
		return nil, fmt.Errorf("%s: %w", op, ErrPaymentNotCompleted)
	}

	if raw, ok := session.Metadata[metaOrderID]; ok {
		return s.reconcileOrder(ctx, logger, userID, raw)
	}
	if raw, ok := session.Metadata[metaUserID]; ok {
		buyerID, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			return nil, invalid("malformed %s in session metadata", metaUserID)
		}
		if buyerID != userID {
			logger.Warn("checkout session belongs to another user", slog.Int64("buyerID", buyerID))
			return nil, fmt.Errorf("%s: %w", op, ErrForbidden)
		}
		return s.reconcileCart(ctx, logger, session.ID, buyerID, localSessionID)
	}

	return nil, invalid("checkout session has no order reference")
}

// reconcileOrder отмечает оплату одиночного заказа покупателя; повтор безопасен
func (s *checkoutService) reconcileOrder(ctx context.Context, logger *slog.Logger, userID int64, raw string) (*CheckoutResult, error) {
	const op = "service.CheckoutService.reconcileOrder"

	orderID, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return nil, invalid("malformed %s in session metadata", metaOrderID)
	}
	if _, err := s.orders.GetBuyerShopOrder(ctx, orderID, userID); err != nil {
		if errors.Is(err, storage.ErrOrderNotFound) {
			logger.Warn("checkout session belongs to another user", slog.Int64("orderID", orderID))
			return nil, fmt.Errorf("%s: %w", op, ErrForbidden)
		}
		logger.Error("failed to load order", slog.Int64("orderID", orderID), slog.Any("error", err))
		return nil, wrap(op, err)
	}
	if err := s.orders.MarkPaid(ctx, orderID); err != nil {
		logger.Error("failed to mark order paid", slog.Int64("orderID", orderID), slog.Any("error", err))
		return nil, wrap(op, err)
	}

	metrics.CheckoutReconciliations.WithLabelValues("paid").Inc()
	logger.Info("order paid", slog.Int64("orderID", orderID))
	return &CheckoutResult{Message: "payment successful"}, nil
}

// reconcileCart превращает корзину в оплаченные заказы в одной транзакции.
// Маркер checkout_sessions не даёт повторному возврату создать заказы второй раз.
func (s *checkoutService) reconcileCart(ctx context.Context, logger *slog.Logger, checkoutSessionID string, buyerID int64, localSessionID string) (*CheckoutResult, error) {
	const op = "service.CheckoutService.reconcileCart"

	details := ""
	held, err := s.delivery.GetDelivery(ctx, localSessionID)
	switch {
	case err == nil:
		details = held.String()
	case errors.Is(err, storage.ErrDeliveryNotFound):
		logger.Warn("no held delivery details for session")
	default:
		logger.Error("failed to read delivery details", slog.Any("error", err))
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		logger.Error("failed to begin transaction", slog.Any("error", err))
		return nil, fmt.Errorf("%s: failed to begin transaction: %w", op, err)
	}

	fresh, err := s.orders.RegisterCheckoutSession(ctx, tx, checkoutSessionID, buyerID)
	if err != nil {
		if rbErr := tx.Rollback(); rbErr != nil {
			logger.Error("transaction rollback failed", slog.Any("error", rbErr))
		}
		logger.Error("failed to register checkout session", slog.Any("error", err))
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if !fresh {
		if rbErr := tx.Rollback(); rbErr != nil {
			logger.Error("transaction rollback failed", slog.Any("error", rbErr))
		}
		metrics.CheckoutReconciliations.WithLabelValues("replayed").Inc()
		logger.Info("checkout session already reconciled")
		return &CheckoutResult{Message: "payment successful", Replayed: true}, nil
	}

	lines, err := s.carts.LockCartLines(ctx, tx, buyerID)
	if err != nil {
		if rbErr := tx.Rollback(); rbErr != nil {
			logger.Error("transaction rollback failed", slog.Any("error", rbErr))
		}
		logger.Error("failed to lock cart", slog.Any("error", err))
		return nil, fmt.Errorf("%s: failed to lock cart: %w", op, err)
	}

	orders := make([]*models.ShopOrder, 0, len(lines))
	for _, line := range lines {
		order, err := s.orders.CreateShopOrder(ctx, tx, &models.ShopOrder{
			BuyerID:         buyerID,
			Source:          models.SourceVendor,
			ItemID:          line.ItemID,
			Quantity:        line.Quantity,
			Status:          models.OrderPending,
			PaymentStatus:   models.PaymentPaid,
			DeliveryDetails: details,
			SessionID:       checkoutSessionID,
		})
		if err != nil {
			if rbErr := tx.Rollback(); rbErr != nil {
				logger.Error("transaction rollback failed", slog.Any("error", rbErr))
			}
			logger.Error("failed to create order", slog.Int64("itemID", line.ItemID), slog.Any("error", err))
			return nil, fmt.Errorf("%s: failed to create order: %w", op, err)
		}
		order.ItemName = line.ItemName
		order.UnitPrice = line.UnitPrice
		orders = append(orders, order)
	}

	if err := s.carts.DeleteCart(ctx, tx, buyerID); err != nil {
		if rbErr := tx.Rollback(); rbErr != nil {
			logger.Error("transaction rollback failed", slog.Any("error", rbErr))
		}
		logger.Error("failed to clear cart", slog.Any("error", err))
		return nil, fmt.Errorf("%s: failed to clear cart: %w", op, err)
	}

	if err := tx.Commit(); err != nil {
		logger.Error("failed to commit transaction", slog.Any("error", err))
		return nil, fmt.Errorf("%s: failed to commit transaction: %w", op, err)
	}

	// заказы уже созданы, ошибку очистки только логируем
	if err := s.delivery.DeleteDelivery(ctx, localSessionID); err != nil {
		logger.Error("failed to discard delivery details", slog.Any("error", err))
	}

	metrics.CheckoutReconciliations.WithLabelValues("paid").Inc()
	metrics.OrdersCreated.WithLabelValues(string(models.SourceVendor)).Add(float64(len(orders)))
	logger.Info("cart checkout completed", slog.Int("orders", len(orders)))
	return &CheckoutResult{Message: "payment successful", Orders: orders}, nil
}
