package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/linemk/print-shop/internal/domain/models"
	"github.com/linemk/print-shop/internal/lib/metrics"
	"github.com/linemk/print-shop/internal/storage"
)

type ShopOrderService interface {
	OrderPeerItem(ctx context.Context, buyerID, itemID int64, quantity int) (*models.ShopOrder, error)
	SetDeliveryDetails(ctx context.Context, buyerID, id int64, details string) error
	ListForBuyer(ctx context.Context, buyerID int64) ([]*models.ShopOrder, error)
	GetForBuyer(ctx context.Context, buyerID, id int64) (*models.ShopOrder, error)
	Cancel(ctx context.Context, buyerID, id int64) error
	ListForSeller(ctx context.Context, seller *models.User) ([]*models.ShopOrder, error)
	UpdateStatus(ctx context.Context, seller *models.User, id int64, status string) error
}

type shopOrderService struct {
	log       *slog.Logger
	orders    storage.ShopOrderStorage
	peerItems storage.PeerItemStorage
}

func NewShopOrderService(log *slog.Logger, orders storage.ShopOrderStorage, peerItems storage.PeerItemStorage) ShopOrderService {
	return &shopOrderService{
		log:       log,
		orders:    orders,
		peerItems: peerItems,
	}
}

// sellerSource - товары какого источника продаёт пользователь
func sellerSource(user *models.User) (models.ItemSource, bool) {
	switch {
	case user.IsApprovedVendor():
		return models.SourceVendor, true
	case user.Role == models.RoleStudent:
		return models.SourcePeer, true
	}
	return "", false
}

// OrderPeerItem создаёт неоплаченный заказ на активный товар другого студента
func (s *shopOrderService) OrderPeerItem(ctx context.Context, buyerID, itemID int64, quantity int) (*models.ShopOrder, error) {
	const op = "service.ShopOrderService.OrderPeerItem"
	logger := s.log.With(slog.String("op", op), slog.Int64("buyerID", buyerID), slog.Int64("itemID", itemID))

	if quantity < 1 {
		return nil, invalid("quantity must be at least 1")
	}

	item, err := s.peerItems.GetActivePeerItem(ctx, itemID)
	if err != nil {
		if !errors.Is(err, storage.ErrItemNotFound) {
			logger.Error("failed to get peer item", slog.Any("error", err))
		}
		return nil, wrap(op, err)
	}
	if item.StudentID == buyerID {
		return nil, invalid("you cannot order your own item")
	}

	order, err := s.orders.CreateShopOrder(ctx, nil, &models.ShopOrder{
		BuyerID:       buyerID,
		Source:        models.SourcePeer,
		ItemID:        item.ID,
		Quantity:      quantity,
		Status:        models.OrderPending,
		PaymentStatus: models.PaymentUnpaid,
	})
	if err != nil {
		logger.Error("failed to create order", slog.Any("error", err))
		return nil, wrap(op, err)
	}
	order.ItemName = item.Name
	order.UnitPrice = item.Price
	order.SellerID = item.StudentID
	metrics.OrdersCreated.WithLabelValues(string(models.SourcePeer)).Inc()

	logger.Info("peer order created", slog.Int64("orderID", order.ID))
	return order, nil
}

func (s *shopOrderService) SetDeliveryDetails(ctx context.Context, buyerID, id int64, details string) error {
	const op = "service.ShopOrderService.SetDeliveryDetails"

	details = strings.TrimSpace(details)
	if details == "" {
		return invalid("delivery details are required")
	}
	if err := s.orders.SetDeliveryDetails(ctx, id, buyerID, details); err != nil {
		return wrap(op, err)
	}
	return nil
}

func (s *shopOrderService) ListForBuyer(ctx context.Context, buyerID int64) ([]*models.ShopOrder, error) {
	const op = "service.ShopOrderService.ListForBuyer"

	orders, err := s.orders.ListShopOrdersByBuyer(ctx, buyerID)
	if err != nil {
		s.log.Error("failed to list orders", slog.String("op", op), slog.Any("error", err))
		return nil, wrap(op, err)
	}
	return orders, nil
}

func (s *shopOrderService) GetForBuyer(ctx context.Context, buyerID, id int64) (*models.ShopOrder, error) {
	const op = "service.ShopOrderService.GetForBuyer"

	order, err := s.orders.GetBuyerShopOrder(ctx, id, buyerID)
	if err != nil {
		return nil, wrap(op, err)
	}
	return order, nil
}

// Cancel отменяет заказ покупателя; завершённый или уже отменённый заказ - конфликт
func (s *shopOrderService) Cancel(ctx context.Context, buyerID, id int64) error {
	const op = "service.ShopOrderService.Cancel"
	logger := s.log.With(slog.String("op", op), slog.Int64("buyerID", buyerID), slog.Int64("orderID", id))

	order, err := s.orders.GetBuyerShopOrder(ctx, id, buyerID)
	if err != nil {
		return wrap(op, err)
	}
	if order.Status.Terminal() {
		logger.Warn("order is already closed", slog.String("status", string(order.Status)))
		return fmt.Errorf("%s: order is %s: %w", op, order.Status, ErrConflict)
	}

	if err := s.orders.CancelBuyerShopOrder(ctx, id, buyerID); err != nil {
		if errors.Is(err, storage.ErrOrderNotFound) {
			// статус сменился между чтением и обновлением
			return fmt.Errorf("%s: %w", op, ErrConflict)
		}
		logger.Error("failed to cancel order", slog.Any("error", err))
		return wrap(op, err)
	}

	logger.Info("order canceled")
	return nil
}

func (s *shopOrderService) ListForSeller(ctx context.Context, seller *models.User) ([]*models.ShopOrder, error) {
	const op = "service.ShopOrderService.ListForSeller"

	source, ok := sellerSource(seller)
	if !ok {
		return nil, fmt.Errorf("%s: %w", op, ErrForbidden)
	}

	orders, err := s.orders.ListShopOrdersBySeller(ctx, source, seller.ID)
	if err != nil {
		s.log.Error("failed to list orders", slog.String("op", op), slog.Any("error", err))
		return nil, wrap(op, err)
	}
	return orders, nil
}

// UpdateStatus доступен только владельцу товара; неизвестный статус игнорируется
func (s *shopOrderService) UpdateStatus(ctx context.Context, seller *models.User, id int64, status string) error {
	const op = "service.ShopOrderService.UpdateStatus"
	logger := s.log.With(slog.String("op", op), slog.Int64("sellerID", seller.ID), slog.Int64("orderID", id))

	order, err := s.orders.GetShopOrder(ctx, id)
	if err != nil {
		return wrap(op, err)
	}

	source, ok := sellerSource(seller)
	if !ok || order.Source != source || order.SellerID != seller.ID {
		logger.Warn("user does not own the ordered item")
		return fmt.Errorf("%s: %w", op, ErrForbidden)
	}

	next := models.OrderStatus(status)
	if !next.Valid() {
		logger.Warn("ignoring unknown status", slog.String("status", status))
		return nil
	}

	if err := s.orders.UpdateShopOrderStatus(ctx, id, next); err != nil {
		logger.Error("failed to update status", slog.Any("error", err))
		return wrap(op, err)
	}

	logger.Info("order status updated", slog.String("status", status))
	return nil
}
