package service

import (
	"context"
	"log/slog"

	"github.com/linemk/print-shop/internal/domain/models"
	"github.com/linemk/print-shop/internal/storage"
)

type DashboardService interface {
	Student(ctx context.Context, studentID int64) (*models.PrintOrderStats, error)
	Vendor(ctx context.Context, vendorID int64) (*models.PrintOrderStats, error)
	// MyOrders - заказы на печать и покупки студента на одной странице.
	MyOrders(ctx context.Context, studentID int64) (*MyOrders, error)
}

type MyOrders struct {
	PrintOrders []*models.PrintOrder `json:"print_orders"`
	ShopOrders  []*models.ShopOrder  `json:"shop_orders"`
}

type dashboardService struct {
	log         *slog.Logger
	printOrders storage.PrintOrderStorage
	shopOrders  storage.ShopOrderStorage
}

func NewDashboardService(log *slog.Logger, printOrders storage.PrintOrderStorage, shopOrders storage.ShopOrderStorage) DashboardService {
	return &dashboardService{
		log:         log,
		printOrders: printOrders,
		shopOrders:  shopOrders,
	}
}

func (s *dashboardService) Student(ctx context.Context, studentID int64) (*models.PrintOrderStats, error) {
	const op = "service.DashboardService.Student"

	stats, err := s.printOrders.StatsByStudent(ctx, studentID)
	if err != nil {
		s.log.Error("failed to count orders", slog.String("op", op), slog.Any("error", err))
		return nil, wrap(op, err)
	}
	return stats, nil
}

func (s *dashboardService) Vendor(ctx context.Context, vendorID int64) (*models.PrintOrderStats, error) {
	const op = "service.DashboardService.Vendor"

	stats, err := s.printOrders.StatsByVendor(ctx, vendorID)
	if err != nil {
		s.log.Error("failed to count orders", slog.String("op", op), slog.Any("error", err))
		return nil, wrap(op, err)
	}
	return stats, nil
}

func (s *dashboardService) MyOrders(ctx context.Context, studentID int64) (*MyOrders, error) {
	const op = "service.DashboardService.MyOrders"
	logger := s.log.With(slog.String("op", op), slog.Int64("studentID", studentID))

	printOrders, err := s.printOrders.ListPrintOrdersByStudent(ctx, studentID)
	if err != nil {
		logger.Error("failed to list print orders", slog.Any("error", err))
		return nil, wrap(op, err)
	}
	shopOrders, err := s.shopOrders.ListShopOrdersByBuyer(ctx, studentID)
	if err != nil {
		logger.Error("failed to list shop orders", slog.Any("error", err))
		return nil, wrap(op, err)
	}

	if printOrders == nil {
		printOrders = []*models.PrintOrder{}
	}
	if shopOrders == nil {
		shopOrders = []*models.ShopOrder{}
	}
	return &MyOrders{PrintOrders: printOrders, ShopOrders: shopOrders}, nil
}
