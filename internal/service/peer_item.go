package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/linemk/print-shop/internal/domain/models"
	"github.com/linemk/print-shop/internal/storage"
	"github.com/shopspring/decimal"
)

type PeerItemService interface {
	Create(ctx context.Context, studentID int64, in PeerItemInput) (*models.PeerItem, error)
	MyItems(ctx context.Context, studentID int64) ([]*models.PeerItem, error)
	Delete(ctx context.Context, studentID, id int64) error
	// Listing: студенту - активные товары, продавцу - очередь на модерацию.
	Listing(ctx context.Context, user *models.User) ([]*models.PeerItem, error)
	Approve(ctx context.Context, vendorID, id int64) error
}

type PeerItemInput struct {
	CategoryID  *int64
	Name        string
	Description string
	Price       decimal.Decimal
}

type peerItemService struct {
	log   *slog.Logger
	items storage.PeerItemStorage
}

func NewPeerItemService(log *slog.Logger, items storage.PeerItemStorage) PeerItemService {
	return &peerItemService{
		log:   log,
		items: items,
	}
}

// Create выставляет товар студента; до одобрения продавцом он неактивен
func (s *peerItemService) Create(ctx context.Context, studentID int64, in PeerItemInput) (*models.PeerItem, error) {
	const op = "service.PeerItemService.Create"
	logger := s.log.With(slog.String("op", op), slog.Int64("studentID", studentID))

	if err := validateItem(in.Name, in.Price); err != nil {
		return nil, err
	}

	item, err := s.items.CreatePeerItem(ctx, &models.PeerItem{
		StudentID:   studentID,
		CategoryID:  in.CategoryID,
		Name:        strings.TrimSpace(in.Name),
		Description: in.Description,
		Price:       in.Price,
	})
	if err != nil {
		if errors.Is(err, storage.ErrCategoryNotFound) {
			return nil, invalid("category does not exist")
		}
		logger.Error("failed to create peer item", slog.Any("error", err))
		return nil, wrap(op, err)
	}

	logger.Info("peer item listed", slog.Int64("itemID", item.ID))
	return item, nil
}

func (s *peerItemService) MyItems(ctx context.Context, studentID int64) ([]*models.PeerItem, error) {
	const op = "service.PeerItemService.MyItems"

	items, err := s.items.ListPeerItemsByStudent(ctx, studentID)
	if err != nil {
		s.log.Error("failed to list peer items", slog.String("op", op), slog.Any("error", err))
		return nil, wrap(op, err)
	}
	return items, nil
}

func (s *peerItemService) Delete(ctx context.Context, studentID, id int64) error {
	const op = "service.PeerItemService.Delete"

	if err := s.items.DeletePeerItem(ctx, id, studentID); err != nil {
		return wrap(op, err)
	}
	s.log.Info("peer item deleted", slog.String("op", op), slog.Int64("itemID", id))
	return nil
}

func (s *peerItemService) Listing(ctx context.Context, user *models.User) ([]*models.PeerItem, error) {
	const op = "service.PeerItemService.Listing"

	status := models.ItemActive
	switch {
	case user.IsApprovedVendor():
		status = models.ItemInactive
	case user.Role != models.RoleStudent:
		return nil, fmt.Errorf("%s: %w", op, ErrForbidden)
	}

	items, err := s.items.ListPeerItemsByStatus(ctx, status)
	if err != nil {
		s.log.Error("failed to list peer items", slog.String("op", op), slog.Any("error", err))
		return nil, wrap(op, err)
	}
	return items, nil
}

func (s *peerItemService) Approve(ctx context.Context, vendorID, id int64) error {
	const op = "service.PeerItemService.Approve"
	logger := s.log.With(slog.String("op", op), slog.Int64("vendorID", vendorID), slog.Int64("itemID", id))

	if err := s.items.ApprovePeerItem(ctx, id, vendorID); err != nil {
		if !errors.Is(err, storage.ErrItemNotFound) {
			logger.Error("failed to approve peer item", slog.Any("error", err))
		}
		return wrap(op, err)
	}

	logger.Info("peer item approved")
	return nil
}
