package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/linemk/print-shop/internal/domain/models"
	"github.com/redis/go-redis/v9"
)

var ErrDeliveryNotFound = errors.New("delivery details not found")

// checkout:delivery:{session_id} -> json DeliveryDetails
const keyDelivery = "checkout:delivery:%s"

// DeliveryStorage - временное хранилище данных доставки между оформлением корзины и оплатой.
type DeliveryStorage interface {
	SaveDelivery(ctx context.Context, sessionID string, details models.DeliveryDetails, ttl time.Duration) error
	GetDelivery(ctx context.Context, sessionID string) (*models.DeliveryDetails, error)
	DeleteDelivery(ctx context.Context, sessionID string) error
}

type deliveryRepository struct {
	client *redis.Client
}

func NewDeliveryRepository(client *redis.Client) DeliveryStorage {
	return &deliveryRepository{client: client}
}

// SaveDelivery перезаписывает данные предыдущей попытки оформления
func (r *deliveryRepository) SaveDelivery(ctx context.Context, sessionID string, details models.DeliveryDetails, ttl time.Duration) error {
	payload, err := json.Marshal(details)
	if err != nil {
		return fmt.Errorf("failed to encode delivery details: %w", err)
	}
	if err := r.client.Set(ctx, fmt.Sprintf(keyDelivery, sessionID), payload, ttl).Err(); err != nil {
		return fmt.Errorf("failed to save delivery details: %w", err)
	}
	return nil
}

func (r *deliveryRepository) GetDelivery(ctx context.Context, sessionID string) (*models.DeliveryDetails, error) {
	payload, err := r.client.Get(ctx, fmt.Sprintf(keyDelivery, sessionID)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, ErrDeliveryNotFound
		}
		return nil, fmt.Errorf("failed to get delivery details: %w", err)
	}
	var details models.DeliveryDetails
	if err := json.Unmarshal(payload, &details); err != nil {
		return nil, fmt.Errorf("failed to decode delivery details: %w", err)
	}
	return &details, nil
}

func (r *deliveryRepository) DeleteDelivery(ctx context.Context, sessionID string) error {
	if err := r.client.Del(ctx, fmt.Sprintf(keyDelivery, sessionID)).Err(); err != nil {
		return fmt.Errorf("failed to delete delivery details: %w", err)
	}
	return nil
}
