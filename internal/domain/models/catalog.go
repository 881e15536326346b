package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// ItemStatus - статус товара в каталоге
type ItemStatus string

const (
	ItemActive   ItemStatus = "active"
	ItemInactive ItemStatus = "inactive"
)

func (s ItemStatus) Valid() bool {
	return s == ItemActive || s == ItemInactive
}

// Toggled возвращает противоположный статус
func (s ItemStatus) Toggled() ItemStatus {
	if s == ItemActive {
		return ItemInactive
	}
	return ItemActive
}

// Category - категория товаров, имя уникально
type Category struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

// VendorItem - товар, выставленный продавцом
type VendorItem struct {
	ID           int64           `json:"id"`
	VendorID     int64           `json:"vendor_id"`
	CategoryID   *int64          `json:"category_id,omitempty"`
	CategoryName string          `json:"category_name,omitempty"` // заполняется через LEFT JOIN с categories
	Name         string          `json:"name"`
	Description  string          `json:"description,omitempty"`
	Price        decimal.Decimal `json:"price"`
	Status       ItemStatus      `json:"status"`
	CreatedAt    time.Time       `json:"created_at"`
}

// PeerItem - товар, выставленный студентом; становится активным после одобрения продавцом
type PeerItem struct {
	ID           int64           `json:"id"`
	StudentID    int64           `json:"student_id"`
	ApprovedBy   *int64          `json:"approved_by,omitempty"`
	CategoryID   *int64          `json:"category_id,omitempty"`
	CategoryName string          `json:"category_name,omitempty"`
	Name         string          `json:"name"`
	Description  string          `json:"description,omitempty"`
	Price        decimal.Decimal `json:"price"`
	Status       ItemStatus      `json:"status"`
	CreatedAt    time.Time       `json:"created_at"`
}
