package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// ItemSource определяет, чей товар куплен: продавца или студента
type ItemSource string

const (
	SourceVendor ItemSource = "vendor"
	SourcePeer   ItemSource = "peer"
)

func (s ItemSource) Valid() bool {
	return s == SourceVendor || s == SourcePeer
}

// OrderStatus - статус заказа в магазине
type OrderStatus string

const (
	OrderPending    OrderStatus = "pending"
	OrderInProgress OrderStatus = "in_progress"
	OrderDelivered  OrderStatus = "delivered"
	OrderDone       OrderStatus = "done"
	OrderCanceled   OrderStatus = "canceled"
)

func (s OrderStatus) Valid() bool {
	switch s {
	case OrderPending, OrderInProgress, OrderDelivered, OrderDone, OrderCanceled:
		return true
	}
	return false
}

// Terminal - из done и canceled переходов нет
func (s OrderStatus) Terminal() bool {
	return s == OrderDone || s == OrderCanceled
}

// PaymentStatus - состояние оплаты заказа
type PaymentStatus string

const (
	PaymentUnpaid PaymentStatus = "unpaid"
	PaymentPaid   PaymentStatus = "paid"
)

// ShopOrder - заказ на товар продавца или студента
type ShopOrder struct {
	ID              int64           `json:"id"`
	BuyerID         int64           `json:"buyer_id"`
	Source          ItemSource      `json:"source"`
	ItemID          int64           `json:"item_id"`
	ItemName        string          `json:"item_name"`  // заполняется через JOIN с таблицей товаров
	UnitPrice       decimal.Decimal `json:"unit_price"` // текущая цена товара
	SellerID        int64           `json:"seller_id"`  // владелец товара: продавец или студент
	Quantity        int             `json:"quantity"`
	Status          OrderStatus     `json:"status"`
	PaymentStatus   PaymentStatus   `json:"payment_status"`
	DeliveryDetails string          `json:"delivery_details,omitempty"`
	SessionID       string          `json:"session_id,omitempty"`
	CreatedAt       time.Time       `json:"created_at"`
}

func (o *ShopOrder) TotalPrice() decimal.Decimal {
	return o.UnitPrice.Mul(decimal.NewFromInt(int64(o.Quantity)))
}
