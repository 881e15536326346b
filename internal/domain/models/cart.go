package models

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// Cart - корзина студента, создаётся при первом обращении
type Cart struct {
	ID        int64      `json:"id"`
	UserID    int64      `json:"user_id"`
	Lines     []CartLine `json:"lines"`
	CreatedAt time.Time  `json:"created_at"`
}

// CartLine - позиция корзины; одна строка на товар
type CartLine struct {
	ID        int64           `json:"id"`
	CartID    int64           `json:"cart_id"`
	ItemID    int64           `json:"item_id"`
	ItemName  string          `json:"item_name"`
	UnitPrice decimal.Decimal `json:"unit_price"`
	Quantity  int             `json:"quantity"`
}

func (l CartLine) TotalPrice() decimal.Decimal {
	return l.UnitPrice.Mul(decimal.NewFromInt(int64(l.Quantity)))
}

// TotalPrice считается при каждом чтении, не кэшируется
func (c *Cart) TotalPrice() decimal.Decimal {
	total := decimal.Zero
	for _, l := range c.Lines {
		total = total.Add(l.TotalPrice())
	}
	return total
}

func (c *Cart) IsEmpty() bool {
	return len(c.Lines) == 0
}

// DeliveryDetails - данные доставки, введённые при оформлении корзины
type DeliveryDetails struct {
	Name    string `json:"name" validate:"required"`
	Phone   string `json:"phone" validate:"required"`
	Address string `json:"address" validate:"required"`
}

// String - текстовое представление, которое сохраняется в заказе
func (d DeliveryDetails) String() string {
	return fmt.Sprintf("Name: %s\nPhone: %s\nAddress: %s", d.Name, d.Phone, d.Address)
}
