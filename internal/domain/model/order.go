package model

import (
	"github.com/shopspring/decimal"
)

type OrderStatus string

const (
	OrderStatusPending   OrderStatus = "pending"
	OrderStatusDone      OrderStatus = "done"
	OrderStatusCancelled OrderStatus = "cancelled"
)

func (s OrderStatus) Mark() string {
	switch s {
	case OrderStatusDone:
		return "✅"
	case OrderStatusPending:
		return "⚠️"
	case OrderStatusCancelled:
		return "❌"
	}
	return "❔"
}

func (s OrderStatus) Text() string {
	switch s {
	case OrderStatusDone:
		return "✅ Paid"
	case OrderStatusPending:
		return "⚠️ Awaiting payment"
	case OrderStatusCancelled:
		return "❌ Cancelled"
	}
	return "❔ Unknown"
}

type Order struct {
	ID         uint            `gorm:"primaryKey" json:"id"`
	UserID     int64           `gorm:"not null;index" json:"user_id"`
	ClientName string          `gorm:"not null;type:varchar(50)" json:"client_name"`
	Phone      string          `gorm:"not null;type:varchar(9)" json:"phone"`
	Address    string          `gorm:"not null;type:text" json:"address"`
	Note       string          `gorm:"type:varchar(200)" json:"note"`
	Amount     decimal.Decimal `gorm:"not null;type:decimal(10,2);default:0" json:"amount"`
	Status     OrderStatus     `gorm:"not null;type:varchar(20);default:'pending'" json:"status"`
	OrderItems []OrderItem     `gorm:"foreignKey:OrderID;constraint:OnDelete:CASCADE" json:"order_items"`
	BaseModel
}

type OrderItem struct {
	ID        uint            `gorm:"primaryKey" json:"id"`
	OrderID   uint            `gorm:"not null;index" json:"order_id"`
	ProductID uint            `gorm:"not null" json:"product_id"`
	Size      Size            `gorm:"not null;type:varchar(10)" json:"size"`
	Quantity  int             `gorm:"not null" json:"quantity"`
	Price     decimal.Decimal `gorm:"not null;type:decimal(10,2)" json:"price"`
}

func (i OrderItem) Total() decimal.Decimal {
	return i.Price.Mul(decimal.NewFromInt(int64(i.Quantity)))
}

// CalculateAmount 訂單金額 = Σ 單價 × 數量
func CalculateAmount(items []OrderItem) decimal.Decimal {
	amount := decimal.Zero
	for _, item := range items {
		amount = amount.Add(item.Total())
	}
	return amount
}
