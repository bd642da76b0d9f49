package model

import (
	"github.com/shopspring/decimal"
)

// 購物車只存在 redis，不落 db
type CartEntry struct {
	ProductID uint `json:"product_id"`
	Size      Size `json:"size"`
	Quantity  int  `json:"quantity"`
}

type CartItem struct {
	Product  Product `json:"product"`
	Size     Size    `json:"size"`
	Quantity int     `json:"quantity"`
}

func (c CartItem) UnitPrice() decimal.Decimal {
	price, _ := c.Product.SizePrice(c.Size)
	return price
}

func (c CartItem) Total() decimal.Decimal {
	return c.UnitPrice().Mul(decimal.NewFromInt(int64(c.Quantity)))
}
