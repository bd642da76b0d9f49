package model

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

type Category string

const (
	CategoryPizza Category = "pizza"
	CategorySnack Category = "snack"
	CategoryDrink Category = "drink"
	CategoryCake  Category = "cake"
)

// 購物車與菜單排序
var CategoryOrder = []Category{CategoryPizza, CategorySnack, CategoryCake, CategoryDrink}

type categoryInfo struct {
	label string
	emoji string
	small string
	large string
}

var categories = map[Category]categoryInfo{
	CategoryPizza: {label: "pizza", emoji: "🍕", small: "standard", large: "large"},
	CategorySnack: {label: "snack", emoji: "🍟", small: "standard", large: "large"},
	CategoryDrink: {label: "drink", emoji: "🥤", small: "0.5 l", large: "1 l"},
	CategoryCake:  {label: "cake", emoji: "🍰", small: "standard", large: "large"},
}

func ParseCategory(s string) (Category, error) {
	c := Category(strings.ToLower(strings.TrimSpace(s)))
	if _, ok := categories[c]; !ok {
		return "", fmt.Errorf("unknown category %q", s)
	}
	return c, nil
}

func (c Category) Label() string { return categories[c].label }

func (c Category) Emoji() string { return categories[c].emoji }

func (c Category) Rank() int {
	for i, v := range CategoryOrder {
		if v == c {
			return i
		}
	}
	return len(CategoryOrder)
}

type Size string

const (
	SizeSmall Size = "small"
	SizeLarge Size = "large"
)

func ParseSize(s string) (Size, error) {
	switch Size(s) {
	case SizeSmall, SizeLarge:
		return Size(s), nil
	}
	return "", fmt.Errorf("unknown size %q", s)
}

type Product struct {
	ID            uint                `gorm:"primaryKey" json:"id"`
	Name          string              `gorm:"not null;type:varchar(255)" json:"name"`
	Category      Category            `gorm:"not null;type:varchar(50);index" json:"category"`
	CategoryLabel string              `gorm:"type:varchar(50)" json:"category_label"`
	Emoji         string              `gorm:"type:varchar(16)" json:"emoji"`
	PriceSmall    decimal.Decimal     `gorm:"not null;type:decimal(10,2)" json:"price_small"`
	PriceLarge    decimal.NullDecimal `gorm:"type:decimal(10,2)" json:"price_large"`
	Description   string              `gorm:"type:text" json:"description"`
	Ingredients   string              `gorm:"type:text" json:"ingredients"`
	Nutrition     string              `gorm:"type:varchar(100)" json:"nutrition"`
	BaseModel
}

func (p *Product) HasOnlyOneSize() bool {
	return !p.PriceLarge.Valid
}

// SizePrice 沒有該尺寸時回傳 false
func (p *Product) SizePrice(size Size) (decimal.Decimal, bool) {
	switch size {
	case SizeSmall:
		return p.PriceSmall, true
	case SizeLarge:
		if p.PriceLarge.Valid {
			return p.PriceLarge.Decimal, true
		}
	}
	return decimal.Zero, false
}

func (p *Product) SizeText(size Size) string {
	info := categories[p.Category]
	if size == SizeLarge {
		return info.large
	}
	if p.HasOnlyOneSize() {
		return ""
	}
	return info.small
}

// ApplyCategory 同步更新分類標籤與 emoji
func (p *Product) ApplyCategory(c Category) {
	p.Category = c
	p.CategoryLabel = c.Label()
	p.Emoji = c.Emoji()
}

func (p *Product) Title() string {
	return fmt.Sprintf("%s %s", p.Emoji, p.Name)
}
