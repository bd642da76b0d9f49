package db

import (
	"context"
	"errors"
	"fmt"

	"github.com/RoyceAzure/lab/pizzabot/internal/domain/model"
	"gorm.io/gorm"
)

var ErrEmptyOrder = errors.New("order has no items")

// 購物車階段 只會寫入到redis, 下單時才寫入db
type OrderRepo struct {
	db *DbDao
}

func NewOrderRepo(db *DbDao) *OrderRepo {
	return &OrderRepo{db: db}
}

// CreateOrderWithItems 訂單與明細同一個 transaction
// 金額一律由明細重算
func (s *OrderRepo) CreateOrderWithItems(ctx context.Context, order *model.Order) error {
	if len(order.OrderItems) == 0 {
		return ErrEmptyOrder
	}
	items := order.OrderItems
	order.OrderItems = nil
	order.Amount = model.CalculateAmount(items)
	if order.Status == "" {
		order.Status = model.OrderStatusPending
	}

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(order).Error; err != nil {
			return fmt.Errorf("create order: %w", err)
		}
		for i := range items {
			items[i].ID = 0
			items[i].OrderID = order.ID
		}
		if err := tx.Create(&items).Error; err != nil {
			return fmt.Errorf("create order items: %w", err)
		}
		return nil
	})
	order.OrderItems = items
	if err != nil {
		order.ID = 0
		return err
	}
	return nil
}

// Read - 根據ID查詢訂單
func (s *OrderRepo) GetOrderByID(ctx context.Context, id uint) (*model.Order, error) {
	var order model.Order
	err := s.db.WithContext(ctx).Preload("OrderItems").First(&order, id).Error
	if err != nil {
		return nil, wrapNotFound(err)
	}
	return &order, nil
}

// Read - 根據用戶ID查詢訂單, 舊的在前
func (s *OrderRepo) GetOrdersByUserID(ctx context.Context, userID int64) ([]model.Order, error) {
	var orders []model.Order
	err := s.db.WithContext(ctx).Preload("OrderItems").
		Where("user_id = ?", userID).
		Order("created_at, id").
		Find(&orders).Error
	return orders, err
}

// TransitionStatus 只在目前狀態為 from 時更新, 回傳是否有更新
func (s *OrderRepo) TransitionStatus(ctx context.Context, id uint, from, to model.OrderStatus) (bool, error) {
	res := s.db.WithContext(ctx).Model(&model.Order{}).
		Where("id = ? AND status = ?", id, from).
		Update("status", to)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}
