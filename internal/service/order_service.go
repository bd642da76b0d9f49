package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/RoyceAzure/lab/pizzabot/internal/domain/model"
	"github.com/RoyceAzure/lab/pizzabot/internal/infra/producer"
	"github.com/RoyceAzure/lab/pizzabot/internal/infra/repository/db"
	"github.com/rs/zerolog"
)

// OrderForm 下單流程收集到的資料
type OrderForm struct {
	ClientName string
	Phone      string
	Address    string
	Note       string
}

type IOrderService interface {
	PlaceOrder(ctx context.Context, userID int64, form OrderForm) (*model.Order, error)
	GetOrder(ctx context.Context, orderID uint) (*model.Order, error)
	GetUserOrder(ctx context.Context, userID int64, orderID uint) (*model.Order, error)
	ListUserOrders(ctx context.Context, userID int64) ([]model.Order, error)
	MarkPaid(ctx context.Context, orderID uint) (*model.Order, error)
	Cancel(ctx context.Context, userID int64, orderID uint) (*model.Order, error)
}

type OrderService struct {
	orderRepo db.IOrderRepository
	cart      ICartService
	publisher producer.OrderEventPublisher
	logger    *zerolog.Logger
}

// 購物車階段 只會寫入到redis, 下單時才寫入db
func NewOrderService(orderRepo db.IOrderRepository, cart ICartService, publisher producer.OrderEventPublisher, logger *zerolog.Logger) *OrderService {
	if publisher == nil {
		publisher = producer.NoopPublisher{}
	}
	return &OrderService{orderRepo: orderRepo, cart: cart, publisher: publisher, logger: logger}
}

/*
從購物車建立訂單
金額一律由明細重算, 不使用購物車快取金額
成功後清空購物車
*/
func (o *OrderService) PlaceOrder(ctx context.Context, userID int64, form OrderForm) (*model.Order, error) {
	items, err := o.cart.Items(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("read cart: %w", err)
	}
	if len(items) == 0 {
		return nil, ErrCartEmpty
	}

	order := &model.Order{
		UserID:     userID,
		ClientName: form.ClientName,
		Phone:      form.Phone,
		Address:    form.Address,
		Note:       form.Note,
		Status:     model.OrderStatusPending,
		OrderItems: make([]model.OrderItem, 0, len(items)),
	}
	for _, item := range items {
		order.OrderItems = append(order.OrderItems, model.OrderItem{
			ProductID: item.Product.ID,
			Size:      item.Size,
			Quantity:  item.Quantity,
			Price:     item.UnitPrice(),
		})
	}

	if err := o.orderRepo.CreateOrderWithItems(ctx, order); err != nil {
		return nil, fmt.Errorf("create order: %w", err)
	}

	if err := o.cart.Clear(ctx, userID); err != nil {
		o.logger.Error().Err(err).Int64("user_id", userID).Uint("order_id", order.ID).Msg("failed to clear cart after order")
	}
	o.publish(ctx, o.publisher.OrderPlaced, order)
	return order, nil
}

func (o *OrderService) publish(ctx context.Context, fn func(context.Context, *model.Order) error, order *model.Order) {
	if err := fn(ctx, order); err != nil {
		o.logger.Warn().Err(err).Uint("order_id", order.ID).Msg("failed to publish order event")
	}
}

func (o *OrderService) GetOrder(ctx context.Context, orderID uint) (*model.Order, error) {
	order, err := o.orderRepo.GetOrderByID(ctx, orderID)
	if errors.Is(err, db.ErrNotFound) {
		return nil, ErrOrderNotFound
	}
	if err != nil {
		return nil, err
	}
	return order, nil
}

// GetUserOrder 只能查看自己的訂單
func (o *OrderService) GetUserOrder(ctx context.Context, userID int64, orderID uint) (*model.Order, error) {
	order, err := o.GetOrder(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if order.UserID != userID {
		return nil, ErrForbidden
	}
	return order, nil
}

func (o *OrderService) ListUserOrders(ctx context.Context, userID int64) ([]model.Order, error) {
	return o.orderRepo.GetOrdersByUserID(ctx, userID)
}

// MarkPaid pending -> done, 已付款再呼叫不做事
func (o *OrderService) MarkPaid(ctx context.Context, orderID uint) (*model.Order, error) {
	changed, err := o.orderRepo.TransitionStatus(ctx, orderID, model.OrderStatusPending, model.OrderStatusDone)
	if err != nil {
		return nil, err
	}
	order, err := o.GetOrder(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if !changed && order.Status != model.OrderStatusDone {
		return order, ErrOrderNotPending
	}
	if changed {
		o.publish(ctx, o.publisher.OrderPaid, order)
	}
	return order, nil
}

// Cancel 使用者取消自己 pending 的訂單
func (o *OrderService) Cancel(ctx context.Context, userID int64, orderID uint) (*model.Order, error) {
	order, err := o.GetUserOrder(ctx, userID, orderID)
	if err != nil {
		return nil, err
	}
	changed, err := o.orderRepo.TransitionStatus(ctx, orderID, model.OrderStatusPending, model.OrderStatusCancelled)
	if err != nil {
		return nil, err
	}
	if !changed {
		return order, ErrOrderNotPending
	}
	order.Status = model.OrderStatusCancelled
	o.publish(ctx, o.publisher.OrderCancelled, order)
	return order, nil
}
