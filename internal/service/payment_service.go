package service

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/RoyceAzure/lab/pizzabot/internal/domain/model"
	"github.com/RoyceAzure/lab/pizzabot/internal/infra/repository/db"
)

const payloadPrefix = "order_"

type LabeledPrice struct {
	Label  string
	Amount int // 最小貨幣單位
}

type Invoice struct {
	OrderID     uint
	Title       string
	Description string
	Payload     string
	Currency    string
	Prices      []LabeledPrice
}

type IPaymentService interface {
	BuildInvoice(ctx context.Context, userID int64, orderID uint) (*Invoice, error)
	CheckPreCheckout(ctx context.Context, payload string) error
	ConfirmPayment(ctx context.Context, payload string) (*model.Order, error)
}

type PaymentService struct {
	orders      IOrderService
	productRepo db.IProductRepository
	currency    string
}

func NewPaymentService(orders IOrderService, productRepo db.IProductRepository, currency string) *PaymentService {
	return &PaymentService{orders: orders, productRepo: productRepo, currency: currency}
}

func InvoicePayload(orderID uint) string {
	return fmt.Sprintf("%s%d", payloadPrefix, orderID)
}

func ParseInvoicePayload(payload string) (uint, error) {
	if !strings.HasPrefix(payload, payloadPrefix) {
		return 0, ErrInvalidPayload
	}
	id, err := strconv.ParseUint(strings.TrimPrefix(payload, payloadPrefix), 10, 64)
	if err != nil || id == 0 {
		return 0, ErrInvalidPayload
	}
	return uint(id), nil
}

// statusError pending 以外的狀態不能付款
func statusError(order *model.Order) error {
	switch order.Status {
	case model.OrderStatusPending:
		return nil
	case model.OrderStatusDone:
		return ErrOrderAlreadyPaid
	case model.OrderStatusCancelled:
		return ErrOrderCancelled
	}
	return ErrOrderNotPending
}

// BuildInvoice 每個明細一行價格
func (p *PaymentService) BuildInvoice(ctx context.Context, userID int64, orderID uint) (*Invoice, error) {
	order, err := p.orders.GetUserOrder(ctx, userID, orderID)
	if err != nil {
		return nil, err
	}
	if err := statusError(order); err != nil {
		return nil, err
	}

	ids := make([]uint, 0, len(order.OrderItems))
	for _, item := range order.OrderItems {
		ids = append(ids, item.ProductID)
	}
	products, err := p.productRepo.GetProductsByIDs(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("load invoice products: %w", err)
	}
	byID := make(map[uint]model.Product, len(products))
	for _, product := range products {
		byID[product.ID] = product
	}

	invoice := &Invoice{
		OrderID:     order.ID,
		Title:       fmt.Sprintf("Order #%d", order.ID),
		Description: fmt.Sprintf("Payment for order #%d, total %s %s", order.ID, order.Amount.StringFixed(2), p.currency),
		Payload:     InvoicePayload(order.ID),
		Currency:    p.currency,
		Prices:      make([]LabeledPrice, 0, len(order.OrderItems)),
	}
	for _, item := range order.OrderItems {
		invoice.Prices = append(invoice.Prices, LabeledPrice{
			Label:  itemLabel(byID, item),
			Amount: int(ToCents(item.Total())),
		})
	}
	return invoice, nil
}

func itemLabel(products map[uint]model.Product, item model.OrderItem) string {
	product, ok := products[item.ProductID]
	if !ok {
		return fmt.Sprintf("Product #%d x%d", item.ProductID, item.Quantity)
	}
	label := product.Name
	if size := product.SizeText(item.Size); size != "" {
		label = fmt.Sprintf("%s (%s)", label, size)
	}
	return fmt.Sprintf("%s x%d", label, item.Quantity)
}

// CheckPreCheckout 只有 pending 的訂單可以付款
func (p *PaymentService) CheckPreCheckout(ctx context.Context, payload string) error {
	orderID, err := ParseInvoicePayload(payload)
	if err != nil {
		return err
	}
	order, err := p.orders.GetOrder(ctx, orderID)
	if err != nil {
		return err
	}
	return statusError(order)
}

// ConfirmPayment 付款成功, 重複通知不影響結果
func (p *PaymentService) ConfirmPayment(ctx context.Context, payload string) (*model.Order, error) {
	orderID, err := ParseInvoicePayload(payload)
	if err != nil {
		return nil, err
	}
	order, err := p.orders.MarkPaid(ctx, orderID)
	if err != nil {
		if errors.Is(err, ErrOrderNotPending) && order != nil {
			return order, statusError(order)
		}
		return nil, err
	}
	return order, nil
}
