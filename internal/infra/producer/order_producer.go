package producer

import (
	"context"
	"encoding/binary"
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"github.com/RoyceAzure/lab/pizzabot/internal/domain/model"
	"github.com/segmentio/kafka-go"
	"github.com/shopspring/decimal"
)

type OrderEventType string

var (
	OrderEventPlaced    OrderEventType = "order.placed"
	OrderEventPaid      OrderEventType = "order.paid"
	OrderEventCancelled OrderEventType = "order.cancelled"
)

type OrderEvent struct {
	Type      OrderEventType    `json:"type"`
	OrderID   uint              `json:"order_id"`
	UserID    int64             `json:"user_id"`
	Amount    decimal.Decimal   `json:"amount"`
	Status    model.OrderStatus `json:"status"`
	Items     []model.OrderItem `json:"items,omitempty"`
	Timestamp int64             `json:"timestamp"`
}

type OrderEventPublisher interface {
	OrderPlaced(ctx context.Context, order *model.Order) error
	OrderPaid(ctx context.Context, order *model.Order) error
	OrderCancelled(ctx context.Context, order *model.Order) error
	Close() error
}

// MessageWriter *kafka.Writer 實作
type MessageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

func NewKafkaWriter(brokers []string, topic string) *kafka.Writer {
	return &kafka.Writer{
		Addr:         kafka.TCP(brokers...),
		Topic:        topic,
		Balancer:     &kafka.Hash{},
		BatchTimeout: 100 * time.Millisecond,
		RequiredAcks: kafka.RequireAll,
		// 設置較短的超時時間以快速發現問題
		WriteTimeout: 5 * time.Second,
		MaxAttempts:  3,
	}
}

type OrderProducer struct {
	writer MessageWriter
	now    func() time.Time
}

func NewOrderProducer(writer MessageWriter) *OrderProducer {
	return &OrderProducer{writer: writer, now: time.Now}
}

func (p *OrderProducer) OrderPlaced(ctx context.Context, order *model.Order) error {
	return p.publish(ctx, OrderEventPlaced, order)
}

func (p *OrderProducer) OrderPaid(ctx context.Context, order *model.Order) error {
	return p.publish(ctx, OrderEventPaid, order)
}

func (p *OrderProducer) OrderCancelled(ctx context.Context, order *model.Order) error {
	return p.publish(ctx, OrderEventCancelled, order)
}

func (p *OrderProducer) Close() error {
	return p.writer.Close()
}

func (p *OrderProducer) publish(ctx context.Context, eventType OrderEventType, order *model.Order) error {
	msg, err := p.convertToMessage(eventType, order)
	if err != nil {
		return err
	}
	if err := p.writer.WriteMessages(ctx, msg); err != nil {
		return fmt.Errorf("publish %s for order %d: %w", eventType, order.ID, err)
	}
	return nil
}

// 同一張訂單用同一個 key, 確保落在同一個 partition
func (p *OrderProducer) convertToMessage(eventType OrderEventType, order *model.Order) (kafka.Message, error) {
	timestamp := p.now().UnixNano()
	event := OrderEvent{
		Type:      eventType,
		OrderID:   order.ID,
		UserID:    order.UserID,
		Amount:    order.Amount,
		Status:    order.Status,
		Timestamp: timestamp,
	}
	if eventType == OrderEventPlaced {
		event.Items = order.OrderItems
	}

	value, err := json.Marshal(event)
	if err != nil {
		return kafka.Message{}, err
	}

	ts := make([]byte, 8)
	binary.BigEndian.PutUint64(ts, uint64(timestamp))

	return kafka.Message{
		Key:   []byte(strconv.FormatUint(uint64(order.ID), 10)),
		Value: value,
		Headers: []kafka.Header{
			{Key: "event_type", Value: []byte(eventType)},
			{Key: "timestamp", Value: ts},
		},
	}, nil
}

// NoopPublisher 沒有設定 broker 時使用
type NoopPublisher struct{}

func (NoopPublisher) OrderPlaced(context.Context, *model.Order) error    { return nil }
func (NoopPublisher) OrderPaid(context.Context, *model.Order) error      { return nil }
func (NoopPublisher) OrderCancelled(context.Context, *model.Order) error { return nil }
func (NoopPublisher) Close() error                                       { return nil }

// NewOrderEventPublisher 依 broker 設定決定使用 kafka 或 noop
func NewOrderEventPublisher(brokers []string, topic string) OrderEventPublisher {
	if len(brokers) == 0 || topic == "" {
		return NoopPublisher{}
	}
	return NewOrderProducer(NewKafkaWriter(brokers, topic))
}
