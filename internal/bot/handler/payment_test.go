package handler

import (
	"context"
	"time"

	"github.com/RoyceAzure/lab/pizzabot/internal/bot/callback"
	"github.com/RoyceAzure/lab/pizzabot/internal/bot/keyboard"
	"github.com/RoyceAzure/lab/pizzabot/internal/domain/model"
	"github.com/RoyceAzure/lab/pizzabot/internal/service"
	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

func (s *BotTestSuite) lastInvoice() (tgbotapi.InvoiceConfig, bool) {
	s.env.sender.mu.Lock()
	defer s.env.sender.mu.Unlock()
	for i := len(s.env.sender.sent) - 1; i >= 0; i-- {
		if inv, ok := s.env.sender.sent[i].(tgbotapi.InvoiceConfig); ok {
			return inv, true
		}
	}
	return tgbotapi.InvoiceConfig{}, false
}

func (s *BotTestSuite) lastPreCheckout() tgbotapi.PreCheckoutConfig {
	s.env.sender.mu.Lock()
	defer s.env.sender.mu.Unlock()
	for i := len(s.env.sender.requests) - 1; i >= 0; i-- {
		if cfg, ok := s.env.sender.requests[i].(tgbotapi.PreCheckoutConfig); ok {
			return cfg
		}
	}
	return tgbotapi.PreCheckoutConfig{}
}

func (s *BotTestSuite) preCheckout(payload string) {
	s.env.bot.HandleUpdate(context.Background(), tgbotapi.Update{
		UpdateID: 3,
		PreCheckoutQuery: &tgbotapi.PreCheckoutQuery{
			ID:             "pcq",
			From:           user(customerID),
			Currency:       "BYN",
			InvoicePayload: payload,
		},
	})
}

func (s *BotTestSuite) successfulPayment(payload string) {
	s.env.bot.HandleUpdate(context.Background(), tgbotapi.Update{
		UpdateID: 4,
		Message: &tgbotapi.Message{
			MessageID: 5,
			From:      user(customerID),
			Chat:      &tgbotapi.Chat{ID: customerID},
			SuccessfulPayment: &tgbotapi.SuccessfulPayment{
				Currency:       "BYN",
				InvoicePayload: payload,
			},
		},
	})
}

func (s *BotTestSuite) TestPayFlow() {
	order := s.placeOrder()
	payload := service.InvoicePayload(order.ID)

	s.env.press(customerID, callback.New(callback.ActionPay).WithOrder(order.ID))
	invoice, ok := s.lastInvoice()
	s.Require().True(ok)
	s.Equal(payload, invoice.Payload)
	s.Equal("BYN", invoice.Currency)
	s.Equal("provider", invoice.ProviderToken)
	s.True(invoice.NeedName)
	s.True(invoice.NeedPhoneNumber)
	s.Require().Len(invoice.Prices, 1)
	s.Equal(2215, invoice.Prices[0].Amount)

	// 發票逾時後刪除
	s.Eventually(func() bool {
		s.env.sender.mu.Lock()
		defer s.env.sender.mu.Unlock()
		for _, c := range s.env.sender.requests {
			if _, ok := c.(tgbotapi.DeleteMessageConfig); ok {
				return true
			}
		}
		return false
	}, time.Second, 5*time.Millisecond)

	s.preCheckout(payload)
	s.True(s.lastPreCheckout().OK)

	s.successfulPayment(payload)
	s.Contains(s.env.sender.lastText(), keyboard.TextPaid)
	got, err := s.env.orders.GetOrder(context.Background(), order.ID)
	s.Require().NoError(err)
	s.Equal(model.OrderStatusDone, got.Status)

	// 重複通知不影響結果
	s.successfulPayment(payload)
	s.Contains(s.env.sender.lastText(), keyboard.TextPaid)

	s.preCheckout(payload)
	cfg := s.lastPreCheckout()
	s.False(cfg.OK)
	s.Equal(keyboard.TextPayAlreadyPaid, cfg.ErrorMessage)

	s.env.press(customerID, callback.New(callback.ActionPay).WithOrder(order.ID))
	s.Equal(keyboard.TextPayAlreadyPaid, s.env.sender.lastAnswer().Text)
}

func (s *BotTestSuite) TestPreCheckoutRejections() {
	order := s.placeOrder()
	_, err := s.env.orders.Cancel(context.Background(), customerID, order.ID)
	s.Require().NoError(err)

	s.preCheckout(service.InvoicePayload(order.ID))
	s.Equal(keyboard.TextPayCancelled, s.lastPreCheckout().ErrorMessage)

	s.preCheckout("garbage")
	cfg := s.lastPreCheckout()
	s.False(cfg.OK)
	s.Equal(keyboard.TextPayUnknown, cfg.ErrorMessage)

	s.preCheckout(service.InvoicePayload(9999))
	s.Equal(keyboard.TextPayUnknown, s.lastPreCheckout().ErrorMessage)
}
