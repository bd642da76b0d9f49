package handler

import (
	"context"
	"errors"

	"github.com/RoyceAzure/lab/pizzabot/internal/bot/keyboard"
	"github.com/RoyceAzure/lab/pizzabot/internal/service"
	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/rs/zerolog"
)

// payRejection 付款不可進行時給使用者的說明
func payRejection(err error) (string, bool) {
	switch {
	case errors.Is(err, service.ErrOrderAlreadyPaid):
		return keyboard.TextPayAlreadyPaid, true
	case errors.Is(err, service.ErrOrderCancelled):
		return keyboard.TextPayCancelled, true
	case errors.Is(err, service.ErrOrderNotFound), errors.Is(err, service.ErrForbidden),
		errors.Is(err, service.ErrInvalidPayload), errors.Is(err, service.ErrOrderNotPending):
		return keyboard.TextPayUnknown, true
	}
	return "", false
}

// pay 送出發票, 一段時間後刪除
func (b *Bot) pay(r *request, orderID uint) error {
	invoice, err := b.Payments.BuildInvoice(r.ctx, r.userID, orderID)
	if err != nil {
		if msg, ok := payRejection(err); ok {
			return b.answer(r, msg, true)
		}
		return err
	}

	prices := make([]tgbotapi.LabeledPrice, 0, len(invoice.Prices))
	for _, p := range invoice.Prices {
		prices = append(prices, tgbotapi.LabeledPrice{Label: p.Label, Amount: p.Amount})
	}
	// suggested_tip_amounts 必須是陣列, nil 會被序列化成 null
	cfg := tgbotapi.InvoiceConfig{
		BaseChat:            tgbotapi.BaseChat{ChatID: r.chatID},
		Title:               invoice.Title,
		Description:         invoice.Description,
		Payload:             invoice.Payload,
		ProviderToken:       b.opts.ProviderToken,
		StartParameter:      invoice.Payload,
		Currency:            invoice.Currency,
		Prices:              prices,
		NeedName:            true,
		NeedPhoneNumber:     true,
		SuggestedTipAmounts: []int{},
	}

	sent, err := b.Sender.Send(cfg)
	if err != nil {
		return err
	}
	r.log.Info().Uint("order_id", orderID).Int("message_id", sent.MessageID).Msg("invoice sent")

	chatID, messageID, log := r.chatID, sent.MessageID, r.log
	b.schedule(b.opts.InvoiceTTL, func() {
		if _, err := b.Sender.Request(tgbotapi.NewDeleteMessage(chatID, messageID)); err != nil {
			log.Debug().Err(err).Int("message_id", messageID).Msg("failed to delete invoice")
		}
	})
	return nil
}

// handlePreCheckout 只有 pending 的訂單可以付款
func (b *Bot) handlePreCheckout(ctx context.Context, q *tgbotapi.PreCheckoutQuery, log zerolog.Logger) error {
	cfg := tgbotapi.PreCheckoutConfig{PreCheckoutQueryID: q.ID, OK: true}

	err := b.Payments.CheckPreCheckout(ctx, q.InvoicePayload)
	if err != nil {
		msg, ok := payRejection(err)
		if !ok {
			log.Error().Err(err).Str("payload", q.InvoicePayload).Msg("pre-checkout check failed")
			msg = keyboard.TextPayUnknown
		} else {
			log.Info().Err(err).Str("payload", q.InvoicePayload).Msg("pre-checkout rejected")
		}
		cfg.OK = false
		cfg.ErrorMessage = msg
	}

	_, err = b.Sender.Request(cfg)
	return err
}

func (b *Bot) handleSuccessfulPayment(r *request, payment *tgbotapi.SuccessfulPayment) error {
	order, err := b.Payments.ConfirmPayment(r.ctx, payment.InvoicePayload)
	if err != nil {
		r.log.Error().Err(err).Str("payload", payment.InvoicePayload).Msg("failed to confirm payment")
		msg, ok := payRejection(err)
		if !ok {
			msg = keyboard.TextGenericError
		}
		markup := keyboard.BackToMain()
		return b.send(r, msg, &markup)
	}
	r.log.Info().Uint("order_id", order.ID).Msg("order paid")

	text, err := b.orderText(r, order)
	if err != nil {
		return err
	}
	markup := keyboard.BackToMain()
	return b.send(r, keyboard.TextPaid+"\n\n"+text, &markup)
}
