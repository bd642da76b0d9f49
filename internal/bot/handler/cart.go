package handler

import (
	"errors"
	"fmt"

	"github.com/RoyceAzure/lab/pizzabot/internal/bot/callback"
	"github.com/RoyceAzure/lab/pizzabot/internal/bot/keyboard"
	"github.com/RoyceAzure/lab/pizzabot/internal/service"
)

func (b *Bot) addToCart(r *request, cb callback.Callback) error {
	qty, err := b.Cart.AddProduct(r.ctx, r.userID, cb.ProductID, cb.Size)
	if errors.Is(err, service.ErrProductNotFound) || errors.Is(err, service.ErrSizeUnavailable) {
		return b.answer(r, keyboard.TextProductGone, true)
	}
	if err != nil {
		return err
	}
	text := fmt.Sprintf("🛒 Added to cart (%d in cart)", qty)
	if total, ok := b.cartAmount(r); ok {
		text += ", total " + total
	}
	return b.answer(r, text, false)
}

// cartAmount 快取金額只用於提示, 讀取失敗時不顯示
func (b *Bot) cartAmount(r *request) (string, bool) {
	amount, err := b.Cart.Amount(r.ctx, r.userID)
	if err != nil {
		r.log.Warn().Err(err).Msg("failed to read cart amount")
		return "", false
	}
	return keyboard.Money(amount, b.opts.Currency), true
}

func (b *Bot) showCart(r *request) error {
	items, err := b.Cart.Items(r.ctx, r.userID)
	if err != nil {
		return err
	}
	if len(items) == 0 {
		return b.reply(r, keyboard.TextCartEmpty, keyboard.Cart(nil))
	}
	return b.reply(r, keyboard.CartText(items, b.opts.Currency), keyboard.Cart(items))
}

func (b *Bot) changeCart(r *request, cb callback.Callback) error {
	var err error
	switch cb.Action {
	case callback.ActionPlus:
		_, err = b.Cart.Plus(r.ctx, r.userID, cb.ProductID, cb.Size)
	case callback.ActionMinus:
		_, err = b.Cart.Minus(r.ctx, r.userID, cb.ProductID, cb.Size)
	case callback.ActionRemove:
		err = b.Cart.Remove(r.ctx, r.userID, cb.ProductID, cb.Size)
	}
	if errors.Is(err, service.ErrProductNotFound) || errors.Is(err, service.ErrSizeUnavailable) {
		if err := b.answer(r, keyboard.TextProductGone, false); err != nil {
			return err
		}
	} else if err != nil {
		return err
	} else if total, ok := b.cartAmount(r); ok {
		if err := b.answer(r, "🛒 Cart total: "+total, false); err != nil {
			return err
		}
	}
	return b.showCart(r)
}

func (b *Bot) clearCart(r *request) error {
	if err := b.Cart.Clear(r.ctx, r.userID); err != nil {
		return err
	}
	return b.showCart(r)
}
