package handler

import (
	"errors"

	"github.com/RoyceAzure/lab/pizzabot/internal/bot/callback"
	"github.com/RoyceAzure/lab/pizzabot/internal/bot/keyboard"
	"github.com/RoyceAzure/lab/pizzabot/internal/service"
)

// 商品資訊以 alert 顯示, Telegram 限制 200 字
const maxAlertLen = 200

// showMainMenu 同時註冊或更新使用者
func (b *Bot) showMainMenu(r *request) error {
	user, err := b.Users.Register(r.ctx, r.profile)
	if err != nil {
		return err
	}
	return b.reply(r, keyboard.TextWelcome, keyboard.MainMenu(user.IsAdmin))
}

func (b *Bot) showCategory(r *request, cb callback.Callback) error {
	products, err := b.Products.ListPage(r.ctx, cb.Category)
	if err != nil {
		return err
	}
	text := keyboard.CategoryTitle(cb.Category)
	if len(products) == 0 {
		text += "\n\nNothing here yet."
	}
	return b.reply(r, text, keyboard.CategoryProducts(products, b.opts.Currency))
}

func (b *Bot) showProductInfo(r *request, cb callback.Callback) error {
	product, err := b.Products.Get(r.ctx, cb.ProductID)
	if errors.Is(err, service.ErrProductNotFound) {
		return b.answer(r, keyboard.TextProductGone, true)
	}
	if err != nil {
		return err
	}
	return b.answer(r, truncate(keyboard.ProductInfo(product), maxAlertLen), true)
}

func truncate(s string, max int) string {
	runes := []rune(s)
	if len(runes) <= max {
		return s
	}
	return string(runes[:max-1]) + "…"
}
