package handler

import (
	"errors"

	"github.com/RoyceAzure/lab/pizzabot/internal/bot/callback"
	"github.com/RoyceAzure/lab/pizzabot/internal/bot/flow"
	"github.com/RoyceAzure/lab/pizzabot/internal/bot/keyboard"
	"github.com/RoyceAzure/lab/pizzabot/internal/domain/model"
	"github.com/RoyceAzure/lab/pizzabot/internal/domain/validator"
	"github.com/RoyceAzure/lab/pizzabot/internal/infra/repository/redis_repo"
	"github.com/RoyceAzure/lab/pizzabot/internal/service"
)

const (
	textOrderMissing   = "Order not found."
	textNotCancellable = "This order can no longer be cancelled."
	textOrderCancelled = "✖️ Order cancelled."
)

// checkout 購物車為空時不進入下單流程
func (b *Bot) checkout(r *request) error {
	items, err := b.Cart.Items(r.ctx, r.userID)
	if err != nil {
		return err
	}
	if len(items) == 0 {
		return b.reply(r, keyboard.TextCartEmpty, keyboard.Cart(nil))
	}
	sess := b.OrderFlow.Start()
	if err := b.Sessions.Save(r.ctx, r.userID, sess); err != nil {
		return err
	}
	return b.prompt(r, sess, "")
}

// prompt 顯示目前階段的提示與按鈕
func (b *Bot) prompt(r *request, sess *redis_repo.Session, notice string) error {
	stage := flow.Stage(sess.Stage)
	text := flow.Prompt(stage)
	if notice != "" {
		text = notice + "\n\n" + text
	}
	if stage == flow.StageProductCategory {
		return b.reply(r, text, keyboard.Categories(callback.ActionAdminCategory, 0))
	}
	editStreet := sess.Flow == string(flow.FlowOrder) && sess.Get("street") != ""
	return b.reply(r, text, keyboard.FlowControls(flow.Skippable(stage), editStreet))
}

// handleText 依目前對話流程分派文字輸入
func (b *Bot) handleText(r *request, text string) error {
	sess, err := b.Sessions.Get(r.ctx, r.userID)
	if errors.Is(err, redis_repo.ErrSessionNotFound) {
		return b.showMainMenu(r)
	}
	if err != nil {
		return b.fail(r, err)
	}

	switch flow.Name(sess.Flow) {
	case flow.FlowOrder:
		err = b.advanceOrder(r, sess, text)
	case flow.FlowProduct, flow.FlowEditProduct, flow.FlowNewAdmin:
		err = b.advanceAdmin(r, sess, text)
	default:
		r.log.Warn().Str("flow", sess.Flow).Msg("unknown session flow")
		if err := b.Sessions.Clear(r.ctx, r.userID); err != nil {
			return err
		}
		return b.showMainMenu(r)
	}
	if err != nil {
		return b.fail(r, err)
	}
	return nil
}

// retry 驗證失敗時重新提示同一階段, 其他錯誤往上傳
func (b *Bot) retry(r *request, sess *redis_repo.Session, err error) error {
	msg, ok := validator.UserMessage(err)
	if !ok {
		return err
	}
	r.messageID = 0
	return b.prompt(r, sess, "❗ "+msg)
}

func (b *Bot) advanceOrder(r *request, sess *redis_repo.Session, text string) error {
	t, err := b.OrderFlow.Advance(r.ctx, sess, text)
	if err != nil {
		return b.retry(r, sess, err)
	}
	if t.Done {
		return b.finalizeOrder(r, sess)
	}
	if err := b.Sessions.Save(r.ctx, r.userID, sess); err != nil {
		return err
	}
	notice := ""
	if t.Warning != "" {
		notice = t.Warning + "\nStreet: " + sess.Get("street")
	}
	r.messageID = 0
	return b.prompt(r, sess, notice)
}

func (b *Bot) editStreet(r *request) error {
	sess, err := b.Sessions.Get(r.ctx, r.userID)
	if errors.Is(err, redis_repo.ErrSessionNotFound) || (err == nil && sess.Flow != string(flow.FlowOrder)) {
		return b.showCart(r)
	}
	if err != nil {
		return err
	}
	b.OrderFlow.EditStreet(sess)
	if err := b.Sessions.Save(r.ctx, r.userID, sess); err != nil {
		return err
	}
	return b.prompt(r, sess, "")
}

// cancelFlow 下單流程回到購物車, 管理流程回到管理面板
func (b *Bot) cancelFlow(r *request) error {
	sess, err := b.Sessions.Get(r.ctx, r.userID)
	if err != nil && !errors.Is(err, redis_repo.ErrSessionNotFound) {
		return err
	}
	if err := b.Sessions.Clear(r.ctx, r.userID); err != nil {
		return err
	}
	if sess == nil {
		return b.showMainMenu(r)
	}
	if sess.Flow == string(flow.FlowOrder) {
		return b.showCart(r)
	}
	return b.reply(r, keyboard.TextFlowCancelled+"\n\n"+keyboard.TextAdminPanel, keyboard.AdminPanel())
}

// finalizeOrder 建立訂單並清空購物車與對話
func (b *Bot) finalizeOrder(r *request, sess *redis_repo.Session) error {
	order, err := b.Orders.PlaceOrder(r.ctx, r.userID, flow.Form(sess))
	if clearErr := b.Sessions.Clear(r.ctx, r.userID); clearErr != nil {
		r.log.Warn().Err(clearErr).Msg("failed to clear session")
	}
	if errors.Is(err, service.ErrCartEmpty) {
		r.messageID = 0
		return b.reply(r, keyboard.TextCartEmpty, keyboard.Cart(nil))
	}
	if err != nil {
		return err
	}
	r.log.Info().Uint("order_id", order.ID).Str("amount", order.Amount.StringFixed(2)).Msg("order placed")

	text, err := b.orderText(r, order)
	if err != nil {
		return err
	}
	r.messageID = 0
	return b.reply(r, keyboard.TextOrderPlaced+"\n\n"+text, keyboard.Order(order))
}

func (b *Bot) orderText(r *request, order *model.Order) (string, error) {
	ids := make([]uint, 0, len(order.OrderItems))
	for _, item := range order.OrderItems {
		ids = append(ids, item.ProductID)
	}
	products, err := b.Products.ByIDs(r.ctx, ids)
	if err != nil {
		return "", err
	}
	return keyboard.OrderText(order, products, b.opts.Currency), nil
}

func (b *Bot) showOrders(r *request) error {
	orders, err := b.Orders.ListUserOrders(r.ctx, r.userID)
	if err != nil {
		return err
	}
	if len(orders) == 0 {
		return b.reply(r, keyboard.TextNoOrders, keyboard.BackToMain())
	}
	return b.reply(r, keyboard.TextOrdersTitle, keyboard.Orders(orders, b.opts.Currency))
}

func (b *Bot) showOrder(r *request, orderID uint) error {
	order, err := b.Orders.GetUserOrder(r.ctx, r.userID, orderID)
	if errors.Is(err, service.ErrOrderNotFound) || errors.Is(err, service.ErrForbidden) {
		return b.answer(r, textOrderMissing, true)
	}
	if err != nil {
		return err
	}
	text, err := b.orderText(r, order)
	if err != nil {
		return err
	}
	return b.reply(r, text, keyboard.Order(order))
}

func (b *Bot) cancelOrder(r *request, orderID uint) error {
	_, err := b.Orders.Cancel(r.ctx, r.userID, orderID)
	switch {
	case errors.Is(err, service.ErrOrderNotFound), errors.Is(err, service.ErrForbidden):
		return b.answer(r, textOrderMissing, true)
	case errors.Is(err, service.ErrOrderNotPending):
		if err := b.answer(r, textNotCancellable, true); err != nil {
			return err
		}
	case err != nil:
		return err
	default:
		r.log.Info().Uint("order_id", orderID).Msg("order cancelled")
		if err := b.answer(r, textOrderCancelled, false); err != nil {
			return err
		}
	}
	return b.showOrder(r, orderID)
}
