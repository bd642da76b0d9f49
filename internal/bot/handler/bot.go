package handler

import (
	"context"
	"errors"
	"fmt"
	"runtime/debug"
	"strings"
	"sync"
	"time"

	"github.com/RoyceAzure/lab/pizzabot/internal/bot/callback"
	"github.com/RoyceAzure/lab/pizzabot/internal/bot/flow"
	"github.com/RoyceAzure/lab/pizzabot/internal/bot/keyboard"
	"github.com/RoyceAzure/lab/pizzabot/internal/domain/validator"
	"github.com/RoyceAzure/lab/pizzabot/internal/infra/limiter"
	"github.com/RoyceAzure/lab/pizzabot/internal/infra/repository/redis_repo"
	"github.com/RoyceAzure/lab/pizzabot/internal/logger"
	"github.com/RoyceAzure/lab/pizzabot/internal/service"
	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/rs/zerolog"
)

// Sender *tgbotapi.BotAPI 實作
type Sender interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
	Request(c tgbotapi.Chattable) (*tgbotapi.APIResponse, error)
}

type SessionStore interface {
	Get(ctx context.Context, userID int64) (*redis_repo.Session, error)
	Save(ctx context.Context, userID int64, session *redis_repo.Session) error
	Clear(ctx context.Context, userID int64) error
}

type Options struct {
	Currency      string
	ProviderToken string
	ContactPhone  string
	InvoiceTTL    time.Duration
}

type Deps struct {
	Sender    Sender
	Users     service.IUserService
	Products  service.IProductService
	Cart      service.ICartService
	Orders    service.IOrderService
	Payments  service.IPaymentService
	Health    *service.HealthService
	Sessions  SessionStore
	OrderFlow *flow.OrderFlow
	Limiter   limiter.ILimiter
	Logger    *zerolog.Logger
}

type Bot struct {
	Deps
	opts Options

	mu     sync.Mutex
	timers map[*time.Timer]struct{}
}

func New(deps Deps, opts Options) *Bot {
	if deps.Sender == nil {
		panic("bot sender is required")
	}
	if deps.Logger == nil {
		deps.Logger = logger.Nop()
	}
	if opts.InvoiceTTL == 0 {
		opts.InvoiceTTL = 10 * time.Minute
	}
	return &Bot{Deps: deps, opts: opts, timers: make(map[*time.Timer]struct{})}
}

// Run 依序處理 update, 直到 ctx 結束或 channel 關閉
func (b *Bot) Run(ctx context.Context, updates <-chan tgbotapi.Update) error {
	b.Logger.Info().Msg("bot started")
	for {
		select {
		case <-ctx.Done():
			b.Logger.Info().Msg("bot stopped")
			return nil
		case update, ok := <-updates:
			if !ok {
				return nil
			}
			b.HandleUpdate(ctx, update)
		}
	}
}

// Close 停止尚未執行的發票刪除
func (b *Bot) Close() {
	b.mu.Lock()
	defer b.mu.Unlock()
	for t := range b.timers {
		t.Stop()
	}
	b.timers = make(map[*time.Timer]struct{})
}

// request 一次 update 的上下文
type request struct {
	ctx        context.Context
	userID     int64
	chatID     int64
	messageID  int
	callbackID string
	answered   bool
	profile    service.Profile
	log        zerolog.Logger
}

func profileOf(u *tgbotapi.User) service.Profile {
	if u == nil {
		return service.Profile{}
	}
	return service.Profile{ID: u.ID, Username: u.UserName, FirstName: u.FirstName, LastName: u.LastName}
}

func sentFrom(update tgbotapi.Update) *tgbotapi.User {
	switch {
	case update.Message != nil:
		return update.Message.From
	case update.CallbackQuery != nil:
		return update.CallbackQuery.From
	case update.PreCheckoutQuery != nil:
		return update.PreCheckoutQuery.From
	}
	return nil
}

func updateKind(update tgbotapi.Update) string {
	switch {
	case update.PreCheckoutQuery != nil:
		return "pre_checkout"
	case update.Message != nil && update.Message.SuccessfulPayment != nil:
		return "successful_payment"
	case update.Message != nil && update.Message.IsCommand():
		return "command"
	case update.Message != nil:
		return "message"
	case update.CallbackQuery != nil:
		return "callback"
	}
	return "other"
}

// HandleUpdate 每個 update 各自 recover
func (b *Bot) HandleUpdate(ctx context.Context, update tgbotapi.Update) {
	kind := updateKind(update)
	log := b.Logger.With().Int("update_id", update.UpdateID).Str("kind", kind).Logger()
	if from := sentFrom(update); from != nil {
		log = log.With().Int64("user_id", from.ID).Logger()
	}

	defer func() {
		if rec := recover(); rec != nil {
			log.Error().Interface("panic", rec).Bytes("stack", debug.Stack()).Msg("panic while handling update")
		}
	}()

	start := time.Now()
	var err error
	switch kind {
	case "pre_checkout":
		err = b.handlePreCheckout(ctx, update.PreCheckoutQuery, log)
	case "successful_payment":
		err = b.handleSuccessfulPayment(b.newMessageRequest(ctx, update.Message, log), update.Message.SuccessfulPayment)
	case "command":
		err = b.handleCommand(b.newMessageRequest(ctx, update.Message, log), update.Message)
	case "message":
		err = b.handleText(b.newMessageRequest(ctx, update.Message, log), update.Message.Text)
	case "callback":
		err = b.handleCallback(ctx, update.CallbackQuery, log)
	default:
		return
	}

	if err != nil {
		log.Error().Err(err).Dur("elapsed", time.Since(start)).Msg("update failed")
		return
	}
	log.Debug().Dur("elapsed", time.Since(start)).Msg("update handled")
}

func (b *Bot) newMessageRequest(ctx context.Context, msg *tgbotapi.Message, log zerolog.Logger) *request {
	r := &request{ctx: ctx, chatID: msg.Chat.ID, log: log}
	if msg.From != nil {
		r.userID = msg.From.ID
		r.profile = profileOf(msg.From)
	}
	return r
}

func (b *Bot) handleCommand(r *request, msg *tgbotapi.Message) error {
	switch msg.Command() {
	case "start", "menu":
		if err := b.Sessions.Clear(r.ctx, r.userID); err != nil {
			return err
		}
		return b.showMainMenu(r)
	case "cancel":
		return b.cancelFlow(r)
	case "skip":
		return b.handleText(r, validator.Skip)
	}
	return b.showMainMenu(r)
}

func (b *Bot) handleCallback(ctx context.Context, q *tgbotapi.CallbackQuery, log zerolog.Logger) error {
	r := &request{
		ctx:        ctx,
		userID:     q.From.ID,
		callbackID: q.ID,
		profile:    profileOf(q.From),
		log:        log,
	}
	if q.Message != nil {
		r.chatID = q.Message.Chat.ID
		r.messageID = q.Message.MessageID
	} else {
		r.chatID = q.From.ID
	}

	if !b.allow(r) {
		return b.answer(r, keyboard.TextTooFast, false)
	}

	cb, err := callback.Decode(q.Data)
	if err != nil {
		log.Warn().Err(err).Str("data", q.Data).Msg("bad callback data")
		return b.answer(r, keyboard.TextUnknownAction, false)
	}
	r.log = log.With().Str("action", string(cb.Action)).Logger()

	err = b.dispatch(r, cb)
	if err != nil && !r.answered {
		_ = b.answer(r, keyboard.TextGenericError, false)
	}
	if !r.answered {
		if aerr := b.answer(r, "", false); aerr != nil {
			r.log.Debug().Err(aerr).Msg("answer callback failed")
		}
	}
	return err
}

// allow limiter 失敗時放行
func (b *Bot) allow(r *request) bool {
	if b.Limiter == nil {
		return true
	}
	ok, err := b.Limiter.Allow(r.ctx, limiter.UserKey(r.userID))
	if err != nil {
		r.log.Warn().Err(err).Msg("rate limiter unavailable")
		return true
	}
	return ok
}

func (b *Bot) dispatch(r *request, cb callback.Callback) error {
	if strings.HasPrefix(string(cb.Action), "adm") {
		ok, err := b.Users.IsAdmin(r.ctx, r.userID)
		if err != nil {
			return err
		}
		if !ok {
			if err := b.answer(r, keyboard.TextNotAdmin, true); err != nil {
				return err
			}
			return b.showMainMenu(r)
		}
		return b.dispatchAdmin(r, cb)
	}

	switch cb.Action {
	case callback.ActionMainMenu:
		if err := b.Sessions.Clear(r.ctx, r.userID); err != nil {
			return err
		}
		return b.showMainMenu(r)
	case callback.ActionCatalog:
		return b.reply(r, keyboard.TextCatalog, keyboard.Catalog())
	case callback.ActionCategory:
		return b.showCategory(r, cb)
	case callback.ActionProductInfo:
		return b.showProductInfo(r, cb)
	case callback.ActionContacts:
		return b.reply(r, keyboard.Contacts(b.opts.ContactPhone), keyboard.BackToMain())
	case callback.ActionNoop:
		return nil

	case callback.ActionAddToCart:
		return b.addToCart(r, cb)
	case callback.ActionCart:
		return b.showCart(r)
	case callback.ActionPlus, callback.ActionMinus, callback.ActionRemove:
		return b.changeCart(r, cb)
	case callback.ActionClearCart:
		return b.clearCart(r)

	case callback.ActionCheckout:
		return b.checkout(r)
	case callback.ActionCancelFlow:
		return b.cancelFlow(r)
	case callback.ActionSkip:
		return b.handleText(r, validator.Skip)
	case callback.ActionEditStreet:
		return b.editStreet(r)

	case callback.ActionOrders:
		return b.showOrders(r)
	case callback.ActionOrder:
		return b.showOrder(r, cb.OrderID)
	case callback.ActionCancelOrder:
		return b.cancelOrder(r, cb.OrderID)
	case callback.ActionPay:
		return b.pay(r, cb.OrderID)
	}
	return fmt.Errorf("%w %q", callback.ErrUnknownAction, cb.Action)
}

// reply callback 時編輯原訊息, 其他情況送新訊息
func (b *Bot) reply(r *request, text string, markup keyboard.Markup) error {
	if r.messageID != 0 {
		edit := tgbotapi.NewEditMessageTextAndMarkup(r.chatID, r.messageID, text, markup)
		if _, err := b.Sender.Send(edit); err != nil {
			if isNotModified(err) {
				return nil
			}
			r.log.Debug().Err(err).Msg("edit failed, sending new message")
		} else {
			return nil
		}
	}
	return b.send(r, text, &markup)
}

func (b *Bot) send(r *request, text string, markup *keyboard.Markup) error {
	msg := tgbotapi.NewMessage(r.chatID, text)
	if markup != nil {
		msg.ReplyMarkup = *markup
	}
	_, err := b.Sender.Send(msg)
	return err
}

func (b *Bot) answer(r *request, text string, alert bool) error {
	if r.callbackID == "" {
		if text == "" {
			return nil
		}
		return b.send(r, text, nil)
	}
	r.answered = true
	cfg := tgbotapi.NewCallback(r.callbackID, text)
	if alert {
		cfg = tgbotapi.NewCallbackWithAlert(r.callbackID, text)
	}
	_, err := b.Sender.Request(cfg)
	return err
}

func isNotModified(err error) bool {
	var tgErr *tgbotapi.Error
	if errors.As(err, &tgErr) {
		return strings.Contains(tgErr.Message, "message is not modified")
	}
	return strings.Contains(err.Error(), "message is not modified")
}

// fail 告知使用者失敗並回到主選單
func (b *Bot) fail(r *request, err error) error {
	r.log.Error().Err(err).Msg("request failed")
	if r.callbackID != "" && !r.answered {
		_ = b.answer(r, keyboard.TextGenericError, true)
	} else {
		_ = b.send(r, keyboard.TextGenericError, nil)
	}
	r.messageID = 0
	return b.showMainMenu(r)
}

// schedule 延遲執行, Close 時取消
func (b *Bot) schedule(d time.Duration, fn func()) {
	b.mu.Lock()
	defer b.mu.Unlock()
	var t *time.Timer
	t = time.AfterFunc(d, func() {
		b.mu.Lock()
		delete(b.timers, t)
		b.mu.Unlock()
		fn()
	})
	b.timers[t] = struct{}{}
}
