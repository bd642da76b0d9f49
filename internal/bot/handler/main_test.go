package handler

import (
	"context"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/RoyceAzure/lab/pizzabot/internal/bot/callback"
	"github.com/RoyceAzure/lab/pizzabot/internal/bot/flow"
	"github.com/RoyceAzure/lab/pizzabot/internal/domain/model"
	"github.com/RoyceAzure/lab/pizzabot/internal/infra/producer"
	"github.com/RoyceAzure/lab/pizzabot/internal/infra/repository/db"
	"github.com/RoyceAzure/lab/pizzabot/internal/infra/repository/redis_repo"
	"github.com/RoyceAzure/lab/pizzabot/internal/logger"
	"github.com/RoyceAzure/lab/pizzabot/internal/service"
	"github.com/alicebob/miniredis/v2"
	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
)

const (
	superAdminID int64 = 1000
	customerID   int64 = 42
)

// fakeSender 記錄所有送出的請求
type fakeSender struct {
	mu       sync.Mutex
	sent     []tgbotapi.Chattable
	requests []tgbotapi.Chattable
	nextID   int
}

func (f *fakeSender) Send(c tgbotapi.Chattable) (tgbotapi.Message, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sent = append(f.sent, c)
	f.nextID++
	return tgbotapi.Message{MessageID: f.nextID}, nil
}

func (f *fakeSender) Request(c tgbotapi.Chattable) (*tgbotapi.APIResponse, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.requests = append(f.requests, c)
	return &tgbotapi.APIResponse{Ok: true}, nil
}

func (f *fakeSender) reset() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sent = nil
	f.requests = nil
}

// lastText 最後一則送出或編輯的文字
func (f *fakeSender) lastText() string {
	f.mu.Lock()
	defer f.mu.Unlock()
	for i := len(f.sent) - 1; i >= 0; i-- {
		switch c := f.sent[i].(type) {
		case tgbotapi.MessageConfig:
			return c.Text
		case tgbotapi.EditMessageTextConfig:
			return c.Text
		}
	}
	return ""
}

func (f *fakeSender) texts() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []string
	for _, c := range f.sent {
		switch c := c.(type) {
		case tgbotapi.MessageConfig:
			out = append(out, c.Text)
		case tgbotapi.EditMessageTextConfig:
			out = append(out, c.Text)
		}
	}
	return out
}

func (f *fakeSender) callbackAnswers() []tgbotapi.CallbackConfig {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []tgbotapi.CallbackConfig
	for _, c := range f.requests {
		if cb, ok := c.(tgbotapi.CallbackConfig); ok {
			out = append(out, cb)
		}
	}
	return out
}

func (f *fakeSender) lastAnswer() tgbotapi.CallbackConfig {
	answers := f.callbackAnswers()
	if len(answers) == 0 {
		return tgbotapi.CallbackConfig{}
	}
	return answers[len(answers)-1]
}

type stubLimiter struct {
	allow bool
	err   error
	panic bool
}

func (l *stubLimiter) Allow(_ context.Context, _ string) (bool, error) {
	if l.panic {
		panic("limiter exploded")
	}
	return l.allow, l.err
}

type testEnv struct {
	sender   *fakeSender
	limiter  *stubLimiter
	bot      *Bot
	sessions *redis_repo.SessionRepo

	cart     *service.CartService
	orders   *service.OrderService
	users    *service.UserService
	products *service.ProductService

	pepperoni model.Product
	cola      model.Product
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	conn, err := db.GetDbConn(":memory:")
	require.NoError(t, err)
	dao := db.NewDbDao(conn)
	require.NoError(t, dao.InitMigrate())
	t.Cleanup(func() { _ = dao.Close() })

	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })

	log := logger.Nop()
	productRepo := db.NewProductRepo(dao)
	env := &testEnv{
		sender:   &fakeSender{},
		limiter:  &stubLimiter{allow: true},
		sessions: redis_repo.NewSessionRepo(rdb),
	}
	env.cart = service.NewCartService(redis_repo.NewCartRepo(rdb), productRepo, log)
	env.orders = service.NewOrderService(db.NewOrderRepo(dao), env.cart, producer.NoopPublisher{}, log)
	env.users = service.NewUserService(db.NewUserRepo(dao), superAdminID, log)
	env.products = service.NewProductService(productRepo)

	health := service.NewHealthService(time.Second).
		Register("database", dao).
		Register("redis", service.PingFunc(func(ctx context.Context) error { return rdb.Ping(ctx).Err() }))

	env.bot = New(Deps{
		Sender:    env.sender,
		Users:     env.users,
		Products:  env.products,
		Cart:      env.cart,
		Orders:    env.orders,
		Payments:  service.NewPaymentService(env.orders, productRepo, "BYN"),
		Health:    health,
		Sessions:  env.sessions,
		OrderFlow: flow.NewOrderFlow(nil, log),
		Limiter:   env.limiter,
		Logger:    log,
	}, Options{Currency: "BYN", ProviderToken: "provider", ContactPhone: "+375291234567", InvoiceTTL: 20 * time.Millisecond})
	t.Cleanup(env.bot.Close)

	env.pepperoni = env.createProduct(t, "Pepperoni", model.CategoryPizza, "22.15", "30.55")
	env.cola = env.createProduct(t, "Coca-Cola", model.CategoryDrink, "1.95", "")
	return env
}

func (env *testEnv) createProduct(t *testing.T, name string, category model.Category, small, large string) model.Product {
	p := model.Product{Name: name, PriceSmall: decimal.RequireFromString(small)}
	p.ApplyCategory(category)
	if large != "" {
		p.PriceLarge = decimal.NewNullDecimal(decimal.RequireFromString(large))
	}
	require.NoError(t, env.products.Create(context.Background(), &p))
	return p
}

func user(id int64) *tgbotapi.User {
	return &tgbotapi.User{ID: id, FirstName: "Ivan", UserName: "ivan"}
}

func textUpdate(userID int64, text string) tgbotapi.Update {
	msg := &tgbotapi.Message{
		MessageID: 1,
		From:      user(userID),
		Chat:      &tgbotapi.Chat{ID: userID},
		Text:      text,
	}
	if strings.HasPrefix(text, "/") {
		msg.Entities = []tgbotapi.MessageEntity{{Type: "bot_command", Offset: 0, Length: len(strings.Fields(text)[0])}}
	}
	return tgbotapi.Update{UpdateID: 1, Message: msg}
}

func callbackUpdate(userID int64, cb callback.Callback) tgbotapi.Update {
	return rawCallbackUpdate(userID, cb.MustEncode())
}

func rawCallbackUpdate(userID int64, data string) tgbotapi.Update {
	return tgbotapi.Update{
		UpdateID: 2,
		CallbackQuery: &tgbotapi.CallbackQuery{
			ID:      "cq",
			From:    user(userID),
			Message: &tgbotapi.Message{MessageID: 77, Chat: &tgbotapi.Chat{ID: userID}},
			Data:    data,
		},
	}
}

func (env *testEnv) text(userID int64, text string) {
	env.bot.HandleUpdate(context.Background(), textUpdate(userID, text))
}

func (env *testEnv) press(userID int64, cb callback.Callback) {
	env.bot.HandleUpdate(context.Background(), callbackUpdate(userID, cb))
}

func (env *testEnv) addToCart(t *testing.T, userID int64, p model.Product, size model.Size) {
	_, err := env.cart.AddProduct(context.Background(), userID, p.ID, size)
	require.NoError(t, err)
}

func (env *testEnv) session(t *testing.T, userID int64) *redis_repo.Session {
	sess, err := env.sessions.Get(context.Background(), userID)
	require.NoError(t, err)
	return sess
}
