package handler

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/RoyceAzure/lab/pizzabot/internal/bot/callback"
	"github.com/RoyceAzure/lab/pizzabot/internal/bot/flow"
	"github.com/RoyceAzure/lab/pizzabot/internal/bot/keyboard"
	"github.com/RoyceAzure/lab/pizzabot/internal/domain/model"
	"github.com/RoyceAzure/lab/pizzabot/internal/infra/repository/redis_repo"
	"github.com/RoyceAzure/lab/pizzabot/internal/service"
	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
)

type BotTestSuite struct {
	suite.Suite
	env *testEnv
}

func (s *BotTestSuite) SetupTest() {
	s.env = newTestEnv(s.T())
}

func TestBotTestSuite(t *testing.T) {
	suite.Run(t, new(BotTestSuite))
}

func (s *BotTestSuite) TestStartRegistersUser() {
	s.env.text(customerID, "/start")

	s.Equal(keyboard.TextWelcome, s.env.sender.lastText())
	u, err := s.env.users.GetUser(context.Background(), customerID)
	s.Require().NoError(err)
	s.Equal("Ivan", u.FirstName)
	s.False(u.IsAdmin)
}

func (s *BotTestSuite) TestUnknownTextShowsMainMenu() {
	s.env.text(customerID, "hello")
	s.Equal(keyboard.TextWelcome, s.env.sender.lastText())
}

func (s *BotTestSuite) TestUnknownCallbackIsAnswered() {
	s.env.bot.HandleUpdate(context.Background(), rawCallbackUpdate(customerID, "bogus:p=1"))

	answer := s.env.sender.lastAnswer()
	s.Equal("cq", answer.CallbackQueryID)
	s.Equal(keyboard.TextUnknownAction, answer.Text)
}

func (s *BotTestSuite) TestRateLimited() {
	s.env.limiter.allow = false
	s.env.press(customerID, callback.New(callback.ActionCart))

	s.Equal(keyboard.TextTooFast, s.env.sender.lastAnswer().Text)
	s.Empty(s.env.sender.texts())
}

func (s *BotTestSuite) TestLimiterErrorFailsOpen() {
	s.env.limiter.err = errors.New("redis down")
	s.env.press(customerID, callback.New(callback.ActionCart))

	s.Equal(keyboard.TextCartEmpty, s.env.sender.lastText())
}

func (s *BotTestSuite) TestPanicIsRecovered() {
	s.env.limiter.panic = true
	s.NotPanics(func() {
		s.env.press(customerID, callback.New(callback.ActionCart))
	})
}

func (s *BotTestSuite) TestCategoryListsProducts() {
	s.env.press(customerID, callback.New(callback.ActionCategory).WithCategory(model.CategoryPizza))

	sent := s.env.sender.sent
	s.Require().NotEmpty(sent)
	edit, ok := sent[len(sent)-1].(tgbotapi.EditMessageTextConfig)
	s.Require().True(ok)
	s.Equal(77, edit.MessageID)
	s.Equal(keyboard.CategoryTitle(model.CategoryPizza), edit.Text)
	s.Require().NotNil(edit.ReplyMarkup)
	s.Equal(s.env.pepperoni.Title()+" ℹ️", edit.ReplyMarkup.InlineKeyboard[0][0].Text)
}

func (s *BotTestSuite) TestProductInfoAlert() {
	s.env.press(customerID, callback.New(callback.ActionProductInfo).WithProduct(s.env.pepperoni.ID, ""))

	answer := s.env.sender.lastAnswer()
	s.True(answer.ShowAlert)
	s.Contains(answer.Text, "Pepperoni")
	s.LessOrEqual(len([]rune(answer.Text)), maxAlertLen)
}

func (s *BotTestSuite) TestProductInfoMissingProduct() {
	s.env.press(customerID, callback.New(callback.ActionProductInfo).WithProduct(999, ""))
	s.Equal(keyboard.TextProductGone, s.env.sender.lastAnswer().Text)
}

func (s *BotTestSuite) TestContacts() {
	s.env.press(customerID, callback.New(callback.ActionContacts))
	s.Contains(s.env.sender.lastText(), "+375291234567")
}

func TestTruncate(t *testing.T) {
	assert.Equal(t, "abc", truncate("abc", 5))
	assert.Equal(t, "ab…", truncate("abcdef", 3))
	assert.Equal(t, "пи…", truncate("пицца", 3))
}

func TestIsNotModified(t *testing.T) {
	assert.True(t, isNotModified(&tgbotapi.Error{Code: 400, Message: "Bad Request: message is not modified"}))
	assert.False(t, isNotModified(errors.New("chat not found")))
}

func TestRunStopsOnContextCancel(t *testing.T) {
	env := newTestEnv(t)
	ctx, cancel := context.WithCancel(context.Background())
	updates := make(chan tgbotapi.Update, 1)
	updates <- textUpdate(customerID, "/start")

	done := make(chan error, 1)
	go func() { done <- env.bot.Run(ctx, updates) }()

	require.Eventually(t, func() bool { return env.sender.lastText() == keyboard.TextWelcome }, time.Second, 5*time.Millisecond)
	cancel()
	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(time.Second):
		t.Fatal("Run did not return after cancel")
	}
}

func (s *BotTestSuite) TestCartButtons() {
	ctx := context.Background()
	s.env.press(customerID, callback.New(callback.ActionAddToCart).WithProduct(s.env.pepperoni.ID, model.SizeLarge))
	s.Equal("🛒 Added to cart (1 in cart), total 30.55 BYN", s.env.sender.lastAnswer().Text)

	s.env.press(customerID, callback.New(callback.ActionPlus).WithProduct(s.env.pepperoni.ID, model.SizeLarge))
	s.Contains(s.env.sender.lastText(), "Pepperoni")
	s.Equal("🛒 Cart total: 61.10 BYN", s.env.sender.lastAnswer().Text)
	qty, err := s.env.cart.Quantity(ctx, customerID, s.env.pepperoni.ID, model.SizeLarge)
	s.Require().NoError(err)
	s.Equal(2, qty)

	s.env.press(customerID, callback.New(callback.ActionMinus).WithProduct(s.env.pepperoni.ID, model.SizeLarge))
	amount, err := s.env.cart.Amount(ctx, customerID)
	s.Require().NoError(err)
	s.Equal("30.55", amount.StringFixed(2))
	s.Equal("🛒 Cart total: 30.55 BYN", s.env.sender.lastAnswer().Text)

	s.env.press(customerID, callback.New(callback.ActionRemove).WithProduct(s.env.pepperoni.ID, model.SizeLarge))
	s.Equal(keyboard.TextCartEmpty, s.env.sender.lastText())
	s.Equal("🛒 Cart total: 0.00 BYN", s.env.sender.lastAnswer().Text)
}

func (s *BotTestSuite) TestAddUnavailableSize() {
	s.env.press(customerID, callback.New(callback.ActionAddToCart).WithProduct(s.env.cola.ID, model.SizeLarge))
	s.Equal(keyboard.TextProductGone, s.env.sender.lastAnswer().Text)
}

func (s *BotTestSuite) TestClearCart() {
	s.env.addToCart(s.T(), customerID, s.env.cola, model.SizeSmall)
	s.env.press(customerID, callback.New(callback.ActionClearCart))

	s.Equal(keyboard.TextCartEmpty, s.env.sender.lastText())
	items, err := s.env.cart.Items(context.Background(), customerID)
	s.Require().NoError(err)
	s.Empty(items)
}

func (s *BotTestSuite) TestCheckoutEmptyCart() {
	s.env.press(customerID, callback.New(callback.ActionCheckout))

	s.Equal(keyboard.TextCartEmpty, s.env.sender.lastText())
	_, err := s.env.sessions.Get(context.Background(), customerID)
	s.ErrorIs(err, redis_repo.ErrSessionNotFound)
}

func (s *BotTestSuite) TestCheckoutFlowPlacesOrder() {
	ctx := context.Background()
	s.env.text(customerID, "/start")
	s.env.addToCart(s.T(), customerID, s.env.pepperoni, model.SizeLarge)
	s.env.addToCart(s.T(), customerID, s.env.cola, model.SizeSmall)

	s.env.press(customerID, callback.New(callback.ActionCheckout))
	s.Equal(flow.Prompt(flow.StageName), s.env.sender.lastText())

	s.env.text(customerID, "ivan petrov")
	s.env.text(customerID, "291234567")
	s.env.text(customerID, "nezavisimosti")
	s.Contains(s.env.sender.lastText(), "Nezavisimosti")
	s.Contains(s.env.sender.lastText(), flow.Prompt(flow.StageHouse))

	s.env.text(customerID, "10")
	s.env.press(customerID, callback.New(callback.ActionSkip))
	s.Equal(string(flow.StageFloor), s.env.session(s.T(), customerID).Stage)
	s.env.text(customerID, "/skip")
	s.env.text(customerID, "2")
	s.env.text(customerID, "ring twice")

	s.Contains(s.env.sender.lastText(), keyboard.TextOrderPlaced)
	_, err := s.env.sessions.Get(ctx, customerID)
	s.ErrorIs(err, redis_repo.ErrSessionNotFound)

	orders, err := s.env.orders.ListUserOrders(ctx, customerID)
	s.Require().NoError(err)
	s.Require().Len(orders, 1)
	order := orders[0]
	s.Equal("Ivan Petrov", order.ClientName)
	s.Equal("291234567", order.Phone)
	s.Equal("Nezavisimosti, house 10, entrance 2", order.Address)
	s.Equal("ring twice", order.Note)
	s.Equal("32.50", order.Amount.StringFixed(2))
	s.Equal(model.OrderStatusPending, order.Status)

	items, err := s.env.cart.Items(ctx, customerID)
	s.Require().NoError(err)
	s.Empty(items)
}

func (s *BotTestSuite) TestValidationErrorKeepsStage() {
	s.env.addToCart(s.T(), customerID, s.env.cola, model.SizeSmall)
	s.env.press(customerID, callback.New(callback.ActionCheckout))
	s.env.text(customerID, "ivan")

	s.env.text(customerID, "12345")
	s.Contains(s.env.sender.lastText(), "❗")
	s.Contains(s.env.sender.lastText(), flow.Prompt(flow.StagePhone))
	s.Equal(string(flow.StagePhone), s.env.session(s.T(), customerID).Stage)

	s.env.text(customerID, "111234567")
	s.Contains(s.env.sender.lastText(), "operator code")
	s.Equal(string(flow.StagePhone), s.env.session(s.T(), customerID).Stage)
}

func (s *BotTestSuite) TestEditStreet() {
	s.env.addToCart(s.T(), customerID, s.env.cola, model.SizeSmall)
	s.env.press(customerID, callback.New(callback.ActionCheckout))
	s.env.text(customerID, "ivan")
	s.env.text(customerID, "291234567")
	s.env.text(customerID, "Lenina")
	s.env.text(customerID, "5")

	s.env.press(customerID, callback.New(callback.ActionEditStreet))
	sess := s.env.session(s.T(), customerID)
	s.Equal(string(flow.StageStreet), sess.Stage)
	s.Empty(sess.Get("house"))
	s.Equal("Ivan", sess.Get("name"))
}

func (s *BotTestSuite) TestCancelFlowReturnsToCart() {
	s.env.addToCart(s.T(), customerID, s.env.cola, model.SizeSmall)
	s.env.press(customerID, callback.New(callback.ActionCheckout))
	s.env.press(customerID, callback.New(callback.ActionCancelFlow))

	s.Contains(s.env.sender.lastText(), "Coca-Cola")
	_, err := s.env.sessions.Get(context.Background(), customerID)
	s.ErrorIs(err, redis_repo.ErrSessionNotFound)
}

func (s *BotTestSuite) placeOrder() *model.Order {
	s.env.addToCart(s.T(), customerID, s.env.pepperoni, model.SizeSmall)
	order, err := s.env.orders.PlaceOrder(context.Background(), customerID, service.OrderForm{
		ClientName: "Ivan", Phone: "291234567", Address: "Lenina, house 5",
	})
	s.Require().NoError(err)
	return order
}

func (s *BotTestSuite) TestOrdersView() {
	s.env.press(customerID, callback.New(callback.ActionOrders))
	s.Equal(keyboard.TextNoOrders, s.env.sender.lastText())

	order := s.placeOrder()
	s.env.press(customerID, callback.New(callback.ActionOrders))
	s.Equal(keyboard.TextOrdersTitle, s.env.sender.lastText())

	s.env.press(customerID, callback.New(callback.ActionOrder).WithOrder(order.ID))
	s.Contains(s.env.sender.lastText(), "Pepperoni")
	s.Contains(s.env.sender.lastText(), "+375291234567")

	s.env.press(customerID+1, callback.New(callback.ActionOrder).WithOrder(order.ID))
	s.Equal(textOrderMissing, s.env.sender.lastAnswer().Text)
}

func (s *BotTestSuite) TestCancelOrder() {
	order := s.placeOrder()
	s.env.press(customerID, callback.New(callback.ActionCancelOrder).WithOrder(order.ID))

	got, err := s.env.orders.GetOrder(context.Background(), order.ID)
	s.Require().NoError(err)
	s.Equal(model.OrderStatusCancelled, got.Status)

	s.env.press(customerID, callback.New(callback.ActionCancelOrder).WithOrder(order.ID))
	s.Equal(textNotCancellable, s.env.sender.lastAnswer().Text)
}
