package handler

import (
	"context"

	"github.com/RoyceAzure/lab/pizzabot/internal/bot/callback"
	"github.com/RoyceAzure/lab/pizzabot/internal/bot/flow"
	"github.com/RoyceAzure/lab/pizzabot/internal/bot/keyboard"
	"github.com/RoyceAzure/lab/pizzabot/internal/domain/model"
	"github.com/RoyceAzure/lab/pizzabot/internal/infra/repository/redis_repo"
	"github.com/RoyceAzure/lab/pizzabot/internal/service"
)

func (s *BotTestSuite) TestAdminActionsRequireAdmin() {
	s.env.text(customerID, "/start")
	s.env.press(customerID, callback.New(callback.ActionAdmin))

	answer := s.env.sender.lastAnswer()
	s.Equal(keyboard.TextNotAdmin, answer.Text)
	s.True(answer.ShowAlert)
	s.Equal(keyboard.TextWelcome, s.env.sender.lastText())
}

func (s *BotTestSuite) TestAdminPanel() {
	s.env.text(superAdminID, "/start")
	s.env.press(superAdminID, callback.New(callback.ActionAdmin))
	s.Equal(keyboard.TextAdminPanel, s.env.sender.lastText())
}

func (s *BotTestSuite) TestAddProductFlow() {
	ctx := context.Background()
	s.env.text(superAdminID, "/start")

	s.env.press(superAdminID, callback.New(callback.ActionAdminAdd))
	s.Equal(flow.Prompt(flow.StageProductCategory), s.env.sender.lastText())

	// 分類只能用按鈕
	s.env.text(superAdminID, "drink")
	s.Contains(s.env.sender.lastText(), "❗")
	s.Equal(string(flow.StageProductCategory), s.env.session(s.T(), superAdminID).Stage)

	s.env.press(superAdminID, callback.New(callback.ActionAdminCategory).WithCategory(model.CategoryDrink))
	s.Contains(s.env.sender.lastText(), flow.Prompt(flow.StageProductName))

	s.env.text(superAdminID, "Sprite")
	s.env.text(superAdminID, "abc")
	s.Equal(string(flow.StageProductPriceSmall), s.env.session(s.T(), superAdminID).Stage)
	s.env.text(superAdminID, "1,5")
	s.env.text(superAdminID, "0")
	s.env.text(superAdminID, "/skip")
	s.env.press(superAdminID, callback.New(callback.ActionSkip))
	s.env.text(superAdminID, "/skip")

	s.Contains(s.env.sender.lastText(), "Product created")
	_, err := s.env.sessions.Get(ctx, superAdminID)
	s.ErrorIs(err, redis_repo.ErrSessionNotFound)

	drinks, err := s.env.products.ListPage(ctx, model.CategoryDrink)
	s.Require().NoError(err)
	var sprite *model.Product
	for i := range drinks {
		if drinks[i].Name == "Sprite" {
			sprite = &drinks[i]
		}
	}
	s.Require().NotNil(sprite)
	s.Equal("1.50", sprite.PriceSmall.StringFixed(2))
	s.False(sprite.PriceLarge.Valid)
	s.Equal(model.CategoryDrink.Emoji(), sprite.Emoji)
}

func (s *BotTestSuite) TestEditProductField() {
	s.env.text(superAdminID, "/start")
	id := s.env.pepperoni.ID

	s.env.press(superAdminID, callback.New(callback.ActionAdminEdit).WithProduct(id, ""))
	s.Contains(s.env.sender.lastText(), textChooseField)

	s.env.press(superAdminID, callback.New(callback.ActionAdminField).WithProduct(id, "").WithField(string(service.FieldPriceSmall)))
	s.Equal(string(flow.FlowEditProduct), s.env.session(s.T(), superAdminID).Flow)

	s.env.text(superAdminID, "-1")
	s.Contains(s.env.sender.lastText(), "❗")

	s.env.text(superAdminID, "19.99")
	s.Contains(s.env.sender.lastText(), "✅ Updated")

	p, err := s.env.products.Get(context.Background(), id)
	s.Require().NoError(err)
	s.Equal("19.99", p.PriceSmall.StringFixed(2))
	_, err = s.env.sessions.Get(context.Background(), superAdminID)
	s.ErrorIs(err, redis_repo.ErrSessionNotFound)
}

func (s *BotTestSuite) TestEditCategory() {
	s.env.text(superAdminID, "/start")
	id := s.env.cola.ID

	s.env.press(superAdminID, callback.New(callback.ActionAdminField).WithProduct(id, "").WithField(string(service.FieldCategory)))
	s.Equal("Choose a category:", s.env.sender.lastText())

	s.env.press(superAdminID, callback.New(callback.ActionAdminSetCat).WithProduct(id, "").WithCategory(model.CategoryCake))
	p, err := s.env.products.Get(context.Background(), id)
	s.Require().NoError(err)
	s.Equal(model.CategoryCake, p.Category)
	s.Equal(model.CategoryCake.Label(), p.CategoryLabel)
	s.Equal(model.CategoryCake.Emoji(), p.Emoji)
}

func (s *BotTestSuite) TestDeleteProduct() {
	s.env.text(superAdminID, "/start")
	id := s.env.cola.ID

	s.env.press(superAdminID, callback.New(callback.ActionAdminDelete).WithProduct(id, ""))
	s.Contains(s.env.sender.lastText(), "Delete")

	s.env.press(superAdminID, callback.New(callback.ActionAdminDeleteOK).WithProduct(id, ""))
	s.Equal(textChooseProduct, s.env.sender.lastText())
	_, err := s.env.products.Get(context.Background(), id)
	s.ErrorIs(err, service.ErrProductNotFound)
}

func (s *BotTestSuite) TestAddAndDismissAdmin() {
	ctx := context.Background()
	s.env.text(superAdminID, "/start")
	s.env.text(customerID, "/start")

	s.env.press(superAdminID, callback.New(callback.ActionAdminNew))
	s.Equal(flow.Prompt(flow.StageAdminUserID), s.env.sender.lastText())

	s.env.text(superAdminID, "777")
	s.Contains(s.env.sender.lastText(), textUserMissing)

	s.env.text(superAdminID, "42")
	s.Contains(s.env.sender.lastText(), "is now an admin")
	ok, err := s.env.users.IsAdmin(ctx, customerID)
	s.Require().NoError(err)
	s.True(ok)

	// 一般 admin 不能撤銷 super admin
	s.env.press(customerID, callback.New(callback.ActionAdminDismiss).WithUser(superAdminID))
	s.Equal("The super admin cannot be dismissed.", s.env.sender.lastAnswer().Text)

	s.env.press(customerID, callback.New(callback.ActionAdminDismiss).WithUser(customerID))
	s.Equal(keyboard.TextWelcome, s.env.sender.lastText())
	ok, err = s.env.users.IsAdmin(ctx, customerID)
	s.Require().NoError(err)
	s.False(ok)
}

func (s *BotTestSuite) TestDismissedAdminLosesFlow() {
	ctx := context.Background()
	s.env.text(customerID, "/start")
	_, err := s.env.users.AddAdmin(ctx, customerID)
	s.Require().NoError(err)

	s.env.press(customerID, callback.New(callback.ActionAdminAdd))
	s.Require().NoError(s.env.users.DismissAdmin(ctx, superAdminID, customerID))

	s.env.text(customerID, "Sprite")
	s.Contains(s.env.sender.texts(), keyboard.TextNotAdmin)
	_, err = s.env.sessions.Get(ctx, customerID)
	s.ErrorIs(err, redis_repo.ErrSessionNotFound)
}

func (s *BotTestSuite) TestHealth() {
	s.env.text(superAdminID, "/start")
	s.env.press(superAdminID, callback.New(callback.ActionAdminHealth))

	text := s.env.sender.lastText()
	s.Contains(text, "✅ database")
	s.Contains(text, "✅ redis")
}
