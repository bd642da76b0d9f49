package handler

import (
	"errors"
	"fmt"

	"github.com/RoyceAzure/lab/pizzabot/internal/bot/callback"
	"github.com/RoyceAzure/lab/pizzabot/internal/bot/flow"
	"github.com/RoyceAzure/lab/pizzabot/internal/bot/keyboard"
	"github.com/RoyceAzure/lab/pizzabot/internal/domain/model"
	"github.com/RoyceAzure/lab/pizzabot/internal/domain/validator"
	"github.com/RoyceAzure/lab/pizzabot/internal/infra/repository/redis_repo"
	"github.com/RoyceAzure/lab/pizzabot/internal/service"
)

const (
	textChooseProduct = "Choose a product:"
	textChooseField   = "Choose a field to edit:"
	textAdminsTitle   = "👥 Admins:"
	textUserMissing   = "User not found. They must start the bot first."
	textAlreadyAdmin  = "This user is already an admin."
)

func (b *Bot) dispatchAdmin(r *request, cb callback.Callback) error {
	switch cb.Action {
	case callback.ActionAdmin:
		if err := b.Sessions.Clear(r.ctx, r.userID); err != nil {
			return err
		}
		return b.reply(r, keyboard.TextAdminPanel, keyboard.AdminPanel())

	case callback.ActionAdminAdd:
		return b.startAdminFlow(r, flow.StartProduct())
	case callback.ActionAdminCategory:
		return b.chooseNewProductCategory(r, cb.Category)

	case callback.ActionAdminProducts:
		return b.showAdminProducts(r)
	case callback.ActionAdminEdit:
		return b.showProductEditor(r, cb.ProductID, "")
	case callback.ActionAdminField:
		return b.chooseField(r, cb)
	case callback.ActionAdminSetCat:
		return b.setCategory(r, cb)
	case callback.ActionAdminDelete:
		return b.confirmDelete(r, cb.ProductID)
	case callback.ActionAdminDeleteOK:
		return b.deleteProduct(r, cb.ProductID)

	case callback.ActionAdminList:
		return b.showAdmins(r, "")
	case callback.ActionAdminInfo:
		return b.showAdminInfo(r, cb.UserID)
	case callback.ActionAdminDismiss:
		return b.dismissAdmin(r, cb.UserID)
	case callback.ActionAdminNew:
		return b.startAdminFlow(r, flow.StartNewAdmin())

	case callback.ActionAdminHealth:
		statuses := b.Health.Check(r.ctx)
		if !service.Healthy(statuses) {
			r.log.Warn().Interface("statuses", statuses).Msg("health check reported failures")
		}
		return b.reply(r, keyboard.HealthText(statuses), keyboard.BackToAdmin())
	}
	return fmt.Errorf("%w %q", callback.ErrUnknownAction, cb.Action)
}

func (b *Bot) startAdminFlow(r *request, sess *redis_repo.Session) error {
	if err := b.Sessions.Save(r.ctx, r.userID, sess); err != nil {
		return err
	}
	return b.prompt(r, sess, "")
}

func (b *Bot) chooseNewProductCategory(r *request, category model.Category) error {
	sess, err := b.Sessions.Get(r.ctx, r.userID)
	if errors.Is(err, redis_repo.ErrSessionNotFound) ||
		(err == nil && (sess.Flow != string(flow.FlowProduct) || sess.Stage != string(flow.StageProductCategory))) {
		return b.answer(r, keyboard.TextUnknownAction, false)
	}
	if err != nil {
		return err
	}
	flow.SetCategory(sess, category)
	if err := b.Sessions.Save(r.ctx, r.userID, sess); err != nil {
		return err
	}
	return b.prompt(r, sess, fmt.Sprintf("Category: %s %s", category.Emoji(), category.Label()))
}

func (b *Bot) showAdminProducts(r *request) error {
	if err := b.Sessions.Clear(r.ctx, r.userID); err != nil {
		return err
	}
	products, err := b.Products.ListAll(r.ctx)
	if err != nil {
		return err
	}
	return b.reply(r, textChooseProduct, keyboard.AdminProducts(products))
}

func (b *Bot) showProductEditor(r *request, productID uint, notice string) error {
	product, err := b.Products.Get(r.ctx, productID)
	if errors.Is(err, service.ErrProductNotFound) {
		if err := b.answer(r, keyboard.TextProductGone, false); err != nil {
			return err
		}
		return b.showAdminProducts(r)
	}
	if err != nil {
		return err
	}
	text := keyboard.ProductInfo(product) + "\n\n" + textChooseField
	if notice != "" {
		text = notice + "\n\n" + text
	}
	return b.reply(r, text, keyboard.ProductFields(productID))
}

func (b *Bot) chooseField(r *request, cb callback.Callback) error {
	field, err := service.ParseProductField(cb.Field)
	if err != nil {
		return b.answer(r, keyboard.TextUnknownAction, false)
	}
	if field == service.FieldCategory {
		return b.reply(r, "Choose a category:", keyboard.Categories(callback.ActionAdminSetCat, cb.ProductID))
	}
	sess := flow.StartEdit(cb.ProductID, string(field))
	if err := b.Sessions.Save(r.ctx, r.userID, sess); err != nil {
		return err
	}
	return b.reply(r, fmt.Sprintf("%s\n\n%s", keyboard.FieldLabel(field), flow.Prompt(flow.StageEditValue)),
		keyboard.FlowControls(editSkippable(field), false))
}

func editSkippable(field service.ProductField) bool {
	switch field {
	case service.FieldPriceLarge, service.FieldDescription, service.FieldIngredients, service.FieldNutrition:
		return true
	}
	return false
}

func (b *Bot) setCategory(r *request, cb callback.Callback) error {
	if err := b.Sessions.Clear(r.ctx, r.userID); err != nil {
		return err
	}
	product, err := b.Products.UpdateCategory(r.ctx, cb.ProductID, cb.Category)
	if errors.Is(err, service.ErrProductNotFound) {
		return b.showProductEditor(r, cb.ProductID, "")
	}
	if err != nil {
		return err
	}
	r.log.Info().Uint("product_id", product.ID).Str("category", string(product.Category)).Msg("product category updated")
	return b.showProductEditor(r, product.ID, "✅ Updated")
}

func (b *Bot) confirmDelete(r *request, productID uint) error {
	product, err := b.Products.Get(r.ctx, productID)
	if errors.Is(err, service.ErrProductNotFound) {
		return b.showAdminProducts(r)
	}
	if err != nil {
		return err
	}
	return b.reply(r, fmt.Sprintf("Delete %s?", product.Title()), keyboard.ConfirmDelete(productID))
}

func (b *Bot) deleteProduct(r *request, productID uint) error {
	err := b.Products.Delete(r.ctx, productID)
	if err != nil && !errors.Is(err, service.ErrProductNotFound) {
		return err
	}
	if err == nil {
		r.log.Info().Uint("product_id", productID).Msg("product deleted")
		if err := b.answer(r, "🗑 Deleted", false); err != nil {
			return err
		}
	}
	return b.showAdminProducts(r)
}

func (b *Bot) showAdmins(r *request, notice string) error {
	admins, err := b.Users.ListAdmins(r.ctx)
	if err != nil {
		return err
	}
	text := textAdminsTitle
	if notice != "" {
		text = notice + "\n\n" + text
	}
	return b.reply(r, text, keyboard.Admins(admins))
}

func (b *Bot) showAdminInfo(r *request, targetID int64) error {
	user, err := b.Users.GetUser(r.ctx, targetID)
	if errors.Is(err, service.ErrUserNotFound) || (err == nil && !user.IsAdmin) {
		return b.showAdmins(r, "")
	}
	if err != nil {
		return err
	}
	return b.reply(r, keyboard.AdminInfoText(user, b.Users.IsSuperAdmin(user.ID)),
		keyboard.AdminInfo(user.ID, b.Users.CanDismiss(r.userID, user.ID)))
}

func (b *Bot) dismissAdmin(r *request, targetID int64) error {
	err := b.Users.DismissAdmin(r.ctx, r.userID, targetID)
	switch {
	case errors.Is(err, service.ErrSuperAdmin):
		return b.answer(r, "The super admin cannot be dismissed.", true)
	case errors.Is(err, service.ErrForbidden):
		return b.answer(r, "You can only dismiss yourself.", true)
	case errors.Is(err, service.ErrNotAdmin), errors.Is(err, service.ErrUserNotFound):
		return b.showAdmins(r, "")
	case err != nil:
		return err
	}
	r.log.Info().Int64("target_id", targetID).Msg("admin dismissed")
	if targetID == r.userID {
		return b.showMainMenu(r)
	}
	return b.showAdmins(r, "✅ Admin dismissed")
}

// advanceAdmin 管理流程的文字輸入, 每一步都重新確認權限
func (b *Bot) advanceAdmin(r *request, sess *redis_repo.Session, text string) error {
	ok, err := b.Users.IsAdmin(r.ctx, r.userID)
	if err != nil {
		return err
	}
	if !ok {
		if err := b.Sessions.Clear(r.ctx, r.userID); err != nil {
			return err
		}
		if err := b.send(r, keyboard.TextNotAdmin, nil); err != nil {
			return err
		}
		r.messageID = 0
		return b.showMainMenu(r)
	}

	switch flow.Name(sess.Flow) {
	case flow.FlowProduct:
		return b.advanceProduct(r, sess, text)
	case flow.FlowEditProduct:
		return b.applyEdit(r, sess, text)
	}
	return b.addAdmin(r, sess, text)
}

func (b *Bot) advanceProduct(r *request, sess *redis_repo.Session, text string) error {
	t, err := flow.AdvanceProduct(sess, text)
	if err != nil {
		return b.retry(r, sess, err)
	}
	r.messageID = 0
	if !t.Done {
		if err := b.Sessions.Save(r.ctx, r.userID, sess); err != nil {
			return err
		}
		return b.prompt(r, sess, "")
	}

	product, err := flow.Product(sess)
	if err != nil {
		return err
	}
	if err := b.Products.Create(r.ctx, product); err != nil {
		return err
	}
	if err := b.Sessions.Clear(r.ctx, r.userID); err != nil {
		return err
	}
	r.log.Info().Uint("product_id", product.ID).Str("name", product.Name).Msg("product created")
	return b.reply(r, "✅ Product created: "+product.Title()+"\n\n"+keyboard.TextAdminPanel, keyboard.AdminPanel())
}

func (b *Bot) applyEdit(r *request, sess *redis_repo.Session, text string) error {
	productID, rawField, err := flow.EditTarget(sess)
	if err != nil {
		return err
	}
	field, err := service.ParseProductField(rawField)
	if err != nil {
		return err
	}
	product, err := b.Products.UpdateField(r.ctx, productID, field, text)
	if err != nil {
		if errors.Is(err, service.ErrProductNotFound) {
			if err := b.Sessions.Clear(r.ctx, r.userID); err != nil {
				return err
			}
			r.messageID = 0
			return b.reply(r, keyboard.TextProductGone, keyboard.BackToAdmin())
		}
		if msg, ok := validator.UserMessage(err); ok {
			r.messageID = 0
			return b.reply(r, "❗ "+msg+"\n\n"+flow.Prompt(flow.StageEditValue),
				keyboard.FlowControls(editSkippable(field), false))
		}
		return err
	}
	if err := b.Sessions.Clear(r.ctx, r.userID); err != nil {
		return err
	}
	r.log.Info().Uint("product_id", product.ID).Str("field", string(field)).Msg("product updated")
	r.messageID = 0
	return b.showProductEditor(r, product.ID, "✅ Updated")
}

func (b *Bot) addAdmin(r *request, sess *redis_repo.Session, text string) error {
	id, err := flow.ParseUserID(text)
	if err != nil {
		return b.retry(r, sess, err)
	}
	r.messageID = 0
	user, err := b.Users.AddAdmin(r.ctx, id)
	switch {
	case errors.Is(err, service.ErrUserNotFound):
		return b.prompt(r, sess, "❗ "+textUserMissing)
	case errors.Is(err, service.ErrAlreadyAdmin):
		return b.prompt(r, sess, "❗ "+textAlreadyAdmin)
	case err != nil:
		return err
	}
	if err := b.Sessions.Clear(r.ctx, r.userID); err != nil {
		return err
	}
	r.log.Info().Int64("target_id", user.ID).Msg("admin added")
	return b.showAdmins(r, fmt.Sprintf("✅ %s is now an admin", keyboard.DisplayName(*user)))
}
