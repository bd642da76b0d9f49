package keyboard

import (
	"fmt"

	"github.com/RoyceAzure/lab/pizzabot/internal/bot/callback"
	"github.com/RoyceAzure/lab/pizzabot/internal/domain/model"
	"github.com/RoyceAzure/lab/pizzabot/internal/service"
	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

type Markup = tgbotapi.InlineKeyboardMarkup
type Row = []tgbotapi.InlineKeyboardButton

func button(text string, cb callback.Callback) tgbotapi.InlineKeyboardButton {
	return tgbotapi.NewInlineKeyboardButtonData(text, cb.MustEncode())
}

func row(buttons ...tgbotapi.InlineKeyboardButton) Row {
	return tgbotapi.NewInlineKeyboardRow(buttons...)
}

func mainMenuRow() Row {
	return row(button("🏠 Main menu", callback.New(callback.ActionMainMenu)))
}

func MainMenu(isAdmin bool) Markup {
	rows := []Row{
		row(button("🍕 Catalog", callback.New(callback.ActionCatalog))),
		row(
			button("🛒 Cart", callback.New(callback.ActionCart)),
			button("📦 My orders", callback.New(callback.ActionOrders)),
		),
		row(button("📞 Contacts", callback.New(callback.ActionContacts))),
	}
	if isAdmin {
		rows = append(rows, row(button("⚙️ Admin panel", callback.New(callback.ActionAdmin))))
	}
	return tgbotapi.NewInlineKeyboardMarkup(rows...)
}

func BackToMain() Markup {
	return tgbotapi.NewInlineKeyboardMarkup(mainMenuRow())
}

// Catalog snack 與 cake 共用一個按鈕
func Catalog() Markup {
	return tgbotapi.NewInlineKeyboardMarkup(
		row(button("🍕 Pizza", callback.New(callback.ActionCategory).WithCategory(model.CategoryPizza))),
		row(button("🍟 Snacks & 🍰 Cakes", callback.New(callback.ActionCategory).WithCategory(model.CategorySnack))),
		row(button("🥤 Drinks", callback.New(callback.ActionCategory).WithCategory(model.CategoryDrink))),
		row(button("🛒 Cart", callback.New(callback.ActionCart))),
		mainMenuRow(),
	)
}

func sizeButton(p model.Product, size model.Size, currency string) (tgbotapi.InlineKeyboardButton, bool) {
	price, ok := p.SizePrice(size)
	if !ok {
		return tgbotapi.InlineKeyboardButton{}, false
	}
	label := Money(price, currency)
	if text := p.SizeText(size); text != "" {
		label = fmt.Sprintf("%s · %s", text, label)
	}
	return button("➕ "+label, callback.New(callback.ActionAddToCart).WithProduct(p.ID, size)), true
}

// CategoryProducts 每個商品一行名稱, 一行尺寸
func CategoryProducts(products []model.Product, currency string) Markup {
	rows := make([]Row, 0, len(products)*2+2)
	for _, p := range products {
		rows = append(rows, row(button(p.Title()+" ℹ️", callback.New(callback.ActionProductInfo).WithProduct(p.ID, ""))))
		sizes := Row{}
		for _, size := range []model.Size{model.SizeSmall, model.SizeLarge} {
			if b, ok := sizeButton(p, size, currency); ok {
				sizes = append(sizes, b)
			}
		}
		rows = append(rows, sizes)
	}
	rows = append(rows,
		row(
			button("⬅️ Catalog", callback.New(callback.ActionCatalog)),
			button("🛒 Cart", callback.New(callback.ActionCart)),
		),
	)
	return tgbotapi.NewInlineKeyboardMarkup(rows...)
}

func Cart(items []model.CartItem) Markup {
	rows := make([]Row, 0, len(items)*2+3)
	for _, item := range items {
		label := item.Product.Title()
		if text := item.Product.SizeText(item.Size); text != "" {
			label = fmt.Sprintf("%s (%s)", label, text)
		}
		cb := callback.New(callback.ActionNoop)
		target := func(a callback.Action) callback.Callback {
			return callback.New(a).WithProduct(item.Product.ID, item.Size)
		}
		rows = append(rows,
			row(button(label, cb)),
			row(
				button("➖", target(callback.ActionMinus)),
				button(fmt.Sprintf("%d", item.Quantity), cb),
				button("➕", target(callback.ActionPlus)),
				button("❌", target(callback.ActionRemove)),
			),
		)
	}
	if len(items) > 0 {
		rows = append(rows, row(
			button("✅ Checkout", callback.New(callback.ActionCheckout)),
			button("🧹 Clear", callback.New(callback.ActionClearCart)),
		))
	}
	rows = append(rows, row(button("🍕 Catalog", callback.New(callback.ActionCatalog))), mainMenuRow())
	return tgbotapi.NewInlineKeyboardMarkup(rows...)
}

// FlowControls 對話中的按鈕
func FlowControls(skippable, editStreet bool) Markup {
	rows := []Row{}
	if editStreet {
		rows = append(rows, row(button("✏️ Edit street", callback.New(callback.ActionEditStreet))))
	}
	controls := Row{}
	if skippable {
		controls = append(controls, button("⏭ Skip", callback.New(callback.ActionSkip)))
	}
	controls = append(controls, button("✖️ Cancel", callback.New(callback.ActionCancelFlow)))
	rows = append(rows, controls)
	return tgbotapi.NewInlineKeyboardMarkup(rows...)
}

func Order(order *model.Order) Markup {
	rows := []Row{}
	if order.Status == model.OrderStatusPending {
		rows = append(rows, row(
			button("💳 Pay", callback.New(callback.ActionPay).WithOrder(order.ID)),
			button("✖️ Cancel order", callback.New(callback.ActionCancelOrder).WithOrder(order.ID)),
		))
	}
	rows = append(rows, row(button("📦 My orders", callback.New(callback.ActionOrders))), mainMenuRow())
	return tgbotapi.NewInlineKeyboardMarkup(rows...)
}

func Orders(orders []model.Order, currency string) Markup {
	rows := make([]Row, 0, len(orders)+1)
	for _, o := range orders {
		text := fmt.Sprintf("%s #%d · %s · %s", o.Status.Mark(), o.ID, Money(o.Amount, currency), o.CreatedAtLocal().Format("02.01 15:04"))
		rows = append(rows, row(button(text, callback.New(callback.ActionOrder).WithOrder(o.ID))))
	}
	rows = append(rows, mainMenuRow())
	return tgbotapi.NewInlineKeyboardMarkup(rows...)
}

func AdminPanel() Markup {
	return tgbotapi.NewInlineKeyboardMarkup(
		row(button("➕ Add product", callback.New(callback.ActionAdminAdd))),
		row(button("✏️ Edit products", callback.New(callback.ActionAdminProducts))),
		row(button("👥 Admins", callback.New(callback.ActionAdminList))),
		row(button("🩺 Check services", callback.New(callback.ActionAdminHealth))),
		mainMenuRow(),
	)
}

func backToAdminRow() Row {
	return row(button("⬅️ Admin panel", callback.New(callback.ActionAdmin)))
}

func BackToAdmin() Markup {
	return tgbotapi.NewInlineKeyboardMarkup(backToAdminRow())
}

// Categories 新增商品或修改分類時選擇
func Categories(action callback.Action, productID uint) Markup {
	rows := []Row{}
	for _, c := range model.CategoryOrder {
		rows = append(rows, row(button(fmt.Sprintf("%s %s", c.Emoji(), c.Label()),
			callback.New(action).WithCategory(c).WithProduct(productID, ""))))
	}
	rows = append(rows, row(button("✖️ Cancel", callback.New(callback.ActionCancelFlow))))
	return tgbotapi.NewInlineKeyboardMarkup(rows...)
}

func AdminProducts(products []model.Product) Markup {
	rows := make([]Row, 0, len(products)+1)
	for _, p := range products {
		rows = append(rows, row(
			button("✏️ "+p.Title(), callback.New(callback.ActionAdminEdit).WithProduct(p.ID, "")),
			button("🗑", callback.New(callback.ActionAdminDelete).WithProduct(p.ID, "")),
		))
	}
	rows = append(rows, backToAdminRow())
	return tgbotapi.NewInlineKeyboardMarkup(rows...)
}

var fieldLabels = map[service.ProductField]string{
	service.FieldName:        "Name",
	service.FieldPriceSmall:  "Price (standard)",
	service.FieldPriceLarge:  "Price (large)",
	service.FieldCategory:    "Category",
	service.FieldDescription: "Description",
	service.FieldIngredients: "Ingredients",
	service.FieldNutrition:   "Nutrition",
}

func FieldLabel(f service.ProductField) string {
	return fieldLabels[f]
}

func ProductFields(productID uint) Markup {
	rows := make([]Row, 0, len(service.ProductFields)+1)
	for _, f := range service.ProductFields {
		rows = append(rows, row(button(FieldLabel(f),
			callback.New(callback.ActionAdminField).WithProduct(productID, "").WithField(string(f)))))
	}
	rows = append(rows, row(button("⬅️ Products", callback.New(callback.ActionAdminProducts))))
	return tgbotapi.NewInlineKeyboardMarkup(rows...)
}

func ConfirmDelete(productID uint) Markup {
	return tgbotapi.NewInlineKeyboardMarkup(row(
		button("🗑 Delete", callback.New(callback.ActionAdminDeleteOK).WithProduct(productID, "")),
		button("✖️ Keep", callback.New(callback.ActionAdminProducts)),
	))
}

func Admins(admins []model.User) Markup {
	rows := make([]Row, 0, len(admins)+2)
	for _, u := range admins {
		rows = append(rows, row(button(DisplayName(u), callback.New(callback.ActionAdminInfo).WithUser(u.ID))))
	}
	rows = append(rows, row(button("➕ Add admin", callback.New(callback.ActionAdminNew))), backToAdminRow())
	return tgbotapi.NewInlineKeyboardMarkup(rows...)
}

func AdminInfo(target int64, canDismiss bool) Markup {
	rows := []Row{}
	if canDismiss {
		rows = append(rows, row(button("🚫 Dismiss", callback.New(callback.ActionAdminDismiss).WithUser(target))))
	}
	rows = append(rows, row(button("⬅️ Admins", callback.New(callback.ActionAdminList))))
	return tgbotapi.NewInlineKeyboardMarkup(rows...)
}
