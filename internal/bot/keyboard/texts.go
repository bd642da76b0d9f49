package keyboard

import (
	"fmt"
	"strings"
	"time"

	"github.com/RoyceAzure/lab/pizzabot/internal/domain/model"
	"github.com/RoyceAzure/lab/pizzabot/internal/domain/validator"
	"github.com/RoyceAzure/lab/pizzabot/internal/service"
	"github.com/shopspring/decimal"
)

const (
	TextWelcome       = "👋 Welcome to our pizzeria! What would you like to do?"
	TextCatalog       = "🍕 Choose a category:"
	TextCartEmpty     = "🛒 Your cart is empty."
	TextNoOrders      = "📦 You have no orders yet."
	TextOrdersTitle   = "📦 Your orders:"
	TextAdminPanel    = "⚙️ Admin panel"
	TextNotAdmin      = "⛔ This section is available to administrators only."
	TextTooFast       = "⏳ Too fast, please slow down."
	TextGenericError  = "😔 Something went wrong. Please try again later."
	TextFlowCancelled = "✖️ Cancelled."
	TextUnknownAction = "This button is no longer valid."
	TextProductGone   = "This product is no longer available."
	TextOrderPlaced   = "✅ Your order has been placed!"
	TextPaid          = "✅ Payment received, thank you! Your order is on its way."
)

// 付款前檢查的拒絕訊息
const (
	TextPayAlreadyPaid = "This order has already been paid."
	TextPayCancelled   = "This order has been cancelled."
	TextPayUnknown     = "Unknown error, please try again later."
)

func Money(amount decimal.Decimal, currency string) string {
	return fmt.Sprintf("%s %s", amount.StringFixed(2), currency)
}

func DisplayName(u model.User) string {
	name := strings.TrimSpace(u.FirstName + " " + u.LastName)
	if u.Username != "" {
		name = fmt.Sprintf("%s (@%s)", name, u.Username)
	}
	if name == "" {
		name = fmt.Sprintf("id %d", u.ID)
	}
	return name
}

func CategoryTitle(category model.Category) string {
	switch category {
	case model.CategorySnack, model.CategoryCake:
		return "🍟 Snacks & 🍰 Cakes"
	case model.CategoryDrink:
		return "🥤 Drinks"
	}
	return "🍕 Pizza"
}

func ProductInfo(p *model.Product) string {
	var b strings.Builder
	b.WriteString(p.Title())
	if p.Description != "" {
		b.WriteString("\n\n" + p.Description)
	}
	if p.Ingredients != "" {
		b.WriteString("\n\nIngredients: " + p.Ingredients)
	}
	if p.Nutrition != "" {
		b.WriteString("\nNutrition: " + p.Nutrition)
	}
	return b.String()
}

func itemLine(p model.Product, size model.Size, qty int, unit decimal.Decimal, currency string) string {
	name := p.Title()
	if text := p.SizeText(size); text != "" {
		name = fmt.Sprintf("%s (%s)", name, text)
	}
	return fmt.Sprintf("%s\n    %d × %s = %s", name, qty, Money(unit, currency),
		Money(unit.Mul(decimal.NewFromInt(int64(qty))), currency))
}

func CartText(items []model.CartItem, currency string) string {
	if len(items) == 0 {
		return TextCartEmpty
	}
	lines := []string{"🛒 Your cart:", ""}
	for _, item := range items {
		lines = append(lines, itemLine(item.Product, item.Size, item.Quantity, item.UnitPrice(), currency))
	}
	lines = append(lines, "", "Total: "+Money(service.CartTotal(items), currency))
	return strings.Join(lines, "\n")
}

// OrderText 訂單明細, 已刪除的商品以 id 顯示
func OrderText(order *model.Order, products map[uint]model.Product, currency string) string {
	lines := []string{
		fmt.Sprintf("Order #%d · %s", order.ID, order.Status.Text()),
		order.CreatedAtLocal().Format("02.01.2006 15:04"),
		"",
	}
	for _, item := range order.OrderItems {
		p, ok := products[item.ProductID]
		if !ok {
			p = model.Product{Name: fmt.Sprintf("Product #%d", item.ProductID)}
		}
		lines = append(lines, itemLine(p, item.Size, item.Quantity, item.Price, currency))
	}
	lines = append(lines,
		"",
		"Total: "+Money(order.Amount, currency),
		"",
		"👤 "+order.ClientName,
		"📞 "+validator.FormatPhone(order.Phone),
		"📍 "+order.Address,
	)
	if order.Note != "" {
		lines = append(lines, "📝 "+order.Note)
	}
	return strings.Join(lines, "\n")
}

func Contacts(phone string) string {
	return fmt.Sprintf("📞 Call us: %s\n🕙 We deliver every day from 10:00 to 23:00.", phone)
}

func AdminInfoText(u *model.User, superAdmin bool) string {
	role := "admin"
	if superAdmin {
		role = "super admin"
	}
	return fmt.Sprintf("👤 %s\nid: %d\nrole: %s\nsince: %s", DisplayName(*u), u.ID, role, u.CreatedAtLocal().Format("02.01.2006"))
}

func HealthText(statuses []service.ComponentStatus) string {
	lines := []string{"🩺 Service status:"}
	for _, s := range statuses {
		mark := "✅"
		detail := s.Latency.Round(time.Microsecond).String()
		if !s.OK {
			mark = "❌"
			detail = s.Err.Error()
		}
		lines = append(lines, fmt.Sprintf("%s %s: %s", mark, s.Name, detail))
	}
	return strings.Join(lines, "\n")
}
