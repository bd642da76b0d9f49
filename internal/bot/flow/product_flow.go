package flow

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/RoyceAzure/lab/pizzabot/internal/domain/model"
	"github.com/RoyceAzure/lab/pizzabot/internal/domain/validator"
	"github.com/RoyceAzure/lab/pizzabot/internal/infra/repository/redis_repo"
	"github.com/shopspring/decimal"
)

const (
	StageProductCategory    Stage = "p_category"
	StageProductName        Stage = "p_name"
	StageProductPriceSmall  Stage = "p_price_small"
	StageProductPriceLarge  Stage = "p_price_large"
	StageProductDescription Stage = "p_description"
	StageProductIngredients Stage = "p_ingredients"
	StageProductNutrition   Stage = "p_nutrition"

	StageEditValue   Stage = "e_value"
	StageAdminUserID Stage = "a_user_id"
)

var productPrompts = map[Stage]string{
	StageProductCategory:    "Choose a category:",
	StageProductName:        "Enter the product name:",
	StageProductPriceSmall:  "Enter the price of the standard size, e.g. 12.50:",
	StageProductPriceLarge:  "Enter the price of the large size, or 0 / Skip if there is none:",
	StageProductDescription: "Enter a description or press Skip:",
	StageProductIngredients: "Enter the ingredients or press Skip:",
	StageProductNutrition:   "Enter the nutrition facts or press Skip:",
	StageEditValue:          "Enter the new value:",
	StageAdminUserID:        "Enter the user id of the new admin:",
}

var productSkippable = map[Stage]bool{
	StageProductPriceLarge:  true,
	StageProductDescription: true,
	StageProductIngredients: true,
	StageProductNutrition:   true,
}

func StartProduct() *redis_repo.Session {
	return Start(FlowProduct, StageProductCategory)
}

// SetCategory 分類只能用按鈕選
func SetCategory(sess *redis_repo.Session, category model.Category) Transition {
	sess.Set("category", string(category))
	return advance(sess, StageProductName)
}

// AdvanceProduct 新增商品表單
func AdvanceProduct(sess *redis_repo.Session, input string) (Transition, error) {
	stage := Stage(sess.Stage)
	switch stage {
	case StageProductCategory:
		return Transition{Stage: stage}, &validator.ValidationError{Field: "category", Message: "Choose a category using the buttons."}

	case StageProductName:
		name, err := validator.ProductName(input)
		if err != nil {
			return Transition{Stage: stage}, err
		}
		sess.Set("name", name)
		return advance(sess, StageProductPriceSmall), nil

	case StageProductPriceSmall:
		price, err := validator.Price(input)
		if err != nil {
			return Transition{Stage: stage}, err
		}
		sess.Set("price_small", price.String())
		return advance(sess, StageProductPriceLarge), nil

	case StageProductPriceLarge:
		price, err := validator.OptionalPrice(input)
		if err != nil {
			return Transition{Stage: stage}, err
		}
		if price.Valid {
			sess.Set("price_large", price.Decimal.String())
		} else {
			sess.Set("price_large", "")
		}
		return advance(sess, StageProductDescription), nil

	case StageProductDescription:
		return setText(sess, "description", input, 1000, StageProductIngredients)
	case StageProductIngredients:
		return setText(sess, "ingredients", input, 1000, StageProductNutrition)
	case StageProductNutrition:
		return setText(sess, "nutrition", input, 100, StageDone)
	}
	return Transition{Stage: stage}, fmt.Errorf("%w %q", ErrUnknownStage, sess.Stage)
}

func setText(sess *redis_repo.Session, key, input string, max int, next Stage) (Transition, error) {
	text, err := validator.OptionalText(key, input, max)
	if err != nil {
		return Transition{Stage: Stage(sess.Stage)}, err
	}
	sess.Set(key, text)
	return advance(sess, next), nil
}

// Product 由完成的表單建立商品
func Product(sess *redis_repo.Session) (*model.Product, error) {
	category, err := model.ParseCategory(sess.Get("category"))
	if err != nil {
		return nil, err
	}
	small, err := decimal.NewFromString(sess.Get("price_small"))
	if err != nil {
		return nil, fmt.Errorf("price_small: %w", err)
	}

	product := &model.Product{
		Name:        sess.Get("name"),
		PriceSmall:  small,
		Description: sess.Get("description"),
		Ingredients: sess.Get("ingredients"),
		Nutrition:   sess.Get("nutrition"),
	}
	product.ApplyCategory(category)
	if raw := sess.Get("price_large"); raw != "" {
		large, err := decimal.NewFromString(raw)
		if err != nil {
			return nil, fmt.Errorf("price_large: %w", err)
		}
		product.PriceLarge = decimal.NewNullDecimal(large)
	}
	return product, nil
}

// StartEdit 編輯單一欄位, 值交由 ProductService 驗證
func StartEdit(productID uint, field string) *redis_repo.Session {
	sess := Start(FlowEditProduct, StageEditValue)
	sess.Set("product_id", strconv.FormatUint(uint64(productID), 10))
	sess.Set("field", field)
	return sess
}

func EditTarget(sess *redis_repo.Session) (uint, string, error) {
	id, err := strconv.ParseUint(sess.Get("product_id"), 10, 64)
	if err != nil {
		return 0, "", fmt.Errorf("edit session: %w", err)
	}
	return uint(id), sess.Get("field"), nil
}

func StartNewAdmin() *redis_repo.Session {
	return Start(FlowNewAdmin, StageAdminUserID)
}

func ParseUserID(input string) (int64, error) {
	id, err := strconv.ParseInt(strings.TrimSpace(input), 10, 64)
	if err != nil || id <= 0 {
		return 0, &validator.ValidationError{Field: "user_id", Message: "User id must be a positive number."}
	}
	return id, nil
}
