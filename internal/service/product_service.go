package service

import (
	"context"
	"errors"

	"github.com/RoyceAzure/lab/pizzabot/internal/domain/model"
	"github.com/RoyceAzure/lab/pizzabot/internal/domain/validator"
	"github.com/RoyceAzure/lab/pizzabot/internal/infra/repository/db"
)

type ProductField string

const (
	FieldName        ProductField = "name"
	FieldPriceSmall  ProductField = "price_small"
	FieldPriceLarge  ProductField = "price_large"
	FieldCategory    ProductField = "category"
	FieldDescription ProductField = "description"
	FieldIngredients ProductField = "ingredients"
	FieldNutrition   ProductField = "nutrition"
)

// 編輯選單順序
var ProductFields = []ProductField{
	FieldName, FieldPriceSmall, FieldPriceLarge, FieldCategory,
	FieldDescription, FieldIngredients, FieldNutrition,
}

func ParseProductField(s string) (ProductField, error) {
	for _, f := range ProductFields {
		if string(f) == s {
			return f, nil
		}
	}
	return "", ErrUnknownProductField
}

type IProductService interface {
	ListAll(ctx context.Context) ([]model.Product, error)
	ListPage(ctx context.Context, category model.Category) ([]model.Product, error)
	Get(ctx context.Context, id uint) (*model.Product, error)
	ByIDs(ctx context.Context, ids []uint) (map[uint]model.Product, error)
	Create(ctx context.Context, product *model.Product) error
	UpdateField(ctx context.Context, id uint, field ProductField, input string) (*model.Product, error)
	UpdateCategory(ctx context.Context, id uint, category model.Category) (*model.Product, error)
	Delete(ctx context.Context, id uint) error
}

type ProductService struct {
	productRepo db.IProductRepository
}

func NewProductService(productRepo db.IProductRepository) *ProductService {
	return &ProductService{productRepo: productRepo}
}

func (s *ProductService) ListAll(ctx context.Context) ([]model.Product, error) {
	return s.productRepo.GetAllProducts(ctx)
}

// PageCategories snack 與 cake 共用一頁
func PageCategories(category model.Category) []model.Category {
	switch category {
	case model.CategorySnack, model.CategoryCake:
		return []model.Category{model.CategorySnack, model.CategoryCake}
	}
	return []model.Category{category}
}

func (s *ProductService) ListPage(ctx context.Context, category model.Category) ([]model.Product, error) {
	return s.productRepo.GetProductsByCategories(ctx, PageCategories(category)...)
}

func (s *ProductService) Get(ctx context.Context, id uint) (*model.Product, error) {
	product, err := s.productRepo.GetProductByID(ctx, id)
	if errors.Is(err, db.ErrNotFound) {
		return nil, ErrProductNotFound
	}
	return product, err
}

// ByIDs 已刪除的商品不會出現在結果中
func (s *ProductService) ByIDs(ctx context.Context, ids []uint) (map[uint]model.Product, error) {
	products, err := s.productRepo.GetProductsByIDs(ctx, ids)
	if err != nil {
		return nil, err
	}
	byID := make(map[uint]model.Product, len(products))
	for _, p := range products {
		byID[p.ID] = p
	}
	return byID, nil
}

func (s *ProductService) Create(ctx context.Context, product *model.Product) error {
	if _, err := model.ParseCategory(string(product.Category)); err != nil {
		return err
	}
	return s.productRepo.CreateProduct(ctx, product)
}

// UpdateField 文字輸入先經過驗證, 失敗回傳 ValidationError
func (s *ProductService) UpdateField(ctx context.Context, id uint, field ProductField, input string) (*model.Product, error) {
	var value any
	var err error
	switch field {
	case FieldName:
		value, err = validator.ProductName(input)
	case FieldPriceSmall:
		value, err = validator.Price(input)
	case FieldPriceLarge:
		value, err = validator.OptionalPrice(input)
	case FieldDescription, FieldIngredients:
		value, err = validator.OptionalText(string(field), input, 1000)
	case FieldNutrition:
		value, err = validator.OptionalText(string(field), input, 100)
	case FieldCategory:
		category, cerr := model.ParseCategory(input)
		if cerr != nil {
			return nil, cerr
		}
		return s.UpdateCategory(ctx, id, category)
	default:
		return nil, ErrUnknownProductField
	}
	if err != nil {
		return nil, err
	}

	if err := s.patch(ctx, id, map[string]any{string(field): value}); err != nil {
		return nil, err
	}
	return s.Get(ctx, id)
}

// UpdateCategory 一併更新標籤與 emoji
func (s *ProductService) UpdateCategory(ctx context.Context, id uint, category model.Category) (*model.Product, error) {
	err := s.patch(ctx, id, map[string]any{
		"category":       category,
		"category_label": category.Label(),
		"emoji":          category.Emoji(),
	})
	if err != nil {
		return nil, err
	}
	return s.Get(ctx, id)
}

func (s *ProductService) patch(ctx context.Context, id uint, updates map[string]any) error {
	err := s.productRepo.PatchProductFields(ctx, id, updates)
	if errors.Is(err, db.ErrNotFound) {
		return ErrProductNotFound
	}
	return err
}

func (s *ProductService) Delete(ctx context.Context, id uint) error {
	err := s.productRepo.HardDeleteProduct(ctx, id)
	if errors.Is(err, db.ErrNotFound) {
		return ErrProductNotFound
	}
	return err
}
