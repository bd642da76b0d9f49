package seed

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/RoyceAzure/lab/pizzabot/internal/domain/model"
	"github.com/RoyceAzure/lab/pizzabot/internal/infra/repository/db"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"gopkg.in/yaml.v3"
)

type Catalog struct {
	Products []CatalogProduct `yaml:"products"`
}

type CatalogProduct struct {
	Name        string `yaml:"name"`
	Category    string `yaml:"category"`
	PriceSmall  string `yaml:"price_small"`
	PriceLarge  string `yaml:"price_large"`
	Description string `yaml:"description"`
	Ingredients string `yaml:"ingredients"`
	Nutrition   string `yaml:"nutrition"`
}

func Parse(r io.Reader) ([]model.Product, error) {
	var catalog Catalog
	if err := yaml.NewDecoder(r).Decode(&catalog); err != nil {
		return nil, fmt.Errorf("decode catalog: %w", err)
	}

	products := make([]model.Product, 0, len(catalog.Products))
	for i, p := range catalog.Products {
		product, err := p.toModel()
		if err != nil {
			return nil, fmt.Errorf("catalog product #%d %q: %w", i+1, p.Name, err)
		}
		products = append(products, product)
	}
	return products, nil
}

func (p CatalogProduct) toModel() (model.Product, error) {
	if p.Name == "" {
		return model.Product{}, fmt.Errorf("name is required")
	}
	category, err := model.ParseCategory(p.Category)
	if err != nil {
		return model.Product{}, err
	}
	small, err := decimal.NewFromString(p.PriceSmall)
	if err != nil || !small.IsPositive() {
		return model.Product{}, fmt.Errorf("invalid price_small %q", p.PriceSmall)
	}

	product := model.Product{
		Name:        p.Name,
		PriceSmall:  small,
		Description: p.Description,
		Ingredients: p.Ingredients,
		Nutrition:   p.Nutrition,
	}
	product.ApplyCategory(category)

	if p.PriceLarge != "" {
		large, err := decimal.NewFromString(p.PriceLarge)
		if err != nil || !large.IsPositive() {
			return model.Product{}, fmt.Errorf("invalid price_large %q", p.PriceLarge)
		}
		product.PriceLarge = decimal.NewNullDecimal(large)
	}
	return product, nil
}

// LoadIfEmpty 只在商品表為空時匯入, 回傳匯入數量
func LoadIfEmpty(ctx context.Context, repo db.IProductRepository, path string, logger *zerolog.Logger) (int, error) {
	count, err := repo.CountProducts(ctx)
	if err != nil {
		return 0, fmt.Errorf("count products: %w", err)
	}
	if count > 0 {
		return 0, nil
	}

	f, err := os.Open(path)
	if os.IsNotExist(err) {
		logger.Warn().Str("file", path).Msg("catalog seed file not found, skip")
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("open catalog: %w", err)
	}
	defer f.Close()

	products, err := Parse(f)
	if err != nil {
		return 0, err
	}
	if err := repo.CreateProductsBatch(ctx, products); err != nil {
		return 0, fmt.Errorf("seed catalog: %w", err)
	}
	logger.Info().Int("products", len(products)).Str("file", path).Msg("catalog seeded")
	return len(products), nil
}
