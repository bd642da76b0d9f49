package db

import (
	"context"
	"sort"

	"github.com/RoyceAzure/lab/pizzabot/internal/domain/model"
)

type ProductRepo struct {
	db *DbDao
}

func NewProductRepo(db *DbDao) *ProductRepo {
	return &ProductRepo{db: db}
}

func (s *ProductRepo) CreateProduct(ctx context.Context, product *model.Product) error {
	product.ApplyCategory(product.Category)
	return s.db.WithContext(ctx).Create(product).Error
}

// 批量創建商品
func (s *ProductRepo) CreateProductsBatch(ctx context.Context, products []model.Product) error {
	if len(products) == 0 {
		return nil
	}
	for i := range products {
		products[i].ApplyCategory(products[i].Category)
	}
	return s.db.WithContext(ctx).Create(&products).Error
}

func (s *ProductRepo) GetProductByID(ctx context.Context, id uint) (*model.Product, error) {
	var product model.Product
	if err := s.db.WithContext(ctx).First(&product, id).Error; err != nil {
		return nil, wrapNotFound(err)
	}
	return &product, nil
}

// 不存在的 id 直接略過
func (s *ProductRepo) GetProductsByIDs(ctx context.Context, ids []uint) ([]model.Product, error) {
	var products []model.Product
	if len(ids) == 0 {
		return products, nil
	}
	err := s.db.WithContext(ctx).Where("id IN ?", ids).Find(&products).Error
	return products, err
}

func (s *ProductRepo) GetAllProducts(ctx context.Context) ([]model.Product, error) {
	var products []model.Product
	if err := s.db.WithContext(ctx).Find(&products).Error; err != nil {
		return nil, err
	}
	SortProducts(products)
	return products, nil
}

func (s *ProductRepo) GetProductsByCategories(ctx context.Context, categories ...model.Category) ([]model.Product, error) {
	var products []model.Product
	if err := s.db.WithContext(ctx).Where("category IN ?", categories).Find(&products).Error; err != nil {
		return nil, err
	}
	SortProducts(products)
	return products, nil
}

func (s *ProductRepo) CountProducts(ctx context.Context) (int64, error) {
	var total int64
	err := s.db.WithContext(ctx).Model(&model.Product{}).Count(&total).Error
	return total, err
}

// Update - 部分更新商品
func (s *ProductRepo) PatchProductFields(ctx context.Context, id uint, updates map[string]any) error {
	res := s.db.WithContext(ctx).Model(&model.Product{}).Where("id = ?", id).Updates(updates)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// Delete - 硬刪除商品
func (s *ProductRepo) HardDeleteProduct(ctx context.Context, id uint) error {
	res := s.db.WithContext(ctx).Delete(&model.Product{}, id)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// SortProducts 依分類順序 pizza, snack, cake, drink 再依名稱
func SortProducts(products []model.Product) {
	sort.SliceStable(products, func(i, j int) bool {
		ri, rj := products[i].Category.Rank(), products[j].Category.Rank()
		if ri != rj {
			return ri < rj
		}
		return products[i].Name < products[j].Name
	})
}
