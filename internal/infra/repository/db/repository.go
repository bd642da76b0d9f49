package db

import (
	"context"

	"github.com/RoyceAzure/lab/pizzabot/internal/domain/model"
)

type IProductRepository interface {
	CreateProduct(ctx context.Context, product *model.Product) error
	CreateProductsBatch(ctx context.Context, products []model.Product) error
	GetProductByID(ctx context.Context, id uint) (*model.Product, error)
	GetProductsByIDs(ctx context.Context, ids []uint) ([]model.Product, error)
	GetAllProducts(ctx context.Context) ([]model.Product, error)
	GetProductsByCategories(ctx context.Context, categories ...model.Category) ([]model.Product, error)
	CountProducts(ctx context.Context) (int64, error)
	PatchProductFields(ctx context.Context, id uint, updates map[string]any) error
	HardDeleteProduct(ctx context.Context, id uint) error
}

type IUserRepository interface {
	CreateUser(ctx context.Context, user *model.User) (*model.User, error)
	GetUserByID(ctx context.Context, id int64) (*model.User, error)
	GetAllUsers(ctx context.Context) ([]model.User, error)
	GetAdmins(ctx context.Context) ([]model.User, error)
	UpdateUser(ctx context.Context, user *model.User) error
	SetAdmin(ctx context.Context, id int64, isAdmin bool) error
}

type IOrderRepository interface {
	CreateOrderWithItems(ctx context.Context, order *model.Order) error
	GetOrderByID(ctx context.Context, id uint) (*model.Order, error)
	GetOrdersByUserID(ctx context.Context, userID int64) ([]model.Order, error)
	TransitionStatus(ctx context.Context, id uint, from, to model.OrderStatus) (bool, error)
}
