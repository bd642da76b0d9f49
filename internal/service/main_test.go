package service

import (
	"context"
	"testing"

	"github.com/RoyceAzure/lab/pizzabot/internal/domain/model"
	"github.com/RoyceAzure/lab/pizzabot/internal/infra/repository/db"
	"github.com/RoyceAzure/lab/pizzabot/internal/infra/repository/redis_repo"
	"github.com/RoyceAzure/lab/pizzabot/internal/logger"
	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
)

const superAdminID int64 = 1000

type recordingPublisher struct {
	events []string
}

func (p *recordingPublisher) OrderPlaced(_ context.Context, o *model.Order) error {
	p.events = append(p.events, "placed")
	return nil
}

func (p *recordingPublisher) OrderPaid(_ context.Context, o *model.Order) error {
	p.events = append(p.events, "paid")
	return nil
}

func (p *recordingPublisher) OrderCancelled(_ context.Context, o *model.Order) error {
	p.events = append(p.events, "cancelled")
	return nil
}

func (p *recordingPublisher) Close() error { return nil }

type testEnv struct {
	mr          *miniredis.Miniredis
	dao         *db.DbDao
	productRepo *db.ProductRepo
	orderRepo   *db.OrderRepo
	userRepo    *db.UserRepo
	cartRepo    *redis_repo.CartRepo
	publisher   *recordingPublisher

	cart     *CartService
	orders   *OrderService
	payments *PaymentService
	users    *UserService
	products *ProductService

	pepperoni model.Product
	chili     model.Product
	salmon    model.Product
	cola      model.Product
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	conn, err := db.GetDbConn(":memory:")
	require.NoError(t, err)
	dao := db.NewDbDao(conn)
	require.NoError(t, dao.InitMigrate())
	t.Cleanup(func() { _ = dao.Close() })

	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })

	env := &testEnv{
		mr:          mr,
		dao:         dao,
		productRepo: db.NewProductRepo(dao),
		orderRepo:   db.NewOrderRepo(dao),
		userRepo:    db.NewUserRepo(dao),
		cartRepo:    redis_repo.NewCartRepo(rdb),
		publisher:   &recordingPublisher{},
	}
	log := logger.Nop()
	env.cart = NewCartService(env.cartRepo, env.productRepo, log)
	env.orders = NewOrderService(env.orderRepo, env.cart, env.publisher, log)
	env.payments = NewPaymentService(env.orders, env.productRepo, "BYN")
	env.users = NewUserService(env.userRepo, superAdminID, log)
	env.products = NewProductService(env.productRepo)

	env.pepperoni = env.createProduct(t, "Pepperoni", model.CategoryPizza, "22.15", "30.55")
	env.chili = env.createProduct(t, "Chili", model.CategoryPizza, "22.15", "30.55")
	env.salmon = env.createProduct(t, "Salmon roll", model.CategorySnack, "8.99", "")
	env.cola = env.createProduct(t, "Coca-Cola", model.CategoryDrink, "1.95", "2.99")
	return env
}

func (env *testEnv) createProduct(t *testing.T, name string, category model.Category, small, large string) model.Product {
	p := model.Product{Name: name, Category: category, PriceSmall: decimal.RequireFromString(small)}
	if large != "" {
		p.PriceLarge = decimal.NewNullDecimal(decimal.RequireFromString(large))
	}
	require.NoError(t, env.productRepo.CreateProduct(context.Background(), &p))
	return p
}
