package service

import (
	"context"
	"testing"

	"github.com/RoyceAzure/lab/pizzabot/internal/domain/model"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
)

type CartServiceTestSuite struct {
	suite.Suite
	env *testEnv
	ctx context.Context
	uid int64
}

func (suite *CartServiceTestSuite) SetupTest() {
	suite.env = newTestEnv(suite.T())
	suite.ctx = context.Background()
	suite.uid = 42
}

func TestCartServiceTestSuite(t *testing.T) {
	suite.Run(t, new(CartServiceTestSuite))
}

func (suite *CartServiceTestSuite) amount() decimal.Decimal {
	amount, err := suite.env.cart.Amount(suite.ctx, suite.uid)
	require.NoError(suite.T(), err)
	return amount
}

func (suite *CartServiceTestSuite) TestAddThenMinusRestoresAmount() {
	_, err := suite.env.cart.AddProduct(suite.ctx, suite.uid, suite.env.cola.ID, model.SizeSmall)
	require.NoError(suite.T(), err)
	before := suite.amount()

	qty, err := suite.env.cart.Plus(suite.ctx, suite.uid, suite.env.pepperoni.ID, model.SizeLarge)
	require.NoError(suite.T(), err)
	assert.Equal(suite.T(), 1, qty)
	assert.True(suite.T(), suite.amount().Equal(decimal.RequireFromString("32.50")))

	qty, err = suite.env.cart.Minus(suite.ctx, suite.uid, suite.env.pepperoni.ID, model.SizeLarge)
	require.NoError(suite.T(), err)
	assert.Zero(suite.T(), qty)
	assert.True(suite.T(), suite.amount().Equal(before))

	qty, err = suite.env.cart.Quantity(suite.ctx, suite.uid, suite.env.pepperoni.ID, model.SizeLarge)
	require.NoError(suite.T(), err)
	assert.Zero(suite.T(), qty)
}

func (suite *CartServiceTestSuite) TestMinusOnMissingItemIsNoop() {
	qty, err := suite.env.cart.Minus(suite.ctx, suite.uid, suite.env.chili.ID, model.SizeSmall)
	require.NoError(suite.T(), err)
	assert.Zero(suite.T(), qty)
	assert.True(suite.T(), suite.amount().IsZero())
}

func (suite *CartServiceTestSuite) TestAddUnavailableSize() {
	_, err := suite.env.cart.AddProduct(suite.ctx, suite.uid, suite.env.salmon.ID, model.SizeLarge)
	assert.ErrorIs(suite.T(), err, ErrSizeUnavailable)

	_, err = suite.env.cart.AddProduct(suite.ctx, suite.uid, 9999, model.SizeSmall)
	assert.ErrorIs(suite.T(), err, ErrProductNotFound)
}

func (suite *CartServiceTestSuite) TestItemsSorted() {
	for _, add := range []struct {
		id   uint
		size model.Size
	}{
		{suite.env.cola.ID, model.SizeLarge},
		{suite.env.salmon.ID, model.SizeSmall},
		{suite.env.pepperoni.ID, model.SizeSmall},
		{suite.env.chili.ID, model.SizeLarge},
	} {
		_, err := suite.env.cart.AddProduct(suite.ctx, suite.uid, add.id, add.size)
		require.NoError(suite.T(), err)
	}

	items, err := suite.env.cart.Items(suite.ctx, suite.uid)
	require.NoError(suite.T(), err)
	names := []string{}
	for _, item := range items {
		names = append(names, item.Product.Name)
	}
	assert.Equal(suite.T(), []string{"Chili", "Pepperoni", "Salmon roll", "Coca-Cola"}, names)
	assert.True(suite.T(), CartTotal(items).Equal(suite.amount()))
}

func (suite *CartServiceTestSuite) TestRemoveAndClear() {
	for i := 0; i < 3; i++ {
		_, err := suite.env.cart.AddProduct(suite.ctx, suite.uid, suite.env.salmon.ID, model.SizeSmall)
		require.NoError(suite.T(), err)
	}
	_, err := suite.env.cart.AddProduct(suite.ctx, suite.uid, suite.env.cola.ID, model.SizeSmall)
	require.NoError(suite.T(), err)

	require.NoError(suite.T(), suite.env.cart.Remove(suite.ctx, suite.uid, suite.env.salmon.ID, model.SizeSmall))
	assert.True(suite.T(), suite.amount().Equal(decimal.RequireFromString("1.95")))

	require.NoError(suite.T(), suite.env.cart.Clear(suite.ctx, suite.uid))
	items, err := suite.env.cart.Items(suite.ctx, suite.uid)
	require.NoError(suite.T(), err)
	assert.Empty(suite.T(), items)
	assert.True(suite.T(), suite.amount().IsZero())
}

func (suite *CartServiceTestSuite) TestItemsDropsDeletedProducts() {
	_, err := suite.env.cart.AddProduct(suite.ctx, suite.uid, suite.env.chili.ID, model.SizeSmall)
	require.NoError(suite.T(), err)
	_, err = suite.env.cart.AddProduct(suite.ctx, suite.uid, suite.env.cola.ID, model.SizeSmall)
	require.NoError(suite.T(), err)

	require.NoError(suite.T(), suite.env.products.Delete(suite.ctx, suite.env.chili.ID))

	items, err := suite.env.cart.Items(suite.ctx, suite.uid)
	require.NoError(suite.T(), err)
	require.Len(suite.T(), items, 1)
	assert.Equal(suite.T(), suite.env.cola.ID, items[0].Product.ID)

	entries, err := suite.env.cartRepo.Entries(suite.ctx, suite.uid)
	require.NoError(suite.T(), err)
	assert.Len(suite.T(), entries, 1)
}

func TestCents(t *testing.T) {
	assert.Equal(t, int64(3055), ToCents(decimal.RequireFromString("30.55")))
	assert.Equal(t, int64(195), ToCents(decimal.RequireFromString("1.95")))
	assert.True(t, FromCents(3055).Equal(decimal.RequireFromString("30.55")))
}
