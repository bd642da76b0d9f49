package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/RoyceAzure/lab/pizzabot/internal/domain/model"
	"github.com/RoyceAzure/lab/pizzabot/internal/domain/validator"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestListPage_SnacksAndCakesShare(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	env.createProduct(t, "Napoleon", model.CategoryCake, "5.50", "")

	page, err := env.products.ListPage(ctx, model.CategoryCake)
	require.NoError(t, err)
	require.Len(t, page, 2)
	assert.Equal(t, "Salmon roll", page[0].Name)
	assert.Equal(t, "Napoleon", page[1].Name)

	pizzas, err := env.products.ListPage(ctx, model.CategoryPizza)
	require.NoError(t, err)
	assert.Len(t, pizzas, 2)
}

func TestUpdateField(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	id := env.chili.ID

	p, err := env.products.UpdateField(ctx, id, FieldPriceSmall, "23,40")
	require.NoError(t, err)
	assert.True(t, p.PriceSmall.Equal(decimal.RequireFromString("23.40")))

	p, err = env.products.UpdateField(ctx, id, FieldPriceLarge, "/skip")
	require.NoError(t, err)
	assert.True(t, p.HasOnlyOneSize())

	_, err = env.products.UpdateField(ctx, id, FieldPriceSmall, "free")
	_, isValidation := validator.UserMessage(err)
	assert.True(t, isValidation)

	p, err = env.products.UpdateField(ctx, id, FieldCategory, "drink")
	require.NoError(t, err)
	assert.Equal(t, model.CategoryDrink, p.Category)
	assert.Equal(t, "🥤", p.Emoji)
	assert.Equal(t, "drink", p.CategoryLabel)

	p, err = env.products.UpdateField(ctx, id, FieldNutrition, "100 kcal")
	require.NoError(t, err)
	assert.Equal(t, "100 kcal", p.Nutrition)

	_, err = env.products.UpdateField(ctx, 9999, FieldName, "Ghost")
	assert.ErrorIs(t, err, ErrProductNotFound)

	_, err = ParseProductField("stock")
	assert.ErrorIs(t, err, ErrUnknownProductField)
}

func TestDeleteProduct(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	require.NoError(t, env.products.Delete(ctx, env.cola.ID))
	_, err := env.products.Get(ctx, env.cola.ID)
	assert.ErrorIs(t, err, ErrProductNotFound)
	assert.ErrorIs(t, env.products.Delete(ctx, env.cola.ID), ErrProductNotFound)
}

func TestHealthService(t *testing.T) {
	env := newTestEnv(t)
	boom := errors.New("down")
	h := NewHealthService(time.Second).
		Register("database", env.dao).
		Register("broker", PingFunc(func(context.Context) error { return boom }))

	statuses := h.Check(context.Background())
	require.Len(t, statuses, 2)
	assert.Equal(t, "database", statuses[0].Name)
	assert.True(t, statuses[0].OK)
	assert.False(t, statuses[1].OK)
	assert.ErrorIs(t, statuses[1].Err, boom)
	assert.False(t, Healthy(statuses))
}
