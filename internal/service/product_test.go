package service

import (
	"context"
	"satchmo-store/internal/dto"
	"satchmo-store/internal/model"
	"satchmo-store/internal/repository"
	"satchmo-store/internal/testutil"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestProductSearch(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	jazz := &model.Category{Slug: "jazz", Name: "Jazz"}
	require.NoError(t, env.repos.Products.CreateCategory(ctx, jazz))

	record := testutil.CreateProduct(t, env.repos, "hot-five", "15")
	record.CategoryID = &jazz.ID
	record.Featured = true
	require.NoError(t, env.repos.Products.Update(ctx, record))
	testutil.CreateProduct(t, env.repos, "poster", "5")

	unpriced := &model.Product{SKU: "soon", Slug: "soon", Name: "Coming soon", Kind: model.ProductKindDefault, Active: true}
	require.NoError(t, env.repos.Products.Create(ctx, unpriced))

	t.Run("all", func(t *testing.T) {
		page, err := env.products.Search(ctx, dto.ProductQuery{}, nil)
		require.NoError(t, err)
		assert.EqualValues(t, 3, page.Total)
		assert.Equal(t, 20, page.Limit)

		var unlisted *dto.ProductSummary
		for i := range page.Items {
			if page.Items[i].SKU == "soon" {
				unlisted = &page.Items[i]
			}
		}
		require.NotNil(t, unlisted)
		assert.Nil(t, unlisted.Price)
	})

	t.Run("category", func(t *testing.T) {
		page, err := env.products.Search(ctx, dto.ProductQuery{Category: "jazz"}, nil)
		require.NoError(t, err)
		require.Len(t, page.Items, 1)
		assert.Equal(t, "hot-five", page.Items[0].SKU)
		assert.Equal(t, "$15.00", page.Items[0].PriceDisplay)
	})

	t.Run("unknown category", func(t *testing.T) {
		_, err := env.products.Search(ctx, dto.ProductQuery{Category: "polka"}, nil)
		assert.ErrorIs(t, err, repository.ErrNotFound)
	})

	t.Run("featured", func(t *testing.T) {
		page, err := env.products.Search(ctx, dto.ProductQuery{Featured: true}, nil)
		require.NoError(t, err)
		assert.EqualValues(t, 1, page.Total)
	})
}

func TestProductDetail(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	shirt := testutil.CreateProduct(t, env.repos, "shirt", "20")
	require.NoError(t, env.repos.Prices.Create(ctx, &model.Price{ProductID: shirt.ID, Price: testutil.Decimal("18"), Quantity: 5}))

	detail, err := env.products.Detail(ctx, "shirt", 0, nil)
	require.NoError(t, err)
	assert.Equal(t, 1, detail.Quantity)
	assert.True(t, testutil.Decimal("20").Equal(detail.UnitPrice))
	assert.True(t, detail.InStock)

	detail, err = env.products.Detail(ctx, "shirt", 12, nil)
	require.NoError(t, err)
	assert.True(t, testutil.Decimal("18").Equal(detail.UnitPrice))
	assert.False(t, detail.InStock, "only 10 in stock")
	assert.Empty(t, detail.PriceBreaks, "lookup not built yet")

	_, err = env.pricing.RebuildLookup(ctx)
	require.NoError(t, err)
	detail, err = env.products.Detail(ctx, "shirt", 1, nil)
	require.NoError(t, err)
	require.Len(t, detail.PriceBreaks, 2)
	assert.Equal(t, 5, detail.PriceBreaks[1].Quantity)
	assert.Equal(t, "$18.00", detail.PriceBreaks[1].PriceDisplay)

	shirt.Active = false
	require.NoError(t, env.repos.Products.Update(ctx, shirt))
	_, err = env.products.Detail(ctx, "shirt", 1, nil)
	assert.ErrorIs(t, err, repository.ErrNotFound)
}
