package service

import (
	"context"
	"satchmo-store/internal/hooks"
	"satchmo-store/internal/livesettings"
	"satchmo-store/internal/testutil"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCartAddItemMergesLines(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	shirt := testutil.CreateProduct(t, env.repos, "shirt", "20")

	var added []int
	env.hooks.CartAdd.Connect(func(_ context.Context, e hooks.CartAdd) error {
		added = append(added, e.Quantity)
		return nil
	})

	cart, err := env.carts.Create(ctx, nil)
	require.NoError(t, err)
	assert.NotEmpty(t, cart.Key)

	_, err = env.carts.AddItem(ctx, cart.Key, shirt.ID, 1, nil)
	require.NoError(t, err)
	cart, err = env.carts.AddItem(ctx, cart.Key, shirt.ID, 2, nil)
	require.NoError(t, err)

	require.Len(t, cart.Items, 1)
	assert.Equal(t, 3, cart.Items[0].Quantity)
	assert.Equal(t, []int{1, 2}, added)
}

func TestCartAddItemRejects(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	shirt := testutil.CreateProduct(t, env.repos, "shirt", "20")
	key := env.cartWith(t, 1)

	t.Run("zero quantity", func(t *testing.T) {
		_, err := env.carts.AddItem(ctx, key, shirt.ID, 0, nil)
		assert.ErrorIs(t, err, ErrInvalidQuantity)
	})

	t.Run("inactive product", func(t *testing.T) {
		old := testutil.CreateProduct(t, env.repos, "old", "5")
		old.Active = false
		require.NoError(t, env.repos.Products.Update(ctx, old))

		_, err := env.carts.AddItem(ctx, key, old.ID, 1, nil)
		assert.ErrorIs(t, err, ErrProductUnavailable)
	})

	t.Run("stock limit", func(t *testing.T) {
		testutil.Update(t, env.settings, livesettings.GroupShop, "CART_QTY", true)
		_, err := env.carts.AddItem(ctx, key, shirt.ID, 11, nil)
		assert.ErrorIs(t, err, ErrNotEnoughStock)

		_, err = env.carts.AddItem(ctx, key, shirt.ID, 10, nil)
		assert.NoError(t, err)
	})
}

func TestCartSetQuantity(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	shirt := testutil.CreateProduct(t, env.repos, "shirt", "20")
	mug := testutil.CreateProduct(t, env.repos, "mug", "8")
	key := env.cartWith(t, 1, shirt, mug)

	cart, err := env.carts.SetQuantity(ctx, key, shirt.ID, 4)
	require.NoError(t, err)
	assert.Equal(t, 5, cart.NumItems())

	cart, err = env.carts.SetQuantity(ctx, key, mug.ID, 0)
	require.NoError(t, err)
	require.Len(t, cart.Items, 1)
	assert.Equal(t, shirt.ID, cart.Items[0].ProductID)

	_, err = env.carts.SetQuantity(ctx, key, shirt.ID, -1)
	assert.ErrorIs(t, err, ErrInvalidQuantity)

	require.NoError(t, env.carts.Empty(ctx, key))
	cart, err = env.carts.Get(ctx, key)
	require.NoError(t, err)
	assert.True(t, cart.IsEmpty())
}

func TestCartSummary(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	shirt := testutil.CreateProduct(t, env.repos, "shirt", "20")
	mug := testutil.CreateProduct(t, env.repos, "mug", "8.50")
	key := env.cartWith(t, 2, shirt, mug)

	cart, err := env.carts.Get(ctx, key)
	require.NoError(t, err)
	summary, err := env.carts.Summary(ctx, cart, nil)
	require.NoError(t, err)

	assert.Equal(t, 4, summary.NumItems)
	assert.True(t, testutil.Decimal("57").Equal(summary.Subtotal), "got %s", summary.Subtotal)
	assert.Equal(t, "$57.00", summary.SubtotalDisplay)
	assert.True(t, summary.Shippable)
	require.Len(t, summary.Items, 2)
	assert.True(t, testutil.Decimal("17").Equal(summary.Items[1].LinePrice))
}
