package service

import (
	"context"
	"satchmo-store/internal/hooks"
	"satchmo-store/internal/model"
	"satchmo-store/internal/testutil"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestPricingUnitPrice(t *testing.T) {
	repos := testutil.NewRepos(t)
	ctx := context.Background()

	shirt := testutil.CreateProduct(t, repos, "shirt", "20")
	require.NoError(t, repos.Prices.Create(ctx, &model.Price{ProductID: shirt.ID, Price: testutil.Decimal("18"), Quantity: 10}))
	past := time.Now().Add(-time.Hour)
	require.NoError(t, repos.Prices.Create(ctx, &model.Price{ProductID: shirt.ID, Price: testutil.Decimal("1"), Quantity: 1, Expires: &past}))

	wholesale := &model.PricingTier{Name: "Wholesale", Group: "wholesale", DiscountPercent: testutil.Decimal("25")}
	require.NoError(t, repos.Prices.CreateTier(ctx, wholesale))

	svc := NewPricingService(repos.Prices, repos.Products, testutil.NewCache(), hooks.New(), zap.NewNop())

	tests := []struct {
		name    string
		qty     int
		contact *model.Contact
		want    string
	}{
		{"single unit", 1, nil, "20"},
		{"quantity break", 12, nil, "18"},
		{"zero quantity counts as one", 0, nil, "20"},
		{"group without tier", 1, &model.Contact{PricingGroup: "retail"}, "20"},
		{"tier percent", 1, &model.Contact{PricingGroup: "wholesale"}, "15"},
		{"tier percent on break", 10, &model.Contact{PricingGroup: "wholesale"}, "13.5"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			price, err := svc.UnitPrice(ctx, shirt, tt.qty, tt.contact)
			require.NoError(t, err)
			assert.True(t, testutil.Decimal(tt.want).Equal(price), "got %s", price)
		})
	}
}

func TestPricingTieredPriceBeatsPercent(t *testing.T) {
	repos := testutil.NewRepos(t)
	ctx := context.Background()

	mug := testutil.CreateProduct(t, repos, "mug", "10")
	tier := &model.PricingTier{Name: "Wholesale", Group: "wholesale", DiscountPercent: testutil.Decimal("10")}
	require.NoError(t, repos.Prices.CreateTier(ctx, tier))
	require.NoError(t, repos.Prices.CreateTieredPrice(ctx, &model.TieredPrice{
		PricingTierID: tier.ID, ProductID: mug.ID, Quantity: 1, Price: testutil.Decimal("7"),
	}))

	svc := NewPricingService(repos.Prices, repos.Products, testutil.NewCache(), hooks.New(), zap.NewNop())
	price, err := svc.UnitPrice(ctx, mug, 1, &model.Contact{PricingGroup: "wholesale"})
	require.NoError(t, err)
	assert.True(t, testutil.Decimal("7").Equal(price))
}

func TestPricingNoPrice(t *testing.T) {
	repos := testutil.NewRepos(t)
	ctx := context.Background()

	p := &model.Product{SKU: "free", Slug: "free", Name: "Free", Kind: model.ProductKindDefault, Active: true}
	require.NoError(t, repos.Products.Create(ctx, p))

	svc := NewPricingService(repos.Prices, repos.Products, testutil.NewCache(), hooks.New(), zap.NewNop())
	_, err := svc.UnitPrice(ctx, p, 1, nil)
	assert.Error(t, err)
}

func TestPricingRebuildLookup(t *testing.T) {
	repos := testutil.NewRepos(t)
	ctx := context.Background()

	hat := testutil.CreateProduct(t, repos, "hat", "30")
	require.NoError(t, repos.Prices.Create(ctx, &model.Price{ProductID: hat.ID, Price: testutil.Decimal("25"), Quantity: 5}))
	tier := &model.PricingTier{Name: "Club", Group: "club", DiscountPercent: testutil.Decimal("10")}
	require.NoError(t, repos.Prices.CreateTier(ctx, tier))

	cache := testutil.NewCache()
	svc := NewPricingService(repos.Prices, repos.Products, cache, hooks.New(), zap.NewNop())

	// warm the cache, then change the price list underneath it
	price, err := svc.UnitPrice(ctx, hat, 1, nil)
	require.NoError(t, err)
	assert.True(t, testutil.Decimal("30").Equal(price))
	require.NoError(t, repos.Prices.Create(ctx, &model.Price{ProductID: hat.ID, Price: testutil.Decimal("28"), Quantity: 2}))

	n, err := svc.RebuildLookup(ctx)
	require.NoError(t, err)
	// three base breaks plus the tier at each of them
	assert.Equal(t, 6, n)

	tierRows, err := repos.Prices.Lookup(ctx, hat.ID, &tier.ID)
	require.NoError(t, err)
	require.Len(t, tierRows, 3)
	assert.True(t, testutil.Decimal("27").Equal(tierRows[0].Price))
	assert.True(t, testutil.Decimal("25.2").Equal(tierRows[1].Price))
	assert.True(t, testutil.Decimal("22.5").Equal(tierRows[2].Price))

	price, err = svc.UnitPrice(ctx, hat, 3, nil)
	require.NoError(t, err)
	assert.True(t, testutil.Decimal("28").Equal(price))

	price, err = svc.UnitPrice(ctx, hat, 6, &model.Contact{PricingGroup: "club"})
	require.NoError(t, err)
	assert.True(t, testutil.Decimal("22.5").Equal(price))
}

func TestPricingIgnoresStaleLookup(t *testing.T) {
	repos := testutil.NewRepos(t)
	ctx := context.Background()
	now := time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)

	mug := testutil.CreateProduct(t, repos, "mug", "10")
	tier := &model.PricingTier{Name: "Wholesale", Group: "wholesale"}
	require.NoError(t, repos.Prices.CreateTier(ctx, tier))
	sale := now.Add(time.Hour)
	require.NoError(t, repos.Prices.CreateTieredPrice(ctx, &model.TieredPrice{
		PricingTierID: tier.ID, ProductID: mug.ID, Quantity: 1, Price: testutil.Decimal("7"), Expires: &sale,
	}))

	svc := NewPricingService(repos.Prices, repos.Products, testutil.NewCache(), hooks.New(), zap.NewNop())
	svc.(*pricingServiceImpl).now = func() time.Time { return now }
	wholesale := &model.Contact{PricingGroup: "wholesale"}

	_, err := svc.RebuildLookup(ctx)
	require.NoError(t, err)
	tierRows, err := repos.Prices.Lookup(ctx, mug.ID, &tier.ID)
	require.NoError(t, err)
	require.Len(t, tierRows, 1)
	require.NotNil(t, tierRows[0].Expires, "tier row carries the sale expiry")
	assert.True(t, sale.Equal(*tierRows[0].Expires))

	price, err := svc.UnitPrice(ctx, mug, 1, wholesale)
	require.NoError(t, err)
	assert.True(t, testutil.Decimal("7").Equal(price), "got %s", price)

	t.Run("expired tier price", func(t *testing.T) {
		svc.(*pricingServiceImpl).now = func() time.Time { return now.Add(2 * time.Hour) }

		price, err := svc.UnitPrice(ctx, mug, 1, wholesale)
		require.NoError(t, err)
		assert.True(t, testutil.Decimal("10").Equal(price), "got %s", price)

		breaks, err := svc.QuantityBreaks(ctx, mug.ID, wholesale)
		require.NoError(t, err)
		require.Len(t, breaks, 1)
		assert.True(t, testutil.Decimal("10").Equal(breaks[0].Price))
	})

	t.Run("price added after rebuild", func(t *testing.T) {
		require.NoError(t, repos.Prices.Create(ctx, &model.Price{ProductID: mug.ID, Price: testutil.Decimal("5"), Quantity: 1}))
		require.NoError(t, svc.InvalidateProduct(ctx, mug.ID))

		price, err := svc.UnitPrice(ctx, mug, 1, nil)
		require.NoError(t, err)
		assert.True(t, testutil.Decimal("5").Equal(price), "got %s", price)
	})
}

func TestPricingQuantityBreaks(t *testing.T) {
	repos := testutil.NewRepos(t)
	ctx := context.Background()

	hat := testutil.CreateProduct(t, repos, "hat", "30")
	require.NoError(t, repos.Prices.Create(ctx, &model.Price{ProductID: hat.ID, Price: testutil.Decimal("25"), Quantity: 5}))
	tier := &model.PricingTier{Name: "Club", Group: "club", DiscountPercent: testutil.Decimal("10")}
	require.NoError(t, repos.Prices.CreateTier(ctx, tier))

	svc := NewPricingService(repos.Prices, repos.Products, testutil.NewCache(), hooks.New(), zap.NewNop())
	_, err := svc.RebuildLookup(ctx)
	require.NoError(t, err)

	breaks, err := svc.QuantityBreaks(ctx, hat.ID, nil)
	require.NoError(t, err)
	require.Len(t, breaks, 2)
	assert.Equal(t, 1, breaks[0].Quantity)
	assert.True(t, testutil.Decimal("30").Equal(breaks[0].Price))
	assert.Equal(t, 5, breaks[1].Quantity)

	breaks, err = svc.QuantityBreaks(ctx, hat.ID, &model.Contact{PricingGroup: "club"})
	require.NoError(t, err)
	require.Len(t, breaks, 2)
	assert.True(t, testutil.Decimal("27").Equal(breaks[0].Price))
	assert.True(t, testutil.Decimal("22.5").Equal(breaks[1].Price))
}

func TestPricingPriceQueryHook(t *testing.T) {
	repos := testutil.NewRepos(t)
	ctx := context.Background()
	book := testutil.CreateProduct(t, repos, "book", "12")

	h := hooks.New()
	h.PriceQuery.Connect(func(_ context.Context, q hooks.PriceQuery) error {
		if q.Contact != nil && q.Contact.Role == model.RoleStaff {
			*q.Price = q.Price.Sub(decimal.NewFromInt(2))
		}
		return nil
	})

	svc := NewPricingService(repos.Prices, repos.Products, testutil.NewCache(), h, zap.NewNop())

	price, err := svc.UnitPrice(ctx, book, 1, &model.Contact{Role: model.RoleStaff})
	require.NoError(t, err)
	assert.True(t, testutil.Decimal("10").Equal(price))

	// the adjustment is not cached
	price, err = svc.UnitPrice(ctx, book, 1, nil)
	require.NoError(t, err)
	assert.True(t, testutil.Decimal("12").Equal(price))
}
