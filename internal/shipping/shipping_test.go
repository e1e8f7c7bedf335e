package shipping

import (
	"context"
	"satchmo-store/internal/keyedcache"
	"satchmo-store/internal/livesettings"
	"satchmo-store/internal/model"
	"satchmo-store/internal/repository"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func newTestService(t *testing.T) (*Service, *livesettings.Registry, *repository.Repositories) {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{Logger: logger.Default.LogMode(logger.Silent)})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })
	require.NoError(t, db.AutoMigrate(model.AllModels()...))

	repos := repository.New(db)
	cache := keyedcache.New(keyedcache.NewMemoryBackend(), keyedcache.WithPrefix("test"))
	settings := livesettings.NewRegistry(repos.Settings, cache, zap.NewNop())
	require.NoError(t, RegisterSettings(settings))

	return NewService(settings, repos.Shipping), settings, repos
}

func d(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func testOrder() *model.Order {
	return &model.Order{
		Subtotal: d("45.00"),
		Items: []model.OrderItem{
			{Quantity: 2, LinePrice: d("30.00"), Product: model.Product{Shippable: true, Weight: d("1.5")}},
			{Quantity: 1, LinePrice: d("15.00"), Product: model.Product{Shippable: false}},
		},
	}
}

func TestFlatAndPer(t *testing.T) {
	svc, settings, _ := newTestService(t)
	ctx := context.Background()
	require.NoError(t, settings.Update(ctx, Group, "MODULES", []string{ModuleFlat, ModulePer}))
	require.NoError(t, settings.Update(ctx, "SHIPPING_PER", "RATE", "2.50"))

	options, err := svc.Options(ctx, testOrder())
	require.NoError(t, err)
	require.Len(t, options, 2)

	assert.Equal(t, ModuleFlat, options[0].Key)
	assert.True(t, d("4.00").Equal(options[0].Cost))
	assert.Equal(t, ModulePer, options[1].Key)
	assert.True(t, d("5.00").Equal(options[1].Cost), options[1].Cost.String())
}

func TestNothingToShip(t *testing.T) {
	svc, _, _ := newTestService(t)
	order := &model.Order{Items: []model.OrderItem{{Quantity: 1, Product: model.Product{}}}}

	options, err := svc.Options(context.Background(), order)
	require.NoError(t, err)
	assert.Empty(t, options)
}

func TestTiered(t *testing.T) {
	svc, settings, repos := newTestService(t)
	ctx := context.Background()
	require.NoError(t, settings.Update(ctx, Group, "MODULES", []string{ModuleTiered}))

	past := time.Now().Add(-time.Hour)
	require.NoError(t, repos.Shipping.CreateCarrier(ctx, &model.Carrier{
		Key: "ups", Name: "UPS", Method: "Ground", Delivery: "5 days", Basis: model.BasisTotal, Active: true,
		Tiers: []model.ShippingTier{
			{Min: d("0"), Price: d("10.00")},
			{Min: d("25"), Price: d("7.00")},
			{Min: d("25"), Price: d("1.00"), Expires: &past},
			{Min: d("100"), Price: d("0.00")},
		},
	}))
	require.NoError(t, repos.Shipping.CreateCarrier(ctx, &model.Carrier{
		Key: "freight", Name: "Freight", Basis: model.BasisWeight, Active: true,
		Tiers: []model.ShippingTier{{Min: d("10"), Price: d("50.00")}},
	}))

	options, err := svc.Options(ctx, testOrder())
	require.NoError(t, err)
	require.Len(t, options, 1, "freight needs 10 weight units")
	assert.Equal(t, "tiered:ups", options[0].Key)
	assert.Equal(t, "Ground", options[0].Method)
	assert.True(t, d("7.00").Equal(options[0].Cost), options[0].Cost.String())

	_, _, err = svc.Quote(ctx, testOrder(), "tiered:freight")
	assert.ErrorIs(t, err, ErrNotValid)
}

func TestFree(t *testing.T) {
	svc, settings, _ := newTestService(t)
	ctx := context.Background()
	require.NoError(t, settings.Update(ctx, Group, "MODULES", []string{ModuleFree, ModuleFlat}))
	require.NoError(t, settings.Update(ctx, "SHIPPING_FREE", "MINIMUM", "50"))

	options, err := svc.Options(ctx, testOrder())
	require.NoError(t, err)
	require.Len(t, options, 1)
	assert.Equal(t, ModuleFlat, options[0].Key)

	order := testOrder()
	order.Subtotal = d("50.00")
	m, cost, err := svc.Quote(ctx, order, ModuleFree)
	require.NoError(t, err)
	assert.Equal(t, ModuleFree, m.Key())
	assert.True(t, cost.IsZero())
}

func TestUnknownMethod(t *testing.T) {
	svc, _, _ := newTestService(t)
	_, err := svc.Method(context.Background(), "pigeon")
	assert.ErrorIs(t, err, ErrMethodNotFound)
}
