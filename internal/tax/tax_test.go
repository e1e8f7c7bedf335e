package tax

import (
	"context"
	"satchmo-store/internal/keyedcache"
	"satchmo-store/internal/livesettings"
	"satchmo-store/internal/model"
	"satchmo-store/internal/repository"
	"testing"

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
	require.NoError(t, livesettings.RegisterShopSettings(settings))
	require.NoError(t, RegisterSettings(settings))

	return NewService(settings, repos.Tax), settings, repos
}

func d(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func testOrder() *model.Order {
	return &model.Order{
		ShipAddress: model.Address{Country: "US", State: "TX"},
		Shipping:    d("10.00"),
		Items: []model.OrderItem{
			{Quantity: 2, LinePrice: d("20.00"), Product: model.Product{Taxable: true}},
			{Quantity: 1, LinePrice: d("5.00"), Product: model.Product{Taxable: false}},
		},
	}
}

func TestNoTax(t *testing.T) {
	svc, _, _ := newTestService(t)
	ctx := context.Background()

	p, err := svc.Processor(ctx)
	require.NoError(t, err)
	assert.Equal(t, ModuleNone, p.Key())

	order := testOrder()
	total, details, err := p.Process(ctx, order)
	require.NoError(t, err)
	assert.True(t, total.IsZero())
	assert.Empty(t, details)
}

func TestPercentTax(t *testing.T) {
	svc, settings, _ := newTestService(t)
	ctx := context.Background()
	require.NoError(t, settings.Update(ctx, Group, "MODULE", ModulePercent))
	require.NoError(t, settings.Update(ctx, Group, "PERCENT", "10"))

	p, err := svc.Processor(ctx)
	require.NoError(t, err)

	byPrice, err := p.ByPrice(ctx, DefaultClass, d("19.99"))
	require.NoError(t, err)
	assert.True(t, d("2.00").Equal(byPrice), byPrice.String())

	t.Run("items only", func(t *testing.T) {
		order := testOrder()
		total, details, err := p.Process(ctx, order)
		require.NoError(t, err)
		assert.True(t, d("2.00").Equal(total), total.String())
		assert.True(t, d("1.00").Equal(order.Items[0].UnitTax))
		assert.True(t, order.Items[1].LineTax.IsZero())
		require.Len(t, details, 1)
		assert.Equal(t, "10%", details[0].Description)
	})

	t.Run("discount reduces taxable amount", func(t *testing.T) {
		order := testOrder()
		order.Items[0].Discount = d("10.00")
		total, _, err := p.Process(ctx, order)
		require.NoError(t, err)
		assert.True(t, d("1.00").Equal(total), total.String())
	})

	t.Run("shipping taxed", func(t *testing.T) {
		require.NoError(t, settings.Update(ctx, Group, "TAX_SHIPPING", true))
		p, err := svc.Processor(ctx)
		require.NoError(t, err)

		order := testOrder()
		order.ShippingDiscount = d("5.00")
		total, _, err := p.Process(ctx, order)
		require.NoError(t, err)
		assert.True(t, d("2.50").Equal(total), total.String())
	})
}

func TestAreaTax(t *testing.T) {
	svc, settings, repos := newTestService(t)
	ctx := context.Background()
	require.NoError(t, settings.Update(ctx, Group, "MODULE", ModuleArea))

	require.NoError(t, repos.Tax.CreateRate(ctx, &model.TaxRate{TaxClass: DefaultClass, Country: "US", Percentage: d("5")}))
	require.NoError(t, repos.Tax.CreateRate(ctx, &model.TaxRate{TaxClass: DefaultClass, Country: "US", AdminArea: "TX", Percentage: d("8.25")}))
	require.NoError(t, repos.Tax.CreateRate(ctx, &model.TaxRate{TaxClass: model.TaxClassShipping, Country: "US", Percentage: d("5")}))

	p, err := svc.Processor(ctx)
	require.NoError(t, err)
	assert.Equal(t, ModuleArea, p.Key())

	t.Run("admin area rate wins", func(t *testing.T) {
		order := testOrder()
		total, details, err := p.Process(ctx, order)
		require.NoError(t, err)
		// 20.00 * 8.25% = 1.65, shipping 10.00 * 5% = 0.50
		assert.True(t, d("2.15").Equal(total), total.String())
		require.Len(t, details, 2)
		assert.Equal(t, "8.25%", details[0].Description)
		assert.Equal(t, "5%", details[1].Description)
	})

	t.Run("country rate fallback", func(t *testing.T) {
		order := testOrder()
		order.ShipAddress.State = "OK"
		total, _, err := p.Process(ctx, order)
		require.NoError(t, err)
		assert.True(t, d("1.50").Equal(total), total.String())
	})

	t.Run("unknown country pays nothing", func(t *testing.T) {
		order := testOrder()
		order.ShipAddress = model.Address{Country: "FR"}
		total, details, err := p.Process(ctx, order)
		require.NoError(t, err)
		assert.True(t, total.IsZero())
		assert.Empty(t, details)
	})

	t.Run("by price uses store country", func(t *testing.T) {
		tax, err := p.ByPrice(ctx, DefaultClass, d("10.00"))
		require.NoError(t, err)
		assert.True(t, d("0.50").Equal(tax), tax.String())
	})
}

func TestUnknownModule(t *testing.T) {
	svc, _, _ := newTestService(t)
	_, err := svc.ProcessorFor(context.Background(), "vat")
	assert.Error(t, err)
}
