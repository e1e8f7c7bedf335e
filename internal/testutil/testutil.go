// Package testutil provides common test utilities for the store packages.
package testutil

import (
	"context"
	"satchmo-store/internal/keyedcache"
	"satchmo-store/internal/livesettings"
	"satchmo-store/internal/model"
	"satchmo-store/internal/repository"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// NewRepos opens a migrated in-memory sqlite database. sqlite keeps one
// connection so every query sees the same in-memory database.
func NewRepos(t *testing.T) *repository.Repositories {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	require.NoError(t, db.AutoMigrate(model.AllModels()...))
	return repository.New(db)
}

// NewCache returns an enabled memory cache.
func NewCache() *keyedcache.Cache {
	return keyedcache.New(keyedcache.NewMemoryBackend(), keyedcache.WithPrefix("test"))
}

// NewSettings returns a registry with the shop settings registered.
func NewSettings(t *testing.T, repos *repository.Repositories) *livesettings.Registry {
	t.Helper()

	settings := livesettings.NewRegistry(repos.Settings, NewCache(), zap.NewNop())
	require.NoError(t, livesettings.RegisterShopSettings(settings))
	return settings
}

// Update sets a setting or fails the test.
func Update(t *testing.T, settings *livesettings.Registry, group, key string, value any) {
	t.Helper()
	require.NoError(t, settings.Update(context.Background(), group, key, value))
}

func Decimal(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

// CreateProduct stores an active shippable product with a single price.
func CreateProduct(t *testing.T, repos *repository.Repositories, sku string, price string) *model.Product {
	t.Helper()
	ctx := context.Background()

	p := &model.Product{
		SKU:          sku,
		Slug:         sku,
		Name:         "Product " + sku,
		Kind:         model.ProductKindDefault,
		Active:       true,
		Taxable:      true,
		Shippable:    true,
		Weight:       decimal.NewFromInt(1),
		ItemsInStock: 10,
	}
	require.NoError(t, repos.Products.Create(ctx, p))
	require.NoError(t, repos.Prices.Create(ctx, &model.Price{ProductID: p.ID, Price: Decimal(price), Quantity: 1}))
	return p
}

// CreateOrder stores a New order with one item of product and total set to the line price.
func CreateOrder(t *testing.T, repos *repository.Repositories, product *model.Product, qty int, unitPrice string) *model.Order {
	t.Helper()

	unit := Decimal(unitPrice)
	line := unit.Mul(decimal.NewFromInt(int64(qty)))
	order := &model.Order{
		Status:   model.StatusNew,
		Method:   model.MethodOnline,
		Subtotal: line,
		Total:    line,
		Items: []model.OrderItem{{
			ProductID: product.ID,
			Product:   *product,
			Quantity:  qty,
			UnitPrice: unit,
			LinePrice: line,
		}},
	}
	require.NoError(t, repos.Orders.Create(context.Background(), order))
	return order
}
