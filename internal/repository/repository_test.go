package repository

import (
	"context"
	"errors"
	"satchmo-store/internal/model"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func newTestRepos(t *testing.T) *Repositories {
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
	return New(db)
}

func createProduct(t *testing.T, repos *Repositories, sku string) *model.Product {
	t.Helper()
	p := &model.Product{
		SKU:          sku,
		Slug:         sku,
		Name:         "Product " + sku,
		Kind:         model.ProductKindDefault,
		Active:       true,
		Shippable:    true,
		ItemsInStock: 10,
	}
	require.NoError(t, repos.Products.Create(context.Background(), p))
	return p
}

func TestProductRepository(t *testing.T) {
	repos := newTestRepos(t)
	ctx := context.Background()

	shirt := createProduct(t, repos, "shirt")
	createProduct(t, repos, "hat")
	hidden := createProduct(t, repos, "hidden-shirt")
	hidden.Active = false
	require.NoError(t, repos.Products.Update(ctx, hidden))

	t.Run("find by id and slug", func(t *testing.T) {
		got, err := repos.Products.FindByID(ctx, shirt.ID)
		require.NoError(t, err)
		assert.Equal(t, "shirt", got.SKU)

		got, err = repos.Products.FindBySlug(ctx, "hat")
		require.NoError(t, err)
		assert.Equal(t, "hat", got.SKU)

		_, err = repos.Products.FindByID(ctx, 9999)
		assert.ErrorIs(t, err, ErrNotFound)
	})

	t.Run("search is active only", func(t *testing.T) {
		products, total, err := repos.Products.Search(ctx, ProductSearch{Query: "SHIRT"})
		require.NoError(t, err)
		assert.EqualValues(t, 1, total)
		require.Len(t, products, 1)
		assert.Equal(t, shirt.ID, products[0].ID)
	})

	t.Run("record sale", func(t *testing.T) {
		require.NoError(t, repos.Products.RecordSale(ctx, shirt.ID, 3))
		got, err := repos.Products.FindByID(ctx, shirt.ID)
		require.NoError(t, err)
		assert.Equal(t, 7, got.ItemsInStock)
		assert.Equal(t, 3, got.TotalSold)

		assert.ErrorIs(t, repos.Products.RecordSale(ctx, 9999, 1), ErrNotFound)
	})
}

func TestPriceRepositoryLookup(t *testing.T) {
	repos := newTestRepos(t)
	ctx := context.Background()
	p := createProduct(t, repos, "mug")

	tier := &model.PricingTier{Name: "Wholesale", Group: "wholesale"}
	require.NoError(t, repos.Prices.CreateTier(ctx, tier))

	tiers, err := repos.Prices.TiersForGroup(ctx, "wholesale")
	require.NoError(t, err)
	require.Len(t, tiers, 1)

	rows := []model.ProductPriceLookup{
		{ProductID: p.ID, Quantity: 1, Price: decimal.NewFromInt(10)},
		{ProductID: p.ID, PricingTierID: &tier.ID, Quantity: 1, Price: decimal.NewFromInt(8)},
	}
	require.NoError(t, repos.Prices.ReplaceLookup(ctx, rows))
	require.NoError(t, repos.Prices.ReplaceLookup(ctx, rows))

	base, err := repos.Prices.Lookup(ctx, p.ID, nil)
	require.NoError(t, err)
	require.Len(t, base, 1)
	assert.True(t, decimal.NewFromInt(10).Equal(base[0].Price))

	tiered, err := repos.Prices.Lookup(ctx, p.ID, &tier.ID)
	require.NoError(t, err)
	require.Len(t, tiered, 1)
	assert.True(t, decimal.NewFromInt(8).Equal(tiered[0].Price))
}

func TestOrderRepository(t *testing.T) {
	repos := newTestRepos(t)
	ctx := context.Background()
	p := createProduct(t, repos, "book")

	order := &model.Order{
		ContactID: 1,
		Status:    model.StatusTemp,
		Method:    model.MethodOnline,
		Total:     decimal.NewFromInt(20),
		Items: []model.OrderItem{
			{ProductID: p.ID, Product: *p, Quantity: 2, UnitPrice: decimal.NewFromInt(10), LinePrice: decimal.NewFromInt(20)},
		},
	}
	require.NoError(t, repos.Orders.Create(ctx, order))
	require.NotZero(t, order.ID)

	require.NoError(t, repos.Orders.AddStatus(ctx, &model.OrderStatus{OrderID: order.ID, Status: model.StatusNew}))

	got, err := repos.Orders.FindByID(ctx, order.ID)
	require.NoError(t, err)
	assert.Equal(t, model.StatusNew, got.Status)
	require.Len(t, got.Items, 1)
	assert.Equal(t, "book", got.Items[0].Product.SKU)
	require.Len(t, got.StatusHistory, 1)

	t.Run("mark paid once", func(t *testing.T) {
		first, err := repos.Orders.MarkPaid(ctx, order.ID, time.Now())
		require.NoError(t, err)
		assert.True(t, first)

		again, err := repos.Orders.MarkPaid(ctx, order.ID, time.Now())
		require.NoError(t, err)
		assert.False(t, again)
	})

	t.Run("temp orders hidden from history", func(t *testing.T) {
		temp := &model.Order{ContactID: 1, Status: model.StatusTemp, Method: model.MethodOnline}
		require.NoError(t, repos.Orders.Create(ctx, temp))

		orders, err := repos.Orders.ListByContact(ctx, 1)
		require.NoError(t, err)
		require.Len(t, orders, 1)
		assert.Equal(t, order.ID, orders[0].ID)
	})

	t.Run("transaction rolls back", func(t *testing.T) {
		boom := errors.New("boom")
		err := repos.Transaction(ctx, func(tx *Repositories) error {
			if err := tx.Orders.AddStatus(ctx, &model.OrderStatus{OrderID: order.ID, Status: model.StatusCancelled}); err != nil {
				return err
			}
			return boom
		})
		assert.ErrorIs(t, err, boom)

		got, err := repos.Orders.FindByID(ctx, order.ID)
		require.NoError(t, err)
		assert.Equal(t, model.StatusNew, got.Status)
	})
}

func TestWebhookEventRepositoryIdempotent(t *testing.T) {
	repos := newTestRepos(t)
	ctx := context.Background()

	first, err := repos.WebhookEvents.MarkProcessed(ctx, "WH-1", "PAYMENT.CAPTURE.COMPLETED")
	require.NoError(t, err)
	assert.True(t, first)

	second, err := repos.WebhookEvents.MarkProcessed(ctx, "WH-1", "PAYMENT.CAPTURE.COMPLETED")
	require.NoError(t, err)
	assert.False(t, second)

	exists, err := repos.WebhookEvents.Exists(ctx, "WH-1")
	require.NoError(t, err)
	assert.True(t, exists)
}

func TestSettingRepository(t *testing.T) {
	repos := newTestRepos(t)
	ctx := context.Background()

	_, found, err := repos.Settings.Get(ctx, "SHOP", "NAME")
	require.NoError(t, err)
	assert.False(t, found)

	require.NoError(t, repos.Settings.Set(ctx, "SHOP", "NAME", "Satchmo"))
	require.NoError(t, repos.Settings.Set(ctx, "SHOP", "NAME", "Satchmo Store"))
	value, found, err := repos.Settings.Get(ctx, "SHOP", "NAME")
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, "Satchmo Store", value)

	long := make([]byte, LongValueThreshold+10)
	for i := range long {
		long[i] = 'x'
	}
	require.NoError(t, repos.Settings.Set(ctx, "SHOP", "NAME", string(long)))
	value, found, err = repos.Settings.Get(ctx, "SHOP", "NAME")
	require.NoError(t, err)
	assert.True(t, found)
	assert.Len(t, value, LongValueThreshold+10)

	require.NoError(t, repos.Settings.Delete(ctx, "SHOP", "NAME"))
	_, found, err = repos.Settings.Get(ctx, "SHOP", "NAME")
	require.NoError(t, err)
	assert.False(t, found)
}

func TestContactRepositoryDefaultAddress(t *testing.T) {
	repos := newTestRepos(t)
	ctx := context.Background()

	contact := &model.Contact{Email: " Ann@Example.com ", Role: model.RoleCustomer}
	require.NoError(t, repos.Contacts.Create(ctx, contact))

	first := &model.AddressBook{ContactID: contact.ID, Description: "home", IsDefaultShipping: true}
	second := &model.AddressBook{ContactID: contact.ID, Description: "work", IsDefaultShipping: true}
	require.NoError(t, repos.Contacts.AddAddress(ctx, first))
	require.NoError(t, repos.Contacts.AddAddress(ctx, second))

	got, err := repos.Contacts.FindByEmail(ctx, "ann@example.com")
	require.NoError(t, err)
	require.Len(t, got.Addresses, 2)
	assert.False(t, got.Addresses[0].IsDefaultShipping)
	assert.True(t, got.Addresses[1].IsDefaultShipping)
}

func TestProductRepositoryDatabaseError(t *testing.T) {
	sqlDB, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer sqlDB.Close()

	db, err := gorm.Open(postgres.New(postgres.Config{Conn: sqlDB}), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)

	mock.ExpectQuery(`SELECT \* FROM "products"`).WillReturnError(errors.New("connection reset"))

	_, err = NewProductRepository(db).FindByID(context.Background(), 1)
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestDiscountRepositoryIncrementUses(t *testing.T) {
	repos := newTestRepos(t)
	ctx := context.Background()

	two := 2
	require.NoError(t, repos.Discounts.Create(ctx, &model.Discount{Code: "twice", Active: true, AllowedUses: &two}))
	require.NoError(t, repos.Discounts.Create(ctx, &model.Discount{Code: "always", Active: true}))

	require.NoError(t, repos.Discounts.IncrementUses(ctx, "TWICE"))
	require.NoError(t, repos.Discounts.IncrementUses(ctx, "twice"))
	assert.ErrorIs(t, repos.Discounts.IncrementUses(ctx, "TWICE"), ErrDiscountUsedUp)

	d, err := repos.Discounts.FindByCode(ctx, "TWICE")
	require.NoError(t, err)
	assert.Equal(t, 2, d.NumUses)

	for i := 0; i < 3; i++ {
		require.NoError(t, repos.Discounts.IncrementUses(ctx, "ALWAYS"))
	}
	assert.ErrorIs(t, repos.Discounts.IncrementUses(ctx, "NOPE"), ErrNotFound)
}

func TestGiftCertificateRepositorySpend(t *testing.T) {
	repos := newTestRepos(t)
	ctx := context.Background()

	cert := &model.GiftCertificate{Code: "GIFT-1", Valid: true, StartBalance: decimal.NewFromInt(5)}
	require.NoError(t, repos.GiftCertificates.Create(ctx, cert))

	spend := func(amount int64) error {
		return repos.GiftCertificates.Spend(ctx, &model.GiftCertificateUsage{
			GiftCertificateID: cert.ID,
			BalanceUsed:       decimal.NewFromInt(amount),
			UsageDate:         time.Now(),
		})
	}
	require.NoError(t, spend(3))
	assert.ErrorIs(t, spend(3), ErrInsufficientBalance)
	require.NoError(t, spend(2))
	assert.ErrorIs(t, spend(1), ErrInsufficientBalance)

	got, err := repos.GiftCertificates.FindByCode(ctx, "gift-1")
	require.NoError(t, err)
	assert.Len(t, got.Usages, 2)
	assert.True(t, got.Balance().IsZero())
}

func TestGiftCertificateRepositorySpendLocksRow(t *testing.T) {
	sqlDB, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer sqlDB.Close()

	db, err := gorm.Open(postgres.New(postgres.Config{Conn: sqlDB}), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)

	mock.ExpectBegin()
	mock.ExpectQuery(`SELECT \* FROM "gift_certificates" .* FOR UPDATE`).WillReturnError(errors.New("lock timeout"))
	mock.ExpectRollback()

	err = NewGiftCertificateRepository(db).Spend(context.Background(), &model.GiftCertificateUsage{
		GiftCertificateID: 1, BalanceUsed: decimal.NewFromInt(1),
	})
	assert.Error(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}
