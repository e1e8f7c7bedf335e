package repository

import (
	"context"
	"errors"

	"gorm.io/gorm"
)

var ErrNotFound = errors.New("record not found")

func translate(err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ErrNotFound
	}
	return err
}

// Repositories bundles every repository over one connection or transaction.
type Repositories struct {
	db *gorm.DB

	Products         ProductRepository
	Prices           PriceRepository
	Contacts         ContactRepository
	Carts            CartRepository
	Orders           OrderRepository
	Payments         PaymentRepository
	Vault            VaultRepository
	WebhookEvents    WebhookEventRepository
	Discounts        DiscountRepository
	GiftCertificates GiftCertificateRepository
	Tax              TaxRepository
	Shipping         ShippingRepository
	Settings         SettingRepository
	Locations        LocationRepository
}

func New(db *gorm.DB) *Repositories {
	return &Repositories{
		db:               db,
		Products:         NewProductRepository(db),
		Prices:           NewPriceRepository(db),
		Contacts:         NewContactRepository(db),
		Carts:            NewCartRepository(db),
		Orders:           NewOrderRepository(db),
		Payments:         NewPaymentRepository(db),
		Vault:            NewVaultRepository(db),
		WebhookEvents:    NewWebhookEventRepository(db),
		Discounts:        NewDiscountRepository(db),
		GiftCertificates: NewGiftCertificateRepository(db),
		Tax:              NewTaxRepository(db),
		Shipping:         NewShippingRepository(db),
		Settings:         NewSettingRepository(db),
		Locations:        NewLocationRepository(db),
	}
}

func (r *Repositories) DB() *gorm.DB {
	return r.db
}

// Transaction runs fn with repositories bound to one database transaction.
// Repositories from the outer scope must not be used inside fn.
func (r *Repositories) Transaction(ctx context.Context, fn func(tx *Repositories) error) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(New(tx))
	})
}

func (r *Repositories) Ping(ctx context.Context) error {
	sqlDB, err := r.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.PingContext(ctx)
}
