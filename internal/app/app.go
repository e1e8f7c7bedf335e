// Package app assembles the store from configuration: database, cache,
// settings, payment modules and services. The API server and the
// maintenance commands share it.
package app

import (
	"context"
	"errors"
	"fmt"
	"satchmo-store/internal/client"
	"satchmo-store/internal/config"
	"satchmo-store/internal/hooks"
	"satchmo-store/internal/keyedcache"
	"satchmo-store/internal/l10n"
	"satchmo-store/internal/livesettings"
	"satchmo-store/internal/logger"
	"satchmo-store/internal/payment"
	"satchmo-store/internal/payment/authorizenet"
	"satchmo-store/internal/payment/braintree"
	"satchmo-store/internal/payment/cod"
	"satchmo-store/internal/payment/dummy"
	"satchmo-store/internal/payment/giftcertificate"
	"satchmo-store/internal/payment/paypal"
	"satchmo-store/internal/payment/purchaseorder"
	"satchmo-store/internal/repository"
	"satchmo-store/internal/server"
	"satchmo-store/internal/service"
	"satchmo-store/internal/shipping"
	"satchmo-store/internal/tax"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

type App struct {
	Config   *config.Config
	Logger   *zap.Logger
	DB       *gorm.DB
	Repos    *repository.Repositories
	Cache    *keyedcache.Cache
	Settings *livesettings.Registry
	Hooks    *hooks.Hooks

	Payments *payment.Service
	Shipping *shipping.Service
	Tax      *tax.Service

	Pricing   service.PricingService
	Products  service.ProductService
	Carts     service.CartService
	Orders    service.OrderService
	Checkout  service.CheckoutService
	Accounts  service.AccountService
	Store     service.StoreService
	Recurring service.RecurringService
	Check     service.CheckService
}

func New(ctx context.Context, cfg *config.Config) (_ *App, err error) {
	log := logger.New(logger.Config{Level: cfg.Log.Level, Format: cfg.Log.Format})

	db, err := client.InitDBClient(cfg.DatabaseURL, log, cfg.Log.Level)
	if err != nil {
		return nil, fmt.Errorf("init database: %w", err)
	}

	a := &App{
		Config: cfg,
		Logger: log,
		DB:     db,
		Repos:  repository.New(db),
		Cache:  keyedcache.Open(ctx, cfg.Cache, cfg.Redis, log),
		Hooks:  hooks.New(),
	}
	defer func() {
		if err != nil {
			_ = a.Close()
		}
	}()
	a.Settings = livesettings.NewRegistry(a.Repos.Settings, a.Cache, log)

	if err := a.Repos.Locations.Seed(ctx, l10n.DefaultCountries()); err != nil {
		return nil, fmt.Errorf("seed countries: %w", err)
	}
	if err := registerSettings(a.Settings); err != nil {
		return nil, fmt.Errorf("register settings: %w", err)
	}
	if cfg.SettingsFile != "" {
		if err := a.Settings.LoadOverrides(cfg.SettingsFile); err != nil {
			return nil, fmt.Errorf("load settings file: %w", err)
		}
	}

	paypalProcessor := a.registerPayments()
	a.Shipping = shipping.NewService(a.Settings, a.Repos.Shipping)
	a.Tax = tax.NewService(a.Settings, a.Repos.Tax)

	money := l10n.NewFormatter(a.Settings)
	a.Pricing = service.NewPricingService(a.Repos.Prices, a.Repos.Products, a.Cache, a.Hooks, log)
	a.Products = service.NewProductService(a.Repos.Products, a.Pricing, money)
	a.Carts = service.NewCartService(a.Repos.Carts, a.Repos.Products, a.Pricing, a.Settings, a.Hooks, money)
	a.Orders = service.NewOrderService(a.Repos, a.Pricing, a.Shipping, a.Tax, a.Hooks)
	a.Checkout = service.NewCheckoutService(a.Repos, a.Carts, a.Orders, a.Payments, a.Shipping, paypalProcessor, a.Settings, a.Hooks)
	a.Accounts = service.NewAccountService(a.Repos.Contacts, a.Repos.Orders, cfg.Auth)
	a.Store = service.NewStoreService(a.Settings, a.Repos.Locations, a.Repos.GiftCertificates, money)
	a.Recurring = service.NewRecurringService(a.Repos, a.Orders, a.Pricing, a.Payments)
	a.Check = service.NewCheckService(a.Repos, a.Cache, a.Settings, money, a.Payments, a.Shipping, a.Tax)

	return a, nil
}

func registerSettings(r *livesettings.Registry) error {
	register := []func(*livesettings.Registry) error{
		livesettings.RegisterShopSettings,
		shipping.RegisterSettings,
		tax.RegisterSettings,
		payment.RegisterSettings,
		dummy.RegisterSettings,
		cod.RegisterSettings,
		purchaseorder.RegisterSettings,
		giftcertificate.RegisterSettings,
		authorizenet.RegisterSettings,
		braintree.RegisterSettings,
		paypal.RegisterSettings,
	}
	for _, fn := range register {
		if err := fn(r); err != nil {
			return err
		}
	}
	return nil
}

// registerPayments builds every payment module. Whether a module can be
// used at checkout is decided by the PAYMENT MODULES setting.
func (a *App) registerPayments() *paypal.Processor {
	cfg := a.Config

	certs := giftcertificate.New(a.Settings, a.Repos.GiftCertificates)
	a.Hooks.OrderSuccess.Connect(certs.OnOrderSuccess)

	paypalProcessor := paypal.New(a.Settings, client.NewPaypalClient(&cfg.Paypal), cfg.BaseURL)

	registry := payment.NewRegistry()
	registry.Register(
		dummy.New(a.Settings),
		cod.New(a.Settings),
		purchaseorder.New(a.Settings),
		certs,
		authorizenet.New(a.Settings, client.NewAuthorizenetClient(&cfg.Authorizenet)),
		braintree.New(a.Settings, client.NewBraintreeClient(&cfg.BrainTree), a.Repos.Vault, a.Repos.Contacts),
		paypalProcessor,
	)

	recorder := payment.NewRecorder(a.Repos, payment.NewCardVault(cfg.CardKey()))
	a.Payments = payment.NewService(registry, a.Settings, a.Repos.Payments, recorder)
	return paypalProcessor
}

// Server builds the HTTP API on top of the services.
func (a *App) Server() *server.Server {
	return server.NewServer(a.Logger, server.Services{
		Products: a.Products,
		Carts:    a.Carts,
		Orders:   a.Orders,
		Checkout: a.Checkout,
		Accounts: a.Accounts,
		Store:    a.Store,
		Check:    a.Check,
	})
}

func (a *App) Close() error {
	var errs []error
	if err := a.Cache.Close(); err != nil {
		errs = append(errs, fmt.Errorf("close cache: %w", err))
	}
	if sqlDB, err := a.DB.DB(); err == nil {
		if err := sqlDB.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close database: %w", err))
		}
	}
	_ = a.Logger.Sync()
	return errors.Join(errs...)
}
