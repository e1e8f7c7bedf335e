package service

import (
	"context"
	"errors"
	"fmt"
	"satchmo-store/internal/keyedcache"
	"satchmo-store/internal/l10n"
	"satchmo-store/internal/livesettings"
	"satchmo-store/internal/payment"
	"satchmo-store/internal/repository"
	"satchmo-store/internal/shipping"
	"satchmo-store/internal/tax"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"golang.org/x/sync/errgroup"
)

type CheckResult struct {
	Name    string `json:"name"`
	OK      bool   `json:"ok"`
	Message string `json:"message"`
}

type CheckService interface {
	// Run executes every check and returns the results in a fixed order.
	Run(ctx context.Context) []CheckResult
}

// configurable is implemented by payment modules that need credentials.
type configurable interface {
	Configured(ctx context.Context) bool
}

type checkServiceImpl struct {
	repos    *repository.Repositories
	cache    *keyedcache.Cache
	settings *livesettings.Registry
	money    *l10n.Formatter
	payments *payment.Service
	shipping *shipping.Service
	tax      *tax.Service
}

func NewCheckService(
	repos *repository.Repositories,
	cache *keyedcache.Cache,
	settings *livesettings.Registry,
	money *l10n.Formatter,
	payments *payment.Service,
	shipping *shipping.Service,
	tax *tax.Service,
) CheckService {
	return &checkServiceImpl{
		repos:    repos,
		cache:    cache,
		settings: settings,
		money:    money,
		payments: payments,
		shipping: shipping,
		tax:      tax,
	}
}

func (s *checkServiceImpl) Run(ctx context.Context) []CheckResult {
	checks := []struct {
		name string
		fn   func(ctx context.Context) (string, error)
	}{
		{"database", s.checkDatabase},
		{"cache", s.checkCache},
		{"currency", s.checkCurrency},
		{"payment modules", s.checkPayments},
		{"shipping modules", s.checkShipping},
		{"tax module", s.checkTax},
	}

	results := make([]CheckResult, len(checks))
	var g errgroup.Group
	for i, c := range checks {
		i, c := i, c
		g.Go(func() error {
			msg, err := c.fn(ctx)
			results[i] = CheckResult{Name: c.name, OK: err == nil, Message: msg}
			if err != nil {
				results[i].Message = err.Error()
			}
			return nil
		})
	}
	_ = g.Wait()
	return results
}

func (s *checkServiceImpl) checkDatabase(ctx context.Context) (string, error) {
	if err := s.repos.Ping(ctx); err != nil {
		return "", fmt.Errorf("ping database: %w", err)
	}
	return "reachable", nil
}

func (s *checkServiceImpl) checkCache(ctx context.Context) (string, error) {
	if !s.cache.Enabled() {
		return "disabled", nil
	}

	want := uuid.NewString()
	if err := s.cache.Set(ctx, want, time.Minute, "satchmo_check", want); err != nil {
		return "", fmt.Errorf("cache set: %w", err)
	}
	var got string
	if err := s.cache.Get(ctx, &got, "satchmo_check", want); err != nil {
		return "", fmt.Errorf("cache get: %w", err)
	}
	if _, err := s.cache.Delete(ctx, "satchmo_check"); err != nil {
		return "", fmt.Errorf("cache delete: %w", err)
	}
	if got != want {
		return "", errors.New("cache returned a different value")
	}
	return "round trip ok", nil
}

func (s *checkServiceImpl) checkCurrency(ctx context.Context) (string, error) {
	text, err := s.money.Money(ctx, decimal.RequireFromString("-1234.56"))
	if err != nil {
		return "", fmt.Errorf("format currency: %w", err)
	}
	return text, nil
}

func (s *checkServiceImpl) checkPayments(ctx context.Context) (string, error) {
	keys, err := s.settings.Strings(ctx, payment.Group, "MODULES")
	if err != nil {
		return "", err
	}
	if len(keys) == 0 {
		return "", errors.New("no payment modules enabled")
	}

	var errs []error
	for _, key := range keys {
		p, err := s.payments.Processor(ctx, key)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		if c, ok := p.(configurable); ok && !c.Configured(ctx) {
			errs = append(errs, fmt.Errorf("%s: missing credentials", key))
		}
	}
	if err := errors.Join(errs...); err != nil {
		return "", err
	}
	return strings.Join(keys, ", "), nil
}

func (s *checkServiceImpl) checkShipping(ctx context.Context) (string, error) {
	methods, err := s.shipping.Methods(ctx)
	if err != nil {
		return "", err
	}
	keys := make([]string, len(methods))
	for i, m := range methods {
		keys[i] = m.Key()
	}
	return strings.Join(keys, ", "), nil
}

func (s *checkServiceImpl) checkTax(ctx context.Context) (string, error) {
	p, err := s.tax.Processor(ctx)
	if err != nil {
		return "", err
	}
	return p.Key(), nil
}
