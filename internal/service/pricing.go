package service

import (
	"context"
	"errors"
	"fmt"
	"satchmo-store/internal/hooks"
	"satchmo-store/internal/keyedcache"
	"satchmo-store/internal/model"
	"satchmo-store/internal/pricing"
	"satchmo-store/internal/repository"
	"sort"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

const priceCacheTTL = 10 * time.Minute

type PricingService interface {
	// UnitPrice resolves the price of one unit when buying qty, for contact's pricing group.
	UnitPrice(ctx context.Context, product *model.Product, qty int, contact *model.Contact) (decimal.Decimal, error)
	// QuantityBreaks lists the unexpired prices of the lookup table for contact,
	// one per break quantity.
	QuantityBreaks(ctx context.Context, productID uint, contact *model.Contact) ([]pricing.Break, error)
	// RebuildLookup refills the price lookup table and returns the number of rows written.
	RebuildLookup(ctx context.Context) (int, error)
	InvalidateProduct(ctx context.Context, productID uint) error
}

type pricingServiceImpl struct {
	prices   repository.PriceRepository
	products repository.ProductRepository
	cache    *keyedcache.Cache
	hooks    *hooks.Hooks
	logger   *zap.Logger
	now      func() time.Time
}

func NewPricingService(
	prices repository.PriceRepository,
	products repository.ProductRepository,
	cache *keyedcache.Cache,
	hooks *hooks.Hooks,
	logger *zap.Logger,
) PricingService {
	return &pricingServiceImpl{
		prices:   prices,
		products: products,
		cache:    cache,
		hooks:    hooks,
		logger:   logger,
		now:      time.Now,
	}
}

func pricingGroup(contact *model.Contact) string {
	if contact == nil {
		return ""
	}
	return contact.PricingGroup
}

// priceList holds every price a product can resolve to for one pricing group.
// Expiry is checked when a price is resolved, not when the list is cached.
type priceList struct {
	Base  []pricing.Break `json:"base"`
	Tiers []pricing.Tier  `json:"tiers"`
}

func (s *pricingServiceImpl) UnitPrice(ctx context.Context, product *model.Product, qty int, contact *model.Contact) (decimal.Decimal, error) {
	if qty < 1 {
		qty = 1
	}
	group := pricingGroup(contact)

	list, err := keyedcache.Cached(ctx, s.cache, priceCacheTTL, func(ctx context.Context) (priceList, error) {
		return s.priceList(ctx, product.ID, group)
	}, "product", product.ID, "price", keyedcache.Pairs{"group": group})
	if err != nil {
		return decimal.Zero, err
	}

	price, err := pricing.Resolve(list.Base, list.Tiers, qty, s.now())
	if err != nil {
		return decimal.Zero, fmt.Errorf("product %d qty %d: %w", product.ID, qty, err)
	}

	s.hooks.PriceQuery.Send(ctx, hooks.PriceQuery{
		Product:  product,
		Contact:  contact,
		Quantity: qty,
		Price:    &price,
	})
	return price, nil
}

func (s *pricingServiceImpl) priceList(ctx context.Context, productID uint, group string) (priceList, error) {
	var tiers []model.PricingTier
	if group != "" {
		var err error
		tiers, err = s.prices.TiersForGroup(ctx, group)
		if err != nil {
			return priceList{}, fmt.Errorf("load pricing tiers: %w", err)
		}
	}

	base, err := s.prices.ForProduct(ctx, productID)
	if err != nil {
		return priceList{}, fmt.Errorf("load prices: %w", err)
	}
	tierPrices, err := s.tierBreaks(ctx, productID, tiers)
	if err != nil {
		return priceList{}, err
	}
	return priceList{Base: pricing.FromPrices(base), Tiers: tierPrices}, nil
}

func (s *pricingServiceImpl) QuantityBreaks(ctx context.Context, productID uint, contact *model.Contact) ([]pricing.Break, error) {
	rows, err := s.prices.Lookup(ctx, productID, nil)
	if err != nil {
		return nil, fmt.Errorf("load price lookup: %w", err)
	}
	if group := pricingGroup(contact); group != "" {
		tiers, err := s.prices.TiersForGroup(ctx, group)
		if err != nil {
			return nil, fmt.Errorf("load pricing tiers: %w", err)
		}
		for i := range tiers {
			tierRows, err := s.prices.Lookup(ctx, productID, &tiers[i].ID)
			if err != nil {
				return nil, fmt.Errorf("load price lookup: %w", err)
			}
			rows = append(rows, tierRows...)
		}
	}

	now := s.now()
	best := map[int]pricing.Break{}
	for _, r := range rows {
		if r.Expires != nil && !r.Expires.After(now) {
			continue
		}
		if b, ok := best[r.Quantity]; ok && b.Price.LessThanOrEqual(r.Price) {
			continue
		}
		best[r.Quantity] = pricing.Break{Quantity: r.Quantity, Price: r.Price, Expires: r.Expires}
	}

	out := make([]pricing.Break, 0, len(best))
	for _, b := range best {
		out = append(out, b)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Quantity < out[j].Quantity })
	return out, nil
}

func (s *pricingServiceImpl) tierBreaks(ctx context.Context, productID uint, tiers []model.PricingTier) ([]pricing.Tier, error) {
	out := make([]pricing.Tier, 0, len(tiers))
	for _, tier := range tiers {
		prices, err := s.prices.TieredPrices(ctx, tier.ID, productID)
		if err != nil {
			return nil, fmt.Errorf("load tiered prices: %w", err)
		}
		out = append(out, pricing.Tier{Tier: tier, Prices: pricing.FromTieredPrices(prices)})
	}
	return out, nil
}

func (s *pricingServiceImpl) RebuildLookup(ctx context.Context) (int, error) {
	products, err := s.products.ListActive(ctx)
	if err != nil {
		return 0, fmt.Errorf("list products: %w", err)
	}
	tiers, err := s.prices.AllTiers(ctx)
	if err != nil {
		return 0, fmt.Errorf("list pricing tiers: %w", err)
	}

	now := s.now()
	var rows []model.ProductPriceLookup
	for _, product := range products {
		productRows, err := s.lookupRows(ctx, product.ID, tiers, now)
		if err != nil {
			return 0, err
		}
		rows = append(rows, productRows...)
	}

	if err := s.prices.ReplaceLookup(ctx, rows); err != nil {
		return 0, fmt.Errorf("replace price lookup: %w", err)
	}
	if _, err := s.cache.Delete(ctx, "product"); err != nil {
		s.logger.Warn("invalidate product prices", zap.Error(err))
	}
	return len(rows), nil
}

// lookupRows resolves the product's price at every break quantity, for the
// base list and for each tier.
func (s *pricingServiceImpl) lookupRows(ctx context.Context, productID uint, tiers []model.PricingTier, now time.Time) ([]model.ProductPriceLookup, error) {
	base, err := s.prices.ForProduct(ctx, productID)
	if err != nil {
		return nil, fmt.Errorf("load prices: %w", err)
	}
	baseBreaks := activeBreaks(pricing.FromPrices(base), now)
	if len(baseBreaks) == 0 {
		return nil, nil
	}

	rows := make([]model.ProductPriceLookup, 0, len(baseBreaks))
	for _, b := range baseBreaks {
		rows = append(rows, model.ProductPriceLookup{
			ProductID: productID,
			Quantity:  b.Quantity,
			Price:     b.Price,
			Expires:   b.Expires,
		})
	}

	tierList, err := s.tierBreaks(ctx, productID, tiers)
	if err != nil {
		return nil, err
	}
	for _, tier := range tierList {
		tierID := tier.Tier.ID
		tierBreaks := activeBreaks(tier.Prices, now)
		for _, qty := range breakQuantities(baseBreaks, tierBreaks) {
			price, err := pricing.Resolve(baseBreaks, []pricing.Tier{{Tier: tier.Tier, Prices: tierBreaks}}, qty, now)
			if errors.Is(err, pricing.ErrNoPrice) {
				continue
			}
			if err != nil {
				return nil, err
			}
			rows = append(rows, model.ProductPriceLookup{
				ProductID:     productID,
				PricingTierID: &tierID,
				Quantity:      qty,
				Price:         price,
				Expires:       earliestExpiry(qty, baseBreaks, tierBreaks),
			})
		}
	}
	return rows, nil
}

func activeBreaks(breaks []pricing.Break, now time.Time) []pricing.Break {
	out := make([]pricing.Break, 0, len(breaks))
	for _, b := range breaks {
		if b.Expires == nil || b.Expires.After(now) {
			out = append(out, b)
		}
	}
	return out
}

// earliestExpiry is the first expiry among the breaks that can set the price
// at qty. The resolved price may change once any of them expires.
func earliestExpiry(qty int, lists ...[]pricing.Break) *time.Time {
	var earliest *time.Time
	for _, list := range lists {
		for _, b := range list {
			if b.Quantity > qty || b.Expires == nil {
				continue
			}
			if earliest == nil || b.Expires.Before(*earliest) {
				t := *b.Expires
				earliest = &t
			}
		}
	}
	return earliest
}

func breakQuantities(lists ...[]pricing.Break) []int {
	seen := map[int]bool{}
	var out []int
	for _, list := range lists {
		for _, b := range list {
			if !seen[b.Quantity] {
				seen[b.Quantity] = true
				out = append(out, b.Quantity)
			}
		}
	}
	sort.Ints(out)
	return out
}

func (s *pricingServiceImpl) InvalidateProduct(ctx context.Context, productID uint) error {
	_, err := s.cache.Delete(ctx, "product", productID)
	return err
}
