package service

import (
	"context"
	"errors"
	"fmt"
	"satchmo-store/internal/dto"
	"satchmo-store/internal/l10n"
	"satchmo-store/internal/logger"
	"satchmo-store/internal/model"
	"satchmo-store/internal/pricing"
	"satchmo-store/internal/repository"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

type ProductService interface {
	Search(ctx context.Context, query dto.ProductQuery, contact *model.Contact) (*dto.ProductPage, error)
	Detail(ctx context.Context, slug string, qty int, contact *model.Contact) (*dto.ProductDetail, error)
	Categories(ctx context.Context) ([]*model.Category, error)
}

type productServiceImpl struct {
	products repository.ProductRepository
	pricing  PricingService
	money    *l10n.Formatter
}

func NewProductService(products repository.ProductRepository, pricing PricingService, money *l10n.Formatter) ProductService {
	return &productServiceImpl{
		products: products,
		pricing:  pricing,
		money:    money,
	}
}

func (s *productServiceImpl) Search(ctx context.Context, query dto.ProductQuery, contact *model.Contact) (*dto.ProductPage, error) {
	search := repository.ProductSearch{
		Query:    query.Q,
		Featured: query.Featured,
		Limit:    query.Limit,
		Offset:   query.Offset,
	}
	if search.Limit <= 0 {
		search.Limit = 20
	}
	if query.Category != "" {
		category, err := s.products.FindCategoryBySlug(ctx, query.Category)
		if err != nil {
			return nil, fmt.Errorf("find category %q: %w", query.Category, err)
		}
		search.CategoryID = &category.ID
	}

	products, total, err := s.products.Search(ctx, search)
	if err != nil {
		return nil, fmt.Errorf("search products: %w", err)
	}

	page := &dto.ProductPage{
		Items:  make([]dto.ProductSummary, 0, len(products)),
		Total:  total,
		Limit:  search.Limit,
		Offset: search.Offset,
	}
	for _, p := range products {
		summary := dto.ProductSummary{
			ID:       p.ID,
			SKU:      p.SKU,
			Slug:     p.Slug,
			Name:     p.Name,
			Featured: p.Featured,
		}

		price, err := s.pricing.UnitPrice(ctx, p, 1, contact)
		switch {
		case errors.Is(err, pricing.ErrNoPrice):
			// listed without a price
		case err != nil:
			return nil, err
		default:
			summary.Price = &price
			summary.PriceDisplay = s.format(ctx, price)
		}
		page.Items = append(page.Items, summary)
	}
	return page, nil
}

func (s *productServiceImpl) Detail(ctx context.Context, slug string, qty int, contact *model.Contact) (*dto.ProductDetail, error) {
	product, err := s.products.FindBySlug(ctx, slug)
	if err != nil {
		return nil, fmt.Errorf("find product %q: %w", slug, err)
	}
	if !product.Active {
		return nil, fmt.Errorf("product %q: %w", slug, repository.ErrNotFound)
	}
	if qty < 1 {
		qty = 1
	}

	price, err := s.pricing.UnitPrice(ctx, product, qty, contact)
	if err != nil {
		return nil, err
	}

	breaks, err := s.pricing.QuantityBreaks(ctx, product.ID, contact)
	if err != nil {
		return nil, err
	}

	detail := &dto.ProductDetail{
		Product:          product,
		Quantity:         qty,
		UnitPrice:        price,
		UnitPriceDisplay: s.format(ctx, price),
		InStock:          !product.Shippable || product.ItemsInStock >= qty,
	}
	for _, b := range breaks {
		detail.PriceBreaks = append(detail.PriceBreaks, dto.PriceBreak{
			Quantity:     b.Quantity,
			Price:        b.Price,
			PriceDisplay: s.format(ctx, b.Price),
		})
	}
	return detail, nil
}

func (s *productServiceImpl) Categories(ctx context.Context) ([]*model.Category, error) {
	return s.products.ListCategories(ctx)
}

func (s *productServiceImpl) format(ctx context.Context, amount decimal.Decimal) string {
	return formatMoney(ctx, s.money, amount)
}

// formatMoney falls back to a plain two-place amount when the currency cannot be formatted.
func formatMoney(ctx context.Context, money *l10n.Formatter, amount decimal.Decimal) string {
	text, err := money.Money(ctx, amount)
	if err != nil {
		logger.FromContext(ctx).Warn("format money", zap.Error(err))
		return amount.StringFixed(2)
	}
	return text
}
