package repository

import (
	"context"
	"satchmo-store/internal/model"

	"gorm.io/gorm"
)

type PriceRepository interface {
	Create(ctx context.Context, price *model.Price) error
	ForProduct(ctx context.Context, productID uint) ([]model.Price, error)

	CreateTier(ctx context.Context, tier *model.PricingTier) error
	AllTiers(ctx context.Context) ([]model.PricingTier, error)
	TiersForGroup(ctx context.Context, group string) ([]model.PricingTier, error)
	CreateTieredPrice(ctx context.Context, price *model.TieredPrice) error
	TieredPrices(ctx context.Context, tierID, productID uint) ([]model.TieredPrice, error)

	// ReplaceLookup truncates the lookup table and inserts rows.
	ReplaceLookup(ctx context.Context, rows []model.ProductPriceLookup) error
	Lookup(ctx context.Context, productID uint, tierID *uint) ([]model.ProductPriceLookup, error)
}

type priceRepoImpl struct {
	db *gorm.DB
}

func NewPriceRepository(db *gorm.DB) PriceRepository {
	return &priceRepoImpl{db: db}
}

func (r *priceRepoImpl) Create(ctx context.Context, price *model.Price) error {
	return r.db.WithContext(ctx).Create(price).Error
}

func (r *priceRepoImpl) ForProduct(ctx context.Context, productID uint) ([]model.Price, error) {
	var prices []model.Price
	err := r.db.WithContext(ctx).
		Where("product_id = ?", productID).
		Order("quantity").
		Find(&prices).Error
	return prices, err
}

func (r *priceRepoImpl) CreateTier(ctx context.Context, tier *model.PricingTier) error {
	return r.db.WithContext(ctx).Create(tier).Error
}

func (r *priceRepoImpl) AllTiers(ctx context.Context) ([]model.PricingTier, error) {
	var tiers []model.PricingTier
	err := r.db.WithContext(ctx).Order("id").Find(&tiers).Error
	return tiers, err
}

func (r *priceRepoImpl) TiersForGroup(ctx context.Context, group string) ([]model.PricingTier, error) {
	var tiers []model.PricingTier
	err := r.db.WithContext(ctx).Where("pricing_group = ?", group).Order("id").Find(&tiers).Error
	return tiers, err
}

func (r *priceRepoImpl) CreateTieredPrice(ctx context.Context, price *model.TieredPrice) error {
	return r.db.WithContext(ctx).Create(price).Error
}

func (r *priceRepoImpl) TieredPrices(ctx context.Context, tierID, productID uint) ([]model.TieredPrice, error) {
	var prices []model.TieredPrice
	err := r.db.WithContext(ctx).
		Where("pricing_tier_id = ? AND product_id = ?", tierID, productID).
		Order("quantity").
		Find(&prices).Error
	return prices, err
}

func (r *priceRepoImpl) ReplaceLookup(ctx context.Context, rows []model.ProductPriceLookup) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Session(&gorm.Session{AllowGlobalUpdate: true}).Delete(&model.ProductPriceLookup{}).Error; err != nil {
			return err
		}
		if len(rows) == 0 {
			return nil
		}
		return tx.CreateInBatches(rows, 200).Error
	})
}

func (r *priceRepoImpl) Lookup(ctx context.Context, productID uint, tierID *uint) ([]model.ProductPriceLookup, error) {
	query := r.db.WithContext(ctx).Where("product_id = ?", productID)
	if tierID == nil {
		query = query.Where("pricing_tier_id IS NULL")
	} else {
		query = query.Where("pricing_tier_id = ?", *tierID)
	}

	var rows []model.ProductPriceLookup
	err := query.Order("quantity").Find(&rows).Error
	return rows, err
}
