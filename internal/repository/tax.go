package repository

import (
	"context"
	"satchmo-store/internal/model"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type TaxRepository interface {
	CreateClass(ctx context.Context, class *model.TaxClass) error
	CreateRate(ctx context.Context, rate *model.TaxRate) error
	// Rates returns the country-wide and area rates for a class.
	Rates(ctx context.Context, taxClass, country string) ([]model.TaxRate, error)
}

type taxRepoImpl struct {
	db *gorm.DB
}

func NewTaxRepository(db *gorm.DB) TaxRepository {
	return &taxRepoImpl{db: db}
}

func (r *taxRepoImpl) CreateClass(ctx context.Context, class *model.TaxClass) error {
	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{DoNothing: true}).
		Create(class).Error
}

func (r *taxRepoImpl) CreateRate(ctx context.Context, rate *model.TaxRate) error {
	return r.db.WithContext(ctx).Create(rate).Error
}

func (r *taxRepoImpl) Rates(ctx context.Context, taxClass, country string) ([]model.TaxRate, error) {
	var rates []model.TaxRate
	err := r.db.WithContext(ctx).
		Where("tax_class = ? AND country = ?", taxClass, country).
		Find(&rates).Error
	return rates, err
}
