package repository

import (
	"context"
	"satchmo-store/internal/model"

	"gorm.io/gorm"
)

type ShippingRepository interface {
	CreateCarrier(ctx context.Context, carrier *model.Carrier) error
	ActiveCarriers(ctx context.Context) ([]model.Carrier, error)
}

type shippingRepoImpl struct {
	db *gorm.DB
}

func NewShippingRepository(db *gorm.DB) ShippingRepository {
	return &shippingRepoImpl{db: db}
}

func (r *shippingRepoImpl) CreateCarrier(ctx context.Context, carrier *model.Carrier) error {
	return r.db.WithContext(ctx).Create(carrier).Error
}

func (r *shippingRepoImpl) ActiveCarriers(ctx context.Context) ([]model.Carrier, error) {
	var carriers []model.Carrier
	err := r.db.WithContext(ctx).
		Preload("Tiers", func(db *gorm.DB) *gorm.DB { return db.Order("min") }).
		Where("active = ?", true).
		Order("id").
		Find(&carriers).Error
	return carriers, err
}
