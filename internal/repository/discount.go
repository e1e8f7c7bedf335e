package repository

import (
	"context"
	"errors"
	"satchmo-store/internal/model"
	"strings"

	"gorm.io/gorm"
)

var ErrDiscountUsedUp = errors.New("discount has no uses left")

type DiscountRepository interface {
	Create(ctx context.Context, discount *model.Discount) error
	FindByCode(ctx context.Context, code string) (*model.Discount, error)
	ListAutomatic(ctx context.Context) ([]*model.Discount, error)
	// IncrementUses counts one use unless the discount reached its allowed
	// uses, in which case it returns ErrDiscountUsedUp.
	IncrementUses(ctx context.Context, code string) error
}

type discountRepoImpl struct {
	db *gorm.DB
}

func NewDiscountRepository(db *gorm.DB) DiscountRepository {
	return &discountRepoImpl{db: db}
}

func (r *discountRepoImpl) Create(ctx context.Context, discount *model.Discount) error {
	discount.Code = strings.ToUpper(strings.TrimSpace(discount.Code))
	return r.db.WithContext(ctx).Create(discount).Error
}

func (r *discountRepoImpl) FindByCode(ctx context.Context, code string) (*model.Discount, error) {
	var discount model.Discount
	err := r.db.WithContext(ctx).
		Preload("ValidProducts").
		Where("code = ?", strings.ToUpper(strings.TrimSpace(code))).
		First(&discount).Error
	if err != nil {
		return nil, translate(err)
	}
	return &discount, nil
}

func (r *discountRepoImpl) ListAutomatic(ctx context.Context) ([]*model.Discount, error) {
	var discounts []*model.Discount
	err := r.db.WithContext(ctx).
		Preload("ValidProducts").
		Where("automatic = ? AND active = ?", true, true).
		Order("id").
		Find(&discounts).Error
	return discounts, err
}

func (r *discountRepoImpl) IncrementUses(ctx context.Context, code string) error {
	code = strings.ToUpper(code)
	result := r.db.WithContext(ctx).
		Model(&model.Discount{}).
		Where("code = ? AND (allowed_uses IS NULL OR num_uses < allowed_uses)", code).
		Update("num_uses", gorm.Expr("num_uses + 1"))
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected > 0 {
		return nil
	}

	var n int64
	if err := r.db.WithContext(ctx).Model(&model.Discount{}).Where("code = ?", code).Count(&n).Error; err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return ErrDiscountUsedUp
}
