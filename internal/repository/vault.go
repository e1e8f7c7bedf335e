package repository

import (
	"context"
	"satchmo-store/internal/model"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type VaultRepository interface {
	Upsert(ctx context.Context, vault *model.VaultedPaymentMethod) error
	GetToken(ctx context.Context, contactID uint, method string) (string, error)
}

type vaultRepoImpl struct {
	db *gorm.DB
}

func NewVaultRepository(db *gorm.DB) VaultRepository {
	return &vaultRepoImpl{
		db: db,
	}
}

func (r *vaultRepoImpl) Upsert(ctx context.Context, vault *model.VaultedPaymentMethod) error {
	return r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "contact_id"}, {Name: "method"}},
		DoUpdates: clause.Assignments(map[string]interface{}{
			"token":      vault.Token,
			"updated_at": time.Now(),
		}),
	}).Create(vault).Error
}

func (r *vaultRepoImpl) GetToken(ctx context.Context, contactID uint, method string) (string, error) {
	var vault model.VaultedPaymentMethod
	err := r.db.WithContext(ctx).
		Where("contact_id = ? AND method = ?", contactID, method).
		First(&vault).Error
	if err != nil {
		return "", translate(err)
	}

	return vault.Token, nil
}
