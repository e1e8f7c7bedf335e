package repository

import (
	"context"
	"errors"
	"satchmo-store/internal/model"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// LongValueThreshold is the length above which values go to the long settings table.
const LongValueThreshold = 255

type SettingRepository interface {
	// Get reports found=false when no value was stored.
	Get(ctx context.Context, group, key string) (value string, found bool, err error)
	Set(ctx context.Context, group, key, value string) error
	Delete(ctx context.Context, group, key string) error
}

type settingRepoImpl struct {
	db *gorm.DB
}

func NewSettingRepository(db *gorm.DB) SettingRepository {
	return &settingRepoImpl{db: db}
}

func (r *settingRepoImpl) Get(ctx context.Context, group, key string) (string, bool, error) {
	var setting model.Setting
	err := r.db.WithContext(ctx).
		Where("group_key = ? AND setting_key = ?", group, key).
		First(&setting).Error
	if err == nil {
		return setting.Value, true, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return "", false, err
	}

	var long model.LongSetting
	err = r.db.WithContext(ctx).
		Where("group_key = ? AND setting_key = ?", group, key).
		First(&long).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	return long.Value, true, nil
}

func (r *settingRepoImpl) Set(ctx context.Context, group, key, value string) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := deleteSetting(tx, group, key); err != nil {
			return err
		}

		var row any = &model.Setting{Group: group, Key: key, Value: value}
		if len(value) > LongValueThreshold {
			row = &model.LongSetting{Group: group, Key: key, Value: value}
		}
		return tx.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "group_key"}, {Name: "setting_key"}},
			DoUpdates: clause.AssignmentColumns([]string{"value"}),
		}).Create(row).Error
	})
}

func (r *settingRepoImpl) Delete(ctx context.Context, group, key string) error {
	return deleteSetting(r.db.WithContext(ctx), group, key)
}

func deleteSetting(db *gorm.DB, group, key string) error {
	if err := db.Where("group_key = ? AND setting_key = ?", group, key).Delete(&model.Setting{}).Error; err != nil {
		return err
	}
	return db.Where("group_key = ? AND setting_key = ?", group, key).Delete(&model.LongSetting{}).Error
}
