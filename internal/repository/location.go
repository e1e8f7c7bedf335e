package repository

import (
	"context"
	"satchmo-store/internal/model"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type LocationRepository interface {
	// Seed inserts countries and their areas, leaving existing rows alone.
	Seed(ctx context.Context, countries []model.Country) error
	Countries(ctx context.Context, activeOnly bool) ([]model.Country, error)
	FindCountry(ctx context.Context, iso2 string) (*model.Country, error)
}

type locationRepoImpl struct {
	db *gorm.DB
}

func NewLocationRepository(db *gorm.DB) LocationRepository {
	return &locationRepoImpl{db: db}
}

func (r *locationRepoImpl) Seed(ctx context.Context, countries []model.Country) error {
	if len(countries) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var areas []model.AdminArea
		rows := make([]model.Country, len(countries))
		for i, c := range countries {
			areas = append(areas, c.Areas...)
			c.Areas = nil
			rows[i] = c
		}
		if err := tx.Clauses(clause.OnConflict{DoNothing: true}).Create(&rows).Error; err != nil {
			return err
		}
		if len(areas) == 0 {
			return nil
		}

		var existing int64
		if err := tx.Model(&model.AdminArea{}).Count(&existing).Error; err != nil {
			return err
		}
		if existing > 0 {
			return nil
		}
		return tx.Create(&areas).Error
	})
}

func (r *locationRepoImpl) Countries(ctx context.Context, activeOnly bool) ([]model.Country, error) {
	query := r.db.WithContext(ctx).Order("name")
	if activeOnly {
		query = query.Where("active = ?", true)
	}
	var countries []model.Country
	err := query.Find(&countries).Error
	return countries, err
}

func (r *locationRepoImpl) FindCountry(ctx context.Context, iso2 string) (*model.Country, error) {
	var country model.Country
	err := r.db.WithContext(ctx).
		Preload("Areas", func(db *gorm.DB) *gorm.DB { return db.Order("name") }).
		Where("iso2 = ?", iso2).
		First(&country).Error
	if err != nil {
		return nil, translate(err)
	}
	return &country, nil
}
