package repository

import (
	"context"
	"errors"
	"satchmo-store/internal/model"
	"strings"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

var ErrInsufficientBalance = errors.New("gift certificate balance is too low")

type GiftCertificateRepository interface {
	Create(ctx context.Context, cert *model.GiftCertificate) error
	FindByCode(ctx context.Context, code string) (*model.GiftCertificate, error)
	ListByOrder(ctx context.Context, orderID uint) ([]*model.GiftCertificate, error)
	// Spend locks the certificate and adds usage when the remaining balance
	// covers it, or returns ErrInsufficientBalance.
	Spend(ctx context.Context, usage *model.GiftCertificateUsage) error
}

type giftCertificateRepoImpl struct {
	db *gorm.DB
}

func NewGiftCertificateRepository(db *gorm.DB) GiftCertificateRepository {
	return &giftCertificateRepoImpl{db: db}
}

func (r *giftCertificateRepoImpl) Create(ctx context.Context, cert *model.GiftCertificate) error {
	return r.db.WithContext(ctx).Omit("Usages").Create(cert).Error
}

func (r *giftCertificateRepoImpl) FindByCode(ctx context.Context, code string) (*model.GiftCertificate, error) {
	var cert model.GiftCertificate
	err := r.db.WithContext(ctx).
		Preload("Usages").
		Where("code = ?", strings.ToUpper(strings.TrimSpace(code))).
		First(&cert).Error
	if err != nil {
		return nil, translate(err)
	}
	return &cert, nil
}

func (r *giftCertificateRepoImpl) ListByOrder(ctx context.Context, orderID uint) ([]*model.GiftCertificate, error) {
	var certs []*model.GiftCertificate
	err := r.db.WithContext(ctx).
		Preload("Usages").
		Where("order_id = ?", orderID).
		Find(&certs).Error
	return certs, err
}

func (r *giftCertificateRepoImpl) Spend(ctx context.Context, usage *model.GiftCertificateUsage) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var cert model.GiftCertificate
		err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			First(&cert, usage.GiftCertificateID).Error
		if err != nil {
			return translate(err)
		}
		if err := tx.Where("gift_certificate_id = ?", cert.ID).Find(&cert.Usages).Error; err != nil {
			return err
		}
		if !cert.Valid || cert.Balance().LessThan(usage.BalanceUsed) {
			return ErrInsufficientBalance
		}
		return tx.Create(usage).Error
	})
}
