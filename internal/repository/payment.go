package repository

import (
	"context"
	"satchmo-store/internal/model"

	"gorm.io/gorm"
)

type PaymentRepository interface {
	CreatePayment(ctx context.Context, payment *model.OrderPayment) error
	CreateAuthorization(ctx context.Context, auth *model.OrderAuthorization) error
	CreatePending(ctx context.Context, pending *model.OrderPendingPayment) error
	CreateFailure(ctx context.Context, failure *model.PaymentFailure) error
	CreateCardDetail(ctx context.Context, detail *model.CreditCardDetail) error

	// Exists reports whether a payment with the gateway transaction id was recorded.
	Exists(ctx context.Context, transactionID string) (bool, error)
	OpenAuthorizations(ctx context.Context, orderID uint) ([]model.OrderAuthorization, error)
	CompleteAuthorization(ctx context.Context, authID, captureID uint) error
	Pending(ctx context.Context, orderID uint, method string) ([]model.OrderPendingPayment, error)
	ResolvePending(ctx context.Context, pendingID, paymentID uint) error
	LatestPayment(ctx context.Context, orderID uint) (*model.OrderPayment, error)
	CardDetail(ctx context.Context, orderPaymentID uint) (*model.CreditCardDetail, error)
	Failures(ctx context.Context, orderID uint) ([]model.PaymentFailure, error)
}

type paymentRepositoryImpl struct {
	db *gorm.DB
}

func NewPaymentRepository(db *gorm.DB) PaymentRepository {
	return &paymentRepositoryImpl{
		db: db,
	}
}

func (r *paymentRepositoryImpl) CreatePayment(ctx context.Context, payment *model.OrderPayment) error {
	return r.db.WithContext(ctx).Create(payment).Error
}

func (r *paymentRepositoryImpl) CreateAuthorization(ctx context.Context, auth *model.OrderAuthorization) error {
	return r.db.WithContext(ctx).Create(auth).Error
}

func (r *paymentRepositoryImpl) CreatePending(ctx context.Context, pending *model.OrderPendingPayment) error {
	return r.db.WithContext(ctx).Create(pending).Error
}

func (r *paymentRepositoryImpl) CreateFailure(ctx context.Context, failure *model.PaymentFailure) error {
	return r.db.WithContext(ctx).Create(failure).Error
}

func (r *paymentRepositoryImpl) CreateCardDetail(ctx context.Context, detail *model.CreditCardDetail) error {
	return r.db.WithContext(ctx).Create(detail).Error
}

func (r *paymentRepositoryImpl) Exists(ctx context.Context, transactionID string) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&model.OrderPayment{}).
		Where("transaction_id = ?", transactionID).
		Count(&count).Error

	return count > 0, err
}

func (r *paymentRepositoryImpl) OpenAuthorizations(ctx context.Context, orderID uint) ([]model.OrderAuthorization, error) {
	var auths []model.OrderAuthorization
	err := r.db.WithContext(ctx).
		Where("order_id = ? AND complete = ?", orderID, false).
		Order("id").
		Find(&auths).Error
	return auths, err
}

// CompleteAuthorization closes an authorization. A zero captureID marks it released.
func (r *paymentRepositoryImpl) CompleteAuthorization(ctx context.Context, authID, captureID uint) error {
	var capture *uint
	if captureID != 0 {
		capture = &captureID
	}
	return r.db.WithContext(ctx).
		Model(&model.OrderAuthorization{}).
		Where("id = ?", authID).
		Updates(map[string]interface{}{
			"complete":   true,
			"capture_id": capture,
		}).Error
}

func (r *paymentRepositoryImpl) Pending(ctx context.Context, orderID uint, method string) ([]model.OrderPendingPayment, error) {
	var pending []model.OrderPendingPayment
	err := r.db.WithContext(ctx).
		Where("order_id = ? AND method = ? AND capture_pay_id IS NULL", orderID, method).
		Order("id").
		Find(&pending).Error
	return pending, err
}

func (r *paymentRepositoryImpl) ResolvePending(ctx context.Context, pendingID, paymentID uint) error {
	return r.db.WithContext(ctx).
		Model(&model.OrderPendingPayment{}).
		Where("id = ?", pendingID).
		Update("capture_pay_id", paymentID).Error
}

func (r *paymentRepositoryImpl) LatestPayment(ctx context.Context, orderID uint) (*model.OrderPayment, error) {
	var payment model.OrderPayment
	err := r.db.WithContext(ctx).
		Where("order_id = ?", orderID).
		Order("id DESC").
		First(&payment).Error
	if err != nil {
		return nil, translate(err)
	}
	return &payment, nil
}

func (r *paymentRepositoryImpl) CardDetail(ctx context.Context, orderPaymentID uint) (*model.CreditCardDetail, error) {
	var detail model.CreditCardDetail
	err := r.db.WithContext(ctx).
		Where("order_payment_id = ?", orderPaymentID).
		First(&detail).Error
	if err != nil {
		return nil, translate(err)
	}
	return &detail, nil
}

func (r *paymentRepositoryImpl) Failures(ctx context.Context, orderID uint) ([]model.PaymentFailure, error) {
	var failures []model.PaymentFailure
	err := r.db.WithContext(ctx).Where("order_id = ?", orderID).Order("id").Find(&failures).Error
	return failures, err
}
