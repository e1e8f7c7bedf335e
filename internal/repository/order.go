package repository

import (
	"context"
	"satchmo-store/internal/model"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type OrderRepository interface {
	Create(ctx context.Context, order *model.Order) error
	// Update saves order columns only; items and history are written separately.
	Update(ctx context.Context, order *model.Order) error
	FindByID(ctx context.Context, orderID uint) (*model.Order, error)
	ListByContact(ctx context.Context, contactID uint) ([]*model.Order, error)
	SaveItems(ctx context.Context, items []model.OrderItem) error
	ReplaceTaxDetails(ctx context.Context, orderID uint, details []model.OrderTaxDetail) error
	AddStatus(ctx context.Context, status *model.OrderStatus) error
	// MarkPaid sets PaidAt once. It reports false when the order was already paid.
	MarkPaid(ctx context.Context, orderID uint, at time.Time) (bool, error)
	CompleteItem(ctx context.Context, itemID uint, expireDate *time.Time) error
	SubscriptionItems(ctx context.Context) ([]model.OrderItem, error)
}

type orderRepoImpl struct {
	db *gorm.DB
}

func NewOrderRepository(db *gorm.DB) OrderRepository {
	return &orderRepoImpl{
		db: db,
	}
}

func (r *orderRepoImpl) Create(ctx context.Context, order *model.Order) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Omit(clause.Associations).Create(order).Error; err != nil {
			return err
		}
		if len(order.Items) == 0 {
			return nil
		}
		for i := range order.Items {
			order.Items[i].OrderID = order.ID
		}
		return tx.Omit("Product").Create(&order.Items).Error
	})
}

func (r *orderRepoImpl) Update(ctx context.Context, order *model.Order) error {
	return r.db.WithContext(ctx).Omit(clause.Associations).Save(order).Error
}

func (r *orderRepoImpl) FindByID(ctx context.Context, orderID uint) (*model.Order, error) {
	var order model.Order
	err := r.db.WithContext(ctx).
		Preload("Items", func(db *gorm.DB) *gorm.DB { return db.Order("id") }).
		Preload("Items.Product").
		Preload("StatusHistory", func(db *gorm.DB) *gorm.DB { return db.Order("id") }).
		Preload("Payments", func(db *gorm.DB) *gorm.DB { return db.Order("id") }).
		Preload("Pending").
		Preload("TaxDetails").
		Where("id = ?", orderID).
		First(&order).Error
	if err != nil {
		return nil, translate(err)
	}

	return &order, nil
}

func (r *orderRepoImpl) ListByContact(ctx context.Context, contactID uint) ([]*model.Order, error) {
	var orders []*model.Order
	err := r.db.WithContext(ctx).
		Preload("Items").
		Where("contact_id = ? AND status <> ?", contactID, model.StatusTemp).
		Order("id DESC").
		Find(&orders).Error
	if err != nil {
		return nil, err
	}
	return orders, nil
}

func (r *orderRepoImpl) SaveItems(ctx context.Context, items []model.OrderItem) error {
	if len(items) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).Omit("Product").Save(&items).Error
}

func (r *orderRepoImpl) ReplaceTaxDetails(ctx context.Context, orderID uint, details []model.OrderTaxDetail) error {
	db := r.db.WithContext(ctx)
	if err := db.Where("order_id = ?", orderID).Delete(&model.OrderTaxDetail{}).Error; err != nil {
		return err
	}
	if len(details) == 0 {
		return nil
	}
	for i := range details {
		details[i].ID = 0
		details[i].OrderID = orderID
	}
	return db.Create(&details).Error
}

func (r *orderRepoImpl) AddStatus(ctx context.Context, status *model.OrderStatus) error {
	db := r.db.WithContext(ctx)
	if status.TimeStamp.IsZero() {
		status.TimeStamp = time.Now()
	}
	if err := db.Create(status).Error; err != nil {
		return err
	}

	result := db.Model(&model.Order{}).
		Where("id = ?", status.OrderID).
		Update("status", status.Status)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *orderRepoImpl) MarkPaid(ctx context.Context, orderID uint, at time.Time) (bool, error) {
	result := r.db.WithContext(ctx).
		Model(&model.Order{}).
		Where("id = ? AND paid_at IS NULL", orderID).
		Update("paid_at", at)
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected == 1, nil
}

func (r *orderRepoImpl) CompleteItem(ctx context.Context, itemID uint, expireDate *time.Time) error {
	return r.db.WithContext(ctx).
		Model(&model.OrderItem{}).
		Where("id = ?", itemID).
		Updates(map[string]interface{}{
			"completed":   true,
			"expire_date": expireDate,
		}).Error
}

// SubscriptionItems returns completed items carrying an expiry date.
func (r *orderRepoImpl) SubscriptionItems(ctx context.Context) ([]model.OrderItem, error) {
	var items []model.OrderItem
	err := r.db.WithContext(ctx).
		Preload("Product").
		Where("expire_date IS NOT NULL AND completed = ?", true).
		Order("id").
		Find(&items).Error
	return items, err
}
