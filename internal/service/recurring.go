package service

import (
	"context"
	"fmt"
	"satchmo-store/internal/logger"
	"satchmo-store/internal/model"
	"satchmo-store/internal/payment"
	"satchmo-store/internal/repository"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

type RecurringReport struct {
	Due     int `json:"due"`
	Billed  int `json:"billed"`
	Failed  int `json:"failed"`
	Skipped int `json:"skipped"`
}

type RecurringService interface {
	// BillDue renews every recurring subscription expiring today or earlier.
	BillDue(ctx context.Context) (*RecurringReport, error)
}

type recurringServiceImpl struct {
	repos    *repository.Repositories
	orders   OrderService
	pricing  PricingService
	payments *payment.Service
	now      func() time.Time
}

func NewRecurringService(
	repos *repository.Repositories,
	orders OrderService,
	pricing PricingService,
	payments *payment.Service,
) RecurringService {
	return &recurringServiceImpl{
		repos:    repos,
		orders:   orders,
		pricing:  pricing,
		payments: payments,
		now:      time.Now,
	}
}

func (s *recurringServiceImpl) BillDue(ctx context.Context) (*RecurringReport, error) {
	items, err := s.repos.Orders.SubscriptionItems(ctx)
	if err != nil {
		return nil, fmt.Errorf("list subscription items: %w", err)
	}

	now := s.now()
	cutoff := time.Date(now.Year(), now.Month(), now.Day()+1, 0, 0, 0, 0, now.Location())
	l := logger.FromContext(ctx)

	report := &RecurringReport{}
	for i := range items {
		item := &items[i]
		if !item.Product.Recurring || item.ExpireDate == nil || !item.ExpireDate.Before(cutoff) {
			continue
		}
		report.Due++

		billed, err := s.renew(ctx, item)
		switch {
		case err != nil:
			report.Failed++
			l.Error("recurring billing failed", zap.Uint("order_item_id", item.ID), zap.Error(err))
		case billed:
			report.Billed++
		default:
			report.Skipped++
		}
	}
	return report, nil
}

// renew charges a renewal order for item. It reports false when the paying
// module cannot bill again without the customer.
func (s *recurringServiceImpl) renew(ctx context.Context, item *model.OrderItem) (bool, error) {
	original, err := s.orders.Get(ctx, item.OrderID)
	if err != nil {
		return false, err
	}
	processor, err := s.payments.Processor(ctx, original.PaymentMethod)
	if err != nil {
		return false, err
	}
	if !processor.CanRecurBill() {
		return false, nil
	}

	contact, err := s.repos.Contacts.FindByID(ctx, original.ContactID)
	if err != nil {
		return false, fmt.Errorf("find contact %d: %w", original.ContactID, err)
	}
	unit, err := s.pricing.UnitPrice(ctx, &item.Product, item.Quantity, contact)
	if err != nil {
		return false, err
	}

	renewal := &model.Order{
		ContactID:     original.ContactID,
		Status:        model.StatusNew,
		Method:        original.Method,
		ShipAddress:   original.ShipAddress,
		BillAddress:   original.BillAddress,
		ShippingModel: original.ShippingModel,
		PaymentMethod: original.PaymentMethod,
		Notes:         fmt.Sprintf("Renewal of order %d", original.ID),
		TimeStamp:     s.now(),
		Items: []model.OrderItem{{
			ProductID: item.ProductID,
			Product:   item.Product,
			Quantity:  item.Quantity,
			UnitPrice: unit,
			LinePrice: unit.Mul(decimal.NewFromInt(int64(item.Quantity))),
		}},
	}
	if err := s.orders.Recalculate(ctx, renewal); err != nil {
		return false, err
	}
	err = s.repos.Transaction(ctx, func(tx *repository.Repositories) error {
		if err := tx.Orders.Create(ctx, renewal); err != nil {
			return fmt.Errorf("create renewal order: %w", err)
		}
		if err := tx.Orders.ReplaceTaxDetails(ctx, renewal.ID, renewal.TaxDetails); err != nil {
			return err
		}
		return tx.Orders.AddStatus(ctx, &model.OrderStatus{
			OrderID:   renewal.ID,
			Status:    model.StatusNew,
			Notes:     renewal.Notes,
			TimeStamp: renewal.TimeStamp,
		})
	})
	if err != nil {
		return false, err
	}

	data := payment.PaymentData{Recurring: true}
	if card, err := s.payments.Recorder().StoredCard(ctx, original.ID); err == nil {
		data.Card = card
	}

	res, err := s.payments.Process(ctx, original.PaymentMethod, renewal, data)
	if err != nil {
		return false, err
	}
	if !res.Success {
		return false, fmt.Errorf("renewal order %d declined: %s", renewal.ID, res.Message)
	}

	// the renewal continues from the old expiry, and the old line stops billing
	expires := item.Product.ExtendExpiry(*item.ExpireDate)
	if err := s.repos.Orders.CompleteItem(ctx, renewal.Items[0].ID, &expires); err != nil {
		return false, fmt.Errorf("extend subscription: %w", err)
	}
	if err := s.repos.Orders.CompleteItem(ctx, item.ID, nil); err != nil {
		return false, fmt.Errorf("retire subscription item %d: %w", item.ID, err)
	}
	if _, _, err := s.orders.CompletePayment(ctx, renewal.ID); err != nil {
		return false, err
	}

	logger.FromContext(ctx).Info("subscription renewed",
		zap.Uint("order_id", renewal.ID),
		zap.Uint("renews_order_item_id", item.ID),
		zap.Time("expires", expires))
	return true, nil
}
