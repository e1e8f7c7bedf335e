// Package dummy is a test payment module that approves every card except 4222222222222.
package dummy

import (
	"context"
	"satchmo-store/internal/livesettings"
	"satchmo-store/internal/model"
	"satchmo-store/internal/payment"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

const (
	Key = "DUMMY"

	DeclinedCard = "4222222222222"
)

func RegisterSettings(r *livesettings.Registry) error {
	return payment.RegisterModule(r, Key, "Payment test module", true)
}

type Processor struct {
	payment.Base
	now func() time.Time
}

func New(settings *livesettings.Registry) *Processor {
	return &Processor{Base: payment.NewBase(Key, settings), now: time.Now}
}

func (p *Processor) CanAuthorize() bool { return true }
func (p *Processor) CanRecurBill() bool { return true }

func (p *Processor) Prepare(ctx context.Context, _ *model.Order, data payment.PaymentData) error {
	return p.ValidateCard(ctx, data, p.now())
}

func (p *Processor) charge(ctx context.Context, order *model.Order, amount decimal.Decimal, data payment.PaymentData) (*payment.ProcessorResult, string, bool) {
	l, extra := p.Logger(ctx)
	if extra {
		l.Debug("dummy charge", zap.Uint("order_id", order.ID), zap.String("amount", amount.String()))
	}
	if data.Card == nil || data.Card.Digits() == DeclinedCard {
		return payment.Failure(Key, "2", "Invalid credit card number", amount), "", false
	}
	return nil, "DUMMY-" + uuid.NewString(), true
}

func (p *Processor) CapturePayment(ctx context.Context, order *model.Order, amount decimal.Decimal, data payment.PaymentData) (*payment.ProcessorResult, error) {
	declined, txID, ok := p.charge(ctx, order, amount, data)
	if !ok {
		return declined, nil
	}
	res := payment.Captured(Key, order.ID, amount, txID, "Dummy capture")
	res.Card = data.Card
	return res, nil
}

func (p *Processor) AuthorizePayment(ctx context.Context, order *model.Order, amount decimal.Decimal, data payment.PaymentData) (*payment.ProcessorResult, error) {
	declined, txID, ok := p.charge(ctx, order, amount, data)
	if !ok {
		return declined, nil
	}
	return payment.Authorized(Key, order.ID, amount, txID, "Dummy authorization"), nil
}

func (p *Processor) CaptureAuthorizedPayment(_ context.Context, order *model.Order, auth *model.OrderAuthorization) (*payment.ProcessorResult, error) {
	return payment.Captured(Key, order.ID, auth.Amount, auth.TransactionID, "Dummy capture of authorization"), nil
}

func (p *Processor) ReleaseAuthorizedPayment(_ context.Context, order *model.Order, auth *model.OrderAuthorization) (*payment.ProcessorResult, error) {
	return &payment.ProcessorResult{Processor: Key, Success: true, Message: "Released", Amount: auth.Amount}, nil
}
