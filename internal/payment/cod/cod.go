// Package cod takes payment on delivery.
package cod

import (
	"context"
	"satchmo-store/internal/livesettings"
	"satchmo-store/internal/model"
	"satchmo-store/internal/payment"

	"github.com/shopspring/decimal"
)

const Key = "COD"

func RegisterSettings(r *livesettings.Registry) error {
	return payment.RegisterModule(r, Key, "Cash on Delivery", true)
}

type Processor struct {
	payment.Base
}

func New(settings *livesettings.Registry) *Processor {
	return &Processor{Base: payment.NewBase(Key, settings)}
}

func (p *Processor) CapturePayment(_ context.Context, order *model.Order, amount decimal.Decimal, _ payment.PaymentData) (*payment.ProcessorResult, error) {
	return payment.PendingResult(Key, order.ID, amount, "Payment due on delivery"), nil
}
