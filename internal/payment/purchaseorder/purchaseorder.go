// Package purchaseorder accepts a customer purchase order number. The order is
// invoiced and the payment stays pending until staff record it.
package purchaseorder

import (
	"context"
	"fmt"
	"satchmo-store/internal/livesettings"
	"satchmo-store/internal/model"
	"satchmo-store/internal/payment"
	"strings"

	"github.com/shopspring/decimal"
)

const Key = "PURCHASEORDER"

func RegisterSettings(r *livesettings.Registry) error {
	return payment.RegisterModule(r, Key, "Purchase Order", true)
}

type Processor struct {
	payment.Base
}

func New(settings *livesettings.Registry) *Processor {
	return &Processor{Base: payment.NewBase(Key, settings)}
}

func (p *Processor) Prepare(_ context.Context, _ *model.Order, data payment.PaymentData) error {
	if strings.TrimSpace(data.PONumber) == "" {
		return fmt.Errorf("%w: purchase order number required", payment.ErrInvalidPaymentData)
	}
	return nil
}

func (p *Processor) CapturePayment(_ context.Context, order *model.Order, amount decimal.Decimal, data payment.PaymentData) (*payment.ProcessorResult, error) {
	res := payment.PendingResult(Key, order.ID, amount, "Purchase order "+strings.TrimSpace(data.PONumber)+" received")
	res.Pending.Reference = strings.TrimSpace(data.PONumber)
	return res, nil
}
