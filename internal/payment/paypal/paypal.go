// Package paypal sends the customer to PayPal to approve the order and
// records the capture when they return or when PayPal notifies the webhook.
package paypal

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"satchmo-store/internal/client"
	"satchmo-store/internal/livesettings"
	"satchmo-store/internal/model"
	"satchmo-store/internal/payment"
	"strconv"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

const (
	Key = "PAYPAL"

	EventCaptureCompleted = "PAYMENT.CAPTURE.COMPLETED"
	EventCaptureDenied    = "PAYMENT.CAPTURE.DENIED"
)

var ErrUnknownInvoice = errors.New("paypal capture does not reference a store order")

func RegisterSettings(r *livesettings.Registry) error {
	return payment.RegisterModule(r, Key, "PayPal", true,
		livesettings.Value{
			Key:         "RETURN_PATH",
			Kind:        livesettings.KindString,
			Description: "Path PayPal returns the customer to after approval",
			Default:     "/api/paypal/success",
		},
		livesettings.Value{
			Key:         "CANCEL_PATH",
			Kind:        livesettings.KindString,
			Description: "Path PayPal returns the customer to after cancelling",
			Default:     "/api/paypal/cancel",
		},
	)
}

type Processor struct {
	payment.Base
	gateway client.PaypalClient
	baseURL string
}

func New(settings *livesettings.Registry, gateway client.PaypalClient, baseURL string) *Processor {
	return &Processor{Base: payment.NewBase(Key, settings), gateway: gateway, baseURL: baseURL}
}

func (p *Processor) url(ctx context.Context, setting string) string {
	path, err := p.Setting(ctx, setting)
	if err != nil {
		return p.baseURL
	}
	return p.baseURL + path
}

// CapturePayment creates a PayPal order. The money is pending until the customer approves it.
func (p *Processor) CapturePayment(ctx context.Context, order *model.Order, amount decimal.Decimal, _ payment.PaymentData) (*payment.ProcessorResult, error) {
	currency, err := p.Settings.String(ctx, livesettings.GroupLanguage, "CURRENCY_CODE")
	if err != nil {
		return nil, err
	}

	resp, err := p.gateway.CreateOrder(ctx, &client.PaypalOrderRequest{
		InvoiceID: strconv.FormatUint(uint64(order.ID), 10),
		Amount:    amount,
		Currency:  currency,
		ReturnURL: p.url(ctx, "RETURN_PATH"),
		CancelURL: p.url(ctx, "CANCEL_PATH"),
	})
	if err != nil {
		return nil, err
	}

	l, extra := p.Logger(ctx)
	if extra {
		l.Info("paypal order created", zap.Uint("order_id", order.ID), zap.String("paypal_order_id", resp.OrderID))
	}

	res := payment.PendingResult(Key, order.ID, amount, "Approve the payment at PayPal")
	res.RedirectURL = resp.ApproveURL
	res.Pending.Reference = resp.OrderID
	return res, nil
}

// Completion is a capture reported by PayPal for a store order.
type Completion struct {
	OrderID uint
	Result  *payment.ProcessorResult
}

func completion(invoiceID string, res *payment.ProcessorResult) (*Completion, error) {
	id, err := strconv.ParseUint(invoiceID, 10, 64)
	if err != nil || id == 0 {
		return nil, fmt.Errorf("%w: invoice %q", ErrUnknownInvoice, invoiceID)
	}
	if res.Payment != nil {
		res.Payment.OrderID = uint(id)
	}
	return &Completion{OrderID: uint(id), Result: res}, nil
}

// Complete captures an approved PayPal order after the customer returns.
func (p *Processor) Complete(ctx context.Context, paypalOrderID string) (*Completion, error) {
	capture, err := p.gateway.CaptureOrder(ctx, paypalOrderID)
	if err != nil {
		return nil, err
	}

	var res *payment.ProcessorResult
	if capture.Status == "COMPLETED" {
		res = payment.Captured(Key, 0, capture.Amount, capture.CaptureID, "PayPal payer "+capture.PayerID)
	} else {
		res = payment.Failure(Key, capture.Status, "PayPal capture not completed", capture.Amount)
		res.TransactionID = capture.CaptureID
	}
	return completion(capture.InvoiceID, res)
}

// ParseWebhook verifies the notification signature and decodes the event.
func (p *Processor) ParseWebhook(ctx context.Context, headers http.Header, body []byte) (*client.PaypalWebhookEvent, error) {
	if err := p.gateway.VerifyWebhookSignature(ctx, headers, body); err != nil {
		return nil, err
	}
	var event client.PaypalWebhookEvent
	if err := json.Unmarshal(body, &event); err != nil {
		return nil, fmt.Errorf("decode webhook payload: %w", err)
	}
	return &event, nil
}

// WebhookCompletion maps a capture event to a store order. Other event types return nil.
func (p *Processor) WebhookCompletion(event *client.PaypalWebhookEvent) (*Completion, error) {
	capture := event.Resource
	amount, err := decimal.NewFromString(capture.Amount.Value)
	if err != nil {
		amount = decimal.Zero
	}

	switch event.EventType {
	case EventCaptureCompleted:
		return completion(capture.InvoiceID, payment.Captured(Key, 0, amount, capture.ID,
			"PayPal order "+capture.SupplementaryData.RelatedIDs.OrderID))
	case EventCaptureDenied:
		res := payment.Failure(Key, capture.Status, "PayPal capture denied", amount)
		res.TransactionID = capture.ID
		return completion(capture.InvoiceID, res)
	}
	return nil, nil
}
