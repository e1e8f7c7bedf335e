// Package authorizenet charges cards through the Authorize.Net AIM gateway.
package authorizenet

import (
	"context"
	"net/url"
	"satchmo-store/internal/client"
	"satchmo-store/internal/livesettings"
	"satchmo-store/internal/model"
	"satchmo-store/internal/payment"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

const Key = "AUTHORIZENET"

// AIM transaction types.
const (
	typeAuthCapture      = "AUTH_CAPTURE"
	typeAuthOnly         = "AUTH_ONLY"
	typePriorAuthCapture = "PRIOR_AUTH_CAPTURE"
	typeVoid             = "VOID"
)

func RegisterSettings(r *livesettings.Registry) error {
	return payment.RegisterModule(r, Key, "Credit Card (Authorize.net)", true,
		livesettings.Value{
			Key:         "LOGIN",
			Kind:        livesettings.KindString,
			Description: "Your Authorize.net transaction login",
		},
		livesettings.Value{
			Key:         "TRANKEY",
			Kind:        livesettings.KindPassword,
			Description: "Your Authorize.net transaction key",
		},
	)
}

type Processor struct {
	payment.Base
	gateway client.AuthorizenetClient
	now     func() time.Time
}

func New(settings *livesettings.Registry, gateway client.AuthorizenetClient) *Processor {
	return &Processor{Base: payment.NewBase(Key, settings), gateway: gateway, now: time.Now}
}

func (p *Processor) CanAuthorize() bool { return true }
func (p *Processor) CanRecurBill() bool { return true }

func (p *Processor) Prepare(ctx context.Context, _ *model.Order, data payment.PaymentData) error {
	return p.ValidateCard(ctx, data, p.now())
}

// Configured reports whether the gateway credentials are set.
func (p *Processor) Configured(ctx context.Context) bool {
	login, _ := p.Setting(ctx, "LOGIN")
	key, _ := p.Setting(ctx, "TRANKEY")
	return login != "" && key != ""
}

func orderFields(order *model.Order, amount decimal.Decimal, card *payment.CreditCard) url.Values {
	first, last := splitName(order.BillAddress.Addressee)
	fields := url.Values{}
	fields.Set("x_method", "CC")
	fields.Set("x_amount", amount.StringFixed(2))
	fields.Set("x_invoice_num", strconv.FormatUint(uint64(order.ID), 10))
	fields.Set("x_cust_id", strconv.FormatUint(uint64(order.ContactID), 10))
	fields.Set("x_first_name", first)
	fields.Set("x_last_name", last)
	fields.Set("x_address", strings.TrimSpace(order.BillAddress.Street1+" "+order.BillAddress.Street2))
	fields.Set("x_city", order.BillAddress.City)
	fields.Set("x_state", order.BillAddress.State)
	fields.Set("x_zip", order.BillAddress.PostalCode)
	fields.Set("x_country", order.BillAddress.Country)
	fields.Set("x_tax", order.Tax.StringFixed(2))
	fields.Set("x_freight", order.Shipping.Sub(order.ShippingDiscount).StringFixed(2))
	if card != nil {
		fields.Set("x_card_num", card.Digits())
		fields.Set("x_exp_date", card.ExpDate())
		if card.CCV != "" {
			fields.Set("x_card_code", card.CCV)
		}
	}
	return fields
}

func splitName(name string) (string, string) {
	name = strings.TrimSpace(name)
	if i := strings.LastIndex(name, " "); i > 0 {
		return name[:i], name[i+1:]
	}
	return name, ""
}

func (p *Processor) submit(ctx context.Context, fields url.Values) (*client.AIMResponse, error) {
	login, err := p.Setting(ctx, "LOGIN")
	if err != nil {
		return nil, err
	}
	tranKey, err := p.Setting(ctx, "TRANKEY")
	if err != nil {
		return nil, err
	}

	l, extra := p.Logger(ctx)
	if extra {
		l.Info("authorizenet request",
			zap.String("type", fields.Get("x_type")),
			zap.String("invoice", fields.Get("x_invoice_num")),
			zap.String("amount", fields.Get("x_amount")))
	}

	resp, err := p.gateway.Submit(ctx, p.Live(ctx), login, tranKey, fields)
	if err != nil {
		return nil, err
	}
	if extra {
		l.Info("authorizenet response",
			zap.String("response_code", resp.ResponseCode),
			zap.String("reason_code", resp.ReasonCode),
			zap.String("reason", resp.ReasonText))
	}
	return resp, nil
}

// result maps an AIM response: approved is built by ok, held for review is pending,
// declines and errors are failures.
func result(resp *client.AIMResponse, order *model.Order, amount decimal.Decimal, ok func() *payment.ProcessorResult) *payment.ProcessorResult {
	switch resp.ResponseCode {
	case client.AIMApproved:
		return ok()
	case client.AIMHeld:
		res := payment.PendingResult(Key, order.ID, amount, resp.ReasonText)
		res.ReasonCode = resp.ReasonCode
		return res
	default:
		res := payment.Failure(Key, resp.ReasonCode, resp.ReasonText, amount)
		res.TransactionID = resp.TransactionID
		return res
	}
}

func (p *Processor) CapturePayment(ctx context.Context, order *model.Order, amount decimal.Decimal, data payment.PaymentData) (*payment.ProcessorResult, error) {
	fields := orderFields(order, amount, data.Card)
	fields.Set("x_type", typeAuthCapture)

	resp, err := p.submit(ctx, fields)
	if err != nil {
		return nil, err
	}
	return result(resp, order, amount, func() *payment.ProcessorResult {
		res := payment.Captured(Key, order.ID, amount, resp.TransactionID, resp.ReasonText)
		res.ReasonCode = resp.ReasonCode
		res.Card = data.Card
		return res
	}), nil
}

func (p *Processor) AuthorizePayment(ctx context.Context, order *model.Order, amount decimal.Decimal, data payment.PaymentData) (*payment.ProcessorResult, error) {
	fields := orderFields(order, amount, data.Card)
	fields.Set("x_type", typeAuthOnly)

	resp, err := p.submit(ctx, fields)
	if err != nil {
		return nil, err
	}
	return result(resp, order, amount, func() *payment.ProcessorResult {
		res := payment.Authorized(Key, order.ID, amount, resp.TransactionID, resp.ReasonText)
		res.ReasonCode = resp.ReasonCode
		return res
	}), nil
}

func (p *Processor) CaptureAuthorizedPayment(ctx context.Context, order *model.Order, auth *model.OrderAuthorization) (*payment.ProcessorResult, error) {
	fields := url.Values{}
	fields.Set("x_type", typePriorAuthCapture)
	fields.Set("x_trans_id", auth.TransactionID)
	fields.Set("x_amount", auth.Amount.StringFixed(2))

	resp, err := p.submit(ctx, fields)
	if err != nil {
		return nil, err
	}
	return result(resp, order, auth.Amount, func() *payment.ProcessorResult {
		return payment.Captured(Key, order.ID, auth.Amount, resp.TransactionID, resp.ReasonText)
	}), nil
}

func (p *Processor) ReleaseAuthorizedPayment(ctx context.Context, order *model.Order, auth *model.OrderAuthorization) (*payment.ProcessorResult, error) {
	fields := url.Values{}
	fields.Set("x_type", typeVoid)
	fields.Set("x_trans_id", auth.TransactionID)

	resp, err := p.submit(ctx, fields)
	if err != nil {
		return nil, err
	}
	return result(resp, order, auth.Amount, func() *payment.ProcessorResult {
		return &payment.ProcessorResult{Processor: Key, Success: true, Message: resp.ReasonText, Amount: auth.Amount}
	}), nil
}
