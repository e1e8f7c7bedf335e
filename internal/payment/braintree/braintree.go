// Package braintree charges Braintree client-side nonces and vaulted payment
// methods. Vaulted methods make recurring billing possible.
package braintree

import (
	"context"
	"fmt"
	"satchmo-store/internal/client"
	"satchmo-store/internal/livesettings"
	"satchmo-store/internal/model"
	"satchmo-store/internal/payment"
	"satchmo-store/internal/repository"
	"strconv"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

const Key = "BRAINTREE"

func RegisterSettings(r *livesettings.Registry) error {
	return payment.RegisterModule(r, Key, "Credit Card (Braintree)", false,
		livesettings.Value{
			Key:         "VAULT",
			Kind:        livesettings.KindBoolean,
			Description: "Store payment methods in the Braintree vault for repeat and recurring charges",
			Default:     true,
		},
	)
}

type Processor struct {
	payment.Base
	gateway  client.BraintreeClient
	vault    repository.VaultRepository
	contacts repository.ContactRepository
}

func New(settings *livesettings.Registry, gateway client.BraintreeClient, vault repository.VaultRepository, contacts repository.ContactRepository) *Processor {
	return &Processor{
		Base:     payment.NewBase(Key, settings),
		gateway:  gateway,
		vault:    vault,
		contacts: contacts,
	}
}

func (p *Processor) CanAuthorize() bool { return true }
func (p *Processor) CanRecurBill() bool { return true }

func (p *Processor) Prepare(ctx context.Context, order *model.Order, data payment.PaymentData) error {
	if data.Nonce != "" {
		return nil
	}
	if _, err := p.vaultedToken(ctx, order); err != nil {
		return fmt.Errorf("%w: payment method nonce required", payment.ErrInvalidPaymentData)
	}
	return nil
}

func (p *Processor) vaultedToken(ctx context.Context, order *model.Order) (string, error) {
	if order.ContactID == 0 {
		return "", repository.ErrNotFound
	}
	return p.vault.GetToken(ctx, order.ContactID, Key)
}

// saleRequest charges the nonce, vaulting it first when asked to. Without a
// nonce the contact's vaulted method is charged.
func (p *Processor) saleRequest(ctx context.Context, order *model.Order, amount decimal.Decimal, data payment.PaymentData, settle bool) (*client.BraintreeSaleRequest, error) {
	req := &client.BraintreeSaleRequest{
		OrderID: strconv.FormatUint(uint64(order.ID), 10),
		Amount:  amount,
		Settle:  settle,
	}

	if data.Nonce == "" {
		token, err := p.vaultedToken(ctx, order)
		if err != nil {
			return nil, fmt.Errorf("vaulted payment method: %w", err)
		}
		req.PaymentToken = token
		return req, nil
	}

	useVault, err := p.Settings.Bool(ctx, p.Group(), "VAULT")
	if err != nil {
		return nil, err
	}
	if !data.SaveToken || !useVault || order.ContactID == 0 {
		req.Nonce = data.Nonce
		return req, nil
	}

	contact, err := p.contacts.FindByID(ctx, order.ContactID)
	if err != nil {
		return nil, fmt.Errorf("find contact: %w", err)
	}
	token, err := p.gateway.VaultPaymentMethod(ctx, data.Nonce, contact.FirstName, contact.LastName, contact.Email)
	if err != nil {
		return nil, err
	}
	if err := p.vault.Upsert(ctx, &model.VaultedPaymentMethod{ContactID: contact.ID, Method: Key, Token: token}); err != nil {
		return nil, fmt.Errorf("save vaulted payment method: %w", err)
	}
	req.PaymentToken = token
	return req, nil
}

func (p *Processor) sale(ctx context.Context, order *model.Order, amount decimal.Decimal, data payment.PaymentData, settle bool) (*client.BraintreeResult, error) {
	req, err := p.saleRequest(ctx, order, amount, data, settle)
	if err != nil {
		return nil, err
	}

	res, err := p.gateway.Sale(ctx, req)
	if err != nil {
		return nil, err
	}

	l, extra := p.Logger(ctx)
	if extra {
		l.Info("braintree sale",
			zap.Uint("order_id", order.ID),
			zap.String("transaction_id", res.TransactionID),
			zap.String("status", res.Status),
			zap.Bool("settle", settle))
	}
	return res, nil
}

func declined(res *client.BraintreeResult, amount decimal.Decimal) *payment.ProcessorResult {
	out := payment.Failure(Key, res.ResponseCode, res.ResponseText, amount)
	out.TransactionID = res.TransactionID
	return out
}

func (p *Processor) CapturePayment(ctx context.Context, order *model.Order, amount decimal.Decimal, data payment.PaymentData) (*payment.ProcessorResult, error) {
	res, err := p.sale(ctx, order, amount, data, true)
	if err != nil {
		return nil, err
	}
	if !res.Approved {
		return declined(res, amount), nil
	}
	out := payment.Captured(Key, order.ID, amount, res.TransactionID, "Auth code "+res.AuthCode)
	out.ReasonCode = res.ResponseCode
	return out, nil
}

func (p *Processor) AuthorizePayment(ctx context.Context, order *model.Order, amount decimal.Decimal, data payment.PaymentData) (*payment.ProcessorResult, error) {
	res, err := p.sale(ctx, order, amount, data, false)
	if err != nil {
		return nil, err
	}
	if !res.Approved {
		return declined(res, amount), nil
	}
	out := payment.Authorized(Key, order.ID, amount, res.TransactionID, "Auth code "+res.AuthCode)
	out.ReasonCode = res.ResponseCode
	return out, nil
}

func (p *Processor) CaptureAuthorizedPayment(ctx context.Context, order *model.Order, auth *model.OrderAuthorization) (*payment.ProcessorResult, error) {
	res, err := p.gateway.SubmitForSettlement(ctx, auth.TransactionID, auth.Amount)
	if err != nil {
		return nil, err
	}
	if !res.Approved {
		return declined(res, auth.Amount), nil
	}
	return payment.Captured(Key, order.ID, auth.Amount, res.TransactionID, "Settled authorization"), nil
}

func (p *Processor) ReleaseAuthorizedPayment(ctx context.Context, _ *model.Order, auth *model.OrderAuthorization) (*payment.ProcessorResult, error) {
	res, err := p.gateway.Void(ctx, auth.TransactionID)
	if err != nil {
		return nil, err
	}
	if !res.Approved {
		return declined(res, auth.Amount), nil
	}
	return &payment.ProcessorResult{Processor: Key, Success: true, Message: "Voided", Amount: auth.Amount}, nil
}
