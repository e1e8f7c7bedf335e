package client

import (
	"context"
	"errors"
	"fmt"
	"satchmo-store/internal/config"

	"github.com/braintree-go/braintree-go"
	"github.com/shopspring/decimal"
)

var ErrNoDefaultPaymentMethod = errors.New("no default payment method returned from vault")

type BraintreeClient interface {
	// Sale authorizes a transaction, settling it immediately when req.Settle is set.
	Sale(ctx context.Context, req *BraintreeSaleRequest) (*BraintreeResult, error)

	SubmitForSettlement(ctx context.Context, transactionID string, amount decimal.Decimal) (*BraintreeResult, error)

	Void(ctx context.Context, transactionID string) (*BraintreeResult, error)

	// VaultPaymentMethod takes a frontend nonce and creates a customer, returning a permanent payment token
	VaultPaymentMethod(ctx context.Context, nonce, firstName, lastName, email string) (string, error)
}

type BraintreeSaleRequest struct {
	OrderID      string
	Amount       decimal.Decimal
	Nonce        string
	PaymentToken string
	Settle       bool
}

type BraintreeResult struct {
	TransactionID string
	Status        string
	Approved      bool
	ResponseCode  string
	ResponseText  string
	AuthCode      string
}

type braintreeClientImpl struct {
	gateway *braintree.Braintree
}

func NewBraintreeClient(cfg *config.Braintree) BraintreeClient {
	env := braintree.Sandbox
	if cfg.Environment == "production" {
		env = braintree.Production
	}

	gateway := braintree.New(
		env,
		cfg.MerchantID,
		cfg.PublicKey,
		cfg.PrivateKey,
	)

	return &braintreeClientImpl{
		gateway: gateway,
	}
}

// toBraintreeDecimal converts to cents at scale 2, which is what the gateway expects for two-decimal currencies.
func toBraintreeDecimal(amount decimal.Decimal) *braintree.Decimal {
	cents := amount.Round(2).Mul(decimal.NewFromInt(100)).IntPart()
	return braintree.NewDecimal(cents, 2)
}

func resultFromTransaction(tx *braintree.Transaction) *BraintreeResult {
	status := string(tx.Status)
	approved := tx.Status != braintree.TransactionStatusProcessorDeclined &&
		tx.Status != braintree.TransactionStatusGatewayRejected &&
		tx.Status != braintree.TransactionStatusFailed

	return &BraintreeResult{
		TransactionID: tx.Id,
		Status:        status,
		Approved:      approved,
		ResponseCode:  fmt.Sprint(tx.ProcessorResponseCode),
		ResponseText:  tx.ProcessorResponseText,
		AuthCode:      tx.ProcessorAuthorizationCode,
	}
}

func (c *braintreeClientImpl) Sale(ctx context.Context, r *BraintreeSaleRequest) (*BraintreeResult, error) {
	req := &braintree.TransactionRequest{
		Type:               "sale",
		OrderId:            r.OrderID,
		Amount:             toBraintreeDecimal(r.Amount),
		PaymentMethodNonce: r.Nonce,
		PaymentMethodToken: r.PaymentToken,
		Options: &braintree.TransactionOptions{
			SubmitForSettlement: r.Settle,
		},
	}

	tx, err := c.gateway.Transaction().Create(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("braintree transaction create: %w", err)
	}

	return resultFromTransaction(tx), nil
}

func (c *braintreeClientImpl) SubmitForSettlement(ctx context.Context, transactionID string, amount decimal.Decimal) (*BraintreeResult, error) {
	tx, err := c.gateway.Transaction().SubmitForSettlement(ctx, transactionID, toBraintreeDecimal(amount))
	if err != nil {
		return nil, fmt.Errorf("braintree submit for settlement: %w", err)
	}
	return resultFromTransaction(tx), nil
}

func (c *braintreeClientImpl) Void(ctx context.Context, transactionID string) (*BraintreeResult, error) {
	tx, err := c.gateway.Transaction().Void(ctx, transactionID)
	if err != nil {
		return nil, fmt.Errorf("braintree void: %w", err)
	}
	return resultFromTransaction(tx), nil
}

func (c *braintreeClientImpl) VaultPaymentMethod(ctx context.Context, nonce, firstName, lastName, email string) (string, error) {
	req := &braintree.CustomerRequest{
		PaymentMethodNonce: nonce,
		FirstName:          firstName,
		LastName:           lastName,
		Email:              email,
	}

	customer, err := c.gateway.Customer().Create(ctx, req)
	if err != nil {
		return "", fmt.Errorf("vault payment method: %w", err)
	}

	if customer.DefaultPaymentMethod() == nil {
		return "", ErrNoDefaultPaymentMethod
	}

	return customer.DefaultPaymentMethod().GetToken(), nil
}
