// Package payment runs the payment modules enabled in PAYMENT.MODULES.
//
// A module either captures money immediately or authorizes it for a later
// capture. Declines are reported in ProcessorResult; Go errors mean the
// gateway or the database could not be reached.
package payment

import (
	"context"
	"errors"
	"satchmo-store/internal/model"
	"satchmo-store/internal/repository"

	"github.com/shopspring/decimal"
)

var (
	ErrProcessorNotFound    = errors.New("payment processor not found")
	ErrProcessorDisabled    = errors.New("payment processor not enabled")
	ErrInvalidPaymentData   = errors.New("invalid payment data")
	ErrAuthorizeUnsupported = errors.New("payment processor cannot authorize")
)

// PaymentData is what the customer submits with the payment form.
type PaymentData struct {
	Card *CreditCard `json:"card,omitempty"`

	// Nonce is a client-side tokenized payment method (Braintree).
	Nonce     string `json:"nonce,omitempty"`
	SaveToken bool   `json:"save_token,omitempty"`

	PONumber string `json:"po_number,omitempty"`
	GiftCode string `json:"gift_code,omitempty"`

	// Recurring marks an unattended renewal charge.
	Recurring bool `json:"-"`
}

type ProcessorResult struct {
	Processor  string `json:"processor"`
	Success    bool   `json:"success"`
	ReasonCode string `json:"reason_code,omitempty"`
	Message    string `json:"message,omitempty"`

	// RedirectURL is set when the customer must approve the payment off-site.
	RedirectURL string `json:"redirect_url,omitempty"`

	Payment       *model.OrderPayment        `json:"payment,omitempty"`
	Authorization *model.OrderAuthorization  `json:"authorization,omitempty"`
	Pending       *model.OrderPendingPayment `json:"pending,omitempty"`

	// TransactionID identifies a failed gateway attempt.
	TransactionID string          `json:"-"`
	Amount        decimal.Decimal `json:"-"`

	// Card is stored encrypted alongside Payment.
	Card *CreditCard `json:"-"`

	// OnRecorded runs once Payment has an id, in the transaction that stores
	// it. An error rolls the payment back.
	OnRecorded func(ctx context.Context, tx *repository.Repositories, payment *model.OrderPayment) error `json:"-"`
}

// Processor is a payment module.
type Processor interface {
	Key() string
	Label(ctx context.Context) string
	CanAuthorize() bool
	CanRecurBill() bool

	// Prepare validates data for order before any gateway call.
	Prepare(ctx context.Context, order *model.Order, data PaymentData) error

	AuthorizePayment(ctx context.Context, order *model.Order, amount decimal.Decimal, data PaymentData) (*ProcessorResult, error)
	CapturePayment(ctx context.Context, order *model.Order, amount decimal.Decimal, data PaymentData) (*ProcessorResult, error)
	CaptureAuthorizedPayment(ctx context.Context, order *model.Order, auth *model.OrderAuthorization) (*ProcessorResult, error)
	ReleaseAuthorizedPayment(ctx context.Context, order *model.Order, auth *model.OrderAuthorization) (*ProcessorResult, error)
}

// Failure builds a declined result.
func Failure(key, reasonCode, message string, amount decimal.Decimal) *ProcessorResult {
	return &ProcessorResult{
		Processor:  key,
		ReasonCode: reasonCode,
		Message:    message,
		Amount:     amount,
	}
}

// Captured builds a successful capture of amount.
func Captured(key string, orderID uint, amount decimal.Decimal, transactionID, details string) *ProcessorResult {
	return &ProcessorResult{
		Processor: key,
		Success:   true,
		Message:   "Success",
		Amount:    amount,
		Payment: &model.OrderPayment{
			OrderID:       orderID,
			Method:        key,
			Amount:        amount,
			TransactionID: transactionID,
			Details:       details,
		},
	}
}

// Authorized builds a successful authorization of amount.
func Authorized(key string, orderID uint, amount decimal.Decimal, transactionID, details string) *ProcessorResult {
	return &ProcessorResult{
		Processor: key,
		Success:   true,
		Message:   "Success",
		Amount:    amount,
		Authorization: &model.OrderAuthorization{
			OrderID:       orderID,
			Method:        key,
			Amount:        amount,
			TransactionID: transactionID,
			Details:       details,
		},
	}
}

// PendingResult builds a successful result whose money arrives later.
func PendingResult(key string, orderID uint, amount decimal.Decimal, message string) *ProcessorResult {
	return &ProcessorResult{
		Processor: key,
		Success:   true,
		Message:   message,
		Amount:    amount,
		Pending: &model.OrderPendingPayment{
			OrderID: orderID,
			Method:  key,
			Amount:  amount,
		},
	}
}
