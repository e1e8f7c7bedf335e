// Package giftcertificate pays orders from gift certificate balances and
// issues certificates when gift certificate products are bought.
package giftcertificate

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"math/big"
	"satchmo-store/internal/hooks"
	"satchmo-store/internal/livesettings"
	"satchmo-store/internal/model"
	"satchmo-store/internal/payment"
	"satchmo-store/internal/repository"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

const (
	Key = "GIFTCERTIFICATE"

	placeholder = '^'
	maxAttempts = 10
)

var ErrInsufficientBalance = repository.ErrInsufficientBalance

func RegisterSettings(r *livesettings.Registry) error {
	return payment.RegisterModule(r, Key, "Gift Certificate", true,
		livesettings.Value{
			Key:         "CHARSET",
			Kind:        livesettings.KindString,
			Description: "Characters used to generate certificate codes",
			Default:     "BCDFGHKPRSTVWXYZ23456789",
		},
		livesettings.Value{
			Key:         "FORMAT",
			Kind:        livesettings.KindString,
			Description: "Code format; each ^ is replaced with a random character",
			Default:     "^^^^-^^^^-^^^^",
		},
	)
}

// GenerateCode fills every ^ in format with a random character of charset.
func GenerateCode(charset, format string) (string, error) {
	chars := []rune(charset)
	if len(chars) == 0 {
		return "", errors.New("empty gift certificate charset")
	}
	size := big.NewInt(int64(len(chars)))

	var b strings.Builder
	for _, r := range format {
		if r != placeholder {
			b.WriteRune(r)
			continue
		}
		n, err := rand.Int(rand.Reader, size)
		if err != nil {
			return "", fmt.Errorf("generate code: %w", err)
		}
		b.WriteRune(chars[n.Int64()])
	}
	return strings.ToUpper(b.String()), nil
}

type Processor struct {
	payment.Base
	certs repository.GiftCertificateRepository
	now   func() time.Time
}

func New(settings *livesettings.Registry, certs repository.GiftCertificateRepository) *Processor {
	return &Processor{Base: payment.NewBase(Key, settings), certs: certs, now: time.Now}
}

func (p *Processor) certificate(ctx context.Context, code string) (*model.GiftCertificate, error) {
	if strings.TrimSpace(code) == "" {
		return nil, fmt.Errorf("%w: gift certificate code required", payment.ErrInvalidPaymentData)
	}
	cert, err := p.certs.FindByCode(ctx, code)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, fmt.Errorf("%w: unknown gift certificate", payment.ErrInvalidPaymentData)
	}
	if err != nil {
		return nil, err
	}
	return cert, nil
}

func (p *Processor) Prepare(ctx context.Context, _ *model.Order, data payment.PaymentData) error {
	_, err := p.certificate(ctx, data.GiftCode)
	return err
}

// CapturePayment applies the smaller of the certificate balance and amount.
// Any remainder stays on the order balance for another payment. The balance
// is checked again under a row lock when the payment is recorded.
func (p *Processor) CapturePayment(ctx context.Context, order *model.Order, amount decimal.Decimal, data payment.PaymentData) (*payment.ProcessorResult, error) {
	cert, err := p.certificate(ctx, data.GiftCode)
	if err != nil {
		return nil, err
	}

	balance := cert.Balance()
	if !cert.Valid || !balance.IsPositive() {
		return payment.Failure(Key, "", ErrInsufficientBalance.Error(), amount), nil
	}

	used := decimal.Min(balance, amount)
	res := payment.Captured(Key, order.ID, used, cert.Code, "Gift certificate "+cert.Code)
	if used.LessThan(amount) {
		res.Message = "Gift certificate applied, " + amount.Sub(used).StringFixed(2) + " remaining"
	}

	var usedBy *uint
	if order.ContactID != 0 {
		id := order.ContactID
		usedBy = &id
	}
	res.OnRecorded = func(ctx context.Context, tx *repository.Repositories, pay *model.OrderPayment) error {
		paymentID := pay.ID
		return tx.GiftCertificates.Spend(ctx, &model.GiftCertificateUsage{
			GiftCertificateID: cert.ID,
			BalanceUsed:       used,
			OrderPaymentID:    &paymentID,
			UsedByID:          usedBy,
			Notes:             fmt.Sprintf("order %d", order.ID),
			UsageDate:         p.now(),
		})
	}
	return res, nil
}

// Issue creates one certificate per gift certificate unit bought on order.
func (p *Processor) Issue(ctx context.Context, order *model.Order) ([]*model.GiftCertificate, error) {
	existing, err := p.certs.ListByOrder(ctx, order.ID)
	if err != nil {
		return nil, fmt.Errorf("list certificates of order %d: %w", order.ID, err)
	}
	if len(existing) > 0 {
		return existing, nil
	}

	charset, err := p.Setting(ctx, "CHARSET")
	if err != nil {
		return nil, err
	}
	format, err := p.Setting(ctx, "FORMAT")
	if err != nil {
		return nil, err
	}

	var issued []*model.GiftCertificate
	for _, item := range order.Items {
		if item.Product.Kind != model.ProductKindGiftCertificate {
			continue
		}
		for i := 0; i < item.Quantity; i++ {
			cert, err := p.issueOne(ctx, order, item.UnitPrice, charset, format)
			if err != nil {
				return issued, err
			}
			issued = append(issued, cert)
		}
	}
	return issued, nil
}

func (p *Processor) issueOne(ctx context.Context, order *model.Order, balance decimal.Decimal, charset, format string) (*model.GiftCertificate, error) {
	orderID := order.ID
	var purchasedBy *uint
	if order.ContactID != 0 {
		id := order.ContactID
		purchasedBy = &id
	}

	for attempt := 0; attempt < maxAttempts; attempt++ {
		code, err := GenerateCode(charset, format)
		if err != nil {
			return nil, err
		}
		if _, err := p.certs.FindByCode(ctx, code); err == nil {
			continue
		} else if !errors.Is(err, repository.ErrNotFound) {
			return nil, err
		}

		cert := &model.GiftCertificate{
			Code:          code,
			Valid:         true,
			StartBalance:  balance,
			PurchasedByID: purchasedBy,
			OrderID:       &orderID,
		}
		if err := p.certs.Create(ctx, cert); err != nil {
			return nil, fmt.Errorf("create gift certificate: %w", err)
		}
		return cert, nil
	}
	return nil, fmt.Errorf("no unused gift certificate code after %d attempts", maxAttempts)
}

// OnOrderSuccess issues certificates for a paid order.
func (p *Processor) OnOrderSuccess(ctx context.Context, ev hooks.OrderSuccess) error {
	issued, err := p.Issue(ctx, ev.Order)
	if err != nil {
		return err
	}
	l, _ := p.Logger(ctx)
	for _, cert := range issued {
		l.Info("gift certificate issued", zap.Uint("order_id", ev.Order.ID), zap.Uint("certificate_id", cert.ID))
	}
	return nil
}
