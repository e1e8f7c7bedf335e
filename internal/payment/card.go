package payment

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"
	"unicode"

	"golang.org/x/crypto/nacl/secretbox"
)

var ErrCardDecrypt = errors.New("decrypt card number")

const (
	CardVisa       = "Visa"
	CardMastercard = "Mastercard"
	CardAmex       = "American Express"
	CardDiscover   = "Discover"
)

type CreditCard struct {
	Number      string `json:"number" validate:"required"`
	CCV         string `json:"ccv,omitempty"`
	ExpireMonth int    `json:"expire_month" validate:"required,min=1,max=12"`
	ExpireYear  int    `json:"expire_year" validate:"required"`
}

// Digits is the number with spaces and dashes removed.
func (c *CreditCard) Digits() string {
	return strings.Map(func(r rune) rune {
		if unicode.IsDigit(r) {
			return r
		}
		return -1
	}, c.Number)
}

func (c *CreditCard) Last4() string {
	d := c.Digits()
	if len(d) < 4 {
		return d
	}
	return d[len(d)-4:]
}

// Type guesses the issuer from the number prefix.
func (c *CreditCard) Type() string {
	d := c.Digits()
	switch {
	case strings.HasPrefix(d, "4"):
		return CardVisa
	case strings.HasPrefix(d, "34"), strings.HasPrefix(d, "37"):
		return CardAmex
	case strings.HasPrefix(d, "6011"), strings.HasPrefix(d, "65"):
		return CardDiscover
	case len(d) >= 2 && d[0] == '5' && d[1] >= '1' && d[1] <= '5':
		return CardMastercard
	case len(d) >= 4 && d[:4] >= "2221" && d[:4] <= "2720":
		return CardMastercard
	}
	return ""
}

// ExpDate renders the expiry as MMYY.
func (c *CreditCard) ExpDate() string {
	return fmt.Sprintf("%02d%02d", c.ExpireMonth, c.ExpireYear%100)
}

// Validate checks the number checksum and that the card has not expired at now.
func (c *CreditCard) Validate(now time.Time) error {
	d := c.Digits()
	if len(d) < 12 || len(d) > 19 {
		return fmt.Errorf("%w: card number length", ErrInvalidPaymentData)
	}
	if !luhn(d) {
		return fmt.Errorf("%w: card number checksum", ErrInvalidPaymentData)
	}
	if c.ExpireMonth < 1 || c.ExpireMonth > 12 {
		return fmt.Errorf("%w: expiration month", ErrInvalidPaymentData)
	}
	// valid through the last day of the expiry month
	expires := time.Date(c.ExpireYear, time.Month(c.ExpireMonth)+1, 1, 0, 0, 0, 0, time.UTC)
	if !now.Before(expires) {
		return fmt.Errorf("%w: card expired", ErrInvalidPaymentData)
	}
	return nil
}

func luhn(digits string) bool {
	sum := 0
	double := false
	for i := len(digits) - 1; i >= 0; i-- {
		n := int(digits[i] - '0')
		if double {
			n *= 2
			if n > 9 {
				n -= 9
			}
		}
		sum += n
		double = !double
	}
	return sum%10 == 0
}

// CardVault encrypts card numbers at rest with secretbox. The nonce is prepended to the box.
type CardVault struct {
	key [32]byte
}

func NewCardVault(key [32]byte) *CardVault {
	return &CardVault{key: key}
}

func (v *CardVault) Encrypt(number string) ([]byte, error) {
	var nonce [24]byte
	if _, err := io.ReadFull(rand.Reader, nonce[:]); err != nil {
		return nil, fmt.Errorf("generate nonce: %w", err)
	}
	return secretbox.Seal(nonce[:], []byte(number), &nonce, &v.key), nil
}

func (v *CardVault) Decrypt(box []byte) (string, error) {
	if len(box) < 24+secretbox.Overhead {
		return "", ErrCardDecrypt
	}
	var nonce [24]byte
	copy(nonce[:], box[:24])
	out, ok := secretbox.Open(nil, box[24:], &nonce, &v.key)
	if !ok {
		return "", ErrCardDecrypt
	}
	return string(out), nil
}

// ValidateCard checks the card in data. The security code is required by
// PAYMENT.CCV_REQUIRED except for recurring charges, where it is never stored.
func (b Base) ValidateCard(ctx context.Context, data PaymentData, now time.Time) error {
	if data.Card == nil {
		return fmt.Errorf("%w: card required", ErrInvalidPaymentData)
	}
	if err := data.Card.Validate(now); err != nil {
		return err
	}
	if data.Recurring {
		return nil
	}
	required, err := b.Settings.Bool(ctx, Group, "CCV_REQUIRED")
	if err != nil {
		return err
	}
	if required && strings.TrimSpace(data.Card.CCV) == "" {
		return fmt.Errorf("%w: security code required", ErrInvalidPaymentData)
	}
	return nil
}
