package payment

import (
	"context"
	"fmt"
	"satchmo-store/internal/model"
	"satchmo-store/internal/repository"
	"time"
	"unicode/utf8"
)

// Recorder persists processor results.
type Recorder struct {
	repos *repository.Repositories
	vault *CardVault
	now   func() time.Time
}

func NewRecorder(repos *repository.Repositories, vault *CardVault) *Recorder {
	return &Recorder{repos: repos, vault: vault, now: time.Now}
}

// Record stores the payment, authorization or pending payment of a successful
// result in one transaction, or a PaymentFailure otherwise. Recorded payments
// are appended to order.
func (r *Recorder) Record(ctx context.Context, order *model.Order, res *ProcessorResult) error {
	now := r.now()

	if !res.Success {
		failure := &model.PaymentFailure{
			OrderID:       order.ID,
			Method:        res.Processor,
			Amount:        res.Amount,
			TransactionID: res.TransactionID,
			ReasonCode:    res.ReasonCode,
			Details:       truncate(res.Message, 255),
			TimeStamp:     now,
		}
		if err := r.repos.Payments.CreateFailure(ctx, failure); err != nil {
			return fmt.Errorf("record payment failure: %w", err)
		}
		return nil
	}

	err := r.repos.Transaction(ctx, func(tx *repository.Repositories) error {
		if p := res.Payment; p != nil {
			p.TimeStamp = now
			if err := tx.Payments.CreatePayment(ctx, p); err != nil {
				return fmt.Errorf("record payment: %w", err)
			}
			if err := r.recordCard(ctx, tx.Payments, p, res.Card); err != nil {
				return err
			}
			if res.OnRecorded != nil {
				if err := res.OnRecorded(ctx, tx, p); err != nil {
					return err
				}
			}
		}

		if a := res.Authorization; a != nil {
			a.TimeStamp = now
			if err := tx.Payments.CreateAuthorization(ctx, a); err != nil {
				return fmt.Errorf("record authorization: %w", err)
			}
		}

		if pending := res.Pending; pending != nil {
			pending.TimeStamp = now
			if err := tx.Payments.CreatePending(ctx, pending); err != nil {
				return fmt.Errorf("record pending payment: %w", err)
			}
		}
		return nil
	})
	if err != nil {
		return err
	}

	if res.Payment != nil {
		order.Payments = append(order.Payments, *res.Payment)
	}
	if res.Pending != nil {
		order.Pending = append(order.Pending, *res.Pending)
	}
	return nil
}

// recordCard stores the card used for a captured payment, encrypted.
func (r *Recorder) recordCard(ctx context.Context, payments repository.PaymentRepository, p *model.OrderPayment, card *CreditCard) error {
	if card == nil || r.vault == nil {
		return nil
	}
	box, err := r.vault.Encrypt(card.Digits())
	if err != nil {
		return err
	}
	err = payments.CreateCardDetail(ctx, &model.CreditCardDetail{
		OrderPaymentID: p.ID,
		CardType:       card.Type(),
		EncryptedCC:    box,
		Last4:          card.Last4(),
		ExpireMonth:    card.ExpireMonth,
		ExpireYear:     card.ExpireYear,
	})
	if err != nil {
		return fmt.Errorf("record card detail: %w", err)
	}
	return nil
}

// StoredCard decrypts the card used for the latest payment of order, for recurring billing.
func (r *Recorder) StoredCard(ctx context.Context, orderID uint) (*CreditCard, error) {
	p, err := r.repos.Payments.LatestPayment(ctx, orderID)
	if err != nil {
		return nil, fmt.Errorf("latest payment of order %d: %w", orderID, err)
	}
	detail, err := r.repos.Payments.CardDetail(ctx, p.ID)
	if err != nil {
		return nil, fmt.Errorf("card detail of payment %d: %w", p.ID, err)
	}
	if r.vault == nil {
		return nil, ErrCardDecrypt
	}
	number, err := r.vault.Decrypt(detail.EncryptedCC)
	if err != nil {
		return nil, err
	}
	return &CreditCard{Number: number, ExpireMonth: detail.ExpireMonth, ExpireYear: detail.ExpireYear}, nil
}

// truncate cuts s to at most n bytes without splitting a rune.
func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	for n > 0 && !utf8.RuneStart(s[n]) {
		n--
	}
	return s[:n]
}
