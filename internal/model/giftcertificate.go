package model

import (
	"time"

	"github.com/shopspring/decimal"
)

type GiftCertificate struct {
	ID             uint                   `gorm:"primaryKey" json:"id"`
	Code           string                 `gorm:"size:32;uniqueIndex;not null" json:"code"`
	Valid          bool                   `json:"valid"`
	StartBalance   decimal.Decimal        `gorm:"type:decimal(18,4)" json:"start_balance"`
	PurchasedByID  *uint                  `gorm:"index" json:"purchased_by_id,omitempty"`
	OrderID        *uint                  `gorm:"index" json:"order_id,omitempty"`
	RecipientEmail string                 `gorm:"size:120" json:"recipient_email,omitempty"`
	Message        string                 `gorm:"size:255" json:"message,omitempty"`
	Usages         []GiftCertificateUsage `json:"usages,omitempty"`
	CreatedAt      time.Time              `json:"created_at"`
}

func (g *GiftCertificate) Balance() decimal.Decimal {
	used := decimal.Zero
	for _, u := range g.Usages {
		used = used.Add(u.BalanceUsed)
	}
	return g.StartBalance.Sub(used)
}

type GiftCertificateUsage struct {
	ID                uint            `gorm:"primaryKey" json:"id"`
	GiftCertificateID uint            `gorm:"index;not null" json:"gift_certificate_id"`
	BalanceUsed       decimal.Decimal `gorm:"type:decimal(18,4)" json:"balance_used"`
	OrderPaymentID    *uint           `json:"order_payment_id,omitempty"`
	UsedByID          *uint           `json:"used_by_id,omitempty"`
	Notes             string          `json:"notes,omitempty"`
	UsageDate         time.Time       `json:"usage_date"`
}
