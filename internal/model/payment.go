package model

import (
	"time"

	"github.com/shopspring/decimal"
)

type OrderPayment struct {
	ID            uint            `gorm:"primaryKey" json:"id"`
	OrderID       uint            `gorm:"index;not null" json:"order_id"`
	Method        string          `gorm:"size:32;not null" json:"method"`
	Amount        decimal.Decimal `gorm:"type:decimal(18,4)" json:"amount"`
	TransactionID string          `gorm:"size:64;index" json:"transaction_id,omitempty"`
	Details       string          `gorm:"size:255" json:"details,omitempty"`
	ReasonCode    string          `gorm:"size:255" json:"reason_code,omitempty"`
	TimeStamp     time.Time       `json:"time_stamp"`
}

// OrderAuthorization is money held at the gateway and not yet captured.
type OrderAuthorization struct {
	ID            uint            `gorm:"primaryKey" json:"id"`
	OrderID       uint            `gorm:"index;not null" json:"order_id"`
	Method        string          `gorm:"size:32;not null" json:"method"`
	Amount        decimal.Decimal `gorm:"type:decimal(18,4)" json:"amount"`
	TransactionID string          `gorm:"size:64;index" json:"transaction_id,omitempty"`
	Details       string          `gorm:"size:255" json:"details,omitempty"`
	ReasonCode    string          `gorm:"size:255" json:"reason_code,omitempty"`
	Complete      bool            `json:"complete"`
	CaptureID     *uint           `json:"capture_id,omitempty"`
	TimeStamp     time.Time       `json:"time_stamp"`
}

type OrderPendingPayment struct {
	ID           uint            `gorm:"primaryKey" json:"id"`
	OrderID      uint            `gorm:"index;not null" json:"order_id"`
	Method       string          `gorm:"size:32;not null" json:"method"`
	Amount       decimal.Decimal `gorm:"type:decimal(18,4)" json:"amount"`
	Reference    string          `gorm:"size:64" json:"reference,omitempty"`
	CapturePayID *uint           `json:"capture_payment_id,omitempty"`
	TimeStamp    time.Time       `json:"time_stamp"`
}

type PaymentFailure struct {
	ID            uint            `gorm:"primaryKey" json:"id"`
	OrderID       uint            `gorm:"index;not null" json:"order_id"`
	Method        string          `gorm:"size:32;not null" json:"method"`
	Amount        decimal.Decimal `gorm:"type:decimal(18,4)" json:"amount"`
	TransactionID string          `gorm:"size:64" json:"transaction_id,omitempty"`
	ReasonCode    string          `gorm:"size:255" json:"reason_code,omitempty"`
	Details       string          `gorm:"size:255" json:"details,omitempty"`
	TimeStamp     time.Time       `json:"time_stamp"`
}

// CreditCardDetail keeps the encrypted card number for recurring billing. The CCV is never stored.
type CreditCardDetail struct {
	ID             uint   `gorm:"primaryKey" json:"id"`
	OrderPaymentID uint   `gorm:"uniqueIndex;not null" json:"order_payment_id"`
	CardType       string `gorm:"size:16" json:"card_type"`
	EncryptedCC    []byte `json:"-"`
	Last4          string `gorm:"size:4" json:"last4"`
	ExpireMonth    int    `json:"expire_month"`
	ExpireYear     int    `json:"expire_year"`
}

// VaultedPaymentMethod is a gateway token for a contact's stored payment method.
type VaultedPaymentMethod struct {
	ID        uint   `gorm:"primaryKey"`
	ContactID uint   `gorm:"uniqueIndex:idx_vault_contact_method;not null"`
	Method    string `gorm:"size:32;uniqueIndex:idx_vault_contact_method;not null"`
	Token     string `gorm:"size:128;not null"`
	CreatedAt time.Time
	UpdatedAt time.Time
}

type WebhookEvent struct {
	ID          uint      `gorm:"primaryKey"`
	EventID     string    `gorm:"size:64;uniqueIndex;not null"`
	EventType   string    `gorm:"size:64;not null"`
	ProcessedAt time.Time `gorm:"not null"`
}
