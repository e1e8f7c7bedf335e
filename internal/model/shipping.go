package model

import (
	"time"

	"github.com/shopspring/decimal"
)

type ShippingBasis string

const (
	BasisTotal  ShippingBasis = "total"
	BasisWeight ShippingBasis = "weight"
)

type Carrier struct {
	ID          uint           `gorm:"primaryKey" json:"id"`
	Key         string         `gorm:"column:carrier_key;size:64;uniqueIndex;not null" json:"key"`
	Name        string         `gorm:"size:64;not null" json:"name"`
	Description string         `json:"description"`
	Method      string         `gorm:"size:200" json:"method"`
	Delivery    string         `gorm:"size:200" json:"delivery"`
	Basis       ShippingBasis  `gorm:"size:8;not null" json:"basis"`
	Active      bool           `json:"active"`
	Tiers       []ShippingTier `json:"tiers,omitempty"`
}

type ShippingTier struct {
	ID        uint            `gorm:"primaryKey" json:"id"`
	CarrierID uint            `gorm:"index;not null" json:"carrier_id"`
	Min       decimal.Decimal `gorm:"type:decimal(18,4)" json:"min"`
	Price     decimal.Decimal `gorm:"type:decimal(18,4)" json:"price"`
	Expires   *time.Time      `json:"expires,omitempty"`
}
