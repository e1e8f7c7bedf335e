package model

import (
	"time"

	"github.com/shopspring/decimal"
)

type DiscountShipping string

const (
	DiscountShippingNone  DiscountShipping = "NONE"
	DiscountShippingFree  DiscountShipping = "FREE"
	DiscountShippingApply DiscountShipping = "APPLY"
)

type Discount struct {
	ID          uint             `gorm:"primaryKey" json:"id"`
	Code        string           `gorm:"size:20;uniqueIndex;not null" json:"code"`
	Description string           `gorm:"size:100" json:"description"`
	Active      bool             `json:"active"`
	Amount      decimal.Decimal  `gorm:"type:decimal(18,4)" json:"amount"`
	Percentage  decimal.Decimal  `gorm:"type:decimal(6,2)" json:"percentage"`
	Automatic   bool             `json:"automatic"`
	AllowedUses *int             `json:"allowed_uses,omitempty"`
	NumUses     int              `json:"num_uses"`
	MinOrder    decimal.Decimal  `gorm:"type:decimal(18,4)" json:"min_order"`
	StartDate   time.Time        `json:"start_date"`
	EndDate     time.Time        `json:"end_date"`
	Shipping    DiscountShipping `gorm:"size:8" json:"shipping"`
	// AllValid applies the discount to every product; otherwise only ValidProducts.
	AllValid      bool      `json:"all_valid"`
	ValidProducts []Product `gorm:"many2many:discount_products" json:"valid_products,omitempty"`
}

func (d *Discount) ValidFor(productID uint) bool {
	if d.AllValid {
		return true
	}
	for _, p := range d.ValidProducts {
		if p.ID == productID {
			return true
		}
	}
	return false
}

func (d *Discount) UsesRemaining() bool {
	return d.AllowedUses == nil || d.NumUses < *d.AllowedUses
}
