package model

import "github.com/shopspring/decimal"

// TaxClassShipping is the tax class applied to shipping charges.
const TaxClassShipping = "Shipping"

type TaxClass struct {
	ID          uint   `gorm:"primaryKey" json:"id"`
	Title       string `gorm:"size:64;uniqueIndex;not null" json:"title"`
	Description string `json:"description"`
}

// TaxRate applies to a whole country when AdminArea is empty.
type TaxRate struct {
	ID         uint            `gorm:"primaryKey" json:"id"`
	TaxClass   string          `gorm:"size:64;index;not null" json:"tax_class"`
	Country    string          `gorm:"size:2;index;not null" json:"country"`
	AdminArea  string          `gorm:"size:10" json:"admin_area,omitempty"`
	Percentage decimal.Decimal `gorm:"type:decimal(7,4)" json:"percentage"`
}
