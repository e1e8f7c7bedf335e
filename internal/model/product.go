package model

import (
	"time"

	"github.com/shopspring/decimal"
)

type ProductKind string

const (
	ProductKindDefault         ProductKind = "DEFAULT"
	ProductKindSubscription    ProductKind = "SUBSCRIPTION"
	ProductKindGiftCertificate ProductKind = "GIFT_CERTIFICATE"
)

type ExpireUnit string

const (
	ExpireUnitDay   ExpireUnit = "DAY"
	ExpireUnitMonth ExpireUnit = "MONTH"
)

type Category struct {
	ID       uint   `gorm:"primaryKey" json:"id"`
	Slug     string `gorm:"size:80;uniqueIndex;not null" json:"slug"`
	Name     string `gorm:"size:200;not null" json:"name"`
	ParentID *uint  `gorm:"index" json:"parent_id,omitempty"`
	Ordering int    `json:"ordering"`
}

type Product struct {
	ID           uint            `gorm:"primaryKey" json:"id"`
	SKU          string          `gorm:"size:64;uniqueIndex;not null" json:"sku"`
	Slug         string          `gorm:"size:80;uniqueIndex;not null" json:"slug"`
	Name         string          `gorm:"size:200;not null" json:"name"`
	Description  string          `json:"description"`
	CategoryID   *uint           `gorm:"index" json:"category_id,omitempty"`
	Kind         ProductKind     `gorm:"size:32;not null" json:"kind"`
	Active       bool            `gorm:"index;not null" json:"active"`
	Featured     bool            `json:"featured"`
	Taxable      bool            `json:"taxable"`
	TaxClass     string          `gorm:"size:64" json:"tax_class,omitempty"`
	Shippable    bool            `json:"shippable"`
	Weight       decimal.Decimal `gorm:"type:decimal(12,4)" json:"weight"`
	ItemsInStock int             `json:"items_in_stock"`
	TotalSold    int             `json:"total_sold"`

	// subscription products
	ExpireLength int        `json:"expire_length,omitempty"`
	ExpireUnit   ExpireUnit `gorm:"size:8" json:"expire_unit,omitempty"`
	Recurring    bool       `json:"recurring,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// ExtendExpiry moves t forward by one subscription period.
func (p *Product) ExtendExpiry(t time.Time) time.Time {
	switch p.ExpireUnit {
	case ExpireUnitMonth:
		return t.AddDate(0, p.ExpireLength, 0)
	default:
		return t.AddDate(0, 0, p.ExpireLength)
	}
}

// Price is one row of a product's quantity-break price list.
type Price struct {
	ID        uint            `gorm:"primaryKey" json:"id"`
	ProductID uint            `gorm:"index;not null" json:"product_id"`
	Price     decimal.Decimal `gorm:"type:decimal(18,4);not null" json:"price"`
	Quantity  int             `gorm:"not null" json:"quantity"`
	Expires   *time.Time      `json:"expires,omitempty"`
}

func (p Price) ExpiredAt(now time.Time) bool {
	return p.Expires != nil && p.Expires.Before(now)
}

// PricingTier grants members of a contact pricing group their own prices.
type PricingTier struct {
	ID              uint            `gorm:"primaryKey" json:"id"`
	Name            string          `gorm:"size:64;not null" json:"name"`
	Group           string          `gorm:"column:pricing_group;size:64;index;not null" json:"group"`
	DiscountPercent decimal.Decimal `gorm:"type:decimal(6,2)" json:"discount_percent"`
}

type TieredPrice struct {
	ID            uint            `gorm:"primaryKey" json:"id"`
	PricingTierID uint            `gorm:"index;not null" json:"pricing_tier_id"`
	ProductID     uint            `gorm:"index;not null" json:"product_id"`
	Quantity      int             `gorm:"not null" json:"quantity"`
	Price         decimal.Decimal `gorm:"type:decimal(18,4);not null" json:"price"`
	Expires       *time.Time      `json:"expires,omitempty"`
}

func (p TieredPrice) ExpiredAt(now time.Time) bool {
	return p.Expires != nil && p.Expires.Before(now)
}

// ProductPriceLookup is the denormalised price table rebuilt by the rebuild-pricing command.
type ProductPriceLookup struct {
	ID            uint            `gorm:"primaryKey"`
	ProductID     uint            `gorm:"index;not null"`
	PricingTierID *uint           `gorm:"index"`
	Quantity      int             `gorm:"not null"`
	Price         decimal.Decimal `gorm:"type:decimal(18,4);not null"`
	Expires       *time.Time
	CreatedAt     time.Time
}
