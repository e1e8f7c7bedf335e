package dto

import (
	"satchmo-store/internal/model"
	"satchmo-store/internal/payment"
	"satchmo-store/internal/shipping"
	"time"

	"github.com/shopspring/decimal"
)

type ErrorResponse struct {
	Code    string            `json:"code"`
	Message string            `json:"message"`
	Fields  map[string]string `json:"fields,omitempty"`
}

// -------- products --------

type ProductQuery struct {
	Q        string `query:"q"`
	Category string `query:"category"`
	Featured bool   `query:"featured"`
	Limit    int    `query:"limit" validate:"gte=0,lte=100"`
	Offset   int    `query:"offset" validate:"gte=0"`
}

type ProductSummary struct {
	ID           uint             `json:"id"`
	SKU          string           `json:"sku"`
	Slug         string           `json:"slug"`
	Name         string           `json:"name"`
	Featured     bool             `json:"featured"`
	Price        *decimal.Decimal `json:"price,omitempty"`
	PriceDisplay string           `json:"price_display,omitempty"`
}

type ProductPage struct {
	Items  []ProductSummary `json:"items"`
	Total  int64            `json:"total"`
	Limit  int              `json:"limit"`
	Offset int              `json:"offset"`
}

type ProductDetail struct {
	Product          *model.Product  `json:"product"`
	Quantity         int             `json:"quantity"`
	UnitPrice        decimal.Decimal `json:"unit_price"`
	UnitPriceDisplay string          `json:"unit_price_display"`
	InStock          bool            `json:"in_stock"`
	PriceBreaks      []PriceBreak    `json:"price_breaks,omitempty"`
}

// PriceBreak is the unit price from Quantity units upward.
type PriceBreak struct {
	Quantity     int             `json:"quantity"`
	Price        decimal.Decimal `json:"price"`
	PriceDisplay string          `json:"price_display"`
}

// -------- cart --------

type CartItemRequest struct {
	ProductID uint `json:"product_id" validate:"required"`
	Quantity  int  `json:"quantity" validate:"gte=1"`
}

type CartQuantityRequest struct {
	Quantity int `json:"quantity" validate:"gte=0"`
}

type CartLine struct {
	ProductID uint            `json:"product_id"`
	SKU       string          `json:"sku"`
	Name      string          `json:"name"`
	Quantity  int             `json:"quantity"`
	UnitPrice decimal.Decimal `json:"unit_price"`
	LinePrice decimal.Decimal `json:"line_price"`
}

type CartResponse struct {
	Key             string          `json:"key"`
	Items           []CartLine      `json:"items"`
	NumItems        int             `json:"num_items"`
	Subtotal        decimal.Decimal `json:"subtotal"`
	SubtotalDisplay string          `json:"subtotal_display"`
	Shippable       bool            `json:"shippable"`
}

// -------- checkout --------

type AddressRequest struct {
	Addressee  string `json:"addressee" validate:"max=120"`
	Street1    string `json:"street1" validate:"required,max=200"`
	Street2    string `json:"street2" validate:"max=200"`
	City       string `json:"city" validate:"required,max=80"`
	State      string `json:"state" validate:"max=50"`
	PostalCode string `json:"postal_code" validate:"max=30"`
	Country    string `json:"country" validate:"required,len=2"`
}

func (a *AddressRequest) Model() model.Address {
	if a == nil {
		return model.Address{}
	}
	return model.Address{
		Addressee:  a.Addressee,
		Street1:    a.Street1,
		Street2:    a.Street2,
		City:       a.City,
		State:      a.State,
		PostalCode: a.PostalCode,
		Country:    a.Country,
	}
}

type CheckoutRequest struct {
	CartKey        string              `json:"cart_key" validate:"required"`
	Email          string              `json:"email" validate:"omitempty,email"`
	FirstName      string              `json:"first_name" validate:"max=80"`
	LastName       string              `json:"last_name" validate:"max=80"`
	ShipAddress    *AddressRequest     `json:"ship_address" validate:"omitempty"`
	BillAddress    *AddressRequest     `json:"bill_address" validate:"omitempty"`
	ShippingMethod string              `json:"shipping_method"`
	DiscountCode   string              `json:"discount_code" validate:"max=20"`
	PaymentMethod  string              `json:"payment_method" validate:"required"`
	Payment        payment.PaymentData `json:"payment"`
	Notes          string              `json:"notes"`
}

// BalancePaymentRequest pays what is left on an order.
type BalancePaymentRequest struct {
	PaymentMethod string              `json:"payment_method" validate:"required"`
	Payment       payment.PaymentData `json:"payment"`
}

type CheckoutResponse struct {
	Order  *model.Order             `json:"order"`
	Result *payment.ProcessorResult `json:"result"`
}

type ShippingOptionsResponse struct {
	Options []shipping.Option `json:"options"`
}

type PaymentOptionsResponse struct {
	Options []payment.Option `json:"options"`
}

type DiscountCheckResponse struct {
	Code             string          `json:"code"`
	Valid            bool            `json:"valid"`
	Message          string          `json:"message,omitempty"`
	Discount         decimal.Decimal `json:"discount"`
	ShippingDiscount decimal.Decimal `json:"shipping_discount"`
}

type GiftCertificateBalance struct {
	Code           string          `json:"code"`
	Valid          bool            `json:"valid"`
	Balance        decimal.Decimal `json:"balance"`
	BalanceDisplay string          `json:"balance_display"`
}

// -------- orders (staff) --------

type OrderStatusRequest struct {
	Status model.OrderStatusCode `json:"status" validate:"required,oneof=New Blocked 'In Process' Billed Shipped Complete Cancelled"`
	Notes  string                `json:"notes"`
}

type PaymentReceivedRequest struct {
	Method        string `json:"method" validate:"required"`
	TransactionID string `json:"transaction_id" validate:"max=64"`
}

type PaymentActionResponse struct {
	Order   *model.Order               `json:"order"`
	Results []*payment.ProcessorResult `json:"results"`
}

// -------- accounts --------

type RegisterRequest struct {
	Email     string `json:"email" validate:"required,email"`
	Password  string `json:"password" validate:"required,min=8"`
	FirstName string `json:"first_name" validate:"max=80"`
	LastName  string `json:"last_name" validate:"max=80"`
	Phone     string `json:"phone" validate:"max=30"`
}

type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

type TokenResponse struct {
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expires_at"`
}

type AddressBookRequest struct {
	Description       string         `json:"description" validate:"max=40"`
	Address           AddressRequest `json:"address"`
	IsDefaultShipping bool           `json:"is_default_shipping"`
	IsDefaultBilling  bool           `json:"is_default_billing"`
}

// -------- store --------

type StoreInfo struct {
	Name          string `json:"name"`
	Email         string `json:"email"`
	Country       string `json:"country"`
	InCountryOnly bool   `json:"in_country_only"`
	Currency      string `json:"currency"`
}

// -------- settings --------

type SettingUpdateRequest struct {
	Value any `json:"value"`
}
