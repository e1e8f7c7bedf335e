package model

import (
	"time"

	"github.com/shopspring/decimal"
)

type OrderStatusCode string

const (
	StatusTemp      OrderStatusCode = "Temp"
	StatusNew       OrderStatusCode = "New"
	StatusBlocked   OrderStatusCode = "Blocked"
	StatusInProcess OrderStatusCode = "In Process"
	StatusBilled    OrderStatusCode = "Billed"
	StatusShipped   OrderStatusCode = "Shipped"
	StatusComplete  OrderStatusCode = "Complete"
	StatusCancelled OrderStatusCode = "Cancelled"
)

type OrderMethod string

const (
	MethodOnline OrderMethod = "Online"
	MethodEmail  OrderMethod = "Email"
	MethodPhone  OrderMethod = "Phone"
)

type Order struct {
	ID        uint            `gorm:"primaryKey" json:"id"`
	ContactID uint            `gorm:"index;not null" json:"contact_id"`
	Status    OrderStatusCode `gorm:"size:20;index;not null" json:"status"`
	Method    OrderMethod     `gorm:"size:20;not null" json:"method"`

	ShipAddress Address `gorm:"embedded;embeddedPrefix:ship_" json:"ship_address"`
	BillAddress Address `gorm:"embedded;embeddedPrefix:bill_" json:"bill_address"`
	Notes       string  `json:"notes,omitempty"`

	Subtotal         decimal.Decimal `gorm:"type:decimal(18,4)" json:"subtotal"`
	Discount         decimal.Decimal `gorm:"type:decimal(18,4)" json:"discount"`
	DiscountCode     string          `gorm:"size:20" json:"discount_code,omitempty"`
	Shipping         decimal.Decimal `gorm:"type:decimal(18,4)" json:"shipping"`
	ShippingDiscount decimal.Decimal `gorm:"type:decimal(18,4)" json:"shipping_discount"`
	Tax              decimal.Decimal `gorm:"type:decimal(18,4)" json:"tax"`
	Total            decimal.Decimal `gorm:"type:decimal(18,4)" json:"total"`

	ShippingModel       string `gorm:"size:64" json:"shipping_model,omitempty"`
	ShippingDescription string `gorm:"size:200" json:"shipping_description,omitempty"`
	ShippingMethod      string `gorm:"size:200" json:"shipping_method,omitempty"`
	PaymentMethod       string `gorm:"size:32" json:"payment_method,omitempty"`

	// PaidAt is set once, when the order is first paid in full.
	PaidAt    *time.Time `json:"paid_at,omitempty"`
	TimeStamp time.Time  `json:"time_stamp"`

	Items         []OrderItem           `json:"items"`
	StatusHistory []OrderStatus         `json:"status_history,omitempty"`
	Payments      []OrderPayment        `json:"payments,omitempty"`
	Pending       []OrderPendingPayment `json:"pending_payments,omitempty"`
	TaxDetails    []OrderTaxDetail      `json:"tax_details,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (o *Order) PaymentsTotal() decimal.Decimal {
	total := decimal.Zero
	for _, p := range o.Payments {
		total = total.Add(p.Amount)
	}
	return total
}

func (o *Order) Balance() decimal.Decimal {
	return o.Total.Sub(o.PaymentsTotal())
}

func (o *Order) PaidInFull() bool {
	return !o.Balance().IsPositive()
}

func (o *Order) IsShippable() bool {
	for _, item := range o.Items {
		if item.Product.Shippable {
			return true
		}
	}
	return false
}

// ItemsTotal is the discounted value of the goods on the order.
func (o *Order) ItemsTotal() decimal.Decimal {
	total := decimal.Zero
	for _, item := range o.Items {
		total = total.Add(item.LinePrice.Sub(item.Discount))
	}
	return total
}

type OrderItem struct {
	ID         uint            `gorm:"primaryKey" json:"id"`
	OrderID    uint            `gorm:"index;not null" json:"order_id"`
	ProductID  uint            `gorm:"index;not null" json:"product_id"`
	Product    Product         `json:"product"`
	Quantity   int             `gorm:"not null" json:"quantity"`
	UnitPrice  decimal.Decimal `gorm:"type:decimal(18,4)" json:"unit_price"`
	UnitTax    decimal.Decimal `gorm:"type:decimal(18,4)" json:"unit_tax"`
	LinePrice  decimal.Decimal `gorm:"type:decimal(18,4)" json:"line_price"`
	LineTax    decimal.Decimal `gorm:"type:decimal(18,4)" json:"line_tax"`
	Discount   decimal.Decimal `gorm:"type:decimal(18,4)" json:"discount"`
	ExpireDate *time.Time      `gorm:"index" json:"expire_date,omitempty"`
	Completed  bool            `json:"completed"`
}

type OrderStatus struct {
	ID        uint            `gorm:"primaryKey" json:"id"`
	OrderID   uint            `gorm:"index;not null" json:"order_id"`
	Status    OrderStatusCode `gorm:"size:20;not null" json:"status"`
	Notes     string          `json:"notes,omitempty"`
	TimeStamp time.Time       `json:"time_stamp"`
}

type OrderTaxDetail struct {
	ID          uint            `gorm:"primaryKey" json:"id"`
	OrderID     uint            `gorm:"index;not null" json:"order_id"`
	Method      string          `gorm:"size:32" json:"method"`
	Description string          `gorm:"size:100" json:"description"`
	Tax         decimal.Decimal `gorm:"type:decimal(18,4)" json:"tax"`
}
