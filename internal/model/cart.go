package model

import "time"

type Cart struct {
	ID        uint       `gorm:"primaryKey" json:"id"`
	Key       string     `gorm:"column:cart_key;size:64;uniqueIndex;not null" json:"key"`
	ContactID *uint      `gorm:"index" json:"contact_id,omitempty"`
	Items     []CartItem `json:"items"`
	CreatedAt time.Time  `json:"created_at"`
	UpdatedAt time.Time  `json:"updated_at"`
}

func (c *Cart) NumItems() int {
	n := 0
	for _, item := range c.Items {
		n += item.Quantity
	}
	return n
}

func (c *Cart) IsEmpty() bool {
	return c.NumItems() == 0
}

func (c *Cart) IsShippable() bool {
	for _, item := range c.Items {
		if item.Product.Shippable {
			return true
		}
	}
	return false
}

type CartItem struct {
	ID        uint    `gorm:"primaryKey" json:"id"`
	CartID    uint    `gorm:"index;not null" json:"cart_id"`
	ProductID uint    `gorm:"index;not null" json:"product_id"`
	Product   Product `json:"product"`
	Quantity  int     `gorm:"not null" json:"quantity"`
}
