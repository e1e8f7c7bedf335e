package model

import (
	"strings"
	"time"
)

type ContactRole string

const (
	RoleCustomer    ContactRole = "Customer"
	RoleStaff       ContactRole = "Staff"
	RoleDistributor ContactRole = "Distributor"
)

// Address is embedded in address book entries and orders.
type Address struct {
	Addressee  string `gorm:"size:120" json:"addressee"`
	Street1    string `gorm:"size:200" json:"street1"`
	Street2    string `gorm:"size:200" json:"street2,omitempty"`
	City       string `gorm:"size:80" json:"city"`
	State      string `gorm:"size:50" json:"state"`
	PostalCode string `gorm:"size:30" json:"postal_code"`
	Country    string `gorm:"size:2" json:"country"`
}

func (a Address) IsZero() bool {
	return a == Address{}
}

type Contact struct {
	ID           uint          `gorm:"primaryKey" json:"id"`
	FirstName    string        `gorm:"size:80" json:"first_name"`
	LastName     string        `gorm:"size:80" json:"last_name"`
	Email        string        `gorm:"size:120;uniqueIndex;not null" json:"email"`
	Phone        string        `gorm:"size:30" json:"phone,omitempty"`
	Role         ContactRole   `gorm:"size:16;not null" json:"role"`
	PricingGroup string        `gorm:"size:64" json:"pricing_group,omitempty"`
	PasswordHash string        `json:"-"`
	Addresses    []AddressBook `json:"addresses,omitempty"`
	CreatedAt    time.Time     `json:"created_at"`
	UpdatedAt    time.Time     `json:"updated_at"`
}

func (c *Contact) FullName() string {
	return strings.TrimSpace(c.FirstName + " " + c.LastName)
}

func (c *Contact) IsStaff() bool {
	return c.Role == RoleStaff
}

type AddressBook struct {
	ID                uint    `gorm:"primaryKey" json:"id"`
	ContactID         uint    `gorm:"index;not null" json:"contact_id"`
	Description       string  `gorm:"size:40" json:"description"`
	Address           Address `gorm:"embedded" json:"address"`
	IsDefaultShipping bool    `json:"is_default_shipping"`
	IsDefaultBilling  bool    `json:"is_default_billing"`
}
