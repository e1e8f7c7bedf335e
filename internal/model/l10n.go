package model

type Country struct {
	ISO2   string      `gorm:"primaryKey;size:2" json:"iso2"`
	Name   string      `gorm:"size:128;not null" json:"name"`
	Active bool        `json:"active"`
	Areas  []AdminArea `gorm:"foreignKey:Country;references:ISO2" json:"areas,omitempty"`
}

type AdminArea struct {
	ID      uint   `gorm:"primaryKey" json:"id"`
	Country string `gorm:"size:2;index;not null" json:"country"`
	Abbrev  string `gorm:"size:10" json:"abbrev"`
	Name    string `gorm:"size:60;not null" json:"name"`
}
