package models

import "time"

type Product struct {
	ID          string    `gorm:"type:varchar(36);primaryKey" json:"id"`
	VendorID    string    `gorm:"type:varchar(36);index" json:"vendorId"`
	Name        string    `gorm:"size:200" json:"name"`
	Description string    `gorm:"type:text" json:"description,omitempty"`
	PriceCents  int64     `json:"priceCents"`
	Stock       int       `json:"stock"`
	ImageURL    string    `gorm:"size:512" json:"imageUrl,omitempty"`
	IsActive    bool      `gorm:"default:true" json:"isActive"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

type Event struct {
	ID               string    `gorm:"type:varchar(36);primaryKey" json:"id"`
	VendorID         string    `gorm:"type:varchar(36);index" json:"vendorId"`
	Vendor           *Vendor   `gorm:"foreignKey:VendorID" json:"vendor,omitempty"`
	Title            string    `gorm:"size:200" json:"title"`
	Description      string    `gorm:"type:text" json:"description,omitempty"`
	Venue            string    `gorm:"size:200" json:"venue,omitempty"`
	ImageURL         string    `gorm:"size:512" json:"imageUrl,omitempty"`
	TicketPriceCents int64     `json:"ticketPriceCents"`
	StartsAt         time.Time `gorm:"index" json:"startsAt"`
	EndsAt           time.Time `json:"endsAt"`
	CreatedAt        time.Time `json:"createdAt"`
	UpdatedAt        time.Time `json:"updatedAt"`
}
