package models

import "time"

const (
	OrderStatusPending   = "pending"
	OrderStatusPaid      = "paid"
	OrderStatusCancelled = "cancelled"
)

type Order struct {
	ID              string      `gorm:"type:varchar(36);primaryKey" json:"id"`
	UserID          string      `gorm:"type:varchar(36);index" json:"userId"`
	Items           []OrderItem `gorm:"foreignKey:OrderID" json:"items"`
	SubtotalCents   int64       `json:"subtotalCents"`
	TaxCents        int64       `json:"taxCents"`
	TotalCents      int64       `json:"totalCents"`
	Currency        string      `gorm:"size:3;default:usd" json:"currency"`
	Status          string      `gorm:"size:20;index" json:"status"`
	StripeSessionID string      `gorm:"size:255;index" json:"-"`
	PaidAt          *time.Time  `json:"paidAt,omitempty"`
	CreatedAt       time.Time   `json:"createdAt"`
	UpdatedAt       time.Time   `json:"updatedAt"`
}

type OrderItem struct {
	ID             string `gorm:"type:varchar(36);primaryKey" json:"id"`
	OrderID        string `gorm:"type:varchar(36);index" json:"orderId"`
	ProductID      string `gorm:"type:varchar(36)" json:"productId"`
	VendorID       string `gorm:"type:varchar(36)" json:"vendorId"`
	Name           string `gorm:"size:200" json:"name"`
	UnitPriceCents int64  `json:"unitPriceCents"`
	Quantity       int    `json:"quantity"`
}
