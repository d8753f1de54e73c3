package models

import "time"

const (
	VendorCategoryRestaurant = "restaurant"
	VendorCategoryRetail     = "retail"
	VendorCategoryService    = "service"
	VendorCategoryExperience = "experience"
)

var vendorCategories = map[string]bool{
	VendorCategoryRestaurant: true,
	VendorCategoryRetail:     true,
	VendorCategoryService:    true,
	VendorCategoryExperience: true,
}

func IsVendorCategory(c string) bool {
	return vendorCategories[c]
}

type Vendor struct {
	ID          string    `gorm:"type:varchar(36);primaryKey" json:"id"`
	OwnerUserID string    `gorm:"type:varchar(36);index" json:"ownerUserId"`
	Name        string    `gorm:"size:160" json:"name"`
	Slug        string    `gorm:"size:160;uniqueIndex" json:"slug"`
	Category    string    `gorm:"size:30;index" json:"category"`
	Description string    `gorm:"type:text" json:"description,omitempty"`
	LogoURL     string    `gorm:"size:512" json:"logoUrl,omitempty"`
	CoverURL    string    `gorm:"size:512" json:"coverUrl,omitempty"`
	Phone       string    `gorm:"size:40" json:"phone,omitempty"`
	Email       string    `gorm:"size:255" json:"email,omitempty"`
	Website     string    `gorm:"size:255" json:"website,omitempty"`
	Address     string    `gorm:"size:255" json:"address,omitempty"`
	City        string    `gorm:"size:120;index" json:"city,omitempty"`
	Latitude    float64   `json:"lat,omitempty"`
	Longitude   float64   `json:"lng,omitempty"`
	IsActive    bool      `gorm:"default:true" json:"isActive"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}
