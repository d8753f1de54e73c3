package models

import "time"

const (
	RoleConsumer = "consumer"
	RoleVendor   = "vendor"
	RoleAdmin    = "admin"
)

type User struct {
	ID                   string     `gorm:"type:varchar(36);primaryKey" json:"id"`
	Name                 string     `gorm:"size:120" json:"name,omitempty"`
	Email                string     `gorm:"size:255;uniqueIndex" json:"email"`
	Password             string     `gorm:"size:255" json:"-"`
	Role                 string     `gorm:"size:20;default:consumer" json:"role"`
	Provider             string     `gorm:"size:30;default:local" json:"provider,omitempty"`
	ProviderID           string     `gorm:"size:255" json:"-"`
	VendorID             *string    `gorm:"type:varchar(36);index" json:"vendorId,omitempty"`
	IsPassMember         bool       `json:"isPassMember"`
	PassExpiresAt        *time.Time `json:"passExpiresAt,omitempty"`
	Tier                 string     `gorm:"size:20" json:"-"` // legacy: "free", "pass", "premium", "member"
	StripeCustomerID     string     `gorm:"size:80;index" json:"-"`
	StripeSubscriptionID string     `gorm:"size:80" json:"-"`
	CreatedAt            time.Time  `json:"createdAt"`
	UpdatedAt            time.Time  `json:"updatedAt"`
}

// IsVendorStaff reports whether the user acts on behalf of vendorID.
func (u *User) IsVendorStaff(vendorID string) bool {
	if u.Role == RoleAdmin {
		return true
	}
	return u.VendorID != nil && *u.VendorID == vendorID
}
