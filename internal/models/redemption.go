package models

import "time"

const (
	RedemptionStatusRedeemed = "redeemed"
	RedemptionStatusVoided   = "voided"
)

const (
	RedemptionSourceWeb          = "web"
	RedemptionSourceVendorVerify = "vendor_verify"
)

type Redemption struct {
	ID           string     `gorm:"type:varchar(36);primaryKey" json:"id"`
	UserID       string     `gorm:"type:varchar(36);index:idx_redemption_user_deal,priority:1" json:"userId"`
	DealID       string     `gorm:"type:varchar(36);index:idx_redemption_user_deal,priority:2" json:"dealId"`
	Deal         *Deal      `gorm:"foreignKey:DealID" json:"deal,omitempty"`
	VendorID     string     `gorm:"type:varchar(36);index" json:"vendorId"`
	CouponCodeID *string    `gorm:"type:varchar(36)" json:"couponCodeId,omitempty"`
	Source       string     `gorm:"size:20" json:"source"`
	Status       string     `gorm:"size:20;index" json:"status"`
	RedeemedAt   time.Time  `gorm:"index" json:"redeemedAt"`
	UndoneAt     *time.Time `json:"undoneAt,omitempty"`
	VerifiedAt   *time.Time `json:"verifiedAt,omitempty"`
	CreatedAt    time.Time  `json:"createdAt"`
	UpdatedAt    time.Time  `json:"updatedAt"`
}

func (r *Redemption) Counts() bool {
	return r.Status == RedemptionStatusRedeemed
}
