package models

import "time"

const (
	CodeStateUnissued = "unissued"
	CodeStateIssued   = "issued"
	CodeStateRedeemed = "redeemed"
	CodeStateExpired  = "expired"
)

// CouponCode is one entry of a deal's UNIQUE code pool. Consumed flips to
// true exactly once, when the code is handed to a user.
type CouponCode struct {
	ID             string     `gorm:"type:varchar(36);primaryKey" json:"id"`
	DealID         string     `gorm:"type:varchar(36);uniqueIndex:idx_coupon_deal_code;index:idx_coupon_pool,priority:1" json:"dealId"`
	Code           string     `gorm:"size:32;uniqueIndex:idx_coupon_deal_code" json:"code"`
	Consumed       bool       `gorm:"index:idx_coupon_pool,priority:2" json:"consumed"`
	IssuedToUserID *string    `gorm:"type:varchar(36);index" json:"issuedToUserId,omitempty"`
	IssuedAt       *time.Time `json:"issuedAt,omitempty"`
	ExpiresAt      *time.Time `json:"expiresAt,omitempty"`
	RedeemedAt     *time.Time `json:"redeemedAt,omitempty"`
	RedemptionID   *string    `gorm:"type:varchar(36)" json:"redemptionId,omitempty"`
	CreatedAt      time.Time  `json:"createdAt"`
}

// State follows unissued -> issued -> redeemed | expired. An issued code
// whose expiry equals now is already expired.
func (c *CouponCode) State(now time.Time) string {
	switch {
	case !c.Consumed:
		return CodeStateUnissued
	case c.RedeemedAt != nil:
		return CodeStateRedeemed
	case c.ExpiresAt != nil && !now.Before(*c.ExpiresAt):
		return CodeStateExpired
	default:
		return CodeStateIssued
	}
}
