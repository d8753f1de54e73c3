package models

import "time"

const (
	DealStatusDraft     = "draft"
	DealStatusPublished = "published"
	DealStatusPaused    = "paused"
	DealStatusExpired   = "expired"
)

const (
	FrequencyOnce      = "once"
	FrequencyWeekly    = "weekly"
	FrequencyMonthly   = "monthly"
	FrequencyUnlimited = "unlimited"
	FrequencyCustom    = "custom"
)

const (
	CodeTypeStatic = "STATIC"
	CodeTypeUnique = "UNIQUE"
	CodeTypeNone   = "NONE"
)

const (
	DealTypeBOGO    = "bogo"
	DealTypePercent = "percent"
	DealTypeAddon   = "addon"
)

type Deal struct {
	ID                    string     `gorm:"type:varchar(36);primaryKey" json:"id"`
	VendorID              string     `gorm:"type:varchar(36);index" json:"vendorId"`
	Vendor                *Vendor    `gorm:"foreignKey:VendorID" json:"vendor,omitempty"`
	Title                 string     `gorm:"size:200" json:"title"`
	Description           string     `gorm:"type:text" json:"description,omitempty"`
	FinePrint             string     `gorm:"type:text" json:"finePrint,omitempty"`
	Category              string     `gorm:"size:30;index" json:"category,omitempty"`
	ImageURL              string     `gorm:"size:512" json:"imageUrl,omitempty"`
	DealType              string     `gorm:"size:20" json:"dealType"` // "bogo", "percent", "addon"
	DiscountValue         float64    `json:"discountValue,omitempty"`
	AddonItem             string     `gorm:"size:160" json:"addonItem,omitempty"`
	IsPassLocked          bool       `json:"isPassLocked"`
	Tier                  string     `gorm:"size:20" json:"-"` // legacy gate, see membership.DealRequiresPass
	RedemptionFrequency   string     `gorm:"size:20;default:once" json:"redemptionFrequency"`
	CustomDays            int        `json:"customDays,omitempty"`
	MaxRedemptionsPerUser int        `json:"maxRedemptionsPerUser"`
	CodeType              string     `gorm:"size:10;default:NONE" json:"codeType"`
	StaticCode            string     `gorm:"size:64" json:"-"`
	Status                string     `gorm:"size:20;index;default:draft" json:"status"`
	StartsAt              *time.Time `json:"startsAt,omitempty"`
	EndsAt                *time.Time `json:"endsAt,omitempty"`
	CreatedAt             time.Time  `json:"createdAt"`
	UpdatedAt             time.Time  `json:"updatedAt"`
}

// HasExpired is true once now reaches EndsAt or the deal is marked expired.
func (d *Deal) HasExpired(now time.Time) bool {
	if d.Status == DealStatusExpired {
		return true
	}
	return d.EndsAt != nil && !now.Before(*d.EndsAt)
}

func (d *Deal) HasStarted(now time.Time) bool {
	return d.StartsAt == nil || !now.Before(*d.StartsAt)
}

var dealTransitions = map[string][]string{
	DealStatusDraft:     {DealStatusPublished, DealStatusExpired},
	DealStatusPublished: {DealStatusPaused, DealStatusExpired},
	DealStatusPaused:    {DealStatusPublished, DealStatusExpired},
}

// CanTransition reports whether a deal may move from one status to another.
// Expired is terminal.
func CanTransition(from, to string) bool {
	for _, s := range dealTransitions[from] {
		if s == to {
			return true
		}
	}
	return false
}
