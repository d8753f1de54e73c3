// Package presenter shapes models for listing screens.
package presenter

import (
	"fmt"
	"strconv"
	"time"

	"rise_local_back_end/internal/membership"
	"rise_local_back_end/internal/models"
)

type VendorSummary struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	Category string `json:"category"`
	City     string `json:"city,omitempty"`
	LogoURL  string `json:"logoUrl,omitempty"`
}

// DealCard is the single card shape every deal flavor renders into.
type DealCard struct {
	ID          string         `json:"id"`
	Title       string         `json:"title"`
	Headline    string         `json:"headline"`
	Badge       string         `json:"badge"`
	DealType    string         `json:"dealType"`
	ImageURL    string         `json:"imageUrl,omitempty"`
	Locked      bool           `json:"locked"`
	PassOnly    bool           `json:"passOnly"`
	Frequency   string         `json:"frequency"`
	HasCode     bool           `json:"hasCode"`
	EndsAt      *time.Time     `json:"endsAt,omitempty"`
	Vendor      *VendorSummary `json:"vendor,omitempty"`
	Description string         `json:"description,omitempty"`
}

type flavor struct {
	badge    string
	headline func(d *models.Deal) string
}

var flavors = map[string]flavor{
	models.DealTypeBOGO: {
		badge:    "BOGO",
		headline: func(d *models.Deal) string { return "Buy one, get one free" },
	},
	models.DealTypePercent: {
		badge: "% OFF",
		headline: func(d *models.Deal) string {
			return strconv.FormatFloat(d.DiscountValue, 'f', -1, 64) + "% off"
		},
	},
	models.DealTypeAddon: {
		badge: "FREE ADD-ON",
		headline: func(d *models.Deal) string {
			if d.AddonItem == "" {
				return "Free add-on with purchase"
			}
			return fmt.Sprintf("Free %s with purchase", d.AddonItem)
		},
	},
}

var frequencyLabels = map[string]string{
	models.FrequencyOnce:      "One time",
	models.FrequencyWeekly:    "Once a week",
	models.FrequencyMonthly:   "Once a month",
	models.FrequencyUnlimited: "Unlimited",
}

// NewDealCard renders d for viewer, who may be nil for anonymous browsing.
// Locked is set when the deal needs a Pass the viewer does not hold.
func NewDealCard(d *models.Deal, viewer *models.User, now time.Time) DealCard {
	f, ok := flavors[d.DealType]
	if !ok {
		f = flavor{badge: "DEAL", headline: func(d *models.Deal) string { return d.Title }}
	}
	passOnly := membership.DealRequiresPass(d)

	card := DealCard{
		ID:          d.ID,
		Title:       d.Title,
		Headline:    f.headline(d),
		Badge:       f.badge,
		DealType:    d.DealType,
		ImageURL:    d.ImageURL,
		PassOnly:    passOnly,
		Locked:      passOnly && !membership.IsActive(viewer, now),
		Frequency:   frequencyLabel(d),
		HasCode:     d.CodeType == models.CodeTypeStatic || d.CodeType == models.CodeTypeUnique,
		EndsAt:      d.EndsAt,
		Description: d.Description,
	}
	if d.Vendor != nil {
		card.Vendor = &VendorSummary{
			ID:       d.Vendor.ID,
			Name:     d.Vendor.Name,
			Category: d.Vendor.Category,
			City:     d.Vendor.City,
			LogoURL:  d.Vendor.LogoURL,
		}
	}
	return card
}

func NewDealCards(deals []models.Deal, viewer *models.User, now time.Time) []DealCard {
	cards := make([]DealCard, 0, len(deals))
	for i := range deals {
		cards = append(cards, NewDealCard(&deals[i], viewer, now))
	}
	return cards
}

func frequencyLabel(d *models.Deal) string {
	if d.RedemptionFrequency == models.FrequencyCustom {
		if d.CustomDays == 1 {
			return "Once a day"
		}
		return fmt.Sprintf("Once every %d days", d.CustomDays)
	}
	if l, ok := frequencyLabels[d.RedemptionFrequency]; ok {
		return l
	}
	return frequencyLabels[models.FrequencyOnce]
}
