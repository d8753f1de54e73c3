package redemption

import (
	"time"

	"rise_local_back_end/internal/membership"
	"rise_local_back_end/internal/models"
)

const (
	ReasonNotAvailable = "This deal is not available right now"
	ReasonNotStarted   = "This deal hasn't started yet"
	ReasonExpired      = "This deal has expired"
	ReasonPassRequired = "Rise Local Pass membership required"
	ReasonLimitReached = "You've reached the redemption limit for this deal"
)

type Eligibility struct {
	CanRedeem      bool       `json:"canRedeem"`
	Reason         string     `json:"reason,omitempty"`
	NextEligibleAt *time.Time `json:"nextEligibleAt,omitempty"`
}

func eligible() Eligibility { return Eligibility{CanRedeem: true} }

func refuse(reason string) Eligibility { return Eligibility{Reason: reason} }

// Evaluate applies the ordered eligibility checks to a user's history for
// one deal. Voided redemptions in history are ignored.
func Evaluate(deal *models.Deal, user *models.User, history []models.Redemption, now time.Time, loc *time.Location) Eligibility {
	if deal.HasExpired(now) {
		return refuse(ReasonExpired)
	}
	if deal.Status != models.DealStatusPublished {
		return refuse(ReasonNotAvailable)
	}
	if !deal.HasStarted(now) {
		return refuse(ReasonNotStarted)
	}
	if membership.DealRequiresPass(deal) && !membership.IsActive(user, now) {
		return refuse(ReasonPassRequired)
	}

	counted := make([]models.Redemption, 0, len(history))
	for _, r := range history {
		if r.Counts() {
			counted = append(counted, r)
		}
	}

	window := CurrentWindow(deal.RedemptionFrequency, deal.CustomDays, now, loc)
	var inWindow []models.Redemption
	for _, r := range counted {
		if window.Contains(r.RedeemedAt) {
			inWindow = append(inWindow, r)
		}
	}
	if len(inWindow) > 0 {
		e := refuse(window.refusalReason(deal.CustomDays))
		e.NextEligibleAt = window.NextEligibleAt(inWindow)
		return e
	}

	if deal.MaxRedemptionsPerUser > 0 && len(counted) >= deal.MaxRedemptionsPerUser {
		return refuse(ReasonLimitReached)
	}
	return eligible()
}
