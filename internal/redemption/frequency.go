package redemption

import (
	"strconv"
	"time"

	"rise_local_back_end/internal/models"
)

// Window bounds the span of time in which at most one redemption of a deal
// counts against a user. Lifetime windows have zero Start and End.
type Window struct {
	Frequency string
	Start     time.Time
	End       time.Time
	Rolling   time.Duration
	Limited   bool
}

// CurrentWindow returns the frequency window containing now. Calendar
// windows are computed in loc: weeks start Monday 00:00, months on the 1st.
func CurrentWindow(frequency string, customDays int, now time.Time, loc *time.Location) Window {
	if loc == nil {
		loc = time.UTC
	}
	local := now.In(loc)
	w := Window{Frequency: frequency, Limited: true}

	switch frequency {
	case models.FrequencyWeekly:
		offset := (int(local.Weekday()) + 6) % 7
		w.Start = time.Date(local.Year(), local.Month(), local.Day()-offset, 0, 0, 0, 0, loc)
		w.End = w.Start.AddDate(0, 0, 7)
	case models.FrequencyMonthly:
		w.Start = time.Date(local.Year(), local.Month(), 1, 0, 0, 0, 0, loc)
		w.End = w.Start.AddDate(0, 1, 0)
	case models.FrequencyCustom:
		if customDays <= 0 {
			customDays = 1
		}
		w.Rolling = time.Duration(customDays) * 24 * time.Hour
		w.Start = now.Add(-w.Rolling)
		w.End = now
	case models.FrequencyUnlimited:
		w.Limited = false
	default:
		// "once" and unknown values: a single redemption for the lifetime of
		// the deal.
		w.Frequency = models.FrequencyOnce
	}
	return w
}

func (w Window) Lifetime() bool {
	return w.Limited && w.Start.IsZero() && w.End.IsZero()
}

// Contains reports whether t falls inside the window. Rolling windows
// exclude their start instant.
func (w Window) Contains(t time.Time) bool {
	if !w.Limited {
		return false
	}
	if w.Lifetime() {
		return true
	}
	if w.Rolling > 0 {
		return t.After(w.Start)
	}
	return !t.Before(w.Start) && t.Before(w.End)
}

// NextEligibleAt is the earliest time a new redemption is allowed, given
// the redemptions already inside the window. Lifetime windows never reopen.
func (w Window) NextEligibleAt(inWindow []models.Redemption) *time.Time {
	if !w.Limited || w.Lifetime() || len(inWindow) == 0 {
		return nil
	}
	if w.Rolling > 0 {
		latest := inWindow[0].RedeemedAt
		for _, r := range inWindow[1:] {
			if r.RedeemedAt.After(latest) {
				latest = r.RedeemedAt
			}
		}
		next := latest.Add(w.Rolling).UTC()
		return &next
	}
	end := w.End.UTC()
	return &end
}

func (w Window) refusalReason(customDays int) string {
	switch w.Frequency {
	case models.FrequencyWeekly:
		return "You've already redeemed this deal this week"
	case models.FrequencyMonthly:
		return "You've already redeemed this deal this month"
	case models.FrequencyCustom:
		if customDays <= 1 {
			return "You've already redeemed this deal in the last 24 hours"
		}
		return "You've already redeemed this deal in the last " + strconv.Itoa(customDays) + " days"
	default:
		return "You've already redeemed this deal"
	}
}
