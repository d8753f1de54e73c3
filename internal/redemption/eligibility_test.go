package redemption

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"rise_local_back_end/internal/models"
)

var monday = time.Date(2026, 10, 12, 10, 0, 0, 0, time.UTC)

func publishedDeal(freq string) *models.Deal {
	return &models.Deal{
		ID:                  "deal-1",
		VendorID:            "vendor-1",
		Status:              models.DealStatusPublished,
		RedemptionFrequency: freq,
		CodeType:            models.CodeTypeUnique,
	}
}

func redeemedAt(t time.Time) models.Redemption {
	return models.Redemption{Status: models.RedemptionStatusRedeemed, RedeemedAt: t}
}

func TestEvaluateWeeklyScenario(t *testing.T) {
	deal := publishedDeal(models.FrequencyWeekly)
	user := &models.User{ID: "u1"}
	history := []models.Redemption{redeemedAt(monday)}

	wednesday := monday.AddDate(0, 0, 2)
	e := Evaluate(deal, user, history, wednesday, time.UTC)
	assert.False(t, e.CanRedeem)
	assert.Equal(t, "You've already redeemed this deal this week", e.Reason)
	if assert.NotNil(t, e.NextEligibleAt) {
		assert.Equal(t, time.Date(2026, 10, 19, 0, 0, 0, 0, time.UTC), *e.NextEligibleAt)
	}

	nextMonday := monday.AddDate(0, 0, 7)
	assert.True(t, Evaluate(deal, user, history, nextMonday, time.UTC).CanRedeem)
}

func TestEvaluateIgnoresVoided(t *testing.T) {
	deal := publishedDeal(models.FrequencyOnce)
	user := &models.User{ID: "u1"}
	history := []models.Redemption{{Status: models.RedemptionStatusVoided, RedeemedAt: monday}}

	assert.True(t, Evaluate(deal, user, history, monday.Add(time.Hour), time.UTC).CanRedeem)
}

func TestEvaluateOnce(t *testing.T) {
	deal := publishedDeal(models.FrequencyOnce)
	e := Evaluate(deal, &models.User{}, []models.Redemption{redeemedAt(monday)}, monday.AddDate(1, 0, 0), time.UTC)
	assert.False(t, e.CanRedeem)
	assert.Equal(t, "You've already redeemed this deal", e.Reason)
	assert.Nil(t, e.NextEligibleAt)
}

func TestEvaluateLifetimeCap(t *testing.T) {
	deal := publishedDeal(models.FrequencyUnlimited)
	deal.MaxRedemptionsPerUser = 2
	user := &models.User{}

	one := []models.Redemption{redeemedAt(monday)}
	assert.True(t, Evaluate(deal, user, one, monday.Add(time.Minute), time.UTC).CanRedeem)

	two := append(one, redeemedAt(monday.Add(time.Minute)))
	e := Evaluate(deal, user, two, monday.Add(2*time.Minute), time.UTC)
	assert.False(t, e.CanRedeem)
	assert.Equal(t, ReasonLimitReached, e.Reason)
}

func TestEvaluatePassGate(t *testing.T) {
	deal := publishedDeal(models.FrequencyUnlimited)
	deal.IsPassLocked = true

	e := Evaluate(deal, &models.User{}, nil, monday, time.UTC)
	assert.False(t, e.CanRedeem)
	assert.Equal(t, ReasonPassRequired, e.Reason)

	expires := monday.Add(time.Hour)
	member := &models.User{IsPassMember: true, PassExpiresAt: &expires}
	assert.True(t, Evaluate(deal, member, nil, monday, time.UTC).CanRedeem)
	assert.False(t, Evaluate(deal, member, nil, expires, time.UTC).CanRedeem)
}

func TestEvaluateLegacyTierDealIsLocked(t *testing.T) {
	deal := publishedDeal(models.FrequencyUnlimited)
	deal.Tier = "premium"

	e := Evaluate(deal, &models.User{}, nil, monday, time.UTC)
	assert.Equal(t, ReasonPassRequired, e.Reason)
}

func TestEvaluateDealLifecycle(t *testing.T) {
	user := &models.User{}

	draft := publishedDeal(models.FrequencyOnce)
	draft.Status = models.DealStatusDraft
	assert.Equal(t, ReasonNotAvailable, Evaluate(draft, user, nil, monday, time.UTC).Reason)

	paused := publishedDeal(models.FrequencyOnce)
	paused.Status = models.DealStatusPaused
	assert.Equal(t, ReasonNotAvailable, Evaluate(paused, user, nil, monday, time.UTC).Reason)

	later := monday.Add(time.Hour)
	future := publishedDeal(models.FrequencyOnce)
	future.StartsAt = &later
	assert.Equal(t, ReasonNotStarted, Evaluate(future, user, nil, monday, time.UTC).Reason)

	ended := publishedDeal(models.FrequencyOnce)
	ended.EndsAt = &monday
	assert.Equal(t, ReasonExpired, Evaluate(ended, user, nil, monday, time.UTC).Reason)

	marked := publishedDeal(models.FrequencyOnce)
	marked.Status = models.DealStatusExpired
	assert.Equal(t, ReasonExpired, Evaluate(marked, user, nil, monday, time.UTC).Reason)
}
