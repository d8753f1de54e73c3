package redemption

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"rise_local_back_end/internal/models"
)

func TestCurrentWindowWeeklyStartsMonday(t *testing.T) {
	wed := time.Date(2026, 10, 14, 15, 30, 0, 0, time.UTC)
	w := CurrentWindow(models.FrequencyWeekly, 0, wed, time.UTC)

	assert.Equal(t, time.Date(2026, 10, 12, 0, 0, 0, 0, time.UTC), w.Start)
	assert.Equal(t, time.Date(2026, 10, 19, 0, 0, 0, 0, time.UTC), w.End)
	assert.True(t, w.Contains(time.Date(2026, 10, 12, 0, 0, 0, 0, time.UTC)))
	assert.False(t, w.Contains(time.Date(2026, 10, 19, 0, 0, 0, 0, time.UTC)))
	assert.False(t, w.Contains(time.Date(2026, 10, 11, 23, 59, 59, 0, time.UTC)))
}

func TestCurrentWindowWeeklyOnSunday(t *testing.T) {
	sun := time.Date(2026, 11, 1, 22, 0, 0, 0, time.UTC)
	w := CurrentWindow(models.FrequencyWeekly, 0, sun, time.UTC)
	assert.Equal(t, time.Date(2026, 10, 26, 0, 0, 0, 0, time.UTC), w.Start)
}

func TestCurrentWindowUsesLocation(t *testing.T) {
	chicago, err := time.LoadLocation("America/Chicago")
	require.NoError(t, err)

	// Monday 03:00 UTC is still Sunday evening in Chicago.
	now := time.Date(2026, 10, 19, 3, 0, 0, 0, time.UTC)
	w := CurrentWindow(models.FrequencyWeekly, 0, now, chicago)
	assert.Equal(t, time.Date(2026, 10, 12, 0, 0, 0, 0, chicago), w.Start)
}

func TestCurrentWindowMonthly(t *testing.T) {
	now := time.Date(2026, 12, 31, 23, 0, 0, 0, time.UTC)
	w := CurrentWindow(models.FrequencyMonthly, 0, now, time.UTC)
	assert.Equal(t, time.Date(2026, 12, 1, 0, 0, 0, 0, time.UTC), w.Start)
	assert.Equal(t, time.Date(2027, 1, 1, 0, 0, 0, 0, time.UTC), w.End)
}

func TestCurrentWindowCustomIsRolling(t *testing.T) {
	now := time.Date(2026, 10, 14, 12, 0, 0, 0, time.UTC)
	w := CurrentWindow(models.FrequencyCustom, 3, now, time.UTC)

	assert.True(t, w.Contains(now.Add(-71*time.Hour)))
	assert.False(t, w.Contains(now.Add(-72*time.Hour)))

	next := w.NextEligibleAt([]models.Redemption{{RedeemedAt: now.Add(-24 * time.Hour)}})
	require.NotNil(t, next)
	assert.Equal(t, now.Add(48*time.Hour), *next)
}

func TestRollingNextEligibleUsesLatestRedemption(t *testing.T) {
	now := time.Date(2026, 10, 14, 12, 0, 0, 0, time.UTC)
	w := CurrentWindow(models.FrequencyCustom, 3, now, time.UTC)

	next := w.NextEligibleAt([]models.Redemption{
		{RedeemedAt: now.Add(-2 * time.Hour)},
		{RedeemedAt: now.Add(-48 * time.Hour)},
	})
	require.NotNil(t, next)
	assert.Equal(t, now.Add(70*time.Hour), *next)
	assert.True(t, w.Contains(now.Add(-2*time.Hour)))
}

func TestCurrentWindowOnceAndUnlimited(t *testing.T) {
	now := time.Date(2026, 10, 14, 12, 0, 0, 0, time.UTC)

	once := CurrentWindow(models.FrequencyOnce, 0, now, time.UTC)
	assert.True(t, once.Lifetime())
	assert.True(t, once.Contains(now.AddDate(-5, 0, 0)))
	assert.Nil(t, once.NextEligibleAt([]models.Redemption{{RedeemedAt: now}}))

	unlimited := CurrentWindow(models.FrequencyUnlimited, 0, now, time.UTC)
	assert.False(t, unlimited.Contains(now))
}
