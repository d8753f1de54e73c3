package membership_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"rise_local_back_end/internal/membership"
	"rise_local_back_end/internal/models"
	"rise_local_back_end/internal/testsuit"
)

func TestIsActive(t *testing.T) {
	now := time.Date(2026, 10, 14, 12, 0, 0, 0, time.UTC)
	past := now.Add(-time.Second)
	future := now.Add(time.Hour)

	tests := []struct {
		name string
		user *models.User
		want bool
	}{
		{"nil user", nil, false},
		{"not a member", &models.User{}, false},
		{"member without expiry", &models.User{IsPassMember: true}, true},
		{"member before expiry", &models.User{IsPassMember: true, PassExpiresAt: &future}, true},
		{"member at expiry", &models.User{IsPassMember: true, PassExpiresAt: &now}, false},
		{"member after expiry", &models.User{IsPassMember: true, PassExpiresAt: &past}, false},
		{"legacy tier alone is ignored", &models.User{Tier: "premium"}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, membership.IsActive(tt.user, now))
		})
	}
}

func TestDealRequiresPass(t *testing.T) {
	assert.True(t, membership.DealRequiresPass(&models.Deal{IsPassLocked: true}))
	assert.True(t, membership.DealRequiresPass(&models.Deal{Tier: " Pass "}))
	assert.False(t, membership.DealRequiresPass(&models.Deal{Tier: "free"}))
	assert.False(t, membership.DealRequiresPass(&models.Deal{}))
}

func TestBackfillLegacyTiers(t *testing.T) {
	db := testsuit.InitSQLite()
	legacy := testsuit.CreateUser(db, func(u *models.User) { u.Tier = "Premium" })
	free := testsuit.CreateUser(db, func(u *models.User) { u.Tier = "free" })

	n, err := membership.BackfillLegacyTiers(db)
	require.NoError(t, err)
	assert.EqualValues(t, 1, n)

	var got models.User
	require.NoError(t, db.First(&got, "id = ?", legacy.ID).Error)
	assert.True(t, got.IsPassMember)
	assert.Empty(t, got.Tier)

	require.NoError(t, db.First(&got, "id = ?", free.ID).Error)
	assert.False(t, got.IsPassMember)

	n, err = membership.BackfillLegacyTiers(db)
	require.NoError(t, err)
	assert.Zero(t, n)
}
