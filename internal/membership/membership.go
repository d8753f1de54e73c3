// Package membership answers whether a user currently holds the Rise Local
// Pass. Every gate in the backend goes through IsActive.
package membership

import (
	"strings"
	"time"

	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
	"gorm.io/gorm"

	"rise_local_back_end/internal/models"
)

var legacyPassTiers = map[string]bool{
	"pass":    true,
	"premium": true,
	"member":  true,
}

// IsActive is the only membership check. A nil expiry means the
// membership does not lapse on its own.
func IsActive(user *models.User, now time.Time) bool {
	if user == nil || !user.IsPassMember {
		return false
	}
	return user.PassExpiresAt == nil || now.Before(*user.PassExpiresAt)
}

// DealRequiresPass treats the legacy tier column as a Pass lock for deals
// created before isPassLocked existed.
func DealRequiresPass(deal *models.Deal) bool {
	if deal.IsPassLocked {
		return true
	}
	return IsLegacyPassTier(deal.Tier)
}

func IsLegacyPassTier(tier string) bool {
	return legacyPassTiers[strings.ToLower(strings.TrimSpace(tier))]
}

// BackfillLegacyTiers copies legacy user tiers into isPassMember, then
// clears the tier so it is never read again.
func BackfillLegacyTiers(db *gorm.DB) (int64, error) {
	tiers := make([]string, 0, len(legacyPassTiers))
	for t := range legacyPassTiers {
		tiers = append(tiers, t)
	}

	res := db.Model(&models.User{}).
		Where("LOWER(tier) IN ?", tiers).
		Updates(map[string]interface{}{"is_pass_member": true, "tier": ""})
	if res.Error != nil {
		return 0, errors.Wrap(res.Error, "backfill legacy tiers")
	}
	if res.RowsAffected > 0 {
		log.Info().Int64("users", res.RowsAffected).Msg("🎫 Legacy Pass tiers migrated")
	}
	return res.RowsAffected, nil
}
