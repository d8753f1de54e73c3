package redemption

import (
	"context"
	"regexp"
	"time"

	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"

	"rise_local_back_end/internal/metrics"
	"rise_local_back_end/internal/models"
)

var codeFormat = regexp.MustCompile(`^\d{6}$`)

func ValidCodeFormat(code string) bool {
	return codeFormat.MatchString(code)
}

type Verification struct {
	Success    bool               `json:"success"`
	DealID     string             `json:"dealId"`
	DealTitle  string             `json:"dealTitle"`
	Redemption *models.Redemption `json:"redemption"`
	RedeemedAt time.Time          `json:"redeemedAt"`
}

// VerifyCode is the vendor-side check of a code shown at the counter. The
// checks run in order: format, ownership, existence, prior use, expiry.
// Two concurrent verifications of one code cannot both succeed.
func (s *Service) VerifyCode(ctx context.Context, staff *models.User, dealID, code string) (*Verification, error) {
	result := "error"
	defer func() { metrics.Verifications.WithLabelValues(result).Inc() }()

	if !ValidCodeFormat(code) {
		result = "invalid_format"
		return nil, ErrInvalidCodeFormat
	}

	deal, err := s.repo.GetDeal(ctx, dealID)
	if err != nil {
		return nil, err
	}
	if !staff.IsVendorStaff(deal.VendorID) {
		result = "unauthorized"
		return nil, ErrUnauthorized
	}
	if deal.CodeType != models.CodeTypeUnique {
		result = "invalid_code"
		return nil, ErrInvalidCode
	}

	cc, err := s.repo.FindCode(ctx, deal.ID, code)
	if err != nil {
		if errors.Is(err, ErrInvalidCode) {
			result = "invalid_code"
		}
		return nil, err
	}

	now := s.clock()
	switch cc.State(now) {
	case models.CodeStateUnissued:
		result = "invalid_code"
		return nil, ErrInvalidCode
	case models.CodeStateRedeemed:
		result = "already_used"
		return nil, ErrCodeAlreadyUsed
	case models.CodeStateExpired:
		result = "expired"
		return nil, ErrCodeExpired
	}

	r, err := s.repo.RedeemCode(ctx, cc, deal, now)
	if errors.Is(err, ErrCodeAlreadyUsed) {
		result = "already_used"
		return nil, err
	}
	if err != nil {
		return nil, err
	}

	result = "ok"
	if cc.IssuedToUserID != nil {
		s.invalidate(ctx, *cc.IssuedToUserID)
	}
	if r.Source == models.RedemptionSourceVendorVerify {
		metrics.Redemptions.WithLabelValues(r.Source).Inc()
	}
	log.Info().Str("deal_id", deal.ID).Str("code_id", cc.ID).Str("staff_id", staff.ID).Msg("✅ Code verified in store")
	s.audit(ctx, staff.ID, "code.verify", r.ID, cc.ID)

	return &Verification{
		Success:    true,
		DealID:     deal.ID,
		DealTitle:  deal.Title,
		Redemption: r,
		RedeemedAt: now,
	}, nil
}
