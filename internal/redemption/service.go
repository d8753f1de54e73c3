// Package redemption implements the deal redemption workflow: eligibility,
// coupon code issuance, recording, undo and vendor-side verification.
package redemption

import (
	"context"
	"time"

	"github.com/rs/zerolog/log"

	"rise_local_back_end/internal/metrics"
	"rise_local_back_end/internal/models"
)

// Cache memoizes eligibility answers. Implementations must tolerate being
// unavailable; a miss always falls back to the repository.
type Cache interface {
	GetEligibility(ctx context.Context, userID, dealID string) (Eligibility, bool)
	SetEligibility(ctx context.Context, userID, dealID string, e Eligibility)
	InvalidateUser(ctx context.Context, userID string)
}

// Notifier is told about completed redemptions. Calls must not block.
type Notifier interface {
	RedemptionRecorded(ctx context.Context, r *models.Redemption, deal *models.Deal)
}

// Auditor appends to the audit trail. Calls must not block.
type Auditor interface {
	Record(ctx context.Context, userID, action, resourceType, resourceID, details string)
}

type Options struct {
	CodeTTL    time.Duration
	UndoWindow time.Duration // <= 0 disables the window
	Location   *time.Location
	Now        func() time.Time
	Cache      Cache
	Notifier   Notifier
	Auditor    Auditor
}

type Service struct {
	repo       Repository
	cache      Cache
	notifier   Notifier
	auditor    Auditor
	now        func() time.Time
	loc        *time.Location
	codeTTL    time.Duration
	undoWindow time.Duration
}

func NewService(repo Repository, opts Options) *Service {
	s := &Service{
		repo:       repo,
		cache:      opts.Cache,
		notifier:   opts.Notifier,
		auditor:    opts.Auditor,
		now:        opts.Now,
		loc:        opts.Location,
		codeTTL:    opts.CodeTTL,
		undoWindow: opts.UndoWindow,
	}
	if s.now == nil {
		s.now = time.Now
	}
	if s.loc == nil {
		s.loc = time.UTC
	}
	if s.codeTTL <= 0 {
		s.codeTTL = 10 * time.Minute
	}
	return s
}

func (s *Service) clock() time.Time {
	return s.now().UTC()
}

// CanRedeem answers whether userID may redeem dealID right now. It never
// writes redemption state.
func (s *Service) CanRedeem(ctx context.Context, userID, dealID string) (Eligibility, error) {
	if s.cache != nil {
		if e, ok := s.cache.GetEligibility(ctx, userID, dealID); ok {
			metrics.EligibilityCache.WithLabelValues("hit").Inc()
			return e, nil
		}
		metrics.EligibilityCache.WithLabelValues("miss").Inc()
	}

	_, _, e, err := s.evaluate(ctx, userID, dealID)
	if err != nil {
		return Eligibility{}, err
	}
	if s.cache != nil {
		s.cache.SetEligibility(ctx, userID, dealID, e)
	}
	return e, nil
}

// evaluate is the uncached eligibility check used before every write.
func (s *Service) evaluate(ctx context.Context, userID, dealID string) (*models.Deal, *models.User, Eligibility, error) {
	deal, err := s.repo.GetDeal(ctx, dealID)
	if err != nil {
		return nil, nil, Eligibility{}, err
	}
	user, err := s.repo.GetUser(ctx, userID)
	if err != nil {
		return nil, nil, Eligibility{}, err
	}
	history, err := s.repo.UserDealHistory(ctx, userID, dealID)
	if err != nil {
		return nil, nil, Eligibility{}, err
	}
	return deal, user, Evaluate(deal, user, history, s.clock(), s.loc), nil
}

// Redeem records a web redemption for the caller, linking the UNIQUE code
// they currently hold for the deal, if any.
func (s *Service) Redeem(ctx context.Context, userID, dealID string) (*models.Redemption, error) {
	deal, _, e, err := s.evaluate(ctx, userID, dealID)
	if err != nil {
		return nil, err
	}
	if !e.CanRedeem {
		return nil, &NotEligibleError{Reason: e.Reason}
	}

	now := s.clock()
	r := &models.Redemption{
		UserID:     userID,
		DealID:     deal.ID,
		VendorID:   deal.VendorID,
		Source:     models.RedemptionSourceWeb,
		Status:     models.RedemptionStatusRedeemed,
		RedeemedAt: now,
	}
	if deal.CodeType == models.CodeTypeUnique {
		code, err := s.repo.OutstandingCode(ctx, deal.ID, userID, now)
		if err != nil {
			return nil, err
		}
		if code != nil {
			r.CouponCodeID = &code.ID
		}
	}

	if err := s.repo.CreateRedemption(ctx, r); err != nil {
		return nil, err
	}
	s.invalidate(ctx, userID)
	metrics.Redemptions.WithLabelValues(r.Source).Inc()
	log.Info().Str("redemption_id", r.ID).Str("deal_id", deal.ID).Str("user_id", userID).Msg("🎟️ Redemption recorded")

	if s.notifier != nil {
		s.notifier.RedemptionRecorded(ctx, r, deal)
	}
	s.audit(ctx, userID, "redemption.create", r.ID, deal.ID)
	return r, nil
}

// Undo voids the caller's own redemption. The row is kept, and any code
// it carried stays spent.
func (s *Service) Undo(ctx context.Context, userID, redemptionID string) (*models.Redemption, error) {
	r, err := s.repo.GetRedemption(ctx, redemptionID)
	if err != nil {
		return nil, err
	}
	if r.UserID != userID {
		log.Warn().Str("redemption_id", redemptionID).Str("user_id", userID).Msg("⛔ Undo attempted on another user's redemption")
		return nil, ErrUnauthorized
	}
	if r.Status == models.RedemptionStatusVoided {
		return nil, ErrAlreadyVoided
	}
	if r.VerifiedAt != nil {
		return nil, ErrVerifiedRedemption
	}

	now := s.clock()
	if s.undoWindow > 0 && now.Sub(r.RedeemedAt) > s.undoWindow {
		return nil, ErrUndoWindowElapsed
	}

	ok, err := s.repo.VoidRedemption(ctx, r.ID, now)
	if err != nil {
		return nil, err
	}
	if !ok {
		current, err := s.repo.GetRedemption(ctx, r.ID)
		if err != nil {
			return nil, err
		}
		if current.VerifiedAt != nil {
			return nil, ErrVerifiedRedemption
		}
		return nil, ErrAlreadyVoided
	}
	if r.CouponCodeID != nil {
		if err := s.repo.ExpireCode(ctx, *r.CouponCodeID, now); err != nil {
			log.Error().Err(err).Str("code_id", *r.CouponCodeID).Msg("❌ Failed to retire code of voided redemption")
		}
	}

	r.Status = models.RedemptionStatusVoided
	r.UndoneAt = &now
	s.invalidate(ctx, userID)
	metrics.RedemptionsVoided.Inc()
	log.Info().Str("redemption_id", r.ID).Str("user_id", userID).Msg("↩️ Redemption voided")
	s.audit(ctx, userID, "redemption.void", r.ID, r.DealID)
	return r, nil
}

func (s *Service) History(ctx context.Context, userID string) ([]models.Redemption, error) {
	return s.repo.UserRedemptions(ctx, userID)
}

func (s *Service) VendorHistory(ctx context.Context, vendorID string, limit int) ([]models.Redemption, error) {
	if limit <= 0 || limit > 500 {
		limit = 100
	}
	return s.repo.VendorRedemptions(ctx, vendorID, limit)
}

// InvalidateUser drops cached eligibility after an outside change such as
// a membership update.
func (s *Service) InvalidateUser(ctx context.Context, userID string) {
	s.invalidate(ctx, userID)
}

func (s *Service) invalidate(ctx context.Context, userID string) {
	if s.cache != nil && userID != "" {
		s.cache.InvalidateUser(ctx, userID)
	}
}

func (s *Service) audit(ctx context.Context, userID, action, resourceID, details string) {
	if s.auditor != nil {
		s.auditor.Record(ctx, userID, action, "redemption", resourceID, details)
	}
}
