package redemption

import (
	"context"
	"time"

	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"

	"rise_local_back_end/internal/metrics"
	"rise_local_back_end/internal/models"
)

type Issuance struct {
	Type      string     `json:"type"`
	Code      string     `json:"code"`
	CodeID    string     `json:"codeId,omitempty"`
	ExpiresAt *time.Time `json:"expiresAt,omitempty"`
}

// IssueCode hands the caller the code they show at the counter. STATIC
// deals share one code; UNIQUE deals draw from the pool, and a user who
// already holds a live code for the deal gets that same code back.
func (s *Service) IssueCode(ctx context.Context, userID, dealID string) (*Issuance, error) {
	deal, _, e, err := s.evaluate(ctx, userID, dealID)
	if err != nil {
		return nil, err
	}
	if !e.CanRedeem {
		metrics.CodesIssued.WithLabelValues(deal.CodeType, "not_eligible").Inc()
		return nil, &NotEligibleError{Reason: e.Reason}
	}

	switch deal.CodeType {
	case models.CodeTypeStatic:
		if deal.StaticCode == "" {
			return nil, ErrNoCode
		}
		metrics.CodesIssued.WithLabelValues(deal.CodeType, "ok").Inc()
		return &Issuance{Type: models.CodeTypeStatic, Code: deal.StaticCode}, nil
	case models.CodeTypeUnique:
		return s.issueUnique(ctx, deal, userID)
	default:
		return nil, ErrNoCode
	}
}

func (s *Service) issueUnique(ctx context.Context, deal *models.Deal, userID string) (*Issuance, error) {
	now := s.clock()

	held, err := s.repo.OutstandingCode(ctx, deal.ID, userID, now)
	if err != nil {
		return nil, err
	}
	if held != nil {
		metrics.CodesIssued.WithLabelValues(deal.CodeType, "reissued").Inc()
		return uniqueIssuance(held), nil
	}

	code, err := s.repo.ClaimCode(ctx, deal.ID, userID, now, now.Add(s.codeTTL))
	if errors.Is(err, ErrPoolEmpty) {
		metrics.CodesIssued.WithLabelValues(deal.CodeType, "pool_empty").Inc()
		log.Warn().Str("deal_id", deal.ID).Str("vendor_id", deal.VendorID).Msg("🪫 Code pool empty")
		return nil, err
	}
	if err != nil {
		return nil, err
	}

	metrics.CodesIssued.WithLabelValues(deal.CodeType, "ok").Inc()
	log.Info().Str("deal_id", deal.ID).Str("code_id", code.ID).Str("user_id", userID).Msg("🔑 Unique code issued")
	s.audit(ctx, userID, "code.issue", code.ID, deal.ID)
	return uniqueIssuance(code), nil
}

func uniqueIssuance(c *models.CouponCode) *Issuance {
	return &Issuance{
		Type:      models.CodeTypeUnique,
		Code:      c.Code,
		CodeID:    c.ID,
		ExpiresAt: c.ExpiresAt,
	}
}
