package redemption

import (
	"context"
	"crypto/rand"
	"fmt"
	"math/big"

	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"

	"rise_local_back_end/internal/models"
)

const MaxGenerate = 5000

// Restock adds vendor-supplied codes to a UNIQUE deal pool. Duplicates in
// the input or already in the pool are skipped.
func (s *Service) Restock(ctx context.Context, staff *models.User, dealID string, codes []string) (int, error) {
	deal, err := s.ownedUniqueDeal(ctx, staff, dealID)
	if err != nil {
		return 0, err
	}

	seen := make(map[string]bool, len(codes))
	clean := make([]string, 0, len(codes))
	for _, c := range codes {
		if !ValidCodeFormat(c) {
			return 0, ErrInvalidCodes
		}
		if !seen[c] {
			seen[c] = true
			clean = append(clean, c)
		}
	}

	added, err := s.repo.AddCodes(ctx, deal.ID, clean)
	if err != nil {
		return 0, err
	}
	log.Info().Str("deal_id", deal.ID).Int("added", added).Msg("📦 Code pool restocked")
	s.audit(ctx, staff.ID, "codes.restock", deal.ID, fmt.Sprintf("added=%d", added))
	return added, nil
}

// Generate fills a UNIQUE deal pool with n random 6-digit codes.
func (s *Service) Generate(ctx context.Context, staff *models.User, dealID string, n int) (int, error) {
	if n <= 0 || n > MaxGenerate {
		return 0, errors.Errorf("generate must be between 1 and %d", MaxGenerate)
	}
	deal, err := s.ownedUniqueDeal(ctx, staff, dealID)
	if err != nil {
		return 0, err
	}

	added := 0
	for attempt := 0; added < n && attempt < 5; attempt++ {
		batch, err := randomCodes(n - added)
		if err != nil {
			return added, err
		}
		k, err := s.repo.AddCodes(ctx, deal.ID, batch)
		if err != nil {
			return added, err
		}
		added += k
	}
	log.Info().Str("deal_id", deal.ID).Int("added", added).Msg("📦 Code pool generated")
	s.audit(ctx, staff.ID, "codes.generate", deal.ID, fmt.Sprintf("added=%d", added))
	return added, nil
}

func (s *Service) Stats(ctx context.Context, staff *models.User, dealID string) (CodeStats, error) {
	deal, err := s.ownedUniqueDeal(ctx, staff, dealID)
	if err != nil {
		return CodeStats{}, err
	}
	return s.repo.CodeStats(ctx, deal.ID, s.clock())
}

func (s *Service) ownedUniqueDeal(ctx context.Context, staff *models.User, dealID string) (*models.Deal, error) {
	deal, err := s.repo.GetDeal(ctx, dealID)
	if err != nil {
		return nil, err
	}
	if !staff.IsVendorStaff(deal.VendorID) {
		return nil, ErrUnauthorized
	}
	if deal.CodeType != models.CodeTypeUnique {
		return nil, ErrNoCode
	}
	return deal, nil
}

func randomCodes(n int) ([]string, error) {
	max := big.NewInt(1000000)
	seen := make(map[string]bool, n)
	out := make([]string, 0, n)
	for len(out) < n {
		v, err := rand.Int(rand.Reader, max)
		if err != nil {
			return nil, errors.Wrap(err, "random code")
		}
		c := fmt.Sprintf("%06d", v.Int64())
		if !seen[c] {
			seen[c] = true
			out = append(out, c)
		}
	}
	return out, nil
}
