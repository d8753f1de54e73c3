package redemption

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"rise_local_back_end/internal/models"
)

// Repository is the persistence the redemption service needs.
type Repository interface {
	GetDeal(ctx context.Context, dealID string) (*models.Deal, error)
	GetUser(ctx context.Context, userID string) (*models.User, error)

	UserDealHistory(ctx context.Context, userID, dealID string) ([]models.Redemption, error)
	UserRedemptions(ctx context.Context, userID string) ([]models.Redemption, error)
	VendorRedemptions(ctx context.Context, vendorID string, limit int) ([]models.Redemption, error)
	GetRedemption(ctx context.Context, redemptionID string) (*models.Redemption, error)
	CreateRedemption(ctx context.Context, r *models.Redemption) error
	VoidRedemption(ctx context.Context, redemptionID string, at time.Time) (bool, error)

	OutstandingCode(ctx context.Context, dealID, userID string, now time.Time) (*models.CouponCode, error)
	ClaimCode(ctx context.Context, dealID, userID string, issuedAt, expiresAt time.Time) (*models.CouponCode, error)
	FindCode(ctx context.Context, dealID, code string) (*models.CouponCode, error)
	RedeemCode(ctx context.Context, code *models.CouponCode, deal *models.Deal, at time.Time) (*models.Redemption, error)
	ExpireCode(ctx context.Context, codeID string, at time.Time) error
	AddCodes(ctx context.Context, dealID string, codes []string) (int, error)
	CodeStats(ctx context.Context, dealID string, now time.Time) (CodeStats, error)
}

type CodeStats struct {
	Total     int64 `json:"total"`
	Available int64 `json:"available"`
	Issued    int64 `json:"issued"`
	Redeemed  int64 `json:"redeemed"`
	Expired   int64 `json:"expired"`
}

// Store implements Repository on gorm.
type Store struct {
	db *gorm.DB
}

func NewStore(db *gorm.DB) *Store {
	return &Store{db: db}
}

func (s *Store) GetDeal(ctx context.Context, dealID string) (*models.Deal, error) {
	var deal models.Deal
	err := s.db.WithContext(ctx).Preload("Vendor").First(&deal, "id = ?", dealID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrDealNotFound
	}
	if err != nil {
		return nil, errors.Wrap(err, "load deal")
	}
	return &deal, nil
}

func (s *Store) GetUser(ctx context.Context, userID string) (*models.User, error) {
	var user models.User
	err := s.db.WithContext(ctx).First(&user, "id = ?", userID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrUserNotFound
	}
	if err != nil {
		return nil, errors.Wrap(err, "load user")
	}
	return &user, nil
}

func (s *Store) UserDealHistory(ctx context.Context, userID, dealID string) ([]models.Redemption, error) {
	var out []models.Redemption
	err := s.db.WithContext(ctx).
		Where("user_id = ? AND deal_id = ?", userID, dealID).
		Order("redeemed_at DESC").
		Find(&out).Error
	return out, errors.Wrap(err, "load redemption history")
}

func (s *Store) UserRedemptions(ctx context.Context, userID string) ([]models.Redemption, error) {
	var out []models.Redemption
	err := s.db.WithContext(ctx).
		Preload("Deal").Preload("Deal.Vendor").
		Where("user_id = ?", userID).
		Order("redeemed_at DESC").
		Find(&out).Error
	return out, errors.Wrap(err, "list user redemptions")
}

func (s *Store) VendorRedemptions(ctx context.Context, vendorID string, limit int) ([]models.Redemption, error) {
	var out []models.Redemption
	err := s.db.WithContext(ctx).
		Preload("Deal").
		Where("vendor_id = ?", vendorID).
		Order("redeemed_at DESC").
		Limit(limit).
		Find(&out).Error
	return out, errors.Wrap(err, "list vendor redemptions")
}

func (s *Store) GetRedemption(ctx context.Context, redemptionID string) (*models.Redemption, error) {
	var r models.Redemption
	err := s.db.WithContext(ctx).First(&r, "id = ?", redemptionID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrRedemptionNotFound
	}
	if err != nil {
		return nil, errors.Wrap(err, "load redemption")
	}
	return &r, nil
}

// CreateRedemption inserts r and, when it carries a coupon code, links the
// code back to it in the same transaction.
func (s *Store) CreateRedemption(ctx context.Context, r *models.Redemption) error {
	if r.ID == "" {
		r.ID = uuid.NewString()
	}
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(r).Error; err != nil {
			return errors.Wrap(err, "insert redemption")
		}
		if r.CouponCodeID == nil {
			return nil
		}
		err := tx.Model(&models.CouponCode{}).
			Where("id = ?", *r.CouponCodeID).
			Update("redemption_id", r.ID).Error
		return errors.Wrap(err, "link coupon code")
	})
}

// VoidRedemption flips a redeemed, unverified row to voided. It reports
// false when the row was already voided or verified in store.
func (s *Store) VoidRedemption(ctx context.Context, redemptionID string, at time.Time) (bool, error) {
	res := s.db.WithContext(ctx).Model(&models.Redemption{}).
		Where("id = ? AND status = ? AND verified_at IS NULL", redemptionID, models.RedemptionStatusRedeemed).
		Updates(map[string]interface{}{
			"status":    models.RedemptionStatusVoided,
			"undone_at": at,
		})
	if res.Error != nil {
		return false, errors.Wrap(res.Error, "void redemption")
	}
	return res.RowsAffected == 1, nil
}

// OutstandingCode returns the live code already handed to the user for
// this deal and not yet tied to a redemption, or nil.
func (s *Store) OutstandingCode(ctx context.Context, dealID, userID string, now time.Time) (*models.CouponCode, error) {
	var codes []models.CouponCode
	err := s.db.WithContext(ctx).
		Where("deal_id = ? AND issued_to_user_id = ? AND consumed = ?", dealID, userID, true).
		Where("redeemed_at IS NULL AND redemption_id IS NULL").
		Order("issued_at DESC").
		Find(&codes).Error
	if err != nil {
		return nil, errors.Wrap(err, "load outstanding code")
	}
	for i := range codes {
		if codes[i].State(now) == models.CodeStateIssued {
			return &codes[i], nil
		}
	}
	return nil, nil
}

// ClaimCode hands one unissued code to userID. Each attempt is a
// compare-and-set on consumed; losing a race moves on to the next
// candidate, and ErrPoolEmpty is returned once none is left.
func (s *Store) ClaimCode(ctx context.Context, dealID, userID string, issuedAt, expiresAt time.Time) (*models.CouponCode, error) {
	db := s.db.WithContext(ctx)
	for {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		var candidate models.CouponCode
		err := db.Where("deal_id = ? AND consumed = ?", dealID, false).
			Order("created_at, id").
			Take(&candidate).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrPoolEmpty
		}
		if err != nil {
			return nil, errors.Wrap(err, "select pool candidate")
		}

		res := db.Model(&models.CouponCode{}).
			Where("id = ? AND consumed = ?", candidate.ID, false).
			Updates(map[string]interface{}{
				"consumed":          true,
				"issued_to_user_id": userID,
				"issued_at":         issuedAt,
				"expires_at":        expiresAt,
			})
		if res.Error != nil {
			return nil, errors.Wrap(res.Error, "claim pool code")
		}
		if res.RowsAffected == 1 {
			candidate.Consumed = true
			candidate.IssuedToUserID = &userID
			candidate.IssuedAt = &issuedAt
			candidate.ExpiresAt = &expiresAt
			return &candidate, nil
		}
	}
}

func (s *Store) FindCode(ctx context.Context, dealID, code string) (*models.CouponCode, error) {
	var c models.CouponCode
	err := s.db.WithContext(ctx).First(&c, "deal_id = ? AND code = ?", dealID, code).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrInvalidCode
	}
	if err != nil {
		return nil, errors.Wrap(err, "load coupon code")
	}
	return &c, nil
}

// RedeemCode marks an issued code redeemed with a conditional update, then
// stamps verifiedAt on the linked redemption or records a new one when the
// holder never redeemed online.
func (s *Store) RedeemCode(ctx context.Context, code *models.CouponCode, deal *models.Deal, at time.Time) (*models.Redemption, error) {
	var out *models.Redemption
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Model(&models.CouponCode{}).
			Where("id = ? AND consumed = ? AND redeemed_at IS NULL", code.ID, true).
			Update("redeemed_at", at)
		if res.Error != nil {
			return errors.Wrap(res.Error, "mark code redeemed")
		}
		if res.RowsAffected == 0 {
			return ErrCodeAlreadyUsed
		}

		if code.RedemptionID != nil {
			var linked models.Redemption
			err := tx.First(&linked, "id = ?", *code.RedemptionID).Error
			if err == nil && linked.Status == models.RedemptionStatusRedeemed {
				if err := tx.Model(&linked).Update("verified_at", at).Error; err != nil {
					return errors.Wrap(err, "stamp verification")
				}
				linked.VerifiedAt = &at
				out = &linked
				return nil
			}
			if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
				return errors.Wrap(err, "load linked redemption")
			}
		}

		r := &models.Redemption{
			ID:           uuid.NewString(),
			DealID:       deal.ID,
			VendorID:     deal.VendorID,
			CouponCodeID: &code.ID,
			Source:       models.RedemptionSourceVendorVerify,
			Status:       models.RedemptionStatusRedeemed,
			RedeemedAt:   at,
			VerifiedAt:   &at,
		}
		if code.IssuedToUserID != nil {
			r.UserID = *code.IssuedToUserID
		}
		if err := tx.Create(r).Error; err != nil {
			return errors.Wrap(err, "insert verified redemption")
		}
		if err := tx.Model(&models.CouponCode{}).Where("id = ?", code.ID).Update("redemption_id", r.ID).Error; err != nil {
			return errors.Wrap(err, "link coupon code")
		}
		out = r
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// ExpireCode ends an issued code early; used when its redemption is voided.
func (s *Store) ExpireCode(ctx context.Context, codeID string, at time.Time) error {
	err := s.db.WithContext(ctx).Model(&models.CouponCode{}).
		Where("id = ? AND redeemed_at IS NULL", codeID).
		Update("expires_at", at).Error
	return errors.Wrap(err, "expire coupon code")
}

// AddCodes inserts codes into the deal pool, skipping any already present.
// It returns how many were added.
func (s *Store) AddCodes(ctx context.Context, dealID string, codes []string) (int, error) {
	if len(codes) == 0 {
		return 0, nil
	}
	now := time.Now().UTC()
	rows := make([]models.CouponCode, 0, len(codes))
	for i, c := range codes {
		rows = append(rows, models.CouponCode{
			ID:        uuid.NewString(),
			DealID:    dealID,
			Code:      c,
			CreatedAt: now.Add(time.Duration(i) * time.Microsecond),
		})
	}
	res := s.db.WithContext(ctx).
		Clauses(clause.OnConflict{DoNothing: true}).
		CreateInBatches(&rows, 500)
	if res.Error != nil {
		return 0, errors.Wrap(res.Error, "insert coupon codes")
	}
	return int(res.RowsAffected), nil
}

func (s *Store) CodeStats(ctx context.Context, dealID string, now time.Time) (CodeStats, error) {
	var stats CodeStats
	base := func() *gorm.DB {
		return s.db.WithContext(ctx).Model(&models.CouponCode{}).Where("deal_id = ?", dealID)
	}
	if err := base().Count(&stats.Total).Error; err != nil {
		return stats, errors.Wrap(err, "count codes")
	}
	if err := base().Where("consumed = ?", false).Count(&stats.Available).Error; err != nil {
		return stats, errors.Wrap(err, "count available codes")
	}
	if err := base().Where("redeemed_at IS NOT NULL").Count(&stats.Redeemed).Error; err != nil {
		return stats, errors.Wrap(err, "count redeemed codes")
	}

	var pending []models.CouponCode
	if err := base().Where("consumed = ? AND redeemed_at IS NULL", true).Select("id", "expires_at", "consumed").Find(&pending).Error; err != nil {
		return stats, errors.Wrap(err, "load issued codes")
	}
	for i := range pending {
		if pending[i].State(now) == models.CodeStateExpired {
			stats.Expired++
		} else {
			stats.Issued++
		}
	}
	return stats, nil
}
