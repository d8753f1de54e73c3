// Package handlers holds the response helpers shared by the HTTP handler
// packages under it.
package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
	"gorm.io/gorm"

	"rise_local_back_end/internal/billing"
	"rise_local_back_end/internal/cart"
	"rise_local_back_end/internal/messaging"
	"rise_local_back_end/internal/models"
	"rise_local_back_end/internal/redemption"
	"rise_local_back_end/internal/services"
	"rise_local_back_end/internal/utils"
)

type mapping struct {
	status int
	code   string
}

var errorMap = []struct {
	err error
	mapping
}{
	{redemption.ErrDealNotFound, mapping{http.StatusNotFound, "deal_not_found"}},
	{redemption.ErrUserNotFound, mapping{http.StatusNotFound, "user_not_found"}},
	{redemption.ErrRedemptionNotFound, mapping{http.StatusNotFound, "redemption_not_found"}},
	{redemption.ErrCodeExpired, mapping{http.StatusGone, "code_expired"}},
	{redemption.ErrCodeAlreadyUsed, mapping{http.StatusConflict, "code_already_used"}},
	{redemption.ErrInvalidCodeFormat, mapping{http.StatusBadRequest, "invalid_code_format"}},
	{redemption.ErrInvalidCodes, mapping{http.StatusBadRequest, "invalid_code_format"}},
	{redemption.ErrInvalidCode, mapping{http.StatusNotFound, "invalid_code"}},
	{redemption.ErrUnauthorized, mapping{http.StatusForbidden, "unauthorized"}},
	{redemption.ErrAlreadyVoided, mapping{http.StatusConflict, "already_voided"}},
	{redemption.ErrUndoWindowElapsed, mapping{http.StatusConflict, "undo_window_elapsed"}},
	{redemption.ErrVerifiedRedemption, mapping{http.StatusConflict, "verified_redemption"}},
	{redemption.ErrNoCode, mapping{http.StatusConflict, "no_code"}},
	{cart.ErrInvalidQuantity, mapping{http.StatusBadRequest, "invalid_quantity"}},
	{cart.ErrItemNotFound, mapping{http.StatusNotFound, "item_not_found"}},
	{cart.ErrEmptyCart, mapping{http.StatusBadRequest, "empty_cart"}},
	{messaging.ErrConversationNotFound, mapping{http.StatusNotFound, "conversation_not_found"}},
	{messaging.ErrNotParticipant, mapping{http.StatusForbidden, "unauthorized"}},
	{messaging.ErrEmptyBody, mapping{http.StatusBadRequest, "invalid_message"}},
	{messaging.ErrBodyTooLong, mapping{http.StatusBadRequest, "invalid_message"}},
	{messaging.ErrUnavailable, mapping{http.StatusServiceUnavailable, "unavailable"}},
	{billing.ErrNotConfigured, mapping{http.StatusServiceUnavailable, "unavailable"}},
	{billing.ErrInvalidSignature, mapping{http.StatusBadRequest, "invalid_signature"}},
	{billing.ErrNoCustomer, mapping{http.StatusConflict, "no_billing_account"}},
	{billing.ErrAlreadyMember, mapping{http.StatusConflict, "already_member"}},
	{services.ErrStorageUnavailable, mapping{http.StatusServiceUnavailable, "unavailable"}},
	{utils.ErrAuditUnavailable, mapping{http.StatusServiceUnavailable, "unavailable"}},
	{gorm.ErrRecordNotFound, mapping{http.StatusNotFound, "not_found"}},
}

// Error answers err as `{error, code}` JSON. Unknown errors are logged and
// hidden behind a 500.
func Error(c *gin.Context, err error) {
	if ne, ok := redemption.IsNotEligible(err); ok {
		c.JSON(http.StatusForbidden, gin.H{
			"success":   false,
			"canRedeem": false,
			"reason":    ne.Reason,
			"error":     ne.Reason,
			"code":      "not_eligible",
		})
		return
	}
	for _, m := range errorMap {
		if errors.Is(err, m.err) {
			Fail(c, m.status, m.err.Error(), m.code)
			return
		}
	}
	log.Error().Err(err).Str("path", c.Request.URL.Path).Msg("❌ Unhandled error")
	Fail(c, http.StatusInternalServerError, "internal server error", "internal")
}

func Fail(c *gin.Context, status int, msg, code string) {
	c.JSON(status, gin.H{"error": msg, "code": code})
}

func BadRequest(c *gin.Context, msg string) {
	Fail(c, http.StatusBadRequest, msg, "invalid_request")
}

// CurrentUser loads the authenticated user. On failure it has already
// answered the request.
func CurrentUser(c *gin.Context, db *gorm.DB) (*models.User, bool) {
	userID := c.GetString("user_id")
	if userID == "" {
		Fail(c, http.StatusUnauthorized, "authentication required", "unauthenticated")
		return nil, false
	}
	var user models.User
	if err := db.WithContext(c.Request.Context()).First(&user, "id = ?", userID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			Fail(c, http.StatusUnauthorized, "account no longer exists", "unauthenticated")
			return nil, false
		}
		Error(c, err)
		return nil, false
	}
	return &user, true
}

// OptionalUser loads the caller when a token was sent.
func OptionalUser(c *gin.Context, db *gorm.DB) *models.User {
	userID := c.GetString("user_id")
	if userID == "" {
		return nil
	}
	var user models.User
	if err := db.WithContext(c.Request.Context()).First(&user, "id = ?", userID).Error; err != nil {
		return nil
	}
	return &user
}
