package redemption

import (
	"fmt"

	"github.com/pkg/errors"
)

var (
	ErrDealNotFound       = errors.New("deal not found")
	ErrUserNotFound       = errors.New("user not found")
	ErrRedemptionNotFound = errors.New("redemption not found")
	ErrPoolEmpty          = errors.New("no codes left for this deal")
	ErrNoCode             = errors.New("this deal does not use a code")
	ErrCodeExpired        = errors.New("code has expired")
	ErrCodeAlreadyUsed    = errors.New("code has already been used")
	ErrInvalidCodeFormat  = errors.New("code must be 6 digits")
	ErrInvalidCode        = errors.New("code not recognized for this deal")
	ErrUnauthorized       = errors.New("not allowed to act on this resource")
	ErrAlreadyVoided      = errors.New("redemption already voided")
	ErrUndoWindowElapsed  = errors.New("undo window has elapsed")
	ErrVerifiedRedemption = errors.New("redemption was verified in store and cannot be undone")
	ErrInvalidCodes       = errors.New("codes must be 6 digits")
)

// NotEligibleError carries the user-facing reason a redemption is refused.
type NotEligibleError struct {
	Reason string
}

func (e *NotEligibleError) Error() string {
	return fmt.Sprintf("not eligible: %s", e.Reason)
}

func IsNotEligible(err error) (*NotEligibleError, bool) {
	var ne *NotEligibleError
	if errors.As(err, &ne) {
		return ne, true
	}
	return nil, false
}
