package services

import (
	"context"

	"github.com/rs/zerolog/log"
	"gorm.io/gorm"

	"rise_local_back_end/internal/cart"
	"rise_local_back_end/internal/models"
	"rise_local_back_end/internal/utils"
)

// sender is satisfied by *utils.Mailer.
type sender interface {
	Send(to, subject, htmlBody string, attachments ...utils.Attachment) error
}

// EmailNotifier sends transactional e-mail. Every send runs in its own
// goroutine and failures are only logged.
type EmailNotifier struct {
	db          *gorm.DB
	mail        sender
	frontendURL string
	// async is false in tests so sends complete before assertions.
	async bool
}

func NewEmailNotifier(db *gorm.DB, mail sender, frontendURL string) *EmailNotifier {
	return &EmailNotifier{db: db, mail: mail, frontendURL: frontendURL, async: true}
}

func (n *EmailNotifier) RedemptionRecorded(ctx context.Context, r *models.Redemption, deal *models.Deal) {
	var user models.User
	if err := n.db.WithContext(ctx).Select("id", "name", "email").First(&user, "id = ?", r.UserID).Error; err != nil {
		log.Warn().Err(err).Str("user_id", r.UserID).Msg("⚠️ Redemption receipt skipped, user lookup failed")
		return
	}
	data := utils.RedemptionEmail{
		Name:       displayName(&user),
		DealTitle:  deal.Title,
		RedeemedAt: r.RedeemedAt,
	}
	if deal.Vendor != nil {
		data.VendorName = deal.Vendor.Name
	}
	if deal.CodeType == models.CodeTypeStatic {
		data.Code = deal.StaticCode
	}
	n.dispatch(user.Email, "You redeemed "+deal.Title, func() (string, error) {
		return utils.RenderRedemptionEmail(data)
	})
}

func (n *EmailNotifier) Welcome(user *models.User) {
	n.dispatch(user.Email, "Welcome to Rise Local", func() (string, error) {
		return utils.RenderWelcomeEmail(utils.WelcomeEmail{Name: displayName(user), FrontendURL: n.frontendURL})
	})
}

func (n *EmailNotifier) PassActivated(user *models.User) {
	n.dispatch(user.Email, "Your Rise Local Pass is active", func() (string, error) {
		return utils.RenderPassEmail(utils.PassEmail{Name: displayName(user), Until: user.PassExpiresAt, FrontendURL: n.frontendURL})
	})
}

func (n *EmailNotifier) OrderPaid(user *models.User, order *models.Order) {
	data := utils.OrderEmail{
		Name:    displayName(user),
		OrderID: order.ID,
		Tax:     cart.Cents(order.TaxCents).StringFixed(2),
		Total:   cart.Cents(order.TotalCents).StringFixed(2),
	}
	for _, it := range order.Items {
		data.Lines = append(data.Lines, utils.OrderLine{
			Name:     it.Name,
			Quantity: it.Quantity,
			Total:    cart.Cents(it.UnitPriceCents * int64(it.Quantity)).StringFixed(2),
		})
	}
	n.dispatch(user.Email, "Your Rise Local order is confirmed", func() (string, error) {
		return utils.RenderOrderEmail(data)
	})
}

func (n *EmailNotifier) dispatch(to, subject string, render func() (string, error)) {
	if n == nil || to == "" {
		return
	}
	send := func() {
		body, err := render()
		if err != nil {
			log.Error().Err(err).Str("subject", subject).Msg("❌ E-mail render failed")
			return
		}
		if err := n.mail.Send(to, subject, body); err != nil {
			log.Error().Err(err).Str("to", to).Msg("❌ E-mail send failed")
		}
	}
	if n.async {
		go send()
		return
	}
	send()
}

func displayName(u *models.User) string {
	if u.Name != "" {
		return u.Name
	}
	return "there"
}
