// Package billing sells the Rise Local Pass and checks out carts through
// Stripe. Webhooks are the only writer of a user's membership state.
package billing

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"rise_local_back_end/internal/cart"
	"rise_local_back_end/internal/membership"
	"rise_local_back_end/internal/models"
)

var (
	ErrNotConfigured    = errors.New("payments not configured")
	ErrInvalidSignature = errors.New("invalid webhook signature")
	ErrNoCustomer       = errors.New("no billing account for user")
	ErrAlreadyMember    = errors.New("pass already active")
)

// Invalidator drops cached eligibility for a user.
type Invalidator interface {
	InvalidateUser(ctx context.Context, userID string)
}

type Notifier interface {
	PassActivated(user *models.User)
	OrderPaid(user *models.User, order *models.Order)
}

type Options struct {
	FrontendURL string
	Currency    string
	TaxRate     decimal.Decimal
	Carts       cart.Repository
	Invalidator Invalidator
	Notifier    Notifier
	Now         func() time.Time
}

type Service struct {
	db       *gorm.DB
	provider Provider
	opts     Options
}

func NewService(db *gorm.DB, provider Provider, opts Options) *Service {
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if opts.Currency == "" {
		opts.Currency = "usd"
	}
	return &Service{db: db, provider: provider, opts: opts}
}

type PassStatus struct {
	Active    bool       `json:"active"`
	ExpiresAt *time.Time `json:"expiresAt,omitempty"`
	CanManage bool       `json:"canManage"`
}

func (s *Service) PassStatus(user *models.User) PassStatus {
	return PassStatus{
		Active:    membership.IsActive(user, s.opts.Now().UTC()),
		ExpiresAt: user.PassExpiresAt,
		CanManage: user.StripeCustomerID != "",
	}
}

// StartPassCheckout returns the hosted checkout URL for the Pass
// subscription.
func (s *Service) StartPassCheckout(ctx context.Context, user *models.User) (string, error) {
	if s.provider == nil {
		return "", ErrNotConfigured
	}
	if membership.IsActive(user, s.opts.Now().UTC()) && user.StripeSubscriptionID != "" {
		return "", ErrAlreadyMember
	}
	cs, err := s.provider.PassCheckout(user,
		s.opts.FrontendURL+"/pass/success?session_id={CHECKOUT_SESSION_ID}",
		s.opts.FrontendURL+"/pass")
	if err != nil {
		return "", err
	}
	log.Info().Str("user_id", user.ID).Str("session_id", cs.ID).Msg("💳 Pass checkout started")
	return cs.URL, nil
}

func (s *Service) Portal(ctx context.Context, user *models.User) (string, error) {
	if s.provider == nil {
		return "", ErrNotConfigured
	}
	if user.StripeCustomerID == "" {
		return "", ErrNoCustomer
	}
	return s.provider.Portal(user.StripeCustomerID, s.opts.FrontendURL+"/account")
}

// Checkout turns the user's cart into a pending order and a hosted payment
// page. The cart is cleared only once Stripe confirms payment.
func (s *Service) Checkout(ctx context.Context, user *models.User) (*models.Order, string, error) {
	if s.provider == nil {
		return nil, "", ErrNotConfigured
	}
	c, err := s.opts.Carts.Load(ctx, user.ID)
	if err != nil {
		return nil, "", err
	}
	if c.IsEmpty() {
		return nil, "", cart.ErrEmptyCart
	}

	totals := c.Totals(s.opts.TaxRate)
	order := &models.Order{
		ID:            uuid.NewString(),
		UserID:        user.ID,
		SubtotalCents: cart.ToCents(totals.Subtotal),
		TaxCents:      cart.ToCents(totals.Tax),
		TotalCents:    cart.ToCents(totals.Total),
		Currency:      s.opts.Currency,
		Status:        models.OrderStatusPending,
	}
	for _, it := range c.Items {
		order.Items = append(order.Items, models.OrderItem{
			ID:             uuid.NewString(),
			OrderID:        order.ID,
			ProductID:      it.ProductID,
			VendorID:       it.VendorID,
			Name:           it.Name,
			UnitPriceCents: it.UnitPriceCents,
			Quantity:       it.Quantity,
		})
	}

	if err := s.db.WithContext(ctx).Create(order).Error; err != nil {
		return nil, "", errors.Wrap(err, "create order")
	}

	cs, err := s.provider.OrderCheckout(user, order,
		s.opts.FrontendURL+"/orders/"+order.ID+"?paid=1",
		s.opts.FrontendURL+"/cart")
	if err != nil {
		if uerr := s.db.WithContext(ctx).Model(order).Update("status", models.OrderStatusCancelled).Error; uerr != nil {
			log.Error().Err(uerr).Str("order_id", order.ID).Msg("❌ Failed to cancel order after checkout error")
		}
		return nil, "", err
	}
	order.StripeSessionID = cs.ID
	if err := s.db.WithContext(ctx).Model(order).Update("stripe_session_id", cs.ID).Error; err != nil {
		return nil, "", errors.Wrap(err, "save checkout session")
	}

	log.Info().Str("order_id", order.ID).Int64("total_cents", order.TotalCents).Msg("🛒 Order checkout started")
	return order, cs.URL, nil
}

func (s *Service) Orders(ctx context.Context, userID string) ([]models.Order, error) {
	var orders []models.Order
	err := s.db.WithContext(ctx).Preload("Items").
		Where("user_id = ?", userID).Order("created_at DESC").Find(&orders).Error
	return orders, errors.Wrap(err, "list orders")
}
