package billing

import (
	"context"
	"encoding/json"
	"time"

	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
	"github.com/stripe/stripe-go/v83"
	"gorm.io/gorm"

	"rise_local_back_end/internal/models"
)

func (s *Service) ParseWebhook(payload []byte, signature string) (stripe.Event, error) {
	if s.provider == nil {
		return stripe.Event{}, ErrNotConfigured
	}
	return s.provider.ParseWebhook(payload, signature)
}

// HandleEvent applies a verified Stripe event. Replays are harmless.
func (s *Service) HandleEvent(ctx context.Context, event stripe.Event) error {
	log.Info().Str("type", string(event.Type)).Str("event_id", event.ID).Msg("📥 Stripe event received")
	if event.Data == nil {
		return errors.New("event without data")
	}

	switch event.Type {
	case "customer.subscription.created", "customer.subscription.updated", "customer.subscription.deleted":
		var sub stripe.Subscription
		if err := json.Unmarshal(event.Data.Raw, &sub); err != nil {
			return errors.Wrap(err, "decode subscription")
		}
		return s.applySubscription(ctx, &sub, event.Type == "customer.subscription.deleted")

	case "checkout.session.completed":
		var cs stripe.CheckoutSession
		if err := json.Unmarshal(event.Data.Raw, &cs); err != nil {
			return errors.Wrap(err, "decode checkout session")
		}
		if cs.Mode == stripe.CheckoutSessionModeSubscription {
			return s.linkCustomer(ctx, &cs)
		}
		return s.markOrderPaid(ctx, &cs)

	default:
		log.Debug().Str("type", string(event.Type)).Msg("ℹ️ Stripe event ignored")
		return nil
	}
}

func (s *Service) applySubscription(ctx context.Context, sub *stripe.Subscription, deleted bool) error {
	user, err := s.subscriber(ctx, sub)
	if err != nil {
		return err
	}
	wasActive := user.IsPassMember

	updates := map[string]interface{}{}
	switch {
	case deleted, !subscriptionGrantsPass(sub.Status):
		updates["is_pass_member"] = false
		updates["pass_expires_at"] = s.opts.Now().UTC()
	default:
		updates["is_pass_member"] = true
		updates["pass_expires_at"] = periodEnd(sub)
		updates["stripe_subscription_id"] = sub.ID
	}
	if sub.Customer != nil && sub.Customer.ID != "" {
		updates["stripe_customer_id"] = sub.Customer.ID
	}

	if err := s.db.WithContext(ctx).Model(&models.User{}).Where("id = ?", user.ID).Updates(updates).Error; err != nil {
		return errors.Wrap(err, "update membership")
	}
	if s.opts.Invalidator != nil {
		s.opts.Invalidator.InvalidateUser(ctx, user.ID)
	}

	active := updates["is_pass_member"].(bool)
	log.Info().Str("user_id", user.ID).Str("status", string(sub.Status)).Bool("pass", active).Msg("🎫 Pass membership updated")
	if active && !wasActive && s.opts.Notifier != nil {
		if err := s.db.WithContext(ctx).First(user, "id = ?", user.ID).Error; err == nil {
			s.opts.Notifier.PassActivated(user)
		}
	}
	return nil
}

// subscriber resolves the subscription owner from its metadata, falling
// back to the Stripe customer id.
func (s *Service) subscriber(ctx context.Context, sub *stripe.Subscription) (*models.User, error) {
	db := s.db.WithContext(ctx)
	var user models.User
	if id := sub.Metadata["user_id"]; id != "" {
		if err := db.First(&user, "id = ?", id).Error; err == nil {
			return &user, nil
		}
	}
	if sub.Customer != nil && sub.Customer.ID != "" {
		err := db.First(&user, "stripe_customer_id = ?", sub.Customer.ID).Error
		if err == nil {
			return &user, nil
		}
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errors.Wrap(err, "lookup subscriber")
		}
	}
	return nil, errors.Errorf("no user for subscription %s", sub.ID)
}

func subscriptionGrantsPass(status stripe.SubscriptionStatus) bool {
	switch status {
	case stripe.SubscriptionStatusActive, stripe.SubscriptionStatusTrialing, stripe.SubscriptionStatusPastDue:
		return true
	}
	return false
}

func periodEnd(sub *stripe.Subscription) *time.Time {
	if sub.Items == nil || len(sub.Items.Data) == 0 || sub.Items.Data[0].CurrentPeriodEnd == 0 {
		return nil
	}
	t := time.Unix(sub.Items.Data[0].CurrentPeriodEnd, 0).UTC()
	return &t
}

func (s *Service) linkCustomer(ctx context.Context, cs *stripe.CheckoutSession) error {
	if cs.ClientReferenceID == "" || cs.Customer == nil {
		return nil
	}
	updates := map[string]interface{}{"stripe_customer_id": cs.Customer.ID}
	if cs.Subscription != nil && cs.Subscription.ID != "" {
		updates["stripe_subscription_id"] = cs.Subscription.ID
	}
	err := s.db.WithContext(ctx).Model(&models.User{}).Where("id = ?", cs.ClientReferenceID).Updates(updates).Error
	return errors.Wrap(err, "link stripe customer")
}

func (s *Service) markOrderPaid(ctx context.Context, cs *stripe.CheckoutSession) error {
	db := s.db.WithContext(ctx)
	var order models.Order
	q := db.Preload("Items")
	if id := cs.Metadata["order_id"]; id != "" {
		q = q.Where("id = ?", id)
	} else {
		q = q.Where("stripe_session_id = ?", cs.ID)
	}
	if err := q.First(&order).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			log.Warn().Str("session_id", cs.ID).Msg("⚠️ Checkout completed for unknown order")
			return nil
		}
		return errors.Wrap(err, "lookup order")
	}

	now := s.opts.Now().UTC()
	res := db.Model(&models.Order{}).
		Where("id = ? AND status = ?", order.ID, models.OrderStatusPending).
		Updates(map[string]interface{}{"status": models.OrderStatusPaid, "paid_at": now})
	if res.Error != nil {
		return errors.Wrap(res.Error, "mark order paid")
	}
	if res.RowsAffected == 0 {
		log.Info().Str("order_id", order.ID).Msg("🔁 Order already processed")
		return nil
	}
	order.Status = models.OrderStatusPaid
	order.PaidAt = &now
	log.Info().Str("order_id", order.ID).Str("user_id", order.UserID).Msg("✅ Order paid")

	if s.opts.Carts != nil {
		if err := s.opts.Carts.Clear(ctx, order.UserID); err != nil {
			log.Warn().Err(err).Str("user_id", order.UserID).Msg("⚠️ Cart not cleared after payment")
		}
	}
	if s.opts.Notifier != nil {
		var user models.User
		if err := db.First(&user, "id = ?", order.UserID).Error; err == nil {
			s.opts.Notifier.OrderPaid(&user, &order)
		}
	}
	return nil
}
