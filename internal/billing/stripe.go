package billing

import (
	"github.com/pkg/errors"
	"github.com/stripe/stripe-go/v83"
	portalsession "github.com/stripe/stripe-go/v83/billingportal/session"
	"github.com/stripe/stripe-go/v83/checkout/session"
	"github.com/stripe/stripe-go/v83/webhook"

	"rise_local_back_end/internal/models"
)

// Provider creates hosted payment pages. StripeProvider is the production
// implementation; tests use a fake.
type Provider interface {
	PassCheckout(user *models.User, successURL, cancelURL string) (*CheckoutSession, error)
	OrderCheckout(user *models.User, order *models.Order, successURL, cancelURL string) (*CheckoutSession, error)
	Portal(customerID, returnURL string) (string, error)
	ParseWebhook(payload []byte, signature string) (stripe.Event, error)
}

type CheckoutSession struct {
	ID  string
	URL string
}

// StripeProvider talks to Stripe with the process-wide stripe.Key.
type StripeProvider struct {
	passPriceID   string
	currency      string
	webhookSecret string
}

func NewStripeProvider(passPriceID, currency, webhookSecret string) *StripeProvider {
	return &StripeProvider{passPriceID: passPriceID, currency: currency, webhookSecret: webhookSecret}
}

func (p *StripeProvider) PassCheckout(user *models.User, successURL, cancelURL string) (*CheckoutSession, error) {
	if p.passPriceID == "" {
		return nil, ErrNotConfigured
	}
	params := &stripe.CheckoutSessionParams{
		Mode:              stripe.String(string(stripe.CheckoutSessionModeSubscription)),
		ClientReferenceID: stripe.String(user.ID),
		SuccessURL:        stripe.String(successURL),
		CancelURL:         stripe.String(cancelURL),
		LineItems: []*stripe.CheckoutSessionLineItemParams{{
			Price:    stripe.String(p.passPriceID),
			Quantity: stripe.Int64(1),
		}},
		SubscriptionData: &stripe.CheckoutSessionSubscriptionDataParams{
			Metadata: map[string]string{"user_id": user.ID},
		},
	}
	if user.StripeCustomerID != "" {
		params.Customer = stripe.String(user.StripeCustomerID)
	} else {
		params.CustomerEmail = stripe.String(user.Email)
	}

	s, err := session.New(params)
	if err != nil {
		return nil, errors.Wrap(err, "stripe pass checkout")
	}
	return &CheckoutSession{ID: s.ID, URL: s.URL}, nil
}

func (p *StripeProvider) OrderCheckout(user *models.User, order *models.Order, successURL, cancelURL string) (*CheckoutSession, error) {
	params := &stripe.CheckoutSessionParams{
		Mode:              stripe.String(string(stripe.CheckoutSessionModePayment)),
		ClientReferenceID: stripe.String(user.ID),
		CustomerEmail:     stripe.String(user.Email),
		SuccessURL:        stripe.String(successURL),
		CancelURL:         stripe.String(cancelURL),
		Metadata: map[string]string{
			"order_id": order.ID,
			"user_id":  user.ID,
		},
	}
	for _, it := range order.Items {
		params.LineItems = append(params.LineItems, &stripe.CheckoutSessionLineItemParams{
			Quantity: stripe.Int64(int64(it.Quantity)),
			PriceData: &stripe.CheckoutSessionLineItemPriceDataParams{
				Currency:   stripe.String(order.Currency),
				UnitAmount: stripe.Int64(it.UnitPriceCents),
				ProductData: &stripe.CheckoutSessionLineItemPriceDataProductDataParams{
					Name:     stripe.String(it.Name),
					Metadata: map[string]string{"product_id": it.ProductID},
				},
			},
		})
	}
	if order.TaxCents > 0 {
		params.LineItems = append(params.LineItems, &stripe.CheckoutSessionLineItemParams{
			Quantity: stripe.Int64(1),
			PriceData: &stripe.CheckoutSessionLineItemPriceDataParams{
				Currency:   stripe.String(order.Currency),
				UnitAmount: stripe.Int64(order.TaxCents),
				ProductData: &stripe.CheckoutSessionLineItemPriceDataProductDataParams{
					Name: stripe.String("Sales tax"),
				},
			},
		})
	}

	s, err := session.New(params)
	if err != nil {
		return nil, errors.Wrap(err, "stripe order checkout")
	}
	return &CheckoutSession{ID: s.ID, URL: s.URL}, nil
}

func (p *StripeProvider) Portal(customerID, returnURL string) (string, error) {
	s, err := portalsession.New(&stripe.BillingPortalSessionParams{
		Customer:  stripe.String(customerID),
		ReturnURL: stripe.String(returnURL),
	})
	if err != nil {
		return "", errors.Wrap(err, "stripe billing portal")
	}
	return s.URL, nil
}

func (p *StripeProvider) ParseWebhook(payload []byte, signature string) (stripe.Event, error) {
	if p.webhookSecret == "" {
		return stripe.Event{}, ErrNotConfigured
	}
	event, err := webhook.ConstructEventWithOptions(payload, signature, p.webhookSecret,
		webhook.ConstructEventOptions{IgnoreAPIVersionMismatch: true})
	if err != nil {
		return stripe.Event{}, errors.Wrap(ErrInvalidSignature, err.Error())
	}
	return event, nil
}
