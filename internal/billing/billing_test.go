package billing

import (
	"context"
	"encoding/json"
	"fmt"
	"testing"
	"time"

	"github.com/pkg/errors"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stripe/stripe-go/v83"
	"gorm.io/gorm"

	"rise_local_back_end/internal/cart"
	"rise_local_back_end/internal/models"
	"rise_local_back_end/internal/testsuit"
)

type fakeProvider struct {
	orders   int
	orderErr error
}

func (f *fakeProvider) PassCheckout(user *models.User, successURL, cancelURL string) (*CheckoutSession, error) {
	return &CheckoutSession{ID: "cs_pass", URL: "https://checkout.stripe.test/pass"}, nil
}

func (f *fakeProvider) OrderCheckout(user *models.User, order *models.Order, successURL, cancelURL string) (*CheckoutSession, error) {
	if f.orderErr != nil {
		return nil, f.orderErr
	}
	f.orders++
	return &CheckoutSession{ID: fmt.Sprintf("cs_order_%d", f.orders), URL: "https://checkout.stripe.test/order"}, nil
}

func (f *fakeProvider) Portal(customerID, returnURL string) (string, error) {
	return "https://billing.stripe.test/" + customerID, nil
}

func (f *fakeProvider) ParseWebhook(payload []byte, signature string) (stripe.Event, error) {
	var e stripe.Event
	err := json.Unmarshal(payload, &e)
	return e, err
}

type recorder struct {
	invalidated []string
	activated   []string
	paid        []string
}

func (r *recorder) InvalidateUser(_ context.Context, userID string) {
	r.invalidated = append(r.invalidated, userID)
}

func (r *recorder) PassActivated(user *models.User) { r.activated = append(r.activated, user.ID) }

func (r *recorder) OrderPaid(_ *models.User, order *models.Order) {
	r.paid = append(r.paid, order.ID)
}

type fixture struct {
	db    *gorm.DB
	svc   *Service
	carts *cart.MemoryRepository
	rec   *recorder
	clock *testsuit.Clock
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	f := &fixture{
		db:    testsuit.InitSQLite(),
		carts: cart.NewMemoryRepository(),
		rec:   &recorder{},
		clock: testsuit.NewClock(time.Date(2026, 10, 14, 12, 0, 0, 0, time.UTC)),
	}
	f.svc = NewService(f.db, &fakeProvider{}, Options{
		FrontendURL: "http://localhost:3000",
		TaxRate:     decimal.RequireFromString("0.0825"),
		Carts:       f.carts,
		Invalidator: f.rec,
		Notifier:    f.rec,
		Now:         f.clock.Now,
	})
	return f
}

func subscriptionEvent(t *testing.T, typ, userID, status string, periodEnd int64) stripe.Event {
	t.Helper()
	raw := fmt.Sprintf(`{"id":"sub_1","object":"subscription","status":%q,"customer":"cus_1","metadata":{"user_id":%q},
		"items":{"object":"list","data":[{"id":"si_1","object":"subscription_item","current_period_end":%d}]}}`,
		status, userID, periodEnd)
	return stripe.Event{ID: "evt_" + typ, Type: stripe.EventType(typ), Data: &stripe.EventData{Raw: json.RawMessage(raw)}}
}

func reload(t *testing.T, db *gorm.DB, id string) *models.User {
	t.Helper()
	var u models.User
	require.NoError(t, db.First(&u, "id = ?", id).Error)
	return &u
}

func TestSubscriptionLifecycle(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	user := testsuit.CreateUser(f.db)
	end := f.clock.Now().Add(30 * 24 * time.Hour).Unix()

	require.NoError(t, f.svc.HandleEvent(ctx, subscriptionEvent(t, "customer.subscription.created", user.ID, "active", end)))
	u := reload(t, f.db, user.ID)
	assert.True(t, u.IsPassMember)
	require.NotNil(t, u.PassExpiresAt)
	assert.Equal(t, end, u.PassExpiresAt.Unix())
	assert.Equal(t, "cus_1", u.StripeCustomerID)
	assert.Equal(t, "sub_1", u.StripeSubscriptionID)
	assert.True(t, f.svc.PassStatus(u).Active)
	assert.Equal(t, []string{user.ID}, f.rec.activated)

	// Replayed update does not re-send the welcome e-mail.
	require.NoError(t, f.svc.HandleEvent(ctx, subscriptionEvent(t, "customer.subscription.updated", user.ID, "active", end)))
	assert.Len(t, f.rec.activated, 1)

	require.NoError(t, f.svc.HandleEvent(ctx, subscriptionEvent(t, "customer.subscription.deleted", user.ID, "canceled", end)))
	u = reload(t, f.db, user.ID)
	assert.False(t, u.IsPassMember)
	assert.False(t, f.svc.PassStatus(u).Active)
	assert.Equal(t, []string{user.ID, user.ID, user.ID}, f.rec.invalidated)
}

func TestSubscriptionResolvedByCustomer(t *testing.T) {
	f := newFixture(t)
	user := testsuit.CreateUser(f.db, func(u *models.User) { u.StripeCustomerID = "cus_1" })

	require.NoError(t, f.svc.HandleEvent(context.Background(), subscriptionEvent(t, "customer.subscription.updated", "", "trialing", 0)))
	u := reload(t, f.db, user.ID)
	assert.True(t, u.IsPassMember)
	assert.Nil(t, u.PassExpiresAt)
}

func TestUnpaidSubscriptionRevokesPass(t *testing.T) {
	f := newFixture(t)
	user := testsuit.CreateUser(f.db, func(u *models.User) { u.IsPassMember = true })

	require.NoError(t, f.svc.HandleEvent(context.Background(), subscriptionEvent(t, "customer.subscription.updated", user.ID, "unpaid", 0)))
	assert.False(t, reload(t, f.db, user.ID).IsPassMember)
}

func TestCheckoutAndPayment(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	user := testsuit.CreateUser(f.db)

	_, _, err := f.svc.Checkout(ctx, user)
	assert.ErrorIs(t, err, cart.ErrEmptyCart)

	c := cart.New(user.ID)
	require.NoError(t, c.Add(models.CartItem{ProductID: "p1", VendorID: "v1", Name: "Mug", UnitPriceCents: 1250, Quantity: 2}))
	require.NoError(t, f.carts.Save(ctx, c))

	order, url, err := f.svc.Checkout(ctx, user)
	require.NoError(t, err)
	assert.Equal(t, "https://checkout.stripe.test/order", url)
	assert.Equal(t, int64(2500), order.SubtotalCents)
	assert.Equal(t, int64(206), order.TaxCents)
	assert.Equal(t, int64(2706), order.TotalCents)
	assert.Equal(t, models.OrderStatusPending, order.Status)

	raw := fmt.Sprintf(`{"id":"cs_order_1","object":"checkout.session","mode":"payment","client_reference_id":%q,"metadata":{"order_id":%q}}`, user.ID, order.ID)
	event := stripe.Event{Type: "checkout.session.completed", Data: &stripe.EventData{Raw: json.RawMessage(raw)}}
	require.NoError(t, f.svc.HandleEvent(ctx, event))
	require.NoError(t, f.svc.HandleEvent(ctx, event))

	orders, err := f.svc.Orders(ctx, user.ID)
	require.NoError(t, err)
	require.Len(t, orders, 1)
	assert.Equal(t, models.OrderStatusPaid, orders[0].Status)
	assert.NotNil(t, orders[0].PaidAt)
	assert.Len(t, orders[0].Items, 1)
	assert.Equal(t, []string{order.ID}, f.rec.paid)

	left, err := f.carts.Load(ctx, user.ID)
	require.NoError(t, err)
	assert.True(t, left.IsEmpty())
}

func TestCheckoutProviderFailureCancelsOrder(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	user := testsuit.CreateUser(f.db)
	f.svc.provider = &fakeProvider{orderErr: errors.New("stripe down")}

	c := cart.New(user.ID)
	require.NoError(t, c.Add(models.CartItem{ProductID: "p1", VendorID: "v1", Name: "Mug", UnitPriceCents: 1250, Quantity: 1}))
	require.NoError(t, f.carts.Save(ctx, c))

	_, _, err := f.svc.Checkout(ctx, user)
	assert.EqualError(t, err, "stripe down")

	var orders []models.Order
	require.NoError(t, f.db.Where("user_id = ?", user.ID).Find(&orders).Error)
	require.Len(t, orders, 1)
	assert.Equal(t, models.OrderStatusCancelled, orders[0].Status)

	left, err := f.carts.Load(ctx, user.ID)
	require.NoError(t, err)
	assert.False(t, left.IsEmpty())
}

func TestSubscriptionCheckoutLinksCustomer(t *testing.T) {
	f := newFixture(t)
	user := testsuit.CreateUser(f.db)

	raw := fmt.Sprintf(`{"id":"cs_pass","object":"checkout.session","mode":"subscription","client_reference_id":%q,"customer":"cus_9","subscription":"sub_9"}`, user.ID)
	require.NoError(t, f.svc.HandleEvent(context.Background(), stripe.Event{
		Type: "checkout.session.completed",
		Data: &stripe.EventData{Raw: json.RawMessage(raw)},
	}))
	u := reload(t, f.db, user.ID)
	assert.Equal(t, "cus_9", u.StripeCustomerID)
	assert.Equal(t, "sub_9", u.StripeSubscriptionID)

	portal, err := f.svc.Portal(context.Background(), u)
	require.NoError(t, err)
	assert.Equal(t, "https://billing.stripe.test/cus_9", portal)
}

func TestPortalWithoutCustomer(t *testing.T) {
	f := newFixture(t)
	_, err := f.svc.Portal(context.Background(), &models.User{ID: "u"})
	assert.ErrorIs(t, err, ErrNoCustomer)
}
