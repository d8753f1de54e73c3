package utils

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"rise_local_back_end/internal/config"
)

func TestRenderRedemptionEmail(t *testing.T) {
	html, err := RenderRedemptionEmail(RedemptionEmail{
		Name:       "Sam",
		DealTitle:  "Free pastry <with coffee>",
		VendorName: "Corner Bakery",
		Code:       "123456",
		RedeemedAt: time.Date(2026, 10, 14, 15, 4, 0, 0, time.UTC),
	})
	require.NoError(t, err)
	assert.Contains(t, html, "Deal redeemed")
	assert.Contains(t, html, "Corner Bakery")
	assert.Contains(t, html, "123456")
	assert.Contains(t, html, "Free pastry &lt;with coffee&gt;")
	assert.Contains(t, html, "Oct 14, 2026")
}

func TestRenderOrderEmail(t *testing.T) {
	html, err := RenderOrderEmail(OrderEmail{
		Name:    "Sam",
		OrderID: "abc",
		Lines:   []OrderLine{{Name: "Mug", Quantity: 2, Total: "25.00"}},
		Tax:     "2.06",
		Total:   "27.06",
	})
	require.NoError(t, err)
	assert.Contains(t, html, "#abc")
	assert.Contains(t, html, "$27.06")
}

func TestMailerDisabledWithoutHost(t *testing.T) {
	m := NewMailer(config.SMTPConfig{})
	assert.False(t, m.Enabled())
	assert.NoError(t, m.Send("a@b.c", "hi", "<p>hi</p>"))
}
