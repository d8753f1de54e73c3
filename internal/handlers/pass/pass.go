// Package pass serves Rise Local Pass billing and the Stripe webhook.
package pass

import (
	"io"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"
	"gorm.io/gorm"

	"rise_local_back_end/internal/billing"
	"rise_local_back_end/internal/handlers"
)

const maxWebhookBody = 64 << 10

type Handler struct {
	db      *gorm.DB
	billing *billing.Service
}

func NewHandler(db *gorm.DB, svc *billing.Service) *Handler {
	return &Handler{db: db, billing: svc}
}

// GET /api/me/pass
func (h *Handler) Status(c *gin.Context) {
	user, ok := handlers.CurrentUser(c, h.db)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, h.billing.PassStatus(user))
}

// POST /api/pass/checkout
func (h *Handler) Checkout(c *gin.Context) {
	user, ok := handlers.CurrentUser(c, h.db)
	if !ok {
		return
	}
	url, err := h.billing.StartPassCheckout(c.Request.Context(), user)
	if err != nil {
		handlers.Error(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"url": url})
}

// POST /api/pass/portal
func (h *Handler) Portal(c *gin.Context) {
	user, ok := handlers.CurrentUser(c, h.db)
	if !ok {
		return
	}
	url, err := h.billing.Portal(c.Request.Context(), user)
	if err != nil {
		handlers.Error(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"url": url})
}

// POST /api/stripe/webhook
func (h *Handler) Webhook(c *gin.Context) {
	payload, err := io.ReadAll(io.LimitReader(c.Request.Body, maxWebhookBody))
	if err != nil {
		handlers.BadRequest(c, "could not read body")
		return
	}
	event, err := h.billing.ParseWebhook(payload, c.GetHeader("Stripe-Signature"))
	if err != nil {
		log.Warn().Err(err).Msg("⚠️ Stripe webhook rejected")
		handlers.Error(c, err)
		return
	}
	if err := h.billing.HandleEvent(c.Request.Context(), event); err != nil {
		log.Error().Err(err).Str("type", string(event.Type)).Msg("❌ Stripe event failed")
		handlers.Fail(c, http.StatusInternalServerError, "event not processed", "internal")
		return
	}
	c.JSON(http.StatusOK, gin.H{"received": true})
}
