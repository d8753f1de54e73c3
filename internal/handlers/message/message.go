// Package message serves consumer-to-vendor conversations.
package message

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
	"gorm.io/gorm"

	"rise_local_back_end/internal/handlers"
	"rise_local_back_end/internal/messaging"
	"rise_local_back_end/internal/models"
)

type Handler struct {
	db  *gorm.DB
	svc *messaging.Service
}

func NewHandler(db *gorm.DB, svc *messaging.Service) *Handler {
	return &Handler{db: db, svc: svc}
}

func participant(c *gin.Context) messaging.Participant {
	return messaging.Participant{
		UserID:   c.GetString("user_id"),
		VendorID: c.GetString("vendor_id"),
	}
}

// GET /api/conversations
func (h *Handler) Conversations(c *gin.Context) {
	convs, err := h.svc.Conversations(c.Request.Context(), participant(c))
	if err != nil {
		handlers.Error(c, err)
		return
	}
	if convs == nil {
		convs = []models.Conversation{}
	}
	c.JSON(http.StatusOK, gin.H{"conversations": convs})
}

// POST /api/conversations
func (h *Handler) Start(c *gin.Context) {
	var req struct {
		VendorID string `json:"vendorId" binding:"required"`
		Body     string `json:"body"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		handlers.BadRequest(c, "vendorId is required")
		return
	}

	p := participant(c)
	if p.VendorID == req.VendorID {
		handlers.BadRequest(c, "cannot open a conversation with your own business")
		return
	}
	var vendor models.Vendor
	if err := h.db.WithContext(c.Request.Context()).
		Where("id = ? AND is_active = ?", req.VendorID, true).
		First(&vendor).Error; err != nil {
		handlers.Error(c, err)
		return
	}

	conv, err := h.svc.Start(c.Request.Context(), p.UserID, vendor.ID)
	if err != nil {
		handlers.Error(c, err)
		return
	}

	resp := gin.H{"conversation": conv}
	if req.Body != "" {
		// the opening message is sent as the consumer, never as staff
		m, err := h.svc.Send(c.Request.Context(), messaging.Participant{UserID: p.UserID}, conv.ID.String(), req.Body)
		if err != nil {
			handlers.Error(c, err)
			return
		}
		resp["message"] = m
	}
	c.JSON(http.StatusCreated, resp)
}

// GET /api/conversations/:id/messages?limit=
func (h *Handler) Messages(c *gin.Context) {
	limit, _ := strconv.Atoi(c.Query("limit"))
	msgs, err := h.svc.Messages(c.Request.Context(), participant(c), c.Param("id"), limit)
	if err != nil {
		handlers.Error(c, err)
		return
	}
	if msgs == nil {
		msgs = []models.Message{}
	}
	c.JSON(http.StatusOK, gin.H{"messages": msgs, "count": len(msgs)})
}

// POST /api/conversations/:id/messages
func (h *Handler) Send(c *gin.Context) {
	var req struct {
		Body string `json:"body"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		handlers.BadRequest(c, "invalid body")
		return
	}
	m, err := h.svc.Send(c.Request.Context(), participant(c), c.Param("id"), req.Body)
	if err != nil {
		handlers.Error(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"message": m})
}

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

const (
	pingInterval = 30 * time.Second
	pongWait     = 2 * pingInterval
)

// Stream forwards every message published to the caller's channels.
// GET /api/ws/messages
func (h *Handler) Stream(rdb *redis.Client) gin.HandlerFunc {
	return func(c *gin.Context) {
		if rdb == nil {
			handlers.Fail(c, http.StatusServiceUnavailable, "live updates are not available", "unavailable")
			return
		}
		p := participant(c)

		conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
		if err != nil {
			log.Warn().Err(err).Msg("⚠️ WebSocket upgrade failed")
			return
		}
		defer conn.Close()

		ctx := c.Request.Context()
		sub := messaging.Subscribe(ctx, rdb, p)
		defer sub.Close()
		ch := sub.Channel()

		gone := handlers.WatchClose(conn, pongWait)

		if err := conn.WriteJSON(gin.H{"type": "connected"}); err != nil {
			return
		}
		log.Debug().Str("user_id", p.UserID).Str("vendor_id", p.VendorID).Msg("🔌 Message stream opened")

		ticker := time.NewTicker(pingInterval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-gone:
				return
			case msg, ok := <-ch:
				if !ok {
					return
				}
				if err := conn.WriteMessage(websocket.TextMessage,
					[]byte(`{"type":"message","message":`+msg.Payload+`}`)); err != nil {
					return
				}
			case <-ticker.C:
				if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
					return
				}
			}
		}
	}
}
