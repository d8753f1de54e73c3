package checkout

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"

	"rise_local_back_end/internal/cart"
	"rise_local_back_end/internal/handlers"
)

// Origins are enforced by the CORS layer in front of the API.
var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

const (
	pingInterval = 30 * time.Second
	pongWait     = 2 * pingInterval
)

// Stream pushes the cart to the client every time it changes on any of
// the user's devices.
// GET /api/ws/cart
func (h *Handler) Stream(rdb *redis.Client) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID := c.GetString("user_id")
		if rdb == nil {
			handlers.Fail(c, http.StatusServiceUnavailable, "live updates are not available", "unavailable")
			return
		}

		conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
		if err != nil {
			log.Warn().Err(err).Msg("⚠️ WebSocket upgrade failed")
			return
		}
		defer conn.Close()

		ctx := c.Request.Context()
		sub := rdb.Subscribe(ctx, cart.Key(userID))
		defer sub.Close()
		ch := sub.Channel()
		gone := handlers.WatchClose(conn, pongWait)

		if err := conn.WriteJSON(gin.H{"type": "connected"}); err != nil {
			return
		}

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
				if msg.Payload != "updated" && msg.Payload != "cleared" {
					continue
				}
				ct, err := h.carts.Load(ctx, userID)
				if err != nil {
					log.Error().Err(err).Str("user_id", userID).Msg("❌ Cart reload failed")
					continue
				}
				t := ct.Totals(h.taxRate)
				if err := conn.WriteJSON(gin.H{
					"type":  "cart_updated",
					"items": t.Lines,
					"total": t.Total.StringFixed(2),
					"count": t.ItemCount,
				}); err != nil {
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
