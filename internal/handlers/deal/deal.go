// Package deal serves the consumer redemption endpoints.
package deal

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"

	"rise_local_back_end/internal/handlers"
	"rise_local_back_end/internal/redemption"
	"rise_local_back_end/internal/utils"
)

type Handler struct {
	svc *redemption.Service
}

func NewHandler(svc *redemption.Service) *Handler {
	return &Handler{svc: svc}
}

// GET /api/deals/:id/can-redeem
func (h *Handler) CanRedeem(c *gin.Context) {
	e, err := h.svc.CanRedeem(c.Request.Context(), c.GetString("user_id"), c.Param("id"))
	if err != nil {
		handlers.Error(c, err)
		return
	}
	c.JSON(http.StatusOK, e)
}

// POST /api/deals/:id/coupon-code
func (h *Handler) IssueCode(c *gin.Context) {
	iss, err := h.svc.IssueCode(c.Request.Context(), c.GetString("user_id"), c.Param("id"))
	if errors.Is(err, redemption.ErrPoolEmpty) {
		c.JSON(http.StatusOK, gin.H{"success": false, "poolEmpty": true, "error": err.Error()})
		return
	}
	if err != nil {
		handlers.Error(c, err)
		return
	}

	resp := gin.H{
		"success": true,
		"type":    iss.Type,
		"code":    iss.Code,
	}
	if iss.CodeID != "" {
		resp["codeId"] = iss.CodeID
	}
	if iss.ExpiresAt != nil {
		resp["expiresAt"] = iss.ExpiresAt
	}
	if c.Query("qr") != "0" {
		if qr, err := utils.CodeQRDataURI(iss.Code); err == nil {
			resp["qr"] = qr
		} else {
			log.Warn().Err(err).Msg("⚠️ QR code not rendered")
		}
	}
	c.JSON(http.StatusOK, resp)
}

// POST /api/deals/:id/redeem
func (h *Handler) Redeem(c *gin.Context) {
	r, err := h.svc.Redeem(c.Request.Context(), c.GetString("user_id"), c.Param("id"))
	if err != nil {
		handlers.Error(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "redemption": r})
}

// DELETE /api/me/redemptions/:id
func (h *Handler) Undo(c *gin.Context) {
	r, err := h.svc.Undo(c.Request.Context(), c.GetString("user_id"), c.Param("id"))
	if err != nil {
		handlers.Error(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "redemption": r})
}

// GET /api/me/redemptions
func (h *Handler) History(c *gin.Context) {
	list, err := h.svc.History(c.Request.Context(), c.GetString("user_id"))
	if err != nil {
		handlers.Error(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"redemptions": list, "count": len(list)})
}
