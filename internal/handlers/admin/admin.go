// Package admin serves the platform operator endpoints.
package admin

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"
	"gorm.io/gorm"

	"rise_local_back_end/internal/handlers"
	"rise_local_back_end/internal/models"
	"rise_local_back_end/internal/services"
	"rise_local_back_end/internal/utils"
)

// Invalidator drops cached eligibility for a user.
type Invalidator interface {
	InvalidateUser(ctx context.Context, userID string)
}

type Handler struct {
	db          *gorm.DB
	search      *services.Search
	audit       *utils.AuditLogger
	invalidator Invalidator
	now         func() time.Time
}

func NewHandler(db *gorm.DB, search *services.Search, audit *utils.AuditLogger, invalidator Invalidator) *Handler {
	return &Handler{db: db, search: search, audit: audit, invalidator: invalidator, now: time.Now}
}

// GET /api/admin/vendors?active=0|1
func (h *Handler) Vendors(c *gin.Context) {
	q := h.db.WithContext(c.Request.Context()).Order("created_at DESC")
	switch c.Query("active") {
	case "1", "true":
		q = q.Where("is_active = ?", true)
	case "0", "false":
		q = q.Where("is_active = ?", false)
	}
	var vendors []models.Vendor
	if err := q.Find(&vendors).Error; err != nil {
		handlers.Error(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"vendors": vendors, "total": len(vendors)})
}

// PATCH /api/admin/vendors/:id
func (h *Handler) SetVendorActive(c *gin.Context) {
	var req struct {
		IsActive *bool `json:"isActive" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		handlers.BadRequest(c, "isActive is required")
		return
	}

	ctx := c.Request.Context()
	var v models.Vendor
	if err := h.db.WithContext(ctx).First(&v, "id = ?", c.Param("id")).Error; err != nil {
		handlers.Error(c, err)
		return
	}
	if err := h.db.WithContext(ctx).Model(&v).Update("is_active", *req.IsActive).Error; err != nil {
		handlers.Error(c, err)
		return
	}
	v.IsActive = *req.IsActive

	if v.IsActive {
		h.search.IndexVendor(ctx, &v)
	} else {
		h.search.Remove(ctx, services.VendorIndex, v.ID)
	}
	h.audit.LogAction(c, "vendor.active", "vendor", v.ID, strconv.FormatBool(v.IsActive))
	log.Info().Str("vendor_id", v.ID).Bool("active", v.IsActive).Msg("🏪 Vendor status changed")
	c.JSON(http.StatusOK, gin.H{"vendor": v})
}

// PATCH /api/admin/users/:id/role
func (h *Handler) SetRole(c *gin.Context) {
	var req struct {
		Role     string `json:"role" binding:"required"`
		VendorID string `json:"vendorId"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		handlers.BadRequest(c, "role is required")
		return
	}

	ctx := c.Request.Context()
	updates := map[string]interface{}{"role": req.Role}
	switch req.Role {
	case models.RoleConsumer, models.RoleAdmin:
		updates["vendor_id"] = nil
	case models.RoleVendor:
		if req.VendorID == "" {
			handlers.BadRequest(c, "vendorId is required for vendor staff")
			return
		}
		var count int64
		if err := h.db.WithContext(ctx).Model(&models.Vendor{}).Where("id = ?", req.VendorID).Count(&count).Error; err != nil {
			handlers.Error(c, err)
			return
		}
		if count == 0 {
			handlers.Fail(c, http.StatusNotFound, "vendor not found", "not_found")
			return
		}
		updates["vendor_id"] = req.VendorID
	default:
		handlers.BadRequest(c, "unknown role")
		return
	}

	user, ok := h.updateUser(c, updates)
	if !ok {
		return
	}
	h.audit.LogAction(c, "user.role", "user", user.ID, req.Role)
	c.JSON(http.StatusOK, gin.H{"user": user})
}

// PATCH /api/admin/users/:id/pass grants or revokes a complimentary Pass.
// A null "until" revokes.
func (h *Handler) SetPass(c *gin.Context) {
	var req struct {
		Until *time.Time `json:"until"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		handlers.BadRequest(c, "invalid body")
		return
	}

	updates := map[string]interface{}{"is_pass_member": false, "pass_expires_at": h.now().UTC()}
	if req.Until != nil {
		if !req.Until.After(h.now()) {
			handlers.BadRequest(c, "until must be in the future")
			return
		}
		updates["is_pass_member"] = true
		updates["pass_expires_at"] = req.Until.UTC()
	}

	user, ok := h.updateUser(c, updates)
	if !ok {
		return
	}
	if h.invalidator != nil {
		h.invalidator.InvalidateUser(c.Request.Context(), user.ID)
	}
	h.audit.LogAction(c, "user.pass", "user", user.ID, strconv.FormatBool(user.IsPassMember))
	c.JSON(http.StatusOK, gin.H{"user": user})
}

func (h *Handler) updateUser(c *gin.Context, updates map[string]interface{}) (*models.User, bool) {
	db := h.db.WithContext(c.Request.Context())
	var user models.User
	if err := db.First(&user, "id = ?", c.Param("id")).Error; err != nil {
		handlers.Error(c, err)
		return nil, false
	}
	if err := db.Model(&user).Updates(updates).Error; err != nil {
		handlers.Error(c, err)
		return nil, false
	}
	if err := db.First(&user, "id = ?", user.ID).Error; err != nil {
		handlers.Error(c, err)
		return nil, false
	}
	return &user, true
}

// GET /api/admin/audit/:resource/:resourceId?limit=
func (h *Handler) AuditLogs(c *gin.Context) {
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "50"))
	if limit <= 0 || limit > 200 {
		limit = 50
	}
	logs, err := h.audit.ForResource(c.Request.Context(), c.Param("resource"), c.Param("resourceId"), limit)
	if err != nil {
		handlers.Error(c, err)
		return
	}
	if logs == nil {
		logs = []models.AuditLog{}
	}
	c.JSON(http.StatusOK, gin.H{
		"resource":   c.Param("resource"),
		"resourceId": c.Param("resourceId"),
		"logs":       logs,
		"total":      len(logs),
	})
}
