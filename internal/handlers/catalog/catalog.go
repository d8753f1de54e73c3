// Package catalog serves the public browsing endpoints.
package catalog

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"rise_local_back_end/internal/handlers"
	"rise_local_back_end/internal/models"
	"rise_local_back_end/internal/presenter"
	"rise_local_back_end/internal/services"
)

type Handler struct {
	db     *gorm.DB
	search *services.Search
	now    func() time.Time
}

func NewHandler(db *gorm.DB, search *services.Search) *Handler {
	return &Handler{db: db, search: search, now: time.Now}
}

func limitOffset(c *gin.Context) (int, int) {
	limit, err := strconv.Atoi(c.DefaultQuery("limit", "50"))
	if err != nil || limit <= 0 || limit > 100 {
		limit = 50
	}
	offset, err := strconv.Atoi(c.DefaultQuery("offset", "0"))
	if err != nil || offset < 0 {
		offset = 0
	}
	return limit, offset
}

// GET /api/vendors?category=&city=
func (h *Handler) Vendors(c *gin.Context) {
	h.listVendors(c, c.Query("category"))
}

// GET /api/restaurants
func (h *Handler) Restaurants(c *gin.Context) {
	h.listVendors(c, models.VendorCategoryRestaurant)
}

func (h *Handler) listVendors(c *gin.Context, category string) {
	limit, offset := limitOffset(c)
	q := h.db.WithContext(c.Request.Context()).Where("is_active = ?", true)
	if category != "" {
		q = q.Where("category = ?", category)
	}
	if city := c.Query("city"); city != "" {
		q = q.Where("city = ?", city)
	}
	var vendors []models.Vendor
	if err := q.Order("name").Limit(limit).Offset(offset).Find(&vendors).Error; err != nil {
		handlers.Error(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"vendors": vendors, "count": len(vendors)})
}

// GET /api/vendors/:id returns the vendor with its live deals, products
// and upcoming events.
func (h *Handler) Vendor(c *gin.Context) {
	ctx := c.Request.Context()
	var v models.Vendor
	if err := h.db.WithContext(ctx).First(&v, "id = ? AND is_active = ?", c.Param("id"), true).Error; err != nil {
		handlers.Error(c, err)
		return
	}
	now := h.now().UTC()

	var deals []models.Deal
	if err := h.liveDeals(c).Where("vendor_id = ?", v.ID).Find(&deals).Error; err != nil {
		handlers.Error(c, err)
		return
	}
	var products []models.Product
	if err := h.db.WithContext(ctx).Where("vendor_id = ? AND is_active = ?", v.ID, true).Find(&products).Error; err != nil {
		handlers.Error(c, err)
		return
	}
	var events []models.Event
	if err := h.db.WithContext(ctx).Where("vendor_id = ? AND ends_at > ?", v.ID, now).Order("starts_at").Find(&events).Error; err != nil {
		handlers.Error(c, err)
		return
	}

	viewer := handlers.OptionalUser(c, h.db)
	c.JSON(http.StatusOK, gin.H{
		"vendor":   v,
		"deals":    presenter.NewDealCards(deals, viewer, now),
		"products": products,
		"events":   events,
	})
}

// liveDeals selects published deals whose end has not passed.
func (h *Handler) liveDeals(c *gin.Context) *gorm.DB {
	now := h.now().UTC()
	return h.db.WithContext(c.Request.Context()).Preload("Vendor").
		Where("status = ?", models.DealStatusPublished).
		Where("ends_at IS NULL OR ends_at > ?", now)
}

// GET /api/deals?category=&vendorId=&pass=1
func (h *Handler) Deals(c *gin.Context) {
	limit, offset := limitOffset(c)
	q := h.liveDeals(c)
	if category := c.Query("category"); category != "" {
		q = q.Where("category = ?", category)
	}
	if vendorID := c.Query("vendorId"); vendorID != "" {
		q = q.Where("vendor_id = ?", vendorID)
	}
	if c.Query("pass") == "1" {
		q = q.Where("is_pass_locked = ?", true)
	}
	var deals []models.Deal
	if err := q.Order("created_at DESC").Limit(limit).Offset(offset).Find(&deals).Error; err != nil {
		handlers.Error(c, err)
		return
	}
	cards := presenter.NewDealCards(deals, handlers.OptionalUser(c, h.db), h.now().UTC())
	c.JSON(http.StatusOK, gin.H{"deals": cards, "count": len(cards)})
}

// GET /api/deals/:id
func (h *Handler) Deal(c *gin.Context) {
	var d models.Deal
	err := h.db.WithContext(c.Request.Context()).Preload("Vendor").
		First(&d, "id = ? AND status IN ?", c.Param("id"), []string{models.DealStatusPublished, models.DealStatusExpired}).Error
	if err != nil {
		handlers.Error(c, err)
		return
	}
	card := presenter.NewDealCard(&d, handlers.OptionalUser(c, h.db), h.now().UTC())
	c.JSON(http.StatusOK, gin.H{
		"deal":      card,
		"finePrint": d.FinePrint,
		"codeType":  d.CodeType,
		"expired":   d.HasExpired(h.now().UTC()),
	})
}

// GET /api/products?vendorId=
func (h *Handler) Products(c *gin.Context) {
	limit, offset := limitOffset(c)
	q := h.db.WithContext(c.Request.Context()).Where("is_active = ?", true)
	if vendorID := c.Query("vendorId"); vendorID != "" {
		q = q.Where("vendor_id = ?", vendorID)
	}
	var products []models.Product
	if err := q.Order("created_at DESC").Limit(limit).Offset(offset).Find(&products).Error; err != nil {
		handlers.Error(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"products": products, "count": len(products)})
}

// GET /api/products/:id
func (h *Handler) Product(c *gin.Context) {
	var p models.Product
	if err := h.db.WithContext(c.Request.Context()).First(&p, "id = ? AND is_active = ?", c.Param("id"), true).Error; err != nil {
		handlers.Error(c, err)
		return
	}
	c.JSON(http.StatusOK, p)
}

// GET /api/events lists events that have not ended.
func (h *Handler) Events(c *gin.Context) {
	limit, offset := limitOffset(c)
	var events []models.Event
	err := h.db.WithContext(c.Request.Context()).Preload("Vendor").
		Where("ends_at > ?", h.now().UTC()).
		Order("starts_at").Limit(limit).Offset(offset).Find(&events).Error
	if err != nil {
		handlers.Error(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"events": events, "count": len(events)})
}

// GET /api/search?q=
func (h *Handler) Search(c *gin.Context) {
	limit, _ := limitOffset(c)
	hits, err := h.search.Query(c.Request.Context(), c.Query("q"), limit)
	if err != nil {
		handlers.Error(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"results": hits, "count": len(hits)})
}
