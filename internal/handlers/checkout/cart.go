// Package checkout serves the shopping cart, checkout and the live cart stream.
package checkout

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"rise_local_back_end/internal/billing"
	"rise_local_back_end/internal/cart"
	"rise_local_back_end/internal/handlers"
	"rise_local_back_end/internal/models"
)

type Handler struct {
	db      *gorm.DB
	carts   cart.Repository
	billing *billing.Service
	taxRate decimal.Decimal
}

func NewHandler(db *gorm.DB, carts cart.Repository, billingSvc *billing.Service, taxRate decimal.Decimal) *Handler {
	return &Handler{db: db, carts: carts, billing: billingSvc, taxRate: taxRate}
}

func (h *Handler) respond(c *gin.Context, status int, ct *cart.Cart) {
	t := ct.Totals(h.taxRate)
	c.JSON(status, gin.H{
		"items":    t.Lines,
		"subtotal": t.Subtotal.StringFixed(2),
		"tax":      t.Tax.StringFixed(2),
		"total":    t.Total.StringFixed(2),
		"count":    t.ItemCount,
	})
}

// GET /api/cart
func (h *Handler) Get(c *gin.Context) {
	ct, err := h.carts.Load(c.Request.Context(), c.GetString("user_id"))
	if err != nil {
		handlers.Error(c, err)
		return
	}
	h.respond(c, http.StatusOK, ct)
}

// POST /api/cart/items {productId, quantity}. Price and vendor come from
// the catalog, never from the client.
func (h *Handler) AddItem(c *gin.Context) {
	var in struct {
		ProductID string `json:"productId" binding:"required"`
		Quantity  int    `json:"quantity"`
	}
	if err := c.ShouldBindJSON(&in); err != nil {
		handlers.BadRequest(c, err.Error())
		return
	}
	if in.Quantity == 0 {
		in.Quantity = 1
	}

	ctx := c.Request.Context()
	var p models.Product
	if err := h.db.WithContext(ctx).First(&p, "id = ? AND is_active = ?", in.ProductID, true).Error; err != nil {
		handlers.Fail(c, http.StatusNotFound, "product not found", "not_found")
		return
	}

	ct, err := h.carts.Load(ctx, c.GetString("user_id"))
	if err != nil {
		handlers.Error(c, err)
		return
	}
	err = ct.Add(models.CartItem{
		ProductID:      p.ID,
		VendorID:       p.VendorID,
		Name:           p.Name,
		UnitPriceCents: p.PriceCents,
		Quantity:       in.Quantity,
		ImageURL:       p.ImageURL,
	})
	if err != nil {
		handlers.Error(c, err)
		return
	}
	if err := h.carts.Save(ctx, ct); err != nil {
		handlers.Error(c, err)
		return
	}
	h.respond(c, http.StatusOK, ct)
}

// PATCH /api/cart/items/:productId {quantity}
func (h *Handler) UpdateItem(c *gin.Context) {
	var in struct {
		Quantity int `json:"quantity"`
	}
	if err := c.ShouldBindJSON(&in); err != nil {
		handlers.BadRequest(c, err.Error())
		return
	}
	h.mutate(c, func(ct *cart.Cart) error { return ct.SetQuantity(c.Param("productId"), in.Quantity) })
}

// DELETE /api/cart/items/:productId
func (h *Handler) RemoveItem(c *gin.Context) {
	h.mutate(c, func(ct *cart.Cart) error { return ct.Remove(c.Param("productId")) })
}

func (h *Handler) mutate(c *gin.Context, fn func(*cart.Cart) error) {
	ctx := c.Request.Context()
	ct, err := h.carts.Load(ctx, c.GetString("user_id"))
	if err != nil {
		handlers.Error(c, err)
		return
	}
	if err := fn(ct); err != nil {
		handlers.Error(c, err)
		return
	}
	if err := h.carts.Save(ctx, ct); err != nil {
		handlers.Error(c, err)
		return
	}
	h.respond(c, http.StatusOK, ct)
}

// DELETE /api/cart
func (h *Handler) Clear(c *gin.Context) {
	userID := c.GetString("user_id")
	if err := h.carts.Clear(c.Request.Context(), userID); err != nil {
		handlers.Error(c, err)
		return
	}
	h.respond(c, http.StatusOK, cart.New(userID))
}

// POST /api/checkout
func (h *Handler) Checkout(c *gin.Context) {
	user, ok := handlers.CurrentUser(c, h.db)
	if !ok {
		return
	}
	order, url, err := h.billing.Checkout(c.Request.Context(), user)
	if err != nil {
		handlers.Error(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"url": url, "orderId": order.ID, "totalCents": order.TotalCents})
}

// GET /api/me/orders
func (h *Handler) Orders(c *gin.Context) {
	orders, err := h.billing.Orders(c.Request.Context(), c.GetString("user_id"))
	if err != nil {
		handlers.Error(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"orders": orders, "count": len(orders)})
}
