// Package cart holds the shopping cart and its money math. Storage is
// behind Repository so the math never depends on where the cart lives.
package cart

import (
	"github.com/pkg/errors"
	"github.com/shopspring/decimal"

	"rise_local_back_end/internal/models"
)

const MaxQuantity = 99

var (
	ErrInvalidQuantity = errors.New("quantity must be between 1 and 99")
	ErrItemNotFound    = errors.New("item not in cart")
	ErrEmptyCart       = errors.New("cart is empty")
)

type Cart struct {
	UserID string            `json:"userId"`
	Items  []models.CartItem `json:"items"`
}

type Line struct {
	models.CartItem
	LineTotal decimal.Decimal `json:"lineTotal"`
}

type Totals struct {
	Lines     []Line          `json:"lines"`
	Subtotal  decimal.Decimal `json:"subtotal"`
	Tax       decimal.Decimal `json:"tax"`
	Total     decimal.Decimal `json:"total"`
	ItemCount int             `json:"count"`
}

func New(userID string) *Cart {
	return &Cart{UserID: userID, Items: []models.CartItem{}}
}

// Add merges item into the cart, summing quantities of the same product.
func (c *Cart) Add(item models.CartItem) error {
	if item.Quantity <= 0 {
		return ErrInvalidQuantity
	}
	for i := range c.Items {
		if c.Items[i].ProductID == item.ProductID {
			q := c.Items[i].Quantity + item.Quantity
			if q > MaxQuantity {
				return ErrInvalidQuantity
			}
			c.Items[i].Quantity = q
			c.Items[i].UnitPriceCents = item.UnitPriceCents
			return nil
		}
	}
	if item.Quantity > MaxQuantity {
		return ErrInvalidQuantity
	}
	c.Items = append(c.Items, item)
	return nil
}

// SetQuantity replaces a line's quantity; zero removes the line.
func (c *Cart) SetQuantity(productID string, qty int) error {
	if qty < 0 || qty > MaxQuantity {
		return ErrInvalidQuantity
	}
	if qty == 0 {
		return c.Remove(productID)
	}
	for i := range c.Items {
		if c.Items[i].ProductID == productID {
			c.Items[i].Quantity = qty
			return nil
		}
	}
	return ErrItemNotFound
}

func (c *Cart) Remove(productID string) error {
	for i := range c.Items {
		if c.Items[i].ProductID == productID {
			c.Items = append(c.Items[:i], c.Items[i+1:]...)
			return nil
		}
	}
	return ErrItemNotFound
}

func (c *Cart) IsEmpty() bool {
	return len(c.Items) == 0
}

// Totals prices the cart in dollars. Tax is applied to the subtotal and
// rounded half-up to the cent.
func (c *Cart) Totals(taxRate decimal.Decimal) Totals {
	t := Totals{Lines: make([]Line, 0, len(c.Items))}
	subtotal := decimal.Zero
	for _, it := range c.Items {
		line := Cents(it.UnitPriceCents).Mul(decimal.NewFromInt(int64(it.Quantity)))
		t.Lines = append(t.Lines, Line{CartItem: it, LineTotal: line})
		subtotal = subtotal.Add(line)
		t.ItemCount += it.Quantity
	}
	t.Subtotal = subtotal
	t.Tax = subtotal.Mul(taxRate).Round(2)
	t.Total = t.Subtotal.Add(t.Tax)
	return t
}

func Cents(c int64) decimal.Decimal {
	return decimal.New(c, -2)
}

func ToCents(d decimal.Decimal) int64 {
	return d.Shift(2).Round(0).IntPart()
}
