package models

type CartItem struct {
	ProductID      string `json:"productId"`
	VendorID       string `json:"vendorId"`
	Name           string `json:"name"`
	UnitPriceCents int64  `json:"unitPriceCents"`
	Quantity       int    `json:"quantity"`
	ImageURL       string `json:"imageUrl,omitempty"`
}
