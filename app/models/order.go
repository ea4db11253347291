package models

// CartItem is one line of a checkout. Items travel in the payment intent's
// metadata so the settlement webhook can update stock.
type CartItem struct {
	ProductID string  `json:"productId" validate:"required"`
	Quantity  int     `json:"quantity"  validate:"required,min=1"`
	Price     float64 `json:"price,omitempty"`
	Color     string  `json:"color,omitempty"`
}
