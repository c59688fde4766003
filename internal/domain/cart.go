package domain

import "time"

// CartItem is one product line in a user's cart. (UserID, ProductID) is unique.
type CartItem struct {
	ID        int64     `json:"id"`
	UserID    int64     `json:"userId"`
	ProductID int64     `json:"productId"`
	Quantity  int       `json:"quantity"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// CartLine is a cart item joined with the product fields shown in the cart.
type CartLine struct {
	CartItem
	ProductName string  `json:"productName"`
	Price       float64 `json:"price"`
	ImageURL    string  `json:"imageUrl"`
	Category    *string `json:"category,omitempty"`
	Subtotal    float64 `json:"subtotal"`
}
