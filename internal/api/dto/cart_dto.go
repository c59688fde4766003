package dto

// AddCartItemRequest adds a product to the caller's cart.
type AddCartItemRequest struct {
	ProductID int64 `json:"productId"`
	Quantity  int   `json:"quantity"`
}

// UpdateCartItemRequest sets a cart line quantity.
type UpdateCartItemRequest struct {
	Quantity int `json:"quantity"`
}
