package dto

// ProductForm mirrors the multipart fields of product writes. Values arrive
// as strings and are parsed by the handler so absent fields stay absent.
type ProductForm struct {
	Name          *string `form:"name"`
	Description   *string `form:"description"`
	Price         *string `form:"price"`
	Category      *string `form:"category"`
	StockQuantity *string `form:"stockQuantity"`
	Active        *string `form:"active"`
}
