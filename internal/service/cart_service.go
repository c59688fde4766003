package service

import (
	"context"
	"errors"
	"math"
	"time"

	"go.uber.org/zap"

	"github.com/lumen-shop/storefront-service/internal/domain"
	"github.com/lumen-shop/storefront-service/internal/repository"
	apperrors "github.com/lumen-shop/storefront-service/pkg/util/errorutil"
)

// maxCartQuantity is the largest quantity a cart line column can hold.
const maxCartQuantity = math.MaxInt32

// Cart is a user's cart with its running total.
type Cart struct {
	Items     []domain.CartLine `json:"items"`
	ItemCount int               `json:"itemCount"`
	Total     float64           `json:"total"`
}

// CartService manages per-user shopping carts.
type CartService struct {
	carts    repository.CartRepository
	products repository.ProductRepository
	logger   *zap.Logger
	now      func() time.Time
}

// NewCartService constructs the service.
func NewCartService(carts repository.CartRepository, products repository.ProductRepository, logger *zap.Logger) *CartService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &CartService{carts: carts, products: products, logger: logger, now: time.Now}
}

// Get lists the user's cart.
func (s *CartService) Get(ctx context.Context, userID int64) (*Cart, error) {
	lines, err := s.carts.ListByUser(ctx, userID)
	if err != nil {
		return nil, apperrors.NewInternalError(err)
	}
	cart := &Cart{Items: lines}
	for _, line := range lines {
		cart.ItemCount += line.Quantity
		cart.Total += line.Subtotal
	}
	cart.Total = math.Round(cart.Total*100) / 100
	return cart, nil
}

// AddItem puts quantity units of a product in the cart, merging with an
// existing line. Quantities below one count as one.
func (s *CartService) AddItem(ctx context.Context, userID, productID int64, quantity int) (*domain.CartItem, error) {
	if productID <= 0 {
		return nil, apperrors.NewValidationError("productId is required", map[string]any{"field": "productId"})
	}
	if quantity < 1 {
		quantity = 1
	}
	if quantity > maxCartQuantity {
		return nil, quantityTooLarge()
	}

	product, err := s.products.GetByID(ctx, productID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, apperrors.NewNotFound("product", nil)
		}
		return nil, apperrors.NewInternalError(err)
	}
	if !product.Active {
		return nil, apperrors.NewNotFound("product", nil)
	}
	if quantity > product.StockQuantity {
		return nil, s.mapCartError(repository.ErrInsufficientStock, product.StockQuantity)
	}

	item, err := s.carts.AddItem(ctx, userID, productID, quantity)
	if err != nil {
		return nil, s.mapCartError(err, product.StockQuantity)
	}
	return item, nil
}

// UpdateItem sets the quantity of one of the user's cart lines.
func (s *CartService) UpdateItem(ctx context.Context, userID, itemID int64, quantity int) (*domain.CartItem, error) {
	if quantity < 1 {
		return nil, apperrors.NewValidationError("quantity must be at least 1", map[string]any{"field": "quantity"})
	}
	if quantity > maxCartQuantity {
		return nil, quantityTooLarge()
	}
	item, err := s.carts.SetQuantity(ctx, userID, itemID, quantity)
	if err != nil {
		return nil, s.mapCartError(err, -1)
	}
	return item, nil
}

// RemoveItem deletes one of the user's cart lines.
func (s *CartService) RemoveItem(ctx context.Context, userID, itemID int64) error {
	if err := s.carts.RemoveItem(ctx, userID, itemID); err != nil {
		return s.mapCartError(err, -1)
	}
	return nil
}

// Clear empties the user's cart and returns how many lines were removed.
func (s *CartService) Clear(ctx context.Context, userID int64) (int64, error) {
	n, err := s.carts.Clear(ctx, userID)
	if err != nil {
		return 0, apperrors.NewInternalError(err)
	}
	return n, nil
}

// SweepAbandoned deletes cart lines untouched for longer than maxAge.
func (s *CartService) SweepAbandoned(ctx context.Context, maxAge time.Duration) (int64, error) {
	if maxAge <= 0 {
		return 0, nil
	}
	n, err := s.carts.DeleteStale(ctx, s.now().Add(-maxAge))
	if err != nil {
		return 0, err
	}
	if n > 0 {
		s.logger.Info("abandoned cart lines removed", zap.Int64("count", n))
	}
	return n, nil
}

func (s *CartService) mapCartError(err error, stock int) error {
	switch {
	case errors.Is(err, repository.ErrNotFound):
		return apperrors.NewNotFound("cart item", nil)
	case errors.Is(err, repository.ErrInsufficientStock):
		details := map[string]any{}
		if stock >= 0 {
			details["available"] = stock
		}
		return apperrors.NewConflict("requested quantity exceeds available stock", details)
	case errors.Is(err, repository.ErrOutOfRange):
		return quantityTooLarge()
	default:
		s.logger.Error("cart operation failed", zap.Error(err))
		return apperrors.NewInternalError(err)
	}
}

func quantityTooLarge() error {
	return apperrors.NewValidationError("quantity is too large", map[string]any{"field": "quantity", "max": maxCartQuantity})
}
