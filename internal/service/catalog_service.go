package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"math"
	"path/filepath"
	"strings"
	"unicode/utf8"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/lumen-shop/storefront-service/internal/domain"
	"github.com/lumen-shop/storefront-service/internal/repository"
	"github.com/lumen-shop/storefront-service/internal/storage"
	apperrors "github.com/lumen-shop/storefront-service/pkg/util/errorutil"
)

const (
	minProductName = 2
	maxProductName = 160
	// maxPrice is the largest value a numeric(10,2) price column holds.
	maxPrice = 99999999.99
)

// ImageUpload is an image file attached to a product write.
type ImageUpload struct {
	FileName string
	Size     int64
	Body     io.Reader
}

// ProductInput carries product fields. Nil fields are left unchanged on update.
type ProductInput struct {
	Name          *string
	Description   *string
	Price         *float64
	Category      *string
	StockQuantity *int
	Active        *bool
	Image         *ImageUpload
}

// CatalogService manages the product catalog.
type CatalogService struct {
	products repository.ProductRepository
	files    storage.FileStore
	logger   *zap.Logger
}

// NewCatalogService constructs the service.
func NewCatalogService(products repository.ProductRepository, files storage.FileStore, logger *zap.Logger) *CatalogService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &CatalogService{products: products, files: files, logger: logger}
}

// List returns active products, newest first.
func (s *CatalogService) List(ctx context.Context, category string) ([]domain.Product, error) {
	products, err := s.products.List(ctx, repository.ProductFilter{Category: strings.TrimSpace(category)})
	if err != nil {
		return nil, apperrors.NewInternalError(err)
	}
	return products, nil
}

// Get returns an active product.
func (s *CatalogService) Get(ctx context.Context, id int64) (*domain.Product, error) {
	product, err := s.find(ctx, id)
	if err != nil {
		return nil, err
	}
	if !product.Active {
		return nil, apperrors.NewNotFound("product", nil)
	}
	return product, nil
}

// Create adds a product. Name and price are required.
func (s *CatalogService) Create(ctx context.Context, input ProductInput) (*domain.Product, error) {
	if input.Name == nil || strings.TrimSpace(*input.Name) == "" || input.Price == nil {
		return nil, apperrors.NewValidationError("name and price are required", nil)
	}
	product := &domain.Product{Active: true}
	if err := applyProductInput(product, input); err != nil {
		return nil, err
	}

	if input.Image != nil {
		url, err := s.saveImage(ctx, input.Image)
		if err != nil {
			return nil, err
		}
		product.ImageURL = url
	}

	if err := s.products.Create(ctx, product); err != nil {
		s.discard(ctx, product.ImageURL)
		return nil, apperrors.NewInternalError(err)
	}
	return product, nil
}

// Update applies a partial change. A new image replaces and removes the old one.
func (s *CatalogService) Update(ctx context.Context, id int64, input ProductInput) (*domain.Product, error) {
	product, err := s.find(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := applyProductInput(product, input); err != nil {
		return nil, err
	}

	oldImage := product.ImageURL
	if input.Image != nil {
		url, err := s.saveImage(ctx, input.Image)
		if err != nil {
			return nil, err
		}
		product.ImageURL = url
	}

	if err := s.products.Update(ctx, product); err != nil {
		if input.Image != nil {
			s.discard(ctx, product.ImageURL)
		}
		if errors.Is(err, repository.ErrNotFound) {
			return nil, apperrors.NewNotFound("product", nil)
		}
		return nil, apperrors.NewInternalError(err)
	}
	if input.Image != nil {
		s.discard(ctx, oldImage)
	}
	return product, nil
}

// Delete removes a product and its image.
func (s *CatalogService) Delete(ctx context.Context, id int64) error {
	product, err := s.find(ctx, id)
	if err != nil {
		return err
	}
	if err := s.products.Delete(ctx, id); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return apperrors.NewNotFound("product", nil)
		}
		return apperrors.NewInternalError(err)
	}
	s.discard(ctx, product.ImageURL)
	return nil
}

func (s *CatalogService) find(ctx context.Context, id int64) (*domain.Product, error) {
	product, err := s.products.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, apperrors.NewNotFound("product", nil)
		}
		return nil, apperrors.NewInternalError(err)
	}
	return product, nil
}

func (s *CatalogService) saveImage(ctx context.Context, img *ImageUpload) (string, error) {
	ext := strings.ToLower(filepath.Ext(img.FileName))
	contentType, ok := domain.AllowedImageExtensions[ext]
	if !ok {
		return "", apperrors.NewValidationError("only image files are allowed (jpg, jpeg, png, gif, webp)", map[string]any{"field": "image"})
	}
	if s.files == nil {
		return "", apperrors.NewInternalConfig(errors.New("file store is not configured"))
	}
	name := fmt.Sprintf("%s%s", uuid.NewString(), ext)
	url, err := s.files.Save(ctx, name, img.Body, img.Size, contentType)
	if err != nil {
		s.logger.Error("save product image", zap.Error(err))
		return "", apperrors.NewInternalError(err)
	}
	return url, nil
}

func (s *CatalogService) discard(ctx context.Context, url string) {
	if url == "" || s.files == nil {
		return
	}
	if err := s.files.Delete(ctx, url); err != nil {
		s.logger.Warn("delete product image", zap.String("url", url), zap.Error(err))
	}
}

func applyProductInput(p *domain.Product, in ProductInput) error {
	if in.Name != nil {
		name := strings.TrimSpace(*in.Name)
		if n := utf8.RuneCountInString(name); n < minProductName || n > maxProductName {
			return apperrors.NewValidationError("name must be between 2 and 160 characters", map[string]any{"field": "name"})
		}
		p.Name = name
	}
	if in.Description != nil {
		p.Description = optionalText(in.Description)
	}
	if in.Price != nil {
		price := *in.Price
		if math.IsNaN(price) || math.IsInf(price, 0) || price < 0 || price > maxPrice {
			return apperrors.NewValidationError("price must be a number between 0 and 99999999.99", map[string]any{"field": "price"})
		}
		p.Price = *in.Price
	}
	if in.Category != nil {
		p.Category = optionalText(in.Category)
	}
	if in.StockQuantity != nil {
		if *in.StockQuantity < 0 || *in.StockQuantity > maxCartQuantity {
			return apperrors.NewValidationError("stock quantity must be between 0 and 2147483647", map[string]any{"field": "stockQuantity"})
		}
		p.StockQuantity = *in.StockQuantity
	}
	if in.Active != nil {
		p.Active = *in.Active
	}
	return nil
}
