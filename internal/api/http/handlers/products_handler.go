package handlers

import (
	"mime/multipart"
	"net/http"
	"strconv"
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/lumen-shop/storefront-service/internal/api/dto"
	"github.com/lumen-shop/storefront-service/internal/service"
	apperrors "github.com/lumen-shop/storefront-service/pkg/util/errorutil"
)

// ProductsHandler exposes the catalog.
type ProductsHandler struct {
	catalog *service.CatalogService
}

// NewProductsHandler constructs handler.
func NewProductsHandler(catalog *service.CatalogService) *ProductsHandler {
	return &ProductsHandler{catalog: catalog}
}

// List handles GET /products.
func (h *ProductsHandler) List(c *fiber.Ctx) error {
	products, err := h.catalog.List(c.UserContext(), c.Query("category"))
	if err != nil {
		return err
	}
	return respond(c, http.StatusOK, "ok", products)
}

// Get handles GET /products/:id.
func (h *ProductsHandler) Get(c *fiber.Ctx) error {
	id, err := idParam(c, "id")
	if err != nil {
		return err
	}
	product, err := h.catalog.Get(c.UserContext(), id)
	if err != nil {
		return err
	}
	return respond(c, http.StatusOK, "ok", product)
}

// Create handles POST /products.
func (h *ProductsHandler) Create(c *fiber.Ctx) error {
	input, closeImage, err := productInput(c)
	if err != nil {
		return err
	}
	defer closeImage()

	product, err := h.catalog.Create(c.UserContext(), input)
	if err != nil {
		return err
	}
	return respond(c, http.StatusCreated, "product created", product)
}

// Update handles PUT /products/:id.
func (h *ProductsHandler) Update(c *fiber.Ctx) error {
	id, err := idParam(c, "id")
	if err != nil {
		return err
	}
	input, closeImage, err := productInput(c)
	if err != nil {
		return err
	}
	defer closeImage()

	product, err := h.catalog.Update(c.UserContext(), id, input)
	if err != nil {
		return err
	}
	return respond(c, http.StatusOK, "product updated", product)
}

// Delete handles DELETE /products/:id.
func (h *ProductsHandler) Delete(c *fiber.Ctx) error {
	id, err := idParam(c, "id")
	if err != nil {
		return err
	}
	if err := h.catalog.Delete(c.UserContext(), id); err != nil {
		return err
	}
	return respond(c, http.StatusOK, "product deleted", nil)
}

// productInput reads the product form and its optional image. The returned
// func closes the image and is always safe to call.
func productInput(c *fiber.Ctx) (service.ProductInput, func(), error) {
	noop := func() {}
	var form dto.ProductForm
	var file *multipart.FileHeader

	if strings.HasPrefix(c.Get(fiber.HeaderContentType), fiber.MIMEMultipartForm) {
		mf, err := c.MultipartForm()
		if err != nil {
			return service.ProductInput{}, noop, invalidPayload()
		}
		form = productFormFromValues(mf.Value)
		if files := mf.File["image"]; len(files) > 0 {
			file = files[0]
		}
	} else if err := c.BodyParser(&form); err != nil && len(c.Body()) > 0 {
		return service.ProductInput{}, noop, invalidPayload()
	}

	input, err := parseProductForm(form)
	if err != nil {
		return service.ProductInput{}, noop, err
	}
	if file == nil {
		return input, noop, nil
	}

	f, err := file.Open()
	if err != nil {
		return service.ProductInput{}, noop, apperrors.NewInternalError(err)
	}
	input.Image = &service.ImageUpload{FileName: file.Filename, Size: file.Size, Body: f}
	return input, func() { _ = f.Close() }, nil
}

func productFormFromValues(values map[string][]string) dto.ProductForm {
	get := func(key string) *string {
		if v, ok := values[key]; ok && len(v) > 0 {
			return &v[0]
		}
		return nil
	}
	return dto.ProductForm{
		Name:          get("name"),
		Description:   get("description"),
		Price:         get("price"),
		Category:      get("category"),
		StockQuantity: get("stockQuantity"),
		Active:        get("active"),
	}
}

func parseProductForm(form dto.ProductForm) (service.ProductInput, error) {
	input := service.ProductInput{
		Name:        form.Name,
		Description: form.Description,
		Category:    form.Category,
	}
	var bad []string
	if form.Price != nil {
		if price, err := strconv.ParseFloat(strings.TrimSpace(*form.Price), 64); err == nil {
			input.Price = &price
		} else {
			bad = append(bad, "price")
		}
	}
	if form.StockQuantity != nil {
		if stock, err := strconv.Atoi(strings.TrimSpace(*form.StockQuantity)); err == nil {
			input.StockQuantity = &stock
		} else {
			bad = append(bad, "stockQuantity")
		}
	}
	if form.Active != nil {
		if active, err := strconv.ParseBool(strings.TrimSpace(*form.Active)); err == nil {
			input.Active = &active
		} else {
			bad = append(bad, "active")
		}
	}
	if len(bad) > 0 {
		return input, apperrors.NewValidationError("invalid numeric or boolean field", map[string]any{"fields": bad})
	}
	return input, nil
}
