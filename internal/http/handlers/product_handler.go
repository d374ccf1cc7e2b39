// README: Catalog handlers for listing and fetching rental products.
package handlers

import (
	"context"
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"sewaalat/internal/modules/catalog"
)

type ProductService interface {
	List(ctx context.Context) ([]catalog.Product, error)
	Get(ctx context.Context, id int64) (catalog.Product, error)
}

type ProductHandler struct {
	products ProductService
}

func NewProductHandler(svc ProductService) *ProductHandler {
	return &ProductHandler{products: svc}
}

// List handles GET /api/products.
func (h *ProductHandler) List(c *gin.Context) {
	products, err := h.products.List(c.Request.Context())
	if err != nil {
		writeError(c, http.StatusInternalServerError, "internal", "internal error")
		return
	}
	writeJSON(c, http.StatusOK, products)
}

// Get handles GET /api/products/:id.
func (h *ProductHandler) Get(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		writeError(c, http.StatusBadRequest, "invalid_product_id", "product id must be a positive integer")
		return
	}
	p, err := h.products.Get(c.Request.Context(), id)
	if errors.Is(err, catalog.ErrNotFound) {
		writeError(c, http.StatusNotFound, "not_found", err.Error())
		return
	}
	if err != nil {
		writeError(c, http.StatusInternalServerError, "internal", "internal error")
		return
	}
	writeJSON(c, http.StatusOK, p)
}
