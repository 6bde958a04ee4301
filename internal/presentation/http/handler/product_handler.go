package handler

import (
	"strings"

	"github.com/Beveren-Software-Inc/klikpos-core/internal/application/service"
	"github.com/Beveren-Software-Inc/klikpos-core/internal/presentation/http/dto/response"
	"github.com/gin-gonic/gin"
)

// ProductHandler handles item lookup and stock requests
type ProductHandler struct {
	productService *service.ProductService
}

// NewProductHandler creates a new product handler
func NewProductHandler(productService *service.ProductService) *ProductHandler {
	return &ProductHandler{productService: productService}
}

// Get handles looking up an item by code
func (h *ProductHandler) Get(c *gin.Context) {
	product, err := h.productService.GetByCode(c.Request.Context(), c.Param("code"))
	if err != nil {
		response.Error(c, err)
		return
	}

	response.OK(c, "Item retrieved successfully", product)
}

// Stock handles reading on-hand levels, e.g. ?codes=A,B. Without codes
// every item is returned.
func (h *ProductHandler) Stock(c *gin.Context) {
	var codes []string
	for _, code := range strings.Split(c.Query("codes"), ",") {
		if code = strings.TrimSpace(code); code != "" {
			codes = append(codes, code)
		}
	}

	levels, err := h.productService.StockLevels(c.Request.Context(), codes)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.OK(c, "Stock levels retrieved successfully", levels)
}
