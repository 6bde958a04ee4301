package handler

import (
	"github.com/Beveren-Software-Inc/klikpos-core/internal/application/service"
	"github.com/Beveren-Software-Inc/klikpos-core/internal/presentation/http/dto/response"
	"github.com/gin-gonic/gin"
)

// CustomerHandler handles customer lookups from the terminal
type CustomerHandler struct {
	customerService *service.CustomerService
}

// NewCustomerHandler creates a new customer handler
func NewCustomerHandler(customerService *service.CustomerService) *CustomerHandler {
	return &CustomerHandler{customerService: customerService}
}

// Get handles getting a single customer with shipping addresses
func (h *CustomerHandler) Get(c *gin.Context) {
	id, ok := paramUUID(c, "id", "customer ID")
	if !ok {
		return
	}

	customer, err := h.customerService.GetProfile(c.Request.Context(), id)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.OK(c, "Customer retrieved successfully", customer)
}
