package handler

import (
	"github.com/Beveren-Software-Inc/klikpos-core/internal/application/service"
	"github.com/Beveren-Software-Inc/klikpos-core/internal/presentation/http/dto/request"
	"github.com/Beveren-Software-Inc/klikpos-core/internal/presentation/http/dto/response"
	"github.com/Beveren-Software-Inc/klikpos-core/internal/presentation/http/middleware"
	"github.com/Beveren-Software-Inc/klikpos-core/pkg/pagination"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// CheckoutHandler handles cart, tender and sale submission requests
type CheckoutHandler struct {
	checkout *service.CheckoutService
}

// NewCheckoutHandler creates a new checkout handler
func NewCheckoutHandler(checkout *service.CheckoutService) *CheckoutHandler {
	return &CheckoutHandler{checkout: checkout}
}

// session resolves the terminal and session ID of a request
func (h *CheckoutHandler) session(c *gin.Context) (terminalID, id uuid.UUID, ok bool) {
	id, ok = paramUUID(c, "id", "checkout session ID")
	return middleware.GetTerminalID(c), id, ok
}

// respond writes the updated session view
func respond(c *gin.Context, message string, view interface{}, err error) {
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, message, view)
}

// Open handles starting a checkout session
func (h *CheckoutHandler) Open(c *gin.Context) {
	var req request.OpenCheckoutRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			response.BadRequest(c, "Invalid request body")
			return
		}
	}

	view, err := h.checkout.Open(c.Request.Context(), middleware.GetTerminalID(c), req.CustomerID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, "Checkout session opened", view)
}

func (h *CheckoutHandler) Get(c *gin.Context) {
	terminalID, id, ok := h.session(c)
	if !ok {
		return
	}
	view, err := h.checkout.Get(c.Request.Context(), terminalID, id)
	respond(c, "Checkout session retrieved successfully", view, err)
}

func (h *CheckoutHandler) Close(c *gin.Context) {
	terminalID, id, ok := h.session(c)
	if !ok {
		return
	}
	if err := h.checkout.Close(c.Request.Context(), terminalID, id); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}

// AddItem handles adding an item to the cart
func (h *CheckoutHandler) AddItem(c *gin.Context) {
	terminalID, id, ok := h.session(c)
	if !ok {
		return
	}
	var req request.AddItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "Invalid request body")
		return
	}

	view, err := h.checkout.AddItem(c.Request.Context(), terminalID, id, &service.AddItemInput{
		ItemCode: req.ItemCode,
		Quantity: req.Quantity,
		UOM:      req.UOM,
		Price:    req.Price,
	})
	respond(c, "Item added", view, err)
}

// SetQuantity handles changing a line quantity
func (h *CheckoutHandler) SetQuantity(c *gin.Context) {
	terminalID, id, ok := h.session(c)
	if !ok {
		return
	}
	var req request.SetQuantityRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "Invalid request body")
		return
	}

	view, err := h.checkout.SetQuantity(c.Request.Context(), terminalID, id, c.Param("code"), req.UOM, *req.Quantity)
	respond(c, "Quantity updated", view, err)
}

func (h *CheckoutHandler) RemoveItem(c *gin.Context) {
	terminalID, id, ok := h.session(c)
	if !ok {
		return
	}
	view, err := h.checkout.RemoveItem(c.Request.Context(), terminalID, id, c.Param("code"), c.Query("uom"))
	respond(c, "Item removed", view, err)
}

func (h *CheckoutHandler) ApplyDiscount(c *gin.Context) {
	terminalID, id, ok := h.session(c)
	if !ok {
		return
	}
	var req request.ApplyDiscountRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "Invalid request body")
		return
	}

	view, err := h.checkout.ApplyDiscount(c.Request.Context(), terminalID, id, req.Code, req.Value)
	respond(c, "Discount applied", view, err)
}

func (h *CheckoutHandler) RemoveDiscount(c *gin.Context) {
	terminalID, id, ok := h.session(c)
	if !ok {
		return
	}
	view, err := h.checkout.RemoveDiscount(c.Request.Context(), terminalID, id, c.Param("code"))
	respond(c, "Discount removed", view, err)
}

func (h *CheckoutHandler) SetTaxPolicy(c *gin.Context) {
	terminalID, id, ok := h.session(c)
	if !ok {
		return
	}
	var req request.SetTaxPolicyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "Invalid request body")
		return
	}

	view, err := h.checkout.SetTaxPolicy(c.Request.Context(), terminalID, id, req.TaxPolicyID)
	respond(c, "Tax policy updated", view, err)
}

func (h *CheckoutHandler) BindCustomer(c *gin.Context) {
	terminalID, id, ok := h.session(c)
	if !ok {
		return
	}
	var req request.BindCustomerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "Invalid request body")
		return
	}

	view, err := h.checkout.BindCustomer(c.Request.Context(), terminalID, id, req.CustomerID, req.ShippingAddressID)
	respond(c, "Customer selected", view, err)
}

// SetTender handles entering the amount for one payment method
func (h *CheckoutHandler) SetTender(c *gin.Context) {
	terminalID, id, ok := h.session(c)
	if !ok {
		return
	}
	var req request.SetTenderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "Invalid request body")
		return
	}

	view, err := h.checkout.SetTender(c.Request.Context(), terminalID, id, c.Param("method"), req.Amount)
	respond(c, "Tender updated", view, err)
}

func (h *CheckoutHandler) AutoRound(c *gin.Context) {
	terminalID, id, ok := h.session(c)
	if !ok {
		return
	}
	view, err := h.checkout.AutoRound(c.Request.Context(), terminalID, id)
	respond(c, "Round-off applied", view, err)
}

func (h *CheckoutHandler) SetRoundOff(c *gin.Context) {
	terminalID, id, ok := h.session(c)
	if !ok {
		return
	}
	var req request.SetRoundOffRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "Invalid request body")
		return
	}

	view, err := h.checkout.SetRoundOff(c.Request.Context(), terminalID, id, req.Value)
	respond(c, "Round-off applied", view, err)
}

func (h *CheckoutHandler) ClearRoundOff(c *gin.Context) {
	terminalID, id, ok := h.session(c)
	if !ok {
		return
	}
	view, err := h.checkout.ClearRoundOff(c.Request.Context(), terminalID, id)
	respond(c, "Round-off cleared", view, err)
}

func (h *CheckoutHandler) Clear(c *gin.Context) {
	terminalID, id, ok := h.session(c)
	if !ok {
		return
	}
	view, err := h.checkout.Clear(c.Request.Context(), terminalID, id)
	respond(c, "Cart cleared", view, err)
}

// Submit handles completing the sale
func (h *CheckoutHandler) Submit(c *gin.Context) {
	terminalID, id, ok := h.session(c)
	if !ok {
		return
	}
	invoice, err := h.checkout.Submit(c.Request.Context(), terminalID, id)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, "Invoice submitted successfully", invoice)
}

// Hold handles parking the cart as a draft
func (h *CheckoutHandler) Hold(c *gin.Context) {
	terminalID, id, ok := h.session(c)
	if !ok {
		return
	}
	draft, err := h.checkout.Hold(c.Request.Context(), terminalID, id)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, "Order held successfully", draft)
}

// ListHeld handles listing the terminal's held orders, optionally for one customer
func (h *CheckoutHandler) ListHeld(c *gin.Context) {
	params := pageParams(c)

	var customerID *uuid.UUID
	if raw := c.Query("customer_id"); raw != "" {
		id, err := uuid.Parse(raw)
		if err != nil {
			response.BadRequest(c, "Invalid customer ID")
			return
		}
		customerID = &id
	}

	drafts, total, err := h.checkout.ListHeld(c.Request.Context(), middleware.GetTerminalID(c), customerID, c.Query("search"), params)
	if err != nil {
		response.Error(c, err)
		return
	}

	result := pagination.NewPaginatedResult(drafts, pagination.NewPagination(params.Page, params.PerPage, total))
	response.SuccessWithPagination(c, "Held orders retrieved successfully", result)
}

// Resume handles loading a held order into a new session
func (h *CheckoutHandler) Resume(c *gin.Context) {
	draftID, ok := paramUUID(c, "id", "held order ID")
	if !ok {
		return
	}
	view, err := h.checkout.Resume(c.Request.Context(), middleware.GetTerminalID(c), draftID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, "Held order resumed", view)
}

func (h *CheckoutHandler) DeleteHeld(c *gin.Context) {
	draftID, ok := paramUUID(c, "id", "held order ID")
	if !ok {
		return
	}
	if err := h.checkout.DeleteHeld(c.Request.Context(), middleware.GetTerminalID(c), draftID); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}

// GetInvoice handles getting a single invoice
func (h *CheckoutHandler) GetInvoice(c *gin.Context) {
	id, ok := paramUUID(c, "id", "invoice ID")
	if !ok {
		return
	}
	invoice, err := h.checkout.GetInvoice(c.Request.Context(), id)
	respond(c, "Invoice retrieved successfully", invoice, err)
}
