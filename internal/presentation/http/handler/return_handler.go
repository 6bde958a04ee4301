package handler

import (
	"github.com/Beveren-Software-Inc/klikpos-core/internal/application/service"
	"github.com/Beveren-Software-Inc/klikpos-core/internal/domain/entity"
	"github.com/Beveren-Software-Inc/klikpos-core/internal/presentation/http/dto/request"
	"github.com/Beveren-Software-Inc/klikpos-core/internal/presentation/http/dto/response"
	"github.com/Beveren-Software-Inc/klikpos-core/internal/presentation/http/middleware"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// ReturnHandler handles single and multi-invoice return requests
type ReturnHandler struct {
	returns *service.ReturnService
}

// NewReturnHandler creates a new return handler
func NewReturnHandler(returns *service.ReturnService) *ReturnHandler {
	return &ReturnHandler{returns: returns}
}

func (h *ReturnHandler) session(c *gin.Context) (terminalID, id uuid.UUID, ok bool) {
	id, ok = paramUUID(c, "id", "return session ID")
	return middleware.GetTerminalID(c), id, ok
}

// LoadInvoice handles opening an invoice for return
func (h *ReturnHandler) LoadInvoice(c *gin.Context) {
	invoiceID, ok := paramUUID(c, "id", "invoice ID")
	if !ok {
		return
	}
	view, err := h.returns.LoadInvoiceReturn(c.Request.Context(), invoiceID)
	respond(c, "Invoice loaded for return", view, err)
}

// SubmitInvoice handles returning items against one invoice
func (h *ReturnHandler) SubmitInvoice(c *gin.Context) {
	invoiceID, ok := paramUUID(c, "id", "invoice ID")
	if !ok {
		return
	}
	var req request.SubmitInvoiceReturnRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "Invalid request body")
		return
	}

	ret, err := h.returns.SubmitInvoiceReturn(c.Request.Context(), middleware.GetTerminalID(c), invoiceID, returnItems(req.Items))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, "Return submitted successfully", ret)
}

// QuoteInvoice handles pricing a return against one invoice without saving it
func (h *ReturnHandler) QuoteInvoice(c *gin.Context) {
	invoiceID, ok := paramUUID(c, "id", "invoice ID")
	if !ok {
		return
	}
	var req request.QuoteInvoiceReturnRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			response.BadRequest(c, "Invalid request body")
			return
		}
	}

	var step *service.LineStep
	if req.Step != nil {
		step = &service.LineStep{
			ItemCode: req.Step.ItemCode,
			UOM:      req.Step.UOM,
			Up:       req.Step.Direction == "up",
		}
	}

	view, err := h.returns.QuoteInvoiceReturn(c.Request.Context(), invoiceID, returnItems(req.Items), step)
	respond(c, "Return quoted", view, err)
}

func returnItems(in []request.ReturnItemRequest) []entity.ReturnItem {
	if in == nil {
		return nil
	}
	items := make([]entity.ReturnItem, len(in))
	for i, it := range in {
		items[i] = entity.ReturnItem{ItemCode: it.ItemCode, UOM: it.UOM, Qty: it.Qty}
	}
	return items
}

// Start handles opening a multi-invoice return session
func (h *ReturnHandler) Start(c *gin.Context) {
	var req request.StartReturnRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			response.BadRequest(c, "Invalid request body")
			return
		}
	}

	view, err := h.returns.StartMulti(c.Request.Context(), middleware.GetTerminalID(c), req.CustomerID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, "Return session opened", view)
}

func (h *ReturnHandler) Get(c *gin.Context) {
	terminalID, id, ok := h.session(c)
	if !ok {
		return
	}
	view, err := h.returns.GetMulti(c.Request.Context(), terminalID, id)
	respond(c, "Return session retrieved successfully", view, err)
}

func (h *ReturnHandler) Close(c *gin.Context) {
	terminalID, id, ok := h.session(c)
	if !ok {
		return
	}
	if err := h.returns.CloseMulti(c.Request.Context(), terminalID, id); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}

func (h *ReturnHandler) BindCustomer(c *gin.Context) {
	terminalID, id, ok := h.session(c)
	if !ok {
		return
	}
	var req request.ReturnCustomerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "Invalid request body")
		return
	}

	view, err := h.returns.BindCustomer(c.Request.Context(), terminalID, id, req.CustomerID)
	respond(c, "Customer selected", view, err)
}

func (h *ReturnHandler) SetFilter(c *gin.Context) {
	terminalID, id, ok := h.session(c)
	if !ok {
		return
	}
	var req request.ReturnFilterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "Invalid request body")
		return
	}

	view, err := h.returns.SetFilter(c.Request.Context(), terminalID, id, req.LookbackDays, req.AddressID)
	respond(c, "Filter updated", view, err)
}

func (h *ReturnHandler) SelectItems(c *gin.Context) {
	terminalID, id, ok := h.session(c)
	if !ok {
		return
	}
	var req request.SelectItemsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "Invalid request body")
		return
	}

	view, err := h.returns.SelectItems(c.Request.Context(), terminalID, id, req.ItemCodes)
	respond(c, "Items selected", view, err)
}

// FilterInvoices handles loading the invoices that hold the selected items
func (h *ReturnHandler) FilterInvoices(c *gin.Context) {
	terminalID, id, ok := h.session(c)
	if !ok {
		return
	}
	view, err := h.returns.FilterInvoices(c.Request.Context(), terminalID, id)
	respond(c, "Invoices loaded", view, err)
}

func (h *ReturnHandler) SetIncluded(c *gin.Context) {
	terminalID, id, ok := h.session(c)
	if !ok {
		return
	}
	invoiceID, ok := paramUUID(c, "invoiceId", "invoice ID")
	if !ok {
		return
	}
	var req request.IncludeInvoiceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "Invalid request body")
		return
	}

	view, err := h.returns.SetIncluded(c.Request.Context(), terminalID, id, invoiceID, req.Included)
	respond(c, "Invoice updated", view, err)
}

func (h *ReturnHandler) SetQty(c *gin.Context) {
	terminalID, id, ok := h.session(c)
	if !ok {
		return
	}
	invoiceID, ok := paramUUID(c, "invoiceId", "invoice ID")
	if !ok {
		return
	}
	var req request.ReturnQtyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "Invalid request body")
		return
	}

	view, err := h.returns.SetQty(c.Request.Context(), terminalID, id, invoiceID, c.Param("code"), req.UOM, req.Qty)
	respond(c, "Quantity updated", view, err)
}

func (h *ReturnHandler) Back(c *gin.Context) {
	terminalID, id, ok := h.session(c)
	if !ok {
		return
	}
	view, err := h.returns.Back(c.Request.Context(), terminalID, id)
	respond(c, "Returned to item selection", view, err)
}

// Submit handles issuing the batched return invoices
func (h *ReturnHandler) Submit(c *gin.Context) {
	terminalID, id, ok := h.session(c)
	if !ok {
		return
	}
	batch, err := h.returns.SubmitMulti(c.Request.Context(), terminalID, id)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, "Returns submitted successfully", batch)
}
