package handler

import (
	"errors"
	"net/http"
	"strings"

	"invoicing-backend/internal/middleware"
	"invoicing-backend/internal/model"
	"invoicing-backend/internal/service"
	"invoicing-backend/pkg/pagination"
	"invoicing-backend/pkg/response"

	"github.com/gin-gonic/gin"
)

type InvoiceHandler struct {
	invoiceService service.InvoiceService
}

// DeriveDiscountedRequest names the original invoice to derive from.
type DeriveDiscountedRequest struct {
	InvoiceNumber string `json:"invoice_number" binding:"required"`
}

func NewInvoiceHandler(invoiceService service.InvoiceService) *InvoiceHandler {
	return &InvoiceHandler{invoiceService: invoiceService}
}

func (h *InvoiceHandler) RegisterRoutes(router *gin.RouterGroup) {
	invoices := router.Group("/api/invoices")
	invoices.Use(middleware.RequireAuth())
	{
		invoices.POST("", h.CreateInvoice)
		invoices.GET("", h.ListInvoices)
		invoices.GET("/summary", middleware.RequireRole(model.RoleAdmin, model.RoleManager), h.GetSummary)
		// Invoice numbers contain slashes (HO/IN/...), so lookups take
		// the number as a query or body field rather than a path param.
		invoices.GET("/lookup", h.GetInvoice)
		invoices.GET("/pdf", h.GetInvoicePDF)
		invoices.POST("/discounted", h.DeriveDiscounted)
		invoices.GET("/:id", h.GetInvoiceByID)
	}
}

// statusFor maps service errors to HTTP status codes.
func statusFor(err error) int {
	switch {
	case errors.Is(err, service.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, service.ErrDuplicateInvoiceNumber):
		return http.StatusConflict
	case errors.Is(err, service.ErrPersistence):
		return http.StatusInternalServerError
	default:
		return http.StatusBadRequest
	}
}

func abortWith(c *gin.Context, err error) {
	status := statusFor(err)
	c.JSON(status, response.Error(status, err.Error()))
}

// CreateInvoice validates, computes totals, and persists a new invoice
// @Summary      Create invoice
// @Description  Computes totals with optional discount, upserts the customer directory, and persists the invoice with its items
// @Tags         invoices
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        payload  body      service.CreateInvoiceRequest  true  "Invoice Draft"
// @Success      201      {object}  response.Response{data=service.InvoiceResponse}
// @Failure      400      {object}  response.Response
// @Failure      409      {object}  response.Response
// @Router       /api/invoices [post]
func (h *InvoiceHandler) CreateInvoice(c *gin.Context) {
	var req service.CreateInvoiceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid request payload: "+err.Error()))
		return
	}

	invoice, err := h.invoiceService.Create(c.Request.Context(), req)
	if err != nil {
		abortWith(c, err)
		return
	}

	c.JSON(http.StatusCreated, response.Success(http.StatusCreated, invoice))
}

// ListInvoices lists invoices, paginated or by date range
// @Summary      List invoices
// @Description  Without query params returns a newest-first page; with customer returns that customer's invoices; with start and end (YYYY-MM-DD, inclusive) returns every invoice in the range
// @Tags         invoices
// @Security     BearerAuth
// @Produce      json
// @Param        customer  query     string  false  "Customer name (exact)"
// @Param        start     query     string  false  "Range start date"
// @Param        end       query     string  false  "Range end date"
// @Param        page      query     int     false  "Page number (default 1)"
// @Param        limit     query     int     false  "Items per page (default 20)"
// @Success      200       {object}  response.Response{data=object}
// @Failure      400       {object}  response.Response
// @Router       /api/invoices [get]
func (h *InvoiceHandler) ListInvoices(c *gin.Context) {
	start := c.Query("start")
	end := c.Query("end")

	if customer := c.Query("customer"); customer != "" {
		invoices, err := h.invoiceService.ListByCustomer(c.Request.Context(), customer)
		if err != nil {
			abortWith(c, err)
			return
		}
		c.JSON(http.StatusOK, response.Success(http.StatusOK, map[string]interface{}{
			"invoices": invoices,
			"total":    len(invoices),
		}))
		return
	}

	if start != "" || end != "" {
		invoices, err := h.invoiceService.ListByDateRange(c.Request.Context(), start, end)
		if err != nil {
			abortWith(c, err)
			return
		}
		c.JSON(http.StatusOK, response.Success(http.StatusOK, map[string]interface{}{
			"invoices": invoices,
			"total":    len(invoices),
		}))
		return
	}

	params := pagination.Parse(c)
	invoices, total, err := h.invoiceService.List(c.Request.Context(), params.Page, params.Limit)
	if err != nil {
		abortWith(c, err)
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, map[string]interface{}{
		"invoices": invoices,
		"total":    total,
		"page":     params.Page,
		"limit":    params.Limit,
	}))
}

// GetInvoice fetches one invoice with its items
// @Summary      Get invoice by number
// @Tags         invoices
// @Security     BearerAuth
// @Produce      json
// @Param        number  query     string  true  "Invoice number"
// @Success      200     {object}  response.Response{data=service.InvoiceResponse}
// @Failure      404     {object}  response.Response
// @Router       /api/invoices/lookup [get]
func (h *InvoiceHandler) GetInvoice(c *gin.Context) {
	invoice, err := h.invoiceService.GetByNumber(c.Request.Context(), c.Query("number"))
	if err != nil {
		abortWith(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, invoice))
}

// GetInvoiceByID fetches one invoice by its uuid
// @Summary      Get invoice by id
// @Tags         invoices
// @Security     BearerAuth
// @Produce      json
// @Param        id   path      string  true  "Invoice ID"
// @Success      200  {object}  response.Response{data=service.InvoiceResponse}
// @Failure      404  {object}  response.Response
// @Router       /api/invoices/{id} [get]
func (h *InvoiceHandler) GetInvoiceByID(c *gin.Context) {
	invoice, err := h.invoiceService.GetByID(c.Request.Context(), c.Param("id"))
	if err != nil {
		abortWith(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, invoice))
}

// GetInvoicePDF renders the printable document for an invoice
// @Summary      Render invoice PDF
// @Tags         invoices
// @Security     BearerAuth
// @Produce      application/pdf
// @Param        number  query     string  true  "Invoice number"
// @Success      200     {file}    binary
// @Failure      404     {object}  response.Response
// @Router       /api/invoices/pdf [get]
func (h *InvoiceHandler) GetInvoicePDF(c *gin.Context) {
	number := c.Query("number")
	data, err := h.invoiceService.RenderPDF(c.Request.Context(), number)
	if err != nil {
		abortWith(c, err)
		return
	}

	// Invoice numbers contain slashes; flatten them for the filename.
	filename := strings.ReplaceAll(number, "/", "-") + ".pdf"
	c.Header("Content-Disposition", `inline; filename="`+filename+`"`)
	c.Data(http.StatusOK, "application/pdf", data)
}

// DeriveDiscounted creates or returns the discounted copy of an invoice
// @Summary      Derive discounted invoice
// @Description  Creates the 20% discounted derivative of the invoice, or returns the existing one (idempotent)
// @Tags         invoices
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        payload  body      handler.DeriveDiscountedRequest  true  "Original invoice number"
// @Success      201      {object}  response.Response{data=service.InvoiceResponse}
// @Failure      400      {object}  response.Response
// @Failure      404      {object}  response.Response
// @Router       /api/invoices/discounted [post]
func (h *InvoiceHandler) DeriveDiscounted(c *gin.Context) {
	var req DeriveDiscountedRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid request payload: "+err.Error()))
		return
	}

	invoice, err := h.invoiceService.DeriveDiscounted(c.Request.Context(), req.InvoiceNumber)
	if err != nil {
		abortWith(c, err)
		return
	}
	c.JSON(http.StatusCreated, response.Success(http.StatusCreated, invoice))
}

// GetSummary aggregates invoices over a date range
// @Summary      Invoice summary
// @Description  Totals, per-type breakdown, and top customers for the period
// @Tags         invoices
// @Security     BearerAuth
// @Produce      json
// @Param        start  query     string  true  "Range start date (YYYY-MM-DD)"
// @Param        end    query     string  true  "Range end date (YYYY-MM-DD)"
// @Success      200    {object}  response.Response{data=service.SummaryResponse}
// @Failure      400    {object}  response.Response
// @Router       /api/invoices/summary [get]
func (h *InvoiceHandler) GetSummary(c *gin.Context) {
	summary, err := h.invoiceService.Summarize(c.Request.Context(), c.Query("start"), c.Query("end"))
	if err != nil {
		abortWith(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, summary))
}
