package handler

import (
	"net/http"

	"invoicing-backend/internal/middleware"
	"invoicing-backend/internal/model"
	"invoicing-backend/internal/service"
	"invoicing-backend/pkg/response"

	"github.com/gin-gonic/gin"
)

type CustomerHandler struct {
	customerService service.CustomerService
}

func NewCustomerHandler(customerService service.CustomerService) *CustomerHandler {
	return &CustomerHandler{customerService: customerService}
}

func (h *CustomerHandler) RegisterRoutes(router *gin.RouterGroup) {
	customers := router.Group("/api/customers")
	customers.Use(middleware.RequireAuth())
	{
		customers.GET("/search", h.SearchCustomers)
		customers.GET("/lookup", h.GetCustomer)
		customers.POST("/import", middleware.RequireRole(model.RoleAdmin, model.RoleManager), h.ImportCustomers)
	}
}

// SearchCustomers autocompletes directory entries for the invoice form
// @Summary      Search customers
// @Description  Case-insensitive substring match over name and sales manager, up to 10 results
// @Tags         customers
// @Security     BearerAuth
// @Produce      json
// @Param        q    query     string  true  "Search query"
// @Success      200  {object}  response.Response{data=[]service.CustomerSearchResult}
// @Failure      500  {object}  response.Response
// @Router       /api/customers/search [get]
func (h *CustomerHandler) SearchCustomers(c *gin.Context) {
	results, err := h.customerService.Search(c.Request.Context(), c.Query("q"))
	if err != nil {
		c.JSON(http.StatusInternalServerError, response.Error(http.StatusInternalServerError, err.Error()))
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, results))
}

// GetCustomer fetches one directory entry by exact name
// @Summary      Get customer by name
// @Tags         customers
// @Security     BearerAuth
// @Produce      json
// @Param        name  query     string  true  "Customer name (exact, case-sensitive)"
// @Success      200   {object}  response.Response{data=service.CustomerResponse}
// @Failure      404   {object}  response.Response
// @Router       /api/customers/lookup [get]
func (h *CustomerHandler) GetCustomer(c *gin.Context) {
	customer, err := h.customerService.FindByName(c.Request.Context(), c.Query("name"))
	if err != nil {
		abortWith(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, customer))
}

// ImportCustomers bulk-loads directory entries from a CSV upload
// @Summary      Import customers
// @Description  Insert-only CSV import; rows with an existing or empty name are skipped
// @Tags         customers
// @Security     BearerAuth
// @Accept       multipart/form-data
// @Produce      json
// @Param        file  formData  file  true  "CSV file with Customer_Name, SM_Name, Phone_Number columns"
// @Success      200   {object}  response.Response{data=object}
// @Failure      400   {object}  response.Response
// @Router       /api/customers/import [post]
func (h *CustomerHandler) ImportCustomers(c *gin.Context) {
	fileHeader, err := c.FormFile("file")
	if err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Missing file upload: "+err.Error()))
		return
	}

	file, err := fileHeader.Open()
	if err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Failed to open upload: "+err.Error()))
		return
	}
	defer file.Close()

	imported, err := h.customerService.ImportFromCSV(c.Request.Context(), file)
	if err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, err.Error()))
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, map[string]interface{}{
		"imported": imported,
	}))
}
