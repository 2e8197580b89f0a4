package handler

import (
	"net/http"

	"invoicing-backend/internal/catalog"
	"invoicing-backend/internal/middleware"
	"invoicing-backend/pkg/response"

	"github.com/gin-gonic/gin"
)

const bookSearchLimit = 20

type CatalogHandler struct {
	catalog *catalog.Catalog
}

func NewCatalogHandler(c *catalog.Catalog) *CatalogHandler {
	return &CatalogHandler{catalog: c}
}

func (h *CatalogHandler) RegisterRoutes(router *gin.RouterGroup) {
	books := router.Group("/api/books")
	books.Use(middleware.RequireAuth())
	{
		books.GET("/search", h.SearchBooks)
	}
}

// SearchBooks autocompletes catalog titles for the invoice form
// @Summary      Search books
// @Description  Case-insensitive substring match over title, subject, grade, and code; empty query browses the first 20 titles
// @Tags         books
// @Security     BearerAuth
// @Produce      json
// @Param        q    query     string  false  "Search query"
// @Success      200  {object}  response.Response{data=[]catalog.Book}
// @Router       /api/books/search [get]
func (h *CatalogHandler) SearchBooks(c *gin.Context) {
	results := h.catalog.Search(c.Query("q"), bookSearchLimit)
	c.JSON(http.StatusOK, response.Success(http.StatusOK, results))
}
