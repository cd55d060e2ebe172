package handler

import (
	"net/http"
	"strconv"

	"procurement/internal/middleware"
	"procurement/internal/service"
	"procurement/pkg/pagination"
	"procurement/pkg/response"

	"github.com/gin-gonic/gin"
)

type SupplierHandler struct {
	supplierService service.SupplierService
}

func NewSupplierHandler(supplierService service.SupplierService) *SupplierHandler {
	return &SupplierHandler{supplierService: supplierService}
}

func (h *SupplierHandler) RegisterRoutes(router *gin.RouterGroup) {
	suppliers := router.Group("/api/suppliers")
	suppliers.Use(middleware.RequireRole(workflowRoles...))
	{
		suppliers.GET("", h.ListSuppliers)
		suppliers.GET("/:id", h.GetSupplier)
		suppliers.POST("", h.CreateSupplier)
		suppliers.PUT("/:id", h.UpdateSupplier)
	}
}

// ListSuppliers returns paginated suppliers with optional search
// @Summary      List suppliers
// @Tags         suppliers
// @Security     BearerAuth
// @Produce      json
// @Param        page         query     int     false  "Page number (default: 1)"
// @Param        limit        query     int     false  "Items per page (default: 20)"
// @Param        search       query     string  false  "Search by name, company or email"
// @Param        active_only  query     bool    false  "Only active suppliers"
// @Success      200          {object}  response.Response
// @Router       /api/suppliers [get]
func (h *SupplierHandler) ListSuppliers(c *gin.Context) {
	p := pagination.Parse(c)
	activeOnly, _ := strconv.ParseBool(c.DefaultQuery("active_only", "false"))

	suppliers, total, err := h.supplierService.ListSuppliers(c.Request.Context(), c.Query("search"), activeOnly, p.Page, p.Limit)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, response.SuccessWithPagination(http.StatusOK, suppliers, p.Page, p.Limit, total))
}

// GetSupplier returns one supplier
// @Summary      Get supplier
// @Tags         suppliers
// @Security     BearerAuth
// @Produce      json
// @Param        id   path  string  true  "Supplier ID"
// @Success      200  {object}  response.Response{data=service.SupplierDTO}
// @Failure      404  {object}  response.Response
// @Router       /api/suppliers/{id} [get]
func (h *SupplierHandler) GetSupplier(c *gin.Context) {
	supplier, err := h.supplierService.GetSupplier(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, supplier))
}

// CreateSupplier registers a new supplier
// @Summary      Create supplier
// @Tags         suppliers
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        payload  body  service.CreateSupplierRequest  true  "Supplier payload"
// @Success      201  {object}  response.Response{data=service.SupplierDTO}
// @Failure      400  {object}  response.Response
// @Router       /api/suppliers [post]
func (h *SupplierHandler) CreateSupplier(c *gin.Context) {
	var req service.CreateSupplierRequest
	if !bindJSON(c, &req) {
		return
	}

	userID, _ := middleware.Actor(c)
	supplier, err := h.supplierService.CreateSupplier(c.Request.Context(), userID, req)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, response.Success(http.StatusCreated, supplier))
}

// UpdateSupplier edits supplier details or deactivates it
// @Summary      Update supplier
// @Tags         suppliers
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        id       path  string                         true  "Supplier ID"
// @Param        payload  body  service.UpdateSupplierRequest  true  "Update payload"
// @Success      200  {object}  response.Response{data=service.SupplierDTO}
// @Failure      400  {object}  response.Response
// @Router       /api/suppliers/{id} [put]
func (h *SupplierHandler) UpdateSupplier(c *gin.Context) {
	var req service.UpdateSupplierRequest
	if !bindJSON(c, &req) {
		return
	}

	userID, _ := middleware.Actor(c)
	supplier, err := h.supplierService.UpdateSupplier(c.Request.Context(), userID, c.Param("id"), req)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, supplier))
}
