package handler

import (
	"net/http"

	"procurement/internal/middleware"
	"procurement/internal/service"
	"procurement/pkg/pagination"
	"procurement/pkg/response"

	"github.com/gin-gonic/gin"
)

type PurchaseOrderHandler struct {
	purchaseOrderService service.PurchaseOrderService
}

func NewPurchaseOrderHandler(purchaseOrderService service.PurchaseOrderService) *PurchaseOrderHandler {
	return &PurchaseOrderHandler{purchaseOrderService: purchaseOrderService}
}

func (h *PurchaseOrderHandler) RegisterRoutes(router *gin.RouterGroup) {
	orders := router.Group("/api/purchase-orders")
	orders.Use(middleware.RequireRole(workflowRoles...))
	{
		orders.GET("", h.ListPurchaseOrders)
		orders.GET("/:id", h.GetPurchaseOrder)
	}
}

// ListPurchaseOrders returns paginated purchase orders
// @Summary      List purchase orders
// @Tags         purchase-orders
// @Security     BearerAuth
// @Produce      json
// @Param        page         query     int     false  "Page number (default: 1)"
// @Param        limit        query     int     false  "Items per page (default: 20)"
// @Param        project_id   query     string  false  "Filter by project"
// @Param        supplier_id  query     string  false  "Filter by supplier"
// @Success      200          {object}  response.Response
// @Router       /api/purchase-orders [get]
func (h *PurchaseOrderHandler) ListPurchaseOrders(c *gin.Context) {
	p := pagination.Parse(c)

	orders, total, err := h.purchaseOrderService.ListPurchaseOrders(c.Request.Context(), service.PurchaseOrderFilter{
		ProjectID:  c.Query("project_id"),
		SupplierID: c.Query("supplier_id"),
		Page:       p.Page,
		Limit:      p.Limit,
	})
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, response.SuccessWithPagination(http.StatusOK, orders, p.Page, p.Limit, total))
}

// GetPurchaseOrder returns one purchase order with its priced lines
// @Summary      Get purchase order
// @Tags         purchase-orders
// @Security     BearerAuth
// @Produce      json
// @Param        id   path  string  true  "Purchase order ID"
// @Success      200  {object}  response.Response{data=service.PurchaseOrderResponse}
// @Failure      404  {object}  response.Response
// @Router       /api/purchase-orders/{id} [get]
func (h *PurchaseOrderHandler) GetPurchaseOrder(c *gin.Context) {
	order, err := h.purchaseOrderService.GetPurchaseOrder(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, order))
}
