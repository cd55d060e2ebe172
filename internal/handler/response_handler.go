package handler

import (
	"net/http"

	"procurement/internal/middleware"
	"procurement/internal/service"
	"procurement/pkg/response"

	"github.com/gin-gonic/gin"
)

type ResponseHandler struct {
	responseService      service.ResponseService
	purchaseOrderService service.PurchaseOrderService
}

func NewResponseHandler(responseService service.ResponseService, purchaseOrderService service.PurchaseOrderService) *ResponseHandler {
	return &ResponseHandler{responseService: responseService, purchaseOrderService: purchaseOrderService}
}

func (h *ResponseHandler) RegisterRoutes(router *gin.RouterGroup) {
	submitRoles := append([]string{middleware.RoleSupplier}, workflowRoles...)

	quotations := router.Group("/api/quotations/:id/responses")
	{
		quotations.GET("", middleware.RequireRole(workflowRoles...), h.ListResponses)
		quotations.POST("", middleware.RequireRole(submitRoles...), h.SubmitResponse)
	}

	responses := router.Group("/api/responses")
	{
		responses.PUT("/:id/reject", middleware.RequireRole(workflowRoles...), h.RejectResponse)
		responses.POST("/:id/purchase-order", middleware.RequireRole(workflowRoles...), h.SelectResponseForPurchase)
	}
}

// ListResponses returns every supplier response of a quotation with the aggregate counts
// @Summary      List supplier responses
// @Tags         responses
// @Security     BearerAuth
// @Produce      json
// @Param        id   path  string  true  "Quotation ID"
// @Success      200  {object}  response.Response{data=service.ResponseListing}
// @Failure      404  {object}  response.Response
// @Router       /api/quotations/{id}/responses [get]
func (h *ResponseHandler) ListResponses(c *gin.Context) {
	listing, err := h.responseService.ListResponsesWithAggregate(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, listing))
}

// SubmitResponse records or replaces a supplier's pending response.
// A caller with the supplier role always submits as itself.
// @Summary      Submit supplier response
// @Tags         responses
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        id       path  string                         true  "Quotation ID"
// @Param        payload  body  service.SubmitResponseRequest  true  "Response payload"
// @Success      201  {object}  response.Response{data=service.SupplierResponseDTO}
// @Failure      403  {object}  response.Response
// @Failure      409  {object}  response.Response
// @Router       /api/quotations/{id}/responses [post]
func (h *ResponseHandler) SubmitResponse(c *gin.Context) {
	var req service.SubmitResponseRequest
	if !bindJSON(c, &req) {
		return
	}

	userID, role := middleware.Actor(c)
	if role == middleware.RoleSupplier {
		req.SupplierID = userID
	}

	saved, err := h.responseService.SubmitResponse(c.Request.Context(), c.Param("id"), req)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, response.Success(http.StatusCreated, saved))
}

// RejectResponse rejects a pending supplier response
// @Summary      Reject supplier response
// @Tags         responses
// @Security     BearerAuth
// @Produce      json
// @Param        id   path  string  true  "Response ID"
// @Success      200  {object}  response.Response{data=service.SupplierResponseDTO}
// @Failure      409  {object}  response.Response
// @Router       /api/responses/{id}/reject [put]
func (h *ResponseHandler) RejectResponse(c *gin.Context) {
	userID, _ := middleware.Actor(c)
	rejected, err := h.responseService.RejectResponse(c.Request.Context(), userID, c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, rejected))
}

// SelectResponseForPurchase accepts a response and creates the purchase order
// @Summary      Accept response and create purchase order
// @Description  Rejects the remaining pending responses and closes the quotation in one transaction.
// @Tags         responses
// @Security     BearerAuth
// @Produce      json
// @Param        id   path  string  true  "Response ID"
// @Success      201  {object}  response.Response{data=service.PurchaseOrderResponse}
// @Failure      409  {object}  response.Response
// @Router       /api/responses/{id}/purchase-order [post]
func (h *ResponseHandler) SelectResponseForPurchase(c *gin.Context) {
	userID, _ := middleware.Actor(c)
	order, err := h.purchaseOrderService.SelectResponseForPurchase(c.Request.Context(), userID, c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, response.Success(http.StatusCreated, order))
}
