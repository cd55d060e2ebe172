package handler

import (
	"net/http"

	"procurement/internal/middleware"
	"procurement/internal/service"
	"procurement/pkg/pagination"
	"procurement/pkg/response"

	"github.com/gin-gonic/gin"
)

// Roles allowed to drive the quotation workflow.
var workflowRoles = []string{middleware.RoleQS, middleware.RoleSeniorQS, middleware.RoleAdmin}

type QuotationHandler struct {
	quotationService service.QuotationService
}

func NewQuotationHandler(quotationService service.QuotationService) *QuotationHandler {
	return &QuotationHandler{quotationService: quotationService}
}

func (h *QuotationHandler) RegisterRoutes(router *gin.RouterGroup) {
	quotations := router.Group("/api/quotations")
	{
		quotations.GET("", middleware.RequireRole(workflowRoles...), h.ListQuotations)
		quotations.POST("", middleware.RequireRole(workflowRoles...), h.CreateQuotation)
		quotations.GET("/:id", middleware.RequireRole(workflowRoles...), h.GetQuotation)
		quotations.PUT("/:id", middleware.RequireRole(workflowRoles...), h.UpdateDraft)
		quotations.PUT("/:id/send", middleware.RequireRole(workflowRoles...), h.SendQuotation)
		quotations.PUT("/:id/cancel", middleware.RequireRole(workflowRoles...), h.CancelQuotation)
		quotations.GET("/:id/close-eligibility", middleware.RequireRole(workflowRoles...), h.GetCloseEligibility)
		quotations.PUT("/:id/close", middleware.RequireRole(workflowRoles...), h.CloseQuotation)
		quotations.PUT("/:id/force-close", middleware.RequireRole(middleware.RoleSeniorQS, middleware.RoleAdmin), h.ForceCloseQuotation)
	}
}

// ListQuotations returns paginated quotation requests
// @Summary      List quotation requests
// @Tags         quotations
// @Security     BearerAuth
// @Produce      json
// @Param        page        query     int     false  "Page number (default: 1)"
// @Param        limit       query     int     false  "Items per page (default: 20)"
// @Param        project_id  query     string  false  "Filter by project"
// @Param        status      query     string  false  "DRAFT, SENT, CLOSED or CANCELLED"
// @Success      200         {object}  response.Response
// @Router       /api/quotations [get]
func (h *QuotationHandler) ListQuotations(c *gin.Context) {
	p := pagination.Parse(c)

	quotations, total, err := h.quotationService.ListQuotations(c.Request.Context(), service.QuotationFilter{
		ProjectID: c.Query("project_id"),
		Status:    c.Query("status"),
		Page:      p.Page,
		Limit:     p.Limit,
	})
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, response.SuccessWithPagination(http.StatusOK, quotations, p.Page, p.Limit, total))
}

// CreateQuotation creates a DRAFT quotation request
// @Summary      Create quotation request
// @Tags         quotations
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        payload  body  service.CreateQuotationRequest  true  "Quotation payload"
// @Success      201  {object}  response.Response{data=service.QuotationResponse}
// @Failure      400  {object}  response.Response
// @Router       /api/quotations [post]
func (h *QuotationHandler) CreateQuotation(c *gin.Context) {
	var req service.CreateQuotationRequest
	if !bindJSON(c, &req) {
		return
	}

	userID, _ := middleware.Actor(c)
	quotation, err := h.quotationService.CreateQuotation(c.Request.Context(), userID, req)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, response.Success(http.StatusCreated, quotation))
}

// GetQuotation returns one quotation request
// @Summary      Get quotation request
// @Tags         quotations
// @Security     BearerAuth
// @Produce      json
// @Param        id   path  string  true  "Quotation ID"
// @Success      200  {object}  response.Response{data=service.QuotationResponse}
// @Failure      404  {object}  response.Response
// @Router       /api/quotations/{id} [get]
func (h *QuotationHandler) GetQuotation(c *gin.Context) {
	quotation, err := h.quotationService.GetQuotation(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, quotation))
}

// UpdateDraft edits a DRAFT quotation request
// @Summary      Update draft quotation
// @Tags         quotations
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        id       path  string                          true  "Quotation ID"
// @Param        payload  body  service.UpdateQuotationRequest  true  "Fields to change"
// @Success      200  {object}  response.Response{data=service.QuotationResponse}
// @Failure      409  {object}  response.Response
// @Router       /api/quotations/{id} [put]
func (h *QuotationHandler) UpdateDraft(c *gin.Context) {
	var req service.UpdateQuotationRequest
	if !bindJSON(c, &req) {
		return
	}

	userID, _ := middleware.Actor(c)
	quotation, err := h.quotationService.UpdateDraft(c.Request.Context(), userID, c.Param("id"), req)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, quotation))
}

// SendQuotation dispatches a DRAFT quotation to the chosen suppliers
// @Summary      Send quotation to suppliers
// @Description  Freezes items and invitations. Notification failures are returned as warnings.
// @Tags         quotations
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        id       path  string                        true  "Quotation ID"
// @Param        payload  body  service.SendQuotationRequest  true  "Invited suppliers"
// @Success      200  {object}  response.Response{data=service.QuotationResponse}
// @Failure      400  {object}  response.Response
// @Failure      409  {object}  response.Response
// @Router       /api/quotations/{id}/send [put]
func (h *QuotationHandler) SendQuotation(c *gin.Context) {
	var req service.SendQuotationRequest
	if !bindJSON(c, &req) {
		return
	}

	userID, _ := middleware.Actor(c)
	quotation, err := h.quotationService.SendQuotation(c.Request.Context(), userID, c.Param("id"), req)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, quotation))
}

// CancelQuotation abandons a DRAFT or SENT quotation
// @Summary      Cancel quotation
// @Tags         quotations
// @Security     BearerAuth
// @Produce      json
// @Param        id   path  string  true  "Quotation ID"
// @Success      200  {object}  response.Response{data=service.QuotationResponse}
// @Failure      409  {object}  response.Response
// @Router       /api/quotations/{id}/cancel [put]
func (h *QuotationHandler) CancelQuotation(c *gin.Context) {
	userID, _ := middleware.Actor(c)
	quotation, err := h.quotationService.CancelQuotation(c.Request.Context(), userID, c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, quotation))
}

// GetCloseEligibility reports whether the quotation may be closed now
// @Summary      Close eligibility
// @Tags         quotations
// @Security     BearerAuth
// @Produce      json
// @Param        id   path  string  true  "Quotation ID"
// @Success      200  {object}  response.Response{data=service.CloseEligibilityResponse}
// @Failure      404  {object}  response.Response
// @Router       /api/quotations/{id}/close-eligibility [get]
func (h *QuotationHandler) GetCloseEligibility(c *gin.Context) {
	eligibility, err := h.quotationService.GetCloseEligibility(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, eligibility))
}

// CloseQuotation closes a SENT quotation without a purchase
// @Summary      Close quotation
// @Tags         quotations
// @Security     BearerAuth
// @Produce      json
// @Param        id   path  string  true  "Quotation ID"
// @Success      200  {object}  response.Response{data=service.QuotationResponse}
// @Failure      409  {object}  response.Response
// @Router       /api/quotations/{id}/close [put]
func (h *QuotationHandler) CloseQuotation(c *gin.Context) {
	userID, _ := middleware.Actor(c)
	quotation, err := h.quotationService.CloseQuotation(c.Request.Context(), userID, c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, quotation))
}

// ForceCloseQuotation closes a SENT quotation and rejects every pending response
// @Summary      Force-close quotation
// @Tags         quotations
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        id       path  string                     true  "Quotation ID"
// @Param        payload  body  service.ForceCloseRequest  true  "Reason"
// @Success      200  {object}  response.Response{data=service.QuotationResponse}
// @Failure      409  {object}  response.Response
// @Router       /api/quotations/{id}/force-close [put]
func (h *QuotationHandler) ForceCloseQuotation(c *gin.Context) {
	var req service.ForceCloseRequest
	if !bindJSON(c, &req) {
		return
	}

	userID, _ := middleware.Actor(c)
	quotation, err := h.quotationService.ForceCloseQuotation(c.Request.Context(), userID, c.Param("id"), req)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, quotation))
}
