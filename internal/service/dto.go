package service

import (
	"time"

	"procurement/internal/model"
	"procurement/internal/repository"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// --- Request DTOs ---

type QuotationItemRequest struct {
	Name                string          `json:"name" binding:"required"`
	Description         string          `json:"description"`
	Unit                string          `json:"unit"`
	Quantity            decimal.Decimal `json:"quantity"`
	EstimatedUnitAmount decimal.Decimal `json:"estimated_unit_amount"`
}

type CreateQuotationRequest struct {
	ProjectID   string                 `json:"project_id" binding:"required,uuid"`
	IssuerID    string                 `json:"issuer_id" binding:"omitempty,uuid"` // defaults to the caller
	Description string                 `json:"description"`
	Deadline    string                 `json:"deadline" binding:"required"` // YYYY-MM-DD
	Items       []QuotationItemRequest `json:"items" binding:"required,min=1,dive"`
}

// UpdateQuotationRequest edits a DRAFT quotation. Nil fields are left as they are.
type UpdateQuotationRequest struct {
	Description *string                 `json:"description"`
	Deadline    *string                 `json:"deadline"`
	Items       *[]QuotationItemRequest `json:"items"`
}

type SendQuotationRequest struct {
	SupplierIDs []string `json:"supplier_ids" binding:"required,min=1,dive,uuid"`
}

type ForceCloseRequest struct {
	Reason string `json:"reason" binding:"required"`
}

type SubmitResponseRequest struct {
	SupplierID   string           `json:"supplier_id" binding:"omitempty,uuid"` // required unless the caller is a supplier
	TotalAmount  *decimal.Decimal `json:"total_amount" binding:"required"`
	DeliveryDate string           `json:"delivery_date" binding:"required"` // YYYY-MM-DD
	Notes        string           `json:"notes"`
}

type QuotationFilter struct {
	ProjectID string // optional uuid
	Status    string // DRAFT, SENT, CLOSED, CANCELLED or empty for all
	Page      int
	Limit     int
}

type PurchaseOrderFilter struct {
	ProjectID  string
	SupplierID string
	Page       int
	Limit      int
}

// --- Response DTOs ---

type QuotationItemResponse struct {
	Name                string          `json:"name"`
	Description         string          `json:"description"`
	Unit                string          `json:"unit"`
	Quantity            decimal.Decimal `json:"quantity"`
	EstimatedUnitAmount decimal.Decimal `json:"estimated_unit_amount"`
}

type QuotationResponse struct {
	ID                       string                  `json:"id"`
	ProjectID                string                  `json:"project_id"`
	IssuerID                 string                  `json:"issuer_id"`
	Description              string                  `json:"description"`
	Deadline                 string                  `json:"deadline"`
	Status                   string                  `json:"status"`
	Items                    []QuotationItemResponse `json:"items"`
	InvitedSupplierIDs       []string                `json:"invited_supplier_ids"`
	SentAt                   *string                 `json:"sent_at"`
	ClosedAt                 *string                 `json:"closed_at"`
	CloseReason              string                  `json:"close_reason,omitempty"`
	ResultingPurchaseOrderID *string                 `json:"resulting_purchase_order_id"`
	Version                  int64                   `json:"version"`
	CreatedAt                string                  `json:"created_at"`
	Warnings                 []string                `json:"warnings,omitempty"` // notification failures after a committed transition
}

type SupplierResponseDTO struct {
	ID                   string          `json:"id"`
	QuotationID          string          `json:"quotation_id"`
	SupplierID           string          `json:"supplier_id"`
	TotalAmount          decimal.Decimal `json:"total_amount"`
	ProposedDeliveryDate string          `json:"proposed_delivery_date"`
	Status               string          `json:"status"`
	Notes                string          `json:"notes"`
	SubmittedAt          string          `json:"submitted_at"`
	DecidedAt            *string         `json:"decided_at"`
}

type ResponseAggregate struct {
	Total    int `json:"total"`
	Pending  int `json:"pending"`
	Accepted int `json:"accepted"`
	Rejected int `json:"rejected"`
}

type CloseEligibilityResponse struct {
	CanClose bool   `json:"can_close"`
	Reason   string `json:"reason"`
	Pending  int    `json:"pending"`
	Accepted int    `json:"accepted"`
	Rejected int    `json:"rejected"`
	Total    int    `json:"total"`
}

type PurchaseOrderItemResponse struct {
	Name        string          `json:"name"`
	Description string          `json:"description"`
	Unit        string          `json:"unit"`
	Quantity    decimal.Decimal `json:"quantity"`
	UnitAmount  decimal.Decimal `json:"unit_amount"`
	LineTotal   decimal.Decimal `json:"line_total"`
}

type PurchaseOrderResponse struct {
	ID                 string                      `json:"id"`
	OrderNo            string                      `json:"order_no"`
	QuotationID        string                      `json:"quotation_id"`
	SupplierResponseID string                      `json:"supplier_response_id"`
	SupplierID         string                      `json:"supplier_id"`
	ProjectID          string                      `json:"project_id"`
	Items              []PurchaseOrderItemResponse `json:"items"`
	TotalAmount        decimal.Decimal             `json:"total_amount"`
	DeliveryDate       string                      `json:"delivery_date"`
	OrderStatus        string                      `json:"order_status"`
	PaymentStatus      string                      `json:"payment_status"`
	CreatedAt          string                      `json:"created_at"`
	Warnings           []string                    `json:"warnings,omitempty"`
}

// --- Mappers ---

func formatTime(t *time.Time) *string {
	if t == nil {
		return nil
	}
	s := t.Format(time.RFC3339)
	return &s
}

func formatID(id *uuid.UUID) *string {
	if id == nil {
		return nil
	}
	s := id.String()
	return &s
}

func toQuotationResponse(q model.QuotationRequest) QuotationResponse {
	resp := QuotationResponse{
		ID:                       q.ID.String(),
		ProjectID:                q.ProjectID.String(),
		IssuerID:                 q.IssuerID.String(),
		Description:              q.Description,
		Deadline:                 q.Deadline.Format(dateLayout),
		Status:                   q.Status,
		Items:                    make([]QuotationItemResponse, 0, len(q.Items)),
		InvitedSupplierIDs:       make([]string, 0, len(q.Invitations)),
		SentAt:                   formatTime(q.SentAt),
		ClosedAt:                 formatTime(q.ClosedAt),
		CloseReason:              q.CloseReason,
		ResultingPurchaseOrderID: formatID(q.ResultingPurchaseOrderID),
		Version:                  q.Version,
		CreatedAt:                q.CreatedAt.Format(time.RFC3339),
	}
	for _, item := range q.Items {
		resp.Items = append(resp.Items, QuotationItemResponse{
			Name:                item.Name,
			Description:         item.Description,
			Unit:                item.Unit,
			Quantity:            item.Quantity,
			EstimatedUnitAmount: item.EstimatedUnitAmount,
		})
	}
	for _, id := range q.InvitedSupplierIDs() {
		resp.InvitedSupplierIDs = append(resp.InvitedSupplierIDs, id.String())
	}
	return resp
}

func toSupplierResponseDTO(r model.SupplierResponse) SupplierResponseDTO {
	return SupplierResponseDTO{
		ID:                   r.ID.String(),
		QuotationID:          r.QuotationID.String(),
		SupplierID:           r.SupplierID.String(),
		TotalAmount:          r.TotalAmount,
		ProposedDeliveryDate: r.ProposedDeliveryDate.Format(dateLayout),
		Status:               r.Status,
		Notes:                r.Notes,
		SubmittedAt:          r.SubmittedAt.Format(time.RFC3339),
		DecidedAt:            formatTime(r.DecidedAt),
	}
}

func toPurchaseOrderResponse(po model.PurchaseOrder) PurchaseOrderResponse {
	resp := PurchaseOrderResponse{
		ID:                 po.ID.String(),
		OrderNo:            po.OrderNo,
		QuotationID:        po.QuotationID.String(),
		SupplierResponseID: po.SupplierResponseID.String(),
		SupplierID:         po.SupplierID.String(),
		ProjectID:          po.ProjectID.String(),
		Items:              make([]PurchaseOrderItemResponse, 0, len(po.Items)),
		TotalAmount:        po.TotalAmount,
		DeliveryDate:       po.DeliveryDate.Format(dateLayout),
		OrderStatus:        po.OrderStatus,
		PaymentStatus:      po.PaymentStatus,
		CreatedAt:          po.CreatedAt.Format(time.RFC3339),
	}
	for _, item := range po.Items {
		resp.Items = append(resp.Items, PurchaseOrderItemResponse{
			Name:        item.Name,
			Description: item.Description,
			Unit:        item.Unit,
			Quantity:    item.Quantity,
			UnitAmount:  item.UnitAmount,
			LineTotal:   item.LineTotal,
		})
	}
	return resp
}

func aggregateFrom(c repository.ResponseCounts) ResponseAggregate {
	return ResponseAggregate{
		Total:    c.Total,
		Pending:  c.Pending,
		Accepted: c.Accepted,
		Rejected: c.Rejected,
	}
}
