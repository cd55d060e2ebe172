package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// QuotationStatus enum constants
const (
	QuotationStatusDraft     = "DRAFT"
	QuotationStatusSent      = "SENT"
	QuotationStatusClosed    = "CLOSED"
	QuotationStatusCancelled = "CANCELLED"
)

// ResponseStatus enum constants
const (
	ResponseStatusPending  = "PENDING"
	ResponseStatusAccepted = "ACCEPTED"
	ResponseStatusRejected = "REJECTED"
)

// QuotationRequest (RFQ) asks the invited suppliers to price a fixed item list for a project.
// Items and invitations are frozen once the request leaves DRAFT.
type QuotationRequest struct {
	ID                       uuid.UUID             `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	ProjectID                uuid.UUID             `gorm:"type:uuid;not null;index" json:"project_id"`
	IssuerID                 uuid.UUID             `gorm:"type:uuid;not null;index" json:"issuer_id"` // quantity surveyor
	Description              string                `gorm:"type:text" json:"description"`
	Deadline                 time.Time             `gorm:"type:date;not null" json:"deadline"` // informational only
	Status                   string                `gorm:"type:varchar(20);not null;default:'DRAFT';index" json:"status"`
	Items                    []QuotationItem       `gorm:"foreignKey:QuotationID;constraint:OnDelete:CASCADE" json:"items"`
	Invitations              []QuotationInvitation `gorm:"foreignKey:QuotationID;constraint:OnDelete:CASCADE" json:"invitations"`
	SentAt                   *time.Time            `json:"sent_at"`
	ClosedAt                 *time.Time            `json:"closed_at"`
	CloseReason              string                `gorm:"type:text" json:"close_reason"`
	ResultingPurchaseOrderID *uuid.UUID            `gorm:"type:uuid;uniqueIndex" json:"resulting_purchase_order_id"`
	Version                  int64                 `gorm:"not null;default:1" json:"version"`
	CreatedAt                time.Time             `json:"created_at"`
	UpdatedAt                time.Time             `json:"updated_at"`
}

// IsTerminal reports whether the request reached CLOSED or CANCELLED.
func (q *QuotationRequest) IsTerminal() bool {
	return q.Status == QuotationStatusClosed || q.Status == QuotationStatusCancelled
}

// IsInvited reports whether supplierID belongs to the invited set.
func (q *QuotationRequest) IsInvited(supplierID uuid.UUID) bool {
	for _, inv := range q.Invitations {
		if inv.SupplierID == supplierID {
			return true
		}
	}
	return false
}

// InvitedSupplierIDs returns the invited supplier ids in invitation order.
func (q *QuotationRequest) InvitedSupplierIDs() []uuid.UUID {
	ids := make([]uuid.UUID, 0, len(q.Invitations))
	for _, inv := range q.Invitations {
		ids = append(ids, inv.SupplierID)
	}
	return ids
}

// QuotationItem is one priced line of a quotation request. Position keeps the item order stable.
type QuotationItem struct {
	ID                  uuid.UUID       `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	QuotationID         uuid.UUID       `gorm:"type:uuid;not null;index" json:"quotation_id"`
	Position            int             `gorm:"type:int;not null" json:"position"`
	Name                string          `gorm:"type:varchar(255);not null" json:"name"`
	Description         string          `gorm:"type:text" json:"description"`
	Unit                string          `gorm:"type:varchar(50)" json:"unit"`
	Quantity            decimal.Decimal `gorm:"type:decimal(18,4);not null" json:"quantity"`
	EstimatedUnitAmount decimal.Decimal `gorm:"type:decimal(18,4);not null;default:0" json:"estimated_unit_amount"`
}

// QuotationInvitation records that a supplier was invited to respond to a quotation.
type QuotationInvitation struct {
	ID          uuid.UUID `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	QuotationID uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_invitation_quotation_supplier" json:"quotation_id"`
	SupplierID  uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_invitation_quotation_supplier;index" json:"supplier_id"`
	InvitedAt   time.Time `json:"invited_at"`
}

// SupplierResponse is a supplier's priced reply to a quotation request.
// A supplier holds at most one response per quotation; terminal statuses are write-once.
type SupplierResponse struct {
	ID                   uuid.UUID       `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	QuotationID          uuid.UUID       `gorm:"type:uuid;not null;uniqueIndex:idx_response_quotation_supplier;index" json:"quotation_id"`
	SupplierID           uuid.UUID       `gorm:"type:uuid;not null;uniqueIndex:idx_response_quotation_supplier" json:"supplier_id"`
	TotalAmount          decimal.Decimal `gorm:"type:decimal(18,4);not null" json:"total_amount"`
	ProposedDeliveryDate time.Time       `gorm:"type:date;not null" json:"proposed_delivery_date"`
	Status               string          `gorm:"type:varchar(20);not null;default:'PENDING';index" json:"status"`
	Notes                string          `gorm:"type:text" json:"notes"`
	SubmittedAt          time.Time       `gorm:"not null" json:"submitted_at"`
	DecidedAt            *time.Time      `json:"decided_at"`
	CreatedAt            time.Time       `json:"created_at"`
	UpdatedAt            time.Time       `json:"updated_at"`
}

// IsTerminal reports whether the response was already accepted or rejected.
func (r *SupplierResponse) IsTerminal() bool {
	return r.Status == ResponseStatusAccepted || r.Status == ResponseStatusRejected
}
