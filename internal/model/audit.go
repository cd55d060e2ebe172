package model

import (
	"time"

	"github.com/google/uuid"
)

const (
	ActionCreateQuotation     = "CREATE_QUOTATION"
	ActionUpdateQuotation     = "UPDATE_QUOTATION"
	ActionSendQuotation       = "SEND_QUOTATION"
	ActionCancelQuotation     = "CANCEL_QUOTATION"
	ActionCloseQuotation      = "CLOSE_QUOTATION"
	ActionForceCloseQuotation = "FORCE_CLOSE_QUOTATION"
	ActionSubmitResponse      = "SUBMIT_SUPPLIER_RESPONSE"
	ActionRejectResponse      = "REJECT_SUPPLIER_RESPONSE"
	ActionAcceptResponse      = "ACCEPT_SUPPLIER_RESPONSE"
	ActionCreatePurchaseOrder = "CREATE_PURCHASE_ORDER"
	ActionCreateSupplier      = "CREATE_SUPPLIER"
	ActionUpdateSupplier      = "UPDATE_SUPPLIER"
)

// AuditLog tracks Who, What, and When for procurement lifecycle changes
type AuditLog struct {
	ID          uuid.UUID  `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	UserID      *uuid.UUID `gorm:"type:uuid;index" json:"user_id"` // nil for supplier-originated or automated actions
	QuotationID *uuid.UUID `gorm:"type:uuid;index" json:"quotation_id"`
	Action      string     `gorm:"type:varchar(50);not null;index" json:"action"`
	EntityID    string     `gorm:"type:varchar(50);index" json:"entity_id"`
	EntityName  string     `gorm:"type:varchar(255)" json:"entity_name,omitempty"`
	Details     string     `gorm:"type:jsonb" json:"details"` // Serialized JSON payload of the action
	CreatedAt   time.Time  `gorm:"index" json:"created_at"`
}
