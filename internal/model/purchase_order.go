package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// PurchaseOrder status enum constants
const (
	OrderStatusPending   = "PENDING"
	OrderStatusCompleted = "COMPLETED"
)

// PaymentStatus enum constants
const (
	PaymentStatusUnpaid  = "UNPAID"
	PaymentStatusPartial = "PARTIAL"
	PaymentStatusPaid    = "PAID"
)

// PurchaseOrder is the binding order created by accepting exactly one supplier response.
// There is at most one per quotation request.
type PurchaseOrder struct {
	ID                 uuid.UUID           `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	OrderNo            string              `gorm:"type:varchar(30);uniqueIndex;not null" json:"order_no"`
	QuotationID        uuid.UUID           `gorm:"type:uuid;not null;uniqueIndex" json:"quotation_id"`
	SupplierResponseID uuid.UUID           `gorm:"type:uuid;not null;uniqueIndex" json:"supplier_response_id"`
	SupplierID         uuid.UUID           `gorm:"type:uuid;not null;index" json:"supplier_id"`
	ProjectID          uuid.UUID           `gorm:"type:uuid;not null;index" json:"project_id"`
	Items              []PurchaseOrderItem `gorm:"foreignKey:PurchaseOrderID;constraint:OnDelete:CASCADE" json:"items"`
	TotalAmount        decimal.Decimal     `gorm:"type:decimal(18,4);not null" json:"total_amount"`
	DeliveryDate       time.Time           `gorm:"type:date;not null" json:"delivery_date"`
	OrderStatus        string              `gorm:"type:varchar(20);not null;default:'PENDING';index" json:"order_status"`
	PaymentStatus      string              `gorm:"type:varchar(20);not null;default:'UNPAID';index" json:"payment_status"`
	CreatedAt          time.Time           `json:"created_at"`
	UpdatedAt          time.Time           `json:"updated_at"`
}

// PurchaseOrderItem is a snapshot of a quotation item priced from the accepted response.
type PurchaseOrderItem struct {
	ID              uuid.UUID       `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	PurchaseOrderID uuid.UUID       `gorm:"type:uuid;not null;index" json:"purchase_order_id"`
	Position        int             `gorm:"type:int;not null" json:"position"`
	Name            string          `gorm:"type:varchar(255);not null" json:"name"`
	Description     string          `gorm:"type:text" json:"description"`
	Unit            string          `gorm:"type:varchar(50)" json:"unit"`
	Quantity        decimal.Decimal `gorm:"type:decimal(18,4);not null" json:"quantity"`
	UnitAmount      decimal.Decimal `gorm:"type:decimal(18,4);not null" json:"unit_amount"`
	LineTotal       decimal.Decimal `gorm:"type:decimal(18,4);not null" json:"line_total"`
}
