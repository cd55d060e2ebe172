// Package notification delivers supplier-facing messages for the quotation workflow.
package notification

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"procurement/internal/model"

	"github.com/google/uuid"
)

// Event names published for every delivered notification.
const (
	EventInvitationDelivered = "notification.invitation"
	EventAwardDelivered      = "notification.award"
)

var (
	ErrSupplierInactive = errors.New("supplier is inactive")
	ErrNoContact        = errors.New("supplier has no email address")
)

type SupplierLookup interface {
	FindByID(ctx context.Context, id uuid.UUID) (*model.Supplier, error)
}

type OrderLookup interface {
	FindPurchaseOrder(ctx context.Context, id uuid.UUID) (*model.PurchaseOrder, error)
}

// Publisher is satisfied by the websocket hub.
type Publisher interface {
	Publish(event string, data map[string]interface{})
}

// Gateway resolves the recipient, writes a structured log line and pushes the
// message onto the event stream, where the supplier portal picks it up.
type Gateway struct {
	suppliers SupplierLookup
	orders    OrderLookup
	events    Publisher
	logger    *slog.Logger
}

func NewGateway(suppliers SupplierLookup, orders OrderLookup, events Publisher, logger *slog.Logger) *Gateway {
	if logger == nil {
		logger = slog.Default()
	}
	return &Gateway{
		suppliers: suppliers,
		orders:    orders,
		events:    events,
		logger:    logger.With("component", "notification"),
	}
}

func (g *Gateway) NotifyInvitation(ctx context.Context, quotationID, supplierID uuid.UUID) error {
	supplier, err := g.recipient(ctx, supplierID)
	if err != nil {
		return err
	}

	g.deliver(ctx, EventInvitationDelivered, supplier, map[string]interface{}{
		"quotation_id": quotationID.String(),
	})
	return nil
}

func (g *Gateway) NotifyAward(ctx context.Context, purchaseOrderID uuid.UUID) error {
	po, err := g.orders.FindPurchaseOrder(ctx, purchaseOrderID)
	if err != nil {
		return fmt.Errorf("load purchase order %s: %w", purchaseOrderID, err)
	}

	supplier, err := g.recipient(ctx, po.SupplierID)
	if err != nil {
		return err
	}

	g.deliver(ctx, EventAwardDelivered, supplier, map[string]interface{}{
		"quotation_id":      po.QuotationID.String(),
		"purchase_order_id": po.ID.String(),
		"order_no":          po.OrderNo,
		"total_amount":      po.TotalAmount.StringFixed(2),
		"delivery_date":     po.DeliveryDate.Format("2006-01-02"),
	})
	return nil
}

func (g *Gateway) recipient(ctx context.Context, supplierID uuid.UUID) (*model.Supplier, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	supplier, err := g.suppliers.FindByID(ctx, supplierID)
	if err != nil {
		return nil, fmt.Errorf("load supplier %s: %w", supplierID, err)
	}
	if !supplier.IsActive {
		return nil, fmt.Errorf("%w: %s", ErrSupplierInactive, supplierID)
	}
	if supplier.Email == "" {
		return nil, fmt.Errorf("%w: %s", ErrNoContact, supplierID)
	}
	return supplier, nil
}

func (g *Gateway) deliver(ctx context.Context, event string, supplier *model.Supplier, payload map[string]interface{}) {
	payload["supplier_id"] = supplier.ID.String()
	payload["email"] = supplier.Email
	payload["sent_at"] = time.Now().Format(time.RFC3339)

	g.logger.InfoContext(ctx, "notification delivered",
		"event", event, "supplier_id", supplier.ID, "email", supplier.Email)
	if g.events != nil {
		g.events.Publish(event, payload)
	}
}
