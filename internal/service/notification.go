package service

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
)

// NotificationGateway delivers supplier-facing notifications. Delivery is best effort:
// a failure is reported to the caller but never undoes a committed transition.
type NotificationGateway interface {
	NotifyInvitation(ctx context.Context, quotationID, supplierID uuid.UUID) error
	NotifyAward(ctx context.Context, purchaseOrderID uuid.UUID) error
}

// EventPublisher fans lifecycle events out to live dashboards.
type EventPublisher interface {
	Publish(event string, data map[string]interface{})
}

// Lifecycle event names pushed through the EventPublisher.
const (
	EventQuotationCreated     = "quotation.created"
	EventQuotationUpdated     = "quotation.updated"
	EventQuotationSent        = "quotation.sent"
	EventQuotationCancelled   = "quotation.cancelled"
	EventQuotationClosed      = "quotation.closed"
	EventResponseSubmitted    = "response.submitted"
	EventResponseRejected     = "response.rejected"
	EventPurchaseOrderCreated = "purchase_order.created"
)

const defaultNotifyTimeout = 5 * time.Second

// Notifier runs the post-commit side effects shared by the workflow services.
type Notifier struct {
	gateway NotificationGateway
	events  EventPublisher
	timeout time.Duration
	logger  *slog.Logger
}

// NewNotifier accepts nil collaborators; missing ones are skipped.
func NewNotifier(gateway NotificationGateway, events EventPublisher, timeout time.Duration, logger *slog.Logger) *Notifier {
	if timeout <= 0 {
		timeout = defaultNotifyTimeout
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Notifier{gateway: gateway, events: events, timeout: timeout, logger: logger}
}

// Invite notifies every supplier and returns one warning per failed delivery.
func (n *Notifier) Invite(ctx context.Context, quotationID uuid.UUID, supplierIDs []uuid.UUID) []string {
	if n == nil || n.gateway == nil {
		return nil
	}

	var warnings []string
	for _, supplierID := range supplierIDs {
		callCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), n.timeout)
		err := n.gateway.NotifyInvitation(callCtx, quotationID, supplierID)
		cancel()
		if err != nil {
			n.logger.Warn("quotation invitation not delivered",
				"quotation_id", quotationID, "supplier_id", supplierID, "error", err)
			warnings = append(warnings, fmt.Sprintf("invitation to supplier %s not delivered: %v", supplierID, err))
		}
	}
	return warnings
}

// Award notifies the winning supplier and returns a warning if delivery failed.
func (n *Notifier) Award(ctx context.Context, purchaseOrderID uuid.UUID) []string {
	if n == nil || n.gateway == nil {
		return nil
	}

	callCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), n.timeout)
	defer cancel()
	if err := n.gateway.NotifyAward(callCtx, purchaseOrderID); err != nil {
		n.logger.Warn("purchase order award not delivered",
			"purchase_order_id", purchaseOrderID, "error", err)
		return []string{fmt.Sprintf("award notification for purchase order %s not delivered: %v", purchaseOrderID, err)}
	}
	return nil
}

// Publish pushes a lifecycle event if an EventPublisher is wired.
func (n *Notifier) Publish(event string, data map[string]interface{}) {
	if n == nil || n.events == nil {
		return
	}
	n.events.Publish(event, data)
}
