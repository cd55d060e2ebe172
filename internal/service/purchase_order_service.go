package service

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"time"

	"procurement/internal/model"
	"procurement/internal/repository"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type PurchaseOrderService interface {
	SelectResponseForPurchase(ctx context.Context, userID string, responseID string) (PurchaseOrderResponse, error)
	GetPurchaseOrder(ctx context.Context, id string) (PurchaseOrderResponse, error)
	ListPurchaseOrders(ctx context.Context, filter PurchaseOrderFilter) ([]PurchaseOrderResponse, int64, error)
}

type purchaseOrderService struct {
	store    repository.QuotationStore
	notifier *Notifier
}

func NewPurchaseOrderService(store repository.QuotationStore, notifier *Notifier) PurchaseOrderService {
	return &purchaseOrderService{store: store, notifier: notifier}
}

// SelectResponseForPurchase accepts one supplier response and, in the same transaction,
// rejects the remaining pending responses, creates the purchase order and closes the quotation.
func (s *purchaseOrderService) SelectResponseForPurchase(ctx context.Context, userID string, responseID string) (PurchaseOrderResponse, error) {
	rid, err := parseUUID("response id", responseID)
	if err != nil {
		return PurchaseOrderResponse{}, err
	}

	existing, err := s.store.FindResponse(ctx, rid)
	if err != nil {
		return PurchaseOrderResponse{}, translateStoreErr(err, "supplier response "+responseID)
	}

	var order *model.PurchaseOrder
	err = s.store.Transact(ctx, existing.QuotationID, func(ctx context.Context, snap *repository.QuotationSnapshot) error {
		q := snap.Quotation
		resp := snap.Response(rid)
		if resp == nil {
			return notFoundf("supplier response %s", responseID)
		}
		if err := checkAcceptable(q, resp); err != nil {
			return err
		}

		now := time.Now()
		accepted := now
		resp.Status = model.ResponseStatusAccepted
		resp.DecidedAt = &accepted
		snap.PutResponse(resp)

		for _, other := range snap.Responses {
			if other.ID == resp.ID || other.Status != model.ResponseStatusPending {
				continue
			}
			decided := now
			other.Status = model.ResponseStatusRejected
			other.DecidedAt = &decided
			snap.PutResponse(other)
		}

		po := &model.PurchaseOrder{
			ID:                 uuid.New(),
			SupplierResponseID: resp.ID,
			SupplierID:         resp.SupplierID,
			ProjectID:          q.ProjectID,
			Items:              priceItems(q.Items, resp.TotalAmount),
			TotalAmount:        resp.TotalAmount,
			DeliveryDate:       resp.ProposedDeliveryDate,
			OrderStatus:        model.OrderStatusPending,
			PaymentStatus:      model.PaymentStatusUnpaid,
		}
		snap.AttachPurchaseOrder(po)

		poID := po.ID
		q.Status = model.QuotationStatusClosed
		q.ClosedAt = &now
		q.ResultingPurchaseOrderID = &poID
		snap.Touch()

		actor := parseActor(userID)
		details, _ := json.Marshal(map[string]interface{}{
			"supplier_id":  resp.SupplierID.String(),
			"total_amount": resp.TotalAmount.StringFixed(4),
		})
		snap.Audit(model.AuditLog{
			UserID:     actor,
			Action:     model.ActionAcceptResponse,
			EntityID:   resp.ID.String(),
			EntityName: resp.SupplierID.String(),
			Details:    string(details),
		})
		poDetails, _ := json.Marshal(map[string]interface{}{
			"quotation_id": q.ID.String(),
			"total":        po.TotalAmount.StringFixed(4),
			"items":        len(po.Items),
		})
		snap.Audit(model.AuditLog{
			UserID:     actor,
			Action:     model.ActionCreatePurchaseOrder,
			EntityID:   po.ID.String(),
			EntityName: q.Description,
			Details:    string(poDetails),
		})

		order = po
		return nil
	})
	if err != nil {
		return PurchaseOrderResponse{}, translateStoreErr(err, "quotation "+existing.QuotationID.String())
	}

	result := toPurchaseOrderResponse(*order)
	result.Warnings = s.notifier.Award(ctx, order.ID)

	s.notifier.Publish(EventPurchaseOrderCreated, map[string]interface{}{
		"quotation_id":      order.QuotationID.String(),
		"purchase_order_id": order.ID.String(),
		"supplier_id":       order.SupplierID.String(),
	})
	s.notifier.Publish(EventQuotationClosed, map[string]interface{}{
		"quotation_id":   order.QuotationID.String(),
		"purchase_order": order.ID.String(),
	})
	return result, nil
}

// checkAcceptable is the compare-and-swap guard of the award: it runs against the
// locked snapshot, so of two racing awards only the first one can pass it.
func checkAcceptable(q *model.QuotationRequest, resp *model.SupplierResponse) error {
	closed := q.Status == model.QuotationStatusClosed || q.ResultingPurchaseOrderID != nil

	switch {
	case closed && resp.Status == model.ResponseStatusRejected:
		return fmt.Errorf("%w: %w: response %s was rejected when quotation %s closed",
			ErrImmutableResponse, ErrAlreadyClosed, resp.ID, q.ID)
	case closed:
		return fmt.Errorf("%w: quotation %s", ErrAlreadyClosed, q.ID)
	case resp.Status != model.ResponseStatusPending:
		return fmt.Errorf("%w: response %s is %s", ErrImmutableResponse, resp.ID, resp.Status)
	case q.Status != model.QuotationStatusSent:
		return invalidStatef("quotation is %s: only SENT quotations can be awarded", q.Status)
	}
	return nil
}

// priceItems snapshots the quotation items and spreads the accepted total over them,
// weighted by estimated line amounts (or by quantity when nothing was estimated).
// Each share is truncated to cents and the leftover cents go to the lines with the
// largest truncated remainders, so no line is negative and the lines sum to total.
func priceItems(items []model.QuotationItem, total decimal.Decimal) []model.PurchaseOrderItem {
	weights := make([]decimal.Decimal, len(items))
	sum := decimal.Zero
	for i, item := range items {
		weights[i] = item.Quantity.Mul(item.EstimatedUnitAmount)
		sum = sum.Add(weights[i])
	}
	if sum.IsZero() {
		for i, item := range items {
			weights[i] = item.Quantity
		}
		sum = decimal.Sum(decimal.Zero, weights...)
	}

	totals := make([]decimal.Decimal, len(items))
	remainders := make([]decimal.Decimal, len(items))
	allocated := decimal.Zero
	for i := range items {
		share := total.Mul(weights[i]).Div(sum)
		totals[i] = share.Truncate(2)
		remainders[i] = share.Sub(totals[i])
		allocated = allocated.Add(totals[i])
	}

	order := make([]int, len(items))
	for i := range order {
		order[i] = i
	}
	sort.SliceStable(order, func(a, b int) bool {
		return remainders[order[a]].GreaterThan(remainders[order[b]])
	})

	cent := decimal.New(1, -2)
	leftover := total.Sub(allocated)
	for k := 0; leftover.GreaterThanOrEqual(cent) && len(order) > 0; k++ {
		i := order[k%len(order)]
		totals[i] = totals[i].Add(cent)
		leftover = leftover.Sub(cent)
	}
	if !leftover.IsZero() && len(order) > 0 {
		// sub-cent totals
		totals[order[0]] = totals[order[0]].Add(leftover)
	}

	lines := make([]model.PurchaseOrderItem, 0, len(items))
	for i, item := range items {
		lines = append(lines, model.PurchaseOrderItem{
			ID:          uuid.New(),
			Position:    i,
			Name:        item.Name,
			Description: item.Description,
			Unit:        item.Unit,
			Quantity:    item.Quantity,
			UnitAmount:  totals[i].Div(item.Quantity).Round(4),
			LineTotal:   totals[i],
		})
	}
	return lines
}

func (s *purchaseOrderService) GetPurchaseOrder(ctx context.Context, id string) (PurchaseOrderResponse, error) {
	poID, err := parseUUID("purchase order id", id)
	if err != nil {
		return PurchaseOrderResponse{}, err
	}

	po, err := s.store.FindPurchaseOrder(ctx, poID)
	if err != nil {
		return PurchaseOrderResponse{}, translateStoreErr(err, "purchase order "+id)
	}
	return toPurchaseOrderResponse(*po), nil
}

func (s *purchaseOrderService) ListPurchaseOrders(ctx context.Context, filter PurchaseOrderFilter) ([]PurchaseOrderResponse, int64, error) {
	if filter.Page <= 0 {
		filter.Page = 1
	}
	if filter.Limit <= 0 {
		filter.Limit = 20
	}

	storeFilter := repository.PurchaseOrderFilter{Page: filter.Page, Limit: filter.Limit}
	if filter.ProjectID != "" {
		projectID, err := parseUUID("project_id", filter.ProjectID)
		if err != nil {
			return nil, 0, err
		}
		storeFilter.ProjectID = &projectID
	}
	if filter.SupplierID != "" {
		supplierID, err := parseUUID("supplier_id", filter.SupplierID)
		if err != nil {
			return nil, 0, err
		}
		storeFilter.SupplierID = &supplierID
	}

	orders, total, err := s.store.ListPurchaseOrders(ctx, storeFilter)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to fetch purchase orders: %w", err)
	}

	result := make([]PurchaseOrderResponse, 0, len(orders))
	for _, po := range orders {
		result = append(result, toPurchaseOrderResponse(po))
	}
	return result, total, nil
}
