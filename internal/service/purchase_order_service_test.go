package service_test

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"

	"procurement/internal/model"
	"procurement/internal/service"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Cement RFQ, two quotes, the higher one is accepted.
func TestAcceptCementQuote(t *testing.T) {
	f := newFixture(t)
	s1 := f.addSupplier(t, "s1", true)
	s2 := f.addSupplier(t, "s2", true)
	q := f.createSent(t, s1, s2)

	r1 := f.submit(t, q.ID, s1, 10000)
	r2 := f.submit(t, q.ID, s2, 9500)

	po, err := f.orders.SelectResponseForPurchase(context.Background(), f.userID, r1.ID)
	if err != nil {
		t.Fatalf("SelectResponseForPurchase: %v", err)
	}
	if !po.TotalAmount.Equal(decimal.NewFromInt(10000)) {
		t.Errorf("expected total 10000, got %s", po.TotalAmount)
	}
	if po.SupplierID != s1.String() || po.QuotationID != q.ID {
		t.Errorf("purchase order points at the wrong parties: %+v", po)
	}
	if !strings.HasPrefix(po.OrderNo, "PO-") {
		t.Errorf("unexpected order number %q", po.OrderNo)
	}
	if po.DeliveryDate != deliveryDate {
		t.Errorf("expected delivery date %s, got %s", deliveryDate, po.DeliveryDate)
	}
	if len(po.Items) != 1 || po.Items[0].Name != "Cement" || !po.Items[0].LineTotal.Equal(decimal.NewFromInt(10000)) {
		t.Errorf("unexpected order lines %+v", po.Items)
	}

	closed, err := f.quotations.GetQuotation(context.Background(), q.ID)
	if err != nil {
		t.Fatalf("GetQuotation: %v", err)
	}
	if closed.Status != model.QuotationStatusClosed {
		t.Fatalf("expected CLOSED, got %s", closed.Status)
	}
	if closed.ResultingPurchaseOrderID == nil || *closed.ResultingPurchaseOrderID != po.ID {
		t.Fatalf("expected resulting purchase order %s", po.ID)
	}

	responses, err := f.responses.ListResponses(context.Background(), q.ID)
	if err != nil {
		t.Fatalf("ListResponses: %v", err)
	}
	status := map[string]string{}
	for _, r := range responses {
		status[r.ID] = r.Status
	}
	if status[r1.ID] != model.ResponseStatusAccepted || status[r2.ID] != model.ResponseStatusRejected {
		t.Fatalf("unexpected response statuses %v", status)
	}

	_, err = f.orders.SelectResponseForPurchase(context.Background(), f.userID, r2.ID)
	if !errors.Is(err, service.ErrImmutableResponse) {
		t.Fatalf("expected ErrImmutableResponse when retrying the rejected quote, got %v", err)
	}

	_, err = f.orders.SelectResponseForPurchase(context.Background(), f.userID, r1.ID)
	if !errors.Is(err, service.ErrAlreadyClosed) {
		t.Fatalf("expected ErrAlreadyClosed when accepting twice, got %v", err)
	}

	if len(f.gateway.awards) != 1 {
		t.Errorf("expected one award notification, got %d", len(f.gateway.awards))
	}
	if f.events.count(service.EventPurchaseOrderCreated) != 1 {
		t.Errorf("expected one purchase_order.created event")
	}
}

func TestConcurrentAcceptCreatesOneOrder(t *testing.T) {
	for round := 0; round < 10; round++ {
		f := newFixture(t)
		s1 := f.addSupplier(t, "s1", true)
		s2 := f.addSupplier(t, "s2", true)
		q := f.createSent(t, s1, s2)
		r1 := f.submit(t, q.ID, s1, 10000)
		r2 := f.submit(t, q.ID, s2, 9500)

		var wg sync.WaitGroup
		results := make(chan error, 2)
		start := make(chan struct{})
		for _, id := range []string{r1.ID, r2.ID} {
			wg.Add(1)
			go func(responseID string) {
				defer wg.Done()
				<-start
				_, err := f.orders.SelectResponseForPurchase(context.Background(), f.userID, responseID)
				results <- err
			}(id)
		}
		close(start)
		wg.Wait()
		close(results)

		var wins, lost int
		for err := range results {
			switch {
			case err == nil:
				wins++
			case errors.Is(err, service.ErrAlreadyClosed):
				lost++
			default:
				t.Fatalf("unexpected error from losing accept: %v", err)
			}
		}
		if wins != 1 || lost != 1 {
			t.Fatalf("expected one winner and one AlreadyClosed, got %d wins and %d losses", wins, lost)
		}

		_, total, err := f.orders.ListPurchaseOrders(context.Background(), service.PurchaseOrderFilter{})
		if err != nil {
			t.Fatalf("ListPurchaseOrders: %v", err)
		}
		if total != 1 {
			t.Fatalf("expected exactly one purchase order, got %d", total)
		}

		agg, _ := f.responses.Aggregate(context.Background(), q.ID)
		if agg.Accepted != 1 || agg.Rejected != 1 {
			t.Fatalf("expected one accepted and one rejected, got %+v", agg)
		}
	}
}

func TestAcceptGuards(t *testing.T) {
	t.Run("rejected response", func(t *testing.T) {
		f := newFixture(t)
		s1 := f.addSupplier(t, "s1", true)
		q := f.createSent(t, s1)
		r1 := f.submit(t, q.ID, s1, 10000)
		if _, err := f.responses.RejectResponse(context.Background(), f.userID, r1.ID); err != nil {
			t.Fatalf("RejectResponse: %v", err)
		}

		_, err := f.orders.SelectResponseForPurchase(context.Background(), f.userID, r1.ID)
		if !errors.Is(err, service.ErrImmutableResponse) {
			t.Fatalf("expected ErrImmutableResponse for a rejected response, got %v", err)
		}
	})

	t.Run("unknown response", func(t *testing.T) {
		f := newFixture(t)
		_, err := f.orders.SelectResponseForPurchase(context.Background(), f.userID, uuid.NewString())
		if !errors.Is(err, service.ErrNotFound) {
			t.Fatalf("expected ErrNotFound, got %v", err)
		}
	})

	t.Run("malformed id", func(t *testing.T) {
		f := newFixture(t)
		_, err := f.orders.SelectResponseForPurchase(context.Background(), f.userID, "r-1")
		if !errors.Is(err, service.ErrValidation) {
			t.Fatalf("expected ErrValidation, got %v", err)
		}
	})
}

func TestAwardNotificationFailureIsAWarning(t *testing.T) {
	f := newFixture(t)
	f.gateway.failAwards = true
	s1 := f.addSupplier(t, "s1", true)
	q := f.createSent(t, s1)
	r1 := f.submit(t, q.ID, s1, 10000)

	po, err := f.orders.SelectResponseForPurchase(context.Background(), f.userID, r1.ID)
	if err != nil {
		t.Fatalf("SelectResponseForPurchase: %v", err)
	}
	if len(po.Warnings) != 1 {
		t.Fatalf("expected one warning, got %v", po.Warnings)
	}

	got, err := f.orders.GetPurchaseOrder(context.Background(), po.ID)
	if err != nil {
		t.Fatalf("GetPurchaseOrder: %v", err)
	}
	if got.OrderNo != po.OrderNo {
		t.Errorf("expected the order to be committed despite the warning")
	}
}

func TestListPurchaseOrdersBySupplier(t *testing.T) {
	f := newFixture(t)
	s1 := f.addSupplier(t, "s1", true)
	s2 := f.addSupplier(t, "s2", true)

	for _, s := range []uuid.UUID{s1, s2} {
		q := f.createSent(t, s)
		r := f.submit(t, q.ID, s, 5000)
		if _, err := f.orders.SelectResponseForPurchase(context.Background(), f.userID, r.ID); err != nil {
			t.Fatalf("SelectResponseForPurchase: %v", err)
		}
	}

	orders, total, err := f.orders.ListPurchaseOrders(context.Background(), service.PurchaseOrderFilter{SupplierID: s2.String()})
	if err != nil {
		t.Fatalf("ListPurchaseOrders: %v", err)
	}
	if total != 1 || orders[0].SupplierID != s2.String() {
		t.Fatalf("expected only s2's order, got %+v", orders)
	}
}
