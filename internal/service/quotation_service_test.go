package service_test

import (
	"context"
	"errors"
	"testing"

	"procurement/internal/model"
	"procurement/internal/service"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

func TestCreateQuotationValidation(t *testing.T) {
	valid := func() service.CreateQuotationRequest {
		return service.CreateQuotationRequest{
			ProjectID: uuid.NewString(),
			Deadline:  deadline,
			Items:     cementItems(),
		}
	}

	tests := []struct {
		name   string
		mutate func(*service.CreateQuotationRequest)
	}{
		{"missing project", func(r *service.CreateQuotationRequest) { r.ProjectID = "" }},
		{"malformed project", func(r *service.CreateQuotationRequest) { r.ProjectID = "project-7" }},
		{"bad deadline", func(r *service.CreateQuotationRequest) { r.Deadline = "31/12/2026" }},
		{"no items", func(r *service.CreateQuotationRequest) { r.Items = nil }},
		{"zero quantity", func(r *service.CreateQuotationRequest) { r.Items[0].Quantity = decimal.Zero }},
		{"negative estimate", func(r *service.CreateQuotationRequest) { r.Items[0].EstimatedUnitAmount = decimal.NewFromInt(-1) }},
		{"unnamed item", func(r *service.CreateQuotationRequest) { r.Items[0].Name = "" }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t)
			req := valid()
			tt.mutate(&req)

			_, err := f.quotations.CreateQuotation(context.Background(), f.userID, req)
			if !errors.Is(err, service.ErrValidation) {
				t.Fatalf("expected ErrValidation, got %v", err)
			}
		})
	}
}

func TestCreateQuotationStartsAsDraft(t *testing.T) {
	f := newFixture(t)
	q := f.createDraft(t, cementItems())

	if q.Status != model.QuotationStatusDraft {
		t.Fatalf("expected DRAFT, got %s", q.Status)
	}
	if q.IssuerID != f.userID {
		t.Errorf("expected issuer to default to the caller")
	}
	if len(q.Items) != 1 || q.Items[0].Name != "Cement" {
		t.Errorf("unexpected items %+v", q.Items)
	}
	if f.events.count(service.EventQuotationCreated) != 1 {
		t.Errorf("expected a quotation.created event")
	}
}

func TestUpdateDraft(t *testing.T) {
	f := newFixture(t)
	q := f.createDraft(t, cementItems())

	desc := "Cement and sand"
	items := append(cementItems(), service.QuotationItemRequest{
		Name:     "Sand",
		Unit:     "m3",
		Quantity: decimal.NewFromInt(12),
	})
	updated, err := f.quotations.UpdateDraft(context.Background(), f.userID, q.ID, service.UpdateQuotationRequest{
		Description: &desc,
		Items:       &items,
	})
	if err != nil {
		t.Fatalf("UpdateDraft: %v", err)
	}
	if updated.Description != desc || len(updated.Items) != 2 {
		t.Fatalf("update not applied: %+v", updated)
	}
	if updated.Items[1].Name != "Sand" {
		t.Errorf("expected item order to be preserved, got %+v", updated.Items)
	}
	if updated.Version != q.Version+1 {
		t.Errorf("expected version %d, got %d", q.Version+1, updated.Version)
	}
}

func TestSentQuotationIsFrozen(t *testing.T) {
	f := newFixture(t)
	s1 := f.addSupplier(t, "s1", true)
	q := f.createSent(t, s1)

	desc := "changed"
	items := cementItems()
	items[0].Quantity = decimal.NewFromInt(1)
	_, err := f.quotations.UpdateDraft(context.Background(), f.userID, q.ID, service.UpdateQuotationRequest{
		Description: &desc,
		Items:       &items,
	})
	if !errors.Is(err, service.ErrInvalidState) {
		t.Fatalf("expected ErrInvalidState, got %v", err)
	}

	_, err = f.quotations.SendQuotation(context.Background(), f.userID, q.ID, service.SendQuotationRequest{
		SupplierIDs: []string{f.addSupplier(t, "s2", true).String()},
	})
	if !errors.Is(err, service.ErrInvalidState) {
		t.Fatalf("expected ErrInvalidState on second send, got %v", err)
	}

	got, err := f.quotations.GetQuotation(context.Background(), q.ID)
	if err != nil {
		t.Fatalf("GetQuotation: %v", err)
	}
	if !got.Items[0].Quantity.Equal(decimal.NewFromInt(100)) || got.Description == desc {
		t.Errorf("items changed after send: %+v", got.Items)
	}
	if len(got.InvitedSupplierIDs) != 1 || got.InvitedSupplierIDs[0] != s1.String() {
		t.Errorf("invited suppliers changed after send: %v", got.InvitedSupplierIDs)
	}
}

func TestSendQuotation(t *testing.T) {
	f := newFixture(t)
	s1 := f.addSupplier(t, "s1", true)
	s2 := f.addSupplier(t, "s2", true)
	q := f.createDraft(t, cementItems())

	sent, err := f.quotations.SendQuotation(context.Background(), f.userID, q.ID, service.SendQuotationRequest{
		SupplierIDs: []string{s1.String(), s2.String(), s1.String()},
	})
	if err != nil {
		t.Fatalf("SendQuotation: %v", err)
	}
	if sent.Status != model.QuotationStatusSent || sent.SentAt == nil {
		t.Fatalf("expected SENT with sentAt, got %+v", sent)
	}
	if len(sent.InvitedSupplierIDs) != 2 {
		t.Errorf("expected duplicates to collapse, got %v", sent.InvitedSupplierIDs)
	}
	if len(f.gateway.invitations) != 2 {
		t.Errorf("expected 2 invitations, got %d", len(f.gateway.invitations))
	}
	if len(sent.Warnings) != 0 {
		t.Errorf("unexpected warnings %v", sent.Warnings)
	}
}

func TestSendQuotationRejectsUnknownOrInactiveSuppliers(t *testing.T) {
	tests := []struct {
		name     string
		supplier func(t *testing.T, f *fixture) uuid.UUID
	}{
		{"unknown", func(t *testing.T, f *fixture) uuid.UUID { return uuid.New() }},
		{"inactive", func(t *testing.T, f *fixture) uuid.UUID { return f.addSupplier(t, "dormant", false) }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t)
			q := f.createDraft(t, cementItems())

			_, err := f.quotations.SendQuotation(context.Background(), f.userID, q.ID, service.SendQuotationRequest{
				SupplierIDs: []string{tt.supplier(t, f).String()},
			})
			if !errors.Is(err, service.ErrValidation) {
				t.Fatalf("expected ErrValidation, got %v", err)
			}

			got, _ := f.quotations.GetQuotation(context.Background(), q.ID)
			if got.Status != model.QuotationStatusDraft {
				t.Errorf("expected quotation to stay DRAFT, got %s", got.Status)
			}
		})
	}
}

func TestSendQuotationEmptySupplierList(t *testing.T) {
	f := newFixture(t)
	q := f.createDraft(t, cementItems())

	_, err := f.quotations.SendQuotation(context.Background(), f.userID, q.ID, service.SendQuotationRequest{})
	if !errors.Is(err, service.ErrValidation) {
		t.Fatalf("expected ErrValidation, got %v", err)
	}
}

func TestSendQuotationNotificationFailureIsAWarning(t *testing.T) {
	f := newFixture(t)
	s1 := f.addSupplier(t, "s1", true)
	s2 := f.addSupplier(t, "s2", true)
	f.gateway.failFor[s2] = true

	sent := f.createSent(t, s1, s2)
	if sent.Status != model.QuotationStatusSent {
		t.Fatalf("expected SENT despite notification failure, got %s", sent.Status)
	}
	if len(sent.Warnings) != 1 {
		t.Fatalf("expected exactly one warning, got %v", sent.Warnings)
	}
}

func TestCancelQuotation(t *testing.T) {
	t.Run("draft", func(t *testing.T) {
		f := newFixture(t)
		q := f.createDraft(t, cementItems())

		cancelled, err := f.quotations.CancelQuotation(context.Background(), f.userID, q.ID)
		if err != nil {
			t.Fatalf("CancelQuotation: %v", err)
		}
		if cancelled.Status != model.QuotationStatusCancelled || cancelled.ClosedAt == nil {
			t.Fatalf("expected CANCELLED with closedAt, got %+v", cancelled)
		}
	})

	t.Run("sent rejects pending responses", func(t *testing.T) {
		f := newFixture(t)
		s1 := f.addSupplier(t, "s1", true)
		q := f.createSent(t, s1)
		f.submit(t, q.ID, s1, 10000)

		if _, err := f.quotations.CancelQuotation(context.Background(), f.userID, q.ID); err != nil {
			t.Fatalf("CancelQuotation: %v", err)
		}
		agg, err := f.responses.Aggregate(context.Background(), q.ID)
		if err != nil {
			t.Fatalf("Aggregate: %v", err)
		}
		if agg.Pending != 0 || agg.Rejected != 1 {
			t.Errorf("expected the pending response to be rejected, got %+v", agg)
		}
	})

	t.Run("terminal", func(t *testing.T) {
		f := newFixture(t)
		q := f.createDraft(t, cementItems())
		if _, err := f.quotations.CancelQuotation(context.Background(), f.userID, q.ID); err != nil {
			t.Fatalf("CancelQuotation: %v", err)
		}

		_, err := f.quotations.CancelQuotation(context.Background(), f.userID, q.ID)
		if !errors.Is(err, service.ErrInvalidState) {
			t.Fatalf("expected ErrInvalidState, got %v", err)
		}
	})

	t.Run("closed", func(t *testing.T) {
		f := newFixture(t)
		s1 := f.addSupplier(t, "s1", true)
		q := f.createSent(t, s1)
		if _, err := f.quotations.CloseQuotation(context.Background(), f.userID, q.ID); err != nil {
			t.Fatalf("CloseQuotation: %v", err)
		}

		_, err := f.quotations.CancelQuotation(context.Background(), f.userID, q.ID)
		if !errors.Is(err, service.ErrAlreadyClosed) {
			t.Fatalf("expected ErrAlreadyClosed, got %v", err)
		}
	})
}

func TestCloseQuotationWithoutResponses(t *testing.T) {
	f := newFixture(t)
	s1 := f.addSupplier(t, "s1", true)
	q := f.createSent(t, s1)

	eligibility, err := f.quotations.GetCloseEligibility(context.Background(), q.ID)
	if err != nil {
		t.Fatalf("GetCloseEligibility: %v", err)
	}
	if !eligibility.CanClose || eligibility.Reason != "no responses outstanding" {
		t.Fatalf("expected close to be allowed, got %+v", eligibility)
	}

	closed, err := f.quotations.CloseQuotation(context.Background(), f.userID, q.ID)
	if err != nil {
		t.Fatalf("CloseQuotation: %v", err)
	}
	if closed.Status != model.QuotationStatusClosed {
		t.Fatalf("expected CLOSED, got %s", closed.Status)
	}
	if closed.ResultingPurchaseOrderID != nil {
		t.Errorf("expected no purchase order")
	}

	orders, total, err := f.orders.ListPurchaseOrders(context.Background(), service.PurchaseOrderFilter{})
	if err != nil || total != 0 || len(orders) != 0 {
		t.Errorf("expected no purchase orders, got %d (err %v)", total, err)
	}
}

func TestCloseQuotationWithPendingResponses(t *testing.T) {
	f := newFixture(t)
	s1 := f.addSupplier(t, "s1", true)
	s2 := f.addSupplier(t, "s2", true)
	q := f.createSent(t, s1, s2)
	f.submit(t, q.ID, s1, 10000)
	f.submit(t, q.ID, s2, 9500)

	eligibility, err := f.quotations.GetCloseEligibility(context.Background(), q.ID)
	if err != nil {
		t.Fatalf("GetCloseEligibility: %v", err)
	}
	if eligibility.CanClose || eligibility.Pending != 2 {
		t.Fatalf("expected denial with 2 pending, got %+v", eligibility)
	}

	_, err = f.quotations.CloseQuotation(context.Background(), f.userID, q.ID)
	var notEligible *service.NotEligibleError
	if !errors.As(err, &notEligible) {
		t.Fatalf("expected NotEligibleError, got %v", err)
	}
	if notEligible.Reason != "2 pending responses remain" {
		t.Errorf("unexpected reason %q", notEligible.Reason)
	}

	got, _ := f.quotations.GetQuotation(context.Background(), q.ID)
	if got.Status != model.QuotationStatusSent {
		t.Errorf("expected quotation to stay SENT, got %s", got.Status)
	}
}

func TestCloseQuotationAfterAllRejected(t *testing.T) {
	f := newFixture(t)
	s1 := f.addSupplier(t, "s1", true)
	q := f.createSent(t, s1)
	resp := f.submit(t, q.ID, s1, 10000)

	if _, err := f.responses.RejectResponse(context.Background(), f.userID, resp.ID); err != nil {
		t.Fatalf("RejectResponse: %v", err)
	}
	if _, err := f.quotations.CloseQuotation(context.Background(), f.userID, q.ID); err != nil {
		t.Fatalf("expected close to succeed once nothing is pending, got %v", err)
	}
}

func TestForceCloseQuotation(t *testing.T) {
	f := newFixture(t)
	s1 := f.addSupplier(t, "s1", true)
	q := f.createSent(t, s1)
	f.submit(t, q.ID, s1, 10000)

	_, err := f.quotations.ForceCloseQuotation(context.Background(), f.userID, q.ID, service.ForceCloseRequest{Reason: "  "})
	if !errors.Is(err, service.ErrValidation) {
		t.Fatalf("expected ErrValidation for a blank reason, got %v", err)
	}

	closed, err := f.quotations.ForceCloseQuotation(context.Background(), f.userID, q.ID, service.ForceCloseRequest{Reason: "project suspended"})
	if err != nil {
		t.Fatalf("ForceCloseQuotation: %v", err)
	}
	if closed.Status != model.QuotationStatusClosed || closed.CloseReason != "project suspended" {
		t.Fatalf("unexpected result %+v", closed)
	}

	agg, _ := f.responses.Aggregate(context.Background(), q.ID)
	if agg.Pending != 0 || agg.Rejected != 1 {
		t.Errorf("expected pending response to be rejected, got %+v", agg)
	}
}

func TestCloseEligibilityOfDraft(t *testing.T) {
	f := newFixture(t)
	q := f.createDraft(t, cementItems())

	eligibility, err := f.quotations.GetCloseEligibility(context.Background(), q.ID)
	if err != nil {
		t.Fatalf("GetCloseEligibility: %v", err)
	}
	if eligibility.CanClose {
		t.Fatalf("a DRAFT quotation must not be closable")
	}
}

func TestCloseEligibilityUnknownQuotationIsDenied(t *testing.T) {
	f := newFixture(t)

	eligibility, err := f.quotations.GetCloseEligibility(context.Background(), uuid.NewString())
	if !errors.Is(err, service.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	if eligibility.CanClose {
		t.Fatalf("expected a denial alongside the error")
	}
}

func TestClosedQuotationOperationsReportAlreadyClosed(t *testing.T) {
	f := newFixture(t)
	s1 := f.addSupplier(t, "s1", true)
	q := f.createSent(t, s1)
	if _, err := f.quotations.CloseQuotation(context.Background(), f.userID, q.ID); err != nil {
		t.Fatalf("CloseQuotation: %v", err)
	}

	_, err := f.quotations.CloseQuotation(context.Background(), f.userID, q.ID)
	if !errors.Is(err, service.ErrAlreadyClosed) || !errors.Is(err, service.ErrInvalidState) {
		t.Fatalf("expected ErrAlreadyClosed and ErrInvalidState, got %v", err)
	}

	_, err = f.responses.SubmitResponse(context.Background(), q.ID, submitRequest(s1, 100))
	if !errors.Is(err, service.ErrInvalidState) {
		t.Fatalf("expected ErrInvalidState for submission after close, got %v", err)
	}
}

func TestListQuotations(t *testing.T) {
	f := newFixture(t)
	s1 := f.addSupplier(t, "s1", true)
	f.createDraft(t, cementItems())
	f.createDraft(t, cementItems())
	f.createSent(t, s1)

	all, total, err := f.quotations.ListQuotations(context.Background(), service.QuotationFilter{})
	if err != nil {
		t.Fatalf("ListQuotations: %v", err)
	}
	if total != 3 || len(all) != 3 {
		t.Fatalf("expected 3 quotations, got %d", total)
	}

	drafts, total, err := f.quotations.ListQuotations(context.Background(), service.QuotationFilter{Status: model.QuotationStatusDraft})
	if err != nil {
		t.Fatalf("ListQuotations: %v", err)
	}
	if total != 2 || len(drafts) != 2 {
		t.Fatalf("expected 2 drafts, got %d", total)
	}

	page, total, err := f.quotations.ListQuotations(context.Background(), service.QuotationFilter{Page: 2, Limit: 2})
	if err != nil {
		t.Fatalf("ListQuotations: %v", err)
	}
	if total != 3 || len(page) != 1 {
		t.Fatalf("expected 1 item on page 2 of 3, got %d", len(page))
	}
}

func TestLifecycleIsAudited(t *testing.T) {
	f := newFixture(t)
	s1 := f.addSupplier(t, "s1", true)
	q := f.createSent(t, s1)

	qid := uuid.MustParse(q.ID)
	logs, total, err := f.audit.List(context.Background(), &qid, 1, 10)
	if err != nil {
		t.Fatalf("audit list: %v", err)
	}
	if total != 2 {
		t.Fatalf("expected create and send entries, got %d", total)
	}
	if logs[0].Action != model.ActionSendQuotation || logs[1].Action != model.ActionCreateQuotation {
		t.Errorf("unexpected audit order: %s, %s", logs[0].Action, logs[1].Action)
	}
}
