package repository_test

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"procurement/internal/model"
	"procurement/internal/repository"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

func newQuotation(t *testing.T, store *repository.MemoryQuotationStore) uuid.UUID {
	t.Helper()
	q := &model.QuotationRequest{
		ProjectID: uuid.New(),
		IssuerID:  uuid.New(),
		Deadline:  time.Date(2026, 12, 31, 0, 0, 0, 0, time.UTC),
		Status:    model.QuotationStatusDraft,
		Items: []model.QuotationItem{
			{Name: "Cement", Quantity: decimal.NewFromInt(100)},
		},
	}
	if err := store.Create(context.Background(), q, model.AuditLog{Action: model.ActionCreateQuotation}); err != nil {
		t.Fatalf("Create: %v", err)
	}
	return q.ID
}

func TestTransactRollsBackOnError(t *testing.T) {
	audit := repository.NewMemoryAuditRepository()
	store := repository.NewMemoryQuotationStore(audit)
	id := newQuotation(t, store)
	boom := errors.New("boom")

	err := store.Transact(context.Background(), id, func(ctx context.Context, snap *repository.QuotationSnapshot) error {
		snap.Quotation.Status = model.QuotationStatusSent
		snap.Invite([]uuid.UUID{uuid.New()}, time.Now())
		snap.PutResponse(&model.SupplierResponse{SupplierID: uuid.New(), Status: model.ResponseStatusPending})
		snap.Audit(model.AuditLog{Action: model.ActionSendQuotation})
		return boom
	})
	if !errors.Is(err, boom) {
		t.Fatalf("expected fn error to propagate, got %v", err)
	}

	snap, err := store.Load(context.Background(), id)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if snap.Quotation.Status != model.QuotationStatusDraft {
		t.Errorf("status leaked from failed transaction: %s", snap.Quotation.Status)
	}
	if len(snap.Quotation.Invitations) != 0 || len(snap.Responses) != 0 {
		t.Errorf("partial writes leaked from failed transaction")
	}
	if snap.Quotation.Version != 1 {
		t.Errorf("version bumped by failed transaction: %d", snap.Quotation.Version)
	}
	if _, total, _ := audit.List(context.Background(), &id, 1, 10); total != 1 {
		t.Errorf("expected only the create audit entry, got %d", total)
	}
}

func TestTransactCommitsAndBumpsVersion(t *testing.T) {
	store := repository.NewMemoryQuotationStore(nil)
	id := newQuotation(t, store)

	err := store.Transact(context.Background(), id, func(ctx context.Context, snap *repository.QuotationSnapshot) error {
		snap.Quotation.Description = "updated"
		snap.Touch()
		return nil
	})
	if err != nil {
		t.Fatalf("Transact: %v", err)
	}

	snap, _ := store.Load(context.Background(), id)
	if snap.Quotation.Description != "updated" || snap.Quotation.Version != 2 {
		t.Fatalf("expected committed update at version 2, got %q v%d", snap.Quotation.Description, snap.Quotation.Version)
	}
}

func TestLoadReturnsIsolatedCopies(t *testing.T) {
	store := repository.NewMemoryQuotationStore(nil)
	id := newQuotation(t, store)

	snap, _ := store.Load(context.Background(), id)
	snap.Quotation.Items[0].Name = "Sand"
	snap.Quotation.Status = model.QuotationStatusClosed

	fresh, _ := store.Load(context.Background(), id)
	if fresh.Quotation.Items[0].Name != "Cement" || fresh.Quotation.Status != model.QuotationStatusDraft {
		t.Fatalf("mutating a loaded snapshot changed the stored quotation")
	}
}

func TestTransactUnknownQuotation(t *testing.T) {
	store := repository.NewMemoryQuotationStore(nil)

	err := store.Transact(context.Background(), uuid.New(), func(ctx context.Context, snap *repository.QuotationSnapshot) error {
		return nil
	})
	if !errors.Is(err, repository.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestTransactSerializesPerQuotation(t *testing.T) {
	const n = 50
	store := repository.NewMemoryQuotationStore(nil)
	id := newQuotation(t, store)

	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			err := store.Transact(context.Background(), id, func(ctx context.Context, snap *repository.QuotationSnapshot) error {
				snap.PutResponse(&model.SupplierResponse{SupplierID: uuid.New(), Status: model.ResponseStatusPending})
				snap.Touch()
				return nil
			})
			if err != nil {
				t.Errorf("Transact: %v", err)
			}
		}()
	}
	wg.Wait()

	snap, _ := store.Load(context.Background(), id)
	if len(snap.Responses) != n {
		t.Fatalf("expected %d responses, got %d", n, len(snap.Responses))
	}
	if snap.Quotation.Version != n+1 {
		t.Fatalf("expected version %d, got %d", n+1, snap.Quotation.Version)
	}
}

func TestPurchaseOrderNumbering(t *testing.T) {
	store := repository.NewMemoryQuotationStore(nil)

	var numbers []string
	for i := 0; i < 2; i++ {
		id := newQuotation(t, store)
		var po *model.PurchaseOrder
		err := store.Transact(context.Background(), id, func(ctx context.Context, snap *repository.QuotationSnapshot) error {
			po = &model.PurchaseOrder{SupplierID: uuid.New(), TotalAmount: decimal.NewFromInt(10)}
			snap.AttachPurchaseOrder(po)
			return nil
		})
		if err != nil {
			t.Fatalf("Transact: %v", err)
		}
		numbers = append(numbers, po.OrderNo)

		found, err := store.FindPurchaseOrder(context.Background(), po.ID)
		if err != nil {
			t.Fatalf("FindPurchaseOrder: %v", err)
		}
		if found.QuotationID != id {
			t.Errorf("purchase order linked to %s, want %s", found.QuotationID, id)
		}
	}

	if numbers[0] == numbers[1] {
		t.Fatalf("order numbers must be unique, got %v", numbers)
	}
	for _, n := range numbers {
		if !strings.HasPrefix(n, "PO-") {
			t.Errorf("unexpected order number %q", n)
		}
	}
}

func TestSupplierRepositoryList(t *testing.T) {
	repo := repository.NewMemorySupplierRepository()
	ctx := context.Background()
	for _, s := range []model.Supplier{
		{Name: "Beta Cement", Email: "sales@beta.test", IsActive: true},
		{Name: "Alpha Steel", Email: "hello@alpha.test", IsActive: true},
		{Name: "Gamma Sand", IsActive: false},
	} {
		s := s
		if err := repo.Create(ctx, &s); err != nil {
			t.Fatalf("Create: %v", err)
		}
	}

	tests := []struct {
		name       string
		search     string
		activeOnly bool
		want       []string
	}{
		{"all sorted by name", "", false, []string{"Alpha Steel", "Beta Cement", "Gamma Sand"}},
		{"active only", "", true, []string{"Alpha Steel", "Beta Cement"}},
		{"search by email", "beta.test", false, []string{"Beta Cement"}},
		{"case-insensitive name", "SAND", false, []string{"Gamma Sand"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, total, err := repo.List(ctx, tt.search, tt.activeOnly, 1, 10)
			if err != nil {
				t.Fatalf("List: %v", err)
			}
			if int(total) != len(tt.want) || len(got) != len(tt.want) {
				t.Fatalf("expected %d suppliers, got %d", len(tt.want), total)
			}
			for i, name := range tt.want {
				if got[i].Name != name {
					t.Errorf("position %d = %q, want %q", i, got[i].Name, name)
				}
			}
		})
	}
}
