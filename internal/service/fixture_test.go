package service_test

import (
	"context"
	"errors"
	"sync"
	"testing"

	"procurement/internal/model"
	"procurement/internal/repository"
	"procurement/internal/service"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

const (
	deadline     = "2026-12-31"
	deliveryDate = "2027-01-15"
)

var errGatewayDown = errors.New("smtp relay unavailable")

type fakeGateway struct {
	mu          sync.Mutex
	failFor     map[uuid.UUID]bool
	failAwards  bool
	invitations []uuid.UUID
	awards      []uuid.UUID
}

func (g *fakeGateway) NotifyInvitation(ctx context.Context, quotationID, supplierID uuid.UUID) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.failFor[supplierID] {
		return errGatewayDown
	}
	g.invitations = append(g.invitations, supplierID)
	return nil
}

func (g *fakeGateway) NotifyAward(ctx context.Context, purchaseOrderID uuid.UUID) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.failAwards {
		return errGatewayDown
	}
	g.awards = append(g.awards, purchaseOrderID)
	return nil
}

type recordingPublisher struct {
	mu     sync.Mutex
	events []string
}

func (p *recordingPublisher) Publish(event string, data map[string]interface{}) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, event)
}

func (p *recordingPublisher) count(event string) int {
	p.mu.Lock()
	defer p.mu.Unlock()
	n := 0
	for _, e := range p.events {
		if e == event {
			n++
		}
	}
	return n
}

type fixture struct {
	store      *repository.MemoryQuotationStore
	suppliers  *repository.MemorySupplierRepository
	audit      *repository.MemoryAuditRepository
	gateway    *fakeGateway
	events     *recordingPublisher
	quotations service.QuotationService
	responses  service.ResponseService
	orders     service.PurchaseOrderService
	userID     string
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	audit := repository.NewMemoryAuditRepository()
	store := repository.NewMemoryQuotationStore(audit)
	suppliers := repository.NewMemorySupplierRepository()
	gateway := &fakeGateway{failFor: map[uuid.UUID]bool{}}
	events := &recordingPublisher{}
	notifier := service.NewNotifier(gateway, events, 0, nil)

	return &fixture{
		store:      store,
		suppliers:  suppliers,
		audit:      audit,
		gateway:    gateway,
		events:     events,
		quotations: service.NewQuotationService(store, suppliers, notifier, nil),
		responses:  service.NewResponseService(store, notifier),
		orders:     service.NewPurchaseOrderService(store, notifier),
		userID:     uuid.NewString(),
	}
}

func (f *fixture) addSupplier(t *testing.T, name string, active bool) uuid.UUID {
	t.Helper()
	s := &model.Supplier{Name: name, Email: name + "@suppliers.test", IsActive: active}
	if err := f.suppliers.Create(context.Background(), s); err != nil {
		t.Fatalf("create supplier: %v", err)
	}
	return s.ID
}

func cementItems() []service.QuotationItemRequest {
	return []service.QuotationItemRequest{{
		Name:                "Cement",
		Unit:                "bag",
		Quantity:            decimal.NewFromInt(100),
		EstimatedUnitAmount: decimal.NewFromInt(95),
	}}
}

func (f *fixture) createDraft(t *testing.T, items []service.QuotationItemRequest) service.QuotationResponse {
	t.Helper()
	q, err := f.quotations.CreateQuotation(context.Background(), f.userID, service.CreateQuotationRequest{
		ProjectID:   uuid.NewString(),
		Description: "Cement for block A",
		Deadline:    deadline,
		Items:       items,
	})
	if err != nil {
		t.Fatalf("create quotation: %v", err)
	}
	return q
}

func (f *fixture) createSent(t *testing.T, suppliers ...uuid.UUID) service.QuotationResponse {
	t.Helper()
	q := f.createDraft(t, cementItems())

	ids := make([]string, 0, len(suppliers))
	for _, s := range suppliers {
		ids = append(ids, s.String())
	}
	sent, err := f.quotations.SendQuotation(context.Background(), f.userID, q.ID, service.SendQuotationRequest{SupplierIDs: ids})
	if err != nil {
		t.Fatalf("send quotation: %v", err)
	}
	return sent
}

func (f *fixture) submit(t *testing.T, quotationID string, supplierID uuid.UUID, amount int64) service.SupplierResponseDTO {
	t.Helper()
	resp, err := f.responses.SubmitResponse(context.Background(), quotationID, submitRequest(supplierID, amount))
	if err != nil {
		t.Fatalf("submit response: %v", err)
	}
	return resp
}

func submitRequest(supplierID uuid.UUID, amount int64) service.SubmitResponseRequest {
	total := decimal.NewFromInt(amount)
	return service.SubmitResponseRequest{
		SupplierID:   supplierID.String(),
		TotalAmount:  &total,
		DeliveryDate: deliveryDate,
	}
}
