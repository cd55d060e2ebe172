package notification_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"procurement/internal/model"
	"procurement/internal/notification"
	"procurement/internal/repository"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type orderStub map[uuid.UUID]*model.PurchaseOrder

func (o orderStub) FindPurchaseOrder(ctx context.Context, id uuid.UUID) (*model.PurchaseOrder, error) {
	po, ok := o[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return po, nil
}

type capture struct {
	events []string
	last   map[string]interface{}
}

func (c *capture) Publish(event string, data map[string]interface{}) {
	c.events = append(c.events, event)
	c.last = data
}

func addSupplier(t *testing.T, repo *repository.MemorySupplierRepository, email string, active bool) uuid.UUID {
	t.Helper()
	s := &model.Supplier{Name: "Supplier", Email: email, IsActive: active}
	if err := repo.Create(context.Background(), s); err != nil {
		t.Fatalf("Create: %v", err)
	}
	return s.ID
}

func TestNotifyInvitation(t *testing.T) {
	suppliers := repository.NewMemorySupplierRepository()
	active := addSupplier(t, suppliers, "sales@s1.test", true)
	inactive := addSupplier(t, suppliers, "sales@s2.test", false)
	noEmail := addSupplier(t, suppliers, "", true)

	tests := []struct {
		name     string
		supplier uuid.UUID
		wantErr  error
	}{
		{"active supplier", active, nil},
		{"inactive supplier", inactive, notification.ErrSupplierInactive},
		{"no contact", noEmail, notification.ErrNoContact},
		{"unknown supplier", uuid.New(), repository.ErrNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			events := &capture{}
			gw := notification.NewGateway(suppliers, orderStub{}, events, nil)

			err := gw.NotifyInvitation(context.Background(), uuid.New(), tt.supplier)
			if tt.wantErr == nil {
				if err != nil {
					t.Fatalf("NotifyInvitation: %v", err)
				}
				if len(events.events) != 1 || events.events[0] != notification.EventInvitationDelivered {
					t.Fatalf("expected one invitation event, got %v", events.events)
				}
				if events.last["email"] != "sales@s1.test" {
					t.Errorf("unexpected recipient %v", events.last["email"])
				}
				return
			}
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("expected %v, got %v", tt.wantErr, err)
			}
			if len(events.events) != 0 {
				t.Errorf("failed delivery must not publish")
			}
		})
	}
}

func TestNotifyAward(t *testing.T) {
	suppliers := repository.NewMemorySupplierRepository()
	supplier := addSupplier(t, suppliers, "sales@s1.test", true)
	po := &model.PurchaseOrder{
		ID:           uuid.New(),
		OrderNo:      "PO-20261015-00001",
		QuotationID:  uuid.New(),
		SupplierID:   supplier,
		TotalAmount:  decimal.NewFromInt(10000),
		DeliveryDate: time.Date(2027, 1, 15, 0, 0, 0, 0, time.UTC),
	}
	events := &capture{}
	gw := notification.NewGateway(suppliers, orderStub{po.ID: po}, events, nil)

	if err := gw.NotifyAward(context.Background(), po.ID); err != nil {
		t.Fatalf("NotifyAward: %v", err)
	}
	if events.last["order_no"] != po.OrderNo || events.last["total_amount"] != "10000.00" {
		t.Errorf("unexpected award payload %v", events.last)
	}

	if err := gw.NotifyAward(context.Background(), uuid.New()); !errors.Is(err, repository.ErrNotFound) {
		t.Fatalf("expected ErrNotFound for an unknown order, got %v", err)
	}
}

func TestNotifyRespectsCancelledContext(t *testing.T) {
	suppliers := repository.NewMemorySupplierRepository()
	supplier := addSupplier(t, suppliers, "sales@s1.test", true)
	gw := notification.NewGateway(suppliers, orderStub{}, nil, nil)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if err := gw.NotifyInvitation(ctx, uuid.New(), supplier); !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
}
