package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"procurement/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

var (
	ErrNotFound        = errors.New("record not found")
	ErrVersionConflict = errors.New("record was modified concurrently")
)

// TxFunc mutates a quotation snapshot inside a store transaction.
// Returning an error aborts the transaction and discards every recorded change.
type TxFunc func(ctx context.Context, snap *QuotationSnapshot) error

type QuotationFilter struct {
	ProjectID *uuid.UUID
	Status    string
	Page      int
	Limit     int
}

type PurchaseOrderFilter struct {
	ProjectID  *uuid.UUID
	SupplierID *uuid.UUID
	Page       int
	Limit      int
}

// QuotationStore is the durable, transactional home of quotation requests,
// their supplier responses and their purchase order.
type QuotationStore interface {
	Create(ctx context.Context, q *model.QuotationRequest, audit model.AuditLog) error
	Load(ctx context.Context, id uuid.UUID) (*QuotationSnapshot, error)
	// Transact serializes fn against every other mutation of the same quotation and commits atomically.
	Transact(ctx context.Context, id uuid.UUID, fn TxFunc) error
	List(ctx context.Context, filter QuotationFilter) ([]model.QuotationRequest, int64, error)
	FindResponse(ctx context.Context, id uuid.UUID) (*model.SupplierResponse, error)
	FindPurchaseOrder(ctx context.Context, id uuid.UUID) (*model.PurchaseOrder, error)
	ListPurchaseOrders(ctx context.Context, filter PurchaseOrderFilter) ([]model.PurchaseOrder, int64, error)
}

type gormQuotationStore struct {
	db *gorm.DB
}

func NewQuotationStore(db *gorm.DB) QuotationStore {
	return &gormQuotationStore{db: db}
}

func (s *gormQuotationStore) Create(ctx context.Context, q *model.QuotationRequest, audit model.AuditLog) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(q).Error; err != nil {
			return fmt.Errorf("failed to create quotation: %w", err)
		}
		qid := q.ID
		audit.QuotationID = &qid
		if err := tx.Create(&audit).Error; err != nil {
			return fmt.Errorf("failed to write audit log: %w", err)
		}
		return nil
	})
}

func (s *gormQuotationStore) Load(ctx context.Context, id uuid.UUID) (*QuotationSnapshot, error) {
	return s.load(s.db.WithContext(ctx), id, false)
}

func (s *gormQuotationStore) Transact(ctx context.Context, id uuid.UUID, fn TxFunc) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		snap, err := s.load(tx, id, true)
		if err != nil {
			return err
		}
		version := snap.Quotation.Version

		txCtx := context.WithValue(ctx, txKey, tx)
		if err := fn(txCtx, snap); err != nil {
			return err
		}

		return s.persist(tx, snap, version)
	})
}

func (s *gormQuotationStore) load(db *gorm.DB, id uuid.UUID, lock bool) (*QuotationSnapshot, error) {
	query := db
	if lock {
		query = query.Clauses(clause.Locking{Strength: "UPDATE"})
	}

	var q model.QuotationRequest
	if err := query.First(&q, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to load quotation: %w", err)
	}

	if err := db.Where("quotation_id = ?", id).Order("position ASC").Find(&q.Items).Error; err != nil {
		return nil, fmt.Errorf("failed to load quotation items: %w", err)
	}
	if err := db.Where("quotation_id = ?", id).Order("invited_at ASC, id ASC").Find(&q.Invitations).Error; err != nil {
		return nil, fmt.Errorf("failed to load invitations: %w", err)
	}

	var responses []*model.SupplierResponse
	if err := db.Where("quotation_id = ?", id).Order("created_at ASC").Find(&responses).Error; err != nil {
		return nil, fmt.Errorf("failed to load supplier responses: %w", err)
	}

	var orders []model.PurchaseOrder
	if err := db.Preload("Items", func(db *gorm.DB) *gorm.DB {
		return db.Order("position ASC")
	}).Where("quotation_id = ?", id).Limit(1).Find(&orders).Error; err != nil {
		return nil, fmt.Errorf("failed to load purchase order: %w", err)
	}
	var po *model.PurchaseOrder
	if len(orders) > 0 {
		po = &orders[0]
	}

	return newSnapshot(&q, responses, po), nil
}

func (s *gormQuotationStore) persist(tx *gorm.DB, snap *QuotationSnapshot, version int64) error {
	q := snap.Quotation

	if snap.newOrder {
		po := snap.PurchaseOrder
		if po.OrderNo == "" {
			orderNo, err := generateOrderNo(tx)
			if err != nil {
				return fmt.Errorf("failed to generate purchase order number: %w", err)
			}
			po.OrderNo = orderNo
		}
		if err := tx.Create(po).Error; err != nil {
			return fmt.Errorf("failed to create purchase order: %w", err)
		}
	}

	for _, r := range snap.Responses {
		switch {
		case snap.newResponses[r.ID]:
			if err := tx.Create(r).Error; err != nil {
				return fmt.Errorf("failed to create supplier response: %w", err)
			}
		case snap.changedResponse[r.ID]:
			if err := tx.Save(r).Error; err != nil {
				return fmt.Errorf("failed to update supplier response: %w", err)
			}
		}
	}

	if snap.itemsReplaced {
		if err := tx.Where("quotation_id = ?", q.ID).Delete(&model.QuotationItem{}).Error; err != nil {
			return fmt.Errorf("failed to replace quotation items: %w", err)
		}
		if len(q.Items) > 0 {
			if err := tx.Create(&q.Items).Error; err != nil {
				return fmt.Errorf("failed to replace quotation items: %w", err)
			}
		}
	}

	if len(snap.newInvitations) > 0 {
		if err := tx.Create(&snap.newInvitations).Error; err != nil {
			return fmt.Errorf("failed to record invitations: %w", err)
		}
	}

	if snap.touched {
		q.Version = version + 1
		q.UpdatedAt = time.Now()
		res := tx.Model(&model.QuotationRequest{}).
			Where("id = ? AND version = ?", q.ID, version).
			Updates(map[string]interface{}{
				"description":                 q.Description,
				"deadline":                    q.Deadline,
				"status":                      q.Status,
				"sent_at":                     q.SentAt,
				"closed_at":                   q.ClosedAt,
				"close_reason":                q.CloseReason,
				"resulting_purchase_order_id": q.ResultingPurchaseOrderID,
				"version":                     q.Version,
				"updated_at":                  q.UpdatedAt,
			})
		if res.Error != nil {
			return fmt.Errorf("failed to update quotation: %w", res.Error)
		}
		if res.RowsAffected == 0 {
			return ErrVersionConflict
		}
	}

	for i := range snap.audits {
		if err := tx.Create(&snap.audits[i]).Error; err != nil {
			return fmt.Errorf("failed to write audit log: %w", err)
		}
	}

	return nil
}

func (s *gormQuotationStore) List(ctx context.Context, filter QuotationFilter) ([]model.QuotationRequest, int64, error) {
	var quotations []model.QuotationRequest
	var total int64

	db := s.db.WithContext(ctx)
	scope := func(db *gorm.DB) *gorm.DB {
		if filter.ProjectID != nil {
			db = db.Where("project_id = ?", *filter.ProjectID)
		}
		if filter.Status != "" {
			db = db.Where("status = ?", filter.Status)
		}
		return db
	}

	if err := db.Model(&model.QuotationRequest{}).Scopes(scope).Count(&total).Error; err != nil {
		return nil, 0, err
	}

	offset := (filter.Page - 1) * filter.Limit
	if err := db.Scopes(scope).
		Preload("Items", func(db *gorm.DB) *gorm.DB { return db.Order("position ASC") }).
		Preload("Invitations").
		Order("created_at DESC").
		Offset(offset).Limit(filter.Limit).
		Find(&quotations).Error; err != nil {
		return nil, 0, err
	}

	return quotations, total, nil
}

func (s *gormQuotationStore) FindResponse(ctx context.Context, id uuid.UUID) (*model.SupplierResponse, error) {
	var r model.SupplierResponse
	if err := s.db.WithContext(ctx).First(&r, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &r, nil
}

func (s *gormQuotationStore) FindPurchaseOrder(ctx context.Context, id uuid.UUID) (*model.PurchaseOrder, error) {
	var po model.PurchaseOrder
	if err := s.db.WithContext(ctx).
		Preload("Items", func(db *gorm.DB) *gorm.DB { return db.Order("position ASC") }).
		First(&po, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &po, nil
}

func (s *gormQuotationStore) ListPurchaseOrders(ctx context.Context, filter PurchaseOrderFilter) ([]model.PurchaseOrder, int64, error) {
	var orders []model.PurchaseOrder
	var total int64

	db := s.db.WithContext(ctx)
	scope := func(db *gorm.DB) *gorm.DB {
		if filter.ProjectID != nil {
			db = db.Where("project_id = ?", *filter.ProjectID)
		}
		if filter.SupplierID != nil {
			db = db.Where("supplier_id = ?", *filter.SupplierID)
		}
		return db
	}

	if err := db.Model(&model.PurchaseOrder{}).Scopes(scope).Count(&total).Error; err != nil {
		return nil, 0, err
	}

	offset := (filter.Page - 1) * filter.Limit
	if err := db.Scopes(scope).
		Preload("Items", func(db *gorm.DB) *gorm.DB { return db.Order("position ASC") }).
		Order("created_at DESC").
		Offset(offset).Limit(filter.Limit).
		Find(&orders).Error; err != nil {
		return nil, 0, err
	}

	return orders, total, nil
}

func generateOrderNo(tx *gorm.DB) (string, error) {
	prefix := orderNoPrefix(time.Now())

	// Advisory lock keeps concurrent awards on different quotations from minting the same number
	if err := tx.Exec("SELECT pg_advisory_xact_lock(hashtext(?))", prefix).Error; err != nil {
		return "", err
	}

	var count int64
	if err := tx.Model(&model.PurchaseOrder{}).
		Where("order_no LIKE ?", prefix+"%").
		Count(&count).Error; err != nil {
		return "", err
	}

	return fmt.Sprintf("%s%05d", prefix, count+1), nil
}

func orderNoPrefix(now time.Time) string {
	return "PO-" + now.Format("20060102") + "-"
}
