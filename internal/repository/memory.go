package repository

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"procurement/internal/model"

	"github.com/google/uuid"
)

// In-memory implementations back STORE_DRIVER=memory and the service tests.
// They honour the same serialization and atomicity contract as the gorm store:
// each quotation has its own lock, and a transaction works on deep copies that
// only replace the stored record when fn succeeds.

type memoryRecord struct {
	quotation model.QuotationRequest
	responses []model.SupplierResponse
	order     *model.PurchaseOrder
}

type MemoryQuotationStore struct {
	mu        sync.RWMutex
	records   map[uuid.UUID]*memoryRecord
	responses map[uuid.UUID]uuid.UUID // response id -> quotation id
	orders    map[uuid.UUID]uuid.UUID // purchase order id -> quotation id
	orderSeq  map[string]int
	locks     map[uuid.UUID]*sync.Mutex
	audit     *MemoryAuditRepository
	now       func() time.Time
}

func NewMemoryQuotationStore(audit *MemoryAuditRepository) *MemoryQuotationStore {
	if audit == nil {
		audit = NewMemoryAuditRepository()
	}
	return &MemoryQuotationStore{
		records:   make(map[uuid.UUID]*memoryRecord),
		responses: make(map[uuid.UUID]uuid.UUID),
		orders:    make(map[uuid.UUID]uuid.UUID),
		orderSeq:  make(map[string]int),
		locks:     make(map[uuid.UUID]*sync.Mutex),
		audit:     audit,
		now:       time.Now,
	}
}

func (s *MemoryQuotationStore) Create(ctx context.Context, q *model.QuotationRequest, audit model.AuditLog) error {
	if q.ID == uuid.Nil {
		q.ID = uuid.New()
	}
	now := s.now()
	if q.CreatedAt.IsZero() {
		q.CreatedAt = now
	}
	q.UpdatedAt = now
	if q.Version == 0 {
		q.Version = 1
	}
	for i := range q.Items {
		if q.Items[i].ID == uuid.Nil {
			q.Items[i].ID = uuid.New()
		}
		q.Items[i].QuotationID = q.ID
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.records[q.ID]; exists {
		return fmt.Errorf("quotation %s already exists", q.ID)
	}
	s.records[q.ID] = &memoryRecord{quotation: cloneQuotation(*q)}
	s.locks[q.ID] = &sync.Mutex{}

	qid := q.ID
	audit.QuotationID = &qid
	return s.audit.Log(ctx, &audit)
}

func (s *MemoryQuotationStore) Load(ctx context.Context, id uuid.UUID) (*QuotationSnapshot, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	rec, ok := s.records[id]
	if !ok {
		return nil, ErrNotFound
	}
	return rec.snapshot(), nil
}

func (s *MemoryQuotationStore) Transact(ctx context.Context, id uuid.UUID, fn TxFunc) error {
	s.mu.RLock()
	lock, ok := s.locks[id]
	s.mu.RUnlock()
	if !ok {
		return ErrNotFound
	}

	lock.Lock()
	defer lock.Unlock()

	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.RLock()
	snap := s.records[id].snapshot()
	s.mu.RUnlock()
	version := snap.Quotation.Version

	if err := fn(ctx, snap); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	rec := s.records[id]
	if rec.quotation.Version != version {
		return ErrVersionConflict
	}

	if snap.newOrder {
		po := snap.PurchaseOrder
		if po.OrderNo == "" {
			prefix := orderNoPrefix(s.now())
			s.orderSeq[prefix]++
			po.OrderNo = fmt.Sprintf("%s%05d", prefix, s.orderSeq[prefix])
		}
		if po.CreatedAt.IsZero() {
			po.CreatedAt = s.now()
		}
		po.UpdatedAt = po.CreatedAt
		for i := range po.Items {
			if po.Items[i].ID == uuid.Nil {
				po.Items[i].ID = uuid.New()
			}
			po.Items[i].PurchaseOrderID = po.ID
		}
	}

	if snap.touched {
		snap.Quotation.Version = version + 1
		snap.Quotation.UpdatedAt = s.now()
	}

	next := &memoryRecord{quotation: cloneQuotation(*snap.Quotation)}
	for _, r := range snap.Responses {
		if snap.newResponses[r.ID] && r.CreatedAt.IsZero() {
			r.CreatedAt = s.now()
		}
		if snap.newResponses[r.ID] || snap.changedResponse[r.ID] {
			r.UpdatedAt = s.now()
		}
		next.responses = append(next.responses, *r)
		s.responses[r.ID] = id
	}
	if snap.PurchaseOrder != nil {
		po := clonePurchaseOrder(*snap.PurchaseOrder)
		next.order = &po
		s.orders[po.ID] = id
	}
	s.records[id] = next

	for i := range snap.audits {
		if err := s.audit.Log(ctx, &snap.audits[i]); err != nil {
			return err
		}
	}
	return nil
}

func (s *MemoryQuotationStore) List(ctx context.Context, filter QuotationFilter) ([]model.QuotationRequest, int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var matched []model.QuotationRequest
	for _, rec := range s.records {
		q := rec.quotation
		if filter.ProjectID != nil && q.ProjectID != *filter.ProjectID {
			continue
		}
		if filter.Status != "" && q.Status != filter.Status {
			continue
		}
		matched = append(matched, cloneQuotation(q))
	}
	sort.Slice(matched, func(i, j int) bool {
		return matched[i].CreatedAt.After(matched[j].CreatedAt)
	})

	return paginate(matched, filter.Page, filter.Limit), int64(len(matched)), nil
}

func (s *MemoryQuotationStore) FindResponse(ctx context.Context, id uuid.UUID) (*model.SupplierResponse, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	qid, ok := s.responses[id]
	if !ok {
		return nil, ErrNotFound
	}
	for _, r := range s.records[qid].responses {
		if r.ID == id {
			resp := r
			return &resp, nil
		}
	}
	return nil, ErrNotFound
}

func (s *MemoryQuotationStore) FindPurchaseOrder(ctx context.Context, id uuid.UUID) (*model.PurchaseOrder, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	qid, ok := s.orders[id]
	if !ok {
		return nil, ErrNotFound
	}
	po := clonePurchaseOrder(*s.records[qid].order)
	return &po, nil
}

func (s *MemoryQuotationStore) ListPurchaseOrders(ctx context.Context, filter PurchaseOrderFilter) ([]model.PurchaseOrder, int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var matched []model.PurchaseOrder
	for _, qid := range s.orders {
		po := s.records[qid].order
		if filter.ProjectID != nil && po.ProjectID != *filter.ProjectID {
			continue
		}
		if filter.SupplierID != nil && po.SupplierID != *filter.SupplierID {
			continue
		}
		matched = append(matched, clonePurchaseOrder(*po))
	}
	sort.Slice(matched, func(i, j int) bool {
		return matched[i].CreatedAt.After(matched[j].CreatedAt)
	})

	return paginate(matched, filter.Page, filter.Limit), int64(len(matched)), nil
}

func (r *memoryRecord) snapshot() *QuotationSnapshot {
	q := cloneQuotation(r.quotation)
	responses := make([]*model.SupplierResponse, 0, len(r.responses))
	for _, resp := range r.responses {
		resp := resp
		responses = append(responses, &resp)
	}
	var po *model.PurchaseOrder
	if r.order != nil {
		cp := clonePurchaseOrder(*r.order)
		po = &cp
	}
	return newSnapshot(&q, responses, po)
}

func cloneQuotation(q model.QuotationRequest) model.QuotationRequest {
	q.Items = append([]model.QuotationItem(nil), q.Items...)
	q.Invitations = append([]model.QuotationInvitation(nil), q.Invitations...)
	if q.SentAt != nil {
		t := *q.SentAt
		q.SentAt = &t
	}
	if q.ClosedAt != nil {
		t := *q.ClosedAt
		q.ClosedAt = &t
	}
	if q.ResultingPurchaseOrderID != nil {
		id := *q.ResultingPurchaseOrderID
		q.ResultingPurchaseOrderID = &id
	}
	return q
}

func clonePurchaseOrder(po model.PurchaseOrder) model.PurchaseOrder {
	po.Items = append([]model.PurchaseOrderItem(nil), po.Items...)
	return po
}

func paginate[T any](items []T, page, limit int) []T {
	if limit <= 0 {
		return items
	}
	if page <= 0 {
		page = 1
	}
	start := (page - 1) * limit
	if start >= len(items) {
		return []T{}
	}
	end := start + limit
	if end > len(items) {
		end = len(items)
	}
	return items[start:end]
}

type MemorySupplierRepository struct {
	mu        sync.RWMutex
	suppliers map[uuid.UUID]model.Supplier
}

func NewMemorySupplierRepository() *MemorySupplierRepository {
	return &MemorySupplierRepository{suppliers: make(map[uuid.UUID]model.Supplier)}
}

func (r *MemorySupplierRepository) Create(ctx context.Context, supplier *model.Supplier) error {
	if supplier.ID == uuid.Nil {
		supplier.ID = uuid.New()
	}
	now := time.Now()
	supplier.CreatedAt = now
	supplier.UpdatedAt = now

	r.mu.Lock()
	defer r.mu.Unlock()
	r.suppliers[supplier.ID] = *supplier
	return nil
}

func (r *MemorySupplierRepository) Update(ctx context.Context, supplier *model.Supplier) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.suppliers[supplier.ID]; !ok {
		return ErrNotFound
	}
	supplier.UpdatedAt = time.Now()
	r.suppliers[supplier.ID] = *supplier
	return nil
}

func (r *MemorySupplierRepository) FindByID(ctx context.Context, id uuid.UUID) (*model.Supplier, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	supplier, ok := r.suppliers[id]
	if !ok {
		return nil, ErrNotFound
	}
	return &supplier, nil
}

func (r *MemorySupplierRepository) FindByIDs(ctx context.Context, ids []uuid.UUID) ([]model.Supplier, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var found []model.Supplier
	for _, id := range ids {
		if supplier, ok := r.suppliers[id]; ok {
			found = append(found, supplier)
		}
	}
	return found, nil
}

func (r *MemorySupplierRepository) List(ctx context.Context, search string, activeOnly bool, page, limit int) ([]model.Supplier, int64, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	needle := strings.ToLower(search)
	var matched []model.Supplier
	for _, s := range r.suppliers {
		if activeOnly && !s.IsActive {
			continue
		}
		if needle != "" &&
			!strings.Contains(strings.ToLower(s.Name), needle) &&
			!strings.Contains(strings.ToLower(s.CompanyName), needle) &&
			!strings.Contains(strings.ToLower(s.Email), needle) {
			continue
		}
		matched = append(matched, s)
	}
	sort.Slice(matched, func(i, j int) bool { return matched[i].Name < matched[j].Name })

	return paginate(matched, page, limit), int64(len(matched)), nil
}

type MemoryAuditRepository struct {
	mu      sync.RWMutex
	entries []model.AuditLog
}

func NewMemoryAuditRepository() *MemoryAuditRepository {
	return &MemoryAuditRepository{}
}

func (r *MemoryAuditRepository) Log(ctx context.Context, entry *model.AuditLog) error {
	if entry.ID == uuid.Nil {
		entry.ID = uuid.New()
	}
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = time.Now()
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.entries = append(r.entries, *entry)
	return nil
}

func (r *MemoryAuditRepository) List(ctx context.Context, quotationID *uuid.UUID, page, limit int) ([]model.AuditLog, int64, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var matched []model.AuditLog
	for i := len(r.entries) - 1; i >= 0; i-- {
		e := r.entries[i]
		if quotationID != nil && (e.QuotationID == nil || *e.QuotationID != *quotationID) {
			continue
		}
		matched = append(matched, e)
	}
	return paginate(matched, page, limit), int64(len(matched)), nil
}

type MemoryUserRepository struct {
	mu    sync.RWMutex
	users map[uuid.UUID]model.User
}

func NewMemoryUserRepository() *MemoryUserRepository {
	return &MemoryUserRepository{users: make(map[uuid.UUID]model.User)}
}

func (r *MemoryUserRepository) Create(ctx context.Context, user *model.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, u := range r.users {
		if u.Email == user.Email || u.Username == user.Username {
			return fmt.Errorf("user %s already exists", user.Email)
		}
	}
	if user.ID == uuid.Nil {
		user.ID = uuid.New()
	}
	now := time.Now()
	user.CreatedAt = now
	user.UpdatedAt = now
	r.users[user.ID] = *user
	return nil
}

func (r *MemoryUserRepository) FindByID(ctx context.Context, id uuid.UUID) (*model.User, error) {
	return r.find(func(u model.User) bool { return u.ID == id })
}

func (r *MemoryUserRepository) FindByEmail(ctx context.Context, email string) (*model.User, error) {
	return r.find(func(u model.User) bool { return u.Email == email })
}

func (r *MemoryUserRepository) FindByUsername(ctx context.Context, username string) (*model.User, error) {
	return r.find(func(u model.User) bool { return u.Username == username })
}

func (r *MemoryUserRepository) find(match func(model.User) bool) (*model.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, u := range r.users {
		if match(u) {
			user := u
			return &user, nil
		}
	}
	return nil, ErrNotFound
}

func (r *MemoryUserRepository) List(ctx context.Context, page, limit int) ([]model.User, int64, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	users := make([]model.User, 0, len(r.users))
	for _, u := range r.users {
		users = append(users, u)
	}
	sort.Slice(users, func(i, j int) bool { return users[i].Username < users[j].Username })

	return paginate(users, page, limit), int64(len(users)), nil
}
