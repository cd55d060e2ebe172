package repository

import (
	"time"

	"procurement/internal/model"

	"github.com/google/uuid"
)

// QuotationSnapshot is a consistent view of one quotation, its responses and its purchase order.
// Mutations are recorded on the snapshot and written by the QuotationStore when the transaction commits.
type QuotationSnapshot struct {
	Quotation     *model.QuotationRequest
	Responses     []*model.SupplierResponse
	PurchaseOrder *model.PurchaseOrder

	touched         bool
	itemsReplaced   bool
	newInvitations  []model.QuotationInvitation
	newResponses    map[uuid.UUID]bool
	changedResponse map[uuid.UUID]bool
	newOrder        bool
	audits          []model.AuditLog
}

func newSnapshot(q *model.QuotationRequest, responses []*model.SupplierResponse, po *model.PurchaseOrder) *QuotationSnapshot {
	return &QuotationSnapshot{
		Quotation:       q,
		Responses:       responses,
		PurchaseOrder:   po,
		newResponses:    make(map[uuid.UUID]bool),
		changedResponse: make(map[uuid.UUID]bool),
	}
}

// Touch marks the quotation row as changed so its version is bumped on commit.
func (s *QuotationSnapshot) Touch() {
	s.touched = true
}

// ReplaceItems swaps the whole item list. Positions are renumbered from zero.
func (s *QuotationSnapshot) ReplaceItems(items []model.QuotationItem) {
	replaced := make([]model.QuotationItem, len(items))
	for i, item := range items {
		item.QuotationID = s.Quotation.ID
		item.Position = i
		if item.ID == uuid.Nil {
			item.ID = uuid.New()
		}
		replaced[i] = item
	}
	s.Quotation.Items = replaced
	s.itemsReplaced = true
	s.touched = true
}

// Invite adds suppliers to the invited set, ignoring ids already present.
func (s *QuotationSnapshot) Invite(supplierIDs []uuid.UUID, at time.Time) {
	for _, id := range supplierIDs {
		if s.Quotation.IsInvited(id) {
			continue
		}
		inv := model.QuotationInvitation{
			ID:          uuid.New(),
			QuotationID: s.Quotation.ID,
			SupplierID:  id,
			InvitedAt:   at,
		}
		s.Quotation.Invitations = append(s.Quotation.Invitations, inv)
		s.newInvitations = append(s.newInvitations, inv)
	}
	s.touched = true
}

// Response returns the response with the given id, or nil.
func (s *QuotationSnapshot) Response(id uuid.UUID) *model.SupplierResponse {
	for _, r := range s.Responses {
		if r.ID == id {
			return r
		}
	}
	return nil
}

// ResponseBySupplier returns the supplier's response, or nil if it has not replied yet.
func (s *QuotationSnapshot) ResponseBySupplier(supplierID uuid.UUID) *model.SupplierResponse {
	for _, r := range s.Responses {
		if r.SupplierID == supplierID {
			return r
		}
	}
	return nil
}

// PutResponse records a new or modified response.
func (s *QuotationSnapshot) PutResponse(r *model.SupplierResponse) {
	if existing := s.Response(r.ID); existing != nil {
		*existing = *r
		if !s.newResponses[r.ID] {
			s.changedResponse[r.ID] = true
		}
		return
	}
	if r.ID == uuid.Nil {
		r.ID = uuid.New()
	}
	r.QuotationID = s.Quotation.ID
	s.Responses = append(s.Responses, r)
	s.newResponses[r.ID] = true
}

// AttachPurchaseOrder records the purchase order created for this quotation.
func (s *QuotationSnapshot) AttachPurchaseOrder(po *model.PurchaseOrder) {
	if po.ID == uuid.Nil {
		po.ID = uuid.New()
	}
	po.QuotationID = s.Quotation.ID
	s.PurchaseOrder = po
	s.newOrder = true
}

// Audit queues an audit entry written in the same transaction.
func (s *QuotationSnapshot) Audit(entry model.AuditLog) {
	qid := s.Quotation.ID
	entry.QuotationID = &qid
	s.audits = append(s.audits, entry)
}

// Counts aggregates the response statuses.
func (s *QuotationSnapshot) Counts() ResponseCounts {
	return CountResponses(s.Responses)
}

// ResponseCounts is the per-status tally of a quotation's responses.
type ResponseCounts struct {
	Total    int
	Pending  int
	Accepted int
	Rejected int
}

func CountResponses(responses []*model.SupplierResponse) ResponseCounts {
	var c ResponseCounts
	for _, r := range responses {
		c.Total++
		switch r.Status {
		case model.ResponseStatusPending:
			c.Pending++
		case model.ResponseStatusAccepted:
			c.Accepted++
		case model.ResponseStatusRejected:
			c.Rejected++
		}
	}
	return c
}
