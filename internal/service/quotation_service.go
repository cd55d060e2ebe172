package service

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"procurement/internal/model"
	"procurement/internal/repository"

	"github.com/google/uuid"
)

// --- Interface ---

type QuotationService interface {
	CreateQuotation(ctx context.Context, userID string, req CreateQuotationRequest) (QuotationResponse, error)
	UpdateDraft(ctx context.Context, userID string, id string, req UpdateQuotationRequest) (QuotationResponse, error)
	SendQuotation(ctx context.Context, userID string, id string, req SendQuotationRequest) (QuotationResponse, error)
	CancelQuotation(ctx context.Context, userID string, id string) (QuotationResponse, error)
	CloseQuotation(ctx context.Context, userID string, id string) (QuotationResponse, error)
	ForceCloseQuotation(ctx context.Context, userID string, id string, req ForceCloseRequest) (QuotationResponse, error)
	GetQuotation(ctx context.Context, id string) (QuotationResponse, error)
	ListQuotations(ctx context.Context, filter QuotationFilter) ([]QuotationResponse, int64, error)
	GetCloseEligibility(ctx context.Context, id string) (CloseEligibilityResponse, error)
}

type quotationService struct {
	store     repository.QuotationStore
	suppliers repository.SupplierRepository
	notifier  *Notifier
	logger    *slog.Logger
}

func NewQuotationService(
	store repository.QuotationStore,
	suppliers repository.SupplierRepository,
	notifier *Notifier,
	logger *slog.Logger,
) QuotationService {
	if logger == nil {
		logger = slog.Default()
	}
	return &quotationService{
		store:     store,
		suppliers: suppliers,
		notifier:  notifier,
		logger:    logger,
	}
}

// --- Implementation ---

func (s *quotationService) CreateQuotation(ctx context.Context, userID string, req CreateQuotationRequest) (QuotationResponse, error) {
	if err := validateStruct(req); err != nil {
		return QuotationResponse{}, err
	}

	projectID, err := parseUUID("project_id", req.ProjectID)
	if err != nil {
		return QuotationResponse{}, err
	}

	issuer := req.IssuerID
	if issuer == "" {
		issuer = userID
	}
	issuerID, err := parseUUID("issuer_id", issuer)
	if err != nil {
		return QuotationResponse{}, err
	}

	deadline, err := parseDate("deadline", req.Deadline)
	if err != nil {
		return QuotationResponse{}, err
	}

	items, err := buildItems(req.Items)
	if err != nil {
		return QuotationResponse{}, err
	}

	q := model.QuotationRequest{
		ID:          uuid.New(),
		ProjectID:   projectID,
		IssuerID:    issuerID,
		Description: strings.TrimSpace(req.Description),
		Deadline:    deadline,
		Status:      model.QuotationStatusDraft,
		Items:       items,
		Version:     1,
	}
	for i := range q.Items {
		q.Items[i].QuotationID = q.ID
	}

	details, _ := json.Marshal(map[string]interface{}{
		"project_id": q.ProjectID.String(),
		"items":      len(q.Items),
		"deadline":   req.Deadline,
	})
	audit := model.AuditLog{
		UserID:     parseActor(userID),
		Action:     model.ActionCreateQuotation,
		EntityID:   q.ID.String(),
		EntityName: q.Description,
		Details:    string(details),
	}
	if err := s.store.Create(ctx, &q, audit); err != nil {
		return QuotationResponse{}, fmt.Errorf("failed to create quotation: %w", err)
	}

	s.notifier.Publish(EventQuotationCreated, map[string]interface{}{
		"quotation_id": q.ID.String(),
		"project_id":   q.ProjectID.String(),
	})

	return toQuotationResponse(q), nil
}

func (s *quotationService) UpdateDraft(ctx context.Context, userID string, id string, req UpdateQuotationRequest) (QuotationResponse, error) {
	quotationID, err := parseUUID("quotation id", id)
	if err != nil {
		return QuotationResponse{}, err
	}

	var deadline *time.Time
	if req.Deadline != nil {
		parsed, err := parseDate("deadline", *req.Deadline)
		if err != nil {
			return QuotationResponse{}, err
		}
		deadline = &parsed
	}

	var items []model.QuotationItem
	if req.Items != nil {
		for i, item := range *req.Items {
			if err := validateStruct(item); err != nil {
				return QuotationResponse{}, fmt.Errorf("items[%d]: %w", i, err)
			}
		}
		items, err = buildItems(*req.Items)
		if err != nil {
			return QuotationResponse{}, err
		}
	}

	var updated *model.QuotationRequest
	err = s.store.Transact(ctx, quotationID, func(ctx context.Context, snap *repository.QuotationSnapshot) error {
		q := snap.Quotation
		if q.Status != model.QuotationStatusDraft {
			return statusError(q, "only DRAFT quotations can be edited")
		}

		if req.Description != nil {
			q.Description = strings.TrimSpace(*req.Description)
		}
		if deadline != nil {
			q.Deadline = *deadline
		}
		if items != nil {
			snap.ReplaceItems(items)
		}
		snap.Touch()

		details, _ := json.Marshal(req)
		snap.Audit(model.AuditLog{
			UserID:     parseActor(userID),
			Action:     model.ActionUpdateQuotation,
			EntityID:   q.ID.String(),
			EntityName: q.Description,
			Details:    string(details),
		})

		updated = q
		return nil
	})
	if err != nil {
		return QuotationResponse{}, translateStoreErr(err, "quotation "+id)
	}

	s.notifier.Publish(EventQuotationUpdated, map[string]interface{}{"quotation_id": id})
	return toQuotationResponse(*updated), nil
}

func (s *quotationService) SendQuotation(ctx context.Context, userID string, id string, req SendQuotationRequest) (QuotationResponse, error) {
	quotationID, err := parseUUID("quotation id", id)
	if err != nil {
		return QuotationResponse{}, err
	}
	if len(req.SupplierIDs) == 0 {
		return QuotationResponse{}, validationErrorf("supplier_ids must not be empty")
	}
	if err := validateStruct(req); err != nil {
		return QuotationResponse{}, err
	}

	supplierIDs, err := s.resolveSuppliers(ctx, req.SupplierIDs)
	if err != nil {
		return QuotationResponse{}, err
	}

	var sent *model.QuotationRequest
	err = s.store.Transact(ctx, quotationID, func(ctx context.Context, snap *repository.QuotationSnapshot) error {
		q := snap.Quotation
		if q.Status != model.QuotationStatusDraft {
			return statusError(q, "only DRAFT quotations can be sent")
		}
		if len(q.Items) == 0 {
			return validationErrorf("quotation has no items")
		}

		now := time.Now()
		snap.Invite(supplierIDs, now)
		q.Status = model.QuotationStatusSent
		q.SentAt = &now
		snap.Touch()

		details, _ := json.Marshal(map[string]interface{}{
			"supplier_ids": req.SupplierIDs,
		})
		snap.Audit(model.AuditLog{
			UserID:     parseActor(userID),
			Action:     model.ActionSendQuotation,
			EntityID:   q.ID.String(),
			EntityName: q.Description,
			Details:    string(details),
		})

		sent = q
		return nil
	})
	if err != nil {
		return QuotationResponse{}, translateStoreErr(err, "quotation "+id)
	}

	// The transition is committed; invitation failures only produce warnings.
	resp := toQuotationResponse(*sent)
	resp.Warnings = s.notifier.Invite(ctx, sent.ID, sent.InvitedSupplierIDs())

	s.notifier.Publish(EventQuotationSent, map[string]interface{}{
		"quotation_id": id,
		"suppliers":    resp.InvitedSupplierIDs,
	})
	return resp, nil
}

func (s *quotationService) CancelQuotation(ctx context.Context, userID string, id string) (QuotationResponse, error) {
	quotationID, err := parseUUID("quotation id", id)
	if err != nil {
		return QuotationResponse{}, err
	}

	var cancelled *model.QuotationRequest
	err = s.store.Transact(ctx, quotationID, func(ctx context.Context, snap *repository.QuotationSnapshot) error {
		q := snap.Quotation
		if q.IsTerminal() {
			return statusError(q, "only DRAFT or SENT quotations can be cancelled")
		}
		if snap.Counts().Accepted > 0 {
			return invalidStatef("quotation %s already has an accepted response", q.ID)
		}

		now := time.Now()
		rejected := rejectPending(snap, now)
		q.Status = model.QuotationStatusCancelled
		q.ClosedAt = &now
		snap.Touch()

		details, _ := json.Marshal(map[string]interface{}{
			"rejected_responses": rejected,
		})
		snap.Audit(model.AuditLog{
			UserID:     parseActor(userID),
			Action:     model.ActionCancelQuotation,
			EntityID:   q.ID.String(),
			EntityName: q.Description,
			Details:    string(details),
		})

		cancelled = q
		return nil
	})
	if err != nil {
		return QuotationResponse{}, translateStoreErr(err, "quotation "+id)
	}

	s.notifier.Publish(EventQuotationCancelled, map[string]interface{}{"quotation_id": id})
	return toQuotationResponse(*cancelled), nil
}

func (s *quotationService) CloseQuotation(ctx context.Context, userID string, id string) (QuotationResponse, error) {
	quotationID, err := parseUUID("quotation id", id)
	if err != nil {
		return QuotationResponse{}, err
	}

	var closed *model.QuotationRequest
	err = s.store.Transact(ctx, quotationID, func(ctx context.Context, snap *repository.QuotationSnapshot) error {
		q := snap.Quotation
		if q.Status != model.QuotationStatusSent {
			return statusError(q, "only SENT quotations can be closed")
		}

		agg := aggregateFrom(snap.Counts())
		verdict := EvaluateCloseEligibility(agg)
		if !verdict.CanClose {
			return &NotEligibleError{Reason: verdict.Reason, Pending: agg.Pending}
		}

		now := time.Now()
		q.Status = model.QuotationStatusClosed
		q.ClosedAt = &now
		q.ResultingPurchaseOrderID = nil
		snap.Touch()

		details, _ := json.Marshal(agg)
		snap.Audit(model.AuditLog{
			UserID:     parseActor(userID),
			Action:     model.ActionCloseQuotation,
			EntityID:   q.ID.String(),
			EntityName: q.Description,
			Details:    string(details),
		})

		closed = q
		return nil
	})
	if err != nil {
		return QuotationResponse{}, translateStoreErr(err, "quotation "+id)
	}

	s.notifier.Publish(EventQuotationClosed, map[string]interface{}{
		"quotation_id":   id,
		"purchase_order": nil,
	})
	return toQuotationResponse(*closed), nil
}

// ForceCloseQuotation is the explicitly authorized override for closing while
// responses are still pending. Every pending response is rejected.
func (s *quotationService) ForceCloseQuotation(ctx context.Context, userID string, id string, req ForceCloseRequest) (QuotationResponse, error) {
	quotationID, err := parseUUID("quotation id", id)
	if err != nil {
		return QuotationResponse{}, err
	}
	req.Reason = strings.TrimSpace(req.Reason)
	if err := validateStruct(req); err != nil {
		return QuotationResponse{}, err
	}

	var closed *model.QuotationRequest
	err = s.store.Transact(ctx, quotationID, func(ctx context.Context, snap *repository.QuotationSnapshot) error {
		q := snap.Quotation
		if q.Status != model.QuotationStatusSent {
			return statusError(q, "only SENT quotations can be force-closed")
		}

		now := time.Now()
		rejected := rejectPending(snap, now)
		q.Status = model.QuotationStatusClosed
		q.ClosedAt = &now
		q.CloseReason = req.Reason
		q.ResultingPurchaseOrderID = nil
		snap.Touch()

		details, _ := json.Marshal(map[string]interface{}{
			"reason":             req.Reason,
			"rejected_responses": rejected,
		})
		snap.Audit(model.AuditLog{
			UserID:     parseActor(userID),
			Action:     model.ActionForceCloseQuotation,
			EntityID:   q.ID.String(),
			EntityName: q.Description,
			Details:    string(details),
		})

		closed = q
		return nil
	})
	if err != nil {
		return QuotationResponse{}, translateStoreErr(err, "quotation "+id)
	}

	s.logger.Info("quotation force-closed", "quotation_id", id, "user_id", userID, "reason", req.Reason)
	s.notifier.Publish(EventQuotationClosed, map[string]interface{}{
		"quotation_id":   id,
		"purchase_order": nil,
		"forced":         true,
	})
	return toQuotationResponse(*closed), nil
}

func (s *quotationService) GetQuotation(ctx context.Context, id string) (QuotationResponse, error) {
	quotationID, err := parseUUID("quotation id", id)
	if err != nil {
		return QuotationResponse{}, err
	}

	snap, err := s.store.Load(ctx, quotationID)
	if err != nil {
		return QuotationResponse{}, translateStoreErr(err, "quotation "+id)
	}
	return toQuotationResponse(*snap.Quotation), nil
}

func (s *quotationService) ListQuotations(ctx context.Context, filter QuotationFilter) ([]QuotationResponse, int64, error) {
	if filter.Page <= 0 {
		filter.Page = 1
	}
	if filter.Limit <= 0 {
		filter.Limit = 20
	}

	storeFilter := repository.QuotationFilter{
		Status: filter.Status,
		Page:   filter.Page,
		Limit:  filter.Limit,
	}
	if filter.ProjectID != "" {
		projectID, err := parseUUID("project_id", filter.ProjectID)
		if err != nil {
			return nil, 0, err
		}
		storeFilter.ProjectID = &projectID
	}

	quotations, total, err := s.store.List(ctx, storeFilter)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to fetch quotations: %w", err)
	}

	result := make([]QuotationResponse, 0, len(quotations))
	for _, q := range quotations {
		result = append(result, toQuotationResponse(q))
	}
	return result, total, nil
}

// GetCloseEligibility reports whether the quotation could be closed right now.
// When the responses cannot be aggregated the answer is a denial, returned together with the error.
func (s *quotationService) GetCloseEligibility(ctx context.Context, id string) (CloseEligibilityResponse, error) {
	quotationID, err := parseUUID("quotation id", id)
	if err != nil {
		return denied(), err
	}

	snap, err := s.store.Load(ctx, quotationID)
	if err != nil {
		s.logger.Warn("close eligibility unavailable", "quotation_id", id, "error", err)
		return denied(), translateStoreErr(err, "quotation "+id)
	}

	agg := aggregateFrom(snap.Counts())
	verdict := EvaluateOrDeny(agg, nil)
	if snap.Quotation.Status != model.QuotationStatusSent {
		verdict = Eligibility{
			CanClose: false,
			Reason:   fmt.Sprintf("quotation is %s", snap.Quotation.Status),
		}
	}

	return CloseEligibilityResponse{
		CanClose: verdict.CanClose,
		Reason:   verdict.Reason,
		Pending:  agg.Pending,
		Accepted: agg.Accepted,
		Rejected: agg.Rejected,
		Total:    agg.Total,
	}, nil
}

// --- Helpers ---

func denied() CloseEligibilityResponse {
	verdict := EvaluateOrDeny(ResponseAggregate{}, ErrNotEligible)
	return CloseEligibilityResponse{CanClose: verdict.CanClose, Reason: verdict.Reason}
}

// resolveSuppliers de-duplicates the ids and checks that every supplier exists and is active.
func (s *quotationService) resolveSuppliers(ctx context.Context, raw []string) ([]uuid.UUID, error) {
	seen := make(map[uuid.UUID]bool, len(raw))
	ids := make([]uuid.UUID, 0, len(raw))
	for _, r := range raw {
		id, err := parseUUID("supplier id", r)
		if err != nil {
			return nil, err
		}
		if seen[id] {
			continue
		}
		seen[id] = true
		ids = append(ids, id)
	}

	found, err := s.suppliers.FindByIDs(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("failed to load suppliers: %w", err)
	}
	active := make(map[uuid.UUID]bool, len(found))
	for _, supplier := range found {
		if supplier.IsActive {
			active[supplier.ID] = true
		}
	}
	for _, id := range ids {
		if !active[id] {
			return nil, validationErrorf("supplier %s does not exist or is inactive", id)
		}
	}
	return ids, nil
}

func buildItems(reqs []QuotationItemRequest) ([]model.QuotationItem, error) {
	if len(reqs) == 0 {
		return nil, validationErrorf("items must not be empty")
	}

	items := make([]model.QuotationItem, 0, len(reqs))
	for i, r := range reqs {
		name := strings.TrimSpace(r.Name)
		if name == "" {
			return nil, validationErrorf("items[%d]: name is required", i)
		}
		if !r.Quantity.IsPositive() {
			return nil, validationErrorf("items[%d]: quantity must be greater than zero", i)
		}
		if r.EstimatedUnitAmount.IsNegative() {
			return nil, validationErrorf("items[%d]: estimated_unit_amount must not be negative", i)
		}
		items = append(items, model.QuotationItem{
			ID:                  uuid.New(),
			Position:            i,
			Name:                name,
			Description:         strings.TrimSpace(r.Description),
			Unit:                strings.TrimSpace(r.Unit),
			Quantity:            r.Quantity,
			EstimatedUnitAmount: r.EstimatedUnitAmount,
		})
	}
	return items, nil
}

// rejectPending terminates every PENDING response and returns how many were rejected.
func rejectPending(snap *repository.QuotationSnapshot, at time.Time) int {
	count := 0
	for _, r := range snap.Responses {
		if r.Status != model.ResponseStatusPending {
			continue
		}
		decided := at
		r.Status = model.ResponseStatusRejected
		r.DecidedAt = &decided
		snap.PutResponse(r)
		count++
	}
	return count
}

// statusError reports an operation attempted in the wrong status. A CLOSED quotation
// additionally matches ErrAlreadyClosed so racing callers can tell they lost.
func statusError(q *model.QuotationRequest, msg string) error {
	if q.Status == model.QuotationStatusClosed {
		return fmt.Errorf("%w: %w: %s", ErrInvalidState, ErrAlreadyClosed, msg)
	}
	return invalidStatef("quotation is %s: %s", q.Status, msg)
}
