package service

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"procurement/internal/model"
	"procurement/internal/repository"

	"github.com/google/uuid"
)

type ResponseService interface {
	SubmitResponse(ctx context.Context, quotationID string, req SubmitResponseRequest) (SupplierResponseDTO, error)
	RejectResponse(ctx context.Context, userID string, responseID string) (SupplierResponseDTO, error)
	ListResponses(ctx context.Context, quotationID string) ([]SupplierResponseDTO, error)
	Aggregate(ctx context.Context, quotationID string) (ResponseAggregate, error)
	ListResponsesWithAggregate(ctx context.Context, quotationID string) (ResponseListing, error)
}

// ResponseListing is a quotation's responses and their counts taken from one snapshot.
type ResponseListing struct {
	Responses []SupplierResponseDTO `json:"responses"`
	Aggregate ResponseAggregate     `json:"aggregate"`
}

type responseService struct {
	store    repository.QuotationStore
	notifier *Notifier
}

func NewResponseService(store repository.QuotationStore, notifier *Notifier) ResponseService {
	return &responseService{store: store, notifier: notifier}
}

// SubmitResponse records a supplier's quote. A supplier that already has a PENDING
// response gets it replaced in place, so retrying with the same supplier id is safe.
func (s *responseService) SubmitResponse(ctx context.Context, quotationID string, req SubmitResponseRequest) (SupplierResponseDTO, error) {
	if err := validateStruct(req); err != nil {
		return SupplierResponseDTO{}, err
	}
	if req.SupplierID == "" {
		return SupplierResponseDTO{}, validationErrorf("supplier_id is required")
	}

	qid, err := parseUUID("quotation id", quotationID)
	if err != nil {
		return SupplierResponseDTO{}, err
	}
	supplierID, err := parseUUID("supplier_id", req.SupplierID)
	if err != nil {
		return SupplierResponseDTO{}, err
	}
	if req.TotalAmount.IsNegative() {
		return SupplierResponseDTO{}, validationErrorf("total_amount must not be negative")
	}
	deliveryDate, err := parseDate("delivery_date", req.DeliveryDate)
	if err != nil {
		return SupplierResponseDTO{}, err
	}

	var saved *model.SupplierResponse
	var agg ResponseAggregate
	err = s.store.Transact(ctx, qid, func(ctx context.Context, snap *repository.QuotationSnapshot) error {
		q := snap.Quotation
		if q.Status != model.QuotationStatusSent {
			return statusError(q, "responses are only accepted while the quotation is SENT")
		}
		if !q.IsInvited(supplierID) {
			return fmt.Errorf("%w: supplier %s", ErrNotInvited, supplierID)
		}

		now := time.Now()
		resp := snap.ResponseBySupplier(supplierID)
		replaced := resp != nil
		if replaced {
			if resp.IsTerminal() {
				return fmt.Errorf("%w: response %s is %s", ErrImmutableResponse, resp.ID, resp.Status)
			}
		} else {
			resp = &model.SupplierResponse{
				ID:         uuid.New(),
				SupplierID: supplierID,
				Status:     model.ResponseStatusPending,
			}
		}
		resp.TotalAmount = *req.TotalAmount
		resp.ProposedDeliveryDate = deliveryDate
		resp.Notes = strings.TrimSpace(req.Notes)
		resp.SubmittedAt = now
		snap.PutResponse(resp)

		details, _ := json.Marshal(map[string]interface{}{
			"supplier_id":  supplierID.String(),
			"total_amount": req.TotalAmount.String(),
			"replaced":     replaced,
		})
		snap.Audit(model.AuditLog{
			Action:     model.ActionSubmitResponse,
			EntityID:   resp.ID.String(),
			EntityName: supplierID.String(),
			Details:    string(details),
		})

		saved = resp
		agg = aggregateFrom(snap.Counts())
		return nil
	})
	if err != nil {
		return SupplierResponseDTO{}, translateStoreErr(err, "quotation "+quotationID)
	}

	s.notifier.Publish(EventResponseSubmitted, map[string]interface{}{
		"quotation_id": quotationID,
		"response_id":  saved.ID.String(),
		"supplier_id":  saved.SupplierID.String(),
		"aggregate":    agg,
	})
	return toSupplierResponseDTO(*saved), nil
}

// RejectResponse moves a PENDING response to REJECTED. Rejecting twice is a no-op.
func (s *responseService) RejectResponse(ctx context.Context, userID string, responseID string) (SupplierResponseDTO, error) {
	rid, err := parseUUID("response id", responseID)
	if err != nil {
		return SupplierResponseDTO{}, err
	}

	existing, err := s.store.FindResponse(ctx, rid)
	if err != nil {
		return SupplierResponseDTO{}, translateStoreErr(err, "supplier response "+responseID)
	}

	var result *model.SupplierResponse
	changed := false
	err = s.store.Transact(ctx, existing.QuotationID, func(ctx context.Context, snap *repository.QuotationSnapshot) error {
		resp := snap.Response(rid)
		if resp == nil {
			return notFoundf("supplier response %s", responseID)
		}
		result = resp

		switch resp.Status {
		case model.ResponseStatusRejected:
			return nil
		case model.ResponseStatusAccepted:
			return fmt.Errorf("%w: response %s is ACCEPTED", ErrImmutableResponse, resp.ID)
		}
		if snap.Quotation.Status != model.QuotationStatusSent {
			return statusError(snap.Quotation, "responses can only be rejected while the quotation is SENT")
		}

		now := time.Now()
		resp.Status = model.ResponseStatusRejected
		resp.DecidedAt = &now
		snap.PutResponse(resp)

		snap.Audit(model.AuditLog{
			UserID:     parseActor(userID),
			Action:     model.ActionRejectResponse,
			EntityID:   resp.ID.String(),
			EntityName: resp.SupplierID.String(),
			Details:    fmt.Sprintf(`{"supplier_id":%q}`, resp.SupplierID.String()),
		})
		changed = true
		return nil
	})
	if err != nil {
		return SupplierResponseDTO{}, translateStoreErr(err, "quotation "+existing.QuotationID.String())
	}

	if changed {
		s.notifier.Publish(EventResponseRejected, map[string]interface{}{
			"quotation_id": result.QuotationID.String(),
			"response_id":  responseID,
		})
	}
	return toSupplierResponseDTO(*result), nil
}

func (s *responseService) ListResponses(ctx context.Context, quotationID string) ([]SupplierResponseDTO, error) {
	snap, err := s.load(ctx, quotationID)
	if err != nil {
		return nil, err
	}
	return responseDTOs(snap), nil
}

func (s *responseService) Aggregate(ctx context.Context, quotationID string) (ResponseAggregate, error) {
	snap, err := s.load(ctx, quotationID)
	if err != nil {
		return ResponseAggregate{}, err
	}
	return aggregateFrom(snap.Counts()), nil
}

// ListResponsesWithAggregate reads the responses and the counts from the same snapshot,
// so the two always agree even while submissions are arriving.
func (s *responseService) ListResponsesWithAggregate(ctx context.Context, quotationID string) (ResponseListing, error) {
	snap, err := s.load(ctx, quotationID)
	if err != nil {
		return ResponseListing{}, err
	}
	return ResponseListing{
		Responses: responseDTOs(snap),
		Aggregate: aggregateFrom(snap.Counts()),
	}, nil
}

func (s *responseService) load(ctx context.Context, quotationID string) (*repository.QuotationSnapshot, error) {
	qid, err := parseUUID("quotation id", quotationID)
	if err != nil {
		return nil, err
	}
	snap, err := s.store.Load(ctx, qid)
	if err != nil {
		return nil, translateStoreErr(err, "quotation "+quotationID)
	}
	return snap, nil
}

func responseDTOs(snap *repository.QuotationSnapshot) []SupplierResponseDTO {
	result := make([]SupplierResponseDTO, 0, len(snap.Responses))
	for _, r := range snap.Responses {
		result = append(result, toSupplierResponseDTO(*r))
	}
	return result
}
