package service

import (
	"context"

	"procurement/internal/repository"

	"github.com/google/uuid"
)

type AuditLogResponse struct {
	ID          string  `json:"id"`
	UserID      *string `json:"user_id"`
	QuotationID *string `json:"quotation_id"`
	Action      string  `json:"action"`
	EntityID    string  `json:"entity_id"`
	EntityName  string  `json:"entity_name"`
	Details     string  `json:"details"`
	CreatedAt   string  `json:"created_at"`
}

type AuditService interface {
	GetAuditLogs(ctx context.Context, quotationID string, page, limit int) ([]AuditLogResponse, int64, error)
}

type auditService struct {
	auditRepo repository.AuditRepository
}

// NewAuditService creates a new AuditService instance
func NewAuditService(auditRepo repository.AuditRepository) AuditService {
	return &auditService{auditRepo: auditRepo}
}

// GetAuditLogs returns the newest entries first, optionally narrowed to one quotation's history
func (s *auditService) GetAuditLogs(ctx context.Context, quotationID string, page, limit int) ([]AuditLogResponse, int64, error) {
	var filter *uuid.UUID
	if quotationID != "" {
		id, err := parseUUID("quotation_id", quotationID)
		if err != nil {
			return nil, 0, err
		}
		filter = &id
	}

	logs, total, err := s.auditRepo.List(ctx, filter, page, limit)
	if err != nil {
		return nil, 0, err
	}

	res := make([]AuditLogResponse, 0, len(logs))
	for _, l := range logs {
		res = append(res, AuditLogResponse{
			ID:          l.ID.String(),
			UserID:      formatID(l.UserID),
			QuotationID: formatID(l.QuotationID),
			Action:      l.Action,
			EntityID:    l.EntityID,
			EntityName:  l.EntityName,
			Details:     l.Details,
			CreatedAt:   l.CreatedAt.Format("2006-01-02 15:04:05"),
		})
	}

	return res, total, nil
}
