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

// --- Supplier DTOs ---

type CreateSupplierRequest struct {
	Name          string `json:"name" binding:"required"`
	CompanyName   string `json:"company_name"`
	ContactPerson string `json:"contact_person"`
	Phone         string `json:"phone"`
	Email         string `json:"email" binding:"omitempty,email"`
}

type UpdateSupplierRequest struct {
	Name          *string `json:"name"`
	CompanyName   *string `json:"company_name"`
	ContactPerson *string `json:"contact_person"`
	Phone         *string `json:"phone"`
	Email         *string `json:"email" binding:"omitempty,email"`
	IsActive      *bool   `json:"is_active"`
}

type SupplierDTO struct {
	ID            uuid.UUID `json:"id"`
	Name          string    `json:"name"`
	CompanyName   string    `json:"company_name"`
	ContactPerson string    `json:"contact_person"`
	Phone         string    `json:"phone"`
	Email         string    `json:"email"`
	IsActive      bool      `json:"is_active"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

// --- Interface ---

type SupplierService interface {
	CreateSupplier(ctx context.Context, userID string, req CreateSupplierRequest) (SupplierDTO, error)
	UpdateSupplier(ctx context.Context, userID string, id string, req UpdateSupplierRequest) (SupplierDTO, error)
	GetSupplier(ctx context.Context, id string) (SupplierDTO, error)
	ListSuppliers(ctx context.Context, search string, activeOnly bool, page, limit int) ([]SupplierDTO, int64, error)
}

// --- Implementation ---

type supplierService struct {
	supplierRepo repository.SupplierRepository
	auditRepo    repository.AuditRepository
	txManager    repository.TransactionManager
}

func NewSupplierService(
	supplierRepo repository.SupplierRepository,
	auditRepo repository.AuditRepository,
	txManager repository.TransactionManager,
) SupplierService {
	return &supplierService{supplierRepo: supplierRepo, auditRepo: auditRepo, txManager: txManager}
}

func (s *supplierService) CreateSupplier(ctx context.Context, userID string, req CreateSupplierRequest) (SupplierDTO, error) {
	req.Name = strings.TrimSpace(req.Name)
	req.Email = strings.TrimSpace(req.Email)
	if err := validateStruct(req); err != nil {
		return SupplierDTO{}, err
	}

	supplier := &model.Supplier{
		ID:            uuid.New(),
		Name:          req.Name,
		CompanyName:   req.CompanyName,
		ContactPerson: req.ContactPerson,
		Phone:         req.Phone,
		Email:         req.Email,
		IsActive:      true,
	}

	err := s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		if err := s.supplierRepo.Create(txCtx, supplier); err != nil {
			return fmt.Errorf("failed to create supplier: %w", err)
		}
		details, _ := json.Marshal(req)
		return s.auditRepo.Log(txCtx, &model.AuditLog{
			UserID:     parseActor(userID),
			Action:     model.ActionCreateSupplier,
			EntityID:   supplier.ID.String(),
			EntityName: supplier.Name,
			Details:    string(details),
		})
	})
	if err != nil {
		return SupplierDTO{}, err
	}

	return toSupplierDTO(*supplier), nil
}

func (s *supplierService) UpdateSupplier(ctx context.Context, userID string, id string, req UpdateSupplierRequest) (SupplierDTO, error) {
	uid, err := parseUUID("supplier id", id)
	if err != nil {
		return SupplierDTO{}, err
	}
	if req.Email != nil {
		trimmed := strings.TrimSpace(*req.Email)
		req.Email = &trimmed
	}
	if err := validateStruct(req); err != nil {
		return SupplierDTO{}, err
	}

	var updated *model.Supplier
	err = s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		supplier, err := s.supplierRepo.FindByID(txCtx, uid)
		if err != nil {
			return translateStoreErr(err, "supplier "+id)
		}

		if req.Name != nil {
			name := strings.TrimSpace(*req.Name)
			if name == "" {
				return validationErrorf("name cannot be empty")
			}
			supplier.Name = name
		}
		if req.CompanyName != nil {
			supplier.CompanyName = *req.CompanyName
		}
		if req.ContactPerson != nil {
			supplier.ContactPerson = *req.ContactPerson
		}
		if req.Phone != nil {
			supplier.Phone = *req.Phone
		}
		if req.Email != nil {
			supplier.Email = *req.Email
		}
		if req.IsActive != nil {
			supplier.IsActive = *req.IsActive
		}

		if err := s.supplierRepo.Update(txCtx, supplier); err != nil {
			return fmt.Errorf("failed to update supplier: %w", err)
		}

		details, _ := json.Marshal(req)
		if err := s.auditRepo.Log(txCtx, &model.AuditLog{
			UserID:     parseActor(userID),
			Action:     model.ActionUpdateSupplier,
			EntityID:   supplier.ID.String(),
			EntityName: supplier.Name,
			Details:    string(details),
		}); err != nil {
			return err
		}

		updated = supplier
		return nil
	})
	if err != nil {
		return SupplierDTO{}, err
	}

	return toSupplierDTO(*updated), nil
}

func (s *supplierService) GetSupplier(ctx context.Context, id string) (SupplierDTO, error) {
	uid, err := parseUUID("supplier id", id)
	if err != nil {
		return SupplierDTO{}, err
	}

	supplier, err := s.supplierRepo.FindByID(ctx, uid)
	if err != nil {
		return SupplierDTO{}, translateStoreErr(err, "supplier "+id)
	}
	return toSupplierDTO(*supplier), nil
}

func (s *supplierService) ListSuppliers(ctx context.Context, search string, activeOnly bool, page, limit int) ([]SupplierDTO, int64, error) {
	suppliers, total, err := s.supplierRepo.List(ctx, strings.TrimSpace(search), activeOnly, page, limit)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to fetch suppliers: %w", err)
	}

	res := make([]SupplierDTO, 0, len(suppliers))
	for _, sp := range suppliers {
		res = append(res, toSupplierDTO(sp))
	}
	return res, total, nil
}

func toSupplierDTO(sp model.Supplier) SupplierDTO {
	return SupplierDTO{
		ID:            sp.ID,
		Name:          sp.Name,
		CompanyName:   sp.CompanyName,
		ContactPerson: sp.ContactPerson,
		Phone:         sp.Phone,
		Email:         sp.Email,
		IsActive:      sp.IsActive,
		CreatedAt:     sp.CreatedAt,
		UpdatedAt:     sp.UpdatedAt,
	}
}
