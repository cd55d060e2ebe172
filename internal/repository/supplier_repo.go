package repository

import (
	"context"
	"errors"

	"procurement/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type SupplierRepository interface {
	Create(ctx context.Context, supplier *model.Supplier) error
	Update(ctx context.Context, supplier *model.Supplier) error
	FindByID(ctx context.Context, id uuid.UUID) (*model.Supplier, error)
	FindByIDs(ctx context.Context, ids []uuid.UUID) ([]model.Supplier, error)
	List(ctx context.Context, search string, activeOnly bool, page, limit int) ([]model.Supplier, int64, error)
}

type supplierRepository struct {
	db *gorm.DB
}

func NewSupplierRepository(db *gorm.DB) SupplierRepository {
	return &supplierRepository{db: db}
}

func (r *supplierRepository) Create(ctx context.Context, supplier *model.Supplier) error {
	return GetDB(ctx, r.db).Create(supplier).Error
}

func (r *supplierRepository) Update(ctx context.Context, supplier *model.Supplier) error {
	return GetDB(ctx, r.db).Save(supplier).Error
}

func (r *supplierRepository) FindByID(ctx context.Context, id uuid.UUID) (*model.Supplier, error) {
	var supplier model.Supplier
	if err := GetDB(ctx, r.db).First(&supplier, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &supplier, nil
}

func (r *supplierRepository) FindByIDs(ctx context.Context, ids []uuid.UUID) ([]model.Supplier, error) {
	var suppliers []model.Supplier
	if len(ids) == 0 {
		return suppliers, nil
	}
	if err := GetDB(ctx, r.db).Where("id IN ?", ids).Find(&suppliers).Error; err != nil {
		return nil, err
	}
	return suppliers, nil
}

func (r *supplierRepository) List(ctx context.Context, search string, activeOnly bool, page, limit int) ([]model.Supplier, int64, error) {
	var suppliers []model.Supplier
	var total int64

	db := GetDB(ctx, r.db)
	scope := func(db *gorm.DB) *gorm.DB {
		if activeOnly {
			db = db.Where("is_active = ?", true)
		}
		if search != "" {
			db = db.Where("name ILIKE ? OR company_name ILIKE ? OR email ILIKE ?",
				"%"+search+"%", "%"+search+"%", "%"+search+"%")
		}
		return db
	}

	if err := db.Model(&model.Supplier{}).Scopes(scope).Count(&total).Error; err != nil {
		return nil, 0, err
	}

	offset := (page - 1) * limit
	if err := db.Model(&model.Supplier{}).Scopes(scope).
		Order("name ASC").
		Offset(offset).Limit(limit).
		Find(&suppliers).Error; err != nil {
		return nil, 0, err
	}

	return suppliers, total, nil
}
