package database

import (
	"log"

	"procurement/internal/model"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

// NewConnection initializes a new connection pool using GORM
func NewConnection(dsn string) (*gorm.DB, error) {
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{})
	if err != nil {
		return nil, err
	}

	// Parents before children so foreign keys resolve
	err = db.AutoMigrate(
		&model.Supplier{},
		&model.QuotationRequest{},
		&model.QuotationItem{},
		&model.QuotationInvitation{},
		&model.SupplierResponse{},
		&model.PurchaseOrder{},
		&model.PurchaseOrderItem{},
		&model.AuditLog{},
		&model.User{},
	)
	if err != nil {
		log.Println("WARNING: Failed to auto-migrate models:", err)
	}

	return db, nil
}
