package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// User is a staff or supplier-portal account that can log in and drive the workflow.
// Supplier accounts carry the supplier they act for; their tokens use that supplier id as subject.
type User struct {
	ID         uuid.UUID      `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	Username   string         `gorm:"type:varchar(255);uniqueIndex;not null" json:"username"`
	Email      string         `gorm:"type:varchar(255);uniqueIndex;not null" json:"email"`
	Password   string         `gorm:"type:varchar(255);not null" json:"-"`
	Role       string         `gorm:"type:varchar(50);not null" json:"role"` // admin, qs, senior_qs, supplier
	SupplierID *uuid.UUID     `gorm:"type:uuid;index" json:"supplier_id,omitempty"`
	IsActive   bool           `gorm:"default:true" json:"is_active"`
	CreatedAt  time.Time      `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt  time.Time      `gorm:"autoUpdateTime" json:"updated_at"`
	DeletedAt  gorm.DeletedAt `gorm:"index" json:"-"`
}
