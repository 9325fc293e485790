package models

import (
	"time"

	"github.com/google/uuid"
)

// CoordinatorAssignment maps a normalized program name to the coordinator
// authorized to approve that program's defense requests. Rows are soft
// deleted by clearing IsActive; historical rows stay for the audit trail.
type CoordinatorAssignment struct {
	ID            uuid.UUID `gorm:"type:uuid;primary_key;default:gen_random_uuid()" json:"id"`
	Program       string    `gorm:"size:255;not null;index" json:"program"`
	CoordinatorID uuid.UUID `gorm:"type:uuid;not null" json:"coordinator_id"`
	IsActive      bool      `gorm:"default:true" json:"is_active"`

	Coordinator User `gorm:"foreignkey:CoordinatorID" json:"coordinator,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}
