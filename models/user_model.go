package models

import (
	"time"

	"github.com/google/uuid"
)

type UserRole string

const (
	RoleStudent     UserRole = "student"
	RoleAdviser     UserRole = "adviser"
	RoleCoordinator UserRole = "coordinator"
	RoleDean        UserRole = "dean"
	RoleAssistant   UserRole = "assistant"
	RoleAdmin       UserRole = "admin"
)

// CanCoordinate reports whether the role is allowed to act as the approving
// coordinator on a defense request. The dean and the graduate-school
// assistant can stand in when a program has no dedicated coordinator.
func (r UserRole) CanCoordinate() bool {
	switch r {
	case RoleCoordinator, RoleDean, RoleAssistant:
		return true
	}
	return false
}

// CanAdvise reports whether the role may endorse a defense request as its
// adviser. Coordinators carry advisees of their own, so both roles qualify.
func (r UserRole) CanAdvise() bool {
	return r == RoleAdviser || r == RoleCoordinator
}

// CanManageRates reports whether the role may edit the honorarium rate table.
func (r UserRole) CanManageRates() bool {
	return r == RoleDean || r == RoleAdmin
}

type User struct {
	ID       uuid.UUID `gorm:"type:uuid;primary_key;default:gen_random_uuid()" json:"id"`
	FullName string    `gorm:"size:255;not null" json:"full_name"`
	Email    string    `gorm:"size:255;not null;unique" json:"email"`
	Password string    `gorm:"not null" json:"-"`
	Role     UserRole  `gorm:"size:30;not null;default:'student'" json:"role"`
	Program  *string   `gorm:"size:255" json:"program"`
	IsActive bool      `gorm:"default:true" json:"is_active"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}
