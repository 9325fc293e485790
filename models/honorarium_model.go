package models

import (
	"time"

	"github.com/google/uuid"
)

// HonorariumSpec is the dean-maintained rate table row: how much a given
// role earns at a given defense stage. Read-only to the workflow engine.
type HonorariumSpec struct {
	ID     uuid.UUID    `gorm:"type:uuid;primary_key;default:gen_random_uuid()" json:"id"`
	Role   string       `gorm:"size:30;not null;uniqueIndex:idx_honorarium_role_stage" json:"role"`
	Stage  DefenseStage `gorm:"size:30;not null;uniqueIndex:idx_honorarium_role_stage" json:"stage"`
	Amount float64      `gorm:"type:numeric(10,2);not null" json:"amount"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

type PaymentStatus string

const (
	PaymentUnpaid PaymentStatus = "unpaid"
	PaymentPaid   PaymentStatus = "paid"
)

// HonorariumPayment is one payable line item per (request, panelist, role).
// Amount is a snapshot of the rate at creation time, not a live reference;
// rows are never deleted when a panel slot is later reassigned.
type HonorariumPayment struct {
	ID               uuid.UUID `gorm:"type:uuid;primary_key;default:gen_random_uuid()" json:"id"`
	DefenseRequestID uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_payment_slot" json:"defense_request_id"`

	// PanelistKey is the conflict/duplicate identity of the panel member:
	// the resolved id when known, the normalized free-text name otherwise.
	PanelistKey  string     `gorm:"size:255;not null;uniqueIndex:idx_payment_slot" json:"-"`
	PanelistID   *uuid.UUID `gorm:"type:uuid" json:"panelist_id"`
	PanelistName string     `gorm:"size:255" json:"panelist_name"`

	Role   string        `gorm:"size:30;not null;uniqueIndex:idx_payment_slot" json:"role"`
	Amount float64       `gorm:"type:numeric(10,2);not null" json:"amount"`
	Status PaymentStatus `gorm:"size:20;not null;default:'unpaid'" json:"status"`
	PaidAt *time.Time    `json:"paid_at"`

	DefenseRequest DefenseRequest `gorm:"foreignkey:DefenseRequestID" json:"-"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}
