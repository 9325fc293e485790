package models

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

type DefenseStage string

const (
	StageProposal DefenseStage = "proposal"
	StagePrefinal DefenseStage = "prefinal"
	StageFinal    DefenseStage = "final"
)

// NormalizeStage collapses the free-text stage spellings found in older
// records ("Pre-Final", "PRE FINAL", "pre_final") onto the canonical keys.
// The prefinal check must run before the final check: "pre-final" contains
// "final" and would otherwise be absorbed by it.
func NormalizeStage(raw string) DefenseStage {
	s := strings.ToLower(raw)
	s = strings.NewReplacer(" ", "", "-", "", "_", "").Replace(s)
	switch {
	case strings.Contains(s, "prefinal"):
		return StagePrefinal
	case strings.Contains(s, "final"):
		return StageFinal
	case strings.Contains(s, "proposal"):
		return StageProposal
	}
	return DefenseStage(s)
}

type WorkflowState string

const (
	StateSubmitted           WorkflowState = "submitted"
	StateAdviserReview       WorkflowState = "adviser-review"
	StateAdviserApproved     WorkflowState = "adviser-approved"
	StateAdviserRejected     WorkflowState = "adviser-rejected"
	StateCoordinatorReview   WorkflowState = "coordinator-review"
	StateCoordinatorApproved WorkflowState = "coordinator-approved"
	StateCoordinatorRejected WorkflowState = "coordinator-rejected"
	StatePanelsAssigned      WorkflowState = "panels-assigned"
	StateScheduled           WorkflowState = "scheduled"
	StateCompleted           WorkflowState = "completed"
	StateCancelled           WorkflowState = "cancelled"
)

// Terminal states accept no further transitions. Rejections are terminal at
// whichever stage they occur; cancellation is a state, never a row delete.
func (s WorkflowState) Terminal() bool {
	switch s {
	case StateAdviserRejected, StateCoordinatorRejected, StateCompleted, StateCancelled:
		return true
	}
	return false
}

type DefenseMode string

const (
	ModeFaceToFace DefenseMode = "face-to-face"
	ModeOnline     DefenseMode = "online"
)

type ReviewStatus string

const (
	ReviewPending  ReviewStatus = "pending"
	ReviewApproved ReviewStatus = "approved"
	ReviewRejected ReviewStatus = "rejected"
)

// PanelSlotName identifies one of the five panel positions on a request.
type PanelSlotName string

const (
	SlotChairperson PanelSlotName = "chairperson"
	SlotPanelist1   PanelSlotName = "panelist1"
	SlotPanelist2   PanelSlotName = "panelist2"
	SlotPanelist3   PanelSlotName = "panelist3"
	SlotPanelist4   PanelSlotName = "panelist4"
)

// HonorariumRole returns the rate-table axis for the slot: the chairperson
// has its own rate, every other slot is paid as a panel member.
func (n PanelSlotName) HonorariumRole() string {
	if n == SlotChairperson {
		return "chairperson"
	}
	return "panel-member"
}

// PanelMember is a tagged variant: either a resolved panelist id or a
// free-text name entered before the person existed in the system. When both
// are set the id wins.
type PanelMember struct {
	PanelistID *uuid.UUID `gorm:"type:uuid" json:"panelist_id"`
	Name       string     `gorm:"size:255" json:"name"`
}

func (m PanelMember) Assigned() bool {
	return m.PanelistID != nil || strings.TrimSpace(m.Name) != ""
}

// Key returns the identity used for duplicate and conflict comparison: the
// id when known, otherwise the normalized free-text name.
func (m PanelMember) Key() string {
	if m.PanelistID != nil {
		return m.PanelistID.String()
	}
	return strings.Join(strings.Fields(strings.ToLower(m.Name)), " ")
}

func (m PanelMember) Display() string {
	if strings.TrimSpace(m.Name) != "" {
		return m.Name
	}
	if m.PanelistID != nil {
		return m.PanelistID.String()
	}
	return ""
}

// PanelSlot pairs a slot position with its occupant.
type PanelSlot struct {
	Slot   PanelSlotName
	Member PanelMember
}

// WorkflowEntry is one line of the append-only workflow history. FromState
// is the state observed when the transition function was entered.
type WorkflowEntry struct {
	Action    string        `json:"action"`
	FromState WorkflowState `json:"from_state"`
	ToState   WorkflowState `json:"to_state"`
	Actor     string        `json:"actor"`
	Comment   string        `json:"comment,omitempty"`
	Timestamp time.Time     `json:"timestamp"`
}

// WorkflowHistory is stored as a jsonb column; entries are only ever
// appended, one per transition.
type WorkflowHistory = datatypes.JSONSlice[WorkflowEntry]

type DefenseRequest struct {
	ID          uuid.UUID `gorm:"type:uuid;primary_key;default:gen_random_uuid()" json:"id"`
	ReferenceNo string    `gorm:"size:30;not null;unique" json:"reference_no"`

	StudentID    uuid.UUID    `gorm:"type:uuid;not null" json:"student_id"`
	StudentName  string       `gorm:"size:255;not null" json:"student_name"`
	Program      string       `gorm:"size:255;not null" json:"program"`
	ThesisTitle  string       `gorm:"type:text;not null" json:"thesis_title"`
	DefenseStage DefenseStage `gorm:"size:30;not null" json:"defense_stage"`

	AdviserID     *uuid.UUID `gorm:"type:uuid" json:"adviser_id"`
	CoordinatorID *uuid.UUID `gorm:"type:uuid" json:"coordinator_id"`

	Chairperson PanelMember `gorm:"embedded;embeddedPrefix:chairperson_" json:"chairperson"`
	Panelist1   PanelMember `gorm:"embedded;embeddedPrefix:panelist1_" json:"panelist1"`
	Panelist2   PanelMember `gorm:"embedded;embeddedPrefix:panelist2_" json:"panelist2"`
	Panelist3   PanelMember `gorm:"embedded;embeddedPrefix:panelist3_" json:"panelist3"`
	Panelist4   PanelMember `gorm:"embedded;embeddedPrefix:panelist4_" json:"panelist4"`

	DefenseDate *time.Time  `gorm:"type:date" json:"defense_date"`
	StartAt     *time.Time  `json:"start_at"`
	EndAt       *time.Time  `json:"end_at"`
	Venue       string      `gorm:"size:255" json:"venue"`
	Mode        DefenseMode `gorm:"size:20" json:"mode"`
	Notes       string      `gorm:"type:text" json:"notes"`

	WorkflowState     WorkflowState   `gorm:"size:30;not null;default:'submitted'" json:"workflow_state"`
	AdviserStatus     ReviewStatus    `gorm:"size:20;not null;default:'pending'" json:"adviser_status"`
	CoordinatorStatus ReviewStatus    `gorm:"size:20;not null;default:'pending'" json:"coordinator_status"`
	DeanStatus        ReviewStatus    `gorm:"size:20;not null;default:'pending'" json:"dean_status"`
	WorkflowHistory   WorkflowHistory `gorm:"type:jsonb" json:"workflow_history"`

	LastStatusUpdatedBy *uuid.UUID `gorm:"type:uuid" json:"last_status_updated_by"`
	LastStatusUpdatedAt *time.Time `json:"last_status_updated_at"`

	ReminderSentAt *time.Time `json:"-"`

	Student     User `gorm:"foreignkey:StudentID" json:"-"`
	Adviser     User `gorm:"foreignkey:AdviserID" json:"-"`
	Coordinator User `gorm:"foreignkey:CoordinatorID" json:"-"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// PanelSlots returns the five slots in a fixed order.
func (r *DefenseRequest) PanelSlots() []PanelSlot {
	return []PanelSlot{
		{SlotChairperson, r.Chairperson},
		{SlotPanelist1, r.Panelist1},
		{SlotPanelist2, r.Panelist2},
		{SlotPanelist3, r.Panelist3},
		{SlotPanelist4, r.Panelist4},
	}
}

// HasPanel reports whether any panel slot is occupied.
func (r *DefenseRequest) HasPanel() bool {
	for _, s := range r.PanelSlots() {
		if s.Member.Assigned() {
			return true
		}
	}
	return false
}

// MissingScheduleFields lists every schedule/panel gap in one pass so the
// caller can surface them all at once instead of one at a time.
func (r *DefenseRequest) MissingScheduleFields() []string {
	var missing []string
	if r.DefenseDate == nil {
		missing = append(missing, "defense date")
	}
	if r.StartAt == nil {
		missing = append(missing, "start time")
	}
	if r.EndAt == nil {
		missing = append(missing, "end time")
	}
	if r.Mode == "" {
		missing = append(missing, "defense mode")
	}
	if strings.TrimSpace(r.Venue) == "" {
		missing = append(missing, "venue")
	}
	if !r.HasPanel() {
		missing = append(missing, "at least one panel member")
	}
	return missing
}

// DefenseEnd computes the instant the defense is considered over: the
// explicit end time, else start plus one hour, else the end of the defense
// day. Zero time when nothing is scheduled.
func (r *DefenseRequest) DefenseEnd() time.Time {
	if r.EndAt != nil {
		return *r.EndAt
	}
	if r.StartAt != nil {
		return r.StartAt.Add(time.Hour)
	}
	if r.DefenseDate != nil {
		d := *r.DefenseDate
		return time.Date(d.Year(), d.Month(), d.Day(), 23, 59, 59, 0, d.Location())
	}
	return time.Time{}
}

// AppendHistory records one transition. Exactly one entry is appended per
// transition; the from_state is whatever the request held at entry.
func (r *DefenseRequest) AppendHistory(action string, to WorkflowState, actor, comment string, at time.Time) {
	r.WorkflowHistory = append(r.WorkflowHistory, WorkflowEntry{
		Action:    action,
		FromState: r.WorkflowState,
		ToState:   to,
		Actor:     actor,
		Comment:   comment,
		Timestamp: at,
	})
	r.WorkflowState = to
	r.LastStatusUpdatedAt = &at
}
