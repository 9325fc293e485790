package services

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/JohnEstano/Graduate-School-System-sub002/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Actor identifies who triggered a transition. The zero ID is used for the
// automatic system actor.
type Actor struct {
	ID   *uuid.UUID
	Name string
}

// SystemActor attributes transitions the engine performs on its own, such
// as lazy auto-completion.
var SystemActor = Actor{Name: "system"}

// LockRequest loads a defense request with its row locked for the rest of
// the surrounding transaction. Every transition goes through this load, so
// concurrent transitions on one request serialize at the row instead of
// last-writer-wins on the history blob.
func LockRequest(tx *gorm.DB, id uuid.UUID) (*models.DefenseRequest, error) {
	var req models.DefenseRequest
	if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).First(&req, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &req, nil
}

// transitionSources lists, per target state, the states a request may be in
// when the transition starts. Re-assignment and re-scheduling are allowed,
// so panels-assigned and scheduled each accept themselves.
var transitionSources = map[models.WorkflowState][]models.WorkflowState{
	models.StateAdviserReview:       {models.StateSubmitted},
	models.StateAdviserApproved:     {models.StateSubmitted, models.StateAdviserReview},
	models.StateAdviserRejected:     {models.StateSubmitted, models.StateAdviserReview},
	models.StateCoordinatorReview:   {models.StateAdviserApproved},
	models.StateCoordinatorApproved: {models.StateAdviserApproved, models.StateCoordinatorReview, models.StateSubmitted, ""},
	models.StateCoordinatorRejected: {models.StateAdviserApproved, models.StateCoordinatorReview},
	models.StatePanelsAssigned:      {models.StateAdviserApproved, models.StateCoordinatorApproved, models.StatePanelsAssigned},
	models.StateScheduled:           {models.StateAdviserApproved, models.StateCoordinatorReview, models.StateCoordinatorApproved, models.StatePanelsAssigned, models.StateScheduled},
	models.StateCompleted:           {models.StateScheduled},
}

// CanTransition reports whether the state machine permits moving from one
// state to another. Cancellation is reachable from any non-terminal state.
func CanTransition(from, to models.WorkflowState) bool {
	if to == models.StateCancelled {
		return !from.Terminal()
	}
	for _, s := range transitionSources[to] {
		if s == from {
			return true
		}
	}
	return false
}

// transition is the single choke point every state change goes through:
// guard, mutate, append exactly one history entry whose from_state is the
// state observed here. Persistence is the caller's job so the whole
// operation shares one transaction.
func transition(req *models.DefenseRequest, action string, to models.WorkflowState, actor Actor, comment string, now time.Time) error {
	if !CanTransition(req.WorkflowState, to) {
		return &GuardViolationError{Action: action, Current: req.WorkflowState}
	}
	req.AppendHistory(action, to, actor.Name, comment, now)
	req.LastStatusUpdatedBy = actor.ID
	return nil
}

// SubmitRequest initializes a freshly created request into the submitted
// state with its first history entry.
func SubmitRequest(req *models.DefenseRequest, actor Actor, now time.Time) {
	req.AppendHistory("submit", models.StateSubmitted, actor.Name, "", now)
	req.LastStatusUpdatedBy = actor.ID
}

// PanelAssignment carries the five proposed slots.
type PanelAssignment struct {
	Chairperson models.PanelMember
	Panelists   [4]models.PanelMember
}

func (p PanelAssignment) slots() []models.PanelSlot {
	return []models.PanelSlot{
		{Slot: models.SlotChairperson, Member: p.Chairperson},
		{Slot: models.SlotPanelist1, Member: p.Panelists[0]},
		{Slot: models.SlotPanelist2, Member: p.Panelists[1]},
		{Slot: models.SlotPanelist3, Member: p.Panelists[2]},
		{Slot: models.SlotPanelist4, Member: p.Panelists[3]},
	}
}

// validate collects every problem with the proposed panel at once: the
// chairperson and at least one panelist must be filled, and no person may
// occupy two slots.
func (p PanelAssignment) validate() []string {
	var problems []string
	if !p.Chairperson.Assigned() {
		problems = append(problems, "chairperson")
	}
	anyPanelist := false
	for _, m := range p.Panelists {
		if m.Assigned() {
			anyPanelist = true
		}
	}
	if !anyPanelist {
		problems = append(problems, "at least one panelist")
	}
	seen := map[string]string{}
	for _, s := range p.slots() {
		if !s.Member.Assigned() {
			continue
		}
		key := s.Member.Key()
		if prev, dup := seen[key]; dup {
			problems = append(problems, fmt.Sprintf("duplicate panel member %q in %s and %s", s.Member.Display(), prev, s.Slot))
			continue
		}
		seen[key] = string(s.Slot)
	}
	return problems
}

// AssignPanels commits the proposed panel and derives honorarium payments in
// the same transaction; panels saved without payments is never observable.
// Re-assignment is idempotent and allowed from the panels-assigned state.
func AssignPanels(tx *gorm.DB, req *models.DefenseRequest, panel PanelAssignment, actor Actor, now time.Time) error {
	if !CanTransition(req.WorkflowState, models.StatePanelsAssigned) {
		return &GuardViolationError{Action: "assign panels on", Current: req.WorkflowState}
	}
	if problems := panel.validate(); len(problems) > 0 {
		return &ValidationError{Missing: problems}
	}

	req.Chairperson = panel.Chairperson
	req.Panelist1 = panel.Panelists[0]
	req.Panelist2 = panel.Panelists[1]
	req.Panelist3 = panel.Panelists[2]
	req.Panelist4 = panel.Panelists[3]

	if err := transition(req, "assign-panels", models.StatePanelsAssigned, actor, "", now); err != nil {
		return err
	}
	if err := tx.Save(req).Error; err != nil {
		return err
	}
	return DerivePayments(tx, req)
}

// Schedule is a proposed defense slot. Start and End are instants on Date's
// day.
type Schedule struct {
	Date  time.Time
	Start time.Time
	End   time.Time
	Venue string
	Mode  models.DefenseMode
	Notes string
}

// validate collects every gap in one list. A first-time schedule must be
// today or later; a reschedule may use any date so an erroneous past entry
// can still be corrected.
func (s Schedule) validate(firstTime bool, now time.Time) []string {
	var problems []string
	if s.Date.IsZero() {
		problems = append(problems, "defense date")
	}
	if s.Start.IsZero() {
		problems = append(problems, "start time")
	}
	if s.End.IsZero() {
		problems = append(problems, "end time")
	}
	if s.Mode == "" {
		problems = append(problems, "defense mode")
	}
	if strings.TrimSpace(s.Venue) == "" {
		problems = append(problems, "venue")
	}
	if !s.Start.IsZero() && !s.End.IsZero() && !s.End.After(s.Start) {
		problems = append(problems, "end time must be after start time")
	}
	if firstTime && !s.Date.IsZero() {
		today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
		if s.Date.Before(today) {
			problems = append(problems, "defense date must be today or later")
		}
	}
	return problems
}

// ScheduleDefense validates the proposed slot, re-checks panel and venue
// conflicts with the same-date rows locked, then commits the schedule. A
// positive conflict result blocks the transition as a validation outcome,
// not a system error.
func ScheduleDefense(tx *gorm.DB, req *models.DefenseRequest, sched Schedule, actor Actor, now time.Time) error {
	if !CanTransition(req.WorkflowState, models.StateScheduled) {
		return &GuardViolationError{Action: "schedule", Current: req.WorkflowState}
	}
	firstTime := req.StartAt == nil
	if problems := sched.validate(firstTime, now); len(problems) > 0 {
		return &ValidationError{Missing: problems}
	}

	conflicts, err := checkScheduleLocked(tx, &req.ID, req.PanelSlots(), sched.Venue, sched.Date, sched.Start, sched.End)
	if err != nil {
		return err
	}
	if len(conflicts) > 0 {
		return &ConflictError{Conflicts: conflicts}
	}

	date := sched.Date
	start := sched.Start
	end := sched.End
	req.DefenseDate = &date
	req.StartAt = &start
	req.EndAt = &end
	req.Venue = sched.Venue
	req.Mode = sched.Mode
	req.Notes = sched.Notes

	action := "schedule"
	if !firstTime {
		action = "reschedule"
	}
	if err := transition(req, action, models.StateScheduled, actor, "", now); err != nil {
		return err
	}
	return tx.Save(req).Error
}

// BeginAdviserReview acknowledges a submitted request.
func BeginAdviserReview(tx *gorm.DB, req *models.DefenseRequest, actor Actor, now time.Time) error {
	if err := transition(req, "begin-adviser-review", models.StateAdviserReview, actor, "", now); err != nil {
		return err
	}
	return tx.Save(req).Error
}

// adviserEligible reports whether the resolved user may stand as the
// endorsing adviser.
func adviserEligible(u *models.User) bool {
	return u.IsActive && u.Role.CanAdvise()
}

// AdviserApprove endorses the request. Policy: the adviser must resolve to
// an active user with an advising role and a coordinator must be routable
// for the student's program, otherwise the approval is refused and the
// failure surfaces as-is.
func AdviserApprove(tx *gorm.DB, req *models.DefenseRequest, comment string, actor Actor, now time.Time) error {
	if !CanTransition(req.WorkflowState, models.StateAdviserApproved) {
		return &GuardViolationError{Action: "adviser-approve", Current: req.WorkflowState}
	}
	if req.AdviserID == nil {
		return &ValidationError{Missing: []string{"adviser"}}
	}
	var adviser models.User
	if err := tx.First(&adviser, "id = ?", *req.AdviserID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return &ValidationError{Missing: []string{"resolvable adviser"}}
		}
		return err
	}
	if !adviserEligible(&adviser) {
		return &ValidationError{Missing: []string{fmt.Sprintf("active advising role for %s", adviser.FullName)}}
	}
	coordinator, err := RouteCoordinator(tx, req.Program)
	if err != nil {
		return err
	}
	req.CoordinatorID = &coordinator.ID
	req.AdviserStatus = models.ReviewApproved
	if err := transition(req, "adviser-approve", models.StateAdviserApproved, actor, comment, now); err != nil {
		return err
	}
	return tx.Save(req).Error
}

// AdviserReject is terminal at the adviser stage.
func AdviserReject(tx *gorm.DB, req *models.DefenseRequest, comment string, actor Actor, now time.Time) error {
	if err := transition(req, "adviser-reject", models.StateAdviserRejected, actor, comment, now); err != nil {
		return err
	}
	req.AdviserStatus = models.ReviewRejected
	return tx.Save(req).Error
}

// BeginCoordinatorReview acknowledges an adviser-approved request.
func BeginCoordinatorReview(tx *gorm.DB, req *models.DefenseRequest, actor Actor, now time.Time) error {
	if err := transition(req, "begin-coordinator-review", models.StateCoordinatorReview, actor, "", now); err != nil {
		return err
	}
	return tx.Save(req).Error
}

// CoordinatorApprove requires the full schedule and at least one panel slot
// to be in place; every gap is reported together so the caller can show all
// of them at once.
func CoordinatorApprove(tx *gorm.DB, req *models.DefenseRequest, comment string, actor Actor, now time.Time) error {
	if !CanTransition(req.WorkflowState, models.StateCoordinatorApproved) {
		return &GuardViolationError{Action: "coordinator-approve", Current: req.WorkflowState}
	}
	if missing := req.MissingScheduleFields(); len(missing) > 0 {
		return &ValidationError{Missing: missing}
	}
	req.CoordinatorStatus = models.ReviewApproved
	if err := transition(req, "coordinator-approve", models.StateCoordinatorApproved, actor, comment, now); err != nil {
		return err
	}
	return tx.Save(req).Error
}

// CoordinatorReject is terminal at the coordinator stage.
func CoordinatorReject(tx *gorm.DB, req *models.DefenseRequest, comment string, actor Actor, now time.Time) error {
	if err := transition(req, "coordinator-reject", models.StateCoordinatorRejected, actor, comment, now); err != nil {
		return err
	}
	req.CoordinatorStatus = models.ReviewRejected
	return tx.Save(req).Error
}

// DeanDecision records the dean's sign-off flag. It is not a workflow state
// of its own, so the request stays where it is.
func DeanDecision(tx *gorm.DB, req *models.DefenseRequest, status models.ReviewStatus, comment string, actor Actor, now time.Time) error {
	if req.WorkflowState.Terminal() {
		return &GuardViolationError{Action: "record a dean decision on", Current: req.WorkflowState}
	}
	req.DeanStatus = status
	req.AppendHistory("dean-"+string(status), req.WorkflowState, actor.Name, comment, now)
	req.LastStatusUpdatedBy = actor.ID
	return tx.Save(req).Error
}

// Cancel moves any non-terminal request into the cancelled state. Requests
// are never physically deleted.
func Cancel(tx *gorm.DB, req *models.DefenseRequest, comment string, actor Actor, now time.Time) error {
	if err := transition(req, "cancel", models.StateCancelled, actor, comment, now); err != nil {
		return err
	}
	return tx.Save(req).Error
}

// MaybeComplete lazily finishes a scheduled request whose defense window has
// passed. Evaluated on detail reads instead of a background scheduler, which
// keeps completion only as fresh as the last read. Idempotent: an already
// completed request is a no-op, and the row is re-checked under lock so
// concurrent readers append at most one entry between them.
func MaybeComplete(db *gorm.DB, req *models.DefenseRequest, now time.Time) (bool, error) {
	if req.WorkflowState != models.StateScheduled {
		return false, nil
	}
	end := req.DefenseEnd()
	if end.IsZero() || !now.After(end) {
		return false, nil
	}

	completed := false
	err := db.Transaction(func(tx *gorm.DB) error {
		var current models.DefenseRequest
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).First(&current, "id = ?", req.ID).Error; err != nil {
			return err
		}
		if current.WorkflowState != models.StateScheduled {
			*req = current
			return nil
		}
		if err := transition(&current, "auto-complete", models.StateCompleted, SystemActor, "", now); err != nil {
			return err
		}
		if err := tx.Save(&current).Error; err != nil {
			return err
		}
		*req = current
		completed = true
		return nil
	})
	return completed, err
}
