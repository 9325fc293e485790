package services

import (
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/JohnEstano/Graduate-School-System-sub002/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/utils/tests"
)

func TestCanTransitionValidMatrix(t *testing.T) {
	t.Parallel()

	valid := [][2]models.WorkflowState{
		{models.StateSubmitted, models.StateAdviserReview},
		{models.StateSubmitted, models.StateAdviserApproved},
		{models.StateAdviserReview, models.StateAdviserApproved},
		{models.StateAdviserReview, models.StateAdviserRejected},
		{models.StateAdviserApproved, models.StateCoordinatorReview},
		{models.StateCoordinatorReview, models.StateCoordinatorApproved},
		{models.StateAdviserApproved, models.StateCoordinatorApproved},
		{"", models.StateCoordinatorApproved},
		{models.StateAdviserApproved, models.StatePanelsAssigned},
		{models.StateCoordinatorApproved, models.StatePanelsAssigned},
		{models.StatePanelsAssigned, models.StatePanelsAssigned},
		{models.StateAdviserApproved, models.StateScheduled},
		{models.StateCoordinatorReview, models.StateScheduled},
		{models.StatePanelsAssigned, models.StateScheduled},
		{models.StateScheduled, models.StateScheduled},
		{models.StateScheduled, models.StateCompleted},
		{models.StateSubmitted, models.StateCancelled},
		{models.StateScheduled, models.StateCancelled},
	}
	for _, pair := range valid {
		if !CanTransition(pair[0], pair[1]) {
			t.Errorf("expected valid transition %q -> %q", pair[0], pair[1])
		}
	}
}

func TestCanTransitionInvalid(t *testing.T) {
	t.Parallel()

	invalid := [][2]models.WorkflowState{
		{models.StateSubmitted, models.StateScheduled},
		{models.StateSubmitted, models.StatePanelsAssigned},
		{models.StateAdviserRejected, models.StateAdviserApproved},
		{models.StateCompleted, models.StateScheduled},
		{models.StateCancelled, models.StateCancelled},
		{models.StateCompleted, models.StateCancelled},
		{models.StateCoordinatorRejected, models.StateCancelled},
		{models.StateScheduled, models.StateCoordinatorApproved},
	}
	for _, pair := range invalid {
		if CanTransition(pair[0], pair[1]) {
			t.Errorf("expected invalid transition %q -> %q", pair[0], pair[1])
		}
	}
}

func TestTransitionAppendsExactlyOneEntry(t *testing.T) {
	t.Parallel()

	id := uuid.New()
	actor := Actor{ID: &id, Name: "Dr. Santos"}
	req := models.DefenseRequest{WorkflowState: models.StateAdviserApproved}

	err := transition(&req, "assign-panels", models.StatePanelsAssigned, actor, "", time.Now())
	if err != nil {
		t.Fatalf("transition failed: %v", err)
	}
	if len(req.WorkflowHistory) != 1 {
		t.Fatalf("history length = %d, want 1", len(req.WorkflowHistory))
	}
	if req.WorkflowHistory[0].FromState != models.StateAdviserApproved {
		t.Errorf("from_state = %q, want adviser-approved", req.WorkflowHistory[0].FromState)
	}
	if req.LastStatusUpdatedBy == nil || *req.LastStatusUpdatedBy != id {
		t.Error("last_status_updated_by not set to actor")
	}
}

func TestTransitionGuardViolation(t *testing.T) {
	t.Parallel()

	req := models.DefenseRequest{WorkflowState: models.StateCompleted}
	err := transition(&req, "schedule", models.StateScheduled, SystemActor, "", time.Now())

	var guard *GuardViolationError
	if !errors.As(err, &guard) {
		t.Fatalf("expected GuardViolationError, got %v", err)
	}
	if guard.Current != models.StateCompleted {
		t.Errorf("reported current state = %q", guard.Current)
	}
	if len(req.WorkflowHistory) != 0 {
		t.Error("refused transition must not append history")
	}
}

func TestPanelAssignmentValidate(t *testing.T) {
	t.Parallel()

	var empty PanelAssignment
	problems := empty.validate()
	if len(problems) != 2 {
		t.Fatalf("empty panel should report chairperson and panelist gaps, got %v", problems)
	}

	ok := PanelAssignment{
		Chairperson: models.PanelMember{Name: "Dr. Reyes"},
		Panelists:   [4]models.PanelMember{{Name: "Dr. Cruz"}},
	}
	if problems := ok.validate(); len(problems) != 0 {
		t.Errorf("valid panel reported problems: %v", problems)
	}
}

func TestPanelAssignmentValidateDuplicates(t *testing.T) {
	t.Parallel()

	id := uuid.New()
	dup := PanelAssignment{
		Chairperson: models.PanelMember{PanelistID: &id},
		Panelists:   [4]models.PanelMember{{PanelistID: &id}},
	}
	problems := dup.validate()
	if len(problems) == 0 {
		t.Fatal("duplicate panel member not reported")
	}

	// Free-text spelling variants are the same person.
	dupName := PanelAssignment{
		Chairperson: models.PanelMember{Name: "Dr.  Maria Reyes"},
		Panelists:   [4]models.PanelMember{{Name: "dr. maria reyes"}},
	}
	if problems := dupName.validate(); len(problems) == 0 {
		t.Fatal("free-text duplicate not reported")
	}
}

func TestScheduleValidateCollectsAllGaps(t *testing.T) {
	t.Parallel()

	var sched Schedule
	problems := sched.validate(true, time.Now())
	if len(problems) != 5 {
		t.Fatalf("empty schedule should report 5 gaps, got %d: %v", len(problems), problems)
	}
}

func TestScheduleValidateEndAfterStart(t *testing.T) {
	t.Parallel()

	now := time.Now()
	tomorrow := now.AddDate(0, 0, 1)
	start := time.Date(tomorrow.Year(), tomorrow.Month(), tomorrow.Day(), 10, 0, 0, 0, time.Local)

	sched := Schedule{
		Date:  tomorrow,
		Start: start,
		End:   start,
		Venue: "Room A",
		Mode:  models.ModeFaceToFace,
	}
	problems := sched.validate(true, now)
	if len(problems) != 1 || problems[0] != "end time must be after start time" {
		t.Fatalf("expected end-after-start problem, got %v", problems)
	}
}

func TestScheduleValidateFirstTimeDateRule(t *testing.T) {
	t.Parallel()

	now := time.Date(2025, 10, 2, 12, 0, 0, 0, time.UTC)
	yesterday := time.Date(2025, 10, 1, 0, 0, 0, 0, time.UTC)
	sched := Schedule{
		Date:  yesterday,
		Start: yesterday.Add(9 * time.Hour),
		End:   yesterday.Add(10 * time.Hour),
		Venue: "Room A",
		Mode:  models.ModeOnline,
	}

	if problems := sched.validate(true, now); len(problems) == 0 {
		t.Error("first-time schedule in the past must be refused")
	}
	// Correcting an erroneous past entry on an existing schedule is allowed.
	if problems := sched.validate(false, now); len(problems) != 0 {
		t.Errorf("reschedule to a past date should be allowed, got %v", problems)
	}
}

func TestSubmitRequestInitialHistory(t *testing.T) {
	t.Parallel()

	id := uuid.New()
	var req models.DefenseRequest
	SubmitRequest(&req, Actor{ID: &id, Name: "Ana Lim"}, time.Now())

	if req.WorkflowState != models.StateSubmitted {
		t.Errorf("state = %q, want submitted", req.WorkflowState)
	}
	if len(req.WorkflowHistory) != 1 || req.WorkflowHistory[0].Action != "submit" {
		t.Fatalf("expected one submit entry, got %v", req.WorkflowHistory)
	}
}

// An already-completed request must be a no-op for the lazy auto-complete
// check: no transition, no new history entry.
func TestMaybeCompleteIdempotentOnCompleted(t *testing.T) {
	t.Parallel()

	req := models.DefenseRequest{WorkflowState: models.StateCompleted}
	req.AppendHistory("auto-complete", models.StateCompleted, "system", "", time.Now())
	before := len(req.WorkflowHistory)

	changed, err := MaybeComplete(nil, &req, time.Now())
	if err != nil {
		t.Fatalf("MaybeComplete returned error: %v", err)
	}
	if changed {
		t.Error("completed request must not transition again")
	}
	if len(req.WorkflowHistory) != before {
		t.Error("no-op must not append history")
	}
}

func TestMaybeCompleteBeforeWindowEnds(t *testing.T) {
	t.Parallel()

	now := time.Date(2025, 10, 1, 9, 30, 0, 0, time.UTC)
	start := time.Date(2025, 10, 1, 9, 0, 0, 0, time.UTC)
	end := time.Date(2025, 10, 1, 10, 0, 0, 0, time.UTC)
	req := models.DefenseRequest{
		WorkflowState: models.StateScheduled,
		StartAt:       &start,
		EndAt:         &end,
	}

	changed, err := MaybeComplete(nil, &req, now)
	if err != nil {
		t.Fatalf("MaybeComplete returned error: %v", err)
	}
	if changed || req.WorkflowState != models.StateScheduled {
		t.Error("request must stay scheduled until the window has passed")
	}
}

// Two concurrent transitions on one request must serialize at the row, or
// the second writer silently drops the first writer's history entry. The
// dry-run session captures the SQL the load emits so the locking clause is
// pinned without a live database.
func TestLockRequestLoadsRowForUpdate(t *testing.T) {
	t.Parallel()

	db, err := gorm.Open(tests.DummyDialector{}, &gorm.Config{DryRun: true})
	if err != nil {
		t.Fatalf("open dry-run db: %v", err)
	}
	var query string
	err = db.Callback().Query().After("gorm:query").Register("capture_query", func(tx *gorm.DB) {
		query = tx.Statement.SQL.String()
	})
	if err != nil {
		t.Fatalf("register callback: %v", err)
	}

	if _, err := LockRequest(db, uuid.New()); err != nil {
		t.Fatalf("LockRequest: %v", err)
	}
	if !strings.Contains(query, "FOR UPDATE") {
		t.Errorf("transition load must lock the row, got query %q", query)
	}
}

func TestAdviserEligibility(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name string
		user models.User
		want bool
	}{
		{"active adviser", models.User{Role: models.RoleAdviser, IsActive: true}, true},
		{"active coordinator", models.User{Role: models.RoleCoordinator, IsActive: true}, true},
		{"inactive adviser", models.User{Role: models.RoleAdviser, IsActive: false}, false},
		{"student", models.User{Role: models.RoleStudent, IsActive: true}, false},
		{"dean", models.User{Role: models.RoleDean, IsActive: true}, false},
	}
	for _, tc := range cases {
		if got := adviserEligible(&tc.user); got != tc.want {
			t.Errorf("%s: adviserEligible = %v, want %v", tc.name, got, tc.want)
		}
	}
}
