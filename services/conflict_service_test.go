package services

import (
	"testing"
	"time"

	"github.com/JohnEstano/Graduate-School-System-sub002/models"
	"github.com/google/uuid"
)

func at(hour, min int) time.Time {
	return time.Date(2025, 10, 1, hour, min, 0, 0, time.UTC)
}

func scheduledRequest(student, venue string, start, end time.Time, panel ...models.PanelMember) models.DefenseRequest {
	req := models.DefenseRequest{
		ID:            uuid.New(),
		StudentName:   student,
		Venue:         venue,
		WorkflowState: models.StateScheduled,
		StartAt:       &start,
		EndAt:         &end,
	}
	if len(panel) > 0 {
		req.Chairperson = panel[0]
	}
	if len(panel) > 1 {
		req.Panelist1 = panel[1]
	}
	return req
}

func TestOverlapsHalfOpen(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name           string
		s1, e1, s2, e2 time.Time
		want           bool
	}{
		{"partial overlap", at(9, 0), at(10, 0), at(9, 30), at(10, 30), true},
		{"containment", at(9, 0), at(12, 0), at(10, 0), at(11, 0), true},
		{"identical", at(9, 0), at(10, 0), at(9, 0), at(10, 0), true},
		{"touching endpoints", at(9, 0), at(10, 0), at(10, 0), at(11, 0), false},
		{"touching reversed", at(10, 0), at(11, 0), at(9, 0), at(10, 0), false},
		{"disjoint", at(9, 0), at(10, 0), at(13, 0), at(14, 0), false},
	}
	for _, tc := range cases {
		if got := Overlaps(tc.s1, tc.e1, tc.s2, tc.e2); got != tc.want {
			t.Errorf("%s: Overlaps = %v, want %v", tc.name, got, tc.want)
		}
	}
}

func TestPanelConflictsSharedPanelist(t *testing.T) {
	t.Parallel()

	shared := models.PanelMember{Name: "Dr. Cruz"}
	existing := scheduledRequest("Ana Lim", "Room B", at(9, 0), at(10, 0), shared)

	candidate := []models.PanelSlot{
		{Slot: models.SlotPanelist1, Member: shared},
	}
	conflicts := PanelConflicts(candidate, at(9, 30), at(10, 30), []models.DefenseRequest{existing})
	if len(conflicts) != 1 {
		t.Fatalf("expected 1 conflict, got %d", len(conflicts))
	}
	c := conflicts[0]
	if c.Type != "panel" {
		t.Errorf("type = %q, want panel", c.Type)
	}
	if c.WithStudent != "Ana Lim" {
		t.Errorf("with_student = %q", c.WithStudent)
	}
	if c.SlotInCandidate != models.SlotPanelist1 || c.SlotInExisting != models.SlotChairperson {
		t.Errorf("slots = %q/%q", c.SlotInCandidate, c.SlotInExisting)
	}
	if c.TimeRange == "" || c.Message == "" {
		t.Error("conflict should carry a formatted time range and message")
	}
}

// A shared panelist with overlapping intervals must be reported no matter
// which of the two requests is the candidate.
func TestPanelConflictsBidirectional(t *testing.T) {
	t.Parallel()

	shared := models.PanelMember{Name: "Dr. Cruz"}
	reqA := scheduledRequest("Ana Lim", "Room A", at(9, 0), at(10, 0), shared)
	reqB := scheduledRequest("Ben Tan", "Room B", at(9, 30), at(10, 30), shared)

	fromA := PanelConflicts(reqA.PanelSlots(), *reqA.StartAt, *reqA.EndAt, []models.DefenseRequest{reqB})
	fromB := PanelConflicts(reqB.PanelSlots(), *reqB.StartAt, *reqB.EndAt, []models.DefenseRequest{reqA})
	if len(fromA) == 0 || len(fromB) == 0 {
		t.Fatalf("conflict must be reported in both directions, got %d and %d", len(fromA), len(fromB))
	}
}

func TestPanelConflictsNoOverlapNoConflict(t *testing.T) {
	t.Parallel()

	shared := models.PanelMember{Name: "Dr. Cruz"}
	existing := scheduledRequest("Ana Lim", "Room B", at(9, 0), at(10, 0), shared)

	conflicts := PanelConflicts(
		[]models.PanelSlot{{Slot: models.SlotChairperson, Member: shared}},
		at(10, 0), at(11, 0),
		[]models.DefenseRequest{existing},
	)
	if len(conflicts) != 0 {
		t.Fatalf("touching intervals must not conflict, got %v", conflicts)
	}
}

func TestVenueConflictsScenario(t *testing.T) {
	t.Parallel()

	existing := scheduledRequest("Ana Lim", "Room A", at(9, 0), at(10, 0),
		models.PanelMember{Name: "Dr. Cruz"})

	conflicts := VenueConflicts("Room A", at(9, 30), at(10, 30), []models.DefenseRequest{existing})
	if len(conflicts) != 1 {
		t.Fatalf("expected 1 venue conflict, got %d", len(conflicts))
	}
	c := conflicts[0]
	if c.Venue != "Room A" {
		t.Errorf("venue = %q, want Room A", c.Venue)
	}
	if c.TimeRange != "9:00 AM - 10:00 AM" {
		t.Errorf("time range = %q", c.TimeRange)
	}
}

func TestVenueConflictsNormalization(t *testing.T) {
	t.Parallel()

	existing := scheduledRequest("Ana Lim", "  ROOM   a ", at(9, 0), at(10, 0))
	conflicts := VenueConflicts("room a", at(9, 30), at(10, 30), []models.DefenseRequest{existing})
	if len(conflicts) != 1 {
		t.Fatalf("venue matching must be case/whitespace-insensitive, got %d conflicts", len(conflicts))
	}

	other := VenueConflicts("Room B", at(9, 30), at(10, 30), []models.DefenseRequest{existing})
	if len(other) != 0 {
		t.Fatalf("different venue must not conflict, got %v", other)
	}
}

func TestVenueConflictsEmptyVenue(t *testing.T) {
	t.Parallel()

	existing := scheduledRequest("Ana Lim", "Room A", at(9, 0), at(10, 0))
	if got := VenueConflicts("   ", at(9, 0), at(10, 0), []models.DefenseRequest{existing}); got != nil {
		t.Fatalf("blank venue should scan nothing, got %v", got)
	}
}

// Two first-time schedules for the same venue and date lock no common rows,
// so the commit path serializes on advisory locks instead. Both sides must
// derive identical, identically-ordered keys or the serialization (and the
// deadlock-freedom of sorted acquisition) falls apart.
func TestScheduleLockKeys(t *testing.T) {
	t.Parallel()

	date := time.Date(2025, 10, 1, 0, 0, 0, 0, time.UTC)
	panel := []models.PanelSlot{
		{Slot: models.SlotChairperson, Member: models.PanelMember{Name: "Dr. Cruz"}},
		{Slot: models.SlotPanelist1, Member: models.PanelMember{Name: "  dr.  CRUZ "}},
		{Slot: models.SlotPanelist2, Member: models.PanelMember{Name: "Dr. Reyes"}},
		{Slot: models.SlotPanelist3},
	}

	keys := scheduleLockKeys("  Room   A ", panel, date)
	want := []string{
		"panelist|dr. cruz|2025-10-01",
		"panelist|dr. reyes|2025-10-01",
		"venue|room a|2025-10-01",
	}
	if len(keys) != len(want) {
		t.Fatalf("got %d keys %v, want %d", len(keys), keys, len(want))
	}
	for i := range want {
		if keys[i] != want[i] {
			t.Errorf("key[%d] = %q, want %q", i, keys[i], want[i])
		}
	}
}
