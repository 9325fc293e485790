package services

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/JohnEstano/Graduate-School-System-sub002/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Conflict describes one detected double-booking of a person or a venue
// across two defense requests with overlapping time intervals.
type Conflict struct {
	Type            string               `json:"type"` // "panel" or "venue"
	Person          string               `json:"person,omitempty"`
	SlotInCandidate models.PanelSlotName `json:"slot_in_candidate,omitempty"`
	SlotInExisting  models.PanelSlotName `json:"slot_in_existing,omitempty"`
	WithRequestID   uuid.UUID            `json:"with_request_id"`
	WithStudent     string               `json:"with_student"`
	Venue           string               `json:"venue,omitempty"`
	TimeRange       string               `json:"time_range"`
	Message         string               `json:"message"`
}

// Overlaps is the half-open interval test: [s1,e1) and [s2,e2) overlap iff
// s1 < e2 and s2 < e1. Touching endpoints do not conflict.
func Overlaps(s1, e1, s2, e2 time.Time) bool {
	return s1.Before(e2) && s2.Before(e1)
}

// NormalizeVenue makes venue strings comparable: venues are a shared
// physical resource and the source data free-texts them.
func NormalizeVenue(v string) string {
	return strings.Join(strings.Fields(strings.ToLower(v)), " ")
}

func formatRange(start, end time.Time) string {
	return start.Format("3:04 PM") + " - " + end.Format("3:04 PM")
}

// PanelConflicts scans existing same-date requests for any shared panel
// member whose interval overlaps the candidate window. Callers pass only
// requests already filtered to the scheduled/completed states.
func PanelConflicts(candidate []models.PanelSlot, start, end time.Time, others []models.DefenseRequest) []Conflict {
	var conflicts []Conflict
	for i := range others {
		other := &others[i]
		if other.StartAt == nil || other.EndAt == nil {
			continue
		}
		if !Overlaps(start, end, *other.StartAt, *other.EndAt) {
			continue
		}
		for _, cs := range candidate {
			if !cs.Member.Assigned() {
				continue
			}
			for _, os := range other.PanelSlots() {
				if !os.Member.Assigned() || cs.Member.Key() != os.Member.Key() {
					continue
				}
				rng := formatRange(*other.StartAt, *other.EndAt)
				conflicts = append(conflicts, Conflict{
					Type:            "panel",
					Person:          cs.Member.Display(),
					SlotInCandidate: cs.Slot,
					SlotInExisting:  os.Slot,
					WithRequestID:   other.ID,
					WithStudent:     other.StudentName,
					TimeRange:       rng,
					Message: fmt.Sprintf("%s is already booked as %s for %s's defense (%s)",
						cs.Member.Display(), os.Slot, other.StudentName, rng),
				})
			}
		}
	}
	return conflicts
}

// VenueConflicts applies the same interval test keyed on the normalized
// venue string instead of person identity.
func VenueConflicts(venue string, start, end time.Time, others []models.DefenseRequest) []Conflict {
	key := NormalizeVenue(venue)
	if key == "" {
		return nil
	}
	var conflicts []Conflict
	for i := range others {
		other := &others[i]
		if other.StartAt == nil || other.EndAt == nil {
			continue
		}
		if NormalizeVenue(other.Venue) != key {
			continue
		}
		if !Overlaps(start, end, *other.StartAt, *other.EndAt) {
			continue
		}
		rng := formatRange(*other.StartAt, *other.EndAt)
		conflicts = append(conflicts, Conflict{
			Type:          "venue",
			WithRequestID: other.ID,
			WithStudent:   other.StudentName,
			Venue:         other.Venue,
			TimeRange:     rng,
			Message: fmt.Sprintf("%s is already booked for %s's defense (%s)",
				other.Venue, other.StudentName, rng),
		})
	}
	return conflicts
}

// scheduledOn loads every request that could collide with a candidate
// window: same defense date, state scheduled or completed, across all
// programs. The request being rescheduled is excluded so its own prior slot
// never collides with itself. With lock set the rows are read FOR UPDATE,
// which serializes concurrent schedule commits on the same date; the
// pre-check outside a transaction is only an optimization for good error
// messages.
func scheduledOn(db *gorm.DB, date time.Time, excludeID *uuid.UUID, lock bool) ([]models.DefenseRequest, error) {
	q := db.Model(&models.DefenseRequest{}).
		Where("workflow_state IN ?", []models.WorkflowState{models.StateScheduled, models.StateCompleted}).
		Where("defense_date = ?", date.Format("2006-01-02"))
	if excludeID != nil {
		q = q.Where("id <> ?", *excludeID)
	}
	if lock {
		q = q.Clauses(clause.Locking{Strength: "UPDATE"})
	}
	var requests []models.DefenseRequest
	if err := q.Find(&requests).Error; err != nil {
		return nil, err
	}
	return requests, nil
}

// FindConflicts reports every panel double-booking for the candidate window.
func FindConflicts(db *gorm.DB, excludeID *uuid.UUID, panel []models.PanelSlot, date, start, end time.Time) ([]Conflict, error) {
	others, err := scheduledOn(db, date, excludeID, false)
	if err != nil {
		return nil, err
	}
	return PanelConflicts(panel, start, end, others), nil
}

// HasVenueConflict reports whether the venue is taken during the window.
func HasVenueConflict(db *gorm.DB, excludeID *uuid.UUID, venue string, date, start, end time.Time) (bool, error) {
	others, err := scheduledOn(db, date, excludeID, false)
	if err != nil {
		return false, err
	}
	return len(VenueConflicts(venue, start, end, others)) > 0, nil
}

// scheduleLockKeys derives the advisory-lock keys a schedule commit must
// hold: one for the venue and one per assigned panel member, all scoped to
// the defense date. Sorted so concurrent commits acquire in the same order.
func scheduleLockKeys(venue string, panel []models.PanelSlot, date time.Time) []string {
	day := date.Format("2006-01-02")
	keys := []string{"venue|" + NormalizeVenue(venue) + "|" + day}
	seen := map[string]bool{}
	for _, s := range panel {
		if !s.Member.Assigned() {
			continue
		}
		k := "panelist|" + s.Member.Key() + "|" + day
		if seen[k] {
			continue
		}
		seen[k] = true
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// checkScheduleLocked runs the full panel+venue scan inside the caller's
// transaction with the same-date rows locked. Two first-time schedules lock
// no common rows (neither is in a scheduled state yet), so the scan is
// preceded by advisory transaction locks on the venue and panelist keys;
// those serialize competing commits on the same resources for the date.
func checkScheduleLocked(tx *gorm.DB, excludeID *uuid.UUID, panel []models.PanelSlot, venue string, date, start, end time.Time) ([]Conflict, error) {
	for _, key := range scheduleLockKeys(venue, panel, date) {
		if err := tx.Exec("SELECT pg_advisory_xact_lock(hashtext(?))", key).Error; err != nil {
			return nil, err
		}
	}
	others, err := scheduledOn(tx, date, excludeID, true)
	if err != nil {
		return nil, err
	}
	conflicts := PanelConflicts(panel, start, end, others)
	conflicts = append(conflicts, VenueConflicts(venue, start, end, others)...)
	return conflicts, nil
}
