package services

import (
	"log"
	"strings"

	"github.com/JohnEstano/Graduate-School-System-sub002/models"
	"gorm.io/gorm"
)

// RateTable is the honorarium rate table loaded into memory. It is small
// (a handful of role/stage pairs) so lookups scan the slice.
type RateTable []models.HonorariumSpec

func normalizeRole(role string) string {
	s := strings.ToLower(role)
	return strings.NewReplacer(" ", "", "-", "", "_", "").Replace(s)
}

// Lookup resolves (role, stage) to an amount. Matching is case-insensitive
// and whitespace-normalized on both axes. A missing rate resolves to 0
// rather than an error; the workflow is never blocked on an incomplete rate
// table, the gap is only logged for the rate-table owner.
func (t RateTable) Lookup(role string, stage models.DefenseStage) float64 {
	wantRole := normalizeRole(role)
	wantStage := models.NormalizeStage(string(stage))
	for _, spec := range t {
		if normalizeRole(spec.Role) == wantRole && models.NormalizeStage(string(spec.Stage)) == wantStage {
			return spec.Amount
		}
	}
	log.Printf("⚠️ No honorarium rate for role=%q stage=%q, defaulting to 0", role, stage)
	return 0
}

// LoadRateTable reads the full rate table.
func LoadRateTable(db *gorm.DB) (RateTable, error) {
	var specs []models.HonorariumSpec
	if err := db.Find(&specs).Error; err != nil {
		return nil, err
	}
	return RateTable(specs), nil
}

// PlanPayments decides which payment rows assigning the current panel adds.
// A row already existing for the same (request, panelist, role) is skipped,
// so re-running after a partial panel change only adds rows for newly filled
// slots. Amounts are snapshotted from the rate table at planning time.
func PlanPayments(req *models.DefenseRequest, existing []models.HonorariumPayment, rates RateTable) []models.HonorariumPayment {
	seen := make(map[string]bool, len(existing))
	for _, p := range existing {
		seen[p.PanelistKey+"|"+normalizeRole(p.Role)] = true
	}

	var planned []models.HonorariumPayment
	for _, slot := range req.PanelSlots() {
		if !slot.Member.Assigned() {
			continue
		}
		role := slot.Slot.HonorariumRole()
		key := slot.Member.Key() + "|" + normalizeRole(role)
		if seen[key] {
			continue
		}
		seen[key] = true
		planned = append(planned, models.HonorariumPayment{
			DefenseRequestID: req.ID,
			PanelistKey:      slot.Member.Key(),
			PanelistID:       slot.Member.PanelistID,
			PanelistName:     slot.Member.Display(),
			Role:             role,
			Amount:           rates.Lookup(role, req.DefenseStage),
			Status:           models.PaymentUnpaid,
		})
	}
	return planned
}

// DerivePayments materializes the payable line items for the request's
// current panel inside the caller's transaction. Idempotent: an unchanged
// panel produces no new rows. Prior rows are never deleted when a slot is
// reassigned; paid history is a financial audit trail.
func DerivePayments(tx *gorm.DB, req *models.DefenseRequest) error {
	rates, err := LoadRateTable(tx)
	if err != nil {
		return err
	}
	var existing []models.HonorariumPayment
	if err := tx.Where("defense_request_id = ?", req.ID).Find(&existing).Error; err != nil {
		return err
	}
	planned := PlanPayments(req, existing, rates)
	for i := range planned {
		if err := tx.Create(&planned[i]).Error; err != nil {
			return err
		}
	}
	return nil
}
