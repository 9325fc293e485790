package services

import (
	"testing"

	"github.com/JohnEstano/Graduate-School-System-sub002/models"
	"github.com/google/uuid"
)

func testRates() RateTable {
	return RateTable{
		{Role: "chairperson", Stage: models.StageProposal, Amount: 600},
		{Role: "chairperson", Stage: models.StageFinal, Amount: 1000},
		{Role: "Panel-Member", Stage: "Pre-Final", Amount: 650},
		{Role: "panel-member", Stage: models.StageFinal, Amount: 800},
	}
}

func TestRateTableLookup(t *testing.T) {
	t.Parallel()

	rates := testRates()
	if got := rates.Lookup("chairperson", models.StageFinal); got != 1000 {
		t.Errorf("Lookup(chairperson, final) = %v, want 1000", got)
	}
	// Case and separator variants on both axes resolve to the same row.
	if got := rates.Lookup("PANEL MEMBER", models.NormalizeStage("PRE FINAL")); got != 650 {
		t.Errorf("Lookup(PANEL MEMBER, PRE FINAL) = %v, want 650", got)
	}
	if got := rates.Lookup("panel-member", models.NormalizeStage("prefinal")); got != 650 {
		t.Errorf("Lookup(panel-member, prefinal) = %v, want 650", got)
	}
}

// A missing rate is a soft failure: 0, not an error, so the workflow is
// never blocked on an incomplete rate table.
func TestRateTableLookupMissing(t *testing.T) {
	t.Parallel()

	rates := testRates()
	if got := rates.Lookup("panel-member", models.StageProposal); got != 0 {
		t.Errorf("missing rate = %v, want 0", got)
	}
	if got := RateTable(nil).Lookup("chairperson", models.StageFinal); got != 0 {
		t.Errorf("empty table rate = %v, want 0", got)
	}
}

func finalStageRequest() *models.DefenseRequest {
	return &models.DefenseRequest{
		ID:           uuid.New(),
		DefenseStage: models.StageFinal,
		Chairperson:  models.PanelMember{Name: "Dr. Reyes"},
		Panelist1:    models.PanelMember{Name: "Dr. Cruz"},
	}
}

func TestPlanPaymentsSnapshotsAmount(t *testing.T) {
	t.Parallel()

	req := finalStageRequest()
	planned := PlanPayments(req, nil, testRates())
	if len(planned) != 2 {
		t.Fatalf("planned %d rows, want 2", len(planned))
	}

	byRole := map[string]models.HonorariumPayment{}
	for _, p := range planned {
		byRole[p.Role] = p
	}
	chair, ok := byRole["chairperson"]
	if !ok {
		t.Fatal("no chairperson payment planned")
	}
	if chair.Amount != 1000 {
		t.Errorf("chairperson amount = %v, want 1000", chair.Amount)
	}
	if chair.Status != models.PaymentUnpaid {
		t.Errorf("status = %q, want unpaid", chair.Status)
	}
	if member := byRole["panel-member"]; member.Amount != 800 {
		t.Errorf("panel-member amount = %v, want 800", member.Amount)
	}
}

// Re-running assignment with an unchanged panel must not plan new rows.
func TestPlanPaymentsIdempotent(t *testing.T) {
	t.Parallel()

	req := finalStageRequest()
	first := PlanPayments(req, nil, testRates())
	second := PlanPayments(req, first, testRates())
	if len(second) != 0 {
		t.Fatalf("unchanged panel planned %d extra rows: %v", len(second), second)
	}
}

// A partial panel change only adds rows for the newly filled slots; prior
// rows stay untouched as the financial audit trail.
func TestPlanPaymentsPartialChange(t *testing.T) {
	t.Parallel()

	req := finalStageRequest()
	existing := PlanPayments(req, nil, testRates())

	req.Panelist2 = models.PanelMember{Name: "Dr. Tan"}
	added := PlanPayments(req, existing, testRates())
	if len(added) != 1 {
		t.Fatalf("expected 1 new row for the new panelist, got %d", len(added))
	}
	if added[0].PanelistName != "Dr. Tan" || added[0].Role != "panel-member" {
		t.Errorf("unexpected planned row: %+v", added[0])
	}
}

// A rate change after the first assignment must not retro-apply to rows that
// already exist, only to newly planned ones.
func TestPlanPaymentsRateChangeOnlyAffectsNewRows(t *testing.T) {
	t.Parallel()

	req := finalStageRequest()
	existing := PlanPayments(req, nil, testRates())

	raised := RateTable{
		{Role: "chairperson", Stage: models.StageFinal, Amount: 2000},
		{Role: "panel-member", Stage: models.StageFinal, Amount: 900},
	}
	req.Panelist2 = models.PanelMember{Name: "Dr. Tan"}
	added := PlanPayments(req, existing, raised)
	if len(added) != 1 {
		t.Fatalf("expected 1 new row, got %d", len(added))
	}
	if added[0].Amount != 900 {
		t.Errorf("new row amount = %v, want 900", added[0].Amount)
	}
	for _, p := range existing {
		if p.Role == "chairperson" && p.Amount != 1000 {
			t.Errorf("existing snapshot changed: %v", p.Amount)
		}
	}
}

func TestPlanPaymentsKeyedOnIdentity(t *testing.T) {
	t.Parallel()

	id := uuid.New()
	req := &models.DefenseRequest{
		ID:           uuid.New(),
		DefenseStage: models.StageProposal,
		Chairperson:  models.PanelMember{PanelistID: &id, Name: "Dr. Reyes"},
		Panelist1:    models.PanelMember{Name: "Dr. Cruz"},
	}

	planned := PlanPayments(req, nil, testRates())
	if len(planned) != 2 {
		t.Fatalf("planned %d rows, want 2", len(planned))
	}
	for _, p := range planned {
		if p.PanelistKey == "" {
			t.Errorf("row without panelist key: %+v", p)
		}
	}

	// Renaming the same known panelist does not create a second row.
	req.Chairperson.Name = "Dr. M. Reyes"
	if again := PlanPayments(req, planned, testRates()); len(again) != 0 {
		t.Errorf("rename of known panelist planned %d rows", len(again))
	}
}
