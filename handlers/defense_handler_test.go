package handlers

import (
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
)

// Malformed ids must be rejected at the boundary instead of reaching the
// uuid column and surfacing as a driver error.
func TestGetDefenseRejectsMalformedID(t *testing.T) {
	app := fiber.New()
	app.Get("/defense-requests/:id", GetDefense)

	req := httptest.NewRequest(fiber.MethodGet, "/defense-requests/not-a-uuid", nil)
	resp, err := app.Test(req)
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != fiber.StatusBadRequest {
		t.Fatalf("status = %d, want %d", resp.StatusCode, fiber.StatusBadRequest)
	}
}
