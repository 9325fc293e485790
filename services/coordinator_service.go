package services

import (
	"errors"
	"log"
	"strings"

	"github.com/JohnEstano/Graduate-School-System-sub002/models"
	"gorm.io/gorm"
)

// NormalizeProgram makes program names comparable: trimmed, internal
// whitespace collapsed, lowercased. Assignments are stored normalized.
func NormalizeProgram(p string) string {
	return strings.Join(strings.Fields(strings.ToLower(p)), " ")
}

// fallbackCoordinators is the seeded program-to-email mapping consulted when
// no assignment row exists. Kept for programs that predate the assignment
// table.
var fallbackCoordinators = map[string]string{
	"master in information technology":         "mit.coordinator@uic.edu.ph",
	"master of information technology":         "mit.coordinator@uic.edu.ph",
	"master of arts in education":              "maed.coordinator@uic.edu.ph",
	"master of arts in educational management": "maem.coordinator@uic.edu.ph",
	"doctor of philosophy in education":        "phd.coordinator@uic.edu.ph",
}

// RouteCoordinator resolves the coordinator authorized to approve requests
// for a program. Fallback order: active assignment row, seeded email map,
// failure. A resolved identity that does not actually hold a
// coordinator-capable role is never returned; the lookup moves on instead.
func RouteCoordinator(db *gorm.DB, program string) (*models.User, error) {
	norm := NormalizeProgram(program)
	if norm == "" {
		return nil, &RoutingError{Program: program}
	}

	var assignment models.CoordinatorAssignment
	err := db.Where("program = ? AND is_active = ?", norm, true).
		Order("updated_at desc").
		First(&assignment).Error
	if err == nil {
		var user models.User
		if err := db.First(&user, "id = ?", assignment.CoordinatorID).Error; err == nil {
			if user.IsActive && user.Role.CanCoordinate() {
				return &user, nil
			}
			log.Printf("⚠️ Assigned coordinator %s for program %q no longer holds a coordinator role", user.Email, program)
		}
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	if email, ok := fallbackCoordinators[norm]; ok {
		var user models.User
		if err := db.Where("email = ?", email).First(&user).Error; err == nil {
			if user.IsActive && user.Role.CanCoordinate() {
				return &user, nil
			}
			log.Printf("⚠️ Fallback coordinator %s for program %q is not coordinator-capable", email, program)
		}
	}

	log.Printf("⚠️ Coordinator routing failed for program %q", program)
	return nil, &RoutingError{Program: program}
}
