package utils

import (
	"fmt"
	"math/rand"
	"time"

	"github.com/JohnEstano/Graduate-School-System-sub002/models"
	"gorm.io/gorm"
)

const referenceSuffixLength = 6
const letterBytes = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"

// GenerateReferenceNo produces a unique human-readable reference for a
// defense request, e.g. "DR-2026-4K7Q2X".
func GenerateReferenceNo(tx *gorm.DB) (string, error) {
	seededRand := rand.New(rand.NewSource(time.Now().UnixNano()))

	for {
		b := make([]byte, referenceSuffixLength)
		for i := range b {
			b[i] = letterBytes[seededRand.Intn(len(letterBytes))]
		}
		ref := fmt.Sprintf("DR-%d-%s", time.Now().Year(), string(b))

		var request models.DefenseRequest
		err := tx.Where("reference_no = ?", ref).First(&request).Error
		if err != nil {
			if err == gorm.ErrRecordNotFound {
				return ref, nil
			}
			return "", err
		}
	}
}
