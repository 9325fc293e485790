package database

import (
	"fmt"
	"log"

	config "github.com/JohnEstano/Graduate-School-System-sub002/configs"
	"github.com/JohnEstano/Graduate-School-System-sub002/models"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

var DB *gorm.DB

func ConnectDB() {
	var err error
	dsn := config.Config("DATABASE_URL")

	DB, err = gorm.Open(postgres.Open(dsn), &gorm.Config{
		PrepareStmt:                              false,
		SkipDefaultTransaction:                   true,
		DisableForeignKeyConstraintWhenMigrating: true,
	})
	if err != nil {
		log.Fatalf("🔥 Failed to connect to database: %v", err)
	}

	fmt.Println("✅ Database connected successfully")
}

func Migrate() {
	err := DB.AutoMigrate(
		&models.User{},
		&models.DefenseRequest{},
		&models.HonorariumSpec{},
		&models.HonorariumPayment{},
		&models.CoordinatorAssignment{},
	)
	if err != nil {
		log.Fatalf("🔥 Failed to migrate database: %v", err)
	}
	fmt.Println("✅ Database migration successful")
}

// SeedDean creates the dean account from the environment on first boot.
func SeedDean() {
	deanEmail := config.Config("DEAN_EMAIL")
	deanPassword := config.Config("DEAN_PASSWORD")

	var count int64
	if err := DB.Model(&models.User{}).Where("email = ?", deanEmail).Count(&count).Error; err != nil {
		log.Fatalf("🔥 Failed to check for dean user: %v", err)
		return
	}
	if count > 0 {
		log.Println("Dean user already exists.")
		return
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(deanPassword), bcrypt.DefaultCost)
	if err != nil {
		log.Fatalf("🔥 Failed to hash dean password: %v", err)
		return
	}

	dean := models.User{
		FullName: config.Config("DEAN_FULL_NAME"),
		Email:    deanEmail,
		Password: string(hashedPassword),
		Role:     models.RoleDean,
	}
	if err := DB.Create(&dean).Error; err != nil {
		log.Fatalf("🔥 Failed to seed dean user: %v", err)
		return
	}

	log.Println("✅ Dean user seeded successfully")
}

// SeedHonorariumRates installs the default rate table when it is empty. The
// dean can adjust the amounts afterwards; existing payment rows keep their
// snapshotted values.
func SeedHonorariumRates() {
	var count int64
	if err := DB.Model(&models.HonorariumSpec{}).Count(&count).Error; err != nil {
		log.Fatalf("🔥 Failed to check honorarium specs: %v", err)
		return
	}
	if count > 0 {
		return
	}

	defaults := []models.HonorariumSpec{
		{Role: "chairperson", Stage: models.StageProposal, Amount: 600},
		{Role: "chairperson", Stage: models.StagePrefinal, Amount: 800},
		{Role: "chairperson", Stage: models.StageFinal, Amount: 1000},
		{Role: "panel-member", Stage: models.StageProposal, Amount: 500},
		{Role: "panel-member", Stage: models.StagePrefinal, Amount: 650},
		{Role: "panel-member", Stage: models.StageFinal, Amount: 800},
	}
	if err := DB.Create(&defaults).Error; err != nil {
		log.Fatalf("🔥 Failed to seed honorarium rates: %v", err)
		return
	}

	log.Println("✅ Default honorarium rate table seeded")
}
