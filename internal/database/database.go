package database

import (
	"fmt"
	"log"

	"github.com/lordofkekss/EFE/internal/config"
	"github.com/lordofkekss/EFE/internal/models"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

func Connect(cfg *config.Config) *gorm.DB {
	dsn := fmt.Sprintf(
		"host=%s port=%s user=%s password=%s dbname=%s sslmode=disable",
		cfg.DBHost, cfg.DBPort, cfg.DBUser, cfg.DBPassword, cfg.DBName,
	)

	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{})
	if err != nil {
		log.Fatalf("failed to connect to database: %v", err)
	}

	log.Println("database connected")
	return db
}

func AutoMigrate(db *gorm.DB) {
	err := db.AutoMigrate(
		&models.User{},
		&models.Class{},
		&models.Enrollment{},
		&models.Subject{},
		&models.Course{},
		&models.ContentNode{},
		&models.Exercise{},
		&models.Assignment{},
		&models.Submission{},
		&models.StarTransaction{},
		&models.RewardCatalog{},
		&models.UserRewardUnlock{},
		&models.Document{},
		&models.LiveSession{},
	)
	if err != nil {
		log.Fatalf("failed to auto-migrate: %v", err)
	}

	// One active live session per course. AutoMigrate cannot express a
	// partial unique index, so create it directly.
	if db.Dialector.Name() == "postgres" {
		db.Exec(`CREATE UNIQUE INDEX IF NOT EXISTS uq_live_sessions_active_course
			ON live_sessions (course_id) WHERE active`)
	}

	log.Println("database migrated")
}
