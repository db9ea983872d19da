package database

import (
	"log"

	"github.com/datasciencepursuer/bubufulplanet-sub000/config"
	"github.com/datasciencepursuer/bubufulplanet-sub000/models"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

var DB *gorm.DB

func Connect() {
	var err error
	DB, err = gorm.Open(postgres.Open(config.AppConfig.DatabaseURL), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Info),
	})
	if err != nil {
		log.Fatal("Failed to connect to database:", err)
	}

	log.Println("✅ Database connected successfully")

	// Auto-migrate all models
	err = DB.AutoMigrate(
		&models.User{},
		&models.Group{},
		&models.GroupMember{},
		&models.ExternalParticipant{},
		&models.Trip{},
		&models.TripDay{},
		&models.Event{},
		&models.Expense{},
		&models.LineItem{},
		&models.ExpenseParticipant{},
		&models.Activity{},
		&models.Invitation{},
	)
	if err != nil {
		log.Fatal("Failed to migrate database:", err)
	}

	log.Println("✅ Database migrated successfully")
}
