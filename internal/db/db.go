package db

import (
	"prompthub/internal/models"

	"github.com/sirupsen/logrus"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

var DB *gorm.DB

func Init(dsn string) {
	var err error
	DB, err = gorm.Open(postgres.Open(dsn), &gorm.Config{})
	if err != nil {
		logrus.Fatalf("Failed to connect to database: %v", err)
	}

	logrus.Info("Database connection established")

	// Auto Migrate. The composite idx_prompts_feed index (score desc,
	// fecha_creacion desc) backs the feed query; the owner index backs
	// the my-prompts filter.
	err = DB.AutoMigrate(
		&models.User{},
		&models.Prompt{},
	)
	if err != nil {
		logrus.Fatalf("Failed to migrate database: %v", err)
	}
	logrus.Info("Database migration completed")
}
