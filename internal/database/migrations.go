package database

import (
	"gorm.io/gorm"

	"github.com/pulsefeed/pulsefeed/internal/models"
)

// AutoMigrate creates or updates the database schema for all models.
func AutoMigrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&models.Profile{},
		&models.Post{},
		&models.Comment{},
		&models.FollowEdge{},
		&models.LikeEdge{},
		&models.CacheEntry{},
	)
}
