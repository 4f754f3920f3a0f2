// internal/database/seed.go
package database

import (
	"fmt"

	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"github.com/pigmarket/pigmarket-backend/internal/config"
	"github.com/pigmarket/pigmarket-backend/internal/models"
)

// SeedInitialData creates the configured superuser unless an account with its
// username already exists.
func SeedInitialData(db *gorm.DB, cfg config.AdminConfig) error {
	var count int64
	if err := db.Model(&models.User{}).Where("username = ?", cfg.Username).Count(&count).Error; err != nil {
		return fmt.Errorf("failed to look up superuser: %w", err)
	}
	if count > 0 {
		return nil
	}

	admin := &models.User{
		Username:    cfg.Username,
		Email:       cfg.Email,
		UserType:    models.UserTypeStaff,
		IsSuperuser: true,
		Status:      models.UserStatusActive,
		FirstName:   "System",
		LastName:    "Administrator",
	}
	if err := admin.SetPassword(cfg.Password); err != nil {
		return fmt.Errorf("failed to set admin password: %w", err)
	}
	if err := db.Create(admin).Error; err != nil {
		return fmt.Errorf("failed to create admin user: %w", err)
	}

	logrus.WithField("username", cfg.Username).Info("Superuser created")
	return nil
}
