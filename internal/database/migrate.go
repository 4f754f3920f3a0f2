// internal/database/migrate.go
package database

import (
	"fmt"

	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"github.com/pigmarket/pigmarket-backend/internal/models"
)

// compositeIndexes covers the list and dashboard queries that filter on more
// than one column.
var compositeIndexes = map[string]string{
	"idx_users_type_status":             "users(user_type, status)",
	"idx_pigs_available_created":        "pigs(is_available, created_at DESC)",
	"idx_pigs_breed_age":                "pigs(breed, age_months)",
	"idx_reservations_status_created":   "reservations(status, created_at DESC)",
	"idx_reservations_user_created":     "reservations(user_id, created_at DESC)",
	"idx_reservations_pickup":           "reservations(pickup_date, status)",
	"idx_revenues_created":              "revenues(created_at DESC)",
	"idx_conversations_user_subject":    "conversations(user_id, subject)",
	"idx_conversations_updated":         "conversations(updated_at DESC)",
	"idx_messages_conversation_created": "messages(conversation_id, created_at)",
	"idx_messages_unread":               "messages(conversation_id, sender_type, is_read)",
	"idx_decline_notifications_user":    "decline_notifications(user_id, created_at DESC)",
	"idx_audit_logs_user_action":        "audit_logs(user_id, action)",
	"idx_audit_logs_resource":           "audit_logs(resource_type, resource_id)",
	"idx_audit_logs_created":            "audit_logs(created_at DESC)",
}

func RunMigrations(db *gorm.DB) error {
	if err := db.AutoMigrate(
		&models.User{},
		&models.Pig{},
		&models.CartItem{},
		&models.Reservation{},
		&models.PaymentProof{},
		&models.Revenue{},
		&models.DeclineNotification{},
		&models.Feedback{},
		&models.Conversation{},
		&models.Message{},
		&models.AuditLog{},
	); err != nil {
		return fmt.Errorf("failed to run migrations: %w", err)
	}

	// A missing index only slows queries down.
	for name, target := range compositeIndexes {
		if err := db.Exec(fmt.Sprintf("CREATE INDEX IF NOT EXISTS %s ON %s", name, target)).Error; err != nil {
			logrus.WithError(err).WithField("index", name).Warn("Failed to create index")
		}
	}
	return nil
}
