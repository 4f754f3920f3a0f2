// internal/models/feedback.go
package models

import (
	"github.com/google/uuid"
)

type Feedback struct {
	BaseModel
	UserID             uuid.UUID    `json:"user_id" gorm:"type:uuid;not null;uniqueIndex:idx_feedback_user_reservation"`
	ReservationID      *uuid.UUID   `json:"reservation_id" gorm:"type:uuid;uniqueIndex:idx_feedback_user_reservation"`
	OverallRating      int          `json:"overall_rating" gorm:"not null"`
	ServiceQuality     int          `json:"service_quality" gorm:"not null"`
	PigQuality         int          `json:"pig_quality" gorm:"not null"`
	DeliveryExperience int          `json:"delivery_experience" gorm:"not null"`
	Comments           string       `json:"comments" gorm:"type:text"`
	WouldRecommend     bool         `json:"would_recommend" gorm:"not null;default:false"`
	FeedbackType       FeedbackType `json:"feedback_type" gorm:"type:varchar(20);not null;index"`

	// Relationships
	User        User         `json:"user,omitempty" gorm:"foreignKey:UserID"`
	Reservation *Reservation `json:"reservation,omitempty" gorm:"foreignKey:ReservationID"`
}

func (Feedback) TableName() string {
	return "feedback"
}

// AverageRating is the mean of the four category ratings.
func (f *Feedback) AverageRating() float64 {
	return float64(f.OverallRating+f.ServiceQuality+f.PigQuality+f.DeliveryExperience) / 4
}
