// internal/services/feedback_service.go
package services

import (
	"errors"
	"fmt"
	"math"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/pigmarket/pigmarket-backend/internal/models"
	"github.com/pigmarket/pigmarket-backend/internal/utils"
)

type FeedbackService struct {
	db *gorm.DB
}

type FeedbackRequest struct {
	ReservationID      uuid.UUID `json:"reservation_id" validate:"required"`
	OverallRating      int       `json:"overall_rating" validate:"required,min=1,max=5"`
	ServiceQuality     int       `json:"service_quality" validate:"required,min=1,max=5"`
	PigQuality         int       `json:"pig_quality" validate:"required,min=1,max=5"`
	DeliveryExperience int       `json:"delivery_experience" validate:"required,min=1,max=5"`
	Comments           string    `json:"comments" validate:"max=2000"`
	WouldRecommend     bool      `json:"would_recommend"`
}

type FeedbackListParams struct {
	utils.PaginationParams
	Rating       *int
	FeedbackType string
}

type FeedbackStats struct {
	TotalFeedbacks     int64   `json:"total_feedbacks"`
	AverageRating      float64 `json:"average_rating"`
	RecommendationRate float64 `json:"recommendation_rate"`
}

func NewFeedbackService(db *gorm.DB) *FeedbackService {
	return &FeedbackService{db: db}
}

// feedbackType classifies the order: same-day pickups count as purchases.
func feedbackType(r *models.Reservation) models.FeedbackType {
	if r.PickupDate != nil && models.CalendarDate(*r.PickupDate).Equal(models.DateOnly(r.CreatedAt)) {
		return models.FeedbackTypePurchase
	}
	return models.FeedbackTypeReservation
}

func (s *FeedbackService) ownedReservation(user *models.User, reservationID uuid.UUID) (*models.Reservation, error) {
	if user.IsStaff() {
		return nil, fmt.Errorf("%w: Feedback is only available for customers.", ErrForbidden)
	}

	var r models.Reservation
	if err := s.db.Preload("Pig").Where("id = ? AND user_id = ?", reservationID, user.ID).First(&r).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: Reservation not found", ErrNotFound)
		}
		return nil, fmt.Errorf("database error: %w", err)
	}
	return &r, nil
}

func (s *FeedbackService) exists(userID, reservationID uuid.UUID) (bool, error) {
	var count int64
	if err := s.db.Model(&models.Feedback{}).
		Where("user_id = ? AND reservation_id = ?", userID, reservationID).
		Count(&count).Error; err != nil {
		return false, fmt.Errorf("database error: %w", err)
	}
	return count > 0, nil
}

// FormContext tells the client what the feedback form is about.
func (s *FeedbackService) FormContext(user *models.User, reservationID uuid.UUID) (map[string]interface{}, error) {
	r, err := s.ownedReservation(user, reservationID)
	if err != nil {
		return nil, err
	}
	done, err := s.exists(user.ID, r.ID)
	if err != nil {
		return nil, err
	}
	if done {
		return nil, fmt.Errorf("%w: You have already submitted feedback for this reservation.", ErrConflict)
	}

	return map[string]interface{}{
		"reservation":   r,
		"feedback_type": feedbackType(r),
	}, nil
}

// Submit records the customer's single feedback for one of their orders.
func (s *FeedbackService) Submit(user *models.User, req *FeedbackRequest) (*models.Feedback, error) {
	if err := utils.ValidateStruct(req); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrValidation, err)
	}

	r, err := s.ownedReservation(user, req.ReservationID)
	if err != nil {
		return nil, err
	}
	done, err := s.exists(user.ID, r.ID)
	if err != nil {
		return nil, err
	}
	if done {
		return nil, fmt.Errorf("%w: You have already submitted feedback for this reservation.", ErrConflict)
	}

	reservationID := r.ID
	feedback := &models.Feedback{
		UserID:             user.ID,
		ReservationID:      &reservationID,
		OverallRating:      req.OverallRating,
		ServiceQuality:     req.ServiceQuality,
		PigQuality:         req.PigQuality,
		DeliveryExperience: req.DeliveryExperience,
		Comments:           req.Comments,
		WouldRecommend:     req.WouldRecommend,
		FeedbackType:       feedbackType(r),
	}
	if err := s.db.Omit(clause.Associations).Create(feedback).Error; err != nil {
		return nil, fmt.Errorf("failed to save feedback: %w", err)
	}
	return feedback, nil
}

// List returns feedback for staff review. Stats always cover every feedback,
// not just the filtered page.
func (s *FeedbackService) List(params FeedbackListParams) ([]models.Feedback, int64, *FeedbackStats, error) {
	stats, err := s.Stats()
	if err != nil {
		return nil, 0, nil, err
	}

	query := s.db.Model(&models.Feedback{})
	if params.Rating != nil {
		query = query.Where("overall_rating = ?", *params.Rating)
	}
	if params.FeedbackType != "" {
		query = query.Where("feedback_type = ?", params.FeedbackType)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, nil, fmt.Errorf("failed to count feedback: %w", err)
	}

	allowedSortFields := []string{"created_at", "overall_rating"}
	query = query.Scopes(utils.SortBy(params.PaginationParams, allowedSortFields...), utils.Paginate(params.PaginationParams))

	var feedbacks []models.Feedback
	if err := query.Preload("User").Preload("Reservation").Preload("Reservation.Pig").
		Find(&feedbacks).Error; err != nil {
		return nil, 0, nil, fmt.Errorf("failed to fetch feedback: %w", err)
	}
	return feedbacks, total, stats, nil
}

func (s *FeedbackService) Get(id uuid.UUID) (*models.Feedback, error) {
	var feedback models.Feedback
	if err := s.db.Preload("User").Preload("Reservation").Preload("Reservation.Pig").
		Where("id = ?", id).First(&feedback).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: Feedback not found", ErrNotFound)
		}
		return nil, fmt.Errorf("database error: %w", err)
	}
	return &feedback, nil
}

func (s *FeedbackService) Stats() (*FeedbackStats, error) {
	var row struct {
		Total       int64
		RatingSum   float64
		Recommended int64
	}
	if err := s.db.Model(&models.Feedback{}).
		Select("COUNT(*) AS total, " +
			"COALESCE(SUM(overall_rating + service_quality + pig_quality + delivery_experience), 0) AS rating_sum, " +
			"COALESCE(SUM(CASE WHEN would_recommend THEN 1 ELSE 0 END), 0) AS recommended").
		Scan(&row).Error; err != nil {
		return nil, fmt.Errorf("failed to compute feedback stats: %w", err)
	}

	stats := &FeedbackStats{TotalFeedbacks: row.Total}
	if row.Total > 0 {
		stats.AverageRating = round1(row.RatingSum / 4 / float64(row.Total))
		stats.RecommendationRate = round1(float64(row.Recommended) / float64(row.Total) * 100)
	}
	return stats, nil
}

func round1(v float64) float64 {
	return math.Round(v*10) / 10
}
