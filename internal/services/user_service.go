// internal/services/user_service.go
package services

import (
	"errors"
	"fmt"
	"mime/multipart"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/pigmarket/pigmarket-backend/internal/models"
	"github.com/pigmarket/pigmarket-backend/internal/utils"
)

type UserService struct {
	db             *gorm.DB
	storageService *StorageService
}

type UpdateUserProfileRequest struct {
	FirstName       *string `json:"first_name,omitempty" validate:"omitempty,max=100"`
	LastName        *string `json:"last_name,omitempty" validate:"omitempty,max=100"`
	Email           *string `json:"email,omitempty" validate:"omitempty,email"`
	CellphoneNumber *string `json:"cellphone_number,omitempty" validate:"omitempty,ph_mobile"`
	Address         *string `json:"address,omitempty" validate:"omitempty,max=500"`
}

type ChangePasswordRequest struct {
	OldPassword string `json:"old_password" validate:"required"`
	NewPassword string `json:"new_password" validate:"required,password"`
}

// UserProfile is the profile page: the account plus a summary of its orders.
type UserProfile struct {
	User              *models.User `json:"user"`
	TotalReservations int64        `json:"total_reservations"`
	PendingCount      int64        `json:"pending_count"`
	AcceptedCount     int64        `json:"accepted_count"`
	CompletedCount    int64        `json:"completed_count"`
}

func NewUserService(db *gorm.DB, storageService *StorageService) *UserService {
	return &UserService{
		db:             db,
		storageService: storageService,
	}
}

func (s *UserService) GetUserByID(userID uuid.UUID) (*models.User, error) {
	return findUser(s.db, userID)
}

// findUser loads one account by id for any service.
func findUser(db *gorm.DB, id uuid.UUID) (*models.User, error) {
	var user models.User
	err := db.First(&user, "id = ?", id).Error
	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
		return nil, fmt.Errorf("%w: User not found", ErrNotFound)
	case err != nil:
		return nil, fmt.Errorf("database error: %w", err)
	}
	return &user, nil
}

// ensureUniqueUsername fails with conflictMsg when another account than
// except already uses username.
func ensureUniqueUsername(db *gorm.DB, username string, except uuid.UUID, conflictMsg string) error {
	var count int64
	if err := db.Model(&models.User{}).
		Where("username = ? AND id <> ?", username, except).
		Count(&count).Error; err != nil {
		return fmt.Errorf("database error: %w", err)
	}
	if count > 0 {
		return fmt.Errorf("%w: %s", ErrConflict, conflictMsg)
	}
	return nil
}

func (s *UserService) GetProfile(userID uuid.UUID) (*UserProfile, error) {
	user, err := s.GetUserByID(userID)
	if err != nil {
		return nil, err
	}

	profile := &UserProfile{User: user}
	var counts []struct {
		Status models.ReservationStatus
		Total  int64
	}
	if err := s.db.Model(&models.Reservation{}).
		Select("status, COUNT(*) AS total").
		Where("user_id = ?", userID).
		Group("status").
		Scan(&counts).Error; err != nil {
		return nil, fmt.Errorf("failed to count reservations: %w", err)
	}
	for _, c := range counts {
		profile.TotalReservations += c.Total
		switch c.Status {
		case models.ReservationStatusPending:
			profile.PendingCount = c.Total
		case models.ReservationStatusAccepted:
			profile.AcceptedCount = c.Total
		case models.ReservationStatusCompleted:
			profile.CompletedCount = c.Total
		}
	}
	return profile, nil
}

func (s *UserService) UpdateProfile(userID uuid.UUID, req *UpdateUserProfileRequest) (*models.User, error) {
	// Validate request
	if err := utils.ValidateStruct(req); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrValidation, err)
	}

	user, err := s.GetUserByID(userID)
	if err != nil {
		return nil, err
	}

	updates := map[string]interface{}{}
	if req.FirstName != nil {
		updates["first_name"] = *req.FirstName
	}
	if req.LastName != nil {
		updates["last_name"] = *req.LastName
	}
	if req.Email != nil {
		updates["email"] = *req.Email
	}
	if req.CellphoneNumber != nil {
		phone := ""
		if *req.CellphoneNumber != "" {
			if phone, err = utils.NormalizePhone(*req.CellphoneNumber); err != nil {
				return nil, fmt.Errorf("%w: %s", ErrValidation, err.Error())
			}
		}
		updates["cellphone_number"] = phone
	}
	if req.Address != nil {
		updates["address"] = *req.Address
	}

	if len(updates) > 0 {
		if err := s.db.Model(&models.User{}).Where("id = ?", user.ID).Updates(updates).Error; err != nil {
			return nil, fmt.Errorf("failed to update profile: %w", err)
		}
	}

	return s.GetUserByID(userID)
}

// UploadPhoto replaces the profile photo; the previous file is removed once
// the new one is saved.
func (s *UserService) UploadPhoto(userID uuid.UUID, header *multipart.FileHeader) (*models.User, error) {
	user, err := s.GetUserByID(userID)
	if err != nil {
		return nil, err
	}

	result, err := s.storageService.UploadFile(header, s.storageService.UploadPreset(UploadProfilePhoto))
	if err != nil {
		return nil, err
	}

	if err := s.db.Model(&models.User{}).Where("id = ?", user.ID).
		Update("profile_photo", result.URL).Error; err != nil {
		s.storageService.DeleteFiles([]string{result.Key})
		return nil, fmt.Errorf("failed to save profile photo: %w", err)
	}

	return s.GetUserByID(userID)
}

// ChangePassword lets customers change their own password. Staff accounts are
// managed from the server configuration.
func (s *UserService) ChangePassword(userID uuid.UUID, req *ChangePasswordRequest) error {
	if err := utils.ValidateStruct(req); err != nil {
		return fmt.Errorf("%w: %w", ErrValidation, err)
	}

	user, err := s.GetUserByID(userID)
	if err != nil {
		return err
	}
	if user.IsStaff() || user.IsSuperuser {
		return fmt.Errorf("%w: Password changes are not available for admin users.", ErrForbidden)
	}

	if err := user.CheckPassword(req.OldPassword); err != nil {
		return fmt.Errorf("%w: Your old password was entered incorrectly. Please enter it again.", ErrValidation)
	}

	if err := user.SetPassword(req.NewPassword); err != nil {
		return fmt.Errorf("failed to hash password: %w", err)
	}
	if err := s.db.Model(&models.User{}).Where("id = ?", user.ID).
		Update("password_hash", user.PasswordHash).Error; err != nil {
		return fmt.Errorf("failed to update password: %w", err)
	}
	return nil
}
