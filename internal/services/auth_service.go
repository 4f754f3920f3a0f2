// internal/services/auth_service.go
package services

import (
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/pigmarket/pigmarket-backend/internal/config"
	"github.com/pigmarket/pigmarket-backend/internal/models"
	"github.com/pigmarket/pigmarket-backend/internal/utils"
)

const bearerTokenType = "Bearer"

type AuthService struct {
	db  *gorm.DB
	cfg *config.Config
	now func() time.Time
}

type LoginRequest struct {
	Username string `json:"username" validate:"required"`
	Password string `json:"password" validate:"required"`
}

// RegisterRequest is the customer sign-up form. Staff accounts are never
// created here.
type RegisterRequest struct {
	Username        string `json:"username" validate:"required,username"`
	Email           string `json:"email" validate:"omitempty,email"`
	Password        string `json:"password" validate:"required,password"`
	FirstName       string `json:"first_name" validate:"max=100"`
	LastName        string `json:"last_name" validate:"max=100"`
	CellphoneNumber string `json:"cellphone_number" validate:"required,ph_mobile"`
	Address         string `json:"address" validate:"max=500"`
}

type AuthResponse struct {
	User         *models.User `json:"user"`
	AccessToken  string       `json:"access_token"`
	RefreshToken string       `json:"refresh_token"`
	TokenType    string       `json:"token_type"`
	ExpiresIn    int          `json:"expires_in"` // seconds
}

func NewAuthService(db *gorm.DB, cfg *config.Config) *AuthService {
	return &AuthService{db: db, cfg: cfg, now: time.Now}
}

func (s *AuthService) Register(req *RegisterRequest) (*AuthResponse, error) {
	if err := utils.ValidateStruct(req); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrValidation, err)
	}

	phone, err := utils.NormalizePhone(req.CellphoneNumber)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", ErrValidation, err.Error())
	}
	if err := ensureUniqueUsername(s.db, req.Username, uuid.Nil, "A user with that username already exists."); err != nil {
		return nil, err
	}

	customer := &models.User{
		Username:        req.Username,
		Email:           req.Email,
		UserType:        models.UserTypeCustomer,
		Status:          models.UserStatusActive,
		FirstName:       req.FirstName,
		LastName:        req.LastName,
		CellphoneNumber: phone,
		Address:         req.Address,
	}
	if err := customer.SetPassword(req.Password); err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}
	if err := s.db.Omit(clause.Associations).Create(customer).Error; err != nil {
		return nil, fmt.Errorf("failed to create user: %w", err)
	}

	return s.session(customer)
}

// Login checks the password before the account state so a disabled account
// is only revealed to someone who knows its password.
func (s *AuthService) Login(req *LoginRequest) (*AuthResponse, error) {
	if err := utils.ValidateStruct(req); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrValidation, err)
	}

	var account models.User
	err := s.db.First(&account, "username = ?", req.Username).Error
	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
		return nil, ErrInvalidCredentials
	case err != nil:
		return nil, fmt.Errorf("database error: %w", err)
	}

	if account.CheckPassword(req.Password) != nil {
		return nil, ErrInvalidCredentials
	}
	if !account.IsActive() {
		return nil, ErrAccountDisabled
	}

	loggedInAt := s.now()
	if err := s.db.Model(&account).Update("last_login_at", loggedInAt).Error; err != nil {
		return nil, fmt.Errorf("failed to record login: %w", err)
	}
	account.LastLoginAt = &loggedInAt

	return s.session(&account)
}

// RefreshToken trades a valid refresh token for a new token pair.
func (s *AuthService) RefreshToken(refreshToken string) (*AuthResponse, error) {
	userID, err := utils.ValidateRefreshToken(refreshToken)
	if err != nil {
		return nil, fmt.Errorf("invalid refresh token: %w", err)
	}

	account, err := findUser(s.db, userID)
	if err != nil {
		return nil, err
	}
	if !account.IsActive() {
		return nil, ErrAccountDisabled
	}
	return s.session(account)
}

func (s *AuthService) session(user *models.User) (*AuthResponse, error) {
	ttl := s.cfg.JWT.AccessTokenTTL
	access, err := utils.GenerateJWT(user.ID, user.Username, string(user.UserType), ttl)
	if err != nil {
		return nil, fmt.Errorf("failed to generate access token: %w", err)
	}
	refresh, err := utils.GenerateRefreshToken(user.ID, s.cfg.JWT.RefreshTokenTTL)
	if err != nil {
		return nil, fmt.Errorf("failed to generate refresh token: %w", err)
	}

	return &AuthResponse{
		User:         user,
		AccessToken:  access,
		RefreshToken: refresh,
		TokenType:    bearerTokenType,
		ExpiresIn:    int((time.Duration(ttl) * time.Hour).Seconds()),
	}, nil
}
