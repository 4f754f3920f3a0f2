package services

import (
	"github.com/pigmarket/pigmarket-backend/internal/models"
)

func registerForm(username string) *RegisterRequest {
	return &RegisterRequest{
		Username:        username,
		Email:           username + "@example.com",
		Password:        "Secret123",
		FirstName:       "Juan",
		LastName:        "Dela Cruz",
		CellphoneNumber: "0917 123 4567",
	}
}

func (s *serviceSuite) TestRegisterNormalizesPhone() {
	resp, err := s.auth.Register(registerForm("juan"))
	s.Require().NoError(err)
	s.Equal("09171234567", resp.User.CellphoneNumber)
	s.Equal(models.UserTypeCustomer, resp.User.UserType)
	s.NotEmpty(resp.AccessToken)
	s.NotEmpty(resp.RefreshToken)
	s.Equal("Bearer", resp.TokenType)
	s.Equal(3600, resp.ExpiresIn)
}

func (s *serviceSuite) TestRegisterRejectsDuplicateUsername() {
	_, err := s.auth.Register(registerForm("juan"))
	s.Require().NoError(err)

	_, err = s.auth.Register(registerForm("juan"))
	s.ErrorIs(err, ErrConflict)
}

func (s *serviceSuite) TestRegisterRejectsForeignPhone() {
	form := registerForm("juan")
	form.CellphoneNumber = "0817 123 4567"
	_, err := s.auth.Register(form)
	s.ErrorIs(err, ErrValidation)
}

func (s *serviceSuite) TestLogin() {
	_, err := s.auth.Register(registerForm("juan"))
	s.Require().NoError(err)

	resp, err := s.auth.Login(&LoginRequest{Username: "juan", Password: "Secret123"})
	s.Require().NoError(err)
	s.NotNil(resp.User.LastLoginAt)

	_, err = s.auth.Login(&LoginRequest{Username: "juan", Password: "wrong-password"})
	s.ErrorIs(err, ErrInvalidCredentials)

	_, err = s.auth.Login(&LoginRequest{Username: "nobody", Password: "Secret123"})
	s.ErrorIs(err, ErrInvalidCredentials)
}

func (s *serviceSuite) TestLoginRejectsInactiveAccount() {
	user := s.newCustomer("juan")
	s.Require().NoError(s.db.Model(user).Update("status", models.UserStatusInactive).Error)

	_, err := s.auth.Login(&LoginRequest{Username: "juan", Password: "Secret123"})
	s.ErrorIs(err, ErrAccountDisabled)
}

func (s *serviceSuite) TestRefreshToken() {
	resp, err := s.auth.Register(registerForm("juan"))
	s.Require().NoError(err)

	refreshed, err := s.auth.RefreshToken(resp.RefreshToken)
	s.Require().NoError(err)
	s.Equal(resp.User.ID, refreshed.User.ID)

	_, err = s.auth.RefreshToken("not-a-token")
	s.Error(err)
	_, err = s.auth.RefreshToken(resp.AccessToken)
	s.Error(err)
}

func (s *serviceSuite) TestChangePassword() {
	customer := s.newCustomer("juan")

	err := s.users.ChangePassword(customer.ID, &ChangePasswordRequest{OldPassword: "wrong", NewPassword: "NewSecret123"})
	s.ErrorIs(err, ErrValidation)

	s.Require().NoError(s.users.ChangePassword(customer.ID, &ChangePasswordRequest{OldPassword: "Secret123", NewPassword: "NewSecret123"}))
	_, err = s.auth.Login(&LoginRequest{Username: "juan", Password: "NewSecret123"})
	s.NoError(err)
}

func (s *serviceSuite) TestStaffCannotChangePassword() {
	staff := s.newStaff("staff")
	err := s.users.ChangePassword(staff.ID, &ChangePasswordRequest{OldPassword: "Secret123", NewPassword: "NewSecret123"})
	s.ErrorIs(err, ErrForbidden)
}

func (s *serviceSuite) TestProfileCountsOrders() {
	customer := s.newCustomer("juan")
	pig := s.newPig(models.BreedDuroc, "5000")
	_, err := s.reservations.Reserve(customer.ID, pig.ID, orderForm("pickup", "2500"), nil)
	s.Require().NoError(err)

	profile, err := s.users.GetProfile(customer.ID)
	s.Require().NoError(err)
	s.Equal(int64(1), profile.TotalReservations)
	s.Equal(int64(1), profile.PendingCount)

	phone := "0917 765 4321"
	user, err := s.users.UpdateProfile(customer.ID, &UpdateUserProfileRequest{CellphoneNumber: &phone})
	s.Require().NoError(err)
	s.Equal("09177654321", user.CellphoneNumber)
}
