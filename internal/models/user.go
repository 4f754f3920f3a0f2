// internal/models/user.go
package models

import (
	"strings"
	"time"

	"golang.org/x/crypto/bcrypt"
)

type User struct {
	BaseModel
	Username        string     `json:"username" gorm:"uniqueIndex;size:150;not null"`
	Email           string     `json:"email" gorm:"size:255;index"`
	PasswordHash    string     `json:"-" gorm:"size:255;not null"`
	UserType        UserType   `json:"user_type" gorm:"type:varchar(20);not null;default:'customer'"`
	IsSuperuser     bool       `json:"is_superuser" gorm:"default:false"`
	Status          UserStatus `json:"status" gorm:"type:varchar(20);default:'active'"`
	FirstName       string     `json:"first_name" gorm:"size:100"`
	LastName        string     `json:"last_name" gorm:"size:100"`
	CellphoneNumber string     `json:"cellphone_number" gorm:"size:11"`
	Address         string     `json:"address" gorm:"type:text"`
	ProfilePhoto    string     `json:"profile_photo,omitempty" gorm:"size:500"`
	LastLoginAt     *time.Time `json:"last_login_at"`

	// Relationships
	Reservations []Reservation `json:"reservations,omitempty" gorm:"foreignKey:UserID"`
}

func (u *User) SetPassword(password string) error {
	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return err
	}
	u.PasswordHash = string(hashedPassword)
	return nil
}

func (u *User) CheckPassword(password string) error {
	return bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(password))
}

func (u *User) IsStaff() bool {
	return IsStaffType(u.UserType)
}

func (u *User) IsActive() bool {
	return u.Status == UserStatusActive
}

// FullName falls back to the username when no name is on file.
func (u *User) FullName() string {
	name := strings.TrimSpace(u.FirstName + " " + u.LastName)
	if name == "" {
		return u.Username
	}
	return name
}
