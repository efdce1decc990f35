package model

import (
	"time"

	"gorm.io/gorm"
)

// UserStatus is the account lifecycle state
type UserStatus string

const (
	StatusPendingVerification UserStatus = "PENDING_VERIFICATION"
	StatusActive              UserStatus = "ACTIVE"
	StatusSuspended           UserStatus = "SUSPENDED"
)

// User represents the user model stored in the database
type User struct {
	ID            uint           `json:"id" gorm:"primaryKey"`
	Email         string         `json:"email" gorm:"type:varchar(100);uniqueIndex"`
	PasswordHash  string         `json:"-" gorm:"type:varchar(255)"`
	FirstName     string         `json:"first_name" gorm:"type:varchar(64)"`
	LastName      string         `json:"last_name" gorm:"type:varchar(64)"`
	Role          Role           `json:"role" gorm:"type:varchar(20);default:'visitor';index"`
	Status        UserStatus     `json:"status" gorm:"type:varchar(30);default:'PENDING_VERIFICATION'"`
	EmailVerified bool           `json:"email_verified" gorm:"default:false"`
	LastLoginAt   *time.Time     `json:"last_login_at,omitempty"`
	CreatedAt     time.Time      `json:"created_at"`
	UpdatedAt     time.Time      `json:"updated_at"`
	DeletedAt     gorm.DeletedAt `json:"-" gorm:"index"`
}

// DisplayName returns the user's name as shown in the portal header.
func (u *User) DisplayName() string {
	switch {
	case u.FirstName != "" && u.LastName != "":
		return u.FirstName + " " + u.LastName
	case u.FirstName != "":
		return u.FirstName
	default:
		return u.Email
	}
}
