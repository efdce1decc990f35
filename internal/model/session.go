package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Session stores authenticated browser sessions. Role and display name are
// snapshots taken at login; role changes do not touch live sessions.
type Session struct {
	ID          string    `json:"id" gorm:"primaryKey;type:varchar(64)"`
	UserID      uint      `json:"user_id" gorm:"index;not null"`
	Email       string    `json:"email" gorm:"type:varchar(100)"`
	Role        Role      `json:"role" gorm:"type:varchar(20)"`
	DisplayName string    `json:"display_name" gorm:"type:varchar(130)"`
	LoggedInAt  time.Time `json:"logged_in_at"`
	ExpiresAt   time.Time `json:"expires_at" gorm:"index"`
	Revoked     bool      `json:"revoked" gorm:"default:false;index"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// BeforeCreate hook will be called before creating a new Session record
func (s *Session) BeforeCreate(tx *gorm.DB) (err error) {
	if s.ID == "" {
		s.ID = uuid.New().String()
	}
	return nil
}

// IsValid checks if the session is live (not revoked and not expired)
func (s *Session) IsValid() bool {
	return !s.Revoked && time.Now().Before(s.ExpiresAt)
}
