package model

import (
	"crypto/rand"
	"encoding/base64"
	"time"

	"gorm.io/gorm"
)

// TokenPurpose binds a verification token to a single flow
type TokenPurpose string

const (
	PurposeEmailVerification TokenPurpose = "email_verification"
	PurposePasswordReset     TokenPurpose = "password_reset"
)

// VerificationToken represents a single-use, time-limited secret bound to one
// user and one purpose. A consumed token keeps its row with ConsumedAt set.
type VerificationToken struct {
	ID         uint         `json:"id" gorm:"primaryKey"`
	Token      string       `json:"-" gorm:"type:varchar(64);uniqueIndex"`
	Purpose    TokenPurpose `json:"purpose" gorm:"type:varchar(30);index:idx_tokens_purpose_user"`
	UserID     uint         `json:"user_id" gorm:"index:idx_tokens_purpose_user"`
	ExpiresAt  time.Time    `json:"expires_at"`
	ConsumedAt *time.Time   `json:"consumed_at,omitempty"`
	CreatedAt  time.Time    `json:"created_at"`
}

// BeforeCreate hook will be called before creating a new VerificationToken record
func (t *VerificationToken) BeforeCreate(tx *gorm.DB) (err error) {
	if t.Token == "" {
		t.Token = generateSecureToken()
	}
	return nil
}

// IsExpired checks if the token is expired
func (t *VerificationToken) IsExpired() bool {
	return time.Now().After(t.ExpiresAt)
}

// IsConsumed checks if the token has already been used
func (t *VerificationToken) IsConsumed() bool {
	return t.ConsumedAt != nil
}

// generateSecureToken creates a secure random token string
func generateSecureToken() string {
	b := make([]byte, 32)
	_, err := rand.Read(b)
	if err != nil {
		// crypto/rand failing means the process cannot mint secrets at all
		panic(err)
	}
	return base64.RawURLEncoding.EncodeToString(b)
}
