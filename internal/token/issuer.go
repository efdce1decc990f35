// Package token issues and consumes the single-use, time-limited tokens
// backing email verification and password reset links.
package token

import (
	"errors"
	"time"

	"pms-service/internal/model"

	"gorm.io/gorm"
)

var (
	ErrTokenNotFound    = errors.New("token not found")
	ErrTokenExpired     = errors.New("token expired")
	ErrTokenAlreadyUsed = errors.New("token already used")
)

// Issuer mints and claims verification tokens against the tokens table.
type Issuer struct {
	db *gorm.DB
}

// NewIssuer constructs an Issuer on the given database handle.
func NewIssuer(db *gorm.DB) *Issuer {
	return &Issuer{db: db}
}

// Issue creates a fresh token for the purpose and user. Any unconsumed token
// previously issued for the same purpose and user is invalidated first, so at
// most one live token exists per flow.
func (i *Issuer) Issue(purpose model.TokenPurpose, userID uint, validity time.Duration) (*model.VerificationToken, error) {
	now := time.Now()
	tok := &model.VerificationToken{
		Purpose:   purpose,
		UserID:    userID,
		ExpiresAt: now.Add(validity),
	}

	err := i.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(&model.VerificationToken{}).
			Where("purpose = ? AND user_id = ? AND consumed_at IS NULL", purpose, userID).
			Update("consumed_at", now).Error; err != nil {
			return err
		}
		return tx.Create(tok).Error
	})
	if err != nil {
		return nil, err
	}
	return tok, nil
}

// Consume claims the token for the purpose and returns the subject user ID.
// The claim is a single conditional update so that of two concurrent submits
// of the same token exactly one succeeds.
func (i *Issuer) Consume(tokenValue string, purpose model.TokenPurpose) (uint, error) {
	now := time.Now()

	result := i.db.Model(&model.VerificationToken{}).
		Where("token = ? AND purpose = ? AND consumed_at IS NULL AND expires_at > ?", tokenValue, purpose, now).
		Update("consumed_at", now)
	if result.Error != nil {
		return 0, result.Error
	}

	if result.RowsAffected == 0 {
		// Claim failed; look the row up to report why.
		var tok model.VerificationToken
		err := i.db.Where("token = ? AND purpose = ?", tokenValue, purpose).First(&tok).Error
		switch {
		case errors.Is(err, gorm.ErrRecordNotFound):
			return 0, ErrTokenNotFound
		case err != nil:
			return 0, err
		case tok.IsConsumed() && !tok.IsExpired():
			return 0, ErrTokenAlreadyUsed
		default:
			return 0, ErrTokenExpired
		}
	}

	var tok model.VerificationToken
	if err := i.db.Where("token = ?", tokenValue).First(&tok).Error; err != nil {
		return 0, err
	}
	return tok.UserID, nil
}
