package token

import (
	"database/sql"
	"testing"
	"time"

	"pms-service/internal/model"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func newMockIssuer(t *testing.T) (*Issuer, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	gdb, err := gorm.Open(postgres.New(postgres.Config{Conn: db}), &gorm.Config{
		SkipDefaultTransaction: true,
		Logger:                 logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)

	return NewIssuer(gdb), mock
}

func TestIssueRevokesPriorTokensAndCreates(t *testing.T) {
	issuer, mock := newMockIssuer(t)

	mock.ExpectBegin()
	mock.ExpectExec(`UPDATE "verification_tokens" SET`).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectQuery(`INSERT INTO "verification_tokens"`).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(1))
	mock.ExpectCommit()

	tok, err := issuer.Issue(model.PurposePasswordReset, 42, time.Hour)
	require.NoError(t, err)
	assert.NotEmpty(t, tok.Token)
	assert.Equal(t, uint(42), tok.UserID)
	assert.WithinDuration(t, time.Now().Add(time.Hour), tok.ExpiresAt, time.Minute)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestConsumeClaimsTokenOnce(t *testing.T) {
	issuer, mock := newMockIssuer(t)

	mock.ExpectExec(`UPDATE "verification_tokens" SET`).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectQuery(`SELECT (.+) FROM "verification_tokens"`).
		WillReturnRows(sqlmock.NewRows([]string{"id", "token", "purpose", "user_id"}).
			AddRow(1, "abc", "password_reset", 42))

	userID, err := issuer.Consume("abc", model.PurposePasswordReset)
	require.NoError(t, err)
	assert.Equal(t, uint(42), userID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestConsumeUnknownTokenFailsNotFound(t *testing.T) {
	issuer, mock := newMockIssuer(t)

	mock.ExpectExec(`UPDATE "verification_tokens" SET`).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectQuery(`SELECT (.+) FROM "verification_tokens"`).
		WillReturnError(sql.ErrNoRows)

	_, err := issuer.Consume("missing", model.PurposePasswordReset)
	assert.ErrorIs(t, err, ErrTokenNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestConsumeTwiceFailsAlreadyUsed(t *testing.T) {
	issuer, mock := newMockIssuer(t)

	// Second consume: claim matches nothing, row shows an earlier use while
	// the expiry is still in the future.
	consumedAt := time.Now().Add(-time.Minute)
	mock.ExpectExec(`UPDATE "verification_tokens" SET`).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectQuery(`SELECT (.+) FROM "verification_tokens"`).
		WillReturnRows(sqlmock.NewRows([]string{"id", "token", "purpose", "user_id", "expires_at", "consumed_at"}).
			AddRow(1, "abc", "password_reset", 42, time.Now().Add(30*time.Minute), consumedAt))

	_, err := issuer.Consume("abc", model.PurposePasswordReset)
	assert.ErrorIs(t, err, ErrTokenAlreadyUsed)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestConsumeExpiredTokenFailsExpired(t *testing.T) {
	issuer, mock := newMockIssuer(t)

	mock.ExpectExec(`UPDATE "verification_tokens" SET`).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectQuery(`SELECT (.+) FROM "verification_tokens"`).
		WillReturnRows(sqlmock.NewRows([]string{"id", "token", "purpose", "user_id", "expires_at"}).
			AddRow(1, "abc", "password_reset", 42, time.Now().Add(-time.Minute)))

	_, err := issuer.Consume("abc", model.PurposePasswordReset)
	assert.ErrorIs(t, err, ErrTokenExpired)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestTokenExpiryBoundary(t *testing.T) {
	// One-hour token: still valid at t+59min, expired at t+61min.
	issued := time.Now()
	tok := model.VerificationToken{ExpiresAt: issued.Add(time.Hour)}

	beforeExpiry := issued.Add(59 * time.Minute)
	afterExpiry := issued.Add(61 * time.Minute)

	assert.True(t, tok.ExpiresAt.After(beforeExpiry))
	assert.False(t, tok.ExpiresAt.After(afterExpiry))
}
