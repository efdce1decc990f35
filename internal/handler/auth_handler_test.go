package handler

import (
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"pms-service/internal/leave"
	"pms-service/internal/session"
	"pms-service/internal/token"
	"pms-service/pkg/config"
	"pms-service/pkg/database"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

type silentMailer struct{}

func (silentMailer) Send(to, subject, body string) error { return nil }

func setupHandlers(t *testing.T) sqlmock.Sqlmock {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	gdb, err := gorm.Open(postgres.New(postgres.Config{Conn: db}), &gorm.Config{
		SkipDefaultTransaction: true,
		Logger:                 logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)

	database.DB = gdb

	testCfg := &config.Config{
		Server: config.ServerConfig{Env: "test", BaseURL: "http://localhost:8081"},
		Session: config.SessionConfig{
			TTL:                time.Hour,
			RememberTTL:        30 * 24 * time.Hour,
			CookieName:         "pms_session",
			RememberCookieName: "pms_remember",
		},
		Token: config.TokenConfig{
			VerificationTTL:  24 * time.Hour,
			PasswordResetTTL: time.Hour,
		},
		Auth: config.AuthConfig{
			AllowedDomains: []string{"gmail.com"},
			BcryptCost:     bcrypt.MinCost,
		},
	}

	Init(testCfg, session.NewManager(gdb, testCfg), token.NewIssuer(gdb),
		leave.NewService(gdb), silentMailer{})
	return mock
}

func postForm(path string, values url.Values) (echo.Context, *httptest.ResponseRecorder) {
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(values.Encode()))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationForm)
	rec := httptest.NewRecorder()
	return echo.New().NewContext(req, rec), rec
}

func TestVerifyWithoutTokenFails(t *testing.T) {
	mock := setupHandlers(t)

	req := httptest.NewRequest(http.MethodGet, "/auth/verify", nil)
	rec := httptest.NewRecorder()
	c := echo.New().NewContext(req, rec)

	require.NoError(t, Verify(c))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "invalid or expired link")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSignInUnknownUserIsGeneric(t *testing.T) {
	mock := setupHandlers(t)

	mock.ExpectQuery(`SELECT (.+) FROM "users"`).
		WillReturnError(gorm.ErrRecordNotFound)

	c, rec := postForm("/auth/sign-in", url.Values{
		"email":    {"nobody@gmail.com"},
		"password": {"whatever123"},
	})

	require.NoError(t, SignIn(c))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Contains(t, rec.Body.String(), "invalid credentials")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSignInWrongPasswordIsGeneric(t *testing.T) {
	mock := setupHandlers(t)

	hash, err := bcrypt.GenerateFromPassword([]byte("Passw0rd!"), bcrypt.MinCost)
	require.NoError(t, err)
	mock.ExpectQuery(`SELECT (.+) FROM "users"`).
		WillReturnRows(sqlmock.NewRows([]string{"id", "email", "password_hash", "role", "status"}).
			AddRow(5, "bob@gmail.com", string(hash), "employee", "ACTIVE"))

	c, rec := postForm("/auth/sign-in", url.Values{
		"email":    {"bob@gmail.com"},
		"password": {"wrong-password"},
	})

	require.NoError(t, SignIn(c))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Contains(t, rec.Body.String(), "invalid credentials")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSignInUnverifiedAccountIsGeneric(t *testing.T) {
	mock := setupHandlers(t)

	hash, err := bcrypt.GenerateFromPassword([]byte("Passw0rd!"), bcrypt.MinCost)
	require.NoError(t, err)
	mock.ExpectQuery(`SELECT (.+) FROM "users"`).
		WillReturnRows(sqlmock.NewRows([]string{"id", "email", "password_hash", "role", "status"}).
			AddRow(5, "bob@gmail.com", string(hash), "visitor", "PENDING_VERIFICATION"))

	c, rec := postForm("/auth/sign-in", url.Values{
		"email":    {"bob@gmail.com"},
		"password": {"Passw0rd!"},
	})

	require.NoError(t, SignIn(c))
	// Correct password on an unverified account still gets the generic
	// message so account state cannot be probed.
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Contains(t, rec.Body.String(), "invalid credentials")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSignUpRejectsDisallowedDomain(t *testing.T) {
	mock := setupHandlers(t)

	c, rec := postForm("/auth/sign-up", url.Values{
		"email":            {"bob@example.com"},
		"password":         {"Passw0rd!"},
		"confirm_password": {"Passw0rd!"},
	})

	require.NoError(t, SignUp(c))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "approved email domains")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSignUpRequiresMatchingPasswords(t *testing.T) {
	mock := setupHandlers(t)

	c, rec := postForm("/auth/sign-up", url.Values{
		"email":            {"bob@gmail.com"},
		"password":         {"Passw0rd!"},
		"confirm_password": {"Different1!"},
	})

	require.NoError(t, SignUp(c))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "passwords do not match")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestActivateUserAlreadyActiveFails(t *testing.T) {
	mock := setupHandlers(t)

	// Conditional update touches nothing because the account is not pending;
	// last_login and every other column stay untouched.
	mock.ExpectExec(`UPDATE "users" SET`).
		WillReturnResult(sqlmock.NewResult(0, 0))

	err := activateUser(5)
	assert.ErrorIs(t, err, ErrAlreadyActive)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestActivateUserTransitionsPendingAccount(t *testing.T) {
	mock := setupHandlers(t)

	mock.ExpectExec(`UPDATE "users" SET`).
		WillReturnResult(sqlmock.NewResult(0, 1))

	assert.NoError(t, activateUser(5))
	assert.NoError(t, mock.ExpectationsWereMet())
}
