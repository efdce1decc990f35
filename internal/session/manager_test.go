package session

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"pms-service/internal/model"
	"pms-service/pkg/config"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func testConfig() *config.Config {
	return &config.Config{
		Server: config.ServerConfig{Env: "test"},
		Session: config.SessionConfig{
			TTL:                12 * time.Hour,
			RememberTTL:        30 * 24 * time.Hour,
			CookieName:         "pms_session",
			RememberCookieName: "pms_remember",
		},
	}
}

func newMockManager(t *testing.T) (*Manager, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	gdb, err := gorm.Open(postgres.New(postgres.Config{Conn: db}), &gorm.Config{
		SkipDefaultTransaction: true,
		Logger:                 logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)

	return NewManager(gdb, testConfig()), mock
}

func newEchoContext(req *http.Request) (echo.Context, *httptest.ResponseRecorder) {
	rec := httptest.NewRecorder()
	return echo.New().NewContext(req, rec), rec
}

func TestStartCreatesSessionAndSetsCookie(t *testing.T) {
	manager, mock := newMockManager(t)

	mock.ExpectQuery(`INSERT INTO "sessions"`).
		WillReturnRows(sqlmock.NewRows([]string{"revoked"}).AddRow(false))
	mock.ExpectExec(`UPDATE "users" SET`).
		WillReturnResult(sqlmock.NewResult(0, 1))

	c, rec := newEchoContext(httptest.NewRequest(http.MethodPost, "/auth/sign-in", nil))

	user := &model.User{
		ID:        5,
		Email:     "bob@gmail.com",
		Role:      model.RoleEmployee,
		FirstName: "Bob",
		LastName:  "Smith",
		Status:    model.StatusActive,
	}

	sess, err := manager.Start(c, user, false)
	require.NoError(t, err)
	assert.NotEmpty(t, sess.ID)
	assert.Equal(t, model.RoleEmployee, sess.Role)
	assert.Equal(t, "Bob Smith", sess.DisplayName)

	cookies := rec.Result().Cookies()
	require.Len(t, cookies, 1)
	assert.Equal(t, "pms_session", cookies[0].Name)
	assert.Equal(t, sess.ID, cookies[0].Value)
	assert.True(t, cookies[0].HttpOnly)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestStartRegeneratesPresentedSessionID(t *testing.T) {
	manager, mock := newMockManager(t)

	// The pre-auth session the browser presented must be revoked, and the
	// new session must get a different identifier.
	mock.ExpectExec(`UPDATE "sessions" SET`).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectQuery(`INSERT INTO "sessions"`).
		WillReturnRows(sqlmock.NewRows([]string{"revoked"}).AddRow(false))
	mock.ExpectExec(`UPDATE "users" SET`).
		WillReturnResult(sqlmock.NewResult(0, 1))

	req := httptest.NewRequest(http.MethodPost, "/auth/sign-in", nil)
	req.AddCookie(&http.Cookie{Name: "pms_session", Value: "stale-session-id"})
	c, _ := newEchoContext(req)

	user := &model.User{ID: 5, Email: "bob@gmail.com", Role: model.RoleEmployee, Status: model.StatusActive}
	sess, err := manager.Start(c, user, false)
	require.NoError(t, err)
	assert.NotEqual(t, "stale-session-id", sess.ID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestEndRevokesSessionAndExpiresCookies(t *testing.T) {
	manager, mock := newMockManager(t)

	mock.ExpectExec(`UPDATE "sessions" SET`).
		WillReturnResult(sqlmock.NewResult(0, 1))

	req := httptest.NewRequest(http.MethodPost, "/auth/sign-out", nil)
	req.AddCookie(&http.Cookie{Name: "pms_session", Value: "live-session-id"})
	c, rec := newEchoContext(req)

	require.NoError(t, manager.End(c))

	cookies := rec.Result().Cookies()
	require.Len(t, cookies, 2)
	for _, cookie := range cookies {
		assert.True(t, cookie.Expires.Before(time.Now()), "cookie %s not expired", cookie.Name)
		assert.True(t, cookie.HttpOnly)
		assert.Empty(t, cookie.Value)
	}
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCurrentWithoutCookiesFails(t *testing.T) {
	manager, mock := newMockManager(t)

	c, _ := newEchoContext(httptest.NewRequest(http.MethodGet, "/dashboard", nil))

	_, err := manager.Current(c)
	assert.ErrorIs(t, err, ErrNoSession)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCurrentRejectsRevokedSession(t *testing.T) {
	manager, mock := newMockManager(t)

	mock.ExpectQuery(`SELECT (.+) FROM "sessions"`).
		WillReturnRows(sqlmock.NewRows([]string{"id", "user_id", "role", "expires_at", "revoked"}).
			AddRow("live-session-id", 5, "employee", time.Now().Add(time.Hour), true))

	req := httptest.NewRequest(http.MethodGet, "/dashboard", nil)
	req.AddCookie(&http.Cookie{Name: "pms_session", Value: "live-session-id"})
	c, _ := newEchoContext(req)

	_, err := manager.Current(c)
	assert.ErrorIs(t, err, ErrNoSession)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCurrentReturnsLiveSession(t *testing.T) {
	manager, mock := newMockManager(t)

	mock.ExpectQuery(`SELECT (.+) FROM "sessions"`).
		WillReturnRows(sqlmock.NewRows([]string{"id", "user_id", "role", "expires_at", "revoked"}).
			AddRow("live-session-id", 5, "employee", time.Now().Add(time.Hour), false))

	req := httptest.NewRequest(http.MethodGet, "/dashboard", nil)
	req.AddCookie(&http.Cookie{Name: "pms_session", Value: "live-session-id"})
	c, _ := newEchoContext(req)

	sess, err := manager.Current(c)
	require.NoError(t, err)
	assert.Equal(t, uint(5), sess.UserID)
	assert.Equal(t, model.RoleEmployee, sess.Role)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRevokeOthersKeepsCurrentSession(t *testing.T) {
	manager, mock := newMockManager(t)

	mock.ExpectExec(`UPDATE "sessions" SET`).
		WillReturnResult(sqlmock.NewResult(0, 2))

	require.NoError(t, manager.RevokeOthers(5, "current-session-id"))
	assert.NoError(t, mock.ExpectationsWereMet())
}
