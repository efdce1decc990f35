// Package session owns the authenticated-session lifecycle: establishing a
// session at login, resolving it per request, and tearing it down at logout.
// All session state lives in the sessions table; the browser only ever holds
// the opaque session ID and, optionally, a signed remember-me token.
package session

import (
	"errors"
	"net/http"
	"time"

	"pms-service/internal/model"
	"pms-service/pkg/config"
	"pms-service/pkg/jwtutil"

	"github.com/labstack/echo/v4"
	"gorm.io/gorm"
)

// ErrNoSession is returned when the request carries no live session.
var ErrNoSession = errors.New("no active session")

// Manager is the only mutation point for session state.
type Manager struct {
	db  *gorm.DB
	cfg *config.Config
}

// NewManager constructs a Manager on the given database handle and config.
func NewManager(db *gorm.DB, cfg *config.Config) *Manager {
	return &Manager{db: db, cfg: cfg}
}

// Start establishes a new session for the user. The session ID is always
// freshly generated and any session the request presented beforehand is
// revoked, so logging in never reuses a pre-auth identifier. Updates the
// user's last login timestamp. With remember set, a separate signed 30-day
// cookie is issued alongside the session cookie.
func (m *Manager) Start(c echo.Context, user *model.User, remember bool) (*model.Session, error) {
	// Revoke whatever session the browser presented before authentication.
	if cookie, err := c.Cookie(m.cfg.Session.CookieName); err == nil && cookie.Value != "" {
		m.db.Model(&model.Session{}).Where("id = ?", cookie.Value).Update("revoked", true)
	}

	now := time.Now()
	sess := &model.Session{
		UserID:      user.ID,
		Email:       user.Email,
		Role:        user.Role,
		DisplayName: user.DisplayName(),
		LoggedInAt:  now,
		ExpiresAt:   now.Add(m.cfg.Session.TTL),
	}
	if err := m.db.Create(sess).Error; err != nil {
		return nil, err
	}

	if err := m.db.Model(&model.User{}).Where("id = ?", user.ID).
		Update("last_login_at", now).Error; err != nil {
		return nil, err
	}

	c.SetCookie(&http.Cookie{
		Name:     m.cfg.Session.CookieName,
		Value:    sess.ID,
		Path:     "/",
		Expires:  sess.ExpiresAt,
		HttpOnly: true,
		Secure:   m.cfg.Server.IsProduction(),
		SameSite: http.SameSiteLaxMode,
	})

	if remember {
		tokenString, err := jwtutil.GenerateRememberToken(user.ID, user.Email, m.cfg.Session.RememberTTL)
		if err != nil {
			return nil, err
		}
		c.SetCookie(&http.Cookie{
			Name:     m.cfg.Session.RememberCookieName,
			Value:    tokenString,
			Path:     "/",
			Expires:  now.Add(m.cfg.Session.RememberTTL),
			HttpOnly: true,
			Secure:   true,
			SameSite: http.SameSiteLaxMode,
		})
	}

	return sess, nil
}

// End revokes the request's session and expires both the session cookie and
// the remember-me cookie with a past expiry.
func (m *Manager) End(c echo.Context) error {
	if cookie, err := c.Cookie(m.cfg.Session.CookieName); err == nil && cookie.Value != "" {
		if err := m.db.Model(&model.Session{}).Where("id = ?", cookie.Value).
			Update("revoked", true).Error; err != nil {
			return err
		}
	}

	m.expireCookie(c, m.cfg.Session.CookieName, m.cfg.Server.IsProduction())
	m.expireCookie(c, m.cfg.Session.RememberCookieName, true)
	return nil
}

// Current resolves the live session for the request. It checks the session
// cookie first; failing that, a valid remember-me token re-establishes a
// fresh session for its user. Returns ErrNoSession when neither yields one.
func (m *Manager) Current(c echo.Context) (*model.Session, error) {
	if cookie, err := c.Cookie(m.cfg.Session.CookieName); err == nil && cookie.Value != "" {
		var sess model.Session
		err := m.db.Where("id = ?", cookie.Value).First(&sess).Error
		if err == nil && sess.IsValid() {
			return &sess, nil
		}
		if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, err
		}
	}

	return m.resumeFromRememberCookie(c)
}

// RevokeOthers revokes every live session of the user except keepID. Used
// when the password changes so other browsers must re-authenticate.
func (m *Manager) RevokeOthers(userID uint, keepID string) error {
	return m.db.Model(&model.Session{}).
		Where("user_id = ? AND id <> ? AND revoked = ?", userID, keepID, false).
		Update("revoked", true).Error
}

func (m *Manager) resumeFromRememberCookie(c echo.Context) (*model.Session, error) {
	cookie, err := c.Cookie(m.cfg.Session.RememberCookieName)
	if err != nil || cookie.Value == "" {
		return nil, ErrNoSession
	}

	claims, err := jwtutil.ValidateRememberToken(cookie.Value)
	if err != nil {
		return nil, ErrNoSession
	}

	var user model.User
	if err := m.db.First(&user, claims.UserID).Error; err != nil {
		return nil, ErrNoSession
	}
	if user.Status != model.StatusActive {
		return nil, ErrNoSession
	}

	return m.Start(c, &user, false)
}

func (m *Manager) expireCookie(c echo.Context, name string, secure bool) {
	c.SetCookie(&http.Cookie{
		Name:     name,
		Value:    "",
		Path:     "/",
		Expires:  time.Unix(0, 0),
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   secure,
		SameSite: http.SameSiteLaxMode,
	})
}
