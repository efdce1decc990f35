package middleware

import (
	"net/http"

	"pms-service/internal/model"
	"pms-service/internal/session"
	"pms-service/pkg/logger"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
)

// SignInPath is where unauthenticated or unauthorized requests are sent.
const SignInPath = "/auth/sign-in"

// RequireRoles builds the auth gate: the request must carry a live session
// whose role is in the allowed set before the handler runs. Both failure
// modes redirect to sign-in; only the log line tells them apart.
func RequireRoles(sessions *session.Manager, roles ...model.Role) echo.MiddlewareFunc {
	allowed := make(map[model.Role]bool, len(roles))
	for _, r := range roles {
		allowed[r] = true
	}

	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			log := logger.FromContext(c)

			sess, err := sessions.Current(c)
			if err != nil {
				log.Warn("Access denied: no session",
					zap.String("path", c.Request().URL.Path))
				return c.Redirect(http.StatusFound, SignInPath)
			}

			if len(allowed) > 0 && !allowed[sess.Role] {
				log.Warn("Access denied: wrong role",
					zap.String("path", c.Request().URL.Path),
					zap.Uint("user_id", sess.UserID),
					zap.String("role", string(sess.Role)))
				return c.Redirect(http.StatusFound, SignInPath)
			}

			c.Set("session", sess)
			return next(c)
		}
	}
}

// CurrentSession retrieves the session stored by RequireRoles.
func CurrentSession(c echo.Context) (*model.Session, bool) {
	sess, ok := c.Get("session").(*model.Session)
	return sess, ok
}
