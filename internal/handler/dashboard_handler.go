package handler

import (
	"net/http"
	"time"

	"pms-service/internal/middleware"
	"pms-service/internal/model"
	"pms-service/pkg/database"
	"pms-service/pkg/logger"
	"pms-service/prometheus"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
)

// Dashboard redirects the signed-in user to the landing page for their role.
func Dashboard(c echo.Context) error {
	sess, ok := currentSession(c)
	if !ok {
		return c.Redirect(http.StatusFound, middleware.SignInPath)
	}
	return c.Redirect(http.StatusFound, sess.Role.LandingPath())
}

// RoleDashboard renders the view model for a role's landing page. The same
// handler serves every role; the route's middleware decides who gets in.
func RoleDashboard(c echo.Context) error {
	log := logger.FromContext(c)

	sess, ok := currentSession(c)
	if !ok {
		return c.Redirect(http.StatusFound, middleware.SignInPath)
	}

	data := echo.Map{
		"display_name": sess.DisplayName,
		"role":         sess.Role,
		"logged_in_at": sess.LoggedInAt,
	}

	// Approvers additionally see the pending leave queue size.
	if sess.Role.CanDecideLeave() {
		defer prometheus.TrackDBOperation("query")(time.Now())
		var pendingLeave int64
		if err := database.GetDB().Model(&model.LeaveRequest{}).
			Where("status = ?", model.LeavePending).Count(&pendingLeave).Error; err != nil {
			log.Error("Failed to count pending leave", zap.Error(err))
		} else {
			data["pending_leave_requests"] = pendingLeave
		}
	}

	return c.JSON(http.StatusOK, echo.Map{"data": data})
}

// AdminPanel renders the admin landing view with headline counts.
func AdminPanel(c echo.Context) error {
	log := logger.FromContext(c)

	defer prometheus.TrackDBOperation("query")(time.Now())
	var totalUsers, pendingUsers, activeSessions int64
	db := database.GetDB()
	if err := db.Model(&model.User{}).Count(&totalUsers).Error; err != nil {
		log.Error("Failed to count users", zap.Error(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "try again later"})
	}
	if err := db.Model(&model.User{}).
		Where("status = ?", model.StatusPendingVerification).Count(&pendingUsers).Error; err != nil {
		log.Error("Failed to count pending users", zap.Error(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "try again later"})
	}
	if err := db.Model(&model.Session{}).
		Where("revoked = ? AND expires_at > ?", false, time.Now()).Count(&activeSessions).Error; err != nil {
		log.Error("Failed to count sessions", zap.Error(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "try again later"})
	}

	return c.JSON(http.StatusOK, echo.Map{
		"data": echo.Map{
			"total_users":     totalUsers,
			"pending_users":   pendingUsers,
			"active_sessions": activeSessions,
		},
	})
}
