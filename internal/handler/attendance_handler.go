package handler

import (
	"net/http"
	"strings"
	"time"

	"pms-service/internal/model"
	"pms-service/pkg/database"
	"pms-service/pkg/logger"
	"pms-service/prometheus"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
)

// ClockIn opens today's attendance record for the signed-in user. The unique
// user/day index means a second clock-in the same day fails.
func ClockIn(c echo.Context) error {
	log := logger.FromContext(c)
	prometheus.RecordAttendancePunch("in")

	sess, ok := currentSession(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "authentication required"})
	}

	now := time.Now()
	record := model.AttendanceRecord{
		UserID:    sess.UserID,
		WorkDay:   now.Format("2006-01-02"),
		ClockInAt: now,
	}

	defer prometheus.TrackDBOperation("insert")(time.Now())
	if err := database.GetDB().Create(&record).Error; err != nil {
		if strings.Contains(err.Error(), "duplicate") || strings.Contains(err.Error(), "unique") {
			return c.JSON(http.StatusConflict, echo.Map{"error": "already clocked in today"})
		}
		log.Error("Failed to clock in", zap.Error(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "try again later"})
	}

	log.Info("Clocked in", zap.Uint("user_id", sess.UserID), zap.String("work_day", record.WorkDay))
	return c.JSON(http.StatusCreated, echo.Map{
		"success": "clocked in",
		"record":  record,
	})
}

// ClockOut closes today's open attendance record. The close is conditional
// on the record still being open, so double submissions fail.
func ClockOut(c echo.Context) error {
	log := logger.FromContext(c)
	prometheus.RecordAttendancePunch("out")

	sess, ok := currentSession(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "authentication required"})
	}

	now := time.Now()
	workDay := now.Format("2006-01-02")

	defer prometheus.TrackDBOperation("update")(time.Now())
	result := database.GetDB().Model(&model.AttendanceRecord{}).
		Where("user_id = ? AND work_day = ? AND clock_out_at IS NULL", sess.UserID, workDay).
		Update("clock_out_at", now)
	if result.Error != nil {
		log.Error("Failed to clock out", zap.Error(result.Error))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "try again later"})
	}
	if result.RowsAffected == 0 {
		return c.JSON(http.StatusConflict, echo.Map{"error": "no open attendance record for today"})
	}

	log.Info("Clocked out", zap.Uint("user_id", sess.UserID), zap.String("work_day", workDay))
	return c.JSON(http.StatusOK, echo.Map{"success": "clocked out"})
}

// MyAttendance lists the signed-in user's attendance records, newest first.
func MyAttendance(c echo.Context) error {
	log := logger.FromContext(c)

	sess, ok := currentSession(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "authentication required"})
	}

	defer prometheus.TrackDBOperation("query")(time.Now())
	var records []model.AttendanceRecord
	if err := database.GetDB().Where("user_id = ?", sess.UserID).
		Order("work_day DESC").Limit(31).Find(&records).Error; err != nil {
		log.Error("Failed to list attendance", zap.Error(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "try again later"})
	}

	return c.JSON(http.StatusOK, echo.Map{"data": records})
}
