package handler

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"pms-service/internal/leave"
	"pms-service/pkg/logger"
	"pms-service/prometheus"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
)

const dateLayout = "2006-01-02"

// SubmitLeave files a leave request for the signed-in user.
func SubmitLeave(c echo.Context) error {
	log := logger.FromContext(c)
	prometheus.RecordLeaveOperation("submit")

	sess, ok := currentSession(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "authentication required"})
	}

	var req struct {
		LeaveType string `json:"leave_type" form:"leave_type"`
		StartDate string `json:"start_date" form:"start_date"`
		EndDate   string `json:"end_date" form:"end_date"`
		Reason    string `json:"reason" form:"reason"`
	}

	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request"})
	}

	if req.LeaveType == "" || req.StartDate == "" || req.EndDate == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "leave_type, start_date and end_date are required"})
	}

	start, err := time.Parse(dateLayout, req.StartDate)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "start_date must be YYYY-MM-DD"})
	}
	end, err := time.Parse(dateLayout, req.EndDate)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "end_date must be YYYY-MM-DD"})
	}

	defer prometheus.TrackDBOperation("insert")(time.Now())
	request, err := leaves.Submit(sess.UserID, req.LeaveType, start, end, req.Reason)
	if err != nil {
		if errors.Is(err, leave.ErrInvalidRange) {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "end date must not be before start date"})
		}
		log.Error("Failed to submit leave request", zap.Error(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "submission failed, try again later"})
	}

	log.Info("Leave request submitted",
		zap.Uint("user_id", sess.UserID),
		zap.Uint("request_id", request.ID),
		zap.Int("total_days", request.TotalDays))

	return c.JSON(http.StatusCreated, echo.Map{
		"success": "leave request submitted",
		"request": request,
	})
}

// MyLeave lists the signed-in user's leave requests.
func MyLeave(c echo.Context) error {
	log := logger.FromContext(c)
	prometheus.RecordLeaveOperation("list")

	sess, ok := currentSession(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "authentication required"})
	}

	defer prometheus.TrackDBOperation("query")(time.Now())
	requests, err := leaves.ListForUser(sess.UserID)
	if err != nil {
		log.Error("Failed to list leave requests", zap.Error(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "try again later"})
	}

	return c.JSON(http.StatusOK, echo.Map{"data": requests})
}

// PendingLeave lists undecided requests for approvers.
func PendingLeave(c echo.Context) error {
	log := logger.FromContext(c)
	prometheus.RecordLeaveOperation("list")

	defer prometheus.TrackDBOperation("query")(time.Now())
	requests, err := leaves.ListPending()
	if err != nil {
		log.Error("Failed to list pending leave", zap.Error(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "try again later"})
	}

	return c.JSON(http.StatusOK, echo.Map{"data": requests})
}

// ApproveLeave approves a pending request.
func ApproveLeave(c echo.Context) error {
	log := logger.FromContext(c)
	prometheus.RecordLeaveOperation("approve")

	sess, ok := currentSession(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "authentication required"})
	}

	requestID, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request ID"})
	}

	defer prometheus.TrackDBOperation("update")(time.Now())
	request, err := leaves.Approve(uint(requestID), sess.UserID)
	if err != nil {
		return leaveDecisionError(c, log, err)
	}

	log.Info("Leave request approved",
		zap.Uint("request_id", request.ID),
		zap.Uint("approver_id", sess.UserID))

	return c.JSON(http.StatusOK, echo.Map{
		"success": "leave request approved",
		"request": request,
	})
}

// RejectLeave rejects a pending request with a reason.
func RejectLeave(c echo.Context) error {
	log := logger.FromContext(c)
	prometheus.RecordLeaveOperation("reject")

	sess, ok := currentSession(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "authentication required"})
	}

	requestID, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request ID"})
	}

	var req struct {
		Reason string `json:"reason" form:"reason"`
	}
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request"})
	}
	if req.Reason == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "a rejection reason is required"})
	}

	defer prometheus.TrackDBOperation("update")(time.Now())
	request, err := leaves.Reject(uint(requestID), sess.UserID, req.Reason)
	if err != nil {
		return leaveDecisionError(c, log, err)
	}

	log.Info("Leave request rejected",
		zap.Uint("request_id", request.ID),
		zap.Uint("approver_id", sess.UserID))

	return c.JSON(http.StatusOK, echo.Map{
		"success": "leave request rejected",
		"request": request,
	})
}

func leaveDecisionError(c echo.Context, log *zap.Logger, err error) error {
	switch {
	case errors.Is(err, leave.ErrNotFound):
		return c.JSON(http.StatusNotFound, echo.Map{"error": "leave request not found"})
	case errors.Is(err, leave.ErrNotPending):
		return c.JSON(http.StatusConflict, echo.Map{"error": "leave request has already been decided"})
	default:
		log.Error("Failed to decide leave request", zap.Error(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "try again later"})
	}
}
