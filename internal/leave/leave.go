// Package leave implements leave request submission, day counting, and the
// pending -> approved/rejected decision transitions.
package leave

import (
	"errors"
	"time"

	"pms-service/internal/model"

	"gorm.io/gorm"
)

var (
	ErrInvalidRange = errors.New("end date before start date")
	ErrNotPending   = errors.New("leave request already decided")
	ErrNotFound     = errors.New("leave request not found")
)

// TotalDays returns the inclusive day count of the span, so a single-day
// leave counts as 1.
func TotalDays(start, end time.Time) (int, error) {
	startDay := start.Truncate(24 * time.Hour)
	endDay := end.Truncate(24 * time.Hour)
	if endDay.Before(startDay) {
		return 0, ErrInvalidRange
	}
	return int(endDay.Sub(startDay).Hours()/24) + 1, nil
}

// Service handles leave requests against the leave_requests table.
type Service struct {
	db *gorm.DB
}

// NewService constructs a Service on the given database handle.
func NewService(db *gorm.DB) *Service {
	return &Service{db: db}
}

// Submit validates the span and stores a pending request.
func (s *Service) Submit(userID uint, leaveType string, start, end time.Time, reason string) (*model.LeaveRequest, error) {
	days, err := TotalDays(start, end)
	if err != nil {
		return nil, err
	}

	req := &model.LeaveRequest{
		UserID:    userID,
		LeaveType: leaveType,
		StartDate: start,
		EndDate:   end,
		TotalDays: days,
		Reason:    reason,
		Status:    model.LeavePending,
	}
	if err := s.db.Create(req).Error; err != nil {
		return nil, err
	}
	return req, nil
}

// Approve transitions the request from pending to approved. The transition is
// a single conditional update guarded on the current status, so a request
// decided in another tab fails with ErrNotPending instead of being rewritten.
func (s *Service) Approve(requestID, approverID uint) (*model.LeaveRequest, error) {
	return s.decide(requestID, approverID, model.LeaveApproved, "")
}

// Reject transitions the request from pending to rejected, storing the reason.
func (s *Service) Reject(requestID, approverID uint, reason string) (*model.LeaveRequest, error) {
	return s.decide(requestID, approverID, model.LeaveRejected, reason)
}

func (s *Service) decide(requestID, approverID uint, status model.LeaveStatus, rejectionReason string) (*model.LeaveRequest, error) {
	now := time.Now()
	updates := map[string]interface{}{
		"status":      status,
		"approver_id": approverID,
		"decided_at":  now,
	}
	if status == model.LeaveRejected {
		updates["rejection_reason"] = rejectionReason
	}

	result := s.db.Model(&model.LeaveRequest{}).
		Where("id = ? AND status = ?", requestID, model.LeavePending).
		Updates(updates)
	if result.Error != nil {
		return nil, result.Error
	}

	if result.RowsAffected == 0 {
		var req model.LeaveRequest
		err := s.db.First(&req, requestID).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		if err != nil {
			return nil, err
		}
		return nil, ErrNotPending
	}

	var req model.LeaveRequest
	if err := s.db.First(&req, requestID).Error; err != nil {
		return nil, err
	}
	return &req, nil
}

// ListForUser returns the user's requests, newest first.
func (s *Service) ListForUser(userID uint) ([]model.LeaveRequest, error) {
	var requests []model.LeaveRequest
	err := s.db.Where("user_id = ?", userID).Order("created_at DESC").Find(&requests).Error
	return requests, err
}

// ListPending returns all undecided requests, oldest first.
func (s *Service) ListPending() ([]model.LeaveRequest, error) {
	var requests []model.LeaveRequest
	err := s.db.Where("status = ?", model.LeavePending).Order("created_at ASC").Find(&requests).Error
	return requests, err
}
