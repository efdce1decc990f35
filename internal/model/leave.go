package model

import (
	"time"

	"gorm.io/gorm"
)

// LeaveStatus is the decision state of a leave request
type LeaveStatus string

const (
	LeavePending  LeaveStatus = "pending"
	LeaveApproved LeaveStatus = "approved"
	LeaveRejected LeaveStatus = "rejected"
)

// Leave types
const (
	LeaveTypeAnnual    = "annual"
	LeaveTypeSick      = "sick"
	LeaveTypeUnpaid    = "unpaid"
	LeaveTypeMaternity = "maternity"
	LeaveTypePersonal  = "personal"
)

// LeaveRequest represents a leave application. Once approved or rejected the
// row is never transitioned again.
type LeaveRequest struct {
	ID              uint           `json:"id" gorm:"primaryKey"`
	UserID          uint           `json:"user_id" gorm:"index;not null"`
	LeaveType       string         `json:"leave_type" gorm:"type:varchar(30);not null"`
	StartDate       time.Time      `json:"start_date" gorm:"type:date;not null"`
	EndDate         time.Time      `json:"end_date" gorm:"type:date;not null"`
	TotalDays       int            `json:"total_days" gorm:"not null;default:1"`
	Reason          string         `json:"reason" gorm:"type:text"`
	Status          LeaveStatus    `json:"status" gorm:"type:varchar(20);default:'pending';index"`
	ApproverID      *uint          `json:"approver_id,omitempty"`
	RejectionReason string         `json:"rejection_reason,omitempty" gorm:"type:text"`
	DecidedAt       *time.Time     `json:"decided_at,omitempty"`
	CreatedAt       time.Time      `json:"created_at"`
	UpdatedAt       time.Time      `json:"updated_at"`
	DeletedAt       gorm.DeletedAt `json:"-" gorm:"index"`
}
