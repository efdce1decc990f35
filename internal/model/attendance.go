package model

import "time"

// AttendanceRecord stores one clock-in/clock-out pair per user and work day.
// ClockOutAt is nil while the user is clocked in.
type AttendanceRecord struct {
	ID         uint       `json:"id" gorm:"primaryKey"`
	UserID     uint       `json:"user_id" gorm:"index:idx_attendance_user_day,unique;not null"`
	WorkDay    string     `json:"work_day" gorm:"type:varchar(10);index:idx_attendance_user_day,unique;not null"` // YYYY-MM-DD
	ClockInAt  time.Time  `json:"clock_in_at" gorm:"not null"`
	ClockOutAt *time.Time `json:"clock_out_at,omitempty"`
	CreatedAt  time.Time  `json:"created_at"`
	UpdatedAt  time.Time  `json:"updated_at"`
}

func (AttendanceRecord) TableName() string {
	return "attendance_records"
}
