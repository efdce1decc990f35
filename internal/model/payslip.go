package model

import (
	"time"
)

// Payslip stores a generated salary breakdown for one user and period.
// All amounts are in cents.
type Payslip struct {
	ID                  uint      `json:"id" gorm:"primaryKey"`
	UserID              uint      `json:"user_id" gorm:"index:idx_payslips_user_period,unique;not null"`
	Period              string    `json:"period" gorm:"type:varchar(7);index:idx_payslips_user_period,unique;not null"` // YYYY-MM
	Basic               int64     `json:"basic" gorm:"not null"`
	Allowances          int64     `json:"allowances" gorm:"not null"`
	ManagementAllowance int64     `json:"management_allowance" gorm:"not null"`
	Tax                 int64     `json:"tax" gorm:"not null"`
	Insurance           int64     `json:"insurance" gorm:"not null"`
	Other               int64     `json:"other" gorm:"not null"`
	Gross               int64     `json:"gross" gorm:"not null"`
	Deductions          int64     `json:"deductions" gorm:"not null"`
	Net                 int64     `json:"net" gorm:"not null"`
	GeneratedBy         uint      `json:"generated_by"`
	CreatedAt           time.Time `json:"created_at"`
	UpdatedAt           time.Time `json:"updated_at"`
}
