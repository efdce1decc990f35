// Package payroll computes salary breakdowns. Amounts are fixed-point with
// two decimal places, carried as int64 cents; floats never touch money.
package payroll

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"pms-service/internal/model"
)

// ErrInvalidAmount is returned when a monetary string cannot be parsed.
var ErrInvalidAmount = errors.New("invalid monetary amount")

// Money is an amount in cents.
type Money int64

// ParseMoney parses a decimal string like "80000" or "8625.50" into cents.
// At most two decimal places are accepted.
func ParseMoney(s string) (Money, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, ErrInvalidAmount
	}

	negative := false
	if strings.HasPrefix(s, "-") {
		negative = true
		s = s[1:]
	}

	wholePart := s
	fracPart := ""
	if dot := strings.IndexByte(s, '.'); dot >= 0 {
		wholePart = s[:dot]
		fracPart = s[dot+1:]
	}
	if wholePart == "" && fracPart == "" {
		return 0, ErrInvalidAmount
	}
	if wholePart == "" {
		wholePart = "0"
	}
	if len(fracPart) > 2 {
		return 0, ErrInvalidAmount
	}
	for len(fracPart) < 2 {
		fracPart += "0"
	}

	whole, err := strconv.ParseInt(wholePart, 10, 64)
	if err != nil {
		return 0, ErrInvalidAmount
	}
	frac, err := strconv.ParseInt(fracPart, 10, 64)
	if err != nil {
		return 0, ErrInvalidAmount
	}

	cents := whole*100 + frac
	if negative {
		cents = -cents
	}
	return Money(cents), nil
}

// String renders the amount with exactly two decimal places.
func (m Money) String() string {
	cents := int64(m)
	sign := ""
	if cents < 0 {
		sign = "-"
		cents = -cents
	}
	return fmt.Sprintf("%s%d.%02d", sign, cents/100, cents%100)
}

// Breakdown is a computed payslip: gross earnings, total deductions, net pay.
type Breakdown struct {
	Basic               Money `json:"basic"`
	Allowances          Money `json:"allowances"`
	ManagementAllowance Money `json:"management_allowance"`
	Tax                 Money `json:"tax"`
	Insurance           Money `json:"insurance"`
	Other               Money `json:"other"`
	Gross               Money `json:"gross"`
	Deductions          Money `json:"deductions"`
	Net                 Money `json:"net"`
}

// Compute derives gross, deductions, and net from the salary components.
func Compute(basic, allowances, managementAllowance, tax, insurance, other Money) Breakdown {
	gross := basic + allowances + managementAllowance
	deductions := tax + insurance + other
	return Breakdown{
		Basic:               basic,
		Allowances:          allowances,
		ManagementAllowance: managementAllowance,
		Tax:                 tax,
		Insurance:           insurance,
		Other:               other,
		Gross:               gross,
		Deductions:          deductions,
		Net:                 gross - deductions,
	}
}

// ComponentsForRole returns the default salary components for a role.
// Management allowance only applies to managers and above.
func ComponentsForRole(role model.Role) (basic, allowances, managementAllowance, tax, insurance, other Money) {
	switch role {
	case model.RoleManager, model.RoleCEO:
		return 80000_00, 20000_00, 15000_00, 8625_00, 1500_00, 1000_00
	case model.RoleEmployee:
		return 60000_00, 12000_00, 0, 5400_00, 1200_00, 800_00
	case model.RoleNewEmployee:
		return 45000_00, 8000_00, 0, 3975_00, 900_00, 500_00
	default:
		return 0, 0, 0, 0, 0, 0
	}
}
