package handler

import (
	"net/http"
	"strings"
	"time"

	"pms-service/internal/model"
	"pms-service/internal/payroll"
	"pms-service/pkg/database"
	"pms-service/pkg/logger"
	"pms-service/prometheus"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
)

// GeneratePayslip computes and stores a payslip for a user and period. The
// components default from the target user's role; any component supplied in
// the request overrides the default.
func GeneratePayslip(c echo.Context) error {
	log := logger.FromContext(c)
	prometheus.PayslipCounter.Inc()

	sess, ok := currentSession(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "authentication required"})
	}

	var req struct {
		UserID              uint   `json:"user_id" form:"user_id"`
		Period              string `json:"period" form:"period"`
		Basic               string `json:"basic,omitempty" form:"basic"`
		Allowances          string `json:"allowances,omitempty" form:"allowances"`
		ManagementAllowance string `json:"management_allowance,omitempty" form:"management_allowance"`
		Tax                 string `json:"tax,omitempty" form:"tax"`
		Insurance           string `json:"insurance,omitempty" form:"insurance"`
		Other               string `json:"other,omitempty" form:"other"`
	}

	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request"})
	}

	if req.UserID == 0 || req.Period == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "user_id and period are required"})
	}
	if _, err := time.Parse("2006-01", req.Period); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "period must be YYYY-MM"})
	}

	defer prometheus.TrackDBOperation("query")(time.Now())
	var target model.User
	if err := database.GetDB().First(&target, req.UserID).Error; err != nil {
		return c.JSON(http.StatusNotFound, echo.Map{"error": "user not found"})
	}

	basic, allowances, management, tax, insurance, other := payroll.ComponentsForRole(target.Role)
	overrides := []struct {
		value string
		dst   *payroll.Money
	}{
		{req.Basic, &basic},
		{req.Allowances, &allowances},
		{req.ManagementAllowance, &management},
		{req.Tax, &tax},
		{req.Insurance, &insurance},
		{req.Other, &other},
	}
	for _, o := range overrides {
		if o.value == "" {
			continue
		}
		amount, err := payroll.ParseMoney(o.value)
		if err != nil {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "amounts must be decimal values with at most two decimal places"})
		}
		*o.dst = amount
	}

	breakdown := payroll.Compute(basic, allowances, management, tax, insurance, other)

	slip := model.Payslip{
		UserID:              target.ID,
		Period:              req.Period,
		Basic:               int64(breakdown.Basic),
		Allowances:          int64(breakdown.Allowances),
		ManagementAllowance: int64(breakdown.ManagementAllowance),
		Tax:                 int64(breakdown.Tax),
		Insurance:           int64(breakdown.Insurance),
		Other:               int64(breakdown.Other),
		Gross:               int64(breakdown.Gross),
		Deductions:          int64(breakdown.Deductions),
		Net:                 int64(breakdown.Net),
		GeneratedBy:         sess.UserID,
	}

	defer prometheus.TrackDBOperation("insert")(time.Now())
	if err := database.GetDB().Create(&slip).Error; err != nil {
		if strings.Contains(err.Error(), "duplicate") || strings.Contains(err.Error(), "unique") {
			return c.JSON(http.StatusConflict, echo.Map{"error": "payslip already generated for that user and period"})
		}
		log.Error("Failed to store payslip", zap.Error(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "generation failed, try again later"})
	}

	log.Info("Payslip generated",
		zap.Uint("user_id", target.ID),
		zap.String("period", req.Period),
		zap.String("net", breakdown.Net.String()))

	return c.JSON(http.StatusCreated, echo.Map{
		"success":   "payslip generated",
		"breakdown": formatBreakdown(&slip),
	})
}

// MyPayslips lists the signed-in user's payslips, newest period first.
func MyPayslips(c echo.Context) error {
	log := logger.FromContext(c)

	sess, ok := currentSession(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "authentication required"})
	}

	defer prometheus.TrackDBOperation("query")(time.Now())
	var slips []model.Payslip
	if err := database.GetDB().Where("user_id = ?", sess.UserID).
		Order("period DESC").Find(&slips).Error; err != nil {
		log.Error("Failed to list payslips", zap.Error(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "try again later"})
	}

	formatted := make([]echo.Map, 0, len(slips))
	for i := range slips {
		formatted = append(formatted, formatBreakdown(&slips[i]))
	}

	return c.JSON(http.StatusOK, echo.Map{"data": formatted})
}

// formatBreakdown renders the stored cent amounts as two-decimal strings.
func formatBreakdown(slip *model.Payslip) echo.Map {
	return echo.Map{
		"user_id":              slip.UserID,
		"period":               slip.Period,
		"basic":                payroll.Money(slip.Basic).String(),
		"allowances":           payroll.Money(slip.Allowances).String(),
		"management_allowance": payroll.Money(slip.ManagementAllowance).String(),
		"tax":                  payroll.Money(slip.Tax).String(),
		"insurance":            payroll.Money(slip.Insurance).String(),
		"other":                payroll.Money(slip.Other).String(),
		"gross":                payroll.Money(slip.Gross).String(),
		"deductions":           payroll.Money(slip.Deductions).String(),
		"net":                  payroll.Money(slip.Net).String(),
	}
}
