package main

import (
	"pms-service/internal/handler"
	"pms-service/internal/leave"
	"pms-service/internal/mailer"
	"pms-service/internal/middleware"
	"pms-service/internal/model"
	"pms-service/internal/session"
	"pms-service/internal/token"
	"pms-service/pkg/config"
	"pms-service/pkg/database"
	"pms-service/pkg/jwtutil"
	"pms-service/pkg/logger"
	"pms-service/prometheus"

	"github.com/labstack/echo/v4"
	echomiddleware "github.com/labstack/echo/v4/middleware"
	"go.uber.org/zap"
)

func main() {
	// Load configuration from .env file and environment variables
	cfg, err := config.Load()
	if err != nil {
		panic("Failed to load configuration: " + err.Error())
	}

	// Initialize logger with config
	logger.InitLogger(cfg)
	log := logger.GetLogger()
	log.Info("Starting personnel management service...", zap.String("environment", cfg.Server.Env))

	// Initialize database
	if err := database.InitDB(cfg); err != nil {
		log.Fatal("Failed to initialize database", zap.Error(err))
	}
	log.Info("Database connection established")

	// Initialize JWT utility for the remember-me cookie
	jwtutil.Initialize(&cfg.JWT)

	// Initialize Prometheus metrics
	prometheus.InitMetrics(cfg)

	// Wire domain services
	db := database.GetDB()
	sessions := session.NewManager(db, cfg)
	issuer := token.NewIssuer(db)
	leaves := leave.NewService(db)
	mail := mailer.NewLogMailer(log)
	handler.Init(cfg, sessions, issuer, leaves, mail)

	// Initialize Echo framework
	e := echo.New()

	// Apply global middleware - order matters
	e.Use(echomiddleware.Recover())
	e.Use(echomiddleware.CORS())
	e.Use(middleware.RequestIDMiddleware)
	e.Use(logger.Middleware(log))
	e.Use(prometheus.MetricsMiddleware())

	// Public routes - no authentication required
	e.GET("/health", handler.HealthCheck)
	e.GET("/metrics", handler.MetricsHandler)

	// Authentication routes
	auth := e.Group("/auth")
	auth.POST("/sign-in", handler.SignIn)
	auth.POST("/sign-up", handler.SignUp)
	auth.POST("/sign-out", handler.SignOut)
	auth.GET("/verify", handler.Verify)
	auth.POST("/forgot-password", handler.ForgotPassword)
	auth.POST("/reset-password", handler.ResetPassword)

	// Role landing pages
	staffRoles := []model.Role{
		model.RoleVisitor, model.RoleCandidate, model.RoleNewEmployee,
		model.RoleEmployee, model.RoleManager, model.RoleCEO, model.RoleAdmin,
	}
	e.GET("/dashboard", handler.Dashboard, middleware.RequireRoles(sessions, staffRoles...))
	e.GET("/dashboard/visitor", handler.RoleDashboard, middleware.RequireRoles(sessions, model.RoleVisitor))
	e.GET("/dashboard/candidate", handler.RoleDashboard, middleware.RequireRoles(sessions, model.RoleCandidate))
	e.GET("/dashboard/new-employee", handler.RoleDashboard, middleware.RequireRoles(sessions, model.RoleNewEmployee))
	e.GET("/dashboard/employee", handler.RoleDashboard, middleware.RequireRoles(sessions, model.RoleEmployee))
	e.GET("/dashboard/manager", handler.RoleDashboard, middleware.RequireRoles(sessions, model.RoleManager))
	e.GET("/dashboard/ceo", handler.RoleDashboard, middleware.RequireRoles(sessions, model.RoleCEO))
	e.GET("/admin", handler.AdminPanel, middleware.RequireRoles(sessions, model.RoleAdmin))

	// API routes - all require an authenticated session
	api := e.Group("/api", middleware.RequireRoles(sessions, staffRoles...))
	api.POST("/change-password", handler.ChangePassword)

	// Leave management
	api.POST("/leave", handler.SubmitLeave)
	api.GET("/leave", handler.MyLeave)
	approvers := e.Group("/api", middleware.RequireRoles(sessions,
		model.RoleManager, model.RoleCEO, model.RoleAdmin))
	approvers.GET("/leave/pending", handler.PendingLeave)
	approvers.POST("/leave/:id/approve", handler.ApproveLeave)
	approvers.POST("/leave/:id/reject", handler.RejectLeave)

	// Payroll
	api.GET("/payslips", handler.MyPayslips)
	approvers.POST("/payslips/generate", handler.GeneratePayslip)

	// Attendance
	api.POST("/attendance/clock-in", handler.ClockIn)
	api.POST("/attendance/clock-out", handler.ClockOut)
	api.GET("/attendance", handler.MyAttendance)

	// Start server
	port := cfg.Server.Port
	log.Info("Starting server", zap.String("port", port))
	if err := e.Start(":" + port); err != nil {
		log.Fatal("Failed to start server", zap.Error(err))
	}
}
