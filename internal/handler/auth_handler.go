package handler

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"pms-service/internal/model"
	"pms-service/pkg/database"
	"pms-service/pkg/logger"
	"pms-service/prometheus"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

// ErrAlreadyActive is returned when activation hits a non-pending account.
var ErrAlreadyActive = errors.New("account already active")

// tokenErrorMessage is the single user-facing message for every token
// failure so the response never reveals whether a token exists.
const tokenErrorMessage = "invalid or expired link"

// SignUp registers a new account in PENDING_VERIFICATION state and emails a
// verification link. Re-registering a still-pending email re-issues the link
// instead of failing.
func SignUp(c echo.Context) error {
	log := logger.FromContext(c)
	prometheus.RegisterCounter.Inc()

	var req struct {
		Email           string `json:"email" form:"email"`
		Password        string `json:"password" form:"password"`
		ConfirmPassword string `json:"confirm_password" form:"confirm_password"`
		FirstName       string `json:"first_name" form:"first_name"`
		LastName        string `json:"last_name" form:"last_name"`
	}

	if err := c.Bind(&req); err != nil {
		log.Error("Failed to parse registration request", zap.Error(err))
		prometheus.RecordAuthError("invalid_request")
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request"})
	}

	req.Email = strings.ToLower(strings.TrimSpace(req.Email))

	if req.Email == "" || req.Password == "" {
		prometheus.RecordAuthError("incomplete_registration")
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "email and password are required"})
	}
	if !strings.Contains(req.Email, "@") {
		prometheus.RecordAuthError("invalid_email")
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "a valid email address is required"})
	}
	if len(req.Password) < 8 {
		prometheus.RecordAuthError("weak_password")
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "password must be at least 8 characters"})
	}
	if req.Password != req.ConfirmPassword {
		prometheus.RecordAuthError("password_mismatch")
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "passwords do not match"})
	}

	if !cfg.Auth.DomainAllowed(req.Email) {
		log.Warn("Registration domain not allowed", zap.String("email", req.Email))
		prometheus.RecordAuthError("domain_not_allowed")
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "registration is limited to approved email domains"})
	}

	defer prometheus.TrackDBOperation("query")(time.Now())
	var existing model.User
	result := database.GetDB().Where("email = ?", req.Email).First(&existing)
	if result.Error == nil {
		if existing.Status == model.StatusPendingVerification {
			// Pending account: re-issue the verification link rather than
			// destroying the registration attempt.
			if err := sendVerificationEmail(c, &existing); err != nil {
				log.Error("Failed to re-issue verification token", zap.Error(err))
				prometheus.RecordAuthError("token_issue_failed")
				return c.JSON(http.StatusInternalServerError, echo.Map{"error": "registration failed, try again later"})
			}
			log.Info("Verification link re-issued for pending account", zap.String("email", req.Email))
			return c.JSON(http.StatusOK, echo.Map{
				"success": "a new verification link has been sent to your email",
			})
		}
		log.Warn("User already exists", zap.String("email", req.Email))
		prometheus.RecordAuthError("email_already_exists")
		return c.JSON(http.StatusConflict, echo.Map{"error": "email already registered"})
	}
	if !errors.Is(result.Error, gorm.ErrRecordNotFound) {
		log.Error("Failed to check existing user", zap.Error(result.Error))
		prometheus.RecordAuthError("db_error")
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "registration failed, try again later"})
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(req.Password), cfg.Auth.BcryptCost)
	if err != nil {
		log.Error("Failed to hash password", zap.Error(err))
		prometheus.RecordAuthError("password_hash_failed")
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "registration failed, try again later"})
	}

	user := model.User{
		Email:        req.Email,
		PasswordHash: string(hashedPassword),
		FirstName:    strings.TrimSpace(req.FirstName),
		LastName:     strings.TrimSpace(req.LastName),
		Role:         model.RoleVisitor,
		Status:       model.StatusPendingVerification,
	}

	defer prometheus.TrackDBOperation("insert")(time.Now())
	if result := database.GetDB().Create(&user); result.Error != nil {
		log.Error("Failed to create user", zap.Error(result.Error))
		prometheus.RecordAuthError("user_creation_failed")
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "registration failed, try again later"})
	}

	if err := sendVerificationEmail(c, &user); err != nil {
		log.Error("Failed to issue verification token", zap.Error(err))
		prometheus.RecordAuthError("token_issue_failed")
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "registration failed, try again later"})
	}

	log.Info("User registered", zap.String("email", user.Email))
	return c.JSON(http.StatusCreated, echo.Map{
		"success": "registration received, check your email for a verification link",
		"user": map[string]interface{}{
			"id":    user.ID,
			"email": user.Email,
		},
	})
}

// SignIn validates credentials and establishes a session. Every credential
// failure gets the same response so accounts cannot be enumerated.
func SignIn(c echo.Context) error {
	log := logger.FromContext(c)
	prometheus.LoginCounter.Inc()

	// Already signed in: bounce to the role's landing page.
	if sess, err := sessions.Current(c); err == nil {
		return c.JSON(http.StatusOK, echo.Map{
			"success":  "already signed in",
			"redirect": sess.Role.LandingPath(),
		})
	}

	var req struct {
		Email    string `json:"email" form:"email"`
		Password string `json:"password" form:"password"`
		Remember bool   `json:"remember" form:"remember"`
	}

	if err := c.Bind(&req); err != nil {
		log.Error("Failed to parse login request", zap.Error(err))
		prometheus.RecordAuthError("invalid_request")
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request"})
	}

	req.Email = strings.ToLower(strings.TrimSpace(req.Email))

	defer prometheus.TrackDBOperation("query")(time.Now())
	var user model.User
	result := database.GetDB().Where("email = ?", req.Email).First(&user)
	if result.Error != nil {
		log.Warn("User not found", zap.String("email", req.Email))
		prometheus.RecordAuthError("user_not_found")
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid credentials"})
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.Password)); err != nil {
		log.Warn("Invalid password", zap.String("email", req.Email))
		prometheus.RecordAuthError("invalid_password")
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid credentials"})
	}

	if user.Status != model.StatusActive {
		log.Warn("Sign-in on non-active account",
			zap.String("email", req.Email),
			zap.String("status", string(user.Status)))
		prometheus.RecordAuthError("account_not_active")
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid credentials"})
	}

	_, err := sessions.Start(c, &user, req.Remember)
	if err != nil {
		log.Error("Failed to start session", zap.Error(err))
		prometheus.RecordAuthError("session_start_failed")
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "sign-in failed, try again later"})
	}
	prometheus.IncreaseActiveSessions()

	log.Info("User signed in",
		zap.String("email", user.Email),
		zap.String("role", string(user.Role)))

	return c.JSON(http.StatusOK, echo.Map{
		"success":  "signed in",
		"redirect": user.Role.LandingPath(),
		"user": map[string]interface{}{
			"id":           user.ID,
			"email":        user.Email,
			"display_name": user.DisplayName(),
			"role":         user.Role,
		},
	})
}

// SignOut destroys the session and clears both cookies.
func SignOut(c echo.Context) error {
	log := logger.FromContext(c)
	prometheus.RecordAuthOperation("sign_out")

	if err := sessions.End(c); err != nil {
		log.Error("Failed to end session", zap.Error(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "sign-out failed, try again later"})
	}
	prometheus.DecreaseActiveSessions()

	return c.Redirect(http.StatusFound, "/auth/sign-in")
}

// Verify consumes an email verification token and activates the account.
// No session is required; the token alone proves control of the mailbox.
func Verify(c echo.Context) error {
	log := logger.FromContext(c)
	prometheus.VerificationCounter.Inc()

	tokenValue := c.QueryParam("token")
	if tokenValue == "" {
		prometheus.RecordAuthError("missing_token")
		return c.JSON(http.StatusBadRequest, echo.Map{"error": tokenErrorMessage})
	}

	userID, err := issuer.Consume(tokenValue, model.PurposeEmailVerification)
	if err != nil {
		log.Warn("Verification token rejected", zap.Error(err))
		prometheus.RecordAuthError("invalid_token")
		return c.JSON(http.StatusBadRequest, echo.Map{"error": tokenErrorMessage})
	}

	if err := activateUser(userID); err != nil {
		if errors.Is(err, ErrAlreadyActive) {
			return c.JSON(http.StatusConflict, echo.Map{"error": "account already verified"})
		}
		log.Error("Failed to activate user", zap.Uint("user_id", userID), zap.Error(err))
		prometheus.RecordAuthError("activation_failed")
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "verification failed, try again later"})
	}

	log.Info("Email verified", zap.Uint("user_id", userID))
	return c.JSON(http.StatusOK, echo.Map{
		"success":  "email verified, you can now sign in",
		"redirect": "/auth/sign-in",
	})
}

// ForgotPassword issues a reset token when the account exists. The response
// is the same either way.
func ForgotPassword(c echo.Context) error {
	log := logger.FromContext(c)
	prometheus.RecordPasswordReset("request")

	var req struct {
		Email string `json:"email" form:"email"`
	}

	if err := c.Bind(&req); err != nil {
		prometheus.RecordAuthError("invalid_request")
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request"})
	}

	req.Email = strings.ToLower(strings.TrimSpace(req.Email))
	if req.Email == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "email is required"})
	}

	genericResponse := echo.Map{
		"success": "if an account exists for that address, a reset link has been sent",
		"step":    "reset",
	}

	defer prometheus.TrackDBOperation("query")(time.Now())
	var user model.User
	if err := database.GetDB().Where("email = ?", req.Email).First(&user).Error; err != nil {
		log.Info("Password reset requested for unknown email", zap.String("email", req.Email))
		return c.JSON(http.StatusOK, genericResponse)
	}

	tok, err := issuer.Issue(model.PurposePasswordReset, user.ID, cfg.Token.PasswordResetTTL)
	if err != nil {
		log.Error("Failed to issue reset token", zap.Error(err))
		prometheus.RecordAuthError("token_issue_failed")
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "request failed, try again later"})
	}

	link := fmt.Sprintf("%s/auth/reset-password?step=reset&token=%s", cfg.Server.BaseURL, tok.Token)
	if err := mail.Send(user.Email, "Reset your password",
		"Use the following link within one hour to reset your password: "+link); err != nil {
		log.Error("Failed to send reset email", zap.Error(err))
		prometheus.RecordAuthError("mail_send_failed")
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "request failed, try again later"})
	}

	log.Info("Password reset link issued", zap.Uint("user_id", user.ID))
	return c.JSON(http.StatusOK, genericResponse)
}

// ResetPassword consumes a reset token and stores the new password hash.
// Every live session of the user is revoked afterwards.
func ResetPassword(c echo.Context) error {
	log := logger.FromContext(c)
	prometheus.RecordPasswordReset("reset")

	var req struct {
		Token           string `json:"token" form:"token"`
		NewPassword     string `json:"new_password" form:"new_password"`
		ConfirmPassword string `json:"confirm_password" form:"confirm_password"`
	}

	if err := c.Bind(&req); err != nil {
		prometheus.RecordAuthError("invalid_request")
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request"})
	}

	if req.Token == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": tokenErrorMessage})
	}
	if len(req.NewPassword) < 8 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "password must be at least 8 characters"})
	}
	if req.NewPassword != req.ConfirmPassword {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "passwords do not match"})
	}

	userID, err := issuer.Consume(req.Token, model.PurposePasswordReset)
	if err != nil {
		log.Warn("Reset token rejected", zap.Error(err))
		prometheus.RecordAuthError("invalid_token")
		return c.JSON(http.StatusBadRequest, echo.Map{"error": tokenErrorMessage})
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(req.NewPassword), cfg.Auth.BcryptCost)
	if err != nil {
		log.Error("Failed to hash password", zap.Error(err))
		prometheus.RecordAuthError("password_hash_failed")
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "reset failed, try again later"})
	}

	defer prometheus.TrackDBOperation("update")(time.Now())
	if err := database.GetDB().Model(&model.User{}).Where("id = ?", userID).
		Update("password_hash", string(hashedPassword)).Error; err != nil {
		log.Error("Failed to update password", zap.Error(err))
		prometheus.RecordAuthError("password_update_failed")
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "reset failed, try again later"})
	}

	// The reset flow runs without a session, so nothing is kept.
	if err := sessions.RevokeOthers(userID, ""); err != nil {
		log.Error("Failed to revoke sessions after reset", zap.Error(err))
	}

	log.Info("Password reset", zap.Uint("user_id", userID))
	return c.JSON(http.StatusOK, echo.Map{
		"success":  "password updated, sign in with your new password",
		"redirect": "/auth/sign-in",
	})
}

// ChangePassword updates the password for the signed-in user and revokes the
// user's other sessions; the current one stays valid.
func ChangePassword(c echo.Context) error {
	log := logger.FromContext(c)
	prometheus.RecordAuthOperation("password_change")

	sess, ok := currentSession(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "authentication required"})
	}

	var req struct {
		CurrentPassword string `json:"current_password" form:"current_password"`
		NewPassword     string `json:"new_password" form:"new_password"`
		ConfirmPassword string `json:"confirm_password" form:"confirm_password"`
	}

	if err := c.Bind(&req); err != nil {
		prometheus.RecordAuthError("invalid_request")
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request"})
	}

	if len(req.NewPassword) < 8 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "password must be at least 8 characters"})
	}
	if req.NewPassword != req.ConfirmPassword {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "passwords do not match"})
	}

	defer prometheus.TrackDBOperation("query")(time.Now())
	var user model.User
	if err := database.GetDB().First(&user, sess.UserID).Error; err != nil {
		log.Error("Failed to load user", zap.Error(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "change failed, try again later"})
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.CurrentPassword)); err != nil {
		prometheus.RecordAuthError("invalid_password")
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "current password is incorrect"})
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(req.NewPassword), cfg.Auth.BcryptCost)
	if err != nil {
		log.Error("Failed to hash password", zap.Error(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "change failed, try again later"})
	}

	if err := database.GetDB().Model(&model.User{}).Where("id = ?", user.ID).
		Update("password_hash", string(hashedPassword)).Error; err != nil {
		log.Error("Failed to update password", zap.Error(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "change failed, try again later"})
	}

	if err := sessions.RevokeOthers(user.ID, sess.ID); err != nil {
		log.Error("Failed to revoke other sessions", zap.Error(err))
	}

	log.Info("Password changed", zap.Uint("user_id", user.ID))
	return c.JSON(http.StatusOK, echo.Map{"success": "password changed"})
}

// activateUser transitions a pending account to active. The transition is
// conditional on the current status so repeating it fails cleanly.
func activateUser(userID uint) error {
	result := database.GetDB().Model(&model.User{}).
		Where("id = ? AND status = ?", userID, model.StatusPendingVerification).
		Updates(map[string]interface{}{
			"status":         model.StatusActive,
			"email_verified": true,
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrAlreadyActive
	}
	return nil
}

func sendVerificationEmail(c echo.Context, user *model.User) error {
	tok, err := issuer.Issue(model.PurposeEmailVerification, user.ID, cfg.Token.VerificationTTL)
	if err != nil {
		return err
	}
	link := fmt.Sprintf("%s/auth/verify?token=%s", cfg.Server.BaseURL, tok.Token)
	return mail.Send(user.Email, "Verify your email address",
		"Welcome! Confirm your email within 24 hours using this link: "+link)
}

func currentSession(c echo.Context) (*model.Session, bool) {
	sess, ok := c.Get("session").(*model.Session)
	return sess, ok
}
