package handlers

import (
	"crypto/subtle"
	"errors"
	"net/http"
	"net/url"
	"strings"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/BruksfildServices01/jobsite-manager/internal/auth"
	"github.com/BruksfildServices01/jobsite-manager/internal/db"
	"github.com/BruksfildServices01/jobsite-manager/internal/dto"
	"github.com/BruksfildServices01/jobsite-manager/internal/httperr"
	"github.com/BruksfildServices01/jobsite-manager/internal/invite"
	"github.com/BruksfildServices01/jobsite-manager/internal/logger"
	"github.com/BruksfildServices01/jobsite-manager/internal/mailer"
	"github.com/BruksfildServices01/jobsite-manager/internal/models"
	"github.com/BruksfildServices01/jobsite-manager/internal/ratelimit"
	"github.com/BruksfildServices01/jobsite-manager/internal/validators"
)

type AuthHandler struct {
	sessions     *auth.Sessions
	tokens       *auth.Tokens
	limiter      ratelimit.Limiter
	mailer       mailer.Mailer
	appURL       string
	checkDomains bool
	secureCookie bool
	log          logger.Logger
}

type AuthHandlerConfig struct {
	Sessions     *auth.Sessions
	Tokens       *auth.Tokens
	Limiter      ratelimit.Limiter
	Mailer       mailer.Mailer
	AppURL       string
	CheckDomains bool
	SecureCookie bool
	Log          logger.Logger
}

func NewAuthHandler(cfg AuthHandlerConfig) *AuthHandler {
	limiter := cfg.Limiter
	if limiter == nil {
		limiter = ratelimit.Nop{}
	}
	return &AuthHandler{
		sessions:     cfg.Sessions,
		tokens:       cfg.Tokens,
		limiter:      limiter,
		mailer:       cfg.Mailer,
		appURL:       cfg.AppURL,
		checkDomains: cfg.CheckDomains,
		secureCookie: cfg.SecureCookie,
		log:          cfg.Log,
	}
}

// --------- Requests ---------

type RegisterRequest struct {
	FirstName  string `json:"first_name"`
	LastName   string `json:"last_name"`
	Email      string `json:"email"`
	Phone      string `json:"phone"`
	Password   string `json:"password"`
	InviteCode string `json:"invite_code"`
}

type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type ForgotPasswordRequest struct {
	Email string `json:"email"`
}

type ResetPasswordRequest struct {
	Token    string `json:"token"`
	Password string `json:"password"`
}

// --------- Handlers ---------

func (h *AuthHandler) Login(c *gin.Context, conn *db.Conn) error {
	var req LoginRequest
	if err := bindJSON(c, &req); err != nil {
		return err
	}
	if req.Email == "" || req.Password == "" {
		return httperr.Validation("missing_credentials", "Email and password are required")
	}

	ctx := c.Request.Context()
	key := auth.NormalizeEmail(req.Email) + "|" + c.ClientIP()

	allowed, err := h.limiter.Allow(ctx, key)
	if err != nil {
		// an unavailable limiter does not lock everyone out
		h.log.WithField("error", err.Error()).Warn("login rate limiter unavailable")
		allowed = true
	}
	if !allowed {
		return httperr.New(http.StatusTooManyRequests, "too_many_attempts", "Too many login attempts, try again later")
	}

	p, err := auth.Authenticate(ctx, conn.DB(), req.Email, req.Password)
	if errors.Is(err, auth.ErrInvalidCredentials) {
		return httperr.New(http.StatusUnauthorized, "invalid_credentials", "Invalid credentials")
	}
	if err != nil {
		return err
	}

	_ = h.limiter.Reset(ctx, key)

	token, err := h.sessions.Issue(p)
	if err != nil {
		return err
	}

	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(auth.SessionCookie, token, int(h.sessions.TTL().Seconds()), "/", "", h.secureCookie, true)

	c.JSON(http.StatusOK, gin.H{
		"token": token,
		"user":  p,
	})
	return nil
}

func (h *AuthHandler) Logout(c *gin.Context) {
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(auth.SessionCookie, "", -1, "/", "", h.secureCookie, true)
	c.Status(http.StatusNoContent)
}

// Register creates a Staff account for holders of the current invite code.
func (h *AuthHandler) Register(c *gin.Context, conn *db.Conn) error {
	var req RegisterRequest
	if err := bindJSON(c, &req); err != nil {
		return err
	}

	req.FirstName = strings.TrimSpace(req.FirstName)
	email := auth.NormalizeEmail(req.Email)
	code := strings.ToUpper(strings.TrimSpace(req.InviteCode))

	if req.FirstName == "" {
		return httperr.Validation("first_name_required", "First name is required")
	}
	if err := validators.ValidateEmail(email, h.checkDomains); err != nil {
		return err
	}
	if len(req.Password) < auth.MinPasswordLength {
		return httperr.Validation("password_too_short", "Password must be at least 8 characters")
	}
	if code == "" {
		return httperr.Validation("invite_code_required", "Invite code is required")
	}
	if !invite.Valid(code) {
		return httperr.Validation("invalid_invite_code", "Invalid invite code")
	}

	tx := conn.DB().WithContext(c.Request.Context())

	current, err := invite.Current(c.Request.Context(), tx)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return httperr.Validation("invalid_invite_code", "Invalid invite code")
	}
	if err != nil {
		return err
	}
	if subtle.ConstantTimeCompare([]byte(current.Code), []byte(code)) != 1 {
		return httperr.Validation("invalid_invite_code", "Invalid invite code")
	}

	if err := ensureEmailFree(tx, email, 0); err != nil {
		return err
	}

	hash, err := auth.HashPassword(req.Password)
	if err != nil {
		return err
	}

	user := models.User{
		FirstName:        req.FirstName,
		LastName:         strings.TrimSpace(req.LastName),
		Email:            email,
		Phone:            strings.TrimSpace(req.Phone),
		PasswordHash:     hash,
		Type:             models.UserTypeStaff,
		NotificationPref: models.NotifyEmail,
	}
	if err := tx.Create(&user).Error; err != nil {
		return err
	}

	c.JSON(http.StatusCreated, dto.UserFrom(&user))
	return nil
}

// ForgotPassword always answers 200 so it cannot be used to probe for accounts.
func (h *AuthHandler) ForgotPassword(c *gin.Context, conn *db.Conn) error {
	var req ForgotPasswordRequest
	if err := bindJSON(c, &req); err != nil {
		return err
	}

	ctx := c.Request.Context()
	email := auth.NormalizeEmail(req.Email)

	var user models.User
	err := conn.DB().WithContext(ctx).Where("email = ?", email).First(&user).Error
	switch {
	case err == nil:
		if err := sendPasswordLink(c, h.mailer, h.tokens, h.appURL, &user, false); err != nil {
			h.log.WithFields(map[string]interface{}{
				"user_id": user.ID,
				"error":   err.Error(),
			}).Error("failed to send password reset email")
		}
	case !errors.Is(err, gorm.ErrRecordNotFound):
		return err
	}

	c.JSON(http.StatusOK, gin.H{"message": "If the account exists, a reset link has been sent"})
	return nil
}

func (h *AuthHandler) ResetPassword(c *gin.Context, conn *db.Conn) error {
	var req ResetPasswordRequest
	if err := bindJSON(c, &req); err != nil {
		return err
	}

	email, err := h.tokens.Verify(req.Token, auth.PurposePasswordReset)
	if err != nil {
		return httperr.Validation("invalid_token", "Invalid or expired token")
	}
	if len(req.Password) < auth.MinPasswordLength {
		return httperr.Validation("password_too_short", "Password must be at least 8 characters")
	}

	hash, err := auth.HashPassword(req.Password)
	if err != nil {
		return err
	}

	res := conn.DB().WithContext(c.Request.Context()).
		Model(&models.User{}).
		Where("email = ?", email).
		Update("password_hash", hash)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return httperr.Validation("invalid_token", "Invalid or expired token")
	}

	c.JSON(http.StatusOK, gin.H{"message": "Password updated"})
	return nil
}

// Unsubscribe turns off notification emails for the token's address.
func (h *AuthHandler) Unsubscribe(c *gin.Context, conn *db.Conn) error {
	email, err := h.tokens.Verify(c.Query("token"), auth.PurposeUnsubscribe)
	if err != nil {
		return httperr.Validation("invalid_token", "Invalid or expired token")
	}

	if err := conn.DB().WithContext(c.Request.Context()).
		Model(&models.User{}).
		Where("email = ?", email).
		Update("notification_pref", models.NotifyNone).Error; err != nil {
		return err
	}

	c.JSON(http.StatusOK, gin.H{"message": "You have been unsubscribed"})
	return nil
}

// --------- Shared ---------

func ensureEmailFree(tx *gorm.DB, email string, exceptID uint) error {
	var count int64
	q := tx.Model(&models.User{}).Where("email = ?", email)
	if exceptID != 0 {
		q = q.Where("id <> ?", exceptID)
	}
	if err := q.Count(&count).Error; err != nil {
		return err
	}
	if count > 0 {
		return httperr.Validation("email_in_use", "Email already in use")
	}
	return nil
}

func sendPasswordLink(
	c *gin.Context,
	m mailer.Mailer,
	tokens *auth.Tokens,
	appURL string,
	user *models.User,
	welcome bool,
) error {
	token, err := tokens.Issue(user.Email, auth.PurposePasswordReset)
	if err != nil {
		return err
	}
	link := appURL + "/reset-password?token=" + url.QueryEscape(token)
	return m.Send(c.Request.Context(), mailer.PasswordResetMessage(user.Email, user.FirstName, link, welcome))
}
