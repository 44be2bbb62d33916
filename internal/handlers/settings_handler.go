package handlers

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/BruksfildServices01/jobsite-manager/internal/auth"
	"github.com/BruksfildServices01/jobsite-manager/internal/db"
	"github.com/BruksfildServices01/jobsite-manager/internal/dto"
	"github.com/BruksfildServices01/jobsite-manager/internal/httperr"
	"github.com/BruksfildServices01/jobsite-manager/internal/models"
	"github.com/BruksfildServices01/jobsite-manager/internal/validators"
)

type SettingsHandler struct {
	checkDomains bool
}

func NewSettingsHandler(checkDomains bool) *SettingsHandler {
	return &SettingsHandler{checkDomains: checkDomains}
}

type UpdateSettingsRequest struct {
	FirstName        *string `json:"first_name"`
	LastName         *string `json:"last_name"`
	Phone            *string `json:"phone"`
	Email            *string `json:"email"`
	NotificationPref *string `json:"notification_pref"`
}

type UpdatePasswordRequest struct {
	NewPassword string `json:"new_password"`
}

func (h *SettingsHandler) Get(c *gin.Context, conn *db.Conn, p *auth.Principal) error {
	user, err := loadUser(conn.DB().WithContext(c.Request.Context()), p.ID)
	if err != nil {
		return err
	}
	c.JSON(http.StatusOK, dto.UserFrom(user))
	return nil
}

func (h *SettingsHandler) Update(c *gin.Context, conn *db.Conn, p *auth.Principal) error {
	var req UpdateSettingsRequest
	if err := bindJSON(c, &req); err != nil {
		return err
	}

	tx := conn.DB().WithContext(c.Request.Context())
	user, err := loadUser(tx, p.ID)
	if err != nil {
		return err
	}

	if err := applyProfile(tx, user, req.FirstName, req.LastName, req.Phone, req.Email, h.checkDomains); err != nil {
		return err
	}

	if req.NotificationPref != nil {
		pref := models.NotificationPref(*req.NotificationPref)
		if !pref.Valid() {
			return httperr.Validation("invalid_notification_pref", "notification_pref must be email or none")
		}
		user.NotificationPref = pref
	}

	if err := tx.Save(user).Error; err != nil {
		return err
	}

	c.JSON(http.StatusOK, dto.UserFrom(user))
	return nil
}

// UpdatePassword sets a new hash. Repeating it with the same password is harmless.
func (h *SettingsHandler) UpdatePassword(c *gin.Context, conn *db.Conn, p *auth.Principal) error {
	var req UpdatePasswordRequest
	if err := bindJSON(c, &req); err != nil {
		return err
	}
	if len(req.NewPassword) < auth.MinPasswordLength {
		return httperr.Validation("password_too_short", "Password must be at least 8 characters")
	}

	hash, err := auth.HashPassword(req.NewPassword)
	if err != nil {
		return err
	}

	res := conn.DB().WithContext(c.Request.Context()).
		Model(&models.User{}).
		Where("id = ?", p.ID).
		Update("password_hash", hash)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return httperr.NotFoundErr("user_not_found", "User not found")
	}

	c.JSON(http.StatusOK, gin.H{"message": "Password updated"})
	return nil
}

// --------- Shared ---------

func loadUser(tx *gorm.DB, id uint) (*models.User, error) {
	var user models.User
	err := tx.First(&user, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, httperr.NotFoundErr("user_not_found", "User not found")
	}
	if err != nil {
		return nil, err
	}
	return &user, nil
}

// applyProfile copies the contact fields that were sent onto user.
func applyProfile(tx *gorm.DB, user *models.User, first, last, phone, email *string, checkDomains bool) error {
	if first != nil {
		v := strings.TrimSpace(*first)
		if v == "" {
			return httperr.Validation("first_name_required", "First name is required")
		}
		user.FirstName = v
	}
	if last != nil {
		user.LastName = strings.TrimSpace(*last)
	}
	if phone != nil {
		user.Phone = strings.TrimSpace(*phone)
	}
	if email != nil {
		v := auth.NormalizeEmail(*email)
		if v != user.Email {
			if err := validators.ValidateEmail(v, checkDomains); err != nil {
				return err
			}
			if err := ensureEmailFree(tx, v, user.ID); err != nil {
				return err
			}
			user.Email = v
		}
	}
	return nil
}
