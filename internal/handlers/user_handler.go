package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/BruksfildServices01/jobsite-manager/internal/audit"
	"github.com/BruksfildServices01/jobsite-manager/internal/auth"
	"github.com/BruksfildServices01/jobsite-manager/internal/db"
	"github.com/BruksfildServices01/jobsite-manager/internal/dto"
	"github.com/BruksfildServices01/jobsite-manager/internal/httperr"
	"github.com/BruksfildServices01/jobsite-manager/internal/httpresp"
	"github.com/BruksfildServices01/jobsite-manager/internal/models"
	ucUser "github.com/BruksfildServices01/jobsite-manager/internal/usecase/user"
)

type UserHandler struct {
	deleteUC     *ucUser.DeleteUser
	audit        *audit.Dispatcher
	checkDomains bool
}

func NewUserHandler(deleteUC *ucUser.DeleteUser, audit *audit.Dispatcher, checkDomains bool) *UserHandler {
	return &UserHandler{deleteUC: deleteUC, audit: audit, checkDomains: checkDomains}
}

type UpdateUserRequest struct {
	FirstName *string `json:"first_name"`
	LastName  *string `json:"last_name"`
	Phone     *string `json:"phone"`
	Email     *string `json:"email"`
	Type      *string `json:"type"`
}

// List returns everyone who is not a client.
func (h *UserHandler) List(c *gin.Context, conn *db.Conn, p *auth.Principal) error {
	var users []models.User
	if err := conn.DB().WithContext(c.Request.Context()).
		Where("type <> ?", models.UserTypeClient).
		Order("first_name, last_name, id").
		Find(&users).Error; err != nil {
		return err
	}

	httpresp.List(c, dto.UsersFrom(users))
	return nil
}

func (h *UserHandler) Get(c *gin.Context, conn *db.Conn, p *auth.Principal) error {
	id, err := paramID(c, "id")
	if err != nil {
		return err
	}
	if p.IsClient() && p.ID != id {
		return httperr.ForbiddenErr("forbidden", "Forbidden")
	}

	user, err := loadUser(conn.DB().WithContext(c.Request.Context()), id)
	if err != nil {
		return err
	}

	httpresp.OK(c, dto.UserFrom(user))
	return nil
}

// Update edits a user's profile and type. Only an Owner may grant the
// Owner type or edit an Owner.
func (h *UserHandler) Update(c *gin.Context, conn *db.Conn, p *auth.Principal) error {
	id, err := paramID(c, "id")
	if err != nil {
		return err
	}

	var req UpdateUserRequest
	if err := bindJSON(c, &req); err != nil {
		return err
	}

	tx := conn.DB().WithContext(c.Request.Context())
	user, err := loadUser(tx, id)
	if err != nil {
		return err
	}

	isOwner := p.Type == models.UserTypeOwner
	if user.Type == models.UserTypeOwner && !isOwner {
		return httperr.ForbiddenErr("forbidden", "Only an Owner can edit an Owner")
	}

	if err := applyProfile(tx, user, req.FirstName, req.LastName, req.Phone, req.Email, h.checkDomains); err != nil {
		return err
	}

	if req.Type != nil {
		t := models.UserType(*req.Type)
		if !t.Valid() {
			return httperr.Validation("invalid_type", "Invalid user type")
		}
		if t == models.UserTypeOwner && !isOwner {
			return httperr.ForbiddenErr("forbidden", "Only an Owner can grant Owner")
		}
		user.Type = t
	}

	if err := tx.Save(user).Error; err != nil {
		return err
	}

	writeAudit(h.audit, p, "user_updated", "user", user.ID, map[string]any{"type": user.Type})

	httpresp.OK(c, dto.UserFrom(user))
	return nil
}

func (h *UserHandler) Delete(c *gin.Context, conn *db.Conn, p *auth.Principal) error {
	id, err := paramID(c, "id")
	if err != nil {
		return err
	}

	removed, err := h.deleteUC.Execute(c.Request.Context(), conn, p, id)
	if err != nil {
		return err
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "User deleted",
		"removed": removed,
	})
	return nil
}
