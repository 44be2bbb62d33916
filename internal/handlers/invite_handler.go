package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/BruksfildServices01/jobsite-manager/internal/audit"
	"github.com/BruksfildServices01/jobsite-manager/internal/auth"
	"github.com/BruksfildServices01/jobsite-manager/internal/db"
	"github.com/BruksfildServices01/jobsite-manager/internal/httperr"
	"github.com/BruksfildServices01/jobsite-manager/internal/invite"
	"github.com/BruksfildServices01/jobsite-manager/internal/mailer"
	"github.com/BruksfildServices01/jobsite-manager/internal/models"
	"github.com/BruksfildServices01/jobsite-manager/internal/validators"
)

// InviteHandler manages the single shared registration code.
type InviteHandler struct {
	mailer mailer.Mailer
	appURL string
	audit  *audit.Dispatcher
}

func NewInviteHandler(m mailer.Mailer, appURL string, audit *audit.Dispatcher) *InviteHandler {
	return &InviteHandler{mailer: m, appURL: appURL, audit: audit}
}

type SendInviteRequest struct {
	Email string `json:"email"`
}

func (h *InviteHandler) Get(c *gin.Context, conn *db.Conn, p *auth.Principal) error {
	row, err := currentInvite(c, conn)
	if err != nil {
		return err
	}

	c.JSON(http.StatusOK, gin.H{
		"code":       row.Code,
		"updated_by": row.UpdatedBy,
		"updated_at": row.UpdatedAt,
	})
	return nil
}

// Regenerate replaces the code, creating the row on first use.
func (h *InviteHandler) Regenerate(c *gin.Context, conn *db.Conn, p *auth.Principal) error {
	code, err := invite.NewCode()
	if err != nil {
		return err
	}

	created, err := invite.Save(c.Request.Context(), conn.DB(), code, p.ID)
	if err != nil {
		return err
	}

	writeAudit(h.audit, p, "invite_code_regenerated", "invite_code", models.SharedInviteCodeID, nil)

	status := http.StatusOK
	if created {
		status = http.StatusCreated
	}
	c.JSON(status, gin.H{"code": code})
	return nil
}

func (h *InviteHandler) Send(c *gin.Context, conn *db.Conn, p *auth.Principal) error {
	var req SendInviteRequest
	if err := bindJSON(c, &req); err != nil {
		return err
	}

	email := auth.NormalizeEmail(req.Email)
	if err := validators.ValidateEmail(email, false); err != nil {
		return err
	}

	row, err := currentInvite(c, conn)
	if err != nil {
		return err
	}

	inviter := (&models.User{FirstName: p.FirstName, LastName: p.LastName}).FullName()
	msg := mailer.InviteMessage(email, inviter, row.Code, h.appURL+"/register")
	if err := h.mailer.Send(c.Request.Context(), msg); err != nil {
		return err
	}

	writeAudit(h.audit, p, "invite_sent", "invite_code", row.ID, map[string]string{"email": email})

	c.JSON(http.StatusOK, gin.H{"message": "Invite sent"})
	return nil
}

func currentInvite(c *gin.Context, conn *db.Conn) (*models.InviteCode, error) {
	row, err := invite.Current(c.Request.Context(), conn.DB())
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, httperr.NotFoundErr("invite_code_not_found", "No invite code has been generated")
	}
	return row, err
}
