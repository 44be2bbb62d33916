package handlers

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/BruksfildServices01/jobsite-manager/internal/audit"
	"github.com/BruksfildServices01/jobsite-manager/internal/auth"
	"github.com/BruksfildServices01/jobsite-manager/internal/db"
	"github.com/BruksfildServices01/jobsite-manager/internal/dto"
	"github.com/BruksfildServices01/jobsite-manager/internal/httperr"
	"github.com/BruksfildServices01/jobsite-manager/internal/httpresp"
	"github.com/BruksfildServices01/jobsite-manager/internal/logger"
	"github.com/BruksfildServices01/jobsite-manager/internal/mailer"
	"github.com/BruksfildServices01/jobsite-manager/internal/models"
	"github.com/BruksfildServices01/jobsite-manager/internal/validators"
)

type ClientHandler struct {
	mailer       mailer.Mailer
	tokens       *auth.Tokens
	appURL       string
	audit        *audit.Dispatcher
	checkDomains bool
	log          logger.Logger
}

func NewClientHandler(
	m mailer.Mailer,
	tokens *auth.Tokens,
	appURL string,
	audit *audit.Dispatcher,
	checkDomains bool,
	log logger.Logger,
) *ClientHandler {
	return &ClientHandler{mailer: m, tokens: tokens, appURL: appURL, audit: audit, checkDomains: checkDomains, log: log}
}

type CreateClientRequest struct {
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	Email     string `json:"email"`
	Phone     string `json:"phone"`
}

// ======================================================
// LIST CLIENTS
// ======================================================
func (h *ClientHandler) List(c *gin.Context, conn *db.Conn, p *auth.Principal) error {
	query := strings.ToLower(strings.TrimSpace(c.Query("query")))

	q := conn.DB().WithContext(c.Request.Context()).
		Where("type = ?", models.UserTypeClient)

	if query != "" {
		like := "%" + query + "%"
		q = q.Where(
			"LOWER(first_name) LIKE ? OR LOWER(last_name) LIKE ? OR phone LIKE ? OR LOWER(email) LIKE ?",
			like, like, like, like,
		)
	}

	var clients []models.User
	if err := q.
		Order("first_name, last_name, id").
		Find(&clients).Error; err != nil {
		return err
	}

	httpresp.List(c, dto.UsersFrom(clients))
	return nil
}

// ======================================================
// CREATE CLIENT
// ======================================================

// Create adds a Client with an unusable random password and emails them
// a link to choose their own.
func (h *ClientHandler) Create(c *gin.Context, conn *db.Conn, p *auth.Principal) error {
	var req CreateClientRequest
	if err := bindJSON(c, &req); err != nil {
		return err
	}

	firstName := strings.TrimSpace(req.FirstName)
	email := auth.NormalizeEmail(req.Email)

	if firstName == "" {
		return httperr.Validation("first_name_required", "First name is required")
	}
	if err := validators.ValidateEmail(email, h.checkDomains); err != nil {
		return err
	}

	tx := conn.DB().WithContext(c.Request.Context())
	if err := ensureEmailFree(tx, email, 0); err != nil {
		return err
	}

	hash, err := auth.HashPassword(uuid.NewString())
	if err != nil {
		return err
	}

	client := models.User{
		FirstName:        firstName,
		LastName:         strings.TrimSpace(req.LastName),
		Email:            email,
		Phone:            strings.TrimSpace(req.Phone),
		PasswordHash:     hash,
		Type:             models.UserTypeClient,
		NotificationPref: models.NotifyEmail,
	}
	if err := tx.Create(&client).Error; err != nil {
		return err
	}

	if err := sendPasswordLink(c, h.mailer, h.tokens, h.appURL, &client, true); err != nil {
		h.log.WithFields(map[string]interface{}{
			"user_id": client.ID,
			"error":   err.Error(),
		}).Error("failed to send welcome email")
	}

	writeAudit(h.audit, p, "client_created", "user", client.ID, nil)

	c.JSON(http.StatusCreated, dto.UserFrom(&client))
	return nil
}
