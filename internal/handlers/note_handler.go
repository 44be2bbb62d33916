package handlers

import (
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/BruksfildServices01/jobsite-manager/internal/auth"
	"github.com/BruksfildServices01/jobsite-manager/internal/db"
	domain "github.com/BruksfildServices01/jobsite-manager/internal/domain/job"
	"github.com/BruksfildServices01/jobsite-manager/internal/dto"
	"github.com/BruksfildServices01/jobsite-manager/internal/httperr"
	"github.com/BruksfildServices01/jobsite-manager/internal/httpresp"
	"github.com/BruksfildServices01/jobsite-manager/internal/models"
)

// NoteHandler addresses notes by (phase_id, created_at); they have no id.
type NoteHandler struct {
	jobs domain.Repository
}

func NewNoteHandler(jobs domain.Repository) *NoteHandler {
	return &NoteHandler{jobs: jobs}
}

type CreateNoteRequest struct {
	Details string `json:"details"`
}

type UpdateNoteRequest struct {
	PhaseID   uint   `json:"phase_id"`
	CreatedAt string `json:"created_at"`
	Details   string `json:"details"`
}

func (h *NoteHandler) Create(c *gin.Context, conn *db.Conn, p *auth.Principal) error {
	phaseID, err := paramID(c, "id")
	if err != nil {
		return err
	}

	var req CreateNoteRequest
	if err := bindJSON(c, &req); err != nil {
		return err
	}
	details := strings.TrimSpace(req.Details)
	if details == "" {
		return httperr.Validation("details_required", "Details are required")
	}

	ctx := c.Request.Context()
	tx := conn.DB().WithContext(ctx)

	phase, err := h.jobs.GetPhase(ctx, tx, phaseID)
	if err != nil {
		return err
	}
	if phase.Job == nil || !domain.CanView(p.Type, p.ID, phase.Job) {
		return httperr.NotFoundErr("phase_not_found", "Phase not found")
	}

	now := models.NoteTimestamp(time.Now())
	note := models.Note{
		PhaseID:   phase.ID,
		CreatedAt: now,
		Details:   details,
		CreatedBy: p.ID,
		UpdatedAt: now,
	}
	if err := tx.Create(&note).Error; err != nil {
		return err
	}

	out := dto.NoteFrom(&note)
	out.AuthorName = (&models.User{FirstName: p.FirstName, LastName: p.LastName}).FullName()
	httpresp.Created(c, out)
	return nil
}

func (h *NoteHandler) Update(c *gin.Context, conn *db.Conn, p *auth.Principal) error {
	var req UpdateNoteRequest
	if err := bindJSON(c, &req); err != nil {
		return err
	}
	key, err := noteKey(req.PhaseID, req.CreatedAt)
	if err != nil {
		return err
	}
	details := strings.TrimSpace(req.Details)
	if details == "" {
		return httperr.Validation("details_required", "Details are required")
	}

	tx := conn.DB().WithContext(c.Request.Context())
	note, err := h.editable(tx, p, key)
	if err != nil {
		return err
	}

	note.Details = details
	note.UpdatedAt = time.Now()
	if err := tx.Model(&models.Note{}).
		Where("phase_id = ? AND created_at = ?", key.PhaseID, key.CreatedAt).
		Updates(map[string]any{"details": note.Details, "updated_at": note.UpdatedAt}).Error; err != nil {
		return err
	}

	httpresp.OK(c, dto.NoteFrom(note))
	return nil
}

func (h *NoteHandler) Delete(c *gin.Context, conn *db.Conn, p *auth.Principal) error {
	phaseID, err := strconv.ParseUint(c.Query("phase_id"), 10, 64)
	if err != nil {
		return httperr.Validation("invalid_phase_id", "phase_id is required")
	}
	key, err := noteKey(uint(phaseID), c.Query("created_at"))
	if err != nil {
		return err
	}

	tx := conn.DB().WithContext(c.Request.Context())
	if _, err := h.editable(tx, p, key); err != nil {
		return err
	}

	if err := tx.Where("phase_id = ? AND created_at = ?", key.PhaseID, key.CreatedAt).
		Delete(&models.Note{}).Error; err != nil {
		return err
	}

	c.JSON(http.StatusOK, gin.H{"message": "Note deleted"})
	return nil
}

// editable loads a note the principal may change: its author, an Owner
// or an Admin.
func (h *NoteHandler) editable(tx *gorm.DB, p *auth.Principal, key models.NoteKey) (*models.Note, error) {
	var note models.Note
	err := tx.Preload("Creator").
		Where("phase_id = ? AND created_at = ?", key.PhaseID, key.CreatedAt).
		First(&note).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, httperr.NotFoundErr("note_not_found", "Note not found")
	}
	if err != nil {
		return nil, err
	}

	if note.CreatedBy != p.ID && !p.HasRole(models.UserTypeOwner, models.UserTypeAdmin) {
		return nil, httperr.ForbiddenErr("forbidden", "Only the author can change this note")
	}
	return &note, nil
}

func noteKey(phaseID uint, createdAt string) (models.NoteKey, error) {
	if phaseID == 0 {
		return models.NoteKey{}, httperr.Validation("invalid_phase_id", "phase_id is required")
	}
	t, err := time.Parse(time.RFC3339Nano, createdAt)
	if err != nil {
		return models.NoteKey{}, httperr.Validation("invalid_created_at", "created_at must be an RFC 3339 timestamp")
	}
	return models.NoteKey{PhaseID: phaseID, CreatedAt: models.NoteTimestamp(t)}, nil
}
