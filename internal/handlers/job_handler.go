package handlers

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/BruksfildServices01/jobsite-manager/internal/audit"
	"github.com/BruksfildServices01/jobsite-manager/internal/auth"
	"github.com/BruksfildServices01/jobsite-manager/internal/db"
	domain "github.com/BruksfildServices01/jobsite-manager/internal/domain/job"
	"github.com/BruksfildServices01/jobsite-manager/internal/dto"
	"github.com/BruksfildServices01/jobsite-manager/internal/httperr"
	"github.com/BruksfildServices01/jobsite-manager/internal/httpresp"
	"github.com/BruksfildServices01/jobsite-manager/internal/models"
	ucJob "github.com/BruksfildServices01/jobsite-manager/internal/usecase/job"
)

type JobHandler struct {
	repo        domain.Repository
	createUC    *ucJob.CreateJob
	detailUC    *ucJob.GetJobDetail
	deleteUC    *ucJob.DeleteJob
	deletePhase *ucJob.DeletePhase
	audit       *audit.Dispatcher
}

func NewJobHandler(
	repo domain.Repository,
	createUC *ucJob.CreateJob,
	detailUC *ucJob.GetJobDetail,
	deleteUC *ucJob.DeleteJob,
	deletePhase *ucJob.DeletePhase,
	audit *audit.Dispatcher,
) *JobHandler {
	return &JobHandler{
		repo:        repo,
		createUC:    createUC,
		detailUC:    detailUC,
		deleteUC:    deleteUC,
		deletePhase: deletePhase,
		audit:       audit,
	}
}

// --------- Requests ---------

type PhaseRequest struct {
	Title       *string `json:"title"`
	Description *string `json:"description"`
	StartDate   *string `json:"start_date"`
	EndDate     *string `json:"end_date"`
}

type CreateJobRequest struct {
	Title       string         `json:"title"`
	Description string         `json:"description"`
	Location    string         `json:"location"`
	ClientID    uint           `json:"client_id"`
	Phases      []PhaseRequest `json:"phases"`
}

type UpdateJobRequest struct {
	Title       *string `json:"title"`
	Description *string `json:"description"`
	Location    *string `json:"location"`
	Status      *string `json:"status"`
	ClientID    *uint   `json:"client_id"`
}

// ======================================================
// JOBS
// ======================================================

func (h *JobHandler) List(c *gin.Context, conn *db.Conn, p *auth.Principal) error {
	var f domain.ListFilter

	if s := c.Query("status"); s != "" {
		status, err := domain.ParseStatus(s)
		if err != nil {
			return err
		}
		f.Status = status
	}
	if p.IsClient() {
		f.ClientID = p.ID
	}

	jobs, err := h.repo.ListJobs(c.Request.Context(), conn.DB(), f)
	if err != nil {
		return err
	}

	out := make([]dto.JobSummary, 0, len(jobs))
	for i := range jobs {
		out = append(out, dto.JobSummaryFrom(&jobs[i]))
	}

	httpresp.List(c, out)
	return nil
}

func (h *JobHandler) Create(c *gin.Context, conn *db.Conn, p *auth.Principal) error {
	var req CreateJobRequest
	if err := bindJSON(c, &req); err != nil {
		return err
	}

	in := ucJob.CreateJobInput{
		Title:       req.Title,
		Description: req.Description,
		Location:    req.Location,
		ClientID:    req.ClientID,
	}
	for _, ph := range req.Phases {
		pi, err := phaseInput(ph)
		if err != nil {
			return err
		}
		in.Phases = append(in.Phases, pi)
	}

	j, err := h.createUC.Execute(c.Request.Context(), conn, p.ID, in)
	if err != nil {
		return err
	}

	httpresp.Created(c, dto.JobSummaryFrom(j))
	return nil
}

func (h *JobHandler) Get(c *gin.Context, conn *db.Conn, p *auth.Principal) error {
	id, err := paramID(c, "id")
	if err != nil {
		return err
	}

	detail, err := h.detailUC.Execute(c.Request.Context(), conn, p, id)
	if err != nil {
		return err
	}

	httpresp.OK(c, detail)
	return nil
}

func (h *JobHandler) Update(c *gin.Context, conn *db.Conn, p *auth.Principal) error {
	id, err := paramID(c, "id")
	if err != nil {
		return err
	}

	var req UpdateJobRequest
	if err := bindJSON(c, &req); err != nil {
		return err
	}

	ctx := c.Request.Context()
	tx := conn.DB().WithContext(ctx)

	j, err := h.repo.GetJob(ctx, tx, id)
	if err != nil {
		return err
	}

	if req.Title != nil {
		title := strings.TrimSpace(*req.Title)
		if title == "" {
			return httperr.Validation("title_required", "Title is required")
		}
		j.Title = title
	}
	if req.Description != nil {
		j.Description = *req.Description
	}
	if req.Location != nil {
		j.Location = *req.Location
	}
	if req.Status != nil {
		status, err := domain.ParseStatus(*req.Status)
		if err != nil {
			return err
		}
		j.Status = string(status)
	}
	if req.ClientID != nil && *req.ClientID != j.ClientID {
		if err := ucJob.RequireClient(tx, *req.ClientID); err != nil {
			return err
		}
		j.ClientID = *req.ClientID
		j.Client = nil
	}

	if err := tx.Omit("Client", "Creator").Save(j).Error; err != nil {
		return err
	}

	writeAudit(h.audit, p, "job_updated", "job", j.ID, map[string]any{"status": j.Status})

	updated, err := h.repo.GetJob(ctx, tx, id)
	if err != nil {
		return err
	}
	httpresp.OK(c, dto.JobSummaryFrom(updated))
	return nil
}

func (h *JobHandler) Delete(c *gin.Context, conn *db.Conn, p *auth.Principal) error {
	id, err := paramID(c, "id")
	if err != nil {
		return err
	}

	removed, err := h.deleteUC.Execute(c.Request.Context(), conn, p.ID, id)
	if err != nil {
		return err
	}

	c.JSON(http.StatusOK, gin.H{"message": "Job deleted", "removed": removed})
	return nil
}

// ======================================================
// PHASES
// ======================================================

func (h *JobHandler) CreatePhase(c *gin.Context, conn *db.Conn, p *auth.Principal) error {
	jobID, err := paramID(c, "id")
	if err != nil {
		return err
	}

	var req PhaseRequest
	if err := bindJSON(c, &req); err != nil {
		return err
	}
	in, err := phaseInput(req)
	if err != nil {
		return err
	}

	ctx := c.Request.Context()
	tx := conn.DB().WithContext(ctx)
	if _, err := h.repo.GetJob(ctx, tx, jobID); err != nil {
		return err
	}

	phase := models.Phase{
		JobID:       jobID,
		Title:       in.Title,
		Description: in.Description,
		StartDate:   in.StartDate,
		EndDate:     in.EndDate,
		CreatedBy:   p.ID,
	}
	if err := tx.Create(&phase).Error; err != nil {
		return err
	}

	httpresp.Created(c, dto.PhaseDetailFrom(&phase))
	return nil
}

func (h *JobHandler) UpdatePhase(c *gin.Context, conn *db.Conn, p *auth.Principal) error {
	id, err := paramID(c, "id")
	if err != nil {
		return err
	}

	var req PhaseRequest
	if err := bindJSON(c, &req); err != nil {
		return err
	}

	ctx := c.Request.Context()
	tx := conn.DB().WithContext(ctx)

	phase, err := h.repo.GetPhase(ctx, tx, id)
	if err != nil {
		return err
	}

	if req.Title != nil {
		title := strings.TrimSpace(*req.Title)
		if title == "" {
			return httperr.Validation("title_required", "Title is required")
		}
		phase.Title = title
	}
	if req.Description != nil {
		phase.Description = *req.Description
	}
	if req.StartDate != nil {
		if phase.StartDate, err = parseDate(req.StartDate, "start_date"); err != nil {
			return err
		}
	}
	if req.EndDate != nil {
		if phase.EndDate, err = parseDate(req.EndDate, "end_date"); err != nil {
			return err
		}
	}
	if err := ucJob.ValidatePhaseDates(phase.StartDate, phase.EndDate); err != nil {
		return err
	}

	phase.Job = nil
	if err := tx.Omit("Job", "Creator").Save(phase).Error; err != nil {
		return err
	}

	httpresp.OK(c, dto.PhaseDetailFrom(phase))
	return nil
}

func (h *JobHandler) DeletePhase(c *gin.Context, conn *db.Conn, p *auth.Principal) error {
	id, err := paramID(c, "id")
	if err != nil {
		return err
	}

	removed, err := h.deletePhase.Execute(c.Request.Context(), conn, p.ID, id)
	if err != nil {
		return err
	}

	c.JSON(http.StatusOK, gin.H{"message": "Phase deleted", "removed": removed})
	return nil
}

func phaseInput(req PhaseRequest) (ucJob.PhaseInput, error) {
	var in ucJob.PhaseInput
	if req.Title != nil {
		in.Title = strings.TrimSpace(*req.Title)
	}
	if in.Title == "" {
		return in, httperr.Validation("phase_title_required", "Every phase needs a title")
	}
	if req.Description != nil {
		in.Description = *req.Description
	}

	var err error
	if in.StartDate, err = parseDate(req.StartDate, "start_date"); err != nil {
		return in, err
	}
	if in.EndDate, err = parseDate(req.EndDate, "end_date"); err != nil {
		return in, err
	}
	return in, ucJob.ValidatePhaseDates(in.StartDate, in.EndDate)
}
