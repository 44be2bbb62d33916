package job

import (
	"context"
	"errors"
	"strings"
	"time"

	"gorm.io/gorm"

	"github.com/BruksfildServices01/jobsite-manager/internal/audit"
	"github.com/BruksfildServices01/jobsite-manager/internal/db"
	domain "github.com/BruksfildServices01/jobsite-manager/internal/domain/job"
	"github.com/BruksfildServices01/jobsite-manager/internal/httperr"
	"github.com/BruksfildServices01/jobsite-manager/internal/models"
)

// ======================================================
// INPUT
// ======================================================

type PhaseInput struct {
	Title       string
	Description string
	StartDate   *time.Time
	EndDate     *time.Time
}

type CreateJobInput struct {
	Title       string
	Description string
	Location    string
	ClientID    uint
	Phases      []PhaseInput
}

// ======================================================
// USE CASE
// ======================================================

type CreateJob struct {
	audit *audit.Dispatcher
}

func NewCreateJob(audit *audit.Dispatcher) *CreateJob {
	return &CreateJob{audit: audit}
}

// Execute creates a job and its initial phases together.
func (uc *CreateJob) Execute(
	ctx context.Context,
	conn *db.Conn,
	actorID uint,
	in CreateJobInput,
) (*models.Job, error) {

	in.Title = strings.TrimSpace(in.Title)
	if in.Title == "" {
		return nil, httperr.Validation("title_required", "Title is required")
	}
	for _, p := range in.Phases {
		if strings.TrimSpace(p.Title) == "" {
			return nil, httperr.Validation("phase_title_required", "Every phase needs a title")
		}
		if err := ValidatePhaseDates(p.StartDate, p.EndDate); err != nil {
			return nil, err
		}
	}

	j, err := db.InTransaction(ctx, conn, func(tx *gorm.DB) (*models.Job, error) {
		if err := RequireClient(tx, in.ClientID); err != nil {
			return nil, err
		}

		j := &models.Job{
			Title:       in.Title,
			Description: in.Description,
			Location:    in.Location,
			Status:      string(domain.InitialStatus()),
			ClientID:    in.ClientID,
			CreatedBy:   actorID,
		}
		if err := tx.Create(j).Error; err != nil {
			return nil, err
		}

		for _, p := range in.Phases {
			phase := models.Phase{
				JobID:       j.ID,
				Title:       strings.TrimSpace(p.Title),
				Description: p.Description,
				StartDate:   p.StartDate,
				EndDate:     p.EndDate,
				CreatedBy:   actorID,
			}
			if err := tx.Create(&phase).Error; err != nil {
				return nil, err
			}
		}

		return j, nil
	})
	if err != nil {
		return nil, err
	}

	uc.audit.Dispatch(audit.Event{
		ActorID:  audit.UintPtr(actorID),
		Action:   "job_created",
		Entity:   "job",
		EntityID: audit.UintPtr(j.ID),
		Metadata: map[string]any{"client_id": j.ClientID, "phases": len(in.Phases)},
	})

	return j, nil
}

// RequireClient checks that id names an existing Client user.
func RequireClient(tx *gorm.DB, id uint) error {
	var u models.User
	err := tx.Select("id", "type").First(&u, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) || (err == nil && u.Type != models.UserTypeClient) {
		return httperr.Validation("invalid_client", "client_id must reference an existing client")
	}
	return err
}

func ValidatePhaseDates(start, end *time.Time) error {
	if start != nil && end != nil && end.Before(*start) {
		return httperr.Validation("invalid_phase_dates", "end_date must not be before start_date")
	}
	return nil
}
