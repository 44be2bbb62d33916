package job

import (
	"context"
	"time"

	"github.com/BruksfildServices01/jobsite-manager/internal/auth"
	"github.com/BruksfildServices01/jobsite-manager/internal/db"
	domain "github.com/BruksfildServices01/jobsite-manager/internal/domain/job"
	"github.com/BruksfildServices01/jobsite-manager/internal/dto"
	"github.com/BruksfildServices01/jobsite-manager/internal/httperr"
	"github.com/BruksfildServices01/jobsite-manager/internal/timezone"
)

type GetJobDetail struct {
	repo domain.Repository
}

func NewGetJobDetail(repo domain.Repository) *GetJobDetail {
	return &GetJobDetail{repo: repo}
}

// Execute loads a job the principal may see. Someone else's job reads as
// missing to a client.
func (uc *GetJobDetail) Execute(
	ctx context.Context,
	conn *db.Conn,
	p *auth.Principal,
	jobID uint,
) (*dto.JobDetail, error) {

	j, err := uc.repo.GetJob(ctx, conn.DB(), jobID)
	if err != nil {
		return nil, err
	}
	if !domain.CanView(p.Type, p.ID, j) {
		return nil, httperr.NotFoundErr("job_not_found", "Job not found")
	}

	return uc.repo.LoadDetail(ctx, conn.DB(), j)
}

type ListCalendar struct {
	repo domain.Repository
}

func NewListCalendar(repo domain.Repository) *ListCalendar {
	return &ListCalendar{repo: repo}
}

// Execute lists work due in the given month. Due dates are calendar
// dates, so the window is taken in UTC.
func (uc *ListCalendar) Execute(
	ctx context.Context,
	conn *db.Conn,
	p *auth.Principal,
	year int,
	month int,
) ([]dto.CalendarEntry, error) {

	start, end := timezone.MonthWindow(year, month, time.UTC)

	var clientID uint
	if p.IsClient() {
		clientID = p.ID
	}

	return uc.repo.Calendar(ctx, conn.DB(), start, end, clientID)
}
