package job

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/BruksfildServices01/jobsite-manager/internal/dto"
	"github.com/BruksfildServices01/jobsite-manager/internal/models"
)

// ListFilter narrows job listings. A zero ClientID lists every client.
type ListFilter struct {
	ClientID uint
	Status   Status
}

// Repository reads jobs and their phase tree on the caller's connection.
type Repository interface {
	ListJobs(ctx context.Context, tx *gorm.DB, f ListFilter) ([]models.Job, error)
	GetJob(ctx context.Context, tx *gorm.DB, id uint) (*models.Job, error)
	GetPhase(ctx context.Context, tx *gorm.DB, id uint) (*models.Phase, error)
	LoadDetail(ctx context.Context, tx *gorm.DB, j *models.Job) (*dto.JobDetail, error)
	Calendar(ctx context.Context, tx *gorm.DB, start, end time.Time, clientID uint) ([]dto.CalendarEntry, error)
}

// CanView reports whether a user may see a job. Clients only see jobs
// they are the client of.
func CanView(userType models.UserType, userID uint, j *models.Job) bool {
	if userType == models.UserTypeClient {
		return j.ClientID == userID
	}
	return true
}
