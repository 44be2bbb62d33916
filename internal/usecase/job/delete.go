package job

import (
	"context"

	"gorm.io/gorm"

	"github.com/BruksfildServices01/jobsite-manager/internal/audit"
	"github.com/BruksfildServices01/jobsite-manager/internal/db"
	"github.com/BruksfildServices01/jobsite-manager/internal/domain/cleanup"
	"github.com/BruksfildServices01/jobsite-manager/internal/httperr"
	"github.com/BruksfildServices01/jobsite-manager/internal/logger"
	"github.com/BruksfildServices01/jobsite-manager/internal/storage"
)

type DeleteJob struct {
	repo  cleanup.Repository
	store storage.ObjectStore
	audit *audit.Dispatcher
	log   logger.Logger
}

func NewDeleteJob(
	repo cleanup.Repository,
	store storage.ObjectStore,
	audit *audit.Dispatcher,
	log logger.Logger,
) *DeleteJob {
	return &DeleteJob{repo: repo, store: store, audit: audit, log: log}
}

// Execute removes a job with its phases, work items, notes and floorplans.
func (uc *DeleteJob) Execute(
	ctx context.Context,
	conn *db.Conn,
	actorID uint,
	jobID uint,
) (*cleanup.Removed, error) {

	removed, err := db.InTransaction(ctx, conn, func(tx *gorm.DB) (*cleanup.Removed, error) {
		removed, err := uc.repo.DeleteJobs(ctx, tx, []uint{jobID})
		if err != nil {
			return nil, err
		}
		if removed.Jobs == 0 {
			return nil, httperr.NotFoundErr("job_not_found", "Job not found")
		}
		return removed, nil
	})
	if err != nil {
		return nil, err
	}

	storage.DeleteKeys(ctx, uc.store, uc.log, removed.ObjectKeys)

	uc.audit.Dispatch(audit.Event{
		ActorID:  audit.UintPtr(actorID),
		Action:   "job_deleted",
		Entity:   "job",
		EntityID: audit.UintPtr(jobID),
		Metadata: removed,
	})

	return removed, nil
}

type DeletePhase struct {
	repo  cleanup.Repository
	audit *audit.Dispatcher
}

func NewDeletePhase(repo cleanup.Repository, audit *audit.Dispatcher) *DeletePhase {
	return &DeletePhase{repo: repo, audit: audit}
}

func (uc *DeletePhase) Execute(
	ctx context.Context,
	conn *db.Conn,
	actorID uint,
	phaseID uint,
) (*cleanup.Removed, error) {

	removed, err := db.InTransaction(ctx, conn, func(tx *gorm.DB) (*cleanup.Removed, error) {
		removed, err := uc.repo.DeletePhases(ctx, tx, []uint{phaseID})
		if err != nil {
			return nil, err
		}
		if removed.Phases == 0 {
			return nil, httperr.NotFoundErr("phase_not_found", "Phase not found")
		}
		return removed, nil
	})
	if err != nil {
		return nil, err
	}

	uc.audit.Dispatch(audit.Event{
		ActorID:  audit.UintPtr(actorID),
		Action:   "phase_deleted",
		Entity:   "phase",
		EntityID: audit.UintPtr(phaseID),
		Metadata: removed,
	})

	return removed, nil
}
