package work

import (
	"context"

	"gorm.io/gorm"

	"github.com/BruksfildServices01/jobsite-manager/internal/audit"
	"github.com/BruksfildServices01/jobsite-manager/internal/auth"
	"github.com/BruksfildServices01/jobsite-manager/internal/db"
	"github.com/BruksfildServices01/jobsite-manager/internal/domain/cleanup"
	domain "github.com/BruksfildServices01/jobsite-manager/internal/domain/work"
	"github.com/BruksfildServices01/jobsite-manager/internal/httperr"
)

type SetStatus struct {
	repo domain.Repository
}

func NewSetStatus(repo domain.Repository) *SetStatus {
	return &SetStatus{repo: repo}
}

func (uc *SetStatus) Execute(
	ctx context.Context,
	conn *db.Conn,
	actor *auth.Principal,
	kind domain.Kind,
	id uint,
	status string,
) error {

	if err := domain.CanChangeStatus(actor.Type); err != nil {
		return err
	}

	s, err := domain.ParseStatus(status)
	if err != nil {
		return err
	}

	return uc.repo.SetStatus(ctx, conn.DB(), kind, id, s)
}

type DeleteItem struct {
	cleanup cleanup.Repository
	audit   *audit.Dispatcher
}

func NewDeleteItem(repo cleanup.Repository, audit *audit.Dispatcher) *DeleteItem {
	return &DeleteItem{cleanup: repo, audit: audit}
}

// Execute removes an item and its assignments together.
func (uc *DeleteItem) Execute(
	ctx context.Context,
	conn *db.Conn,
	actor *auth.Principal,
	kind domain.Kind,
	id uint,
) error {

	err := db.WithTransaction(ctx, conn, func(tx *gorm.DB) error {
		var removed *cleanup.Removed
		var err error
		var count int64

		switch kind {
		case domain.KindTask:
			removed, err = uc.cleanup.DeleteTasks(ctx, tx, []uint{id})
			if removed != nil {
				count = removed.Tasks
			}
		default:
			removed, err = uc.cleanup.DeleteMaterials(ctx, tx, []uint{id})
			if removed != nil {
				count = removed.Materials
			}
		}
		if err != nil {
			return err
		}
		if count == 0 {
			return httperr.NotFoundErr(string(kind)+"_not_found", "Not found")
		}
		return nil
	})
	if err != nil {
		return err
	}

	uc.audit.Dispatch(audit.Event{
		ActorID:  audit.UintPtr(actor.ID),
		Action:   string(kind) + "_deleted",
		Entity:   string(kind),
		EntityID: audit.UintPtr(id),
	})
	return nil
}
