package work

import (
	"context"
	"strings"
	"time"

	"gorm.io/gorm"

	"github.com/BruksfildServices01/jobsite-manager/internal/audit"
	"github.com/BruksfildServices01/jobsite-manager/internal/auth"
	"github.com/BruksfildServices01/jobsite-manager/internal/db"
	jobdomain "github.com/BruksfildServices01/jobsite-manager/internal/domain/job"
	domain "github.com/BruksfildServices01/jobsite-manager/internal/domain/work"
	"github.com/BruksfildServices01/jobsite-manager/internal/dto"
	"github.com/BruksfildServices01/jobsite-manager/internal/httperr"
	"github.com/BruksfildServices01/jobsite-manager/internal/usecase/notify"
)

// ======================================================
// INPUT
// ======================================================

type ItemInput struct {
	Title       string
	Description string
	DueDate     *time.Time
	// Status is optional; empty keeps the current one (Incomplete on create).
	Status string
	// Assignees replaces the assignment list. Nil leaves it untouched on update.
	Assignees []uint
}

// ======================================================
// CREATE
// ======================================================

type CreateItem struct {
	repo     domain.Repository
	jobs     jobdomain.Repository
	notifier *notify.AssignmentNotifier
	audit    *audit.Dispatcher
}

func NewCreateItem(
	repo domain.Repository,
	jobs jobdomain.Repository,
	notifier *notify.AssignmentNotifier,
	audit *audit.Dispatcher,
) *CreateItem {
	return &CreateItem{repo: repo, jobs: jobs, notifier: notifier, audit: audit}
}

func (uc *CreateItem) Execute(
	ctx context.Context,
	conn *db.Conn,
	actor *auth.Principal,
	kind domain.Kind,
	phaseID uint,
	in ItemInput,
) (*dto.WorkItem, error) {

	status := domain.StatusIncomplete
	if in.Status != "" {
		s, err := domain.ParseStatus(in.Status)
		if err != nil {
			return nil, err
		}
		status = s
	}

	title := strings.TrimSpace(in.Title)
	if title == "" {
		return nil, httperr.Validation("title_required", "Title is required")
	}

	type created struct {
		item      *domain.Item
		jobID     uint
		jobTitle  string
		assignees []domain.Assignee
	}

	res, err := db.InTransaction(ctx, conn, func(tx *gorm.DB) (*created, error) {
		phase, err := uc.jobs.GetPhase(ctx, tx, phaseID)
		if err != nil {
			return nil, err
		}

		item := &domain.Item{
			PhaseID:     phase.ID,
			Title:       title,
			Description: in.Description,
			Status:      status,
			DueDate:     in.DueDate,
			CreatedBy:   actor.ID,
		}
		if err := uc.repo.Create(ctx, tx, kind, item); err != nil {
			return nil, err
		}

		if err := uc.repo.ReplaceAssignees(ctx, tx, kind, item.ID, in.Assignees, actor.ID); err != nil {
			return nil, err
		}

		assignees, err := uc.repo.Assignees(ctx, tx, kind, []uint{item.ID})
		if err != nil {
			return nil, err
		}

		out := &created{item: item, assignees: assignees}
		if phase.Job != nil {
			out.jobID, out.jobTitle = phase.Job.ID, phase.Job.Title
		}
		return out, nil
	})
	if err != nil {
		return nil, err
	}

	_ = uc.notifier.Notify(ctx, notify.Assignment{
		Kind: kind, Title: res.item.Title, JobID: res.jobID, JobTitle: res.jobTitle,
	}, res.assignees, actor.ID)

	uc.audit.Dispatch(audit.Event{
		ActorID:  audit.UintPtr(actor.ID),
		Action:   string(kind) + "_created",
		Entity:   string(kind),
		EntityID: audit.UintPtr(res.item.ID),
	})

	return ToDTO(res.item, res.assignees), nil
}

// ======================================================
// UPDATE
// ======================================================

type UpdateItem struct {
	repo     domain.Repository
	jobs     jobdomain.Repository
	notifier *notify.AssignmentNotifier
}

func NewUpdateItem(
	repo domain.Repository,
	jobs jobdomain.Repository,
	notifier *notify.AssignmentNotifier,
) *UpdateItem {
	return &UpdateItem{repo: repo, jobs: jobs, notifier: notifier}
}

// Execute updates an item and, when in.Assignees is set, replaces its
// assignees in the same transaction. Only newly added assignees are notified.
func (uc *UpdateItem) Execute(
	ctx context.Context,
	conn *db.Conn,
	actor *auth.Principal,
	kind domain.Kind,
	id uint,
	in ItemInput,
) (*dto.WorkItem, error) {

	title := strings.TrimSpace(in.Title)
	if title == "" {
		return nil, httperr.Validation("title_required", "Title is required")
	}

	type updated struct {
		item     *domain.Item
		current  []domain.Assignee
		added    []domain.Assignee
		jobID    uint
		jobTitle string
	}

	res, err := db.InTransaction(ctx, conn, func(tx *gorm.DB) (*updated, error) {
		item, err := uc.repo.Get(ctx, tx, kind, id)
		if err != nil {
			return nil, err
		}

		if in.Status != "" {
			s, err := domain.ParseStatus(in.Status)
			if err != nil {
				return nil, err
			}
			if s != item.Status {
				if err := domain.CanChangeStatus(actor.Type); err != nil {
					return nil, err
				}
			}
			item.Status = s
		}

		item.Title = title
		item.Description = in.Description
		item.DueDate = in.DueDate
		if err := uc.repo.Update(ctx, tx, kind, item); err != nil {
			return nil, err
		}

		before, err := uc.repo.Assignees(ctx, tx, kind, []uint{id})
		if err != nil {
			return nil, err
		}

		current := before
		if in.Assignees != nil {
			if err := uc.repo.ReplaceAssignees(ctx, tx, kind, id, in.Assignees, actor.ID); err != nil {
				return nil, err
			}
			if current, err = uc.repo.Assignees(ctx, tx, kind, []uint{id}); err != nil {
				return nil, err
			}
		}

		out := &updated{item: item, current: current, added: newlyAdded(before, current)}
		if phase, err := uc.jobs.GetPhase(ctx, tx, item.PhaseID); err == nil && phase.Job != nil {
			out.jobID, out.jobTitle = phase.Job.ID, phase.Job.Title
		}
		return out, nil
	})
	if err != nil {
		return nil, err
	}

	_ = uc.notifier.Notify(ctx, notify.Assignment{
		Kind: kind, Title: res.item.Title, JobID: res.jobID, JobTitle: res.jobTitle,
	}, res.added, actor.ID)

	return ToDTO(res.item, res.current), nil
}

func newlyAdded(before, after []domain.Assignee) []domain.Assignee {
	had := make(map[uint]struct{}, len(before))
	for _, a := range before {
		had[a.UserID] = struct{}{}
	}
	var out []domain.Assignee
	for _, a := range after {
		if _, ok := had[a.UserID]; !ok {
			out = append(out, a)
		}
	}
	return out
}

func ToDTO(item *domain.Item, assignees []domain.Assignee) *dto.WorkItem {
	out := &dto.WorkItem{
		ID:          item.ID,
		PhaseID:     item.PhaseID,
		Title:       item.Title,
		Description: item.Description,
		Status:      string(item.Status),
		DueDate:     item.DueDate,
		CreatedBy:   item.CreatedBy,
		Assignees:   make([]dto.Assignee, 0, len(assignees)),
	}
	for _, a := range assignees {
		out.Assignees = append(out.Assignees, dto.Assignee{
			ID: a.UserID, FirstName: a.FirstName, LastName: a.LastName, Email: a.Email,
		})
	}
	return out
}
