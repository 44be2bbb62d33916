package repository

import (
	"context"
	"errors"
	"sort"
	"time"

	"gorm.io/gorm"

	"github.com/BruksfildServices01/jobsite-manager/internal/domain/job"
	"github.com/BruksfildServices01/jobsite-manager/internal/domain/work"
	"github.com/BruksfildServices01/jobsite-manager/internal/dto"
	"github.com/BruksfildServices01/jobsite-manager/internal/httperr"
	"github.com/BruksfildServices01/jobsite-manager/internal/models"
)

type JobGormRepository struct {
	work work.Repository
}

func NewJobGormRepository(workRepo work.Repository) *JobGormRepository {
	return &JobGormRepository{work: workRepo}
}

// --------------------------------------------------
// Jobs
// --------------------------------------------------

func (r *JobGormRepository) ListJobs(
	ctx context.Context,
	tx *gorm.DB,
	f job.ListFilter,
) ([]models.Job, error) {

	q := tx.WithContext(ctx).Preload("Client")

	if f.ClientID != 0 {
		q = q.Where("client_id = ?", f.ClientID)
	}
	if f.Status != "" {
		q = q.Where("status = ?", string(f.Status))
	}

	var jobs []models.Job
	if err := q.Order("created_at DESC, id DESC").Find(&jobs).Error; err != nil {
		return nil, err
	}
	return jobs, nil
}

func (r *JobGormRepository) GetJob(
	ctx context.Context,
	tx *gorm.DB,
	id uint,
) (*models.Job, error) {

	var j models.Job
	err := tx.WithContext(ctx).Preload("Client").First(&j, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, httperr.NotFoundErr("job_not_found", "Job not found")
	}
	if err != nil {
		return nil, err
	}
	return &j, nil
}

func (r *JobGormRepository) GetPhase(
	ctx context.Context,
	tx *gorm.DB,
	id uint,
) (*models.Phase, error) {

	var p models.Phase
	err := tx.WithContext(ctx).Preload("Job").First(&p, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, httperr.NotFoundErr("phase_not_found", "Phase not found")
	}
	if err != nil {
		return nil, err
	}
	return &p, nil
}

// --------------------------------------------------
// Detail: phases with their tasks, materials and notes
// --------------------------------------------------

func (r *JobGormRepository) LoadDetail(
	ctx context.Context,
	tx *gorm.DB,
	j *models.Job,
) (*dto.JobDetail, error) {

	tx = tx.WithContext(ctx)

	out := &dto.JobDetail{
		JobSummary: dto.JobSummaryFrom(j),
		Phases:     []dto.PhaseDetail{},
		Floorplans: []dto.Floorplan{},
	}

	var phases []models.Phase
	if err := tx.Where("job_id = ?", j.ID).
		Order("start_date, id").
		Find(&phases).Error; err != nil {
		return nil, err
	}

	var floorplans []models.Floorplan
	if err := tx.Where("job_id = ?", j.ID).Order("created_at, id").Find(&floorplans).Error; err != nil {
		return nil, err
	}
	for i := range floorplans {
		out.Floorplans = append(out.Floorplans, dto.FloorplanFrom(&floorplans[i]))
	}

	if len(phases) == 0 {
		return out, nil
	}

	phaseIDs := make([]uint, 0, len(phases))
	byPhase := make(map[uint]*dto.PhaseDetail, len(phases))
	out.Phases = make([]dto.PhaseDetail, 0, len(phases))
	for i := range phases {
		phaseIDs = append(phaseIDs, phases[i].ID)
		out.Phases = append(out.Phases, dto.PhaseDetailFrom(&phases[i]))
	}
	for i := range out.Phases {
		byPhase[out.Phases[i].ID] = &out.Phases[i]
	}

	var tasks []models.Task
	if err := tx.Where("phase_id IN ?", phaseIDs).Order("due_date, id").Find(&tasks).Error; err != nil {
		return nil, err
	}
	taskItems := make([]dto.WorkItem, 0, len(tasks))
	for _, t := range tasks {
		taskItems = append(taskItems, dto.WorkItem{ID: t.ID, PhaseID: t.PhaseID, Title: t.Title,
			Description: t.Description, Status: t.Status, DueDate: t.DueDate, CreatedBy: t.CreatedBy})
	}
	if err := r.attachAssignees(ctx, tx, work.KindTask, taskItems); err != nil {
		return nil, err
	}
	for _, it := range taskItems {
		p := byPhase[it.PhaseID]
		p.Tasks = append(p.Tasks, it)
	}

	var materials []models.Material
	if err := tx.Where("phase_id IN ?", phaseIDs).Order("due_date, id").Find(&materials).Error; err != nil {
		return nil, err
	}
	materialItems := make([]dto.WorkItem, 0, len(materials))
	for _, m := range materials {
		materialItems = append(materialItems, dto.WorkItem{ID: m.ID, PhaseID: m.PhaseID, Title: m.Title,
			Description: m.Description, Status: m.Status, DueDate: m.DueDate, CreatedBy: m.CreatedBy})
	}
	if err := r.attachAssignees(ctx, tx, work.KindMaterial, materialItems); err != nil {
		return nil, err
	}
	for _, it := range materialItems {
		p := byPhase[it.PhaseID]
		p.Materials = append(p.Materials, it)
	}

	var notes []models.Note
	if err := tx.Preload("Creator").
		Where("phase_id IN ?", phaseIDs).
		Order("created_at DESC").
		Find(&notes).Error; err != nil {
		return nil, err
	}
	for i := range notes {
		p := byPhase[notes[i].PhaseID]
		p.Notes = append(p.Notes, dto.NoteFrom(&notes[i]))
	}

	return out, nil
}

func (r *JobGormRepository) attachAssignees(
	ctx context.Context,
	tx *gorm.DB,
	kind work.Kind,
	items []dto.WorkItem,
) error {

	ids := make([]uint, 0, len(items))
	for i := range items {
		items[i].Assignees = []dto.Assignee{}
		ids = append(ids, items[i].ID)
	}

	assignees, err := r.work.Assignees(ctx, tx, kind, ids)
	if err != nil {
		return err
	}

	idx := make(map[uint]int, len(items))
	for i := range items {
		idx[items[i].ID] = i
	}
	for _, a := range assignees {
		i := idx[a.ItemID]
		items[i].Assignees = append(items[i].Assignees, dto.Assignee{
			ID: a.UserID, FirstName: a.FirstName, LastName: a.LastName, Email: a.Email,
		})
	}
	return nil
}

// --------------------------------------------------
// Calendar
// --------------------------------------------------

// Calendar lists tasks and materials due in [start, end). A non-zero
// clientID restricts it to that client's jobs.
func (r *JobGormRepository) Calendar(
	ctx context.Context,
	tx *gorm.DB,
	start, end time.Time,
	clientID uint,
) ([]dto.CalendarEntry, error) {

	tx = tx.WithContext(ctx)
	out := []dto.CalendarEntry{}

	scoped := func(table string) *gorm.DB {
		q := tx.Preload("Phase.Job").
			Joins("JOIN phases ON phases.id = "+table+".phase_id").
			Joins("JOIN jobs ON jobs.id = phases.job_id").
			Where(table+".due_date >= ? AND "+table+".due_date < ?", start, end)
		if clientID != 0 {
			q = q.Where("jobs.client_id = ?", clientID)
		}
		return q
	}

	var tasks []models.Task
	if err := scoped("tasks").Find(&tasks).Error; err != nil {
		return nil, err
	}
	for _, t := range tasks {
		out = append(out, calendarEntry(work.KindTask, t.ID, t.Title, t.Status, t.DueDate, t.Phase))
	}

	var materials []models.Material
	if err := scoped("materials").Find(&materials).Error; err != nil {
		return nil, err
	}
	for _, m := range materials {
		out = append(out, calendarEntry(work.KindMaterial, m.ID, m.Title, m.Status, m.DueDate, m.Phase))
	}

	sort.SliceStable(out, func(i, j int) bool {
		if !out[i].DueDate.Equal(out[j].DueDate) {
			return out[i].DueDate.Before(out[j].DueDate)
		}
		if out[i].Kind != out[j].Kind {
			return out[i].Kind > out[j].Kind
		}
		return out[i].ID < out[j].ID
	})

	return out, nil
}

func calendarEntry(kind work.Kind, id uint, title, status string, due *time.Time, phase *models.Phase) dto.CalendarEntry {
	e := dto.CalendarEntry{Kind: string(kind), ID: id, Title: title, Status: status}
	if due != nil {
		e.DueDate = *due
	}
	if phase != nil {
		e.PhaseID = phase.ID
		e.PhaseTitle = phase.Title
		if phase.Job != nil {
			e.JobID = phase.Job.ID
			e.JobTitle = phase.Job.Title
		}
	}
	return e
}

// Compile-time check
var _ job.Repository = (*JobGormRepository)(nil)
