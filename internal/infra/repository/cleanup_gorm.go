package repository

import (
	"context"
	"strings"

	"gorm.io/gorm"

	"github.com/BruksfildServices01/jobsite-manager/internal/domain/cleanup"
	"github.com/BruksfildServices01/jobsite-manager/internal/models"
)

type CleanupGormRepository struct{}

func NewCleanupGormRepository() *CleanupGormRepository {
	return &CleanupGormRepository{}
}

// scope is the set of rows a cascade removes. user is 0 when no user row
// is being deleted.
type scope struct {
	user      uint
	jobs      []uint
	phases    []uint
	tasks     []uint
	materials []uint
}

// --------------------------------------------------
// Entry points
// --------------------------------------------------

func (r *CleanupGormRepository) DeleteUser(
	ctx context.Context,
	tx *gorm.DB,
	userID uint,
) (*cleanup.Removed, error) {

	tx = tx.WithContext(ctx)
	s := scope{user: userID}

	if err := tx.Model(&models.Job{}).
		Where("client_id = ? OR created_by = ?", userID, userID).
		Pluck("id", &s.jobs).Error; err != nil {
		return nil, err
	}

	return r.run(tx, s)
}

func (r *CleanupGormRepository) DeleteJobs(
	ctx context.Context,
	tx *gorm.DB,
	jobIDs []uint,
) (*cleanup.Removed, error) {
	return r.run(tx.WithContext(ctx), scope{jobs: jobIDs})
}

func (r *CleanupGormRepository) DeletePhases(
	ctx context.Context,
	tx *gorm.DB,
	phaseIDs []uint,
) (*cleanup.Removed, error) {
	return r.run(tx.WithContext(ctx), scope{phases: phaseIDs})
}

func (r *CleanupGormRepository) DeleteTasks(
	ctx context.Context,
	tx *gorm.DB,
	taskIDs []uint,
) (*cleanup.Removed, error) {
	return r.run(tx.WithContext(ctx), scope{tasks: taskIDs})
}

func (r *CleanupGormRepository) DeleteMaterials(
	ctx context.Context,
	tx *gorm.DB,
	materialIDs []uint,
) (*cleanup.Removed, error) {
	return r.run(tx.WithContext(ctx), scope{materials: materialIDs})
}

func (r *CleanupGormRepository) run(tx *gorm.DB, s scope) (*cleanup.Removed, error) {
	if err := expand(tx, &s); err != nil {
		return nil, err
	}
	return purge(tx, s)
}

// --------------------------------------------------
// Scope expansion: rows owned by the user plus everything
// hanging off the jobs and phases being removed.
// --------------------------------------------------

func expand(tx *gorm.DB, s *scope) error {
	var phases anyOf
	phases.eq("created_by", s.user)
	phases.in("job_id", s.jobs)
	if err := pluckInto(tx, &models.Phase{}, phases, &s.phases); err != nil {
		return err
	}

	var tasks anyOf
	tasks.eq("created_by", s.user)
	tasks.in("phase_id", s.phases)
	if err := pluckInto(tx, &models.Task{}, tasks, &s.tasks); err != nil {
		return err
	}

	var materials anyOf
	materials.eq("created_by", s.user)
	materials.in("phase_id", s.phases)
	return pluckInto(tx, &models.Material{}, materials, &s.materials)
}

func pluckInto(tx *gorm.DB, model any, cond anyOf, ids *[]uint) error {
	if cond.empty() {
		return nil
	}
	var found []uint
	if err := cond.where(tx.Model(model)).Pluck("id", &found).Error; err != nil {
		return err
	}
	*ids = union(*ids, found)
	return nil
}

// --------------------------------------------------
// Deletion in dependency order
// --------------------------------------------------

func purge(tx *gorm.DB, s scope) (*cleanup.Removed, error) {
	out := &cleanup.Removed{}

	steps := []struct {
		model any
		cond  *anyOf
		count *int64
	}{
		{&models.TaskAssignment{}, newAnyOf().eq("user_id", s.user).eq("assigned_by", s.user).in("task_id", s.tasks), &out.TaskAssignments},
		{&models.MaterialAssignment{}, newAnyOf().eq("user_id", s.user).eq("assigned_by", s.user).in("material_id", s.materials), &out.MaterialAssignments},
		{&models.Note{}, newAnyOf().eq("created_by", s.user).in("phase_id", s.phases), &out.Notes},
		{&models.Material{}, newAnyOf().in("id", s.materials), &out.Materials},
		{&models.Task{}, newAnyOf().in("id", s.tasks), &out.Tasks},
		{&models.Phase{}, newAnyOf().in("id", s.phases), &out.Phases},
		{&models.Floorplan{}, newAnyOf().in("job_id", s.jobs), &out.Floorplans},
		{&models.Job{}, newAnyOf().in("id", s.jobs), &out.Jobs},
		{&models.InviteCode{}, newAnyOf().eq("updated_by", s.user), &out.InviteCodes},
		{&models.User{}, newAnyOf().eq("id", s.user), &out.Users},
	}

	if len(s.jobs) > 0 {
		if err := tx.Model(&models.Floorplan{}).
			Where("job_id IN ?", s.jobs).
			Pluck("object_key", &out.ObjectKeys).Error; err != nil {
			return nil, err
		}
	}

	for _, step := range steps {
		if step.cond.empty() {
			continue
		}
		res := step.cond.where(tx).Delete(step.model)
		if res.Error != nil {
			return nil, res.Error
		}
		*step.count = res.RowsAffected
	}

	return out, nil
}

// --------------------------------------------------
// anyOf builds "a = ? OR b IN ?" conditions, skipping
// terms that cannot match anything.
// --------------------------------------------------

type anyOf struct {
	terms []string
	args  []any
}

func newAnyOf() *anyOf {
	return &anyOf{}
}

func (a *anyOf) eq(column string, id uint) *anyOf {
	if id != 0 {
		a.terms = append(a.terms, column+" = ?")
		a.args = append(a.args, id)
	}
	return a
}

func (a *anyOf) in(column string, ids []uint) *anyOf {
	if len(ids) > 0 {
		a.terms = append(a.terms, column+" IN ?")
		a.args = append(a.args, ids)
	}
	return a
}

func (a anyOf) empty() bool {
	return len(a.terms) == 0
}

func (a anyOf) where(tx *gorm.DB) *gorm.DB {
	return tx.Where(strings.Join(a.terms, " OR "), a.args...)
}

func union(a, b []uint) []uint {
	seen := make(map[uint]struct{}, len(a)+len(b))
	out := make([]uint, 0, len(a)+len(b))
	for _, list := range [][]uint{a, b} {
		for _, id := range list {
			if _, ok := seen[id]; ok {
				continue
			}
			seen[id] = struct{}{}
			out = append(out, id)
		}
	}
	return out
}

// Compile-time check
var _ cleanup.Repository = (*CleanupGormRepository)(nil)
