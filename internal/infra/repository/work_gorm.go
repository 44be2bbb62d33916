package repository

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"

	"github.com/BruksfildServices01/jobsite-manager/internal/domain/work"
	"github.com/BruksfildServices01/jobsite-manager/internal/httperr"
	"github.com/BruksfildServices01/jobsite-manager/internal/models"
)

type WorkGormRepository struct{}

func NewWorkGormRepository() *WorkGormRepository {
	return &WorkGormRepository{}
}

type workTables struct {
	items string
	join  string
	fk    string
}

var tablesByKind = map[work.Kind]workTables{
	work.KindTask:     {items: "tasks", join: "user_task", fk: "task_id"},
	work.KindMaterial: {items: "materials", join: "user_material", fk: "material_id"},
}

func tablesFor(kind work.Kind) (workTables, error) {
	t, ok := tablesByKind[kind]
	if !ok {
		return workTables{}, fmt.Errorf("unknown work item kind %q", kind)
	}
	return t, nil
}

// --------------------------------------------------
// Items
// --------------------------------------------------

func (r *WorkGormRepository) Create(
	ctx context.Context,
	tx *gorm.DB,
	kind work.Kind,
	item *work.Item,
) error {

	tx = tx.WithContext(ctx)

	switch kind {
	case work.KindTask:
		row := models.Task{
			PhaseID: item.PhaseID, Title: item.Title, Description: item.Description,
			Status: string(item.Status), DueDate: item.DueDate, CreatedBy: item.CreatedBy,
		}
		if err := tx.Create(&row).Error; err != nil {
			return err
		}
		item.ID = row.ID
	case work.KindMaterial:
		row := models.Material{
			PhaseID: item.PhaseID, Title: item.Title, Description: item.Description,
			Status: string(item.Status), DueDate: item.DueDate, CreatedBy: item.CreatedBy,
		}
		if err := tx.Create(&row).Error; err != nil {
			return err
		}
		item.ID = row.ID
	default:
		_, err := tablesFor(kind)
		return err
	}
	return nil
}

func (r *WorkGormRepository) Get(
	ctx context.Context,
	tx *gorm.DB,
	kind work.Kind,
	id uint,
) (*work.Item, error) {

	tx = tx.WithContext(ctx)

	var item work.Item
	var err error

	switch kind {
	case work.KindTask:
		var row models.Task
		err = tx.First(&row, id).Error
		item = work.Item{ID: row.ID, PhaseID: row.PhaseID, Title: row.Title, Description: row.Description,
			Status: work.Status(row.Status), DueDate: row.DueDate, CreatedBy: row.CreatedBy}
	case work.KindMaterial:
		var row models.Material
		err = tx.First(&row, id).Error
		item = work.Item{ID: row.ID, PhaseID: row.PhaseID, Title: row.Title, Description: row.Description,
			Status: work.Status(row.Status), DueDate: row.DueDate, CreatedBy: row.CreatedBy}
	default:
		_, err = tablesFor(kind)
		return nil, err
	}

	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, httperr.NotFoundErr(string(kind)+"_not_found", "Not found")
	}
	if err != nil {
		return nil, err
	}
	return &item, nil
}

func (r *WorkGormRepository) Update(
	ctx context.Context,
	tx *gorm.DB,
	kind work.Kind,
	item *work.Item,
) error {

	t, err := tablesFor(kind)
	if err != nil {
		return err
	}

	res := tx.WithContext(ctx).
		Table(t.items).
		Where("id = ?", item.ID).
		Updates(map[string]any{
			"title":       item.Title,
			"description": item.Description,
			"status":      string(item.Status),
			"due_date":    item.DueDate,
			"updated_at":  tx.NowFunc(),
		})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return httperr.NotFoundErr(string(kind)+"_not_found", "Not found")
	}
	return nil
}

func (r *WorkGormRepository) SetStatus(
	ctx context.Context,
	tx *gorm.DB,
	kind work.Kind,
	id uint,
	status work.Status,
) error {

	t, err := tablesFor(kind)
	if err != nil {
		return err
	}

	res := tx.WithContext(ctx).
		Table(t.items).
		Where("id = ?", id).
		Updates(map[string]any{"status": string(status), "updated_at": tx.NowFunc()})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return httperr.NotFoundErr(string(kind)+"_not_found", "Not found")
	}
	return nil
}

// --------------------------------------------------
// Assignments
// --------------------------------------------------

func (r *WorkGormRepository) ReplaceAssignees(
	ctx context.Context,
	tx *gorm.DB,
	kind work.Kind,
	id uint,
	userIDs []uint,
	by uint,
) error {

	t, err := tablesFor(kind)
	if err != nil {
		return err
	}
	tx = tx.WithContext(ctx)

	if err := tx.Exec("DELETE FROM "+t.join+" WHERE "+t.fk+" = ?", id).Error; err != nil {
		return err
	}

	userIDs = union(nil, userIDs)
	if len(userIDs) == 0 {
		return nil
	}

	var found int64
	if err := tx.Model(&models.User{}).Where("id IN ?", userIDs).Count(&found).Error; err != nil {
		return err
	}
	if found != int64(len(userIDs)) {
		return httperr.Validation("invalid_assignee", "One or more assignees do not exist")
	}

	switch kind {
	case work.KindTask:
		rows := make([]models.TaskAssignment, 0, len(userIDs))
		for _, uid := range userIDs {
			rows = append(rows, models.TaskAssignment{TaskID: id, UserID: uid, AssignedBy: by})
		}
		return tx.Create(&rows).Error
	default:
		rows := make([]models.MaterialAssignment, 0, len(userIDs))
		for _, uid := range userIDs {
			rows = append(rows, models.MaterialAssignment{MaterialID: id, UserID: uid, AssignedBy: by})
		}
		return tx.Create(&rows).Error
	}
}

func (r *WorkGormRepository) Assignees(
	ctx context.Context,
	tx *gorm.DB,
	kind work.Kind,
	ids []uint,
) ([]work.Assignee, error) {

	t, err := tablesFor(kind)
	if err != nil {
		return nil, err
	}
	if len(ids) == 0 {
		return nil, nil
	}

	var out []work.Assignee
	err = tx.WithContext(ctx).
		Table(t.join+" AS a").
		Select("a."+t.fk+" AS item_id, u.id AS user_id, u.first_name, u.last_name, u.email, u.notification_pref").
		Joins("JOIN users u ON u.id = a.user_id").
		Where("a."+t.fk+" IN ?", ids).
		Order("a." + t.fk + ", u.first_name, u.id").
		Scan(&out).Error
	return out, err
}

// Compile-time check
var _ work.Repository = (*WorkGormRepository)(nil)
