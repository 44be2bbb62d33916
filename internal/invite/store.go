package invite

import (
	"context"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/BruksfildServices01/jobsite-manager/internal/models"
)

// Current loads the shared invite row. It returns gorm.ErrRecordNotFound
// until a code has been generated.
func Current(ctx context.Context, tx *gorm.DB) (*models.InviteCode, error) {
	var row models.InviteCode
	if err := tx.WithContext(ctx).First(&row, models.SharedInviteCodeID).Error; err != nil {
		return nil, err
	}
	return &row, nil
}

// Save writes code into the shared row, inserting it on first use.
// Concurrent first saves collide on the fixed key and the later one
// updates in place. created reports whether the row was missing before.
func Save(ctx context.Context, tx *gorm.DB, code string, updatedBy uint) (created bool, err error) {
	tx = tx.WithContext(ctx)

	var existing int64
	if err := tx.Model(&models.InviteCode{}).
		Where("id = ?", models.SharedInviteCodeID).
		Count(&existing).Error; err != nil {
		return false, err
	}

	row := models.InviteCode{ID: models.SharedInviteCodeID, Code: code, UpdatedBy: &updatedBy}
	err = tx.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "id"}},
		DoUpdates: clause.AssignmentColumns([]string{"code", "updated_by", "updated_at"}),
	}).Create(&row).Error
	if err != nil {
		return false, err
	}

	return existing == 0, nil
}
