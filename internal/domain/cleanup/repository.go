package cleanup

import (
	"context"

	"gorm.io/gorm"
)

// Removed counts what a cascading delete took with it.
type Removed struct {
	TaskAssignments     int64 `json:"task_assignments"`
	MaterialAssignments int64 `json:"material_assignments"`
	Notes               int64 `json:"notes"`
	Materials           int64 `json:"materials"`
	Tasks               int64 `json:"tasks"`
	Phases              int64 `json:"phases"`
	Floorplans          int64 `json:"floorplans"`
	Jobs                int64 `json:"jobs"`
	InviteCodes         int64 `json:"invite_codes"`
	Users               int64 `json:"users"`

	// ObjectKeys are the stored floor-plan files of removed jobs. They are
	// deleted from object storage only after the transaction commits.
	ObjectKeys []string `json:"-"`
}

// Repository deletes rows in foreign-key dependency order. Every method
// runs on the caller's transaction.
type Repository interface {
	DeleteUser(ctx context.Context, tx *gorm.DB, userID uint) (*Removed, error)
	DeleteJobs(ctx context.Context, tx *gorm.DB, jobIDs []uint) (*Removed, error)
	DeletePhases(ctx context.Context, tx *gorm.DB, phaseIDs []uint) (*Removed, error)
	DeleteTasks(ctx context.Context, tx *gorm.DB, taskIDs []uint) (*Removed, error)
	DeleteMaterials(ctx context.Context, tx *gorm.DB, materialIDs []uint) (*Removed, error)
}
