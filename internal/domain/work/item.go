package work

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/BruksfildServices01/jobsite-manager/internal/models"
)

// Item is the shape tasks and materials share.
type Item struct {
	ID          uint
	PhaseID     uint
	Title       string
	Description string
	Status      Status
	DueDate     *time.Time
	CreatedBy   uint
}

// Assignee is a user assigned to an item, with what is needed to notify them.
type Assignee struct {
	ItemID           uint
	UserID           uint
	FirstName        string
	LastName         string
	Email            string
	NotificationPref models.NotificationPref
}

// Repository stores tasks and materials. Deletion goes through the
// cleanup repository so assignments are removed first.
type Repository interface {
	Create(ctx context.Context, tx *gorm.DB, kind Kind, item *Item) error
	Get(ctx context.Context, tx *gorm.DB, kind Kind, id uint) (*Item, error)
	Update(ctx context.Context, tx *gorm.DB, kind Kind, item *Item) error
	SetStatus(ctx context.Context, tx *gorm.DB, kind Kind, id uint, status Status) error
	ReplaceAssignees(ctx context.Context, tx *gorm.DB, kind Kind, id uint, userIDs []uint, by uint) error
	Assignees(ctx context.Context, tx *gorm.DB, kind Kind, ids []uint) ([]Assignee, error)
}
