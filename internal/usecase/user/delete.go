package user

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"github.com/BruksfildServices01/jobsite-manager/internal/audit"
	"github.com/BruksfildServices01/jobsite-manager/internal/auth"
	"github.com/BruksfildServices01/jobsite-manager/internal/db"
	"github.com/BruksfildServices01/jobsite-manager/internal/domain/cleanup"
	"github.com/BruksfildServices01/jobsite-manager/internal/httperr"
	"github.com/BruksfildServices01/jobsite-manager/internal/logger"
	"github.com/BruksfildServices01/jobsite-manager/internal/models"
	"github.com/BruksfildServices01/jobsite-manager/internal/storage"
)

// ======================================================
// USE CASE
// ======================================================

type DeleteUser struct {
	repo  cleanup.Repository
	store storage.ObjectStore
	audit *audit.Dispatcher
	log   logger.Logger
}

func NewDeleteUser(
	repo cleanup.Repository,
	store storage.ObjectStore,
	audit *audit.Dispatcher,
	log logger.Logger,
) *DeleteUser {
	return &DeleteUser{
		repo:  repo,
		store: store,
		audit: audit,
		log:   log,
	}
}

// ======================================================
// EXECUTE
// ======================================================

// Execute removes a user and every row that references it in one
// transaction. A missing user is reported before anything is written.
func (uc *DeleteUser) Execute(
	ctx context.Context,
	conn *db.Conn,
	actor *auth.Principal,
	userID uint,
) (*cleanup.Removed, error) {

	if actor != nil && actor.ID == userID {
		return nil, httperr.Validation("cannot_delete_self", "You cannot delete your own account")
	}

	removed, err := db.InTransaction(ctx, conn, func(tx *gorm.DB) (*cleanup.Removed, error) {

		// --------------------------------------------------
		// 1️⃣ Existence and permission
		// --------------------------------------------------
		var target models.User
		if err := tx.Select("id", "type").First(&target, userID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil, httperr.NotFoundErr("user_not_found", "User not found")
			}
			return nil, err
		}

		if target.Type == models.UserTypeOwner && (actor == nil || actor.Type != models.UserTypeOwner) {
			return nil, httperr.ForbiddenErr("forbidden", "Only an Owner can delete an Owner")
		}

		// --------------------------------------------------
		// 2️⃣ Dependent rows, then the user
		// --------------------------------------------------
		removed, err := uc.repo.DeleteUser(ctx, tx, userID)
		if err != nil {
			return nil, err
		}
		if removed.Users == 0 {
			return nil, httperr.NotFoundErr("user_not_found", "User not found")
		}

		return removed, nil
	})
	if err != nil {
		return nil, err
	}

	// --------------------------------------------------
	// 3️⃣ After commit: stored files and audit
	// --------------------------------------------------
	storage.DeleteKeys(ctx, uc.store, uc.log, removed.ObjectKeys)

	var actorID *uint
	if actor != nil {
		actorID = audit.UintPtr(actor.ID)
	}
	uc.audit.Dispatch(audit.Event{
		ActorID:  actorID,
		Action:   "user_deleted",
		Entity:   "user",
		EntityID: audit.UintPtr(userID),
		Metadata: removed,
	})

	return removed, nil
}
