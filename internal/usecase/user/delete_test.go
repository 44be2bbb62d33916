package user_test

import (
	"bytes"
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/BruksfildServices01/jobsite-manager/internal/audit"
	"github.com/BruksfildServices01/jobsite-manager/internal/auth"
	"github.com/BruksfildServices01/jobsite-manager/internal/db"
	"github.com/BruksfildServices01/jobsite-manager/internal/httperr"
	"github.com/BruksfildServices01/jobsite-manager/internal/infra/repository"
	"github.com/BruksfildServices01/jobsite-manager/internal/logger"
	"github.com/BruksfildServices01/jobsite-manager/internal/models"
	"github.com/BruksfildServices01/jobsite-manager/internal/storage"
	"github.com/BruksfildServices01/jobsite-manager/internal/testutil"
	ucUser "github.com/BruksfildServices01/jobsite-manager/internal/usecase/user"
)

type fixture struct {
	pool  *db.Pool
	gdb   *gorm.DB
	store *storage.MemoryStore
	uc    *ucUser.DeleteUser
	owner *auth.Principal
}

func setup(t *testing.T, dispatcher *audit.Dispatcher) *fixture {
	t.Helper()

	pool := testutil.NewPool(t)
	gdb := pool.Gorm()
	store := storage.NewMemoryStore("")
	owner := testutil.CreateUser(t, gdb, models.UserTypeOwner)

	return &fixture{
		pool:  pool,
		gdb:   gdb,
		store: store,
		uc:    ucUser.NewDeleteUser(repository.NewCleanupGormRepository(), store, dispatcher, logger.NewNop()),
		owner: auth.PrincipalFromUser(owner),
	}
}

func (f *fixture) run(t *testing.T, actor *auth.Principal, id uint) error {
	t.Helper()
	ctx := context.Background()

	conn, err := f.pool.Acquire(ctx)
	require.NoError(t, err)
	defer f.pool.Release(conn)

	_, err = f.uc.Execute(ctx, conn, actor, id)
	return err
}

func statusOf(t *testing.T, err error) int {
	t.Helper()
	se, ok := httperr.AsStatus(err)
	require.True(t, ok, "expected status error, got %v", err)
	return se.Status
}

func TestDeleteUser_RemovesAssignmentsAndOwnedJob(t *testing.T) {
	f := setup(t, nil)
	gdb := f.gdb

	admin := testutil.CreateUser(t, gdb, models.UserTypeAdmin)
	client := testutil.CreateUser(t, gdb, models.UserTypeClient)
	worker := testutil.CreateUser(t, gdb, models.UserTypeStaff)

	// the worker is the client of one job so it owns it
	ownJob := testutil.CreateJob(t, gdb, worker, admin)
	otherPhase := testutil.CreatePhase(t, gdb, testutil.CreateJob(t, gdb, client, admin), admin)

	const n, m = 3, 2
	for i := 0; i < n; i++ {
		testutil.AssignTask(t, gdb, testutil.CreateTask(t, gdb, otherPhase, admin, nil), worker, admin)
	}
	for i := 0; i < m; i++ {
		testutil.AssignMaterial(t, gdb, testutil.CreateMaterial(t, gdb, otherPhase, admin, nil), worker, admin)
	}

	require.NoError(t, f.run(t, f.owner, worker.ID))

	assert.Zero(t, testutil.Count(t, gdb, &models.TaskAssignment{}, "user_id = ?", worker.ID))
	assert.Zero(t, testutil.Count(t, gdb, &models.MaterialAssignment{}, "user_id = ?", worker.ID))
	assert.Zero(t, testutil.Count(t, gdb, &models.Job{}, "id = ?", ownJob.ID))
	assert.Zero(t, testutil.Count(t, gdb, &models.User{}, "id = ?", worker.ID))

	// tasks and materials created by someone else survive
	assert.Equal(t, int64(n), testutil.Count(t, gdb, &models.Task{}, ""))
	assert.Equal(t, int64(m), testutil.Count(t, gdb, &models.Material{}, ""))

	err := f.run(t, f.owner, worker.ID)
	assert.Equal(t, 404, statusOf(t, err))
}

func TestDeleteUser_MissingWritesNothing(t *testing.T) {
	f := setup(t, nil)

	var deletes int
	require.NoError(t, f.gdb.Callback().Delete().Before("gorm:delete").Register("test:count", func(d *gorm.DB) {
		deletes++
	}))

	err := f.run(t, f.owner, 4242)
	assert.Equal(t, 404, statusOf(t, err))
	assert.Zero(t, deletes)
}

func TestDeleteUser_FailureRollsBackEverything(t *testing.T) {
	f := setup(t, nil)
	gdb := f.gdb

	admin := testutil.CreateUser(t, gdb, models.UserTypeAdmin)
	client := testutil.CreateUser(t, gdb, models.UserTypeClient)
	j := testutil.CreateJob(t, gdb, client, admin)
	phase := testutil.CreatePhase(t, gdb, j, admin)
	task := testutil.CreateTask(t, gdb, phase, admin, nil)
	testutil.AssignTask(t, gdb, task, admin, admin)
	testutil.CreateNote(t, gdb, phase, client, "client note")

	require.NoError(t, gdb.Callback().Delete().Before("gorm:delete").Register("test:fail_jobs", func(d *gorm.DB) {
		if d.Statement.Table == "jobs" {
			_ = d.AddError(errors.New("disk full"))
		}
	}))

	err := f.run(t, f.owner, client.ID)
	require.Error(t, err)
	_, isStatus := httperr.AsStatus(err)
	assert.False(t, isStatus)

	assert.Equal(t, int64(1), testutil.Count(t, gdb, &models.User{}, "id = ?", client.ID))
	assert.Equal(t, int64(1), testutil.Count(t, gdb, &models.Job{}, "id = ?", j.ID))
	assert.Equal(t, int64(1), testutil.Count(t, gdb, &models.Phase{}, "id = ?", phase.ID))
	assert.Equal(t, int64(1), testutil.Count(t, gdb, &models.Task{}, "id = ?", task.ID))
	assert.Equal(t, int64(1), testutil.Count(t, gdb, &models.TaskAssignment{}, ""))
	assert.Equal(t, int64(1), testutil.Count(t, gdb, &models.Note{}, ""))
}

func TestDeleteUser_Self(t *testing.T) {
	f := setup(t, nil)

	err := f.run(t, f.owner, f.owner.ID)
	assert.Equal(t, 400, statusOf(t, err))
	assert.Equal(t, int64(1), testutil.Count(t, f.gdb, &models.User{}, "id = ?", f.owner.ID))
}

func TestDeleteUser_AdminCannotDeleteOwner(t *testing.T) {
	f := setup(t, nil)
	admin := auth.PrincipalFromUser(testutil.CreateUser(t, f.gdb, models.UserTypeAdmin))

	err := f.run(t, admin, f.owner.ID)
	assert.Equal(t, 403, statusOf(t, err))
	assert.Equal(t, int64(1), testutil.Count(t, f.gdb, &models.User{}, "id = ?", f.owner.ID))
}

func TestDeleteUser_RemovesStoredFloorplansAndAudits(t *testing.T) {
	var buf bytes.Buffer
	pool := testutil.NewPool(t)
	dispatcher := audit.NewDispatcher(audit.New(pool.Gorm()), logger.NewWithWriter(&buf, "info"))

	store := storage.NewMemoryStore("")
	uc := ucUser.NewDeleteUser(repository.NewCleanupGormRepository(), store, dispatcher, logger.NewNop())
	gdb := pool.Gorm()

	owner := testutil.CreateUser(t, gdb, models.UserTypeOwner)
	client := testutil.CreateUser(t, gdb, models.UserTypeClient)
	j := testutil.CreateJob(t, gdb, client, owner)

	ctx := context.Background()
	url, err := store.Put(ctx, "jobs/1/floorplans/plan.webp", bytes.NewReader([]byte("img")), 3, "image/webp")
	require.NoError(t, err)
	require.NoError(t, gdb.Create(&models.Floorplan{JobID: j.ID, Name: "plan", ObjectKey: "jobs/1/floorplans/plan.webp", URL: url}).Error)

	conn, err := pool.Acquire(ctx)
	require.NoError(t, err)
	removed, err := uc.Execute(ctx, conn, auth.PrincipalFromUser(owner), client.ID)
	pool.Release(conn)
	require.NoError(t, err)

	assert.Equal(t, int64(1), removed.Floorplans)
	assert.Empty(t, store.Keys())

	dispatcher.Close()
	assert.Equal(t, int64(1), testutil.Count(t, gdb, &models.AuditLog{}, "action = ?", "user_deleted"))
}
