package job_test

import (
	"bytes"
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/BruksfildServices01/jobsite-manager/internal/auth"
	"github.com/BruksfildServices01/jobsite-manager/internal/db"
	"github.com/BruksfildServices01/jobsite-manager/internal/httperr"
	"github.com/BruksfildServices01/jobsite-manager/internal/infra/repository"
	"github.com/BruksfildServices01/jobsite-manager/internal/logger"
	"github.com/BruksfildServices01/jobsite-manager/internal/models"
	"github.com/BruksfildServices01/jobsite-manager/internal/storage"
	"github.com/BruksfildServices01/jobsite-manager/internal/testutil"
	ucJob "github.com/BruksfildServices01/jobsite-manager/internal/usecase/job"
)

func acquire(t *testing.T, pool *db.Pool) *db.Conn {
	t.Helper()
	conn, err := pool.Acquire(context.Background())
	require.NoError(t, err)
	t.Cleanup(func() { pool.Release(conn) })
	return conn
}

func status(t *testing.T, err error) int {
	t.Helper()
	se, ok := httperr.AsStatus(err)
	require.True(t, ok, "expected status error, got %v", err)
	return se.Status
}

func TestCreateJob_WithPhases(t *testing.T) {
	pool := testutil.NewPool(t)
	gdb := pool.Gorm()
	admin := testutil.CreateUser(t, gdb, models.UserTypeAdmin)
	client := testutil.CreateUser(t, gdb, models.UserTypeClient)

	uc := ucJob.NewCreateJob(nil)
	j, err := uc.Execute(context.Background(), acquire(t, pool), admin.ID, ucJob.CreateJobInput{
		Title:    "  Deck build ",
		ClientID: client.ID,
		Phases:   []ucJob.PhaseInput{{Title: "Footings"}, {Title: "Framing"}},
	})
	require.NoError(t, err)

	assert.Equal(t, "Deck build", j.Title)
	assert.Equal(t, "open", j.Status)
	assert.Equal(t, int64(2), testutil.Count(t, gdb, &models.Phase{}, "job_id = ?", j.ID))
}

func TestCreateJob_ClientMustBeClient(t *testing.T) {
	pool := testutil.NewPool(t)
	gdb := pool.Gorm()
	admin := testutil.CreateUser(t, gdb, models.UserTypeAdmin)
	staff := testutil.CreateUser(t, gdb, models.UserTypeStaff)

	uc := ucJob.NewCreateJob(nil)
	conn := acquire(t, pool)

	for _, id := range []uint{staff.ID, 999} {
		_, err := uc.Execute(context.Background(), conn, admin.ID, ucJob.CreateJobInput{
			Title: "Deck", ClientID: id, Phases: []ucJob.PhaseInput{{Title: "Footings"}},
		})
		assert.Equal(t, 400, status(t, err))
	}
	assert.Zero(t, testutil.Count(t, gdb, &models.Job{}, ""))
	assert.Zero(t, testutil.Count(t, gdb, &models.Phase{}, ""))
}

func TestDeleteJob_CascadesAndCleansStorage(t *testing.T) {
	pool := testutil.NewPool(t)
	gdb := pool.Gorm()
	store := storage.NewMemoryStore("")
	ctx := context.Background()

	admin := testutil.CreateUser(t, gdb, models.UserTypeAdmin)
	client := testutil.CreateUser(t, gdb, models.UserTypeClient)
	j := testutil.CreateJob(t, gdb, client, admin)
	phase := testutil.CreatePhase(t, gdb, j, admin)
	testutil.AssignTask(t, gdb, testutil.CreateTask(t, gdb, phase, admin, nil), admin, admin)
	testutil.CreateNote(t, gdb, phase, admin, "poured")

	_, err := store.Put(ctx, "jobs/x/floorplans/a.pdf", bytes.NewReader([]byte("%PDF")), 4, "application/pdf")
	require.NoError(t, err)
	require.NoError(t, gdb.Create(&models.Floorplan{JobID: j.ID, Name: "a.pdf", ObjectKey: "jobs/x/floorplans/a.pdf", URL: "u"}).Error)

	uc := ucJob.NewDeleteJob(repository.NewCleanupGormRepository(), store, nil, logger.NewNop())
	conn := acquire(t, pool)

	removed, err := uc.Execute(ctx, conn, admin.ID, j.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(1), removed.Jobs)
	assert.Equal(t, int64(1), removed.Notes)
	assert.Empty(t, store.Keys())
	assert.Equal(t, int64(2), testutil.Count(t, gdb, &models.User{}, ""))

	_, err = uc.Execute(ctx, conn, admin.ID, j.ID)
	assert.Equal(t, 404, status(t, err))
}

func TestDeletePhase_Missing(t *testing.T) {
	pool := testutil.NewPool(t)
	uc := ucJob.NewDeletePhase(repository.NewCleanupGormRepository(), nil)

	_, err := uc.Execute(context.Background(), acquire(t, pool), 1, 12345)
	assert.Equal(t, 404, status(t, err))
}

func TestGetJobDetail_ClientScope(t *testing.T) {
	pool := testutil.NewPool(t)
	gdb := pool.Gorm()
	admin := testutil.CreateUser(t, gdb, models.UserTypeAdmin)
	owner := testutil.CreateUser(t, gdb, models.UserTypeClient)
	other := testutil.CreateUser(t, gdb, models.UserTypeClient)
	j := testutil.CreateJob(t, gdb, owner, admin)

	uc := ucJob.NewGetJobDetail(repository.NewJobGormRepository(repository.NewWorkGormRepository()))
	conn := acquire(t, pool)
	ctx := context.Background()

	detail, err := uc.Execute(ctx, conn, auth.PrincipalFromUser(owner), j.ID)
	require.NoError(t, err)
	assert.Equal(t, j.ID, detail.ID)

	_, err = uc.Execute(ctx, conn, auth.PrincipalFromUser(other), j.ID)
	assert.Equal(t, 404, status(t, err))

	_, err = uc.Execute(ctx, conn, auth.PrincipalFromUser(admin), j.ID)
	assert.NoError(t, err)
}

func TestListCalendar_MonthBoundariesAreUTC(t *testing.T) {
	pool := testutil.NewPool(t)
	gdb := pool.Gorm()
	admin := testutil.CreateUser(t, gdb, models.UserTypeAdmin)
	client := testutil.CreateUser(t, gdb, models.UserTypeClient)
	phase := testutil.CreatePhase(t, gdb, testutil.CreateJob(t, gdb, client, admin), admin)

	first := time.Date(2025, time.March, 1, 0, 0, 0, 0, time.UTC)
	last := time.Date(2025, time.March, 31, 0, 0, 0, 0, time.UTC)
	next := time.Date(2025, time.April, 1, 0, 0, 0, 0, time.UTC)
	testutil.CreateTask(t, gdb, phase, admin, &first)
	testutil.CreateTask(t, gdb, phase, admin, &last)
	testutil.CreateMaterial(t, gdb, phase, admin, &next)

	uc := ucJob.NewListCalendar(repository.NewJobGormRepository(repository.NewWorkGormRepository()))
	conn := acquire(t, pool)

	march, err := uc.Execute(context.Background(), conn, auth.PrincipalFromUser(admin), 2025, 3)
	require.NoError(t, err)
	assert.Len(t, march, 2)

	april, err := uc.Execute(context.Background(), conn, auth.PrincipalFromUser(client), 2025, 4)
	require.NoError(t, err)
	assert.Len(t, april, 1)
}
