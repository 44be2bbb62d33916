package work_test

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/BruksfildServices01/jobsite-manager/internal/auth"
	"github.com/BruksfildServices01/jobsite-manager/internal/db"
	domain "github.com/BruksfildServices01/jobsite-manager/internal/domain/work"
	"github.com/BruksfildServices01/jobsite-manager/internal/httperr"
	"github.com/BruksfildServices01/jobsite-manager/internal/infra/repository"
	"github.com/BruksfildServices01/jobsite-manager/internal/logger"
	"github.com/BruksfildServices01/jobsite-manager/internal/mailer"
	"github.com/BruksfildServices01/jobsite-manager/internal/models"
	"github.com/BruksfildServices01/jobsite-manager/internal/testutil"
	"github.com/BruksfildServices01/jobsite-manager/internal/usecase/notify"
	ucWork "github.com/BruksfildServices01/jobsite-manager/internal/usecase/work"
)

type outbox struct {
	mu sync.Mutex
	to []string
}

func (o *outbox) Send(_ context.Context, m mailer.Message) error {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.to = append(o.to, m.To)
	return nil
}

type env struct {
	pool     *db.Pool
	conn     *db.Conn
	outbox   *outbox
	create   *ucWork.CreateItem
	update   *ucWork.UpdateItem
	status   *ucWork.SetStatus
	remove   *ucWork.DeleteItem
	admin    *models.User
	phase    *models.Phase
	workerA  *models.User
	workerB  *models.User
	customer *models.User
}

func newEnv(t *testing.T) *env {
	t.Helper()
	pool := testutil.NewPool(t)
	gdb := pool.Gorm()

	conn, err := pool.Acquire(context.Background())
	require.NoError(t, err)
	t.Cleanup(func() { pool.Release(conn) })

	repo := repository.NewWorkGormRepository()
	jobs := repository.NewJobGormRepository(repo)
	box := &outbox{}
	notifier := notify.NewAssignmentNotifier(box, auth.NewTokens("secret"), "http://app", logger.NewNop())

	admin := testutil.CreateUser(t, gdb, models.UserTypeAdmin)
	customer := testutil.CreateUser(t, gdb, models.UserTypeClient)

	return &env{
		pool:     pool,
		conn:     conn,
		outbox:   box,
		create:   ucWork.NewCreateItem(repo, jobs, notifier, nil),
		update:   ucWork.NewUpdateItem(repo, jobs, notifier),
		status:   ucWork.NewSetStatus(repo),
		remove:   ucWork.NewDeleteItem(repository.NewCleanupGormRepository(), nil),
		admin:    admin,
		phase:    testutil.CreatePhase(t, gdb, testutil.CreateJob(t, gdb, customer, admin), admin),
		workerA:  testutil.CreateUser(t, gdb, models.UserTypeStaff),
		workerB:  testutil.CreateUser(t, gdb, models.UserTypeStaff),
		customer: customer,
	}
}

func TestCreateItem_AssignsAndNotifies(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()

	for _, kind := range []domain.Kind{domain.KindTask, domain.KindMaterial} {
		e.outbox.to = nil

		item, err := e.create.Execute(ctx, e.conn, auth.PrincipalFromUser(e.admin), kind, e.phase.ID, ucWork.ItemInput{
			Title:     "Install trim",
			Assignees: []uint{e.workerA.ID, e.admin.ID},
		})
		require.NoError(t, err)

		assert.Equal(t, models.StatusIncomplete, item.Status)
		assert.Len(t, item.Assignees, 2)
		// the assigner is not emailed about their own assignment
		assert.Equal(t, []string{e.workerA.Email}, e.outbox.to)
	}
}

func TestCreateItem_MissingPhase(t *testing.T) {
	e := newEnv(t)

	_, err := e.create.Execute(context.Background(), e.conn, auth.PrincipalFromUser(e.admin), domain.KindTask, 9999, ucWork.ItemInput{Title: "x"})
	se, ok := httperr.AsStatus(err)
	require.True(t, ok)
	assert.Equal(t, 404, se.Status)
}

func TestUpdateItem_NotifiesOnlyNewAssignees(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	actor := auth.PrincipalFromUser(e.admin)

	item, err := e.create.Execute(ctx, e.conn, actor, domain.KindTask, e.phase.ID, ucWork.ItemInput{
		Title: "Paint", Assignees: []uint{e.workerA.ID},
	})
	require.NoError(t, err)
	e.outbox.to = nil

	updated, err := e.update.Execute(ctx, e.conn, actor, domain.KindTask, item.ID, ucWork.ItemInput{
		Title: "Paint twice", Status: "Complete", Assignees: []uint{e.workerA.ID, e.workerB.ID},
	})
	require.NoError(t, err)

	assert.Equal(t, "Paint twice", updated.Title)
	assert.Equal(t, models.StatusComplete, updated.Status)
	assert.Len(t, updated.Assignees, 2)
	assert.Equal(t, []string{e.workerB.Email}, e.outbox.to)

	// nil assignees keeps the list
	kept, err := e.update.Execute(ctx, e.conn, actor, domain.KindTask, item.ID, ucWork.ItemInput{Title: "Paint"})
	require.NoError(t, err)
	assert.Len(t, kept.Assignees, 2)
	assert.Equal(t, models.StatusComplete, kept.Status)
}

func TestSetStatus_ClientForbidden(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	task := testutil.CreateTask(t, e.pool.Gorm(), e.phase, e.admin, nil)

	err := e.status.Execute(ctx, e.conn, auth.PrincipalFromUser(e.customer), domain.KindTask, task.ID, "Complete")
	se, ok := httperr.AsStatus(err)
	require.True(t, ok)
	assert.Equal(t, 403, se.Status)

	require.NoError(t, e.status.Execute(ctx, e.conn, auth.PrincipalFromUser(e.workerA), domain.KindTask, task.ID, "Complete"))

	err = e.status.Execute(ctx, e.conn, auth.PrincipalFromUser(e.workerA), domain.KindTask, task.ID, "Done")
	assert.True(t, httperr.IsBusiness(err, "invalid_status"))
}

func TestDeleteItem_RemovesAssignments(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	gdb := e.pool.Gorm()
	actor := auth.PrincipalFromUser(e.admin)

	m := testutil.CreateMaterial(t, gdb, e.phase, e.admin, nil)
	testutil.AssignMaterial(t, gdb, m, e.workerA, e.admin)

	require.NoError(t, e.remove.Execute(ctx, e.conn, actor, domain.KindMaterial, m.ID))
	assert.Zero(t, testutil.Count(t, gdb, &models.MaterialAssignment{}, ""))
	assert.Zero(t, testutil.Count(t, gdb, &models.Material{}, ""))

	err := e.remove.Execute(ctx, e.conn, actor, domain.KindMaterial, m.ID)
	se, ok := httperr.AsStatus(err)
	require.True(t, ok)
	assert.Equal(t, 404, se.Status)
}
