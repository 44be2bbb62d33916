// Package testutil builds sqlite-backed databases and fixtures for tests.
package testutil

import (
	"fmt"
	"path/filepath"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/BruksfildServices01/jobsite-manager/internal/db"
	"github.com/BruksfildServices01/jobsite-manager/internal/models"
)

// Password is the plain-text password of every user created by CreateUser.
const Password = "correct-horse-battery"

var (
	seq      atomic.Int64
	hashOnce sync.Once
	hash     string
	hashErr  error
)

// NewDB opens a migrated sqlite database in a temp dir with foreign keys enforced.
// A file is used instead of :memory: so every pooled connection sees the same data.
func NewDB(t *testing.T) *gorm.DB {
	t.Helper()

	path := filepath.Join(t.TempDir(), "test.db")
	dsn := path + "?_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)"

	gdb, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: gormlogger.Discard,
	})
	require.NoError(t, err)
	require.NoError(t, db.Migrate(gdb))

	sqlDB, err := gdb.DB()
	require.NoError(t, err)
	t.Cleanup(func() { _ = sqlDB.Close() })

	return gdb
}

func NewPool(t *testing.T) *db.Pool {
	t.Helper()
	pool, err := db.NewPoolFromGorm(NewDB(t))
	require.NoError(t, err)
	return pool
}

// PasswordHash returns a bcrypt hash of Password at the minimum cost.
func PasswordHash(t *testing.T) string {
	t.Helper()
	hashOnce.Do(func() {
		var h []byte
		h, hashErr = bcrypt.GenerateFromPassword([]byte(Password), bcrypt.MinCost)
		hash = string(h)
	})
	require.NoError(t, hashErr)
	return hash
}

func CreateUser(t *testing.T, gdb *gorm.DB, typ models.UserType) *models.User {
	t.Helper()

	n := seq.Add(1)
	u := &models.User{
		FirstName:        fmt.Sprintf("User%d", n),
		LastName:         string(typ),
		Email:            fmt.Sprintf("user%d@example.com", n),
		Phone:            fmt.Sprintf("555-%04d", n),
		PasswordHash:     PasswordHash(t),
		Type:             typ,
		NotificationPref: models.NotifyEmail,
	}
	require.NoError(t, gdb.Create(u).Error)
	return u
}

func CreateJob(t *testing.T, gdb *gorm.DB, client, creator *models.User) *models.Job {
	t.Helper()
	j := &models.Job{
		Title:     "Kitchen remodel",
		Location:  "12 Main St",
		Status:    "open",
		ClientID:  client.ID,
		CreatedBy: creator.ID,
	}
	require.NoError(t, gdb.Create(j).Error)
	return j
}

func CreatePhase(t *testing.T, gdb *gorm.DB, job *models.Job, creator *models.User) *models.Phase {
	t.Helper()
	p := &models.Phase{JobID: job.ID, Title: "Demolition", CreatedBy: creator.ID}
	require.NoError(t, gdb.Create(p).Error)
	return p
}

func CreateTask(t *testing.T, gdb *gorm.DB, phase *models.Phase, creator *models.User, due *time.Time) *models.Task {
	t.Helper()
	task := &models.Task{
		PhaseID:   phase.ID,
		Title:     "Remove cabinets",
		Status:    models.StatusIncomplete,
		DueDate:   due,
		CreatedBy: creator.ID,
	}
	require.NoError(t, gdb.Create(task).Error)
	return task
}

func CreateMaterial(t *testing.T, gdb *gorm.DB, phase *models.Phase, creator *models.User, due *time.Time) *models.Material {
	t.Helper()
	m := &models.Material{
		PhaseID:   phase.ID,
		Title:     "Drywall sheets",
		Status:    models.StatusIncomplete,
		DueDate:   due,
		CreatedBy: creator.ID,
	}
	require.NoError(t, gdb.Create(m).Error)
	return m
}

func AssignTask(t *testing.T, gdb *gorm.DB, task *models.Task, user, by *models.User) {
	t.Helper()
	require.NoError(t, gdb.Create(&models.TaskAssignment{TaskID: task.ID, UserID: user.ID, AssignedBy: by.ID}).Error)
}

func AssignMaterial(t *testing.T, gdb *gorm.DB, m *models.Material, user, by *models.User) {
	t.Helper()
	require.NoError(t, gdb.Create(&models.MaterialAssignment{MaterialID: m.ID, UserID: user.ID, AssignedBy: by.ID}).Error)
}

func CreateNote(t *testing.T, gdb *gorm.DB, phase *models.Phase, author *models.User, details string) *models.Note {
	t.Helper()
	n := &models.Note{
		PhaseID:   phase.ID,
		CreatedAt: models.NoteTimestamp(time.Now().Add(time.Duration(seq.Add(1)) * time.Microsecond)),
		Details:   details,
		CreatedBy: author.ID,
	}
	require.NoError(t, gdb.Create(n).Error)
	return n
}

func Count(t *testing.T, gdb *gorm.DB, model any, query string, args ...any) int64 {
	t.Helper()
	var n int64
	q := gdb.Model(model)
	if query != "" {
		q = q.Where(query, args...)
	}
	require.NoError(t, q.Count(&n).Error)
	return n
}
