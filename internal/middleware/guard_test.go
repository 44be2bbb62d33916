package middleware

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/BruksfildServices01/jobsite-manager/internal/auth"
	"github.com/BruksfildServices01/jobsite-manager/internal/db"
	"github.com/BruksfildServices01/jobsite-manager/internal/httperr"
	"github.com/BruksfildServices01/jobsite-manager/internal/logger"
	"github.com/BruksfildServices01/jobsite-manager/internal/models"
)

type countingProvider struct {
	inner db.Provider
	err   error

	mu       sync.Mutex
	acquired int
	released int
}

func (p *countingProvider) Acquire(ctx context.Context) (*db.Conn, error) {
	p.mu.Lock()
	p.acquired++
	p.mu.Unlock()
	if p.err != nil {
		return nil, p.err
	}
	return p.inner.Acquire(ctx)
}

func (p *countingProvider) Release(conn *db.Conn) {
	p.mu.Lock()
	p.released++
	p.mu.Unlock()
	p.inner.Release(conn)
}

type fakeSessions struct {
	p *auth.Principal
}

func (f fakeSessions) Resolve(*http.Request) (*auth.Principal, bool) {
	return f.p, f.p != nil
}

func newMockProvider(t *testing.T) (*countingProvider, sqlmock.Sqlmock) {
	t.Helper()

	sqlDB, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { _ = sqlDB.Close() })

	gdb, err := gorm.Open(postgres.New(postgres.Config{Conn: sqlDB}), &gorm.Config{Logger: gormlogger.Discard})
	require.NoError(t, err)

	pool, err := db.NewPoolFromGorm(gdb)
	require.NoError(t, err)

	return &countingProvider{inner: pool}, mock
}

func serve(t *testing.T, h gin.HandlerFunc) *httptest.ResponseRecorder {
	t.Helper()
	gin.SetMode(gin.TestMode)

	r := gin.New()
	r.DELETE("/api/things/:id", h)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodDelete, "/api/things/1", nil))
	return w
}

func errorBody(t *testing.T, w *httptest.ResponseRecorder) string {
	t.Helper()
	var body map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	msg, _ := body["error"].(string)
	return msg
}

func expectUserType(mock sqlmock.Sqlmock, typ models.UserType) {
	mock.ExpectQuery(`SELECT "type" FROM "users"`).
		WillReturnRows(sqlmock.NewRows([]string{"type"}).AddRow(string(typ)))
}

var staff = &auth.Principal{ID: 5, Type: models.UserTypeStaff, FirstName: "Sam"}

func TestWithAuth_NoSessionReturns401BeforeAcquire(t *testing.T) {
	provider, mock := newMockProvider(t)
	g := NewGuard(provider, fakeSessions{}, logger.NewNop())
	called := false

	w := serve(t, g.WithAuth("Failed", func(c *gin.Context, conn *db.Conn, p *auth.Principal) error {
		called = true
		return nil
	}))

	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Equal(t, "Unauthorized", errorBody(t, w))
	assert.False(t, called)
	assert.Zero(t, provider.acquired)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestWithRole_WrongRoleReturns403WithoutQueries(t *testing.T) {
	provider, mock := newMockProvider(t)
	g := NewGuard(provider, fakeSessions{p: staff}, logger.NewNop())

	w := serve(t, g.WithRole([]models.UserType{models.UserTypeOwner, models.UserTypeAdmin}, "Failed to delete",
		func(c *gin.Context, conn *db.Conn, p *auth.Principal) error {
			return conn.DB().Exec("DELETE FROM users WHERE id = ?", 1).Error
		}))

	assert.Equal(t, http.StatusForbidden, w.Code)
	assert.Equal(t, "Forbidden", errorBody(t, w))
	assert.Zero(t, provider.acquired)
	// no expectations were registered, so any statement would have failed this
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestWithRole_EmptyRolesDeniesEveryone(t *testing.T) {
	provider, _ := newMockProvider(t)
	owner := &auth.Principal{ID: 1, Type: models.UserTypeOwner}
	g := NewGuard(provider, fakeSessions{p: owner}, logger.NewNop())

	w := serve(t, g.WithRole(nil, "x", func(*gin.Context, *db.Conn, *auth.Principal) error { return nil }))

	assert.Equal(t, http.StatusForbidden, w.Code)
	assert.Zero(t, provider.acquired)
}

func TestWithRole_AllowedRunsHandlerAndReleases(t *testing.T) {
	provider, mock := newMockProvider(t)
	g := NewGuard(provider, fakeSessions{p: staff}, logger.NewNop())

	expectUserType(mock, models.UserTypeStaff)
	mock.ExpectExec(`DELETE FROM things`).WillReturnResult(sqlmock.NewResult(0, 1))

	var got *auth.Principal
	w := serve(t, g.WithRole([]models.UserType{models.UserTypeStaff}, "Failed",
		func(c *gin.Context, conn *db.Conn, p *auth.Principal) error {
			got = p
			if err := conn.DB().Exec("DELETE FROM things WHERE id = ?", c.Param("id")).Error; err != nil {
				return err
			}
			c.JSON(http.StatusOK, gin.H{"deleted": true})
			return nil
		}))

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, staff, got)
	assert.Equal(t, 1, provider.acquired)
	assert.Equal(t, 1, provider.released)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestWithDB_PlainErrorBecomes500WithGenericMessage(t *testing.T) {
	provider, _ := newMockProvider(t)
	g := NewGuard(provider, fakeSessions{}, logger.NewNop())

	w := serve(t, g.WithDB("Failed to delete thing", func(c *gin.Context, conn *db.Conn) error {
		return errors.New(`pq: relation "things" does not exist`)
	}))

	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Equal(t, "Failed to delete thing", errorBody(t, w))
	assert.NotContains(t, w.Body.String(), "relation")
	assert.Equal(t, 1, provider.released)
}

func TestWithDB_StatusErrorKeepsStatus(t *testing.T) {
	provider, _ := newMockProvider(t)
	g := NewGuard(provider, fakeSessions{}, logger.NewNop())

	w := serve(t, g.WithDB("Failed", func(c *gin.Context, conn *db.Conn) error {
		return httperr.NotFoundErr("thing_not_found", "Thing not found")
	}))

	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, "Thing not found", errorBody(t, w))
	assert.Equal(t, 1, provider.released)
}

func TestWithDB_BusinessErrorIs400(t *testing.T) {
	provider, _ := newMockProvider(t)
	g := NewGuard(provider, fakeSessions{}, logger.NewNop())

	w := serve(t, g.WithDB("Failed", func(c *gin.Context, conn *db.Conn) error {
		return httperr.ErrBusiness("invalid_state")
	}))

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "invalid_state", errorBody(t, w))
}

func TestWithDB_ResponseAlreadyWrittenIsKept(t *testing.T) {
	provider, _ := newMockProvider(t)
	g := NewGuard(provider, fakeSessions{}, logger.NewNop())

	w := serve(t, g.WithDB("Failed", func(c *gin.Context, conn *db.Conn) error {
		c.JSON(http.StatusConflict, gin.H{"error": "Email already in use"})
		return errors.New("late failure")
	}))

	assert.Equal(t, http.StatusConflict, w.Code)
	assert.Equal(t, "Email already in use", errorBody(t, w))
}

func TestWithDB_PanicReleasesAndReturns500(t *testing.T) {
	provider, _ := newMockProvider(t)
	g := NewGuard(provider, fakeSessions{}, logger.NewNop())

	w := serve(t, g.WithDB("Failed", func(c *gin.Context, conn *db.Conn) error {
		panic("nil map")
	}))

	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Equal(t, "Failed", errorBody(t, w))
	assert.Equal(t, 1, provider.acquired)
	assert.Equal(t, 1, provider.released)
}

func TestWithDB_AcquireFailure(t *testing.T) {
	provider, _ := newMockProvider(t)
	provider.err = errors.New("too many connections")
	g := NewGuard(provider, fakeSessions{}, logger.NewNop())
	called := false

	w := serve(t, g.WithDB("Failed", func(c *gin.Context, conn *db.Conn) error {
		called = true
		return nil
	}))

	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.False(t, called)
	assert.Zero(t, provider.released)
}

func TestWithAuth_StoresPrincipalInContext(t *testing.T) {
	provider, mock := newMockProvider(t)
	expectUserType(mock, models.UserTypeStaff)
	g := NewGuard(provider, fakeSessions{p: staff}, logger.NewNop())

	w := serve(t, g.WithAuth("Failed", func(c *gin.Context, conn *db.Conn, p *auth.Principal) error {
		fromCtx, ok := PrincipalFrom(c)
		require.True(t, ok)
		assert.Equal(t, p, fromCtx)
		assert.Equal(t, uint(5), c.GetUint(ContextUserID))
		c.Status(http.StatusNoContent)
		return nil
	}))

	assert.Equal(t, http.StatusNoContent, w.Code)
}

func TestWithAuth_DeletedUserReturns401(t *testing.T) {
	provider, mock := newMockProvider(t)
	mock.ExpectQuery(`SELECT "type" FROM "users"`).WillReturnRows(sqlmock.NewRows([]string{"type"}))
	g := NewGuard(provider, fakeSessions{p: staff}, logger.NewNop())
	called := false

	w := serve(t, g.WithAuth("Failed", func(c *gin.Context, conn *db.Conn, p *auth.Principal) error {
		called = true
		return nil
	}))

	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Equal(t, "Unauthorized", errorBody(t, w))
	assert.False(t, called)
	assert.Equal(t, 1, provider.released)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestWithRole_DemotedUserReturns403(t *testing.T) {
	provider, mock := newMockProvider(t)
	expectUserType(mock, models.UserTypeStaff)
	admin := &auth.Principal{ID: 7, Type: models.UserTypeAdmin}
	g := NewGuard(provider, fakeSessions{p: admin}, logger.NewNop())

	w := serve(t, g.WithRole([]models.UserType{models.UserTypeOwner, models.UserTypeAdmin}, "Failed to delete",
		func(c *gin.Context, conn *db.Conn, p *auth.Principal) error {
			return conn.DB().Exec("DELETE FROM users WHERE id = ?", 1).Error
		}))

	assert.Equal(t, http.StatusForbidden, w.Code)
	assert.Equal(t, "Forbidden", errorBody(t, w))
	assert.Equal(t, 1, provider.released)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestWithAuth_PromotedUserSeesCurrentType(t *testing.T) {
	provider, mock := newMockProvider(t)
	expectUserType(mock, models.UserTypeAdmin)
	g := NewGuard(provider, fakeSessions{p: staff}, logger.NewNop())

	var got models.UserType
	w := serve(t, g.WithAuth("Failed", func(c *gin.Context, conn *db.Conn, p *auth.Principal) error {
		got = p.Type
		c.Status(http.StatusNoContent)
		return nil
	}))

	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Equal(t, models.UserTypeAdmin, got)
	assert.Equal(t, models.UserTypeStaff, staff.Type)
}
