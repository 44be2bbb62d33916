package middleware

import (
	"errors"
	"fmt"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/BruksfildServices01/jobsite-manager/internal/auth"
	"github.com/BruksfildServices01/jobsite-manager/internal/db"
	"github.com/BruksfildServices01/jobsite-manager/internal/httperr"
	"github.com/BruksfildServices01/jobsite-manager/internal/logger"
	"github.com/BruksfildServices01/jobsite-manager/internal/models"
)

// DBHandler runs with a pooled connection that is released when it returns.
type DBHandler func(c *gin.Context, conn *db.Conn) error

// AuthHandler is a DBHandler that also receives the session principal.
type AuthHandler func(c *gin.Context, conn *db.Conn, p *auth.Principal) error

// Guard wraps route logic with session resolution, role checks,
// connection lifecycle and error translation.
type Guard struct {
	pool     db.Provider
	sessions SessionResolver
	log      logger.Logger
}

func NewGuard(pool db.Provider, sessions SessionResolver, log logger.Logger) *Guard {
	return &Guard{pool: pool, sessions: sessions, log: log}
}

// WithDB acquires a connection, runs h and always releases the connection.
// A returned *httperr.StatusError is written as is; any other error or
// panic becomes 500 with errMsg.
func (g *Guard) WithDB(errMsg string, h DBHandler) gin.HandlerFunc {
	return func(c *gin.Context) {
		conn, err := g.pool.Acquire(c.Request.Context())
		if err != nil {
			g.fail(c, errMsg, err)
			return
		}

		if err := g.invoke(c, conn, h); err != nil {
			g.fail(c, errMsg, err)
		}
	}
}

// WithAuth rejects requests without a session with 401 before a
// connection is acquired.
func (g *Guard) WithAuth(errMsg string, h AuthHandler) gin.HandlerFunc {
	return g.authorize(nil, errMsg, h)
}

// WithRole is WithAuth plus a 403 when the principal's type is not in
// roles. Both checks happen before a connection is acquired, and the
// role is checked again against the users row once it is.
func (g *Guard) WithRole(roles []models.UserType, errMsg string, h AuthHandler) gin.HandlerFunc {
	if roles == nil {
		roles = []models.UserType{}
	}
	return g.authorize(roles, errMsg, h)
}

func (g *Guard) authorize(roles []models.UserType, errMsg string, h AuthHandler) gin.HandlerFunc {
	return func(c *gin.Context) {
		p, ok := g.sessions.Resolve(c.Request)
		if !ok {
			httperr.Unauthorized(c, "unauthorized", "Unauthorized")
			c.Abort()
			return
		}
		setPrincipal(c, p)

		if roles != nil && !p.HasRole(roles...) {
			httperr.Forbidden(c, "forbidden", "Forbidden")
			c.Abort()
			return
		}

		g.WithDB(errMsg, func(c *gin.Context, conn *db.Conn) error {
			current, err := refreshPrincipal(c, conn, p, roles)
			if err != nil {
				return err
			}
			setPrincipal(c, current)
			return h(c, conn, current)
		})(c)
	}
}

// refreshPrincipal re-reads the user's type, since a session outlives
// account deletion and role changes.
func refreshPrincipal(c *gin.Context, conn *db.Conn, p *auth.Principal, roles []models.UserType) (*auth.Principal, error) {
	var row struct{ Type models.UserType }
	err := conn.DB().WithContext(c.Request.Context()).
		Model(&models.User{}).
		Select("type").
		Where("id = ?", p.ID).
		Take(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, httperr.UnauthorizedErr("unauthorized", "Unauthorized")
	}
	if err != nil {
		return nil, err
	}

	if row.Type == p.Type {
		return p, nil
	}

	current := *p
	current.Type = row.Type
	if roles != nil && !current.HasRole(roles...) {
		return nil, httperr.ForbiddenErr("forbidden", "Forbidden")
	}
	return &current, nil
}

func (g *Guard) invoke(c *gin.Context, conn *db.Conn, h DBHandler) (err error) {
	defer g.pool.Release(conn)
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic: %v", r)
		}
	}()
	return h(c, conn)
}

func (g *Guard) fail(c *gin.Context, errMsg string, err error) {
	defer c.Abort()

	if se, ok := httperr.AsStatus(err); ok {
		if !c.Writer.Written() {
			httperr.Write(c, se.Status, se.Code, se.Message)
		}
		return
	}

	var be httperr.BusinessError
	if errors.As(err, &be) {
		if !c.Writer.Written() {
			httperr.BadRequest(c, be.Code, be.Code)
		}
		return
	}

	fields := map[string]interface{}{
		"error":  err.Error(),
		"method": c.Request.Method,
		"route":  c.FullPath(),
	}
	if id, ok := c.Get(ContextUserID); ok {
		fields["user_id"] = id
	}
	g.log.WithFields(fields).Error(errMsg)

	if !c.Writer.Written() {
		httperr.Internal(c, "", errMsg)
	}
}
