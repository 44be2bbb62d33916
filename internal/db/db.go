package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/BruksfildServices01/jobsite-manager/internal/config"
	"github.com/BruksfildServices01/jobsite-manager/internal/models"
)

var (
	ErrMissingConfig = errors.New("missing database configuration")
	ErrReleased      = errors.New("connection already released")
)

// Provider hands out pooled connections. Every Acquire must be paired with a Release.
type Provider interface {
	Acquire(ctx context.Context) (*Conn, error)
	Release(conn *Conn)
}

// Pool is the process-wide connection pool. It is created once at startup
// and injected wherever connections are needed.
type Pool struct {
	gdb   *gorm.DB
	sqlDB *sql.DB
}

func Open(cfg config.DatabaseConfig) (*Pool, error) {
	missing := []string{}
	if strings.TrimSpace(cfg.Host) == "" {
		missing = append(missing, "DB_HOST")
	}
	if strings.TrimSpace(cfg.User) == "" {
		missing = append(missing, "DB_USER")
	}
	if cfg.Password == "" {
		missing = append(missing, "DB_PASSWORD")
	}
	if strings.TrimSpace(cfg.Name) == "" {
		missing = append(missing, "DB_NAME")
	}
	if len(missing) > 0 {
		return nil, fmt.Errorf("%w: %s", ErrMissingConfig, strings.Join(missing, ", "))
	}

	gdb, err := gorm.Open(postgres.Open(cfg.DSN()), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Warn),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect database: %w", err)
	}

	sqlDB, err := gdb.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get sql.DB: %w", err)
	}

	maxOpen := cfg.MaxOpenConns
	if maxOpen <= 0 {
		maxOpen = 10
	}
	maxIdle := cfg.MaxIdleConns
	if maxIdle <= 0 {
		maxIdle = 5
	}

	sqlDB.SetMaxOpenConns(maxOpen)
	sqlDB.SetMaxIdleConns(maxIdle)
	sqlDB.SetConnMaxLifetime(30 * time.Minute)
	sqlDB.SetConnMaxIdleTime(10 * time.Minute)

	if err := Migrate(gdb); err != nil {
		_ = sqlDB.Close()
		return nil, err
	}

	return &Pool{gdb: gdb, sqlDB: sqlDB}, nil
}

// NewPoolFromGorm wraps an already opened gorm handle.
func NewPoolFromGorm(gdb *gorm.DB) (*Pool, error) {
	sqlDB, err := gdb.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get sql.DB: %w", err)
	}
	return &Pool{gdb: gdb, sqlDB: sqlDB}, nil
}

func Migrate(gdb *gorm.DB) error {
	if err := gdb.AutoMigrate(models.All()...); err != nil {
		return fmt.Errorf("failed to migrate: %w", err)
	}
	return nil
}

// Gorm returns the pool-level handle, for background work that does not
// run inside a request.
func (p *Pool) Gorm() *gorm.DB {
	return p.gdb
}

func (p *Pool) Stats() sql.DBStats {
	return p.sqlDB.Stats()
}

func (p *Pool) Close() error {
	return p.sqlDB.Close()
}

// Acquire pins one connection from the pool. Callers queue inside
// database/sql when the pool is exhausted.
func (p *Pool) Acquire(ctx context.Context) (*Conn, error) {
	raw, err := p.sqlDB.Conn(ctx)
	if err != nil {
		return nil, fmt.Errorf("acquire connection: %w", err)
	}

	session := p.gdb.Session(&gorm.Session{NewDB: true, Context: ctx})
	session.Statement.ConnPool = raw

	return &Conn{db: session, raw: raw}, nil
}

// Release returns the connection to the pool. Releasing twice is a no-op.
func (p *Pool) Release(conn *Conn) {
	if conn == nil {
		return
	}
	conn.release()
}

// Conn is a single pooled connection bound to one request.
type Conn struct {
	db  *gorm.DB
	raw *sql.Conn

	mu       sync.Mutex
	inTx     bool
	released bool
}

// DB returns a gorm handle whose statements all run on this connection.
func (c *Conn) DB() *gorm.DB {
	return c.db
}

func (c *Conn) release() {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.released {
		return
	}
	c.released = true
	_ = c.raw.Close()
}

func (c *Conn) beginTx() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.released {
		return ErrReleased
	}
	if c.inTx {
		return ErrNestedTransaction
	}
	c.inTx = true
	return nil
}

func (c *Conn) endTx() {
	c.mu.Lock()
	c.inTx = false
	c.mu.Unlock()
}

var _ Provider = (*Pool)(nil)
