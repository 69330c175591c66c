package storage

import (
	"context"
	"database/sql"
	"fmt"
	"net"
	"net/url"
	"strconv"
	"sync"
	"sync/atomic"
	"time"

	"github.com/fatali-fataliyev/expense_tracker/internal/config"
	"github.com/fatali-fataliyev/expense_tracker/logging"
	"github.com/go-sql-driver/mysql"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/stdlib"
)

const (
	dialTimeout      = 10 * time.Second
	keepAlivePingTTL = 5 * time.Second
)

type PoolConfig struct {
	MaxConns int
	// QueueLimit caps callers waiting for a slot, 0 means unbounded.
	QueueLimit int
	// AcquireTimeout bounds the wait for a slot, 0 means wait forever.
	AcquireTimeout        time.Duration
	KeepAliveInitialDelay time.Duration
	KeepAliveInterval     time.Duration
	ConnMaxIdleTime       time.Duration
}

func PoolConfigFrom(cfg config.DBConfig) PoolConfig {
	return PoolConfig{
		MaxConns:              cfg.MaxConns,
		QueueLimit:            cfg.QueueLimit,
		AcquireTimeout:        cfg.AcquireTimeout,
		KeepAliveInitialDelay: cfg.KeepAliveInitialDelay,
		KeepAliveInterval:     cfg.KeepAliveInterval,
		ConnMaxIdleTime:       cfg.ConnMaxIdleTime,
	}
}

// Pool hands out at most MaxConns statement slots. A slot is held for exactly
// one statement and returned before the call comes back to the caller.
type Pool struct {
	db      *sql.DB
	dialect Dialect
	cfg     PoolConfig

	slots   chan struct{}
	waiting atomic.Int64

	done      chan struct{}
	closeOnce sync.Once
	stopped   chan struct{}
}

type PoolStats struct {
	MaxConns int
	InUse    int
	Waiting  int
}

// OpenPool builds the driver connection for the configured dialect. It does
// not contact the database; call Probe for that.
func OpenPool(cfg config.DBConfig) (*Pool, error) {
	dialer := &net.Dialer{
		Timeout:   dialTimeout,
		KeepAlive: cfg.KeepAliveInitialDelay,
	}
	addr := net.JoinHostPort(cfg.Host, strconv.Itoa(cfg.Port))

	var db *sql.DB
	switch Dialect(cfg.Driver) {
	case MySQL:
		mysqlCfg := mysql.NewConfig()
		mysqlCfg.User = cfg.User
		mysqlCfg.Passwd = cfg.Password
		mysqlCfg.Net = "tcp"
		mysqlCfg.Addr = addr
		mysqlCfg.DBName = cfg.Name
		// UPDATE reports matched rows, so an unchanged profile is not mistaken for a missing one.
		mysqlCfg.ClientFoundRows = true
		mysqlCfg.DialFunc = dialer.DialContext

		connector, err := mysql.NewConnector(mysqlCfg)
		if err != nil {
			return nil, fmt.Errorf("failed to build mysql connector: %w", err)
		}
		db = sql.OpenDB(connector)
	case Postgres:
		connURL := url.URL{
			Scheme: "postgres",
			User:   url.UserPassword(cfg.User, cfg.Password),
			Host:   addr,
			Path:   "/" + cfg.Name,
		}
		pgCfg, err := pgx.ParseConfig(connURL.String())
		if err != nil {
			return nil, fmt.Errorf("failed to parse postgres config: %w", err)
		}
		pgCfg.DialFunc = dialer.DialContext
		db = stdlib.OpenDB(*pgCfg)
	case SQLite:
		var err error
		db, err = sql.Open("sqlite", cfg.Name)
		if err != nil {
			return nil, fmt.Errorf("failed to open sqlite database: %w", err)
		}
	default:
		return nil, fmt.Errorf("unsupported database driver: %s", cfg.Driver)
	}

	return NewPool(db, Dialect(cfg.Driver), PoolConfigFrom(cfg)), nil
}

// NewPool takes ownership of db. A keep-alive loop is started when
// KeepAliveInterval is positive.
func NewPool(db *sql.DB, dialect Dialect, cfg PoolConfig) *Pool {
	if cfg.MaxConns <= 0 {
		cfg.MaxConns = 10
	}
	db.SetMaxOpenConns(cfg.MaxConns)
	db.SetMaxIdleConns(cfg.MaxConns)
	if cfg.ConnMaxIdleTime > 0 {
		db.SetConnMaxIdleTime(cfg.ConnMaxIdleTime)
	}

	p := &Pool{
		db:      db,
		dialect: dialect,
		cfg:     cfg,
		slots:   make(chan struct{}, cfg.MaxConns),
		done:    make(chan struct{}),
		stopped: make(chan struct{}),
	}

	if cfg.KeepAliveInterval > 0 {
		go p.keepAlive(cfg.KeepAliveInitialDelay, cfg.KeepAliveInterval)
	} else {
		close(p.stopped)
	}
	return p
}

func (p *Pool) Dialect() Dialect {
	return p.dialect
}

func (p *Pool) Stats() PoolStats {
	return PoolStats{
		MaxConns: p.cfg.MaxConns,
		InUse:    len(p.slots),
		Waiting:  int(p.waiting.Load()),
	}
}

func (p *Pool) acquire(ctx context.Context) error {
	select {
	case <-p.done:
		return ErrPoolClosed
	default:
	}

	select {
	case p.slots <- struct{}{}:
		return nil
	default:
	}

	waiting := p.waiting.Add(1)
	defer p.waiting.Add(-1)
	if p.cfg.QueueLimit > 0 && waiting > int64(p.cfg.QueueLimit) {
		return fmt.Errorf("%w: %d callers already waiting", ErrPoolSaturated, p.cfg.QueueLimit)
	}

	var timeout <-chan time.Time
	if p.cfg.AcquireTimeout > 0 {
		timer := time.NewTimer(p.cfg.AcquireTimeout)
		defer timer.Stop()
		timeout = timer.C
	}

	select {
	case p.slots <- struct{}{}:
		return nil
	case <-timeout:
		return fmt.Errorf("%w: no connection within %s", ErrPoolSaturated, p.cfg.AcquireTimeout)
	case <-ctx.Done():
		return ctx.Err()
	case <-p.done:
		return ErrPoolClosed
	}
}

func (p *Pool) tryAcquire() bool {
	select {
	case p.slots <- struct{}{}:
		return true
	default:
		return false
	}
}

func (p *Pool) release() {
	<-p.slots
}

func (p *Pool) Exec(ctx context.Context, op string, query string, args ...any) (sql.Result, error) {
	if err := p.acquire(ctx); err != nil {
		return nil, wrapErr(op, err)
	}
	defer p.release()

	res, err := p.db.ExecContext(ctx, p.dialect.Rebind(query), args...)
	if err != nil {
		return nil, wrapErr(op, err)
	}
	return res, nil
}

// Query runs scan once per row while the slot is held.
func (p *Pool) Query(ctx context.Context, op string, query string, args []any, scan func(*sql.Rows) error) error {
	if err := p.acquire(ctx); err != nil {
		return wrapErr(op, err)
	}
	defer p.release()

	rows, err := p.db.QueryContext(ctx, p.dialect.Rebind(query), args...)
	if err != nil {
		return wrapErr(op, err)
	}
	defer rows.Close()

	for rows.Next() {
		if err := scan(rows); err != nil {
			return wrapErr(op, err)
		}
	}
	return wrapErr(op, rows.Err())
}

// QueryRow scans a single row into dest. No row yields a StoreError
// for which IsNoRows is true.
func (p *Pool) QueryRow(ctx context.Context, op string, query string, args []any, dest ...any) error {
	if err := p.acquire(ctx); err != nil {
		return wrapErr(op, err)
	}
	defer p.release()

	return wrapErr(op, p.db.QueryRowContext(ctx, p.dialect.Rebind(query), args...).Scan(dest...))
}

// Insert runs an INSERT and returns the generated id.
func (p *Pool) Insert(ctx context.Context, op string, query string, args ...any) (int64, error) {
	if p.dialect.SupportsReturning() {
		var id int64
		if err := p.QueryRow(ctx, op, query+" RETURNING id", args, &id); err != nil {
			return 0, err
		}
		return id, nil
	}

	res, err := p.Exec(ctx, op, query, args...)
	if err != nil {
		return 0, err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, wrapErr(op, err)
	}
	return id, nil
}

// Probe checks out one connection and gives it straight back.
func (p *Pool) Probe(ctx context.Context) error {
	if err := p.acquire(ctx); err != nil {
		logging.Logger.Errorf("database probe failed: %v", err)
		return wrapErr("probe", err)
	}
	defer p.release()

	conn, err := p.db.Conn(ctx)
	if err != nil {
		logging.Logger.Errorf("database probe failed: %v", err)
		return wrapErr("probe", err)
	}
	if err := conn.Close(); err != nil {
		logging.Logger.Warnf("database probe could not release connection: %v", err)
	}

	logging.Logger.Infof("connected to %s database, pool size %d", p.dialect, p.cfg.MaxConns)
	return nil
}

func (p *Pool) keepAlive(initialDelay time.Duration, interval time.Duration) {
	defer close(p.stopped)

	timer := time.NewTimer(initialDelay)
	defer timer.Stop()

	for {
		select {
		case <-p.done:
			return
		case <-timer.C:
		}

		// A busy pool is already keeping its connections warm.
		if p.tryAcquire() {
			ctx, cancel := context.WithTimeout(context.Background(), keepAlivePingTTL)
			if err := p.db.PingContext(ctx); err != nil {
				logging.Logger.Warnf("database keep-alive ping failed: %v", err)
			}
			cancel()
			p.release()
		}

		timer.Reset(interval)
	}
}

// Close stops the keep-alive loop, fails pending acquires and closes the database.
func (p *Pool) Close() error {
	var err error
	p.closeOnce.Do(func() {
		close(p.done)
		<-p.stopped
		err = p.db.Close()
	})
	return err
}
