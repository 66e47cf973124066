package database

import (
	"context"
	"database/sql"
	"errors"
	"sync"

	_ "github.com/lib/pq" // PostgreSQL driver for the lock connection
)

// ingestLockKey is the advisory lock key guarding the ingestion batch.
// One key for the whole pipeline: runs must never overlap.
const ingestLockKey int64 = 7342_0001

// BatchLock serializes ingestion runs across processes using a
// Postgres session advisory lock. Session locks are tied to a single
// connection, so the lock holds a dedicated database/sql connection
// open for the duration of the batch instead of borrowing from the
// GORM pool.
type BatchLock struct {
	db *sql.DB

	mu   sync.Mutex
	conn *sql.Conn
}

// NewBatchLock opens the dedicated lock connection pool.
func NewBatchLock(dsn string) (*BatchLock, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, WrapDBError("open lock connection", err)
	}
	db.SetMaxOpenConns(1)
	return &BatchLock{db: db}, nil
}

// TryAcquire attempts to take the ingestion lock without blocking.
// It returns false when another run currently holds it.
func (l *BatchLock) TryAcquire(ctx context.Context) (bool, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.conn != nil {
		return false, errors.New("batch lock already held by this process")
	}

	conn, err := l.db.Conn(ctx)
	if err != nil {
		return false, WrapDBError("checkout lock connection", err)
	}

	var acquired bool
	if err := conn.QueryRowContext(ctx, "SELECT pg_try_advisory_lock($1)", ingestLockKey).Scan(&acquired); err != nil {
		conn.Close()
		return false, WrapDBError("acquire ingest lock", err)
	}
	if !acquired {
		conn.Close()
		return false, nil
	}

	l.conn = conn
	return true, nil
}

// Release unlocks and returns the connection to the pool.
func (l *BatchLock) Release(ctx context.Context) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.conn == nil {
		return nil
	}
	_, err := l.conn.ExecContext(ctx, "SELECT pg_advisory_unlock($1)", ingestLockKey)
	closeErr := l.conn.Close()
	l.conn = nil
	if err != nil {
		return WrapDBError("release ingest lock", err)
	}
	return closeErr
}

// Close shuts the lock connection pool down.
func (l *BatchLock) Close() error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.conn != nil {
		l.conn.Close()
		l.conn = nil
	}
	return l.db.Close()
}
