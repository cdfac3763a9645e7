package db

import (
	"context"
	"errors"
	"log"

	"tripplanner/internal/util"
)

var ErrManagerStopped = errors.New("database manager stopped")

// Operation represents a database write that needs to be executed
type Operation struct {
	Ctx     context.Context
	Execute func() error
	Result  chan error
}

// DBManager serializes writes. SQLite allows a single writer at a time and
// funnelling writes through one goroutine avoids most "database is locked"
// failures; the rest are retried with backoff.
type DBManager struct {
	opQueue  chan Operation
	stopping chan struct{}
	stopped  chan struct{}
}

// NewDBManager creates a new database manager
func NewDBManager() *DBManager {
	m := &DBManager{
		opQueue:  make(chan Operation, 100),
		stopping: make(chan struct{}),
		stopped:  make(chan struct{}),
	}

	// Start the worker goroutine
	go m.worker()
	log.Println("Database access manager started")

	return m
}

// worker processes operations one at a time
func (m *DBManager) worker() {
	defer close(m.stopped)
	for {
		select {
		case op := <-m.opQueue:
			if err := op.Ctx.Err(); err != nil {
				op.Result <- err
				continue
			}
			op.Result <- util.RetryOnLock(op.Ctx, op.Execute)
		case <-m.stopping:
			return
		}
	}
}

// ExecuteOperation queues a write and waits for its result
func (m *DBManager) ExecuteOperation(ctx context.Context, execute func() error) error {
	select {
	case <-m.stopping:
		return ErrManagerStopped
	default:
	}

	resultChan := make(chan error, 1)
	select {
	case m.opQueue <- Operation{Ctx: ctx, Execute: execute, Result: resultChan}:
	case <-m.stopping:
		return ErrManagerStopped
	case <-ctx.Done():
		return ctx.Err()
	}

	select {
	case err := <-resultChan:
		return err
	case <-m.stopped:
		select {
		case err := <-resultChan:
			return err
		default:
			return ErrManagerStopped
		}
	}
}

// Execute runs a write that produces a value through the manager's queue
func Execute[T any](ctx context.Context, m *DBManager, execute func() (T, error)) (T, error) {
	var result T
	err := m.ExecuteOperation(ctx, func() error {
		var err error
		result, err = execute()
		return err
	})
	return result, err
}

// Stop stops the database manager
func (m *DBManager) Stop() {
	select {
	case <-m.stopping:
	default:
		close(m.stopping)
	}
	<-m.stopped
}
