package database

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"bizledger/internal/apperr"
	"bizledger/internal/config"

	"gorm.io/gorm"
)

// TxRunner runs a unit of work in one database transaction bounded by a total
// timeout and, on MySQL, a lock wait timeout.
type TxRunner struct {
	db       *gorm.DB
	timeout  time.Duration
	lockWait time.Duration
	opts     *sql.TxOptions
}

func NewTxRunner(db *gorm.DB, cfg *config.TxConfig) *TxRunner {
	r := &TxRunner{db: db, timeout: cfg.Timeout, lockWait: cfg.LockWait}
	if cfg.Isolation == "read_committed" {
		r.opts = &sql.TxOptions{Isolation: sql.LevelReadCommitted}
	}
	return r
}

// Run executes fn inside a transaction. The caller's cancellation is
// detached so a client disconnect cannot leave the work half applied; only
// the configured timeout aborts it. fn receives the detached context and must
// use it for every statement it issues.
func (r *TxRunner) Run(ctx context.Context, fn func(ctx context.Context, tx *gorm.DB) error) error {
	ctx = context.WithoutCancel(ctx)
	if r.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, r.timeout)
		defer cancel()
	}

	opts := []*sql.TxOptions{}
	if r.opts != nil && r.db.Dialector.Name() == DriverMySQL {
		opts = append(opts, r.opts)
	}

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if r.lockWait > 0 && tx.Dialector.Name() == DriverMySQL {
			wait := int(r.lockWait / time.Second)
			if wait < 1 {
				wait = 1
			}
			if err := tx.Exec(fmt.Sprintf("SET SESSION innodb_lock_wait_timeout = %d", wait)).Error; err != nil {
				return err
			}
		}
		return fn(ctx, tx)
	}, opts...)

	if err != nil && ctx.Err() == context.DeadlineExceeded {
		return apperr.Wrap(apperr.KindTimeout, "database transaction timed out, please retry", err)
	}
	return apperr.FromDB(err)
}
