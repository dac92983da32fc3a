package job

import (
	"context"
	"errors"
	"sync"
	"testing"

	"bizledger/internal/config"
	"bizledger/internal/infrastructure/database"
	"bizledger/internal/infrastructure/logging"
	"bizledger/internal/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

type fakePublisher struct {
	mu   sync.Mutex
	fail bool
	keys []string
}

func (p *fakePublisher) Publish(_ context.Context, _, key, _ string) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.fail {
		return errors.New("broker unavailable")
	}
	p.keys = append(p.keys, key)
	return nil
}

type fakeLocker struct {
	held     bool
	unlocked int
}

func (l *fakeLocker) TryLock(context.Context) (bool, error) { return !l.held, nil }
func (l *fakeLocker) Unlock(context.Context) error {
	l.unlocked++
	return nil
}

func openDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := database.Open(&config.DatabaseConfig{Driver: database.DriverSQLite, Path: ":memory:", LogLevel: "silent"}, nil)
	require.NoError(t, err)
	require.NoError(t, database.Migrate(db))
	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			_ = sqlDB.Close()
		}
	})
	return db
}

func seed(t *testing.T, db *gorm.DB, keys ...string) {
	t.Helper()
	for _, k := range keys {
		require.NoError(t, db.Create(&model.OutboxMessage{
			MessageKey: k, Topic: "ledger-events", EventType: "invoice.created", CompanyID: 1,
			Payload: `{}`, Status: model.OutboxStatusPending,
		}).Error)
	}
}

func statuses(t *testing.T, db *gorm.DB) []model.OutboxMessage {
	t.Helper()
	var rows []model.OutboxMessage
	require.NoError(t, db.Order("id ASC").Find(&rows).Error)
	return rows
}

var business = &config.BusinessConfig{MaxRetryCount: 2, OutboxBatch: 10}

func TestRunOnce_PublishesInOrder(t *testing.T) {
	db := openDB(t)
	seed(t, db, "invoice:1", "invoice:2")
	pub := &fakePublisher{}
	s := NewOutboxSender(db, pub, nil, business, logging.New("panic"))

	assert.Equal(t, 2, s.RunOnce(context.Background()))
	assert.Equal(t, []string{"invoice:1", "invoice:2"}, pub.keys)
	for _, m := range statuses(t, db) {
		assert.Equal(t, model.OutboxStatusSent, m.Status)
	}
	assert.Zero(t, s.RunOnce(context.Background()))
}

func TestRunOnce_ParksAfterMaxRetries(t *testing.T) {
	db := openDB(t)
	seed(t, db, "expense:3")
	pub := &fakePublisher{fail: true}
	s := NewOutboxSender(db, pub, nil, business, logging.New("panic"))

	s.RunOnce(context.Background())
	rows := statuses(t, db)
	assert.Equal(t, model.OutboxStatusPending, rows[0].Status)
	assert.Equal(t, 1, rows[0].RetryCount)

	s.RunOnce(context.Background())
	rows = statuses(t, db)
	assert.Equal(t, model.OutboxStatusFailed, rows[0].Status)
	assert.Equal(t, 2, rows[0].RetryCount)

	pub.fail = false
	assert.Zero(t, s.RunOnce(context.Background()))
}

func TestRunOnce_SkipsWhenLockHeldElsewhere(t *testing.T) {
	db := openDB(t)
	seed(t, db, "party:9")
	pub := &fakePublisher{}
	locker := &fakeLocker{held: true}
	s := NewOutboxSender(db, pub, locker, business, logging.New("panic"))

	assert.Zero(t, s.RunOnce(context.Background()))
	assert.Empty(t, pub.keys)
	assert.Zero(t, locker.unlocked)

	locker.held = false
	assert.Equal(t, 1, s.RunOnce(context.Background()))
	assert.Equal(t, 1, locker.unlocked)
}
