package service

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"bizledger/internal/config"
	"bizledger/internal/infrastructure/database"
	"bizledger/internal/infrastructure/logging"
	"bizledger/internal/model"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

var (
	ctx = context.Background()
	rc  = RequestContext{CompanyID: 1, UserID: 7, Role: "Admin"}
)

// memCache is an in-process Cache for tests.
type memCache struct {
	mu      sync.Mutex
	data    map[string][]byte
	deletes int
}

func newMemCache() *memCache {
	return &memCache{data: make(map[string][]byte)}
}

func (c *memCache) Get(_ context.Context, key string, dest any) (bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	raw, ok := c.data[key]
	if !ok {
		return false, nil
	}
	return true, json.Unmarshal(raw, dest)
}

func (c *memCache) Set(_ context.Context, key string, value any, _ time.Duration) error {
	raw, err := json.Marshal(value)
	if err != nil {
		return err
	}
	c.mu.Lock()
	c.data[key] = raw
	c.mu.Unlock()
	return nil
}

func (c *memCache) Delete(_ context.Context, keys ...string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, k := range keys {
		delete(c.data, k)
	}
	c.deletes++
	return nil
}

type fixture struct {
	*Services
	db    *gorm.DB
	cache *memCache
}

func setup(t *testing.T) *fixture {
	t.Helper()
	cfg := config.Default()
	cfg.Database = config.DatabaseConfig{Driver: database.DriverSQLite, Path: ":memory:", LogLevel: "silent"}

	db, err := database.Open(&cfg.Database, nil)
	require.NoError(t, err)
	require.NoError(t, database.Migrate(db))
	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			_ = sqlDB.Close()
		}
	})

	cache := newMemCache()
	return &fixture{
		Services: New(db, cache, cfg, logging.New("panic")),
		db:       db,
		cache:    cache,
	}
}

func d(v string) decimal.Decimal {
	return decimal.RequireFromString(v)
}

func ptr[T any](v T) *T {
	return &v
}

func requireDec(t *testing.T, want string, got decimal.Decimal, msgAndArgs ...interface{}) {
	t.Helper()
	require.Truef(t, d(want).Equal(got), "want %s, got %s %v", want, got.String(), msgAndArgs)
}

func (f *fixture) cash(t *testing.T) decimal.Decimal {
	t.Helper()
	var row model.CashAdjustment
	err := f.db.Where("user_id = ? AND company_id = ?", rc.UserID, rc.CompanyID).First(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return decimal.Zero
	}
	require.NoError(t, err)
	return row.CashInHand
}

func (f *fixture) bank(t *testing.T, id uint) decimal.Decimal {
	t.Helper()
	var row model.CashAndBank
	require.NoError(t, f.db.First(&row, id).Error)
	return row.OpeningBalance
}

func (f *fixture) stock(t *testing.T, id uint) decimal.Decimal {
	t.Helper()
	var row model.Item
	require.NoError(t, f.db.First(&row, id).Error)
	return row.OpeningQuantity
}

func (f *fixture) loan(t *testing.T, id uint) decimal.Decimal {
	t.Helper()
	var row model.LoanAccount
	require.NoError(t, f.db.First(&row, id).Error)
	return row.CurrentBalance
}

func (f *fixture) party(t *testing.T, id uint) *model.Party {
	t.Helper()
	var row model.Party
	require.NoError(t, f.db.First(&row, id).Error)
	return &row
}

func (f *fixture) records(t *testing.T, docType string, docID uint) []*model.Transaction {
	t.Helper()
	var rows []*model.Transaction
	require.NoError(t, f.db.Where("document_type = ? AND document_id = ?", docType, docID).Find(&rows).Error)
	return rows
}

func (f *fixture) count(t *testing.T, m any) int64 {
	t.Helper()
	var n int64
	require.NoError(t, f.db.Model(m).Count(&n).Error)
	return n
}

func (f *fixture) newBank(t *testing.T, name, opening string) *model.CashAndBank {
	t.Helper()
	bank, err := f.Accounts.CreateBank(ctx, rc, &BankAccountInput{AccountDisplayName: name, OpeningBalance: d(opening)})
	require.NoError(t, err)
	return bank
}

func (f *fixture) newLoan(t *testing.T, opening string) *model.LoanAccount {
	t.Helper()
	acc, err := f.Loans.CreateAccount(ctx, rc, &LoanAccountInput{AccountName: "Term loan", LenderBank: "City Bank", OpeningBalance: d(opening)})
	require.NoError(t, err)
	return acc
}
