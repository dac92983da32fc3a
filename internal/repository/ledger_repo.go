package repository

import (
	"context"
	"errors"

	"bizledger/internal/model"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// LedgerRepository owns cash in hand and cash/bank balances. After creation
// balances only move through IncrementCash and IncrementBank.
type LedgerRepository struct {
	db *gorm.DB
}

func NewLedgerRepository(db *gorm.DB) *LedgerRepository {
	return &LedgerRepository{db: db}
}

// GetOrCreateCash returns the cash row of (user, company), inserting it at
// zero when absent. Concurrent first inserts collapse into one row.
func (r *LedgerRepository) GetOrCreateCash(ctx context.Context, tx *gorm.DB, userID, companyID uint) (*model.CashAdjustment, error) {
	db := conn(ctx, r.db, tx)

	row := &model.CashAdjustment{UserID: userID, CompanyID: companyID, CashInHand: decimal.Zero}
	err := db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "user_id"}, {Name: "company_id"}},
		DoNothing: true,
	}).Create(row).Error
	if err != nil {
		return nil, err
	}

	var cash model.CashAdjustment
	err = db.Where("user_id = ? AND company_id = ?", userID, companyID).First(&cash).Error
	if err != nil {
		return nil, err
	}
	return &cash, nil
}

// ListCash returns every user's cash account in a company.
func (r *LedgerRepository) ListCash(ctx context.Context, companyID uint) ([]*model.CashAdjustment, error) {
	var cash []*model.CashAdjustment
	err := r.db.WithContext(ctx).Where("company_id = ?", companyID).Order("id ASC").Find(&cash).Error
	if err != nil {
		return nil, err
	}
	return cash, nil
}

func (r *LedgerRepository) IncrementCash(ctx context.Context, tx *gorm.DB, id uint, delta decimal.Decimal) error {
	if delta.IsZero() {
		return nil
	}
	result := conn(ctx, r.db, tx).
		Model(&model.CashAdjustment{}).
		Where("id = ?", id).
		UpdateColumn("cash_in_hand", gorm.Expr("cash_in_hand + ?", delta))
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrCashAccountNotFound
	}
	return nil
}

func (r *LedgerRepository) CreateBank(ctx context.Context, tx *gorm.DB, bank *model.CashAndBank) error {
	return conn(ctx, r.db, tx).Create(bank).Error
}

// GetBank loads a cash/bank account that must belong to companyID.
func (r *LedgerRepository) GetBank(ctx context.Context, tx *gorm.DB, companyID, id uint) (*model.CashAndBank, error) {
	var bank model.CashAndBank
	err := conn(ctx, r.db, tx).Where("id = ? AND company_id = ?", id, companyID).First(&bank).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrBankAccountNotFound
		}
		return nil, err
	}
	return &bank, nil
}

func (r *LedgerRepository) IncrementBank(ctx context.Context, tx *gorm.DB, id uint, delta decimal.Decimal) error {
	if delta.IsZero() {
		return nil
	}
	result := conn(ctx, r.db, tx).
		Model(&model.CashAndBank{}).
		Where("id = ?", id).
		UpdateColumn("opening_balance", gorm.Expr("opening_balance + ?", delta))
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrBankAccountNotFound
	}
	return nil
}

func (r *LedgerRepository) ListBanks(ctx context.Context, companyID uint) ([]*model.CashAndBank, error) {
	var banks []*model.CashAndBank
	err := r.db.WithContext(ctx).
		Where("company_id = ?", companyID).
		Order("id ASC").
		Find(&banks).Error
	return banks, err
}
