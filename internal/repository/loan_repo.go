package repository

import (
	"context"
	"errors"

	"bizledger/internal/model"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type LoanRepository struct {
	db *gorm.DB
}

func NewLoanRepository(db *gorm.DB) *LoanRepository {
	return &LoanRepository{db: db}
}

// ============================================================================
// Loan accounts
// ============================================================================

func (r *LoanRepository) CreateAccount(ctx context.Context, tx *gorm.DB, acc *model.LoanAccount) error {
	return conn(ctx, r.db, tx).Omit("Transactions").Create(acc).Error
}

func (r *LoanRepository) GetAccount(ctx context.Context, tx *gorm.DB, companyID, id uint) (*model.LoanAccount, error) {
	var acc model.LoanAccount
	err := conn(ctx, r.db, tx).Where("id = ? AND company_id = ?", id, companyID).First(&acc).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrLoanAccountNotFound
		}
		return nil, err
	}
	return &acc, nil
}

// GetAccountWithTransactions loads the account and its documents, newest first.
func (r *LoanRepository) GetAccountWithTransactions(ctx context.Context, companyID, id uint) (*model.LoanAccount, error) {
	var acc model.LoanAccount
	err := r.db.WithContext(ctx).
		Preload("Transactions", func(db *gorm.DB) *gorm.DB { return db.Order("date DESC, id DESC") }).
		Where("id = ? AND company_id = ?", id, companyID).
		First(&acc).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrLoanAccountNotFound
		}
		return nil, err
	}
	return &acc, nil
}

func (r *LoanRepository) ListAccounts(ctx context.Context, companyID uint) ([]*model.LoanAccount, error) {
	var accounts []*model.LoanAccount
	err := r.db.WithContext(ctx).
		Where("company_id = ?", companyID).
		Order("id ASC").
		Find(&accounts).Error
	return accounts, err
}

// MoveBalance adds delta to the current balance unless the result would be
// negative. The guard and the write are one statement.
func (r *LoanRepository) MoveBalance(ctx context.Context, tx *gorm.DB, companyID, id uint, delta decimal.Decimal) error {
	db := conn(ctx, r.db, tx)
	if delta.IsZero() {
		_, err := r.GetAccount(ctx, tx, companyID, id)
		return err
	}

	result := db.Model(&model.LoanAccount{}).
		Where("id = ? AND company_id = ? AND current_balance + ? >= 0", id, companyID, delta).
		UpdateColumn("current_balance", gorm.Expr("current_balance + ?", delta))
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		if _, err := r.GetAccount(ctx, tx, companyID, id); err != nil {
			return err
		}
		return ErrNegativeBalance
	}
	return nil
}

func (r *LoanRepository) CountTransactions(ctx context.Context, tx *gorm.DB, accountID uint) (int64, error) {
	var count int64
	err := conn(ctx, r.db, tx).Model(&model.LoanTransaction{}).Where("loan_account_id = ?", accountID).Count(&count).Error
	return count, err
}

func (r *LoanRepository) DeleteAccount(ctx context.Context, tx *gorm.DB, id uint) error {
	result := conn(ctx, r.db, tx).Delete(&model.LoanAccount{}, id)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrLoanAccountNotFound
	}
	return nil
}

// ============================================================================
// Loan transactions
// ============================================================================

func (r *LoanRepository) CreateTransaction(ctx context.Context, tx *gorm.DB, lt *model.LoanTransaction) error {
	if lt.Version == 0 {
		lt.Version = 1
	}
	return conn(ctx, r.db, tx).Create(lt).Error
}

// GetTransaction loads a loan document of the given type.
func (r *LoanRepository) GetTransaction(ctx context.Context, tx *gorm.DB, companyID uint, txnType string, id uint) (*model.LoanTransaction, error) {
	var lt model.LoanTransaction
	err := conn(ctx, r.db, tx).
		Where("id = ? AND company_id = ? AND type = ?", id, companyID, txnType).
		First(&lt).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrLoanTxnNotFound
		}
		return nil, err
	}
	return &lt, nil
}

func (r *LoanRepository) ReplaceTransaction(ctx context.Context, tx *gorm.DB, lt *model.LoanTransaction) error {
	return conn(ctx, r.db, tx).
		Model(&model.LoanTransaction{}).
		Where("id = ?", lt.ID).
		Updates(map[string]interface{}{
			"loan_account_id":    lt.LoanAccountID,
			"amount":             lt.Amount,
			"interest":           lt.Interest,
			"payment_type":       lt.PaymentType,
			"cash_adjustment_id": lt.CashAdjustmentID,
			"cash_and_bank_id":   lt.CashAndBankID,
			"date":               lt.Date,
			"notes":              lt.Notes,
		}).Error
}

func (r *LoanRepository) DeleteTransaction(ctx context.Context, tx *gorm.DB, id uint) error {
	result := conn(ctx, r.db, tx).Delete(&model.LoanTransaction{}, id)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrLoanTxnNotFound
	}
	return nil
}

func (r *LoanRepository) ListTransactions(ctx context.Context, companyID uint, txnType string, page Page) ([]*model.LoanTransaction, int64, error) {
	page = page.Normalize()
	var txns []*model.LoanTransaction
	var total int64

	query := r.db.WithContext(ctx).Model(&model.LoanTransaction{}).Where("company_id = ? AND type = ?", companyID, txnType)
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	err := query.Order("date DESC, id DESC").Offset(page.offset()).Limit(page.PageSize).Find(&txns).Error
	return txns, total, err
}
