package repository

import (
	"context"
	"errors"

	"bizledger/internal/model"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type ExpenseRepository struct {
	db *gorm.DB
}

func NewExpenseRepository(db *gorm.DB) *ExpenseRepository {
	return &ExpenseRepository{db: db}
}

func (r *ExpenseRepository) Create(ctx context.Context, tx *gorm.DB, exp *model.Expense) error {
	db := conn(ctx, r.db, tx)
	if exp.Version == 0 {
		exp.Version = 1
	}
	if err := db.Omit(clause.Associations).Create(exp).Error; err != nil {
		return err
	}
	return r.createLines(db, exp)
}

func (r *ExpenseRepository) createLines(db *gorm.DB, exp *model.Expense) error {
	if len(exp.Lines) == 0 {
		return nil
	}
	for i := range exp.Lines {
		exp.Lines[i].ID = 0
		exp.Lines[i].ExpenseID = exp.ID
	}
	return db.Create(&exp.Lines).Error
}

func (r *ExpenseRepository) Get(ctx context.Context, tx *gorm.DB, companyID, id uint) (*model.Expense, error) {
	var exp model.Expense
	err := conn(ctx, r.db, tx).
		Preload("Lines", func(db *gorm.DB) *gorm.DB { return db.Order("id ASC") }).
		Where("id = ? AND company_id = ?", id, companyID).
		First(&exp).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrExpenseNotFound
		}
		return nil, err
	}
	return &exp, nil
}

func (r *ExpenseRepository) Replace(ctx context.Context, tx *gorm.DB, exp *model.Expense) error {
	db := conn(ctx, r.db, tx)
	err := db.Model(&model.Expense{}).
		Where("id = ?", exp.ID).
		Updates(map[string]interface{}{
			"category":           exp.Category,
			"total":              exp.Total,
			"payment_type":       exp.PaymentType,
			"cash_adjustment_id": exp.CashAdjustmentID,
			"cash_and_bank_id":   exp.CashAndBankID,
			"expense_date":       exp.ExpenseDate,
			"notes":              exp.Notes,
		}).Error
	if err != nil {
		return err
	}
	if err := db.Where("expense_id = ?", exp.ID).Delete(&model.ExpenseLine{}).Error; err != nil {
		return err
	}
	return r.createLines(db, exp)
}

func (r *ExpenseRepository) Delete(ctx context.Context, tx *gorm.DB, id uint) error {
	db := conn(ctx, r.db, tx)
	if err := db.Where("expense_id = ?", id).Delete(&model.ExpenseLine{}).Error; err != nil {
		return err
	}
	result := db.Delete(&model.Expense{}, id)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrExpenseNotFound
	}
	return nil
}

func (r *ExpenseRepository) List(ctx context.Context, companyID uint, category string, page Page) ([]*model.Expense, int64, error) {
	page = page.Normalize()
	var expenses []*model.Expense
	var total int64

	query := r.db.WithContext(ctx).Model(&model.Expense{}).Where("company_id = ?", companyID)
	if category != "" {
		query = query.Where("category = ?", category)
	}
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	err := query.
		Preload("Lines").
		Order("created_at DESC, id DESC").
		Offset(page.offset()).
		Limit(page.PageSize).
		Find(&expenses).Error
	return expenses, total, err
}
