package service

import (
	"context"
	"time"

	"bizledger/internal/apperr"
	"bizledger/internal/model"
	"bizledger/internal/repository"
	"bizledger/pkg/idgen"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

// ExpenseService writes expenses. An expense is always paid in full, so the
// whole total leaves the ledger account.
type ExpenseService struct {
	engine   *Engine
	expenses *repository.ExpenseRepository
	docs     *family[*model.Expense]
}

func NewExpenseService(engine *Engine, db *gorm.DB) *ExpenseService {
	s := &ExpenseService{
		engine:   engine,
		expenses: repository.NewExpenseRepository(db),
	}
	s.docs = &family[*model.Expense]{
		engine:  engine,
		docType: model.DocumentTypeExpense,
		table:   &model.Expense{},
		load: func(ctx context.Context, tx *gorm.DB, rc RequestContext, id uint) (*model.Expense, error) {
			return s.expenses.Get(ctx, tx, rc.CompanyID, id)
		},
		meta: func(exp *model.Expense) (uint, int) { return exp.ID, exp.Version },
		posting: func(exp *model.Expense) Posting {
			return Posting{
				Account: accountOf(exp.CashAdjustmentID, exp.CashAndBankID, exp.PaymentType),
				Cash:    signed(PolicyExpense.Cash, exp.Total),
			}
		},
		record: func(exp *model.Expense) *model.Transaction {
			return &model.Transaction{
				Type:        PolicyExpense.Type,
				Amount:      exp.Total,
				TotalAmount: exp.Total,
				PaymentType: exp.PaymentType,
			}
		},
		insert:  s.expenses.Create,
		replace: s.expenses.Replace,
		remove: func(ctx context.Context, tx *gorm.DB, exp *model.Expense) error {
			return s.expenses.Delete(ctx, tx, exp.ID)
		},
	}
	return s
}

// ExpenseLineInput is one expense line.
type ExpenseLineInput struct {
	Name     string          `json:"itemName" validate:"required"`
	Quantity decimal.Decimal `json:"qty"`
	Price    decimal.Decimal `json:"price"`
	Amount   decimal.Decimal `json:"amount"`
}

// ExpenseInput is the body of an expense write.
type ExpenseInput struct {
	ID          uint               `json:"id"`
	Mode        string             `json:"mode"`
	Version     int                `json:"version"`
	Category    string             `json:"category" validate:"required"`
	Items       []ExpenseLineInput `json:"items" validate:"required,min=1,dive"`
	PaymentType PaymentTarget      `json:"paymentType"`
	Total       decimal.Decimal    `json:"total"`
	ExpenseDate *time.Time         `json:"expenseDate"`
	Notes       string             `json:"notes"`
}

// Create saves an expense and takes its total from the chosen account.
func (s *ExpenseService) Create(ctx context.Context, rc RequestContext, in *ExpenseInput) (*model.Expense, error) {
	if err := s.check(in); err != nil {
		return nil, err
	}
	exp, err := s.docs.create(ctx, rc, in.PaymentType, func(_ context.Context, _ *gorm.DB, acct AccountRef, _ *model.Expense) (*model.Expense, error) {
		return s.build(rc, acct, in, nil), nil
	})
	if err != nil {
		return nil, err
	}
	s.engine.log.WithFields(logrus.Fields{"expenseNo": exp.ExpenseNo, "companyId": rc.CompanyID, "total": exp.Total.String()}).Info("expense created")
	return exp, nil
}

// Update reverses the stored expense and applies in.
func (s *ExpenseService) Update(ctx context.Context, rc RequestContext, in *ExpenseInput) (*model.Expense, error) {
	if in.ID == 0 {
		return nil, apperr.Validation("id is required")
	}
	if err := s.check(in); err != nil {
		return nil, err
	}
	exp, err := s.docs.update(ctx, rc, in.ID, in.Version, in.PaymentType, func(_ context.Context, _ *gorm.DB, acct AccountRef, prev *model.Expense) (*model.Expense, error) {
		return s.build(rc, acct, in, prev), nil
	})
	if err != nil {
		return nil, err
	}
	s.engine.log.WithFields(logrus.Fields{"expenseNo": exp.ExpenseNo, "companyId": rc.CompanyID, "version": exp.Version}).Info("expense updated")
	return exp, nil
}

// Delete refunds the expense total and removes the expense.
func (s *ExpenseService) Delete(ctx context.Context, rc RequestContext, id uint) error {
	if id == 0 {
		return apperr.Validation("id is required")
	}
	return s.docs.delete(ctx, rc, id)
}

// Get returns an expense with its lines.
func (s *ExpenseService) Get(ctx context.Context, rc RequestContext, id uint) (*model.Expense, error) {
	if err := rc.check(); err != nil {
		return nil, err
	}
	return s.expenses.Get(ctx, nil, rc.CompanyID, id)
}

// List pages a company's expenses, optionally of one category.
func (s *ExpenseService) List(ctx context.Context, rc RequestContext, category string, page repository.Page) ([]*model.Expense, int64, error) {
	if err := rc.check(); err != nil {
		return nil, 0, err
	}
	return s.expenses.List(ctx, rc.CompanyID, category, page)
}

func (s *ExpenseService) check(in *ExpenseInput) error {
	if err := validateStruct(in); err != nil {
		return err
	}
	if !in.PaymentType.IsSet() {
		return apperr.Validation("paymentType is required")
	}
	lines := make([]line, len(in.Items))
	for i, it := range in.Items {
		lines[i] = line{qty: it.Quantity, price: it.Price, amount: it.Amount}
	}
	sum, amounts, err := checkLines(lines)
	if err != nil {
		return err
	}
	for i := range in.Items {
		in.Items[i].Amount = amounts[i]
	}
	if in.Total.IsZero() {
		in.Total = sum
	}
	if !in.Total.Equal(sum) {
		return apperr.Validation("total %s does not equal the sum of line amounts %s", in.Total.String(), sum.String())
	}
	return nil
}

func (s *ExpenseService) build(rc RequestContext, acct AccountRef, in *ExpenseInput, prev *model.Expense) *model.Expense {
	exp := &model.Expense{
		CompanyID:        rc.CompanyID,
		UserID:           rc.UserID,
		Category:         in.Category,
		Total:            in.Total,
		PaymentType:      acct.Label,
		CashAdjustmentID: acct.CashAdjustmentID,
		CashAndBankID:    acct.CashAndBankID,
		Notes:            in.Notes,
		ExpenseDate:      time.Now(),
	}
	if in.ExpenseDate != nil {
		exp.ExpenseDate = *in.ExpenseDate
	}
	if prev != nil {
		exp.ID = prev.ID
		exp.ExpenseNo = prev.ExpenseNo
		exp.UserID = prev.UserID
		exp.Version = prev.Version + 1
		if in.ExpenseDate == nil {
			exp.ExpenseDate = prev.ExpenseDate
		}
	} else {
		exp.ExpenseNo = idgen.DocumentNo(idgen.PrefixExpense)
		exp.Version = 1
	}
	for _, it := range in.Items {
		exp.Lines = append(exp.Lines, model.ExpenseLine{
			Name:      it.Name,
			Quantity:  it.Quantity,
			UnitPrice: it.Price,
			Amount:    it.Amount,
		})
	}
	return exp
}
