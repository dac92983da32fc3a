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

// LoanService handles loan accounts and the three loan documents: payments,
// charges and increases.
type LoanService struct {
	engine *Engine
	loans  *repository.LoanRepository
	docs   map[string]*family[*model.LoanTransaction]
}

func NewLoanService(engine *Engine, db *gorm.DB) *LoanService {
	s := &LoanService{
		engine: engine,
		loans:  repository.NewLoanRepository(db),
		docs:   make(map[string]*family[*model.LoanTransaction], 3),
	}
	for _, t := range []string{model.TransactionTypeLoanPayment, model.TransactionTypeLoanCharge, model.TransactionTypeLoanIncrease} {
		s.docs[t] = s.newFamily(t)
	}
	return s
}

func (s *LoanService) newFamily(txnType string) *family[*model.LoanTransaction] {
	pol, _ := policyForLoan(txnType)
	return &family[*model.LoanTransaction]{
		engine:  s.engine,
		docType: model.DocumentTypeLoanTransaction,
		table:   &model.LoanTransaction{},
		load: func(ctx context.Context, tx *gorm.DB, rc RequestContext, id uint) (*model.LoanTransaction, error) {
			return s.loans.GetTransaction(ctx, tx, rc.CompanyID, txnType, id)
		},
		meta: func(lt *model.LoanTransaction) (uint, int) { return lt.ID, lt.Version },
		posting: func(lt *model.LoanTransaction) Posting {
			loanID := lt.LoanAccountID
			return Posting{
				Account:       accountOf(lt.CashAdjustmentID, lt.CashAndBankID, lt.PaymentType),
				Cash:          signed(pol.Cash, lt.Amount.Add(lt.Interest)),
				LoanAccountID: &loanID,
				Loan:          signed(pol.Loan, lt.Amount),
			}
		},
		record: func(lt *model.LoanTransaction) *model.Transaction {
			return &model.Transaction{
				Type:        pol.Type,
				Amount:      lt.Amount.Add(lt.Interest),
				TotalAmount: lt.Amount,
				PaymentType: lt.PaymentType,
			}
		},
		insert:  s.loans.CreateTransaction,
		replace: s.loans.ReplaceTransaction,
		remove: func(ctx context.Context, tx *gorm.DB, lt *model.LoanTransaction) error {
			return s.loans.DeleteTransaction(ctx, tx, lt.ID)
		},
	}
}

// ============================================================================
// Loan accounts
// ============================================================================

// LoanAccountInput opens a loan account.
type LoanAccountInput struct {
	AccountName    string          `json:"accountName" validate:"required"`
	LenderBank     string          `json:"lenderBank"`
	AccountNumber  string          `json:"accountNumber"`
	InterestRate   decimal.Decimal `json:"interestRate"`
	OpeningBalance decimal.Decimal `json:"openingBalance"`
	// ReceivedIn, when set, is the account the opening amount was paid into.
	ReceivedIn PaymentTarget `json:"receivedIn"`
}

// CreateAccount opens a loan account. Its balance starts at the opening
// balance; when the money was received into a ledger account that account
// is credited and a LOAN_OPENING record is written.
func (s *LoanService) CreateAccount(ctx context.Context, rc RequestContext, in *LoanAccountInput) (*model.LoanAccount, error) {
	if err := validateStruct(in); err != nil {
		return nil, err
	}
	if in.OpeningBalance.IsNegative() {
		return nil, apperr.Validation("openingBalance must not be negative")
	}
	if in.InterestRate.IsNegative() {
		return nil, apperr.Validation("interestRate must not be negative")
	}

	acc := &model.LoanAccount{
		CompanyID:      rc.CompanyID,
		UserID:         rc.UserID,
		AccountName:    in.AccountName,
		LenderBank:     in.LenderBank,
		AccountNumber:  in.AccountNumber,
		InterestRate:   in.InterestRate,
		OpeningBalance: in.OpeningBalance,
		CurrentBalance: in.OpeningBalance,
	}
	err := s.engine.run(ctx, rc, func(ctx context.Context, tx *gorm.DB) error {
		var p Posting
		if in.ReceivedIn.IsSet() && in.OpeningBalance.IsPositive() {
			acct, err := s.engine.resolve(ctx, tx, rc, in.ReceivedIn)
			if err != nil {
				return err
			}
			acc.ReceivedIn = acct.Label
			acc.CashAdjustmentID = acct.CashAdjustmentID
			acc.CashAndBankID = acct.CashAndBankID
			p = Posting{Account: acct, Cash: in.OpeningBalance}
		}
		if err := s.loans.CreateAccount(ctx, tx, acc); err != nil {
			return err
		}
		if p.Account.IsZero() {
			return s.engine.emit(ctx, tx, rc, actionCreated, model.DocumentTypeLoanAccount, acc.ID, nil)
		}

		if err := s.engine.apply(ctx, tx, rc, p); err != nil {
			return err
		}
		loanID := acc.ID
		p.LoanAccountID = &loanID
		rec := &model.Transaction{
			Type:         model.TransactionTypeLoanOpening,
			Amount:       in.OpeningBalance,
			TotalAmount:  in.OpeningBalance,
			DocumentType: model.DocumentTypeLoanAccount,
			DocumentID:   acc.ID,
		}
		if err := s.engine.record(ctx, tx, rc, rec, p); err != nil {
			return err
		}
		return s.engine.emit(ctx, tx, rc, actionCreated, model.DocumentTypeLoanAccount, acc.ID, rec)
	})
	if err != nil {
		return nil, err
	}
	s.engine.log.WithFields(logrus.Fields{"loanAccountId": acc.ID, "companyId": rc.CompanyID}).Info("loan account created")
	return acc, nil
}

// DeleteAccount removes a loan account without documents, reversing the
// opening credit if there was one.
func (s *LoanService) DeleteAccount(ctx context.Context, rc RequestContext, id uint) error {
	return s.engine.run(ctx, rc, func(ctx context.Context, tx *gorm.DB) error {
		acc, err := s.loans.GetAccount(ctx, tx, rc.CompanyID, id)
		if err != nil {
			return err
		}
		n, err := s.loans.CountTransactions(ctx, tx, acc.ID)
		if err != nil {
			return err
		}
		if n > 0 {
			return apperr.Invariant("loan account has %d transactions and cannot be deleted", n)
		}

		p := Posting{Account: accountOf(acc.CashAdjustmentID, acc.CashAndBankID, acc.ReceivedIn)}
		if !p.Account.IsZero() {
			p.Cash = acc.OpeningBalance
		}
		if err := s.engine.reverse(ctx, tx, rc, model.DocumentTypeLoanAccount, acc.ID, p); err != nil {
			return err
		}
		if err := s.loans.DeleteAccount(ctx, tx, acc.ID); err != nil {
			return err
		}
		return s.engine.emit(ctx, tx, rc, actionDeleted, model.DocumentTypeLoanAccount, acc.ID, nil)
	})
}

// GetAccount returns a loan account with its documents.
func (s *LoanService) GetAccount(ctx context.Context, rc RequestContext, id uint) (*model.LoanAccount, error) {
	if err := rc.check(); err != nil {
		return nil, err
	}
	return s.loans.GetAccountWithTransactions(ctx, rc.CompanyID, id)
}

func (s *LoanService) ListAccounts(ctx context.Context, rc RequestContext) ([]*model.LoanAccount, error) {
	if err := rc.check(); err != nil {
		return nil, err
	}
	return s.loans.ListAccounts(ctx, rc.CompanyID)
}

// ============================================================================
// Loan documents
// ============================================================================

// LoanTxnInput is the body of a loan payment, charge or increase.
type LoanTxnInput struct {
	ID            uint            `json:"id"`
	Version       int             `json:"version"`
	LoanAccountID uint            `json:"loanAccountId" validate:"required"`
	Amount        decimal.Decimal `json:"amount"`
	// Interest is paid on top of the principal and only valid on payments.
	Interest    decimal.Decimal `json:"interest"`
	PaymentType PaymentTarget   `json:"paymentType"`
	Date        *time.Time      `json:"date"`
	Notes       string          `json:"notes"`
}

func (s *LoanService) docFamily(txnType string) (*family[*model.LoanTransaction], error) {
	f, ok := s.docs[txnType]
	if !ok {
		return nil, apperr.Validation("unknown loan transaction type %q", txnType)
	}
	return f, nil
}

// CreateTransaction saves a loan document of txnType and moves both the
// loan balance and the ledger account.
func (s *LoanService) CreateTransaction(ctx context.Context, rc RequestContext, txnType string, in *LoanTxnInput) (*model.LoanTransaction, error) {
	f, err := s.docFamily(txnType)
	if err != nil {
		return nil, err
	}
	if err := s.check(txnType, in); err != nil {
		return nil, err
	}
	lt, err := f.create(ctx, rc, in.PaymentType, func(ctx context.Context, tx *gorm.DB, acct AccountRef, _ *model.LoanTransaction) (*model.LoanTransaction, error) {
		return s.build(ctx, tx, rc, txnType, acct, in, nil)
	})
	if err != nil {
		return nil, err
	}
	s.engine.log.WithFields(logrus.Fields{"loanNo": lt.LoanNo, "type": txnType, "companyId": rc.CompanyID}).Info("loan transaction created")
	return lt, nil
}

// UpdateTransaction reverses the stored loan document and applies in.
func (s *LoanService) UpdateTransaction(ctx context.Context, rc RequestContext, txnType string, in *LoanTxnInput) (*model.LoanTransaction, error) {
	f, err := s.docFamily(txnType)
	if err != nil {
		return nil, err
	}
	if in.ID == 0 {
		return nil, apperr.Validation("id is required")
	}
	if err := s.check(txnType, in); err != nil {
		return nil, err
	}
	return f.update(ctx, rc, in.ID, in.Version, in.PaymentType, func(ctx context.Context, tx *gorm.DB, acct AccountRef, prev *model.LoanTransaction) (*model.LoanTransaction, error) {
		return s.build(ctx, tx, rc, txnType, acct, in, prev)
	})
}

// DeleteTransaction reverses and removes a loan document. It fails when the
// reversal would take the loan balance below zero.
func (s *LoanService) DeleteTransaction(ctx context.Context, rc RequestContext, txnType string, id uint) error {
	f, err := s.docFamily(txnType)
	if err != nil {
		return err
	}
	if id == 0 {
		return apperr.Validation("id is required")
	}
	return f.delete(ctx, rc, id)
}

func (s *LoanService) GetTransaction(ctx context.Context, rc RequestContext, txnType string, id uint) (*model.LoanTransaction, error) {
	if err := rc.check(); err != nil {
		return nil, err
	}
	if _, err := s.docFamily(txnType); err != nil {
		return nil, err
	}
	return s.loans.GetTransaction(ctx, nil, rc.CompanyID, txnType, id)
}

// ListTransactions pages the loan documents of one type.
func (s *LoanService) ListTransactions(ctx context.Context, rc RequestContext, txnType string, page repository.Page) ([]*model.LoanTransaction, int64, error) {
	if err := rc.check(); err != nil {
		return nil, 0, err
	}
	if _, err := s.docFamily(txnType); err != nil {
		return nil, 0, err
	}
	return s.loans.ListTransactions(ctx, rc.CompanyID, txnType, page)
}

func (s *LoanService) check(txnType string, in *LoanTxnInput) error {
	if err := validateStruct(in); err != nil {
		return err
	}
	if !in.Amount.IsPositive() {
		return apperr.Validation("amount must be greater than 0")
	}
	if in.Interest.IsNegative() {
		return apperr.Validation("interest must not be negative")
	}
	if !in.Interest.IsZero() && txnType != model.TransactionTypeLoanPayment {
		return apperr.Validation("interest is only allowed on loan payments")
	}
	if !in.PaymentType.IsSet() {
		return apperr.Validation("paymentType is required")
	}
	return nil
}

func (s *LoanService) build(ctx context.Context, tx *gorm.DB, rc RequestContext, txnType string, acct AccountRef, in *LoanTxnInput, prev *model.LoanTransaction) (*model.LoanTransaction, error) {
	acc, err := s.loans.GetAccount(ctx, tx, rc.CompanyID, in.LoanAccountID)
	if err != nil {
		return nil, err
	}
	lt := &model.LoanTransaction{
		LoanAccountID:    acc.ID,
		CompanyID:        rc.CompanyID,
		UserID:           rc.UserID,
		Type:             txnType,
		Amount:           in.Amount,
		Interest:         in.Interest,
		PaymentType:      acct.Label,
		CashAdjustmentID: acct.CashAdjustmentID,
		CashAndBankID:    acct.CashAndBankID,
		Date:             time.Now(),
		Notes:            in.Notes,
	}
	if in.Date != nil {
		lt.Date = *in.Date
	}
	if prev != nil {
		lt.ID = prev.ID
		lt.LoanNo = prev.LoanNo
		lt.UserID = prev.UserID
		lt.Version = prev.Version + 1
		if in.Date == nil {
			lt.Date = prev.Date
		}
	} else {
		lt.LoanNo = idgen.DocumentNo(idgen.PrefixLoan)
		lt.Version = 1
	}
	return lt, nil
}
