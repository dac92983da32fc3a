package service

import (
	"bizledger/internal/config"

	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

// Services bundles every service over one engine.
type Services struct {
	Engine       *Engine
	Invoices     *InvoiceService
	Expenses     *ExpenseService
	Loans        *LoanService
	Parties      *PartyService
	Accounts     *AccountService
	Items        *ItemService
	Transactions *TransactionService
}

func New(db *gorm.DB, cache Cache, cfg *config.Config, log *logrus.Logger) *Services {
	engine := NewEngine(db, cache, cfg, log)
	return &Services{
		Engine:       engine,
		Invoices:     NewInvoiceService(engine, db),
		Expenses:     NewExpenseService(engine, db),
		Loans:        NewLoanService(engine, db),
		Parties:      NewPartyService(engine, db),
		Accounts:     NewAccountService(engine, db),
		Items:        NewItemService(db),
		Transactions: NewTransactionService(db),
	}
}
