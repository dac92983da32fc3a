package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// LoanAccount tracks money owed to a lender. CurrentBalance never drops
// below zero and moves only through guarded deltas after creation.
type LoanAccount struct {
	ID               uint              `gorm:"primaryKey;autoIncrement" json:"id"`
	CompanyID        uint              `gorm:"index;not null" json:"companyId"`
	UserID           uint              `gorm:"not null" json:"userId"`
	AccountName      string            `gorm:"type:varchar(128);not null" json:"accountName"`
	LenderBank       string            `gorm:"type:varchar(128)" json:"lenderBank"`
	AccountNumber    string            `gorm:"type:varchar(64)" json:"accountNumber"`
	InterestRate     decimal.Decimal   `gorm:"type:decimal(10,4);not null;default:0" json:"interestRate"`
	OpeningBalance   decimal.Decimal   `gorm:"type:decimal(20,4);not null;default:0" json:"openingBalance"`
	CurrentBalance   decimal.Decimal   `gorm:"type:decimal(20,4);not null;default:0" json:"currentBalance"`
	ReceivedIn       string            `gorm:"type:varchar(128)" json:"receivedIn"`
	CashAdjustmentID *uint             `json:"cashAdjustmentId"`
	CashAndBankID    *uint             `json:"cashAndBankId"`
	Transactions     []LoanTransaction `gorm:"foreignKey:LoanAccountID" json:"transactions,omitempty"`
	CreatedAt        time.Time         `gorm:"autoCreateTime" json:"createdAt"`
	UpdatedAt        time.Time         `gorm:"autoUpdateTime" json:"updatedAt"`
}

func (LoanAccount) TableName() string {
	return "loan_account"
}

// LoanTransaction is a payment, charge or increase against a loan account.
// Interest is only used by payments: it leaves the ledger account but does
// not reduce the principal.
type LoanTransaction struct {
	ID               uint            `gorm:"primaryKey;autoIncrement" json:"id"`
	LoanNo           string          `gorm:"type:varchar(64);uniqueIndex;not null" json:"loanNo"`
	LoanAccountID    uint            `gorm:"index;not null" json:"loanAccountId"`
	CompanyID        uint            `gorm:"index;not null" json:"companyId"`
	UserID           uint            `gorm:"not null" json:"userId"`
	Type             string          `gorm:"type:varchar(32);index;not null" json:"type"`
	Amount           decimal.Decimal `gorm:"type:decimal(20,4);not null" json:"amount"`
	Interest         decimal.Decimal `gorm:"type:decimal(20,4);not null;default:0" json:"interest"`
	PaymentType      string          `gorm:"type:varchar(128);not null" json:"paymentType"`
	CashAdjustmentID *uint           `json:"cashAdjustmentId"`
	CashAndBankID    *uint           `json:"cashAndBankId"`
	Date             time.Time       `gorm:"not null" json:"date"`
	Notes            string          `gorm:"type:text" json:"notes"`
	Version          int             `gorm:"not null;default:1" json:"version"`
	CreatedAt        time.Time       `gorm:"autoCreateTime;index" json:"createdAt"`
	UpdatedAt        time.Time       `gorm:"autoUpdateTime" json:"updatedAt"`
}

func (LoanTransaction) TableName() string {
	return "loan_transaction"
}

// All lists every table for migration.
func All() []interface{} {
	return []interface{}{
		&CashAdjustment{},
		&CashAndBank{},
		&Party{},
		&Item{},
		&Invoice{},
		&InvoiceLine{},
		&Expense{},
		&ExpenseLine{},
		&LoanAccount{},
		&LoanTransaction{},
		&Transaction{},
		&OutboxMessage{},
	}
}
