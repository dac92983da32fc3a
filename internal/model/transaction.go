package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// ============================================================================
// Transaction record types
// ============================================================================

const (
	TransactionTypeSale           = "Sale"
	TransactionTypePurchase       = "Purchase"
	TransactionTypeExpense        = "Expense"
	TransactionTypeLoanPayment    = "LOAN_PAYMENT"
	TransactionTypeLoanCharge     = "LOAN_CHARGE"
	TransactionTypeLoanIncrease   = "LOAN_INCREASE"
	TransactionTypeLoanOpening    = "LOAN_OPENING"
	TransactionTypeOpeningBalance = "Opening Balance"
)

// Document types a Transaction record can point back to.
const (
	DocumentTypeInvoice         = "invoice"
	DocumentTypeExpense         = "expense"
	DocumentTypeLoanTransaction = "loan_transaction"
	DocumentTypeLoanAccount     = "loan_account"
	DocumentTypeParty           = "party"
)

// Transaction is the audit row written for every document mutation.
//
// Rows are replaced, never edited: an update deletes the old row and inserts
// a new one. Ledger-moving rows set exactly one of CashAdjustmentID and
// CashAndBankID; a party opening balance row moves no ledger and sets neither.
type Transaction struct {
	ID               uint            `gorm:"primaryKey;autoIncrement" json:"id"`
	TransactionNo    string          `gorm:"type:varchar(64);uniqueIndex;not null" json:"transactionNo"`
	CompanyID        uint            `gorm:"index;not null" json:"companyId"`
	UserID           uint            `gorm:"not null" json:"userId"`
	Type             string          `gorm:"type:varchar(32);index;not null" json:"type"`
	Amount           decimal.Decimal `gorm:"type:decimal(20,4);not null;default:0" json:"amount"`
	TotalAmount      decimal.Decimal `gorm:"type:decimal(20,4);not null;default:0" json:"totalAmount"`
	BalanceDue       decimal.Decimal `gorm:"type:decimal(20,4);not null;default:0" json:"balanceDue"`
	PaymentType      string          `gorm:"type:varchar(128)" json:"paymentType"`
	CashAdjustmentID *uint           `gorm:"index" json:"cashAdjustmentId"`
	CashAndBankID    *uint           `gorm:"index" json:"cashAndBankId"`
	DocumentType     string          `gorm:"type:varchar(32);index:idx_transaction_document;not null" json:"documentType"`
	DocumentID       uint            `gorm:"index:idx_transaction_document;not null" json:"documentId"`
	PartyID          *uint           `gorm:"index" json:"partyId"`
	LoanAccountID    *uint           `gorm:"index" json:"loanAccountId"`
	CreatedAt        time.Time       `gorm:"autoCreateTime;index" json:"createdAt"`
}

func (Transaction) TableName() string {
	return "transaction_record"
}
