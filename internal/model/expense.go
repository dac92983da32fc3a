package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// Expense is paid in full from one ledger account.
type Expense struct {
	ID               uint            `gorm:"primaryKey;autoIncrement" json:"id"`
	ExpenseNo        string          `gorm:"type:varchar(64);uniqueIndex;not null" json:"expenseNo"`
	CompanyID        uint            `gorm:"index;not null" json:"companyId"`
	UserID           uint            `gorm:"not null" json:"userId"`
	Category         string          `gorm:"type:varchar(64);index;not null" json:"category"`
	Total            decimal.Decimal `gorm:"type:decimal(20,4);not null;default:0" json:"total"`
	PaymentType      string          `gorm:"type:varchar(128);not null" json:"paymentType"`
	CashAdjustmentID *uint           `json:"cashAdjustmentId"`
	CashAndBankID    *uint           `json:"cashAndBankId"`
	ExpenseDate      time.Time       `gorm:"not null" json:"expenseDate"`
	Notes            string          `gorm:"type:text" json:"notes"`
	Version          int             `gorm:"not null;default:1" json:"version"`
	Lines            []ExpenseLine   `gorm:"foreignKey:ExpenseID" json:"items"`
	CreatedAt        time.Time       `gorm:"autoCreateTime;index" json:"createdAt"`
	UpdatedAt        time.Time       `gorm:"autoUpdateTime" json:"updatedAt"`
}

func (Expense) TableName() string {
	return "expense"
}

type ExpenseLine struct {
	ID        uint            `gorm:"primaryKey;autoIncrement" json:"id"`
	ExpenseID uint            `gorm:"index;not null" json:"expenseId"`
	Name      string          `gorm:"type:varchar(128);not null" json:"itemName"`
	Quantity  decimal.Decimal `gorm:"type:decimal(20,4);not null" json:"qty"`
	UnitPrice decimal.Decimal `gorm:"type:decimal(20,4);not null" json:"price"`
	Amount    decimal.Decimal `gorm:"type:decimal(20,4);not null" json:"amount"`
}

func (ExpenseLine) TableName() string {
	return "expense_line"
}
