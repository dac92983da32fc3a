package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// PaymentTypeCash is the payment type label of the cash-in-hand ledger.
const PaymentTypeCash = "Cash"

// CashAdjustment is the cash-in-hand ledger of one (user, company) pair.
// CashInHand is only written with relative deltas once the row exists.
type CashAdjustment struct {
	ID         uint            `gorm:"primaryKey;autoIncrement" json:"id"`
	UserID     uint            `gorm:"uniqueIndex:idx_cash_adjustment_owner;not null" json:"userId"`
	CompanyID  uint            `gorm:"uniqueIndex:idx_cash_adjustment_owner;not null" json:"companyId"`
	CashInHand decimal.Decimal `gorm:"type:decimal(20,4);not null;default:0" json:"cashInHand"`
	CreatedAt  time.Time       `gorm:"autoCreateTime" json:"createdAt"`
	UpdatedAt  time.Time       `gorm:"autoUpdateTime" json:"updatedAt"`
}

func (CashAdjustment) TableName() string {
	return "cash_adjustment"
}

// CashAndBank is a named bank or cash account of a company. OpeningBalance is
// the running balance; it is set absolutely only when the account is created.
type CashAndBank struct {
	ID                 uint            `gorm:"primaryKey;autoIncrement" json:"id"`
	CompanyID          uint            `gorm:"index;not null" json:"companyId"`
	AccountDisplayName string          `gorm:"type:varchar(128);not null" json:"accountdisplayname"`
	BankName           string          `gorm:"type:varchar(128)" json:"bankName"`
	AccountNumber      string          `gorm:"type:varchar(64)" json:"accountNumber"`
	OpeningBalance     decimal.Decimal `gorm:"type:decimal(20,4);not null;default:0" json:"openingbalance"`
	CreatedAt          time.Time       `gorm:"autoCreateTime" json:"createdAt"`
	UpdatedAt          time.Time       `gorm:"autoUpdateTime" json:"updatedAt"`
}

func (CashAndBank) TableName() string {
	return "cash_and_bank"
}
