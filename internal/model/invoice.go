package model

import (
	"time"

	"github.com/shopspring/decimal"
)

const (
	InvoiceKindSale     = "sale"
	InvoiceKindPurchase = "purchase"
)

// Invoice is a sale or a purchase. PaidAmount, BalanceDue, the ledger
// account columns and the line StockDelta values are the effects that were
// applied, and are what a reversal negates.
type Invoice struct {
	ID               uint            `gorm:"primaryKey;autoIncrement" json:"id"`
	InvoiceNo        string          `gorm:"type:varchar(64);uniqueIndex;not null" json:"invoiceNo"`
	Kind             string          `gorm:"type:varchar(16);index;not null" json:"mode"`
	CompanyID        uint            `gorm:"index;not null" json:"companyId"`
	UserID           uint            `gorm:"not null" json:"userId"`
	PartyID          *uint           `gorm:"index" json:"partyId"`
	Total            decimal.Decimal `gorm:"type:decimal(20,4);not null;default:0" json:"total"`
	PaidAmount       decimal.Decimal `gorm:"type:decimal(20,4);not null;default:0" json:"paidAmount"`
	BalanceDue       decimal.Decimal `gorm:"type:decimal(20,4);not null;default:0" json:"balanceDue"`
	IsPaid           bool            `gorm:"not null;default:false" json:"isPaid"`
	PaymentType      string          `gorm:"type:varchar(128);not null" json:"paymentType"`
	CashAdjustmentID *uint           `json:"cashAdjustmentId"`
	CashAndBankID    *uint           `json:"cashAndBankId"`
	InvoiceDate      time.Time       `gorm:"not null" json:"invoiceDate"`
	Notes            string          `gorm:"type:text" json:"notes"`
	Version          int             `gorm:"not null;default:1" json:"version"`
	Lines            []InvoiceLine   `gorm:"foreignKey:InvoiceID" json:"items"`
	Party            *Party          `gorm:"foreignKey:PartyID" json:"party,omitempty"`
	CreatedAt        time.Time       `gorm:"autoCreateTime;index" json:"createdAt"`
	UpdatedAt        time.Time       `gorm:"autoUpdateTime" json:"updatedAt"`
}

func (Invoice) TableName() string {
	return "invoice"
}

// InvoiceLine is one row of invoice data.
type InvoiceLine struct {
	ID         uint            `gorm:"primaryKey;autoIncrement" json:"id"`
	InvoiceID  uint            `gorm:"index;not null" json:"invoiceId"`
	ItemID     uint            `gorm:"index;not null" json:"itemId"`
	Name       string          `gorm:"type:varchar(128);not null" json:"itemName"`
	Quantity   decimal.Decimal `gorm:"type:decimal(20,4);not null" json:"qty"`
	UnitPrice  decimal.Decimal `gorm:"type:decimal(20,4);not null" json:"price"`
	Amount     decimal.Decimal `gorm:"type:decimal(20,4);not null" json:"amount"`
	StockDelta decimal.Decimal `gorm:"type:decimal(20,4);not null;default:0" json:"stockDelta"`
	// Seeded marks a line whose item was created with the delta already in
	// its opening quantity during this write.
	Seeded bool `gorm:"-" json:"-"`
}

func (InvoiceLine) TableName() string {
	return "invoice_line"
}
