package model

import (
	"time"

	"github.com/shopspring/decimal"
)

const (
	BalanceTypeToReceive = "ToReceive"
	BalanceTypeToPay     = "ToPay"
)

// Party is a customer or supplier. OpeningBalance is always a non-negative
// magnitude; the sign lives in BalanceType.
type Party struct {
	ID             uint            `gorm:"primaryKey;autoIncrement" json:"id"`
	CompanyID      uint            `gorm:"index;not null" json:"companyId"`
	Name           string          `gorm:"type:varchar(128);not null" json:"name"`
	Phone          string          `gorm:"type:varchar(32)" json:"phone"`
	Email          string          `gorm:"type:varchar(128)" json:"email"`
	Address        string          `gorm:"type:varchar(256)" json:"address"`
	OpeningBalance decimal.Decimal `gorm:"type:decimal(20,4);not null;default:0" json:"openingBalance"`
	BalanceType    string          `gorm:"type:varchar(16);not null;default:ToReceive" json:"balanceType"`
	CreatedAt      time.Time       `gorm:"autoCreateTime" json:"createdAt"`
	UpdatedAt      time.Time       `gorm:"autoUpdateTime" json:"updatedAt"`
}

func (Party) TableName() string {
	return "party"
}

// Signed returns the balance as one signed number, positive when the party
// owes the company.
func (p *Party) Signed() decimal.Decimal {
	if p.BalanceType == BalanceTypeToPay {
		return p.OpeningBalance.Neg()
	}
	return p.OpeningBalance
}

// SetSigned stores v as magnitude plus balance type. Zero keeps the current type.
func (p *Party) SetSigned(v decimal.Decimal) {
	switch v.Sign() {
	case 1:
		p.BalanceType = BalanceTypeToReceive
	case -1:
		p.BalanceType = BalanceTypeToPay
	default:
		if p.BalanceType == "" {
			p.BalanceType = BalanceTypeToReceive
		}
	}
	p.OpeningBalance = v.Abs()
}
