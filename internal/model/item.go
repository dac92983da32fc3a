package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// Item is a stock keeping unit. OpeningQuantity is the quantity on hand and
// has no floor; it only moves through relative deltas.
type Item struct {
	ID              uint            `gorm:"primaryKey;autoIncrement" json:"id"`
	CompanyID       uint            `gorm:"index;not null" json:"companyId"`
	Name            string          `gorm:"type:varchar(128);not null" json:"name"`
	ItemCode        string          `gorm:"type:varchar(64)" json:"itemCode"`
	Unit            string          `gorm:"type:varchar(32)" json:"unit"`
	PurchasePrice   decimal.Decimal `gorm:"type:decimal(20,4);not null;default:0" json:"purchasePrice"`
	SalePrice       decimal.Decimal `gorm:"type:decimal(20,4);not null;default:0" json:"salePrice"`
	OpeningQuantity decimal.Decimal `gorm:"type:decimal(20,4);not null;default:0" json:"openingQuantity"`
	TransactionID   *uint           `gorm:"index" json:"transactionId"`
	CreatedAt       time.Time       `gorm:"autoCreateTime" json:"createdAt"`
	UpdatedAt       time.Time       `gorm:"autoUpdateTime" json:"updatedAt"`
}

func (Item) TableName() string {
	return "item"
}
