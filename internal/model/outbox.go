package model

import (
	"time"
)

const (
	OutboxStatusPending = "PENDING"
	OutboxStatusSent    = "SENT"
	OutboxStatusFailed  = "FAILED"
)

// OutboxMessage is a ledger event written in the same database transaction
// as the mutation it describes and published to Kafka afterwards.
type OutboxMessage struct {
	ID         uint      `gorm:"primaryKey;autoIncrement" json:"id"`
	MessageKey string    `gorm:"type:varchar(64);not null" json:"messageKey"`
	Topic      string    `gorm:"type:varchar(64);not null" json:"topic"`
	EventType  string    `gorm:"type:varchar(64);not null" json:"eventType"`
	CompanyID  uint      `gorm:"index;not null" json:"companyId"`
	Payload    string    `gorm:"type:text;not null" json:"payload"`
	Status     string    `gorm:"type:varchar(20);index;not null;default:PENDING" json:"status"`
	RetryCount int       `gorm:"not null;default:0" json:"retryCount"`
	CreatedAt  time.Time `gorm:"autoCreateTime;index" json:"createdAt"`
	UpdatedAt  time.Time `gorm:"autoUpdateTime" json:"updatedAt"`
}

func (OutboxMessage) TableName() string {
	return "outbox_message"
}
