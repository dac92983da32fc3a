package service

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"

	"bizledger/internal/model"
)

type targetKind int

const (
	targetUnset targetKind = iota
	targetCash
	targetBank
)

// PaymentTarget is where a document's money moves: the cash in hand of the
// acting user or a named cash/bank account. On the wire it is either the
// string "Cash" or {"id": 3, "accountdisplayname": "City Bank"}.
type PaymentTarget struct {
	kind   targetKind
	BankID uint
	Label  string
}

func Cash() PaymentTarget {
	return PaymentTarget{kind: targetCash, Label: model.PaymentTypeCash}
}

func Bank(id uint, label string) PaymentTarget {
	return PaymentTarget{kind: targetBank, BankID: id, Label: label}
}

func (p PaymentTarget) IsSet() bool  { return p.kind != targetUnset }
func (p PaymentTarget) IsCash() bool { return p.kind == targetCash }
func (p PaymentTarget) IsBank() bool { return p.kind == targetBank }

func (p PaymentTarget) String() string {
	switch p.kind {
	case targetCash:
		return model.PaymentTypeCash
	case targetBank:
		return fmt.Sprintf("bank:%d", p.BankID)
	default:
		return "unset"
	}
}

type bankTarget struct {
	ID                 uint   `json:"id"`
	AccountDisplayName string `json:"accountdisplayname"`
}

func (p *PaymentTarget) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		*p = PaymentTarget{}
		return nil
	}

	if data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		switch {
		case s == "":
			*p = PaymentTarget{}
		case strings.EqualFold(s, model.PaymentTypeCash):
			*p = Cash()
		default:
			return fmt.Errorf("paymentType must be %q or an account object, got %q", model.PaymentTypeCash, s)
		}
		return nil
	}

	var b bankTarget
	if err := json.Unmarshal(data, &b); err != nil {
		return fmt.Errorf("paymentType: %w", err)
	}
	if b.ID == 0 {
		return fmt.Errorf("paymentType account id is required")
	}
	*p = Bank(b.ID, b.AccountDisplayName)
	return nil
}

func (p PaymentTarget) MarshalJSON() ([]byte, error) {
	switch p.kind {
	case targetCash:
		return json.Marshal(model.PaymentTypeCash)
	case targetBank:
		return json.Marshal(bankTarget{ID: p.BankID, AccountDisplayName: p.Label})
	default:
		return []byte("null"), nil
	}
}

// AccountRef is a resolved ledger account. Exactly one id is set.
type AccountRef struct {
	CashAdjustmentID *uint
	CashAndBankID    *uint
	Label            string
}

func (a AccountRef) IsZero() bool {
	return a.CashAdjustmentID == nil && a.CashAndBankID == nil
}

// accountOf rebuilds the ref recorded on a document.
func accountOf(cashID, bankID *uint, label string) AccountRef {
	return AccountRef{CashAdjustmentID: cashID, CashAndBankID: bankID, Label: label}
}
