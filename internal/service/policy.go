package service

import (
	"bizledger/internal/model"

	"github.com/shopspring/decimal"
)

// Policy is the sign each document type applies to the ledgers it touches.
// Zero means the ledger is not touched.
type Policy struct {
	Type  string
	Cash  int
	Stock int
	Party int
	Loan  int
}

var (
	PolicySale         = Policy{Type: model.TransactionTypeSale, Cash: 1, Stock: -1, Party: 1}
	PolicyPurchase     = Policy{Type: model.TransactionTypePurchase, Cash: -1, Stock: 1, Party: -1}
	PolicyExpense      = Policy{Type: model.TransactionTypeExpense, Cash: -1}
	PolicyLoanPayment  = Policy{Type: model.TransactionTypeLoanPayment, Cash: -1, Loan: -1}
	PolicyLoanCharge   = Policy{Type: model.TransactionTypeLoanCharge, Cash: -1, Loan: 1}
	PolicyLoanIncrease = Policy{Type: model.TransactionTypeLoanIncrease, Cash: 1, Loan: 1}
)

func policyForKind(kind string) Policy {
	if kind == model.InvoiceKindPurchase {
		return PolicyPurchase
	}
	return PolicySale
}

func policyForLoan(txnType string) (Policy, bool) {
	switch txnType {
	case model.TransactionTypeLoanPayment:
		return PolicyLoanPayment, true
	case model.TransactionTypeLoanCharge:
		return PolicyLoanCharge, true
	case model.TransactionTypeLoanIncrease:
		return PolicyLoanIncrease, true
	default:
		return Policy{}, false
	}
}

func signed(sign int, v decimal.Decimal) decimal.Decimal {
	return v.Mul(decimal.NewFromInt(int64(sign)))
}

// StockMove is a quantity change of one item. Seeded moves were already put
// into the item's opening quantity when it was created and are skipped when
// applied, but not when reversed.
type StockMove struct {
	ItemID uint
	Delta  decimal.Decimal
	Seeded bool
}

// Posting is every ledger effect of one document state.
type Posting struct {
	Account       AccountRef
	Cash          decimal.Decimal
	Stock         []StockMove
	PartyID       *uint
	Party         decimal.Decimal
	LoanAccountID *uint
	Loan          decimal.Decimal
}

func (p Posting) inverse() Posting {
	inv := Posting{
		Account:       p.Account,
		Cash:          p.Cash.Neg(),
		PartyID:       p.PartyID,
		Party:         p.Party.Neg(),
		LoanAccountID: p.LoanAccountID,
		Loan:          p.Loan.Neg(),
	}
	for _, m := range p.Stock {
		inv.Stock = append(inv.Stock, StockMove{ItemID: m.ItemID, Delta: m.Delta.Neg()})
	}
	return inv
}

func (p Posting) itemIDs() []uint {
	seen := make(map[uint]struct{}, len(p.Stock))
	ids := make([]uint, 0, len(p.Stock))
	for _, m := range p.Stock {
		if _, ok := seen[m.ItemID]; ok {
			continue
		}
		seen[m.ItemID] = struct{}{}
		ids = append(ids, m.ItemID)
	}
	return ids
}
