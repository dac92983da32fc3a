package service

import (
	"context"
	"encoding/json"
	"testing"

	"bizledger/internal/apperr"
	"bizledger/internal/model"
	"bizledger/internal/repository"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// ledgerState is every balance a document can move.
type ledgerState struct {
	cash, bank, stock, party, loan string
}

func (f *fixture) state(t *testing.T, bankID, itemID, partyID, loanID uint) ledgerState {
	t.Helper()
	return ledgerState{
		cash:  f.cash(t).String(),
		bank:  f.bank(t, bankID).String(),
		stock: f.stock(t, itemID).String(),
		party: f.party(t, partyID).Signed().String(),
		loan:  f.loan(t, loanID).String(),
	}
}

func (f *fixture) newItem(t *testing.T, qty string) uint {
	t.Helper()
	item := &model.Item{CompanyID: rc.CompanyID, Name: "Stocked", OpeningQuantity: d(qty)}
	require.NoError(t, f.db.Create(item).Error)
	return item.ID
}

func (f *fixture) newParty(t *testing.T, opening, balanceType string) *model.Party {
	t.Helper()
	p, err := f.Parties.Create(ctx, rc, &PartyInput{Name: "Acme Traders", OpeningBalance: d(opening), BalanceType: balanceType})
	require.NoError(t, err)
	return p
}

func TestCreateThenDelete_RestoresEveryLedger(t *testing.T) {
	f := setup(t)
	bank := f.newBank(t, "Main", "500")
	itemID := f.newItem(t, "40")
	party := f.newParty(t, "0", "")
	acc := f.newLoan(t, "300")
	before := f.state(t, bank.ID, itemID, party.ID, acc.ID)

	sale, err := f.Invoices.Create(ctx, rc, &InvoiceInput{
		Mode:          model.InvoiceKindSale,
		Items:         []InvoiceLineInput{{ItemID: &itemID, Quantity: d("3"), Price: d("20")}},
		SelectedParty: &PartyRef{ID: party.ID},
		PaymentType:   Cash(),
		PaidAmount:    d("25"),
	})
	require.NoError(t, err)
	purchase, err := f.Invoices.Create(ctx, rc, &InvoiceInput{
		Mode:          model.InvoiceKindPurchase,
		Items:         []InvoiceLineInput{{ItemID: &itemID, Quantity: d("5"), Price: d("8")}},
		SelectedParty: &PartyRef{ID: party.ID},
		PaymentType:   Bank(bank.ID, ""),
		PaidAmount:    d("10"),
	})
	require.NoError(t, err)
	exp, err := f.Expenses.Create(ctx, rc, &ExpenseInput{
		Category:    "Fuel",
		Items:       []ExpenseLineInput{{Name: "Diesel", Quantity: d("2"), Price: d("7.5")}},
		PaymentType: Bank(bank.ID, ""),
	})
	require.NoError(t, err)
	pay, err := f.Loans.CreateTransaction(ctx, rc, model.TransactionTypeLoanPayment, &LoanTxnInput{
		LoanAccountID: acc.ID, Amount: d("50"), Interest: d("2.25"), PaymentType: Cash(),
	})
	require.NoError(t, err)

	requireDec(t, "42", f.stock(t, itemID))
	// sale due 35 to receive, purchase due 30 to pay
	requireDec(t, "5", f.party(t, party.ID).Signed())
	requireDec(t, "475", f.bank(t, bank.ID))
	requireDec(t, "-27.25", f.cash(t))

	require.NoError(t, f.Loans.DeleteTransaction(ctx, rc, model.TransactionTypeLoanPayment, pay.ID))
	require.NoError(t, f.Expenses.Delete(ctx, rc, exp.ID))
	require.NoError(t, f.Invoices.Delete(ctx, rc, purchase.ID))
	require.NoError(t, f.Invoices.Delete(ctx, rc, sale.ID))

	assert.Equal(t, before, f.state(t, bank.ID, itemID, party.ID, acc.ID))
	assert.Zero(t, f.count(t, &model.Invoice{}))
	assert.Zero(t, f.count(t, &model.LoanTransaction{}))
}

func TestDeleteNewItemPurchase_UndoesSeed(t *testing.T) {
	f := setup(t)

	inv, err := f.Invoices.Create(ctx, rc, &InvoiceInput{
		Mode:        model.InvoiceKindPurchase,
		Items:       []InvoiceLineInput{{Name: "Fresh", Quantity: d("12"), Price: d("1")}},
		PaymentType: Cash(),
		PaidAmount:  d("12"),
	})
	require.NoError(t, err)
	itemID := inv.Lines[0].ItemID
	requireDec(t, "12", f.stock(t, itemID))

	require.NoError(t, f.Invoices.Delete(ctx, rc, inv.ID))
	requireDec(t, "0", f.stock(t, itemID))
	requireDec(t, "0", f.cash(t))

	var item model.Item
	require.NoError(t, f.db.First(&item, itemID).Error)
	assert.Nil(t, item.TransactionID)
}

func TestUpdate_EquivalentToFreshCreate(t *testing.T) {
	edited := setup(t)
	fresh := setup(t)
	var itemID, bankID, partyID, loanID uint
	for _, f := range []*fixture{edited, fresh} {
		bankID = f.newBank(t, "Main", "1000").ID
		itemID = f.newItem(t, "100")
		partyID = f.newParty(t, "0", "").ID
		loanID = f.newLoan(t, "0").ID
	}

	first, err := edited.Invoices.Create(ctx, rc, &InvoiceInput{
		Mode:          model.InvoiceKindSale,
		Items:         []InvoiceLineInput{{ItemID: &itemID, Quantity: d("4"), Price: d("10")}},
		SelectedParty: &PartyRef{ID: partyID},
		PaymentType:   Cash(),
		PaidAmount:    d("15"),
	})
	require.NoError(t, err)

	final := func(id uint) *InvoiceInput {
		return &InvoiceInput{
			ID:            id,
			Mode:          model.InvoiceKindSale,
			Items:         []InvoiceLineInput{{ItemID: &itemID, Quantity: d("7"), Price: d("10")}},
			SelectedParty: &PartyRef{ID: partyID},
			PaymentType:   Bank(bankID, ""),
			PaidAmount:    d("50"),
		}
	}
	_, err = edited.Invoices.Update(ctx, rc, final(first.ID))
	require.NoError(t, err)
	_, err = fresh.Invoices.Create(ctx, rc, final(0))
	require.NoError(t, err)

	want := fresh.state(t, bankID, itemID, partyID, loanID)
	assert.Equal(t, want, edited.state(t, bankID, itemID, partyID, loanID))
	assert.Equal(t, ledgerState{cash: "0", bank: "1050", stock: "93", party: "20", loan: "0"}, want)
}

func TestUpdate_StaleVersionIsConflict(t *testing.T) {
	f := setup(t)
	exp, err := f.Expenses.Create(ctx, rc, &ExpenseInput{
		Category:    "Office",
		Items:       []ExpenseLineInput{{Name: "Paper", Quantity: d("1"), Price: d("9")}},
		PaymentType: Cash(),
	})
	require.NoError(t, err)

	in := &ExpenseInput{
		ID:          exp.ID,
		Version:     exp.Version,
		Category:    "Office",
		Items:       []ExpenseLineInput{{Name: "Paper", Quantity: d("2"), Price: d("9")}},
		PaymentType: Cash(),
	}
	_, err = f.Expenses.Update(ctx, rc, in)
	require.NoError(t, err)
	requireDec(t, "-18", f.cash(t))

	in.Items[0].Quantity = d("3")
	in.Items[0].Amount = d("0")
	in.Total = d("0")
	_, err = f.Expenses.Update(ctx, rc, in)
	require.Error(t, err)
	assert.ErrorIs(t, err, repository.ErrStaleVersion)
	assert.Equal(t, 409, apperr.HTTPStatus(err))
	requireDec(t, "-18", f.cash(t))
}

func TestFailedWrite_LeavesStateUnchanged(t *testing.T) {
	f := setup(t)
	itemID := f.newItem(t, "5")

	tests := []struct {
		name string
		in   *InvoiceInput
		kind apperr.Kind
	}{
		{
			name: "unknown item",
			in: &InvoiceInput{Mode: model.InvoiceKindSale, PaymentType: Cash(), PaidAmount: d("2"),
				Items: []InvoiceLineInput{{ItemID: ptr(uint(999)), Quantity: d("1"), Price: d("2")}}},
			kind: apperr.KindNotFound,
		},
		{
			name: "unknown bank",
			in: &InvoiceInput{Mode: model.InvoiceKindSale, PaymentType: Bank(42, "Ghost"), PaidAmount: d("2"),
				Items: []InvoiceLineInput{{ItemID: &itemID, Quantity: d("1"), Price: d("2")}}},
			kind: apperr.KindNotFound,
		},
		{
			name: "unknown party",
			in: &InvoiceInput{Mode: model.InvoiceKindSale, PaymentType: Cash(), SelectedParty: &PartyRef{ID: 77},
				Items: []InvoiceLineInput{{ItemID: &itemID, Quantity: d("1"), Price: d("2")}}},
			kind: apperr.KindNotFound,
		},
		{
			name: "paid over total",
			in: &InvoiceInput{Mode: model.InvoiceKindSale, PaymentType: Cash(), PaidAmount: d("3"),
				Items: []InvoiceLineInput{{ItemID: &itemID, Quantity: d("1"), Price: d("2")}}},
			kind: apperr.KindValidation,
		},
		{
			name: "line amount mismatch",
			in: &InvoiceInput{Mode: model.InvoiceKindSale, PaymentType: Cash(),
				Items: []InvoiceLineInput{{ItemID: &itemID, Quantity: d("2"), Price: d("2"), Amount: d("5")}}},
			kind: apperr.KindValidation,
		},
		{
			name: "due without party",
			in: &InvoiceInput{Mode: model.InvoiceKindSale, PaymentType: Cash(), PaidAmount: d("1"),
				Items: []InvoiceLineInput{{ItemID: &itemID, Quantity: d("1"), Price: d("2")}}},
			kind: apperr.KindValidation,
		},
		{
			name: "no lines",
			in:   &InvoiceInput{Mode: model.InvoiceKindSale, PaymentType: Cash()},
			kind: apperr.KindValidation,
		},
		{
			name: "no payment type",
			in: &InvoiceInput{Mode: model.InvoiceKindSale,
				Items: []InvoiceLineInput{{ItemID: &itemID, Quantity: d("1"), Price: d("2")}}},
			kind: apperr.KindValidation,
		},
		{
			name: "bad mode",
			in: &InvoiceInput{Mode: "barter", PaymentType: Cash(),
				Items: []InvoiceLineInput{{ItemID: &itemID, Quantity: d("1"), Price: d("2")}}},
			kind: apperr.KindValidation,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := f.Invoices.Create(ctx, rc, tt.in)
			require.Error(t, err)
			assert.Equal(t, tt.kind, apperr.KindOf(err), err.Error())

			requireDec(t, "5", f.stock(t, itemID))
			requireDec(t, "0", f.cash(t))
			assert.Zero(t, f.count(t, &model.Invoice{}))
			assert.Zero(t, f.count(t, &model.Transaction{}))
			assert.Zero(t, f.count(t, &model.OutboxMessage{}))
			assert.Equal(t, int64(1), f.count(t, &model.Item{}))
		})
	}
}

func TestMutation_WritesOutboxEvent(t *testing.T) {
	f := setup(t)

	inv, err := f.Invoices.Create(ctx, rc, &InvoiceInput{
		Mode:        model.InvoiceKindSale,
		Items:       []InvoiceLineInput{{Name: "Tea", Quantity: d("1"), Price: d("4")}},
		PaymentType: Cash(),
		PaidAmount:  d("4"),
	})
	require.NoError(t, err)
	require.NoError(t, f.Invoices.Delete(ctx, rc, inv.ID))

	var msgs []model.OutboxMessage
	require.NoError(t, f.db.Order("id ASC").Find(&msgs).Error)
	require.Len(t, msgs, 2)
	assert.Equal(t, "invoice.created", msgs[0].EventType)
	assert.Equal(t, "invoice.deleted", msgs[1].EventType)
	assert.Equal(t, model.OutboxStatusPending, msgs[0].Status)
	assert.Equal(t, "ledger-events", msgs[0].Topic)

	var ev LedgerEvent
	require.NoError(t, json.Unmarshal([]byte(msgs[0].Payload), &ev))
	assert.Equal(t, inv.ID, ev.DocumentID)
	assert.Equal(t, model.TransactionTypeSale, ev.Type)
	requireDec(t, "4", ev.Amount)
}

func TestSummary_CachedUntilNextMutation(t *testing.T) {
	f := setup(t)
	f.newBank(t, "Main", "200")

	sum, err := f.Accounts.Summary(ctx, rc)
	require.NoError(t, err)
	requireDec(t, "200", sum.Total)
	_, cached := f.cache.data[summaryKey(rc.CompanyID)]
	assert.True(t, cached)

	deletes := f.cache.deletes
	_, err = f.Expenses.Create(ctx, rc, &ExpenseInput{
		Category:    "Snacks",
		Items:       []ExpenseLineInput{{Name: "Biscuits", Quantity: d("1"), Price: d("3")}},
		PaymentType: Cash(),
	})
	require.NoError(t, err)
	assert.Equal(t, deletes+1, f.cache.deletes)
	_, cached = f.cache.data[summaryKey(rc.CompanyID)]
	assert.False(t, cached)

	sum, err = f.Accounts.Summary(ctx, rc)
	require.NoError(t, err)
	requireDec(t, "-3", sum.CashInHand)
	requireDec(t, "200", sum.BankTotal)
	requireDec(t, "197", sum.Total)
	require.NotNil(t, sum.CashAdjustmentID)
}

func TestMissingRequestContext(t *testing.T) {
	f := setup(t)

	_, err := f.Expenses.Create(ctx, RequestContext{CompanyID: 1}, &ExpenseInput{
		Category:    "x",
		Items:       []ExpenseLineInput{{Name: "y", Quantity: d("1"), Price: d("1")}},
		PaymentType: Cash(),
	})
	assert.Equal(t, apperr.KindUnauthenticated, apperr.KindOf(err))

	_, err = f.Accounts.Summary(ctx, RequestContext{UserID: 7})
	assert.Equal(t, apperr.KindValidation, apperr.KindOf(err))
}

func TestWrites_CompleteAfterCallerCancels(t *testing.T) {
	f := setup(t)
	gone, cancel := context.WithCancel(ctx)
	cancel()

	inv, err := f.Invoices.Create(gone, rc, &InvoiceInput{
		Mode:        model.InvoiceKindSale,
		Items:       []InvoiceLineInput{{Name: "Item C", Quantity: d("1"), Price: d("10")}},
		PaymentType: Cash(),
		Total:       d("10"),
		PaidAmount:  d("10"),
	})
	require.NoError(t, err)
	requireDec(t, "10", f.cash(t))
	require.Len(t, f.records(t, model.DocumentTypeInvoice, inv.ID), 1)

	itemID := inv.Lines[0].ItemID
	updated, err := f.Invoices.Update(gone, rc, &InvoiceInput{
		ID:          inv.ID,
		Items:       []InvoiceLineInput{{ItemID: &itemID, Quantity: d("2"), Price: d("10")}},
		PaymentType: Cash(),
		Total:       d("20"),
		PaidAmount:  d("20"),
	})
	require.NoError(t, err)
	assert.Equal(t, 2, updated.Version)
	requireDec(t, "20", f.cash(t))

	require.NoError(t, f.Invoices.Delete(gone, rc, inv.ID))
	requireDec(t, "0", f.cash(t))
	assert.Empty(t, f.records(t, model.DocumentTypeInvoice, inv.ID))
}
