package service

import (
	"testing"

	"bizledger/internal/apperr"
	"bizledger/internal/model"
	"bizledger/internal/repository"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestScenarioA_CashSaleOfNewItem(t *testing.T) {
	f := setup(t)

	inv, err := f.Invoices.Create(ctx, rc, &InvoiceInput{
		Mode:        model.InvoiceKindSale,
		Items:       []InvoiceLineInput{{Name: "Item X", Quantity: d("2"), Price: d("50"), Amount: d("100")}},
		PaymentType: Cash(),
		Total:       d("100"),
		PaidAmount:  d("100"),
		BalanceDue:  ptr(d("0")),
	})
	require.NoError(t, err)

	requireDec(t, "100", f.cash(t))
	require.Len(t, inv.Lines, 1)
	requireDec(t, "0", f.stock(t, inv.Lines[0].ItemID))
	assert.True(t, inv.IsPaid)

	recs := f.records(t, model.DocumentTypeInvoice, inv.ID)
	require.Len(t, recs, 1)
	assert.Equal(t, model.TransactionTypeSale, recs[0].Type)
	assert.NotNil(t, recs[0].CashAdjustmentID)
	assert.Nil(t, recs[0].CashAndBankID)
	requireDec(t, "100", recs[0].Amount)

	var item model.Item
	require.NoError(t, f.db.First(&item, inv.Lines[0].ItemID).Error)
	require.NotNil(t, item.TransactionID)
	assert.Equal(t, recs[0].ID, *item.TransactionID)
}

func TestScenarioBC_BankPurchaseThenUpdate(t *testing.T) {
	f := setup(t)
	bank := f.newBank(t, "Bank Z", "1000")

	inv, err := f.Invoices.Create(ctx, rc, &InvoiceInput{
		Mode:        model.InvoiceKindPurchase,
		Items:       []InvoiceLineInput{{Name: "Item Y", Quantity: d("10"), Price: d("5")}},
		PaymentType: Bank(bank.ID, bank.AccountDisplayName),
		Total:       d("50"),
		PaidAmount:  d("50"),
	})
	require.NoError(t, err)

	itemY := inv.Lines[0].ItemID
	requireDec(t, "950", f.bank(t, bank.ID))
	requireDec(t, "10", f.stock(t, itemY))
	firstRec := f.records(t, model.DocumentTypeInvoice, inv.ID)
	require.Len(t, firstRec, 1)
	require.NotNil(t, firstRec[0].CashAndBankID)
	assert.Equal(t, bank.ID, *firstRec[0].CashAndBankID)
	assert.Equal(t, "Bank Z", firstRec[0].PaymentType)

	updated, err := f.Invoices.Update(ctx, rc, &InvoiceInput{
		ID:          inv.ID,
		Version:     inv.Version,
		Items:       []InvoiceLineInput{{ItemID: &itemY, Quantity: d("15"), Price: d("5")}},
		PaymentType: Bank(bank.ID, bank.AccountDisplayName),
		Total:       d("75"),
		PaidAmount:  d("75"),
	})
	require.NoError(t, err)

	requireDec(t, "925", f.bank(t, bank.ID))
	requireDec(t, "15", f.stock(t, itemY))
	assert.Equal(t, 2, updated.Version)
	assert.Equal(t, inv.InvoiceNo, updated.InvoiceNo)

	recs := f.records(t, model.DocumentTypeInvoice, inv.ID)
	require.Len(t, recs, 1)
	assert.NotEqual(t, firstRec[0].ID, recs[0].ID)
	requireDec(t, "75", recs[0].TotalAmount)
}

func TestScenarioDE_LoanChargeThenDeleteTwice(t *testing.T) {
	f := setup(t)
	acc := f.newLoan(t, "100")

	charge, err := f.Loans.CreateTransaction(ctx, rc, model.TransactionTypeLoanCharge, &LoanTxnInput{
		LoanAccountID: acc.ID,
		Amount:        d("20"),
		PaymentType:   Cash(),
	})
	require.NoError(t, err)
	requireDec(t, "120", f.loan(t, acc.ID))
	requireDec(t, "-20", f.cash(t))

	require.NoError(t, f.Loans.DeleteTransaction(ctx, rc, model.TransactionTypeLoanCharge, charge.ID))
	requireDec(t, "100", f.loan(t, acc.ID))
	requireDec(t, "0", f.cash(t))
	assert.Empty(t, f.records(t, model.DocumentTypeLoanTransaction, charge.ID))

	err = f.Loans.DeleteTransaction(ctx, rc, model.TransactionTypeLoanCharge, charge.ID)
	assert.Equal(t, apperr.KindNotFound, apperr.KindOf(err))
	requireDec(t, "100", f.loan(t, acc.ID))
	requireDec(t, "0", f.cash(t))
}

func TestScenarioF_DeleteIncreaseThatWouldGoNegative(t *testing.T) {
	f := setup(t)
	acc := f.newLoan(t, "100")

	increase, err := f.Loans.CreateTransaction(ctx, rc, model.TransactionTypeLoanIncrease, &LoanTxnInput{
		LoanAccountID: acc.ID, Amount: d("50"), PaymentType: Cash(),
	})
	require.NoError(t, err)
	payment, err := f.Loans.CreateTransaction(ctx, rc, model.TransactionTypeLoanPayment, &LoanTxnInput{
		LoanAccountID: acc.ID, Amount: d("120"), PaymentType: Cash(),
	})
	require.NoError(t, err)
	requireDec(t, "30", f.loan(t, acc.ID))
	requireDec(t, "-70", f.cash(t))

	err = f.Loans.DeleteTransaction(ctx, rc, model.TransactionTypeLoanIncrease, increase.ID)
	require.Error(t, err)
	assert.Equal(t, apperr.KindInvariant, apperr.KindOf(err))
	assert.Equal(t, "would make balance negative", apperr.Message(err))

	requireDec(t, "30", f.loan(t, acc.ID))
	requireDec(t, "-70", f.cash(t))
	assert.Len(t, f.records(t, model.DocumentTypeLoanTransaction, increase.ID), 1)
	still, err := f.Loans.GetTransaction(ctx, rc, model.TransactionTypeLoanIncrease, increase.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, still.Version)

	// reversing a payment only raises the balance
	require.NoError(t, f.Loans.DeleteTransaction(ctx, rc, model.TransactionTypeLoanPayment, payment.ID))
	requireDec(t, "150", f.loan(t, acc.ID))
	requireDec(t, "50", f.cash(t))
}

func TestLoanPayment_CannotOverpay(t *testing.T) {
	f := setup(t)
	acc := f.newLoan(t, "100")

	_, err := f.Loans.CreateTransaction(ctx, rc, model.TransactionTypeLoanPayment, &LoanTxnInput{
		LoanAccountID: acc.ID, Amount: d("101"), PaymentType: Cash(),
	})
	assert.Equal(t, apperr.KindInvariant, apperr.KindOf(err))
	requireDec(t, "100", f.loan(t, acc.ID))
	assert.Zero(t, f.count(t, &model.LoanTransaction{}))
	assert.Zero(t, f.count(t, &model.Transaction{}))
}

func TestLoanPayment_InterestLeavesCashOnly(t *testing.T) {
	f := setup(t)
	acc := f.newLoan(t, "100")

	lt, err := f.Loans.CreateTransaction(ctx, rc, model.TransactionTypeLoanPayment, &LoanTxnInput{
		LoanAccountID: acc.ID, Amount: d("40"), Interest: d("5"), PaymentType: Cash(),
	})
	require.NoError(t, err)
	requireDec(t, "60", f.loan(t, acc.ID))
	requireDec(t, "-45", f.cash(t))

	recs := f.records(t, model.DocumentTypeLoanTransaction, lt.ID)
	require.Len(t, recs, 1)
	requireDec(t, "45", recs[0].Amount)
	require.NotNil(t, recs[0].LoanAccountID)
	assert.Equal(t, acc.ID, *recs[0].LoanAccountID)

	_, err = f.Loans.CreateTransaction(ctx, rc, model.TransactionTypeLoanCharge, &LoanTxnInput{
		LoanAccountID: acc.ID, Amount: d("10"), Interest: d("1"), PaymentType: Cash(),
	})
	assert.Equal(t, apperr.KindValidation, apperr.KindOf(err))
}

func TestLoanUpdate_MovesBetweenAccounts(t *testing.T) {
	f := setup(t)
	acc := f.newLoan(t, "100")
	bank := f.newBank(t, "Main", "0")

	lt, err := f.Loans.CreateTransaction(ctx, rc, model.TransactionTypeLoanIncrease, &LoanTxnInput{
		LoanAccountID: acc.ID, Amount: d("30"), PaymentType: Cash(),
	})
	require.NoError(t, err)

	_, err = f.Loans.UpdateTransaction(ctx, rc, model.TransactionTypeLoanIncrease, &LoanTxnInput{
		ID: lt.ID, Version: lt.Version, LoanAccountID: acc.ID, Amount: d("45"), PaymentType: Bank(bank.ID, ""),
	})
	require.NoError(t, err)

	requireDec(t, "0", f.cash(t))
	requireDec(t, "45", f.bank(t, bank.ID))
	requireDec(t, "145", f.loan(t, acc.ID))
}

func TestLoanAccount_OpeningReceivedIntoCash(t *testing.T) {
	f := setup(t)

	acc, err := f.Loans.CreateAccount(ctx, rc, &LoanAccountInput{
		AccountName: "Overdraft", OpeningBalance: d("500"), ReceivedIn: Cash(),
	})
	require.NoError(t, err)
	requireDec(t, "500", f.cash(t))
	requireDec(t, "500", f.loan(t, acc.ID))

	recs := f.records(t, model.DocumentTypeLoanAccount, acc.ID)
	require.Len(t, recs, 1)
	assert.Equal(t, model.TransactionTypeLoanOpening, recs[0].Type)

	_, err = f.Loans.CreateTransaction(ctx, rc, model.TransactionTypeLoanCharge, &LoanTxnInput{
		LoanAccountID: acc.ID, Amount: d("5"), PaymentType: Cash(),
	})
	require.NoError(t, err)
	err = f.Loans.DeleteAccount(ctx, rc, acc.ID)
	assert.Equal(t, apperr.KindInvariant, apperr.KindOf(err))

	other, err := f.Loans.CreateAccount(ctx, rc, &LoanAccountInput{
		AccountName: "Short term", OpeningBalance: d("200"), ReceivedIn: Cash(),
	})
	require.NoError(t, err)
	requireDec(t, "695", f.cash(t))
	require.NoError(t, f.Loans.DeleteAccount(ctx, rc, other.ID))
	requireDec(t, "495", f.cash(t))
	assert.Empty(t, f.records(t, model.DocumentTypeLoanAccount, other.ID))

	accounts, err := f.Loans.ListAccounts(ctx, rc)
	require.NoError(t, err)
	assert.Len(t, accounts, 1)

	detail, err := f.Loans.GetAccount(ctx, rc, acc.ID)
	require.NoError(t, err)
	assert.Len(t, detail.Transactions, 1)
}

func TestExpense_CreateUpdateDelete(t *testing.T) {
	f := setup(t)
	bank := f.newBank(t, "Ops", "300")

	exp, err := f.Expenses.Create(ctx, rc, &ExpenseInput{
		Category:    "Rent",
		Items:       []ExpenseLineInput{{Name: "March rent", Quantity: d("1"), Price: d("120")}},
		PaymentType: Bank(bank.ID, "Ops"),
	})
	require.NoError(t, err)
	requireDec(t, "180", f.bank(t, bank.ID))
	requireDec(t, "120", exp.Total)

	_, err = f.Expenses.Update(ctx, rc, &ExpenseInput{
		ID:          exp.ID,
		Category:    "Rent",
		Items:       []ExpenseLineInput{{Name: "March rent", Quantity: d("1"), Price: d("100")}},
		PaymentType: Cash(),
	})
	require.NoError(t, err)
	requireDec(t, "300", f.bank(t, bank.ID))
	requireDec(t, "-100", f.cash(t))

	require.NoError(t, f.Expenses.Delete(ctx, rc, exp.ID))
	requireDec(t, "0", f.cash(t))
	assert.Zero(t, f.count(t, &model.ExpenseLine{}))

	err = f.Expenses.Delete(ctx, rc, exp.ID)
	assert.True(t, apperr.IsNotFound(err))
}

func TestIdempotentDelete_Invoice(t *testing.T) {
	f := setup(t)

	inv, err := f.Invoices.Create(ctx, rc, &InvoiceInput{
		Mode:        model.InvoiceKindSale,
		Items:       []InvoiceLineInput{{Name: "Widget", Quantity: d("1"), Price: d("30")}},
		PaymentType: Cash(),
		PaidAmount:  d("30"),
	})
	require.NoError(t, err)

	require.NoError(t, f.Invoices.Delete(ctx, rc, inv.ID))
	requireDec(t, "0", f.cash(t))

	err = f.Invoices.Delete(ctx, rc, inv.ID)
	assert.ErrorIs(t, err, repository.ErrInvoiceNotFound)
	requireDec(t, "0", f.cash(t))
	assert.Zero(t, f.count(t, &model.InvoiceLine{}))
	assert.Zero(t, f.count(t, &model.Transaction{}))
}
