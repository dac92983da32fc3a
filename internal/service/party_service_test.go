package service

import (
	"testing"

	"bizledger/internal/apperr"
	"bizledger/internal/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParty_OpeningBalanceLifecycle(t *testing.T) {
	f := setup(t)

	p, err := f.Parties.Create(ctx, rc, &PartyInput{
		Name: "Rahim Store", Phone: "01712-345678", OpeningBalance: d("250"), BalanceType: model.BalanceTypeToPay,
	})
	require.NoError(t, err)
	assert.Equal(t, "+8801712345678", p.Phone)
	requireDec(t, "-250", f.party(t, p.ID).Signed())

	recs := f.records(t, model.DocumentTypeParty, p.ID)
	require.Len(t, recs, 1)
	assert.Equal(t, model.TransactionTypeOpeningBalance, recs[0].Type)
	requireDec(t, "-250", recs[0].Amount)
	assert.Nil(t, recs[0].CashAdjustmentID)
	assert.Nil(t, recs[0].CashAndBankID)

	// a sale on credit moves the running balance, not the opening record
	_, err = f.Invoices.Create(ctx, rc, &InvoiceInput{
		Mode:          model.InvoiceKindSale,
		Items:         []InvoiceLineInput{{Name: "Rice", Quantity: d("10"), Price: d("30")}},
		SelectedParty: &PartyRef{ID: p.ID},
		PaymentType:   Cash(),
	})
	require.NoError(t, err)
	requireDec(t, "50", f.party(t, p.ID).Signed())

	updated, err := f.Parties.Update(ctx, rc, &PartyInput{
		ID: p.ID, Name: "Rahim Store", OpeningBalance: d("100"), BalanceType: model.BalanceTypeToReceive,
	})
	require.NoError(t, err)
	requireDec(t, "400", updated.Signed())
	assert.Equal(t, model.BalanceTypeToReceive, updated.BalanceType)
	recs = f.records(t, model.DocumentTypeParty, p.ID)
	require.Len(t, recs, 1)
	requireDec(t, "100", recs[0].Amount)

	err = f.Parties.Delete(ctx, rc, p.ID)
	assert.Equal(t, apperr.KindInvariant, apperr.KindOf(err))
}

func TestParty_ZeroBalanceKeepsType(t *testing.T) {
	f := setup(t)
	p := f.newParty(t, "30", model.BalanceTypeToPay)

	_, err := f.Invoices.Create(ctx, rc, &InvoiceInput{
		Mode:          model.InvoiceKindSale,
		Items:         []InvoiceLineInput{{Name: "Soap", Quantity: d("3"), Price: d("10")}},
		SelectedParty: &PartyRef{ID: p.ID},
		PaymentType:   Cash(),
	})
	require.NoError(t, err)

	got := f.party(t, p.ID)
	requireDec(t, "0", got.OpeningBalance)
	assert.Equal(t, model.BalanceTypeToPay, got.BalanceType)
}

func TestParty_DeleteRemovesOpeningRecord(t *testing.T) {
	f := setup(t)
	p := f.newParty(t, "80", "")

	require.NoError(t, f.Parties.Delete(ctx, rc, p.ID))
	assert.Empty(t, f.records(t, model.DocumentTypeParty, p.ID))
	_, err := f.Parties.Get(ctx, rc, p.ID)
	assert.True(t, apperr.IsNotFound(err))
}

func TestParty_Validation(t *testing.T) {
	f := setup(t)

	tests := []struct {
		name string
		in   *PartyInput
	}{
		{name: "missing name", in: &PartyInput{}},
		{name: "bad email", in: &PartyInput{Name: "A", Email: "not-an-email"}},
		{name: "bad balance type", in: &PartyInput{Name: "A", BalanceType: "Both"}},
		{name: "negative opening", in: &PartyInput{Name: "A", OpeningBalance: d("-1")}},
		{name: "bad phone", in: &PartyInput{Name: "A", Phone: "12"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := f.Parties.Create(ctx, rc, tt.in)
			assert.Equal(t, apperr.KindValidation, apperr.KindOf(err))
		})
	}
	assert.Zero(t, f.count(t, &model.Party{}))
}

func TestInvoice_NewPartyCreatedInline(t *testing.T) {
	f := setup(t)

	inv, err := f.Invoices.Create(ctx, rc, &InvoiceInput{
		Mode:        model.InvoiceKindPurchase,
		Items:       []InvoiceLineInput{{Name: "Flour", Quantity: d("5"), Price: d("40")}},
		NewParty:    &NewPartyInput{Name: "Mill Co"},
		PaymentType: Cash(),
		PaidAmount:  d("50"),
	})
	require.NoError(t, err)
	require.NotNil(t, inv.PartyID)
	require.NotNil(t, inv.Party)
	assert.Equal(t, "Mill Co", inv.Party.Name)
	requireDec(t, "-150", f.party(t, *inv.PartyID).Signed())
	assert.False(t, inv.IsPaid)
	requireDec(t, "150", inv.BalanceDue)
}
