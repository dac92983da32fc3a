package service

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"time"

	"bizledger/internal/apperr"
	"bizledger/internal/model"
	"bizledger/internal/repository"
	"bizledger/pkg/idgen"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

// InvoiceService writes sale and purchase invoices.
type InvoiceService struct {
	engine   *Engine
	invoices *repository.InvoiceRepository
	docs     *family[*model.Invoice]
}

func NewInvoiceService(engine *Engine, db *gorm.DB) *InvoiceService {
	s := &InvoiceService{
		engine:   engine,
		invoices: repository.NewInvoiceRepository(db),
	}
	s.docs = &family[*model.Invoice]{
		engine:  engine,
		docType: model.DocumentTypeInvoice,
		table:   &model.Invoice{},
		load: func(ctx context.Context, tx *gorm.DB, rc RequestContext, id uint) (*model.Invoice, error) {
			return s.invoices.Get(ctx, tx, rc.CompanyID, id)
		},
		meta:    func(inv *model.Invoice) (uint, int) { return inv.ID, inv.Version },
		posting: invoicePosting,
		record:  invoiceRecord,
		insert:  s.invoices.Create,
		replace: s.invoices.Replace,
		remove: func(ctx context.Context, tx *gorm.DB, inv *model.Invoice) error {
			return s.invoices.Delete(ctx, tx, inv.ID)
		},
	}
	return s
}

// PartyRef selects an existing party either by bare id or by {"id": n}.
type PartyRef struct {
	ID uint `json:"id"`
}

func (p *PartyRef) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) > 0 && data[0] == '{' {
		type plain PartyRef
		return json.Unmarshal(data, (*plain)(p))
	}
	return json.Unmarshal(data, &p.ID)
}

// NewPartyInput creates a party inline while saving an invoice.
type NewPartyInput struct {
	Name    string `json:"name" validate:"required"`
	Phone   string `json:"phone"`
	Email   string `json:"email" validate:"omitempty,email"`
	Address string `json:"address"`
}

// InvoiceLineInput is one line. ItemID names a stored item; without it Name creates one.
type InvoiceLineInput struct {
	ItemID   *uint           `json:"itemId"`
	Name     string          `json:"itemName"`
	Quantity decimal.Decimal `json:"qty"`
	Price    decimal.Decimal `json:"price"`
	Amount   decimal.Decimal `json:"amount"`
}

// InvoiceInput is the body of a sale or purchase write.
type InvoiceInput struct {
	ID            uint               `json:"id"`
	Mode          string             `json:"mode"`
	Version       int                `json:"version"`
	Items         []InvoiceLineInput `json:"items" validate:"required,min=1"`
	SelectedParty *PartyRef          `json:"selectedParty"`
	NewParty      *NewPartyInput     `json:"newParty"`
	PaymentType   PaymentTarget      `json:"paymentType"`
	Total         decimal.Decimal    `json:"total"`
	PaidAmount    decimal.Decimal    `json:"paidAmount"`
	BalanceDue    *decimal.Decimal   `json:"balanceDue"`
	InvoiceDate   *time.Time         `json:"invoiceDate"`
	Notes         string             `json:"notes"`
}

// ============================================================================
// Policy wiring
// ============================================================================

func invoicePosting(inv *model.Invoice) Posting {
	pol := policyForKind(inv.Kind)
	p := Posting{
		Account: accountOf(inv.CashAdjustmentID, inv.CashAndBankID, inv.PaymentType),
		Cash:    signed(pol.Cash, inv.PaidAmount),
		PartyID: inv.PartyID,
		Party:   signed(pol.Party, inv.BalanceDue),
	}
	for _, l := range inv.Lines {
		p.Stock = append(p.Stock, StockMove{ItemID: l.ItemID, Delta: l.StockDelta, Seeded: l.Seeded})
	}
	return p
}

func invoiceRecord(inv *model.Invoice) *model.Transaction {
	return &model.Transaction{
		Type:        policyForKind(inv.Kind).Type,
		Amount:      inv.PaidAmount,
		TotalAmount: inv.Total,
		BalanceDue:  inv.BalanceDue,
		PaymentType: inv.PaymentType,
	}
}

// ============================================================================
// Operations
// ============================================================================

// Create saves a new invoice and posts it to the party, stock and the chosen
// ledger account.
func (s *InvoiceService) Create(ctx context.Context, rc RequestContext, in *InvoiceInput) (*model.Invoice, error) {
	if in.Mode != model.InvoiceKindSale && in.Mode != model.InvoiceKindPurchase {
		return nil, apperr.Validation("mode must be sale or purchase")
	}
	if err := s.check(in); err != nil {
		return nil, err
	}
	kind := in.Mode
	inv, err := s.docs.create(ctx, rc, in.PaymentType, func(ctx context.Context, tx *gorm.DB, acct AccountRef, _ *model.Invoice) (*model.Invoice, error) {
		return s.build(ctx, tx, rc, kind, acct, in, nil)
	})
	if err != nil {
		return nil, err
	}
	s.engine.log.WithFields(logrus.Fields{
		"invoiceNo": inv.InvoiceNo, "companyId": rc.CompanyID, "kind": inv.Kind, "total": inv.Total.String(),
	}).Info("invoice created")
	return inv, nil
}

// Update reverses the stored invoice and applies in. The kind of an invoice
// never changes.
func (s *InvoiceService) Update(ctx context.Context, rc RequestContext, in *InvoiceInput) (*model.Invoice, error) {
	if in.ID == 0 {
		return nil, apperr.Validation("id is required")
	}
	if err := s.check(in); err != nil {
		return nil, err
	}
	inv, err := s.docs.update(ctx, rc, in.ID, in.Version, in.PaymentType, func(ctx context.Context, tx *gorm.DB, acct AccountRef, prev *model.Invoice) (*model.Invoice, error) {
		return s.build(ctx, tx, rc, prev.Kind, acct, in, prev)
	})
	if err != nil {
		return nil, err
	}
	s.engine.log.WithFields(logrus.Fields{
		"invoiceNo": inv.InvoiceNo, "companyId": rc.CompanyID, "version": inv.Version,
	}).Info("invoice updated")
	return inv, nil
}

// Delete reverses every effect of the invoice and removes it.
func (s *InvoiceService) Delete(ctx context.Context, rc RequestContext, id uint) error {
	if id == 0 {
		return apperr.Validation("id is required")
	}
	if err := s.docs.delete(ctx, rc, id); err != nil {
		return err
	}
	s.engine.log.WithFields(logrus.Fields{"invoiceId": id, "companyId": rc.CompanyID}).Info("invoice deleted")
	return nil
}

// Get returns an invoice with its lines and party.
func (s *InvoiceService) Get(ctx context.Context, rc RequestContext, id uint) (*model.Invoice, error) {
	if err := rc.check(); err != nil {
		return nil, err
	}
	return s.invoices.Get(ctx, nil, rc.CompanyID, id)
}

// List pages a company's invoices, optionally of one kind.
func (s *InvoiceService) List(ctx context.Context, rc RequestContext, kind string, page repository.Page) ([]*model.Invoice, int64, error) {
	if err := rc.check(); err != nil {
		return nil, 0, err
	}
	if kind != "" && kind != model.InvoiceKindSale && kind != model.InvoiceKindPurchase {
		return nil, 0, apperr.Validation("mode must be sale or purchase")
	}
	return s.invoices.List(ctx, rc.CompanyID, kind, page)
}

// check validates everything that needs no database access.
func (s *InvoiceService) check(in *InvoiceInput) error {
	if err := validateStruct(in); err != nil {
		return err
	}
	if in.NewParty != nil {
		if err := validateStruct(in.NewParty); err != nil {
			return err
		}
	}
	if !in.PaymentType.IsSet() {
		return apperr.Validation("paymentType is required")
	}

	lines := make([]line, len(in.Items))
	for i, it := range in.Items {
		if it.ItemID == nil && it.Name == "" {
			return apperr.Validation("items[%d].itemName is required for a new item", i)
		}
		lines[i] = line{qty: it.Quantity, price: it.Price, amount: it.Amount}
	}
	sum, amounts, err := checkLines(lines)
	if err != nil {
		return err
	}
	for i := range in.Items {
		in.Items[i].Amount = amounts[i]
	}
	if in.Total.IsZero() {
		in.Total = sum
	}
	if !in.Total.Equal(sum) {
		return apperr.Validation("total %s does not equal the sum of line amounts %s", in.Total.String(), sum.String())
	}

	due, err := checkTotals(in.Total, in.PaidAmount, in.BalanceDue)
	if err != nil {
		return err
	}
	if due.IsPositive() && (in.SelectedParty == nil || in.SelectedParty.ID == 0) && in.NewParty == nil {
		return apperr.Validation("a party is required when balanceDue is greater than 0")
	}
	return nil
}

// build resolves party and lines and returns the invoice to store. Lines
// naming a new item create it, seeded with the purchased quantity; a sale of
// a new item seeds zero and moves nothing.
func (s *InvoiceService) build(ctx context.Context, tx *gorm.DB, rc RequestContext, kind string, acct AccountRef, in *InvoiceInput, prev *model.Invoice) (*model.Invoice, error) {
	pol := policyForKind(kind)

	inv := &model.Invoice{
		Kind:             kind,
		CompanyID:        rc.CompanyID,
		UserID:           rc.UserID,
		Total:            in.Total,
		PaidAmount:       in.PaidAmount,
		BalanceDue:       in.Total.Sub(in.PaidAmount),
		PaymentType:      acct.Label,
		CashAdjustmentID: acct.CashAdjustmentID,
		CashAndBankID:    acct.CashAndBankID,
		Notes:            in.Notes,
		InvoiceDate:      time.Now(),
	}
	inv.IsPaid = inv.BalanceDue.IsZero()
	if in.InvoiceDate != nil {
		inv.InvoiceDate = *in.InvoiceDate
	}
	if prev != nil {
		inv.ID = prev.ID
		inv.InvoiceNo = prev.InvoiceNo
		inv.UserID = prev.UserID
		inv.Version = prev.Version + 1
		if in.InvoiceDate == nil {
			inv.InvoiceDate = prev.InvoiceDate
		}
	} else {
		prefix := idgen.PrefixSale
		if kind == model.InvoiceKindPurchase {
			prefix = idgen.PrefixPurchase
		}
		inv.InvoiceNo = idgen.DocumentNo(prefix)
		inv.Version = 1
	}

	partyID, err := s.resolveParty(ctx, tx, rc, in)
	if err != nil {
		return nil, err
	}
	inv.PartyID = partyID

	for i, it := range in.Items {
		ln := model.InvoiceLine{
			Name:      it.Name,
			Quantity:  it.Quantity,
			UnitPrice: it.Price,
			Amount:    it.Amount,
		}
		if it.ItemID != nil {
			item, err := s.engine.items.Get(ctx, tx, rc.CompanyID, *it.ItemID)
			if err != nil {
				return nil, fmt.Errorf("items[%d]: %w", i, err)
			}
			ln.ItemID = item.ID
			if ln.Name == "" {
				ln.Name = item.Name
			}
			ln.StockDelta = signed(pol.Stock, it.Quantity)
		} else {
			seed := decimal.Max(signed(pol.Stock, it.Quantity), decimal.Zero)
			item := &model.Item{
				CompanyID:       rc.CompanyID,
				Name:            it.Name,
				OpeningQuantity: seed,
			}
			if kind == model.InvoiceKindPurchase {
				item.PurchasePrice = it.Price
			} else {
				item.SalePrice = it.Price
			}
			if err := s.engine.items.Create(ctx, tx, item); err != nil {
				return nil, err
			}
			ln.ItemID = item.ID
			ln.StockDelta = seed
			ln.Seeded = true
		}
		inv.Lines = append(inv.Lines, ln)
	}
	return inv, nil
}

func (s *InvoiceService) resolveParty(ctx context.Context, tx *gorm.DB, rc RequestContext, in *InvoiceInput) (*uint, error) {
	switch {
	case in.SelectedParty != nil && in.SelectedParty.ID != 0:
		party, err := s.engine.parties.Get(ctx, tx, rc.CompanyID, in.SelectedParty.ID)
		if err != nil {
			return nil, err
		}
		return &party.ID, nil
	case in.NewParty != nil:
		phone, err := normalizePhone(in.NewParty.Phone, s.engine.region)
		if err != nil {
			return nil, err
		}
		party := &model.Party{
			CompanyID:      rc.CompanyID,
			Name:           in.NewParty.Name,
			Phone:          phone,
			Email:          in.NewParty.Email,
			Address:        in.NewParty.Address,
			OpeningBalance: decimal.Zero,
			BalanceType:    model.BalanceTypeToReceive,
		}
		if err := s.engine.parties.Create(ctx, tx, party); err != nil {
			return nil, err
		}
		return &party.ID, nil
	default:
		return nil, nil
	}
}
