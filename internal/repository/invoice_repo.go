package repository

import (
	"context"
	"errors"

	"bizledger/internal/model"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type InvoiceRepository struct {
	db *gorm.DB
}

func NewInvoiceRepository(db *gorm.DB) *InvoiceRepository {
	return &InvoiceRepository{db: db}
}

// Create inserts the invoice header then its lines.
func (r *InvoiceRepository) Create(ctx context.Context, tx *gorm.DB, inv *model.Invoice) error {
	db := conn(ctx, r.db, tx)
	if inv.Version == 0 {
		inv.Version = 1
	}
	if err := db.Omit(clause.Associations).Create(inv).Error; err != nil {
		return err
	}
	return r.createLines(db, inv)
}

func (r *InvoiceRepository) createLines(db *gorm.DB, inv *model.Invoice) error {
	if len(inv.Lines) == 0 {
		return nil
	}
	for i := range inv.Lines {
		inv.Lines[i].ID = 0
		inv.Lines[i].InvoiceID = inv.ID
	}
	return db.Create(&inv.Lines).Error
}

// Get loads an invoice of companyID with its lines and party.
func (r *InvoiceRepository) Get(ctx context.Context, tx *gorm.DB, companyID, id uint) (*model.Invoice, error) {
	var inv model.Invoice
	err := conn(ctx, r.db, tx).
		Preload("Lines", func(db *gorm.DB) *gorm.DB { return db.Order("id ASC") }).
		Preload("Party").
		Where("id = ? AND company_id = ?", id, companyID).
		First(&inv).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrInvoiceNotFound
		}
		return nil, err
	}
	return &inv, nil
}

// Replace rewrites the header fields and lines of an existing invoice.
// The version column is left to BumpVersion.
func (r *InvoiceRepository) Replace(ctx context.Context, tx *gorm.DB, inv *model.Invoice) error {
	db := conn(ctx, r.db, tx)
	err := db.Model(&model.Invoice{}).
		Where("id = ?", inv.ID).
		Updates(map[string]interface{}{
			"party_id":           inv.PartyID,
			"total":              inv.Total,
			"paid_amount":        inv.PaidAmount,
			"balance_due":        inv.BalanceDue,
			"is_paid":            inv.IsPaid,
			"payment_type":       inv.PaymentType,
			"cash_adjustment_id": inv.CashAdjustmentID,
			"cash_and_bank_id":   inv.CashAndBankID,
			"invoice_date":       inv.InvoiceDate,
			"notes":              inv.Notes,
		}).Error
	if err != nil {
		return err
	}
	if err := db.Where("invoice_id = ?", inv.ID).Delete(&model.InvoiceLine{}).Error; err != nil {
		return err
	}
	return r.createLines(db, inv)
}

func (r *InvoiceRepository) Delete(ctx context.Context, tx *gorm.DB, id uint) error {
	db := conn(ctx, r.db, tx)
	if err := db.Where("invoice_id = ?", id).Delete(&model.InvoiceLine{}).Error; err != nil {
		return err
	}
	result := db.Delete(&model.Invoice{}, id)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrInvoiceNotFound
	}
	return nil
}

func (r *InvoiceRepository) List(ctx context.Context, companyID uint, kind string, page Page) ([]*model.Invoice, int64, error) {
	page = page.Normalize()
	var invoices []*model.Invoice
	var total int64

	query := r.db.WithContext(ctx).Model(&model.Invoice{}).Where("company_id = ?", companyID)
	if kind != "" {
		query = query.Where("kind = ?", kind)
	}
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	err := query.
		Preload("Lines").
		Preload("Party").
		Order("created_at DESC, id DESC").
		Offset(page.offset()).
		Limit(page.PageSize).
		Find(&invoices).Error
	return invoices, total, err
}
