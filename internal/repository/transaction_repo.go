package repository

import (
	"context"
	"time"

	"bizledger/internal/model"

	"gorm.io/gorm"
)

// TransactionRepository stores audit records. Records are never updated.
type TransactionRepository struct {
	db *gorm.DB
}

func NewTransactionRepository(db *gorm.DB) *TransactionRepository {
	return &TransactionRepository{db: db}
}

func (r *TransactionRepository) Create(ctx context.Context, tx *gorm.DB, trans *model.Transaction) error {
	return conn(ctx, r.db, tx).Create(trans).Error
}

func (r *TransactionRepository) ListByDocument(ctx context.Context, tx *gorm.DB, documentType string, documentID uint) ([]*model.Transaction, error) {
	var records []*model.Transaction
	err := conn(ctx, r.db, tx).
		Where("document_type = ? AND document_id = ?", documentType, documentID).
		Order("id ASC").
		Find(&records).Error
	return records, err
}

// DeleteByDocument removes every record of a document and returns their ids.
func (r *TransactionRepository) DeleteByDocument(ctx context.Context, tx *gorm.DB, documentType string, documentID uint) ([]uint, error) {
	db := conn(ctx, r.db, tx)

	var ids []uint
	err := db.Model(&model.Transaction{}).
		Where("document_type = ? AND document_id = ?", documentType, documentID).
		Pluck("id", &ids).Error
	if err != nil || len(ids) == 0 {
		return ids, err
	}
	if err := db.Where("id IN ?", ids).Delete(&model.Transaction{}).Error; err != nil {
		return nil, err
	}
	return ids, nil
}

// Filter narrows record listings. Zero values match everything.
type Filter struct {
	Type string
	From time.Time
	To   time.Time
}

func (r *TransactionRepository) scoped(ctx context.Context, companyID uint, f Filter) *gorm.DB {
	query := r.db.WithContext(ctx).Model(&model.Transaction{}).Where("company_id = ?", companyID)
	if f.Type != "" {
		query = query.Where("type = ?", f.Type)
	}
	if !f.From.IsZero() {
		query = query.Where("created_at >= ?", f.From)
	}
	if !f.To.IsZero() {
		query = query.Where("created_at < ?", f.To)
	}
	return query
}

func (r *TransactionRepository) List(ctx context.Context, companyID uint, f Filter, page Page) ([]*model.Transaction, int64, error) {
	page = page.Normalize()
	var records []*model.Transaction
	var total int64

	query := r.scoped(ctx, companyID, f)
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	err := query.
		Order("created_at DESC, id DESC").
		Offset(page.offset()).
		Limit(page.PageSize).
		Find(&records).Error
	return records, total, err
}

// ListAll returns every matching record oldest first, for export.
func (r *TransactionRepository) ListAll(ctx context.Context, companyID uint, f Filter) ([]*model.Transaction, error) {
	var records []*model.Transaction
	err := r.scoped(ctx, companyID, f).Order("created_at ASC, id ASC").Find(&records).Error
	return records, err
}
