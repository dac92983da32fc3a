package repository

import (
	"context"
	"errors"

	"bizledger/internal/model"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// ItemRepository is the stock ledger. Quantities only move by delta.
type ItemRepository struct {
	db *gorm.DB
}

func NewItemRepository(db *gorm.DB) *ItemRepository {
	return &ItemRepository{db: db}
}

func (r *ItemRepository) Create(ctx context.Context, tx *gorm.DB, item *model.Item) error {
	return conn(ctx, r.db, tx).Create(item).Error
}

func (r *ItemRepository) Get(ctx context.Context, tx *gorm.DB, companyID, id uint) (*model.Item, error) {
	var item model.Item
	err := conn(ctx, r.db, tx).Where("id = ? AND company_id = ?", id, companyID).First(&item).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrItemNotFound
		}
		return nil, err
	}
	return &item, nil
}

// IncrementStock adds delta to the quantity on hand of an item in companyID.
func (r *ItemRepository) IncrementStock(ctx context.Context, tx *gorm.DB, companyID, id uint, delta decimal.Decimal) error {
	db := conn(ctx, r.db, tx)
	if delta.IsZero() {
		// still verify the reference so an unknown item aborts the mutation
		var count int64
		if err := db.Model(&model.Item{}).Where("id = ? AND company_id = ?", id, companyID).Count(&count).Error; err != nil {
			return err
		}
		if count == 0 {
			return ErrItemNotFound
		}
		return nil
	}

	result := db.Model(&model.Item{}).
		Where("id = ? AND company_id = ?", id, companyID).
		UpdateColumn("opening_quantity", gorm.Expr("opening_quantity + ?", delta))
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrItemNotFound
	}
	return nil
}

// LinkTransaction points items at the record that last moved them.
func (r *ItemRepository) LinkTransaction(ctx context.Context, tx *gorm.DB, itemIDs []uint, transactionID uint) error {
	if len(itemIDs) == 0 {
		return nil
	}
	return conn(ctx, r.db, tx).
		Model(&model.Item{}).
		Where("id IN ?", itemIDs).
		UpdateColumn("transaction_id", transactionID).Error
}

// DetachTransactions clears links to records about to be deleted.
func (r *ItemRepository) DetachTransactions(ctx context.Context, tx *gorm.DB, transactionIDs []uint) error {
	if len(transactionIDs) == 0 {
		return nil
	}
	return conn(ctx, r.db, tx).
		Model(&model.Item{}).
		Where("transaction_id IN ?", transactionIDs).
		UpdateColumn("transaction_id", nil).Error
}

func (r *ItemRepository) List(ctx context.Context, companyID uint, page Page) ([]*model.Item, int64, error) {
	page = page.Normalize()
	var items []*model.Item
	var total int64

	query := r.db.WithContext(ctx).Model(&model.Item{}).Where("company_id = ?", companyID)
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	err := query.Order("name ASC").Offset(page.offset()).Limit(page.PageSize).Find(&items).Error
	return items, total, err
}
