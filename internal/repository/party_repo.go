package repository

import (
	"context"
	"errors"

	"bizledger/internal/model"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type PartyRepository struct {
	db *gorm.DB
}

func NewPartyRepository(db *gorm.DB) *PartyRepository {
	return &PartyRepository{db: db}
}

func (r *PartyRepository) Create(ctx context.Context, tx *gorm.DB, party *model.Party) error {
	return conn(ctx, r.db, tx).Create(party).Error
}

func (r *PartyRepository) Get(ctx context.Context, tx *gorm.DB, companyID, id uint) (*model.Party, error) {
	var party model.Party
	err := conn(ctx, r.db, tx).Where("id = ? AND company_id = ?", id, companyID).First(&party).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrPartyNotFound
		}
		return nil, err
	}
	return &party, nil
}

// GetForUpdate row-locks the party until the transaction ends. The balance
// is stored as magnitude plus type, so it cannot be moved by a single
// increment and is read-computed-written under this lock instead.
func (r *PartyRepository) GetForUpdate(ctx context.Context, tx *gorm.DB, companyID, id uint) (*model.Party, error) {
	var party model.Party
	err := tx.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("id = ? AND company_id = ?", id, companyID).
		First(&party).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrPartyNotFound
		}
		return nil, err
	}
	return &party, nil
}

// SaveBalance writes the balance columns of a party locked by GetForUpdate.
func (r *PartyRepository) SaveBalance(ctx context.Context, tx *gorm.DB, party *model.Party) error {
	return tx.WithContext(ctx).
		Model(&model.Party{}).
		Where("id = ?", party.ID).
		Updates(map[string]interface{}{
			"opening_balance": party.OpeningBalance,
			"balance_type":    party.BalanceType,
		}).Error
}

// UpdateDetails writes the descriptive columns only.
func (r *PartyRepository) UpdateDetails(ctx context.Context, tx *gorm.DB, party *model.Party) error {
	return conn(ctx, r.db, tx).
		Model(&model.Party{}).
		Where("id = ?", party.ID).
		Updates(map[string]interface{}{
			"name":    party.Name,
			"phone":   party.Phone,
			"email":   party.Email,
			"address": party.Address,
		}).Error
}

func (r *PartyRepository) Delete(ctx context.Context, tx *gorm.DB, companyID, id uint) error {
	result := conn(ctx, r.db, tx).Where("id = ? AND company_id = ?", id, companyID).Delete(&model.Party{})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrPartyNotFound
	}
	return nil
}

// CountDocuments counts invoices that still reference the party.
func (r *PartyRepository) CountDocuments(ctx context.Context, tx *gorm.DB, id uint) (int64, error) {
	var count int64
	err := conn(ctx, r.db, tx).Model(&model.Invoice{}).Where("party_id = ?", id).Count(&count).Error
	return count, err
}

func (r *PartyRepository) List(ctx context.Context, companyID uint, page Page) ([]*model.Party, int64, error) {
	page = page.Normalize()
	var parties []*model.Party
	var total int64

	query := r.db.WithContext(ctx).Model(&model.Party{}).Where("company_id = ?", companyID)
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	err := query.Order("name ASC").Offset(page.offset()).Limit(page.PageSize).Find(&parties).Error
	return parties, total, err
}
