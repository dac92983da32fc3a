package repository

import (
	"context"

	"bizledger/internal/apperr"

	"gorm.io/gorm"
)

var (
	ErrCashAccountNotFound = apperr.NotFound("cash account not found")
	ErrBankAccountNotFound = apperr.NotFound("bank account not found")
	ErrItemNotFound        = apperr.NotFound("item not found")
	ErrPartyNotFound       = apperr.NotFound("party not found")
	ErrInvoiceNotFound     = apperr.NotFound("invoice not found")
	ErrExpenseNotFound     = apperr.NotFound("expense not found")
	ErrLoanAccountNotFound = apperr.NotFound("loan account not found")
	ErrLoanTxnNotFound     = apperr.NotFound("loan transaction not found")
	ErrNegativeBalance     = apperr.Invariant("would make balance negative")
	ErrStaleVersion        = apperr.Conflict("document was modified concurrently, please reload and retry")
)

// conn picks the transaction when one is given.
func conn(ctx context.Context, db, tx *gorm.DB) *gorm.DB {
	if tx == nil {
		tx = db
	}
	return tx.WithContext(ctx)
}

// Page is a 1-based page request.
type Page struct {
	Page     int
	PageSize int
}

// Normalize clamps p to a valid page: page 1 and size 20 by default, size at most 200.
func (p Page) Normalize() Page {
	if p.Page < 1 {
		p.Page = 1
	}
	if p.PageSize < 1 || p.PageSize > 200 {
		p.PageSize = 20
	}
	return p
}

func (p Page) offset() int {
	return (p.Page - 1) * p.PageSize
}

// BumpVersion moves a document from version to version+1. Zero rows means
// someone else moved it first.
func BumpVersion(ctx context.Context, tx *gorm.DB, model any, id uint, version int) error {
	result := tx.WithContext(ctx).
		Model(model).
		Where("id = ? AND version = ?", id, version).
		UpdateColumn("version", gorm.Expr("version + 1"))
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrStaleVersion
	}
	return nil
}
