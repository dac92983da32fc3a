package service

import (
	"context"

	"bizledger/internal/model"
	"bizledger/internal/repository"

	"gorm.io/gorm"
)

// family plugs one document type into the reverse-then-reapply protocol.
// D is a pointer to the stored document.
type family[D any] struct {
	engine  *Engine
	docType string
	table   any

	load    func(ctx context.Context, tx *gorm.DB, rc RequestContext, id uint) (D, error)
	meta    func(doc D) (id uint, version int)
	posting func(doc D) Posting
	record  func(doc D) *model.Transaction
	insert  func(ctx context.Context, tx *gorm.DB, doc D) error
	replace func(ctx context.Context, tx *gorm.DB, doc D) error
	remove  func(ctx context.Context, tx *gorm.DB, doc D) error
}

// builder resolves the new state of a document against the ledger account
// it will post to. prev is the stored document on update and the zero D on
// create. It may create parties and items inside tx.
type builder[D any] func(ctx context.Context, tx *gorm.DB, acct AccountRef, prev D) (D, error)

// reapply posts doc, writes its fresh record and the outbox event.
func (f *family[D]) reapply(ctx context.Context, tx *gorm.DB, rc RequestContext, action string, doc D) error {
	p := f.posting(doc)
	if err := f.engine.apply(ctx, tx, rc, p); err != nil {
		return err
	}
	id, _ := f.meta(doc)
	rec := f.record(doc)
	rec.DocumentType = f.docType
	rec.DocumentID = id
	if err := f.engine.record(ctx, tx, rc, rec, p); err != nil {
		return err
	}
	return f.engine.emit(ctx, tx, rc, action, f.docType, id, rec)
}

// create resolves and applies a new document from a zero baseline. The
// committed document is reloaded even if the caller has gone away.
func (f *family[D]) create(ctx context.Context, rc RequestContext, target PaymentTarget, build builder[D]) (D, error) {
	var out D
	err := f.engine.run(ctx, rc, func(ctx context.Context, tx *gorm.DB) error {
		acct, err := f.engine.resolve(ctx, tx, rc, target)
		if err != nil {
			return err
		}
		var zero D
		doc, err := build(ctx, tx, acct, zero)
		if err != nil {
			return err
		}
		if err := f.insert(ctx, tx, doc); err != nil {
			return err
		}
		if err := f.reapply(ctx, tx, rc, actionCreated, doc); err != nil {
			return err
		}
		out = doc
		return nil
	})
	if err != nil {
		var zero D
		return zero, err
	}
	id, _ := f.meta(out)
	return f.load(context.WithoutCancel(ctx), nil, rc, id)
}

// update reverses every recorded effect of the stored document and applies
// the new state. version, when non-zero, must match the stored version.
func (f *family[D]) update(ctx context.Context, rc RequestContext, id uint, version int, target PaymentTarget, build builder[D]) (D, error) {
	err := f.engine.run(ctx, rc, func(ctx context.Context, tx *gorm.DB) error {
		prev, err := f.load(ctx, tx, rc, id)
		if err != nil {
			return err
		}
		_, stored := f.meta(prev)
		if version != 0 && version != stored {
			return repository.ErrStaleVersion
		}
		if err := repository.BumpVersion(ctx, tx, f.table, id, stored); err != nil {
			return err
		}
		if err := f.engine.reverse(ctx, tx, rc, f.docType, id, f.posting(prev)); err != nil {
			return err
		}

		acct, err := f.engine.resolve(ctx, tx, rc, target)
		if err != nil {
			return err
		}
		doc, err := build(ctx, tx, acct, prev)
		if err != nil {
			return err
		}
		if err := f.replace(ctx, tx, doc); err != nil {
			return err
		}
		return f.reapply(ctx, tx, rc, actionUpdated, doc)
	})
	if err != nil {
		var zero D
		return zero, err
	}
	return f.load(context.WithoutCancel(ctx), nil, rc, id)
}

// delete reverses every recorded effect and removes the document. A second
// delete finds nothing and fails with not found.
func (f *family[D]) delete(ctx context.Context, rc RequestContext, id uint) error {
	return f.engine.run(ctx, rc, func(ctx context.Context, tx *gorm.DB) error {
		prev, err := f.load(ctx, tx, rc, id)
		if err != nil {
			return err
		}
		_, stored := f.meta(prev)
		if err := repository.BumpVersion(ctx, tx, f.table, id, stored); err != nil {
			return err
		}
		if err := f.engine.reverse(ctx, tx, rc, f.docType, id, f.posting(prev)); err != nil {
			return err
		}
		if err := f.remove(ctx, tx, prev); err != nil {
			return err
		}
		return f.engine.emit(ctx, tx, rc, actionDeleted, f.docType, id, nil)
	})
}
