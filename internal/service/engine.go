package service

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"bizledger/internal/apperr"
	"bizledger/internal/config"
	"bizledger/internal/infrastructure/database"
	"bizledger/internal/infrastructure/logging"
	"bizledger/internal/model"
	"bizledger/internal/repository"
	"bizledger/pkg/idgen"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

// Cache is the read-through cache of balance summaries. A nil Cache
// disables caching.
type Cache interface {
	Get(ctx context.Context, key string, dest any) (bool, error)
	Set(ctx context.Context, key string, value any, ttl time.Duration) error
	Delete(ctx context.Context, keys ...string) error
}

// Engine holds the ledger primitives and the transaction boundary shared by
// every document type.
type Engine struct {
	runner   *database.TxRunner
	ledger   *repository.LedgerRepository
	items    *repository.ItemRepository
	parties  *repository.PartyRepository
	loans    *repository.LoanRepository
	records  *repository.TransactionRepository
	outbox   *repository.OutboxRepository
	cache    Cache
	cacheTTL time.Duration
	topic    string
	region   string
	log      *logrus.Logger
}

func NewEngine(db *gorm.DB, cache Cache, cfg *config.Config, log *logrus.Logger) *Engine {
	if log == nil {
		log = logging.New("error")
	}
	return &Engine{
		runner:   database.NewTxRunner(db, &cfg.Tx),
		ledger:   repository.NewLedgerRepository(db),
		items:    repository.NewItemRepository(db),
		parties:  repository.NewPartyRepository(db),
		loans:    repository.NewLoanRepository(db),
		records:  repository.NewTransactionRepository(db),
		outbox:   repository.NewOutboxRepository(db),
		cache:    cache,
		cacheTTL: cfg.Redis.CacheTTL,
		topic:    cfg.Kafka.Topic.LedgerEvents,
		region:   cfg.Business.PhoneRegion,
		log:      log,
	}
}

// ============================================================================
// Transaction boundary
// ============================================================================

// run executes fn in one database transaction and drops the company's
// cached balances once it commits.
func (e *Engine) run(ctx context.Context, rc RequestContext, fn func(ctx context.Context, tx *gorm.DB) error) error {
	if err := rc.check(); err != nil {
		return err
	}
	if err := e.runner.Run(ctx, fn); err != nil {
		return err
	}
	e.invalidate(ctx, rc.CompanyID)
	return nil
}

func summaryKey(companyID uint) string {
	return fmt.Sprintf("ledger:summary:%d", companyID)
}

func (e *Engine) invalidate(ctx context.Context, companyID uint) {
	if e.cache == nil {
		return
	}
	if err := e.cache.Delete(context.WithoutCancel(ctx), summaryKey(companyID)); err != nil {
		logging.LogError(e.log, "service", "invalidate", "drop balance summary", companyID, err)
	}
}

// ============================================================================
// Ledger primitives
// ============================================================================

// resolve turns a payment target into a ledger account. Cash is the acting
// user's row, created at zero on first use; a bank account must exist in the
// company.
func (e *Engine) resolve(ctx context.Context, tx *gorm.DB, rc RequestContext, target PaymentTarget) (AccountRef, error) {
	switch {
	case target.IsCash():
		cash, err := e.ledger.GetOrCreateCash(ctx, tx, rc.UserID, rc.CompanyID)
		if err != nil {
			return AccountRef{}, err
		}
		return AccountRef{CashAdjustmentID: &cash.ID, Label: model.PaymentTypeCash}, nil
	case target.IsBank():
		bank, err := e.ledger.GetBank(ctx, tx, rc.CompanyID, target.BankID)
		if err != nil {
			return AccountRef{}, err
		}
		return AccountRef{CashAndBankID: &bank.ID, Label: bank.AccountDisplayName}, nil
	default:
		return AccountRef{}, apperr.Validation("paymentType is required")
	}
}

// apply moves every ledger named by p by its delta. The loan guard goes
// first so an invariant failure is reported before anything else is touched.
func (e *Engine) apply(ctx context.Context, tx *gorm.DB, rc RequestContext, p Posting) error {
	if p.LoanAccountID != nil {
		if err := e.loans.MoveBalance(ctx, tx, rc.CompanyID, *p.LoanAccountID, p.Loan); err != nil {
			return err
		}
	}

	if !p.Cash.IsZero() {
		switch {
		case p.Account.CashAdjustmentID != nil:
			if err := e.ledger.IncrementCash(ctx, tx, *p.Account.CashAdjustmentID, p.Cash); err != nil {
				return err
			}
		case p.Account.CashAndBankID != nil:
			if err := e.ledger.IncrementBank(ctx, tx, *p.Account.CashAndBankID, p.Cash); err != nil {
				return err
			}
		default:
			return apperr.New(apperr.KindUnknown, "posting has a cash effect but no ledger account")
		}
	}

	for _, m := range p.Stock {
		if m.Seeded {
			continue
		}
		if err := e.items.IncrementStock(ctx, tx, rc.CompanyID, m.ItemID, m.Delta); err != nil {
			return err
		}
	}

	if p.PartyID != nil && !p.Party.IsZero() {
		if err := e.moveParty(ctx, tx, rc, *p.PartyID, p.Party); err != nil {
			return err
		}
	}
	return nil
}

func (e *Engine) moveParty(ctx context.Context, tx *gorm.DB, rc RequestContext, partyID uint, delta decimal.Decimal) error {
	party, err := e.parties.GetForUpdate(ctx, tx, rc.CompanyID, partyID)
	if err != nil {
		return err
	}
	party.SetSigned(party.Signed().Add(delta))
	return e.parties.SaveBalance(ctx, tx, party)
}

// reverse undoes exactly what p recorded, deletes the document's records and
// unlinks the items that pointed at them.
func (e *Engine) reverse(ctx context.Context, tx *gorm.DB, rc RequestContext, docType string, docID uint, p Posting) error {
	if err := e.apply(ctx, tx, rc, p.inverse()); err != nil {
		return err
	}
	ids, err := e.records.DeleteByDocument(ctx, tx, docType, docID)
	if err != nil {
		return err
	}
	return e.items.DetachTransactions(ctx, tx, ids)
}

// record writes the audit row of p and links the moved items to it.
func (e *Engine) record(ctx context.Context, tx *gorm.DB, rc RequestContext, rec *model.Transaction, p Posting) error {
	rec.TransactionNo = idgen.TransactionNo()
	rec.CompanyID = rc.CompanyID
	rec.UserID = rc.UserID
	rec.CashAdjustmentID = p.Account.CashAdjustmentID
	rec.CashAndBankID = p.Account.CashAndBankID
	if rec.PaymentType == "" {
		rec.PaymentType = p.Account.Label
	}
	rec.PartyID = p.PartyID
	rec.LoanAccountID = p.LoanAccountID

	if err := e.records.Create(ctx, tx, rec); err != nil {
		return err
	}
	return e.items.LinkTransaction(ctx, tx, p.itemIDs(), rec.ID)
}

// ============================================================================
// Events
// ============================================================================

// LedgerEvent is the outbox payload published after a mutation commits.
type LedgerEvent struct {
	Event         string          `json:"event"`
	DocumentType  string          `json:"documentType"`
	DocumentID    uint            `json:"documentId"`
	CompanyID     uint            `json:"companyId"`
	UserID        uint            `json:"userId"`
	Type          string          `json:"type,omitempty"`
	TransactionNo string          `json:"transactionNo,omitempty"`
	Amount        decimal.Decimal `json:"amount"`
	At            time.Time       `json:"at"`
}

const (
	actionCreated = "created"
	actionUpdated = "updated"
	actionDeleted = "deleted"
)

func (e *Engine) emit(ctx context.Context, tx *gorm.DB, rc RequestContext, action, docType string, docID uint, rec *model.Transaction) error {
	ev := LedgerEvent{
		Event:        docType + "." + action,
		DocumentType: docType,
		DocumentID:   docID,
		CompanyID:    rc.CompanyID,
		UserID:       rc.UserID,
		At:           time.Now().UTC(),
	}
	if rec != nil {
		ev.Type = rec.Type
		ev.TransactionNo = rec.TransactionNo
		ev.Amount = rec.Amount
	}

	payload, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("encode ledger event: %w", err)
	}
	return e.outbox.Create(ctx, tx, &model.OutboxMessage{
		MessageKey: fmt.Sprintf("%s:%d", docType, docID),
		Topic:      e.topic,
		EventType:  ev.Event,
		CompanyID:  rc.CompanyID,
		Payload:    string(payload),
		Status:     model.OutboxStatusPending,
	})
}
