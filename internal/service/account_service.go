package service

import (
	"context"

	"bizledger/internal/apperr"
	"bizledger/internal/infrastructure/logging"
	"bizledger/internal/model"
	"bizledger/internal/repository"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// AccountService creates cash/bank accounts and reads balances.
type AccountService struct {
	engine *Engine
	ledger *repository.LedgerRepository
}

func NewAccountService(engine *Engine, db *gorm.DB) *AccountService {
	return &AccountService{
		engine: engine,
		ledger: repository.NewLedgerRepository(db),
	}
}

type BankAccountInput struct {
	AccountDisplayName string          `json:"accountdisplayname" validate:"required"`
	BankName           string          `json:"bankName"`
	AccountNumber      string          `json:"accountNumber"`
	OpeningBalance     decimal.Decimal `json:"openingbalance"`
}

// CreateBank is the only place a balance is written absolutely.
func (s *AccountService) CreateBank(ctx context.Context, rc RequestContext, in *BankAccountInput) (*model.CashAndBank, error) {
	if err := validateStruct(in); err != nil {
		return nil, err
	}
	bank := &model.CashAndBank{
		CompanyID:          rc.CompanyID,
		AccountDisplayName: in.AccountDisplayName,
		BankName:           in.BankName,
		AccountNumber:      in.AccountNumber,
		OpeningBalance:     in.OpeningBalance,
	}
	err := s.engine.run(ctx, rc, func(ctx context.Context, tx *gorm.DB) error {
		return s.ledger.CreateBank(ctx, tx, bank)
	})
	if err != nil {
		return nil, err
	}
	return bank, nil
}

// CashBalance is one user's cash in hand.
type CashBalance struct {
	ID         uint            `json:"id"`
	UserID     uint            `json:"userId"`
	CashInHand decimal.Decimal `json:"cashInHand"`
}

// companyBalances is what gets cached per company.
type companyBalances struct {
	Cash  []CashBalance        `json:"cash"`
	Banks []*model.CashAndBank `json:"banks"`
}

// Summary is the balance view of the acting user.
type Summary struct {
	CashInHand       decimal.Decimal      `json:"cashInHand"`
	CashAdjustmentID *uint                `json:"cashAdjustmentId"`
	Banks            []*model.CashAndBank `json:"banks"`
	BankTotal        decimal.Decimal      `json:"bankTotal"`
	Total            decimal.Decimal      `json:"total"`
}

// Summary returns the user's cash in hand and the company's accounts. The
// company view is cached until the next committed mutation.
func (s *AccountService) Summary(ctx context.Context, rc RequestContext) (*Summary, error) {
	if err := rc.check(); err != nil {
		return nil, err
	}
	bal, err := s.balances(ctx, rc.CompanyID)
	if err != nil {
		return nil, err
	}

	out := &Summary{CashInHand: decimal.Zero, Banks: bal.Banks, BankTotal: decimal.Zero}
	for _, c := range bal.Cash {
		if c.UserID == rc.UserID {
			id := c.ID
			out.CashInHand = c.CashInHand
			out.CashAdjustmentID = &id
		}
	}
	for _, b := range bal.Banks {
		out.BankTotal = out.BankTotal.Add(b.OpeningBalance)
	}
	out.Total = out.CashInHand.Add(out.BankTotal)
	return out, nil
}

func (s *AccountService) balances(ctx context.Context, companyID uint) (*companyBalances, error) {
	key := summaryKey(companyID)
	var cached companyBalances
	if s.engine.cache != nil {
		hit, err := s.engine.cache.Get(ctx, key, &cached)
		if err != nil {
			logging.LogError(s.engine.log, "service", "Summary", "read balance cache", key, err)
		}
		if hit {
			return &cached, nil
		}
	}

	cash, err := s.ledger.ListCash(ctx, companyID)
	if err != nil {
		return nil, apperr.FromDB(err)
	}
	banks, err := s.ledger.ListBanks(ctx, companyID)
	if err != nil {
		return nil, apperr.FromDB(err)
	}

	bal := &companyBalances{Banks: banks}
	for _, c := range cash {
		bal.Cash = append(bal.Cash, CashBalance{ID: c.ID, UserID: c.UserID, CashInHand: c.CashInHand})
	}

	if s.engine.cache != nil {
		if err := s.engine.cache.Set(ctx, key, bal, s.engine.cacheTTL); err != nil {
			logging.LogError(s.engine.log, "service", "Summary", "write balance cache", key, err)
		}
	}
	return bal, nil
}

// Bank returns one account of the company.
func (s *AccountService) Bank(ctx context.Context, rc RequestContext, id uint) (*model.CashAndBank, error) {
	if err := rc.check(); err != nil {
		return nil, err
	}
	return s.ledger.GetBank(ctx, nil, rc.CompanyID, id)
}
