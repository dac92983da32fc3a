package service

import (
	"context"

	"bizledger/internal/apperr"
	"bizledger/internal/model"
	"bizledger/internal/repository"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

// PartyService manages customers and suppliers. The opening balance a user
// types in is kept as an "Opening Balance" record; the party row holds the
// running balance that documents move.
type PartyService struct {
	engine  *Engine
	parties *repository.PartyRepository
	records *repository.TransactionRepository
}

func NewPartyService(engine *Engine, db *gorm.DB) *PartyService {
	return &PartyService{
		engine:  engine,
		parties: repository.NewPartyRepository(db),
		records: repository.NewTransactionRepository(db),
	}
}

// PartyInput is the body of a party write.
type PartyInput struct {
	ID             uint            `json:"id"`
	Name           string          `json:"name" validate:"required"`
	Phone          string          `json:"phone"`
	Email          string          `json:"email" validate:"omitempty,email"`
	Address        string          `json:"address"`
	OpeningBalance decimal.Decimal `json:"openingBalance"`
	BalanceType    string          `json:"balanceType" validate:"omitempty,oneof=ToReceive ToPay"`
}

func (in *PartyInput) signedOpening() decimal.Decimal {
	p := model.Party{OpeningBalance: in.OpeningBalance, BalanceType: in.BalanceType}
	return p.Signed()
}

func (s *PartyService) check(in *PartyInput) (string, error) {
	if err := validateStruct(in); err != nil {
		return "", err
	}
	if in.OpeningBalance.IsNegative() {
		return "", apperr.Validation("openingBalance must not be negative, use balanceType for the direction")
	}
	if in.BalanceType == "" {
		in.BalanceType = model.BalanceTypeToReceive
	}
	return normalizePhone(in.Phone, s.engine.region)
}

// Create stores a party. A non-zero opening balance becomes its running
// balance and an opening record.
func (s *PartyService) Create(ctx context.Context, rc RequestContext, in *PartyInput) (*model.Party, error) {
	phone, err := s.check(in)
	if err != nil {
		return nil, err
	}
	party := &model.Party{
		CompanyID:      rc.CompanyID,
		Name:           in.Name,
		Phone:          phone,
		Email:          in.Email,
		Address:        in.Address,
		OpeningBalance: in.OpeningBalance,
		BalanceType:    in.BalanceType,
	}
	err = s.engine.run(ctx, rc, func(ctx context.Context, tx *gorm.DB) error {
		if err := s.parties.Create(ctx, tx, party); err != nil {
			return err
		}
		rec, err := s.writeOpening(ctx, tx, rc, party.ID, in.signedOpening())
		if err != nil {
			return err
		}
		return s.engine.emit(ctx, tx, rc, actionCreated, model.DocumentTypeParty, party.ID, rec)
	})
	if err != nil {
		return nil, err
	}
	s.engine.log.WithFields(logrus.Fields{"partyId": party.ID, "companyId": rc.CompanyID}).Info("party created")
	return party, nil
}

// Update rewrites the details and, when the opening balance changed, moves
// the running balance by new - old and replaces the opening record.
func (s *PartyService) Update(ctx context.Context, rc RequestContext, in *PartyInput) (*model.Party, error) {
	if in.ID == 0 {
		return nil, apperr.Validation("id is required")
	}
	phone, err := s.check(in)
	if err != nil {
		return nil, err
	}

	err = s.engine.run(ctx, rc, func(ctx context.Context, tx *gorm.DB) error {
		party, err := s.parties.GetForUpdate(ctx, tx, rc.CompanyID, in.ID)
		if err != nil {
			return err
		}
		old, err := s.opening(ctx, tx, party.ID)
		if err != nil {
			return err
		}
		next := in.signedOpening()

		party.Name, party.Phone, party.Email, party.Address = in.Name, phone, in.Email, in.Address
		if err := s.parties.UpdateDetails(ctx, tx, party); err != nil {
			return err
		}

		var rec *model.Transaction
		if !next.Equal(old) {
			party.SetSigned(party.Signed().Add(next.Sub(old)))
			if err := s.parties.SaveBalance(ctx, tx, party); err != nil {
				return err
			}
			if _, err := s.records.DeleteByDocument(ctx, tx, model.DocumentTypeParty, party.ID); err != nil {
				return err
			}
			if rec, err = s.writeOpening(ctx, tx, rc, party.ID, next); err != nil {
				return err
			}
		}
		return s.engine.emit(ctx, tx, rc, actionUpdated, model.DocumentTypeParty, party.ID, rec)
	})
	if err != nil {
		return nil, err
	}
	return s.parties.Get(context.WithoutCancel(ctx), nil, rc.CompanyID, in.ID)
}

// Delete removes a party and its opening record. Parties still referenced by
// invoices are kept.
func (s *PartyService) Delete(ctx context.Context, rc RequestContext, id uint) error {
	if id == 0 {
		return apperr.Validation("id is required")
	}
	return s.engine.run(ctx, rc, func(ctx context.Context, tx *gorm.DB) error {
		party, err := s.parties.GetForUpdate(ctx, tx, rc.CompanyID, id)
		if err != nil {
			return err
		}
		n, err := s.parties.CountDocuments(ctx, tx, party.ID)
		if err != nil {
			return err
		}
		if n > 0 {
			return apperr.Invariant("party is used by %d invoices and cannot be deleted", n)
		}
		if _, err := s.records.DeleteByDocument(ctx, tx, model.DocumentTypeParty, party.ID); err != nil {
			return err
		}
		if err := s.parties.Delete(ctx, tx, rc.CompanyID, party.ID); err != nil {
			return err
		}
		return s.engine.emit(ctx, tx, rc, actionDeleted, model.DocumentTypeParty, party.ID, nil)
	})
}

// Get returns one party of the company.
func (s *PartyService) Get(ctx context.Context, rc RequestContext, id uint) (*model.Party, error) {
	if err := rc.check(); err != nil {
		return nil, err
	}
	return s.parties.Get(ctx, nil, rc.CompanyID, id)
}

func (s *PartyService) List(ctx context.Context, rc RequestContext, page repository.Page) ([]*model.Party, int64, error) {
	if err := rc.check(); err != nil {
		return nil, 0, err
	}
	return s.parties.List(ctx, rc.CompanyID, page)
}

// opening returns the signed opening balance recorded for a party.
func (s *PartyService) opening(ctx context.Context, tx *gorm.DB, partyID uint) (decimal.Decimal, error) {
	recs, err := s.records.ListByDocument(ctx, tx, model.DocumentTypeParty, partyID)
	if err != nil {
		return decimal.Zero, err
	}
	sum := decimal.Zero
	for _, r := range recs {
		sum = sum.Add(r.Amount)
	}
	return sum, nil
}

// writeOpening stores the opening record. It moves no ledger account, so
// both account ids stay empty. A zero opening writes nothing.
func (s *PartyService) writeOpening(ctx context.Context, tx *gorm.DB, rc RequestContext, partyID uint, amount decimal.Decimal) (*model.Transaction, error) {
	if amount.IsZero() {
		return nil, nil
	}
	id := partyID
	rec := &model.Transaction{
		Type:         model.TransactionTypeOpeningBalance,
		Amount:       amount,
		TotalAmount:  amount.Abs(),
		DocumentType: model.DocumentTypeParty,
		DocumentID:   partyID,
	}
	if err := s.engine.record(ctx, tx, rc, rec, Posting{PartyID: &id}); err != nil {
		return nil, err
	}
	return rec, nil
}
