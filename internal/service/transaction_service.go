package service

import (
	"context"
	"fmt"
	"io"

	"bizledger/internal/model"
	"bizledger/internal/repository"

	"github.com/xuri/excelize/v2"
	"gorm.io/gorm"
)

type TransactionService struct {
	records *repository.TransactionRepository
}

func NewTransactionService(db *gorm.DB) *TransactionService {
	return &TransactionService{records: repository.NewTransactionRepository(db)}
}

func (s *TransactionService) List(ctx context.Context, rc RequestContext, f repository.Filter, page repository.Page) ([]*model.Transaction, int64, error) {
	if err := rc.check(); err != nil {
		return nil, 0, err
	}
	return s.records.List(ctx, rc.CompanyID, f, page)
}

const exportSheet = "Transactions"

var exportHeadings = []string{
	"Transaction No", "Date", "Type", "Payment Type", "Amount", "Total Amount", "Balance Due", "Document", "Document ID",
}

// Export writes the matching records as an xlsx workbook to w.
func (s *TransactionService) Export(ctx context.Context, rc RequestContext, f repository.Filter, w io.Writer) error {
	if err := rc.check(); err != nil {
		return err
	}
	records, err := s.records.ListAll(ctx, rc.CompanyID, f)
	if err != nil {
		return err
	}

	book := excelize.NewFile()
	defer book.Close()

	if err := book.SetSheetName("Sheet1", exportSheet); err != nil {
		return err
	}
	for i, h := range exportHeadings {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		if err := book.SetCellValue(exportSheet, cell, h); err != nil {
			return err
		}
	}

	for i, r := range records {
		row := []interface{}{
			r.TransactionNo,
			r.CreatedAt.Format("2006-01-02 15:04:05"),
			r.Type,
			r.PaymentType,
			r.Amount.InexactFloat64(),
			r.TotalAmount.InexactFloat64(),
			r.BalanceDue.InexactFloat64(),
			r.DocumentType,
			r.DocumentID,
		}
		cell, _ := excelize.CoordinatesToCellName(1, i+2)
		if err := book.SetSheetRow(exportSheet, cell, &row); err != nil {
			return fmt.Errorf("write row %d: %w", i+2, err)
		}
	}

	_, err = book.WriteTo(w)
	return err
}
