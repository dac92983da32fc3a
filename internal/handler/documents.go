package handler

import (
	"bizledger/internal/model"
	"bizledger/internal/service"
	"bizledger/pkg/response"

	"github.com/gin-gonic/gin"
)

// modeUpdate on a POST body turns the create into an update of body.id.
const modeUpdate = "update"

// ============================================================================
// Sales and purchases
// ============================================================================

// ListInvoices GET /api/sale-purchase?mode=sale|purchase
func (h *Handler) ListInvoices(c *gin.Context) {
	page := pageOf(c)
	items, total, err := h.svc.Invoices.List(c.Request.Context(), rcOf(c), c.Query("mode"), page)
	if err != nil {
		h.fail(c, "ListInvoices", err)
		return
	}
	response.Success(c, pageData(items, total, page))
}

// GetInvoice GET /api/sale-purchase/:id
func (h *Handler) GetInvoice(c *gin.Context) {
	id, ok := idParam(c, "id")
	if !ok {
		return
	}
	inv, err := h.svc.Invoices.Get(c.Request.Context(), rcOf(c), id)
	if err != nil {
		h.fail(c, "GetInvoice", err)
		return
	}
	response.Success(c, inv)
}

// SaveInvoice POST /api/sale-purchase
func (h *Handler) SaveInvoice(c *gin.Context) {
	var in service.InvoiceInput
	if !h.bind(c, &in) {
		return
	}
	if in.Mode == modeUpdate {
		h.updateInvoice(c, &in)
		return
	}
	inv, err := h.svc.Invoices.Create(c.Request.Context(), rcOf(c), &in)
	if err != nil {
		h.fail(c, "SaveInvoice", err)
		return
	}
	response.Created(c, "invoice created", inv)
}

// UpdateInvoice PUT /api/sale-purchase/update
func (h *Handler) UpdateInvoice(c *gin.Context) {
	var in service.InvoiceInput
	if !h.bind(c, &in) {
		return
	}
	h.updateInvoice(c, &in)
}

func (h *Handler) updateInvoice(c *gin.Context, in *service.InvoiceInput) {
	inv, err := h.svc.Invoices.Update(c.Request.Context(), rcOf(c), in)
	if err != nil {
		h.fail(c, "UpdateInvoice", err)
		return
	}
	response.SuccessMessage(c, "invoice updated", inv)
}

// DeleteInvoice DELETE /api/sale-purchase?id=&accountId=
//
// accountId is accepted for compatibility; the accounts to reverse are the
// ones recorded on the invoice.
func (h *Handler) DeleteInvoice(c *gin.Context) {
	id, ok := idParam(c, "?id")
	if !ok {
		return
	}
	if err := h.svc.Invoices.Delete(c.Request.Context(), rcOf(c), id); err != nil {
		h.fail(c, "DeleteInvoice", err)
		return
	}
	response.SuccessMessage(c, "invoice deleted", nil)
}

// ============================================================================
// Expenses
// ============================================================================

// ListExpenses GET /api/expense?category=
func (h *Handler) ListExpenses(c *gin.Context) {
	page := pageOf(c)
	items, total, err := h.svc.Expenses.List(c.Request.Context(), rcOf(c), c.Query("category"), page)
	if err != nil {
		h.fail(c, "ListExpenses", err)
		return
	}
	response.Success(c, pageData(items, total, page))
}

// GetExpense GET /api/expense/:id
func (h *Handler) GetExpense(c *gin.Context) {
	id, ok := idParam(c, "id")
	if !ok {
		return
	}
	exp, err := h.svc.Expenses.Get(c.Request.Context(), rcOf(c), id)
	if err != nil {
		h.fail(c, "GetExpense", err)
		return
	}
	response.Success(c, exp)
}

// SaveExpense POST /api/expense
func (h *Handler) SaveExpense(c *gin.Context) {
	var in service.ExpenseInput
	if !h.bind(c, &in) {
		return
	}
	if in.Mode == modeUpdate {
		h.updateExpense(c, &in)
		return
	}
	exp, err := h.svc.Expenses.Create(c.Request.Context(), rcOf(c), &in)
	if err != nil {
		h.fail(c, "SaveExpense", err)
		return
	}
	response.Created(c, "expense created", exp)
}

// UpdateExpense PUT /api/expense/update
func (h *Handler) UpdateExpense(c *gin.Context) {
	var in service.ExpenseInput
	if !h.bind(c, &in) {
		return
	}
	h.updateExpense(c, &in)
}

func (h *Handler) updateExpense(c *gin.Context, in *service.ExpenseInput) {
	exp, err := h.svc.Expenses.Update(c.Request.Context(), rcOf(c), in)
	if err != nil {
		h.fail(c, "UpdateExpense", err)
		return
	}
	response.SuccessMessage(c, "expense updated", exp)
}

// DeleteExpense DELETE /api/expense?id=
func (h *Handler) DeleteExpense(c *gin.Context) {
	id, ok := idParam(c, "?id")
	if !ok {
		return
	}
	if err := h.svc.Expenses.Delete(c.Request.Context(), rcOf(c), id); err != nil {
		h.fail(c, "DeleteExpense", err)
		return
	}
	response.SuccessMessage(c, "expense deleted", nil)
}

// ============================================================================
// Loan documents
// ============================================================================

// loanDocs serves one loan transaction type under its own prefix.
type loanDocs struct {
	h       *Handler
	txnType string
}

func (h *Handler) loanDocs(txnType string) *loanDocs {
	return &loanDocs{h: h, txnType: txnType}
}

func (l *loanDocs) List(c *gin.Context) {
	page := pageOf(c)
	items, total, err := l.h.svc.Loans.ListTransactions(c.Request.Context(), rcOf(c), l.txnType, page)
	if err != nil {
		l.h.fail(c, "ListLoanTransactions", err)
		return
	}
	response.Success(c, pageData(items, total, page))
}

func (l *loanDocs) Get(c *gin.Context) {
	id, ok := idParam(c, "id")
	if !ok {
		return
	}
	lt, err := l.h.svc.Loans.GetTransaction(c.Request.Context(), rcOf(c), l.txnType, id)
	if err != nil {
		l.h.fail(c, "GetLoanTransaction", err)
		return
	}
	response.Success(c, lt)
}

// loanTxnBody is LoanTxnInput plus the mode switch of POST.
type loanTxnBody struct {
	service.LoanTxnInput
	Mode string `json:"mode"`
}

func (l *loanDocs) Save(c *gin.Context) {
	var body loanTxnBody
	if !l.h.bind(c, &body) {
		return
	}
	if body.Mode == modeUpdate {
		l.update(c, &body.LoanTxnInput)
		return
	}
	lt, err := l.h.svc.Loans.CreateTransaction(c.Request.Context(), rcOf(c), l.txnType, &body.LoanTxnInput)
	if err != nil {
		l.h.fail(c, "CreateLoanTransaction", err)
		return
	}
	response.Created(c, "loan transaction created", lt)
}

func (l *loanDocs) Update(c *gin.Context) {
	var in service.LoanTxnInput
	if !l.h.bind(c, &in) {
		return
	}
	l.update(c, &in)
}

func (l *loanDocs) update(c *gin.Context, in *service.LoanTxnInput) {
	lt, err := l.h.svc.Loans.UpdateTransaction(c.Request.Context(), rcOf(c), l.txnType, in)
	if err != nil {
		l.h.fail(c, "UpdateLoanTransaction", err)
		return
	}
	response.SuccessMessage(c, "loan transaction updated", lt)
}

func (l *loanDocs) Delete(c *gin.Context) {
	id, ok := idParam(c, "?id")
	if !ok {
		return
	}
	if err := l.h.svc.Loans.DeleteTransaction(c.Request.Context(), rcOf(c), l.txnType, id); err != nil {
		l.h.fail(c, "DeleteLoanTransaction", err)
		return
	}
	response.SuccessMessage(c, "loan transaction deleted", nil)
}

// loanRoutes maps each URL prefix to its loan transaction type.
var loanRoutes = map[string]string{
	"/loan-payment":  model.TransactionTypeLoanPayment,
	"/loan-charge":   model.TransactionTypeLoanCharge,
	"/loan-increase": model.TransactionTypeLoanIncrease,
}
