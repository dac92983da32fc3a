package handler

import (
	"bytes"
	"fmt"
	"net/http"
	"time"

	"bizledger/internal/repository"
	"bizledger/internal/service"
	"bizledger/pkg/response"

	"github.com/gin-gonic/gin"
)

// ============================================================================
// Loan accounts
// ============================================================================

// ListLoanAccounts GET /api/loan-accounts
func (h *Handler) ListLoanAccounts(c *gin.Context) {
	accounts, err := h.svc.Loans.ListAccounts(c.Request.Context(), rcOf(c))
	if err != nil {
		h.fail(c, "ListLoanAccounts", err)
		return
	}
	response.Success(c, accounts)
}

// GetLoanAccount GET /api/loan-accounts/:id, with its transactions
func (h *Handler) GetLoanAccount(c *gin.Context) {
	id, ok := idParam(c, "id")
	if !ok {
		return
	}
	acc, err := h.svc.Loans.GetAccount(c.Request.Context(), rcOf(c), id)
	if err != nil {
		h.fail(c, "GetLoanAccount", err)
		return
	}
	response.Success(c, acc)
}

// CreateLoanAccount POST /api/loan-accounts
func (h *Handler) CreateLoanAccount(c *gin.Context) {
	var in service.LoanAccountInput
	if !h.bind(c, &in) {
		return
	}
	acc, err := h.svc.Loans.CreateAccount(c.Request.Context(), rcOf(c), &in)
	if err != nil {
		h.fail(c, "CreateLoanAccount", err)
		return
	}
	response.Created(c, "loan account created", acc)
}

// DeleteLoanAccount DELETE /api/loan-accounts?id=
func (h *Handler) DeleteLoanAccount(c *gin.Context) {
	id, ok := idParam(c, "?id")
	if !ok {
		return
	}
	if err := h.svc.Loans.DeleteAccount(c.Request.Context(), rcOf(c), id); err != nil {
		h.fail(c, "DeleteLoanAccount", err)
		return
	}
	response.SuccessMessage(c, "loan account deleted", nil)
}

// ============================================================================
// Parties
// ============================================================================

func (h *Handler) ListParties(c *gin.Context) {
	page := pageOf(c)
	items, total, err := h.svc.Parties.List(c.Request.Context(), rcOf(c), page)
	if err != nil {
		h.fail(c, "ListParties", err)
		return
	}
	response.Success(c, pageData(items, total, page))
}

func (h *Handler) GetParty(c *gin.Context) {
	id, ok := idParam(c, "id")
	if !ok {
		return
	}
	p, err := h.svc.Parties.Get(c.Request.Context(), rcOf(c), id)
	if err != nil {
		h.fail(c, "GetParty", err)
		return
	}
	response.Success(c, p)
}

type partyBody struct {
	service.PartyInput
	Mode string `json:"mode"`
}

func (h *Handler) SaveParty(c *gin.Context) {
	var body partyBody
	if !h.bind(c, &body) {
		return
	}
	if body.Mode == modeUpdate {
		h.updateParty(c, &body.PartyInput)
		return
	}
	p, err := h.svc.Parties.Create(c.Request.Context(), rcOf(c), &body.PartyInput)
	if err != nil {
		h.fail(c, "SaveParty", err)
		return
	}
	response.Created(c, "party created", p)
}

func (h *Handler) UpdateParty(c *gin.Context) {
	var in service.PartyInput
	if !h.bind(c, &in) {
		return
	}
	h.updateParty(c, &in)
}

func (h *Handler) updateParty(c *gin.Context, in *service.PartyInput) {
	p, err := h.svc.Parties.Update(c.Request.Context(), rcOf(c), in)
	if err != nil {
		h.fail(c, "UpdateParty", err)
		return
	}
	response.SuccessMessage(c, "party updated", p)
}

func (h *Handler) DeleteParty(c *gin.Context) {
	id, ok := idParam(c, "?id")
	if !ok {
		return
	}
	if err := h.svc.Parties.Delete(c.Request.Context(), rcOf(c), id); err != nil {
		h.fail(c, "DeleteParty", err)
		return
	}
	response.SuccessMessage(c, "party deleted", nil)
}

// ============================================================================
// Cash and bank
// ============================================================================

// CashBankSummary GET /api/cash-bank
func (h *Handler) CashBankSummary(c *gin.Context) {
	sum, err := h.svc.Accounts.Summary(c.Request.Context(), rcOf(c))
	if err != nil {
		h.fail(c, "CashBankSummary", err)
		return
	}
	response.Success(c, sum)
}

// GetBankAccount GET /api/cash-bank/:id
func (h *Handler) GetBankAccount(c *gin.Context) {
	id, ok := idParam(c, "id")
	if !ok {
		return
	}
	bank, err := h.svc.Accounts.Bank(c.Request.Context(), rcOf(c), id)
	if err != nil {
		h.fail(c, "GetBankAccount", err)
		return
	}
	response.Success(c, bank)
}

// CreateBankAccount POST /api/cash-bank
func (h *Handler) CreateBankAccount(c *gin.Context) {
	var in service.BankAccountInput
	if !h.bind(c, &in) {
		return
	}
	bank, err := h.svc.Accounts.CreateBank(c.Request.Context(), rcOf(c), &in)
	if err != nil {
		h.fail(c, "CreateBankAccount", err)
		return
	}
	response.Created(c, "account created", bank)
}

// ============================================================================
// Items and transaction records
// ============================================================================

func (h *Handler) ListItems(c *gin.Context) {
	page := pageOf(c)
	items, total, err := h.svc.Items.List(c.Request.Context(), rcOf(c), page)
	if err != nil {
		h.fail(c, "ListItems", err)
		return
	}
	response.Success(c, pageData(items, total, page))
}

func (h *Handler) GetItem(c *gin.Context) {
	id, ok := idParam(c, "id")
	if !ok {
		return
	}
	item, err := h.svc.Items.Get(c.Request.Context(), rcOf(c), id)
	if err != nil {
		h.fail(c, "GetItem", err)
		return
	}
	response.Success(c, item)
}

// recordFilter reads ?type=&from=&to=. to is inclusive of its whole day when
// given as a date.
func recordFilter(c *gin.Context) (repository.Filter, bool) {
	f := repository.Filter{Type: c.Query("type")}
	if raw := c.Query("from"); raw != "" {
		t, err := parseDate(raw)
		if err != nil {
			response.ParamError(c, "from must be a date (2006-01-02) or RFC 3339 time")
			return f, false
		}
		f.From = t
	}
	if raw := c.Query("to"); raw != "" {
		t, err := parseDate(raw)
		if err != nil {
			response.ParamError(c, "to must be a date (2006-01-02) or RFC 3339 time")
			return f, false
		}
		if len(raw) == len("2006-01-02") {
			t = t.AddDate(0, 0, 1)
		}
		f.To = t
	}
	return f, true
}

// ListTransactions GET /api/transactions
func (h *Handler) ListTransactions(c *gin.Context) {
	f, ok := recordFilter(c)
	if !ok {
		return
	}
	page := pageOf(c)
	items, total, err := h.svc.Transactions.List(c.Request.Context(), rcOf(c), f, page)
	if err != nil {
		h.fail(c, "ListTransactions", err)
		return
	}
	response.Success(c, pageData(items, total, page))
}

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

// ExportTransactions GET /api/transactions/export, an xlsx download
func (h *Handler) ExportTransactions(c *gin.Context) {
	f, ok := recordFilter(c)
	if !ok {
		return
	}
	var buf bytes.Buffer
	if err := h.svc.Transactions.Export(c.Request.Context(), rcOf(c), f, &buf); err != nil {
		h.fail(c, "ExportTransactions", err)
		return
	}
	filename := fmt.Sprintf("transactions-%s.xlsx", time.Now().Format("20060102-150405"))
	c.Header("Content-Disposition", fmt.Sprintf(`attachment; filename="%s"`, filename))
	c.Data(http.StatusOK, xlsxContentType, buf.Bytes())
}
