package handler

import (
	"bizledger/internal/auth"
	"bizledger/internal/config"
	"bizledger/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

// SetupRouter wires middleware and every API route.
func SetupRouter(svc *service.Services, cfg *config.Config, log *logrus.Logger) *gin.Engine {
	if cfg.Server.Mode != "" {
		gin.SetMode(cfg.Server.Mode)
	}

	r := gin.New()
	r.Use(RequestIDMiddleware())
	r.Use(RecoveryMiddleware(log))
	r.Use(LoggerMiddleware(log))
	r.Use(CORSMiddleware())

	h := NewHandler(svc, log)
	r.GET("/health", h.Health)

	api := r.Group("/api")
	api.Use(SessionMiddleware(cfg.Auth.JWTSecret, cfg.Auth.TokenCookie))
	api.Use(AuthorizeMiddleware(auth.NewGate(auth.DefaultRules()), log))
	{
		invoices := api.Group("/sale-purchase")
		{
			invoices.GET("", h.ListInvoices)
			invoices.GET("/:id", h.GetInvoice)
			invoices.POST("", h.SaveInvoice)
			invoices.PUT("/update", h.UpdateInvoice)
			invoices.DELETE("", h.DeleteInvoice)
		}

		expenses := api.Group("/expense")
		{
			expenses.GET("", h.ListExpenses)
			expenses.GET("/:id", h.GetExpense)
			expenses.POST("", h.SaveExpense)
			expenses.PUT("/update", h.UpdateExpense)
			expenses.DELETE("", h.DeleteExpense)
		}

		loanAccounts := api.Group("/loan-accounts")
		{
			loanAccounts.GET("", h.ListLoanAccounts)
			loanAccounts.GET("/:id", h.GetLoanAccount)
			loanAccounts.POST("", h.CreateLoanAccount)
			loanAccounts.DELETE("", h.DeleteLoanAccount)
		}

		for prefix, txnType := range loanRoutes {
			docs := h.loanDocs(txnType)
			g := api.Group(prefix)
			g.GET("", docs.List)
			g.GET("/:id", docs.Get)
			g.POST("", docs.Save)
			g.PUT("/update", docs.Update)
			g.DELETE("", docs.Delete)
		}

		parties := api.Group("/party")
		{
			parties.GET("", h.ListParties)
			parties.GET("/:id", h.GetParty)
			parties.POST("", h.SaveParty)
			parties.PUT("/update", h.UpdateParty)
			parties.DELETE("", h.DeleteParty)
		}

		cashBank := api.Group("/cash-bank")
		{
			cashBank.GET("", h.CashBankSummary)
			cashBank.GET("/:id", h.GetBankAccount)
			cashBank.POST("", h.CreateBankAccount)
		}

		items := api.Group("/items")
		{
			items.GET("", h.ListItems)
			items.GET("/:id", h.GetItem)
		}

		records := api.Group("/transactions")
		{
			records.GET("", h.ListTransactions)
			records.GET("/export", h.ExportTransactions)
		}
	}

	return r
}
