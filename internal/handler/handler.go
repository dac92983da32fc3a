package handler

import (
	"strconv"
	"time"

	"bizledger/internal/apperr"
	"bizledger/internal/infrastructure/logging"
	"bizledger/internal/repository"
	"bizledger/internal/service"
	"bizledger/pkg/response"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

var errForbidden = apperr.Forbidden("permission denied")

// Handler holds every service the HTTP API calls.
type Handler struct {
	svc *service.Services
	log *logrus.Logger
}

func NewHandler(svc *service.Services, log *logrus.Logger) *Handler {
	return &Handler{svc: svc, log: log}
}

// fail replies with the status err maps to. Errors without a known kind are
// logged with their detail and reported generically.
func (h *Handler) fail(c *gin.Context, funcName string, err error) {
	if apperr.KindOf(err) == apperr.KindUnknown {
		logging.LogError(h.log, "handler", funcName, c.Request.Method+" "+c.Request.URL.Path, c.GetString(keyRequestID), err)
	}
	response.Fail(c, err)
}

func (h *Handler) bind(c *gin.Context, dest any) bool {
	if err := c.ShouldBindJSON(dest); err != nil {
		response.ParamError(c, "invalid request body: "+err.Error())
		return false
	}
	return true
}

func rcOf(c *gin.Context) service.RequestContext {
	rc, _ := requestContextOf(c)
	return rc
}

// idParam reads a positive id from the path parameter or, when name is
// prefixed with "?", from the query string.
func idParam(c *gin.Context, name string) (uint, bool) {
	var raw string
	if name[0] == '?' {
		raw = c.Query(name[1:])
		name = name[1:]
	} else {
		raw = c.Param(name)
	}
	id, err := strconv.ParseUint(raw, 10, 64)
	if err != nil || id == 0 {
		response.ParamError(c, name+" must be a positive integer")
		return 0, false
	}
	return uint(id), true
}

func pageOf(c *gin.Context) repository.Page {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	size, _ := strconv.Atoi(c.DefaultQuery("pageSize", "20"))
	return repository.Page{Page: page, PageSize: size}.Normalize()
}

func pageData(items any, total int64, p repository.Page) response.PageData {
	return response.PageData{Items: items, Total: total, Page: p.Page, PageSize: p.PageSize}
}

// parseDate accepts 2006-01-02 or RFC 3339.
func parseDate(raw string) (time.Time, error) {
	if t, err := time.Parse("2006-01-02", raw); err == nil {
		return t, nil
	}
	return time.Parse(time.RFC3339, raw)
}

// ============================================================================
// Health
// ============================================================================

func (h *Handler) Health(c *gin.Context) {
	response.Success(c, gin.H{"status": "ok"})
}
