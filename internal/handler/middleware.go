package handler

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"bizledger/internal/auth"
	"bizledger/internal/infrastructure/logging"
	"bizledger/internal/service"
	"bizledger/pkg/response"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

const (
	headerRequestID = "X-Request-ID"
	headerCompanyID = "X-Company-ID"
	cookieCompanyID = "companyId"

	keyRequestID      = "requestId"
	keyRequestContext = "requestContext"
)

// RequestIDMiddleware reuses the caller's X-Request-ID or generates one.
func RequestIDMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := strings.TrimSpace(c.GetHeader(headerRequestID))
		if id == "" {
			id = uuid.NewString()
		}
		c.Set(keyRequestID, id)
		c.Header(headerRequestID, id)
		c.Next()
	}
}

// LoggerMiddleware writes one access log line per request.
func LoggerMiddleware(log *logrus.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		path := c.Request.URL.Path
		query := c.Request.URL.RawQuery

		c.Next()

		if query != "" {
			path = path + "?" + query
		}
		fields := logrus.Fields{
			"status":    c.Writer.Status(),
			"latency":   time.Since(start).String(),
			"clientIp":  c.ClientIP(),
			"method":    c.Request.Method,
			"path":      path,
			"requestId": c.GetString(keyRequestID),
		}
		if rc, ok := requestContextOf(c); ok {
			fields["companyId"] = rc.CompanyID
			fields["userId"] = rc.UserID
		}
		log.WithFields(fields).Info("http request")
	}
}

// RecoveryMiddleware turns a panic into a 500 reply.
func RecoveryMiddleware(log *logrus.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		defer func() {
			if rec := recover(); rec != nil {
				log.WithFields(logrus.Fields{
					"requestId": c.GetString(keyRequestID),
					"path":      c.Request.URL.Path,
					"panic":     rec,
				}).Error("panic recovered")
				response.Abort(c, http.StatusInternalServerError, "internal server error")
			}
		}()
		c.Next()
	}
}

// CORSMiddleware allows any origin with credentials, so the session and
// company cookies travel with browser requests.
func CORSMiddleware() gin.HandlerFunc {
	cfg := cors.DefaultConfig()
	cfg.AllowOriginFunc = func(string) bool { return true }
	cfg.AddAllowMethods(http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodOptions)
	cfg.AddAllowHeaders("token", "Origin", "Content-Type", "Authorization", headerCompanyID, headerRequestID)
	cfg.AddExposeHeaders("Content-Length", "Content-Disposition", headerRequestID)
	cfg.AllowCredentials = true
	return cors.New(cfg)
}

// SessionMiddleware builds the RequestContext. The user and role come from
// the session token (Authorization: Bearer, or the token cookie); the
// company comes from the companyId cookie or the X-Company-ID header.
func SessionMiddleware(secret, tokenCookie string) gin.HandlerFunc {
	return func(c *gin.Context) {
		tok := bearerToken(c.GetHeader("Authorization"))
		if tok == "" {
			tok, _ = c.Cookie(tokenCookie)
		}
		if tok == "" {
			response.Abort(c, http.StatusUnauthorized, "authentication required")
			return
		}
		claims, err := auth.ParseToken(secret, tok)
		if err != nil {
			response.Abort(c, http.StatusUnauthorized, "invalid or expired session")
			return
		}

		raw, _ := c.Cookie(cookieCompanyID)
		if raw == "" {
			raw = c.GetHeader(headerCompanyID)
		}
		companyID, err := strconv.ParseUint(strings.TrimSpace(raw), 10, 64)
		if err != nil || companyID == 0 {
			response.Abort(c, http.StatusBadRequest, "company id is required")
			return
		}

		c.Set(keyRequestContext, service.RequestContext{
			CompanyID: uint(companyID),
			UserID:    claims.UserID,
			Role:      claims.Role,
		})
		c.Next()
	}
}

// AuthorizeMiddleware asks the gate whether the session role may call the
// route.
func AuthorizeMiddleware(gate *auth.Gate, log *logrus.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		rc, ok := requestContextOf(c)
		if !ok {
			response.Abort(c, http.StatusUnauthorized, "authentication required")
			return
		}
		if !gate.Allow(c.Request.Method, c.Request.URL.Path, rc.Role) {
			logging.LogError(log, "handler", "AuthorizeMiddleware", "permission denied", logrus.Fields{
				"role": rc.Role, "method": c.Request.Method, "path": c.Request.URL.Path,
			}, errForbidden)
			response.Abort(c, http.StatusForbidden, "you do not have permission to perform this action")
			return
		}
		c.Next()
	}
}

func bearerToken(header string) string {
	header = strings.TrimSpace(header)
	if len(header) > 7 && strings.EqualFold(header[:7], "bearer ") {
		return strings.TrimSpace(header[7:])
	}
	return ""
}

func requestContextOf(c *gin.Context) (service.RequestContext, bool) {
	v, ok := c.Get(keyRequestContext)
	if !ok {
		return service.RequestContext{}, false
	}
	rc, ok := v.(service.RequestContext)
	return rc, ok
}
