package response

import (
	"net/http"

	"bizledger/internal/apperr"

	"github.com/gin-gonic/gin"
)

// Response is the envelope of every JSON reply.
type Response struct {
	Status  bool        `json:"status"`
	Data    interface{} `json:"data,omitempty"`
	Message string      `json:"message,omitempty"`
	Error   string      `json:"error,omitempty"`
}

// PageData wraps a page of a listing.
type PageData struct {
	Items    interface{} `json:"items"`
	Total    int64       `json:"total"`
	Page     int         `json:"page"`
	PageSize int         `json:"pageSize"`
}

func Success(c *gin.Context, data interface{}) {
	c.JSON(http.StatusOK, Response{Status: true, Data: data})
}

func SuccessMessage(c *gin.Context, message string, data interface{}) {
	c.JSON(http.StatusOK, Response{Status: true, Message: message, Data: data})
}

func Created(c *gin.Context, message string, data interface{}) {
	c.JSON(http.StatusCreated, Response{Status: true, Message: message, Data: data})
}

func Error(c *gin.Context, code int, message string) {
	c.JSON(code, Response{Status: false, Message: message, Error: message})
}

func Abort(c *gin.Context, code int, message string) {
	c.AbortWithStatusJSON(code, Response{Status: false, Message: message, Error: message})
}

func ParamError(c *gin.Context, message string) {
	Error(c, http.StatusBadRequest, message)
}

// Fail writes err with the status its apperr kind maps to. Unknown errors
// get a generic message.
func Fail(c *gin.Context, err error) {
	Error(c, apperr.HTTPStatus(err), apperr.Message(err))
}
