package response

import (
	"net/http"
	"time"

	"github.com/Beveren-Software-Inc/klikpos-core/pkg/apperror"
	"github.com/Beveren-Software-Inc/klikpos-core/pkg/pagination"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// APIResponse is the envelope every endpoint answers with
type APIResponse struct {
	Success bool        `json:"success"`
	Message string      `json:"message"`
	Data    interface{} `json:"data,omitempty"`
	Errors  interface{} `json:"errors,omitempty"`
	Meta    Meta        `json:"meta"`
}

// Meta ties a response back to the request and terminal that produced it
type Meta struct {
	Timestamp  string `json:"timestamp"`
	RequestID  string `json:"request_id,omitempty"`
	TerminalID string `json:"terminal_id,omitempty"`
}

func write(c *gin.Context, status int, body APIResponse) {
	body.Meta = Meta{
		Timestamp: time.Now().UTC().Format(time.RFC3339),
		RequestID: c.GetString("request_id"),
	}
	if body.Meta.RequestID == "" {
		body.Meta.RequestID = c.GetHeader("X-Request-ID")
	}
	if v, ok := c.Get("terminal_id"); ok {
		if id, ok := v.(uuid.UUID); ok {
			body.Meta.TerminalID = id.String()
		}
	}
	c.JSON(status, body)
}

func Success(c *gin.Context, status int, message string, data interface{}) {
	write(c, status, APIResponse{Success: true, Message: message, Data: data})
}

func SuccessWithPagination[T any](c *gin.Context, message string, result *pagination.PaginatedResult[T]) {
	Success(c, http.StatusOK, message, result)
}

// Error answers with the status carried by err. Anything without one is
// recorded on the context for the logger and hidden behind a 500.
func Error(c *gin.Context, err error) {
	appErr, ok := apperror.From(err)
	if !ok {
		_ = c.Error(err)
		appErr = apperror.ErrInternalServer
	}
	body := APIResponse{Message: appErr.Message}
	if len(appErr.Errors) > 0 {
		body.Errors = appErr.Errors
	}
	write(c, appErr.Code, body)
}

func ErrorWithCode(c *gin.Context, status int, message string) {
	write(c, status, APIResponse{Message: message})
}

func Created(c *gin.Context, message string, data interface{}) {
	Success(c, http.StatusCreated, message, data)
}

func OK(c *gin.Context, message string, data interface{}) {
	Success(c, http.StatusOK, message, data)
}

func NoContent(c *gin.Context) {
	c.Status(http.StatusNoContent)
}

func BadRequest(c *gin.Context, message string) {
	ErrorWithCode(c, http.StatusBadRequest, message)
}
