package middleware

import (
	"bytes"
	"context"
	"net/http"
	"time"

	"github.com/Beveren-Software-Inc/klikpos-core/internal/domain/entity"
	"github.com/Beveren-Software-Inc/klikpos-core/internal/domain/repository"
	"github.com/Beveren-Software-Inc/klikpos-core/internal/presentation/http/dto/response"
	"github.com/Beveren-Software-Inc/klikpos-core/pkg/apperror"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

const (
	// IdempotencyKeyHeader is the HTTP header for idempotency keys
	IdempotencyKeyHeader = "Idempotency-Key"
	// IdempotencyKeyTTL is how long answered keys are replayed
	IdempotencyKeyTTL = 24 * time.Hour
	// IdempotencyPendingTTL bounds a reservation whose request never answered
	IdempotencyPendingTTL = 2 * time.Minute
)

// IdempotencyConfig holds configuration for the idempotency middleware
type IdempotencyConfig struct {
	Repo repository.IdempotencyRepository
	Log  *zap.Logger
}

// responseWriter wraps gin.ResponseWriter to capture the response body
type responseWriter struct {
	gin.ResponseWriter
	body *bytes.Buffer
}

func (w responseWriter) Write(b []byte) (int, error) {
	w.body.Write(b)
	return w.ResponseWriter.Write(b)
}

// IdempotencyRequired guards submissions. Each POST must carry an
// Idempotency-Key. The key is reserved for the terminal before the handler
// runs: a retry while the first request is still running gets 409, and a
// retry after it answered replays the stored response. Only 2xx responses
// are kept so a rejected submission can be retried with the same key.
func IdempotencyRequired(config IdempotencyConfig) gin.HandlerFunc {
	return func(c *gin.Context) {
		if c.Request.Method != http.MethodPost {
			c.Next()
			return
		}

		idempotencyKey := c.GetHeader(IdempotencyKeyHeader)
		if idempotencyKey == "" {
			response.BadRequest(c, "Idempotency-Key header is required for this request")
			c.Abort()
			return
		}

		terminalID := GetTerminalID(c)
		if terminalID == uuid.Nil {
			response.Error(c, apperror.ErrMissingTerminal)
			c.Abort()
			return
		}

		ikey := &entity.IdempotencyKey{
			Key:        idempotencyKey,
			TerminalID: terminalID,
			Endpoint:   c.Request.Method + " " + c.FullPath(),
			ExpiresAt:  time.Now().Add(IdempotencyPendingTTL),
		}
		held, err := config.Repo.Reserve(c.Request.Context(), ikey)
		if err != nil {
			_ = c.Error(err)
			response.ErrorWithCode(c, http.StatusInternalServerError, "Failed to check idempotency key")
			c.Abort()
			return
		}

		if held != nil {
			if held.IsPending() {
				response.Error(c, apperror.ErrRequestInFlight)
			} else {
				c.Header("X-Idempotency-Replayed", "true")
				c.Data(held.ResponseCode, "application/json; charset=utf-8", []byte(held.ResponseBody))
			}
			c.Abort()
			return
		}

		blw := &responseWriter{body: bytes.NewBufferString(""), ResponseWriter: c.Writer}
		c.Writer = blw

		c.Next()

		// The outcome is recorded even when the client has gone away
		ctx := context.WithoutCancel(c.Request.Context())
		status := c.Writer.Status()
		if status >= 200 && status < 300 {
			ikey.ResponseCode = status
			ikey.ResponseBody = blw.body.String()
			ikey.ExpiresAt = time.Now().Add(IdempotencyKeyTTL)
			err = config.Repo.Complete(ctx, ikey)
		} else {
			err = config.Repo.Release(ctx, ikey)
		}
		if err != nil && config.Log != nil {
			config.Log.Warn("failed to record idempotency key",
				zap.String("key", idempotencyKey),
				zap.String("terminal_id", terminalID.String()),
				zap.Int("status", status),
				zap.Error(err),
			)
		}
	}
}
