package middleware

import (
	"github.com/Beveren-Software-Inc/klikpos-core/internal/presentation/http/dto/response"
	"github.com/Beveren-Software-Inc/klikpos-core/pkg/apperror"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// TerminalIDHeader identifies the POS terminal making the request
const TerminalIDHeader = "X-Terminal-ID"

// RequireTerminal reads the terminal ID header into the Gin context
func RequireTerminal() gin.HandlerFunc {
	return func(c *gin.Context) {
		raw := c.GetHeader(TerminalIDHeader)
		if raw == "" {
			response.Error(c, apperror.ErrMissingTerminal)
			c.Abort()
			return
		}

		terminalID, err := uuid.Parse(raw)
		if err != nil || terminalID == uuid.Nil {
			response.BadRequest(c, "Invalid X-Terminal-ID header")
			c.Abort()
			return
		}

		c.Set("terminal_id", terminalID)

		c.Next()
	}
}

// GetTerminalID retrieves the terminal ID from gin context
func GetTerminalID(c *gin.Context) uuid.UUID {
	val, exists := c.Get("terminal_id")
	if !exists {
		return uuid.Nil
	}
	id, ok := val.(uuid.UUID)
	if !ok {
		return uuid.Nil
	}
	return id
}
