package middleware

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/ezhost/panel/internal/launcher"
	"github.com/ezhost/panel/internal/orchestrator"
	"github.com/ezhost/panel/internal/properties"
	"github.com/ezhost/panel/internal/registry"
	"github.com/ezhost/panel/pkg/logger"
)

// Envelope is the response shape every endpoint uses. Status is either
// "success" or "error"; Data carries the payload, Error carries detail
// the UI can show alongside the message.
type Envelope struct {
	Status  string      `json:"status"`
	Message string      `json:"message,omitempty"`
	Data    interface{} `json:"data,omitempty"`
	Error   string      `json:"error,omitempty"`
}

// ErrorHandler is a middleware that catches panics and errors
func ErrorHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		defer func() {
			if r := recover(); r != nil {
				logger.Error("Panic recovered", fmt.Errorf("%v", r), map[string]interface{}{
					"path":   c.Request.URL.Path,
					"method": c.Request.Method,
				})

				c.JSON(http.StatusInternalServerError, Envelope{
					Status:  "error",
					Message: "An unexpected error occurred",
				})
				c.Abort()
			}
		}()

		c.Next()

		if len(c.Errors) > 0 {
			err := c.Errors.Last().Err
			status, message := StatusForError(err)

			logger.Error("Request error", err, map[string]interface{}{
				"path":   c.Request.URL.Path,
				"method": c.Request.Method,
				"status": status,
			})

			if !c.Writer.Written() {
				c.JSON(status, Envelope{
					Status:  "error",
					Message: message,
					Error:   err.Error(),
				})
			}
		}
	}
}

// StatusForError maps domain errors to HTTP status codes and
// user-facing messages. Unknown errors become a plain 500.
func StatusForError(err error) (int, string) {
	var procErr *launcher.ProcessError
	switch {
	case errors.Is(err, registry.ErrNotFound):
		return http.StatusNotFound, "Server not found"
	case errors.Is(err, properties.ErrNotFound):
		return http.StatusNotFound, "File not found"
	case errors.Is(err, orchestrator.ErrVariablesMissing):
		return http.StatusNotFound, "Server has not been initialized yet"
	case errors.Is(err, registry.ErrConflict):
		return http.StatusConflict, "Directory or RCON password already in use"
	case errors.Is(err, orchestrator.ErrActiveConflict):
		return http.StatusConflict, "Another server is already running"
	case errors.Is(err, orchestrator.ErrNotOffline):
		return http.StatusConflict, "Server must be offline for this action"
	case errors.Is(err, orchestrator.ErrNotReady):
		return http.StatusConflict, "Server is not online"
	case errors.Is(err, registry.ErrInvalidName):
		return http.StatusBadRequest, "Invalid server name"
	case errors.Is(err, orchestrator.ErrRAMOutOfRange):
		return http.StatusBadRequest, "RAM allocation out of range"
	case errors.Is(err, launcher.ErrTimeout):
		return http.StatusGatewayTimeout, "Script execution timed out"
	case errors.As(err, &procErr):
		return http.StatusInternalServerError, "Script execution failed"
	default:
		return http.StatusInternalServerError, "Internal server error"
	}
}
