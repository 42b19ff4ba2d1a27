package api

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/ezhost/panel/internal/middleware"
)

func respond(c *gin.Context, code int, message string, data interface{}) {
	c.JSON(code, middleware.Envelope{
		Status:  "success",
		Message: message,
		Data:    data,
	})
}

func respondOK(c *gin.Context, message string, data interface{}) {
	respond(c, http.StatusOK, message, data)
}

func respondCreated(c *gin.Context, message string, data interface{}) {
	respond(c, http.StatusCreated, message, data)
}

// fail hands the error to the error-handler middleware, which maps it
// to a status code and writes the envelope.
func fail(c *gin.Context, err error) {
	c.Error(err)
	c.Abort()
}

func failBadRequest(c *gin.Context, message string) {
	c.AbortWithStatusJSON(http.StatusBadRequest, middleware.Envelope{
		Status:  "error",
		Message: message,
	})
}
