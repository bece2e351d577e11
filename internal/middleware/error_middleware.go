package middleware

import (
	"errors"
	"net/http"

	"conference-plugins/internal/ravem"
	"conference-plugins/internal/transport/httpdto"
	plugin_errors "conference-plugins/pkg/errors"
	"conference-plugins/pkg/logger"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// ErrorHandler renders the last error attached to the context with
// c.Error as a JSON error envelope.
func ErrorHandler(l *logger.Logger) gin.HandlerFunc {
	log := logger.OrNop(l)
	return func(c *gin.Context) {
		c.Next()

		if len(c.Errors) == 0 || c.Writer.Written() {
			return
		}

		err := c.Errors.Last().Err
		status, code := classify(err)
		if status >= http.StatusInternalServerError {
			log.Error(c.Request.Context(), "request error", zap.Error(err))
		}
		c.JSON(status, httpdto.NewErrorResponse(err.Error(), code))
	}
}

func classify(err error) (int, httpdto.ErrorCode) {
	switch {
	case errors.Is(err, plugin_errors.ErrNotFound):
		return http.StatusNotFound, httpdto.CodeNotFound
	case errors.Is(err, plugin_errors.ErrInvalidInput):
		return http.StatusBadRequest, httpdto.CodeInvalidInput
	case errors.Is(err, plugin_errors.ErrTooLarge):
		return http.StatusRequestEntityTooLarge, httpdto.CodeTooLarge
	case errors.Is(err, plugin_errors.ErrNotConfigured):
		return http.StatusServiceUnavailable, httpdto.CodeNotConfigured
	case errors.Is(err, plugin_errors.ErrServiceUnavailable):
		return http.StatusServiceUnavailable, httpdto.CodeUnavailable
	case errors.Is(err, ravem.ErrRavem):
		return http.StatusBadGateway, httpdto.CodeRavemError
	}
	return http.StatusInternalServerError, httpdto.CodeInternal
}
