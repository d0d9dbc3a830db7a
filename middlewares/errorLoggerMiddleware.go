package middlewares

import (
	"github.com/gin-gonic/gin"
	"github.com/mmdatafocus/audit_backend/utils"
	"github.com/sirupsen/logrus"
)

// ErrorLoggerMiddleware logs only requests that accumulated gin errors.
func ErrorLoggerMiddleware(logger *logrus.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		if len(c.Errors) > 0 {
			correlationId, _ := utils.GetCorrelationIdFromContext(c.Request.Context())
			logger.WithFields(logrus.Fields{
				"path":           c.Request.URL.Path,
				"correlation_id": correlationId,
			}).Error(c.Errors.String())
		}
	}
}
