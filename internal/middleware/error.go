package middleware

import (
	"errors"

	"github.com/gin-gonic/gin"

	apperrors "pesaprime/internal/errors"
	"pesaprime/internal/logger"
)

// ErrorHandler renders the last error a handler attached with c.Error as
// {"error": {"code", "message"}}. Anything that is not an *AppError becomes
// INTERNAL_ERROR. Internal causes are logged with the request ID and never
// reach the client.
func ErrorHandler() gin.HandlerFunc {
	log := logger.Named("http")
	return func(c *gin.Context) {
		c.Next()

		if len(c.Errors) == 0 || c.Writer.Written() {
			return
		}

		err := c.Errors.Last().Err
		var appErr *apperrors.AppError
		if !errors.As(err, &appErr) {
			log.Errorw("unhandled error",
				"request_id", c.GetString(requestIDKey),
				"method", c.Request.Method,
				"path", c.Request.URL.Path,
				"error", err.Error(),
			)
			abortWithError(c, apperrors.ErrInternalServer)
			return
		}

		if appErr.Internal != nil {
			log.Errorw("request failed",
				"request_id", c.GetString(requestIDKey),
				"code", appErr.Code,
				"path", c.Request.URL.Path,
				"user_id", c.GetString(UserIDKey),
				"cause", appErr.Internal.Error(),
			)
		}
		abortWithError(c, appErr)
	}
}
