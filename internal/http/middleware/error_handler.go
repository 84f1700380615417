package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/ignatzorin/pokemarket-backend/internal/logger"
	"github.com/ignatzorin/pokemarket-backend/internal/pkg/apperror"
)

const internalMessage = "внутренняя ошибка сервера"

// ErrorHandler обрабатывает ошибки централизованно.
// AppError отдаётся клиенту как {"error","code"}; всё остальное маскируется под INTERNAL_ERROR.
func ErrorHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		if c.Writer.Written() || len(c.Errors) == 0 {
			return
		}

		err := c.Errors.Last().Err
		status, body := renderError(err)

		entry := logger.Log.WithFields(logrus.Fields{
			"error":  err.Error(),
			"path":   c.Request.URL.Path,
			"method": c.Request.Method,
			"status": status,
		})
		if status >= http.StatusInternalServerError {
			entry.Error("request error")
		} else {
			entry.Debug("request rejected")
		}

		c.JSON(status, body)
	}
}

func renderError(err error) (int, gin.H) {
	appErr, ok := apperror.As(err)
	if !ok {
		return http.StatusInternalServerError, gin.H{"error": internalMessage, "code": apperror.ErrCodeInternal}
	}

	status := appErr.HTTPStatus
	if status == 0 {
		status = http.StatusInternalServerError
	}
	message := appErr.Message
	if status >= http.StatusInternalServerError {
		message = internalMessage
	}
	return status, gin.H{"error": message, "code": appErr.Code}
}

// abortWithError отвечает ошибкой сразу, не дожидаясь ErrorHandler.
func abortWithError(c *gin.Context, err error) {
	status, body := renderError(err)
	c.AbortWithStatusJSON(status, body)
}
