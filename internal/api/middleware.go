package api

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/Freeeeeet/court_booking/internal/model"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

const (
	HeaderUserID   = "X-User-ID"
	HeaderUserRole = "X-User-Role"

	callerKey = "caller"
)

// CallerAuth берёт идентичность из заголовков, которые ставит шлюз аутентификации
func CallerAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		id, err := strconv.ParseInt(c.GetHeader(HeaderUserID), 10, 64)
		if err != nil || id <= 0 {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "missing or invalid " + HeaderUserID})
			return
		}

		role := model.Role(c.GetHeader(HeaderUserRole))
		if role != model.RoleOwner {
			role = model.RolePlayer
		}

		c.Set(callerKey, model.Caller{UserID: id, Role: role})
		c.Next()
	}
}

func callerOf(c *gin.Context) model.Caller {
	v, _ := c.Get(callerKey)
	caller, _ := v.(model.Caller)
	return caller
}

// RequestLogger пишет каждый запрос в zap
func RequestLogger(logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		started := time.Now()
		c.Next()

		logger.Info("HTTP request",
			zap.String("method", c.Request.Method),
			zap.String("path", c.FullPath()),
			zap.Int("status", c.Writer.Status()),
			zap.Duration("took", time.Since(started)),
		)
	}
}

// statusOf переводит категорию ошибки в HTTP статус
func statusOf(err error) int {
	switch {
	case errors.Is(err, model.ErrValidation):
		return http.StatusBadRequest
	case errors.Is(err, model.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, model.ErrConflict):
		return http.StatusConflict
	case errors.Is(err, model.ErrUnauthorized):
		return http.StatusForbidden
	default:
		return http.StatusInternalServerError
	}
}

// writeError отвечает ошибкой. Внутренние ошибки наружу не раскрываются.
func writeError(c *gin.Context, logger *zap.Logger, err error) {
	status := statusOf(err)
	if status == http.StatusInternalServerError {
		logger.Error("Request failed",
			zap.String("path", c.FullPath()),
			zap.Error(err),
		)
		c.JSON(status, gin.H{"error": "internal error"})
		return
	}

	c.JSON(status, gin.H{"error": err.Error()})
}
