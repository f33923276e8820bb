package middleware

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/mistakebook/mistakebook/internal/core/ports/services"
)

// ExternalTokenHeader carries the browser extension's credential.
const ExternalTokenHeader = "X-External-Token"

// ExternalTokenAuth resolves the X-External-Token header to a user row and
// stores the resolved user id in the request context. Unresolvable tokens
// are rejected.
func ExternalTokenAuth(external services.ExternalSvc) gin.HandlerFunc {
	return func(c *gin.Context) {
		token := c.GetHeader(ExternalTokenHeader)
		user, err := external.ResolveToken(c.Request.Context(), token)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"success": false,
				"message": "无效的插件令牌",
			})
			return
		}

		logger := GetLoggerFromCtx(c.Request.Context()).With(slog.String("user_id", user.ID))
		ctx := context.WithValue(c.Request.Context(), userIDKey, user.ID)
		ctx = context.WithValue(ctx, loggerCtxKey, logger)
		c.Request = c.Request.WithContext(ctx)

		c.Next()
	}
}
