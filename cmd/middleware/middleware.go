package middleware

import (
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/wb-go/wbf/ginext"
	"github.com/wb-go/wbf/zlog"

	"matchmaker/internal/auth"
	"matchmaker/internal/dto"
	"matchmaker/internal/model"
)

func LoggingMiddleware() gin.HandlerFunc {
	return func(c *ginext.Context) {
		start := time.Now()
		c.Next()

		event := zlog.Logger.Info()
		if c.Writer.Status() >= 500 {
			event = zlog.Logger.Error()
		}
		event.
			Str("method", c.Request.Method).
			Str("path", c.Request.URL.Path).
			Int("status", c.Writer.Status()).
			Dur("duration", time.Since(start)).
			Str("client_ip", c.ClientIP()).
			Msg("http request")
	}
}

// RequireAuth rejects requests without a valid bearer token and stores the
// caller's id and role on the context.
func RequireAuth(issuer *auth.Issuer) gin.HandlerFunc {
	return func(c *ginext.Context) {
		header := c.GetHeader("Authorization")
		if header == "" || !strings.HasPrefix(strings.ToLower(header), "bearer ") {
			dto.UnauthorizedError(c, "Missing bearer token")
			return
		}
		claims, err := issuer.Parse(strings.TrimSpace(header[len("bearer "):]))
		if err != nil {
			dto.UnauthorizedError(c, "Invalid or expired token")
			return
		}
		c.Set(auth.UserIDKey, claims.Subject)
		c.Set(auth.RoleKey, claims.Role)
		c.Next()
	}
}

// RequireRole must run after RequireAuth. Admins pass every role check.
func RequireRole(roles ...model.Role) gin.HandlerFunc {
	return func(c *ginext.Context) {
		role, _ := c.Get(auth.RoleKey)
		r, _ := role.(model.Role)
		if r == model.RoleAdmin {
			c.Next()
			return
		}
		for _, allowed := range roles {
			if r == allowed {
				c.Next()
				return
			}
		}
		dto.ForbiddenError(c)
	}
}
