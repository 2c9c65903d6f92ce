package middleware

import (
	"context"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/eddwmvv/projetovereler-sub001/internal/api/handler"
	"github.com/eddwmvv/projetovereler-sub001/pkg/jwt"
	"github.com/eddwmvv/projetovereler-sub001/pkg/response"
)

// BlacklistChecker reports revoked access tokens (redis.Client)
type BlacklistChecker interface {
	IsBlacklisted(ctx context.Context, jti string) (bool, error)
}

// JWTAuth validates the access token from Authorization: Bearer <token> and
// puts the session claims in the context.
// A nil checker skips revocation; a checker error lets the request through
// (same degradation as RateLimit).
func JWTAuth(jwtMgr *jwt.Manager, checker BlacklistChecker) gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			response.Unauthorized(c, 10002, "missing authorization header")
			c.Abort()
			return
		}

		parts := strings.SplitN(authHeader, " ", 2)
		if len(parts) != 2 || parts[0] != "Bearer" {
			response.Unauthorized(c, 10002, "malformed authorization header")
			c.Abort()
			return
		}

		claims, err := jwtMgr.ParseToken(parts[1])
		if err != nil {
			response.Unauthorized(c, 10002, "invalid or expired token")
			c.Abort()
			return
		}

		if claims.TokenType != jwt.TokenTypeAccess {
			response.Unauthorized(c, 10002, "invalid token type")
			c.Abort()
			return
		}

		if checker != nil {
			revoked, err := checker.IsBlacklisted(c.Request.Context(), claims.ID)
			if err == nil && revoked {
				response.Unauthorized(c, 10002, "token has been revoked")
				c.Abort()
				return
			}
		}

		c.Set(handler.CtxUserID, claims.UserID)
		c.Set(handler.CtxRole, claims.Role)
		c.Set(handler.CtxCompanyID, claims.CompanyID)
		c.Set(handler.CtxTokenID, claims.ID)
		if claims.ExpiresAt != nil {
			c.Set(handler.CtxTokenExp, claims.ExpiresAt.Time)
		}

		c.Next()
	}
}

// RoleAuth lets through callers holding one of the given roles
func RoleAuth(allowedRoles ...string) gin.HandlerFunc {
	return func(c *gin.Context) {
		userRole := c.GetString(handler.CtxRole)
		if userRole == "" {
			response.Unauthorized(c, 10002, "not authenticated")
			c.Abort()
			return
		}

		for _, r := range allowedRoles {
			if userRole == r {
				c.Next()
				return
			}
		}

		response.Forbidden(c, 10003, "access denied for this role")
		c.Abort()
	}
}
