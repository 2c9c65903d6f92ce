package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/eddwmvv/projetovereler-sub001/internal/service"
	"github.com/eddwmvv/projetovereler-sub001/pkg/response"
)

// Context keys written by middleware.JWTAuth
const (
	CtxUserID    = "user_id"
	CtxRole      = "role"
	CtxCompanyID = "company_id"
	CtxTokenID   = "jti"
	CtxTokenExp  = "token_exp"
)

// MustGetUserID extracts user_id from the gin context.
// When JWTAuth did not set it, writes a 401 and returns false; the caller
// should return immediately.
func MustGetUserID(c *gin.Context) (string, bool) {
	s := c.GetString(CtxUserID)
	if s == "" {
		response.Unauthorized(c, 10002, "not authenticated")
		return "", false
	}
	return s, true
}

// MustGetSession builds the caller's session from the gin context
func MustGetSession(c *gin.Context) (service.Session, bool) {
	userID, ok := MustGetUserID(c)
	if !ok {
		return service.Session{}, false
	}
	role := c.GetString(CtxRole)
	if role == "" {
		response.Unauthorized(c, 10002, "not authenticated")
		return service.Session{}, false
	}
	return service.Session{
		UserID:    userID,
		Role:      role,
		CompanyID: c.GetString(CtxCompanyID),
	}, true
}
