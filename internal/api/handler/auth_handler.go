package handler

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/eddwmvv/projetovereler-sub001/internal/dto"
	"github.com/eddwmvv/projetovereler-sub001/internal/service"
	"github.com/eddwmvv/projetovereler-sub001/pkg/response"
)

// AuthHandler auth HTTP handlers
type AuthHandler struct {
	authSvc service.AuthService
}

// NewAuthHandler creates an AuthHandler
func NewAuthHandler(authSvc service.AuthService) *AuthHandler {
	return &AuthHandler{authSvc: authSvc}
}

// SignIn email/password sign-in
// POST /api/v1/auth/sign-in
func (h *AuthHandler) SignIn(c *gin.Context) {
	var req dto.SignInRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindFailed(c, err)
		return
	}

	result, err := h.authSvc.SignIn(c.Request.Context(), &req)
	if err != nil {
		h.handleAuthError(c, err)
		return
	}

	response.OK(c, result)
}

// SignUp creates a user; admin only
// POST /api/v1/auth/sign-up
func (h *AuthHandler) SignUp(c *gin.Context) {
	sess, ok := MustGetSession(c)
	if !ok {
		return
	}

	var req dto.SignUpRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindFailed(c, err)
		return
	}

	user, err := h.authSvc.SignUp(c.Request.Context(), sess, &req)
	if err != nil {
		h.handleAuthError(c, err)
		return
	}

	response.Created(c, user)
}

// Refresh exchanges a refresh token for a new pair
// POST /api/v1/auth/refresh
func (h *AuthHandler) Refresh(c *gin.Context) {
	var req dto.RefreshTokenRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindFailed(c, err)
		return
	}

	result, err := h.authSvc.Refresh(c.Request.Context(), req.RefreshToken)
	if err != nil {
		h.handleAuthError(c, err)
		return
	}

	response.OK(c, result)
}

// SignOut revokes the presented access token
// POST /api/v1/auth/sign-out
func (h *AuthHandler) SignOut(c *gin.Context) {
	jti := c.GetString(CtxTokenID)
	if jti == "" {
		response.Unauthorized(c, 10002, "not authenticated")
		return
	}
	exp := c.GetTime(CtxTokenExp)
	if exp.IsZero() {
		exp = time.Now()
	}

	if err := h.authSvc.SignOut(c.Request.Context(), jti, exp); err != nil {
		h.handleAuthError(c, err)
		return
	}

	response.OK(c, nil)
}

// Me current user
// GET /api/v1/auth/me
func (h *AuthHandler) Me(c *gin.Context) {
	userID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	user, err := h.authSvc.Me(c.Request.Context(), userID)
	if err != nil {
		h.handleAuthError(c, err)
		return
	}

	response.OK(c, user)
}

func (h *AuthHandler) handleAuthError(c *gin.Context, err error) {
	if handleCommonError(c, err) {
		return
	}
	switch {
	case errors.Is(err, service.ErrInvalidCredentials):
		response.Error(c, http.StatusUnauthorized, 11001, "invalid email or password")
	case errors.Is(err, service.ErrUserInactive):
		response.Forbidden(c, 11002, "user is inactive")
	case errors.Is(err, service.ErrEmailExists):
		response.Conflict(c, 11003, "email already registered")
	case errors.Is(err, service.ErrInvalidRefreshToken):
		response.Unauthorized(c, 11004, "invalid or expired refresh token")
	case errors.Is(err, service.ErrUserNotFound):
		response.NotFound(c, 11005, "user not found")
	default:
		response.InternalError(c)
	}
}
