package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/eddwmvv/projetovereler-sub001/internal/dto"
	"github.com/eddwmvv/projetovereler-sub001/internal/model"
	"github.com/eddwmvv/projetovereler-sub001/internal/repository"
	pkgerrors "github.com/eddwmvv/projetovereler-sub001/pkg/errors"
	"github.com/eddwmvv/projetovereler-sub001/pkg/jwt"
)

var (
	ErrInvalidCredentials  = errors.New("invalid email or password")
	ErrUserNotFound        = errors.New("user not found")
	ErrUserInactive        = errors.New("user is inactive")
	ErrEmailExists         = errors.New("email already registered")
	ErrInvalidRefreshToken = errors.New("invalid refresh token")
)

// AuthService sign-in, sign-up and session retrieval
type AuthService interface {
	SignIn(ctx context.Context, req *dto.SignInRequest) (*dto.TokenResponse, error)
	// SignUp creates the identity, the profile and the role in one transaction
	SignUp(ctx context.Context, sess Session, req *dto.SignUpRequest) (*dto.UserResponse, error)
	Refresh(ctx context.Context, refreshToken string) (*dto.TokenResponse, error)
	// SignOut revokes an access token until it expires
	SignOut(ctx context.Context, jti string, expiresAt time.Time) error
	Me(ctx context.Context, userID string) (*dto.UserResponse, error)
	// CreateAdmin bootstraps an admin without a session (CLI)
	CreateAdmin(ctx context.Context, email, password, fullName string) (*dto.UserResponse, error)
}

type authService struct {
	repo      *repository.Repository
	jwtMgr    *jwt.Manager
	blacklist TokenBlacklist
	logger    *zap.Logger
}

// NewAuthService creates an AuthService; blacklist may be nil
func NewAuthService(
	repo *repository.Repository,
	jwtMgr *jwt.Manager,
	blacklist TokenBlacklist,
	logger *zap.Logger,
) AuthService {
	return &authService{
		repo:      repo,
		jwtMgr:    jwtMgr,
		blacklist: blacklist,
		logger:    logger,
	}
}

// ────────────────────── SignIn ──────────────────────

func (s *authService) SignIn(ctx context.Context, req *dto.SignInRequest) (*dto.TokenResponse, error) {
	user, err := s.repo.User.GetByEmail(ctx, strings.TrimSpace(req.Email))
	if err != nil {
		if pkgerrors.IsNotFound(err) {
			return nil, ErrInvalidCredentials
		}
		s.logger.Error("failed to load user", zap.Error(err))
		return nil, err
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.Password)); err != nil {
		return nil, ErrInvalidCredentials
	}
	if !user.IsActive {
		return nil, ErrUserInactive
	}

	tokens, err := s.issueTokens(user)
	if err != nil {
		return nil, err
	}

	now := time.Now()
	if err := s.repo.User.TouchSignIn(ctx, user.UserID, now); err != nil {
		s.logger.Warn("failed to record sign-in", zap.String("user_id", user.UserID), zap.Error(err))
	} else {
		user.LastSignInAt = &now
	}
	tokens.User = toUserResponse(user)
	return tokens, nil
}

// ────────────────────── SignUp ──────────────────────

func (s *authService) SignUp(ctx context.Context, sess Session, req *dto.SignUpRequest) (*dto.UserResponse, error) {
	if !sess.IsAdmin() {
		return nil, ErrForbiddenRole
	}
	if req.Role != model.RoleAdmin && req.CompanyID == "" {
		return nil, pkgerrors.NewValidation(pkgerrors.KindInvalidField, "company_id is required for this role", "company_id")
	}
	if req.CompanyID != "" {
		if _, err := s.repo.Company.GetByID(ctx, req.CompanyID); err != nil {
			if pkgerrors.IsNotFound(err) {
				return nil, ErrCompanyNotFound
			}
			s.logger.Error("failed to load company", zap.String("company_id", req.CompanyID), zap.Error(err))
			return nil, err
		}
	}
	return s.createUser(ctx, req.Email, req.Password, req.FullName, req.Role, req.CompanyID)
}

func (s *authService) CreateAdmin(ctx context.Context, email, password, fullName string) (*dto.UserResponse, error) {
	if len(password) < 8 {
		return nil, pkgerrors.NewValidation(pkgerrors.KindInvalidField, "password must have at least 8 characters", "password")
	}
	return s.createUser(ctx, email, password, fullName, model.RoleAdmin, "")
}

func (s *authService) createUser(ctx context.Context, email, password, fullName, role, companyID string) (*dto.UserResponse, error) {
	email = strings.ToLower(strings.TrimSpace(email))

	if _, err := s.repo.User.GetByEmail(ctx, email); err == nil {
		return nil, ErrEmailExists
	} else if !pkgerrors.IsNotFound(err) {
		s.logger.Error("failed to check email", zap.Error(err))
		return nil, err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		s.logger.Error("failed to hash password", zap.Error(err))
		return nil, err
	}

	user := &model.User{Email: email, PasswordHash: string(hash), IsActive: true}
	err = s.repo.Transaction(ctx, func(tx *repository.Repository) error {
		if err := tx.User.Create(ctx, user); err != nil {
			return err
		}
		profile := &model.Profile{UserID: user.UserID, FullName: fullName}
		if companyID != "" {
			profile.CompanyID = &companyID
		}
		if err := tx.User.CreateProfile(ctx, profile); err != nil {
			return err
		}
		userRole := &model.UserRole{UserID: user.UserID, Role: role}
		if err := tx.User.AddRole(ctx, userRole); err != nil {
			return err
		}
		user.Profile = profile
		user.Roles = []model.UserRole{*userRole}
		return nil
	})
	if err != nil {
		if _, dup := pkgerrors.UniqueViolation(err); dup {
			return nil, ErrEmailExists
		}
		s.logger.Error("failed to create user", zap.String("email", email), zap.Error(err))
		return nil, err
	}

	s.logger.Info("user created", zap.String("user_id", user.UserID), zap.String("role", role))
	resp := toUserResponse(user)
	return &resp, nil
}

// ────────────────────── Refresh ──────────────────────

func (s *authService) Refresh(ctx context.Context, refreshToken string) (*dto.TokenResponse, error) {
	claims, err := s.jwtMgr.ParseToken(refreshToken)
	if err != nil || claims.TokenType != jwt.TokenTypeRefresh {
		return nil, ErrInvalidRefreshToken
	}

	// role and company are re-read so revoked roles do not survive a refresh
	user, err := s.repo.User.GetByID(ctx, claims.UserID)
	if err != nil {
		if pkgerrors.IsNotFound(err) {
			return nil, ErrInvalidRefreshToken
		}
		s.logger.Error("failed to load user", zap.String("user_id", claims.UserID), zap.Error(err))
		return nil, err
	}
	if !user.IsActive {
		return nil, ErrUserInactive
	}

	tokens, err := s.issueTokens(user)
	if err != nil {
		return nil, err
	}
	tokens.User = toUserResponse(user)
	return tokens, nil
}

// ────────────────────── SignOut ──────────────────────

func (s *authService) SignOut(ctx context.Context, jti string, expiresAt time.Time) error {
	if s.blacklist == nil || jti == "" {
		return nil
	}
	if err := s.blacklist.BlacklistToken(ctx, jti, time.Until(expiresAt)); err != nil {
		s.logger.Error("failed to revoke token", zap.Error(err))
		return err
	}
	return nil
}

// ────────────────────── Me ──────────────────────

func (s *authService) Me(ctx context.Context, userID string) (*dto.UserResponse, error) {
	user, err := s.repo.User.GetByID(ctx, userID)
	if err != nil {
		if pkgerrors.IsNotFound(err) {
			return nil, ErrUserNotFound
		}
		s.logger.Error("failed to load user", zap.String("user_id", userID), zap.Error(err))
		return nil, err
	}
	resp := toUserResponse(user)
	return &resp, nil
}

// ── helpers ──

func (s *authService) issueTokens(user *model.User) (*dto.TokenResponse, error) {
	role := user.PrimaryRole()
	companyID := user.CompanyID()
	if role == model.RoleAdmin {
		companyID = ""
	}

	accessToken, err := s.jwtMgr.GenerateAccessToken(user.UserID, role, companyID)
	if err != nil {
		s.logger.Error("failed to issue access token", zap.Error(err))
		return nil, err
	}
	refreshToken, err := s.jwtMgr.GenerateRefreshToken(user.UserID, role, companyID)
	if err != nil {
		s.logger.Error("failed to issue refresh token", zap.Error(err))
		return nil, err
	}

	return &dto.TokenResponse{
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
		ExpiresIn:    int(s.jwtMgr.AccessTokenTTL().Seconds()),
	}, nil
}

func toUserResponse(user *model.User) dto.UserResponse {
	resp := dto.UserResponse{
		ID:           user.UserID,
		Email:        user.Email,
		Role:         user.PrimaryRole(),
		CompanyID:    user.CompanyID(),
		IsActive:     user.IsActive,
		LastSignInAt: dto.FormatTimePtr(user.LastSignInAt),
		CreatedAt:    dto.FormatTime(user.CreatedAt),
	}
	if user.Profile != nil {
		resp.FullName = user.Profile.FullName
	}
	return resp
}
