package service

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"

	"github.com/eddwmvv/projetovereler-sub001/config"
	"github.com/eddwmvv/projetovereler-sub001/internal/model"
	"github.com/eddwmvv/projetovereler-sub001/internal/repository"
	pkgerrors "github.com/eddwmvv/projetovereler-sub001/pkg/errors"
	"github.com/eddwmvv/projetovereler-sub001/pkg/jwt"
)

// ── shared errors ──

var (
	ErrForbiddenCompany = errors.New("record belongs to another company")
	ErrForbiddenRole    = errors.New("operation not allowed for this role")
)

// Session the authenticated caller, passed explicitly to every operation.
// CompanyID is empty for admins.
type Session struct {
	UserID    string
	Role      string
	CompanyID string
}

// IsAdmin admins see and change every tenant
func (s Session) IsAdmin() bool { return s.Role == model.RoleAdmin }

// Scope company filter for reads, empty for admins
func (s Session) Scope() string {
	if s.IsAdmin() {
		return ""
	}
	return s.CompanyID
}

// Authorize rejects access to another company's records
func (s Session) Authorize(companyID string) error {
	if s.UserID == "" {
		return pkgerrors.ErrUnauthenticated
	}
	if s.IsAdmin() || (s.CompanyID != "" && s.CompanyID == companyID) {
		return nil
	}
	return ErrForbiddenCompany
}

// scopedCompany resolves a requested company filter against the session
func (s Session) scopedCompany(requested string) (string, error) {
	if s.IsAdmin() {
		return requested, nil
	}
	if requested != "" && requested != s.CompanyID {
		return "", ErrForbiddenCompany
	}
	return s.CompanyID, nil
}

// ── redis-backed collaborators ──

// TokenBlacklist revoked access tokens
type TokenBlacklist interface {
	BlacklistToken(ctx context.Context, jti string, ttl time.Duration) error
}

// ReportCache dashboard cache. InvalidateReports must advance
// ReportGeneration so entries keyed under an older generation are never read.
type ReportCache interface {
	GetJSON(ctx context.Context, key string, dst interface{}) (bool, error)
	SetJSON(ctx context.Context, key string, v interface{}, ttl time.Duration) error
	ReportGeneration(ctx context.Context) (int64, error)
	InvalidateReports(ctx context.Context) error
}

// reportInvalidator drops cached reports after a mutation; a nil cache is a no-op
type reportInvalidator struct {
	cache  ReportCache
	logger *zap.Logger
}

func (i reportInvalidator) invalidate(ctx context.Context) {
	if i.cache == nil {
		return
	}
	if err := i.cache.InvalidateReports(ctx); err != nil {
		i.logger.Warn("failed to invalidate report cache", zap.Error(err))
	}
}

// Service aggregate of every service
type Service struct {
	Auth         AuthService
	Company      CompanyService
	Project      ProjectService
	Municipality MunicipalityService
	School       SchoolService
	Class        ClassService
	Student      StudentService
	Lifecycle    LifecycleService
	Frame        FrameService
	Assignment   AssignmentService
	Report       ReportService
	Export       ExportService
}

// NewService creates the aggregate; blacklist and cache may be nil
func NewService(
	cfg *config.Config,
	repo *repository.Repository,
	jwtMgr *jwt.Manager,
	blacklist TokenBlacklist,
	cache ReportCache,
	logger *zap.Logger,
) *Service {
	inv := reportInvalidator{cache: cache, logger: logger}
	assignment := NewAssignmentService(&cfg.Inventory, repo, inv, logger)

	return &Service{
		Auth:         NewAuthService(repo, jwtMgr, blacklist, logger),
		Company:      NewCompanyService(repo, inv, logger),
		Project:      NewProjectService(repo, inv, logger),
		Municipality: NewMunicipalityService(repo, inv, logger),
		School:       NewSchoolService(repo, inv, logger),
		Class:        NewClassService(repo, inv, logger),
		Student:      NewStudentService(repo, inv, logger),
		Lifecycle:    NewLifecycleService(repo, assignment, inv, logger),
		Frame:        NewFrameService(&cfg.Inventory, repo, inv, logger),
		Assignment:   assignment,
		Report:       NewReportService(&cfg.Report, repo, cache, logger),
		Export:       NewExportService(repo, logger),
	}
}
