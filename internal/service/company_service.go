package service

import (
	"context"
	"errors"
	"strings"

	"go.uber.org/zap"

	"github.com/eddwmvv/projetovereler-sub001/internal/dto"
	"github.com/eddwmvv/projetovereler-sub001/internal/model"
	"github.com/eddwmvv/projetovereler-sub001/internal/repository"
	pkgerrors "github.com/eddwmvv/projetovereler-sub001/pkg/errors"
)

var (
	ErrCompanyNotFound = errors.New("company not found")
	ErrTaxIDExists     = errors.New("tax id already registered")
)

// CompanyService company registry
type CompanyService interface {
	Create(ctx context.Context, sess Session, req *dto.CreateCompanyRequest) (*dto.CompanyResponse, error)
	GetByID(ctx context.Context, sess Session, id string) (*dto.CompanyResponse, error)
	List(ctx context.Context, sess Session, req *dto.CompanyListRequest) ([]dto.CompanyResponse, int64, error)
	Update(ctx context.Context, sess Session, id string, req *dto.UpdateCompanyRequest) (*dto.CompanyResponse, error)
	Delete(ctx context.Context, sess Session, id string) error
}

type companyService struct {
	repo   *repository.Repository
	inv    reportInvalidator
	logger *zap.Logger
}

// NewCompanyService creates a CompanyService
func NewCompanyService(repo *repository.Repository, inv reportInvalidator, logger *zap.Logger) CompanyService {
	return &companyService{repo: repo, inv: inv, logger: logger}
}

// ────────────────────── Create ──────────────────────

func (s *companyService) Create(ctx context.Context, sess Session, req *dto.CreateCompanyRequest) (*dto.CompanyResponse, error) {
	if !sess.IsAdmin() {
		return nil, ErrForbiddenRole
	}

	taxID, err := normalizeTaxID(req.TaxID)
	if err != nil {
		return nil, err
	}
	status := req.Status
	if status == "" {
		status = model.StatusActive
	}

	company := &model.Company{
		LegalName: strings.TrimSpace(req.LegalName),
		TradeName: strings.TrimSpace(req.TradeName),
		TaxID:     taxID,
		Status:    status,
	}
	company.Stamp(sess.UserID)

	if err := s.repo.Company.Create(ctx, company); err != nil {
		if _, dup := pkgerrors.UniqueViolation(err); dup {
			return nil, ErrTaxIDExists
		}
		s.logger.Error("failed to create company", zap.Error(err))
		return nil, err
	}

	s.inv.invalidate(ctx)
	return toCompanyResponse(company), nil
}

// ────────────────────── GetByID ──────────────────────

func (s *companyService) GetByID(ctx context.Context, sess Session, id string) (*dto.CompanyResponse, error) {
	company, err := s.load(ctx, sess, id)
	if err != nil {
		return nil, err
	}
	return toCompanyResponse(company), nil
}

// ────────────────────── List ──────────────────────

func (s *companyService) List(ctx context.Context, sess Session, req *dto.CompanyListRequest) ([]dto.CompanyResponse, int64, error) {
	filter := repository.CompanyFilter{
		CompanyID: sess.Scope(),
		Status:    req.Status,
		Search:    strings.TrimSpace(req.Search),
	}
	if !sess.IsAdmin() && sess.CompanyID == "" {
		return []dto.CompanyResponse{}, 0, nil
	}

	companies, total, err := s.repo.Company.List(ctx, filter, req.GetOffset(), req.GetPageSize())
	if err != nil {
		s.logger.Error("failed to list companies", zap.Error(err))
		return nil, 0, err
	}

	result := make([]dto.CompanyResponse, 0, len(companies))
	for i := range companies {
		result = append(result, *toCompanyResponse(&companies[i]))
	}
	return result, total, nil
}

// ────────────────────── Update ──────────────────────

func (s *companyService) Update(ctx context.Context, sess Session, id string, req *dto.UpdateCompanyRequest) (*dto.CompanyResponse, error) {
	company, err := s.load(ctx, sess, id)
	if err != nil {
		return nil, err
	}

	if req.LegalName != nil {
		company.LegalName = strings.TrimSpace(*req.LegalName)
	}
	if req.TradeName != nil {
		company.TradeName = strings.TrimSpace(*req.TradeName)
	}
	if req.TaxID != nil {
		taxID, err := normalizeTaxID(*req.TaxID)
		if err != nil {
			return nil, err
		}
		company.TaxID = taxID
	}
	if req.Status != nil {
		company.Status = *req.Status
	}
	company.Stamp(sess.UserID)

	if err := s.repo.Company.Update(ctx, company); err != nil {
		if _, dup := pkgerrors.UniqueViolation(err); dup {
			return nil, ErrTaxIDExists
		}
		s.logger.Error("failed to update company", zap.String("id", id), zap.Error(err))
		return nil, err
	}

	s.inv.invalidate(ctx)
	return toCompanyResponse(company), nil
}

// ────────────────────── Delete ──────────────────────

func (s *companyService) Delete(ctx context.Context, sess Session, id string) error {
	if !sess.IsAdmin() {
		return ErrForbiddenRole
	}
	if err := s.repo.Company.Delete(ctx, id); err != nil {
		if pkgerrors.IsNotFound(err) {
			return ErrCompanyNotFound
		}
		s.logger.Error("failed to delete company", zap.String("id", id), zap.Error(err))
		return err
	}

	s.logger.Info("company deleted", zap.String("id", id), zap.String("actor", sess.UserID))
	s.inv.invalidate(ctx)
	return nil
}

// ── helpers ──

func (s *companyService) load(ctx context.Context, sess Session, id string) (*model.Company, error) {
	company, err := s.repo.Company.GetByID(ctx, id)
	if err != nil {
		if pkgerrors.IsNotFound(err) {
			return nil, ErrCompanyNotFound
		}
		s.logger.Error("failed to load company", zap.String("id", id), zap.Error(err))
		return nil, err
	}
	if err := sess.Authorize(company.CompanyID); err != nil {
		return nil, err
	}
	return company, nil
}

func normalizeTaxID(raw string) (string, error) {
	if !model.ValidTaxID(raw) {
		return "", pkgerrors.NewValidation(pkgerrors.KindInvalidField, "invalid CNPJ", raw)
	}
	return model.NormalizeTaxID(raw), nil
}

func toCompanyResponse(c *model.Company) *dto.CompanyResponse {
	return &dto.CompanyResponse{
		ID:        c.CompanyID,
		LegalName: c.LegalName,
		TradeName: c.TradeName,
		TaxID:     c.TaxID,
		Status:    c.Status,
		CreatedAt: dto.FormatTime(c.CreatedAt),
		UpdatedAt: dto.FormatTime(c.UpdatedAt),
	}
}
