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
	ErrSchoolNotFound = errors.New("school not found")
)

// SchoolService school registry
type SchoolService interface {
	Create(ctx context.Context, sess Session, req *dto.CreateSchoolRequest) (*dto.SchoolResponse, error)
	GetByID(ctx context.Context, sess Session, id string) (*dto.SchoolResponse, error)
	List(ctx context.Context, sess Session, req *dto.SchoolListRequest) ([]dto.SchoolResponse, int64, error)
	Update(ctx context.Context, sess Session, id string, req *dto.UpdateSchoolRequest) (*dto.SchoolResponse, error)
	Delete(ctx context.Context, sess Session, id string) error
}

type schoolService struct {
	repo   *repository.Repository
	inv    reportInvalidator
	logger *zap.Logger
}

// NewSchoolService creates a SchoolService
func NewSchoolService(repo *repository.Repository, inv reportInvalidator, logger *zap.Logger) SchoolService {
	return &schoolService{repo: repo, inv: inv, logger: logger}
}

// ────────────────────── Create ──────────────────────

func (s *schoolService) Create(ctx context.Context, sess Session, req *dto.CreateSchoolRequest) (*dto.SchoolResponse, error) {
	if err := sess.Authorize(req.CompanyID); err != nil {
		return nil, err
	}
	if _, err := s.repo.Company.GetByID(ctx, req.CompanyID); err != nil {
		if pkgerrors.IsNotFound(err) {
			return nil, ErrCompanyNotFound
		}
		s.logger.Error("failed to load company", zap.String("company_id", req.CompanyID), zap.Error(err))
		return nil, err
	}
	if _, err := s.repo.Municipality.GetByID(ctx, req.MunicipalityID); err != nil {
		if pkgerrors.IsNotFound(err) {
			return nil, ErrMunicipalityNotFound
		}
		s.logger.Error("failed to load municipality", zap.String("municipality_id", req.MunicipalityID), zap.Error(err))
		return nil, err
	}

	projects, err := s.resolveProjects(ctx, req.CompanyID, req.ProjectIDs)
	if err != nil {
		return nil, err
	}

	school := &model.School{
		Name:           strings.TrimSpace(req.Name),
		MunicipalityID: req.MunicipalityID,
		CompanyID:      req.CompanyID,
	}
	school.Stamp(sess.UserID)

	err = s.repo.Transaction(ctx, func(tx *repository.Repository) error {
		if err := tx.School.Create(ctx, school); err != nil {
			return err
		}
		if len(projects) > 0 {
			return tx.School.ReplaceProjects(ctx, school, projects)
		}
		return nil
	})
	if err != nil {
		s.logger.Error("failed to create school", zap.Error(err))
		return nil, err
	}
	school.Projects = projects

	s.inv.invalidate(ctx)
	return toSchoolResponse(school), nil
}

// ────────────────────── GetByID ──────────────────────

func (s *schoolService) GetByID(ctx context.Context, sess Session, id string) (*dto.SchoolResponse, error) {
	school, err := s.load(ctx, sess, id)
	if err != nil {
		return nil, err
	}
	return toSchoolResponse(school), nil
}

// ────────────────────── List ──────────────────────

func (s *schoolService) List(ctx context.Context, sess Session, req *dto.SchoolListRequest) ([]dto.SchoolResponse, int64, error) {
	companyID, err := sess.scopedCompany(req.CompanyID)
	if err != nil {
		return nil, 0, err
	}

	schools, total, err := s.repo.School.List(ctx, repository.SchoolFilter{
		MunicipalityID: req.MunicipalityID,
		CompanyID:      companyID,
		ProjectID:      req.ProjectID,
		Search:         strings.TrimSpace(req.Search),
	}, req.GetOffset(), req.GetPageSize())
	if err != nil {
		s.logger.Error("failed to list schools", zap.Error(err))
		return nil, 0, err
	}

	result := make([]dto.SchoolResponse, 0, len(schools))
	for i := range schools {
		result = append(result, *toSchoolResponse(&schools[i]))
	}
	return result, total, nil
}

// ────────────────────── Update ──────────────────────

func (s *schoolService) Update(ctx context.Context, sess Session, id string, req *dto.UpdateSchoolRequest) (*dto.SchoolResponse, error) {
	school, err := s.load(ctx, sess, id)
	if err != nil {
		return nil, err
	}

	if req.Name != nil {
		school.Name = strings.TrimSpace(*req.Name)
	}
	if req.MunicipalityID != nil && *req.MunicipalityID != school.MunicipalityID {
		if _, err := s.repo.Municipality.GetByID(ctx, *req.MunicipalityID); err != nil {
			if pkgerrors.IsNotFound(err) {
				return nil, ErrMunicipalityNotFound
			}
			return nil, err
		}
		school.MunicipalityID = *req.MunicipalityID
		school.Municipality = nil
	}

	var projects []model.Project
	if req.ProjectIDs != nil {
		if projects, err = s.resolveProjects(ctx, school.CompanyID, *req.ProjectIDs); err != nil {
			return nil, err
		}
	}
	school.Stamp(sess.UserID)

	err = s.repo.Transaction(ctx, func(tx *repository.Repository) error {
		if err := tx.School.Update(ctx, school); err != nil {
			return err
		}
		if req.ProjectIDs != nil {
			return tx.School.ReplaceProjects(ctx, school, projects)
		}
		return nil
	})
	if err != nil {
		s.logger.Error("failed to update school", zap.String("id", id), zap.Error(err))
		return nil, err
	}
	if req.ProjectIDs != nil {
		school.Projects = projects
	}

	s.inv.invalidate(ctx)
	return toSchoolResponse(school), nil
}

// ────────────────────── Delete ──────────────────────

func (s *schoolService) Delete(ctx context.Context, sess Session, id string) error {
	if _, err := s.load(ctx, sess, id); err != nil {
		return err
	}
	if err := s.repo.School.Delete(ctx, id); err != nil {
		if pkgerrors.IsNotFound(err) {
			return ErrSchoolNotFound
		}
		s.logger.Error("failed to delete school", zap.String("id", id), zap.Error(err))
		return err
	}

	s.inv.invalidate(ctx)
	return nil
}

// ── helpers ──

func (s *schoolService) load(ctx context.Context, sess Session, id string) (*model.School, error) {
	school, err := s.repo.School.GetByID(ctx, id)
	if err != nil {
		if pkgerrors.IsNotFound(err) {
			return nil, ErrSchoolNotFound
		}
		s.logger.Error("failed to load school", zap.String("id", id), zap.Error(err))
		return nil, err
	}
	if err := sess.Authorize(school.CompanyID); err != nil {
		return nil, err
	}
	return school, nil
}

// resolveProjects loads the linked projects; unknown ones and projects of
// another company are reported together
func (s *schoolService) resolveProjects(ctx context.Context, companyID string, ids []string) ([]model.Project, error) {
	ids = uniqueStrings(ids)
	if len(ids) == 0 {
		return []model.Project{}, nil
	}
	found, err := s.repo.Project.ListByIDs(ctx, ids)
	if err != nil {
		s.logger.Error("failed to load projects", zap.Error(err))
		return nil, err
	}

	byID := make(map[string]model.Project, len(found))
	for _, p := range found {
		byID[p.ProjectID] = p
	}
	var bad []string
	projects := make([]model.Project, 0, len(ids))
	for _, id := range ids {
		p, ok := byID[id]
		if !ok || p.CompanyID != companyID {
			bad = append(bad, id)
			continue
		}
		projects = append(projects, p)
	}
	if len(bad) > 0 {
		return nil, pkgerrors.NewValidation(pkgerrors.KindReferenceMismatch, "projects must exist and belong to the school's company", bad...)
	}
	return projects, nil
}

func toSchoolResponse(school *model.School) *dto.SchoolResponse {
	resp := &dto.SchoolResponse{
		ID:             school.SchoolID,
		Name:           school.Name,
		MunicipalityID: school.MunicipalityID,
		CompanyID:      school.CompanyID,
		ProjectIDs:     make([]string, 0, len(school.Projects)),
		CreatedAt:      dto.FormatTime(school.CreatedAt),
		UpdatedAt:      dto.FormatTime(school.UpdatedAt),
	}
	if school.Municipality != nil {
		resp.MunicipalityName = school.Municipality.Name
	}
	for _, p := range school.Projects {
		resp.ProjectIDs = append(resp.ProjectIDs, p.ProjectID)
	}
	return resp
}
