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
	ErrProjectNotFound = errors.New("project not found")
)

// ProjectService project registry
type ProjectService interface {
	Create(ctx context.Context, sess Session, req *dto.CreateProjectRequest) (*dto.ProjectResponse, error)
	GetByID(ctx context.Context, sess Session, id string) (*dto.ProjectResponse, error)
	List(ctx context.Context, sess Session, req *dto.ProjectListRequest) ([]dto.ProjectResponse, int64, error)
	Update(ctx context.Context, sess Session, id string, req *dto.UpdateProjectRequest) (*dto.ProjectResponse, error)
	SetMunicipalities(ctx context.Context, sess Session, id string, municipalityIDs []string) (*dto.ProjectResponse, error)
	Delete(ctx context.Context, sess Session, id string) error
}

type projectService struct {
	repo   *repository.Repository
	inv    reportInvalidator
	logger *zap.Logger
}

// NewProjectService creates a ProjectService
func NewProjectService(repo *repository.Repository, inv reportInvalidator, logger *zap.Logger) ProjectService {
	return &projectService{repo: repo, inv: inv, logger: logger}
}

// ────────────────────── Create ──────────────────────

func (s *projectService) Create(ctx context.Context, sess Session, req *dto.CreateProjectRequest) (*dto.ProjectResponse, error) {
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

	municipalities, err := resolveMunicipalities(ctx, s.repo, req.MunicipalityIDs)
	if err != nil {
		return nil, err
	}

	status := req.Status
	if status == "" {
		status = model.StatusActive
	}
	project := &model.Project{
		CompanyID:   req.CompanyID,
		Name:        strings.TrimSpace(req.Name),
		Description: req.Description,
		Cycle:       req.Cycle,
		Status:      status,
	}
	project.Stamp(sess.UserID)

	err = s.repo.Transaction(ctx, func(tx *repository.Repository) error {
		if err := tx.Project.Create(ctx, project); err != nil {
			return err
		}
		if len(municipalities) > 0 {
			return tx.Project.ReplaceMunicipalities(ctx, project, municipalities)
		}
		return nil
	})
	if err != nil {
		s.logger.Error("failed to create project", zap.Error(err))
		return nil, err
	}
	project.Municipalities = municipalities

	s.inv.invalidate(ctx)
	return toProjectResponse(project), nil
}

// ────────────────────── GetByID ──────────────────────

func (s *projectService) GetByID(ctx context.Context, sess Session, id string) (*dto.ProjectResponse, error) {
	project, err := s.load(ctx, sess, id)
	if err != nil {
		return nil, err
	}
	return toProjectResponse(project), nil
}

// ────────────────────── List ──────────────────────

func (s *projectService) List(ctx context.Context, sess Session, req *dto.ProjectListRequest) ([]dto.ProjectResponse, int64, error) {
	companyID, err := sess.scopedCompany(req.CompanyID)
	if err != nil {
		return nil, 0, err
	}

	projects, total, err := s.repo.Project.List(ctx, repository.ProjectFilter{
		CompanyID: companyID,
		Status:    req.Status,
	}, req.GetOffset(), req.GetPageSize())
	if err != nil {
		s.logger.Error("failed to list projects", zap.Error(err))
		return nil, 0, err
	}

	result := make([]dto.ProjectResponse, 0, len(projects))
	for i := range projects {
		result = append(result, *toProjectResponse(&projects[i]))
	}
	return result, total, nil
}

// ────────────────────── Update ──────────────────────

func (s *projectService) Update(ctx context.Context, sess Session, id string, req *dto.UpdateProjectRequest) (*dto.ProjectResponse, error) {
	project, err := s.load(ctx, sess, id)
	if err != nil {
		return nil, err
	}

	if req.Name != nil {
		project.Name = strings.TrimSpace(*req.Name)
	}
	if req.Description != nil {
		project.Description = *req.Description
	}
	if req.Cycle != nil {
		project.Cycle = *req.Cycle
	}
	if req.Status != nil {
		project.Status = *req.Status
	}
	project.Stamp(sess.UserID)

	if err := s.repo.Project.Update(ctx, project); err != nil {
		s.logger.Error("failed to update project", zap.String("id", id), zap.Error(err))
		return nil, err
	}

	s.inv.invalidate(ctx)
	return toProjectResponse(project), nil
}

// ────────────────────── SetMunicipalities ──────────────────────

func (s *projectService) SetMunicipalities(ctx context.Context, sess Session, id string, municipalityIDs []string) (*dto.ProjectResponse, error) {
	project, err := s.load(ctx, sess, id)
	if err != nil {
		return nil, err
	}

	municipalities, err := resolveMunicipalities(ctx, s.repo, municipalityIDs)
	if err != nil {
		return nil, err
	}

	if err := s.repo.Project.ReplaceMunicipalities(ctx, project, municipalities); err != nil {
		s.logger.Error("failed to link municipalities", zap.String("id", id), zap.Error(err))
		return nil, err
	}
	project.Municipalities = municipalities

	s.inv.invalidate(ctx)
	return toProjectResponse(project), nil
}

// ────────────────────── Delete ──────────────────────

func (s *projectService) Delete(ctx context.Context, sess Session, id string) error {
	if _, err := s.load(ctx, sess, id); err != nil {
		return err
	}
	if err := s.repo.Project.Delete(ctx, id); err != nil {
		if pkgerrors.IsNotFound(err) {
			return ErrProjectNotFound
		}
		s.logger.Error("failed to delete project", zap.String("id", id), zap.Error(err))
		return err
	}

	s.logger.Info("project deleted", zap.String("id", id), zap.String("actor", sess.UserID))
	s.inv.invalidate(ctx)
	return nil
}

// ── helpers ──

func (s *projectService) load(ctx context.Context, sess Session, id string) (*model.Project, error) {
	project, err := s.repo.Project.GetByID(ctx, id)
	if err != nil {
		if pkgerrors.IsNotFound(err) {
			return nil, ErrProjectNotFound
		}
		s.logger.Error("failed to load project", zap.String("id", id), zap.Error(err))
		return nil, err
	}
	if err := sess.Authorize(project.CompanyID); err != nil {
		return nil, err
	}
	return project, nil
}

// resolveMunicipalities loads every id, reporting all unknown ones together
func resolveMunicipalities(ctx context.Context, repo *repository.Repository, ids []string) ([]model.Municipality, error) {
	ids = uniqueStrings(ids)
	if len(ids) == 0 {
		return []model.Municipality{}, nil
	}
	found, err := repo.Municipality.ListByIDs(ctx, ids)
	if err != nil {
		return nil, err
	}
	known := make(map[string]bool, len(found))
	for _, m := range found {
		known[m.MunicipalityID] = true
	}
	var missing []string
	for _, id := range ids {
		if !known[id] {
			missing = append(missing, id)
		}
	}
	if len(missing) > 0 {
		return nil, pkgerrors.NewValidation(pkgerrors.KindReferenceMismatch, "unknown municipalities", missing...)
	}
	return found, nil
}

func uniqueStrings(in []string) []string {
	seen := make(map[string]bool, len(in))
	out := make([]string, 0, len(in))
	for _, v := range in {
		v = strings.TrimSpace(v)
		if v == "" || seen[v] {
			continue
		}
		seen[v] = true
		out = append(out, v)
	}
	return out
}

func toProjectResponse(p *model.Project) *dto.ProjectResponse {
	resp := &dto.ProjectResponse{
		ID:          p.ProjectID,
		CompanyID:   p.CompanyID,
		Name:        p.Name,
		Description: p.Description,
		Cycle:       p.Cycle,
		Status:      p.Status,
		CreatedAt:   dto.FormatTime(p.CreatedAt),
		UpdatedAt:   dto.FormatTime(p.UpdatedAt),
	}
	if p.Company != nil {
		resp.CompanyName = p.Company.LegalName
	}
	for i := range p.Municipalities {
		resp.Municipalities = append(resp.Municipalities, toMunicipalityResponse(&p.Municipalities[i]))
	}
	return resp
}
