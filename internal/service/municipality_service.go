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
	ErrMunicipalityNotFound = errors.New("municipality not found")
	ErrMunicipalityExists   = errors.New("municipality already registered for this state")
)

// MunicipalityService municipality registry. Municipalities are shared by
// every tenant; deleting one cascades to its schools, classes and students.
type MunicipalityService interface {
	Create(ctx context.Context, sess Session, req *dto.CreateMunicipalityRequest) (*dto.MunicipalityResponse, error)
	GetByID(ctx context.Context, id string) (*dto.MunicipalityResponse, error)
	List(ctx context.Context, sess Session, req *dto.MunicipalityListRequest) ([]dto.MunicipalityResponse, error)
	Update(ctx context.Context, sess Session, id string, req *dto.UpdateMunicipalityRequest) (*dto.MunicipalityResponse, error)
	Delete(ctx context.Context, sess Session, id string) error
}

type municipalityService struct {
	repo   *repository.Repository
	inv    reportInvalidator
	logger *zap.Logger
}

// NewMunicipalityService creates a MunicipalityService
func NewMunicipalityService(repo *repository.Repository, inv reportInvalidator, logger *zap.Logger) MunicipalityService {
	return &municipalityService{repo: repo, inv: inv, logger: logger}
}

func (s *municipalityService) Create(ctx context.Context, sess Session, req *dto.CreateMunicipalityRequest) (*dto.MunicipalityResponse, error) {
	m := &model.Municipality{
		Name:      strings.TrimSpace(req.Name),
		StateCode: strings.ToUpper(req.StateCode),
	}
	m.Stamp(sess.UserID)

	if err := s.repo.Municipality.Create(ctx, m); err != nil {
		if _, dup := pkgerrors.UniqueViolation(err); dup {
			return nil, ErrMunicipalityExists
		}
		s.logger.Error("failed to create municipality", zap.Error(err))
		return nil, err
	}

	resp := toMunicipalityResponse(m)
	return &resp, nil
}

func (s *municipalityService) GetByID(ctx context.Context, id string) (*dto.MunicipalityResponse, error) {
	m, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	resp := toMunicipalityResponse(m)
	return &resp, nil
}

func (s *municipalityService) List(ctx context.Context, sess Session, req *dto.MunicipalityListRequest) ([]dto.MunicipalityResponse, error) {
	list, err := s.repo.Municipality.List(ctx, repository.MunicipalityFilter{
		ProjectID: req.ProjectID,
		StateCode: strings.ToUpper(req.StateCode),
		CompanyID: sess.Scope(),
	})
	if err != nil {
		s.logger.Error("failed to list municipalities", zap.Error(err))
		return nil, err
	}

	result := make([]dto.MunicipalityResponse, 0, len(list))
	for i := range list {
		result = append(result, toMunicipalityResponse(&list[i]))
	}
	return result, nil
}

func (s *municipalityService) Update(ctx context.Context, sess Session, id string, req *dto.UpdateMunicipalityRequest) (*dto.MunicipalityResponse, error) {
	m, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}

	if req.Name != nil {
		m.Name = strings.TrimSpace(*req.Name)
	}
	if req.StateCode != nil {
		m.StateCode = strings.ToUpper(*req.StateCode)
	}
	m.Stamp(sess.UserID)

	if err := s.repo.Municipality.Update(ctx, m); err != nil {
		if _, dup := pkgerrors.UniqueViolation(err); dup {
			return nil, ErrMunicipalityExists
		}
		s.logger.Error("failed to update municipality", zap.String("id", id), zap.Error(err))
		return nil, err
	}

	s.inv.invalidate(ctx)
	resp := toMunicipalityResponse(m)
	return &resp, nil
}

func (s *municipalityService) Delete(ctx context.Context, sess Session, id string) error {
	if !sess.IsAdmin() {
		return ErrForbiddenRole
	}
	if err := s.repo.Municipality.Delete(ctx, id); err != nil {
		if pkgerrors.IsNotFound(err) {
			return ErrMunicipalityNotFound
		}
		s.logger.Error("failed to delete municipality", zap.String("id", id), zap.Error(err))
		return err
	}

	s.logger.Info("municipality deleted with its schools and students", zap.String("id", id), zap.String("actor", sess.UserID))
	s.inv.invalidate(ctx)
	return nil
}

func (s *municipalityService) load(ctx context.Context, id string) (*model.Municipality, error) {
	m, err := s.repo.Municipality.GetByID(ctx, id)
	if err != nil {
		if pkgerrors.IsNotFound(err) {
			return nil, ErrMunicipalityNotFound
		}
		s.logger.Error("failed to load municipality", zap.String("id", id), zap.Error(err))
		return nil, err
	}
	return m, nil
}

func toMunicipalityResponse(m *model.Municipality) dto.MunicipalityResponse {
	return dto.MunicipalityResponse{
		ID:        m.MunicipalityID,
		Name:      m.Name,
		StateCode: m.StateCode,
	}
}
