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
	ErrClassNotFound = errors.New("class not found")
)

// ClassService class ("turma") registry
type ClassService interface {
	Create(ctx context.Context, sess Session, req *dto.CreateClassRequest) (*dto.ClassResponse, error)
	GetByID(ctx context.Context, sess Session, id string) (*dto.ClassResponse, error)
	List(ctx context.Context, sess Session, req *dto.ClassListRequest) ([]dto.ClassResponse, error)
	Update(ctx context.Context, sess Session, id string, req *dto.UpdateClassRequest) (*dto.ClassResponse, error)
	Delete(ctx context.Context, sess Session, id string) error
}

type classService struct {
	repo   *repository.Repository
	inv    reportInvalidator
	logger *zap.Logger
}

// NewClassService creates a ClassService
func NewClassService(repo *repository.Repository, inv reportInvalidator, logger *zap.Logger) ClassService {
	return &classService{repo: repo, inv: inv, logger: logger}
}

func (s *classService) Create(ctx context.Context, sess Session, req *dto.CreateClassRequest) (*dto.ClassResponse, error) {
	school, err := s.repo.School.GetByID(ctx, req.SchoolID)
	if err != nil {
		if pkgerrors.IsNotFound(err) {
			return nil, ErrSchoolNotFound
		}
		s.logger.Error("failed to load school", zap.String("school_id", req.SchoolID), zap.Error(err))
		return nil, err
	}
	if err := sess.Authorize(school.CompanyID); err != nil {
		return nil, err
	}

	status := req.Status
	if status == "" {
		status = model.StatusActive
	}
	class := &model.Class{
		SchoolID:   req.SchoolID,
		Name:       strings.TrimSpace(req.Name),
		Grade:      req.Grade,
		Shift:      req.Shift,
		SchoolYear: req.SchoolYear,
		Status:     status,
	}
	class.Stamp(sess.UserID)

	if err := s.repo.Class.Create(ctx, class); err != nil {
		s.logger.Error("failed to create class", zap.Error(err))
		return nil, err
	}
	return toClassResponse(class), nil
}

func (s *classService) GetByID(ctx context.Context, sess Session, id string) (*dto.ClassResponse, error) {
	class, err := s.load(ctx, sess, id)
	if err != nil {
		return nil, err
	}
	return toClassResponse(class), nil
}

func (s *classService) List(ctx context.Context, sess Session, req *dto.ClassListRequest) ([]dto.ClassResponse, error) {
	classes, err := s.repo.Class.List(ctx, repository.ClassFilter{
		SchoolID:   req.SchoolID,
		CompanyID:  sess.Scope(),
		SchoolYear: req.SchoolYear,
		Status:     req.Status,
	})
	if err != nil {
		s.logger.Error("failed to list classes", zap.Error(err))
		return nil, err
	}

	result := make([]dto.ClassResponse, 0, len(classes))
	for i := range classes {
		result = append(result, *toClassResponse(&classes[i]))
	}
	return result, nil
}

func (s *classService) Update(ctx context.Context, sess Session, id string, req *dto.UpdateClassRequest) (*dto.ClassResponse, error) {
	class, err := s.load(ctx, sess, id)
	if err != nil {
		return nil, err
	}

	if req.Name != nil {
		class.Name = strings.TrimSpace(*req.Name)
	}
	if req.Grade != nil {
		class.Grade = *req.Grade
	}
	if req.Shift != nil {
		class.Shift = *req.Shift
	}
	if req.SchoolYear != nil {
		class.SchoolYear = *req.SchoolYear
	}
	if req.Status != nil {
		class.Status = *req.Status
	}
	class.Stamp(sess.UserID)

	if err := s.repo.Class.Update(ctx, class); err != nil {
		s.logger.Error("failed to update class", zap.String("id", id), zap.Error(err))
		return nil, err
	}
	return toClassResponse(class), nil
}

func (s *classService) Delete(ctx context.Context, sess Session, id string) error {
	if _, err := s.load(ctx, sess, id); err != nil {
		return err
	}
	if err := s.repo.Class.Delete(ctx, id); err != nil {
		if pkgerrors.IsNotFound(err) {
			return ErrClassNotFound
		}
		s.logger.Error("failed to delete class", zap.String("id", id), zap.Error(err))
		return err
	}

	s.inv.invalidate(ctx)
	return nil
}

// load returns the class with its school, checking the school's company
func (s *classService) load(ctx context.Context, sess Session, id string) (*model.Class, error) {
	class, err := s.repo.Class.GetByID(ctx, id)
	if err != nil {
		if pkgerrors.IsNotFound(err) {
			return nil, ErrClassNotFound
		}
		s.logger.Error("failed to load class", zap.String("id", id), zap.Error(err))
		return nil, err
	}
	if class.School == nil {
		if class.School, err = s.repo.School.GetByID(ctx, class.SchoolID); err != nil {
			return nil, err
		}
	}
	if err := sess.Authorize(class.School.CompanyID); err != nil {
		return nil, err
	}
	return class, nil
}

func toClassResponse(c *model.Class) *dto.ClassResponse {
	return &dto.ClassResponse{
		ID:         c.ClassID,
		SchoolID:   c.SchoolID,
		Name:       c.Name,
		Grade:      c.Grade,
		Shift:      c.Shift,
		SchoolYear: c.SchoolYear,
		Status:     c.Status,
		CreatedAt:  dto.FormatTime(c.CreatedAt),
		UpdatedAt:  dto.FormatTime(c.UpdatedAt),
	}
}
