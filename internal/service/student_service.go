package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"go.uber.org/zap"
	"gorm.io/datatypes"

	"github.com/eddwmvv/projetovereler-sub001/internal/dto"
	"github.com/eddwmvv/projetovereler-sub001/internal/model"
	"github.com/eddwmvv/projetovereler-sub001/internal/repository"
	pkgerrors "github.com/eddwmvv/projetovereler-sub001/pkg/errors"
)

var (
	ErrStudentNotFound      = errors.New("student not found")
	ErrStudentInactive      = errors.New("student is inactive")
	ErrStudentAlreadyActive = errors.New("student is already active")
)

// StudentService student registry. Phase changes, deactivation and
// reactivation belong to LifecycleService.
type StudentService interface {
	Create(ctx context.Context, sess Session, req *dto.CreateStudentRequest) (*dto.StudentResponse, error)
	GetByID(ctx context.Context, sess Session, id string) (*dto.StudentResponse, error)
	List(ctx context.Context, sess Session, req *dto.StudentListRequest) ([]dto.StudentResponse, int64, error)
	Update(ctx context.Context, sess Session, id string, req *dto.UpdateStudentRequest) (*dto.StudentResponse, error)
	Delete(ctx context.Context, sess Session, id string) error
}

type studentService struct {
	repo   *repository.Repository
	inv    reportInvalidator
	logger *zap.Logger
}

// NewStudentService creates a StudentService
func NewStudentService(repo *repository.Repository, inv reportInvalidator, logger *zap.Logger) StudentService {
	return &studentService{repo: repo, inv: inv, logger: logger}
}

// ────────────────────── Create ──────────────────────

func (s *studentService) Create(ctx context.Context, sess Session, req *dto.CreateStudentRequest) (*dto.StudentResponse, error) {
	birth, err := parseBirthDate(req.BirthDate)
	if err != nil {
		return nil, err
	}

	student := &model.Student{
		FullName:     strings.TrimSpace(req.FullName),
		Sex:          req.Sex,
		BirthDate:    birth,
		GuardianName: strings.TrimSpace(req.GuardianName),
		Phase:        model.PhaseScreening,
		PhaseStatus:  model.PhaseStatusPending,
		IsActive:     true,
	}
	if err := s.place(ctx, sess, student, req.ClassID, req.ProjectID); err != nil {
		return nil, err
	}
	student.Stamp(sess.UserID)

	err = s.repo.Transaction(ctx, func(tx *repository.Repository) error {
		if err := tx.Student.Create(ctx, student); err != nil {
			return err
		}
		return tx.PhaseHistory.Create(ctx, &model.PhaseHistory{
			StudentID: student.StudentID,
			Phase:     student.Phase,
			Status:    student.PhaseStatus,
			Notes:     "registered",
			ActorID:   actorRef(sess),
		})
	})
	if err != nil {
		s.logger.Error("failed to create student", zap.Error(err))
		return nil, err
	}

	s.inv.invalidate(ctx)
	return toStudentResponse(student), nil
}

// ────────────────────── GetByID ──────────────────────

func (s *studentService) GetByID(ctx context.Context, sess Session, id string) (*dto.StudentResponse, error) {
	student, err := loadStudent(ctx, s.repo, sess, id, s.logger)
	if err != nil {
		return nil, err
	}
	return toStudentResponse(student), nil
}

// ────────────────────── List ──────────────────────

func (s *studentService) List(ctx context.Context, sess Session, req *dto.StudentListRequest) ([]dto.StudentResponse, int64, error) {
	companyID, err := sess.scopedCompany(req.CompanyID)
	if err != nil {
		return nil, 0, err
	}

	filter := repository.StudentFilter{
		ClassID:        req.ClassID,
		SchoolID:       req.SchoolID,
		MunicipalityID: req.MunicipalityID,
		ProjectID:      req.ProjectID,
		CompanyID:      companyID,
		Active:         req.Active,
		Search:         strings.TrimSpace(req.Search),
	}
	if req.Phase != "" {
		filter.Phases = []model.Phase{model.Phase(req.Phase)}
	}

	students, total, err := s.repo.Student.List(ctx, filter, req.GetOffset(), req.GetPageSize())
	if err != nil {
		s.logger.Error("failed to list students", zap.Error(err))
		return nil, 0, err
	}

	result := make([]dto.StudentResponse, 0, len(students))
	for i := range students {
		result = append(result, *toStudentResponse(&students[i]))
	}
	return result, total, nil
}

// ────────────────────── Update ──────────────────────

func (s *studentService) Update(ctx context.Context, sess Session, id string, req *dto.UpdateStudentRequest) (*dto.StudentResponse, error) {
	student, err := loadStudent(ctx, s.repo, sess, id, s.logger)
	if err != nil {
		return nil, err
	}

	if req.FullName != nil {
		student.FullName = strings.TrimSpace(*req.FullName)
	}
	if req.Sex != nil {
		student.Sex = *req.Sex
	}
	if req.GuardianName != nil {
		student.GuardianName = strings.TrimSpace(*req.GuardianName)
	}
	if req.BirthDate != nil {
		if student.BirthDate, err = parseBirthDate(*req.BirthDate); err != nil {
			return nil, err
		}
	}
	if req.ClassID != nil || req.ProjectID != nil {
		classID, projectID := student.ClassID, student.ProjectID
		if req.ClassID != nil {
			classID = *req.ClassID
		}
		if req.ProjectID != nil {
			projectID = *req.ProjectID
		}
		if err := s.place(ctx, sess, student, classID, projectID); err != nil {
			return nil, err
		}
	}
	student.Stamp(sess.UserID)

	if err := s.repo.Student.Update(ctx, student); err != nil {
		s.logger.Error("failed to update student", zap.String("id", id), zap.Error(err))
		return nil, err
	}

	s.inv.invalidate(ctx)
	return toStudentResponse(student), nil
}

// ────────────────────── Delete ──────────────────────

func (s *studentService) Delete(ctx context.Context, sess Session, id string) error {
	if _, err := loadStudent(ctx, s.repo, sess, id, s.logger); err != nil {
		return err
	}
	if err := s.repo.Student.Delete(ctx, id); err != nil {
		if pkgerrors.IsNotFound(err) {
			return ErrStudentNotFound
		}
		s.logger.Error("failed to delete student", zap.String("id", id), zap.Error(err))
		return err
	}

	s.logger.Info("student deleted", zap.String("id", id), zap.String("actor", sess.UserID))
	s.inv.invalidate(ctx)
	return nil
}

// ── helpers ──

// place derives school, municipality and company from the class and checks
// that the project belongs to the same company
func (s *studentService) place(ctx context.Context, sess Session, student *model.Student, classID, projectID string) error {
	class, err := s.repo.Class.GetByID(ctx, classID)
	if err != nil {
		if pkgerrors.IsNotFound(err) {
			return ErrClassNotFound
		}
		s.logger.Error("failed to load class", zap.String("class_id", classID), zap.Error(err))
		return err
	}
	school := class.School
	if school == nil {
		if school, err = s.repo.School.GetByID(ctx, class.SchoolID); err != nil {
			if pkgerrors.IsNotFound(err) {
				return ErrSchoolNotFound
			}
			return err
		}
	}
	if err := sess.Authorize(school.CompanyID); err != nil {
		return err
	}

	project, err := s.repo.Project.GetByID(ctx, projectID)
	if err != nil {
		if pkgerrors.IsNotFound(err) {
			return ErrProjectNotFound
		}
		s.logger.Error("failed to load project", zap.String("project_id", projectID), zap.Error(err))
		return err
	}
	if project.CompanyID != school.CompanyID {
		return pkgerrors.NewValidation(pkgerrors.KindReferenceMismatch,
			"project does not belong to the company of the student's school", projectID)
	}

	student.ClassID = class.ClassID
	student.SchoolID = school.SchoolID
	student.MunicipalityID = school.MunicipalityID
	student.CompanyID = school.CompanyID
	student.ProjectID = project.ProjectID
	return nil
}

// loadStudent maps not-found and checks the caller's company
func loadStudent(ctx context.Context, repo *repository.Repository, sess Session, id string, logger *zap.Logger) (*model.Student, error) {
	student, err := repo.Student.GetByID(ctx, id)
	if err != nil {
		if pkgerrors.IsNotFound(err) {
			return nil, ErrStudentNotFound
		}
		logger.Error("failed to load student", zap.String("id", id), zap.Error(err))
		return nil, err
	}
	if err := sess.Authorize(student.CompanyID); err != nil {
		return nil, err
	}
	return student, nil
}

func parseBirthDate(raw string) (*datatypes.Date, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, nil
	}
	t, err := time.Parse(dto.DateLayout, raw)
	if err != nil {
		return nil, pkgerrors.NewValidation(pkgerrors.KindInvalidField, "birth_date must be YYYY-MM-DD", raw)
	}
	if t.After(time.Now()) {
		return nil, pkgerrors.NewValidation(pkgerrors.KindInvalidField, "birth_date is in the future", raw)
	}
	d := datatypes.Date(t)
	return &d, nil
}

func actorRef(sess Session) *string {
	if sess.UserID == "" {
		return nil
	}
	id := sess.UserID
	return &id
}

func toStudentResponse(st *model.Student) *dto.StudentResponse {
	resp := &dto.StudentResponse{
		ID:                 st.StudentID,
		ClassID:            st.ClassID,
		SchoolID:           st.SchoolID,
		MunicipalityID:     st.MunicipalityID,
		ProjectID:          st.ProjectID,
		CompanyID:          st.CompanyID,
		FullName:           st.FullName,
		Sex:                st.Sex,
		GuardianName:       st.GuardianName,
		Phase:              string(st.Phase),
		PhaseStatus:        string(st.PhaseStatus),
		InterruptionReason: st.InterruptionReason,
		IsActive:           st.IsActive,
		DeactivatedAt:      dto.FormatTimePtr(st.DeactivatedAt),
		DeactivationReason: st.DeactivationReason,
		CreatedAt:          dto.FormatTime(st.CreatedAt),
		UpdatedAt:          dto.FormatTime(st.UpdatedAt),
	}
	if st.BirthDate != nil {
		resp.BirthDate = time.Time(*st.BirthDate).Format(dto.DateLayout)
	}
	if st.DeactivatedBy != nil {
		resp.DeactivatedBy = *st.DeactivatedBy
	}
	return resp
}
