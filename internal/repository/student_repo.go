package repository

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/eddwmvv/projetovereler-sub001/internal/model"
)

// StudentFilter student list and report filters; zero values are ignored
type StudentFilter struct {
	ClassID        string
	SchoolID       string
	MunicipalityID string
	ProjectID      string
	CompanyID      string
	Phases         []model.Phase
	Sex            string
	Active         *bool
	Search         string
	CreatedFrom    *time.Time
	// CreatedTo is exclusive
	CreatedTo *time.Time
}

// StudentRepository student data access
type StudentRepository interface {
	CRUDRepository[model.Student]
	List(ctx context.Context, f StudentFilter, offset, limit int) ([]model.Student, int64, error)
	ListByIDs(ctx context.Context, ids []string) ([]model.Student, error)
}

type studentRepo struct {
	crudRepo[model.Student]
}

// NewStudentRepo creates a StudentRepository
func NewStudentRepo(db *gorm.DB) StudentRepository {
	return &studentRepo{newCRUDRepo[model.Student](db, "student_id")}
}

// List a limit of 0 returns every matching row
func (r *studentRepo) List(ctx context.Context, f StudentFilter, offset, limit int) ([]model.Student, int64, error) {
	var students []model.Student
	var total int64

	db := applyStudentFilter(r.db.WithContext(ctx).Model(&model.Student{}), f)
	if err := db.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	err := paginate(db.Order("full_name ASC, student_id ASC"), offset, limit).Find(&students).Error
	return students, total, err
}

func (r *studentRepo) ListByIDs(ctx context.Context, ids []string) ([]model.Student, error) {
	var students []model.Student
	if len(ids) == 0 {
		return students, nil
	}
	err := r.db.WithContext(ctx).Where("student_id IN ?", ids).Find(&students).Error
	return students, err
}

func applyStudentFilter(db *gorm.DB, f StudentFilter) *gorm.DB {
	if f.ClassID != "" {
		db = db.Where("class_id = ?", f.ClassID)
	}
	if f.SchoolID != "" {
		db = db.Where("school_id = ?", f.SchoolID)
	}
	if f.MunicipalityID != "" {
		db = db.Where("municipality_id = ?", f.MunicipalityID)
	}
	if f.ProjectID != "" {
		db = db.Where("project_id = ?", f.ProjectID)
	}
	if f.CompanyID != "" {
		db = db.Where("company_id = ?", f.CompanyID)
	}
	if len(f.Phases) > 0 {
		db = db.Where("phase IN ?", f.Phases)
	}
	if f.Sex != "" {
		db = db.Where("sex = ?", f.Sex)
	}
	if f.Active != nil {
		db = db.Where("is_active = ?", *f.Active)
	}
	if f.Search != "" {
		db = db.Where("full_name ILIKE ?", likePattern(f.Search))
	}
	if f.CreatedFrom != nil {
		db = db.Where("created_at >= ?", *f.CreatedFrom)
	}
	if f.CreatedTo != nil {
		db = db.Where("created_at < ?", *f.CreatedTo)
	}
	return db
}

// ────────────────────── PhaseHistory ──────────────────────

// PhaseHistoryRepository append-only phase history
type PhaseHistoryRepository interface {
	Create(ctx context.Context, h *model.PhaseHistory) error
	ListByStudent(ctx context.Context, studentID string) ([]model.PhaseHistory, error)
}

type phaseHistoryRepo struct {
	db *gorm.DB
}

// NewPhaseHistoryRepo creates a PhaseHistoryRepository
func NewPhaseHistoryRepo(db *gorm.DB) PhaseHistoryRepository {
	return &phaseHistoryRepo{db: db}
}

func (r *phaseHistoryRepo) Create(ctx context.Context, h *model.PhaseHistory) error {
	return r.db.WithContext(ctx).Create(h).Error
}

// ListByStudent newest first
func (r *phaseHistoryRepo) ListByStudent(ctx context.Context, studentID string) ([]model.PhaseHistory, error) {
	var rows []model.PhaseHistory
	err := r.db.WithContext(ctx).
		Where("student_id = ?", studentID).
		Order("created_at DESC, phase_history_id DESC").
		Find(&rows).Error
	return rows, err
}
