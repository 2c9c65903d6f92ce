package repository

import (
	"context"

	"gorm.io/gorm"
)

// Repository aggregate of every repository
type Repository struct {
	db *gorm.DB

	User         UserRepository
	Company      CompanyRepository
	Project      ProjectRepository
	Municipality MunicipalityRepository
	School       SchoolRepository
	Class        ClassRepository
	Student      StudentRepository
	PhaseHistory PhaseHistoryRepository
	Frame        FrameRepository
	FrameSize    FrameSizeRepository
	FrameHistory FrameHistoryRepository
	Report       ReportRepository
}

// NewRepository creates the aggregate over db
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{
		db:           db,
		User:         NewUserRepo(db),
		Company:      NewCompanyRepo(db),
		Project:      NewProjectRepo(db),
		Municipality: NewMunicipalityRepo(db),
		School:       NewSchoolRepo(db),
		Class:        NewClassRepo(db),
		Student:      NewStudentRepo(db),
		PhaseHistory: NewPhaseHistoryRepo(db),
		Frame:        NewFrameRepo(db),
		FrameSize:    NewFrameSizeRepo(db),
		FrameHistory: NewFrameHistoryRepo(db),
		Report:       NewReportRepo(db),
	}
}

// Transaction runs fn against repositories bound to one transaction.
// Nested calls become savepoints. An aggregate built without a database
// (tests) runs fn against itself.
func (r *Repository) Transaction(ctx context.Context, fn func(tx *Repository) error) error {
	if r.db == nil {
		return fn(r)
	}
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(NewRepository(tx))
	})
}
