package repository

import (
	"context"

	"gorm.io/gorm"

	"github.com/eddwmvv/projetovereler-sub001/internal/model"
)

// ────────────────────── Company ──────────────────────

// CompanyFilter company list filters
type CompanyFilter struct {
	CompanyID string
	Status    string
	Search    string
}

// CompanyRepository company data access
type CompanyRepository interface {
	CRUDRepository[model.Company]
	List(ctx context.Context, f CompanyFilter, offset, limit int) ([]model.Company, int64, error)
}

type companyRepo struct {
	crudRepo[model.Company]
}

// NewCompanyRepo creates a CompanyRepository
func NewCompanyRepo(db *gorm.DB) CompanyRepository {
	return &companyRepo{newCRUDRepo[model.Company](db, "company_id")}
}

func (r *companyRepo) List(ctx context.Context, f CompanyFilter, offset, limit int) ([]model.Company, int64, error) {
	var companies []model.Company
	var total int64

	db := r.db.WithContext(ctx).Model(&model.Company{})
	if f.CompanyID != "" {
		db = db.Where("company_id = ?", f.CompanyID)
	}
	if f.Status != "" {
		db = db.Where("status = ?", f.Status)
	}
	if f.Search != "" {
		p := likePattern(f.Search)
		db = db.Where("legal_name ILIKE ? OR trade_name ILIKE ? OR tax_id LIKE ?", p, p, p)
	}

	if err := db.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	err := paginate(db.Order("legal_name ASC"), offset, limit).Find(&companies).Error
	return companies, total, err
}

// ────────────────────── Project ──────────────────────

// ProjectFilter project list filters
type ProjectFilter struct {
	CompanyID string
	Status    string
}

// ProjectRepository project data access
type ProjectRepository interface {
	CRUDRepository[model.Project]
	List(ctx context.Context, f ProjectFilter, offset, limit int) ([]model.Project, int64, error)
	ListByIDs(ctx context.Context, ids []string) ([]model.Project, error)
	ReplaceMunicipalities(ctx context.Context, project *model.Project, municipalities []model.Municipality) error
}

type projectRepo struct {
	crudRepo[model.Project]
}

// NewProjectRepo creates a ProjectRepository
func NewProjectRepo(db *gorm.DB) ProjectRepository {
	return &projectRepo{newCRUDRepo[model.Project](db, "project_id", "Company", "Municipalities")}
}

func (r *projectRepo) List(ctx context.Context, f ProjectFilter, offset, limit int) ([]model.Project, int64, error) {
	var projects []model.Project
	var total int64

	db := r.db.WithContext(ctx).Model(&model.Project{})
	if f.CompanyID != "" {
		db = db.Where("company_id = ?", f.CompanyID)
	}
	if f.Status != "" {
		db = db.Where("status = ?", f.Status)
	}

	if err := db.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	err := paginate(db.Preload("Company").Order("created_at DESC"), offset, limit).Find(&projects).Error
	return projects, total, err
}

func (r *projectRepo) ListByIDs(ctx context.Context, ids []string) ([]model.Project, error) {
	var projects []model.Project
	if len(ids) == 0 {
		return projects, nil
	}
	err := r.db.WithContext(ctx).Where("project_id IN ?", ids).Find(&projects).Error
	return projects, err
}

func (r *projectRepo) ReplaceMunicipalities(ctx context.Context, project *model.Project, municipalities []model.Municipality) error {
	return r.db.WithContext(ctx).Model(project).Association("Municipalities").Replace(municipalities)
}

// ────────────────────── Municipality ──────────────────────

// MunicipalityFilter municipality list filters
type MunicipalityFilter struct {
	ProjectID string
	StateCode string
	// CompanyID restricts to municipalities linked to the company's projects
	CompanyID string
}

// MunicipalityRepository municipality data access
type MunicipalityRepository interface {
	CRUDRepository[model.Municipality]
	List(ctx context.Context, f MunicipalityFilter) ([]model.Municipality, error)
	ListByIDs(ctx context.Context, ids []string) ([]model.Municipality, error)
}

type municipalityRepo struct {
	crudRepo[model.Municipality]
}

// NewMunicipalityRepo creates a MunicipalityRepository
func NewMunicipalityRepo(db *gorm.DB) MunicipalityRepository {
	return &municipalityRepo{newCRUDRepo[model.Municipality](db, "municipality_id")}
}

func (r *municipalityRepo) List(ctx context.Context, f MunicipalityFilter) ([]model.Municipality, error) {
	var municipalities []model.Municipality

	db := r.db.WithContext(ctx).Model(&model.Municipality{})
	if f.ProjectID != "" {
		db = db.Where("municipality_id IN (?)",
			r.db.Table("project_municipalities").Select("municipality_id").Where("project_id = ?", f.ProjectID))
	}
	if f.CompanyID != "" {
		db = db.Where("municipality_id IN (?)",
			r.db.Table("project_municipalities pm").
				Select("pm.municipality_id").
				Joins("JOIN projects p ON p.project_id = pm.project_id").
				Where("p.company_id = ?", f.CompanyID))
	}
	if f.StateCode != "" {
		db = db.Where("state_code = ?", f.StateCode)
	}

	err := db.Order("state_code ASC, name ASC").Find(&municipalities).Error
	return municipalities, err
}

func (r *municipalityRepo) ListByIDs(ctx context.Context, ids []string) ([]model.Municipality, error) {
	var municipalities []model.Municipality
	if len(ids) == 0 {
		return municipalities, nil
	}
	err := r.db.WithContext(ctx).Where("municipality_id IN ?", ids).Find(&municipalities).Error
	return municipalities, err
}

// ────────────────────── School ──────────────────────

// SchoolFilter school list filters
type SchoolFilter struct {
	MunicipalityID string
	CompanyID      string
	ProjectID      string
	Search         string
}

// SchoolRepository school data access
type SchoolRepository interface {
	CRUDRepository[model.School]
	List(ctx context.Context, f SchoolFilter, offset, limit int) ([]model.School, int64, error)
	ReplaceProjects(ctx context.Context, school *model.School, projects []model.Project) error
}

type schoolRepo struct {
	crudRepo[model.School]
}

// NewSchoolRepo creates a SchoolRepository
func NewSchoolRepo(db *gorm.DB) SchoolRepository {
	return &schoolRepo{newCRUDRepo[model.School](db, "school_id", "Municipality", "Projects")}
}

func (r *schoolRepo) List(ctx context.Context, f SchoolFilter, offset, limit int) ([]model.School, int64, error) {
	var schools []model.School
	var total int64

	db := r.db.WithContext(ctx).Model(&model.School{})
	if f.MunicipalityID != "" {
		db = db.Where("municipality_id = ?", f.MunicipalityID)
	}
	if f.CompanyID != "" {
		db = db.Where("company_id = ?", f.CompanyID)
	}
	if f.ProjectID != "" {
		db = db.Where("school_id IN (?)",
			r.db.Table("project_schools").Select("school_id").Where("project_id = ?", f.ProjectID))
	}
	if f.Search != "" {
		db = db.Where("name ILIKE ?", likePattern(f.Search))
	}

	if err := db.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	err := paginate(db.Preload("Municipality").Preload("Projects").Order("name ASC"), offset, limit).
		Find(&schools).Error
	return schools, total, err
}

func (r *schoolRepo) ReplaceProjects(ctx context.Context, school *model.School, projects []model.Project) error {
	return r.db.WithContext(ctx).Model(school).Association("Projects").Replace(projects)
}

// ────────────────────── Class ──────────────────────

// ClassFilter class list filters
type ClassFilter struct {
	SchoolID   string
	CompanyID  string
	SchoolYear int
	Status     string
}

// ClassRepository class data access
type ClassRepository interface {
	CRUDRepository[model.Class]
	List(ctx context.Context, f ClassFilter) ([]model.Class, error)
}

type classRepo struct {
	crudRepo[model.Class]
}

// NewClassRepo creates a ClassRepository
func NewClassRepo(db *gorm.DB) ClassRepository {
	return &classRepo{newCRUDRepo[model.Class](db, "class_id", "School")}
}

func (r *classRepo) List(ctx context.Context, f ClassFilter) ([]model.Class, error) {
	var classes []model.Class

	db := r.db.WithContext(ctx).Model(&model.Class{})
	if f.SchoolID != "" {
		db = db.Where("school_id = ?", f.SchoolID)
	}
	if f.CompanyID != "" {
		db = db.Where("school_id IN (?)",
			r.db.Model(&model.School{}).Select("school_id").Where("company_id = ?", f.CompanyID))
	}
	if f.SchoolYear != 0 {
		db = db.Where("school_year = ?", f.SchoolYear)
	}
	if f.Status != "" {
		db = db.Where("status = ?", f.Status)
	}

	err := db.Order("school_year DESC, name ASC").Find(&classes).Error
	return classes, err
}
