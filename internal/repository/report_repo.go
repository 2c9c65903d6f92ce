package repository

import (
	"context"

	"gorm.io/gorm"

	"github.com/eddwmvv/projetovereler-sub001/internal/model"
)

// FrameCountRow frames grouped by status and size
type FrameCountRow struct {
	Status   model.FrameStatus `gorm:"column:status"`
	SizeName string            `gorm:"column:size_name"`
	Count    int               `gorm:"column:count"`
}

// ReportRepository read-only lookups backing the reports; companyID scopes when non-empty
type ReportRepository interface {
	SchoolNames(ctx context.Context, companyID string) (map[string]string, error)
	MunicipalityNames(ctx context.Context) (map[string]string, error)
	CompanyNames(ctx context.Context, companyID string) (map[string]string, error)
	ClassNames(ctx context.Context, companyID string) (map[string]string, error)
	FrameCounts(ctx context.Context) ([]FrameCountRow, error)
}

type reportRepo struct {
	db *gorm.DB
}

// NewReportRepo creates a ReportRepository
func NewReportRepo(db *gorm.DB) ReportRepository {
	return &reportRepo{db: db}
}

type idName struct {
	ID   string `gorm:"column:id"`
	Name string `gorm:"column:name"`
}

func (r *reportRepo) names(db *gorm.DB) (map[string]string, error) {
	var rows []idName
	if err := db.Scan(&rows).Error; err != nil {
		return nil, err
	}
	out := make(map[string]string, len(rows))
	for _, row := range rows {
		out[row.ID] = row.Name
	}
	return out, nil
}

func (r *reportRepo) SchoolNames(ctx context.Context, companyID string) (map[string]string, error) {
	db := r.db.WithContext(ctx).Model(&model.School{}).Select("school_id AS id, name")
	if companyID != "" {
		db = db.Where("company_id = ?", companyID)
	}
	return r.names(db)
}

func (r *reportRepo) MunicipalityNames(ctx context.Context) (map[string]string, error) {
	return r.names(r.db.WithContext(ctx).Model(&model.Municipality{}).
		Select("municipality_id AS id, name || ' / ' || state_code AS name"))
}

func (r *reportRepo) CompanyNames(ctx context.Context, companyID string) (map[string]string, error) {
	db := r.db.WithContext(ctx).Model(&model.Company{}).
		Select("company_id AS id, COALESCE(NULLIF(trade_name, ''), legal_name) AS name")
	if companyID != "" {
		db = db.Where("company_id = ?", companyID)
	}
	return r.names(db)
}

func (r *reportRepo) ClassNames(ctx context.Context, companyID string) (map[string]string, error) {
	db := r.db.WithContext(ctx).Table("classes c").Select("c.class_id AS id, c.name")
	if companyID != "" {
		db = db.Joins("JOIN schools s ON s.school_id = c.school_id").Where("s.company_id = ?", companyID)
	}
	return r.names(db)
}

func (r *reportRepo) FrameCounts(ctx context.Context) ([]FrameCountRow, error) {
	var rows []FrameCountRow
	err := r.db.WithContext(ctx).
		Table("frames f").
		Select("f.status, COALESCE(s.name, '') AS size_name, COUNT(*) AS count").
		Joins("LEFT JOIN frame_sizes s ON s.frame_size_id = f.frame_size_id").
		Group("f.status, s.name").
		Order("f.status, s.name").
		Scan(&rows).Error
	return rows, err
}
