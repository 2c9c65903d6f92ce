package service

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/eddwmvv/projetovereler-sub001/internal/dto"
	"github.com/eddwmvv/projetovereler-sub001/internal/model"
	"github.com/eddwmvv/projetovereler-sub001/internal/repository"
)

var (
	ErrExportGenerateFail = errors.New("failed to generate spreadsheet")
)

// ExportService spreadsheet exports
//
// The workbook is returned as a buffer; the handler sets the download
// headers. One sheet, one row per student matching the report filter.
type ExportService interface {
	// ExportStudents returns the workbook and a suggested file name
	ExportStudents(ctx context.Context, sess Session, req *dto.ReportFilterRequest) (*bytes.Buffer, string, error)
}

type exportService struct {
	repo   *repository.Repository
	logger *zap.Logger
}

// NewExportService creates an ExportService
func NewExportService(repo *repository.Repository, logger *zap.Logger) ExportService {
	return &exportService{repo: repo, logger: logger}
}

// StudentExportHeaders column titles of the student export
var StudentExportHeaders = []string{"Name", "Sex", "Age", "School", "Class", "Phase", "Status", "Active", "Frame"}

func (s *exportService) ExportStudents(ctx context.Context, sess Session, req *dto.ReportFilterRequest) (*bytes.Buffer, string, error) {
	filter, err := ParseReportFilter(req)
	if err != nil {
		return nil, "", err
	}
	if filter.CompanyID, err = sess.scopedCompany(filter.CompanyID); err != nil {
		return nil, "", err
	}
	sf := filter.studentFilter()
	if !filter.IncludeInactive {
		active := true
		sf.Active = &active
	}

	// 1. snapshot
	var (
		students []model.Student
		schools  map[string]string
		classes  map[string]string
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		students, _, err = s.repo.Student.List(gctx, sf, 0, 0)
		return err
	})
	g.Go(func() error {
		var err error
		schools, err = s.repo.Report.SchoolNames(gctx, filter.CompanyID)
		return err
	})
	g.Go(func() error {
		var err error
		classes, err = s.repo.Report.ClassNames(gctx, filter.CompanyID)
		return err
	})
	if err := g.Wait(); err != nil {
		s.logger.Error("failed to load export snapshot", zap.Error(err))
		return nil, "", err
	}

	// 2. frames held
	ids := make([]string, 0, len(students))
	for _, st := range students {
		ids = append(ids, st.StudentID)
	}
	held, err := s.repo.Frame.CurrentForStudents(ctx, ids)
	if err != nil {
		s.logger.Error("failed to load held frames", zap.Error(err))
		return nil, "", err
	}

	// 3. workbook
	f := excelize.NewFile()
	defer f.Close()

	sheet := "Students"
	idx, _ := f.NewSheet(sheet)
	f.SetActiveSheet(idx)
	f.DeleteSheet("Sheet1")

	headerStyle, _ := f.NewStyle(&excelize.Style{
		Font:      &excelize.Font{Bold: true, Size: 11, Color: "#FFFFFF"},
		Fill:      excelize.Fill{Type: "pattern", Color: []string{"#4472C4"}, Pattern: 1},
		Alignment: &excelize.Alignment{Horizontal: "center", Vertical: "center"},
	})
	for i, h := range StudentExportHeaders {
		f.SetCellValue(sheet, cell(colName(i), 1), h)
	}
	last := colName(len(StudentExportHeaders) - 1)
	f.SetCellStyle(sheet, "A1", cell(last, 1), headerStyle)
	f.SetColWidth(sheet, "A", "A", 36)
	f.SetColWidth(sheet, "B", "C", 8)
	f.SetColWidth(sheet, "D", "E", 28)
	f.SetColWidth(sheet, "F", last, 14)

	now := time.Now()
	for i := range students {
		st := &students[i]
		row := i + 2

		age := ""
		if a, ok := st.AgeAt(now); ok {
			age = fmt.Sprintf("%d", a)
		}
		active := "yes"
		if !st.IsActive {
			active = "no"
		}
		frame := ""
		if fr, ok := held[st.StudentID]; ok {
			frame = fr.Numbering
		}

		values := []interface{}{
			st.FullName, st.Sex, age,
			schools[st.SchoolID], classes[st.ClassID],
			string(st.Phase), string(st.PhaseStatus), active, frame,
		}
		for c, v := range values {
			f.SetCellValue(sheet, cell(colName(c), row), v)
		}
	}

	buf := new(bytes.Buffer)
	if err := f.Write(buf); err != nil {
		s.logger.Error("failed to write workbook", zap.Error(err))
		return nil, "", ErrExportGenerateFail
	}

	s.logger.Info("students exported", zap.Int("rows", len(students)), zap.String("actor", sess.UserID))
	filename := fmt.Sprintf("students_%s.xlsx", now.Format("20060102"))
	return buf, filename, nil
}

// ── helpers ──

// colName zero-based column index to its letter
func colName(idx int) string {
	name, _ := excelize.ColumnNumberToName(idx + 1)
	return name
}

func cell(col string, row int) string {
	return fmt.Sprintf("%s%d", col, row)
}
