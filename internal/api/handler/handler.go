package handler

import "github.com/eddwmvv/projetovereler-sub001/internal/service"

// Handler aggregate of every HTTP handler
type Handler struct {
	Auth     *AuthHandler
	Company  *CompanyHandler
	Project  *ProjectHandler
	Location *LocationHandler
	Student  *StudentHandler
	Frame    *FrameHandler
	Report   *ReportHandler
	Export   *ExportHandler
}

// NewHandler creates the aggregate and registers the domain binding tags
func NewHandler(svc *service.Service) *Handler {
	RegisterValidators()

	return &Handler{
		Auth:     NewAuthHandler(svc.Auth),
		Company:  NewCompanyHandler(svc.Company),
		Project:  NewProjectHandler(svc.Project),
		Location: NewLocationHandler(svc.Municipality, svc.School, svc.Class),
		Student:  NewStudentHandler(svc.Student, svc.Lifecycle, svc.Assignment),
		Frame:    NewFrameHandler(svc.Frame, svc.Assignment),
		Report:   NewReportHandler(svc.Report),
		Export:   NewExportHandler(svc.Export),
	}
}
