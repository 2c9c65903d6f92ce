package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/eddwmvv/projetovereler-sub001/internal/dto"
	"github.com/eddwmvv/projetovereler-sub001/internal/service"
	"github.com/eddwmvv/projetovereler-sub001/pkg/response"
)

// ProjectHandler project HTTP handlers
type ProjectHandler struct {
	projectSvc service.ProjectService
}

// NewProjectHandler creates a ProjectHandler
func NewProjectHandler(projectSvc service.ProjectService) *ProjectHandler {
	return &ProjectHandler{projectSvc: projectSvc}
}

// ListProjects GET /api/v1/projects
func (h *ProjectHandler) ListProjects(c *gin.Context) {
	sess, ok := MustGetSession(c)
	if !ok {
		return
	}

	var req dto.ProjectListRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		bindFailed(c, err)
		return
	}

	list, total, err := h.projectSvc.List(c.Request.Context(), sess, &req)
	if err != nil {
		h.handleProjectError(c, err)
		return
	}

	response.OKPage(c, list, total, req.GetPage(), req.GetPageSize())
}

// GetProject GET /api/v1/projects/:id
func (h *ProjectHandler) GetProject(c *gin.Context) {
	sess, ok := MustGetSession(c)
	if !ok {
		return
	}

	project, err := h.projectSvc.GetByID(c.Request.Context(), sess, c.Param("id"))
	if err != nil {
		h.handleProjectError(c, err)
		return
	}

	response.OK(c, project)
}

// CreateProject POST /api/v1/projects
func (h *ProjectHandler) CreateProject(c *gin.Context) {
	sess, ok := MustGetSession(c)
	if !ok {
		return
	}

	var req dto.CreateProjectRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindFailed(c, err)
		return
	}

	project, err := h.projectSvc.Create(c.Request.Context(), sess, &req)
	if err != nil {
		h.handleProjectError(c, err)
		return
	}

	response.Created(c, project)
}

// UpdateProject PUT /api/v1/projects/:id
func (h *ProjectHandler) UpdateProject(c *gin.Context) {
	sess, ok := MustGetSession(c)
	if !ok {
		return
	}

	var req dto.UpdateProjectRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindFailed(c, err)
		return
	}

	project, err := h.projectSvc.Update(c.Request.Context(), sess, c.Param("id"), &req)
	if err != nil {
		h.handleProjectError(c, err)
		return
	}

	response.OK(c, project)
}

// SetMunicipalities replaces the municipality links
// PUT /api/v1/projects/:id/municipalities
func (h *ProjectHandler) SetMunicipalities(c *gin.Context) {
	sess, ok := MustGetSession(c)
	if !ok {
		return
	}

	var req dto.SetProjectMunicipalitiesRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindFailed(c, err)
		return
	}

	project, err := h.projectSvc.SetMunicipalities(c.Request.Context(), sess, c.Param("id"), req.MunicipalityIDs)
	if err != nil {
		h.handleProjectError(c, err)
		return
	}

	response.OK(c, project)
}

// DeleteProject DELETE /api/v1/projects/:id
func (h *ProjectHandler) DeleteProject(c *gin.Context) {
	sess, ok := MustGetSession(c)
	if !ok {
		return
	}

	if err := h.projectSvc.Delete(c.Request.Context(), sess, c.Param("id")); err != nil {
		h.handleProjectError(c, err)
		return
	}

	response.OK(c, nil)
}

func (h *ProjectHandler) handleProjectError(c *gin.Context, err error) {
	if handleCommonError(c, err) {
		return
	}
	response.InternalError(c)
}
