package handler

import (
	"errors"

	"github.com/gin-gonic/gin"

	"github.com/eddwmvv/projetovereler-sub001/internal/dto"
	"github.com/eddwmvv/projetovereler-sub001/internal/service"
	"github.com/eddwmvv/projetovereler-sub001/pkg/response"
)

// LocationHandler municipality, school and class HTTP handlers
type LocationHandler struct {
	municipalitySvc service.MunicipalityService
	schoolSvc       service.SchoolService
	classSvc        service.ClassService
}

// NewLocationHandler creates a LocationHandler
func NewLocationHandler(municipalitySvc service.MunicipalityService, schoolSvc service.SchoolService, classSvc service.ClassService) *LocationHandler {
	return &LocationHandler{municipalitySvc: municipalitySvc, schoolSvc: schoolSvc, classSvc: classSvc}
}

// ── municipalities ──

// ListMunicipalities GET /api/v1/municipalities
func (h *LocationHandler) ListMunicipalities(c *gin.Context) {
	sess, ok := MustGetSession(c)
	if !ok {
		return
	}

	var req dto.MunicipalityListRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		bindFailed(c, err)
		return
	}

	list, err := h.municipalitySvc.List(c.Request.Context(), sess, &req)
	if err != nil {
		h.handleLocationError(c, err)
		return
	}

	response.OK(c, gin.H{"list": list})
}

// GetMunicipality GET /api/v1/municipalities/:id
func (h *LocationHandler) GetMunicipality(c *gin.Context) {
	m, err := h.municipalitySvc.GetByID(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.handleLocationError(c, err)
		return
	}

	response.OK(c, m)
}

// CreateMunicipality POST /api/v1/municipalities
func (h *LocationHandler) CreateMunicipality(c *gin.Context) {
	sess, ok := MustGetSession(c)
	if !ok {
		return
	}

	var req dto.CreateMunicipalityRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindFailed(c, err)
		return
	}

	m, err := h.municipalitySvc.Create(c.Request.Context(), sess, &req)
	if err != nil {
		h.handleLocationError(c, err)
		return
	}

	response.Created(c, m)
}

// UpdateMunicipality PUT /api/v1/municipalities/:id
func (h *LocationHandler) UpdateMunicipality(c *gin.Context) {
	sess, ok := MustGetSession(c)
	if !ok {
		return
	}

	var req dto.UpdateMunicipalityRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindFailed(c, err)
		return
	}

	m, err := h.municipalitySvc.Update(c.Request.Context(), sess, c.Param("id"), &req)
	if err != nil {
		h.handleLocationError(c, err)
		return
	}

	response.OK(c, m)
}

// DeleteMunicipality cascades to schools, classes and students
// DELETE /api/v1/municipalities/:id
func (h *LocationHandler) DeleteMunicipality(c *gin.Context) {
	sess, ok := MustGetSession(c)
	if !ok {
		return
	}

	if err := h.municipalitySvc.Delete(c.Request.Context(), sess, c.Param("id")); err != nil {
		h.handleLocationError(c, err)
		return
	}

	response.OK(c, nil)
}

// ── schools ──

// ListSchools GET /api/v1/schools
func (h *LocationHandler) ListSchools(c *gin.Context) {
	sess, ok := MustGetSession(c)
	if !ok {
		return
	}

	var req dto.SchoolListRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		bindFailed(c, err)
		return
	}

	list, total, err := h.schoolSvc.List(c.Request.Context(), sess, &req)
	if err != nil {
		h.handleLocationError(c, err)
		return
	}

	response.OKPage(c, list, total, req.GetPage(), req.GetPageSize())
}

// GetSchool GET /api/v1/schools/:id
func (h *LocationHandler) GetSchool(c *gin.Context) {
	sess, ok := MustGetSession(c)
	if !ok {
		return
	}

	school, err := h.schoolSvc.GetByID(c.Request.Context(), sess, c.Param("id"))
	if err != nil {
		h.handleLocationError(c, err)
		return
	}

	response.OK(c, school)
}

// CreateSchool POST /api/v1/schools
func (h *LocationHandler) CreateSchool(c *gin.Context) {
	sess, ok := MustGetSession(c)
	if !ok {
		return
	}

	var req dto.CreateSchoolRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindFailed(c, err)
		return
	}

	school, err := h.schoolSvc.Create(c.Request.Context(), sess, &req)
	if err != nil {
		h.handleLocationError(c, err)
		return
	}

	response.Created(c, school)
}

// UpdateSchool PUT /api/v1/schools/:id
func (h *LocationHandler) UpdateSchool(c *gin.Context) {
	sess, ok := MustGetSession(c)
	if !ok {
		return
	}

	var req dto.UpdateSchoolRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindFailed(c, err)
		return
	}

	school, err := h.schoolSvc.Update(c.Request.Context(), sess, c.Param("id"), &req)
	if err != nil {
		h.handleLocationError(c, err)
		return
	}

	response.OK(c, school)
}

// DeleteSchool DELETE /api/v1/schools/:id
func (h *LocationHandler) DeleteSchool(c *gin.Context) {
	sess, ok := MustGetSession(c)
	if !ok {
		return
	}

	if err := h.schoolSvc.Delete(c.Request.Context(), sess, c.Param("id")); err != nil {
		h.handleLocationError(c, err)
		return
	}

	response.OK(c, nil)
}

// ── classes ──

// ListClasses GET /api/v1/classes
func (h *LocationHandler) ListClasses(c *gin.Context) {
	sess, ok := MustGetSession(c)
	if !ok {
		return
	}

	var req dto.ClassListRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		bindFailed(c, err)
		return
	}

	list, err := h.classSvc.List(c.Request.Context(), sess, &req)
	if err != nil {
		h.handleLocationError(c, err)
		return
	}

	response.OK(c, gin.H{"list": list})
}

// GetClass GET /api/v1/classes/:id
func (h *LocationHandler) GetClass(c *gin.Context) {
	sess, ok := MustGetSession(c)
	if !ok {
		return
	}

	class, err := h.classSvc.GetByID(c.Request.Context(), sess, c.Param("id"))
	if err != nil {
		h.handleLocationError(c, err)
		return
	}

	response.OK(c, class)
}

// CreateClass POST /api/v1/classes
func (h *LocationHandler) CreateClass(c *gin.Context) {
	sess, ok := MustGetSession(c)
	if !ok {
		return
	}

	var req dto.CreateClassRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindFailed(c, err)
		return
	}

	class, err := h.classSvc.Create(c.Request.Context(), sess, &req)
	if err != nil {
		h.handleLocationError(c, err)
		return
	}

	response.Created(c, class)
}

// UpdateClass PUT /api/v1/classes/:id
func (h *LocationHandler) UpdateClass(c *gin.Context) {
	sess, ok := MustGetSession(c)
	if !ok {
		return
	}

	var req dto.UpdateClassRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindFailed(c, err)
		return
	}

	class, err := h.classSvc.Update(c.Request.Context(), sess, c.Param("id"), &req)
	if err != nil {
		h.handleLocationError(c, err)
		return
	}

	response.OK(c, class)
}

// DeleteClass DELETE /api/v1/classes/:id
func (h *LocationHandler) DeleteClass(c *gin.Context) {
	sess, ok := MustGetSession(c)
	if !ok {
		return
	}

	if err := h.classSvc.Delete(c.Request.Context(), sess, c.Param("id")); err != nil {
		h.handleLocationError(c, err)
		return
	}

	response.OK(c, nil)
}

func (h *LocationHandler) handleLocationError(c *gin.Context, err error) {
	if handleCommonError(c, err) {
		return
	}
	switch {
	case errors.Is(err, service.ErrMunicipalityExists):
		response.Conflict(c, 14002, "municipality already registered for this state")
	default:
		response.InternalError(c)
	}
}
