package handler

import (
	"errors"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/eddwmvv/projetovereler-sub001/internal/dto"
	"github.com/eddwmvv/projetovereler-sub001/internal/service"
	"github.com/eddwmvv/projetovereler-sub001/pkg/response"
)

// StudentHandler student registry and phase machine HTTP handlers
type StudentHandler struct {
	studentSvc    service.StudentService
	lifecycleSvc  service.LifecycleService
	assignmentSvc service.AssignmentService
}

// NewStudentHandler creates a StudentHandler
func NewStudentHandler(studentSvc service.StudentService, lifecycleSvc service.LifecycleService, assignmentSvc service.AssignmentService) *StudentHandler {
	return &StudentHandler{studentSvc: studentSvc, lifecycleSvc: lifecycleSvc, assignmentSvc: assignmentSvc}
}

// ListStudents GET /api/v1/students
func (h *StudentHandler) ListStudents(c *gin.Context) {
	sess, ok := MustGetSession(c)
	if !ok {
		return
	}

	var req dto.StudentListRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		bindFailed(c, err)
		return
	}

	list, total, err := h.studentSvc.List(c.Request.Context(), sess, &req)
	if err != nil {
		h.handleStudentError(c, err)
		return
	}

	response.OKPage(c, list, total, req.GetPage(), req.GetPageSize())
}

// GetStudent GET /api/v1/students/:id
func (h *StudentHandler) GetStudent(c *gin.Context) {
	sess, ok := MustGetSession(c)
	if !ok {
		return
	}

	student, err := h.studentSvc.GetByID(c.Request.Context(), sess, c.Param("id"))
	if err != nil {
		h.handleStudentError(c, err)
		return
	}

	response.OK(c, student)
}

// CreateStudent POST /api/v1/students
func (h *StudentHandler) CreateStudent(c *gin.Context) {
	sess, ok := MustGetSession(c)
	if !ok {
		return
	}

	var req dto.CreateStudentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindFailed(c, err)
		return
	}

	student, err := h.studentSvc.Create(c.Request.Context(), sess, &req)
	if err != nil {
		h.handleStudentError(c, err)
		return
	}

	response.Created(c, student)
}

// UpdateStudent PUT /api/v1/students/:id
func (h *StudentHandler) UpdateStudent(c *gin.Context) {
	sess, ok := MustGetSession(c)
	if !ok {
		return
	}

	var req dto.UpdateStudentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindFailed(c, err)
		return
	}

	student, err := h.studentSvc.Update(c.Request.Context(), sess, c.Param("id"), &req)
	if err != nil {
		h.handleStudentError(c, err)
		return
	}

	response.OK(c, student)
}

// DeleteStudent DELETE /api/v1/students/:id
func (h *StudentHandler) DeleteStudent(c *gin.Context) {
	sess, ok := MustGetSession(c)
	if !ok {
		return
	}

	if err := h.studentSvc.Delete(c.Request.Context(), sess, c.Param("id")); err != nil {
		h.handleStudentError(c, err)
		return
	}

	response.OK(c, nil)
}

// ────────────────────── phase machine ──────────────────────

// ChangePhase POST /api/v1/students/:id/phase
func (h *StudentHandler) ChangePhase(c *gin.Context) {
	sess, ok := MustGetSession(c)
	if !ok {
		return
	}

	var req dto.ChangePhaseRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindFailed(c, err)
		return
	}

	result, err := h.lifecycleSvc.ChangePhase(c.Request.Context(), sess, c.Param("id"), &req)
	if err != nil {
		if result != nil {
			// phase committed, frame release failed
			response.ErrorWithDetails(c, http.StatusConflict, 17004, "phase changed but the frame was not released", result)
			return
		}
		h.handleStudentError(c, err)
		return
	}

	response.OK(c, result)
}

// BatchChangePhase POST /api/v1/students/phase/batch
func (h *StudentHandler) BatchChangePhase(c *gin.Context) {
	sess, ok := MustGetSession(c)
	if !ok {
		return
	}

	var req dto.BatchChangePhaseRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindFailed(c, err)
		return
	}

	result, err := h.lifecycleSvc.BatchChangePhase(c.Request.Context(), sess, &req)
	if err != nil {
		if result != nil && len(result.Processed) > 0 {
			response.ErrorWithDetails(c, http.StatusConflict, 17005, "batch halted: "+err.Error(), result)
			return
		}
		h.handleStudentError(c, err)
		return
	}

	response.OK(c, result)
}

// Deactivate POST /api/v1/students/:id/deactivate
func (h *StudentHandler) Deactivate(c *gin.Context) {
	sess, ok := MustGetSession(c)
	if !ok {
		return
	}

	var req dto.DeactivateStudentRequest
	if err := c.ShouldBindJSON(&req); err != nil && !errors.Is(err, io.EOF) {
		bindFailed(c, err)
		return
	}

	student, err := h.lifecycleSvc.Deactivate(c.Request.Context(), sess, c.Param("id"), req.Reason)
	if err != nil {
		h.handleStudentError(c, err)
		return
	}

	response.OK(c, student)
}

// Reactivate POST /api/v1/students/:id/reactivate
func (h *StudentHandler) Reactivate(c *gin.Context) {
	sess, ok := MustGetSession(c)
	if !ok {
		return
	}

	student, err := h.lifecycleSvc.Reactivate(c.Request.Context(), sess, c.Param("id"))
	if err != nil {
		h.handleStudentError(c, err)
		return
	}

	response.OK(c, student)
}

// PhaseHistory GET /api/v1/students/:id/history
func (h *StudentHandler) PhaseHistory(c *gin.Context) {
	sess, ok := MustGetSession(c)
	if !ok {
		return
	}

	rows, err := h.lifecycleSvc.History(c.Request.Context(), sess, c.Param("id"))
	if err != nil {
		h.handleStudentError(c, err)
		return
	}

	response.OK(c, gin.H{"list": rows})
}

// ────────────────────── frames held ──────────────────────

// CurrentFrame frame the student holds, null when none
// GET /api/v1/students/:id/frame
func (h *StudentHandler) CurrentFrame(c *gin.Context) {
	sess, ok := MustGetSession(c)
	if !ok {
		return
	}

	frame, err := h.assignmentSvc.CurrentForStudent(c.Request.Context(), sess, c.Param("id"))
	if err != nil {
		h.handleStudentError(c, err)
		return
	}

	response.OK(c, frame)
}

// ReleaseCurrentFrame POST /api/v1/students/:id/frame/release
func (h *StudentHandler) ReleaseCurrentFrame(c *gin.Context) {
	sess, ok := MustGetSession(c)
	if !ok {
		return
	}

	var req dto.ReleaseFrameRequest
	if err := c.ShouldBindJSON(&req); err != nil && !errors.Is(err, io.EOF) {
		bindFailed(c, err)
		return
	}

	released, err := h.assignmentSvc.ReleaseCurrentForStudent(c.Request.Context(), sess, c.Param("id"), req.Notes)
	if err != nil {
		h.handleStudentError(c, err)
		return
	}

	response.OK(c, released)
}

// FrameHistory GET /api/v1/students/:id/frames
func (h *StudentHandler) FrameHistory(c *gin.Context) {
	sess, ok := MustGetSession(c)
	if !ok {
		return
	}

	rows, err := h.assignmentSvc.StudentFrameHistory(c.Request.Context(), sess, c.Param("id"))
	if err != nil {
		h.handleStudentError(c, err)
		return
	}

	response.OK(c, gin.H{"list": rows})
}

func (h *StudentHandler) handleStudentError(c *gin.Context, err error) {
	if handleCommonError(c, err) {
		return
	}
	switch {
	case errors.Is(err, service.ErrStudentInactive):
		response.Conflict(c, 17002, "student is inactive")
	case errors.Is(err, service.ErrStudentAlreadyActive):
		response.Conflict(c, 17003, "student is already active")
	case errors.Is(err, service.ErrFrameNotInUse):
		response.Conflict(c, 18010, "frame is not assigned")
	default:
		response.InternalError(c)
	}
}
