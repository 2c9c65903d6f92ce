package handler

import (
	"errors"
	"io"
	"net/http"
	"net/url"

	"github.com/gin-gonic/gin"

	"github.com/eddwmvv/projetovereler-sub001/internal/dto"
	"github.com/eddwmvv/projetovereler-sub001/internal/service"
	"github.com/eddwmvv/projetovereler-sub001/pkg/response"
)

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

// FrameHandler frame inventory HTTP handlers
type FrameHandler struct {
	frameSvc      service.FrameService
	assignmentSvc service.AssignmentService
}

// NewFrameHandler creates a FrameHandler
func NewFrameHandler(frameSvc service.FrameService, assignmentSvc service.AssignmentService) *FrameHandler {
	return &FrameHandler{frameSvc: frameSvc, assignmentSvc: assignmentSvc}
}

// ────────────────────── frames ──────────────────────

// ListFrames GET /api/v1/frames
func (h *FrameHandler) ListFrames(c *gin.Context) {
	var req dto.FrameListRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		bindFailed(c, err)
		return
	}

	list, total, err := h.frameSvc.List(c.Request.Context(), &req)
	if err != nil {
		h.handleFrameError(c, err)
		return
	}

	response.OKPage(c, list, total, req.GetPage(), req.GetPageSize())
}

// GetFrame GET /api/v1/frames/:id
func (h *FrameHandler) GetFrame(c *gin.Context) {
	frame, err := h.frameSvc.GetByID(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.handleFrameError(c, err)
		return
	}

	response.OK(c, frame)
}

// CreateFrame POST /api/v1/frames
func (h *FrameHandler) CreateFrame(c *gin.Context) {
	sess, ok := MustGetSession(c)
	if !ok {
		return
	}

	var req dto.CreateFrameRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindFailed(c, err)
		return
	}

	frame, err := h.frameSvc.Create(c.Request.Context(), sess, &req)
	if err != nil {
		h.handleFrameError(c, err)
		return
	}

	response.Created(c, frame)
}

// UpdateFrame PUT /api/v1/frames/:id
func (h *FrameHandler) UpdateFrame(c *gin.Context) {
	sess, ok := MustGetSession(c)
	if !ok {
		return
	}

	var req dto.UpdateFrameRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindFailed(c, err)
		return
	}

	frame, err := h.frameSvc.Update(c.Request.Context(), sess, c.Param("id"), &req)
	if err != nil {
		h.handleFrameError(c, err)
		return
	}

	response.OK(c, frame)
}

// DeleteFrame DELETE /api/v1/frames/:id
func (h *FrameHandler) DeleteFrame(c *gin.Context) {
	sess, ok := MustGetSession(c)
	if !ok {
		return
	}

	if err := h.frameSvc.Delete(c.Request.Context(), sess, c.Param("id")); err != nil {
		h.handleFrameError(c, err)
		return
	}

	response.OK(c, nil)
}

// History GET /api/v1/frames/:id/history
func (h *FrameHandler) History(c *gin.Context) {
	rows, err := h.frameSvc.History(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.handleFrameError(c, err)
		return
	}

	response.OK(c, gin.H{"list": rows})
}

// ────────────────────── sizes ──────────────────────

// ListSizes GET /api/v1/frame-sizes
func (h *FrameHandler) ListSizes(c *gin.Context) {
	sizes, err := h.frameSvc.ListSizes(c.Request.Context())
	if err != nil {
		h.handleFrameError(c, err)
		return
	}

	response.OK(c, gin.H{"list": sizes})
}

// CreateSize POST /api/v1/frame-sizes
func (h *FrameHandler) CreateSize(c *gin.Context) {
	sess, ok := MustGetSession(c)
	if !ok {
		return
	}

	var req dto.CreateFrameSizeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindFailed(c, err)
		return
	}

	size, err := h.frameSvc.CreateSize(c.Request.Context(), sess, &req)
	if err != nil {
		h.handleFrameError(c, err)
		return
	}

	response.Created(c, size)
}

// UpdateSize PUT /api/v1/frame-sizes/:id
func (h *FrameHandler) UpdateSize(c *gin.Context) {
	sess, ok := MustGetSession(c)
	if !ok {
		return
	}

	var req dto.UpdateFrameSizeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindFailed(c, err)
		return
	}

	size, err := h.frameSvc.UpdateSize(c.Request.Context(), sess, c.Param("id"), &req)
	if err != nil {
		h.handleFrameError(c, err)
		return
	}

	response.OK(c, size)
}

// DeleteSize DELETE /api/v1/frame-sizes/:id
func (h *FrameHandler) DeleteSize(c *gin.Context) {
	sess, ok := MustGetSession(c)
	if !ok {
		return
	}

	if err := h.frameSvc.DeleteSize(c.Request.Context(), sess, c.Param("id")); err != nil {
		h.handleFrameError(c, err)
		return
	}

	response.OK(c, nil)
}

// ────────────────────── import ──────────────────────

// Import creates frames from an uploaded .xlsx (multipart field "file").
// Nothing is written when any row is rejected; the rejected rows come back
// as details of a 422.
// POST /api/v1/frames/import
func (h *FrameHandler) Import(c *gin.Context) {
	sess, ok := MustGetSession(c)
	if !ok {
		return
	}

	file, _, err := c.Request.FormFile("file")
	if err != nil {
		response.BadRequest(c, 10001, "upload the spreadsheet in the file field")
		return
	}
	defer file.Close()

	rows, err := h.frameSvc.ParseImportFile(file)
	if err != nil {
		h.handleFrameError(c, err)
		return
	}

	result, err := h.frameSvc.Import(c.Request.Context(), sess, rows)
	if err != nil {
		h.handleFrameError(c, err)
		return
	}
	if len(result.Errors) > 0 {
		response.ErrorWithDetails(c, http.StatusUnprocessableEntity, 18012, "spreadsheet has invalid rows", result)
		return
	}

	response.Created(c, result)
}

// ImportTemplate GET /api/v1/frames/import/template
func (h *FrameHandler) ImportTemplate(c *gin.Context) {
	buf, err := h.frameSvc.ImportTemplate()
	if err != nil {
		response.InternalError(c)
		return
	}

	c.Header("Content-Description", "File Transfer")
	c.Header("Content-Disposition", "attachment; filename*=UTF-8''"+url.QueryEscape("frames_template.xlsx"))
	c.Data(http.StatusOK, xlsxContentType, buf.Bytes())
}

// ────────────────────── assignment ──────────────────────

// Assign POST /api/v1/frames/:id/assign
func (h *FrameHandler) Assign(c *gin.Context) {
	sess, ok := MustGetSession(c)
	if !ok {
		return
	}

	var req dto.AssignFrameRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindFailed(c, err)
		return
	}

	result, err := h.assignmentSvc.Assign(c.Request.Context(), sess, c.Param("id"), &req)
	if err != nil {
		h.handleFrameError(c, err)
		return
	}

	response.Created(c, result)
}

// Release POST /api/v1/frames/:id/release
func (h *FrameHandler) Release(c *gin.Context) {
	sess, ok := MustGetSession(c)
	if !ok {
		return
	}

	var req dto.ReleaseFrameRequest
	if err := c.ShouldBindJSON(&req); err != nil && !errors.Is(err, io.EOF) {
		bindFailed(c, err)
		return
	}

	result, err := h.assignmentSvc.Release(c.Request.Context(), sess, c.Param("id"), req.Notes)
	if err != nil {
		h.handleFrameError(c, err)
		return
	}

	response.OK(c, result)
}

// ValidateNumberings POST /api/v1/frames/numberings/validate
func (h *FrameHandler) ValidateNumberings(c *gin.Context) {
	var req dto.ValidateNumberingsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindFailed(c, err)
		return
	}

	checks, err := h.assignmentSvc.ValidateNumberings(c.Request.Context(), req.Numberings)
	if err != nil {
		h.handleFrameError(c, err)
		return
	}

	response.OK(c, gin.H{"list": service.NumberingCheckResponses(checks)})
}

// BatchAssign POST /api/v1/frames/assign/batch
func (h *FrameHandler) BatchAssign(c *gin.Context) {
	sess, ok := MustGetSession(c)
	if !ok {
		return
	}

	var req dto.BatchAssignRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindFailed(c, err)
		return
	}

	result, err := h.assignmentSvc.BatchAssign(c.Request.Context(), sess, &req)
	if err != nil {
		if result != nil && len(result.Assigned) > 0 {
			// non-atomic mode: earlier items stay committed
			response.ErrorWithDetails(c, http.StatusConflict, 19001, "batch halted: "+err.Error(), result)
			return
		}
		h.handleFrameError(c, err)
		return
	}

	response.Created(c, result)
}

// PlanAutoAssign proposes frames for items without numbering; nothing is written
// POST /api/v1/frames/assign/auto
func (h *FrameHandler) PlanAutoAssign(c *gin.Context) {
	var req dto.AutoAssignRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindFailed(c, err)
		return
	}

	plan, err := h.assignmentSvc.PlanAutoAssign(c.Request.Context(), &req)
	if err != nil {
		h.handleFrameError(c, err)
		return
	}

	response.OK(c, plan)
}

func (h *FrameHandler) handleFrameError(c *gin.Context, err error) {
	if handleCommonError(c, err) {
		return
	}
	switch {
	case errors.Is(err, service.ErrNumberingExists):
		response.Conflict(c, 18002, "numbering already registered")
	case errors.Is(err, service.ErrFrameInUse):
		response.Conflict(c, 18003, "frame is assigned to a student")
	case errors.Is(err, service.ErrSizeNameExists):
		response.Conflict(c, 18005, "frame size name already registered")
	case errors.Is(err, service.ErrImportNoData):
		response.BadRequest(c, 18006, "spreadsheet has no data rows")
	case errors.Is(err, service.ErrImportTooManyRows):
		response.BadRequest(c, 18007, "spreadsheet exceeds the import row limit")
	case errors.Is(err, service.ErrImportBadHeader):
		response.BadRequest(c, 18008, "spreadsheet header lacks the Numbering column")
	case errors.Is(err, service.ErrImportUnreadable):
		response.BadRequest(c, 18013, "file is not a readable spreadsheet")
	case errors.Is(err, service.ErrFrameNotAvailable):
		response.Conflict(c, 18009, "frame is not available")
	case errors.Is(err, service.ErrFrameNotInUse):
		response.Conflict(c, 18010, "frame is not assigned")
	case errors.Is(err, service.ErrStudentHasFrame):
		response.Conflict(c, 18011, "student already holds a frame")
	case errors.Is(err, service.ErrStudentInactive):
		response.Conflict(c, 17002, "student is inactive")
	default:
		response.InternalError(c)
	}
}
