package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/eddwmvv/projetovereler-sub001/internal/dto"
	"github.com/eddwmvv/projetovereler-sub001/internal/service"
	"github.com/eddwmvv/projetovereler-sub001/pkg/response"
)

// ReportHandler dashboard HTTP handlers
type ReportHandler struct {
	reportSvc service.ReportService
}

// NewReportHandler creates a ReportHandler
func NewReportHandler(reportSvc service.ReportService) *ReportHandler {
	return &ReportHandler{reportSvc: reportSvc}
}

// Dashboard student rollups for the filter
// GET /api/v1/reports/dashboard
func (h *ReportHandler) Dashboard(c *gin.Context) {
	sess, ok := MustGetSession(c)
	if !ok {
		return
	}

	var req dto.ReportFilterRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		bindFailed(c, err)
		return
	}

	result, err := h.reportSvc.Dashboard(c.Request.Context(), sess, &req)
	if err != nil {
		if !handleCommonError(c, err) {
			response.InternalError(c)
		}
		return
	}

	response.OK(c, result)
}

// InventorySummary frame counts per status and size
// GET /api/v1/reports/inventory
func (h *ReportHandler) InventorySummary(c *gin.Context) {
	result, err := h.reportSvc.InventorySummary(c.Request.Context())
	if err != nil {
		response.InternalError(c)
		return
	}

	response.OK(c, result)
}
