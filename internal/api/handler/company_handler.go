package handler

import (
	"errors"

	"github.com/gin-gonic/gin"

	"github.com/eddwmvv/projetovereler-sub001/internal/dto"
	"github.com/eddwmvv/projetovereler-sub001/internal/service"
	"github.com/eddwmvv/projetovereler-sub001/pkg/response"
)

// CompanyHandler company HTTP handlers
type CompanyHandler struct {
	companySvc service.CompanyService
}

// NewCompanyHandler creates a CompanyHandler
func NewCompanyHandler(companySvc service.CompanyService) *CompanyHandler {
	return &CompanyHandler{companySvc: companySvc}
}

// ListCompanies GET /api/v1/companies
func (h *CompanyHandler) ListCompanies(c *gin.Context) {
	sess, ok := MustGetSession(c)
	if !ok {
		return
	}

	var req dto.CompanyListRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		bindFailed(c, err)
		return
	}

	list, total, err := h.companySvc.List(c.Request.Context(), sess, &req)
	if err != nil {
		h.handleCompanyError(c, err)
		return
	}

	response.OKPage(c, list, total, req.GetPage(), req.GetPageSize())
}

// GetCompany GET /api/v1/companies/:id
func (h *CompanyHandler) GetCompany(c *gin.Context) {
	sess, ok := MustGetSession(c)
	if !ok {
		return
	}

	company, err := h.companySvc.GetByID(c.Request.Context(), sess, c.Param("id"))
	if err != nil {
		h.handleCompanyError(c, err)
		return
	}

	response.OK(c, company)
}

// CreateCompany POST /api/v1/companies
func (h *CompanyHandler) CreateCompany(c *gin.Context) {
	sess, ok := MustGetSession(c)
	if !ok {
		return
	}

	var req dto.CreateCompanyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindFailed(c, err)
		return
	}

	company, err := h.companySvc.Create(c.Request.Context(), sess, &req)
	if err != nil {
		h.handleCompanyError(c, err)
		return
	}

	response.Created(c, company)
}

// UpdateCompany PUT /api/v1/companies/:id
func (h *CompanyHandler) UpdateCompany(c *gin.Context) {
	sess, ok := MustGetSession(c)
	if !ok {
		return
	}

	var req dto.UpdateCompanyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindFailed(c, err)
		return
	}

	company, err := h.companySvc.Update(c.Request.Context(), sess, c.Param("id"), &req)
	if err != nil {
		h.handleCompanyError(c, err)
		return
	}

	response.OK(c, company)
}

// DeleteCompany DELETE /api/v1/companies/:id
func (h *CompanyHandler) DeleteCompany(c *gin.Context) {
	sess, ok := MustGetSession(c)
	if !ok {
		return
	}

	if err := h.companySvc.Delete(c.Request.Context(), sess, c.Param("id")); err != nil {
		h.handleCompanyError(c, err)
		return
	}

	response.OK(c, nil)
}

func (h *CompanyHandler) handleCompanyError(c *gin.Context, err error) {
	if handleCommonError(c, err) {
		return
	}
	switch {
	case errors.Is(err, service.ErrTaxIDExists):
		response.Conflict(c, 12002, "tax id already registered")
	default:
		response.InternalError(c)
	}
}
