package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/eddwmvv/projetovereler-sub001/internal/service"
	pkgerrors "github.com/eddwmvv/projetovereler-sub001/pkg/errors"
	"github.com/eddwmvv/projetovereler-sub001/pkg/response"
)

// bindFailed answers a request that failed binding or tag validation
func bindFailed(c *gin.Context, err error) {
	response.ErrorWithDetails(c, http.StatusBadRequest, 10001, "invalid request parameters", err.Error())
}

// handleCommonError writes the response for errors shared by every module.
// Returns false when err is left for the module-specific mapping.
func handleCommonError(c *gin.Context, err error) bool {
	if v, ok := pkgerrors.AsValidation(err); ok {
		response.ValidationFailed(c, 10001, v.Reason, v.Kind, v.Items)
		return true
	}
	switch {
	case errors.Is(err, pkgerrors.ErrUnauthenticated):
		response.Unauthorized(c, 10002, "not authenticated")
	case errors.Is(err, service.ErrForbiddenCompany):
		response.Forbidden(c, 10003, "record belongs to another company")
	case errors.Is(err, service.ErrForbiddenRole):
		response.Forbidden(c, 10003, "operation not allowed for this role")

	// registry references cross module boundaries
	case errors.Is(err, service.ErrCompanyNotFound):
		response.NotFound(c, 12001, "company not found")
	case errors.Is(err, service.ErrProjectNotFound):
		response.NotFound(c, 13001, "project not found")
	case errors.Is(err, service.ErrMunicipalityNotFound):
		response.NotFound(c, 14001, "municipality not found")
	case errors.Is(err, service.ErrSchoolNotFound):
		response.NotFound(c, 15001, "school not found")
	case errors.Is(err, service.ErrClassNotFound):
		response.NotFound(c, 16001, "class not found")
	case errors.Is(err, service.ErrStudentNotFound):
		response.NotFound(c, 17001, "student not found")
	case errors.Is(err, service.ErrFrameNotFound):
		response.NotFound(c, 18001, "frame not found")
	case errors.Is(err, service.ErrSizeNotFound):
		response.NotFound(c, 18004, "frame size not found")
	default:
		return false
	}
	return true
}
