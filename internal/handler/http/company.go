package http

import (
	"net/http"

	"github.com/workpay-hr/payroll-backend-go/internal/domain/company"
	"github.com/workpay-hr/payroll-backend-go/internal/handler/http/response"
)

type CompanyHandler interface {
	Get(w http.ResponseWriter, r *http.Request)
	Update(w http.ResponseWriter, r *http.Request)
	RegenerateJoinCode(w http.ResponseWriter, r *http.Request)
}

type companyHandlerImpl struct {
	companyService company.CompanyService
}

func NewCompanyHandler(companyService company.CompanyService) CompanyHandler {
	return &companyHandlerImpl{companyService: companyService}
}

// Get returns the caller's organization.
func (h *companyHandlerImpl) Get(w http.ResponseWriter, r *http.Request) {
	result, err := h.companyService.GetMine(r.Context())
	if err != nil {
		response.HandleError(w, err)
		return
	}
	response.Success(w, result)
}

func (h *companyHandlerImpl) Update(w http.ResponseWriter, r *http.Request) {
	var req company.UpdateCompanyRequest
	if !decodeJSON(w, r, &req, false) {
		return
	}

	result, err := h.companyService.UpdateMine(r.Context(), req)
	if err != nil {
		response.HandleError(w, err)
		return
	}
	response.SuccessWithMessage(w, "Company updated successfully", result)
}

func (h *companyHandlerImpl) RegenerateJoinCode(w http.ResponseWriter, r *http.Request) {
	result, err := h.companyService.RegenerateJoinCode(r.Context())
	if err != nil {
		response.HandleError(w, err)
		return
	}
	response.SuccessWithMessage(w, "Join code regenerated", result)
}
