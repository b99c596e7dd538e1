package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/workpay-hr/payroll-backend-go/internal/domain/contractor"
	"github.com/workpay-hr/payroll-backend-go/internal/handler/http/response"
)

type ContractorHandler interface {
	List(w http.ResponseWriter, r *http.Request)
	Get(w http.ResponseWriter, r *http.Request)
	Update(w http.ResponseWriter, r *http.Request)
	GetMyProfile(w http.ResponseWriter, r *http.Request)
}

type contractorHandlerImpl struct {
	contractorService contractor.ContractorService
}

func NewContractorHandler(contractorService contractor.ContractorService) ContractorHandler {
	return &contractorHandlerImpl{contractorService: contractorService}
}

func (h *contractorHandlerImpl) List(w http.ResponseWriter, r *http.Request) {
	filter := contractor.ContractorFilter{
		Search: optionalString(r, "search"),
		Status: optionalString(r, "status"),
		Page:   getIntQueryParam(r, "page", 1),
		Limit:  getIntQueryParam(r, "limit", 20),
	}

	result, err := h.contractorService.List(r.Context(), filter)
	if err != nil {
		response.HandleError(w, err)
		return
	}
	response.SuccessWithMeta(w, result.Contractors, response.NewMeta(result.Page, result.Limit, result.TotalCount))
}

func (h *contractorHandlerImpl) Get(w http.ResponseWriter, r *http.Request) {
	result, err := h.contractorService.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		response.HandleError(w, err)
		return
	}
	response.Success(w, result)
}

func (h *contractorHandlerImpl) Update(w http.ResponseWriter, r *http.Request) {
	var req contractor.UpdateContractorRequest
	if !decodeJSON(w, r, &req, false) {
		return
	}

	result, err := h.contractorService.Update(r.Context(), chi.URLParam(r, "id"), req)
	if err != nil {
		response.HandleError(w, err)
		return
	}
	response.SuccessWithMessage(w, "Contractor updated successfully", result)
}

func (h *contractorHandlerImpl) GetMyProfile(w http.ResponseWriter, r *http.Request) {
	result, err := h.contractorService.GetMyProfile(r.Context())
	if err != nil {
		response.HandleError(w, err)
		return
	}
	response.Success(w, result)
}
