package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/workpay-hr/payroll-backend-go/internal/domain/invoice"
	"github.com/workpay-hr/payroll-backend-go/internal/handler/http/response"
)

type InvoiceHandler interface {
	// Contractor
	Create(w http.ResponseWriter, r *http.Request)
	Update(w http.ResponseWriter, r *http.Request)
	Submit(w http.ResponseWriter, r *http.Request)
	ListMine(w http.ResponseWriter, r *http.Request)
	GetMine(w http.ResponseWriter, r *http.Request)
	Dashboard(w http.ResponseWriter, r *http.Request)

	// Client
	List(w http.ResponseWriter, r *http.Request)
	Approve(w http.ResponseWriter, r *http.Request)
	Reject(w http.ResponseWriter, r *http.Request)
	MarkPaid(w http.ResponseWriter, r *http.Request)
}

type invoiceHandlerImpl struct {
	invoiceService invoice.InvoiceService
}

func NewInvoiceHandler(invoiceService invoice.InvoiceService) InvoiceHandler {
	return &invoiceHandlerImpl{invoiceService: invoiceService}
}

func invoiceFilter(r *http.Request) invoice.InvoiceFilter {
	return invoice.InvoiceFilter{
		ContractorID: optionalString(r, "contractor_id"),
		Status:       optionalString(r, "status"),
		Page:         getIntQueryParam(r, "page", 1),
		Limit:        getIntQueryParam(r, "limit", 20),
	}
}

func (h *invoiceHandlerImpl) Create(w http.ResponseWriter, r *http.Request) {
	var req invoice.UpsertInvoiceRequest
	if !decodeJSON(w, r, &req, false) {
		return
	}

	result, err := h.invoiceService.Create(r.Context(), req)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.Created(w, "Invoice created", result)
}

// Update replaces the content of a draft or rejected invoice.
func (h *invoiceHandlerImpl) Update(w http.ResponseWriter, r *http.Request) {
	var req invoice.UpsertInvoiceRequest
	if !decodeJSON(w, r, &req, false) {
		return
	}

	result, err := h.invoiceService.Update(r.Context(), chi.URLParam(r, "id"), req)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.SuccessWithMessage(w, "Invoice updated", result)
}

func (h *invoiceHandlerImpl) Submit(w http.ResponseWriter, r *http.Request) {
	result, err := h.invoiceService.Submit(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.SuccessWithMessage(w, "Invoice submitted", result)
}

func (h *invoiceHandlerImpl) ListMine(w http.ResponseWriter, r *http.Request) {
	result, err := h.invoiceService.ListMine(r.Context(), invoiceFilter(r))
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.SuccessWithMeta(w, result.Invoices, response.NewMeta(result.Page, result.Limit, result.TotalCount))
}

func (h *invoiceHandlerImpl) GetMine(w http.ResponseWriter, r *http.Request) {
	result, err := h.invoiceService.GetMine(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.Success(w, result)
}

func (h *invoiceHandlerImpl) Dashboard(w http.ResponseWriter, r *http.Request) {
	result, err := h.invoiceService.Dashboard(r.Context())
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.Success(w, result)
}

func (h *invoiceHandlerImpl) List(w http.ResponseWriter, r *http.Request) {
	result, err := h.invoiceService.ListForCompany(r.Context(), invoiceFilter(r))
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.SuccessWithMeta(w, result.Invoices, response.NewMeta(result.Page, result.Limit, result.TotalCount))
}

func (h *invoiceHandlerImpl) Approve(w http.ResponseWriter, r *http.Request) {
	result, err := h.invoiceService.Approve(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.SuccessWithMessage(w, "Invoice approved", result)
}

func (h *invoiceHandlerImpl) Reject(w http.ResponseWriter, r *http.Request) {
	var req invoice.RejectInvoiceRequest
	if !decodeJSON(w, r, &req, false) {
		return
	}

	result, err := h.invoiceService.Reject(r.Context(), chi.URLParam(r, "id"), req)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.SuccessWithMessage(w, "Invoice rejected", result)
}

func (h *invoiceHandlerImpl) MarkPaid(w http.ResponseWriter, r *http.Request) {
	result, err := h.invoiceService.MarkPaid(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.SuccessWithMessage(w, "Invoice marked as paid", result)
}
