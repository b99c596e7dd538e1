package http

import (
	"net/http"

	"github.com/workpay-hr/payroll-backend-go/internal/domain/dashboard"
	"github.com/workpay-hr/payroll-backend-go/internal/domain/user"
	"github.com/workpay-hr/payroll-backend-go/internal/handler/http/middleware"
	"github.com/workpay-hr/payroll-backend-go/internal/handler/http/response"
)

type DashboardHandler interface {
	// GetDashboard serves the dashboard of the caller's role
	GetDashboard() http.Handler
	GetAdminDashboard(w http.ResponseWriter, r *http.Request)
	GetClientDashboard(w http.ResponseWriter, r *http.Request)
	GetEmployeeDashboard(w http.ResponseWriter, r *http.Request)
	GetContractorDashboard(w http.ResponseWriter, r *http.Request)
}

type dashboardHandlerImpl struct {
	dashboardService dashboard.DashboardService
}

func NewDashboardHandler(dashboardService dashboard.DashboardService) DashboardHandler {
	return &dashboardHandlerImpl{dashboardService: dashboardService}
}

func (h *dashboardHandlerImpl) GetDashboard() http.Handler {
	return middleware.RoleSwitch(map[user.Role]http.Handler{
		user.RoleAdmin:      http.HandlerFunc(h.GetAdminDashboard),
		user.RoleClient:     http.HandlerFunc(h.GetClientDashboard),
		user.RoleEmployee:   http.HandlerFunc(h.GetEmployeeDashboard),
		user.RoleContractor: http.HandlerFunc(h.GetContractorDashboard),
	})
}

func (h *dashboardHandlerImpl) GetAdminDashboard(w http.ResponseWriter, r *http.Request) {
	result, err := h.dashboardService.GetAdminDashboard(r.Context())
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.Success(w, result)
}

func (h *dashboardHandlerImpl) GetClientDashboard(w http.ResponseWriter, r *http.Request) {
	result, err := h.dashboardService.GetClientDashboard(r.Context())
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.Success(w, result)
}

func (h *dashboardHandlerImpl) GetEmployeeDashboard(w http.ResponseWriter, r *http.Request) {
	result, err := h.dashboardService.GetEmployeeDashboard(r.Context())
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.Success(w, result)
}

func (h *dashboardHandlerImpl) GetContractorDashboard(w http.ResponseWriter, r *http.Request) {
	result, err := h.dashboardService.GetContractorDashboard(r.Context())
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.Success(w, result)
}
