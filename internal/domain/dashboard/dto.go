package dashboard

import (
	"github.com/workpay-hr/payroll-backend-go/internal/domain/attendance"
	"github.com/workpay-hr/payroll-backend-go/internal/domain/invoice"
	"github.com/workpay-hr/payroll-backend-go/internal/domain/leave"
	"github.com/workpay-hr/payroll-backend-go/internal/domain/payroll"
)

// ========== ADMIN ==========

type AdminDashboardResponse struct {
	Role         string           `json:"role"`
	UsersByRole  map[string]int64 `json:"users_by_role"`
	TotalUsers   int64            `json:"total_users"`
	NewUsers30d  int64            `json:"new_users_30d"`
	DeletedUsers int64            `json:"deleted_users"`
	Companies    int64            `json:"companies"`
}

// ========== CLIENT ==========

type EmployeeSummaryResponse struct {
	TotalEmployee    int64 `json:"total_employee"`
	NewEmployee      int64 `json:"new_employee"` // hired within 30 days
	ActiveEmployee   int64 `json:"active_employee"`
	InactiveEmployee int64 `json:"inactive_employee"`
}

type EmployeeStatusStatsResponse struct {
	Permanent  int64 `json:"permanent"`
	Probation  int64 `json:"probation"`
	Contract   int64 `json:"contract"`
	Internship int64 `json:"internship"`
}

// AttendanceStatsResponse represents attendance statistics for a specific day
type AttendanceStatsResponse struct {
	Present        int64   `json:"present"`
	Late           int64   `json:"late"`
	HalfDay        int64   `json:"half_day"`
	Absent         int64   `json:"absent"`
	NotCheckedIn   int64   `json:"not_checked_in"`
	Total          int64   `json:"total"`
	PresentPercent float64 `json:"present_percent"`
	LatePercent    float64 `json:"late_percent"`
	AbsentPercent  float64 `json:"absent_percent"`
	Date           string  `json:"date"` // Format: "YYYY-MM-DD"
}

type ClientDashboardResponse struct {
	Role               string                         `json:"role"`
	EmployeeSummary    EmployeeSummaryResponse        `json:"employee_summary"`
	EmployeeStatus     EmployeeStatusStatsResponse    `json:"employee_status"`
	ActiveContractors  int64                          `json:"active_contractors"`
	TodayAttendance    AttendanceStatsResponse        `json:"today_attendance"`
	PendingLeave       int64                          `json:"pending_leave"`
	PendingInvoices    int64                          `json:"pending_invoices"`
	CurrentPayroll     payroll.PayrollSummaryResponse `json:"current_payroll"`
	CurrentPayrollText string                         `json:"current_payroll_net_display"`
}

// ========== EMPLOYEE ==========

type EmployeeDashboardResponse struct {
	Role            string                         `json:"role"`
	TodayAttendance *attendance.AttendanceResponse `json:"today_attendance"`
	LeaveBalance    []leave.LeaveQuotaResponse     `json:"leave_balance"`
	LatestPayslip   *payroll.PayrollRecordResponse `json:"latest_payslip"`
}

// ========== CONTRACTOR ==========

type ContractorDashboardResponse struct {
	Role string `json:"role"`
	invoice.ContractorDashboardResponse
}
