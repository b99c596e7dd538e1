package user

type Permission string

const (
	// Self Management
	PermissionViewOwnProfile Permission = "profile.view_own"
	PermissionEditOwnProfile Permission = "profile.edit_own"

	// Platform
	PermissionUserManage Permission = "user.manage"

	// Organization
	PermissionCompanyView   Permission = "company.view"
	PermissionCompanyManage Permission = "company.manage"

	// People
	PermissionEmployeeViewAll   Permission = "employee.view_all"
	PermissionEmployeeManage    Permission = "employee.manage"
	PermissionContractorViewAll Permission = "contractor.view_all"
	PermissionContractorManage  Permission = "contractor.manage"

	// Attendance Management
	PermissionAttendanceViewOwn Permission = "attendance.view_own"
	PermissionAttendanceCreate  Permission = "attendance.create"
	PermissionAttendanceViewAll Permission = "attendance.view_all"
	PermissionAttendanceManage  Permission = "attendance.manage"

	// Leave Management
	PermissionLeaveViewOwn Permission = "leave.view_own"
	PermissionLeaveCreate  Permission = "leave.create"
	PermissionLeaveViewAll Permission = "leave.view_all"
	PermissionLeaveApprove Permission = "leave.approve"

	// Payroll
	PermissionPayrollManage  Permission = "payroll.manage"
	PermissionPayrollApprove Permission = "payroll.approve"
	PermissionPayslipViewOwn Permission = "payslip.view_own"

	// Invoices
	PermissionInvoiceManageOwn Permission = "invoice.manage_own"
	PermissionInvoiceViewAll   Permission = "invoice.view_all"
	PermissionInvoiceApprove   Permission = "invoice.approve"
)

// RolePermissions maps roles to their permissions
var RolePermissions = map[Role][]Permission{
	RoleAdmin: {
		PermissionViewOwnProfile,
		PermissionEditOwnProfile,
		PermissionUserManage,
	},
	RoleClient: {
		PermissionViewOwnProfile,
		PermissionEditOwnProfile,
		PermissionCompanyView,
		PermissionCompanyManage,
		PermissionEmployeeViewAll,
		PermissionEmployeeManage,
		PermissionContractorViewAll,
		PermissionContractorManage,
		PermissionAttendanceViewAll,
		PermissionAttendanceManage,
		PermissionLeaveViewAll,
		PermissionLeaveApprove,
		PermissionPayrollManage,
		PermissionPayrollApprove,
		PermissionInvoiceViewAll,
		PermissionInvoiceApprove,
	},
	RoleEmployee: {
		PermissionViewOwnProfile,
		PermissionEditOwnProfile,
		PermissionAttendanceViewOwn,
		PermissionAttendanceCreate,
		PermissionLeaveViewOwn,
		PermissionLeaveCreate,
		PermissionPayslipViewOwn,
	},
	RoleContractor: {
		PermissionViewOwnProfile,
		PermissionEditOwnProfile,
		PermissionInvoiceManageOwn,
	},
}

// HasPermission checks if a role has a specific permission
func HasPermission(role Role, permission Permission) bool {
	permissions, exists := RolePermissions[role]
	if !exists {
		return false
	}

	for _, p := range permissions {
		if p == permission {
			return true
		}
	}

	return false
}
