package leave

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/workpay-hr/payroll-backend-go/internal/domain/company"
	"github.com/workpay-hr/payroll-backend-go/internal/domain/employee"
	"github.com/workpay-hr/payroll-backend-go/internal/domain/leave"
	"github.com/workpay-hr/payroll-backend-go/internal/domain/notification"
	"github.com/workpay-hr/payroll-backend-go/internal/domain/user"
	"github.com/workpay-hr/payroll-backend-go/internal/pkg/database"
	"github.com/workpay-hr/payroll-backend-go/internal/pkg/events"
	"github.com/workpay-hr/payroll-backend-go/internal/pkg/jwt"
)

type LeaveServiceImpl struct {
	tx           database.Transactor
	requestRepo  leave.LeaveRequestRepository
	quotaRepo    leave.LeaveQuotaRepository
	employeeRepo employee.EmployeeRepository
	companyRepo  company.CompanyRepository
	notifier     notification.Service
	publisher    events.Publisher
	now          func() time.Time
}

type Deps struct {
	Transactor    database.Transactor
	Requests      leave.LeaveRequestRepository
	Quotas        leave.LeaveQuotaRepository
	Employees     employee.EmployeeRepository
	Companies     company.CompanyRepository
	Notifications notification.Service
	Publisher     events.Publisher
}

func NewLeaveService(d Deps) leave.LeaveService {
	publisher := d.Publisher
	if publisher == nil {
		publisher = events.NewNoopPublisher()
	}
	return &LeaveServiceImpl{
		tx:           d.Transactor,
		requestRepo:  d.Requests,
		quotaRepo:    d.Quotas,
		employeeRepo: d.Employees,
		companyRepo:  d.Companies,
		notifier:     d.Notifications,
		publisher:    publisher,
		now:          time.Now,
	}
}

func (s *LeaveServiceImpl) self(ctx context.Context) (employee.Employee, error) {
	claims, err := jwt.ClaimsFromContext(ctx)
	if err != nil {
		return employee.Employee{}, err
	}
	if claims.Role != user.RoleEmployee {
		return employee.Employee{}, employee.ErrEmployeeProfileOnly
	}
	emp, err := s.employeeRepo.GetByUserID(ctx, claims.UserID)
	if err != nil {
		return employee.Employee{}, err
	}
	if !emp.IsActive() {
		return employee.Employee{}, employee.ErrEmployeeInactive
	}
	return emp, nil
}

// quota returns the balance row for the year, creating it with the default
// entitlement on first use.
func (s *LeaveServiceImpl) quota(ctx context.Context, employeeID string, t leave.LeaveType, year int) (leave.LeaveQuota, error) {
	q, err := s.quotaRepo.GetOrCreate(ctx, employeeID, t, year, leave.DefaultEntitlement(t))
	if err != nil {
		return leave.LeaveQuota{}, fmt.Errorf("failed to get leave quota: %w", err)
	}
	return q, nil
}

// CreateLeaveRequest reserves the working days of the request as pending on
// the employee's balance. Unpaid leave has no balance.
func (s *LeaveServiceImpl) CreateLeaveRequest(ctx context.Context, req leave.CreateLeaveRequestRequest) (leave.LeaveRequestResponse, error) {
	if err := req.Validate(); err != nil {
		return leave.LeaveRequestResponse{}, err
	}
	emp, err := s.self(ctx)
	if err != nil {
		return leave.LeaveRequestResponse{}, err
	}

	if req.StartDateValue.Year() != req.EndDateValue.Year() {
		return leave.LeaveRequestResponse{}, leave.ErrCrossYearRequest
	}
	days := leave.CountWorkingDays(req.StartDateValue, req.EndDateValue)
	if days == 0 {
		return leave.LeaveRequestResponse{}, leave.ErrNoWorkingDays
	}
	leaveType := leave.LeaveType(req.LeaveType)

	var created leave.LeaveRequest
	err = s.tx.WithinTransaction(ctx, func(ctx context.Context) error {
		overlap, err := s.requestRepo.HasOverlap(ctx, emp.ID, req.StartDateValue, req.EndDateValue)
		if err != nil {
			return fmt.Errorf("failed to check overlapping requests: %w", err)
		}
		if overlap {
			return leave.ErrOverlappingRequest
		}

		if leaveType.HasQuota() {
			q, err := s.quota(ctx, emp.ID, leaveType, req.StartDateValue.Year())
			if err != nil {
				return err
			}
			if days > q.Available() {
				return leave.ErrInsufficientQuota
			}
			if err := s.quotaRepo.AddPendingQuota(ctx, q.ID, days); err != nil {
				return fmt.Errorf("failed to reserve leave quota: %w", err)
			}
		}

		created, err = s.requestRepo.Create(ctx, leave.LeaveRequest{
			CompanyID:   emp.CompanyID,
			EmployeeID:  emp.ID,
			LeaveType:   leaveType,
			StartDate:   req.StartDateValue,
			EndDate:     req.EndDateValue,
			WorkingDays: days,
			Reason:      req.Reason,
			Status:      leave.RequestStatusPending,
		})
		if err != nil {
			return fmt.Errorf("failed to create leave request: %w", err)
		}
		return nil
	})
	if err != nil {
		return leave.LeaveRequestResponse{}, err
	}
	created.EmployeeName = &emp.FullName
	created.EmployeeCode = &emp.EmployeeCode

	s.notifyOwner(ctx, emp, created)
	events.PublishAsync(s.publisher, events.New(events.LeaveRequested, created.ID, created.CompanyID, requestEvent(created)))
	return leave.ToRequestResponse(created), nil
}

func (s *LeaveServiceImpl) ListMyLeaveRequests(ctx context.Context, filter leave.MyLeaveRequestFilter) ([]leave.LeaveRequestResponse, error) {
	if err := filter.Validate(); err != nil {
		return nil, err
	}
	emp, err := s.self(ctx)
	if err != nil {
		return nil, err
	}

	requests, err := s.requestRepo.ListByEmployee(ctx, emp.ID, filter)
	if err != nil {
		return nil, fmt.Errorf("failed to list leave requests: %w", err)
	}
	result := make([]leave.LeaveRequestResponse, 0, len(requests))
	for _, r := range requests {
		result = append(result, leave.ToRequestResponse(r))
	}
	return result, nil
}

// GetMyBalance returns one entry per leave type. A zero year means the
// current one.
func (s *LeaveServiceImpl) GetMyBalance(ctx context.Context, year int) ([]leave.LeaveQuotaResponse, error) {
	emp, err := s.self(ctx)
	if err != nil {
		return nil, err
	}
	if year == 0 {
		year = s.now().Year()
	}

	result := make([]leave.LeaveQuotaResponse, 0, len(leave.AllLeaveTypes))
	for _, t := range leave.AllLeaveTypes {
		if !t.HasQuota() {
			result = append(result, leave.LeaveQuotaResponse{LeaveType: string(t), Year: year, Unlimited: true})
			continue
		}
		q, err := s.quota(ctx, emp.ID, t, year)
		if err != nil {
			return nil, err
		}
		result = append(result, leave.ToQuotaResponse(q))
	}
	return result, nil
}

func (s *LeaveServiceImpl) CancelLeaveRequest(ctx context.Context, requestID string) (leave.LeaveRequestResponse, error) {
	emp, err := s.self(ctx)
	if err != nil {
		return leave.LeaveRequestResponse{}, err
	}

	var request leave.LeaveRequest
	err = s.tx.WithinTransaction(ctx, func(ctx context.Context) error {
		request, err = s.requestRepo.GetByID(ctx, emp.CompanyID, requestID)
		if err != nil {
			return err
		}
		if request.EmployeeID != emp.ID {
			return leave.ErrLeaveRequestNotFound
		}
		if request.Status != leave.RequestStatusPending {
			return leave.ErrLeaveRequestAlreadyProcessed
		}

		request.Status = leave.RequestStatusCancelled
		if err := s.requestRepo.UpdateStatus(ctx, request); err != nil {
			return fmt.Errorf("failed to cancel leave request: %w", err)
		}
		return s.releasePending(ctx, request)
	})
	if err != nil {
		return leave.LeaveRequestResponse{}, err
	}
	return leave.ToRequestResponse(request), nil
}

func (s *LeaveServiceImpl) ListLeaveRequest(ctx context.Context, filter leave.LeaveRequestFilter) (leave.ListLeaveRequestResponse, error) {
	claims, err := jwt.CompanyClaimsFromContext(ctx)
	if err != nil {
		return leave.ListLeaveRequestResponse{}, err
	}
	if err := filter.Validate(); err != nil {
		return leave.ListLeaveRequestResponse{}, err
	}
	filter.CompanyID = claims.CompanyID

	requests, total, err := s.requestRepo.List(ctx, filter)
	if err != nil {
		return leave.ListLeaveRequestResponse{}, fmt.Errorf("failed to list leave requests: %w", err)
	}

	resp := leave.ListLeaveRequestResponse{
		Requests:   make([]leave.LeaveRequestResponse, 0, len(requests)),
		TotalCount: total,
		Page:       filter.Page,
		Limit:      filter.Limit,
		TotalPages: int((total + int64(filter.Limit) - 1) / int64(filter.Limit)),
	}
	for _, r := range requests {
		resp.Requests = append(resp.Requests, leave.ToRequestResponse(r))
	}
	return resp, nil
}

// review runs a pending request to its final state inside one transaction.
func (s *LeaveServiceImpl) review(ctx context.Context, requestID string, apply func(ctx context.Context, r *leave.LeaveRequest) error) (leave.LeaveRequest, error) {
	claims, err := jwt.CompanyClaimsFromContext(ctx)
	if err != nil {
		return leave.LeaveRequest{}, err
	}

	var request leave.LeaveRequest
	err = s.tx.WithinTransaction(ctx, func(ctx context.Context) error {
		request, err = s.requestRepo.GetByID(ctx, claims.CompanyID, requestID)
		if err != nil {
			return err
		}
		if request.Status != leave.RequestStatusPending {
			return leave.ErrLeaveRequestAlreadyProcessed
		}

		now := s.now().UTC()
		request.ReviewedBy = &claims.UserID
		request.ReviewedAt = &now
		if err := apply(ctx, &request); err != nil {
			return err
		}
		if err := s.requestRepo.UpdateStatus(ctx, request); err != nil {
			return fmt.Errorf("failed to update leave request: %w", err)
		}
		return nil
	})
	if err != nil {
		return leave.LeaveRequest{}, err
	}
	return request, nil
}

func (s *LeaveServiceImpl) ApproveLeaveRequest(ctx context.Context, requestID string) (leave.LeaveRequestResponse, error) {
	request, err := s.review(ctx, requestID, func(ctx context.Context, r *leave.LeaveRequest) error {
		r.Status = leave.RequestStatusApproved
		if !r.LeaveType.HasQuota() {
			return nil
		}
		q, err := s.quota(ctx, r.EmployeeID, r.LeaveType, r.StartDate.Year())
		if err != nil {
			return err
		}
		if err := s.quotaRepo.MovePendingToUsed(ctx, q.ID, r.WorkingDays); err != nil {
			return fmt.Errorf("failed to consume leave quota: %w", err)
		}
		return nil
	})
	if err != nil {
		return leave.LeaveRequestResponse{}, err
	}

	s.notifyEmployee(ctx, request, notification.TypeLeaveApproved, "Leave approved",
		fmt.Sprintf("Your %s leave from %s to %s was approved.", request.LeaveType,
			request.StartDate.Format("02 Jan"), request.EndDate.Format("02 Jan 2006")))
	events.PublishAsync(s.publisher, events.New(events.LeaveApproved, request.ID, request.CompanyID, requestEvent(request)))
	return leave.ToRequestResponse(request), nil
}

func (s *LeaveServiceImpl) RejectLeaveRequest(ctx context.Context, requestID string, req leave.RejectRequestRequest) (leave.LeaveRequestResponse, error) {
	if err := req.Validate(); err != nil {
		return leave.LeaveRequestResponse{}, err
	}

	request, err := s.review(ctx, requestID, func(ctx context.Context, r *leave.LeaveRequest) error {
		r.Status = leave.RequestStatusRejected
		reason := req.Reason
		r.RejectionReason = &reason
		return s.releasePending(ctx, *r)
	})
	if err != nil {
		return leave.LeaveRequestResponse{}, err
	}

	s.notifyEmployee(ctx, request, notification.TypeLeaveRejected, "Leave rejected",
		fmt.Sprintf("Your %s leave request was rejected: %s", request.LeaveType, req.Reason))
	events.PublishAsync(s.publisher, events.New(events.LeaveRejected, request.ID, request.CompanyID, requestEvent(request)))
	return leave.ToRequestResponse(request), nil
}

func (s *LeaveServiceImpl) releasePending(ctx context.Context, r leave.LeaveRequest) error {
	if !r.LeaveType.HasQuota() {
		return nil
	}
	q, err := s.quota(ctx, r.EmployeeID, r.LeaveType, r.StartDate.Year())
	if err != nil {
		return err
	}
	if err := s.quotaRepo.RemovePendingQuota(ctx, q.ID, r.WorkingDays); err != nil {
		return fmt.Errorf("failed to release leave quota: %w", err)
	}
	return nil
}

func (s *LeaveServiceImpl) notifyOwner(ctx context.Context, emp employee.Employee, r leave.LeaveRequest) {
	if s.notifier == nil {
		return
	}
	c, err := s.companyRepo.GetByID(ctx, emp.CompanyID)
	if err != nil {
		if !errors.Is(err, company.ErrCompanyNotFound) {
			slog.Warn("failed to load company for leave notification", "company_id", emp.CompanyID, "error", err)
		}
		return
	}
	message := fmt.Sprintf("%s requested %d day(s) of %s leave starting %s.",
		emp.FullName, r.WorkingDays, r.LeaveType, r.StartDate.Format("02 Jan 2006"))
	err = s.notifier.Notify(ctx, notification.NotifyRequest{
		CompanyID:   &c.ID,
		RecipientID: c.OwnerUserID,
		SenderID:    &emp.UserID,
		Type:        notification.TypeLeaveRequest,
		Title:       "New leave request",
		Message:     message,
		Data:        map[string]interface{}{"leave_request_id": r.ID},
	})
	if err != nil {
		slog.Warn("failed to queue leave request notification", "leave_request_id", r.ID, "error", err)
	}
}

func (s *LeaveServiceImpl) notifyEmployee(ctx context.Context, r leave.LeaveRequest, t notification.NotificationType, title, message string) {
	if s.notifier == nil || r.EmployeeUserID == nil {
		return
	}
	companyID := r.CompanyID
	err := s.notifier.Notify(ctx, notification.NotifyRequest{
		CompanyID:   &companyID,
		RecipientID: *r.EmployeeUserID,
		SenderID:    r.ReviewedBy,
		Type:        t,
		Title:       title,
		Message:     message,
		Data:        map[string]interface{}{"leave_request_id": r.ID},
	})
	if err != nil {
		slog.Warn("failed to queue leave decision notification", "leave_request_id", r.ID, "error", err)
	}
}

func requestEvent(r leave.LeaveRequest) map[string]any {
	return map[string]any{
		"leave_request_id": r.ID,
		"employee_id":      r.EmployeeID,
		"leave_type":       string(r.LeaveType),
		"start_date":       r.StartDate.Format("2006-01-02"),
		"end_date":         r.EndDate.Format("2006-01-02"),
		"working_days":     r.WorkingDays,
		"status":           string(r.Status),
	}
}
