package invoice

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/shopspring/decimal"
	"github.com/workpay-hr/payroll-backend-go/internal/domain/company"
	"github.com/workpay-hr/payroll-backend-go/internal/domain/contractor"
	"github.com/workpay-hr/payroll-backend-go/internal/domain/invoice"
	"github.com/workpay-hr/payroll-backend-go/internal/domain/notification"
	"github.com/workpay-hr/payroll-backend-go/internal/domain/user"
	"github.com/workpay-hr/payroll-backend-go/internal/pkg/currency"
	"github.com/workpay-hr/payroll-backend-go/internal/pkg/database"
	"github.com/workpay-hr/payroll-backend-go/internal/pkg/events"
	"github.com/workpay-hr/payroll-backend-go/internal/pkg/jwt"
)

const recentInvoices = 5

type InvoiceServiceImpl struct {
	tx             database.Transactor
	invoiceRepo    invoice.InvoiceRepository
	contractorRepo contractor.ContractorRepository
	companyRepo    company.CompanyRepository
	notifier       notification.Service
	publisher      events.Publisher
	now            func() time.Time
}

type Deps struct {
	Transactor    database.Transactor
	Invoices      invoice.InvoiceRepository
	Contractors   contractor.ContractorRepository
	Companies     company.CompanyRepository
	Notifications notification.Service
	Publisher     events.Publisher
}

func NewInvoiceService(d Deps) invoice.InvoiceService {
	publisher := d.Publisher
	if publisher == nil {
		publisher = events.NewNoopPublisher()
	}
	return &InvoiceServiceImpl{
		tx:             d.Transactor,
		invoiceRepo:    d.Invoices,
		contractorRepo: d.Contractors,
		companyRepo:    d.Companies,
		notifier:       d.Notifications,
		publisher:      publisher,
		now:            time.Now,
	}
}

func (s *InvoiceServiceImpl) self(ctx context.Context) (contractor.Contractor, error) {
	claims, err := jwt.ClaimsFromContext(ctx)
	if err != nil {
		return contractor.Contractor{}, err
	}
	if claims.Role != user.RoleContractor {
		return contractor.Contractor{}, invoice.ErrContractorRequired
	}

	c, err := s.contractorRepo.GetByUserID(ctx, claims.UserID)
	if err != nil {
		if errors.Is(err, contractor.ErrContractorNotFound) {
			return contractor.Contractor{}, invoice.ErrContractorRequired
		}
		return contractor.Contractor{}, fmt.Errorf("failed to get contractor: %w", err)
	}
	return c, nil
}

// mine loads an invoice owned by the calling contractor.
func (s *InvoiceServiceImpl) mine(ctx context.Context, c contractor.Contractor, id string) (invoice.Invoice, error) {
	inv, err := s.invoiceRepo.GetByID(ctx, id)
	if err != nil {
		return invoice.Invoice{}, err
	}
	if inv.ContractorID != c.ID {
		return invoice.Invoice{}, invoice.ErrInvoiceNotFound
	}
	return inv, nil
}

// Create stores a draft invoice. Line amounts are always computed here as
// hours x rate; the rate defaults to the contractor's hourly rate.
func (s *InvoiceServiceImpl) Create(ctx context.Context, req invoice.UpsertInvoiceRequest) (invoice.InvoiceResponse, error) {
	if err := req.Validate(); err != nil {
		return invoice.InvoiceResponse{}, err
	}
	c, err := s.self(ctx)
	if err != nil {
		return invoice.InvoiceResponse{}, err
	}
	if !c.IsActive() {
		return invoice.InvoiceResponse{}, contractor.ErrContractorInactive
	}

	items, total := invoice.PriceItems(req.ToLineItems(c.HourlyRate), c.Currency)

	var created invoice.Invoice
	err = s.tx.WithinTransaction(ctx, func(ctx context.Context) error {
		seq, err := s.invoiceRepo.NextSequence(ctx, c.ID)
		if err != nil {
			return fmt.Errorf("failed to allocate invoice number: %w", err)
		}
		created, err = s.invoiceRepo.Create(ctx, invoice.Invoice{
			CompanyID:    c.CompanyID,
			ContractorID: c.ID,
			Number:       invoice.FormatNumber(req.PeriodStartValue, seq),
			PeriodStart:  req.PeriodStartValue,
			PeriodEnd:    req.PeriodEndValue,
			Items:        items,
			Total:        total,
			Currency:     c.Currency,
			Notes:        req.Notes,
			Status:       invoice.StatusDraft,
		})
		if err != nil {
			return fmt.Errorf("failed to create invoice: %w", err)
		}
		return nil
	})
	if err != nil {
		return invoice.InvoiceResponse{}, err
	}
	return toResponse(created), nil
}

// Update replaces the content of a draft or rejected invoice.
func (s *InvoiceServiceImpl) Update(ctx context.Context, id string, req invoice.UpsertInvoiceRequest) (invoice.InvoiceResponse, error) {
	if err := req.Validate(); err != nil {
		return invoice.InvoiceResponse{}, err
	}
	c, err := s.self(ctx)
	if err != nil {
		return invoice.InvoiceResponse{}, err
	}

	inv, err := s.mine(ctx, c, id)
	if err != nil {
		return invoice.InvoiceResponse{}, err
	}
	if !inv.Status.Editable() {
		return invoice.InvoiceResponse{}, invoice.ErrInvoiceNotEditable
	}

	inv.PeriodStart = req.PeriodStartValue
	inv.PeriodEnd = req.PeriodEndValue
	inv.Items, inv.Total = invoice.PriceItems(req.ToLineItems(c.HourlyRate), inv.Currency)
	inv.Notes = req.Notes
	if err := s.invoiceRepo.UpdateContent(ctx, inv); err != nil {
		return invoice.InvoiceResponse{}, fmt.Errorf("failed to update invoice: %w", err)
	}
	return toResponse(inv), nil
}

func (s *InvoiceServiceImpl) Submit(ctx context.Context, id string) (invoice.InvoiceResponse, error) {
	c, err := s.self(ctx)
	if err != nil {
		return invoice.InvoiceResponse{}, err
	}

	inv, err := s.mine(ctx, c, id)
	if err != nil {
		return invoice.InvoiceResponse{}, err
	}
	if len(inv.Items) == 0 {
		return invoice.InvoiceResponse{}, invoice.ErrEmptyInvoice
	}
	if !invoice.CanTransition(inv.Status, invoice.StatusSubmitted) {
		return invoice.InvoiceResponse{}, invoice.ErrInvalidStatusTransition
	}

	now := s.now().UTC()
	inv.Status = invoice.StatusSubmitted
	inv.SubmittedAt = &now
	inv.RejectionReason = nil
	if err := s.invoiceRepo.UpdateStatus(ctx, inv); err != nil {
		return invoice.InvoiceResponse{}, fmt.Errorf("failed to submit invoice: %w", err)
	}

	s.notifyOwner(ctx, c, inv)
	events.PublishAsync(s.publisher, events.New(events.InvoiceSubmitted, inv.ID, inv.CompanyID, invoiceEvent(inv)))
	return toResponse(inv), nil
}

func (s *InvoiceServiceImpl) ListMine(ctx context.Context, filter invoice.InvoiceFilter) (invoice.ListInvoiceResponse, error) {
	c, err := s.self(ctx)
	if err != nil {
		return invoice.ListInvoiceResponse{}, err
	}
	filter.ContractorID = nil
	if err := filter.Validate(); err != nil {
		return invoice.ListInvoiceResponse{}, err
	}
	filter.CompanyID = c.CompanyID
	filter.ContractorID = &c.ID
	return s.list(ctx, filter)
}

func (s *InvoiceServiceImpl) GetMine(ctx context.Context, id string) (invoice.InvoiceResponse, error) {
	c, err := s.self(ctx)
	if err != nil {
		return invoice.InvoiceResponse{}, err
	}
	inv, err := s.mine(ctx, c, id)
	if err != nil {
		return invoice.InvoiceResponse{}, err
	}
	return toResponse(inv), nil
}

// Dashboard summarizes the contractor's invoices: totals per status, money
// earned (paid) and outstanding (submitted or approved).
func (s *InvoiceServiceImpl) Dashboard(ctx context.Context) (invoice.ContractorDashboardResponse, error) {
	c, err := s.self(ctx)
	if err != nil {
		return invoice.ContractorDashboardResponse{}, err
	}

	totals, err := s.invoiceRepo.TotalsByStatus(ctx, c.ID)
	if err != nil {
		return invoice.ContractorDashboardResponse{}, fmt.Errorf("failed to get invoice totals: %w", err)
	}

	resp := invoice.ContractorDashboardResponse{
		Currency:    c.Currency,
		ByStatus:    make(map[string]invoice.StatusTotalsResponse, 5),
		TotalEarned: decimal.Zero,
		Outstanding: decimal.Zero,
	}
	for _, st := range []invoice.Status{invoice.StatusDraft, invoice.StatusSubmitted, invoice.StatusApproved, invoice.StatusRejected, invoice.StatusPaid} {
		resp.ByStatus[string(st)] = invoice.StatusTotalsResponse{Amount: decimal.Zero}
	}
	for _, t := range totals {
		resp.ByStatus[string(t.Status)] = invoice.StatusTotalsResponse{Count: t.Count, Amount: t.Amount}
		switch t.Status {
		case invoice.StatusPaid:
			resp.TotalEarned = resp.TotalEarned.Add(t.Amount)
		case invoice.StatusSubmitted, invoice.StatusApproved:
			resp.Outstanding = resp.Outstanding.Add(t.Amount)
		}
	}

	recent, _, err := s.invoiceRepo.List(ctx, invoice.InvoiceFilter{
		CompanyID:    c.CompanyID,
		ContractorID: &c.ID,
		Page:         1,
		Limit:        recentInvoices,
	})
	if err != nil {
		return invoice.ContractorDashboardResponse{}, fmt.Errorf("failed to list recent invoices: %w", err)
	}
	resp.RecentInvoices = make([]invoice.InvoiceResponse, 0, len(recent))
	for _, inv := range recent {
		resp.RecentInvoices = append(resp.RecentInvoices, toResponse(inv))
	}
	return resp, nil
}

func (s *InvoiceServiceImpl) ListForCompany(ctx context.Context, filter invoice.InvoiceFilter) (invoice.ListInvoiceResponse, error) {
	claims, err := jwt.CompanyClaimsFromContext(ctx)
	if err != nil {
		return invoice.ListInvoiceResponse{}, err
	}
	if err := filter.Validate(); err != nil {
		return invoice.ListInvoiceResponse{}, err
	}
	filter.CompanyID = claims.CompanyID
	filter.ExcludeDraft = true
	return s.list(ctx, filter)
}

func (s *InvoiceServiceImpl) list(ctx context.Context, filter invoice.InvoiceFilter) (invoice.ListInvoiceResponse, error) {
	invoices, total, err := s.invoiceRepo.List(ctx, filter)
	if err != nil {
		return invoice.ListInvoiceResponse{}, fmt.Errorf("failed to list invoices: %w", err)
	}

	resp := invoice.ListInvoiceResponse{
		Invoices:   make([]invoice.InvoiceResponse, 0, len(invoices)),
		TotalCount: total,
		Page:       filter.Page,
		Limit:      filter.Limit,
		TotalPages: int((total + int64(filter.Limit) - 1) / int64(filter.Limit)),
	}
	for _, inv := range invoices {
		resp.Invoices = append(resp.Invoices, toResponse(inv))
	}
	return resp, nil
}

// review moves a company invoice to the given status.
func (s *InvoiceServiceImpl) review(ctx context.Context, id string, to invoice.Status, apply func(inv *invoice.Invoice, claims jwt.Claims)) (invoice.Invoice, error) {
	claims, err := jwt.CompanyClaimsFromContext(ctx)
	if err != nil {
		return invoice.Invoice{}, err
	}

	var inv invoice.Invoice
	err = s.tx.WithinTransaction(ctx, func(ctx context.Context) error {
		inv, err = s.invoiceRepo.GetByID(ctx, id)
		if err != nil {
			return err
		}
		if inv.CompanyID != claims.CompanyID || inv.Status == invoice.StatusDraft {
			return invoice.ErrInvoiceNotFound
		}
		if !invoice.CanTransition(inv.Status, to) {
			return invoice.ErrInvalidStatusTransition
		}
		inv.Status = to
		apply(&inv, claims)
		return s.invoiceRepo.UpdateStatus(ctx, inv)
	})
	if err != nil {
		return invoice.Invoice{}, err
	}
	return inv, nil
}

func (s *InvoiceServiceImpl) Approve(ctx context.Context, id string) (invoice.InvoiceResponse, error) {
	inv, err := s.review(ctx, id, invoice.StatusApproved, func(inv *invoice.Invoice, claims jwt.Claims) {
		now := s.now().UTC()
		inv.ApprovedBy = &claims.UserID
		inv.ApprovedAt = &now
	})
	if err != nil {
		return invoice.InvoiceResponse{}, err
	}

	s.notifyContractor(ctx, inv, notification.TypeInvoiceApproved, "Invoice approved",
		fmt.Sprintf("Invoice %s was approved.", inv.Number))
	events.PublishAsync(s.publisher, events.New(events.InvoiceApproved, inv.ID, inv.CompanyID, invoiceEvent(inv)))
	return toResponse(inv), nil
}

func (s *InvoiceServiceImpl) Reject(ctx context.Context, id string, req invoice.RejectInvoiceRequest) (invoice.InvoiceResponse, error) {
	if err := req.Validate(); err != nil {
		return invoice.InvoiceResponse{}, err
	}

	inv, err := s.review(ctx, id, invoice.StatusRejected, func(inv *invoice.Invoice, _ jwt.Claims) {
		reason := req.Reason
		inv.RejectionReason = &reason
	})
	if err != nil {
		return invoice.InvoiceResponse{}, err
	}

	s.notifyContractor(ctx, inv, notification.TypeInvoiceRejected, "Invoice rejected",
		fmt.Sprintf("Invoice %s was rejected: %s", inv.Number, req.Reason))
	events.PublishAsync(s.publisher, events.New(events.InvoiceRejected, inv.ID, inv.CompanyID, invoiceEvent(inv)))
	return toResponse(inv), nil
}

func (s *InvoiceServiceImpl) MarkPaid(ctx context.Context, id string) (invoice.InvoiceResponse, error) {
	inv, err := s.review(ctx, id, invoice.StatusPaid, func(inv *invoice.Invoice, _ jwt.Claims) {
		now := s.now().UTC()
		inv.PaidAt = &now
	})
	if err != nil {
		return invoice.InvoiceResponse{}, err
	}

	s.notifyContractor(ctx, inv, notification.TypeInvoicePaid, "Invoice paid",
		fmt.Sprintf("Invoice %s for %s has been paid.", inv.Number, currency.Format(inv.Total, inv.Currency)))
	events.PublishAsync(s.publisher, events.New(events.InvoicePaid, inv.ID, inv.CompanyID, invoiceEvent(inv)))
	return toResponse(inv), nil
}

func (s *InvoiceServiceImpl) notifyOwner(ctx context.Context, c contractor.Contractor, inv invoice.Invoice) {
	if s.notifier == nil {
		return
	}
	co, err := s.companyRepo.GetByID(ctx, c.CompanyID)
	if err != nil {
		slog.Warn("failed to load company for invoice notification", "company_id", c.CompanyID, "error", err)
		return
	}
	message := fmt.Sprintf("%s submitted invoice %s for %s.", c.FullName, inv.Number, currency.Format(inv.Total, inv.Currency))
	err = s.notifier.Notify(ctx, notification.NotifyRequest{
		CompanyID:   &co.ID,
		RecipientID: co.OwnerUserID,
		SenderID:    &c.UserID,
		Type:        notification.TypeInvoiceSubmitted,
		Title:       "Invoice submitted",
		Message:     message,
		Data:        map[string]interface{}{"invoice_id": inv.ID},
	})
	if err != nil {
		slog.Warn("failed to queue invoice notification", "invoice_id", inv.ID, "error", err)
	}
}

func (s *InvoiceServiceImpl) notifyContractor(ctx context.Context, inv invoice.Invoice, t notification.NotificationType, title, message string) {
	if s.notifier == nil || inv.ContractorUserID == nil {
		return
	}
	companyID := inv.CompanyID
	err := s.notifier.Notify(ctx, notification.NotifyRequest{
		CompanyID:   &companyID,
		RecipientID: *inv.ContractorUserID,
		Type:        t,
		Title:       title,
		Message:     message,
		Data:        map[string]interface{}{"invoice_id": inv.ID},
	})
	if err != nil {
		slog.Warn("failed to queue invoice notification", "invoice_id", inv.ID, "error", err)
	}
}

func invoiceEvent(inv invoice.Invoice) map[string]any {
	return map[string]any{
		"invoice_id":    inv.ID,
		"contractor_id": inv.ContractorID,
		"number":        inv.Number,
		"status":        string(inv.Status),
		"total":         inv.Total.StringFixed(2),
		"currency":      inv.Currency,
	}
}

func toResponse(inv invoice.Invoice) invoice.InvoiceResponse {
	items := inv.Items
	if items == nil {
		items = []invoice.LineItem{}
	}
	return invoice.InvoiceResponse{
		ID:              inv.ID,
		ContractorID:    inv.ContractorID,
		ContractorName:  inv.ContractorName,
		Number:          inv.Number,
		PeriodStart:     inv.PeriodStart.Format("2006-01-02"),
		PeriodEnd:       inv.PeriodEnd.Format("2006-01-02"),
		Items:           items,
		Total:           inv.Total,
		TotalDisplay:    currency.Format(inv.Total, inv.Currency),
		Currency:        inv.Currency,
		Notes:           inv.Notes,
		Status:          string(inv.Status),
		RejectionReason: inv.RejectionReason,
		SubmittedAt:     formatTime(inv.SubmittedAt),
		ApprovedAt:      formatTime(inv.ApprovedAt),
		PaidAt:          formatTime(inv.PaidAt),
		CreatedAt:       inv.CreatedAt.Format(time.RFC3339),
		UpdatedAt:       inv.UpdatedAt.Format(time.RFC3339),
	}
}

func formatTime(t *time.Time) *string {
	if t == nil {
		return nil
	}
	s := t.Format(time.RFC3339)
	return &s
}
