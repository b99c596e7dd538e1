package invoice

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/workpay-hr/payroll-backend-go/internal/domain/company"
	"github.com/workpay-hr/payroll-backend-go/internal/domain/contractor"
	"github.com/workpay-hr/payroll-backend-go/internal/domain/invoice"
	"github.com/workpay-hr/payroll-backend-go/internal/domain/notification"
	"github.com/workpay-hr/payroll-backend-go/internal/domain/user"
	"github.com/workpay-hr/payroll-backend-go/internal/pkg/jwt"
)

type fakeTransactor struct{}

func (fakeTransactor) WithinTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	return fn(ctx)
}

type fakeInvoiceRepo struct {
	invoice.InvoiceRepository
	invoices []invoice.Invoice
	seq      int
	lastList invoice.InvoiceFilter
}

func (f *fakeInvoiceRepo) NextSequence(ctx context.Context, contractorID string) (int, error) {
	f.seq++
	return f.seq, nil
}

func (f *fakeInvoiceRepo) Create(ctx context.Context, inv invoice.Invoice) (invoice.Invoice, error) {
	inv.ID = "inv-" + inv.Number
	name := "Casey Contractor"
	userID := "u-contractor"
	inv.ContractorName = &name
	inv.ContractorUserID = &userID
	f.invoices = append(f.invoices, inv)
	return inv, nil
}

func (f *fakeInvoiceRepo) GetByID(ctx context.Context, id string) (invoice.Invoice, error) {
	for _, inv := range f.invoices {
		if inv.ID == id {
			return inv, nil
		}
	}
	return invoice.Invoice{}, invoice.ErrInvoiceNotFound
}

func (f *fakeInvoiceRepo) put(inv invoice.Invoice) error {
	for i := range f.invoices {
		if f.invoices[i].ID == inv.ID {
			f.invoices[i] = inv
			return nil
		}
	}
	return invoice.ErrInvoiceNotFound
}

func (f *fakeInvoiceRepo) UpdateContent(ctx context.Context, inv invoice.Invoice) error {
	return f.put(inv)
}

func (f *fakeInvoiceRepo) UpdateStatus(ctx context.Context, inv invoice.Invoice) error {
	return f.put(inv)
}

func (f *fakeInvoiceRepo) List(ctx context.Context, filter invoice.InvoiceFilter) ([]invoice.Invoice, int64, error) {
	f.lastList = filter
	var out []invoice.Invoice
	for _, inv := range f.invoices {
		if filter.ExcludeDraft && inv.Status == invoice.StatusDraft {
			continue
		}
		if filter.ContractorID != nil && inv.ContractorID != *filter.ContractorID {
			continue
		}
		out = append(out, inv)
	}
	return out, int64(len(out)), nil
}

func (f *fakeInvoiceRepo) TotalsByStatus(ctx context.Context, contractorID string) ([]invoice.StatusTotals, error) {
	byStatus := map[invoice.Status]*invoice.StatusTotals{}
	var out []invoice.StatusTotals
	for _, inv := range f.invoices {
		t, ok := byStatus[inv.Status]
		if !ok {
			t = &invoice.StatusTotals{Status: inv.Status, Amount: decimal.Zero}
			byStatus[inv.Status] = t
		}
		t.Count++
		t.Amount = t.Amount.Add(inv.Total)
	}
	for _, t := range byStatus {
		out = append(out, *t)
	}
	return out, nil
}

type fakeContractorRepo struct {
	contractor.ContractorRepository
	byUser map[string]contractor.Contractor
}

func (f fakeContractorRepo) GetByUserID(ctx context.Context, userID string) (contractor.Contractor, error) {
	c, ok := f.byUser[userID]
	if !ok {
		return contractor.Contractor{}, contractor.ErrContractorNotFound
	}
	return c, nil
}

type fakeCompanyRepo struct {
	company.CompanyRepository
}

func (fakeCompanyRepo) GetByID(ctx context.Context, id string) (company.Company, error) {
	return company.Company{ID: id, Name: "Acme", OwnerUserID: "u-owner", Currency: "USD"}, nil
}

type fakeNotifier struct {
	notification.Service
	queued []notification.NotifyRequest
}

func (f *fakeNotifier) Notify(ctx context.Context, req notification.NotifyRequest) error {
	f.queued = append(f.queued, req)
	return nil
}

type fixture struct {
	svc        *InvoiceServiceImpl
	repo       *fakeInvoiceRepo
	notifier   *fakeNotifier
	contractor context.Context
	owner      context.Context
	outsider   context.Context
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	repo := &fakeInvoiceRepo{}
	notifier := &fakeNotifier{}
	contractors := fakeContractorRepo{byUser: map[string]contractor.Contractor{
		"u-contractor": {
			ID:         "c1",
			UserID:     "u-contractor",
			CompanyID:  "co-1",
			HourlyRate: decimal.NewFromInt(50),
			Currency:   "USD",
			Status:     contractor.StatusActive,
			FullName:   "Casey Contractor",
		},
	}}

	svc := NewInvoiceService(Deps{
		Transactor:    fakeTransactor{},
		Invoices:      repo,
		Contractors:   contractors,
		Companies:     fakeCompanyRepo{},
		Notifications: notifier,
	}).(*InvoiceServiceImpl)
	svc.now = func() time.Time { return time.Date(2025, time.April, 2, 10, 0, 0, 0, time.UTC) }

	return &fixture{
		svc:        svc,
		repo:       repo,
		notifier:   notifier,
		contractor: ctxAs(t, "u-contractor", user.RoleContractor, "co-1"),
		owner:      ctxAs(t, "u-owner", user.RoleClient, "co-1"),
		outsider:   ctxAs(t, "u-other", user.RoleClient, "co-2"),
	}
}

func ctxAs(t *testing.T, userID string, role user.Role, companyID string) context.Context {
	t.Helper()
	jwtSvc := jwt.NewJWTService("test-secret-key-for-jwt", "1h", "24h", false)
	ctx, err := jwt.NewContext(context.Background(), jwtSvc, jwt.Identity{UserID: userID, Role: role, CompanyID: &companyID})
	require.NoError(t, err)
	return ctx
}

func marchRequest() invoice.UpsertInvoiceRequest {
	rate := decimal.NewFromInt(80)
	return invoice.UpsertInvoiceRequest{
		PeriodStart: "2025-03-01",
		PeriodEnd:   "2025-03-31",
		Items: []invoice.LineItemRequest{
			{Description: "Backend work", Hours: decimal.NewFromInt(10)},
			{Description: "On-call", Hours: decimal.NewFromInt(2), Rate: &rate},
		},
	}
}

func TestCreate_PricesItemsAndNumbersInvoice(t *testing.T) {
	f := newFixture(t)

	resp, err := f.svc.Create(f.contractor, marchRequest())
	require.NoError(t, err)

	assert.Equal(t, "INV-202503-0001", resp.Number)
	assert.Equal(t, string(invoice.StatusDraft), resp.Status)
	assert.True(t, decimal.NewFromInt(660).Equal(resp.Total), resp.Total.String())
	assert.Equal(t, "$660.00", resp.TotalDisplay)
	assert.True(t, decimal.NewFromInt(500).Equal(resp.Items[0].Amount))
}

func TestCreate_RequiresContractorRole(t *testing.T) {
	f := newFixture(t)

	_, err := f.svc.Create(f.owner, marchRequest())
	assert.ErrorIs(t, err, invoice.ErrContractorRequired)
}

func TestSubmitApprovePay_Lifecycle(t *testing.T) {
	f := newFixture(t)
	created, err := f.svc.Create(f.contractor, marchRequest())
	require.NoError(t, err)

	// drafts are invisible to the company
	_, err = f.svc.Approve(f.owner, created.ID)
	assert.ErrorIs(t, err, invoice.ErrInvoiceNotFound)

	submitted, err := f.svc.Submit(f.contractor, created.ID)
	require.NoError(t, err)
	assert.Equal(t, string(invoice.StatusSubmitted), submitted.Status)
	assert.NotNil(t, submitted.SubmittedAt)
	require.Len(t, f.notifier.queued, 1)
	assert.Equal(t, "u-owner", f.notifier.queued[0].RecipientID)
	assert.Equal(t, notification.TypeInvoiceSubmitted, f.notifier.queued[0].Type)

	_, err = f.svc.Update(f.contractor, created.ID, marchRequest())
	assert.ErrorIs(t, err, invoice.ErrInvoiceNotEditable)

	_, err = f.svc.MarkPaid(f.owner, created.ID)
	assert.ErrorIs(t, err, invoice.ErrInvalidStatusTransition)

	_, err = f.svc.Approve(f.outsider, created.ID)
	assert.ErrorIs(t, err, invoice.ErrInvoiceNotFound)

	approved, err := f.svc.Approve(f.owner, created.ID)
	require.NoError(t, err)
	assert.Equal(t, string(invoice.StatusApproved), approved.Status)

	paid, err := f.svc.MarkPaid(f.owner, created.ID)
	require.NoError(t, err)
	assert.Equal(t, string(invoice.StatusPaid), paid.Status)
	assert.NotNil(t, paid.PaidAt)

	require.Len(t, f.notifier.queued, 3)
	assert.Equal(t, "u-contractor", f.notifier.queued[2].RecipientID)
	assert.Equal(t, notification.TypeInvoicePaid, f.notifier.queued[2].Type)
}

func TestReject_AllowsEditAndResubmit(t *testing.T) {
	f := newFixture(t)
	created, err := f.svc.Create(f.contractor, marchRequest())
	require.NoError(t, err)
	_, err = f.svc.Submit(f.contractor, created.ID)
	require.NoError(t, err)

	_, err = f.svc.Reject(f.owner, created.ID, invoice.RejectInvoiceRequest{Reason: " "})
	require.Error(t, err)

	rejected, err := f.svc.Reject(f.owner, created.ID, invoice.RejectInvoiceRequest{Reason: "hours too high"})
	require.NoError(t, err)
	require.NotNil(t, rejected.RejectionReason)
	assert.Equal(t, "hours too high", *rejected.RejectionReason)

	req := marchRequest()
	req.Items = req.Items[:1]
	updated, err := f.svc.Update(f.contractor, created.ID, req)
	require.NoError(t, err)
	assert.True(t, decimal.NewFromInt(500).Equal(updated.Total))

	resubmitted, err := f.svc.Submit(f.contractor, created.ID)
	require.NoError(t, err)
	assert.Nil(t, resubmitted.RejectionReason)
}

func TestListForCompany_HidesDrafts(t *testing.T) {
	f := newFixture(t)
	first, err := f.svc.Create(f.contractor, marchRequest())
	require.NoError(t, err)
	_, err = f.svc.Create(f.contractor, marchRequest())
	require.NoError(t, err)
	_, err = f.svc.Submit(f.contractor, first.ID)
	require.NoError(t, err)

	resp, err := f.svc.ListForCompany(f.owner, invoice.InvoiceFilter{})
	require.NoError(t, err)
	assert.True(t, f.repo.lastList.ExcludeDraft)
	assert.Equal(t, "co-1", f.repo.lastList.CompanyID)
	require.Len(t, resp.Invoices, 1)
	assert.Equal(t, first.ID, resp.Invoices[0].ID)

	mine, err := f.svc.ListMine(f.contractor, invoice.InvoiceFilter{})
	require.NoError(t, err)
	assert.Len(t, mine.Invoices, 2)
	assert.Equal(t, 1, mine.TotalPages)
}

func TestDashboard_Totals(t *testing.T) {
	f := newFixture(t)
	paid, err := f.svc.Create(f.contractor, marchRequest())
	require.NoError(t, err)
	pending, err := f.svc.Create(f.contractor, marchRequest())
	require.NoError(t, err)

	_, err = f.svc.Submit(f.contractor, paid.ID)
	require.NoError(t, err)
	_, err = f.svc.Approve(f.owner, paid.ID)
	require.NoError(t, err)
	_, err = f.svc.MarkPaid(f.owner, paid.ID)
	require.NoError(t, err)
	_, err = f.svc.Submit(f.contractor, pending.ID)
	require.NoError(t, err)

	dash, err := f.svc.Dashboard(f.contractor)
	require.NoError(t, err)
	assert.True(t, decimal.NewFromInt(660).Equal(dash.TotalEarned))
	assert.True(t, decimal.NewFromInt(660).Equal(dash.Outstanding))
	assert.Equal(t, int64(0), dash.ByStatus[string(invoice.StatusDraft)].Count)
	assert.Equal(t, int64(1), dash.ByStatus[string(invoice.StatusPaid)].Count)
	assert.Len(t, dash.RecentInvoices, 2)
	assert.Equal(t, "USD", dash.Currency)
}
