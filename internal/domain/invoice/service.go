package invoice

import "context"

type InvoiceService interface {
	// Contractor
	Create(ctx context.Context, req UpsertInvoiceRequest) (InvoiceResponse, error)
	Update(ctx context.Context, id string, req UpsertInvoiceRequest) (InvoiceResponse, error)
	Submit(ctx context.Context, id string) (InvoiceResponse, error)
	ListMine(ctx context.Context, filter InvoiceFilter) (ListInvoiceResponse, error)
	GetMine(ctx context.Context, id string) (InvoiceResponse, error)
	Dashboard(ctx context.Context) (ContractorDashboardResponse, error)

	// Client
	ListForCompany(ctx context.Context, filter InvoiceFilter) (ListInvoiceResponse, error)
	Approve(ctx context.Context, id string) (InvoiceResponse, error)
	Reject(ctx context.Context, id string, req RejectInvoiceRequest) (InvoiceResponse, error)
	MarkPaid(ctx context.Context, id string) (InvoiceResponse, error)
}
