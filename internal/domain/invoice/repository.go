package invoice

import "context"

type InvoiceRepository interface {
	Create(ctx context.Context, inv Invoice) (Invoice, error)
	GetByID(ctx context.Context, id string) (Invoice, error)
	UpdateContent(ctx context.Context, inv Invoice) error
	UpdateStatus(ctx context.Context, inv Invoice) error
	List(ctx context.Context, filter InvoiceFilter) ([]Invoice, int64, error)
	NextSequence(ctx context.Context, contractorID string) (int, error)
	TotalsByStatus(ctx context.Context, contractorID string) ([]StatusTotals, error)
	CountSubmitted(ctx context.Context, companyID string) (int64, error)
}
