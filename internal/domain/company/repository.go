package company

import "context"

type CompanyRepository interface {
	GetByID(ctx context.Context, id string) (Company, error)
	GetByJoinCode(ctx context.Context, code string) (Company, error)
	GetByOwner(ctx context.Context, ownerUserID string) (Company, error)
	Create(ctx context.Context, newCompany Company) (Company, error)
	Update(ctx context.Context, id string, req UpdateCompanyRequest) (Company, error)
	RegenerateJoinCode(ctx context.Context, id, code string) error
	ListAll(ctx context.Context) ([]Company, error)
	Count(ctx context.Context) (int64, error)
}
