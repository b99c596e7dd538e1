package contractor

import "context"

type ContractorRepository interface {
	GetByID(ctx context.Context, companyID, id string) (Contractor, error)
	GetByUserID(ctx context.Context, userID string) (Contractor, error)
	Create(ctx context.Context, c Contractor) (Contractor, error)
	Update(ctx context.Context, companyID, id string, req UpdateContractorRequest) (Contractor, error)
	List(ctx context.Context, filter ContractorFilter) ([]Contractor, int64, error)
	CountActive(ctx context.Context, companyID string) (int64, error)
}
