package contractor

import "context"

type ContractorService interface {
	List(ctx context.Context, filter ContractorFilter) (ListContractorResponse, error)
	Get(ctx context.Context, id string) (ContractorResponse, error)
	Update(ctx context.Context, id string, req UpdateContractorRequest) (ContractorResponse, error)
	GetMyProfile(ctx context.Context) (ContractorResponse, error)
}
