package contractor

import (
	"context"
	"errors"
	"fmt"

	"github.com/workpay-hr/payroll-backend-go/internal/domain/contractor"
	"github.com/workpay-hr/payroll-backend-go/internal/domain/user"
	"github.com/workpay-hr/payroll-backend-go/internal/pkg/jwt"
)

type ContractorServiceImpl struct {
	contractorRepo contractor.ContractorRepository
}

func NewContractorService(contractorRepo contractor.ContractorRepository) contractor.ContractorService {
	return &ContractorServiceImpl{contractorRepo: contractorRepo}
}

func (s *ContractorServiceImpl) List(ctx context.Context, filter contractor.ContractorFilter) (contractor.ListContractorResponse, error) {
	claims, err := jwt.CompanyClaimsFromContext(ctx)
	if err != nil {
		return contractor.ListContractorResponse{}, err
	}
	if err := filter.Validate(); err != nil {
		return contractor.ListContractorResponse{}, err
	}
	filter.CompanyID = claims.CompanyID

	list, total, err := s.contractorRepo.List(ctx, filter)
	if err != nil {
		return contractor.ListContractorResponse{}, fmt.Errorf("failed to list contractors: %w", err)
	}

	resp := contractor.ListContractorResponse{
		Contractors: make([]contractor.ContractorResponse, 0, len(list)),
		TotalCount:  total,
		Page:        filter.Page,
		Limit:       filter.Limit,
		TotalPages:  int((total + int64(filter.Limit) - 1) / int64(filter.Limit)),
	}
	for _, c := range list {
		resp.Contractors = append(resp.Contractors, contractor.ToResponse(c))
	}
	return resp, nil
}

func (s *ContractorServiceImpl) Get(ctx context.Context, id string) (contractor.ContractorResponse, error) {
	claims, err := jwt.CompanyClaimsFromContext(ctx)
	if err != nil {
		return contractor.ContractorResponse{}, err
	}

	c, err := s.contractorRepo.GetByID(ctx, claims.CompanyID, id)
	if err != nil {
		return contractor.ContractorResponse{}, err
	}
	return contractor.ToResponse(c), nil
}

// Update checks the contract range against stored dates when only one
// side is being changed.
func (s *ContractorServiceImpl) Update(ctx context.Context, id string, req contractor.UpdateContractorRequest) (contractor.ContractorResponse, error) {
	claims, err := jwt.CompanyClaimsFromContext(ctx)
	if err != nil {
		return contractor.ContractorResponse{}, err
	}
	if err := req.Validate(); err != nil {
		return contractor.ContractorResponse{}, err
	}

	current, err := s.contractorRepo.GetByID(ctx, claims.CompanyID, id)
	if err != nil {
		return contractor.ContractorResponse{}, err
	}
	start, end := current.ContractStart, current.ContractEnd
	if req.ContractStartValue != nil {
		start = req.ContractStartValue
	}
	if req.ContractEndValue != nil {
		end = req.ContractEndValue
	}
	if start != nil && end != nil && end.Before(*start) {
		return contractor.ContractorResponse{}, contractor.ErrInvalidContractRange
	}

	updated, err := s.contractorRepo.Update(ctx, claims.CompanyID, id, req)
	if err != nil {
		if errors.Is(err, contractor.ErrContractorNotFound) {
			return contractor.ContractorResponse{}, err
		}
		return contractor.ContractorResponse{}, fmt.Errorf("failed to update contractor: %w", err)
	}
	return contractor.ToResponse(updated), nil
}

func (s *ContractorServiceImpl) GetMyProfile(ctx context.Context) (contractor.ContractorResponse, error) {
	claims, err := jwt.ClaimsFromContext(ctx)
	if err != nil {
		return contractor.ContractorResponse{}, err
	}
	if claims.Role != user.RoleContractor {
		return contractor.ContractorResponse{}, contractor.ErrContractorOnly
	}

	c, err := s.contractorRepo.GetByUserID(ctx, claims.UserID)
	if err != nil {
		return contractor.ContractorResponse{}, err
	}
	return contractor.ToResponse(c), nil
}
