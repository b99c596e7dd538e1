package company

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/workpay-hr/payroll-backend-go/internal/domain/company"
	"github.com/workpay-hr/payroll-backend-go/internal/pkg/jwt"
)

const joinCodeAttempts = 3

type CompanyServiceImpl struct {
	companyRepo company.CompanyRepository
}

func NewCompanyService(companyRepo company.CompanyRepository) company.CompanyService {
	return &CompanyServiceImpl{companyRepo: companyRepo}
}

func companyIDFrom(ctx context.Context) (string, error) {
	claims, err := jwt.CompanyClaimsFromContext(ctx)
	if err != nil {
		return "", err
	}
	return claims.CompanyID, nil
}

// GetMine implements company.CompanyService.
func (s *CompanyServiceImpl) GetMine(ctx context.Context) (company.CompanyResponse, error) {
	companyID, err := companyIDFrom(ctx)
	if err != nil {
		return company.CompanyResponse{}, err
	}

	c, err := s.companyRepo.GetByID(ctx, companyID)
	if err != nil {
		return company.CompanyResponse{}, err
	}
	return company.ToResponse(c), nil
}

// UpdateMine implements company.CompanyService.
func (s *CompanyServiceImpl) UpdateMine(ctx context.Context, req company.UpdateCompanyRequest) (company.CompanyResponse, error) {
	companyID, err := companyIDFrom(ctx)
	if err != nil {
		return company.CompanyResponse{}, err
	}
	if err := req.Validate(); err != nil {
		return company.CompanyResponse{}, err
	}

	current, err := s.companyRepo.GetByID(ctx, companyID)
	if err != nil {
		return company.CompanyResponse{}, err
	}

	start, end := current.WorkStartTime, current.WorkEndTime
	if req.WorkStartTime != nil {
		start = *req.WorkStartTime
	}
	if req.WorkEndTime != nil {
		end = *req.WorkEndTime
	}
	if start == end {
		return company.CompanyResponse{}, company.ErrInvalidWorkHours
	}

	updated, err := s.companyRepo.Update(ctx, companyID, req)
	if err != nil {
		if errors.Is(err, company.ErrCompanyNotFound) {
			return company.CompanyResponse{}, err
		}
		return company.CompanyResponse{}, fmt.Errorf("failed to update company: %w", err)
	}
	return company.ToResponse(updated), nil
}

// RegenerateJoinCode invalidates the current join code. Members who
// already joined are unaffected.
func (s *CompanyServiceImpl) RegenerateJoinCode(ctx context.Context) (company.CompanyResponse, error) {
	companyID, err := companyIDFrom(ctx)
	if err != nil {
		return company.CompanyResponse{}, err
	}

	for attempt := 1; ; attempt++ {
		code, err := company.GenerateJoinCode()
		if err != nil {
			return company.CompanyResponse{}, err
		}
		err = s.companyRepo.RegenerateJoinCode(ctx, companyID, code)
		if err == nil {
			break
		}
		if !errors.Is(err, company.ErrJoinCodeExists) || attempt == joinCodeAttempts {
			return company.CompanyResponse{}, fmt.Errorf("failed to regenerate join code: %w", err)
		}
		slog.Debug("join code collision, retrying", "company_id", companyID, "attempt", attempt)
	}

	return s.GetMine(ctx)
}
