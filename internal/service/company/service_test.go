package company

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/workpay-hr/payroll-backend-go/internal/domain/company"
	"github.com/workpay-hr/payroll-backend-go/internal/domain/user"
	"github.com/workpay-hr/payroll-backend-go/internal/pkg/jwt"
)

type fakeCompanyRepo struct {
	company.CompanyRepository
	c          company.Company
	collisions int
	codes      []string
}

func (f *fakeCompanyRepo) GetByID(ctx context.Context, id string) (company.Company, error) {
	if id != f.c.ID {
		return company.Company{}, company.ErrCompanyNotFound
	}
	return f.c, nil
}

func (f *fakeCompanyRepo) Update(ctx context.Context, id string, req company.UpdateCompanyRequest) (company.Company, error) {
	if req.Name != nil {
		f.c.Name = *req.Name
	}
	if req.WorkStartTime != nil {
		f.c.WorkStartTime = *req.WorkStartTime
	}
	if req.WorkEndTime != nil {
		f.c.WorkEndTime = *req.WorkEndTime
	}
	if req.Currency != nil {
		f.c.Currency = *req.Currency
	}
	return f.c, nil
}

func (f *fakeCompanyRepo) RegenerateJoinCode(ctx context.Context, id, code string) error {
	f.codes = append(f.codes, code)
	if f.collisions > 0 {
		f.collisions--
		return company.ErrJoinCodeExists
	}
	f.c.JoinCode = code
	return nil
}

func clientCtx(t *testing.T, companyID string) context.Context {
	t.Helper()
	svc := jwt.NewJWTService("test-secret-key-for-jwt", "1h", "24h", false)
	id := jwt.Identity{UserID: "owner-1", Role: user.RoleClient}
	if companyID != "" {
		id.CompanyID = &companyID
	}
	ctx, err := jwt.NewContext(context.Background(), svc, id)
	require.NoError(t, err)
	return ctx
}

func newRepo() *fakeCompanyRepo {
	return &fakeCompanyRepo{c: company.Company{
		ID:            "co-1",
		Name:          "Acme",
		JoinCode:      "ACME2025",
		WorkStartTime: "09:00",
		WorkEndTime:   "17:00",
		Currency:      "USD",
		Timezone:      "UTC",
	}}
}

func TestCompanyService_GetMine(t *testing.T) {
	svc := NewCompanyService(newRepo())

	resp, err := svc.GetMine(clientCtx(t, "co-1"))
	require.NoError(t, err)
	assert.Equal(t, "ACME2025", resp.JoinCode)

	_, err = svc.GetMine(clientCtx(t, ""))
	assert.ErrorIs(t, err, user.ErrCompanyIDRequired)
}

func TestCompanyService_UpdateMine(t *testing.T) {
	repo := newRepo()
	svc := NewCompanyService(repo)
	ctx := clientCtx(t, "co-1")

	currency := "eur"
	start := "08:30"
	resp, err := svc.UpdateMine(ctx, company.UpdateCompanyRequest{Currency: &currency, WorkStartTime: &start})
	require.NoError(t, err)
	assert.Equal(t, "EUR", resp.Currency)
	assert.Equal(t, "08:30", resp.WorkStartTime)

	same := "17:00"
	_, err = svc.UpdateMine(ctx, company.UpdateCompanyRequest{WorkStartTime: &same})
	assert.ErrorIs(t, err, company.ErrInvalidWorkHours)

	badTZ := "Mars/Olympus"
	_, err = svc.UpdateMine(ctx, company.UpdateCompanyRequest{Timezone: &badTZ})
	assert.Error(t, err)
}

func TestCompanyService_RegenerateJoinCode(t *testing.T) {
	repo := newRepo()
	repo.collisions = 1
	svc := NewCompanyService(repo)

	resp, err := svc.RegenerateJoinCode(clientCtx(t, "co-1"))
	require.NoError(t, err)
	require.Len(t, repo.codes, 2)
	assert.Equal(t, repo.codes[1], resp.JoinCode)
	assert.NotEqual(t, "ACME2025", resp.JoinCode)

	repo.collisions = joinCodeAttempts
	_, err = svc.RegenerateJoinCode(clientCtx(t, "co-1"))
	assert.ErrorIs(t, err, company.ErrJoinCodeExists)
}
