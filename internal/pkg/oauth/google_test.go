package oauth

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/workpay-hr/payroll-backend-go/internal/config"
)

func newTestService(now time.Time) *GoogleServiceImpl {
	svc := NewGoogleService(config.OAuth2GoogleConfig{
		ClientID:     "client",
		ClientSecret: "secret",
		RedirectURL:  "http://localhost/api/auth/google/callback",
		Scopes:       []string{"email"},
	}, "state-secret").(*GoogleServiceImpl)
	svc.now = func() time.Time { return now }
	return svc
}

func TestState_RoundTrip(t *testing.T) {
	now := time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC)
	svc := newTestService(now)

	state, err := svc.GenerateState()
	require.NoError(t, err)
	assert.NoError(t, svc.ValidateState(state))

	assert.ErrorIs(t, svc.ValidateState(state+"x"), ErrInvalidState)
	assert.ErrorIs(t, svc.ValidateState("garbage"), ErrInvalidState)

	svc.now = func() time.Time { return now.Add(stateTTL + time.Second) }
	assert.ErrorIs(t, svc.ValidateState(state), ErrInvalidState)
}

func TestRedirectURL_CarriesState(t *testing.T) {
	svc := newTestService(time.Now())
	u := svc.RedirectURL("abc")
	assert.True(t, strings.HasPrefix(u, "https://accounts.google.com/"))
	assert.Contains(t, u, "state=abc")
	assert.Contains(t, u, "client_id=client")
}

func TestFetchUser(t *testing.T) {
	tests := []struct {
		name    string
		status  int
		body    string
		wantErr error
		email   string
	}{
		{"verified", http.StatusOK, `{"id":"g1","email":"Ana@Example.com","verified_email":true,"name":"Ana"}`, nil, "ana@example.com"},
		{"unverified", http.StatusOK, `{"id":"g1","email":"ana@example.com","verified_email":false}`, ErrEmailNotVerified, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				fmt.Fprint(w, tt.body)
			}))
			defer srv.Close()

			svc := newTestService(time.Now())
			svc.userInfoURL = srv.URL
			info, err := svc.fetchUser(context.Background(), srv.Client())
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.email, info.Email)
			assert.Equal(t, "g1", info.GoogleID)
		})
	}
}
