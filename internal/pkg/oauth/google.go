package oauth

import (
	"context"
	"crypto/hmac"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/workpay-hr/payroll-backend-go/internal/config"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
)

const (
	userInfoURL = "https://www.googleapis.com/oauth2/v2/userinfo"
	stateTTL    = 10 * time.Minute
)

var (
	ErrInvalidState     = errors.New("invalid oauth state")
	ErrEmailNotVerified = errors.New("google email is not verified")
)

type GoogleService interface {
	// GenerateState returns a signed, expiring state value.
	GenerateState() (string, error)
	// ValidateState checks the signature and age of a state value.
	ValidateState(state string) error
	// RedirectURL generates the OAuth2 redirect URL with a state.
	RedirectURL(state string) string
	// Exchange trades the authorization code for a verified Google profile.
	Exchange(ctx context.Context, code string) (GoogleInformation, error)
}

type GoogleServiceImpl struct {
	config      *oauth2.Config
	stateSecret []byte
	userInfoURL string
	now         func() time.Time
}

func NewGoogleService(cfg config.OAuth2GoogleConfig, stateSecret string) GoogleService {
	return &GoogleServiceImpl{
		config: &oauth2.Config{
			ClientID:     cfg.ClientID,
			ClientSecret: cfg.ClientSecret,
			RedirectURL:  cfg.RedirectURL,
			Scopes:       cfg.Scopes,
			Endpoint:     google.Endpoint,
		},
		stateSecret: []byte(stateSecret),
		userInfoURL: userInfoURL,
		now:         time.Now,
	}
}

type GoogleInformation struct {
	GoogleID      string `json:"id"`
	Email         string `json:"email"`
	VerifiedEmail bool   `json:"verified_email"`
	Name          string `json:"name"`
	Picture       string `json:"picture"`
}

// GenerateState encodes nonce.issuedAt.signature.
func (g *GoogleServiceImpl) GenerateState() (string, error) {
	b := make([]byte, 16)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("generate state: %w", err)
	}
	payload := base64.RawURLEncoding.EncodeToString(b) + "." + strconv.FormatInt(g.now().Unix(), 10)
	return payload + "." + g.sign(payload), nil
}

func (g *GoogleServiceImpl) ValidateState(state string) error {
	i := strings.LastIndexByte(state, '.')
	if i <= 0 {
		return ErrInvalidState
	}
	payload, sig := state[:i], state[i+1:]
	if !hmac.Equal([]byte(sig), []byte(g.sign(payload))) {
		return ErrInvalidState
	}
	parts := strings.SplitN(payload, ".", 2)
	if len(parts) != 2 {
		return ErrInvalidState
	}
	issued, err := strconv.ParseInt(parts[1], 10, 64)
	if err != nil {
		return ErrInvalidState
	}
	if g.now().Sub(time.Unix(issued, 0)) > stateTTL {
		return ErrInvalidState
	}
	return nil
}

func (g *GoogleServiceImpl) sign(payload string) string {
	mac := hmac.New(sha256.New, g.stateSecret)
	mac.Write([]byte(payload))
	return base64.RawURLEncoding.EncodeToString(mac.Sum(nil))
}

func (g *GoogleServiceImpl) RedirectURL(state string) string {
	return g.config.AuthCodeURL(state, oauth2.AccessTypeOnline)
}

func (g *GoogleServiceImpl) Exchange(ctx context.Context, code string) (GoogleInformation, error) {
	token, err := g.config.Exchange(ctx, code)
	if err != nil {
		return GoogleInformation{}, fmt.Errorf("exchange code: %w", err)
	}
	return g.fetchUser(ctx, g.config.Client(ctx, token))
}

func (g *GoogleServiceImpl) fetchUser(ctx context.Context, client *http.Client) (GoogleInformation, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, g.userInfoURL, nil)
	if err != nil {
		return GoogleInformation{}, err
	}
	resp, err := client.Do(req)
	if err != nil {
		return GoogleInformation{}, fmt.Errorf("fetch google profile: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return GoogleInformation{}, fmt.Errorf("fetch google profile: unexpected status %d", resp.StatusCode)
	}

	var info GoogleInformation
	if err := json.NewDecoder(resp.Body).Decode(&info); err != nil {
		return GoogleInformation{}, fmt.Errorf("decode google profile: %w", err)
	}
	if !info.VerifiedEmail {
		return GoogleInformation{}, ErrEmailNotVerified
	}
	info.Email = strings.ToLower(info.Email)
	return info, nil
}
