package auth

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/google/uuid"
	"golang.org/x/oauth2"
)

const defaultUserInfoTimeout = 10 * time.Second

type OAuthConfig struct {
	ProviderName string
	ClientID     string
	ClientSecret string
	AuthURL      string
	TokenURL     string
	UserInfoURL  string
	RedirectURL  string
	Scopes       []string
	Timeout      time.Duration
}

// UserInfo is the subset of the provider profile stored on the user row.
type UserInfo struct {
	Subject         string
	Email           string
	FirstName       string
	LastName        string
	ProfileImageURL string
}

// OAuthClient runs the authorization-code flow with PKCE against one provider.
type OAuthClient struct {
	providerName string
	oauth        *oauth2.Config
	userInfoURL  string
	http         *resty.Client
}

func NewOAuthClient(cfg OAuthConfig) (*OAuthClient, error) {
	providerName := strings.ToLower(strings.TrimSpace(cfg.ProviderName))
	if providerName == "" {
		return nil, fmt.Errorf("oauth provider name is required")
	}
	if strings.TrimSpace(cfg.ClientID) == "" {
		return nil, fmt.Errorf("oauth client id is required")
	}
	for name, value := range map[string]string{
		"auth url":     cfg.AuthURL,
		"token url":    cfg.TokenURL,
		"userinfo url": cfg.UserInfoURL,
		"redirect url": cfg.RedirectURL,
	} {
		if strings.TrimSpace(value) == "" {
			return nil, fmt.Errorf("oauth %s is required", name)
		}
	}

	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = defaultUserInfoTimeout
	}

	return &OAuthClient{
		providerName: providerName,
		oauth: &oauth2.Config{
			ClientID:     strings.TrimSpace(cfg.ClientID),
			ClientSecret: strings.TrimSpace(cfg.ClientSecret),
			Endpoint: oauth2.Endpoint{
				AuthURL:  strings.TrimSpace(cfg.AuthURL),
				TokenURL: strings.TrimSpace(cfg.TokenURL),
			},
			RedirectURL: strings.TrimSpace(cfg.RedirectURL),
			Scopes:      cfg.Scopes,
		},
		userInfoURL: strings.TrimSpace(cfg.UserInfoURL),
		http: resty.New().
			SetTimeout(timeout).
			SetHeader("Accept", "application/json"),
	}, nil
}

func (c *OAuthClient) ProviderName() string {
	if c == nil {
		return ""
	}
	return c.providerName
}

// NewState returns an unguessable value for the OAuth state parameter.
func NewState() string {
	return uuid.NewString()
}

// NewVerifier returns a PKCE code verifier.
func NewVerifier() string {
	return oauth2.GenerateVerifier()
}

// AuthCodeURL is the provider URL the browser is redirected to.
func (c *OAuthClient) AuthCodeURL(state, verifier string) string {
	return c.oauth.AuthCodeURL(state, oauth2.AccessTypeOnline, oauth2.S256ChallengeOption(verifier))
}

func (c *OAuthClient) Exchange(ctx context.Context, code, verifier string) (*oauth2.Token, error) {
	trimmedCode := strings.TrimSpace(code)
	if trimmedCode == "" {
		return nil, fmt.Errorf("authorization code is required")
	}
	token, err := c.oauth.Exchange(ctx, trimmedCode, oauth2.VerifierOption(verifier))
	if err != nil {
		return nil, fmt.Errorf("exchange authorization code: %w", err)
	}
	return token, nil
}

func (c *OAuthClient) FetchUserInfo(ctx context.Context, token *oauth2.Token) (*UserInfo, error) {
	if token == nil || strings.TrimSpace(token.AccessToken) == "" {
		return nil, fmt.Errorf("access token is required")
	}

	resp, err := c.http.R().
		SetContext(ctx).
		SetAuthToken(token.AccessToken).
		Get(c.userInfoURL)
	if err != nil {
		return nil, fmt.Errorf("request userinfo: %w", err)
	}
	if !resp.IsSuccess() {
		return nil, fmt.Errorf("userinfo returned status %d", resp.StatusCode())
	}

	var claims userInfoClaims
	if err := json.Unmarshal(resp.Body(), &claims); err != nil {
		return nil, fmt.Errorf("decode userinfo: %w", err)
	}

	info := claims.toUserInfo()
	if info.Subject == "" {
		return nil, fmt.Errorf("userinfo response is missing a subject")
	}
	return &info, nil
}

// userInfoClaims accepts OIDC standard claims and the flatter shape some providers use.
type userInfoClaims struct {
	Sub             flexibleID `json:"sub"`
	ID              flexibleID `json:"id"`
	Email           string     `json:"email"`
	GivenName       string     `json:"given_name"`
	FamilyName      string     `json:"family_name"`
	Name            string     `json:"name"`
	Picture         string     `json:"picture"`
	FirstName       string     `json:"first_name"`
	LastName        string     `json:"last_name"`
	ProfileImageURL string     `json:"profile_image_url"`
}

func (c userInfoClaims) toUserInfo() UserInfo {
	info := UserInfo{
		Subject:         firstNonEmpty(string(c.Sub), string(c.ID)),
		Email:           strings.TrimSpace(c.Email),
		FirstName:       firstNonEmpty(c.GivenName, c.FirstName),
		LastName:        firstNonEmpty(c.FamilyName, c.LastName),
		ProfileImageURL: firstNonEmpty(c.Picture, c.ProfileImageURL),
	}
	if info.FirstName == "" && info.LastName == "" {
		info.FirstName = strings.TrimSpace(c.Name)
	}
	return info
}

// flexibleID decodes identifiers that providers send either as strings or as numbers.
type flexibleID string

func (f *flexibleID) UnmarshalJSON(data []byte) error {
	trimmed := strings.TrimSpace(string(data))
	if trimmed == "" || trimmed == "null" {
		*f = ""
		return nil
	}
	if strings.HasPrefix(trimmed, `"`) {
		var value string
		if err := json.Unmarshal(data, &value); err != nil {
			return err
		}
		*f = flexibleID(value)
		return nil
	}
	var number json.Number
	if err := json.Unmarshal(data, &number); err != nil {
		return err
	}
	*f = flexibleID(number.String())
	return nil
}

func firstNonEmpty(values ...string) string {
	for _, value := range values {
		if trimmed := strings.TrimSpace(value); trimmed != "" {
			return trimmed
		}
	}
	return ""
}
