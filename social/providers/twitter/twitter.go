package twitter

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"slices"
	"strings"
	"time"

	"github.com/mikempala/social-rest/social"
)

// Name is the provider identifier used in routes and social accounts
const Name = "twitter"

const (
	defaultAuthURL  = "https://twitter.com/i/oauth2/authorize"
	defaultTokenURL = "https://api.twitter.com/2/oauth2/token"
	defaultUserURL  = "https://api.twitter.com/2/users/me"

	userFields = "id,name,username,profile_image_url,description,location,url,verified"
)

// Config holds Twitter OAuth 2.0 client configuration.
type Config struct {
	ClientID     string
	ClientSecret string
	CallbackURL  string
	Scopes       []string

	AuthURL  string
	TokenURL string
	UserURL  string

	HTTPClient *http.Client
}

// DefaultScopes are enough to read the authenticated user and keep a refresh token.
func DefaultScopes() []string {
	return []string{"tweet.read", "users.read", "offline.access"}
}

// Provider implements social.SocialProvider for Twitter.
type Provider struct {
	config     Config
	httpClient *http.Client
	now        func() time.Time
}

var _ social.SocialProvider = (*Provider)(nil)

// New creates a new Twitter provider.
func New(cfg Config) *Provider {
	if len(cfg.Scopes) == 0 {
		cfg.Scopes = DefaultScopes()
	}
	if cfg.AuthURL == "" {
		cfg.AuthURL = defaultAuthURL
	}
	if cfg.TokenURL == "" {
		cfg.TokenURL = defaultTokenURL
	}
	if cfg.UserURL == "" {
		cfg.UserURL = defaultUserURL
	}

	client := cfg.HTTPClient
	if client == nil {
		client = &http.Client{Timeout: 10 * time.Second}
	}

	return &Provider{
		config:     cfg,
		httpClient: client,
		now:        time.Now,
	}
}

func (p *Provider) Name() string {
	return Name
}

// AuthCodeURL implements social.SocialProvider. Twitter requires PKCE,
// a missing challenge falls back to the plain method with the state.
func (p *Provider) AuthCodeURL(state string, opts ...social.AuthCodeOption) string {
	cfg := social.ApplyAuthCodeOptions(p.config.Scopes, opts...)

	params := url.Values{
		"response_type": {"code"},
		"client_id":     {p.config.ClientID},
		"redirect_uri":  {p.config.CallbackURL},
		"scope":         {strings.Join(cfg.Scopes, " ")},
		"state":         {state},
	}

	challenge, method := cfg.CodeChallenge, cfg.CodeChallengeMethod
	if challenge == "" {
		challenge, method = state, "plain"
	}
	if method == "" {
		method = "S256"
	}
	params.Set("code_challenge", challenge)
	params.Set("code_challenge_method", method)

	return p.config.AuthURL + "?" + params.Encode()
}

// Exchange implements social.SocialProvider using confidential client
// Basic authentication on the token endpoint.
func (p *Provider) Exchange(ctx context.Context, code string, opts ...social.ExchangeOption) (*social.Token, error) {
	cfg := social.ApplyExchangeOptions(opts...)

	data := url.Values{
		"code":         {code},
		"grant_type":   {"authorization_code"},
		"client_id":    {p.config.ClientID},
		"redirect_uri": {p.config.CallbackURL},
	}
	if cfg.CodeVerifier != "" {
		data.Set("code_verifier", cfg.CodeVerifier)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.config.TokenURL, strings.NewReader(data.Encode()))
	if err != nil {
		return nil, err
	}
	req.SetBasicAuth(url.QueryEscape(p.config.ClientID), url.QueryEscape(p.config.ClientSecret))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("Accept", "application/json")

	body, status, err := p.do(req)
	if err != nil {
		return nil, providerError("exchange", 0, "", "", err)
	}

	var tokenResp tokenResponse
	if err := json.Unmarshal(body, &tokenResp); err != nil {
		return nil, providerError("exchange", status, "invalid_response", "failed to decode token response", err)
	}

	if status != http.StatusOK || tokenResp.Error != "" {
		return nil, providerError("exchange", status, tokenResp.Error, tokenResp.ErrorDesc, nil)
	}
	if tokenResp.AccessToken == "" {
		return nil, providerError("exchange", status, "missing_access_token", "missing access token", nil)
	}

	token := &social.Token{
		AccessToken:  tokenResp.AccessToken,
		TokenType:    tokenResp.TokenType,
		RefreshToken: tokenResp.RefreshToken,
		Scopes:       strings.Fields(tokenResp.Scope),
	}
	if tokenResp.ExpiresIn > 0 {
		token.ExpiresAt = p.now().Add(time.Duration(tokenResp.ExpiresIn) * time.Second)
	}

	return token, nil
}

// UserInfo implements social.SocialProvider.
func (p *Provider) UserInfo(ctx context.Context, token *social.Token) (*social.SocialProfile, error) {
	if token == nil || token.AccessToken == "" {
		return nil, providerError("user_info", 0, "missing_access_token", "missing access token", nil)
	}

	endpoint, err := url.Parse(p.config.UserURL)
	if err != nil {
		return nil, err
	}
	q := endpoint.Query()
	fields := userFields
	if slices.Contains(p.config.Scopes, "users.email") {
		fields += ",confirmed_email"
	}
	q.Set("user.fields", fields)
	endpoint.RawQuery = q.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint.String(), nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Bearer "+token.AccessToken)
	req.Header.Set("Accept", "application/json")

	body, status, err := p.do(req)
	if err != nil {
		return nil, providerError("user_info", 0, "", "", err)
	}

	if status != http.StatusOK {
		code, desc := apiError(body)
		return nil, providerError("user_info", status, code, desc, nil)
	}

	var payload userResponse
	if err := json.Unmarshal(body, &payload); err != nil {
		return nil, providerError("user_info", status, "invalid_response", "failed to decode user response", err)
	}
	if payload.Data.ID == "" {
		code, desc := apiError(body)
		if desc == "" {
			code, desc = "missing_user", "response carried no user"
		}
		return nil, providerError("user_info", status, code, desc, nil)
	}

	return mapProfile(&payload.Data), nil
}

func (p *Provider) do(req *http.Request) ([]byte, int, error) {
	resp, err := p.httpClient.Do(req)
	if err != nil {
		return nil, 0, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return nil, resp.StatusCode, fmt.Errorf("read %s response: %w", req.URL.Path, err)
	}
	return body, resp.StatusCode, nil
}

type tokenResponse struct {
	AccessToken  string `json:"access_token"`
	TokenType    string `json:"token_type"`
	RefreshToken string `json:"refresh_token"`
	ExpiresIn    int64  `json:"expires_in"`
	Scope        string `json:"scope"`
	Error        string `json:"error"`
	ErrorDesc    string `json:"error_description"`
}

type apiProblem struct {
	Title  string `json:"title"`
	Detail string `json:"detail"`
	Type   string `json:"type"`
	Errors []struct {
		Message string `json:"message"`
		Title   string `json:"title"`
		Detail  string `json:"detail"`
	} `json:"errors"`
}

// apiError pulls a code and message from a v2 problem document
func apiError(body []byte) (string, string) {
	var problem apiProblem
	if err := json.Unmarshal(body, &problem); err != nil {
		return "", strings.TrimSpace(string(body))
	}

	switch {
	case problem.Detail != "":
		return problem.Title, problem.Detail
	case len(problem.Errors) > 0:
		e := problem.Errors[0]
		msg := e.Message
		if msg == "" {
			msg = e.Detail
		}
		return e.Title, msg
	default:
		return problem.Title, ""
	}
}

func providerError(operation string, status int, code, description string, err error) *social.ProviderError {
	return &social.ProviderError{
		Provider:    Name,
		Operation:   operation,
		Status:      status,
		Code:        code,
		Description: description,
		Err:         err,
	}
}
