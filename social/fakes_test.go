package social

import (
	"context"
	"errors"
	"net/url"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/mikempala/social-rest"
)

func newFakeStateManager() *EncryptedStateManager {
	sm, err := NewStateManagerFromSecret([]byte("social-test-secret"))
	if err != nil {
		panic(err)
	}
	return sm
}

type stubProvider struct {
	name        string
	authBase    string
	token       *Token
	profile     *SocialProfile
	exchangeErr error
	userInfoErr error

	lastCode     string
	lastVerifier string
	lastConfig   AuthCodeConfig
}

func (s *stubProvider) Name() string { return s.name }

func (s *stubProvider) AuthCodeURL(state string, opts ...AuthCodeOption) string {
	s.lastConfig = ApplyAuthCodeOptions(nil, opts...)
	q := url.Values{}
	q.Set("state", state)
	q.Set("code_challenge", s.lastConfig.CodeChallenge)
	q.Set("code_challenge_method", s.lastConfig.CodeChallengeMethod)
	return s.authBase + "?" + q.Encode()
}

func (s *stubProvider) Exchange(ctx context.Context, code string, opts ...ExchangeOption) (*Token, error) {
	s.lastCode = code
	s.lastVerifier = ApplyExchangeOptions(opts...).CodeVerifier
	if s.exchangeErr != nil {
		return nil, s.exchangeErr
	}
	return s.token, nil
}

func (s *stubProvider) UserInfo(ctx context.Context, token *Token) (*SocialProfile, error) {
	if s.userInfoErr != nil {
		return nil, s.userInfoErr
	}
	if s.profile == nil {
		return nil, nil
	}
	p := *s.profile
	return &p, nil
}

func newStubProvider() *stubProvider {
	return &stubProvider{
		name:     "twitter",
		authBase: "https://provider.test/authorize",
		token: &Token{
			AccessToken:  "access-1",
			RefreshToken: "refresh-1",
			TokenType:    "bearer",
			ExpiresAt:    time.Now().Add(2 * time.Hour),
		},
		profile: &SocialProfile{
			ProviderUserID: "2244994945",
			Username:       "jack",
			Name:           "Jack",
			AvatarURL:      "https://img.test/jack.png",
			Raw:            map[string]any{"id": "2244994945", "username": "jack"},
		},
	}
}

// memUsers is an in memory auth.Users
type memUsers struct {
	mu        sync.Mutex
	byID      map[uuid.UUID]*auth.User
	createErr error
	getErr    error
}

func newMemUsers(seed ...*auth.User) *memUsers {
	m := &memUsers{byID: map[uuid.UUID]*auth.User{}}
	for _, u := range seed {
		m.byID[u.ID] = u
	}
	return m
}

func (m *memUsers) GetByID(ctx context.Context, id uuid.UUID) (*auth.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.getErr != nil {
		return nil, m.getErr
	}
	if u, ok := m.byID[id]; ok {
		return u, nil
	}
	return nil, auth.ErrAccountNotFound
}

func (m *memUsers) GetByEmail(ctx context.Context, email string) (*auth.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.getErr != nil {
		return nil, m.getErr
	}
	for _, u := range m.byID {
		if u.Email == email {
			return u, nil
		}
	}
	return nil, auth.ErrAccountNotFound
}

func (m *memUsers) Create(ctx context.Context, user *auth.User) (*auth.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.createErr != nil {
		return nil, m.createErr
	}
	for _, u := range m.byID {
		if u.Email == user.Email {
			return nil, auth.ErrEmailTaken
		}
	}
	if user.ID == uuid.Nil {
		user.ID = uuid.New()
	}
	m.byID[user.ID] = user
	return user, nil
}

func (m *memUsers) UpdateProfile(ctx context.Context, id uuid.UUID, email, name string) (*auth.User, error) {
	return nil, errors.New("not implemented")
}

func (m *memUsers) UpdateStatus(ctx context.Context, id uuid.UUID, status auth.UserStatus) (*auth.User, error) {
	return nil, errors.New("not implemented")
}

func (m *memUsers) Delete(ctx context.Context, id uuid.UUID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.byID, id)
	return nil
}

func (m *memUsers) count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.byID)
}

// memAccounts is an in memory SocialAccountRepository
type memAccounts struct {
	mu        sync.Mutex
	accounts  map[string]*SocialAccount
	findErr   error
	upsertErr error
}

func newMemAccounts() *memAccounts {
	return &memAccounts{accounts: map[string]*SocialAccount{}}
}

func accountKey(provider, providerUserID string) string {
	return provider + ":" + providerUserID
}

func (m *memAccounts) FindByProviderID(ctx context.Context, provider, providerUserID string) (*SocialAccount, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.findErr != nil {
		return nil, m.findErr
	}
	if a, ok := m.accounts[accountKey(provider, providerUserID)]; ok {
		return a, nil
	}
	return nil, ErrSocialAccountNotFound
}

func (m *memAccounts) FindByUserID(ctx context.Context, userID uuid.UUID) ([]*SocialAccount, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*SocialAccount
	for _, a := range m.accounts {
		if a.UserID == userID {
			out = append(out, a)
		}
	}
	return out, nil
}

func (m *memAccounts) Upsert(ctx context.Context, account *SocialAccount) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.upsertErr != nil {
		return m.upsertErr
	}
	key := accountKey(account.Provider, account.ProviderUserID)
	if existing, ok := m.accounts[key]; ok {
		account.ID = existing.ID
		account.CreatedAt = existing.CreatedAt
	} else {
		account.ID = uuid.New()
		account.CreatedAt = time.Now()
	}
	account.UpdatedAt = time.Now()
	m.accounts[key] = account
	return nil
}

func (m *memAccounts) get(provider, providerUserID string) *SocialAccount {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.accounts[accountKey(provider, providerUserID)]
}

type stubIssuer struct {
	err    error
	issued []uuid.UUID
}

func (s *stubIssuer) IssueToken(user *auth.User) (string, error) {
	if s.err != nil {
		return "", s.err
	}
	s.issued = append(s.issued, user.ID)
	return "signed." + user.ID.String(), nil
}
