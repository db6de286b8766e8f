package social

import (
	"context"
	"fmt"
	"strings"

	"github.com/mikempala/social-rest"
)

// LinkingStrategy determines how external identities map to local users.
type LinkingStrategy interface {
	ResolveUser(ctx context.Context, lc LinkingContext) (*LinkingResult, error)
}

// LinkingContext provides context for user resolution.
type LinkingContext struct {
	Identity    *ExternalIdentity
	AccountRepo SocialAccountRepository
	UserRepo    auth.Users
}

// LinkingResult contains the resolved user and metadata.
type LinkingResult struct {
	User      *auth.User
	IsNewUser bool
	Linked    bool
}

// DefaultLinkingStrategy resolves a user by, in order, an existing link
// for the provider identity, a user holding the profile email, or a newly
// created active user.
type DefaultLinkingStrategy struct {
	Hasher auth.PasswordHasher

	OnUserCreated   func(ctx context.Context, user *auth.User, profile *SocialProfile) error
	OnAccountLinked func(ctx context.Context, user *auth.User, profile *SocialProfile) error
}

// ResolveUser implements LinkingStrategy.
func (s *DefaultLinkingStrategy) ResolveUser(ctx context.Context, lc LinkingContext) (*LinkingResult, error) {
	if lc.Identity == nil || lc.Identity.Profile == nil {
		return nil, ErrUserInfoFailed
	}
	if lc.AccountRepo == nil || lc.UserRepo == nil {
		return nil, auth.WrapSentinel(ErrLinkingFailed, nil, map[string]any{"reason": "repositories not configured"})
	}

	profile := lc.Identity.Profile

	existing, err := lc.AccountRepo.FindByProviderID(ctx, profile.Provider, profile.ProviderUserID)
	switch {
	case err == nil && existing != nil:
		user, err := lc.UserRepo.GetByID(ctx, existing.UserID)
		if err == nil {
			return &LinkingResult{User: user}, nil
		}
		// a deleted user leaves its link behind, resolve again below
		if !auth.IsNotFound(err) {
			return nil, auth.WrapSentinel(ErrLinkingFailed, err, nil)
		}
	case err != nil && !auth.IsNotFound(err):
		return nil, auth.WrapSentinel(ErrLinkingFailed, err, nil)
	}

	if profile.Email != "" {
		user, err := s.linkByEmail(ctx, lc.UserRepo, profile)
		if err != nil {
			return nil, err
		}
		if user != nil {
			return &LinkingResult{User: user, Linked: true}, nil
		}
	}

	newUser, err := s.createUserFromProfile(profile)
	if err != nil {
		return nil, auth.WrapSentinel(ErrLinkingFailed, err, nil)
	}

	created, err := lc.UserRepo.Create(ctx, newUser)
	if err != nil {
		if auth.IsConflict(err) {
			// lost a race with another signup for the same email
			if user, lerr := s.linkByEmail(ctx, lc.UserRepo, &SocialProfile{Email: newUser.Email}); lerr == nil && user != nil {
				return &LinkingResult{User: user, Linked: true}, nil
			}
		}
		return nil, auth.WrapSentinel(ErrLinkingFailed, err, nil)
	}

	if s.OnUserCreated != nil {
		if err := s.OnUserCreated(ctx, created, profile); err != nil {
			return nil, err
		}
	}

	return &LinkingResult{User: created, IsNewUser: true}, nil
}

func (s *DefaultLinkingStrategy) linkByEmail(ctx context.Context, users auth.Users, profile *SocialProfile) (*auth.User, error) {
	user, err := users.GetByEmail(ctx, profile.Email)
	if err != nil {
		if auth.IsNotFound(err) {
			return nil, nil
		}
		return nil, auth.WrapSentinel(ErrLinkingFailed, err, nil)
	}

	if s.OnAccountLinked != nil {
		if err := s.OnAccountLinked(ctx, user, profile); err != nil {
			return nil, err
		}
	}
	return user, nil
}

func (s *DefaultLinkingStrategy) createUserFromProfile(profile *SocialProfile) (*auth.User, error) {
	hash, err := auth.RandomPasswordHash(s.Hasher)
	if err != nil {
		return nil, err
	}

	email := strings.TrimSpace(profile.Email)
	if email == "" {
		email = PlaceholderEmail(profile.Provider, profile.ProviderUserID)
	}

	return &auth.User{
		Email:        email,
		Name:         profile.DisplayName(),
		PasswordHash: hash,
		Status:       auth.UserStatusActive,
	}, nil
}

// PlaceholderEmail is the address given to users whose provider does not
// share an email. The .invalid TLD can never receive mail.
func PlaceholderEmail(provider, providerUserID string) string {
	return fmt.Sprintf("%s@%s.invalid", providerUserID, provider)
}
