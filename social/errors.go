package social

import "github.com/goliatone/go-errors"

const (
	TextCodeProviderNotFound  = "social_provider_not_found"
	TextCodeInvalidState      = "social_invalid_state"
	TextCodeStateExpired      = "social_state_expired"
	TextCodeAccessDenied      = "social_access_denied"
	TextCodeTokenExchangeFail = "social_token_exchange_failed"
	TextCodeUserInfoFail      = "social_user_info_failed"
	TextCodeLinkingFailed     = "social_linking_failed"
	TextCodeAccountNotFound   = "social_account_not_found"
)

// ErrProviderNotFound is returned when a requested provider is not configured.
var ErrProviderNotFound = errors.New("social provider not found", errors.CategoryNotFound).
	WithTextCode(TextCodeProviderNotFound).
	WithCode(errors.CodeNotFound)

// ErrInvalidState is returned when the OAuth state is invalid or tampered.
var ErrInvalidState = errors.New("invalid oauth state", errors.CategoryBadInput).
	WithTextCode(TextCodeInvalidState).
	WithCode(errors.CodeBadRequest)

// ErrStateExpired is returned when the OAuth state has expired.
var ErrStateExpired = errors.New("oauth state expired", errors.CategoryBadInput).
	WithTextCode(TextCodeStateExpired).
	WithCode(errors.CodeBadRequest)

// ErrAccessDenied is returned when the provider reports the user declined
// or the callback carries no code.
var ErrAccessDenied = errors.New("authorization was not granted", errors.CategoryAuth).
	WithTextCode(TextCodeAccessDenied).
	WithCode(errors.CodeUnauthorized)

// ErrTokenExchangeFailed is returned when a provider token exchange fails.
var ErrTokenExchangeFailed = errors.New("token exchange failed", errors.CategoryAuth).
	WithTextCode(TextCodeTokenExchangeFail).
	WithCode(errors.CodeUnauthorized)

// ErrUserInfoFailed is returned when fetching user info fails.
var ErrUserInfoFailed = errors.New("failed to fetch user info", errors.CategoryAuth).
	WithTextCode(TextCodeUserInfoFail).
	WithCode(errors.CodeUnauthorized)

// ErrLinkingFailed is returned when the external identity cannot be bound
// to a local user.
var ErrLinkingFailed = errors.New("failed to link social account", errors.CategoryOperation).
	WithTextCode(TextCodeLinkingFailed).
	WithCode(errors.CodeInternal)

// ErrSocialAccountNotFound is returned by repositories when no account is
// linked for a provider identity.
var ErrSocialAccountNotFound = errors.New("social account not found", errors.CategoryNotFound).
	WithTextCode(TextCodeAccountNotFound).
	WithCode(errors.CodeNotFound)
