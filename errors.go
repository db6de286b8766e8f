package auth

import (
	"errors"
	"maps"
	"net/http"

	goerrors "github.com/goliatone/go-errors"
)

const (
	TextCodeMissingFields        = "MISSING_FIELDS"
	TextCodePasswordMismatch     = "PASSWORD_MISMATCH"
	TextCodePasswordTooLong      = "PASSWORD_TOO_LONG"
	TextCodeBlankProfile         = "BLANK_PROFILE"
	TextCodeEmailTaken           = "EMAIL_TAKEN"
	TextCodeAccountNotFound      = "ACCOUNT_NOT_FOUND"
	TextCodeIncorrectCredentials = "INCORRECT_CREDENTIALS"
	TextCodeTokenExpired         = "TOKEN_EXPIRED"
	TextCodeInvalidToken         = "INVALID_TOKEN"
	TextCodeInvalidTransition    = "INVALID_USER_STATE_TRANSITION"
	TextCodeEmptyPassword        = "EMPTY_PASSWORD"
	TextCodeInvalidPayload       = "INVALID_PAYLOAD"
)

// ErrMissingFields is returned when a required register field is empty.
var ErrMissingFields = goerrors.New("Missing fields", goerrors.CategoryValidation).
	WithTextCode(TextCodeMissingFields).
	WithCode(goerrors.CodeBadRequest)

var ErrPasswordMismatch = goerrors.New("Passwords don't match", goerrors.CategoryValidation).
	WithTextCode(TextCodePasswordMismatch).
	WithCode(goerrors.CodeBadRequest)

var ErrBlankProfile = goerrors.New("Email/Name fields cannot be blank", goerrors.CategoryValidation).
	WithTextCode(TextCodeBlankProfile).
	WithCode(goerrors.CodeBadRequest)

var ErrEmailTaken = goerrors.New("This email has already been taken", goerrors.CategoryConflict).
	WithTextCode(TextCodeEmailTaken).
	WithCode(goerrors.CodeConflict)

var ErrAccountNotFound = goerrors.New("account not found", goerrors.CategoryNotFound).
	WithTextCode(TextCodeAccountNotFound).
	WithCode(goerrors.CodeNotFound)

// ErrIncorrectCredentials covers both unknown emails and wrong passwords
var ErrIncorrectCredentials = goerrors.New("Incorrect email or password", goerrors.CategoryAuth).
	WithTextCode(TextCodeIncorrectCredentials).
	WithCode(goerrors.CodeBadRequest)

var ErrTokenExpired = goerrors.New("Token has expired", goerrors.CategoryAuth).
	WithTextCode(TextCodeTokenExpired).
	WithCode(goerrors.CodeUnauthorized)

var ErrInvalidToken = goerrors.New("Invalid authentication token", goerrors.CategoryAuth).
	WithTextCode(TextCodeInvalidToken).
	WithCode(goerrors.CodeUnauthorized)

var ErrNoEmptyString = goerrors.New("password must not be empty", goerrors.CategoryBadInput).
	WithTextCode(TextCodeEmptyPassword).
	WithCode(goerrors.CodeBadRequest)

// ErrPasswordTooLong is returned for passwords bcrypt would truncate.
var ErrPasswordTooLong = goerrors.New("Password must be at most 72 bytes", goerrors.CategoryBadInput).
	WithTextCode(TextCodePasswordTooLong).
	WithCode(goerrors.CodeBadRequest)

var ErrInvalidPayload = goerrors.New("Invalid request body", goerrors.CategoryBadInput).
	WithTextCode(TextCodeInvalidPayload).
	WithCode(goerrors.CodeBadRequest)

// ErrMismatchedHashAndPassword is returned when a password does not match its hash
var ErrMismatchedHashAndPassword = errors.New("mismatched hash and password")

// WrapSentinel returns a copy of base carrying source and meta. Sentinels
// are shared, so they are never mutated in place.
func WrapSentinel(base *goerrors.Error, source error, meta map[string]any) *goerrors.Error {
	clone := base.Clone()
	if source != nil {
		clone.Source = source
	}
	if len(meta) > 0 {
		clone.Metadata = maps.Clone(clone.Metadata)
		clone.WithMetadata(meta)
	}
	return clone
}

// storeError wraps a persistence failure. The message is the one the
// client sees, the source is only logged.
func storeError(err error, message string) *goerrors.Error {
	return goerrors.Wrap(err, goerrors.CategoryOperation, message).
		WithCode(goerrors.CodeInternal)
}

// HasTextCode walks the chain of rich errors looking for code
func HasTextCode(err error, code string) bool {
	for err != nil {
		var richErr *goerrors.Error
		if !goerrors.As(err, &richErr) || richErr == nil {
			return false
		}
		if richErr.TextCode == code {
			return true
		}
		err = richErr.Source
	}
	return false
}

// IsError reports whether err is target or a copy of it made by WrapSentinel
func IsError(err error, target *goerrors.Error) bool {
	if target == nil || target.TextCode == "" {
		return false
	}
	return HasTextCode(err, target.TextCode)
}

// HTTPStatus resolves the response status for a rich error. An explicit
// code wins over the category default.
func HTTPStatus(richErr *goerrors.Error) int {
	if richErr == nil {
		return http.StatusInternalServerError
	}
	if richErr.Code != 0 {
		return richErr.Code
	}
	switch richErr.Category {
	case goerrors.CategoryValidation, goerrors.CategoryBadInput:
		return http.StatusBadRequest
	case goerrors.CategoryConflict:
		return http.StatusConflict
	case goerrors.CategoryAuth:
		return http.StatusUnauthorized
	case goerrors.CategoryAuthz:
		return http.StatusForbidden
	case goerrors.CategoryNotFound:
		return http.StatusNotFound
	case goerrors.CategoryRateLimit:
		return http.StatusTooManyRequests
	default:
		return http.StatusInternalServerError
	}
}

func hasCategory(err error, categories ...goerrors.Category) bool {
	var richErr *goerrors.Error
	if !goerrors.As(err, &richErr) || richErr == nil {
		return false
	}
	for _, category := range categories {
		if richErr.Category == category {
			return true
		}
	}
	return false
}

// IsValidation reports a missing or malformed input error
func IsValidation(err error) bool {
	return hasCategory(err, goerrors.CategoryValidation, goerrors.CategoryBadInput)
}

// IsConflict reports a uniqueness violation
func IsConflict(err error) bool { return hasCategory(err, goerrors.CategoryConflict) }

// IsAuthentication reports bad credentials or an invalid token
func IsAuthentication(err error) bool { return hasCategory(err, goerrors.CategoryAuth) }

// IsNotFound reports a missing record
func IsNotFound(err error) bool { return hasCategory(err, goerrors.CategoryNotFound) }

// IsStore reports a persistence failure
func IsStore(err error) bool { return hasCategory(err, goerrors.CategoryOperation) }

// IsTokenExpiredError will check for expired tokens
func IsTokenExpiredError(err error) bool {
	return HasTextCode(err, TextCodeTokenExpired)
}
