package auth

import (
	"context"
	"errors"

	"github.com/gofiber/fiber/v2"
	goerrors "github.com/goliatone/go-errors"
	"github.com/goliatone/go-print"

	"github.com/mikempala/social-rest/middleware/jwtware"
)

const msgUnexpected = "An unexpected server error occurred"

// ErrorOverride rewrites an error before it is rendered, letting a route
// change the status or message for some categories
type ErrorOverride func(*goerrors.Error) *goerrors.Error

// OverrideStatus renders errors of category with status
func OverrideStatus(category goerrors.Category, status int) ErrorOverride {
	return func(e *goerrors.Error) *goerrors.Error {
		if e.Category != category {
			return e
		}
		c := e.Clone()
		c.Code = status
		return c
	}
}

// MaskAll renders every error with the same status and message. The
// original error is still logged.
func MaskAll(status int, message string) ErrorOverride {
	return func(e *goerrors.Error) *goerrors.Error {
		c := e.Clone()
		c.Code = status
		c.Message = message
		return c
	}
}

// ErrorPresenter renders errors as JSON {"message": ...}. Store and internal
// failures also carry "error" with the underlying detail when ExposeDetails
// is set.
type ErrorPresenter struct {
	ExposeDetails bool
	Logger        Logger
}

// NewErrorPresenter returns a presenter, with a nil logger using the default one
func NewErrorPresenter(exposeDetails bool, logger Logger) *ErrorPresenter {
	if logger == nil {
		logger = defLogger{}
	}
	return &ErrorPresenter{ExposeDetails: exposeDetails, Logger: logger}
}

// Present writes err to c
func (p *ErrorPresenter) Present(c *fiber.Ctx, err error, overrides ...ErrorOverride) error {
	richErr := p.normalize(err)
	for _, override := range overrides {
		if override != nil {
			richErr = override(richErr)
		}
	}

	status := HTTPStatus(richErr)
	logArgs := []any{
		"path", c.Path(),
		"status", status,
		"category", richErr.Category,
		"text_code", richErr.TextCode,
		"error", err,
	}
	if len(richErr.Metadata) > 0 {
		logArgs = append(logArgs, "details", print.MaybePrettyJSON(richErr.Metadata))
	}

	if status >= fiber.StatusInternalServerError {
		p.logger().Error("request failed", logArgs...)
	} else {
		p.logger().Info("request rejected", logArgs...)
	}

	body := fiber.Map{"message": richErr.Message}
	if p.ExposeDetails && (richErr.Category == goerrors.CategoryOperation || richErr.Category == goerrors.CategoryInternal) && richErr.Source != nil {
		body["error"] = richErr.Source.Error()
	}

	return c.Status(status).JSON(body)
}

// Handler adapts the presenter to a fiber error handler, used as the
// app level error handler and by the token middleware
func (p *ErrorPresenter) Handler(overrides ...ErrorOverride) fiber.ErrorHandler {
	return func(c *fiber.Ctx, err error) error {
		return p.Present(c, err, overrides...)
	}
}

func (p *ErrorPresenter) normalize(err error) *goerrors.Error {
	var richErr *goerrors.Error
	if goerrors.As(err, &richErr) && richErr != nil {
		return richErr
	}

	var fiberErr *fiber.Error
	if errors.As(err, &fiberErr) {
		category := goerrors.CategoryInternal
		switch {
		case fiberErr.Code == fiber.StatusNotFound:
			category = goerrors.CategoryNotFound
		case fiberErr.Code < fiber.StatusInternalServerError:
			category = goerrors.CategoryBadInput
		}
		return goerrors.New(fiberErr.Message, category).WithCode(fiberErr.Code)
	}

	return goerrors.Wrap(err, goerrors.CategoryInternal, msgUnexpected).
		WithCode(goerrors.CodeInternal)
}

func (p *ErrorPresenter) logger() Logger {
	if p.Logger == nil {
		return defLogger{}
	}
	return p.Logger
}

// TokenVerifier resolves a bearer token into its user
type TokenVerifier interface {
	VerifyToken(ctx context.Context, raw string) (*User, error)
}

// ProtectedRoute returns a middleware requiring a valid bearer token. The
// verified user is stored in the fiber locals and the user context.
func ProtectedRoute(verifier TokenVerifier, presenter *ErrorPresenter) fiber.Handler {
	return jwtware.New(jwtware.Config[*User]{
		Verifier:   verifier,
		ContextKey: DefaultContextKey,
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			if errors.Is(err, jwtware.ErrJWTMissingOrMalformed) {
				err = WrapSentinel(ErrInvalidToken, err, nil)
			}
			return presenter.Present(c, err)
		},
		ContextEnricher: WithContext,
	})
}
