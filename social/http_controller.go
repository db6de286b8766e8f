package social

import (
	"context"
	"net/url"
	"strings"

	"github.com/gofiber/fiber/v2"
	goerrors "github.com/goliatone/go-errors"
	"github.com/mikempala/social-rest"
)

// LoginFlow is the delegated login used by the HTTP layer
type LoginFlow interface {
	Begin(ctx context.Context, provider string) (*Redirect, error)
	Complete(ctx context.Context, provider string, cb CallbackData) (*LoginResult, error)
}

// HTTPConfig configures the HTTP controller.
type HTTPConfig struct {
	// FailureRedirect is where the user agent lands when a handshake fails (default: "/")
	FailureRedirect string

	// AppendErrorCode adds ?error=<text code> to the failure redirect
	AppendErrorCode bool

	Logger auth.Logger
}

// HTTPController handles the delegated login routes.
type HTTPController struct {
	flow   LoginFlow
	config HTTPConfig
}

// NewHTTPController creates a new social auth HTTP controller.
func NewHTTPController(flow LoginFlow, cfg HTTPConfig) *HTTPController {
	if cfg.FailureRedirect == "" {
		cfg.FailureRedirect = "/"
	}
	if cfg.Logger == nil {
		cfg.Logger = auth.NopLogger{}
	}

	return &HTTPController{
		flow:   flow,
		config: cfg,
	}
}

// RegisterRoutes mounts GET /:provider and GET /:provider/callback on r.
func (h *HTTPController) RegisterRoutes(r fiber.Router) {
	r.Get("/:provider", h.HandleBegin).Name("social.begin")
	r.Get("/:provider/callback", h.HandleCallback).Name("social.callback")
}

// HandleBegin redirects the user agent to the provider consent page.
func (h *HTTPController) HandleBegin(c *fiber.Ctx) error {
	provider := c.Params("provider")

	redirect, err := h.flow.Begin(c.UserContext(), provider)
	if err != nil {
		if auth.IsNotFound(err) {
			return fiber.ErrNotFound
		}
		return h.fail(c, provider, err)
	}

	return c.Redirect(redirect.URL, fiber.StatusTemporaryRedirect)
}

// HandleCallback completes the handshake and answers with a session token.
func (h *HTTPController) HandleCallback(c *fiber.Ctx) error {
	provider := c.Params("provider")

	result, err := h.flow.Complete(c.UserContext(), provider, CallbackData{
		Code:             c.Query("code"),
		State:            c.Query("state"),
		Error:            c.Query("error"),
		ErrorDescription: c.Query("error_description"),
	})
	if err != nil {
		return h.fail(c, provider, err)
	}

	h.config.Logger.Info("delegated login succeeded",
		"provider", provider,
		"user_id", result.User.ID,
		"new_user", result.IsNewUser,
	)

	return c.JSON(fiber.Map{
		"user":    result.User,
		"token":   result.Token,
		"message": auth.MsgLoggedIn,
	})
}

func (h *HTTPController) fail(c *fiber.Ctx, provider string, err error) error {
	h.config.Logger.Warn("delegated login failed", "provider", provider, "error", err)

	target := h.config.FailureRedirect
	if h.config.AppendErrorCode {
		code := "auth_failed"
		var authErr *goerrors.Error
		if goerrors.As(err, &authErr) && authErr.TextCode != "" {
			code = strings.ToLower(authErr.TextCode)
		}
		target = appendQuery(target, "error", code)
	}

	return c.Redirect(target, fiber.StatusTemporaryRedirect)
}

func appendQuery(target, key, value string) string {
	u, err := url.Parse(target)
	if err != nil {
		return target
	}
	q := u.Query()
	q.Set(key, value)
	u.RawQuery = q.Encode()
	return u.String()
}
