package auth

import (
	"bytes"
	"fmt"
	"io/fs"
	"net/http"
	"net/url"
	"strings"

	"github.com/gofiber/template/django/v3"
)

const (
	// DefaultConfirmationSubject is the subject line of the confirmation email
	DefaultConfirmationSubject = "Social REST: Confirm your account"

	confirmationTemplate = "confirm_account"
)

// TemplateComposer renders confirmation emails from django templates
type TemplateComposer struct {
	engine   *django.Engine
	baseURL  string
	subject  string
	template string
}

// ComposerOption customizes a TemplateComposer
type ComposerOption func(*TemplateComposer)

// WithComposerSubject overrides the email subject
func WithComposerSubject(subject string) ComposerOption {
	return func(c *TemplateComposer) {
		if subject != "" {
			c.subject = subject
		}
	}
}

// WithComposerTemplates loads templates from fsys instead of the embedded set.
// fsys must contain confirm_account.html.
func WithComposerTemplates(fsys fs.FS) ComposerOption {
	return func(c *TemplateComposer) {
		if fsys != nil {
			c.engine = django.NewFileSystem(http.FS(fsys), ".html")
		}
	}
}

// NewConfirmationComposer builds a composer whose links point at
// confirmBaseURL/<url-escaped user id>
func NewConfirmationComposer(confirmBaseURL string, opts ...ComposerOption) (*TemplateComposer, error) {
	if confirmBaseURL == "" {
		return nil, fmt.Errorf("confirmation base url is required")
	}

	c := &TemplateComposer{
		baseURL:  strings.TrimRight(confirmBaseURL, "/"),
		subject:  DefaultConfirmationSubject,
		template: confirmationTemplate,
	}

	for _, opt := range opts {
		if opt != nil {
			opt(c)
		}
	}

	if c.engine == nil {
		c.engine = django.NewFileSystem(http.FS(GetTemplatesFS()), ".html")
	}

	if err := c.engine.Load(); err != nil {
		return nil, fmt.Errorf("load email templates: %w", err)
	}

	return c, nil
}

// ConfirmationLink returns the link a user follows to confirm the account
func (c *TemplateComposer) ConfirmationLink(user *User) string {
	return c.baseURL + "/" + url.PathEscape(user.ID.String())
}

// ComposeConfirmation satisfies ConfirmationComposer
func (c *TemplateComposer) ComposeConfirmation(user *User) (Notification, error) {
	if user == nil {
		return Notification{}, fmt.Errorf("user must not be nil")
	}

	code := url.PathEscape(user.ID.String())
	link := c.ConfirmationLink(user)

	var buf bytes.Buffer
	err := c.engine.Render(&buf, c.template, map[string]any{
		"name": user.Name,
		"link": link,
		"code": code,
	})
	if err != nil {
		return Notification{}, fmt.Errorf("render confirmation email: %w", err)
	}

	text := fmt.Sprintf(
		"Hello %s,\n\nThanks for signing up! Please confirm your account by visiting %s\n\nConfirmation code: %s\n",
		user.Name, link, code,
	)

	return Notification{
		To:      user.Email,
		ToName:  user.Name,
		Subject: c.subject,
		Text:    text,
		HTML:    buf.String(),
	}, nil
}
