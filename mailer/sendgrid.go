package mailer

import (
	"context"
	"fmt"

	auth "github.com/mikempala/social-rest"
	"github.com/sendgrid/sendgrid-go"
	"github.com/sendgrid/sendgrid-go/helpers/mail"
)

const sendEndpoint = "/v3/mail/send"

// SendGrid delivers notifications through the SendGrid v3 mail API
type SendGrid struct {
	apiKey   string
	host     string
	from     *mail.Email
	logger   auth.Logger
	category string
}

var _ auth.Notifier = (*SendGrid)(nil)

// Option customizes a SendGrid notifier
type Option func(*SendGrid)

// WithHost points the client at another API host, tests use an httptest server
func WithHost(host string) Option {
	return func(s *SendGrid) {
		s.host = host
	}
}

// WithLogger sets the logger
func WithLogger(logger auth.Logger) Option {
	return func(s *SendGrid) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithCategory tags every message so it can be filtered in SendGrid stats
func WithCategory(category string) Option {
	return func(s *SendGrid) {
		s.category = category
	}
}

// NewSendGrid creates a notifier sending as fromName <fromEmail>
func NewSendGrid(apiKey, fromEmail, fromName string, opts ...Option) (*SendGrid, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("sendgrid api key is required")
	}
	if fromEmail == "" {
		return nil, fmt.Errorf("sender email is required")
	}

	s := &SendGrid{
		apiKey: apiKey,
		from:   mail.NewEmail(fromName, fromEmail),
		logger: auth.NopLogger{},
	}
	for _, opt := range opts {
		if opt != nil {
			opt(s)
		}
	}
	return s, nil
}

func (s *SendGrid) Send(ctx context.Context, n auth.Notification) error {
	to := mail.NewEmail(n.ToName, n.To)
	message := mail.NewSingleEmail(s.from, n.Subject, to, n.Text, n.HTML)
	if s.category != "" {
		message.AddCategories(s.category)
	}

	request := sendgrid.GetRequest(s.apiKey, sendEndpoint, s.host)
	request.Method = "POST"
	request.Body = mail.GetRequestBody(message)

	resp, err := sendgrid.MakeRequestWithContext(ctx, request)
	if err != nil {
		return fmt.Errorf("sendgrid send: %w", err)
	}

	if resp.StatusCode >= 400 {
		return &DeliveryError{Status: resp.StatusCode, Body: resp.Body}
	}

	s.logger.Debug("sendgrid accepted message", "to", n.To, "status", resp.StatusCode)
	return nil
}

// DeliveryError is a rejected send
type DeliveryError struct {
	Status int
	Body   string
}

func (e *DeliveryError) Error() string {
	return fmt.Sprintf("sendgrid rejected message (status %d): %s", e.Status, e.Body)
}
