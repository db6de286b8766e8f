package mailer_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	auth "github.com/mikempala/social-rest"
	"github.com/mikempala/social-rest/mailer"
)

type sentMessage struct {
	From struct {
		Email string `json:"email"`
		Name  string `json:"name"`
	} `json:"from"`
	Subject          string `json:"subject"`
	Personalizations []struct {
		To []struct {
			Email string `json:"email"`
			Name  string `json:"name"`
		} `json:"to"`
	} `json:"personalizations"`
	Content []struct {
		Type  string `json:"type"`
		Value string `json:"value"`
	} `json:"content"`
	Categories []string `json:"categories"`
}

var confirmation = auth.Notification{
	To:      "jane@example.com",
	ToName:  "Jane",
	Subject: "Confirm your account",
	Text:    "visit http://localhost/confirm/1",
	HTML:    "<a href=\"http://localhost/confirm/1\">confirm</a>",
}

func TestSendGridSend(t *testing.T) {
	var got sentMessage
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/v3/mail/send", r.URL.Path)
		assert.Equal(t, "Bearer test-key", r.Header.Get("Authorization"))
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		w.WriteHeader(http.StatusAccepted)
	}))
	defer server.Close()

	sender, err := mailer.NewSendGrid("test-key", "noreply@example.com", "Social REST",
		mailer.WithHost(server.URL),
		mailer.WithCategory("confirmation"),
	)
	require.NoError(t, err)

	require.NoError(t, sender.Send(context.Background(), confirmation))

	assert.Equal(t, "noreply@example.com", got.From.Email)
	assert.Equal(t, "Social REST", got.From.Name)
	assert.Equal(t, "Confirm your account", got.Subject)
	require.Len(t, got.Personalizations, 1)
	require.Len(t, got.Personalizations[0].To, 1)
	assert.Equal(t, "jane@example.com", got.Personalizations[0].To[0].Email)
	require.Len(t, got.Content, 2)
	assert.Equal(t, "text/plain", got.Content[0].Type)
	assert.Equal(t, "text/html", got.Content[1].Type)
	assert.Equal(t, []string{"confirmation"}, got.Categories)
}

func TestSendGridRejected(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte(`{"errors":[{"message":"The provided authorization grant is invalid"}]}`))
	}))
	defer server.Close()

	sender, err := mailer.NewSendGrid("bad-key", "noreply@example.com", "", mailer.WithHost(server.URL))
	require.NoError(t, err)

	err = sender.Send(context.Background(), confirmation)
	require.Error(t, err)

	var deliveryErr *mailer.DeliveryError
	require.True(t, errors.As(err, &deliveryErr))
	assert.Equal(t, http.StatusUnauthorized, deliveryErr.Status)
	assert.Contains(t, deliveryErr.Body, "authorization grant")
}

func TestNewSendGridValidation(t *testing.T) {
	_, err := mailer.NewSendGrid("", "noreply@example.com", "")
	assert.Error(t, err)

	_, err = mailer.NewSendGrid("key", "", "")
	assert.Error(t, err)
}

func TestLogNotifier(t *testing.T) {
	assert.NoError(t, mailer.LogNotifier{}.Send(context.Background(), confirmation))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.ErrorIs(t, mailer.LogNotifier{}.Send(ctx, confirmation), context.Canceled)
}
