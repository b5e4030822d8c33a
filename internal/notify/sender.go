package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/guardia-io/guardia/internal/config"
)

// Email is one outbound message handed to the notifications service.
type Email struct {
	To       string `json:"correoDestino"`
	ToName   string `json:"nombreDestino"`
	Subject  string `json:"asuntoCorreo"`
	HTMLBody string `json:"contenidoCorreo"`
}

// Sender dispatches account-related email. Implementations are collaborators
// outside the authentication core; callers treat Send as fire-and-forget and
// must not fail a login flow on a send error.
type Sender interface {
	Send(ctx context.Context, email Email) error
}

type httpSender struct {
	config *config.MailerConfig
	client *http.Client
}

// NewHTTPSender posts messages to the notifications service's /correo
// endpoint.
func NewHTTPSender(config *config.MailerConfig) Sender {
	return &httpSender{
		config: config,
		client: &http.Client{Timeout: config.Timeout},
	}
}

func (s *httpSender) Send(ctx context.Context, email Email) error {
	payload, err := json.Marshal(email)
	if err != nil {
		return fmt.Errorf("failed to encode email payload: %w", err)
	}

	url := s.config.BaseURL + "/correo"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("failed to build email request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.client.Do(req)
	if err != nil {
		return fmt.Errorf("failed to send email to %s: %w", email.To, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= http.StatusBadRequest {
		return fmt.Errorf("notifications service rejected email to %s: status %d", email.To, resp.StatusCode)
	}

	return nil
}

// NoopSender discards messages. Used in tests and local development.
type NoopSender struct{}

func (NoopSender) Send(context.Context, Email) error { return nil }
