package notifications

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"
)

const brevoAPIURL = "https://api.brevo.com/v3/smtp/email"

var ErrMailerNotConfigured = errors.New("mailer not configured")

type BrevoConfig struct {
	APIKey    string
	FromEmail string
	FromName  string
	// Endpoint defaults to the public Brevo API.
	Endpoint string
}

// BrevoMailer sends transactional mail through Brevo's HTTP API.
type BrevoMailer struct {
	cfg        BrevoConfig
	httpClient *http.Client
}

func NewBrevoMailer(cfg BrevoConfig, httpClient *http.Client) *BrevoMailer {
	if cfg.Endpoint == "" {
		cfg.Endpoint = brevoAPIURL
	}
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 10 * time.Second}
	}
	return &BrevoMailer{cfg: cfg, httpClient: httpClient}
}

func (c BrevoConfig) Configured() bool {
	return c.APIKey != "" && c.FromEmail != ""
}

type brevoAddress struct {
	Email string `json:"email"`
	Name  string `json:"name,omitempty"`
}

type brevoSendRequest struct {
	Sender      brevoAddress   `json:"sender"`
	To          []brevoAddress `json:"to"`
	Subject     string         `json:"subject"`
	HTMLContent string         `json:"htmlContent"`
}

func (m *BrevoMailer) Send(ctx context.Context, msg Message) error {
	if !m.cfg.Configured() {
		return ErrMailerNotConfigured
	}
	if msg.To == "" || msg.Subject == "" || msg.HTML == "" {
		return errors.New("mail: recipient, subject and body are required")
	}

	body, err := json.Marshal(brevoSendRequest{
		Sender:      brevoAddress{Email: m.cfg.FromEmail, Name: m.cfg.FromName},
		To:          []brevoAddress{{Email: msg.To}},
		Subject:     msg.Subject,
		HTMLContent: msg.HTML,
	})
	if err != nil {
		return fmt.Errorf("marshal brevo request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, m.cfg.Endpoint, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("build brevo request: %w", err)
	}
	req.Header.Set("api-key", m.cfg.APIKey)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	resp, err := m.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("brevo send: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("brevo api error: status %d: %s", resp.StatusCode, bytes.TrimSpace(snippet))
	}

	return nil
}
