// Package email sends notification mail through the SendGrid HTTP API
package email

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/nkiryanov/mixtape/internal/logger"
)

const (
	defaultSendURL        = "https://api.sendgrid.com/v3/mail/send"
	defaultRequestTimeout = 10 * time.Second
)

type Config struct {
	// When APIKey or FromEmail is empty the client is a no-op,
	// mail is optional infrastructure and must not break anything else
	APIKey    string
	FromEmail string
	FromName  string
}

type MixtapeNotification struct {
	RecipientEmail string
	RecipientName  string
	SenderName     string
	MixtapeTitle   string
	MixtapeURL     string
	Message        string
	TrackCount     int
}

type Client struct {
	SendURL string

	cfg    Config
	client *http.Client
	logger logger.Logger
}

func NewClient(cfg Config, l logger.Logger) *Client {
	return &Client{
		SendURL: defaultSendURL,
		cfg:     cfg,
		client:  &http.Client{},
		logger:  l,
	}
}

// SendMixtapeNotification tells the recipient a mixtape is waiting for them
func (c *Client) SendMixtapeNotification(ctx context.Context, n MixtapeNotification) error {
	if c.cfg.APIKey == "" || c.cfg.FromEmail == "" {
		c.logger.Warn("Mail not configured, skipping notification", "recipient", n.RecipientName)
		return nil
	}

	payload := map[string]any{
		"personalizations": []map[string]any{
			{"to": []map[string]string{{"email": n.RecipientEmail, "name": n.RecipientName}}},
		},
		"from": map[string]string{
			"email": c.cfg.FromEmail,
			"name":  c.cfg.FromName,
		},
		"subject": fmt.Sprintf("%s sent you a mixtape!", n.SenderName),
		"content": []map[string]string{
			{"type": "text/plain", "value": notificationText(n)},
		},
	}

	body := &bytes.Buffer{}
	if err := json.NewEncoder(body).Encode(payload); err != nil {
		return fmt.Errorf("failed to encode mail payload: %w", err)
	}

	ctx, cancel := context.WithTimeout(ctx, defaultRequestTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.SendURL, body)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.cfg.APIKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("failed to send request: %w", err)
	}
	defer resp.Body.Close() // nolint:errcheck

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		detail, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("mail API error: status %d, body: %s", resp.StatusCode, detail)
	}

	return nil
}

func notificationText(n MixtapeNotification) string {
	text := fmt.Sprintf(
		"Hey %s!\n\n%s made you a mixtape: %q (%d tracks).\n\nListen here: %s\n",
		n.RecipientName, n.SenderName, n.MixtapeTitle, n.TrackCount, n.MixtapeURL,
	)
	if n.Message != "" {
		text += fmt.Sprintf("\nThey also wrote:\n%s\n", n.Message)
	}

	return text
}
