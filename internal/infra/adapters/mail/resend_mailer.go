package mail

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/EccomiOnLine-Eccomisrls/eccomi-video-automation/internal/domain/ports/adapter"
)

// Compile-time assurance this adapter satisfies the port
var _ adapter.Mailer = (*ResendMailer)(nil)

// ResendMailer delivers outcome emails through the Resend REST API.
type ResendMailer struct {
	apiKey string
	from   string
	base   string // e.g., https://api.resend.com
	client *http.Client
}

func NewResendMailer(apiKey, from string) (*ResendMailer, error) {
	if apiKey == "" {
		return nil, errors.New("resend api key empty")
	}
	if from == "" {
		from = "Eccomi Video <onboarding@resend.dev>"
	}
	return &ResendMailer{
		apiKey: apiKey,
		from:   from,
		base:   "https://api.resend.com",
		client: &http.Client{Timeout: 30 * time.Second},
	}, nil
}

func (m *ResendMailer) Send(ctx context.Context, to, subject, htmlBody string) error {
	reqBody := struct {
		From    string   `json:"from"`
		To      []string `json:"to"`
		Subject string   `json:"subject"`
		HTML    string   `json:"html"`
	}{From: m.from, To: []string{to}, Subject: subject, HTML: htmlBody}

	b, _ := json.Marshal(reqBody)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, m.base+"/emails", bytes.NewReader(b))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+m.apiKey)

	resp, err := m.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
		return fmt.Errorf("resend http %d: %s", resp.StatusCode, body)
	}
	return nil
}
