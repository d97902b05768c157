package provider

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

const resendService = "resend"

type ResendConfig struct {
	BaseURL     string
	HTTPTimeout time.Duration
}

type Resend struct {
	baseURL string
	client  *http.Client
}

func NewResend(cfg ResendConfig) *Resend {
	timeout := cfg.HTTPTimeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	baseURL := strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/")
	if baseURL == "" {
		baseURL = "https://api.resend.com"
	}

	return &Resend{
		baseURL: baseURL,
		client:  &http.Client{Timeout: timeout},
	}
}

func (r *Resend) Send(ctx context.Context, apiKey string, message *EmailMessage) (*EmailReceipt, error) {
	payload, err := json.Marshal(map[string]interface{}{
		"from":    message.From,
		"to":      message.To,
		"subject": message.Subject,
		"html":    message.HTML,
	})
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, r.baseURL+"/emails", bytes.NewReader(payload))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Bearer "+apiKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := r.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, &UpstreamError{
			Service:    resendService,
			Operation:  "send",
			StatusCode: resp.StatusCode,
			Message:    upstreamMessage(body, resp.StatusCode),
		}
	}

	var receipt struct {
		ID string `json:"id"`
	}
	if err := json.Unmarshal(body, &receipt); err != nil {
		return nil, fmt.Errorf("decode email receipt: %w", err)
	}

	return &EmailReceipt{ID: receipt.ID, Raw: json.RawMessage(body)}, nil
}
