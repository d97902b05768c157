package provider

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// UpstreamError is a non-2xx answer from the payment gateway or the email provider.
type UpstreamError struct {
	Service    string
	Operation  string
	StatusCode int
	Message    string
}

func (e *UpstreamError) Error() string {
	return fmt.Sprintf("%s %s failed: status=%d message=%s", e.Service, e.Operation, e.StatusCode, e.Message)
}

type PixChargeInput struct {
	IdempotencyKey string
	Amount         decimal.Decimal
	Description    string

	PayerEmail     string
	PayerFirstName string
	PayerLastName  string
	PayerDocument  string
	PhoneAreaCode  string
	PhoneNumber    string
	RegisteredAt   time.Time

	ItemTitle       string
	ItemDescription string

	Metadata map[string]string
}

type Payment struct {
	ID           string
	Status       string
	StatusDetail string
	Amount       decimal.Decimal
	Description  string
	PayerEmail   string
	DateCreated  time.Time
	Metadata     map[string]string

	QRCode       string
	QRCodeBase64 string
	TicketURL    string

	// Raw is the gateway response body, passed through to callers as is.
	Raw json.RawMessage
}

type EmailMessage struct {
	From    string
	To      []string
	Subject string
	HTML    string
}

type EmailReceipt struct {
	ID  string
	Raw json.RawMessage
}

func stringish(v interface{}) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return strings.TrimSpace(t)
	case json.Number:
		return t.String()
	case float64:
		return decimal.NewFromFloat(t).String()
	default:
		return strings.TrimSpace(fmt.Sprint(t))
	}
}
