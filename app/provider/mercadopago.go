package provider

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"github.com/vibast-solutions/ms-go-donations/app/metrics"
)

const mercadoPagoService = "mercadopago"

type MercadoPagoConfig struct {
	BaseURL     string
	HTTPTimeout time.Duration
}

// MercadoPago talks to the payments REST API. The access token comes from the
// secret store on each call, so it is passed per request instead of held here.
type MercadoPago struct {
	baseURL string
	client  *http.Client
}

func NewMercadoPago(cfg MercadoPagoConfig) *MercadoPago {
	timeout := cfg.HTTPTimeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	baseURL := strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/")
	if baseURL == "" {
		baseURL = "https://api.mercadopago.com"
	}

	return &MercadoPago{
		baseURL: baseURL,
		client:  &http.Client{Timeout: timeout},
	}
}

type mpPhone struct {
	AreaCode string `json:"area_code"`
	Number   string `json:"number"`
}

type mpCreatePaymentBody struct {
	TransactionAmount json.Number       `json:"transaction_amount"`
	Description       string            `json:"description"`
	PaymentMethodID   string            `json:"payment_method_id"`
	Payer             mpPayer           `json:"payer"`
	AdditionalInfo    mpAdditionalInfo  `json:"additional_info"`
	Metadata          map[string]string `json:"metadata,omitempty"`
}

type mpPayer struct {
	Email          string           `json:"email"`
	FirstName      string           `json:"first_name"`
	LastName       string           `json:"last_name"`
	Identification mpIdentification `json:"identification"`
}

type mpIdentification struct {
	Type   string `json:"type"`
	Number string `json:"number"`
}

type mpAdditionalInfo struct {
	Payer mpAdditionalPayer `json:"payer"`
	Items []mpItem          `json:"items"`
}

type mpAdditionalPayer struct {
	FirstName        string  `json:"first_name"`
	LastName         string  `json:"last_name"`
	Phone            mpPhone `json:"phone"`
	RegistrationDate string  `json:"registration_date"`
}

type mpItem struct {
	ID          string      `json:"id"`
	Title       string      `json:"title"`
	Description string      `json:"description"`
	Quantity    int         `json:"quantity"`
	UnitPrice   json.Number `json:"unit_price"`
}

type mpPaymentBody struct {
	ID                interface{}            `json:"id"`
	Status            string                 `json:"status"`
	StatusDetail      string                 `json:"status_detail"`
	TransactionAmount interface{}            `json:"transaction_amount"`
	Description       string                 `json:"description"`
	DateCreated       string                 `json:"date_created"`
	Metadata          map[string]interface{} `json:"metadata"`
	Payer             struct {
		Email string `json:"email"`
	} `json:"payer"`
	PointOfInteraction struct {
		TransactionData struct {
			QRCode       string `json:"qr_code"`
			QRCodeBase64 string `json:"qr_code_base64"`
			TicketURL    string `json:"ticket_url"`
		} `json:"transaction_data"`
	} `json:"point_of_interaction"`
}

func (p *MercadoPago) CreatePixPayment(ctx context.Context, accessToken string, input *PixChargeInput) (_ *Payment, err error) {
	defer observeGateway("create", &err)

	amount := json.Number(input.Amount.StringFixed(2))
	body := mpCreatePaymentBody{
		TransactionAmount: amount,
		Description:       input.Description,
		PaymentMethodID:   "pix",
		Payer: mpPayer{
			Email:     input.PayerEmail,
			FirstName: input.PayerFirstName,
			LastName:  input.PayerLastName,
			Identification: mpIdentification{
				Type:   "other",
				Number: input.PayerDocument,
			},
		},
		AdditionalInfo: mpAdditionalInfo{
			Payer: mpAdditionalPayer{
				FirstName: input.PayerFirstName,
				LastName:  input.PayerLastName,
				Phone: mpPhone{
					AreaCode: input.PhoneAreaCode,
					Number:   input.PhoneNumber,
				},
				RegistrationDate: input.RegisteredAt.UTC().Format(time.RFC3339),
			},
			Items: []mpItem{{
				ID:          "donation",
				Title:       input.ItemTitle,
				Description: input.ItemDescription,
				Quantity:    1,
				UnitPrice:   amount,
			}},
		},
		Metadata: input.Metadata,
	}

	payload, err := json.Marshal(body)
	if err != nil {
		return nil, err
	}

	headers := map[string]string{"X-Idempotency-Key": input.IdempotencyKey}
	raw, err := p.do(ctx, "create", http.MethodPost, "/v1/payments", accessToken, payload, headers)
	if err != nil {
		return nil, err
	}
	return parsePayment(raw)
}

func (p *MercadoPago) GetPayment(ctx context.Context, accessToken, paymentID string) (_ *Payment, err error) {
	defer observeGateway("get", &err)

	raw, err := p.do(ctx, "get", http.MethodGet, "/v1/payments/"+url.PathEscape(paymentID), accessToken, nil, nil)
	if err != nil {
		return nil, err
	}
	return parsePayment(raw)
}

func (p *MercadoPago) CancelPayment(ctx context.Context, accessToken, paymentID string) (_ *Payment, err error) {
	defer observeGateway("cancel", &err)

	raw, err := p.do(ctx, "cancel", http.MethodPut, "/v1/payments/"+url.PathEscape(paymentID), accessToken, []byte(`{"status":"cancelled"}`), nil)
	if err != nil {
		return nil, err
	}
	return parsePayment(raw)
}

// maxSearchPages bounds one backfill run against a gateway that keeps reporting more results.
const maxSearchPages = 50

// SearchPixPayments lists PIX payments created at or after since, newest first.
// limit is the page size; pages are followed until one comes back empty or paging.total is reached.
func (p *MercadoPago) SearchPixPayments(ctx context.Context, accessToken string, since time.Time, limit int) (_ []*Payment, err error) {
	defer observeGateway("search", &err)

	if limit <= 0 {
		limit = 50
	}
	query := url.Values{}
	query.Set("sort", "date_created")
	query.Set("criteria", "desc")
	query.Set("range", "date_created")
	query.Set("begin_date", since.UTC().Format(time.RFC3339))
	query.Set("end_date", time.Now().UTC().Format(time.RFC3339))
	query.Set("payment_method_id", "pix")
	query.Set("limit", strconv.Itoa(limit))

	payments := make([]*Payment, 0, limit)
	offset := 0
	for page := 0; page < maxSearchPages; page++ {
		query.Set("offset", strconv.Itoa(offset))
		raw, err := p.do(ctx, "search", http.MethodGet, "/v1/payments/search?"+query.Encode(), accessToken, nil, nil)
		if err != nil {
			return nil, err
		}

		var envelope struct {
			Paging struct {
				Total int `json:"total"`
			} `json:"paging"`
			Results []json.RawMessage `json:"results"`
		}
		if err := json.Unmarshal(raw, &envelope); err != nil {
			return nil, fmt.Errorf("decode payment search: %w", err)
		}

		for _, item := range envelope.Results {
			payment, err := parsePayment(item)
			if err != nil {
				return nil, err
			}
			payments = append(payments, payment)
		}

		offset += len(envelope.Results)
		if len(envelope.Results) == 0 || envelope.Paging.Total <= offset {
			break
		}
	}
	return payments, nil
}

func (p *MercadoPago) do(ctx context.Context, operation, method, path, accessToken string, payload []byte, headers map[string]string) (json.RawMessage, error) {
	var reader io.Reader
	if payload != nil {
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, p.baseURL+path, reader)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Bearer "+accessToken)
	req.Header.Set("Accept", "application/json")
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	for key, value := range headers {
		req.Header.Set(key, value)
	}

	resp, err := p.client.Do(req)
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
			Service:    mercadoPagoService,
			Operation:  operation,
			StatusCode: resp.StatusCode,
			Message:    upstreamMessage(body, resp.StatusCode),
		}
	}

	return body, nil
}

func parsePayment(raw []byte) (*Payment, error) {
	decoder := json.NewDecoder(bytes.NewReader(raw))
	decoder.UseNumber()

	var body mpPaymentBody
	if err := decoder.Decode(&body); err != nil {
		return nil, fmt.Errorf("decode gateway payment: %w", err)
	}

	payment := &Payment{
		ID:           stringish(body.ID),
		Status:       strings.TrimSpace(body.Status),
		StatusDetail: body.StatusDetail,
		Description:  body.Description,
		PayerEmail:   body.Payer.Email,
		Metadata:     make(map[string]string, len(body.Metadata)),
		QRCode:       body.PointOfInteraction.TransactionData.QRCode,
		QRCodeBase64: body.PointOfInteraction.TransactionData.QRCodeBase64,
		TicketURL:    body.PointOfInteraction.TransactionData.TicketURL,
		Raw:          json.RawMessage(raw),
	}

	if amount := stringish(body.TransactionAmount); amount != "" {
		parsed, err := decimal.NewFromString(amount)
		if err != nil {
			return nil, fmt.Errorf("decode transaction_amount: %w", err)
		}
		payment.Amount = parsed
	}
	if body.DateCreated != "" {
		if created, err := time.Parse(time.RFC3339, body.DateCreated); err == nil {
			payment.DateCreated = created.UTC()
		}
	}
	for key, value := range body.Metadata {
		payment.Metadata[key] = stringish(value)
	}

	return payment, nil
}

func upstreamMessage(body []byte, statusCode int) string {
	var payload struct {
		Message string `json:"message"`
		Error   string `json:"error"`
	}
	if json.Unmarshal(body, &payload) == nil {
		if msg := strings.TrimSpace(payload.Message); msg != "" {
			return msg
		}
		if msg := strings.TrimSpace(payload.Error); msg != "" {
			return msg
		}
	}
	return http.StatusText(statusCode)
}

func observeGateway(operation string, err *error) {
	metrics.GatewayRequests.WithLabelValues(operation, metrics.Outcome(*err)).Inc()
}
