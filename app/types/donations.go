package types

import (
	"errors"
	"io"
	"net/mail"
	"strings"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/shopspring/decimal"
)

type CreatePixPaymentRequest struct {
	Name        string          `json:"name"`
	Email       string          `json:"email"`
	Phone       string          `json:"phone"`
	SteamId     string          `json:"steamId"`
	Description string          `json:"description"`
	Amount      decimal.Decimal `json:"amount"`
	Coupon      string          `json:"coupon"`
	Package     string          `json:"package"`
}

func (r *CreatePixPaymentRequest) GetName() string            { return r.Name }
func (r *CreatePixPaymentRequest) GetEmail() string           { return r.Email }
func (r *CreatePixPaymentRequest) GetPhone() string           { return r.Phone }
func (r *CreatePixPaymentRequest) GetSteamId() string         { return r.SteamId }
func (r *CreatePixPaymentRequest) GetDescription() string     { return r.Description }
func (r *CreatePixPaymentRequest) GetAmount() decimal.Decimal { return r.Amount }
func (r *CreatePixPaymentRequest) GetCoupon() string          { return r.Coupon }
func (r *CreatePixPaymentRequest) GetPackage() string         { return r.Package }

func NewCreatePixPaymentRequestFromContext(ctx echo.Context) (*CreatePixPaymentRequest, error) {
	var body CreatePixPaymentRequest
	if err := ctx.Bind(&body); err != nil {
		return nil, err
	}

	body.Name = strings.TrimSpace(body.Name)
	body.Email = strings.ToLower(strings.TrimSpace(body.Email))
	body.Phone = strings.TrimSpace(body.Phone)
	body.SteamId = strings.TrimSpace(body.SteamId)
	body.Description = strings.TrimSpace(body.Description)
	body.Coupon = strings.ToUpper(strings.TrimSpace(body.Coupon))
	body.Package = strings.TrimSpace(body.Package)

	return &body, nil
}

func (r *CreatePixPaymentRequest) Validate() error {
	if r.GetName() == "" {
		return errors.New("name is required")
	}
	if err := maxLen("name", r.GetName(), 120); err != nil {
		return err
	}
	if r.GetEmail() == "" {
		return errors.New("email is required")
	}
	if err := maxLen("email", r.GetEmail(), 255); err != nil {
		return err
	}
	if addr, err := mail.ParseAddress(r.GetEmail()); err != nil || addr.Address != r.GetEmail() {
		return errors.New("email is invalid")
	}
	phoneDigits := digitsOnly(r.GetPhone())
	if phoneDigits == "" {
		return errors.New("phone is required")
	}
	if len(phoneDigits) < 10 || len(phoneDigits) > 20 {
		return errors.New("phone must have between 10 and 20 digits")
	}
	if err := maxLen("steamId", r.GetSteamId(), 64); err != nil {
		return err
	}
	if err := maxLen("description", r.GetDescription(), 500); err != nil {
		return err
	}
	if err := maxLen("coupon", r.GetCoupon(), 50); err != nil {
		return err
	}
	if err := maxLen("package", r.GetPackage(), 120); err != nil {
		return err
	}
	if !r.GetAmount().IsPositive() {
		return errors.New("amount must be greater than zero")
	}
	if !hasAtMostTwoDecimals(r.GetAmount()) {
		return errors.New("amount must have at most two decimal places")
	}
	return nil
}

// OrderRequest is the body of both the status and the cancel endpoints.
type OrderRequest struct {
	OrderId    FlexibleID `json:"orderId"`
	DonationId FlexibleID `json:"donationId"`
}

func (r *OrderRequest) GetOrderId() string    { return r.OrderId.String() }
func (r *OrderRequest) GetDonationId() string { return r.DonationId.String() }

func NewOrderRequestFromContext(ctx echo.Context) (*OrderRequest, error) {
	var body OrderRequest
	if err := ctx.Bind(&body); err != nil {
		return nil, err
	}
	body.OrderId = FlexibleID(strings.TrimSpace(body.OrderId.String()))
	body.DonationId = FlexibleID(strings.TrimSpace(body.DonationId.String()))
	return &body, nil
}

func (r *OrderRequest) Validate() error {
	if r.GetOrderId() == "" {
		return errors.New("orderId is required")
	}
	return nil
}

// ValidateCancel also requires the donation id.
func (r *OrderRequest) ValidateCancel() error {
	if err := r.Validate(); err != nil {
		return err
	}
	if r.GetDonationId() == "" {
		return errors.New("donationId is required")
	}
	return nil
}

type ResendEmailRequest struct {
	Name         string          `json:"name"`
	Email        string          `json:"email"`
	Phone        string          `json:"phone"`
	SteamId      string          `json:"steamId"`
	Amount       decimal.Decimal `json:"amount"`
	Description  string          `json:"description"`
	QrCodeBase64 string          `json:"qrCodeBase64"`
	QrCode       string          `json:"qrCode"`
	CreatedAtRaw string          `json:"createdAt"`

	createdAt time.Time
}

func (r *ResendEmailRequest) GetName() string            { return r.Name }
func (r *ResendEmailRequest) GetEmail() string           { return r.Email }
func (r *ResendEmailRequest) GetPhone() string           { return r.Phone }
func (r *ResendEmailRequest) GetSteamId() string         { return r.SteamId }
func (r *ResendEmailRequest) GetAmount() decimal.Decimal { return r.Amount }
func (r *ResendEmailRequest) GetDescription() string     { return r.Description }
func (r *ResendEmailRequest) GetQrCodeBase64() string    { return r.QrCodeBase64 }
func (r *ResendEmailRequest) GetQrCode() string          { return r.QrCode }
func (r *ResendEmailRequest) GetCreatedAt() time.Time    { return r.createdAt }

func NewResendEmailRequestFromContext(ctx echo.Context) (*ResendEmailRequest, error) {
	var body ResendEmailRequest
	if err := ctx.Bind(&body); err != nil {
		return nil, err
	}

	body.Name = strings.TrimSpace(body.Name)
	body.Email = strings.TrimSpace(body.Email)
	body.Phone = strings.TrimSpace(body.Phone)
	body.SteamId = strings.TrimSpace(body.SteamId)
	body.Description = strings.TrimSpace(body.Description)
	body.QrCodeBase64 = strings.TrimSpace(body.QrCodeBase64)
	body.QrCode = strings.TrimSpace(body.QrCode)

	createdAt, err := parseDateTime(body.CreatedAtRaw, false)
	if err != nil {
		return nil, err
	}
	body.createdAt = createdAt

	return &body, nil
}

func (r *ResendEmailRequest) Validate() error {
	if r.GetName() == "" {
		return errors.New("name is required")
	}
	if _, err := mail.ParseAddress(r.GetEmail()); err != nil {
		return errors.New("email is invalid")
	}
	if !r.GetAmount().IsPositive() {
		return errors.New("amount must be greater than zero")
	}
	if r.GetQrCode() == "" && r.GetQrCodeBase64() == "" {
		return errors.New("qrCode is required")
	}
	if r.GetCreatedAt().IsZero() {
		return errors.New("createdAt is required")
	}
	return nil
}

type ListDonationsRequest struct {
	Status  string
	SteamId string
	Limit   int32
	Offset  int32
}

func (r *ListDonationsRequest) GetStatus() string  { return r.Status }
func (r *ListDonationsRequest) GetSteamId() string { return r.SteamId }
func (r *ListDonationsRequest) GetLimit() int32    { return r.Limit }
func (r *ListDonationsRequest) GetOffset() int32   { return r.Offset }

func NewListDonationsRequestFromContext(ctx echo.Context) (*ListDonationsRequest, error) {
	req := &ListDonationsRequest{
		Status:  strings.ToLower(strings.TrimSpace(ctx.QueryParam("status"))),
		SteamId: strings.TrimSpace(ctx.QueryParam("steam_id")),
		Limit:   100,
	}

	limit, err := parseInt32Query("limit", ctx.QueryParam("limit"))
	if err != nil {
		return nil, err
	}
	if limit != 0 {
		req.Limit = limit
	}
	offset, err := parseInt32Query("offset", ctx.QueryParam("offset"))
	if err != nil {
		return nil, err
	}
	req.Offset = offset

	return req, nil
}

func (r *ListDonationsRequest) Validate() error {
	if r.GetLimit() <= 0 || r.GetLimit() > 500 {
		return errors.New("limit must be between 1 and 500")
	}
	if r.GetOffset() < 0 {
		return errors.New("offset must be >= 0")
	}
	return nil
}

// bindOptional binds a body that may be empty.
func bindOptional(ctx echo.Context, target interface{}) error {
	if err := ctx.Bind(target); err != nil && !errors.Is(err, io.EOF) {
		return err
	}
	return nil
}
