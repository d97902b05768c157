package types

import (
	"errors"
	"strings"

	"github.com/labstack/echo/v4"
)

// GetDonationRequest is shared by the /internal HTTP group and the gRPC surface.
type GetDonationRequest struct {
	PaymentId string `json:"payment_id"`
}

func (r *GetDonationRequest) GetPaymentId() string { return r.PaymentId }

func NewGetDonationRequestFromContext(ctx echo.Context) (*GetDonationRequest, error) {
	return &GetDonationRequest{PaymentId: strings.TrimSpace(ctx.Param("paymentId"))}, nil
}

func (r *GetDonationRequest) Validate() error {
	if strings.TrimSpace(r.GetPaymentId()) == "" {
		return errors.New("payment_id is required")
	}
	return nil
}

type ListApprovedDonationsRequest struct {
	SteamId string `json:"steam_id"`
	Limit   int32  `json:"limit"`
}

func (r *ListApprovedDonationsRequest) GetSteamId() string { return r.SteamId }
func (r *ListApprovedDonationsRequest) GetLimit() int32    { return r.Limit }

func NewListApprovedDonationsRequestFromContext(ctx echo.Context) (*ListApprovedDonationsRequest, error) {
	limit, err := parseInt32Query("limit", ctx.QueryParam("limit"))
	if err != nil {
		return nil, err
	}
	return &ListApprovedDonationsRequest{
		SteamId: strings.TrimSpace(ctx.QueryParam("steam_id")),
		Limit:   limit,
	}, nil
}

func (r *ListApprovedDonationsRequest) Validate() error {
	if strings.TrimSpace(r.GetSteamId()) == "" {
		return errors.New("steam_id is required")
	}
	if r.GetLimit() < 0 {
		return errors.New("limit must be positive")
	}
	return nil
}

type HealthRequest struct{}
