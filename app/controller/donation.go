package controller

import (
	"context"
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"
	"github.com/sirupsen/logrus"
	"github.com/vibast-solutions/ms-go-donations/app/factory"
	"github.com/vibast-solutions/ms-go-donations/app/mapper"
	"github.com/vibast-solutions/ms-go-donations/app/metrics"
	"github.com/vibast-solutions/ms-go-donations/app/service"
	"github.com/vibast-solutions/ms-go-donations/app/types"
)

type rateLimiter interface {
	Allow(ctx context.Context, clientKey string) (int64, bool, error)
}

type DonationController struct {
	donations *service.DonationService
	emails    *service.EmailService
	limiter   rateLimiter
	logger    logrus.FieldLogger
}

// NewDonationController accepts a nil limiter, which disables rate limiting.
func NewDonationController(donations *service.DonationService, emails *service.EmailService, limiter rateLimiter) *DonationController {
	return &DonationController{
		donations: donations,
		emails:    emails,
		limiter:   limiter,
		logger:    factory.NewModuleLogger("donations-controller"),
	}
}

func (c *DonationController) Health(ctx echo.Context) error {
	return ctx.JSON(http.StatusOK, &types.HealthResponse{Status: "ok"})
}

func (c *DonationController) CreatePixPayment(ctx echo.Context) error {
	if blocked, err := c.rateLimited(ctx); blocked {
		return err
	}

	req, err := types.NewCreatePixPaymentRequestFromContext(ctx)
	if err != nil {
		return writeError(ctx, http.StatusBadRequest, "invalid request body")
	}
	if err := req.Validate(); err != nil {
		return writeError(ctx, http.StatusBadRequest, err.Error())
	}

	result, err := c.donations.CreatePixPayment(ctx.Request().Context(), req)
	if err != nil {
		return respondError(ctx, c.logger, err, "Create pix payment")
	}

	return ctx.JSON(http.StatusOK, mapper.CreatePixPaymentToResponse(result))
}

// GetOrder answers with the gateway's own payment document.
func (c *DonationController) GetOrder(ctx echo.Context) error {
	req, err := types.NewOrderRequestFromContext(ctx)
	if err != nil {
		return writeError(ctx, http.StatusBadRequest, "invalid request body")
	}
	if err := req.Validate(); err != nil {
		return writeError(ctx, http.StatusBadRequest, err.Error())
	}

	result, err := c.donations.FetchStatus(ctx.Request().Context(), req)
	if err != nil {
		return respondError(ctx, c.logger, err, "Get order")
	}

	if len(result.Payment.Raw) > 0 {
		return ctx.JSONBlob(http.StatusOK, result.Payment.Raw)
	}
	return ctx.JSON(http.StatusOK, map[string]string{
		"id":     result.Payment.ID,
		"status": result.Payment.Status,
	})
}

func (c *DonationController) CancelOrder(ctx echo.Context) error {
	req, err := types.NewOrderRequestFromContext(ctx)
	if err != nil {
		return writeError(ctx, http.StatusBadRequest, "invalid request body")
	}
	if err := req.ValidateCancel(); err != nil {
		return writeError(ctx, http.StatusBadRequest, err.Error())
	}

	result, err := c.donations.Cancel(ctx.Request().Context(), req)
	if err != nil {
		return respondError(ctx, c.logger, err, "Cancel order")
	}

	return ctx.JSON(http.StatusOK, &types.CancelOrderResponse{Success: result.Success, Status: result.Status})
}

func (c *DonationController) ResendEmail(ctx echo.Context) error {
	req, err := types.NewResendEmailRequestFromContext(ctx)
	if err != nil {
		return writeError(ctx, http.StatusBadRequest, "invalid request body")
	}
	if err := req.Validate(); err != nil {
		return writeError(ctx, http.StatusBadRequest, err.Error())
	}

	receipt, err := c.emails.ResendDonationEmail(ctx.Request().Context(), req)
	if err != nil {
		return respondError(ctx, c.logger, err, "Resend donation email")
	}

	if len(receipt.Raw) > 0 {
		return ctx.JSONBlob(http.StatusOK, receipt.Raw)
	}
	return ctx.JSON(http.StatusOK, map[string]string{"id": receipt.ID})
}

func (c *DonationController) ListDonations(ctx echo.Context) error {
	req, err := types.NewListDonationsRequestFromContext(ctx)
	if err != nil {
		return writeError(ctx, http.StatusBadRequest, err.Error())
	}
	if err := req.Validate(); err != nil {
		return writeError(ctx, http.StatusBadRequest, err.Error())
	}

	items, err := c.donations.ListDonations(ctx.Request().Context(), req)
	if err != nil {
		return respondError(ctx, c.logger, err, "List donations")
	}

	return ctx.JSON(http.StatusOK, &types.ListDonationsResponse{Donations: mapper.DonationsToResponse(items)})
}

func (c *DonationController) GetDonation(ctx echo.Context) error {
	item, err := c.donations.GetDonation(ctx.Request().Context(), ctx.Param("id"))
	if err != nil {
		return respondError(ctx, c.logger, err, "Get donation")
	}

	return ctx.JSON(http.StatusOK, &types.DonationEnvelopeResponse{Donation: mapper.DonationToResponse(item)})
}

func (c *DonationController) RefreshStatuses(ctx echo.Context) error {
	report, err := c.donations.RefreshPendingStatuses(ctx.Request().Context())
	if err != nil {
		return respondError(ctx, c.logger, err, "Refresh donation statuses")
	}

	return ctx.JSON(http.StatusOK, mapper.RefreshReportToResponse(report))
}

func (c *DonationController) Backfill(ctx echo.Context) error {
	report, err := c.donations.BackfillMissingDonations(ctx.Request().Context())
	if err != nil {
		return respondError(ctx, c.logger, err, "Backfill donations")
	}

	return ctx.JSON(http.StatusOK, mapper.BackfillReportToResponse(report))
}

// GetDonationByPayment and ListApprovedDonations serve the /internal group.
func (c *DonationController) GetDonationByPayment(ctx echo.Context) error {
	req, err := types.NewGetDonationRequestFromContext(ctx)
	if err != nil {
		return writeError(ctx, http.StatusBadRequest, "invalid request")
	}
	if err := req.Validate(); err != nil {
		return writeError(ctx, http.StatusBadRequest, err.Error())
	}

	item, err := c.donations.GetByPaymentID(ctx.Request().Context(), req.GetPaymentId())
	if err != nil {
		return respondError(ctx, c.logger, err, "Get donation by payment")
	}

	return ctx.JSON(http.StatusOK, &types.DonationEnvelopeResponse{Donation: mapper.DonationToResponse(item)})
}

func (c *DonationController) ListApprovedDonations(ctx echo.Context) error {
	req, err := types.NewListApprovedDonationsRequestFromContext(ctx)
	if err != nil {
		return writeError(ctx, http.StatusBadRequest, err.Error())
	}
	if err := req.Validate(); err != nil {
		return writeError(ctx, http.StatusBadRequest, err.Error())
	}

	items, err := c.donations.ListApprovedBySteamID(ctx.Request().Context(), req.GetSteamId(), req.GetLimit())
	if err != nil {
		return respondError(ctx, c.logger, err, "List approved donations")
	}

	return ctx.JSON(http.StatusOK, &types.ListDonationsResponse{Donations: mapper.DonationsToResponse(items)})
}

// rateLimited reports whether the response was already written. A limiter
// failure lets the request through.
func (c *DonationController) rateLimited(ctx echo.Context) (bool, error) {
	if c.limiter == nil {
		return false, nil
	}

	retryAfter, allowed, err := c.limiter.Allow(ctx.Request().Context(), ctx.RealIP())
	if err != nil {
		factory.LoggerWithContext(c.logger, ctx).WithError(err).Warn("rate limiter unavailable")
		return false, nil
	}
	if allowed {
		return false, nil
	}

	metrics.RateLimited.Inc()
	ctx.Response().Header().Set("Retry-After", strconv.FormatInt(retryAfter, 10))
	return true, writeError(ctx, http.StatusTooManyRequests, "too many requests, try again later")
}
