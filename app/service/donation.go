package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
	"github.com/vibast-solutions/ms-go-donations/app/entity"
	"github.com/vibast-solutions/ms-go-donations/app/factory"
	"github.com/vibast-solutions/ms-go-donations/app/metrics"
	"github.com/vibast-solutions/ms-go-donations/app/pix"
	"github.com/vibast-solutions/ms-go-donations/app/provider"
	"github.com/vibast-solutions/ms-go-donations/app/repository"
	"github.com/vibast-solutions/ms-go-donations/config"
)

const (
	defaultListLimit = int32(100)
	maxListLimit     = int32(500)
	defaultBatchSize = int32(200)
)

type createPixPaymentRequest interface {
	GetName() string
	GetEmail() string
	GetPhone() string
	GetSteamId() string
	GetDescription() string
	GetAmount() decimal.Decimal
	GetCoupon() string
	GetPackage() string
}

type fetchStatusRequest interface {
	GetOrderId() string
	GetDonationId() string
}

type cancelOrderRequest interface {
	GetOrderId() string
	GetDonationId() string
}

type listDonationsRequest interface {
	GetStatus() string
	GetSteamId() string
	GetLimit() int32
	GetOffset() int32
}

type donationRepository interface {
	Create(ctx context.Context, donation *entity.Donation) error
	UpdateStatus(ctx context.Context, id, status string, updatedAt time.Time) error
	FindByID(ctx context.Context, id string) (*entity.Donation, error)
	FindByPaymentID(ctx context.Context, paymentID string) (*entity.Donation, error)
	List(ctx context.Context, filter repository.DonationFilter) ([]*entity.Donation, error)
	ListOpen(ctx context.Context, limit int32) ([]*entity.Donation, error)
	ExistingPaymentIDs(ctx context.Context, paymentIDs []string) (map[string]bool, error)
}

type paymentGateway interface {
	CreatePixPayment(ctx context.Context, accessToken string, input *provider.PixChargeInput) (*provider.Payment, error)
	GetPayment(ctx context.Context, accessToken, paymentID string) (*provider.Payment, error)
	CancelPayment(ctx context.Context, accessToken, paymentID string) (*provider.Payment, error)
	SearchPixPayments(ctx context.Context, accessToken string, since time.Time, limit int) ([]*provider.Payment, error)
}

// CreatePixPaymentResult is what the donor needs to pay plus the bookkeeping
// the admin UI shows next to it.
type CreatePixPaymentResult struct {
	PaymentID      string
	Status         string
	QRCode         string
	QRCodeBase64   string
	TicketURL      string
	DonationID     string
	Amount         decimal.Decimal
	OriginalAmount decimal.Decimal
	DiscountCoupon string
	CouponKind     string
}

type FetchStatusResult struct {
	Payment *provider.Payment
	Updated bool
}

type CancelResult struct {
	Success bool
	Status  string
}

type DonationService struct {
	donations    donationRepository
	coupons      *couponResolver
	settings     SettingsProvider
	gateway      paymentGateway
	donationsCfg config.DonationsConfig
	maxAmount    decimal.Decimal
	logger       logrus.FieldLogger
	now          func() time.Time
}

func NewDonationService(
	donations donationRepository,
	streamerCoupons streamerCouponFinder,
	globalCoupons discountCouponFinder,
	streamers streamerFinder,
	settings SettingsProvider,
	gateway paymentGateway,
	donationsCfg config.DonationsConfig,
) *DonationService {
	maxAmount, err := decimal.NewFromString(strings.TrimSpace(donationsCfg.MaxAmount))
	if err != nil || !maxAmount.IsPositive() {
		maxAmount = decimal.NewFromInt(100000)
	}
	if strings.TrimSpace(donationsCfg.DefaultDescription) == "" {
		donationsCfg.DefaultDescription = "Doação Setor 7 Hardcore PVE"
	}

	return &DonationService{
		donations: donations,
		coupons: &couponResolver{
			streamerCoupons: streamerCoupons,
			globalCoupons:   globalCoupons,
			streamers:       streamers,
		},
		settings:     settings,
		gateway:      gateway,
		donationsCfg: donationsCfg,
		maxAmount:    maxAmount,
		logger:       factory.NewModuleLogger("donation_service"),
		now:          func() time.Time { return time.Now().UTC() },
	}
}

func (s *DonationService) CreatePixPayment(ctx context.Context, req createPixPaymentRequest) (*CreatePixPaymentResult, error) {
	amount := req.GetAmount()
	if !amount.IsPositive() {
		return nil, validationError("amount must be greater than zero")
	}
	if amount.GreaterThan(s.maxAmount) {
		return nil, validationError("amount must not exceed %s", s.maxAmount.StringFixed(2))
	}

	settings, err := s.settings.Load(ctx)
	if err != nil {
		return nil, err
	}
	if settings.MercadoPagoAccessToken == "" {
		return nil, ErrGatewayTokenMissing
	}

	now := s.now()
	coupon, err := s.coupons.resolve(ctx, req.GetCoupon(), now)
	if err != nil {
		return nil, err
	}
	if coupon != nil && settings.CouponMinimumAmount.IsPositive() && amount.LessThan(settings.CouponMinimumAmount) {
		return nil, &domainError{
			kind:    ErrValidation,
			message: fmt.Sprintf("coupons require a minimum donation of R$ %s", settings.CouponMinimumAmount.StringFixed(2)),
			cause:   ErrCouponMinimum,
		}
	}

	charged := finalAmount(amount, coupon, settings.PixMarkupPercentage)
	if !charged.IsPositive() {
		return nil, ErrNothingToCharge
	}

	name := strings.TrimSpace(req.GetName())
	email := strings.TrimSpace(req.GetEmail())
	steamID := strings.TrimSpace(req.GetSteamId())
	phone := digitsOnly(req.GetPhone())
	description := strings.TrimSpace(req.GetDescription())
	if description == "" {
		description = s.donationsCfg.DefaultDescription
	}
	firstName, lastName := splitName(name)
	areaCode, number := splitPhone(phone)

	metadata := map[string]string{
		"steam_id":    steamID,
		"phone":       phone,
		"donor_name":  name,
		"donor_email": email,
	}
	if pkg := strings.TrimSpace(req.GetPackage()); pkg != "" {
		metadata["vip_package"] = pkg
	}
	couponKind := "none"
	if coupon != nil {
		for key, value := range coupon.metadata() {
			metadata[key] = value
		}
		couponKind = coupon.Kind
	}

	payment, err := s.gateway.CreatePixPayment(ctx, settings.MercadoPagoAccessToken, &provider.PixChargeInput{
		IdempotencyKey:  fmt.Sprintf("%d-%s", now.UnixMilli(), uuid.NewString()),
		Amount:          charged,
		Description:     description,
		PayerEmail:      email,
		PayerFirstName:  firstName,
		PayerLastName:   lastName,
		PayerDocument:   steamID,
		PhoneAreaCode:   areaCode,
		PhoneNumber:     number,
		RegisteredAt:    now,
		ItemTitle:       description,
		ItemDescription: fmt.Sprintf("Doação de %s - Steam ID: %s", name, steamID),
		Metadata:        metadata,
	})
	if err != nil {
		return nil, upstreamError(err)
	}

	qrBase64 := payment.QRCodeBase64
	if qrBase64 == "" && payment.QRCode != "" {
		rendered, err := pix.RenderBase64(payment.QRCode, pix.DefaultImageSize)
		if err != nil {
			s.logger.WithError(err).WithField("payment_id", payment.ID).Warn("failed to render pix qr code")
		} else {
			qrBase64 = rendered
		}
	}

	status := payment.Status
	if status == "" {
		status = entity.DonationStatusPending
	}

	result := &CreatePixPaymentResult{
		PaymentID:      payment.ID,
		Status:         status,
		QRCode:         payment.QRCode,
		QRCodeBase64:   qrBase64,
		TicketURL:      payment.TicketURL,
		Amount:         charged,
		OriginalAmount: amount,
	}
	if coupon != nil {
		result.DiscountCoupon = coupon.Code
		result.CouponKind = coupon.Kind
	}

	donation := &entity.Donation{
		ID:           uuid.NewString(),
		PaymentID:    payment.ID,
		Name:         name,
		Email:        email,
		Phone:        normalizeOptionalString(phone),
		SteamID:      normalizeOptionalString(steamID),
		Amount:       charged,
		Description:  normalizeOptionalString(description),
		Status:       status,
		QRCode:       normalizeOptionalString(payment.QRCode),
		QRCodeBase64: normalizeOptionalString(qrBase64),
		TicketURL:    normalizeOptionalString(payment.TicketURL),
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if coupon != nil {
		donation.DiscountCoupon = &coupon.Code
	}

	metrics.DonationsCreated.WithLabelValues(couponKind).Inc()

	if err := s.donations.Create(ctx, donation); err != nil {
		metrics.PersistenceWarnings.Inc()
		s.logger.WithError(err).WithFields(logrus.Fields{
			"payment_id": payment.ID,
			"amount":     charged.StringFixed(2),
		}).Warn("payment created but donation was not stored")
		return result, nil
	}

	result.DonationID = donation.ID
	return result, nil
}

// FetchStatus returns the gateway view of a payment and, when a donation id is
// given, copies a non-pending gateway status onto the stored donation.
func (s *DonationService) FetchStatus(ctx context.Context, req fetchStatusRequest) (*FetchStatusResult, error) {
	orderID := strings.TrimSpace(req.GetOrderId())
	if orderID == "" {
		return nil, validationError("orderId is required")
	}

	var donation *entity.Donation
	if donationID := strings.TrimSpace(req.GetDonationId()); donationID != "" {
		found, err := s.donations.FindByID(ctx, donationID)
		if err != nil {
			return nil, err
		}
		if found == nil {
			return nil, ErrDonationNotFound
		}
		if found.PaymentID != orderID {
			return nil, ErrPaymentMismatch
		}
		donation = found
	}

	settings, err := s.settings.Load(ctx)
	if err != nil {
		return nil, err
	}
	if settings.MercadoPagoAccessToken == "" {
		return nil, ErrGatewayTokenMissing
	}

	payment, err := s.gateway.GetPayment(ctx, settings.MercadoPagoAccessToken, orderID)
	if err != nil {
		return nil, upstreamError(err)
	}

	result := &FetchStatusResult{Payment: payment}
	if donation == nil {
		return result, nil
	}

	updated, err := s.syncStatus(ctx, donation, payment.Status)
	if err != nil {
		return nil, err
	}
	result.Updated = updated
	return result, nil
}

// syncStatus writes only when the gateway moved the payment out of pending to
// a status the donation does not already have.
func (s *DonationService) syncStatus(ctx context.Context, donation *entity.Donation, gatewayStatus string) (bool, error) {
	gatewayStatus = strings.TrimSpace(gatewayStatus)
	if gatewayStatus == "" || gatewayStatus == entity.DonationStatusPending || gatewayStatus == donation.Status {
		return false, nil
	}

	if err := s.donations.UpdateStatus(ctx, donation.ID, gatewayStatus, s.now()); err != nil {
		if errors.Is(err, repository.ErrDonationNotFound) {
			return false, ErrDonationNotFound
		}
		return false, err
	}

	metrics.StatusTransitions.WithLabelValues(gatewayStatus).Inc()
	s.logger.WithFields(logrus.Fields{
		"donation_id": donation.ID,
		"payment_id":  donation.PaymentID,
		"old_status":  donation.Status,
		"new_status":  gatewayStatus,
	}).Info("donation status updated")
	donation.Status = gatewayStatus
	return true, nil
}

func (s *DonationService) Cancel(ctx context.Context, req cancelOrderRequest) (*CancelResult, error) {
	orderID := strings.TrimSpace(req.GetOrderId())
	donationID := strings.TrimSpace(req.GetDonationId())
	if orderID == "" || donationID == "" {
		return nil, validationError("orderId and donationId are required")
	}

	donation, err := s.donations.FindByID(ctx, donationID)
	if err != nil {
		return nil, err
	}
	if donation == nil {
		return nil, ErrDonationNotFound
	}
	if donation.PaymentID != orderID {
		return nil, ErrPaymentMismatch
	}

	settings, err := s.settings.Load(ctx)
	if err != nil {
		return nil, err
	}
	if settings.MercadoPagoAccessToken == "" {
		return nil, ErrGatewayTokenMissing
	}

	if _, err := s.gateway.CancelPayment(ctx, settings.MercadoPagoAccessToken, orderID); err != nil {
		return nil, upstreamError(err)
	}

	if err := s.donations.UpdateStatus(ctx, donation.ID, entity.DonationStatusCancelled, s.now()); err != nil {
		return nil, fmt.Errorf("payment cancelled but donation status was not updated: %w", err)
	}
	metrics.StatusTransitions.WithLabelValues(entity.DonationStatusCancelled).Inc()

	return &CancelResult{Success: true, Status: entity.DonationStatusCancelled}, nil
}

func (s *DonationService) GetDonation(ctx context.Context, id string) (*entity.Donation, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return nil, validationError("id is required")
	}
	donation, err := s.donations.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if donation == nil {
		return nil, ErrDonationNotFound
	}
	return donation, nil
}

func (s *DonationService) GetByPaymentID(ctx context.Context, paymentID string) (*entity.Donation, error) {
	paymentID = strings.TrimSpace(paymentID)
	if paymentID == "" {
		return nil, validationError("payment_id is required")
	}
	donation, err := s.donations.FindByPaymentID(ctx, paymentID)
	if err != nil {
		return nil, err
	}
	if donation == nil {
		return nil, ErrDonationNotFound
	}
	return donation, nil
}

func (s *DonationService) ListDonations(ctx context.Context, req listDonationsRequest) ([]*entity.Donation, error) {
	return s.donations.List(ctx, repository.DonationFilter{
		Status:  strings.TrimSpace(req.GetStatus()),
		SteamID: strings.TrimSpace(req.GetSteamId()),
		Limit:   clampLimit(req.GetLimit()),
		Offset:  maxInt32(req.GetOffset(), 0),
	})
}

// ListApprovedBySteamID backs the game-server perk lookups.
func (s *DonationService) ListApprovedBySteamID(ctx context.Context, steamID string, limit int32) ([]*entity.Donation, error) {
	steamID = strings.TrimSpace(steamID)
	if steamID == "" {
		return nil, validationError("steam_id is required")
	}
	return s.donations.List(ctx, repository.DonationFilter{
		Status:  entity.DonationStatusApproved,
		SteamID: steamID,
		Limit:   clampLimit(limit),
	})
}

func splitName(name string) (string, string) {
	parts := strings.Fields(name)
	if len(parts) == 0 {
		return "", ""
	}
	first := parts[0]
	last := strings.Join(parts[1:], " ")
	if last == "" {
		last = first
	}
	return first, last
}

func splitPhone(digits string) (string, string) {
	if len(digits) <= 2 {
		return digits, ""
	}
	return digits[:2], digits[2:]
}

func digitsOnly(value string) string {
	var b strings.Builder
	for _, r := range value {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	return b.String()
}

func normalizeOptionalString(value string) *string {
	value = strings.TrimSpace(value)
	if value == "" {
		return nil
	}
	return &value
}

func clampLimit(limit int32) int32 {
	if limit <= 0 {
		return defaultListLimit
	}
	if limit > maxListLimit {
		return maxListLimit
	}
	return limit
}

func maxInt32(a, b int32) int32 {
	if a > b {
		return a
	}
	return b
}

func keepFirstErr(current, candidate error) error {
	if current != nil {
		return current
	}
	return candidate
}
