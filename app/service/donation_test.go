package service

import (
	"context"
	"errors"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/vibast-solutions/ms-go-donations/app/entity"
	"github.com/vibast-solutions/ms-go-donations/app/pix"
	"github.com/vibast-solutions/ms-go-donations/app/provider"
	"github.com/vibast-solutions/ms-go-donations/config"
)

var fixedNow = time.Date(2026, 3, 10, 15, 0, 0, 0, time.UTC)

func newTestDonationService(repo *memoryDonationRepo, coupons *memoryCouponRepo, settings *staticSettings, gateway *fakeGateway) *DonationService {
	if coupons == nil {
		coupons = &memoryCouponRepo{}
	}
	svc := NewDonationService(repo, coupons, coupons, coupons, settings, gateway, config.DonationsConfig{})
	svc.now = func() time.Time { return fixedNow }
	return svc
}

func tokenSettings() *staticSettings {
	return &staticSettings{settings: Settings{MercadoPagoAccessToken: "APP_USR-1"}}
}

func streamerXCoupons() *memoryCouponRepo {
	steamID := "76561198111111111"
	return &memoryCouponRepo{
		streamerCoupons: []*entity.StreamerCoupon{{
			ID:         "c1",
			StreamerID: "s1",
			Name:       "Stream X",
			Code:       "STREAMERX",
			StartsAt:   time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC),
			EndsAt:     time.Date(2026, 3, 31, 23, 59, 59, 0, time.UTC),
			Discount:   entity.PercentageDiscount{Percent: dec("20")},
		}},
		streamers: map[string]*entity.Streamer{
			"s1": {ID: "s1", Name: "Streamer X", Email: "x@example.com", SteamID: &steamID},
		},
	}
}

func TestCreatePixPaymentWithoutCoupon(t *testing.T) {
	repo := newMemoryDonationRepo()
	gateway := &fakeGateway{}
	svc := newTestDonationService(repo, nil, tokenSettings(), gateway)

	result, err := svc.CreatePixPayment(context.Background(), anaRequest("50"))
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if result.PaymentID != "1001" || result.Status != "pending" || result.DonationID == "" {
		t.Fatalf("unexpected result: %+v", result)
	}
	if !result.Amount.Equal(dec("50")) || !result.OriginalAmount.Equal(dec("50")) {
		t.Fatalf("unexpected amounts: %s / %s", result.Amount, result.OriginalAmount)
	}

	if len(gateway.createCalls) != 1 {
		t.Fatalf("expected one gateway call, got %d", len(gateway.createCalls))
	}
	input := gateway.createCalls[0]
	if input.PayerFirstName != "Ana" || input.PayerLastName != "Silva" {
		t.Fatalf("unexpected payer name: %q %q", input.PayerFirstName, input.PayerLastName)
	}
	if input.PhoneAreaCode != "11" || input.PhoneNumber != "999999999" {
		t.Fatalf("unexpected phone split: %q %q", input.PhoneAreaCode, input.PhoneNumber)
	}
	if input.Description != "Doação Setor 7 Hardcore PVE" || input.ItemTitle != input.Description {
		t.Fatalf("unexpected description: %q", input.Description)
	}
	if input.ItemDescription != "Doação de Ana Silva - Steam ID: 76561198000000000" {
		t.Fatalf("unexpected item description: %q", input.ItemDescription)
	}
	if input.Metadata["donor_email"] != "ana@example.com" || input.Metadata["phone"] != "11999999999" {
		t.Fatalf("unexpected metadata: %v", input.Metadata)
	}
	if _, ok := input.Metadata["coupon_code"]; ok {
		t.Fatalf("unexpected coupon metadata: %v", input.Metadata)
	}
	prefix := strconv.FormatInt(fixedNow.UnixMilli(), 10) + "-"
	if !strings.HasPrefix(input.IdempotencyKey, prefix) || len(input.IdempotencyKey) <= len(prefix) {
		t.Fatalf("unexpected idempotency key: %q", input.IdempotencyKey)
	}

	stored := repo.only()
	if stored == nil || stored.PaymentID != "1001" || stored.Status != "pending" {
		t.Fatalf("unexpected stored donation: %+v", stored)
	}
	if !stored.Amount.Equal(dec("50")) || stored.DiscountCoupon != nil {
		t.Fatalf("unexpected stored amount/coupon: %s %v", stored.Amount, stored.DiscountCoupon)
	}
	if stored.Phone == nil || *stored.Phone != "11999999999" {
		t.Fatalf("expected digits-only phone, got %v", stored.Phone)
	}
}

func TestDonationApprovedAfterPolling(t *testing.T) {
	repo := newMemoryDonationRepo()
	status := "pending"
	gateway := &fakeGateway{
		getFn: func(paymentID string) (*provider.Payment, error) {
			return &provider.Payment{ID: paymentID, Status: status, Raw: []byte(`{"id":1001,"status":"` + status + `"}`)}, nil
		},
	}
	svc := newTestDonationService(repo, nil, tokenSettings(), gateway)

	created, err := svc.CreatePixPayment(context.Background(), anaRequest("50"))
	if err != nil {
		t.Fatalf("create failed: %v", err)
	}
	req := orderRequest{orderID: created.PaymentID, donationID: created.DonationID}

	first, err := svc.FetchStatus(context.Background(), req)
	if err != nil {
		t.Fatalf("fetch failed: %v", err)
	}
	if first.Updated || repo.updates != 0 {
		t.Fatal("pending gateway status must not write")
	}

	status = "approved"
	svc.now = func() time.Time { return fixedNow.Add(time.Minute) }
	second, err := svc.FetchStatus(context.Background(), req)
	if err != nil {
		t.Fatalf("fetch failed: %v", err)
	}
	if !second.Updated || string(second.Payment.Raw) != `{"id":1001,"status":"approved"}` {
		t.Fatalf("unexpected result: %+v", second)
	}
	afterFirstWrite := repo.only()

	svc.now = func() time.Time { return fixedNow.Add(2 * time.Minute) }
	third, err := svc.FetchStatus(context.Background(), req)
	if err != nil {
		t.Fatalf("fetch failed: %v", err)
	}
	if third.Updated || repo.updates != 1 {
		t.Fatalf("repeated fetch must not write, updates=%d", repo.updates)
	}
	stored := repo.only()
	if stored.Status != "approved" || !stored.UpdatedAt.Equal(afterFirstWrite.UpdatedAt) {
		t.Fatalf("unexpected stored donation: %+v", stored)
	}
}

func TestCreatePixPaymentWithStreamerPercentageCoupon(t *testing.T) {
	repo := newMemoryDonationRepo()
	gateway := &fakeGateway{}
	svc := newTestDonationService(repo, streamerXCoupons(), tokenSettings(), gateway)

	req := anaRequest("100")
	req.coupon = "STREAMERX"
	result, err := svc.CreatePixPayment(context.Background(), req)
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if !result.Amount.Equal(dec("80")) || !result.OriginalAmount.Equal(dec("100")) {
		t.Fatalf("unexpected amounts: %s / %s", result.Amount, result.OriginalAmount)
	}
	if result.DiscountCoupon != "STREAMERX" || result.CouponKind != entity.CouponKindStreamer {
		t.Fatalf("unexpected coupon result: %+v", result)
	}

	input := gateway.createCalls[0]
	if !input.Amount.Equal(dec("80")) {
		t.Fatalf("gateway charged %s", input.Amount)
	}
	meta := input.Metadata
	if meta["coupon_kind"] != "streamer" || meta["streamer_id"] != "s1" || meta["streamer_name"] != "Streamer X" || meta["streamer_steam_id"] != "76561198111111111" {
		t.Fatalf("unexpected coupon metadata: %v", meta)
	}

	stored := repo.only()
	if !stored.Amount.Equal(dec("80")) || stored.DiscountCoupon == nil || *stored.DiscountCoupon != "STREAMERX" {
		t.Fatalf("unexpected stored donation: %+v", stored)
	}
}

func TestCreatePixPaymentRejectsCouponBelowMinimum(t *testing.T) {
	repo := newMemoryDonationRepo()
	gateway := &fakeGateway{}
	settings := tokenSettings()
	settings.settings.CouponMinimumAmount = dec("50")
	svc := newTestDonationService(repo, streamerXCoupons(), settings, gateway)

	req := anaRequest("40")
	req.coupon = "STREAMERX"
	_, err := svc.CreatePixPayment(context.Background(), req)
	if !errors.Is(err, ErrCouponMinimum) || !errors.Is(err, ErrValidation) {
		t.Fatalf("expected coupon minimum validation error, got %v", err)
	}
	if len(gateway.createCalls) != 0 {
		t.Fatal("gateway must not be called")
	}
	if repo.only() != nil {
		t.Fatal("no donation should be stored")
	}
}

func TestCreatePixPaymentMinimumOnlyAppliesWithCoupon(t *testing.T) {
	settings := tokenSettings()
	settings.settings.CouponMinimumAmount = dec("50")
	svc := newTestDonationService(newMemoryDonationRepo(), streamerXCoupons(), settings, &fakeGateway{})

	if _, err := svc.CreatePixPayment(context.Background(), anaRequest("10")); err != nil {
		t.Fatalf("expected no error without coupon, got %v", err)
	}
}

func TestCreatePixPaymentFixedCoupon(t *testing.T) {
	coupons := streamerXCoupons()
	coupons.streamerCoupons[0].Discount = entity.FixedDiscount{Value: dec("10")}
	gateway := &fakeGateway{}
	svc := newTestDonationService(newMemoryDonationRepo(), coupons, tokenSettings(), gateway)

	req := anaRequest("50")
	req.coupon = "STREAMERX"
	result, err := svc.CreatePixPayment(context.Background(), req)
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if !result.Amount.Equal(dec("40")) {
		t.Fatalf("expected 40, got %s", result.Amount)
	}
}

func TestCreatePixPaymentRejectsZeroAfterFixedCoupon(t *testing.T) {
	coupons := streamerXCoupons()
	coupons.streamerCoupons[0].Discount = entity.FixedDiscount{Value: dec("30")}
	gateway := &fakeGateway{}
	svc := newTestDonationService(newMemoryDonationRepo(), coupons, tokenSettings(), gateway)

	req := anaRequest("20")
	req.coupon = "STREAMERX"
	_, err := svc.CreatePixPayment(context.Background(), req)
	if !errors.Is(err, ErrNothingToCharge) || !errors.Is(err, ErrValidation) {
		t.Fatalf("expected nothing to charge, got %v", err)
	}
	if len(gateway.createCalls) != 0 {
		t.Fatal("gateway must not be called")
	}
}

func TestCreatePixPaymentFallsBackToGlobalCouponOutsideWindow(t *testing.T) {
	coupons := streamerXCoupons()
	coupons.streamerCoupons[0].Code = "PROMO"
	coupons.streamerCoupons[0].EndsAt = time.Date(2026, 3, 5, 0, 0, 0, 0, time.UTC)
	coupons.globalCoupons = []*entity.DiscountCoupon{{ID: "g1", Code: "PROMO", Percentage: dec("10"), Active: true}}
	gateway := &fakeGateway{}
	svc := newTestDonationService(newMemoryDonationRepo(), coupons, tokenSettings(), gateway)

	req := anaRequest("100")
	req.coupon = "PROMO"
	result, err := svc.CreatePixPayment(context.Background(), req)
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if !result.Amount.Equal(dec("90")) || result.CouponKind != entity.CouponKindGlobal {
		t.Fatalf("unexpected result: %+v", result)
	}
	if gateway.createCalls[0].Metadata["coupon_kind"] != "global" {
		t.Fatalf("unexpected metadata: %v", gateway.createCalls[0].Metadata)
	}
}

func TestCreatePixPaymentStreamerCouponWinsCodeCollision(t *testing.T) {
	coupons := streamerXCoupons()
	coupons.streamerCoupons[0].Code = "PROMO"
	coupons.streamerCoupons[0].Discount = entity.PercentageDiscount{Percent: dec("50")}
	coupons.globalCoupons = []*entity.DiscountCoupon{{ID: "g1", Code: "PROMO", Percentage: dec("10"), Active: true}}
	svc := newTestDonationService(newMemoryDonationRepo(), coupons, tokenSettings(), &fakeGateway{})

	req := anaRequest("100")
	req.coupon = "PROMO"
	result, err := svc.CreatePixPayment(context.Background(), req)
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if !result.Amount.Equal(dec("50")) || result.CouponKind != entity.CouponKindStreamer {
		t.Fatalf("unexpected result: %+v", result)
	}
}

func TestCreatePixPaymentIgnoresUnknownCoupon(t *testing.T) {
	repo := newMemoryDonationRepo()
	gateway := &fakeGateway{}
	svc := newTestDonationService(repo, streamerXCoupons(), tokenSettings(), gateway)

	req := anaRequest("100")
	req.coupon = "NOPE"
	result, err := svc.CreatePixPayment(context.Background(), req)
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if !result.Amount.Equal(dec("100")) || result.DiscountCoupon != "" {
		t.Fatalf("unexpected result: %+v", result)
	}
	if repo.only().DiscountCoupon != nil {
		t.Fatal("unknown coupon must not be stored")
	}
}

func TestCreatePixPaymentAppliesMarkupAndRounds(t *testing.T) {
	settings := tokenSettings()
	settings.settings.PixMarkupPercentage = dec("1.99")
	svc := newTestDonationService(newMemoryDonationRepo(), nil, settings, &fakeGateway{})

	result, err := svc.CreatePixPayment(context.Background(), anaRequest("33.33"))
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	// 33.33 * 1.0199 = 33.993267
	if !result.Amount.Equal(dec("33.99")) {
		t.Fatalf("expected 33.99, got %s", result.Amount)
	}
}

func TestCreatePixPaymentRequiresAccessToken(t *testing.T) {
	gateway := &fakeGateway{}
	svc := newTestDonationService(newMemoryDonationRepo(), nil, &staticSettings{}, gateway)

	_, err := svc.CreatePixPayment(context.Background(), anaRequest("50"))
	if !errors.Is(err, ErrConfiguration) {
		t.Fatalf("expected configuration error, got %v", err)
	}
	if len(gateway.createCalls) != 0 {
		t.Fatal("gateway must not be called")
	}
}

func TestCreatePixPaymentRejectsAmountAboveMaximum(t *testing.T) {
	svc := newTestDonationService(newMemoryDonationRepo(), nil, tokenSettings(), &fakeGateway{})

	_, err := svc.CreatePixPayment(context.Background(), anaRequest("100000.01"))
	if !errors.Is(err, ErrValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestCreatePixPaymentSurfacesGatewayMessage(t *testing.T) {
	repo := newMemoryDonationRepo()
	gateway := &fakeGateway{
		createFn: func(*provider.PixChargeInput) (*provider.Payment, error) {
			return nil, &provider.UpstreamError{Service: "mercadopago", Operation: "create", StatusCode: 400, Message: "payer.email must be a valid email"}
		},
	}
	svc := newTestDonationService(repo, nil, tokenSettings(), gateway)

	_, err := svc.CreatePixPayment(context.Background(), anaRequest("50"))
	if !errors.Is(err, ErrUpstream) || err.Error() != "payer.email must be a valid email" {
		t.Fatalf("expected upstream error with gateway message, got %v", err)
	}
	if repo.only() != nil {
		t.Fatal("no donation should be stored")
	}
}

func TestCreatePixPaymentKeepsResponseWhenInsertFails(t *testing.T) {
	repo := newMemoryDonationRepo()
	repo.createErr = errors.New("connection refused")
	svc := newTestDonationService(repo, nil, tokenSettings(), &fakeGateway{})

	result, err := svc.CreatePixPayment(context.Background(), anaRequest("50"))
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if result.PaymentID != "1001" || result.DonationID != "" || result.QRCode == "" {
		t.Fatalf("unexpected result: %+v", result)
	}
}

func TestCreatePixPaymentRendersMissingQRImage(t *testing.T) {
	gateway := &fakeGateway{
		createFn: func(*provider.PixChargeInput) (*provider.Payment, error) {
			return &provider.Payment{ID: "1002", Status: "pending", QRCode: "00020126580014br.gov.bcb.pix"}, nil
		},
	}
	svc := newTestDonationService(newMemoryDonationRepo(), nil, tokenSettings(), gateway)

	result, err := svc.CreatePixPayment(context.Background(), anaRequest("50"))
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if _, err := pix.DecodeBase64(result.QRCodeBase64); err != nil {
		t.Fatalf("expected rendered png, got %v", err)
	}
}

func TestFetchStatusUnknownDonationDoesNotWrite(t *testing.T) {
	repo := newMemoryDonationRepo()
	gateway := &fakeGateway{
		getFn: func(paymentID string) (*provider.Payment, error) {
			return &provider.Payment{ID: paymentID, Status: "approved"}, nil
		},
	}
	svc := newTestDonationService(repo, nil, tokenSettings(), gateway)

	_, err := svc.FetchStatus(context.Background(), orderRequest{orderID: "1001", donationID: "missing"})
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
	if repo.updates != 0 || gateway.getCalls != 0 {
		t.Fatalf("unexpected side effects: updates=%d gets=%d", repo.updates, gateway.getCalls)
	}
}

func TestFetchStatusWithoutDonationOnlyReads(t *testing.T) {
	repo := newMemoryDonationRepo()
	gateway := &fakeGateway{
		getFn: func(paymentID string) (*provider.Payment, error) {
			return &provider.Payment{ID: paymentID, Status: "approved", Raw: []byte(`{"id":7}`)}, nil
		},
	}
	svc := newTestDonationService(repo, nil, tokenSettings(), gateway)

	result, err := svc.FetchStatus(context.Background(), orderRequest{orderID: "7"})
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if result.Updated || string(result.Payment.Raw) != `{"id":7}` {
		t.Fatalf("unexpected result: %+v", result)
	}
}

func TestFetchStatusRequiresOrderID(t *testing.T) {
	svc := newTestDonationService(newMemoryDonationRepo(), nil, tokenSettings(), &fakeGateway{})
	if _, err := svc.FetchStatus(context.Background(), orderRequest{}); !errors.Is(err, ErrValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func seedDonation(repo *memoryDonationRepo, id, paymentID, status string) {
	seedDonationAt(repo, id, paymentID, status, fixedNow)
}

func seedDonationAt(repo *memoryDonationRepo, id, paymentID, status string, createdAt time.Time) {
	_ = repo.Create(context.Background(), &entity.Donation{
		ID:        id,
		PaymentID: paymentID,
		Name:      "Ana Silva",
		Email:     "ana@example.com",
		Amount:    dec("50"),
		Status:    status,
		CreatedAt: createdAt,
		UpdatedAt: createdAt,
	})
}

func TestCancelMarksDonationCancelled(t *testing.T) {
	repo := newMemoryDonationRepo()
	seedDonation(repo, "d1", "1001", "pending")
	gateway := &fakeGateway{
		cancelFn: func(paymentID string) (*provider.Payment, error) {
			return &provider.Payment{ID: paymentID, Status: "cancelled"}, nil
		},
	}
	svc := newTestDonationService(repo, nil, tokenSettings(), gateway)

	result, err := svc.Cancel(context.Background(), orderRequest{orderID: "1001", donationID: "d1"})
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if !result.Success || result.Status != "cancelled" {
		t.Fatalf("unexpected result: %+v", result)
	}
	if repo.only().Status != "cancelled" {
		t.Fatalf("expected cancelled donation, got %s", repo.only().Status)
	}
}

func TestCancelFailureKeepsApprovedDonation(t *testing.T) {
	repo := newMemoryDonationRepo()
	seedDonation(repo, "d1", "1001", "approved")
	gateway := &fakeGateway{
		cancelFn: func(string) (*provider.Payment, error) {
			return nil, &provider.UpstreamError{Service: "mercadopago", Operation: "cancel", StatusCode: 400, Message: "Payment can't be cancelled"}
		},
	}
	svc := newTestDonationService(repo, nil, tokenSettings(), gateway)

	_, err := svc.Cancel(context.Background(), orderRequest{orderID: "1001", donationID: "d1"})
	if !errors.Is(err, ErrUpstream) {
		t.Fatalf("expected upstream error, got %v", err)
	}
	if repo.only().Status != "approved" || repo.updates != 0 {
		t.Fatalf("approved donation must not change, got %s", repo.only().Status)
	}
}

func TestCancelValidatesOwnership(t *testing.T) {
	repo := newMemoryDonationRepo()
	seedDonation(repo, "d1", "1001", "pending")
	gateway := &fakeGateway{}
	svc := newTestDonationService(repo, nil, tokenSettings(), gateway)

	tests := []struct {
		name string
		req  orderRequest
		want error
	}{
		{name: "missing ids", req: orderRequest{orderID: "1001"}, want: ErrValidation},
		{name: "unknown donation", req: orderRequest{orderID: "1001", donationID: "d9"}, want: ErrNotFound},
		{name: "payment mismatch", req: orderRequest{orderID: "2002", donationID: "d1"}, want: ErrPaymentMismatch},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.Cancel(context.Background(), tt.req)
			if !errors.Is(err, tt.want) {
				t.Fatalf("expected %v, got %v", tt.want, err)
			}
		})
	}
	if gateway.cancelCalls != 0 {
		t.Fatal("gateway must not be called")
	}
}

func TestListApprovedBySteamID(t *testing.T) {
	repo := newMemoryDonationRepo()
	steamID := "765"
	for i, status := range []string{"approved", "pending", "approved"} {
		id := strconv.Itoa(i)
		_ = repo.Create(context.Background(), &entity.Donation{ID: id, PaymentID: "p" + id, Status: status, SteamID: &steamID})
	}
	svc := newTestDonationService(repo, nil, tokenSettings(), &fakeGateway{})

	items, err := svc.ListApprovedBySteamID(context.Background(), "765", 0)
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if len(items) != 2 {
		t.Fatalf("expected 2 approved donations, got %d", len(items))
	}
	if _, err := svc.ListApprovedBySteamID(context.Background(), " ", 0); !errors.Is(err, ErrValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestGetByPaymentIDNotFound(t *testing.T) {
	svc := newTestDonationService(newMemoryDonationRepo(), nil, tokenSettings(), &fakeGateway{})
	if _, err := svc.GetByPaymentID(context.Background(), "404"); !errors.Is(err, ErrDonationNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
}
