package types

import (
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/shopspring/decimal"
)

func TestNewStreamerCouponRequestUsesPathStreamer(t *testing.T) {
	ctx := newJSONContext("POST", "/admin/streamers/s-1/coupons", `{"nome":"Live","codigo":"streamerx","data_inicio":"2026-03-01","data_fim":"2026-03-31","porcentagem":20}`)
	ctx.SetParamNames("streamerId")
	ctx.SetParamValues("s-1")

	parsed, err := NewStreamerCouponRequestFromContext(ctx)
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if parsed.GetStreamerId() != "s-1" || parsed.GetCode() != "STREAMERX" {
		t.Fatalf("unexpected parse: %+v", parsed)
	}
	if parsed.GetValue() != nil || parsed.GetPercentage() == nil || !parsed.GetPercentage().Equal(decimal.NewFromInt(20)) {
		t.Fatalf("unexpected discount fields: %+v", parsed)
	}
	if !parsed.GetEndsAt().After(parsed.GetStartsAt()) {
		t.Fatalf("expected end after start: %s %s", parsed.GetStartsAt(), parsed.GetEndsAt())
	}
	if err := parsed.Validate(); err != nil {
		t.Fatalf("expected valid request, got %v", err)
	}
}

func TestNewStreamerCouponRequestRejectsBadDate(t *testing.T) {
	ctx := newJSONContext("POST", "/admin/streamers/s-1/coupons", `{"nome":"Live","codigo":"X","data_inicio":"01/03/2026"}`)
	if _, err := NewStreamerCouponRequestFromContext(ctx); err == nil {
		t.Fatal("expected date parse error")
	}
}

func TestDiscountCouponRequestActiveDefaultsTrue(t *testing.T) {
	ctx := newJSONContext("POST", "/admin/discount-coupons", `{"code":"promo10","discount_percentage":10}`)

	parsed, err := NewDiscountCouponRequestFromContext(ctx)
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if !parsed.GetActive() || parsed.GetCode() != "PROMO10" {
		t.Fatalf("unexpected parse: %+v", parsed)
	}

	inactive := false
	parsed.Active = &inactive
	if parsed.GetActive() {
		t.Fatal("expected explicit false to be kept")
	}
}

func TestUserRequestValidateRole(t *testing.T) {
	req := &UserRequest{Email: "a@b.com", Role: "owner"}
	if err := req.Validate(); err == nil {
		t.Fatal("expected role validation error")
	}
	req.Role = "admin"
	if err := req.Validate(); err != nil {
		t.Fatalf("expected valid request, got %v", err)
	}
}

func TestNewMonthlySummaryRequestFromContext(t *testing.T) {
	e := echo.New()
	ctx := e.NewContext(httptest.NewRequest("GET", "/admin/finance/summary?month=2&year=2026", nil), httptest.NewRecorder())

	parsed, err := NewMonthlySummaryRequestFromContext(ctx)
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if parsed.Month != 2 || parsed.Year != 2026 {
		t.Fatalf("unexpected parse: %+v", parsed)
	}

	parsed.Month = 13
	if err := parsed.Validate(); err == nil {
		t.Fatal("expected month validation error")
	}

	bad := e.NewContext(httptest.NewRequest("GET", "/admin/finance/summary?month=feb", nil), httptest.NewRecorder())
	if _, err := NewMonthlySummaryRequestFromContext(bad); err == nil {
		t.Fatal("expected parse error")
	}
}

func TestNewSecretRequestUsesPathKey(t *testing.T) {
	ctx := newJSONContext("PUT", "/admin/secrets/resend_api_key", `{"value":"re_123"}`)
	ctx.SetParamNames("key")
	ctx.SetParamValues("resend_api_key")

	parsed, err := NewSecretRequestFromContext(ctx)
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if parsed.GetKey() != "RESEND_API_KEY" || parsed.GetValue() != "re_123" || parsed.GetDescription() != nil {
		t.Fatalf("unexpected parse: %+v", parsed)
	}
}
