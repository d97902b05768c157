package service

import (
	"context"
	"strings"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
	"github.com/vibast-solutions/ms-go-donations/app/factory"
)

const (
	SecretMercadoPagoAccessToken = "MERCADO_PAGO_ACCESS_TOKEN"
	SecretResendAPIKey           = "RESEND_API_KEY"
	SecretCouponMinimumAmount    = "COUPON_MINIMUM_AMOUNT"
	SecretPixMarkupPercentage    = "PIX_MARKUP_PERCENTAGE"
)

// Settings is the snapshot of runtime secrets read once per invocation.
type Settings struct {
	MercadoPagoAccessToken string
	ResendAPIKey           string
	// CouponMinimumAmount is zero when unset or unparsable.
	CouponMinimumAmount decimal.Decimal
	PixMarkupPercentage decimal.Decimal
}

type secretValues interface {
	Values(ctx context.Context, keys ...string) (map[string]string, error)
}

type SettingsProvider interface {
	Load(ctx context.Context) (*Settings, error)
}

type secretSettingsProvider struct {
	secrets secretValues
	logger  logrus.FieldLogger
}

func NewSettingsProvider(secrets secretValues) SettingsProvider {
	return &secretSettingsProvider{
		secrets: secrets,
		logger:  factory.NewModuleLogger("settings"),
	}
}

func (p *secretSettingsProvider) Load(ctx context.Context) (*Settings, error) {
	values, err := p.secrets.Values(ctx,
		SecretMercadoPagoAccessToken,
		SecretResendAPIKey,
		SecretCouponMinimumAmount,
		SecretPixMarkupPercentage,
	)
	if err != nil {
		return nil, err
	}

	return &Settings{
		MercadoPagoAccessToken: strings.TrimSpace(values[SecretMercadoPagoAccessToken]),
		ResendAPIKey:           strings.TrimSpace(values[SecretResendAPIKey]),
		CouponMinimumAmount:    p.positiveDecimal(SecretCouponMinimumAmount, values[SecretCouponMinimumAmount]),
		PixMarkupPercentage:    p.positiveDecimal(SecretPixMarkupPercentage, values[SecretPixMarkupPercentage]),
	}, nil
}

func (p *secretSettingsProvider) positiveDecimal(key, raw string) decimal.Decimal {
	raw = strings.TrimSpace(strings.ReplaceAll(raw, ",", "."))
	if raw == "" {
		return decimal.Zero
	}
	value, err := decimal.NewFromString(raw)
	if err != nil || !value.IsPositive() {
		p.logger.WithField("key", key).Warn("ignoring non-positive or malformed setting")
		return decimal.Zero
	}
	return value
}
