package service

import (
	"bytes"
	"context"
	"html/template"
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
	"github.com/vibast-solutions/ms-go-donations/config"
)

type resendEmailRequest interface {
	GetName() string
	GetEmail() string
	GetPhone() string
	GetSteamId() string
	GetAmount() decimal.Decimal
	GetDescription() string
	GetQrCodeBase64() string
	GetQrCode() string
	GetCreatedAt() time.Time
}

type emailSender interface {
	Send(ctx context.Context, apiKey string, message *provider.EmailMessage) (*provider.EmailReceipt, error)
}

type qrImageStore interface {
	PutQR(ctx context.Context, key string, png []byte) (string, error)
}

type EmailService struct {
	settings SettingsProvider
	sender   emailSender
	qrStore  qrImageStore
	emailCfg config.EmailConfig
	logger   logrus.FieldLogger
	now      func() time.Time
}

// NewEmailService accepts a nil qrStore; the QR image is then inlined as a
// data URI.
func NewEmailService(settings SettingsProvider, sender emailSender, qrStore qrImageStore, emailCfg config.EmailConfig) *EmailService {
	if strings.TrimSpace(emailCfg.From) == "" {
		emailCfg.From = "Setor 7 <onboarding@resend.dev>"
	}
	if strings.TrimSpace(emailCfg.Subject) == "" {
		emailCfg.Subject = "Detalhes da sua doação - Setor 7"
	}

	return &EmailService{
		settings: settings,
		sender:   sender,
		qrStore:  qrStore,
		emailCfg: emailCfg,
		logger:   factory.NewModuleLogger("email_service"),
		now:      func() time.Time { return time.Now().UTC() },
	}
}

func (s *EmailService) ResendDonationEmail(ctx context.Context, req resendEmailRequest) (*provider.EmailReceipt, error) {
	email := strings.TrimSpace(req.GetEmail())
	if email == "" {
		return nil, validationError("email is required")
	}

	settings, err := s.settings.Load(ctx)
	if err != nil {
		return nil, err
	}
	if settings.ResendAPIKey == "" {
		return nil, ErrEmailKeyMissing
	}

	html, err := s.render(ctx, req)
	if err != nil {
		return nil, err
	}

	receipt, err := s.sender.Send(ctx, settings.ResendAPIKey, &provider.EmailMessage{
		From:    s.emailCfg.From,
		To:      []string{email},
		Subject: s.emailCfg.Subject,
		HTML:    html,
	})
	metrics.EmailsSent.WithLabelValues(metrics.Outcome(err)).Inc()
	if err != nil {
		return nil, upstreamError(err)
	}

	s.logger.WithField("email_id", receipt.ID).Info("donation email sent")
	return receipt, nil
}

type donationEmailView struct {
	Name        string
	Email       string
	Phone       string
	SteamID     string
	Description string
	Date        string
	Amount      string
	QRImageSrc  template.URL
	QRCode      string
	Year        int
}

func (s *EmailService) render(ctx context.Context, req resendEmailRequest) (string, error) {
	view := donationEmailView{
		Name:        strings.TrimSpace(req.GetName()),
		Email:       strings.TrimSpace(req.GetEmail()),
		Phone:       strings.TrimSpace(req.GetPhone()),
		SteamID:     strings.TrimSpace(req.GetSteamId()),
		Description: strings.TrimSpace(req.GetDescription()),
		Date:        formatDateBR(req.GetCreatedAt()),
		Amount:      formatBRL(req.GetAmount()),
		QRImageSrc:  template.URL(s.qrImageSource(ctx, req.GetQrCodeBase64())),
		QRCode:      strings.TrimSpace(req.GetQrCode()),
		Year:        s.now().In(entity.SaoPaulo).Year(),
	}

	var buf bytes.Buffer
	if err := donationEmailTemplate.Execute(&buf, view); err != nil {
		return "", err
	}
	return buf.String(), nil
}

// qrImageSource prefers a hosted copy because most mail clients drop data:
// images. Upload problems fall back to the inline form.
func (s *EmailService) qrImageSource(ctx context.Context, encoded string) string {
	encoded = strings.TrimSpace(encoded)
	if encoded == "" {
		return ""
	}
	if s.qrStore == nil {
		return pix.DataURI(encoded)
	}

	png, err := pix.DecodeBase64(encoded)
	if err != nil {
		s.logger.WithError(err).Warn("qr code is not a valid png, inlining as received")
		return pix.DataURI(encoded)
	}
	url, err := s.qrStore.PutQR(ctx, uuid.NewString(), png)
	if err != nil {
		s.logger.WithError(err).Warn("failed to upload qr code")
		return pix.DataURI(encoded)
	}
	return url
}

func formatDateBR(at time.Time) string {
	if at.IsZero() {
		return ""
	}
	return at.In(entity.SaoPaulo).Format("02/01/2006 15:04")
}

// formatBRL renders 1234.5 as "R$ 1.234,50".
func formatBRL(amount decimal.Decimal) string {
	negative := amount.IsNegative()
	fixed := amount.Abs().StringFixed(2)
	intPart, frac := fixed[:len(fixed)-3], fixed[len(fixed)-2:]

	var grouped strings.Builder
	for i, r := range intPart {
		if i > 0 && (len(intPart)-i)%3 == 0 {
			grouped.WriteByte('.')
		}
		grouped.WriteRune(r)
	}

	sign := ""
	if negative {
		sign = "-"
	}
	return sign + "R$ " + grouped.String() + "," + frac
}

var donationEmailTemplate = template.Must(template.New("donation_email").Parse(`<!DOCTYPE html>
<html>
<head>
  <meta charset="utf-8">
  <style>
    body { font-family: -apple-system, BlinkMacSystemFont, 'Segoe UI', Roboto, Arial, sans-serif; line-height: 1.6; color: #333; max-width: 600px; margin: 0 auto; padding: 20px; background-color: #f4f4f4; }
    .container { background-color: #ffffff; border-radius: 8px; padding: 30px; }
    .info-section, .qr-section { margin: 20px 0; padding: 15px; background-color: #f9f9f9; border-radius: 6px; }
    .info-row { padding: 8px 0; border-bottom: 1px solid #e0e0e0; }
    .label { font-weight: 600; color: #666; font-size: 14px; }
    .amount { font-size: 24px; font-weight: bold; color: #10b981; }
    .qr-section { text-align: center; }
    .qr-code { max-width: 250px; border: 2px solid #e0e0e0; border-radius: 8px; }
    .pix-code { background-color: #fff; padding: 15px; border: 1px dashed #ccc; word-break: break-all; font-family: monospace; font-size: 12px; }
    .footer { margin-top: 30px; text-align: center; color: #666; font-size: 12px; }
  </style>
</head>
<body>
  <div class="container">
    <h1>🎮 Detalhes da sua doação</h1>
    <p>Olá {{.Name}},</p>
    <p>Aqui estão os detalhes da sua doação:</p>
    <div class="info-section">
      <div class="info-row"><span class="label">Nome:</span> <span>{{.Name}}</span></div>
      <div class="info-row"><span class="label">Email:</span> <span>{{.Email}}</span></div>
      {{- if .Phone}}
      <div class="info-row"><span class="label">Telefone:</span> <span>{{.Phone}}</span></div>
      {{- end}}
      {{- if .SteamID}}
      <div class="info-row"><span class="label">Steam ID:</span> <span>{{.SteamID}}</span></div>
      {{- end}}
      {{- if .Description}}
      <div class="info-row"><span class="label">Descrição:</span> <span>{{.Description}}</span></div>
      {{- end}}
      <div class="info-row"><span class="label">Data:</span> <span>{{.Date}}</span></div>
      <div class="info-row"><span class="label">Valor:</span> <span class="amount">{{.Amount}}</span></div>
    </div>
    <div class="qr-section">
      <h2>QR Code PIX</h2>
      <p>Escaneie o QR Code abaixo ou copie o código PIX para realizar o pagamento:</p>
      {{- if .QRImageSrc}}
      <img src="{{.QRImageSrc}}" alt="QR Code PIX" class="qr-code" />
      {{- end}}
      <div class="pix-code"><strong>Código PIX:</strong><br/>{{.QRCode}}</div>
    </div>
    <div class="footer">
      <p>Este é um email automático, por favor não responda.</p>
      <p>Se tiver dúvidas, entre em contato conosco.</p>
      <p>© {{.Year}} Setor 7. Todos os direitos reservados.</p>
    </div>
  </div>
</body>
</html>
`))
