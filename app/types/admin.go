package types

import (
	"errors"
	"strconv"
	"strings"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/shopspring/decimal"
	"github.com/vibast-solutions/ms-go-donations/app/entity"
)

type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (r *LoginRequest) GetEmail() string    { return r.Email }
func (r *LoginRequest) GetPassword() string { return r.Password }

func NewLoginRequestFromContext(ctx echo.Context) (*LoginRequest, error) {
	var body LoginRequest
	if err := ctx.Bind(&body); err != nil {
		return nil, err
	}
	body.Email = strings.TrimSpace(body.Email)
	return &body, nil
}

func (r *LoginRequest) Validate() error {
	if r.GetEmail() == "" || r.GetPassword() == "" {
		return errors.New("email and password are required")
	}
	return nil
}

type UserRequest struct {
	Email    string `json:"email"`
	FullName string `json:"full_name"`
	Password string `json:"password"`
	Role     string `json:"role"`
}

func (r *UserRequest) GetEmail() string    { return r.Email }
func (r *UserRequest) GetFullName() string { return r.FullName }
func (r *UserRequest) GetPassword() string { return r.Password }
func (r *UserRequest) GetRole() string     { return r.Role }

func NewUserRequestFromContext(ctx echo.Context) (*UserRequest, error) {
	var body UserRequest
	if err := ctx.Bind(&body); err != nil {
		return nil, err
	}
	body.Email = strings.TrimSpace(body.Email)
	body.FullName = strings.TrimSpace(body.FullName)
	body.Role = strings.ToLower(strings.TrimSpace(body.Role))
	return &body, nil
}

func (r *UserRequest) Validate() error {
	if err := maxLen("full_name", r.GetFullName(), 120); err != nil {
		return err
	}
	if r.GetRole() != "" && r.GetRole() != "admin" && r.GetRole() != "user" {
		return errors.New("role must be admin or user")
	}
	return nil
}

type StreamerRequest struct {
	Nome      string `json:"nome"`
	Email     string `json:"email"`
	Telefone  string `json:"telefone"`
	SteamId   string `json:"steam_id"`
	Youtube   string `json:"youtube"`
	Instagram string `json:"instagram"`
	Facebook  string `json:"facebook"`
}

func (r *StreamerRequest) GetName() string      { return r.Nome }
func (r *StreamerRequest) GetEmail() string     { return r.Email }
func (r *StreamerRequest) GetPhone() string     { return r.Telefone }
func (r *StreamerRequest) GetSteamId() string   { return r.SteamId }
func (r *StreamerRequest) GetYoutube() string   { return r.Youtube }
func (r *StreamerRequest) GetInstagram() string { return r.Instagram }
func (r *StreamerRequest) GetFacebook() string  { return r.Facebook }

func NewStreamerRequestFromContext(ctx echo.Context) (*StreamerRequest, error) {
	var body StreamerRequest
	if err := ctx.Bind(&body); err != nil {
		return nil, err
	}
	body.Nome = strings.TrimSpace(body.Nome)
	body.Email = strings.TrimSpace(body.Email)
	return &body, nil
}

func (r *StreamerRequest) Validate() error {
	if r.GetName() == "" || r.GetEmail() == "" {
		return errors.New("nome and email are required")
	}
	return maxLen("nome", r.GetName(), 120)
}

type StreamerCouponRequest struct {
	StreamerId  string           `json:"streamer_id"`
	Nome        string           `json:"nome"`
	Codigo      string           `json:"codigo"`
	Descricao   string           `json:"descricao"`
	DataInicio  string           `json:"data_inicio"`
	DataFim     string           `json:"data_fim"`
	Valor       *decimal.Decimal `json:"valor"`
	Porcentagem *decimal.Decimal `json:"porcentagem"`

	startsAt time.Time
	endsAt   time.Time
}

func (r *StreamerCouponRequest) GetStreamerId() string           { return r.StreamerId }
func (r *StreamerCouponRequest) GetName() string                 { return r.Nome }
func (r *StreamerCouponRequest) GetCode() string                 { return r.Codigo }
func (r *StreamerCouponRequest) GetDescription() string          { return r.Descricao }
func (r *StreamerCouponRequest) GetStartsAt() time.Time          { return r.startsAt }
func (r *StreamerCouponRequest) GetEndsAt() time.Time            { return r.endsAt }
func (r *StreamerCouponRequest) GetValue() *decimal.Decimal      { return r.Valor }
func (r *StreamerCouponRequest) GetPercentage() *decimal.Decimal { return r.Porcentagem }

func NewStreamerCouponRequestFromContext(ctx echo.Context) (*StreamerCouponRequest, error) {
	var body StreamerCouponRequest
	if err := ctx.Bind(&body); err != nil {
		return nil, err
	}
	if streamerID := strings.TrimSpace(ctx.Param("streamerId")); streamerID != "" {
		body.StreamerId = streamerID
	}
	body.StreamerId = strings.TrimSpace(body.StreamerId)
	body.Nome = strings.TrimSpace(body.Nome)
	body.Codigo = strings.ToUpper(strings.TrimSpace(body.Codigo))

	var err error
	if body.startsAt, err = parseDateTime(body.DataInicio, false); err != nil {
		return nil, err
	}
	if body.endsAt, err = parseDateTime(body.DataFim, true); err != nil {
		return nil, err
	}
	return &body, nil
}

func (r *StreamerCouponRequest) Validate() error {
	if r.GetName() == "" || r.GetCode() == "" {
		return errors.New("nome and codigo are required")
	}
	if err := maxLen("codigo", r.GetCode(), 50); err != nil {
		return err
	}
	if r.GetStartsAt().IsZero() || r.GetEndsAt().IsZero() {
		return errors.New("data_inicio and data_fim are required")
	}
	return nil
}

type CampaignRequest struct {
	StreamerId string          `json:"streamer_id"`
	Nome       string          `json:"nome"`
	Descricao  string          `json:"descricao"`
	DataInicio string          `json:"data_inicio"`
	DataFim    string          `json:"data_fim"`
	Valor      decimal.Decimal `json:"valor"`

	startsAt time.Time
	endsAt   time.Time
}

func (r *CampaignRequest) GetStreamerId() string     { return r.StreamerId }
func (r *CampaignRequest) GetName() string           { return r.Nome }
func (r *CampaignRequest) GetDescription() string    { return r.Descricao }
func (r *CampaignRequest) GetStartsAt() time.Time    { return r.startsAt }
func (r *CampaignRequest) GetEndsAt() time.Time      { return r.endsAt }
func (r *CampaignRequest) GetValue() decimal.Decimal { return r.Valor }

func NewCampaignRequestFromContext(ctx echo.Context) (*CampaignRequest, error) {
	var body CampaignRequest
	if err := ctx.Bind(&body); err != nil {
		return nil, err
	}
	body.StreamerId = strings.TrimSpace(body.StreamerId)
	body.Nome = strings.TrimSpace(body.Nome)

	var err error
	if body.startsAt, err = parseDateTime(body.DataInicio, false); err != nil {
		return nil, err
	}
	if body.endsAt, err = parseDateTime(body.DataFim, true); err != nil {
		return nil, err
	}
	return &body, nil
}

func (r *CampaignRequest) Validate() error {
	if r.GetName() == "" {
		return errors.New("nome is required")
	}
	if !hasAtMostTwoDecimals(r.GetValue()) {
		return errors.New("valor must have at most two decimal places")
	}
	return nil
}

type DiscountCouponRequest struct {
	Code               string          `json:"code"`
	DiscountPercentage decimal.Decimal `json:"discount_percentage"`
	Active             *bool           `json:"active"`
}

func (r *DiscountCouponRequest) GetCode() string                { return r.Code }
func (r *DiscountCouponRequest) GetPercentage() decimal.Decimal { return r.DiscountPercentage }

// GetActive defaults to true when the field is omitted.
func (r *DiscountCouponRequest) GetActive() bool {
	return r.Active == nil || *r.Active
}

func NewDiscountCouponRequestFromContext(ctx echo.Context) (*DiscountCouponRequest, error) {
	var body DiscountCouponRequest
	if err := ctx.Bind(&body); err != nil {
		return nil, err
	}
	body.Code = strings.ToUpper(strings.TrimSpace(body.Code))
	return &body, nil
}

func (r *DiscountCouponRequest) Validate() error {
	if r.GetCode() == "" {
		return errors.New("code is required")
	}
	return maxLen("code", r.GetCode(), 50)
}

type ServerRequest struct {
	Nome        string          `json:"nome"`
	Host        string          `json:"host"`
	ValorMensal decimal.Decimal `json:"valor_mensal"`
}

func (r *ServerRequest) GetName() string                 { return r.Nome }
func (r *ServerRequest) GetHost() string                 { return r.Host }
func (r *ServerRequest) GetMonthlyCost() decimal.Decimal { return r.ValorMensal }

func NewServerRequestFromContext(ctx echo.Context) (*ServerRequest, error) {
	var body ServerRequest
	if err := ctx.Bind(&body); err != nil {
		return nil, err
	}
	body.Nome = strings.TrimSpace(body.Nome)
	body.Host = strings.TrimSpace(body.Host)
	return &body, nil
}

func (r *ServerRequest) Validate() error {
	if r.GetName() == "" || r.GetHost() == "" {
		return errors.New("nome and host are required")
	}
	return nil
}

type ServerModRequest struct {
	ServidorId  string          `json:"servidor_id"`
	NomeMod     string          `json:"nome_mod"`
	Discord     string          `json:"discord"`
	LojaSteam   string          `json:"loja_steam"`
	ValorMensal decimal.Decimal `json:"valor_mensal"`
}

func (r *ServerModRequest) GetServerId() string             { return r.ServidorId }
func (r *ServerModRequest) GetName() string                 { return r.NomeMod }
func (r *ServerModRequest) GetDiscord() string              { return r.Discord }
func (r *ServerModRequest) GetSteamStore() string           { return r.LojaSteam }
func (r *ServerModRequest) GetMonthlyCost() decimal.Decimal { return r.ValorMensal }

func NewServerModRequestFromContext(ctx echo.Context) (*ServerModRequest, error) {
	var body ServerModRequest
	if err := ctx.Bind(&body); err != nil {
		return nil, err
	}
	if serverID := strings.TrimSpace(ctx.Param("serverId")); serverID != "" {
		body.ServidorId = serverID
	}
	body.ServidorId = strings.TrimSpace(body.ServidorId)
	body.NomeMod = strings.TrimSpace(body.NomeMod)
	return &body, nil
}

func (r *ServerModRequest) Validate() error {
	if r.GetName() == "" {
		return errors.New("nome_mod is required")
	}
	return nil
}

type VipPackageRequest struct {
	Nome      string          `json:"nome"`
	Descricao string          `json:"descricao"`
	Valor     decimal.Decimal `json:"valor"`
}

func (r *VipPackageRequest) GetName() string           { return r.Nome }
func (r *VipPackageRequest) GetDescription() string    { return r.Descricao }
func (r *VipPackageRequest) GetValue() decimal.Decimal { return r.Valor }

func NewVipPackageRequestFromContext(ctx echo.Context) (*VipPackageRequest, error) {
	var body VipPackageRequest
	if err := ctx.Bind(&body); err != nil {
		return nil, err
	}
	body.Nome = strings.TrimSpace(body.Nome)
	body.Descricao = strings.TrimSpace(body.Descricao)
	return &body, nil
}

func (r *VipPackageRequest) Validate() error {
	if r.GetName() == "" {
		return errors.New("nome is required")
	}
	if !hasAtMostTwoDecimals(r.GetValue()) {
		return errors.New("valor must have at most two decimal places")
	}
	return nil
}

type SecretRequest struct {
	Key         string  `json:"key"`
	Value       string  `json:"value"`
	Description *string `json:"description"`
}

func (r *SecretRequest) GetKey() string          { return r.Key }
func (r *SecretRequest) GetValue() string        { return r.Value }
func (r *SecretRequest) GetDescription() *string { return r.Description }

func NewSecretRequestFromContext(ctx echo.Context) (*SecretRequest, error) {
	var body SecretRequest
	if err := bindOptional(ctx, &body); err != nil {
		return nil, err
	}
	if key := strings.TrimSpace(ctx.Param("key")); key != "" {
		body.Key = key
	}
	body.Key = strings.ToUpper(strings.TrimSpace(body.Key))
	return &body, nil
}

func (r *SecretRequest) Validate() error {
	if r.GetKey() == "" {
		return errors.New("key is required")
	}
	return maxLen("key", r.GetKey(), 120)
}

type MonthlySummaryRequest struct {
	Month int
	Year  int
}

// NewMonthlySummaryRequestFromContext defaults to the current month in Sao Paulo.
func NewMonthlySummaryRequestFromContext(ctx echo.Context) (*MonthlySummaryRequest, error) {
	now := time.Now().In(entity.SaoPaulo)
	req := &MonthlySummaryRequest{Month: int(now.Month()), Year: now.Year()}

	if raw := strings.TrimSpace(ctx.QueryParam("month")); raw != "" {
		month, err := strconv.Atoi(raw)
		if err != nil {
			return nil, errors.New("month must be an integer")
		}
		req.Month = month
	}
	if raw := strings.TrimSpace(ctx.QueryParam("year")); raw != "" {
		year, err := strconv.Atoi(raw)
		if err != nil {
			return nil, errors.New("year must be an integer")
		}
		req.Year = year
	}
	return req, nil
}

func (r *MonthlySummaryRequest) Validate() error {
	if r.Month < 1 || r.Month > 12 {
		return errors.New("month must be between 1 and 12")
	}
	return nil
}
