package types

import "encoding/json"

type ErrorResponse struct {
	Error string `json:"error"`
}

type HealthResponse struct {
	Status string `json:"status"`
}

type MessageResponse struct {
	Message string `json:"message"`
}

type CreatePixPaymentResponse struct {
	QRCode         string      `json:"qr_code"`
	QRCodeBase64   string      `json:"qr_code_base64"`
	TicketURL      string      `json:"ticket_url"`
	PaymentID      string      `json:"payment_id"`
	Status         string      `json:"status"`
	DonationID     string      `json:"donation_id"`
	Amount         json.Number `json:"amount"`
	OriginalAmount json.Number `json:"original_amount"`
	DiscountCoupon *string     `json:"discount_coupon"`
}

type CancelOrderResponse struct {
	Success bool   `json:"success"`
	Status  string `json:"status"`
}

type Donation struct {
	Id             string      `json:"id"`
	PaymentId      string      `json:"payment_id"`
	Name           string      `json:"name"`
	Email          string      `json:"email"`
	Phone          string      `json:"phone,omitempty"`
	SteamId        string      `json:"steam_id,omitempty"`
	Amount         json.Number `json:"amount"`
	Description    string      `json:"description,omitempty"`
	Status         string      `json:"status"`
	DiscountCoupon string      `json:"discount_coupon,omitempty"`
	QrCode         string      `json:"qr_code,omitempty"`
	QrCodeBase64   string      `json:"qr_code_base64,omitempty"`
	TicketUrl      string      `json:"ticket_url,omitempty"`
	CreatedAt      string      `json:"created_at"`
	UpdatedAt      string      `json:"updated_at"`
}

type DonationEnvelopeResponse struct {
	Donation *Donation `json:"donation"`
}

type ListDonationsResponse struct {
	Donations []*Donation `json:"donations"`
}

type RefreshReportResponse struct {
	Checked int `json:"checked"`
	Updated int `json:"updated"`
	Failed  int `json:"failed"`
}

type BackfillReportResponse struct {
	Scanned  int `json:"scanned"`
	Inserted int `json:"inserted"`
	Failed   int `json:"failed"`
}

type User struct {
	Id        string `json:"id"`
	Email     string `json:"email"`
	FullName  string `json:"full_name"`
	Role      string `json:"role"`
	CreatedAt string `json:"created_at"`
}

type LoginResponse struct {
	Token     string `json:"token"`
	ExpiresAt string `json:"expires_at"`
	User      *User  `json:"user"`
}

type UserEnvelopeResponse struct {
	User *User `json:"user"`
}

type ListUsersResponse struct {
	Users []*User `json:"users"`
}

type Streamer struct {
	Id        string `json:"id"`
	Nome      string `json:"nome"`
	Email     string `json:"email"`
	Telefone  string `json:"telefone,omitempty"`
	SteamId   string `json:"steam_id,omitempty"`
	Youtube   string `json:"youtube,omitempty"`
	Instagram string `json:"instagram,omitempty"`
	Facebook  string `json:"facebook,omitempty"`
	CreatedAt string `json:"created_at"`
}

type StreamerCoupon struct {
	Id          string       `json:"id"`
	StreamerId  string       `json:"streamer_id"`
	Nome        string       `json:"nome"`
	Codigo      string       `json:"codigo"`
	Descricao   string       `json:"descricao,omitempty"`
	DataInicio  string       `json:"data_inicio"`
	DataFim     string       `json:"data_fim"`
	Valor       *json.Number `json:"valor"`
	Porcentagem *json.Number `json:"porcentagem"`
}

type Campaign struct {
	Id         string      `json:"id"`
	StreamerId string      `json:"streamer_id"`
	Nome       string      `json:"nome"`
	Descricao  string      `json:"descricao,omitempty"`
	DataInicio string      `json:"data_inicio"`
	DataFim    string      `json:"data_fim"`
	Valor      json.Number `json:"valor"`
}

type DiscountCoupon struct {
	Id                 string      `json:"id"`
	Code               string      `json:"code"`
	DiscountPercentage json.Number `json:"discount_percentage"`
	Active             bool        `json:"active"`
	CreatedAt          string      `json:"created_at"`
}

type ServerMod struct {
	Id          string      `json:"id"`
	ServidorId  string      `json:"servidor_id"`
	NomeMod     string      `json:"nome_mod"`
	Discord     string      `json:"discord,omitempty"`
	LojaSteam   string      `json:"loja_steam,omitempty"`
	ValorMensal json.Number `json:"valor_mensal"`
}

type Server struct {
	Id          string       `json:"id"`
	Nome        string       `json:"nome"`
	Host        string       `json:"host"`
	ValorMensal json.Number  `json:"valor_mensal"`
	Mods        []*ServerMod `json:"mods"`
}

type VipPackage struct {
	Id        string      `json:"id"`
	Nome      string      `json:"nome"`
	Descricao string      `json:"descricao,omitempty"`
	Valor     json.Number `json:"valor"`
}

type Secret struct {
	Key         string `json:"key"`
	Value       string `json:"value"`
	Description string `json:"description,omitempty"`
	UpdatedAt   string `json:"updated_at"`
}

type MonthlySummaryResponse struct {
	Month               int         `json:"month"`
	Year                int         `json:"year"`
	DonationCount       int64       `json:"donation_count"`
	ApprovedCount       int64       `json:"approved_count"`
	PendingCount        int64       `json:"pending_count"`
	ApprovedTotal       json.Number `json:"approved_total"`
	PendingTotal        json.Number `json:"pending_total"`
	InfrastructureTotal json.Number `json:"infrastructure_total"`
	CampaignCount       int64       `json:"campaign_count"`
	CampaignsTotal      json.Number `json:"campaigns_total"`
	Balance             json.Number `json:"balance"`
}

// ItemsResponse wraps admin collections.
type ItemsResponse[T any] struct {
	Items []T `json:"items"`
}
