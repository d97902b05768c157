package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

type Streamer struct {
	ID        string
	Name      string
	Email     string
	Phone     *string
	SteamID   *string
	YouTube   *string
	Instagram *string
	Facebook  *string
	CreatedAt time.Time
	UpdatedAt time.Time
}

type StreamerCampaign struct {
	ID          string
	StreamerID  string
	Name        string
	Description *string
	StartsAt    time.Time
	EndsAt      time.Time
	Value       decimal.Decimal
	CreatedAt   time.Time
	UpdatedAt   time.Time
}
