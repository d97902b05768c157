package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

type Server struct {
	ID          string
	Name        string
	Host        string
	MonthlyCost decimal.Decimal
	Mods        []*ServerMod
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

type ServerMod struct {
	ID          string
	ServerID    string
	Name        string
	Discord     *string
	SteamStore  *string
	MonthlyCost decimal.Decimal
	CreatedAt   time.Time
	UpdatedAt   time.Time
}
