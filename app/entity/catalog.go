package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

type VipPackage struct {
	ID          string
	Name        string
	Description *string
	Value       decimal.Decimal
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

type AppSecret struct {
	ID          string
	Key         string
	Value       string
	Description *string
	CreatedAt   time.Time
	UpdatedAt   time.Time
}
