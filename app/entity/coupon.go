package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

const (
	CouponKindStreamer = "streamer"
	CouponKindGlobal   = "global"
)

// Discount is either a PercentageDiscount or a FixedDiscount.
type Discount interface {
	isDiscount()
}

type PercentageDiscount struct {
	Percent decimal.Decimal
}

type FixedDiscount struct {
	Value decimal.Decimal
}

func (PercentageDiscount) isDiscount() {}
func (FixedDiscount) isDiscount()      {}

type DiscountCoupon struct {
	ID         string
	Code       string
	Percentage decimal.Decimal
	Active     bool
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

type StreamerCoupon struct {
	ID          string
	StreamerID  string
	Name        string
	Code        string
	Description *string
	StartsAt    time.Time
	EndsAt      time.Time
	Discount    Discount
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// ValidAt reports whether at falls inside the coupon window, both ends inclusive.
func (c *StreamerCoupon) ValidAt(at time.Time) bool {
	return !at.Before(c.StartsAt) && !at.After(c.EndsAt)
}
