package service

import (
	"context"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"github.com/vibast-solutions/ms-go-donations/app/entity"
)

var hundred = decimal.NewFromInt(100)

type streamerCouponFinder interface {
	FindValidByCode(ctx context.Context, code string, at time.Time) (*entity.StreamerCoupon, error)
}

type discountCouponFinder interface {
	FindActiveByCode(ctx context.Context, code string) (*entity.DiscountCoupon, error)
}

type streamerFinder interface {
	FindByID(ctx context.Context, id string) (*entity.Streamer, error)
}

// appliedCoupon is the single coupon resolved for a donation.
type appliedCoupon struct {
	Code     string
	Kind     string
	Discount entity.Discount
	Streamer *entity.Streamer
}

func (c *appliedCoupon) metadata() map[string]string {
	meta := map[string]string{
		"coupon_code": c.Code,
		"coupon_kind": c.Kind,
	}
	if c.Streamer != nil {
		meta["streamer_id"] = c.Streamer.ID
		meta["streamer_name"] = c.Streamer.Name
		if c.Streamer.SteamID != nil {
			meta["streamer_steam_id"] = *c.Streamer.SteamID
		}
	}
	return meta
}

type couponResolver struct {
	streamerCoupons streamerCouponFinder
	globalCoupons   discountCouponFinder
	streamers       streamerFinder
}

// resolve looks the code up as a streamer coupon valid at now first and falls
// back to an active global coupon. An unknown code resolves to nil.
func (r *couponResolver) resolve(ctx context.Context, code string, now time.Time) (*appliedCoupon, error) {
	code = strings.TrimSpace(code)
	if code == "" {
		return nil, nil
	}

	streamerCoupon, err := r.streamerCoupons.FindValidByCode(ctx, code, now)
	if err != nil {
		return nil, err
	}
	if streamerCoupon != nil {
		applied := &appliedCoupon{
			Code:     streamerCoupon.Code,
			Kind:     entity.CouponKindStreamer,
			Discount: streamerCoupon.Discount,
		}
		streamer, err := r.streamers.FindByID(ctx, streamerCoupon.StreamerID)
		if err != nil {
			return nil, err
		}
		applied.Streamer = streamer
		return applied, nil
	}

	global, err := r.globalCoupons.FindActiveByCode(ctx, code)
	if err != nil {
		return nil, err
	}
	if global != nil {
		return &appliedCoupon{
			Code:     global.Code,
			Kind:     entity.CouponKindGlobal,
			Discount: entity.PercentageDiscount{Percent: global.Percentage},
		}, nil
	}

	return nil, nil
}

// applyDiscount never returns a negative amount.
func applyDiscount(amount decimal.Decimal, discount entity.Discount) decimal.Decimal {
	var result decimal.Decimal
	switch d := discount.(type) {
	case entity.PercentageDiscount:
		result = amount.Mul(hundred.Sub(d.Percent)).Div(hundred)
	case entity.FixedDiscount:
		result = amount.Sub(d.Value)
	default:
		result = amount
	}
	if result.IsNegative() {
		return decimal.Zero
	}
	return result
}

func applyMarkup(amount, percent decimal.Decimal) decimal.Decimal {
	if !percent.IsPositive() {
		return amount
	}
	return amount.Mul(hundred.Add(percent)).Div(hundred)
}

// finalAmount rounds half-up to centavos after discount and markup.
func finalAmount(amount decimal.Decimal, coupon *appliedCoupon, markup decimal.Decimal) decimal.Decimal {
	result := amount
	if coupon != nil {
		result = applyDiscount(result, coupon.Discount)
	}
	return applyMarkup(result, markup).Round(2)
}
