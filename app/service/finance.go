package service

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
	"github.com/vibast-solutions/ms-go-donations/app/entity"
	"github.com/vibast-solutions/ms-go-donations/app/repository"
)

type donationTotals interface {
	TotalsBetween(ctx context.Context, from, to time.Time) (*repository.DonationTotals, error)
}

type infrastructureCosts interface {
	MonthlyCostTotal(ctx context.Context) (decimal.Decimal, error)
}

type campaignTotals interface {
	TotalsStartingBetween(ctx context.Context, from, to time.Time) (*repository.CampaignTotals, error)
}

type MonthlySummary struct {
	Month int
	Year  int

	DonationCount int64
	ApprovedCount int64
	PendingCount  int64
	ApprovedTotal decimal.Decimal
	PendingTotal  decimal.Decimal

	InfrastructureTotal decimal.Decimal
	CampaignCount       int64
	CampaignsTotal      decimal.Decimal

	Balance decimal.Decimal
}

type FinanceService struct {
	donations donationTotals
	servers   infrastructureCosts
	campaigns campaignTotals
}

func NewFinanceService(donations donationTotals, servers infrastructureCosts, campaigns campaignTotals) *FinanceService {
	return &FinanceService{donations: donations, servers: servers, campaigns: campaigns}
}

// MonthlySummary uses Sao Paulo month boundaries. Infrastructure cost is the
// current recurring cost and is not scoped to the month.
func (s *FinanceService) MonthlySummary(ctx context.Context, month, year int) (*MonthlySummary, error) {
	if month < 1 || month > 12 {
		return nil, validationError("month must be between 1 and 12")
	}
	if year < 2000 || year > 9999 {
		return nil, validationError("year is out of range")
	}

	from := time.Date(year, time.Month(month), 1, 0, 0, 0, 0, entity.SaoPaulo)
	to := from.AddDate(0, 1, 0)

	donations, err := s.donations.TotalsBetween(ctx, from.UTC(), to.UTC())
	if err != nil {
		return nil, err
	}
	infrastructure, err := s.servers.MonthlyCostTotal(ctx)
	if err != nil {
		return nil, err
	}
	campaigns, err := s.campaigns.TotalsStartingBetween(ctx, from.UTC(), to.UTC())
	if err != nil {
		return nil, err
	}

	return &MonthlySummary{
		Month:               month,
		Year:                year,
		DonationCount:       donations.Count,
		ApprovedCount:       donations.ApprovedCount,
		PendingCount:        donations.PendingCount,
		ApprovedTotal:       donations.ApprovedTotal,
		PendingTotal:        donations.PendingTotal,
		InfrastructureTotal: infrastructure,
		CampaignCount:       campaigns.Count,
		CampaignsTotal:      campaigns.Total,
		Balance:             donations.ApprovedTotal.Sub(infrastructure).Sub(campaigns.Total),
	}, nil
}
