package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/vibast-solutions/ms-go-donations/app/repository"
)

type fakeFinanceSources struct {
	donationFrom, donationTo time.Time
	campaignFrom             time.Time
	donations                *repository.DonationTotals
	infrastructure           decimal.Decimal
	campaigns                *repository.CampaignTotals
}

func (f *fakeFinanceSources) TotalsBetween(_ context.Context, from, to time.Time) (*repository.DonationTotals, error) {
	f.donationFrom, f.donationTo = from, to
	return f.donations, nil
}

func (f *fakeFinanceSources) MonthlyCostTotal(context.Context) (decimal.Decimal, error) {
	return f.infrastructure, nil
}

func (f *fakeFinanceSources) TotalsStartingBetween(_ context.Context, from, _ time.Time) (*repository.CampaignTotals, error) {
	f.campaignFrom = from
	return f.campaigns, nil
}

func TestMonthlySummary(t *testing.T) {
	sources := &fakeFinanceSources{
		donations: &repository.DonationTotals{
			Count:         5,
			ApprovedCount: 3,
			PendingCount:  1,
			ApprovedTotal: dec("530.00"),
			PendingTotal:  dec("50.00"),
		},
		// two servers at 150 + 100 and one mod at 30
		infrastructure: dec("280.00"),
		campaigns:      &repository.CampaignTotals{Count: 1, Total: dec("100.00")},
	}
	svc := NewFinanceService(sources, sources, sources)

	summary, err := svc.MonthlySummary(context.Background(), 3, 2026)
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if !summary.Balance.Equal(dec("150")) {
		t.Fatalf("expected balance 150, got %s", summary.Balance)
	}
	if summary.DonationCount != 5 || summary.ApprovedCount != 3 || summary.CampaignCount != 1 {
		t.Fatalf("unexpected counts: %+v", summary)
	}

	wantFrom := time.Date(2026, 3, 1, 3, 0, 0, 0, time.UTC)
	wantTo := time.Date(2026, 4, 1, 3, 0, 0, 0, time.UTC)
	if !sources.donationFrom.Equal(wantFrom) || !sources.donationTo.Equal(wantTo) {
		t.Fatalf("unexpected month window: %s - %s", sources.donationFrom, sources.donationTo)
	}
	if !sources.campaignFrom.Equal(wantFrom) {
		t.Fatalf("unexpected campaign window start: %s", sources.campaignFrom)
	}
}

func TestMonthlySummaryNegativeBalance(t *testing.T) {
	sources := &fakeFinanceSources{
		donations:      &repository.DonationTotals{ApprovedTotal: dec("100")},
		infrastructure: dec("250"),
		campaigns:      &repository.CampaignTotals{Total: decimal.Zero},
	}
	summary, err := NewFinanceService(sources, sources, sources).MonthlySummary(context.Background(), 12, 2025)
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if !summary.Balance.Equal(dec("-150")) {
		t.Fatalf("expected -150, got %s", summary.Balance)
	}
}

func TestMonthlySummaryValidatesMonth(t *testing.T) {
	sources := &fakeFinanceSources{}
	_, err := NewFinanceService(sources, sources, sources).MonthlySummary(context.Background(), 13, 2026)
	if !errors.Is(err, ErrValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
}
